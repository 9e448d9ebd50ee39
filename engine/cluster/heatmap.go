package cluster

import (
	"fmt"
	"image"
	"image/color"

	"github.com/Carmen-Shannon/oxy-clusters/common"
	"golang.org/x/image/draw"
)

// Heatmap renders the occupancy of one depth slice. Each cluster becomes a scale x scale
// block colored from black (empty) through red to yellow (full). Row 0 of the grid is drawn
// at the bottom so the image matches the screen.
//
// Parameters:
//   - clusters: the decoded cluster set, in grid index order
//   - grid: the grid the clusters were built with
//   - slice: the depth slice to draw
//   - scale: the block size in pixels per cluster
//
// Returns:
//   - image.Image: the heatmap
//   - error: common.ErrInvalidConfiguration (wrapped) for an out of range slice, a
//     non-positive scale or a cluster slice shorter than the grid
func Heatmap(clusters []Cluster, grid Grid, slice uint32, scale int) (image.Image, error) {
	dim := grid.Dim()
	if slice >= dim[2] {
		return nil, fmt.Errorf("heatmap slice %d outside [0, %d): %w", slice, dim[2], common.ErrInvalidConfiguration)
	}
	if scale <= 0 {
		return nil, fmt.Errorf("heatmap scale %d: %w", scale, common.ErrInvalidConfiguration)
	}
	if uint32(len(clusters)) < grid.NumClusters() {
		return nil, fmt.Errorf("heatmap needs %d clusters, got %d: %w", grid.NumClusters(), len(clusters), common.ErrInvalidConfiguration)
	}

	small := image.NewRGBA(image.Rect(0, 0, int(dim[0]), int(dim[1])))
	maxLights := float32(grid.MaxLightsPerCluster())
	for y := uint32(0); y < dim[1]; y++ {
		for x := uint32(0); x < dim[0]; x++ {
			c := clusters[dim.Index(common.Dim3{x, y, slice})]
			small.Set(int(x), int(dim[1]-1-y), heatColor(float32(c.NumLights)/maxLights))
		}
	}

	out := image.NewRGBA(image.Rect(0, 0, int(dim[0])*scale, int(dim[1])*scale))
	draw.NearestNeighbor.Scale(out, out.Bounds(), small, small.Bounds(), draw.Src, nil)
	return out, nil
}

// heatColor maps an occupancy fraction in [0, 1] onto a black-red-yellow ramp.
func heatColor(f float32) color.RGBA {
	f = min(max(f, 0), 1)
	if f == 0 {
		return color.RGBA{A: 0xff}
	}
	if f <= 0.5 {
		return color.RGBA{R: uint8(64 + 382*f), A: 0xff}
	}
	return color.RGBA{R: 0xff, G: uint8(510 * (f - 0.5)), A: 0xff}
}
