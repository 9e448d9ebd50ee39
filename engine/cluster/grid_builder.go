package cluster

// GridBuilderOption is a functional option used to configure a Grid during construction.
type GridBuilderOption func(*gridImpl)

// WithClusterDim sets the number of clusters along each axis.
//
// Parameters:
//   - x: clusters across the screen
//   - y: clusters up the screen
//   - z: depth slices
//
// Returns:
//   - GridBuilderOption: a function that sets the grid dimensions
func WithClusterDim(x, y, z int) GridBuilderOption {
	return func(g *gridImpl) {
		g.dimRaw = [3]int{x, y, z}
	}
}

// WithClusterWorkgroupSize sets the workgroup size of the clustering stage.
//
// Parameters:
//   - x, y, z: the workgroup extent
//
// Returns:
//   - GridBuilderOption: a function that sets the workgroup size
func WithClusterWorkgroupSize(x, y, z int) GridBuilderOption {
	return func(g *gridImpl) {
		g.workgroupSizeRaw = [3]int{x, y, z}
	}
}

// WithMaxLightsPerCluster sets the capacity of each cluster's light index list.
//
// Parameters:
//   - n: the capacity
//
// Returns:
//   - GridBuilderOption: a function that sets the capacity
func WithMaxLightsPerCluster(n int) GridBuilderOption {
	return func(g *gridImpl) {
		g.maxLights = n
	}
}

// WithLightRadius sets the bounding sphere radius used for binning.
func WithLightRadius(r float32) GridBuilderOption {
	return func(g *gridImpl) {
		g.lightRadius = r
	}
}
