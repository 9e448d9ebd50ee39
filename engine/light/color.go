package light

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// saturation is the weight of the hue ramp against white when assigning light colors.
const saturation = 0.8

// HueToRGB maps a hue in [0, 1] to a fully saturated RGB color on the standard hue ramp.
//
// Parameters:
//   - h: the hue; values outside [0, 1] wrap
//
// Returns:
//   - mgl32.Vec3: the RGB color, each component in [0, 1]
func HueToRGB(h float32) mgl32.Vec3 {
	f := func(n float32) float32 {
		k := float32(math.Mod(float64(n+h*6), 6))
		if k < 0 {
			k += 6
		}
		return 1 - max(min(k, 4-k, 1), 0)
	}
	return mgl32.Vec3{f(5), f(3), f(1)}
}

// lightColor returns the color assigned to a light with hue h: the hue ramp blended toward
// white and scaled by intensity.
func lightColor(h, intensity float32) mgl32.Vec3 {
	white := mgl32.Vec3{1, 1, 1}
	return white.Add(HueToRGB(h).Sub(white).Mul(saturation)).Mul(intensity)
}
