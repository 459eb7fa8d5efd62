package preview

import (
	"math"

	"github.com/taigrr/scenery/pkg/math3d"
	"github.com/taigrr/scenery/pkg/scene"
)

// sample returns the linear RGB color of t at (u, v) with nearest filtering
// and repeat wrapping. v = 0 is the bottom row.
func sample(t *scene.Texture, u, v float64) math3d.Vec3 {
	if t.Width == 0 || t.Height == 0 || t.Channels == 0 {
		return math3d.Splat3(1)
	}
	u -= math.Floor(u)
	v -= math.Floor(v)
	x := min(int(u*float64(t.Width)), t.Width-1)
	y := min(int((1-v)*float64(t.Height)), t.Height-1)
	i := (y*t.Width + x) * t.Channels

	var c math3d.Vec3
	if t.Channels < 3 {
		c = math3d.Splat3(float64(t.Pixels[i]) / 255)
	} else {
		c = math3d.V3(float64(t.Pixels[i])/255, float64(t.Pixels[i+1])/255, float64(t.Pixels[i+2])/255)
	}
	if t.ColorSpace == scene.SRGB {
		c = math3d.V3(srgbToLinear(c.X), srgbToLinear(c.Y), srgbToLinear(c.Z))
	}
	return c
}

func srgbToLinear(c float64) float64 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

func linearToSRGB(c float64) float64 {
	c = math3d.Clamp(c, 0, 1)
	if c <= 0.0031308 {
		return c * 12.92
	}
	return 1.055*math.Pow(c, 1/2.4) - 0.055
}
