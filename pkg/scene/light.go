package scene

import "github.com/taigrr/scenery/pkg/math3d"

const (
	fallbackRadiance = 5
	fallbackSize     = 5
	fallbackDistance = 10
)

// SynthesizeLight returns the fixed quad light used when a source format
// supplies no emitters.
func SynthesizeLight() QuadLight {
	n := math3d.V3(0.5, -0.8, -0.5).Normalize()
	v1, v2 := math3d.OrthonormalBasis(n)
	return QuadLight{
		Emission: math3d.Splat3(fallbackRadiance),
		Position: n.Scale(-fallbackDistance),
		Normal:   n,
		V1:       v1,
		V2:       v2,
		Width:    fallbackSize,
		Height:   fallbackSize,
	}
}

// EnsureLight appends a synthesized light if the scene has none. It reports
// whether a light was added.
func (s *Scene) EnsureLight() bool {
	if len(s.Lights) > 0 {
		return false
	}
	s.Lights = append(s.Lights, SynthesizeLight())
	return true
}
