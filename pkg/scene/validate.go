package scene

import (
	"errors"
	"fmt"
)

// Validate checks the cross-reference invariants of the scene: triangle
// indices within their geometry, parallel attribute arrays, mesh, material
// and texture references in range, and no empty meshes. All violations are
// returned joined.
func (s *Scene) Validate() error {
	var errs []error
	for mi := range s.Meshes {
		m := &s.Meshes[mi]
		if len(m.Geometries) == 0 {
			errs = append(errs, fmt.Errorf("mesh %d (%s): no geometries", mi, m.Name))
		}
		for gi := range m.Geometries {
			if err := s.validateGeometry(&m.Geometries[gi]); err != nil {
				errs = append(errs, fmt.Errorf("mesh %d (%s) geometry %d: %w", mi, m.Name, gi, err))
			}
		}
	}
	for i, inst := range s.Instances {
		if inst.Mesh < 0 || inst.Mesh >= len(s.Meshes) {
			errs = append(errs, fmt.Errorf("instance %d: mesh %d out of range [0,%d)", i, inst.Mesh, len(s.Meshes)))
		}
	}
	for i, mat := range s.Materials {
		if mat.ColorTexture != NoTexture && (mat.ColorTexture < 0 || mat.ColorTexture >= len(s.Textures)) {
			errs = append(errs, fmt.Errorf("material %d (%s): texture %d out of range [0,%d)", i, mat.Name, mat.ColorTexture, len(s.Textures)))
		}
	}
	for i, tex := range s.Textures {
		if want := tex.Width * tex.Height * tex.Channels; len(tex.Pixels) != want {
			errs = append(errs, fmt.Errorf("texture %d (%s): %d pixel bytes, want %d", i, tex.Name, len(tex.Pixels), want))
		}
	}
	return errors.Join(errs...)
}

func (s *Scene) validateGeometry(g *Geometry) error {
	n := len(g.Vertices)
	if len(g.Normals) != 0 && len(g.Normals) != n {
		return fmt.Errorf("%d normals for %d vertices", len(g.Normals), n)
	}
	if len(g.UVs) != 0 && len(g.UVs) != n {
		return fmt.Errorf("%d uvs for %d vertices", len(g.UVs), n)
	}
	for ti, tri := range g.Triangles {
		for _, idx := range tri {
			if idx < 0 || idx >= n {
				return fmt.Errorf("triangle %d: index %d out of range [0,%d)", ti, idx, n)
			}
		}
	}
	if g.Material != NoMaterial && (g.Material < 0 || g.Material >= len(s.Materials)) {
		return fmt.Errorf("material %d out of range [0,%d)", g.Material, len(s.Materials))
	}
	return nil
}
