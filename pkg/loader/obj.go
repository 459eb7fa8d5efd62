package loader

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/g3n/engine/loader/obj"

	"github.com/taigrr/scenery/pkg/math3d"
	"github.com/taigrr/scenery/pkg/scene"
)

// loadOBJ converts an OBJ file and its material library into a single
// mesh, one geometry per OBJ object, placed by one identity instance.
func (l *Loader) loadOBJ(path string, s *scene.Scene) error {
	dec, err := obj.Decode(path, "")
	if err != nil {
		return l.fail(ErrParserFailure, "", err)
	}
	for _, w := range dec.Warnings {
		l.warn("obj decoder", "detail", w)
	}

	reg := scene.NewTextureRegistry(s)
	materials, err := l.objMaterials(dec, filepath.Dir(path), reg, s)
	if err != nil {
		return err
	}

	mesh := scene.Mesh{Name: filepath.Base(path)}
	for i := range dec.Objects {
		o := &dec.Objects[i]
		g, err := l.objGeometry(dec, o, materials)
		if err != nil {
			return err
		}
		if len(g.Triangles) == 0 {
			l.warn("object has no faces", "object", o.Name)
			continue
		}
		mesh.Geometries = append(mesh.Geometries, g)
	}
	if len(mesh.Geometries) == 0 {
		l.warn("file has no geometry")
		return nil
	}
	s.AddInstance(s.AddMesh(mesh), math3d.Identity())
	return nil
}

// objNoMaterial is the name the decoder gives faces that precede any
// usemtl statement.
const objNoMaterial = "internal default"

// objMaterials translates every material of the library, in name order,
// and returns the material index for each name. Names that usemtl refers to
// but the library never defines are left out, so their faces fall back to
// the shared default material.
func (l *Loader) objMaterials(dec *obj.Decoder, dir string, reg *scene.TextureRegistry, s *scene.Scene) (map[string]int, error) {
	names := make([]string, 0, len(dec.Materials))
	for name := range dec.Materials {
		names = append(names, name)
	}
	slices.Sort(names)

	ids := make(map[string]int, len(names))
	for _, name := range names {
		m := dec.Materials[name]
		if undefinedMaterial(m) {
			continue
		}
		mat := objMaterial(m)
		mat.Name = name
		if m.MapKd != "" {
			texPath := m.MapKd
			if !filepath.IsAbs(texPath) {
				texPath = filepath.Join(dir, texPath)
			}
			tex, err := reg.Register(m.MapKd, texPath, loadTextureFile)
			if err != nil {
				return nil, l.fail(kindOf(err, ErrParserFailure), m.MapKd, err)
			}
			reg.PromoteSRGB(tex)
			mat.ColorTexture = tex
		}
		ids[name] = s.AddMaterial(mat)
	}
	return ids, nil
}

// undefinedMaterial reports whether m is the empty record the decoder
// creates for a usemtl name with no matching newmtl.
func undefinedMaterial(m *obj.Material) bool {
	return *m == obj.Material{Name: m.Name}
}

// objMaterial maps a Phong-style MTL record onto the Disney parameters.
// An opacity of zero means the library never saw a "d" statement; the
// decoder keeps no other trace of it, so an explicit "d 0" reads as opaque.
func objMaterial(m *obj.Material) scene.Material {
	dissolve := float64(m.Opacity)
	if dissolve == 0 {
		dissolve = 1
	}
	specular := math3d.Clamp(float64(m.Shininess)/500, 0, 1)
	return scene.Material{
		Name:                 m.Name,
		BaseColor:            math3d.V3(float64(m.Diffuse.R), float64(m.Diffuse.G), float64(m.Diffuse.B)),
		Specular:             specular,
		Roughness:            1 - specular,
		SpecularTransmission: math3d.Clamp(1-dissolve, 0, 1),
		ColorTexture:         scene.NoTexture,
	}
}

// objGeometry remaps the object's per-corner position/normal/uv indices to
// one shared index per distinct triple.
func (l *Loader) objGeometry(dec *obj.Decoder, o *obj.Object, materials map[string]int) (scene.Geometry, error) {
	g := scene.NewGeometry()
	nPos := len(dec.Vertices) / 3
	nNorm := len(dec.Normals) / 3
	nUV := len(dec.Uvs) / 2

	// Attributes are kept only when every corner of the object has them,
	// so the arrays stay parallel to Vertices.
	hasNormals, hasUVs := len(o.Faces) > 0, len(o.Faces) > 0
	someNormals, someUVs := false, false
	for _, f := range o.Faces {
		for c := range f.Vertices {
			n := c < len(f.Normals) && inRange(f.Normals[c], nNorm)
			t := c < len(f.Uvs) && inRange(f.Uvs[c], nUV)
			hasNormals = hasNormals && n
			hasUVs = hasUVs && t
			someNormals = someNormals || n
			someUVs = someUVs || t
		}
	}
	if someNormals && !hasNormals {
		l.warn("normals missing on some corners, dropping normals", "object", o.Name)
	}
	if someUVs && !hasUVs {
		l.warn("texture coordinates missing on some corners, dropping them", "object", o.Name)
	}

	dedup := NewVertexDeduper()
	corner := func(f *obj.Face, c int) (int, error) {
		k := VertexKey{Position: f.Vertices[c], Normal: -1, UV: -1}
		if !inRange(k.Position, nPos) {
			return 0, l.fail(ErrParserFailure, o.Name, fmt.Errorf("position index %d out of range", k.Position))
		}
		if hasNormals {
			k.Normal = f.Normals[c]
		}
		if hasUVs {
			k.UV = f.Uvs[c]
		}
		idx, added := dedup.Index(k)
		if added {
			p := 3 * k.Position
			g.Vertices = append(g.Vertices, math3d.V3(float64(dec.Vertices[p]), float64(dec.Vertices[p+1]), float64(dec.Vertices[p+2])))
			if hasNormals {
				n := 3 * k.Normal
				g.Normals = append(g.Normals, math3d.V3(float64(dec.Normals[n]), float64(dec.Normals[n+1]), float64(dec.Normals[n+2])).Normalize())
			}
			if hasUVs {
				t := 2 * k.UV
				g.UVs = append(g.UVs, math3d.V2(float64(dec.Uvs[t]), float64(dec.Uvs[t+1])))
			}
		}
		return idx, nil
	}

	mixed := false
	for fi := range o.Faces {
		f := &o.Faces[fi]
		n := len(f.Vertices)
		if n < 3 || (n != 3 && !l.Triangulate) {
			return g, l.fail(ErrNonTriangularFace, o.Name, fmt.Errorf("face %d has %d vertices", fi, n))
		}
		if fi == 0 {
			if id, ok := materials[f.Material]; ok {
				g.Material = id
			} else if f.Material != "" && f.Material != objNoMaterial {
				l.warn("unknown material", "object", o.Name, "material", f.Material)
			}
		} else if f.Material != o.Faces[0].Material {
			mixed = true
		}

		first, err := corner(f, 0)
		if err != nil {
			return g, err
		}
		prev, err := corner(f, 1)
		if err != nil {
			return g, err
		}
		for c := 2; c < n; c++ {
			cur, err := corner(f, c)
			if err != nil {
				return g, err
			}
			g.Triangles = append(g.Triangles, [3]int{first, prev, cur})
			prev = cur
		}
	}
	if mixed {
		l.warn("per-face materials are not supported, using the first face's material", "object", o.Name)
	}
	return g, nil
}

func inRange(i, n int) bool {
	return i >= 0 && i < n
}
