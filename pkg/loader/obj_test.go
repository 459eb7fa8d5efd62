package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/scenery/pkg/math3d"
	"github.com/taigrr/scenery/pkg/scene"
)

// Two objects: a textured quad whose corners share positions and uvs, and
// an untextured triangle.
const quadOBJ = `mtllib quad.mtl
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 2
o quad
usemtl painted
f 1/1/1 2/2/1 3/3/1
f 1/1/1 3/3/1 4/4/1
o tri
usemtl glass
f 1/1/1 2/2/1 4/4/1
`

const quadMTL = `newmtl painted
Kd 1 0 0
Ns 250
map_Kd checker.png

newmtl glass
Kd 0.5 0.5 0.5
Ns 1000
d 0.25
map_Kd checker.png
`

func writeQuad(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "quad.mtl", quadMTL)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "checker.png"), encodePNG(t, checker()), 0o644))
	return writeFile(t, dir, "quad.obj", quadOBJ)
}

func TestLoadOBJ(t *testing.T) {
	l := NewLoader()
	s, err := l.Load(writeQuad(t))
	require.NoError(t, err)

	require.Len(t, s.Meshes, 1, "an OBJ file is one mesh")
	require.Len(t, s.Instances, 1)
	assert.True(t, s.Instances[0].Transform.IsIdentity())
	assert.Equal(t, 0, s.Instances[0].Mesh)

	geoms := s.Meshes[0].Geometries
	require.Len(t, geoms, 2)

	quad := geoms[0]
	assert.Len(t, quad.Vertices, 4, "six corners reduce to four distinct tuples")
	assert.Len(t, quad.Normals, 4)
	assert.Len(t, quad.UVs, 4)
	assert.Equal(t, [][3]int{{0, 1, 2}, {0, 2, 3}}, quad.Triangles)
	for _, n := range quad.Normals {
		assert.InDelta(t, 1.0, n.Len(), 1e-9)
	}
	assert.Equal(t, math3d.V2(1, 1), quad.UVs[2])

	tri := geoms[1]
	assert.Len(t, tri.Vertices, 3)
	assert.Equal(t, [][3]int{{0, 1, 2}}, tri.Triangles)

	assert.Equal(t, 3, s.UniqueTris())
	assert.Equal(t, 3, s.TotalTris())
	assertFallbackLight(t, s)
	assert.NotContains(t, strings.Join(l.Warnings, "\n"), "per-face")
}

func TestLoadOBJMaterials(t *testing.T) {
	s, err := Load(writeQuad(t))
	require.NoError(t, err)

	require.Len(t, s.Materials, 2)
	// Materials are numbered in name order.
	glass, painted := s.Materials[0], s.Materials[1]
	assert.Equal(t, "glass", glass.Name)
	assert.Equal(t, "painted", painted.Name)

	geoms := s.Meshes[0].Geometries
	assert.Equal(t, 1, geoms[0].Material)
	assert.Equal(t, 0, geoms[1].Material)

	assert.Equal(t, math3d.V3(1, 0, 0), painted.BaseColor)
	assert.InDelta(t, 0.5, painted.Specular, 1e-6)
	assert.InDelta(t, 0.5, painted.Roughness, 1e-6)
	assert.InDelta(t, 0.0, painted.SpecularTransmission, 1e-6, "no dissolve means opaque")
	assert.Zero(t, painted.Metallic)

	assert.InDelta(t, 1.0, glass.Specular, 1e-6, "shininess above 500 clamps")
	assert.InDelta(t, 0.0, glass.Roughness, 1e-6)
	assert.InDelta(t, 0.75, glass.SpecularTransmission, 1e-6)

	require.Len(t, s.Textures, 1, "both materials share one texture")
	tex := s.Textures[0]
	assert.Equal(t, "checker.png", tex.Name)
	assert.Equal(t, scene.SRGB, tex.ColorSpace)
	assert.Equal(t, 2, tex.Width)
	assert.Equal(t, 0, painted.ColorTexture)
	assert.Equal(t, 0, glass.ColorTexture)
}

func TestLoadOBJDefaultMaterial(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bare.mtl", "")
	path := writeFile(t, dir, "bare.obj", `v 0 0 0
v 1 0 0
v 0 1 0
v 1 1 0
o a
f 1 2 3
o b
f 2 4 3
`)
	s, err := Load(path)
	require.NoError(t, err)

	geoms := s.Meshes[0].Geometries
	require.Len(t, geoms, 2)
	assert.NotEqual(t, scene.NoMaterial, geoms[0].Material)
	assert.Equal(t, geoms[0].Material, geoms[1].Material, "both objects share one fallback material")
	assert.Empty(t, geoms[0].Normals)
	assert.Empty(t, geoms[0].UVs)
}

func TestLoadOBJUndefinedMaterial(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ghost.mtl", "newmtl red\nKd 1 0 0\nd 0\n")
	path := writeFile(t, dir, "ghost.obj", `mtllib ghost.mtl
v 0 0 0
v 1 0 0
v 0 1 0
o known
usemtl red
f 1 2 3
o missing
usemtl ghost
f 1 2 3
`)
	l := NewLoader()
	s, err := l.Load(path)
	require.NoError(t, err)

	geoms := s.Meshes[0].Geometries
	require.Len(t, geoms, 2)
	red := s.Materials[geoms[0].Material]
	assert.Equal(t, "red", red.Name)
	assert.Zero(t, red.SpecularTransmission, "an explicit d 0 is indistinguishable from no d")

	ghost := s.Materials[geoms[1].Material]
	assert.Equal(t, scene.DefaultMaterial(), ghost, "a usemtl name missing from the library gets the default")
	for _, m := range s.Materials {
		assert.NotEqual(t, "ghost", m.Name)
	}
	warnings := strings.Join(l.Warnings, "\n")
	assert.Contains(t, warnings, "unknown material")
	assert.Contains(t, warnings, "ghost")
}

func TestLoadOBJPolygons(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "poly.mtl", "newmtl m\nKd 1 1 1\n")
	path := writeFile(t, dir, "poly.obj", `mtllib poly.mtl
v 0 0 0
v 1 0 0
v 2 1 0
v 1 2 0
v 0 1 0
o pentagon
usemtl m
f 1 2 3 4 5
`)

	t.Run("triangulate", func(t *testing.T) {
		s, err := Load(path)
		require.NoError(t, err)
		g := s.Meshes[0].Geometries[0]
		assert.Equal(t, [][3]int{{0, 1, 2}, {0, 2, 3}, {0, 3, 4}}, g.Triangles)
		assert.Len(t, g.Vertices, 5)
	})

	t.Run("strict", func(t *testing.T) {
		l := NewLoader()
		l.Triangulate = false
		s, err := l.Load(path)
		assert.Nil(t, s)
		require.ErrorIs(t, err, ErrNonTriangularFace)
		var le *LoadError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, "pentagon", le.Name)
		assert.Contains(t, err.Error(), path)
	})
}

func TestLoadOBJPartialAttributes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "partial.mtl", "newmtl m\n")
	path := writeFile(t, dir, "partial.obj", `mtllib partial.mtl
v 0 0 0
v 1 0 0
v 0 1 0
vn 0 0 1
o part
usemtl m
f 1//1 2//1 3
`)
	l := NewLoader()
	s, err := l.Load(path)
	require.NoError(t, err)
	g := s.Meshes[0].Geometries[0]
	assert.Empty(t, g.Normals, "normals must cover every corner or none")
	assert.Len(t, g.Vertices, 3)
	assert.Contains(t, strings.Join(l.Warnings, "\n"), "normals missing")
}
