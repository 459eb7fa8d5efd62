package loader

import (
	"bytes"
	"image"
	"image/color"
	"path/filepath"
	"strings"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/scenery/pkg/math3d"
	"github.com/taigrr/scenery/pkg/scene"
)

// quadDocument builds a textured two-triangle mesh referenced by three
// nodes: a translated root, a root with a scaled child, and a node that no
// scene references.
func quadDocument(t *testing.T) *gltf.Document {
	t.Helper()
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}})
	uv := modeler.WriteTextureCoord(doc, [][2]float32{{0, 0}, {1, 0}, {1, 0.25}, {0, 1}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2, 0, 2, 3})
	img, err := modeler.WriteImage(doc, "checker", "image/png", bytes.NewReader(encodePNG(t, checker())))
	require.NoError(t, err)
	mask, err := modeler.WriteImage(doc, "mask", "image/png", bytes.NewReader(encodePNG(t, image.NewGray(image.Rect(0, 0, 1, 1)))))
	require.NoError(t, err)

	doc.Textures = []*gltf.Texture{{Source: gltf.Index(img)}, {Source: gltf.Index(mask)}}
	doc.Materials = []*gltf.Material{
		{
			Name: "painted",
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorFactor:  &[4]float64{1, 0.5, 0.25, 1},
				MetallicFactor:   gltf.Float(0.25),
				RoughnessFactor:  gltf.Float(0.75),
				BaseColorTexture: &gltf.TextureInfo{Index: 0},
			},
		},
		{Name: "plain"},
	}
	doc.Meshes = []*gltf.Mesh{{
		Name: "quad",
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(idx),
			Attributes: gltf.PrimitiveAttributes{gltf.POSITION: pos, gltf.TEXCOORD_0: uv},
			Material:   gltf.Index(0),
		}},
	}}
	doc.Nodes = []*gltf.Node{
		{Name: "left", Mesh: gltf.Index(0), Translation: [3]float64{-2, 0, 0}},
		{Name: "parent", Translation: [3]float64{0, 3, 0}, Children: []int{2}},
		{Name: "child", Mesh: gltf.Index(0), Scale: [3]float64{2, 2, 2}},
		{Name: "orphan", Mesh: gltf.Index(0)},
	}
	doc.Scenes[0].Nodes = []int{0, 1}
	return doc
}

func saveGLB(t *testing.T, doc *gltf.Document) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.glb")
	require.NoError(t, gltf.SaveBinary(doc, path))
	return path
}

func TestLoadGLB(t *testing.T) {
	s, err := Load(saveGLB(t, quadDocument(t)))
	require.NoError(t, err)

	require.Len(t, s.Meshes, 1, "a mesh referenced by several nodes is converted once")
	require.Len(t, s.Instances, 2, "only nodes reachable from the scene are instanced")
	assert.Equal(t, 2, s.UniqueTris())
	assert.Equal(t, 4, s.TotalTris())

	g := s.Meshes[0].Geometries[0]
	assert.Equal(t, [][3]int{{0, 1, 2}, {0, 2, 3}}, g.Triangles)
	assert.Len(t, g.Vertices, 4)
	assert.Empty(t, g.Normals)
	require.Len(t, g.UVs, 4)
	assert.InDelta(t, 0.25, g.UVs[2].Y, 1e-6)

	left := s.Instances[0].Transform
	assert.True(t, left.MulVec3(math3d.V3(1, 0, 0)).ApproxEqual(math3d.V3(-1, 0, 0), 1e-9))
	child := s.Instances[1].Transform
	assert.True(t, child.MulVec3(math3d.V3(1, 1, 0)).ApproxEqual(math3d.V3(2, 5, 0), 1e-9),
		"child world transform composes parent translation and child scale")

	assertFallbackLight(t, s)
}

func TestLoadGLBMaterials(t *testing.T) {
	s, err := Load(saveGLB(t, quadDocument(t)))
	require.NoError(t, err)

	require.Len(t, s.Textures, 2)
	assert.Equal(t, "checker", s.Textures[0].Name)
	assert.Equal(t, scene.SRGB, s.Textures[0].ColorSpace, "base color textures are sRGB")
	assert.Equal(t, "mask", s.Textures[1].Name)
	assert.Equal(t, scene.Linear, s.Textures[1].ColorSpace)
	assert.Equal(t, 1, s.Textures[1].Channels)

	require.Len(t, s.Materials, 2)
	painted := s.Materials[0]
	assert.Equal(t, math3d.V3(1, 0.5, 0.25), painted.BaseColor)
	assert.Equal(t, 0.25, painted.Metallic)
	assert.Equal(t, 0.75, painted.Roughness)
	assert.Equal(t, 0, painted.ColorTexture)

	plain := s.Materials[1]
	assert.Equal(t, scene.NoTexture, plain.ColorTexture)
	assert.Equal(t, 0, s.Meshes[0].Geometries[0].Material)
}

func TestLoadGLBSameNamedImages(t *testing.T) {
	doc := quadDocument(t)
	for _, c := range []color.NRGBA{{R: 255, A: 255}, {B: 255, A: 255}} {
		px := image.NewNRGBA(image.Rect(0, 0, 1, 1))
		px.SetNRGBA(0, 0, c)
		img, err := modeler.WriteImage(doc, "baseColor", "image/png", bytes.NewReader(encodePNG(t, px)))
		require.NoError(t, err)
		doc.Textures = append(doc.Textures, &gltf.Texture{Source: gltf.Index(img)})
		doc.Materials = append(doc.Materials, &gltf.Material{
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorTexture: &gltf.TextureInfo{Index: len(doc.Textures) - 1},
			},
		})
	}
	s, err := Load(saveGLB(t, doc))
	require.NoError(t, err)

	require.Len(t, s.Textures, 4, "every image is its own texture")
	red, blue := s.Materials[2].ColorTexture, s.Materials[3].ColorTexture
	require.NotEqual(t, red, blue)
	assert.Equal(t, []byte{255, 0, 0, 255}, s.Textures[red].Pixels)
	assert.Equal(t, []byte{0, 0, 255, 255}, s.Textures[blue].Pixels)
	for _, id := range []int{red, blue} {
		assert.Equal(t, "baseColor", s.Textures[id].Name)
		assert.Equal(t, scene.SRGB, s.Textures[id].ColorSpace)
	}
}

func TestLoadGLBUnreferencedMesh(t *testing.T) {
	doc := quadDocument(t)
	spare := *doc.Meshes[0].Primitives[0]
	doc.Meshes = append(doc.Meshes,
		&gltf.Mesh{Name: "spare", Primitives: []*gltf.Primitive{&spare}},
		&gltf.Mesh{Name: "empty"},
	)
	l := NewLoader()
	s, err := l.Load(saveGLB(t, doc))
	require.NoError(t, err)

	require.Len(t, s.Meshes, 2, "meshes convert 1:1 whether or not a node uses them")
	assert.Equal(t, "spare", s.Meshes[1].Name)
	assert.Equal(t, 4, s.UniqueTris())
	assert.Equal(t, 4, s.TotalTris(), "only the two scene nodes are instanced")
	assert.Contains(t, strings.Join(l.Warnings, "\n"), "mesh has no geometry")
}

func TestLoadGLBFlipV(t *testing.T) {
	l := NewLoader()
	l.FlipV = true
	s, err := l.Load(saveGLB(t, quadDocument(t)))
	require.NoError(t, err)
	assert.InDelta(t, 0.75, s.Meshes[0].Geometries[0].UVs[2].Y, 1e-6)
}

func TestLoadGLTFText(t *testing.T) {
	doc := quadDocument(t)
	doc.Buffers[0].EmbeddedResource()
	path := filepath.Join(t.TempDir(), "model.gltf")
	require.NoError(t, gltf.Save(doc, path))
	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, s.TotalTris())
}

func TestLoadGLBErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, doc *gltf.Document)
		want   error
	}{
		{
			name: "lines",
			mutate: func(t *testing.T, doc *gltf.Document) {
				doc.Meshes[0].Primitives[0].Mode = gltf.PrimitiveLines
			},
			want: ErrUnsupportedPrimitiveMode,
		},
		{
			name: "byte indices",
			mutate: func(t *testing.T, doc *gltf.Document) {
				idx := modeler.WriteIndices(doc, []uint8{0, 1, 2})
				doc.Meshes[0].Primitives[0].Indices = gltf.Index(idx)
			},
			want: ErrUnsupportedIndexType,
		},
		{
			name: "index out of range",
			mutate: func(t *testing.T, doc *gltf.Document) {
				idx := modeler.WriteIndices(doc, []uint32{0, 1, 9})
				doc.Meshes[0].Primitives[0].Indices = gltf.Index(idx)
			},
			want: ErrMalformedIndices,
		},
		{
			name: "16 bit image",
			mutate: func(t *testing.T, doc *gltf.Document) {
				_, err := modeler.WriteImage(doc, "deep", "image/png",
					bytes.NewReader(encodePNG(t, image.NewRGBA64(image.Rect(0, 0, 1, 1)))))
				require.NoError(t, err)
			},
			want: ErrUnsupportedPixelType,
		},
		{
			name: "lines in a mesh no node uses",
			mutate: func(t *testing.T, doc *gltf.Document) {
				lines := *doc.Meshes[0].Primitives[0]
				lines.Mode = gltf.PrimitiveLines
				doc.Meshes = append(doc.Meshes, &gltf.Mesh{Name: "unused", Primitives: []*gltf.Primitive{&lines}})
			},
			want: ErrUnsupportedPrimitiveMode,
		},
		{
			name: "missing positions",
			mutate: func(t *testing.T, doc *gltf.Document) {
				delete(doc.Meshes[0].Primitives[0].Attributes, gltf.POSITION)
			},
			want: ErrParserFailure,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := quadDocument(t)
			tt.mutate(t, doc)
			s, err := Load(saveGLB(t, doc))
			assert.Nil(t, s)
			require.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "model.glb")
		})
	}
}

func TestLoadGLBPartialTriangle(t *testing.T) {
	doc := quadDocument(t)
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2, 0, 2})
	doc.Meshes[0].Primitives[0].Indices = gltf.Index(idx)
	path := saveGLB(t, doc)

	l := NewLoader()
	s, err := l.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, s.UniqueTris())
	assert.Contains(t, strings.Join(l.Warnings, "\n"), "not a multiple of 3")

	l.StrictIndices = true
	_, err = l.Load(path)
	assert.ErrorIs(t, err, ErrMalformedIndices)
}

func TestLoadGLBWarnings(t *testing.T) {
	doc := quadDocument(t)
	uv1 := modeler.WriteTextureCoord(doc, [][2]float32{{0, 0}, {0, 0}, {0, 0}, {0, 0}})
	doc.Meshes[0].Primitives[0].Attributes[gltf.TEXCOORD_1] = uv1
	doc.Meshes[0].Primitives[0].Indices = nil
	l := NewLoader()
	s, err := l.Load(saveGLB(t, doc))
	require.NoError(t, err)
	assert.Contains(t, strings.Join(l.Warnings, "\n"), "TEXCOORD_1")
	// Four unindexed vertices make one triangle plus a dropped remainder.
	assert.Equal(t, 1, s.UniqueTris())
}

func TestLoadGLBNoDefaultScene(t *testing.T) {
	doc := quadDocument(t)
	doc.Scene = nil
	doc.Scenes = append(doc.Scenes, &gltf.Scene{Nodes: []int{3}})
	s, err := Load(saveGLB(t, doc))
	require.NoError(t, err)
	assert.Len(t, s.Instances, 2, "scene 0 is used when none is declared")

	doc.Scene = gltf.Index(1)
	s, err = Load(saveGLB(t, doc))
	require.NoError(t, err)
	assert.Len(t, s.Instances, 1)
}

func TestLoadGLBBadMagic(t *testing.T) {
	path := writeFile(t, t.TempDir(), "fake.glb", `{"asset":{"version":"2.0"}}`)
	_, err := Load(path)
	require.ErrorIs(t, err, ErrParserFailure)
	assert.Contains(t, err.Error(), "magic")
}
