package loader

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/scenery/pkg/math3d"
	"github.com/taigrr/scenery/pkg/scene"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// checker returns a 2x2 opaque RGBA image.
func checker() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	img.Set(1, 0, color.NRGBA{G: 255, A: 255})
	img.Set(0, 1, color.NRGBA{B: 255, A: 255})
	img.Set(1, 1, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	return img
}

func assertFallbackLight(t *testing.T, s *scene.Scene) {
	t.Helper()
	require.Len(t, s.Lights, 1)
	l := s.Lights[0]
	assert.Equal(t, math3d.Splat3(5), l.Emission)
	assert.Equal(t, 5.0, l.Width)
	assert.Equal(t, 5.0, l.Height)
}

func TestLoadUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"model.xyz", "model", "model.OBJX"} {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, dir, name, "whatever")
			s, err := Load(path)
			require.Error(t, err)
			assert.Nil(t, s)
			assert.ErrorIs(t, err, ErrUnsupportedFormat)

			var le *LoadError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, strings.TrimPrefix(filepath.Ext(name), "."), le.Name)
			assert.Equal(t, path, le.Path)
		})
	}
}

func TestLoadExtensionCase(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tri.mtl", "newmtl m\nKd 1 1 1\n")
	path := writeFile(t, dir, "tri.OBJ", "mtllib tri.mtl\no tri\nv 0 0 0\nv 1 0 0\nv 0 1 0\nusemtl m\nf 1 2 3\n")
	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, s.UniqueTris())
}

func TestLoadMissingFile(t *testing.T) {
	for _, name := range []string{"gone.obj", "gone.glb", "gone.gltf", "gone.pbrt", "gone.pbf"} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(filepath.Join(t.TempDir(), name))
			assert.ErrorIs(t, err, ErrParserFailure)
		})
	}
}

func TestLoadErrorMessage(t *testing.T) {
	err := &LoadError{Kind: ErrNonTriangularFace, Path: "a.obj", Name: "cube", Err: errors.New("face 3 has 4 vertices")}
	assert.Equal(t, `load a.obj: non-triangular face ("cube"): face 3 has 4 vertices`, err.Error())
	assert.ErrorIs(t, err, ErrNonTriangularFace)
	assert.NotErrorIs(t, err, ErrParserFailure)

	bare := &LoadError{Kind: ErrUnsupportedFormat, Path: "a.xyz", Name: "xyz"}
	assert.Equal(t, `load a.xyz: unsupported format ("xyz")`, bare.Error())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, ErrUnsupportedPixelType, kindOf(errors.Join(errors.New("x"), ErrUnsupportedPixelType), ErrParserFailure))
	assert.Equal(t, ErrParserFailure, kindOf(errors.New("x"), ErrParserFailure))
}

func TestOptions(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "scenery.toml", "flip_v = true\nstrict_indices = true\n")
	opts, err := ReadOptions(path)
	require.NoError(t, err)
	assert.True(t, opts.Triangulate, "absent keys keep their defaults")
	assert.True(t, opts.FlipV)
	assert.True(t, opts.StrictIndices)
	assert.False(t, opts.PBRTRootShapes)

	bad := writeFile(t, dir, "bad.toml", "flip_v = [")
	_, err = ReadOptions(bad)
	assert.Error(t, err)

	_, err = ReadOptions(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoggerDefaultsToDiscard(t *testing.T) {
	defer SetLogger(nil)
	assert.False(t, Logger().Enabled(t.Context(), slog.LevelError))

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))
	dir := t.TempDir()
	writeFile(t, dir, "mixed.mtl", "newmtl a\nKd 1 0 0\nnewmtl b\nKd 0 1 0\n")
	path := writeFile(t, dir, "mixed.obj", "mtllib mixed.mtl\no two\nv 0 0 0\nv 1 0 0\nv 0 1 0\nusemtl a\nf 1 2 3\nusemtl b\nf 1 3 2\n")
	l := NewLoader()
	_, err := l.Load(path)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "per-face materials")
	assert.Contains(t, buf.String(), "object=two")

	SetLogger(nil)
	assert.False(t, Logger().Enabled(t.Context(), slog.LevelError))
}

func TestViewBounds(t *testing.T) {
	data := []byte{1, 0, 2, 0, 3, 0, 4, 0}
	u16 := func(b []byte) int { return int(b[0]) | int(b[1])<<8 }

	tests := []struct {
		name                  string
		offset, stride, count int
		want                  []int
		wantErr               bool
	}{
		{name: "packed", count: 4, want: []int{1, 2, 3, 4}},
		{name: "strided", stride: 4, count: 2, want: []int{1, 3}},
		{name: "offset", offset: 2, stride: 4, count: 2, want: []int{2, 4}},
		{name: "empty", offset: 8, count: 0, want: nil},
		{name: "overrun", offset: 2, stride: 4, count: 3, wantErr: true},
		{name: "stride too small", stride: 1, count: 2, wantErr: true},
		{name: "negative offset", offset: -2, count: 1, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NewView(data, tt.offset, tt.stride, tt.count, 2, u16)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.count, v.Len())
			var got []int
			for i, x := range v.All() {
				assert.Equal(t, v.At(i), x)
				got = append(got, x)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVertexDeduper(t *testing.T) {
	d := NewVertexDeduper()
	keys := []VertexKey{
		{0, -1, 0}, {1, -1, 1}, {0, -1, 0}, {0, -1, 1}, {1, -1, 1}, {0, 2, 0},
	}
	var got []int
	added := 0
	for _, k := range keys {
		idx, ok := d.Index(k)
		if ok {
			added++
		}
		got = append(got, idx)
	}
	assert.Equal(t, []int{0, 1, 0, 2, 1, 3}, got)
	assert.Equal(t, 4, added)
	assert.Equal(t, 4, d.Len())
}

func TestTextureFromImage(t *testing.T) {
	t.Run("rgba", func(t *testing.T) {
		tex, err := decodeTexture(encodePNG(t, checker()))
		require.NoError(t, err)
		assert.Equal(t, 2, tex.Width)
		assert.Equal(t, 2, tex.Height)
		assert.Equal(t, 4, tex.Channels)
		assert.Equal(t, []byte{255, 0, 0, 255}, tex.Pixels[:4])
		assert.Len(t, tex.Pixels, 16)
	})
	t.Run("gray", func(t *testing.T) {
		img := image.NewGray(image.Rect(0, 0, 3, 1))
		img.Pix = []byte{10, 20, 30}
		tex, err := textureFromImage(img)
		require.NoError(t, err)
		assert.Equal(t, 1, tex.Channels)
		assert.Equal(t, []byte{10, 20, 30}, tex.Pixels)
	})
	t.Run("16 bit", func(t *testing.T) {
		_, err := decodeTexture(encodePNG(t, image.NewRGBA64(image.Rect(0, 0, 1, 1))))
		assert.ErrorIs(t, err, ErrUnsupportedPixelType)
	})
	t.Run("garbage", func(t *testing.T) {
		_, err := decodeTexture([]byte("not an image"))
		assert.Error(t, err)
	})
}
