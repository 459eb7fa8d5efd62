package loader

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Options control format-specific choices of a load.
type Options struct {
	// Triangulate fan-triangulates OBJ polygons. When false, any face that
	// is not a triangle fails the load with ErrNonTriangularFace.
	Triangulate bool `toml:"triangulate"`

	// FlipV replaces glTF texture coordinate v with 1-v.
	FlipV bool `toml:"flip_v"`

	// PBRTRootShapes converts triangle meshes declared outside any PBRT
	// object into an extra "world" mesh. When false they are only logged.
	PBRTRootShapes bool `toml:"pbrt_root_shapes"`

	// StrictIndices fails glTF primitives whose index count is not a
	// multiple of 3. When false the trailing partial triangle is dropped
	// with a warning.
	StrictIndices bool `toml:"strict_indices"`
}

// DefaultOptions returns the options used by Load.
func DefaultOptions() Options {
	return Options{Triangulate: true}
}

// ReadOptions reads options from a TOML file. Keys absent from the file keep
// their defaults.
func ReadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, err
	}
	if err := toml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("parse %s: %w", path, err)
	}
	return opts, nil
}
