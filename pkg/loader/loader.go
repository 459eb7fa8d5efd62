// Package loader turns OBJ, glTF and PBRT files into a canonical
// scene.Scene. The format is chosen from the file extension; each adapter
// runs to completion before the scene is returned, and any failure returns
// no scene at all.
package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/taigrr/scenery/pkg/scene"
)

// Loader loads scene files with a fixed set of options. A Loader is not
// safe for concurrent use; independent Loaders are.
type Loader struct {
	Options

	// Warnings collects the non-fatal diagnostics of the most recent Load.
	Warnings []string

	path string
}

// NewLoader creates a loader with DefaultOptions.
func NewLoader() *Loader {
	return &Loader{Options: DefaultOptions()}
}

// Load loads path with default options.
func Load(path string) (*scene.Scene, error) {
	return NewLoader().Load(path)
}

// Extensions lists the recognized file extensions.
var Extensions = []string{"obj", "gltf", "glb", "pbrt", "pbf"}

// Load reads path into a new scene. Geometry left without a material gets a
// shared default material, and a quad light is synthesized when the file
// supplied none.
func (l *Loader) Load(path string) (*scene.Scene, error) {
	l.Warnings = nil
	l.path = path

	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	s := scene.New(path)
	var err error
	switch strings.ToLower(ext) {
	case "obj":
		err = l.loadOBJ(path, s)
	case "gltf":
		err = l.loadGLTF(path, false, s)
	case "glb":
		err = l.loadGLTF(path, true, s)
	case "pbrt":
		err = l.loadPBRT(path, false, s)
	case "pbf":
		err = l.loadPBRT(path, true, s)
	default:
		return nil, &LoadError{Kind: ErrUnsupportedFormat, Path: path, Name: ext}
	}
	if err != nil {
		return nil, err
	}

	if id := s.AssignDefaultMaterial(); id != scene.NoMaterial {
		Logger().Debug("assigned default material", "file", path, "material", id)
	}
	if s.EnsureLight() {
		Logger().Debug("synthesized quad light", "file", path)
	}
	if err := s.Validate(); err != nil {
		return nil, l.fail(ErrInvalidScene, "", err)
	}
	Logger().Info("loaded scene", "file", path, "stats", s.Stats().String(), "warnings", len(l.Warnings))
	return s, nil
}

// warn records a non-fatal diagnostic. args are slog-style key/value pairs.
func (l *Loader) warn(msg string, args ...any) {
	Logger().Warn(msg, append([]any{"file", l.path}, args...)...)
	var sb strings.Builder
	sb.WriteString(msg)
	for i := 0; i+1 < len(args); i += 2 {
		fmt.Fprintf(&sb, " %v=%v", args[i], args[i+1])
	}
	l.Warnings = append(l.Warnings, sb.String())
}

func (l *Loader) fail(kind error, name string, err error) error {
	return &LoadError{Kind: kind, Path: l.path, Name: name, Err: err}
}
