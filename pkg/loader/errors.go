package loader

import (
	"errors"
	"fmt"
)

// Error kinds. Every failed load returns a *LoadError whose Kind is one of
// these; test with errors.Is.
var (
	ErrUnsupportedFormat        = errors.New("unsupported format")
	ErrParserFailure            = errors.New("parser failure")
	ErrNonTriangularFace        = errors.New("non-triangular face")
	ErrUnsupportedPrimitiveMode = errors.New("unsupported primitive mode")
	ErrUnsupportedIndexType     = errors.New("unsupported index type")
	ErrUnsupportedPixelType     = errors.New("unsupported pixel type")
	ErrMalformedIndices         = errors.New("malformed indices")
	ErrInvalidScene             = errors.New("invalid scene")
)

// LoadError describes why a file could not be turned into a scene.
type LoadError struct {
	Kind error
	Path string // file being loaded
	Name string // offending shape, node or mesh; the extension for ErrUnsupportedFormat
	Err  error  // underlying cause, may be nil
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("load %s: %v", e.Path, e.Kind)
	if e.Name != "" {
		msg += fmt.Sprintf(" (%q)", e.Name)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// kindOf picks the most specific kind already carried by err, falling back
// to def.
func kindOf(err error, def error) error {
	for _, k := range []error{
		ErrNonTriangularFace,
		ErrUnsupportedPrimitiveMode,
		ErrUnsupportedIndexType,
		ErrUnsupportedPixelType,
		ErrMalformedIndices,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return def
}
