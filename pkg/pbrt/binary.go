package pbrt

import (
	"bufio"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
)

// binaryMagic prefixes every prebuilt binary scene (.pbf).
const binaryMagic = "SCNPBF01"

// ErrNotBinary is returned when input lacks the binary scene header.
var ErrNotBinary = errors.New("not a binary pbrt scene")

// WriteBinary encodes s as a prebuilt binary scene.
func WriteBinary(w io.Writer, s *Scene) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(binaryMagic); err != nil {
		return err
	}
	if err := gob.NewEncoder(bw).Encode(s); err != nil {
		return fmt.Errorf("encode scene: %w", err)
	}
	return bw.Flush()
}

// ReadBinary decodes a scene written by WriteBinary.
func ReadBinary(r io.Reader) (*Scene, error) {
	br := bufio.NewReader(r)
	magic := make([]byte, len(binaryMagic))
	if _, err := io.ReadFull(br, magic); err != nil || string(magic) != binaryMagic {
		return nil, ErrNotBinary
	}
	var s Scene
	if err := gob.NewDecoder(br).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	return &s, nil
}

// ReadBinaryFile decodes the binary scene stored at path.
func ReadBinaryFile(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadBinary(f)
}

// WriteBinaryFile encodes s into a new file at path.
func WriteBinaryFile(path string, s *Scene) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteBinary(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
