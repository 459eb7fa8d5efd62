package loader

import (
	"fmt"
	"iter"
)

// View is a read-only typed view over count elements of a byte buffer,
// spaced stride bytes apart starting at offset. It borrows the buffer; the
// buffer must outlive the view.
type View[T any] struct {
	data     []byte
	offset   int
	stride   int
	elemSize int
	count    int
	decode   func([]byte) T
}

// NewView creates a view and checks that every element lies inside data.
// A zero stride means tightly packed elements.
func NewView[T any](data []byte, offset, stride, count, elemSize int, decode func([]byte) T) (View[T], error) {
	if stride == 0 {
		stride = elemSize
	}
	switch {
	case elemSize <= 0:
		return View[T]{}, fmt.Errorf("element size %d", elemSize)
	case stride < elemSize:
		return View[T]{}, fmt.Errorf("stride %d smaller than element size %d", stride, elemSize)
	case offset < 0 || count < 0:
		return View[T]{}, fmt.Errorf("negative offset %d or count %d", offset, count)
	}
	if count > 0 {
		if end := offset + (count-1)*stride + elemSize; end > len(data) {
			return View[T]{}, fmt.Errorf("%d elements of %d bytes at offset %d stride %d need %d bytes, buffer has %d",
				count, elemSize, offset, stride, end, len(data))
		}
	}
	return View[T]{
		data:     data,
		offset:   offset,
		stride:   stride,
		elemSize: elemSize,
		count:    count,
		decode:   decode,
	}, nil
}

// Len returns the number of elements.
func (v View[T]) Len() int {
	return v.count
}

// At decodes element i.
func (v View[T]) At(i int) T {
	start := v.offset + i*v.stride
	return v.decode(v.data[start : start+v.elemSize])
}

// All iterates over the elements in order.
func (v View[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := range v.count {
			if !yield(i, v.At(i)) {
				return
			}
		}
	}
}

// Values iterates over the elements without their indices.
func (v View[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := range v.count {
			if !yield(v.At(i)) {
				return
			}
		}
	}
}
