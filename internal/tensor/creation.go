package tensor

import (
	"fmt"

	"github.com/pkg/errors"
)

// Zeros creates a tensor filled with zeros.
// Panics if the shape has a non-positive dimension.
//
// Example:
//
//	t := tensor.Zeros[float32](tensor.Shape{3, 4})
func Zeros[T Float](shape Shape) *Tensor[T] {
	// Data is already zero-initialized by make()
	return newOwned[T](shape)
}

// Ones creates a tensor filled with ones.
func Ones[T Float](shape Shape) *Tensor[T] {
	return Full[T](shape, 1)
}

// Full creates a tensor filled with a specific value.
//
// Example:
//
//	t := tensor.Full[float64](tensor.Shape{3, 3}, 3.14)
func Full[T Float](shape Shape, value T) *Tensor[T] {
	t := newOwned[T](shape)
	data := t.buf.data
	for i := range data {
		data[i] = value
	}
	return t
}

// ZerosLike creates a zero tensor with the shape of t.
func ZerosLike[T Float](t *Tensor[T]) *Tensor[T] {
	return Zeros[T](t.Shape())
}

// Scalar creates a rank-0 tensor holding v.
func Scalar[T Float](v T) *Tensor[T] {
	return Full[T](Shape{}, v)
}

// FromSlice creates a tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice[T Float](data []T, shape Shape) (*Tensor[T], error) {
	if err := shape.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid shape")
	}
	if shape.NumElements() != len(data) {
		return nil, errors.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	t := newOwned[T](shape)
	copy(t.buf.data, data)
	return t, nil
}

// FromRows creates a 2-D tensor from equally sized rows.
func FromRows[T Float](rows [][]T) (*Tensor[T], error) {
	if len(rows) == 0 {
		return nil, errors.New("FromRows: at least one row required")
	}
	cols := len(rows[0])
	data := make([]T, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, NewShapeMismatch(fmt.Sprintf("FromRows row %d", i), Shape{cols}, Shape{len(row)})
		}
		data = append(data, row...)
	}
	return FromSlice(data, Shape{len(rows), cols})
}

// Vector creates a 1-D tensor from values.
// Panics on an empty slice.
func Vector[T Float](values ...T) *Tensor[T] {
	t := newOwned[T](Shape{len(values)})
	copy(t.buf.data, values)
	return t
}

// Eye creates a 2D identity matrix.
func Eye[T Float](n int) *Tensor[T] {
	t := Zeros[T](Shape{n, n})
	for i := 0; i < n; i++ {
		t.buf.data[i*n+i] = 1
	}
	return t
}
