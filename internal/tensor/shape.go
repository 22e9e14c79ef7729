package tensor

import (
	"fmt"

	"github.com/pkg/errors"
)

// Shape represents the dimensions of a tensor.
type Shape []int

// NumElements returns the total number of elements in the tensor.
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 1 // Scalar has 1 element
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks if the shape is valid (all dimensions > 0).
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return errors.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// Rank returns the number of axes.
func (s Shape) Rank() int {
	return len(s)
}

// RemoveAxis returns the shape with the given axis dropped.
// Negative axes count from the end.
func (s Shape) RemoveAxis(axis int) Shape {
	axis = normalizeAxis(axis, len(s))
	out := make(Shape, 0, len(s)-1)
	out = append(out, s[:axis]...)
	return append(out, s[axis+1:]...)
}

// Last returns the size of the last axis, or 1 for scalars.
func (s Shape) Last() int {
	if len(s) == 0 {
		return 1
	}
	return s[len(s)-1]
}

// ComputeStrides calculates row-major strides for the shape.
// Strides define memory layout: stride[i] = product of all dimensions after i.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}

	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// IsSuffixOf reports whether s equals the trailing axes of other.
//
// This is the only broadcasting the core supports: a bias of shape (out)
// added to every row of an activation of shape (..., out).
//
//	(3)    suffix of (2, 3)    → true
//	()     suffix of (2, 3)    → true
//	(2, 3) suffix of (4, 2, 3) → true
//	(2)    suffix of (2, 3)    → false
func (s Shape) IsSuffixOf(other Shape) bool {
	if len(s) > len(other) {
		return false
	}
	offset := len(other) - len(s)
	for i := range s {
		if s[i] != other[offset+i] {
			return false
		}
	}
	return true
}

// normalizeAxis resolves negative axes and panics when out of range.
func normalizeAxis(axis, rank int) int {
	if axis < 0 {
		axis += rank
	}
	if axis < 0 || axis >= rank {
		panic(fmt.Sprintf("axis %d out of range for rank %d", axis, rank))
	}
	return axis
}
