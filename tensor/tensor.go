// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/perceptron/internal/tensor"
)

// Type aliases for public API

// Float is the element constraint for tensors.
type Float = tensor.Float

// DataType represents the runtime element type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
)

// Storage is the storage class of a tensor.
type Storage = tensor.Storage

// Storage classes.
const (
	Owned   Storage = tensor.Owned
	View    Storage = tensor.View
	ViewMut Storage = tensor.ViewMut
	Shared  Storage = tensor.Shared
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3} is a matrix with 2 rows and 3 columns.
type Shape = tensor.Shape

// Tensor is a generic n-dimensional float tensor.
type Tensor[T Float] = tensor.Tensor[T]

// ShapeMismatchError describes incompatible operand shapes.
type ShapeMismatchError = tensor.ShapeMismatchError

// GradientApplier is implemented by values that can fold a gradient into themselves.
type GradientApplier[T Float, D any] = tensor.GradientApplier[T, D]

// GradientApplierExt adds momentum-aware updates to GradientApplier.
type GradientApplierExt[T Float, D any] = tensor.GradientApplierExt[T, D]

// Errors.
var (
	ErrShapeMismatch  = tensor.ErrShapeMismatch
	ErrRankMismatch   = tensor.ErrRankMismatch
	ErrSingularMatrix = tensor.ErrSingularMatrix
)

// Creation functions

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	x := tensor.Zeros[float32](tensor.Shape{2, 3})
func Zeros[T Float](shape Shape) *Tensor[T] {
	return tensor.Zeros[T](shape)
}

// Ones creates a tensor filled with ones.
func Ones[T Float](shape Shape) *Tensor[T] {
	return tensor.Ones[T](shape)
}

// Full creates a tensor filled with a specific value.
//
// Example:
//
//	x := tensor.Full[float32](tensor.Shape{2, 3}, 3.14)
func Full[T Float](shape Shape, value T) *Tensor[T] {
	return tensor.Full(shape, value)
}

// ZerosLike creates a zero tensor with the shape of t.
func ZerosLike[T Float](t *Tensor[T]) *Tensor[T] {
	return tensor.ZerosLike(t)
}

// Scalar creates a rank-0 tensor.
func Scalar[T Float](v T) *Tensor[T] {
	return tensor.Scalar(v)
}

// Vector creates a rank-1 tensor from values.
func Vector[T Float](values ...T) *Tensor[T] {
	return tensor.Vector(values...)
}

// Eye creates an n×n identity matrix.
func Eye[T Float](n int) *Tensor[T] {
	return tensor.Eye[T](n)
}

// FromSlice creates a tensor from a Go slice in row-major order.
//
// Example:
//
//	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
func FromSlice[T Float](data []T, shape Shape) (*Tensor[T], error) {
	return tensor.FromSlice(data, shape)
}

// FromRows creates a matrix from equally long rows.
func FromRows[T Float](rows [][]T) (*Tensor[T], error) {
	return tensor.FromRows(rows)
}

// Stack builds a tensor of rank r+1 from equally shaped tensors of rank r.
func Stack[T Float](parts []*Tensor[T]) (*Tensor[T], error) {
	return tensor.Stack(parts)
}

// Outer returns the outer product of two vectors.
func Outer[T Float](a, b *Tensor[T]) (*Tensor[T], error) {
	return tensor.Outer(a, b)
}

// Helpers

// DataTypeOf infers the DataType of T.
func DataTypeOf[T Float]() DataType {
	return tensor.DataTypeOf[T]()
}

// Epsilon returns the normalisation floor used for T.
func Epsilon[T Float]() T {
	return tensor.Epsilon[T]()
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite[T Float](v T) bool {
	return tensor.IsFinite(v)
}

// BatchDivisor returns the β used by gradient updates: the first-axis length of g.
func BatchDivisor[T Float](g *Tensor[T]) T {
	return tensor.BatchDivisor(g)
}
