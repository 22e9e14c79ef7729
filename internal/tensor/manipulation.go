package tensor

import (
	"fmt"

	"github.com/pkg/errors"
)

// derivedStorage is the storage class of a view derived from t.
func (t *Tensor[T]) derivedStorage() Storage {
	if t.storage == ViewMut {
		return ViewMut
	}
	return View
}

// Reshape returns a tensor with the same elements and a new shape.
// The new shape must have the same number of elements.
//
// Owned and shared inputs yield a shared handle (copied on first write);
// views yield views. Non-contiguous inputs, and owners with a live ViewMut,
// are copied first.
//
// Example:
//
//	t := tensor.Zeros[float32](tensor.Shape{12})
//	r, err := t.Reshape(3, 4) // Shape: [3, 4]
func (t *Tensor[T]) Reshape(newShape ...int) (*Tensor[T], error) {
	shape := Shape(newShape).Clone()
	if err := shape.Validate(); err != nil {
		return nil, errors.Wrap(err, "reshape")
	}
	if shape.NumElements() != t.NumElements() {
		return nil, NewShapeMismatch("reshape", t.Shape(), shape)
	}

	src := t
	cloned := false
	if !t.IsContiguous() || ((t.storage == Owned || t.storage == Shared) && t.buf.isBorrowed()) {
		src = t.Clone()
		cloned = true
	}
	out := &Tensor[T]{
		buf: src.buf,
		layout: layout{
			shape:  shape,
			stride: shape.ComputeStrides(),
			offset: src.layout.offset,
		},
	}
	switch {
	case cloned:
		out.storage = Owned
	case src.storage == Owned || src.storage == Shared:
		src.buf.addRef()
		out.storage = Shared
	default:
		out.storage = src.storage
	}
	return out, nil
}

// Transpose permutes the axes of t without copying.
//
// If axes is empty, reverses all dimensions (for 2D, this is standard transpose).
// Otherwise, axes specifies the permutation.
//
// Example:
//
//	t := tensor.Zeros[float32](tensor.Shape{2, 3, 4})
//	transposed := t.Transpose(2, 0, 1) // Shape: [4, 2, 3]
func (t *Tensor[T]) Transpose(axes ...int) *Tensor[T] {
	rank := t.Rank()
	if len(axes) == 0 {
		axes = make([]int, rank)
		for i := range axes {
			axes[i] = rank - 1 - i
		}
	}
	if len(axes) != rank {
		panic(fmt.Sprintf("transpose: expected %d axes, got %d", rank, len(axes)))
	}

	seen := make([]bool, rank)
	shape := make(Shape, rank)
	stride := make([]int, rank)
	for i, ax := range axes {
		ax = normalizeAxis(ax, rank)
		if seen[ax] {
			panic(fmt.Sprintf("transpose: axis %d repeated", ax))
		}
		seen[ax] = true
		shape[i] = t.layout.shape[ax]
		stride[i] = t.layout.stride[ax]
	}

	return &Tensor[T]{
		buf:     t.buf,
		layout:  layout{shape: shape, stride: stride, offset: t.layout.offset},
		storage: t.derivedStorage(),
	}
}

// T is a shortcut for reversing all axes (standard matrix transpose for 2D).
// Vectors and scalars are returned as views unchanged.
func (t *Tensor[T]) T() *Tensor[T] {
	return t.Transpose()
}

// IndexAxis returns the rank-1 lower view at position i along axis.
//
// Example:
//
//	m := tensor.Zeros[float32](tensor.Shape{3, 4})
//	row := m.IndexAxis(0, 1) // Shape: [4]
//	col := m.IndexAxis(1, 2) // Shape: [3]
func (t *Tensor[T]) IndexAxis(axis, i int) *Tensor[T] {
	axis = normalizeAxis(axis, t.Rank())
	size := t.layout.shape[axis]
	if i < 0 || i >= size {
		panic(indexPanic(i, axis, size))
	}
	shape := t.layout.shape.RemoveAxis(axis)
	stride := make([]int, 0, len(shape))
	stride = append(stride, t.layout.stride[:axis]...)
	stride = append(stride, t.layout.stride[axis+1:]...)

	return &Tensor[T]{
		buf: t.buf,
		layout: layout{
			shape:  shape,
			stride: stride,
			offset: t.layout.offset + i*t.layout.stride[axis],
		},
		storage: t.derivedStorage(),
	}
}

// Row returns the i-th subview along the first axis.
func (t *Tensor[T]) Row(i int) *Tensor[T] {
	return t.IndexAxis(0, i)
}

// AxisIter returns every subview along axis, in order.
func (t *Tensor[T]) AxisIter(axis int) []*Tensor[T] {
	axis = normalizeAxis(axis, t.Rank())
	out := make([]*Tensor[T], t.layout.shape[axis])
	for i := range out {
		out[i] = t.IndexAxis(axis, i)
	}
	return out
}

// Rows returns the subviews along the first axis.
func (t *Tensor[T]) Rows() []*Tensor[T] {
	return t.AxisIter(0)
}

// Slice returns the rows [start, end) of t as a view.
func (t *Tensor[T]) Slice(start, end int) *Tensor[T] {
	if t.Rank() == 0 {
		panic("cannot slice a scalar")
	}
	if start < 0 || end > t.layout.shape[0] || start >= end {
		panic(fmt.Sprintf("slice [%d, %d) out of range for axis of size %d", start, end, t.layout.shape[0]))
	}
	shape := t.layout.shape.Clone()
	shape[0] = end - start
	return &Tensor[T]{
		buf: t.buf,
		layout: layout{
			shape:  shape,
			stride: append([]int(nil), t.layout.stride...),
			offset: t.layout.offset + start*t.layout.stride[0],
		},
		storage: t.derivedStorage(),
	}
}

// Stack builds a tensor of rank r+1 from equally shaped tensors of rank r.
func Stack[T Float](parts []*Tensor[T]) (*Tensor[T], error) {
	if len(parts) == 0 {
		return nil, errors.New("stack: at least one tensor required")
	}
	inner := parts[0].Shape()
	shape := append(Shape{len(parts)}, inner...)
	out := newOwned[T](shape)
	step := inner.NumElements()
	for i, p := range parts {
		if !p.Shape().Equal(inner) {
			return nil, NewShapeMismatch("stack", inner, p.Shape())
		}
		copy(out.buf.data[i*step:], p.Values())
	}
	return out, nil
}
