package tensor

import (
	"sync/atomic"
)

// Storage describes how a tensor holds its elements.
type Storage int

// Storage classes.
const (
	// Owned tensors are the unique owner of their buffer.
	Owned Storage = iota
	// View tensors borrow a buffer read-only.
	View
	// ViewMut tensors borrow a buffer and write through to the owner.
	ViewMut
	// Shared tensors hold a reference-counted buffer and copy it before writing.
	Shared
)

// String returns a human-readable storage class name.
func (s Storage) String() string {
	switch s {
	case Owned:
		return "owned"
	case View:
		return "view"
	case ViewMut:
		return "view_mut"
	case Shared:
		return "shared"
	default:
		return "unknown"
	}
}

// CanWrite reports whether elements may be mutated through a handle of this class.
func (s Storage) CanWrite() bool {
	return s != View
}

// tensorBuffer is a reference-counted shared buffer for Copy-on-Write semantics.
// Only Owned and Shared handles hold a reference. Read-only views borrow
// without counting; mutable borrows are counted separately in borrows.
type tensorBuffer[T Float] struct {
	data     []T
	refCount atomic.Int32
	borrows  atomic.Int32
}

// newTensorBuffer creates a new reference-counted buffer with refCount = 1.
func newTensorBuffer[T Float](size int) *tensorBuffer[T] {
	buf := &tensorBuffer[T]{
		data: make([]T, size),
	}
	buf.refCount.Store(1)
	return buf
}

// addRef increments the reference count (for ToShared).
func (tb *tensorBuffer[T]) addRef() {
	tb.refCount.Add(1)
}

// release decrements the reference count.
func (tb *tensorBuffer[T]) release() {
	tb.refCount.Add(-1)
}

// borrow records a live mutable view.
func (tb *tensorBuffer[T]) borrow() {
	tb.borrows.Add(1)
}

// unborrow ends a mutable view recorded by borrow.
func (tb *tensorBuffer[T]) unborrow() {
	tb.borrows.Add(-1)
}

// isBorrowed reports whether a mutable view may still write to the buffer.
func (tb *tensorBuffer[T]) isBorrowed() bool {
	return tb.borrows.Load() > 0
}

// isUnique returns true if this buffer has only one counted holder.
func (tb *tensorBuffer[T]) isUnique() bool {
	return tb.refCount.Load() <= 1
}

// layout maps logical row-major indices to buffer offsets.
type layout struct {
	shape  Shape
	stride []int
	offset int
}

func contiguousLayout(shape Shape) layout {
	return layout{
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		offset: 0,
	}
}

// isContiguous reports whether the layout is dense row-major.
func (l layout) isContiguous() bool {
	expected := 1
	for i := len(l.shape) - 1; i >= 0; i-- {
		if l.shape[i] != 1 && l.stride[i] != expected {
			return false
		}
		expected *= l.shape[i]
	}
	return true
}

// forEach calls fn with the logical position and physical offset of every element,
// in row-major order.
func (l layout) forEach(fn func(i, off int)) {
	n := l.shape.NumElements()
	if n == 0 {
		return
	}
	if l.isContiguous() {
		for i := 0; i < n; i++ {
			fn(i, l.offset+i)
		}
		return
	}

	rank := len(l.shape)
	idx := make([]int, rank)
	off := l.offset
	for i := 0; i < n; i++ {
		fn(i, off)
		// Advance the multi-index like an odometer.
		for ax := rank - 1; ax >= 0; ax-- {
			idx[ax]++
			off += l.stride[ax]
			if idx[ax] < l.shape[ax] {
				break
			}
			off -= l.stride[ax] * l.shape[ax]
			idx[ax] = 0
		}
	}
}

// offsetOf returns the buffer offset for a multi-index.
func (l layout) offsetOf(indices []int) int {
	off := l.offset
	for i, idx := range indices {
		if idx < 0 || idx >= l.shape[i] {
			panic(indexPanic(idx, i, l.shape[i]))
		}
		off += idx * l.stride[i]
	}
	return off
}
