package tensor

import (
	"fmt"
	"strings"
)

// Tensor is an n-dimensional array of T.
//
// A tensor is a strided window onto a reference-counted buffer. The storage
// class decides what a handle may do with that buffer:
//   - Owned and Shared handles copy the buffer before writing if anyone else holds it
//   - ViewMut handles write straight through to the owner
//   - View handles are read-only and panic on writes
//
// Example:
//
//	w := tensor.Zeros[float32](tensor.Shape{3, 4})
//	wt := w.T()          // (4, 3) view, no copy
//	s := w.ToShared()    // cheap clone, copied on first write
type Tensor[T Float] struct {
	buf     *tensorBuffer[T]
	layout  layout
	storage Storage
	// borrowed is set on the handle returned by ViewMut; Release ends the borrow.
	borrowed bool
}

// newOwned allocates a zeroed contiguous tensor.
func newOwned[T Float](shape Shape) *Tensor[T] {
	if err := shape.Validate(); err != nil {
		panic(fmt.Sprintf("invalid shape: %v", err))
	}
	return &Tensor[T]{
		buf:     newTensorBuffer[T](shape.NumElements()),
		layout:  contiguousLayout(shape),
		storage: Owned,
	}
}

// Shape returns the tensor's shape.
// The returned slice must not be modified; use Dim for a copy.
func (t *Tensor[T]) Shape() Shape {
	return t.layout.shape
}

// Dim returns a copy of the tensor's shape.
func (t *Tensor[T]) Dim() Shape {
	return t.layout.shape.Clone()
}

// Rank returns the number of axes.
func (t *Tensor[T]) Rank() int {
	return len(t.layout.shape)
}

// NumElements returns the total number of elements.
func (t *Tensor[T]) NumElements() int {
	return t.layout.shape.NumElements()
}

// Len returns the size of the first axis, or 1 for scalars.
func (t *Tensor[T]) Len() int {
	if t.Rank() == 0 {
		return 1
	}
	return t.layout.shape[0]
}

// IsEmpty reports whether the tensor has no elements.
func (t *Tensor[T]) IsEmpty() bool {
	return t.NumElements() == 0
}

// Storage returns the storage class of this handle.
func (t *Tensor[T]) Storage() Storage {
	return t.storage
}

// DType returns the runtime element type.
func (t *Tensor[T]) DType() DataType {
	return DataTypeOf[T]()
}

// IsContiguous reports whether elements are laid out densely in row-major order.
func (t *Tensor[T]) IsContiguous() bool {
	return t.layout.isContiguous()
}

// At returns the element at the given indices.
// Panics if indices are out of bounds.
func (t *Tensor[T]) At(indices ...int) T {
	if len(indices) != t.Rank() {
		panic(fmt.Sprintf("expected %d indices, got %d", t.Rank(), len(indices)))
	}
	return t.buf.data[t.layout.offsetOf(indices)]
}

// Set sets the element at the given indices.
// Panics if indices are out of bounds or the handle is read-only.
func (t *Tensor[T]) Set(value T, indices ...int) {
	if len(indices) != t.Rank() {
		panic(fmt.Sprintf("expected %d indices, got %d", t.Rank(), len(indices)))
	}
	t.prepareWrite()
	t.buf.data[t.layout.offsetOf(indices)] = value
}

// Item returns the value of a single-element tensor.
func (t *Tensor[T]) Item() T {
	if t.NumElements() != 1 {
		panic(fmt.Sprintf("Item() only works for single-element tensors, got shape %v", t.Shape()))
	}
	return t.buf.data[t.layout.offset]
}

// Values returns a row-major copy of the elements.
func (t *Tensor[T]) Values() []T {
	out := make([]T, t.NumElements())
	data := t.buf.data
	t.layout.forEach(func(i, off int) {
		out[i] = data[off]
	})
	return out
}

// Data returns the elements of a contiguous tensor without copying.
//
// WARNING: the slice aliases the buffer; it must be treated as read-only.
// Non-contiguous tensors (e.g. transposed views) panic; use Values instead.
func (t *Tensor[T]) Data() []T {
	if !t.IsContiguous() {
		panic("Data() requires a contiguous tensor, use Values()")
	}
	n := t.NumElements()
	return t.buf.data[t.layout.offset : t.layout.offset+n]
}

// DataMut returns a writable slice over a contiguous tensor.
// Shared buffers are copied first so the write is never observed elsewhere.
func (t *Tensor[T]) DataMut() []T {
	t.prepareWrite()
	return t.Data()
}

// View returns a read-only handle onto the same elements.
func (t *Tensor[T]) View() *Tensor[T] {
	return &Tensor[T]{buf: t.buf, layout: t.layout.clone(), storage: View}
}

// ViewMut returns a mutable handle writing through to this tensor.
// Until the handle is released, ToShared and Reshape on the owner copy the
// buffer instead of sharing it. Panics on read-only views.
func (t *Tensor[T]) ViewMut() *Tensor[T] {
	t.prepareWrite()
	t.buf.borrow()
	return &Tensor[T]{buf: t.buf, layout: t.layout.clone(), storage: ViewMut, borrowed: true}
}

// ToShared returns a reference-counted handle sharing this tensor's buffer.
// Whichever counted holder writes first receives its own copy.
func (t *Tensor[T]) ToShared() *Tensor[T] {
	if t.storage == View || t.storage == ViewMut || t.buf.isBorrowed() {
		// Borrowed storage is materialised: shared handles must own a reference
		// that no live mutable view can write to.
		c := t.Clone()
		c.storage = Shared
		return c
	}
	t.buf.addRef()
	return &Tensor[T]{buf: t.buf, layout: t.layout.clone(), storage: Shared}
}

// Clone returns a deep, contiguous, owned copy.
func (t *Tensor[T]) Clone() *Tensor[T] {
	out := newOwned[T](t.Shape())
	copy(out.buf.data, t.Values())
	return out
}

// Release drops this handle's reference on a shared buffer, or ends the
// borrow of a handle returned by ViewMut.
// The handle must not be used afterwards.
func (t *Tensor[T]) Release() {
	switch {
	case t.storage == Owned || t.storage == Shared:
		t.buf.release()
	case t.borrowed:
		t.buf.unborrow()
	}
	t.buf = nil
}

// IsUnique reports whether no other counted handle holds this buffer.
func (t *Tensor[T]) IsUnique() bool {
	return t.buf.isUnique()
}

// prepareWrite enforces the storage-class write rules.
func (t *Tensor[T]) prepareWrite() {
	switch t.storage {
	case View:
		panic("cannot write through a read-only tensor view")
	case ViewMut:
		return
	}
	if t.buf.isUnique() {
		return
	}
	// Clone-on-write: detach from the other holders.
	values := t.Values()
	old := t.buf
	t.buf = newTensorBuffer[T](len(values))
	copy(t.buf.data, values)
	t.layout = contiguousLayout(t.layout.shape)
	old.release()
}

// String returns a human-readable representation of the tensor.
func (t *Tensor[T]) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Tensor[%s]%v", t.DType(), []int(t.Shape()))
	if t.NumElements() <= 64 {
		sb.WriteString(" ")
		formatNested(&sb, t.Values(), t.Shape())
	}
	return sb.String()
}

func formatNested[T Float](sb *strings.Builder, values []T, shape Shape) {
	if len(shape) == 0 {
		fmt.Fprintf(sb, "%g", float64(values[0]))
		return
	}
	step := len(values) / shape[0]
	sb.WriteString("[")
	for i := 0; i < shape[0]; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		formatNested(sb, values[i*step:(i+1)*step], shape[1:])
	}
	sb.WriteString("]")
}

func (l layout) clone() layout {
	return layout{
		shape:  l.shape.Clone(),
		stride: append([]int(nil), l.stride...),
		offset: l.offset,
	}
}
