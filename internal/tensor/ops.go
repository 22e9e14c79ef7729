package tensor

// Map returns a new owned tensor whose element i is f(t[i]).
//
// Example:
//
//	sq := x.Map(func(v float32) float32 { return v * v })
func (t *Tensor[T]) Map(f func(T) T) *Tensor[T] {
	out := newOwned[T](t.Shape())
	src := t.buf.data
	dst := out.buf.data
	t.layout.forEach(func(i, off int) {
		dst[i] = f(src[off])
	})
	return out
}

// MapInPlace replaces every element v with f(v).
func (t *Tensor[T]) MapInPlace(f func(T) T) {
	t.prepareWrite()
	data := t.buf.data
	t.layout.forEach(func(_, off int) {
		data[off] = f(data[off])
	})
}

// ZipWith combines two tensors of identical shape elementwise.
func (t *Tensor[T]) ZipWith(other *Tensor[T], f func(a, b T) T) (*Tensor[T], error) {
	if !t.Shape().Equal(other.Shape()) {
		return nil, NewShapeMismatch("zip", t.Shape(), other.Shape())
	}
	out := newOwned[T](t.Shape())
	rhs := other.Values()
	src := t.buf.data
	dst := out.buf.data
	t.layout.forEach(func(i, off int) {
		dst[i] = f(src[off], rhs[i])
	})
	return out, nil
}

// Add performs element-wise addition of same-shaped tensors.
func (t *Tensor[T]) Add(other *Tensor[T]) (*Tensor[T], error) {
	return t.ZipWith(other, func(a, b T) T { return a + b })
}

// Sub performs element-wise subtraction of same-shaped tensors.
func (t *Tensor[T]) Sub(other *Tensor[T]) (*Tensor[T], error) {
	return t.ZipWith(other, func(a, b T) T { return a - b })
}

// Mul performs element-wise (Hadamard) multiplication of same-shaped tensors.
func (t *Tensor[T]) Mul(other *Tensor[T]) (*Tensor[T], error) {
	return t.ZipWith(other, func(a, b T) T { return a * b })
}

// Div performs element-wise division of same-shaped tensors.
func (t *Tensor[T]) Div(other *Tensor[T]) (*Tensor[T], error) {
	return t.ZipWith(other, func(a, b T) T { return a / b })
}

// AddScalar returns t + s.
func (t *Tensor[T]) AddScalar(s T) *Tensor[T] {
	return t.Map(func(v T) T { return v + s })
}

// MulScalar returns t * s.
func (t *Tensor[T]) MulScalar(s T) *Tensor[T] {
	return t.Map(func(v T) T { return v * s })
}

// DivScalar returns t / s.
func (t *Tensor[T]) DivScalar(s T) *Tensor[T] {
	return t.Map(func(v T) T { return v / s })
}

// Fill sets every element to v.
func (t *Tensor[T]) Fill(v T) {
	t.MapInPlace(func(T) T { return v })
}

// Assign copies the elements of src into t.
func (t *Tensor[T]) Assign(src *Tensor[T]) error {
	if !t.Shape().Equal(src.Shape()) {
		return NewShapeMismatch("assign", t.Shape(), src.Shape())
	}
	values := src.Values()
	t.prepareWrite()
	data := t.buf.data
	t.layout.forEach(func(i, off int) {
		data[off] = values[i]
	})
	return nil
}

// ScaledAdd performs t ← t + alpha·rhs in place.
func (t *Tensor[T]) ScaledAdd(alpha T, rhs *Tensor[T]) error {
	if !t.Shape().Equal(rhs.Shape()) {
		return NewShapeMismatch("scaled_add", t.Shape(), rhs.Shape())
	}
	values := rhs.Values()
	t.prepareWrite()
	data := t.buf.data
	t.layout.forEach(func(i, off int) {
		data[off] += alpha * values[i]
	})
	return nil
}

// BroadcastAdd returns t + b where b matches the trailing axes of t.
//
// This covers the bias-add of the forward rule:
//
//	(n, out) + (out) → (n, out)
//	(out)    + ()    → (out)
func (t *Tensor[T]) BroadcastAdd(b *Tensor[T]) (*Tensor[T], error) {
	if !b.Shape().IsSuffixOf(t.Shape()) {
		return nil, NewShapeMismatch("broadcast_add", t.Shape(), b.Shape())
	}
	bias := b.Values()
	period := len(bias)
	out := newOwned[T](t.Shape())
	src := t.buf.data
	dst := out.buf.data
	t.layout.forEach(func(i, off int) {
		dst[i] = src[off] + bias[i%period]
	})
	return out, nil
}

// Sqr returns the elementwise square.
func (t *Tensor[T]) Sqr() *Tensor[T] {
	return t.Map(func(v T) T { return v * v })
}

// Normalize returns t / max(‖t‖₂, eps).
// A zero tensor stays zero instead of turning into NaN.
func (t *Tensor[T]) Normalize(eps T) *Tensor[T] {
	norm := t.L2Norm()
	if norm < eps {
		norm = eps
	}
	return t.DivScalar(norm)
}

// AllFinite reports whether no element is NaN or infinite.
func (t *Tensor[T]) AllFinite() bool {
	finite := true
	data := t.buf.data
	t.layout.forEach(func(_, off int) {
		if finite && !IsFinite(data[off]) {
			finite = false
		}
	})
	return finite
}

// AllClose reports whether both tensors have the same shape and every pair of
// elements differs by at most tol.
func (t *Tensor[T]) AllClose(other *Tensor[T], tol T) bool {
	if !t.Shape().Equal(other.Shape()) {
		return false
	}
	a, b := t.Values(), other.Values()
	for i := range a {
		d := a[i] - b[i]
		if d < 0 {
			d = -d
		}
		if !(d <= tol) {
			return false
		}
	}
	return true
}
