package tensor

import (
	"gonum.org/v1/gonum/floats"
)

// float64s returns the elements of t widened to float64.
// Reductions accumulate in float64 regardless of T.
func (t *Tensor[T]) float64s() []float64 {
	out := make([]float64, t.NumElements())
	data := t.buf.data
	t.layout.forEach(func(i, off int) {
		out[i] = float64(data[off])
	})
	return out
}

// Sum returns the sum of all elements.
func (t *Tensor[T]) Sum() T {
	return T(floats.Sum(t.float64s()))
}

// Mean returns the arithmetic mean of all elements.
func (t *Tensor[T]) Mean() T {
	return T(floats.Sum(t.float64s()) / float64(t.NumElements()))
}

// Max returns the largest element.
func (t *Tensor[T]) Max() T {
	return T(floats.Max(t.float64s()))
}

// Min returns the smallest element.
func (t *Tensor[T]) Min() T {
	return T(floats.Min(t.float64s()))
}

// L1Norm returns Σ|xᵢ|.
func (t *Tensor[T]) L1Norm() T {
	return T(floats.Norm(t.float64s(), 1))
}

// L2Norm returns √Σxᵢ².
func (t *Tensor[T]) L2Norm() T {
	return T(floats.Norm(t.float64s(), 2))
}

// SumSquares returns Σxᵢ².
func (t *Tensor[T]) SumSquares() T {
	v := t.float64s()
	return T(floats.Dot(v, v))
}

// SumAxis reduces axis by summation; the result has rank-1 fewer axes.
//
// Example:
//
//	// [[1, 2, 3],
//	//  [4, 5, 6]]
//	t.SumAxis(0) // [5, 7, 9]
//	t.SumAxis(1) // [6, 15]
func (t *Tensor[T]) SumAxis(axis int) *Tensor[T] {
	axis = normalizeAxis(axis, t.Rank())
	out := newOwned[T](t.Shape().RemoveAxis(axis))
	acc := make([]float64, out.NumElements())
	for _, sub := range t.AxisIter(axis) {
		floats.Add(acc, sub.float64s())
	}
	for i, v := range acc {
		out.buf.data[i] = T(v)
	}
	return out
}

// MeanAxis reduces axis by averaging.
func (t *Tensor[T]) MeanAxis(axis int) *Tensor[T] {
	axis = normalizeAxis(axis, t.Rank())
	n := T(t.Shape()[axis])
	return t.SumAxis(axis).DivScalar(n)
}
