package tensor

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/perceptron/internal/parallel"
)

// parallelMinWork is the multiply-add count above which matrix products fan out.
const parallelMinWork = 1 << 15

// Dot returns the standard tensor contraction of t and rhs.
//
// Supported ranks:
//   - (k)    · (k)    → scalar
//   - (m, k) · (k)    → (m)
//   - (k)    · (k, n) → (n)
//   - (m, k) · (k, n) → (m, n)
//
// Example:
//
//	w := tensor.Zeros[float32](tensor.Shape{3, 2})
//	x := tensor.Vector[float32](1, 1)
//	y, err := x.Dot(w.T()) // Shape: [3]
func (t *Tensor[T]) Dot(rhs *Tensor[T]) (*Tensor[T], error) {
	ls, rs := t.Shape(), rhs.Shape()
	switch {
	case t.Rank() == 1 && rhs.Rank() == 1:
		if ls[0] != rs[0] {
			return nil, NewShapeMismatch("dot", ls, rs)
		}
		a, b := t.Values(), rhs.Values()
		var acc T
		for i := range a {
			acc += a[i] * b[i]
		}
		return Scalar(acc), nil

	case t.Rank() == 2 && rhs.Rank() == 1:
		if ls[1] != rs[0] {
			return nil, NewShapeMismatch("dot", Shape{ls[0], rs[0]}, ls)
		}
		out := matmul(t.Values(), rhs.Values(), ls[0], ls[1], 1)
		return out.reshaped(Shape{ls[0]}), nil

	case t.Rank() == 1 && rhs.Rank() == 2:
		if ls[0] != rs[0] {
			return nil, NewShapeMismatch("dot", Shape{ls[0], rs[1]}, rs)
		}
		out := matmul(t.Values(), rhs.Values(), 1, ls[0], rs[1])
		return out.reshaped(Shape{rs[1]}), nil

	case t.Rank() == 2 && rhs.Rank() == 2:
		if ls[1] != rs[0] {
			return nil, NewShapeMismatch("dot", Shape{ls[1], rs[1]}, rs)
		}
		return matmul(t.Values(), rhs.Values(), ls[0], ls[1], rs[1]), nil
	}

	return nil, errors.Wrapf(ErrRankMismatch, "dot: unsupported ranks %d and %d", t.Rank(), rhs.Rank())
}

// matmul multiplies row-major a (m, k) by b (k, n).
func matmul[T Float](a, b []T, m, k, n int) *Tensor[T] {
	out := newOwned[T](Shape{m, n})
	dst := out.buf.data
	rows := func(start, end int) {
		for i := start; i < end; i++ {
			ai := a[i*k : (i+1)*k]
			di := dst[i*n : (i+1)*n]
			for p, av := range ai {
				bp := b[p*n : (p+1)*n]
				for j, bv := range bp {
					di[j] += av * bv
				}
			}
		}
	}

	parallel.ForChunks(m, rows, parallel.ForWork(m, m*k*n, parallelMinWork))
	return out
}

// reshaped reinterprets an owned contiguous tensor in place.
func (t *Tensor[T]) reshaped(shape Shape) *Tensor[T] {
	t.layout = contiguousLayout(shape)
	return t
}

// Outer returns the outer product a ⊗ b of two vectors, shape (len(a), len(b)).
func Outer[T Float](a, b *Tensor[T]) (*Tensor[T], error) {
	if a.Rank() != 1 {
		return nil, NewRankMismatch("outer", 1, a.Rank())
	}
	if b.Rank() != 1 {
		return nil, NewRankMismatch("outer", 1, b.Rank())
	}
	av, bv := a.Values(), b.Values()
	out := newOwned[T](Shape{len(av), len(bv)})
	for i, x := range av {
		for j, y := range bv {
			out.buf.data[i*len(bv)+j] = x * y
		}
	}
	return out, nil
}

// Inverse returns the inverse of a square matrix.
//
// The factorisation runs in float64. Exactly singular matrices, and matrices
// whose condition number exceeds mat.ConditionTolerance, return ErrSingularMatrix.
func (t *Tensor[T]) Inverse() (*Tensor[T], error) {
	if t.Rank() != 2 {
		return nil, NewRankMismatch("inverse", 2, t.Rank())
	}
	n := t.Shape()[0]
	if t.Shape()[1] != n {
		return nil, NewShapeMismatch("inverse", Shape{n, n}, t.Shape())
	}

	var inv mat.Dense
	if err := inv.Inverse(mat.NewDense(n, n, t.float64s())); err != nil {
		var cond mat.Condition
		if errors.As(err, &cond) {
			return nil, errors.Wrapf(ErrSingularMatrix, "inverse: condition number %.4e", float64(cond))
		}
		return nil, errors.Wrap(err, "inverse")
	}

	out := newOwned[T](Shape{n, n})
	for i, v := range inv.RawMatrix().Data {
		out.buf.data[i] = T(v)
	}
	return out, nil
}
