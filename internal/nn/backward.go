package nn

import (
	"github.com/pkg/errors"

	"github.com/born-ml/perceptron/internal/tensor"
)

// Backward folds the layer delta into the parameters and returns Σδ².
//
// δ is the gradient of the loss with respect to this layer's pre-activation
// output, with the sign of a descent direction (e.g. (target − prediction)·ρ′),
// so both updates are added: W ← W + (lr/β)·dW, b ← b + (lr/β)·db.
//
// Supported rank combinations (Σ₀ sums over the first axis):
//
//	W       x        δ       dW             db
//	(in)    (n, in)  (n)     δ·x   (in)     Σ₀δ
//	(in)    (in)     ()      x·δ   (in)     δ
//	(o, in) (in)     (o)     W ⊙ (δ ⊗ x)    δ
//	(o, in) (n, in)  (n, o)  δᵀ·x  (o, in)  Σ₀δ
//
// The single-sample matrix rule scales the outer product by the current
// weights, so a zero weight stays zero under that rule.
//
// Any other combination returns a rank mismatch; mismatched axis lengths
// return a shape mismatch. Parameters are untouched on error.
func (p *Params[T]) Backward(x, delta *tensor.Tensor[T], lr T) (T, error) {
	dW, db, err := p.gradients(x, delta)
	if err != nil {
		return 0, err
	}
	if p.bias != nil {
		if err := p.bias.ApplyGradient(db, lr); err != nil {
			return 0, err
		}
	}
	if err := p.weights.ApplyGradient(dW, lr); err != nil {
		return 0, err
	}
	return delta.SumSquares(), nil
}

// Gradients returns the weight and bias deltas Backward would apply, as a
// store with the same structure as p.
func (p *Params[T]) Gradients(x, delta *tensor.Tensor[T]) (*Params[T], error) {
	dW, db, err := p.gradients(x, delta)
	if err != nil {
		return nil, err
	}
	g := &Params[T]{weights: dW}
	if p.bias != nil {
		g.bias = db
	}
	return g, nil
}

func (p *Params[T]) gradients(x, delta *tensor.Tensor[T]) (dW, db *tensor.Tensor[T], err error) {
	if x.Rank() == 0 || x.Shape().Last() != p.InFeatures() {
		return nil, nil, tensor.NewShapeMismatch("backward input", p.inputShapeFor(x), x.Shape())
	}

	wRank, xRank, dRank := p.weights.Rank(), x.Rank(), delta.Rank()
	switch {
	case wRank == 1 && xRank == 2 && dRank == 1:
		n := x.Shape()[0]
		if delta.Shape()[0] != n {
			return nil, nil, tensor.NewShapeMismatch("backward delta", tensor.Shape{n}, delta.Shape())
		}
		if dW, err = delta.Dot(x); err != nil {
			return nil, nil, err
		}
		return dW, delta.SumAxis(0), nil

	case wRank == 1 && xRank == 1 && dRank == 0:
		return x.MulScalar(delta.Item()), delta.Clone(), nil

	case wRank == 2 && xRank == 1 && dRank == 1:
		out := p.OutFeatures()
		if delta.Shape()[0] != out {
			return nil, nil, tensor.NewShapeMismatch("backward delta", tensor.Shape{out}, delta.Shape())
		}
		outer, err := tensor.Outer(delta, x)
		if err != nil {
			return nil, nil, err
		}
		if dW, err = p.weights.Mul(outer); err != nil {
			return nil, nil, err
		}
		return dW, delta.Clone(), nil

	case wRank == 2 && xRank == 2 && dRank == 2:
		want := tensor.Shape{x.Shape()[0], p.OutFeatures()}
		if !delta.Shape().Equal(want) {
			return nil, nil, tensor.NewShapeMismatch("backward delta", want, delta.Shape())
		}
		if dW, err = delta.T().Dot(x); err != nil {
			return nil, nil, err
		}
		return dW, delta.SumAxis(0), nil
	}

	return nil, nil, errors.Wrapf(tensor.ErrRankMismatch,
		"backward: unsupported ranks (weights %d, input %d, delta %d)", wRank, xRank, dRank)
}
