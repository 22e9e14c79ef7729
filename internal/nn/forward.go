package nn

import (
	"github.com/born-ml/perceptron/internal/tensor"
)

// Module is anything with a forward pass.
//
// Forward returns an error instead of panicking on a shape mismatch, so
// callers can surface bad inputs at the boundary.
type Module[T tensor.Float] interface {
	Forward(x *tensor.Tensor[T]) (*tensor.Tensor[T], error)
}

// Trainable is a Module that can fold a delta back into its parameters.
type Trainable[T tensor.Float] interface {
	Module[T]
	Backward(x, delta *tensor.Tensor[T], lr T) (T, error)
}

var _ Trainable[float32] = (*Params[float32])(nil)

// Forward computes y = x·Wᵀ + b (or x·Wᵀ when unbiased).
//
// The last axis of x must equal InFeatures. The result has the shape of x with
// its last axis replaced by OutFeatures (dropped when W is a vector):
//
//	W (out, in), x (in)       → (out)
//	W (out, in), x (n, in)    → (n, out)
//	W (out, in), x (a, b, in) → (a, b, out)
//	W (in),      x (in)       → ()
//	W (in),      x (n, in)    → (n)
func (p *Params[T]) Forward(x *tensor.Tensor[T]) (*tensor.Tensor[T], error) {
	if x.Rank() == 0 || x.Shape().Last() != p.InFeatures() {
		return nil, tensor.NewShapeMismatch("forward", p.inputShapeFor(x), x.Shape())
	}

	var (
		y   *tensor.Tensor[T]
		err error
	)
	switch {
	case x.Rank() == 1 && p.weights.Rank() == 2:
		// (out, in) · (in) → (out)
		y, err = p.weights.Dot(x)
	case x.Rank() <= 2:
		// (n, in) · (in, out) → (n, out); vectors contract directly.
		y, err = x.Dot(p.weights.T())
	default:
		y, err = p.forwardFlat(x)
	}
	if err != nil {
		return nil, err
	}

	if p.bias == nil {
		return y, nil
	}
	return y.BroadcastAdd(p.bias)
}

// forwardFlat handles inputs of rank > 2 by folding the leading axes into one.
func (p *Params[T]) forwardFlat(x *tensor.Tensor[T]) (*tensor.Tensor[T], error) {
	in := p.InFeatures()
	flat, err := x.Reshape(x.NumElements()/in, in)
	if err != nil {
		return nil, err
	}
	y, err := flat.Dot(p.weights.T())
	if err != nil {
		return nil, err
	}
	outShape := x.Shape().RemoveAxis(-1)
	if p.weights.Rank() == 2 {
		outShape = append(outShape, p.OutFeatures())
	}
	return y.Reshape(outShape...)
}

// ForwardThen returns f(Forward(x)).
//
// Example:
//
//	h, err := layer.ForwardThen(x, nn.ActivationFunc[float32](nn.ReLU()))
func (p *Params[T]) ForwardThen(x *tensor.Tensor[T], f func(*tensor.Tensor[T]) *tensor.Tensor[T]) (*tensor.Tensor[T], error) {
	y, err := p.Forward(x)
	if err != nil {
		return nil, err
	}
	return f(y), nil
}

// inputShapeFor is the input shape Forward would have accepted in place of x.
func (p *Params[T]) inputShapeFor(x *tensor.Tensor[T]) tensor.Shape {
	if x.Rank() == 0 {
		return tensor.Shape{p.InFeatures()}
	}
	want := x.Dim()
	want[len(want)-1] = p.InFeatures()
	return want
}
