package nn

import (
	"github.com/pkg/errors"

	"github.com/born-ml/perceptron/internal/tensor"
)

var _ tensor.GradientApplierExt[float32, *Params[float32]] = (*Params[float32])(nil)

// checkDelta verifies that g has the same structure as p: equal weight shapes
// and a bias of equal shape exactly when p has one.
func (p *Params[T]) checkDelta(op string, g *Params[T]) error {
	if g == nil {
		return errors.Errorf("%s: nil delta", op)
	}
	if !p.weights.Shape().Equal(g.weights.Shape()) {
		return tensor.NewShapeMismatch(op, p.weights.Shape(), g.weights.Shape())
	}
	switch {
	case p.bias == nil && g.bias == nil:
		return nil
	case p.bias == nil:
		return tensor.NewShapeMismatch(op+" bias", nil, g.bias.Shape())
	case g.bias == nil:
		return tensor.NewShapeMismatch(op+" bias", p.bias.Shape(), nil)
	case !p.bias.Shape().Equal(g.bias.Shape()):
		return tensor.NewShapeMismatch(op+" bias", p.bias.Shape(), g.bias.Shape())
	}
	return nil
}

// ApplyGradient applies the delta structurally: bias with bias delta, weights
// with weight delta, each as t ← t + (lr/β)·g.
func (p *Params[T]) ApplyGradient(grad *Params[T], lr T) error {
	if err := p.checkDelta("apply_gradient", grad); err != nil {
		return err
	}
	if p.bias != nil {
		if err := p.bias.ApplyGradient(grad.bias, lr); err != nil {
			return err
		}
	}
	return p.weights.ApplyGradient(grad.weights, lr)
}

// ApplyGradientWithDecay applies t ← t + (lr/β)·(g + decay·t) to bias and weights.
func (p *Params[T]) ApplyGradientWithDecay(grad *Params[T], lr, decay T) error {
	if err := p.checkDelta("apply_gradient_with_decay", grad); err != nil {
		return err
	}
	if p.bias != nil {
		if err := p.bias.ApplyGradientWithDecay(grad.bias, lr, decay); err != nil {
			return err
		}
	}
	return p.weights.ApplyGradientWithDecay(grad.weights, lr, decay)
}

// ApplyGradientWithMomentum updates velocity and steps along it.
// velocity must have the same structure as p.
func (p *Params[T]) ApplyGradientWithMomentum(grad *Params[T], lr, momentum T, velocity *Params[T]) error {
	if err := p.checkDelta("apply_gradient_with_momentum", grad); err != nil {
		return err
	}
	if err := p.checkDelta("apply_gradient_with_momentum velocity", velocity); err != nil {
		return err
	}
	if p.bias != nil {
		if err := p.bias.ApplyGradientWithMomentum(grad.bias, lr, momentum, velocity.bias); err != nil {
			return err
		}
	}
	return p.weights.ApplyGradientWithMomentum(grad.weights, lr, momentum, velocity.weights)
}

// ApplyGradientWithDecayAndMomentum folds decay into the velocity update before stepping.
func (p *Params[T]) ApplyGradientWithDecayAndMomentum(grad *Params[T], lr, decay, momentum T, velocity *Params[T]) error {
	if err := p.checkDelta("apply_gradient_with_decay_and_momentum", grad); err != nil {
		return err
	}
	if err := p.checkDelta("apply_gradient_with_decay_and_momentum velocity", velocity); err != nil {
		return err
	}
	if p.bias != nil {
		if err := p.bias.ApplyGradientWithDecayAndMomentum(grad.bias, lr, decay, momentum, velocity.bias); err != nil {
			return err
		}
	}
	return p.weights.ApplyGradientWithDecayAndMomentum(grad.weights, lr, decay, momentum, velocity.weights)
}

// ZerosLike returns a zero store with the same structure as p, suitable as a
// velocity buffer.
func ZerosLike[T tensor.Float](p *Params[T]) *Params[T] {
	return Zeros[T](p.Shape(), p.Kind())
}
