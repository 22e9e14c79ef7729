package tensor

// GradientApplier is implemented by values that accept a delta of type D and
// fold it into themselves. Both *Tensor[T] and *nn.Params[T] implement it.
//
// The batch-size divisor β is the first-axis length of the delta (1 for
// scalars), so single-sample and mini-batch deltas produce comparable steps:
//
//	apply:  self ← self + (α/β)·g
//	decay:  self ← self + (α/β)·(g + λ·self)
type GradientApplier[T Float, D any] interface {
	ApplyGradient(grad D, lr T) error
	ApplyGradientWithDecay(grad D, lr, decay T) error
}

// GradientApplierExt adds momentum-aware updates with an explicit velocity buffer.
//
//	momentum:        v ← μ·v + (1−μ)·g;           self ← self + (α/β)·v
//	decay+momentum:  v ← μ·v + (1−μ)·(g + λ·self); self ← self + (α/β)·v
type GradientApplierExt[T Float, D any] interface {
	GradientApplier[T, D]
	ApplyGradientWithMomentum(grad D, lr, momentum T, velocity D) error
	ApplyGradientWithDecayAndMomentum(grad D, lr, decay, momentum T, velocity D) error
}

var _ GradientApplierExt[float32, *Tensor[float32]] = (*Tensor[float32])(nil)

// BatchDivisor returns β for a delta tensor: its first-axis length, or 1 for scalars.
func BatchDivisor[T Float](g *Tensor[T]) T {
	if g.Rank() == 0 {
		return 1
	}
	return T(g.Shape()[0])
}

// ApplyGradient performs t ← t + (lr/β)·grad.
//
// Example:
//
//	w := tensor.Ones[float64](tensor.Shape{2, 2})
//	g := tensor.Full[float64](tensor.Shape{2, 2}, 0.5)
//	_ = w.ApplyGradient(g, 0.1) // every element becomes 1.025
func (t *Tensor[T]) ApplyGradient(grad *Tensor[T], lr T) error {
	if !t.Shape().Equal(grad.Shape()) {
		return NewShapeMismatch("apply_gradient", t.Shape(), grad.Shape())
	}
	return t.ScaledAdd(lr/BatchDivisor(grad), grad)
}

// ApplyGradientWithDecay performs t ← t + (lr/β)·(grad + decay·t).
func (t *Tensor[T]) ApplyGradientWithDecay(grad *Tensor[T], lr, decay T) error {
	if !t.Shape().Equal(grad.Shape()) {
		return NewShapeMismatch("apply_gradient_with_decay", t.Shape(), grad.Shape())
	}
	step, err := t.decayed(grad, decay)
	if err != nil {
		return err
	}
	return t.ScaledAdd(lr/BatchDivisor(grad), step)
}

// ApplyGradientWithMomentum updates the velocity, then performs t ← t + (lr/β)·velocity.
func (t *Tensor[T]) ApplyGradientWithMomentum(grad *Tensor[T], lr, momentum T, velocity *Tensor[T]) error {
	if err := t.checkMomentumShapes("apply_gradient_with_momentum", grad, velocity); err != nil {
		return err
	}
	if err := updateVelocity(velocity, grad, momentum); err != nil {
		return err
	}
	return t.ScaledAdd(lr/BatchDivisor(grad), velocity)
}

// ApplyGradientWithDecayAndMomentum folds the decay term into the velocity
// update before stepping.
func (t *Tensor[T]) ApplyGradientWithDecayAndMomentum(grad *Tensor[T], lr, decay, momentum T, velocity *Tensor[T]) error {
	if err := t.checkMomentumShapes("apply_gradient_with_decay_and_momentum", grad, velocity); err != nil {
		return err
	}
	step, err := t.decayed(grad, decay)
	if err != nil {
		return err
	}
	if err := updateVelocity(velocity, step, momentum); err != nil {
		return err
	}
	return t.ScaledAdd(lr/BatchDivisor(grad), velocity)
}

// decayed returns grad + decay·t.
func (t *Tensor[T]) decayed(grad *Tensor[T], decay T) (*Tensor[T], error) {
	return grad.ZipWith(t, func(g, w T) T { return g + decay*w })
}

func (t *Tensor[T]) checkMomentumShapes(op string, grad, velocity *Tensor[T]) error {
	if !t.Shape().Equal(grad.Shape()) {
		return NewShapeMismatch(op, t.Shape(), grad.Shape())
	}
	if !t.Shape().Equal(velocity.Shape()) {
		return NewShapeMismatch(op+" (velocity)", t.Shape(), velocity.Shape())
	}
	return nil
}

// updateVelocity performs v ← μ·v + (1−μ)·g in place.
func updateVelocity[T Float](v, g *Tensor[T], momentum T) error {
	if !v.Shape().Equal(g.Shape()) {
		return NewShapeMismatch("velocity", v.Shape(), g.Shape())
	}
	values := g.Values()
	v.prepareWrite()
	data := v.buf.data
	v.layout.forEach(func(i, off int) {
		data[off] = momentum*data[off] + (1-momentum)*values[i]
	})
	return nil
}
