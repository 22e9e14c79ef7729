package optim

import (
	"github.com/born-ml/perceptron/internal/config"
	"github.com/born-ml/perceptron/internal/nn"
	"github.com/born-ml/perceptron/internal/tensor"
)

// SGD implements Stochastic Gradient Descent with optional momentum and L2 decay.
//
// Updates go through the parameter store's gradient policies with α = −LR,
// where β is the first-axis length of the gradient:
//
//	plain:          p ← p − (lr/β)·g
//	decay:          p ← p − (lr/β)·(g + λ·p)
//	momentum:       v ← μ·v + (1−μ)·g;  p ← p − (lr/β)·v
//	decay+momentum: v ← μ·v + (1−μ)·(g + λ·p);  p ← p − (lr/β)·v
//
// Example:
//
//	opt := optim.NewSGD[float32](optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
type SGD[T tensor.Float] struct {
	lr         float64
	momentum   float64
	decay      float64
	velocities map[*nn.Params[T]]*nn.Params[T]
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float64 // Learning rate (default: 0.01)
	Momentum float64 // Momentum factor (default: 0.0, range: [0, 1))
	Decay    float64 // L2 coefficient λ (default: 0.0)
}

// NewSGD creates a new SGD optimizer.
func NewSGD[T tensor.Float](cfg SGDConfig) *SGD[T] {
	if cfg.LR == 0 {
		cfg.LR = config.DefaultLearningRate
	}
	return &SGD[T]{
		lr:         cfg.LR,
		momentum:   cfg.Momentum,
		decay:      cfg.Decay,
		velocities: make(map[*nn.Params[T]]*nn.Params[T]),
	}
}

// Step applies one SGD update to p.
func (s *SGD[T]) Step(p, grad *nn.Params[T]) error {
	alpha := T(-s.lr)
	switch {
	case s.momentum == 0 && s.decay == 0:
		return p.ApplyGradient(grad, alpha)
	case s.momentum == 0:
		return p.ApplyGradientWithDecay(grad, alpha, T(s.decay))
	case s.decay == 0:
		return p.ApplyGradientWithMomentum(grad, alpha, T(s.momentum), s.velocity(p))
	default:
		return p.ApplyGradientWithDecayAndMomentum(grad, alpha, T(s.decay), T(s.momentum), s.velocity(p))
	}
}

// velocity returns the velocity buffer for p, creating a zero one on first use.
func (s *SGD[T]) velocity(p *nn.Params[T]) *nn.Params[T] {
	v, ok := s.velocities[p]
	if !ok {
		v = nn.ZerosLike(p)
		s.velocities[p] = v
	}
	return v
}

// Velocity returns the velocity buffer for p, or nil before the first momentum step.
func (s *SGD[T]) Velocity(p *nn.Params[T]) *nn.Params[T] {
	return s.velocities[p]
}

// Reset drops all velocity buffers.
func (s *SGD[T]) Reset() {
	clear(s.velocities)
}

// GetLR returns the current learning rate.
func (s *SGD[T]) GetLR() float64 { return s.lr }

// SetLR updates the learning rate.
func (s *SGD[T]) SetLR(lr float64) { s.lr = lr }

// Name returns "sgd".
func (s *SGD[T]) Name() string { return config.OptimizerSGD }
