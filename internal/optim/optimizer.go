// Package optim implements optimization algorithms for perceptron parameter stores.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with momentum and L2 decay
//   - Adam: Adaptive Moment Estimation, with decoupled weight decay (AdamW)
//
// Gradients passed to Step are loss gradients: optimizers move parameters
// against them.
//
// Example usage:
//
//	opt := optim.NewAdam[float64](optim.AdamConfig{LR: 0.001})
//
//	for epoch := range epochs {
//	    g, _ := layer.Gradients(x, delta)
//	    _ = opt.Step(layer, g.Scale(-1))
//	}
package optim

import (
	"github.com/pkg/errors"

	"github.com/born-ml/perceptron/internal/config"
	"github.com/born-ml/perceptron/internal/nn"
	"github.com/born-ml/perceptron/internal/tensor"
)

// Optimizer is the base interface for all optimization algorithms.
//
// Optimizers keep per-store state (velocities, moments) keyed by the
// *nn.Params they are stepped with, so one optimizer serves a whole model.
type Optimizer[T tensor.Float] interface {
	// Step moves p against grad. grad must have the same structure as p.
	// p is untouched when an error is returned.
	Step(p, grad *nn.Params[T]) error

	// GetLR returns the current learning rate.
	GetLR() float64

	// SetLR updates the learning rate, e.g. for scheduling.
	SetLR(lr float64)

	// Name returns the registry name ("sgd", "adam", "adamw").
	Name() string
}

// ByName builds the optimizer named by name from the hyperparameters in cfg.
//
//	sgd:   learning_rate, momentum, decay (or weight_decay)
//	adam:  learning_rate (default 0.001)
//	adamw: learning_rate (default 0.001), weight_decay (default 0.01)
func ByName[T tensor.Float](name string, cfg *config.Config) (Optimizer[T], error) {
	if cfg == nil {
		cfg = config.Default()
	}
	hp := cfg.Hyperparameters
	switch name {
	case config.OptimizerSGD:
		return NewSGD[T](SGDConfig{
			LR:       cfg.LearningRate(),
			Momentum: cfg.Momentum(),
			Decay:    cfg.Decay(),
		}), nil
	case config.OptimizerAdam:
		return NewAdam[T](AdamConfig{
			LR: hp.GetOr(config.KeyLearningRate, defaultAdamLR),
		}), nil
	case config.OptimizerAdamW:
		return NewAdam[T](AdamConfig{
			LR:          hp.GetOr(config.KeyLearningRate, defaultAdamLR),
			WeightDecay: hp.GetOr(config.KeyWeightDecay, defaultAdamWDecay),
		}), nil
	}
	return nil, errors.Errorf("unknown optimizer %q", name)
}
