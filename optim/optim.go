// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/born-ml/perceptron/internal/config"
	"github.com/born-ml/perceptron/internal/optim"
	"github.com/born-ml/perceptron/internal/tensor"
)

// Optimizer interface defines the common interface for all optimizers.
type Optimizer[T tensor.Float] = optim.Optimizer[T]

// Config is the training configuration optimizers read hyperparameters from.
type Config = config.Config

// SGD (Stochastic Gradient Descent)

// SGD represents the SGD optimizer with optional momentum and decay.
type SGD[T tensor.Float] = optim.SGD[T]

// SGDConfig contains configuration for SGD optimizer.
type SGDConfig = optim.SGDConfig

// NewSGD creates a new SGD optimizer.
//
// Example:
//
//	optimizer := optim.NewSGD[float32](optim.SGDConfig{LR: 0.01, Momentum: 0.9})
func NewSGD[T tensor.Float](cfg SGDConfig) *SGD[T] {
	return optim.NewSGD[T](cfg)
}

// Adam (Adaptive Moment Estimation)

// Adam represents the Adam optimizer.
type Adam[T tensor.Float] = optim.Adam[T]

// AdamConfig contains configuration for Adam optimizer.
type AdamConfig = optim.AdamConfig

// AdamState is the moment state of a single tensor.
type AdamState[T tensor.Float] = optim.AdamState[T]

// NewAdam creates a new Adam optimizer with bias correction.
// A positive WeightDecay turns it into AdamW.
func NewAdam[T tensor.Float](cfg AdamConfig) *Adam[T] {
	return optim.NewAdam[T](cfg)
}

// NewAdamState returns zero moments for a tensor of the given shape.
func NewAdamState[T tensor.Float](shape tensor.Shape) *AdamState[T] {
	return optim.NewAdamState[T](shape)
}

// ByName builds the optimizer named "sgd", "adam" or "adamw" from cfg.
func ByName[T tensor.Float](name string, cfg *Config) (Optimizer[T], error) {
	return optim.ByName[T](name, cfg)
}
