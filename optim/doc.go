// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms for parameter stores.
//
// # Overview
//
// This package contains:
//   - SGD: Stochastic Gradient Descent with momentum and L2 decay
//   - Adam: Adaptive Moment Estimation with bias correction
//   - AdamW: Adam with decoupled weight decay
//   - Optimizer interface for custom optimizers
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/perceptron/nn"
//	    "github.com/born-ml/perceptron/optim"
//	    "github.com/born-ml/perceptron/tensor"
//	)
//
//	func main() {
//	    layer := nn.Zeros[float64](tensor.Shape{2, 3}, nn.Biased)
//	    optimizer := optim.NewAdam[float64](optim.AdamConfig{LR: 0.001})
//
//	    for range 10 {
//	        g, _ := layer.Gradients(x, delta)
//	        _ = optimizer.Step(layer, g.Scale(-1))
//	    }
//	}
//
// # Optimizers
//
// SGD (Stochastic Gradient Descent):
//
//	optimizer := optim.NewSGD[float32](optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
//
// Adam (Adaptive Moment Estimation):
//
//	optimizer := optim.NewAdam[float32](optim.AdamConfig{
//	    LR:    0.001,
//	    Betas: [2]float64{0.9, 0.999},
//	    Eps:   1e-8,
//	})
//
// Step expects loss gradients. Params.Gradients returns the ascent direction
// used by Params.Backward, so negate it before stepping.
package optim
