// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides parameter stores, activations and the engines that run them.
//
// # Overview
//
// This package contains:
//   - Params: a weight tensor with an optional bias, the unit of every layer
//   - Activations: Linear, Heavyside, ReLU, Sigmoid, Tanh, Softmax
//   - ModelFeatures and ModelParams: the input, hidden and output stores of an MLP
//   - Initialisation: constant, Glorot, LeCun and distribution-backed stores
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/perceptron/nn"
//	    "github.com/born-ml/perceptron/tensor"
//	)
//
//	func main() {
//	    layer, _ := nn.GlorotUniform[float64](tensor.Shape{4, 3}, nn.Biased, nil)
//	    x := tensor.Vector(1.0, 2.0, 3.0)
//
//	    y, _ := layer.ForwardThen(x, nn.ActivationFunc[float64](nn.ReLU()))
//	    delta := tensor.Ones[float64](y.Shape())
//	    _, _ = layer.Backward(x, delta, 0.01)
//	}
//
// Backward adds (lr/β)·gradient to the parameters, where β is the first-axis
// length of the delta. Pass a negative rate to descend a loss gradient.
package nn
