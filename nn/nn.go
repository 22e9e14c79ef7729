// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand/v2"

	"github.com/born-ml/perceptron/internal/initializer"
	"github.com/born-ml/perceptron/internal/nn"
	"github.com/born-ml/perceptron/internal/tensor"
)

// Module is anything with a forward pass.
type Module[T tensor.Float] = nn.Module[T]

// Trainable is a Module whose parameters can absorb a delta.
type Trainable[T tensor.Float] = nn.Trainable[T]

// Params is a weight tensor with an optional bias.
type Params[T tensor.Float] = nn.Params[T]

// Kind selects whether a store carries a bias.
type Kind = nn.Kind

// Store kinds.
const (
	Biased   Kind = nn.Biased
	Unbiased Kind = nn.Unbiased
)

// Distribution draws the initial values of a store.
type Distribution = initializer.Distribution

// Parameter stores

// Zeros creates a store with every parameter set to zero.
//
// Example:
//
//	layer := nn.Zeros[float32](tensor.Shape{128, 784}, nn.Biased) // 784 → 128
func Zeros[T tensor.Float](shape tensor.Shape, kind Kind) *Params[T] {
	return nn.Zeros[T](shape, kind)
}

// Ones creates a store with every parameter set to one.
func Ones[T tensor.Float](shape tensor.Shape, kind Kind) *Params[T] {
	return nn.Ones[T](shape, kind)
}

// FromTensors builds a store from existing weights and an optional bias.
// The bias shape must equal the weight shape without its last axis.
func FromTensors[T tensor.Float](weights, bias *tensor.Tensor[T]) (*Params[T], error) {
	return nn.FromTensors(weights, bias)
}

// Random fills a store from d using rng. A nil rng is seeded from entropy.
func Random[T tensor.Float](shape tensor.Shape, kind Kind, d Distribution, rng *rand.Rand) *Params[T] {
	return nn.RandomWith[T](shape, kind, d, rng)
}

// RandomSeeded fills a store from d deterministically.
func RandomSeeded[T tensor.Float](shape tensor.Shape, kind Kind, d Distribution, seed uint64) *Params[T] {
	return nn.RandomSeeded[T](shape, kind, d, seed)
}

// GlorotNormal fills a store from N(0, 2/(fan_in + fan_out)).
func GlorotNormal[T tensor.Float](shape tensor.Shape, kind Kind, rng *rand.Rand) (*Params[T], error) {
	return nn.GlorotNormal[T](shape, kind, rng)
}

// GlorotUniform fills a store from U(±√(6/(fan_in + fan_out))).
func GlorotUniform[T tensor.Float](shape tensor.Shape, kind Kind, rng *rand.Rand) (*Params[T], error) {
	return nn.GlorotUniform[T](shape, kind, rng)
}

// LecunNormal fills a store from N(0, 1/fan_in).
func LecunNormal[T tensor.Float](shape tensor.Shape, kind Kind, rng *rand.Rand) (*Params[T], error) {
	return nn.LecunNormal[T](shape, kind, rng)
}

// BiasShape returns the bias shape matching a weight shape.
func BiasShape(weights tensor.Shape) tensor.Shape {
	return nn.BiasShape(weights)
}

// Activations

// Activation is an elementwise function symbol with a known derivative.
type Activation = nn.Activation

// Linear returns the identity activation.
func Linear() Activation { return nn.Linear() }

// Heavyside returns the unit step activation.
func Heavyside() Activation { return nn.Heavyside() }

// ReLU returns the rectified linear activation.
func ReLU() Activation { return nn.ReLU() }

// Sigmoid returns the logistic activation.
func Sigmoid() Activation { return nn.Sigmoid() }

// Tanh returns the hyperbolic tangent activation.
func Tanh() Activation { return nn.Tanh() }

// Softmax returns softmax over all elements.
func Softmax() Activation { return nn.Softmax() }

// SoftmaxAxis returns softmax along axis.
func SoftmaxAxis(axis int) Activation { return nn.SoftmaxAxis(axis) }

// ParseActivation parses a name such as "relu" or "softmax_axis(1)".
func ParseActivation(name string) (Activation, error) {
	return nn.ParseActivation(name)
}

// Apply evaluates a on x.
//
// Example:
//
//	y := nn.Apply(nn.Sigmoid(), x)
func Apply[T tensor.Float](a Activation, x *tensor.Tensor[T]) *tensor.Tensor[T] {
	return nn.Apply(a, x)
}

// Derivative evaluates the derivative of a at the pre-activation x.
func Derivative[T tensor.Float](a Activation, x *tensor.Tensor[T]) *tensor.Tensor[T] {
	return nn.Derivative(a, x)
}

// DerivativeFromOutput evaluates the derivative of a given its output y.
func DerivativeFromOutput[T tensor.Float](a Activation, y *tensor.Tensor[T]) *tensor.Tensor[T] {
	return nn.DerivativeFromOutput(a, y)
}

// ActivationFunc returns a as a closure for Params.ForwardThen.
func ActivationFunc[T tensor.Float](a Activation) func(*tensor.Tensor[T]) *tensor.Tensor[T] {
	return nn.ActivationFunc[T](a)
}

// Models

// ModelFeatures holds the layer widths of an MLP.
type ModelFeatures = nn.ModelFeatures

// ModelParams holds the input, hidden and output stores of an MLP.
type ModelParams[T tensor.Float] = nn.ModelParams[T]

// NamedTensor is one entry of a state dict.
type NamedTensor[T tensor.Float] = nn.NamedTensor[T]

// Shallow describes an MLP with one hidden layer.
func Shallow(input, hidden, output int) ModelFeatures {
	return nn.Shallow(input, hidden, output)
}

// Deep describes an MLP with the given number of hidden layers.
func Deep(input, hidden, output, layers int) ModelFeatures {
	return nn.Deep(input, hidden, output, layers)
}

// ZerosModel creates model parameters set to zero.
func ZerosModel[T tensor.Float](f ModelFeatures) (*ModelParams[T], error) {
	return nn.ZerosModel[T](f)
}

// GlorotUniformModel creates model parameters with Glorot uniform initialisation.
func GlorotUniformModel[T tensor.Float](f ModelFeatures, rng *rand.Rand) (*ModelParams[T], error) {
	return nn.GlorotUniformModel[T](f, rng)
}

// GlorotNormalModel creates model parameters with Glorot normal initialisation.
func GlorotNormalModel[T tensor.Float](f ModelFeatures, rng *rand.Rand) (*ModelParams[T], error) {
	return nn.GlorotNormalModel[T](f, rng)
}
