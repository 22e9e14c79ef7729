// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package model provides the reference multi-layer perceptron.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/perceptron/model"
//	    "github.com/born-ml/perceptron/nn"
//	)
//
//	func main() {
//	    cfg := model.DefaultConfig()
//	    cfg.Epochs = 100
//
//	    m, err := model.New[float32](nn.Shallow(4, 8, 3), cfg, model.WithSeed(42))
//	    if err != nil {
//	        panic(err)
//	    }
//	    losses, err := m.Fit(x, y)
//	    if err != nil {
//	        panic(err)
//	    }
//	    _ = m.Save("iris.born", model.SaveOptions{})
//	}
package model

import (
	"github.com/born-ml/perceptron/internal/config"
	"github.com/born-ml/perceptron/internal/model"
	"github.com/born-ml/perceptron/internal/nn"
	"github.com/born-ml/perceptron/internal/tensor"
)

// MLP is the reference multi-layer perceptron.
type MLP[T tensor.Float] = model.MLP[T]

// Config is the training configuration.
type Config = config.Config

// Hyperparameters is the ordered hyperparameter map of a Config.
type Hyperparameters = config.Hyperparameters

// Option configures New.
type Option = model.Option

// Init selects how a new model's parameters are filled.
type Init = model.Init

// Parameter initialisations.
const (
	InitGlorotUniform = model.InitGlorotUniform
	InitGlorotNormal  = model.InitGlorotNormal
	InitZeros         = model.InitZeros
	InitOnes          = model.InitOnes
	InitLecunNormal   = model.InitLecunNormal
	InitNormal        = model.InitNormal
	InitUniform       = model.InitUniform
)

// SaveOptions configures MLP.Save.
type SaveOptions = model.SaveOptions

// EpochHook observes the mean loss of each epoch during Fit.
type EpochHook[T tensor.Float] = model.EpochHook[T]

// Training errors.
var (
	ErrInvalidBatchSize   = model.ErrInvalidBatchSize
	ErrInvalidInputShape  = model.ErrInvalidInputShape
	ErrInvalidOutputShape = model.ErrInvalidOutputShape
)

// DefaultConfig returns a batch size of 1, one epoch and a learning rate of 0.01.
func DefaultConfig() *Config {
	return config.Default()
}

// LoadConfig reads a YAML training configuration.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// New builds an MLP for f trained according to cfg. A nil cfg means DefaultConfig().
func New[T tensor.Float](f nn.ModelFeatures, cfg *Config, opts ...Option) (*MLP[T], error) {
	return model.New[T](f, cfg, opts...)
}

// FromParams wraps existing parameters.
func FromParams[T tensor.Float](params *nn.ModelParams[T], cfg *Config) (*MLP[T], error) {
	return model.FromParams(params, cfg)
}

// WithInit overrides the initialisation named in the config.
func WithInit(i Init) Option {
	return model.WithInit(i)
}

// WithSeed makes random initialisation deterministic.
func WithSeed(seed uint64) Option {
	return model.WithSeed(seed)
}

// Load reads a checkpoint written by MLP.Save.
func Load[T tensor.Float](path string) (*MLP[T], error) {
	return model.Load[T](path)
}

// IsFinite reports whether a loss is usable.
func IsFinite[T tensor.Float](loss T) bool {
	return model.IsFinite(loss)
}
