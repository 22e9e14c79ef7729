// Package config loads training configuration from YAML.
package config

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is the sentinel wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// DefaultLearningRate is returned by LearningRate when no value is configured.
const DefaultLearningRate = 0.01

// Optimizer names accepted in configuration.
const (
	OptimizerNone  = ""
	OptimizerSGD   = "sgd"
	OptimizerAdam  = "adam"
	OptimizerAdamW = "adamw"
)

// Config holds the training settings for a perceptron run.
type Config struct {
	BatchSize       int              `yaml:"batch_size" json:"batch_size"`
	Epochs          int              `yaml:"epochs" json:"epochs"`
	Seed            uint64           `yaml:"seed,omitempty" json:"seed,omitempty"`
	Init            string           `yaml:"init,omitempty" json:"init,omitempty"`
	Optimizer       string           `yaml:"optimizer,omitempty" json:"optimizer,omitempty"`
	Hyperparameters *Hyperparameters `yaml:"hyperparameters,omitempty" json:"hyperparameters,omitempty"`
}

// Overrides captures command-line overrides; zero values leave the field untouched.
type Overrides struct {
	BatchSize    int
	Epochs       int
	Seed         uint64
	Init         string
	Optimizer    string
	LearningRate float64
}

// Default returns a configuration that trains one full-batch epoch.
func Default() *Config {
	return &Config{
		BatchSize:       1,
		Epochs:          1,
		Init:            "glorot_uniform",
		Hyperparameters: NewHyperparameters(Pair{KeyLearningRate, DefaultLearningRate}),
	}
}

// Load reads a YAML config from disk and validates it.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open config")
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return cfg, nil
}

// Parse decodes YAML from r over Default and validates the result.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Marshal encodes cfg as YAML.
func (c *Config) Marshal() ([]byte, error) {
	out, err := yaml.Marshal(c)
	return out, errors.Wrap(err, "marshal config")
}

// ApplyOverrides copies the non-zero override values onto c.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.BatchSize > 0 {
		c.BatchSize = o.BatchSize
	}
	if o.Epochs > 0 {
		c.Epochs = o.Epochs
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.Init != "" {
		c.Init = o.Init
	}
	if o.Optimizer != "" {
		c.Optimizer = o.Optimizer
	}
	if o.LearningRate > 0 {
		c.hyper().Insert(KeyLearningRate, o.LearningRate)
	}
}

// Validate fills defaults and checks that every field is usable.
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return errors.Wrapf(ErrInvalid, "batch_size must be positive, got %d", c.BatchSize)
	}
	if c.Epochs < 0 {
		return errors.Wrapf(ErrInvalid, "epochs must be non-negative, got %d", c.Epochs)
	}
	c.Optimizer = strings.ToLower(strings.TrimSpace(c.Optimizer))
	switch c.Optimizer {
	case OptimizerNone, OptimizerSGD, OptimizerAdam, OptimizerAdamW:
	default:
		return errors.Wrapf(ErrInvalid, "unknown optimizer %q", c.Optimizer)
	}

	hp := c.hyper()
	if lr, ok := hp.Get(KeyLearningRate); ok && lr <= 0 {
		return errors.Wrapf(ErrInvalid, "learning_rate must be positive, got %g", lr)
	}
	if mu, ok := hp.Get(KeyMomentum); ok && (mu < 0 || mu >= 1) {
		return errors.Wrapf(ErrInvalid, "momentum must be in [0, 1), got %g", mu)
	}
	for _, key := range []string{KeyDecay, KeyWeightDecay} {
		if v, ok := hp.Get(key); ok && v < 0 {
			return errors.Wrapf(ErrInvalid, "%s must be non-negative, got %g", key, v)
		}
	}
	return nil
}

func (c *Config) hyper() *Hyperparameters {
	if c.Hyperparameters == nil {
		c.Hyperparameters = &Hyperparameters{}
	}
	return c.Hyperparameters
}

// LearningRate returns the configured learning rate or DefaultLearningRate.
func (c *Config) LearningRate() float64 {
	return c.Hyperparameters.GetOr(KeyLearningRate, DefaultLearningRate)
}

// Momentum returns the configured momentum, 0 when unset.
func (c *Config) Momentum() float64 {
	return c.Hyperparameters.GetOr(KeyMomentum, 0)
}

// Decay returns the L2 coefficient, falling back to weight_decay.
func (c *Config) Decay() float64 {
	if v, ok := c.Hyperparameters.Get(KeyDecay); ok {
		return v
	}
	return c.WeightDecay()
}

// WeightDecay returns the configured weight_decay, 0 when unset.
func (c *Config) WeightDecay() float64 {
	return c.Hyperparameters.GetOr(KeyWeightDecay, 0)
}
