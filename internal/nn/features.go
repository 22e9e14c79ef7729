package nn

import (
	"fmt"

	"github.com/pkg/errors"
)

// ModelFeatures describes the layer widths of a multi-layer perceptron.
//
// Layers counts the hidden-to-hidden stores; zero layers connects the input
// store straight to the output store.
type ModelFeatures struct {
	Input  int `json:"input" yaml:"input"`
	Hidden int `json:"hidden" yaml:"hidden"`
	Output int `json:"output" yaml:"output"`
	Layers int `json:"layers" yaml:"layers"`
}

// NewFeatures returns features with the given widths and hidden layer count.
func NewFeatures(input, hidden, output, layers int) ModelFeatures {
	return ModelFeatures{Input: input, Hidden: hidden, Output: output, Layers: layers}
}

// Shallow returns features with a single hidden layer.
func Shallow(input, hidden, output int) ModelFeatures {
	return NewFeatures(input, hidden, output, 1)
}

// Deep returns features with the given number of hidden layers.
func Deep(input, hidden, output, layers int) ModelFeatures {
	return NewFeatures(input, hidden, output, layers)
}

// WithInput returns a copy with the input width replaced.
func (f ModelFeatures) WithInput(n int) ModelFeatures { f.Input = n; return f }

// WithHidden returns a copy with the hidden width replaced.
func (f ModelFeatures) WithHidden(n int) ModelFeatures { f.Hidden = n; return f }

// WithOutput returns a copy with the output width replaced.
func (f ModelFeatures) WithOutput(n int) ModelFeatures { f.Output = n; return f }

// WithLayers returns a copy with the hidden layer count replaced.
func (f ModelFeatures) WithLayers(n int) ModelFeatures { f.Layers = n; return f }

// Size returns the number of weights, ignoring bias:
// input·hidden + hidden²·layers + hidden·output.
func (f ModelFeatures) Size() int {
	return f.Input*f.Hidden + f.Hidden*f.Hidden*f.Layers + f.Hidden*f.Output
}

// DimInput returns (fan_in, fan_out) of the input store.
func (f ModelFeatures) DimInput() (int, int) { return f.Input, f.Hidden }

// DimHidden returns (fan_in, fan_out) of each hidden store.
func (f ModelFeatures) DimHidden() (int, int) { return f.Hidden, f.Hidden }

// DimOutput returns (fan_in, fan_out) of the output store.
func (f ModelFeatures) DimOutput() (int, int) { return f.Hidden, f.Output }

// IsShallow reports whether at most one hidden layer is configured.
func (f ModelFeatures) IsShallow() bool { return f.Layers <= 1 }

// IsDeep reports whether more than one hidden layer is configured.
func (f ModelFeatures) IsDeep() bool { return f.Layers > 1 }

// Validate checks that every width is positive and the layer count non-negative.
func (f ModelFeatures) Validate() error {
	if f.Input <= 0 || f.Hidden <= 0 || f.Output <= 0 {
		return errors.Errorf("invalid model features %v: widths must be positive", f)
	}
	if f.Layers < 0 {
		return errors.Errorf("invalid model features %v: layers must be non-negative", f)
	}
	return nil
}

// String implements fmt.Stringer.
func (f ModelFeatures) String() string {
	return fmt.Sprintf("{input: %d, hidden: %d, output: %d, layers: %d}", f.Input, f.Hidden, f.Output, f.Layers)
}
