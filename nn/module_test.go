// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"testing"

	"github.com/born-ml/perceptron/nn"
	"github.com/born-ml/perceptron/tensor"
)

// TestModuleInterface verifies that stores implement the Trainable interface.
func TestModuleInterface(t *testing.T) {
	tests := []struct {
		name  string
		layer nn.Trainable[float64]
		x     *tensor.Tensor[float64]
		want  tensor.Shape
	}{
		{
			name:  "Biased",
			layer: nn.Ones[float64](tensor.Shape{3, 2}, nn.Biased),
			x:     tensor.Vector(1.0, 1.0),
			want:  tensor.Shape{3},
		},
		{
			name:  "UnbiasedBatch",
			layer: nn.Zeros[float64](tensor.Shape{3, 2}, nn.Unbiased),
			x:     tensor.Ones[float64](tensor.Shape{4, 2}),
			want:  tensor.Shape{4, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y, err := tt.layer.Forward(tt.x)
			if err != nil {
				t.Fatalf("Forward failed: %v", err)
			}
			if !y.Shape().Equal(tt.want) {
				t.Errorf("Forward shape = %v, want %v", y.Shape(), tt.want)
			}

			if _, err := tt.layer.Backward(tt.x, tensor.Ones[float64](tt.want), 0.1); err != nil {
				t.Errorf("Backward failed: %v", err)
			}
		})
	}
}

// TestActivationRoundTrip verifies activation names parse back to themselves.
func TestActivationRoundTrip(t *testing.T) {
	for _, a := range []nn.Activation{nn.Linear(), nn.Heavyside(), nn.ReLU(), nn.Sigmoid(), nn.Tanh(), nn.Softmax(), nn.SoftmaxAxis(1)} {
		got, err := nn.ParseActivation(a.String())
		if err != nil {
			t.Fatalf("ParseActivation(%q) failed: %v", a, err)
		}
		if got != a {
			t.Errorf("ParseActivation(%q) = %v", a, got)
		}
	}

	y := nn.Apply(nn.Sigmoid(), tensor.Vector(0.0))
	if d := nn.DerivativeFromOutput(nn.Sigmoid(), y).Item(); d != 0.25 {
		t.Errorf("sigmoid'(0) = %v, want 0.25", d)
	}
}

// TestModelStateDict verifies the naming of model tensors.
func TestModelStateDict(t *testing.T) {
	m, err := nn.ZerosModel[float32](nn.Shallow(3, 4, 2))
	if err != nil {
		t.Fatalf("ZerosModel failed: %v", err)
	}
	want := []string{"input.bias", "input.weights", "hidden.0.bias", "hidden.0.weights", "output.bias", "output.weights"}
	got := m.StateDict()
	if len(got) != len(want) {
		t.Fatalf("StateDict has %d entries, want %d", len(got), len(want))
	}
	for i, e := range got {
		if e.Name != want[i] {
			t.Errorf("entry %d = %q, want %q", i, e.Name, want[i])
		}
	}
}
