package optim_test

import (
	"math"
	"testing"

	"github.com/pkg/errors"

	"github.com/born-ml/perceptron/internal/config"
	"github.com/born-ml/perceptron/internal/nn"
	"github.com/born-ml/perceptron/internal/optim"
	"github.com/born-ml/perceptron/internal/tensor"
)

// Helper to check float equality with tolerance.
func floatEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

// scalarParam returns an unbiased store holding the given weights.
func scalarParam(t *testing.T, values ...float64) *nn.Params[float64] {
	t.Helper()
	p, err := nn.FromTensors(tensor.Vector(values...), nil)
	if err != nil {
		t.Fatalf("FromTensors: %v", err)
	}
	return p
}

func gradOf(t *testing.T, values ...float64) *nn.Params[float64] {
	return scalarParam(t, values...)
}

func weight(p *nn.Params[float64], i int) float64 {
	return p.Weights().Values()[i]
}

// TestSGD_SimpleUpdate tests SGD without momentum.
func TestSGD_SimpleUpdate(t *testing.T) {
	param := scalarParam(t, 2.0)
	optimizer := optim.NewSGD[float64](optim.SGDConfig{LR: 0.1})

	if err := optimizer.Step(param, gradOf(t, 1.0)); err != nil {
		t.Fatalf("Step: %v", err)
	}

	// Expected: x_new = x_old - lr * grad = 2.0 - 0.1 * 1.0 = 1.9
	if got := weight(param, 0); !floatEqual(got, 1.9, 1e-12) {
		t.Errorf("SGD update: got %f, want 1.9", got)
	}
}

// TestSGD_WithMomentum tests the damped velocity v = μv + (1-μ)g.
func TestSGD_WithMomentum(t *testing.T) {
	param := scalarParam(t, 1.0)
	optimizer := optim.NewSGD[float64](optim.SGDConfig{LR: 0.1, Momentum: 0.9})

	// Step 1: v = 0.1, x = 1 - 0.1*0.1 = 0.99
	if err := optimizer.Step(param, gradOf(t, 1.0)); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if got := weight(param, 0); !floatEqual(got, 0.99, 1e-12) {
		t.Errorf("SGD momentum step 1: got %f, want 0.99", got)
	}

	// Step 2: v = 0.9*0.1 + 0.1*1 = 0.19, x = 0.99 - 0.019 = 0.971
	if err := optimizer.Step(param, gradOf(t, 1.0)); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if got := weight(param, 0); !floatEqual(got, 0.971, 1e-12) {
		t.Errorf("SGD momentum step 2: got %f, want 0.971", got)
	}
	if v := optimizer.Velocity(param).Weights().Values()[0]; !floatEqual(v, 0.19, 1e-12) {
		t.Errorf("velocity: got %f, want 0.19", v)
	}

	optimizer.Reset()
	if optimizer.Velocity(param) != nil {
		t.Error("Reset should drop velocities")
	}
}

// TestSGD_Decay tests L2 decay with a zero gradient.
func TestSGD_Decay(t *testing.T) {
	param := scalarParam(t, 2.0)
	optimizer := optim.NewSGD[float64](optim.SGDConfig{LR: 0.1, Decay: 0.5})

	// x = 2 - 0.1*(0 + 0.5*2) = 1.9
	if err := optimizer.Step(param, gradOf(t, 0)); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if got := weight(param, 0); !floatEqual(got, 1.9, 1e-12) {
		t.Errorf("SGD decay: got %f, want 1.9", got)
	}
}

// TestSGD_DecayAndMomentum folds decay into the velocity.
func TestSGD_DecayAndMomentum(t *testing.T) {
	param := scalarParam(t, 2.0)
	optimizer := optim.NewSGD[float64](optim.SGDConfig{LR: 0.1, Decay: 0.5, Momentum: 0.5})

	// v = 0.5*0 + 0.5*(1 + 0.5*2) = 1, x = 2 - 0.1*1 = 1.9
	if err := optimizer.Step(param, gradOf(t, 1)); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if got := weight(param, 0); !floatEqual(got, 1.9, 1e-12) {
		t.Errorf("SGD decay+momentum: got %f, want 1.9", got)
	}
}

// TestSGD_BatchDivisor divides the step by the first-axis length of the gradient.
func TestSGD_BatchDivisor(t *testing.T) {
	param := nn.Ones[float64](tensor.Shape{2, 2}, nn.Biased)
	grad := nn.Ones[float64](tensor.Shape{2, 2}, nn.Biased)
	optimizer := optim.NewSGD[float64](optim.SGDConfig{LR: 0.1})

	if err := optimizer.Step(param, grad); err != nil {
		t.Fatalf("Step: %v", err)
	}
	// β = 2: 1 - (0.1/2)*1 = 0.95
	for i, v := range param.Weights().Values() {
		if !floatEqual(v, 0.95, 1e-12) {
			t.Errorf("weights[%d]: got %f, want 0.95", i, v)
		}
	}
	for i, v := range param.Bias().Values() {
		if !floatEqual(v, 0.95, 1e-12) {
			t.Errorf("bias[%d]: got %f, want 0.95", i, v)
		}
	}
}

func TestSGD_ShapeMismatch(t *testing.T) {
	param := scalarParam(t, 1, 2)
	optimizer := optim.NewSGD[float64](optim.SGDConfig{LR: 0.1, Momentum: 0.5})

	err := optimizer.Step(param, gradOf(t, 1, 2, 3))
	if !errors.Is(err, tensor.ErrShapeMismatch) {
		t.Fatalf("expected shape mismatch, got %v", err)
	}
	if weight(param, 0) != 1 || weight(param, 1) != 2 {
		t.Errorf("params changed on error: %v", param.Weights().Values())
	}
}

// TestSGD_GetSetLR tests learning rate getter/setter.
func TestSGD_GetSetLR(t *testing.T) {
	optimizer := optim.NewSGD[float32](optim.SGDConfig{})

	if optimizer.GetLR() != 0.01 {
		t.Errorf("GetLR: got %f, want 0.01", optimizer.GetLR())
	}

	optimizer.SetLR(0.001)
	if optimizer.GetLR() != 0.001 {
		t.Errorf("GetLR after SetLR: got %f, want 0.001", optimizer.GetLR())
	}
	if optimizer.Name() != "sgd" {
		t.Errorf("Name: got %q", optimizer.Name())
	}
}

// TestAdam_FirstStepMagnitude checks that the bias-corrected first update is
// lr·sign(g) regardless of the gradient's scale.
func TestAdam_FirstStepMagnitude(t *testing.T) {
	adam := optim.NewAdam[float64](optim.AdamConfig{})
	state := optim.NewAdamState[float64](tensor.Shape{4})

	update, err := adam.Update(state, tensor.Vector(1.0, -2.0, 5.0, 0.5))
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	want := []float64{-0.001, 0.001, -0.001, -0.001}
	for i, v := range update.Values() {
		if !floatEqual(v, want[i], 1e-6) {
			t.Errorf("update[%d]: got %g, want %g", i, v, want[i])
		}
	}
	if state.T != 1 {
		t.Errorf("timestep: got %d, want 1", state.T)
	}

	ones, err := adam.Update(optim.NewAdamState[float64](tensor.Shape{3}), tensor.Ones[float64](tensor.Shape{3}))
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	for i, v := range ones.Values() {
		if !floatEqual(v, -0.001, 1e-6) {
			t.Errorf("ones update[%d]: got %g, want -0.001", i, v)
		}
	}
}

func TestAdam_UpdateShapeMismatch(t *testing.T) {
	adam := optim.NewAdam[float64](optim.AdamConfig{})
	state := optim.NewAdamState[float64](tensor.Shape{2})

	_, err := adam.Update(state, tensor.Vector(1.0, 2.0, 3.0))
	if !errors.Is(err, tensor.ErrShapeMismatch) {
		t.Fatalf("expected shape mismatch, got %v", err)
	}
	if state.T != 0 {
		t.Errorf("timestep advanced on error: %d", state.T)
	}
}

// TestAdam_SimpleUpdate tests a single Adam step on a store.
func TestAdam_SimpleUpdate(t *testing.T) {
	param := scalarParam(t, 1.0)
	optimizer := optim.NewAdam[float64](optim.AdamConfig{LR: 0.001})

	if err := optimizer.Step(param, gradOf(t, 1.0)); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if got := weight(param, 0); !floatEqual(got, 0.999, 1e-6) {
		t.Errorf("Adam first step: got %f, want 0.999", got)
	}
}

func TestAdam_BiasedStore(t *testing.T) {
	param := nn.Zeros[float64](tensor.Shape{2, 3}, nn.Biased)
	grad := nn.Ones[float64](tensor.Shape{2, 3}, nn.Biased)
	optimizer := optim.NewAdam[float64](optim.AdamConfig{LR: 0.01})

	if err := optimizer.Step(param, grad); err != nil {
		t.Fatalf("Step: %v", err)
	}
	for i, v := range param.Weights().Values() {
		if !floatEqual(v, -0.01, 1e-6) {
			t.Errorf("weights[%d]: got %g, want -0.01", i, v)
		}
	}
	for i, v := range param.Bias().Values() {
		if !floatEqual(v, -0.01, 1e-6) {
			t.Errorf("bias[%d]: got %g, want -0.01", i, v)
		}
	}

	err := optimizer.Step(param, nn.Ones[float64](tensor.Shape{2, 3}, nn.Unbiased))
	if !errors.Is(err, tensor.ErrShapeMismatch) {
		t.Errorf("expected shape mismatch for missing bias, got %v", err)
	}
}

// TestAdam_Timestep tests that the timestep is tracked per store.
func TestAdam_Timestep(t *testing.T) {
	p1 := scalarParam(t, 1.0)
	p2 := scalarParam(t, 1.0)
	optimizer := optim.NewAdam[float64](optim.AdamConfig{})

	if optimizer.GetTimestep(p1) != 0 {
		t.Errorf("Initial timestep: got %d, want 0", optimizer.GetTimestep(p1))
	}
	for i := 1; i <= 5; i++ {
		if err := optimizer.Step(p1, gradOf(t, 0.5)); err != nil {
			t.Fatalf("Step: %v", err)
		}
		if optimizer.GetTimestep(p1) != i {
			t.Errorf("After step %d, timestep: got %d, want %d", i, optimizer.GetTimestep(p1), i)
		}
	}
	if optimizer.GetTimestep(p2) != 0 {
		t.Errorf("untouched store timestep: got %d, want 0", optimizer.GetTimestep(p2))
	}
}

// TestAdamW_DecoupledDecay checks that decay applies even with a zero gradient.
func TestAdamW_DecoupledDecay(t *testing.T) {
	param := scalarParam(t, 1.0)
	optimizer := optim.NewAdam[float64](optim.AdamConfig{WeightDecay: 0.01})

	if optimizer.Name() != "adamw" {
		t.Errorf("Name: got %q, want adamw", optimizer.Name())
	}
	if err := optimizer.Step(param, gradOf(t, 0)); err != nil {
		t.Fatalf("Step: %v", err)
	}
	// 1 - 0.001*0.01*1
	if got := weight(param, 0); !floatEqual(got, 0.99999, 1e-12) {
		t.Errorf("AdamW decay: got %.8f, want 0.99999", got)
	}
}

// TestConvergence_SimpleQuadratic tests optimizer convergence on f(x) = x².
func TestConvergence_SimpleQuadratic(t *testing.T) {
	run := func(t *testing.T, optimizer optim.Optimizer[float64], steps int) {
		param := scalarParam(t, 3.0)
		for i := 0; i < steps; i++ {
			// df/dx = 2x
			if err := optimizer.Step(param, gradOf(t, 2*weight(param, 0))); err != nil {
				t.Fatalf("Step: %v", err)
			}
		}
		if final := weight(param, 0); math.Abs(final) > 0.1 {
			t.Errorf("%s convergence: x = %f, expected close to 0", optimizer.Name(), final)
		}
	}

	t.Run("SGD", func(t *testing.T) {
		run(t, optim.NewSGD[float64](optim.SGDConfig{LR: 0.1}), 100)
	})
	t.Run("SGDMomentum", func(t *testing.T) {
		run(t, optim.NewSGD[float64](optim.SGDConfig{LR: 0.1, Momentum: 0.9}), 300)
	})
	t.Run("Adam", func(t *testing.T) {
		run(t, optim.NewAdam[float64](optim.AdamConfig{LR: 0.1}), 200)
	})
}

// TestMultipleParameters tests one optimizer stepping several stores.
func TestMultipleParameters(t *testing.T) {
	p1 := scalarParam(t, 1.0, 2.0)
	p2 := scalarParam(t, 3.0)
	optimizer := optim.NewSGD[float64](optim.SGDConfig{LR: 0.1, Momentum: 0.5})

	// β = 2 for p1: v = 0.5*g = [1, 2], x = [1, 2] - 0.05*[1, 2] = [0.95, 1.9]
	if err := optimizer.Step(p1, gradOf(t, 2.0, 4.0)); err != nil {
		t.Fatalf("Step: %v", err)
	}
	// β = 1 for p2: v = 0.5*1 = 0.5, x = 3 - 0.05 = 2.95
	if err := optimizer.Step(p2, gradOf(t, 1.0)); err != nil {
		t.Fatalf("Step: %v", err)
	}

	if !floatEqual(weight(p1, 0), 0.95, 1e-12) || !floatEqual(weight(p1, 1), 1.9, 1e-12) {
		t.Errorf("param1: got %v, want [0.95, 1.9]", p1.Weights().Values())
	}
	if !floatEqual(weight(p2, 0), 2.95, 1e-12) {
		t.Errorf("param2: got %f, want 2.95", weight(p2, 0))
	}
}

func TestByName(t *testing.T) {
	cfg := config.Default()
	cfg.Hyperparameters.Insert(config.KeyMomentum, 0.9)

	tests := []struct {
		name   string
		wantLR float64
	}{
		{"sgd", config.DefaultLearningRate},
		{"adam", config.DefaultLearningRate},
		{"adamw", config.DefaultLearningRate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opt, err := optim.ByName[float32](tt.name, cfg)
			if err != nil {
				t.Fatalf("ByName: %v", err)
			}
			if opt.Name() != tt.name {
				t.Errorf("Name: got %q, want %q", opt.Name(), tt.name)
			}
			if opt.GetLR() != tt.wantLR {
				t.Errorf("GetLR: got %g, want %g", opt.GetLR(), tt.wantLR)
			}
		})
	}

	bare := &config.Config{BatchSize: 1}
	adam, err := optim.ByName[float64]("adam", bare)
	if err != nil {
		t.Fatalf("ByName: %v", err)
	}
	if adam.GetLR() != 0.001 {
		t.Errorf("adam default LR: got %g, want 0.001", adam.GetLR())
	}

	if _, err := optim.ByName[float64]("rmsprop", cfg); err == nil {
		t.Error("expected error for unknown optimizer")
	}
}
