package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/perceptron/internal/tensor"
)

func TestScalarActivations(t *testing.T) {
	assert.Equal(t, 0.5, SigmoidFn(0.0))
	assert.Equal(t, 0.25, SigmoidDerivative(0.0))
	assert.Equal(t, 0.0, TanhFn(0.0))
	assert.Equal(t, 1.0, TanhDerivative(0.0))
	assert.Equal(t, 0.0, ReLUFn(-1.0))
	assert.Equal(t, 0.0, ReLUDerivative(-1.0))

	assert.Equal(t, float32(2), ReLUFn[float32](2))
	assert.Equal(t, float32(0), ReLUDerivative[float32](0), "relu derivative at zero")
	assert.Equal(t, 1.0, HeavysideFn(0.1))
	assert.Equal(t, 0.0, HeavysideFn(0.0))
	assert.Equal(t, 0.0, HeavysideDerivative(3.0))
	assert.Equal(t, -4.0, LinearFn(-4.0))
	assert.Equal(t, 1.0, LinearDerivative(-4.0))
}

func TestReLU_Idempotent(t *testing.T) {
	x := tensor.Vector(-3, -0.5, 0, 0.5, 3, math.MaxFloat64)

	once := Apply(ReLU(), x)
	twice := Apply(ReLU(), once)

	assert.Equal(t, once.Values(), twice.Values())
	assert.Equal(t, []float64{0, 0, 0, 0.5, 3, math.MaxFloat64}, once.Values())
}

func TestSoftmax_SumsToOne(t *testing.T) {
	inputs := [][]float64{
		{1, 2, 3},
		{0, 0, 0, 0},
		{-50, 0, 50},
		{1000, 1001, 999},
	}
	for _, in := range inputs {
		s := Apply(Softmax(), tensor.Vector(in...))
		require.True(t, s.AllFinite(), "input %v", in)
		assert.InDelta(t, 1.0, s.Sum(), 1e-6, "input %v", in)
	}

	s32 := Apply(Softmax(), tensor.Vector[float32](0.1, 0.2, 0.7, -3))
	assert.InDelta(t, 1.0, float64(s32.Sum()), 1e-6)
}

func TestSoftmax_OverAllElements(t *testing.T) {
	m, err := tensor.FromRows([][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)

	s := Apply(Softmax(), m)
	assert.InDelta(t, 1.0, s.Sum(), 1e-12)
	assert.Greater(t, s.At(1, 1), s.At(0, 0))
}

func TestSoftmaxAxis(t *testing.T) {
	m, err := tensor.FromRows([][]float64{{1, 2, 3}, {1, 1, 1}})
	require.NoError(t, err)

	rows := Apply(SoftmaxAxis(1), m)
	assertShape(t, tensor.Shape{2, 3}, rows.Shape())
	for _, s := range rows.SumAxis(1).Values() {
		assert.InDelta(t, 1.0, s, 1e-12)
	}
	assert.InDelta(t, 1.0/3, rows.At(1, 0), 1e-12)

	cols := Apply(SoftmaxAxis(0), m)
	for _, s := range cols.SumAxis(0).Values() {
		assert.InDelta(t, 1.0, s, 1e-12)
	}
	assert.InDelta(t, 0.5, cols.At(0, 0), 1e-12)

	last := Apply(SoftmaxAxis(-1), m)
	assert.Equal(t, rows.Values(), last.Values())

	assert.Panics(t, func() { Apply(SoftmaxAxis(2), m) })
}

func TestDerivativeFromOutput_MatchesDerivative(t *testing.T) {
	x := tensor.Vector(-2, -0.5, 0, 0.5, 2)

	for _, a := range []Activation{Linear(), Heavyside(), ReLU(), Sigmoid(), Tanh()} {
		t.Run(a.String(), func(t *testing.T) {
			fromX := Derivative(a, x)
			fromY := DerivativeFromOutput(a, Apply(a, x))
			assert.True(t, fromX.AllClose(fromY, 1e-12), "%v vs %v", fromX, fromY)
		})
	}
}

func TestSoftmaxDerivative(t *testing.T) {
	x := tensor.Vector(1.0, 2.0)
	s := Apply(Softmax(), x)
	d := Derivative(Softmax(), x)

	for i, v := range s.Values() {
		assert.InDelta(t, v*(1-v), d.At(i), 1e-12)
	}
}

func TestActivationFunc(t *testing.T) {
	f := ActivationFunc[float64](Sigmoid())
	assert.Equal(t, []float64{0.5}, f(tensor.Vector(0.0)).Values())
}

func TestParseActivation(t *testing.T) {
	for _, a := range []Activation{Linear(), Heavyside(), ReLU(), Sigmoid(), Tanh(), Softmax(), SoftmaxAxis(1), SoftmaxAxis(-1)} {
		parsed, err := ParseActivation(a.String())
		require.NoError(t, err, a.String())
		assert.Equal(t, a, parsed)
	}

	parsed, err := ParseActivation(" ReLU ")
	require.NoError(t, err)
	assert.Equal(t, ReLU(), parsed)

	_, err = ParseActivation("gelu")
	assert.Error(t, err)
	_, err = ParseActivation("softmax_axis(x)")
	assert.Error(t, err)
}
