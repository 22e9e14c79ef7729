package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/perceptron/internal/initializer"
	"github.com/born-ml/perceptron/internal/tensor"
)

func TestModelFeatures(t *testing.T) {
	f := NewFeatures(3, 4, 2, 2)

	assert.Equal(t, 3*4+4*4*2+4*2, f.Size())
	in, out := f.DimInput()
	assert.Equal(t, [2]int{3, 4}, [2]int{in, out})
	in, out = f.DimHidden()
	assert.Equal(t, [2]int{4, 4}, [2]int{in, out})
	in, out = f.DimOutput()
	assert.Equal(t, [2]int{4, 2}, [2]int{in, out})
	assert.True(t, f.IsDeep())
	assert.False(t, Shallow(3, 4, 2).IsDeep())
	assert.Equal(t, 1, Shallow(3, 4, 2).Layers)
	assert.Equal(t, Deep(3, 4, 2, 5), f.WithLayers(5))
	assert.Equal(t, NewFeatures(9, 8, 7, 2), f.WithInput(9).WithHidden(8).WithOutput(7))
	assert.Equal(t, "{input: 3, hidden: 4, output: 2, layers: 2}", f.String())

	require.NoError(t, f.Validate())
	assert.Error(t, f.WithHidden(0).Validate())
	assert.Error(t, f.WithLayers(-1).Validate())
	assert.NoError(t, f.WithLayers(0).Validate())
}

func TestZerosModel_Shapes(t *testing.T) {
	m, err := ZerosModel[float32](NewFeatures(3, 4, 2, 2))
	require.NoError(t, err)

	assertShape(t, tensor.Shape{4, 3}, m.Input().Shape())
	for _, h := range m.Hidden() {
		assertShape(t, tensor.Shape{4, 4}, h.Shape())
	}
	assertShape(t, tensor.Shape{2, 4}, m.Output().Shape())
	assertShape(t, tensor.Shape{2}, m.Output().Bias().Shape())

	assert.Equal(t, 2, m.CountHidden())
	assert.Equal(t, 4, m.Len())
	assert.True(t, m.IsDeep())
	assert.False(t, m.IsShallow())
	assert.Equal(t, m.Features().Size(), m.Size())
}

func TestModel_InvalidFeatures(t *testing.T) {
	_, err := OnesModel[float32](NewFeatures(0, 4, 2, 1))
	assert.Error(t, err)
}

func TestModel_Indexing(t *testing.T) {
	m, err := DefaultModel[float64](NewFeatures(2, 3, 1, 3))
	require.NoError(t, err)
	n := m.Len()

	assert.Same(t, m.Input(), m.At(0))
	assert.Same(t, m.Output(), m.At(n-1))
	for i := 1; i < n-1; i++ {
		assert.Same(t, m.Hidden()[i-1], m.At(i))
	}
	assert.Panics(t, func() { m.At(n) })
	assert.Panics(t, func() { m.At(-1) })

	layers := m.Layers()
	require.Len(t, layers, n)
	for i, p := range layers {
		assert.Same(t, m.At(i), p)
	}
}

func TestModel_HiddenAsSliceIsCopy(t *testing.T) {
	m, err := ZerosModel[float64](NewFeatures(2, 3, 1, 2))
	require.NoError(t, err)

	s := m.HiddenAsSlice()
	s[0] = nil
	assert.NotNil(t, m.Hidden()[0])
}

func TestModel_Forward(t *testing.T) {
	m, err := OnesModel[float64](NewFeatures(2, 3, 1, 1))
	require.NoError(t, err)

	y, err := m.Forward(tensor.Vector(1.0, 1.0))
	require.NoError(t, err)
	// input: 2+1 = 3 per unit; hidden: 9+1 = 10; output: 30+1 = 31.
	assert.Equal(t, []float64{31}, y.Values())

	_, err = m.Forward(tensor.Vector(1.0))
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
}

func TestGlorotModels_Seeded(t *testing.T) {
	f := NewFeatures(3, 5, 2, 1)

	a, err := GlorotNormalModel[float64](f, initializer.NewRNG(21))
	require.NoError(t, err)
	b, err := GlorotNormalModel[float64](f, initializer.NewRNG(21))
	require.NoError(t, err)
	assert.Equal(t, a.Input().Weights().Values(), b.Input().Weights().Values())
	assert.Equal(t, a.Output().Bias().Values(), b.Output().Bias().Values())

	u, err := GlorotUniformModel[float64](f, initializer.NewRNG(21))
	require.NoError(t, err)
	bound := initializer.XavierUniform{FanIn: 3, FanOut: 5}.Bound()
	assert.LessOrEqual(t, u.Input().Weights().Max(), bound)
	assert.GreaterOrEqual(t, u.Input().Weights().Min(), -bound)
}

func TestInitRand_FactoryReceivesWeightShape(t *testing.T) {
	var calls [][2]int
	_, err := InitRand[float32](NewFeatures(2, 3, 1, 1), func(rows, cols int) initializer.Distribution {
		calls = append(calls, [2]int{rows, cols})
		return initializer.Constant{Value: float64(rows*10 + cols)}
	}, initializer.NewRNG(0))
	require.NoError(t, err)

	assert.Equal(t, [][2]int{{3, 2}, {3, 3}, {1, 3}}, calls)
}

func TestInitRand_NilDistribution(t *testing.T) {
	_, err := InitRand[float32](NewFeatures(2, 3, 1, 1), func(int, int) initializer.Distribution {
		return nil
	}, nil)
	assert.Error(t, err)
}

func TestStateDict_Order(t *testing.T) {
	m, err := ZerosModel[float32](NewFeatures(2, 3, 1, 2))
	require.NoError(t, err)

	var names []string
	for _, e := range m.StateDict() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{
		"input.bias", "input.weights",
		"hidden.0.bias", "hidden.0.weights",
		"hidden.1.bias", "hidden.1.weights",
		"output.bias", "output.weights",
	}, names)
}

func TestLoadStateDict(t *testing.T) {
	f := NewFeatures(2, 3, 1, 1)
	src, err := GlorotUniformModel[float64](f, initializer.NewRNG(1))
	require.NoError(t, err)
	dst, err := ZerosModel[float64](f)
	require.NoError(t, err)

	require.NoError(t, dst.LoadStateDict(src.StateDict()))

	for i := 0; i < src.Len(); i++ {
		assert.Equal(t, src.At(i).Weights().Values(), dst.At(i).Weights().Values())
		assert.Equal(t, src.At(i).Bias().Values(), dst.At(i).Bias().Values())
	}

	dst.Input().Weights().Set(100, 0, 0)
	assert.NotEqual(t, 100.0, src.Input().Weights().At(0, 0), "load copies values")
}

func TestLoadStateDict_Errors(t *testing.T) {
	m, err := OnesModel[float64](NewFeatures(2, 3, 1, 1))
	require.NoError(t, err)

	entries := m.StateDict()
	err = m.LoadStateDict(entries[1:])
	assert.Error(t, err)

	other, err := ZerosModel[float64](NewFeatures(2, 4, 1, 1))
	require.NoError(t, err)
	err = m.LoadStateDict(other.StateDict())
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)

	assert.Equal(t, 1.0, m.Input().Weights().At(0, 0), "no partial load")
}

func TestModel_Clone(t *testing.T) {
	m, err := OnesModel[float64](NewFeatures(2, 3, 1, 1))
	require.NoError(t, err)

	c := m.Clone()
	c.Hidden()[0].Weights().Set(5, 0, 0)

	assert.Equal(t, 1.0, m.Hidden()[0].Weights().At(0, 0))
	assert.Equal(t, m.Features(), c.Features())
}
