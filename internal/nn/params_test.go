package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/perceptron/internal/initializer"
	"github.com/born-ml/perceptron/internal/tensor"
)

func assertShape(t *testing.T, expected, actual tensor.Shape) {
	t.Helper()
	assert.True(t, expected.Equal(actual), "expected shape %v, got %v", expected, actual)
}

func rows(t *testing.T, r [][]float64) *tensor.Tensor[float64] {
	t.Helper()
	m, err := tensor.FromRows(r)
	require.NoError(t, err)
	return m
}

// layer123456 is the (3, 2) store with weights [[1,2],[3,4],[5,6]] and zero bias.
func layer123456(t *testing.T) *Params[float64] {
	t.Helper()
	p, err := FromTensors(rows(t, [][]float64{{1, 2}, {3, 4}, {5, 6}}), tensor.Zeros[float64](tensor.Shape{3}))
	require.NoError(t, err)
	return p
}

func TestConstructors(t *testing.T) {
	shape := tensor.Shape{3, 2}

	z := Zeros[float32](shape, Biased)
	assertShape(t, tensor.Shape{3}, z.Bias().Shape())
	assert.Equal(t, float32(0), z.L1Norm())

	o := Ones[float32](shape, Unbiased)
	assert.Nil(t, o.Bias())
	assert.Equal(t, Unbiased, o.Kind())
	assert.Equal(t, float32(6), o.L1Norm())

	e := FromElem[float64](shape, Biased, 2)
	assert.Equal(t, []float64{2, 2, 2}, e.Bias().Values())

	d := Default[float64](shape, Biased)
	assert.Equal(t, 0.0, d.L2Norm())
}

func TestConstructors_VectorWeights(t *testing.T) {
	p := Ones[float64](tensor.Shape{4}, Biased)

	assert.Equal(t, 0, p.Bias().Rank())
	assert.Equal(t, 4, p.InFeatures())
	assert.Equal(t, 1, p.OutFeatures())
	assert.Equal(t, 5, p.Size())
}

func TestAccessors(t *testing.T) {
	p := Zeros[float32](tensor.Shape{3, 2}, Biased)

	assert.Equal(t, 2, p.InFeatures())
	assert.Equal(t, 3, p.OutFeatures())
	assert.True(t, p.IsBiased())
	assert.False(t, p.IsEmpty())
	assert.Equal(t, 6, p.CountWeight())
	assert.Equal(t, 3, p.CountBias())
	assert.Equal(t, 9, p.Size())
	assert.Equal(t, []int{3, 2}, p.RawDim())
	assertShape(t, tensor.Shape{3, 2}, p.Dim())
	assert.Equal(t, "Params[biased][3 2]", p.String())

	p.WeightsMut().Set(7, 0, 1)
	p.BiasMut().Set(1, 2)
	assert.Equal(t, float32(7), p.Weights().At(0, 1))
	assert.Equal(t, float32(1), p.Bias().At(2))

	assert.Nil(t, p.IntoUnbiased().BiasMut())
}

func TestFromTensors_BiasShape(t *testing.T) {
	_, err := FromTensors(tensor.Zeros[float64](tensor.Shape{3, 2}), tensor.Zeros[float64](tensor.Shape{2}))
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)

	_, err = FromTensors(tensor.Scalar[float64](1), nil)
	assert.ErrorIs(t, err, tensor.ErrRankMismatch)
}

func TestRandomConstructors_Seeded(t *testing.T) {
	shape := tensor.Shape{4, 3}

	a := RandomSeeded[float64](shape, Biased, initializer.StandardNormal{}, 11)
	b := RandomSeeded[float64](shape, Biased, initializer.StandardNormal{}, 11)
	assert.Equal(t, a.Weights().Values(), b.Weights().Values())
	assert.Equal(t, a.Bias().Values(), b.Bias().Values())

	g, err := GlorotUniform[float64](shape, Biased, initializer.NewRNG(3))
	require.NoError(t, err)
	bound := initializer.XavierUniform{FanIn: 3, FanOut: 4}.Bound()
	assert.LessOrEqual(t, g.Weights().Max(), bound)
	assert.GreaterOrEqual(t, g.Weights().Min(), -bound)

	bern, err := Bernoulli[float32](shape, Unbiased, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, float32(12), bern.Weights().Sum())

	u, err := UniformAlongAxis[float64](shape, Biased, 0, initializer.NewRNG(1))
	require.NoError(t, err)
	assert.LessOrEqual(t, u.Weights().Max(), 0.25)

	tn, err := TruncNormal[float64](shape, Biased, 0, 1, initializer.NewRNG(2))
	require.NoError(t, err)
	assert.LessOrEqual(t, tn.Weights().Max(), 2.0)
	assert.GreaterOrEqual(t, tn.Weights().Min(), -2.0)

	for _, fn := range []func() error{
		func() error { _, err := Normal[float64](shape, Biased, 0, -1, nil); return err },
		func() error { _, err := Uniform[float64](shape, Biased, 1, 0, nil); return err },
		func() error { _, err := UniformDk[float64](shape, Biased, 0, nil); return err },
		func() error { _, err := Bernoulli[float64](shape, Biased, 2, nil); return err },
	} {
		assert.ErrorIs(t, fn(), initializer.ErrDistribution)
	}

	_, err = LecunNormal[float64](shape, Unbiased, nil)
	assert.NoError(t, err)
	_, err = GlorotNormal[float64](shape, Unbiased, nil)
	assert.NoError(t, err)
	assert.Equal(t, Unbiased, StdNormal[float64](shape, Unbiased, nil).Kind())
}

func TestBiasTransparency(t *testing.T) {
	p := RandomSeeded[float64](tensor.Shape{3, 2}, Unbiased, initializer.StandardNormal{}, 5).IntoBiased()
	before := p.Clone()

	p.IntoUnbiased().IntoBiased()

	assert.Equal(t, before.Weights().Values(), p.Weights().Values())
	assert.Equal(t, before.Bias().Values(), p.Bias().Values())
	assert.Equal(t, []float64{0, 0, 0}, p.Bias().Values())
}

func TestIntoBiased_KeepsExistingBias(t *testing.T) {
	p := Ones[float64](tensor.Shape{2, 2}, Biased)
	p.IntoBiased()
	assert.Equal(t, []float64{1, 1}, p.Bias().Values())
}

func TestViews(t *testing.T) {
	p := Ones[float64](tensor.Shape{2, 2}, Biased)

	v := p.View()
	assert.Equal(t, tensor.View, v.Weights().Storage())
	assert.Equal(t, Biased, v.Kind())
	assert.Panics(t, func() { v.Weights().Set(0, 0, 0) })

	m := p.ViewMut()
	m.Weights().Set(5, 0, 0)
	assert.Equal(t, 5.0, p.Weights().At(0, 0))

	s := p.ToShared()
	s.Weights().Set(9, 1, 1)
	assert.Equal(t, 1.0, p.Weights().At(1, 1))
	assert.Equal(t, tensor.Shared, s.Bias().Storage())
}

func TestSetNode(t *testing.T) {
	p := Zeros[float64](tensor.Shape{3, 2}, Unbiased)
	b := 4.0

	require.NoError(t, p.SetNode(1, tensor.Vector(5.0, 6.0), &b))

	assert.True(t, p.IsBiased())
	assert.Equal(t, []float64{0, 0, 5, 6, 0, 0}, p.Weights().Values())
	assert.Equal(t, []float64{0, 4, 0}, p.Bias().Values())

	require.NoError(t, p.SetNode(2, tensor.Vector(1.0, 1.0), nil))
	assert.Equal(t, []float64{0, 4, 0}, p.Bias().Values())
}

func TestSetNode_BiasedMatrixThenShare(t *testing.T) {
	p := Ones[float32](tensor.Shape{2, 3}, Biased)
	b := float32(-1)

	require.NoError(t, p.SetNode(0, tensor.Vector[float32](7, 8, 9), &b))

	assert.Equal(t, []float32{7, 8, 9, 1, 1, 1}, p.Weights().Values())
	assert.Equal(t, []float32{-1, 1}, p.Bias().Values())

	// The mutable borrows have ended, so sharing is a reference rather than a copy.
	s := p.ToShared()
	assert.False(t, p.Weights().IsUnique())
	assert.Equal(t, p.Weights().Values(), s.Weights().Values())
}

func TestSetNode_Errors(t *testing.T) {
	p := Zeros[float64](tensor.Shape{3, 2}, Biased)

	assert.ErrorIs(t, p.SetNode(0, tensor.Zeros[float64](tensor.Shape{2, 2}), nil), tensor.ErrRankMismatch)
	assert.ErrorIs(t, p.SetNode(0, tensor.Vector(1.0, 2.0, 3.0), nil), tensor.ErrShapeMismatch)
	assert.Error(t, p.SetNode(3, tensor.Vector(1.0, 2.0), nil))
}

func TestSetNode_VectorWeights(t *testing.T) {
	p := Zeros[float64](tensor.Shape{3}, Unbiased)
	b := 2.0

	require.NoError(t, p.SetNode(1, tensor.Scalar(7.0), &b))

	assert.Equal(t, []float64{0, 7, 0}, p.Weights().Values())
	assert.Equal(t, 2.0, p.Bias().Item())
}

func TestNorms(t *testing.T) {
	p := layer123456(t)
	p.Bias().Fill(-1)

	assert.InDelta(t, 21+3, p.L1Norm(), 1e-12)
	assert.InDelta(t, 9.539392014169456+1.7320508075688772, p.L2Norm(), 1e-12)

	u := Ones[float64](tensor.Shape{4}, Unbiased)
	assert.Equal(t, 2.0, u.L2Norm())
}

func TestL2Norm_Homogeneous(t *testing.T) {
	p := RandomSeeded[float64](tensor.Shape{5, 4}, Biased, initializer.StandardNormal{}, 17)

	for _, k := range []float64{0.001, 0.5, 1, 3, 1000} {
		assert.InDelta(t, k*p.L2Norm(), p.Scale(k).L2Norm(), 1e-9*k*p.L2Norm())
	}
}

func TestReshape(t *testing.T) {
	p := Ones[float64](tensor.Shape{2, 3, 4}, Biased)
	require.NoError(t, p.Reshape(3, 2, 4))
	assertShape(t, tensor.Shape{3, 2, 4}, p.Shape())
	assertShape(t, tensor.Shape{3, 2}, p.Bias().Shape())

	q := Ones[float64](tensor.Shape{2, 3}, Unbiased)
	require.NoError(t, q.Reshape(6))
	assertShape(t, tensor.Shape{6}, q.Shape())
}

func TestReshape_Errors(t *testing.T) {
	p := Ones[float64](tensor.Shape{2, 3}, Biased)

	assert.ErrorIs(t, p.Reshape(4, 2), tensor.ErrShapeMismatch)
	// The bias would need 3 elements instead of 2.
	assert.ErrorIs(t, p.Reshape(3, 2), tensor.ErrShapeMismatch)
	assertShape(t, tensor.Shape{2, 3}, p.Shape())
	assertShape(t, tensor.Shape{2}, p.Bias().Shape())
}

func TestParams_ApplyGradient(t *testing.T) {
	p := Ones[float64](tensor.Shape{2, 2}, Biased)
	g := FromElem[float64](tensor.Shape{2, 2}, Biased, 0.5)

	require.NoError(t, p.ApplyGradient(g, 0.1))

	for _, v := range p.Weights().Values() {
		assert.InDelta(t, 1.025, v, 1e-12)
	}
	for _, v := range p.Bias().Values() {
		assert.InDelta(t, 1.025, v, 1e-12)
	}
}

func TestParams_ApplyGradientPolicies(t *testing.T) {
	start := RandomSeeded[float64](tensor.Shape{3, 2}, Biased, initializer.StandardNormal{}, 1)
	g := RandomSeeded[float64](tensor.Shape{3, 2}, Biased, initializer.StandardNormal{}, 2)

	plain := start.Clone()
	require.NoError(t, plain.ApplyGradient(g, 0.3))

	decay := start.Clone()
	require.NoError(t, decay.ApplyGradientWithDecay(g, 0.3, 0))
	assert.Equal(t, plain.Weights().Values(), decay.Weights().Values())
	assert.Equal(t, plain.Bias().Values(), decay.Bias().Values())

	velocity := ZerosLike(start)
	momentum := start.Clone()
	require.NoError(t, momentum.ApplyGradientWithMomentum(g, 0.3, 0, velocity))
	assert.Equal(t, plain.Weights().Values(), momentum.Weights().Values())
	assert.Equal(t, g.Weights().Values(), velocity.Weights().Values())
	assert.Equal(t, g.Bias().Values(), velocity.Bias().Values())

	both := start.Clone()
	require.NoError(t, both.ApplyGradientWithDecayAndMomentum(g, 0.3, 0, 0, ZerosLike(start)))
	assert.Equal(t, plain.Weights().Values(), both.Weights().Values())
}

func TestParams_ApplyGradient_StructureMismatch(t *testing.T) {
	p := Ones[float64](tensor.Shape{2, 2}, Biased)

	assert.ErrorIs(t, p.ApplyGradient(Ones[float64](tensor.Shape{2, 2}, Unbiased), 1), tensor.ErrShapeMismatch)
	assert.ErrorIs(t, p.ApplyGradient(Ones[float64](tensor.Shape{2, 3}, Biased), 1), tensor.ErrShapeMismatch)
	assert.ErrorIs(t, p.ApplyGradientWithMomentum(Ones[float64](tensor.Shape{2, 2}, Biased), 1, 0.9,
		Ones[float64](tensor.Shape{2}, Biased)), tensor.ErrShapeMismatch)
	assert.Equal(t, 6.0, p.L1Norm(), "no mutation on error")
}
