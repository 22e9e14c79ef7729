// Package nn implements the parameter stores and engines of the perceptron core.
//
// This package provides:
//   - Activation catalogue: Linear, Heavyside, ReLU, Sigmoid, Tanh, Softmax
//   - Params: a weight tensor with an optional bias (Biased / Unbiased)
//   - Forward (y = x·Wᵀ + b) and rank-keyed Backward rules
//   - ModelFeatures / ModelParams: input, hidden stack and output stores of an MLP
package nn

import (
	"fmt"
	"math/rand/v2"

	"github.com/pkg/errors"

	"github.com/born-ml/perceptron/internal/initializer"
	"github.com/born-ml/perceptron/internal/tensor"
)

// Kind records whether a parameter store carries a bias.
type Kind int

// Parameter store kinds.
const (
	Biased Kind = iota
	Unbiased
)

// String returns "biased" or "unbiased".
func (k Kind) String() string {
	if k == Biased {
		return "biased"
	}
	return "unbiased"
}

// Params is the weight/bias pair of one affine layer.
//
// Weights have shape (out, in) (or (in) for a single neuron); the bias, when
// present, has the weight shape with the last axis removed. The storage class
// of the tensors (owned, view, shared) is preserved by View, ViewMut and
// ToShared.
//
// Example:
//
//	p := nn.Ones[float32](tensor.Shape{3, 2}, nn.Biased)
//	y, err := p.Forward(tensor.Vector[float32](1, 1)) // Shape: [3]
type Params[T tensor.Float] struct {
	bias    *tensor.Tensor[T] // nil when Unbiased
	weights *tensor.Tensor[T]
}

// BiasShape returns the bias shape for a weight shape.
func BiasShape(weights tensor.Shape) tensor.Shape {
	if len(weights) == 0 {
		return tensor.Shape{}
	}
	return weights.RemoveAxis(-1)
}

func fromElem[T tensor.Float](shape tensor.Shape, kind Kind, v T) *Params[T] {
	p := &Params[T]{weights: tensor.Full(shape, v)}
	if kind == Biased {
		p.bias = tensor.Full(BiasShape(shape), v)
	}
	return p
}

// Zeros creates a store filled with zeros. Panics on an invalid shape.
func Zeros[T tensor.Float](shape tensor.Shape, kind Kind) *Params[T] {
	return fromElem[T](shape, kind, 0)
}

// Ones creates a store filled with ones.
func Ones[T tensor.Float](shape tensor.Shape, kind Kind) *Params[T] {
	return fromElem[T](shape, kind, 1)
}

// Default creates a store holding the zero value of T.
func Default[T tensor.Float](shape tensor.Shape, kind Kind) *Params[T] {
	return Zeros[T](shape, kind)
}

// FromElem creates a store with every element set to v.
func FromElem[T tensor.Float](shape tensor.Shape, kind Kind, v T) *Params[T] {
	return fromElem(shape, kind, v)
}

// FromTensors assembles a store from existing tensors. bias may be nil.
func FromTensors[T tensor.Float](weights, bias *tensor.Tensor[T]) (*Params[T], error) {
	if weights == nil {
		return nil, errors.New("params: weights are required")
	}
	if weights.Rank() == 0 {
		return nil, tensor.NewRankMismatch("params", 1, 0)
	}
	if bias != nil {
		want := BiasShape(weights.Shape())
		if !bias.Shape().Equal(want) {
			return nil, tensor.NewShapeMismatch("params bias", want, bias.Shape())
		}
	}
	return &Params[T]{bias: bias, weights: weights}, nil
}

// RandomWith creates a store whose weights and bias are drawn from d using rng.
// A nil rng draws from an entropy-seeded generator.
func RandomWith[T tensor.Float](shape tensor.Shape, kind Kind, d initializer.Distribution, rng *rand.Rand) *Params[T] {
	rng = orRandom(rng)
	p := &Params[T]{weights: initializer.Sample[T](shape, d, rng)}
	if kind == Biased {
		p.bias = initializer.Sample[T](BiasShape(shape), d, rng)
	}
	return p
}

// Random creates a store drawn from d with an entropy-seeded generator.
func Random[T tensor.Float](shape tensor.Shape, kind Kind, d initializer.Distribution) *Params[T] {
	return RandomWith[T](shape, kind, d, initializer.NewRandomRNG())
}

// RandomSeeded creates a store drawn from d with a deterministic generator.
func RandomSeeded[T tensor.Float](shape tensor.Shape, kind Kind, d initializer.Distribution, seed uint64) *Params[T] {
	return RandomWith[T](shape, kind, d, initializer.NewRNG(seed))
}

// Named random constructors. A nil rng draws from an entropy-seeded generator;
// pass initializer.NewRNG(seed) for the seeded variant.

func orRandom(rng *rand.Rand) *rand.Rand {
	if rng == nil {
		return initializer.NewRandomRNG()
	}
	return rng
}

// fans returns (fan_in, fan_out) for a weight shape (out, in).
func fans(shape tensor.Shape) (int, int) {
	fanIn := shape.Last()
	fanOut := 1
	if len(shape) >= 2 {
		fanOut = shape[0]
	}
	return fanIn, fanOut
}

// StdNormal draws every element from N(0, 1).
func StdNormal[T tensor.Float](shape tensor.Shape, kind Kind, rng *rand.Rand) *Params[T] {
	return RandomWith[T](shape, kind, initializer.StandardNormal{}, orRandom(rng))
}

// Normal draws every element from N(mu, sigma²).
func Normal[T tensor.Float](shape tensor.Shape, kind Kind, mu, sigma float64, rng *rand.Rand) (*Params[T], error) {
	d, err := initializer.NewNormal(mu, sigma)
	if err != nil {
		return nil, err
	}
	return RandomWith[T](shape, kind, d, orRandom(rng)), nil
}

// TruncNormal draws from N(mu, sigma²) truncated to mu ± 2·sigma.
func TruncNormal[T tensor.Float](shape tensor.Shape, kind Kind, mu, sigma float64, rng *rand.Rand) (*Params[T], error) {
	d, err := initializer.NewTruncatedNormal(mu, sigma)
	if err != nil {
		return nil, err
	}
	return RandomWith[T](shape, kind, d, orRandom(rng)), nil
}

// Uniform draws from [low, high).
func Uniform[T tensor.Float](shape tensor.Shape, kind Kind, low, high float64, rng *rand.Rand) (*Params[T], error) {
	d, err := initializer.NewUniform(low, high)
	if err != nil {
		return nil, err
	}
	return RandomWith[T](shape, kind, d, orRandom(rng)), nil
}

// UniformDk draws from [−dk, dk).
func UniformDk[T tensor.Float](shape tensor.Shape, kind Kind, dk float64, rng *rand.Rand) (*Params[T], error) {
	d, err := initializer.NewUniformDk(dk)
	if err != nil {
		return nil, err
	}
	return RandomWith[T](shape, kind, d, orRandom(rng)), nil
}

// UniformAlongAxis draws from [−dk, dk) with dk = 1/shape[axis].
func UniformAlongAxis[T tensor.Float](shape tensor.Shape, kind Kind, axis int, rng *rand.Rand) (*Params[T], error) {
	d, err := initializer.NewUniformAlongAxis(shape, axis)
	if err != nil {
		return nil, err
	}
	return RandomWith[T](shape, kind, d, orRandom(rng)), nil
}

// Bernoulli draws 1 with probability p and 0 otherwise.
func Bernoulli[T tensor.Float](shape tensor.Shape, kind Kind, p float64, rng *rand.Rand) (*Params[T], error) {
	d, err := initializer.NewBernoulli(p)
	if err != nil {
		return nil, err
	}
	return RandomWith[T](shape, kind, d, orRandom(rng)), nil
}

// GlorotNormal draws from N(0, 2/(fan_in + fan_out)) with fans taken from the weight shape.
func GlorotNormal[T tensor.Float](shape tensor.Shape, kind Kind, rng *rand.Rand) (*Params[T], error) {
	d, err := initializer.NewXavierNormal(fans(shape))
	if err != nil {
		return nil, err
	}
	return RandomWith[T](shape, kind, d, orRandom(rng)), nil
}

// GlorotUniform draws from U(±√(6/(fan_in + fan_out))).
func GlorotUniform[T tensor.Float](shape tensor.Shape, kind Kind, rng *rand.Rand) (*Params[T], error) {
	d, err := initializer.NewXavierUniform(fans(shape))
	if err != nil {
		return nil, err
	}
	return RandomWith[T](shape, kind, d, orRandom(rng)), nil
}

// LecunNormal draws from N(0, 1/fan_in).
func LecunNormal[T tensor.Float](shape tensor.Shape, kind Kind, rng *rand.Rand) (*Params[T], error) {
	fanIn, _ := fans(shape)
	d, err := initializer.NewLecunNormal(fanIn)
	if err != nil {
		return nil, err
	}
	return RandomWith[T](shape, kind, d, orRandom(rng)), nil
}

// Conversions.

// IntoBiased ensures a bias is present, allocating zeros if needed, and returns p.
func (p *Params[T]) IntoBiased() *Params[T] {
	if p.bias == nil {
		p.bias = tensor.Zeros[T](BiasShape(p.weights.Shape()))
	}
	return p
}

// IntoUnbiased drops any bias and returns p.
func (p *Params[T]) IntoUnbiased() *Params[T] {
	if p.bias != nil {
		p.bias.Release()
		p.bias = nil
	}
	return p
}

func (p *Params[T]) derive(f func(*tensor.Tensor[T]) *tensor.Tensor[T]) *Params[T] {
	out := &Params[T]{weights: f(p.weights)}
	if p.bias != nil {
		out.bias = f(p.bias)
	}
	return out
}

// View returns a read-only store over the same elements.
func (p *Params[T]) View() *Params[T] {
	return p.derive((*tensor.Tensor[T]).View)
}

// ViewMut returns a store whose writes reach p.
func (p *Params[T]) ViewMut() *Params[T] {
	return p.derive((*tensor.Tensor[T]).ViewMut)
}

// ToShared returns a clone-on-write store sharing p's buffers.
func (p *Params[T]) ToShared() *Params[T] {
	return p.derive((*tensor.Tensor[T]).ToShared)
}

// Clone returns a deep, owned copy.
func (p *Params[T]) Clone() *Params[T] {
	return p.derive((*tensor.Tensor[T]).Clone)
}

// Accessors.

// Weights returns the weight tensor.
func (p *Params[T]) Weights() *tensor.Tensor[T] { return p.weights }

// WeightsMut returns a mutable view of the weights.
func (p *Params[T]) WeightsMut() *tensor.Tensor[T] { return p.weights.ViewMut() }

// Bias returns the bias tensor, or nil when unbiased.
func (p *Params[T]) Bias() *tensor.Tensor[T] { return p.bias }

// BiasMut returns a mutable view of the bias, or nil when unbiased.
func (p *Params[T]) BiasMut() *tensor.Tensor[T] {
	if p.bias == nil {
		return nil
	}
	return p.bias.ViewMut()
}

// Dim returns a copy of the weight shape.
func (p *Params[T]) Dim() tensor.Shape { return p.weights.Dim() }

// RawDim returns the weight shape as a plain slice.
func (p *Params[T]) RawDim() []int { return []int(p.weights.Dim()) }

// Shape returns the weight shape. The returned slice must not be modified.
func (p *Params[T]) Shape() tensor.Shape { return p.weights.Shape() }

// InFeatures returns the last weight axis.
func (p *Params[T]) InFeatures() int { return p.weights.Shape().Last() }

// OutFeatures returns the first weight axis for rank ≥ 2, else 1.
func (p *Params[T]) OutFeatures() int {
	if p.weights.Rank() >= 2 {
		return p.weights.Shape()[0]
	}
	return 1
}

// Kind reports whether the store carries a bias.
func (p *Params[T]) Kind() Kind {
	if p.bias != nil {
		return Biased
	}
	return Unbiased
}

// IsBiased reports whether a bias is present.
func (p *Params[T]) IsBiased() bool { return p.bias != nil }

// IsEmpty reports whether the weights hold no elements.
func (p *Params[T]) IsEmpty() bool { return p.weights.IsEmpty() }

// CountWeight returns the number of weight elements.
func (p *Params[T]) CountWeight() int { return p.weights.NumElements() }

// CountBias returns the number of bias elements (0 when unbiased).
func (p *Params[T]) CountBias() int {
	if p.bias == nil {
		return 0
	}
	return p.bias.NumElements()
}

// Size returns CountWeight + CountBias.
func (p *Params[T]) Size() int { return p.CountWeight() + p.CountBias() }

// SetNode assigns row i of the weights from wRow and, when b is non-nil, the
// bias of node i. An unbiased store is promoted to biased first.
func (p *Params[T]) SetNode(i int, wRow *tensor.Tensor[T], b *T) error {
	if wRow.Rank()+1 != p.weights.Rank() {
		return tensor.NewRankMismatch("set_node", p.weights.Rank()-1, wRow.Rank())
	}
	rowShape := p.weights.Shape()[1:]
	if !wRow.Shape().Equal(rowShape) {
		return tensor.NewShapeMismatch("set_node", rowShape, wRow.Shape())
	}
	if n := p.weights.Shape()[0]; i < 0 || i >= n {
		return errors.Errorf("set_node: node %d out of range [0, %d)", i, n)
	}

	w := p.weights.ViewMut()
	defer w.Release()
	if err := w.IndexAxis(0, i).Assign(wRow); err != nil {
		return err
	}
	if b == nil {
		return nil
	}
	p.IntoBiased()
	if p.bias.Rank() == 0 {
		p.bias.Set(*b)
		return nil
	}
	bias := p.bias.ViewMut()
	defer bias.Release()
	bias.IndexAxis(0, i).Fill(*b)
	return nil
}

// L1Norm returns l1(weights) + l1(bias).
func (p *Params[T]) L1Norm() T {
	n := p.weights.L1Norm()
	if p.bias != nil {
		n += p.bias.L1Norm()
	}
	return n
}

// L2Norm returns l2(weights) + l2(bias).
func (p *Params[T]) L2Norm() T {
	n := p.weights.L2Norm()
	if p.bias != nil {
		n += p.bias.L2Norm()
	}
	return n
}

// Scale returns a new store with every element multiplied by k.
func (p *Params[T]) Scale(k T) *Params[T] {
	return p.derive(func(t *tensor.Tensor[T]) *tensor.Tensor[T] { return t.MulScalar(k) })
}

// Reshape changes the weight shape, keeping the element count. The bias is
// reshaped to the new weight shape minus its last axis, which must also keep
// the bias element count.
func (p *Params[T]) Reshape(shape ...int) error {
	if len(shape) == 0 {
		return tensor.NewRankMismatch("params reshape", p.weights.Rank(), 0)
	}
	w, err := p.weights.Reshape(shape...)
	if err != nil {
		return err
	}
	var b *tensor.Tensor[T]
	if p.bias != nil {
		b, err = p.bias.Reshape(BiasShape(shape)...)
		if err != nil {
			w.Release()
			return err
		}
		p.bias.Release()
	}
	p.weights.Release()
	p.weights, p.bias = w, b
	return nil
}

// String returns a short description like "Params[biased](3, 2)".
func (p *Params[T]) String() string {
	return fmt.Sprintf("Params[%s]%v", p.Kind(), []int(p.weights.Shape()))
}
