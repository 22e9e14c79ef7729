package nn

import (
	"fmt"
	"math/rand/v2"

	"github.com/pkg/errors"

	"github.com/born-ml/perceptron/internal/initializer"
	"github.com/born-ml/perceptron/internal/tensor"
)

// ModelParams holds the parameter stores of a multi-layer perceptron:
// an input store, a (possibly empty) hidden stack and an output store.
//
// Weight shapes are (out, in):
//
//	input:  (hidden, input)
//	hidden: (hidden, hidden) × layers
//	output: (output, hidden)
//
// Example:
//
//	f := nn.Shallow(3, 4, 2)
//	m, err := nn.GlorotUniformModel[float32](f, initializer.NewRNG(42))
//	first := m.At(0) // same store as m.Input()
type ModelParams[T tensor.Float] struct {
	features ModelFeatures
	input    *Params[T]
	hidden   []*Params[T]
	output   *Params[T]
}

// storeShape converts a (fan_in, fan_out) pair to a weight shape.
func storeShape(fanIn, fanOut int) tensor.Shape {
	return tensor.Shape{fanOut, fanIn}
}

// newModel builds every store with mk, in order input, hidden..., output.
func newModel[T tensor.Float](f ModelFeatures, mk func(shape tensor.Shape) (*Params[T], error)) (*ModelParams[T], error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	m := &ModelParams[T]{features: f, hidden: make([]*Params[T], f.Layers)}

	var err error
	if m.input, err = mk(storeShape(f.DimInput())); err != nil {
		return nil, errors.Wrap(err, "input layer")
	}
	for i := range m.hidden {
		if m.hidden[i], err = mk(storeShape(f.DimHidden())); err != nil {
			return nil, errors.Wrapf(err, "hidden layer %d", i)
		}
	}
	if m.output, err = mk(storeShape(f.DimOutput())); err != nil {
		return nil, errors.Wrap(err, "output layer")
	}
	return m, nil
}

func constantModel[T tensor.Float](f ModelFeatures, v T) (*ModelParams[T], error) {
	return newModel(f, func(shape tensor.Shape) (*Params[T], error) {
		return FromElem(shape, Biased, v), nil
	})
}

// ZerosModel creates a model with every parameter set to zero.
func ZerosModel[T tensor.Float](f ModelFeatures) (*ModelParams[T], error) {
	return constantModel[T](f, 0)
}

// OnesModel creates a model with every parameter set to one.
func OnesModel[T tensor.Float](f ModelFeatures) (*ModelParams[T], error) {
	return constantModel[T](f, 1)
}

// DefaultModel creates a model holding the zero value of T.
func DefaultModel[T tensor.Float](f ModelFeatures) (*ModelParams[T], error) {
	return ZerosModel[T](f)
}

// GlorotNormalModel initialises every store from N(0, 2/(fan_in + fan_out)).
// A nil rng uses an entropy-seeded generator.
func GlorotNormalModel[T tensor.Float](f ModelFeatures, rng *rand.Rand) (*ModelParams[T], error) {
	return InitRand[T](f, func(rows, cols int) initializer.Distribution {
		return initializer.XavierNormal{FanIn: cols, FanOut: rows}
	}, rng)
}

// GlorotUniformModel initialises every store from U(±√(6/(fan_in + fan_out))).
func GlorotUniformModel[T tensor.Float](f ModelFeatures, rng *rand.Rand) (*ModelParams[T], error) {
	return InitRand[T](f, func(rows, cols int) initializer.Distribution {
		return initializer.XavierUniform{FanIn: cols, FanOut: rows}
	}, rng)
}

// InitRand initialises every store from the distribution returned by factory,
// which receives the store's weight shape as (rows, cols) = (out, in). The
// bias of a store is drawn from the same distribution as its weights.
func InitRand[T tensor.Float](f ModelFeatures, factory func(rows, cols int) initializer.Distribution, rng *rand.Rand) (*ModelParams[T], error) {
	rng = orRandom(rng)
	return newModel(f, func(shape tensor.Shape) (*Params[T], error) {
		d := factory(shape[0], shape[1])
		if d == nil {
			return nil, errors.Errorf("no distribution for shape %v", shape)
		}
		return RandomWith[T](shape, Biased, d, rng), nil
	})
}

// Features returns the descriptor the model was built from.
func (m *ModelParams[T]) Features() ModelFeatures { return m.features }

// Input returns the input store.
func (m *ModelParams[T]) Input() *Params[T] { return m.input }

// Hidden returns the hidden stack. The slice is shared with m.
func (m *ModelParams[T]) Hidden() []*Params[T] { return m.hidden }

// HiddenAsSlice returns a copy of the hidden stack's store pointers.
func (m *ModelParams[T]) HiddenAsSlice() []*Params[T] {
	return append([]*Params[T](nil), m.hidden...)
}

// Output returns the output store.
func (m *ModelParams[T]) Output() *Params[T] { return m.output }

// CountHidden returns the number of hidden stores.
func (m *ModelParams[T]) CountHidden() int { return len(m.hidden) }

// Len returns CountHidden + 2.
func (m *ModelParams[T]) Len() int { return len(m.hidden) + 2 }

// IsShallow reports whether there is at most one hidden store.
func (m *ModelParams[T]) IsShallow() bool { return len(m.hidden) <= 1 }

// IsDeep reports whether there is more than one hidden store.
func (m *ModelParams[T]) IsDeep() bool { return len(m.hidden) > 1 }

// Size returns the total number of weights across stores, ignoring bias.
func (m *ModelParams[T]) Size() int {
	n := m.input.CountWeight() + m.output.CountWeight()
	for _, h := range m.hidden {
		n += h.CountWeight()
	}
	return n
}

// At returns store i: 0 is the input, Len()−1 the output, hidden[i−1] otherwise.
// Panics when i is out of range.
func (m *ModelParams[T]) At(i int) *Params[T] {
	switch {
	case i < 0 || i >= m.Len():
		panic(fmt.Sprintf("layer index %d out of range [0, %d)", i, m.Len()))
	case i == 0:
		return m.input
	case i == m.Len()-1:
		return m.output
	default:
		return m.hidden[i-1]
	}
}

// Layers returns every store in order input, hidden..., output.
func (m *ModelParams[T]) Layers() []*Params[T] {
	out := make([]*Params[T], 0, m.Len())
	out = append(out, m.input)
	out = append(out, m.hidden...)
	return append(out, m.output)
}

// Forward chains the stores without activations. It is a composition
// primitive; the training forward pass interposes activations.
func (m *ModelParams[T]) Forward(x *tensor.Tensor[T]) (*tensor.Tensor[T], error) {
	y := x
	for i, p := range m.Layers() {
		var err error
		if y, err = p.Forward(y); err != nil {
			return nil, errors.Wrapf(err, "layer %d", i)
		}
	}
	return y, nil
}

// Clone returns a deep copy.
func (m *ModelParams[T]) Clone() *ModelParams[T] {
	out := &ModelParams[T]{
		features: m.features,
		input:    m.input.Clone(),
		hidden:   make([]*Params[T], len(m.hidden)),
		output:   m.output.Clone(),
	}
	for i, h := range m.hidden {
		out.hidden[i] = h.Clone()
	}
	return out
}

// NamedTensor is one entry of a state dict.
type NamedTensor[T tensor.Float] struct {
	Name   string
	Tensor *tensor.Tensor[T]
}

// layerName is the state-dict prefix of store i.
func (m *ModelParams[T]) layerName(i int) string {
	switch i {
	case 0:
		return "input"
	case m.Len() - 1:
		return "output"
	default:
		return fmt.Sprintf("hidden.%d", i-1)
	}
}

// StateDict lists every tensor in field order: for each store the bias
// before the weights, stores ordered input, hidden..., output.
//
//	input.bias, input.weights, hidden.0.bias, hidden.0.weights, ..., output.weights
//
// The tensors are shared with m, not copied.
func (m *ModelParams[T]) StateDict() []NamedTensor[T] {
	out := make([]NamedTensor[T], 0, 2*m.Len())
	for i, p := range m.Layers() {
		prefix := m.layerName(i)
		if p.bias != nil {
			out = append(out, NamedTensor[T]{Name: prefix + ".bias", Tensor: p.bias})
		}
		out = append(out, NamedTensor[T]{Name: prefix + ".weights", Tensor: p.weights})
	}
	return out
}

// LoadStateDict copies tensors from entries into m by name. Every tensor of m
// must be present with a matching shape; m is unchanged on error.
func (m *ModelParams[T]) LoadStateDict(entries []NamedTensor[T]) error {
	byName := make(map[string]*tensor.Tensor[T], len(entries))
	for _, e := range entries {
		byName[e.Name] = e.Tensor
	}

	targets := m.StateDict()
	for _, dst := range targets {
		src, ok := byName[dst.Name]
		if !ok {
			return errors.Errorf("state dict: missing tensor %q", dst.Name)
		}
		if !src.Shape().Equal(dst.Tensor.Shape()) {
			return errors.Wrapf(tensor.NewShapeMismatch("load_state_dict", dst.Tensor.Shape(), src.Shape()),
				"tensor %q", dst.Name)
		}
	}
	for _, dst := range targets {
		if err := dst.Tensor.Assign(byName[dst.Name]); err != nil {
			return err
		}
	}
	return nil
}
