// Package model implements the reference multi-layer perceptron built on the
// parameter stores of package nn.
//
// Hidden layers use ReLU and the output layer uses Sigmoid. Every sample is
// normalised to unit L2 norm before it enters the network, during training
// and prediction alike.
package model

import (
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/perceptron/internal/config"
	"github.com/born-ml/perceptron/internal/initializer"
	"github.com/born-ml/perceptron/internal/nn"
	"github.com/born-ml/perceptron/internal/optim"
	"github.com/born-ml/perceptron/internal/tensor"
)

// Training errors.
var (
	ErrInvalidBatchSize   = errors.New("invalid batch size")
	ErrInvalidInputShape  = errors.New("invalid input shape")
	ErrInvalidOutputShape = errors.New("invalid output shape")
)

// Init selects how a new model's parameters are filled.
type Init int

// Parameter initialisations.
const (
	InitGlorotUniform Init = iota
	InitGlorotNormal
	InitZeros
	InitOnes
	InitLecunNormal
	InitNormal
	InitUniform
)

// String returns the config name of the initialisation.
func (i Init) String() string {
	switch i {
	case InitGlorotNormal:
		return "glorot_normal"
	case InitZeros:
		return "zeros"
	case InitOnes:
		return "ones"
	case InitLecunNormal:
		return "lecun_normal"
	case InitNormal:
		return "normal"
	case InitUniform:
		return "uniform"
	default:
		return "glorot_uniform"
	}
}

// ParseInit is the inverse of Init.String. The empty string selects InitGlorotUniform.
func ParseInit(name string) (Init, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "glorot_uniform", "xavier_uniform":
		return InitGlorotUniform, nil
	case "glorot_normal", "xavier_normal":
		return InitGlorotNormal, nil
	case "zeros":
		return InitZeros, nil
	case "ones":
		return InitOnes, nil
	case "lecun_normal":
		return InitLecunNormal, nil
	case "normal", "standard_normal":
		return InitNormal, nil
	case "uniform":
		return InitUniform, nil
	}
	return 0, errors.Errorf("unknown init %q", name)
}

type options struct {
	initKind *Init
	seed     uint64
	hasSeed  bool
}

// Option configures New.
type Option func(*options)

// WithInit overrides the initialisation named in the config.
func WithInit(i Init) Option {
	return func(o *options) { o.initKind = &i }
}

// WithSeed makes random initialisation deterministic, overriding the config seed.
func WithSeed(seed uint64) Option {
	return func(o *options) { o.seed, o.hasSeed = seed, true }
}

// MLP is the reference multi-layer perceptron.
//
// Example:
//
//	cfg := config.Default()
//	m, err := model.New[float64](nn.Shallow(3, 4, 2), cfg, model.WithSeed(7))
//	loss, err := m.Train(x, t)
type MLP[T tensor.Float] struct {
	id       uuid.UUID
	features nn.ModelFeatures
	config   *config.Config
	params   *nn.ModelParams[T]
	opt      optim.Optimizer[T]
}

// New builds an MLP for features f trained according to cfg.
// A nil cfg means config.Default().
func New[T tensor.Float](f nn.ModelFeatures, cfg *config.Config, opts ...Option) (*MLP[T], error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	var kind Init
	if o.initKind != nil {
		kind = *o.initKind
	} else {
		parsed, err := ParseInit(cfg.Init)
		if err != nil {
			return nil, err
		}
		kind = parsed
	}

	var rng *rand.Rand
	switch {
	case o.hasSeed:
		rng = initializer.NewRNG(o.seed)
	case cfg.Seed != 0:
		rng = initializer.NewRNG(cfg.Seed)
	default:
		rng = initializer.NewRandomRNG()
	}

	params, err := initParams[T](f, kind, rng)
	if err != nil {
		return nil, err
	}
	m, err := FromParams(params, cfg)
	if err != nil {
		return nil, err
	}
	klog.V(1).Infof("model: new MLP %s init=%s params=%d", f, kind, m.NumParams())
	return m, nil
}

func initParams[T tensor.Float](f nn.ModelFeatures, kind Init, rng *rand.Rand) (*nn.ModelParams[T], error) {
	switch kind {
	case InitZeros:
		return nn.ZerosModel[T](f)
	case InitOnes:
		return nn.OnesModel[T](f)
	case InitGlorotNormal:
		return nn.GlorotNormalModel[T](f, rng)
	case InitLecunNormal, InitNormal, InitUniform:
		return initNamed[T](f, kind.String(), rng)
	default:
		return nn.GlorotUniformModel[T](f, rng)
	}
}

// initNamed draws every store from the fan-based distribution registered as
// name. Weights are (out, in), so fan-in is the column count.
func initNamed[T tensor.Float](f nn.ModelFeatures, name string, rng *rand.Rand) (*nn.ModelParams[T], error) {
	var distErr error
	params, err := nn.InitRand[T](f, func(rows, cols int) initializer.Distribution {
		d, err := initializer.ByName(name, cols, rows)
		if err != nil {
			distErr = err
			return nil
		}
		return d
	}, rng)
	if distErr != nil {
		return nil, errors.Wrapf(distErr, "init %s", name)
	}
	return params, err
}

// FromParams wraps existing parameters. The optimizer named in cfg, if any,
// is created fresh.
func FromParams[T tensor.Float](params *nn.ModelParams[T], cfg *config.Config) (*MLP[T], error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &MLP[T]{
		id:       uuid.New(),
		features: params.Features(),
		config:   cfg,
		params:   params,
	}
	if cfg.Optimizer != config.OptimizerNone {
		opt, err := optim.ByName[T](cfg.Optimizer, cfg)
		if err != nil {
			return nil, err
		}
		m.opt = opt
	}
	return m, nil
}

// ID returns the run identity recorded in checkpoints.
func (m *MLP[T]) ID() uuid.UUID { return m.id }

// Features returns the layer dimensions.
func (m *MLP[T]) Features() nn.ModelFeatures { return m.features }

// Config returns the training configuration.
func (m *MLP[T]) Config() *config.Config { return m.config }

// Params returns the parameter container.
func (m *MLP[T]) Params() *nn.ModelParams[T] { return m.params }

// Optimizer returns the configured optimizer, or nil for plain backward updates.
func (m *MLP[T]) Optimizer() optim.Optimizer[T] { return m.opt }

// NumParams returns the number of weights and biases.
func (m *MLP[T]) NumParams() int {
	n := 0
	for _, p := range m.params.Layers() {
		n += p.Size()
	}
	return n
}

// Predict runs the forward pass on one sample (rank 1) or a batch of rows (rank 2).
func (m *MLP[T]) Predict(x *tensor.Tensor[T]) (*tensor.Tensor[T], error) {
	if err := m.checkInput(x); err != nil {
		return nil, err
	}
	if x.Rank() == 1 {
		acts, err := m.activations(x.Normalize(tensor.Epsilon[T]()))
		if err != nil {
			return nil, err
		}
		return acts[len(acts)-1], nil
	}

	rows := make([]*tensor.Tensor[T], 0, x.Shape()[0])
	for i, row := range x.Rows() {
		acts, err := m.activations(row.Normalize(tensor.Epsilon[T]()))
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i)
		}
		rows = append(rows, acts[len(acts)-1])
	}
	return tensor.Stack(rows)
}

// activations returns a₀ = x followed by the output of every layer:
// ReLU after the input and hidden layers, Sigmoid after the output layer.
func (m *MLP[T]) activations(x *tensor.Tensor[T]) ([]*tensor.Tensor[T], error) {
	layers := m.params.Layers()
	acts := make([]*tensor.Tensor[T], 0, len(layers)+1)
	acts = append(acts, x)
	for i, layer := range layers {
		act := nn.ReLU()
		if i == len(layers)-1 {
			act = nn.Sigmoid()
		}
		y, err := layer.ForwardThen(acts[i], nn.ActivationFunc[T](act))
		if err != nil {
			return nil, errors.Wrapf(err, "layer %d", i)
		}
		acts = append(acts, y)
	}
	return acts, nil
}

// checkInput validates the sample axis of x against the input features.
func (m *MLP[T]) checkInput(x *tensor.Tensor[T]) error {
	if x == nil {
		return errors.Wrap(ErrInvalidBatchSize, "nil input")
	}
	switch x.Rank() {
	case 1, 2:
		if got := x.Shape().Last(); got != m.features.Input {
			return errors.Wrapf(ErrInvalidInputShape, "expected %d input features, got %d", m.features.Input, got)
		}
		return nil
	}
	return errors.Wrapf(ErrInvalidInputShape, "expected rank 1 or 2, got shape %v", x.Shape())
}

// IsFinite reports whether a loss is usable; NaN and ±Inf signal lost precision.
func IsFinite[T tensor.Float](loss T) bool {
	return tensor.IsFinite(loss)
}
