package model

import (
	"io"
	"math"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/perceptron/internal/config"
	"github.com/born-ml/perceptron/internal/nn"
	"github.com/born-ml/perceptron/internal/serialization"
	"github.com/born-ml/perceptron/internal/tensor"
)

// ModelType is the model_type recorded in MLP checkpoints.
const ModelType = "MLP"

// SaveOptions configures Save and Encode.
type SaveOptions struct {
	// DType is the on-disk element type. Empty means the native type of T.
	DType serialization.DType
	// Loss is the last training loss. It is dropped when not finite.
	Loss *float64
	// Metadata is copied into the header as-is.
	Metadata map[string]string
}

// header builds the checkpoint header describing m.
func (m *MLP[T]) header(opts SaveOptions) serialization.Header {
	features := m.features
	training := &serialization.TrainingMeta{
		Epochs:    m.config.Epochs,
		BatchSize: m.config.BatchSize,
		Seed:      m.config.Seed,
		Init:      m.config.Init,
		Optimizer: m.config.Optimizer,
	}
	if opts.Loss != nil && !math.IsNaN(*opts.Loss) && !math.IsInf(*opts.Loss, 0) {
		loss := *opts.Loss
		training.Loss = &loss
	}
	return serialization.Header{
		ModelType:       ModelType,
		RunID:           m.id,
		Features:        &features,
		Hyperparameters: m.config.Hyperparameters.Clone(),
		Training:        training,
		Metadata:        opts.Metadata,
	}
}

func (opts SaveOptions) dtype(native serialization.DType) serialization.DType {
	if opts.DType == "" {
		return native
	}
	return opts.DType
}

// Save writes m as a .born checkpoint at path.
func (m *MLP[T]) Save(path string, opts SaveOptions) error {
	dtype := opts.dtype(serialization.NativeDType[T]())
	if err := serialization.WriteFile(path, m.header(opts), m.params.StateDict(), dtype); err != nil {
		return errors.Wrapf(err, "save %s", path)
	}
	klog.V(1).Infof("model: saved %s (%s, %s)", path, m.features, dtype)
	return nil
}

// Encode writes m as a .born checkpoint to w.
func (m *MLP[T]) Encode(w io.Writer, opts SaveOptions) error {
	return serialization.Write(w, m.header(opts), m.params.StateDict(), opts.dtype(serialization.NativeDType[T]()))
}

// Load reads a checkpoint written by Save. Tensors stored in another element
// type are converted to T.
func Load[T tensor.Float](path string) (*MLP[T], error) {
	r, err := serialization.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	m, err := fromReader[T](r)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	klog.V(1).Infof("model: loaded %s (%s)", path, m.features)
	return m, nil
}

// Decode reads a checkpoint from src.
func Decode[T tensor.Float](src io.Reader) (*MLP[T], error) {
	r, err := serialization.Read(src, serialization.ReaderOptions{})
	if err != nil {
		return nil, err
	}
	return fromReader[T](r)
}

func fromReader[T tensor.Float](r *serialization.Reader) (*MLP[T], error) {
	h := r.Header()
	if h.ModelType != ModelType {
		return nil, errors.Errorf("unexpected model type %q", h.ModelType)
	}
	if h.Features == nil {
		return nil, errors.New("checkpoint has no features")
	}

	params, err := nn.ZerosModel[T](*h.Features)
	if err != nil {
		return nil, err
	}
	entries, err := serialization.ReadAll[T](r)
	if err != nil {
		return nil, err
	}
	if err := params.LoadStateDict(entries); err != nil {
		return nil, err
	}

	m, err := FromParams(params, configFromHeader(h))
	if err != nil {
		return nil, err
	}
	m.id = h.RunID
	return m, nil
}

// configFromHeader restores the training configuration, keeping defaults
// for anything the checkpoint does not record.
func configFromHeader(h serialization.Header) *config.Config {
	cfg := config.Default()
	if h.Hyperparameters != nil {
		cfg.Hyperparameters = h.Hyperparameters.Clone()
	}
	if t := h.Training; t != nil {
		if t.BatchSize > 0 {
			cfg.BatchSize = t.BatchSize
		}
		if t.Epochs >= 0 {
			cfg.Epochs = t.Epochs
		}
		cfg.Seed = t.Seed
		if t.Init != "" {
			cfg.Init = t.Init
		}
		cfg.Optimizer = t.Optimizer
	}
	return cfg
}
