package model

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/perceptron/internal/nn"
	"github.com/born-ml/perceptron/internal/tensor"
)

// Train runs one training step and returns the loss.
//
// A rank-1 x is a single sample with a rank-1 target of length Output. A
// rank-2 x is a batch of rows, trained one row at a time; the returned loss is
// the sum of the row losses. The first failing row aborts the step.
func (m *MLP[T]) Train(x, t *tensor.Tensor[T]) (T, error) {
	if x == nil || t == nil {
		return 0, errors.Wrap(ErrInvalidBatchSize, "nil input or target")
	}
	if err := m.checkInput(x); err != nil {
		return 0, err
	}
	if err := m.checkTarget(x, t); err != nil {
		return 0, err
	}
	if x.Rank() == 1 {
		return m.trainSample(x, t)
	}

	var loss T
	for i := range x.Shape()[0] {
		l, err := m.trainSample(x.Row(i), t.Row(i))
		if err != nil {
			klog.V(1).Infof("train: row %d failed: %v", i, err)
			return loss, errors.Wrapf(err, "row %d", i)
		}
		loss += l
	}
	return loss, nil
}

// checkTarget validates t against the batch size of x and the output features.
func (m *MLP[T]) checkTarget(x, t *tensor.Tensor[T]) error {
	want := tensor.Shape{m.features.Output}
	if x.Rank() == 2 {
		want = tensor.Shape{x.Shape()[0], m.features.Output}
	}
	if !t.Shape().Equal(want) {
		return errors.Wrapf(ErrInvalidOutputShape, "expected target shape %v, got %v", want, t.Shape())
	}
	return nil
}

// trainSample performs one backpropagation walk for a single sample.
//
// The output delta is (t̂ − y)·σ′(y); each lower delta is Wᵀ·δ of the layer
// above (before its update) times ReLU′ of that layer's input. Every delta is
// normalised to unit L2 norm before it is applied.
func (m *MLP[T]) trainSample(x, t *tensor.Tensor[T]) (T, error) {
	eps := tensor.Epsilon[T]()
	x = x.Normalize(eps)
	t = t.Normalize(eps)

	acts, err := m.activations(x)
	if err != nil {
		return 0, err
	}
	y := acts[len(acts)-1]

	e, err := t.Sub(y)
	if err != nil {
		return 0, err
	}
	loss := e.Sqr().Mean()

	delta, err := e.Mul(nn.DerivativeFromOutput(nn.Sigmoid(), y))
	if err != nil {
		return 0, err
	}
	delta = delta.Normalize(eps)

	layers := m.params.Layers()
	for i := len(layers) - 1; i >= 0; i-- {
		layer := layers[i]
		var next *tensor.Tensor[T]
		if i > 0 {
			back, err := delta.Dot(layer.Weights())
			if err != nil {
				return 0, errors.Wrapf(err, "layer %d", i)
			}
			if next, err = back.Mul(nn.DerivativeFromOutput(nn.ReLU(), acts[i])); err != nil {
				return 0, errors.Wrapf(err, "layer %d", i)
			}
		}
		if err := m.update(layer, acts[i], delta); err != nil {
			return 0, errors.Wrapf(err, "layer %d", i)
		}
		if next != nil {
			delta = next.Normalize(eps)
		}
	}
	return loss, nil
}

// update folds delta into layer, through the optimizer when one is configured.
func (m *MLP[T]) update(layer *nn.Params[T], x, delta *tensor.Tensor[T]) error {
	if m.opt == nil {
		_, err := layer.Backward(x, delta, T(m.config.LearningRate()))
		return err
	}
	g, err := layer.Gradients(x, delta)
	if err != nil {
		return err
	}
	// Gradients points downhill; optimizers expect the loss gradient.
	return m.opt.Step(layer, g.Scale(-1))
}

// EpochHook observes the mean loss of each finished epoch.
type EpochHook[T tensor.Float] func(epoch int, loss T)

// Fit trains for Config().Epochs passes over the rows of x in mini-batches of
// Config().BatchSize rows and returns the mean per-row loss of every epoch.
// Non-finite losses are logged, not returned as errors.
func (m *MLP[T]) Fit(x, t *tensor.Tensor[T], hooks ...EpochHook[T]) ([]T, error) {
	if x == nil || t == nil {
		return nil, errors.Wrap(ErrInvalidBatchSize, "nil input or target")
	}
	if x.Rank() != 2 {
		return nil, errors.Wrapf(ErrInvalidInputShape, "fit expects a batch of rows, got shape %v", x.Shape())
	}
	if err := m.checkInput(x); err != nil {
		return nil, err
	}
	if err := m.checkTarget(x, t); err != nil {
		return nil, err
	}
	batch := m.config.BatchSize
	if batch <= 0 {
		return nil, errors.Wrapf(ErrInvalidBatchSize, "batch size %d", batch)
	}

	rows := x.Shape()[0]
	losses := make([]T, 0, m.config.Epochs)
	for epoch := range m.config.Epochs {
		var total T
		for start := 0; start < rows; start += batch {
			end := min(start+batch, rows)
			l, err := m.Train(x.Slice(start, end), t.Slice(start, end))
			if err != nil {
				klog.V(1).Infof("fit: epoch %d batch %d failed: %v", epoch, start/batch, err)
				return losses, errors.Wrapf(err, "epoch %d batch %d", epoch, start/batch)
			}
			total += l
		}
		mean := total / T(rows)
		if !IsFinite(mean) {
			klog.Warningf("fit: epoch %d loss is %v, precision lost", epoch, mean)
		}
		klog.V(2).Infof("fit: epoch %d loss %.6g", epoch, float64(mean))
		losses = append(losses, mean)
		for _, h := range hooks {
			h(epoch, mean)
		}
	}
	return losses, nil
}

// Evaluate returns the mean squared error between the predictions for x and
// the normalised targets t, without updating the model.
func (m *MLP[T]) Evaluate(x, t *tensor.Tensor[T]) (T, error) {
	if x == nil || t == nil {
		return 0, errors.Wrap(ErrInvalidBatchSize, "nil input or target")
	}
	if err := m.checkInput(x); err != nil {
		return 0, err
	}
	if err := m.checkTarget(x, t); err != nil {
		return 0, err
	}
	y, err := m.Predict(x)
	if err != nil {
		return 0, err
	}
	eps := tensor.Epsilon[T]()
	target := t.Normalize(eps)
	if t.Rank() == 2 {
		rows := make([]*tensor.Tensor[T], 0, t.Shape()[0])
		for _, row := range t.Rows() {
			rows = append(rows, row.Normalize(eps))
		}
		if target, err = tensor.Stack(rows); err != nil {
			return 0, err
		}
	}
	e, err := target.Sub(y)
	if err != nil {
		return 0, err
	}
	return e.Sqr().Mean(), nil
}
