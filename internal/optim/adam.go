package optim

import (
	"math"

	"github.com/born-ml/perceptron/internal/config"
	"github.com/born-ml/perceptron/internal/nn"
	"github.com/born-ml/perceptron/internal/tensor"
)

const (
	defaultAdamLR     = 0.001
	defaultAdamWDecay = 0.01
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Update rule:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient       // First moment
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²      // Second moment
//	m_hat = m_t / (1 - beta1^t)                        // Bias correction
//	v_hat = v_t / (1 - beta2^t)                        // Bias correction
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)  // Parameter update
//
// With WeightDecay > 0 the decay is decoupled from the moments (AdamW):
//
//	param = param - lr * weight_decay * param
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
//
// Example:
//
//	opt := optim.NewAdam[float64](optim.AdamConfig{
//	    LR:    0.001,
//	    Betas: [2]float64{0.9, 0.999},
//	    Eps:   1e-8,
//	})
type Adam[T tensor.Float] struct {
	lr          float64
	beta1       float64
	beta2       float64
	eps         float64
	weightDecay float64
	states      map[*nn.Params[T]]*paramsState[T]
}

// AdamConfig holds configuration for Adam optimizer.
type AdamConfig struct {
	LR          float64    // Learning rate (default: 0.001)
	Betas       [2]float64 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps         float64    // Term for numerical stability (default: 1e-8)
	WeightDecay float64    // Decoupled weight decay (default: 0.0)
}

// AdamState is the moment state of a single tensor.
type AdamState[T tensor.Float] struct {
	M *tensor.Tensor[T] // First moment
	V *tensor.Tensor[T] // Second moment
	T int               // Timestep for bias correction
}

// NewAdamState returns zero moments for a tensor of the given shape.
func NewAdamState[T tensor.Float](shape tensor.Shape) *AdamState[T] {
	return &AdamState[T]{
		M: tensor.Zeros[T](shape),
		V: tensor.Zeros[T](shape),
	}
}

type paramsState[T tensor.Float] struct {
	weights *AdamState[T]
	bias    *AdamState[T]
}

// NewAdam creates a new Adam optimizer.
//
// Default hyperparameters:
//   - LR: 0.001
//   - Beta1: 0.9
//   - Beta2: 0.999
//   - Eps: 1e-8
func NewAdam[T tensor.Float](cfg AdamConfig) *Adam[T] {
	if cfg.LR == 0 {
		cfg.LR = defaultAdamLR
	}
	if cfg.Betas[0] == 0 {
		cfg.Betas[0] = 0.9
	}
	if cfg.Betas[1] == 0 {
		cfg.Betas[1] = 0.999
	}
	if cfg.Eps == 0 {
		cfg.Eps = 1e-8
	}
	return &Adam[T]{
		lr:          cfg.LR,
		beta1:       cfg.Betas[0],
		beta2:       cfg.Betas[1],
		eps:         cfg.Eps,
		weightDecay: cfg.WeightDecay,
		states:      make(map[*nn.Params[T]]*paramsState[T]),
	}
}

// Update advances s by one timestep with gradient g and returns the
// parameter update −lr·m̂/(√v̂ + ε). s is unchanged on error.
//
// Example:
//
//	s := optim.NewAdamState[float64](tensor.Shape{3})
//	u, _ := adam.Update(s, tensor.Ones[float64](tensor.Shape{3}))
//	// u ≈ [-0.001, -0.001, -0.001] with default settings
func (a *Adam[T]) Update(s *AdamState[T], g *tensor.Tensor[T]) (*tensor.Tensor[T], error) {
	if !s.M.Shape().Equal(g.Shape()) {
		return nil, tensor.NewShapeMismatch("adam", s.M.Shape(), g.Shape())
	}
	b1, b2 := T(a.beta1), T(a.beta2)
	m, err := s.M.ZipWith(g, func(m, g T) T { return b1*m + (1-b1)*g })
	if err != nil {
		return nil, err
	}
	v, err := s.V.ZipWith(g, func(v, g T) T { return b2*v + (1-b2)*g*g })
	if err != nil {
		return nil, err
	}

	t := s.T + 1
	bc1 := 1 - math.Pow(a.beta1, float64(t))
	bc2 := 1 - math.Pow(a.beta2, float64(t))
	update, err := m.ZipWith(v, func(m, v T) T {
		mHat := float64(m) / bc1
		vHat := float64(v) / bc2
		return T(-a.lr * mHat / (math.Sqrt(vHat) + a.eps))
	})
	if err != nil {
		return nil, err
	}
	s.M, s.V, s.T = m, v, t
	return update, nil
}

// Step applies one Adam update to the weights and bias of p.
func (a *Adam[T]) Step(p, grad *nn.Params[T]) error {
	if err := checkStructure(p, grad); err != nil {
		return err
	}
	st := a.state(p)

	wUpd, err := a.stepTensor(st.weights, p.Weights(), grad.Weights())
	if err != nil {
		return err
	}
	var bUpd *tensor.Tensor[T]
	if p.IsBiased() {
		if bUpd, err = a.stepTensor(st.bias, p.Bias(), grad.Bias()); err != nil {
			return err
		}
	}

	if err := p.Weights().ScaledAdd(1, wUpd); err != nil {
		return err
	}
	if bUpd != nil {
		return p.Bias().ScaledAdd(1, bUpd)
	}
	return nil
}

// stepTensor returns the Adam update for param, plus decoupled decay.
func (a *Adam[T]) stepTensor(s *AdamState[T], param, g *tensor.Tensor[T]) (*tensor.Tensor[T], error) {
	upd, err := a.Update(s, g)
	if err != nil || a.weightDecay == 0 {
		return upd, err
	}
	k := T(-a.lr * a.weightDecay)
	return upd.ZipWith(param, func(u, w T) T { return u + k*w })
}

func (a *Adam[T]) state(p *nn.Params[T]) *paramsState[T] {
	st, ok := a.states[p]
	if !ok {
		st = &paramsState[T]{weights: NewAdamState[T](p.Shape())}
		a.states[p] = st
	}
	if p.IsBiased() && st.bias == nil {
		st.bias = NewAdamState[T](p.Bias().Shape())
	}
	return st
}

// checkStructure verifies grad matches p in weight shape and bias presence.
func checkStructure[T tensor.Float](p, grad *nn.Params[T]) error {
	if !p.Shape().Equal(grad.Shape()) {
		return tensor.NewShapeMismatch("adam", p.Shape(), grad.Shape())
	}
	if p.IsBiased() != grad.IsBiased() {
		return tensor.NewShapeMismatch("adam bias", nn.BiasShape(p.Shape()), nil)
	}
	return nil
}

// GetTimestep returns the number of steps taken for p.
func (a *Adam[T]) GetTimestep(p *nn.Params[T]) int {
	if st, ok := a.states[p]; ok {
		return st.weights.T
	}
	return 0
}

// GetLR returns the current learning rate.
func (a *Adam[T]) GetLR() float64 { return a.lr }

// SetLR updates the learning rate.
func (a *Adam[T]) SetLR(lr float64) { a.lr = lr }

// Name returns "adamw" when decoupled decay is enabled, "adam" otherwise.
func (a *Adam[T]) Name() string {
	if a.weightDecay > 0 {
		return config.OptimizerAdamW
	}
	return config.OptimizerAdam
}
