package nn

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/born-ml/perceptron/internal/tensor"
)

// ActivationKind enumerates the activation catalogue.
type ActivationKind int

// Activation kinds.
const (
	ActivationLinear ActivationKind = iota
	ActivationHeavyside
	ActivationReLU
	ActivationSigmoid
	ActivationTanh
	ActivationSoftmax
	ActivationSoftmaxAxis
)

// Activation is a pure elementwise function symbol with a known derivative.
//
// Axis is only meaningful for ActivationSoftmaxAxis.
//
// Example:
//
//	y := nn.Apply(nn.Sigmoid(), x)
//	dy := nn.DerivativeFromOutput(nn.Sigmoid(), y) // y·(1 − y)
type Activation struct {
	Kind ActivationKind
	Axis int
}

// Linear returns the identity activation.
func Linear() Activation { return Activation{Kind: ActivationLinear} }

// Heavyside returns the unit step activation.
func Heavyside() Activation { return Activation{Kind: ActivationHeavyside} }

// ReLU returns the rectified linear activation.
func ReLU() Activation { return Activation{Kind: ActivationReLU} }

// Sigmoid returns the logistic activation.
func Sigmoid() Activation { return Activation{Kind: ActivationSigmoid} }

// Tanh returns the hyperbolic tangent activation.
func Tanh() Activation { return Activation{Kind: ActivationTanh} }

// Softmax returns softmax normalised over all elements.
func Softmax() Activation { return Activation{Kind: ActivationSoftmax} }

// SoftmaxAxis returns softmax normalised along axis. Negative axes count from the end.
func SoftmaxAxis(axis int) Activation { return Activation{Kind: ActivationSoftmaxAxis, Axis: axis} }

// String returns the canonical name, e.g. "relu" or "softmax_axis(1)".
func (a Activation) String() string {
	switch a.Kind {
	case ActivationLinear:
		return "linear"
	case ActivationHeavyside:
		return "heavyside"
	case ActivationReLU:
		return "relu"
	case ActivationSigmoid:
		return "sigmoid"
	case ActivationTanh:
		return "tanh"
	case ActivationSoftmax:
		return "softmax"
	case ActivationSoftmaxAxis:
		return fmt.Sprintf("softmax_axis(%d)", a.Axis)
	default:
		return fmt.Sprintf("activation(%d)", int(a.Kind))
	}
}

// ParseActivation is the inverse of Activation.String.
func ParseActivation(name string) (Activation, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "linear", "identity":
		return Linear(), nil
	case "heavyside", "heaviside", "step":
		return Heavyside(), nil
	case "relu":
		return ReLU(), nil
	case "sigmoid":
		return Sigmoid(), nil
	case "tanh":
		return Tanh(), nil
	case "softmax":
		return Softmax(), nil
	}
	if inner, ok := strings.CutPrefix(name, "softmax_axis("); ok {
		if digits, ok := strings.CutSuffix(inner, ")"); ok {
			axis, err := strconv.Atoi(digits)
			if err != nil {
				return Activation{}, errors.Wrapf(err, "parse activation %q", name)
			}
			return SoftmaxAxis(axis), nil
		}
	}
	return Activation{}, errors.Errorf("unknown activation %q", name)
}

// Scalar activations.

// LinearFn is the identity.
func LinearFn[T tensor.Float](x T) T { return x }

// LinearDerivative is constantly 1.
func LinearDerivative[T tensor.Float](T) T { return 1 }

// HeavysideFn returns 1 for x > 0 and 0 otherwise.
func HeavysideFn[T tensor.Float](x T) T {
	if x > 0 {
		return 1
	}
	return 0
}

// HeavysideDerivative is 0 everywhere it is defined.
func HeavysideDerivative[T tensor.Float](T) T { return 0 }

// ReLUFn returns max(0, x).
func ReLUFn[T tensor.Float](x T) T {
	if x > 0 {
		return x
	}
	return 0
}

// ReLUDerivative returns 1 for x > 0 and 0 otherwise, including at exactly 0.
func ReLUDerivative[T tensor.Float](x T) T {
	if x > 0 {
		return 1
	}
	return 0
}

// SigmoidFn returns (1 + e⁻ˣ)⁻¹.
func SigmoidFn[T tensor.Float](x T) T {
	return T(1 / (1 + math.Exp(-float64(x))))
}

// SigmoidDerivative returns s(x)·(1 − s(x)).
func SigmoidDerivative[T tensor.Float](x T) T {
	s := SigmoidFn(x)
	return s * (1 - s)
}

// TanhFn returns tanh x.
func TanhFn[T tensor.Float](x T) T {
	return T(math.Tanh(float64(x)))
}

// TanhDerivative returns 1 − tanh²x.
func TanhDerivative[T tensor.Float](x T) T {
	t := TanhFn(x)
	return 1 - t*t
}

// Tensor-lifted forms.

// Apply evaluates the activation elementwise (softmax normalises over its lanes).
// Panics if a SoftmaxAxis axis is out of range.
func Apply[T tensor.Float](a Activation, x *tensor.Tensor[T]) *tensor.Tensor[T] {
	switch a.Kind {
	case ActivationLinear:
		return x.Clone()
	case ActivationHeavyside:
		return x.Map(HeavysideFn[T])
	case ActivationReLU:
		return x.Map(ReLUFn[T])
	case ActivationSigmoid:
		return x.Map(SigmoidFn[T])
	case ActivationTanh:
		return x.Map(TanhFn[T])
	case ActivationSoftmax:
		return softmaxAll(x)
	case ActivationSoftmaxAxis:
		return softmaxAlong(x, a.Axis)
	}
	panic(fmt.Sprintf("unknown activation %v", a))
}

// Derivative evaluates ρ′ at the pre-activation x.
func Derivative[T tensor.Float](a Activation, x *tensor.Tensor[T]) *tensor.Tensor[T] {
	switch a.Kind {
	case ActivationLinear:
		return x.Map(LinearDerivative[T])
	case ActivationHeavyside:
		return x.Map(HeavysideDerivative[T])
	case ActivationReLU:
		return x.Map(ReLUDerivative[T])
	case ActivationSigmoid:
		return x.Map(SigmoidDerivative[T])
	case ActivationTanh:
		return x.Map(TanhDerivative[T])
	case ActivationSoftmax, ActivationSoftmaxAxis:
		return softmaxDerivative(Apply(a, x))
	}
	panic(fmt.Sprintf("unknown activation %v", a))
}

// DerivativeFromOutput evaluates ρ′ given the activation output y = ρ(x).
//
//	sigmoid: y·(1 − y)
//	tanh:    1 − y²
//	relu:    1 if y > 0 else 0
//	softmax: s·(1 − s)
func DerivativeFromOutput[T tensor.Float](a Activation, y *tensor.Tensor[T]) *tensor.Tensor[T] {
	switch a.Kind {
	case ActivationLinear:
		return y.Map(LinearDerivative[T])
	case ActivationHeavyside:
		return y.Map(HeavysideDerivative[T])
	case ActivationReLU:
		return y.Map(ReLUDerivative[T])
	case ActivationSigmoid, ActivationSoftmax, ActivationSoftmaxAxis:
		return softmaxDerivative(y)
	case ActivationTanh:
		return y.Map(func(v T) T { return 1 - v*v })
	}
	panic(fmt.Sprintf("unknown activation %v", a))
}

// ActivationFunc returns the activation as a closure, for use with Params.ForwardThen.
func ActivationFunc[T tensor.Float](a Activation) func(*tensor.Tensor[T]) *tensor.Tensor[T] {
	return func(x *tensor.Tensor[T]) *tensor.Tensor[T] {
		return Apply(a, x)
	}
}

// softmaxDerivative maps s to s·(1 − s).
func softmaxDerivative[T tensor.Float](s *tensor.Tensor[T]) *tensor.Tensor[T] {
	return s.Map(func(v T) T { return v * (1 - v) })
}

// softmaxAll normalises over every element, subtracting the maximum first.
func softmaxAll[T tensor.Float](x *tensor.Tensor[T]) *tensor.Tensor[T] {
	out := x.Clone()
	softmaxLane(out.DataMut())
	return out
}

// softmaxAlong normalises each lane along axis.
func softmaxAlong[T tensor.Float](x *tensor.Tensor[T], axis int) *tensor.Tensor[T] {
	rank := x.Rank()
	if rank == 0 {
		return softmaxAll(x)
	}
	if axis < 0 {
		axis += rank
	}
	if axis < 0 || axis >= rank {
		panic(fmt.Sprintf("softmax axis %d out of range for rank %d", axis, rank))
	}

	// Move axis last so every lane is contiguous, then move it back.
	perm := make([]int, 0, rank)
	for i := 0; i < rank; i++ {
		if i != axis {
			perm = append(perm, i)
		}
	}
	perm = append(perm, axis)
	inverse := make([]int, rank)
	for i, p := range perm {
		inverse[p] = i
	}

	moved := x.Transpose(perm...).Clone()
	data := moved.DataMut()
	n := x.Shape()[axis]
	for start := 0; start < len(data); start += n {
		softmaxLane(data[start : start+n])
	}
	return moved.Transpose(inverse...).Clone()
}

// softmaxLane applies a numerically stable softmax in place.
func softmaxLane[T tensor.Float](lane []T) {
	maxV := lane[0]
	for _, v := range lane[1:] {
		if v > maxV {
			maxV = v
		}
	}
	var sum float64
	for i, v := range lane {
		e := math.Exp(float64(v - maxV))
		lane[i] = T(e)
		sum += e
	}
	for i := range lane {
		lane[i] = T(float64(lane[i]) / sum)
	}
}
