package initializer

import (
	"math/rand/v2"
	"strings"

	"github.com/pkg/errors"

	"github.com/born-ml/perceptron/internal/tensor"
)

// Constant always returns Value.
type Constant struct {
	Value float64
}

// Sample implements Distribution.
func (c Constant) Sample(*rand.Rand) float64 {
	return c.Value
}

// Fill overwrites every element of t with a draw from d, in row-major order.
//
// Example:
//
//	w := tensor.Zeros[float32](tensor.Shape{4, 3})
//	initializer.Fill(w, initializer.StandardNormal{}, initializer.NewRNG(42))
func Fill[T tensor.Float](t *tensor.Tensor[T], d Distribution, rng *rand.Rand) {
	t.MapInPlace(func(T) T {
		return T(d.Sample(rng))
	})
}

// Sample returns a new tensor of the given shape drawn from d.
func Sample[T tensor.Float](shape tensor.Shape, d Distribution, rng *rand.Rand) *tensor.Tensor[T] {
	t := tensor.Zeros[T](shape)
	Fill(t, d, rng)
	return t
}

// ByName returns the fan-based distribution registered under name.
//
// Recognised names: "glorot_normal" ("xavier_normal"), "glorot_uniform"
// ("xavier_uniform"), "lecun_normal", "normal" (standard), "uniform" (U(−dk, dk)
// with dk = 1/fanIn), "zeros", "ones".
func ByName(name string, fanIn, fanOut int) (Distribution, error) {
	switch strings.ToLower(name) {
	case "glorot_normal", "xavier_normal":
		return NewXavierNormal(fanIn, fanOut)
	case "glorot_uniform", "xavier_uniform", "":
		return NewXavierUniform(fanIn, fanOut)
	case "lecun_normal":
		return NewLecunNormal(fanIn)
	case "normal", "standard_normal":
		return StandardNormal{}, nil
	case "uniform":
		return NewUniformAlongAxis([]int{fanIn}, 0)
	case "zeros":
		return Constant{Value: 0}, nil
	case "ones":
		return Constant{Value: 1}, nil
	}
	return nil, errors.WithStack(&DistributionError{Name: name, Reason: "unknown initializer"})
}
