// Package initializer provides the random distributions used to initialise
// parameter stores.
//
// Every distribution validates its parameters at construction and reports a
// DistributionError there; Sample never fails. Sampling is driven by an
// explicit *rand.Rand so seeded runs are reproducible.
package initializer

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrDistribution is matched by every DistributionError.
var ErrDistribution = errors.New("invalid distribution parameters")

// DistributionError reports a distribution constructor that rejected its parameters.
type DistributionError struct {
	Name   string // Distribution name (e.g. "normal", "bernoulli")
	Reason string
}

// Error implements the error interface.
func (e *DistributionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, e.Reason)
}

// Is makes errors.Is(err, ErrDistribution) succeed.
func (e *DistributionError) Is(target error) bool {
	return target == ErrDistribution
}

func invalid(name, format string, args ...any) error {
	return errors.WithStack(&DistributionError{Name: name, Reason: fmt.Sprintf(format, args...)})
}

// Sampler is any object that draws values of type A from a generator.
type Sampler[A any] interface {
	Sample(rng *rand.Rand) A
}

// Distribution is a real-valued sampler; parameter stores are filled from it.
type Distribution = Sampler[float64]

// NewRNG returns a deterministic generator for seed.
func NewRNG(seed uint64) *rand.Rand {
	//nolint:gosec // Weight initialization is not security-critical.
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewRandomRNG returns a generator seeded from the runtime's entropy source.
func NewRandomRNG() *rand.Rand {
	//nolint:gosec // Weight initialization is not security-critical.
	return NewRNG(rand.Uint64())
}

// StandardNormal draws from N(0, 1).
type StandardNormal struct{}

// Sample implements Distribution.
func (StandardNormal) Sample(rng *rand.Rand) float64 {
	return distuv.Normal{Mu: 0, Sigma: 1, Src: rng}.Rand()
}

// String implements fmt.Stringer.
func (StandardNormal) String() string { return "StandardNormal" }

// Normal draws from N(μ, σ²).
type Normal struct {
	Mu, Sigma float64
}

// NewNormal validates σ > 0.
func NewNormal(mu, sigma float64) (Normal, error) {
	if !(sigma > 0) || math.IsInf(sigma, 0) || math.IsNaN(mu) || math.IsInf(mu, 0) {
		return Normal{}, invalid("normal", "requires finite mean and sigma > 0, got mu=%g sigma=%g", mu, sigma)
	}
	return Normal{Mu: mu, Sigma: sigma}, nil
}

// Sample implements Distribution.
func (n Normal) Sample(rng *rand.Rand) float64 {
	return distuv.Normal{Mu: n.Mu, Sigma: n.Sigma, Src: rng}.Rand()
}

// String implements fmt.Stringer.
func (n Normal) String() string { return fmt.Sprintf("Normal(%g, %g)", n.Mu, n.Sigma) }

// TruncatedNormal draws from N(μ, σ²), re-sampling anything farther than 2σ from μ.
type TruncatedNormal struct {
	Mu, Sigma float64
}

// NewTruncatedNormal validates σ > 0.
func NewTruncatedNormal(mu, sigma float64) (TruncatedNormal, error) {
	if _, err := NewNormal(mu, sigma); err != nil {
		return TruncatedNormal{}, invalid("truncated_normal", "requires finite mean and sigma > 0, got mu=%g sigma=%g", mu, sigma)
	}
	return TruncatedNormal{Mu: mu, Sigma: sigma}, nil
}

// Bound returns the rejection radius 2σ.
func (n TruncatedNormal) Bound() float64 {
	return 2 * n.Sigma
}

// Sample implements Distribution.
func (n TruncatedNormal) Sample(rng *rand.Rand) float64 {
	d := distuv.Normal{Mu: n.Mu, Sigma: n.Sigma, Src: rng}
	bound := n.Bound()
	for {
		if x := d.Rand(); math.Abs(x-n.Mu) <= bound {
			return x
		}
	}
}

// String implements fmt.Stringer.
func (n TruncatedNormal) String() string { return fmt.Sprintf("TruncatedNormal(%g, %g)", n.Mu, n.Sigma) }

// Uniform draws from [Low, High).
type Uniform struct {
	Low, High float64
}

// NewUniform validates low < high.
func NewUniform(low, high float64) (Uniform, error) {
	if !(low < high) || math.IsInf(low, 0) || math.IsInf(high, 0) {
		return Uniform{}, invalid("uniform", "requires finite low < high, got [%g, %g)", low, high)
	}
	return Uniform{Low: low, High: high}, nil
}

// NewUniformDk returns U(−dk, dk).
func NewUniformDk(dk float64) (Uniform, error) {
	if !(dk > 0) {
		return Uniform{}, invalid("uniform", "requires dk > 0, got %g", dk)
	}
	return NewUniform(-dk, dk)
}

// NewUniformAlongAxis returns U(−dk, dk) with dk = 1/shape[axis].
func NewUniformAlongAxis(shape []int, axis int) (Uniform, error) {
	if axis < 0 || axis >= len(shape) {
		return Uniform{}, invalid("uniform", "axis %d out of range for shape %v", axis, shape)
	}
	if shape[axis] <= 0 {
		return Uniform{}, invalid("uniform", "axis %d of shape %v is empty", axis, shape)
	}
	return NewUniformDk(1 / float64(shape[axis]))
}

// Sample implements Distribution.
func (u Uniform) Sample(rng *rand.Rand) float64 {
	return distuv.Uniform{Min: u.Low, Max: u.High, Src: rng}.Rand()
}

// String implements fmt.Stringer.
func (u Uniform) String() string { return fmt.Sprintf("Uniform(%g, %g)", u.Low, u.High) }

// Bernoulli draws 1 with probability P and 0 otherwise.
type Bernoulli struct {
	P float64
}

// NewBernoulli validates p ∈ [0, 1].
func NewBernoulli(p float64) (Bernoulli, error) {
	if !(p >= 0 && p <= 1) {
		return Bernoulli{}, invalid("bernoulli", "probability must be in [0, 1], got %g", p)
	}
	return Bernoulli{P: p}, nil
}

// Sample implements Distribution.
func (b Bernoulli) Sample(rng *rand.Rand) float64 {
	return distuv.Bernoulli{P: b.P, Src: rng}.Rand()
}

// String implements fmt.Stringer.
func (b Bernoulli) String() string { return fmt.Sprintf("Bernoulli(%g)", b.P) }

// ComplexDistribution samples the real and imaginary parts independently.
type ComplexDistribution struct {
	Re, Im Distribution
}

// NewComplex pairs two real distributions.
func NewComplex(re, im Distribution) (ComplexDistribution, error) {
	if re == nil || im == nil {
		return ComplexDistribution{}, invalid("complex", "both real and imaginary parts are required")
	}
	return ComplexDistribution{Re: re, Im: im}, nil
}

// Sample implements Sampler[complex128].
func (c ComplexDistribution) Sample(rng *rand.Rand) complex128 {
	return complex(c.Re.Sample(rng), c.Im.Sample(rng))
}
