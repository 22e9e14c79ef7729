package initializer

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// XavierNormal (Glorot normal) draws from N(0, σ²) with σ = √(2/(fanIn + fanOut)).
//
// This initialization keeps the variance of activations roughly constant
// across layers.
type XavierNormal struct {
	FanIn, FanOut int
}

// NewXavierNormal validates that both fans are positive.
func NewXavierNormal(fanIn, fanOut int) (XavierNormal, error) {
	if fanIn <= 0 || fanOut <= 0 {
		return XavierNormal{}, invalid("xavier_normal", "fans must be positive, got (%d, %d)", fanIn, fanOut)
	}
	return XavierNormal{FanIn: fanIn, FanOut: fanOut}, nil
}

// StdDev returns σ.
func (x XavierNormal) StdDev() float64 {
	return math.Sqrt(2 / float64(x.FanIn+x.FanOut))
}

// Sample implements Distribution.
func (x XavierNormal) Sample(rng *rand.Rand) float64 {
	return Normal{Mu: 0, Sigma: x.StdDev()}.Sample(rng)
}

// String implements fmt.Stringer.
func (x XavierNormal) String() string { return fmt.Sprintf("XavierNormal(%d, %d)", x.FanIn, x.FanOut) }

// XavierUniform (Glorot uniform) draws from U(−b, b) with b = √(6/(fanIn + fanOut)).
type XavierUniform struct {
	FanIn, FanOut int
}

// NewXavierUniform validates that both fans are positive.
func NewXavierUniform(fanIn, fanOut int) (XavierUniform, error) {
	if fanIn <= 0 || fanOut <= 0 {
		return XavierUniform{}, invalid("xavier_uniform", "fans must be positive, got (%d, %d)", fanIn, fanOut)
	}
	return XavierUniform{FanIn: fanIn, FanOut: fanOut}, nil
}

// Bound returns b.
func (x XavierUniform) Bound() float64 {
	// Xavier/Glorot bound: sqrt(6 / (fan_in + fan_out))
	return math.Sqrt(6 / float64(x.FanIn+x.FanOut))
}

// Sample implements Distribution.
func (x XavierUniform) Sample(rng *rand.Rand) float64 {
	b := x.Bound()
	return Uniform{Low: -b, High: b}.Sample(rng)
}

// String implements fmt.Stringer.
func (x XavierUniform) String() string {
	return fmt.Sprintf("XavierUniform(%d, %d)", x.FanIn, x.FanOut)
}

// LecunNormal draws from N(0, σ²) with σ = √(1/n).
type LecunNormal struct {
	N int
}

// NewLecunNormal validates n > 0.
func NewLecunNormal(n int) (LecunNormal, error) {
	if n <= 0 {
		return LecunNormal{}, invalid("lecun_normal", "fan-in must be positive, got %d", n)
	}
	return LecunNormal{N: n}, nil
}

// StdDev returns σ.
func (l LecunNormal) StdDev() float64 {
	return math.Sqrt(1 / float64(l.N))
}

// Sample implements Distribution.
func (l LecunNormal) Sample(rng *rand.Rand) float64 {
	return Normal{Mu: 0, Sigma: l.StdDev()}.Sample(rng)
}

// String implements fmt.Stringer.
func (l LecunNormal) String() string { return fmt.Sprintf("LecunNormal(%d)", l.N) }
