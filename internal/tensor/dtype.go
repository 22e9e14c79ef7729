// Package tensor provides the n-dimensional numeric container used by the perceptron core.
package tensor

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Float is the element constraint for tensors.
// Parameters and activations are only defined over floating point types.
type Float interface {
	constraints.Float
}

// DataType represents runtime type information for tensors.
type DataType int

// Supported data types for tensors.
const (
	Float32 DataType = iota
	Float64
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32:
		return 4
	case Float64:
		return 8
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return "unknown"
	}
}

// DataTypeOf infers the DataType of T.
func DataTypeOf[T Float]() DataType {
	var dummy T
	switch any(dummy).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	}
	// Named types (~float32, ~float64) fall back on their precision.
	tiny := math.SmallestNonzeroFloat64
	if float64(T(tiny)) == 0 {
		return Float32
	}
	return Float64
}

// Epsilon is the clamp used by operations dividing by a magnitude.
func Epsilon[T Float]() T {
	if DataTypeOf[T]() == Float32 {
		return T(1e-7)
	}
	return T(1e-12)
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite[T Float](v T) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
