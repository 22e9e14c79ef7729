package tensor

import (
	"fmt"

	"github.com/pkg/errors"
)

// Common errors.
var (
	ErrShapeMismatch  = errors.New("shape mismatch")
	ErrRankMismatch   = errors.New("rank mismatch")
	ErrSingularMatrix = errors.New("singular matrix")
)

// ShapeMismatchError reports two shapes that an operation required to agree.
// It matches ErrShapeMismatch with errors.Is.
type ShapeMismatchError struct {
	Op       string // Operation that failed (e.g. "dot", "scaled_add")
	Expected Shape
	Found    Shape
}

// Error implements the error interface.
func (e *ShapeMismatchError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("shape mismatch: expected %v, found %v", e.Expected, e.Found)
	}
	return fmt.Sprintf("%s: shape mismatch: expected %v, found %v", e.Op, e.Expected, e.Found)
}

// Is makes errors.Is(err, ErrShapeMismatch) succeed.
func (e *ShapeMismatchError) Is(target error) bool {
	return target == ErrShapeMismatch
}

// NewShapeMismatch returns a ShapeMismatchError carrying a stack trace.
func NewShapeMismatch(op string, expected, found Shape) error {
	return errors.WithStack(&ShapeMismatchError{
		Op:       op,
		Expected: expected.Clone(),
		Found:    found.Clone(),
	})
}

// NewRankMismatch wraps ErrRankMismatch with the ranks involved.
func NewRankMismatch(op string, expected, found int) error {
	return errors.Wrapf(ErrRankMismatch, "%s: expected rank %d, found %d", op, expected, found)
}

func indexPanic(idx, axis, size int) string {
	return fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", idx, axis, size)
}
