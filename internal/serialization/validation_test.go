package serialization

import (
	"errors"
	"strings"
	"testing"
)

func meta(name string, offset, size int64) TensorMeta {
	return TensorMeta{Name: name, DType: DTypeFloat32, Shape: []int{int(size / 4)}, Offset: offset, Size: size}
}

func TestValidateTensorOffsets(t *testing.T) {
	tests := []struct {
		name    string
		tensors []TensorMeta
		size    int64
		want    error
	}{
		{"adjacent", []TensorMeta{meta("a", 0, 8), meta("b", 8, 8)}, 16, nil},
		{"unordered", []TensorMeta{meta("b", 8, 8), meta("a", 0, 8)}, 16, nil},
		{"overlap", []TensorMeta{meta("a", 0, 12), meta("b", 8, 8)}, 16, ErrOffsetOverlap},
		{"out of bounds", []TensorMeta{meta("a", 8, 16)}, 16, ErrOutOfBounds},
		{"negative", []TensorMeta{meta("a", -4, 4)}, 16, ErrNegativeOffset},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTensorOffsets(tt.tensors, tt.size)
			if tt.want == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}

	many := make([]TensorMeta, MaxTensorCount+1)
	if err := ValidateTensorOffsets(many, 0); !errors.Is(err, ErrTooManyTensors) {
		t.Errorf("too many tensors: got %v", err)
	}
}

func TestValidateTensorName(t *testing.T) {
	for _, name := range []string{"input.weights", "hidden.12.bias", "output.bias"} {
		if err := ValidateTensorName(name); err != nil {
			t.Errorf("%q: unexpected error %v", name, err)
		}
	}
	for _, name := range []string{"", "../etc", "a/b", `a\b`, "a\x00b", strings.Repeat("x", MaxTensorNameLen+1)} {
		if err := ValidateTensorName(name); !errors.Is(err, ErrInvalidTensorName) {
			t.Errorf("%q: got %v, want ErrInvalidTensorName", name, err)
		}
	}
}

func TestValidateHeader(t *testing.T) {
	overlapping := &Header{Tensors: []TensorMeta{meta("a", 0, 8), meta("b", 4, 8)}}
	if err := ValidateHeader(overlapping, 16, ValidationStrict); !errors.Is(err, ErrOffsetOverlap) {
		t.Errorf("strict: got %v", err)
	}
	if err := ValidateHeader(overlapping, 16, ValidationNormal); err != nil {
		t.Errorf("normal skips offsets: got %v", err)
	}

	dup := &Header{Tensors: []TensorMeta{meta("a", 0, 4), meta("a", 4, 4)}}
	if err := ValidateHeader(dup, 8, ValidationNormal); !errors.Is(err, ErrInvalidTensorName) {
		t.Errorf("duplicate: got %v", err)
	}

	wrongSize := &Header{Tensors: []TensorMeta{{Name: "a", DType: DTypeFloat64, Shape: []int{2}, Size: 8}}}
	if err := ValidateHeader(wrongSize, 16, ValidationNormal); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("size mismatch: got %v", err)
	}

	badDType := &Header{Tensors: []TensorMeta{{Name: "a", DType: "int4", Shape: []int{2}, Size: 1}}}
	if err := ValidateHeader(badDType, 16, ValidationNormal); !errors.Is(err, ErrUnsupportedDType) {
		t.Errorf("dtype: got %v", err)
	}
	if err := ValidateHeader(badDType, 16, ValidationNone); err != nil {
		t.Errorf("none: got %v", err)
	}
}

func TestValidationErrorMessages(t *testing.T) {
	tests := []struct {
		err  *ValidationError
		want string
	}{
		{&ValidationError{Type: "offset_overlap", Tensor: "a", Tensor2: "b", Details: "x"}, `offset_overlap: tensors "a" and "b": x`},
		{&ValidationError{Type: "out_of_bounds", Tensor: "a", Details: "x"}, `out_of_bounds: tensor "a": x`},
		{&ValidationError{Type: "too_many_tensors", Details: "x"}, "too_many_tensors: x"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}
