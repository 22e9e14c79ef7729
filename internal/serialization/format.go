// Package serialization implements the .born checkpoint format for perceptron models.
//
//	Format Structure (v2):
//	  0x00 [4 bytes: Magic "BORN"]
//	  0x04 [4 bytes: Version (uint32 LE)]
//	  0x08 [4 bytes: Flags (uint32 LE)]
//	  0x0C [4 bytes: Reserved]
//	  0x10 [8 bytes: Header Size (uint64 LE)]
//	  0x18 [8 bytes: Data Size (uint64 LE)]
//	  0x20 [32 bytes: SHA-256 of the tensor data]
//	  0x40 [Header: JSON metadata]
//	       [Tensor data: little-endian, 64-byte aligned]
//
// Tensors are stored in state-dict order as float16, float32 or float64,
// independently of the element type they are read back into.
//
// Example usage:
//
//	err := serialization.WriteFile("model.born", header, params.StateDict(), serialization.DTypeFloat32)
//
//	r, err := serialization.Open("model.born")
//	entries, err := serialization.ReadAll[float64](r)
package serialization

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/born-ml/perceptron/internal/config"
	"github.com/born-ml/perceptron/internal/nn"
	"github.com/born-ml/perceptron/internal/tensor"
)

// Version is the library version recorded in written headers.
const Version = "0.1.0"

// Format constants.
const (
	MagicBytes       = "BORN"
	FormatVersion    = 2    // With SHA-256 checksum
	HeaderAlignment  = 64   // Align tensor data to 64 bytes
	FixedHeaderSize  = 64   // Fixed header size (0x40 bytes)
	ChecksumSize     = 32   // SHA-256 checksum size (32 bytes)
	ChecksumOffset   = 0x20 // Checksum offset in the fixed header
	headerSizeOffset = 0x10
	dataSizeOffset   = 0x18
)

// Flags for the .born format.
const (
	FlagHasTraining uint32 = 1 << 1 // bit 1: training state included
	FlagHasMetadata uint32 = 1 << 2 // bit 2: custom metadata included
)

// DType is the on-disk element type of a tensor.
type DType string

// Storage data types.
const (
	DTypeFloat16 DType = "float16"
	DTypeFloat32 DType = "float32"
	DTypeFloat64 DType = "float64"
)

// Size returns the byte size of one element.
func (d DType) Size() int {
	switch d {
	case DTypeFloat16:
		return 2
	case DTypeFloat32:
		return 4
	case DTypeFloat64:
		return 8
	}
	return 0
}

// ParseDType validates a dtype name.
func ParseDType(s string) (DType, error) {
	switch d := DType(s); d {
	case DTypeFloat16, DTypeFloat32, DTypeFloat64:
		return d, nil
	}
	return "", errors.Wrapf(ErrUnsupportedDType, "%q", s)
}

// NativeDType returns the storage type matching T.
func NativeDType[T tensor.Float]() DType {
	if tensor.DataTypeOf[T]() == tensor.Float32 {
		return DTypeFloat32
	}
	return DTypeFloat64
}

// Header represents the JSON header in a .born file.
type Header struct {
	FormatVersion   int                     `json:"format_version"`            // Version of the .born format
	Version         string                  `json:"perceptron_version"`        // Library version that wrote the file
	ModelType       string                  `json:"model_type"`                // e.g. "MLP"
	CreatedAt       time.Time               `json:"created_at"`                // When the file was created
	RunID           uuid.UUID               `json:"run_id"`                    // Identity of the model run
	Features        *nn.ModelFeatures       `json:"features,omitempty"`        // Layer dimensions
	Hyperparameters *config.Hyperparameters `json:"hyperparameters,omitempty"` // Ordered training hyperparameters
	Training        *TrainingMeta           `json:"training,omitempty"`        // Training state (optional)
	Tensors         []TensorMeta            `json:"tensors"`                   // Tensor metadata, in data order
	Metadata        map[string]string       `json:"metadata,omitempty"`        // Custom metadata
}

// TrainingMeta records how a checkpoint was trained.
type TrainingMeta struct {
	Epochs    int      `json:"epochs"`
	BatchSize int      `json:"batch_size"`
	Seed      uint64   `json:"seed,omitempty"`
	Init      string   `json:"init,omitempty"`
	Optimizer string   `json:"optimizer,omitempty"`
	Loss      *float64 `json:"loss,omitempty"` // Omitted when not finite
}

// TensorMeta describes a tensor in the .born file.
type TensorMeta struct {
	Name   string `json:"name"`   // Tensor name (e.g., "hidden.0.weights")
	DType  DType  `json:"dtype"`  // Storage type
	Shape  []int  `json:"shape"`  // Tensor shape
	Offset int64  `json:"offset"` // Bytes from the start of the tensor data
	Size   int64  `json:"size"`   // Size in bytes
}

// NumElements returns the element count implied by Shape.
func (m TensorMeta) NumElements() int {
	return tensor.Shape(m.Shape).NumElements()
}

// alignedDataOffset returns where tensor data starts for a JSON header of the given size.
func alignedDataOffset(headerSize int64) int64 {
	pos := int64(FixedHeaderSize) + headerSize
	return pos + (HeaderAlignment-pos%HeaderAlignment)%HeaderAlignment
}
