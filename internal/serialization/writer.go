package serialization

import (
	"encoding/binary"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/born-ml/perceptron/internal/nn"
	"github.com/born-ml/perceptron/internal/tensor"
)

// Write encodes entries in order under header to w, storing every tensor as dtype.
//
// The format version, library version, tensor table and checksum are filled in;
// CreatedAt and RunID are filled in when zero.
func Write[T tensor.Float](w io.Writer, header Header, entries []nn.NamedTensor[T], dtype DType) error {
	if dtype.Size() == 0 {
		return errors.Wrapf(ErrUnsupportedDType, "%q", dtype)
	}

	header.FormatVersion = FormatVersion
	header.Version = Version
	if header.CreatedAt.IsZero() {
		header.CreatedAt = time.Now().UTC()
	}
	if header.RunID == uuid.Nil {
		header.RunID = uuid.New()
	}

	// Tensor table and data section.
	var data []byte
	header.Tensors = make([]TensorMeta, 0, len(entries))
	for _, e := range entries {
		if err := ValidateTensorName(e.Name); err != nil {
			return err
		}
		offset := int64(len(data))
		data = encodeValues(data, e.Tensor.Values(), dtype)
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   e.Name,
			DType:  dtype,
			Shape:  []int(e.Tensor.Dim()),
			Offset: offset,
			Size:   int64(len(data)) - offset,
		})
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return errors.Wrap(err, "failed to marshal header")
	}
	if len(headerJSON) > MaxHeaderSize {
		return errors.WithStack(ErrHeaderTooLarge)
	}

	fixed := make([]byte, FixedHeaderSize)
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(fixed[8:12], headerFlags(&header))
	binary.LittleEndian.PutUint64(fixed[headerSizeOffset:], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixed[dataSizeOffset:], uint64(len(data)))
	checksum := ComputeChecksum(data)
	copy(fixed[ChecksumOffset:ChecksumOffset+ChecksumSize], checksum[:])

	padding := alignedDataOffset(int64(len(headerJSON))) - int64(FixedHeaderSize+len(headerJSON))
	for _, chunk := range [][]byte{fixed, headerJSON, make([]byte, padding), data} {
		if _, err := w.Write(chunk); err != nil {
			return errors.Wrap(err, "failed to write checkpoint")
		}
	}
	return nil
}

func headerFlags(h *Header) uint32 {
	var flags uint32
	if len(h.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	if h.Training != nil {
		flags |= FlagHasTraining
	}
	return flags
}

// WriteFile writes a checkpoint to path. A partially written file is removed.
func WriteFile[T tensor.Float](path string, header Header, entries []nn.NamedTensor[T], dtype DType) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "failed to close file")
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	return Write(f, header, entries, dtype)
}
