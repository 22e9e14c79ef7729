package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/born-ml/perceptron/internal/nn"
	"github.com/born-ml/perceptron/internal/tensor"
)

// Reader gives access to a parsed .born file held in memory.
type Reader struct {
	header   Header
	version  uint32
	flags    uint32
	checksum [ChecksumSize]byte
	data     []byte
	size     int64
}

// ReaderOptions configures reading .born files.
type ReaderOptions struct {
	SkipChecksumValidation bool            // Skip checksum validation (faster but less safe)
	ValidationLevel        ValidationLevel // Validation strictness level
}

// Open reads and validates the .born file at path with strict validation.
func Open(path string) (*Reader, error) {
	return OpenWithOptions(path, ReaderOptions{ValidationLevel: ValidationStrict})
}

// OpenWithOptions reads the .born file at path with custom options.
func OpenWithOptions(path string, opts ReaderOptions) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	defer f.Close()
	r, err := Read(f, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return r, nil
}

// Read parses a .born stream.
func Read(src io.Reader, opts ReaderOptions) (*Reader, error) {
	buf, err := io.ReadAll(src)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read checkpoint")
	}
	r := &Reader{size: int64(len(buf))}
	if err := r.parse(buf, opts); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Reader) parse(buf []byte, opts ReaderOptions) error {
	if len(buf) < 4 || !bytes.Equal(buf[:4], []byte(MagicBytes)) {
		return errors.WithStack(ErrInvalidMagic)
	}
	if len(buf) < FixedHeaderSize {
		return errors.Wrap(ErrTruncated, "fixed header")
	}
	r.version = binary.LittleEndian.Uint32(buf[4:8])
	if r.version != FormatVersion {
		return errors.Wrapf(ErrUnsupportedVersion, "got %d, expected %d", r.version, FormatVersion)
	}
	r.flags = binary.LittleEndian.Uint32(buf[8:12])
	headerSize := binary.LittleEndian.Uint64(buf[headerSizeOffset:])
	dataSize := binary.LittleEndian.Uint64(buf[dataSizeOffset:])
	copy(r.checksum[:], buf[ChecksumOffset:ChecksumOffset+ChecksumSize])

	if headerSize > MaxHeaderSize {
		return errors.WithStack(ErrHeaderTooLarge)
	}
	headerEnd := int64(FixedHeaderSize) + int64(headerSize)
	if headerEnd > int64(len(buf)) {
		return errors.Wrap(ErrTruncated, "header")
	}
	if err := json.Unmarshal(buf[FixedHeaderSize:headerEnd], &r.header); err != nil {
		return errors.Wrap(err, "failed to parse header JSON")
	}

	dataOffset := alignedDataOffset(int64(headerSize))
	if dataSize > uint64(len(buf)) || dataOffset+int64(dataSize) > int64(len(buf)) {
		return errors.Wrapf(ErrTruncated, "data section of %d bytes", dataSize)
	}
	r.data = buf[dataOffset : dataOffset+int64(dataSize)]

	if !opts.SkipChecksumValidation {
		if err := ValidateChecksum(ComputeChecksum(r.data), r.checksum); err != nil {
			return err
		}
	}
	if err := ValidateHeader(&r.header, int64(dataSize), opts.ValidationLevel); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	return nil
}

// Header returns the parsed JSON header.
func (r *Reader) Header() Header { return r.header }

// Version returns the format version from the fixed header.
func (r *Reader) Version() uint32 { return r.version }

// Flags returns the flag bits from the fixed header.
func (r *Reader) Flags() uint32 { return r.flags }

// Checksum returns the stored SHA-256 of the data section.
func (r *Reader) Checksum() [ChecksumSize]byte { return r.checksum }

// FileSize returns the total size of the parsed file in bytes.
func (r *Reader) FileSize() int64 { return r.size }

// Metadata returns the custom metadata.
func (r *Reader) Metadata() map[string]string { return r.header.Metadata }

// TensorNames returns the tensor names in data order.
func (r *Reader) TensorNames() []string {
	names := make([]string, len(r.header.Tensors))
	for i, meta := range r.header.Tensors {
		names[i] = meta.Name
	}
	return names
}

// TensorInfo returns the metadata of the named tensor.
func (r *Reader) TensorInfo(name string) (TensorMeta, error) {
	for _, meta := range r.header.Tensors {
		if meta.Name == name {
			return meta, nil
		}
	}
	return TensorMeta{}, errors.Wrapf(ErrTensorNotFound, "%q", name)
}

// ReadTensor decodes the named tensor into element type T.
func ReadTensor[T tensor.Float](r *Reader, name string) (*tensor.Tensor[T], error) {
	meta, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}
	return decodeTensor[T](r, meta)
}

// ReadAll decodes every tensor in data order.
func ReadAll[T tensor.Float](r *Reader) ([]nn.NamedTensor[T], error) {
	out := make([]nn.NamedTensor[T], 0, len(r.header.Tensors))
	for _, meta := range r.header.Tensors {
		t, err := decodeTensor[T](r, meta)
		if err != nil {
			return nil, err
		}
		out = append(out, nn.NamedTensor[T]{Name: meta.Name, Tensor: t})
	}
	return out, nil
}

func decodeTensor[T tensor.Float](r *Reader, meta TensorMeta) (*tensor.Tensor[T], error) {
	if err := validateTensorMeta(meta); err != nil {
		return nil, err
	}
	if meta.Offset < 0 || meta.Offset+meta.Size > int64(len(r.data)) {
		return nil, &ValidationError{Type: "out_of_bounds", Tensor: meta.Name, Details: "outside data section"}
	}
	values := decodeValues[T](r.data[meta.Offset:meta.Offset+meta.Size], meta.DType)
	t, err := tensor.FromSlice(values, tensor.Shape(meta.Shape))
	if err != nil {
		return nil, errors.Wrapf(err, "tensor %q", meta.Name)
	}
	return t, nil
}
