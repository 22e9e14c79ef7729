package serialization

import (
	"encoding/binary"
	"math"

	"github.com/x448/float16"

	"github.com/born-ml/perceptron/internal/tensor"
)

// encodeValues appends values to dst in little-endian dtype encoding.
func encodeValues[T tensor.Float](dst []byte, values []T, dt DType) []byte {
	switch dt {
	case DTypeFloat16:
		for _, v := range values {
			dst = binary.LittleEndian.AppendUint16(dst, float16.Fromfloat32(float32(v)).Bits())
		}
	case DTypeFloat32:
		for _, v := range values {
			dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(float32(v)))
		}
	case DTypeFloat64:
		for _, v := range values {
			dst = binary.LittleEndian.AppendUint64(dst, math.Float64bits(float64(v)))
		}
	}
	return dst
}

// decodeValues converts src, holding whole dtype elements, to T.
func decodeValues[T tensor.Float](src []byte, dt DType) []T {
	size := dt.Size()
	out := make([]T, len(src)/size)
	for i := range out {
		b := src[i*size:]
		switch dt {
		case DTypeFloat16:
			out[i] = T(float16.Frombits(binary.LittleEndian.Uint16(b)).Float32())
		case DTypeFloat32:
			out[i] = T(math.Float32frombits(binary.LittleEndian.Uint32(b)))
		case DTypeFloat64:
			out[i] = T(math.Float64frombits(binary.LittleEndian.Uint64(b)))
		}
	}
	return out
}
