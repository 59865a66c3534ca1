// Package plain implements the PLAIN parquet encoding.
//
// https://github.com/apache/parquet-format/blob/master/Encodings.md#plain-plain--0
package plain

import (
	"encoding/binary"
	"math"

	"github.com/rionmonster/hardwood/deprecated"
	"github.com/rionmonster/hardwood/encoding"
	"github.com/rionmonster/hardwood/format"
)

const (
	// ByteArrayLengthSize is the size of the length prefix of BYTE_ARRAY
	// values.
	ByteArrayLengthSize = 4

	// MaxByteArrayLength is the maximum length of a single BYTE_ARRAY value.
	MaxByteArrayLength = math.MaxInt32
)

// DecodeBoolean decodes numValues booleans bit-packed eight per byte, least
// significant bit first.
func DecodeBoolean(dst []bool, src []byte, numValues int) ([]bool, error) {
	if len(src) < (numValues+7)/8 {
		return dst[:0], encoding.ErrInvalidInputSize(format.Plain, "BOOLEAN", len(src))
	}
	dst = resizeBool(dst, numValues)
	for i := range dst {
		dst[i] = (src[i/8]>>(i%8))&1 != 0
	}
	return dst, nil
}

// DecodeInt32 decodes little-endian 32-bit integers.
func DecodeInt32(dst []int32, src []byte) ([]int32, error) {
	if (len(src) % 4) != 0 {
		return dst[:0], encoding.ErrInvalidInputSize(format.Plain, "INT32", len(src))
	}
	dst = resizeInt32(dst, len(src)/4)
	for i := range dst {
		dst[i] = int32(binary.LittleEndian.Uint32(src[4*i:]))
	}
	return dst, nil
}

// DecodeInt64 decodes little-endian 64-bit integers.
func DecodeInt64(dst []int64, src []byte) ([]int64, error) {
	if (len(src) % 8) != 0 {
		return dst[:0], encoding.ErrInvalidInputSize(format.Plain, "INT64", len(src))
	}
	dst = resizeInt64(dst, len(src)/8)
	for i := range dst {
		dst[i] = int64(binary.LittleEndian.Uint64(src[8*i:]))
	}
	return dst, nil
}

// DecodeInt96 decodes 12-byte little-endian INT96 records.
func DecodeInt96(dst []deprecated.Int96, src []byte) ([]deprecated.Int96, error) {
	if (len(src) % 12) != 0 {
		return dst[:0], encoding.ErrInvalidInputSize(format.Plain, "INT96", len(src))
	}
	dst = resizeInt96(dst, len(src)/12)
	for i := range dst {
		dst[i] = deprecated.FromBytes(src[12*i:])
	}
	return dst, nil
}

// DecodeFloat decodes little-endian 32-bit floating point values.
func DecodeFloat(dst []float32, src []byte) ([]float32, error) {
	if (len(src) % 4) != 0 {
		return dst[:0], encoding.ErrInvalidInputSize(format.Plain, "FLOAT", len(src))
	}
	dst = resizeFloat(dst, len(src)/4)
	for i := range dst {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[4*i:]))
	}
	return dst, nil
}

// DecodeDouble decodes little-endian 64-bit floating point values.
func DecodeDouble(dst []float64, src []byte) ([]float64, error) {
	if (len(src) % 8) != 0 {
		return dst[:0], encoding.ErrInvalidInputSize(format.Plain, "DOUBLE", len(src))
	}
	dst = resizeDouble(dst, len(src)/8)
	for i := range dst {
		dst[i] = math.Float64frombits(binary.LittleEndian.Uint64(src[8*i:]))
	}
	return dst, nil
}

// DecodeByteArray decodes length-prefixed byte array values. The returned
// slices alias src.
func DecodeByteArray(dst [][]byte, src []byte) ([][]byte, error) {
	dst = dst[:0]
	for i := 0; i < len(src); {
		r := len(src) - i
		if r < ByteArrayLengthSize {
			return dst, encoding.Errorf(format.Plain, "%d trailing bytes cannot hold a value length prefix: %w", r, encoding.ErrInvalidArgument)
		}
		n := int(binary.LittleEndian.Uint32(src[i:]))
		i += ByteArrayLengthSize
		r -= ByteArrayLengthSize
		if n > r {
			return dst, encoding.Errorf(format.Plain, "value of length %d exceeds the %d remaining input bytes: %w", n, r, encoding.ErrInvalidArgument)
		}
		dst = append(dst, src[i:i+n:i+n])
		i += n
	}
	return dst, nil
}

// DecodeFixedLenByteArray decodes fixed-length byte array values of the given
// size. The returned slices alias src.
func DecodeFixedLenByteArray(dst [][]byte, src []byte, size int) ([][]byte, error) {
	if size <= 0 || (len(src)%size) != 0 {
		return dst[:0], encoding.ErrInvalidInputSize(format.Plain, "FIXED_LEN_BYTE_ARRAY", len(src))
	}
	dst = dst[:0]
	for i := 0; i < len(src); i += size {
		dst = append(dst, src[i:i+size:i+size])
	}
	return dst, nil
}

func resizeBool(buf []bool, size int) []bool {
	if cap(buf) < size {
		return make([]bool, size)
	}
	return buf[:size]
}

func resizeInt32(buf []int32, size int) []int32 {
	if cap(buf) < size {
		return make([]int32, size)
	}
	return buf[:size]
}

func resizeInt64(buf []int64, size int) []int64 {
	if cap(buf) < size {
		return make([]int64, size)
	}
	return buf[:size]
}

func resizeInt96(buf []deprecated.Int96, size int) []deprecated.Int96 {
	if cap(buf) < size {
		return make([]deprecated.Int96, size)
	}
	return buf[:size]
}

func resizeFloat(buf []float32, size int) []float32 {
	if cap(buf) < size {
		return make([]float32, size)
	}
	return buf[:size]
}

func resizeDouble(buf []float64, size int) []float64 {
	if cap(buf) < size {
		return make([]float64, size)
	}
	return buf[:size]
}
