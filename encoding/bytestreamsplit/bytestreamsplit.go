// Package bytestreamsplit implements the BYTE_STREAM_SPLIT parquet encoding.
//
// https://github.com/apache/parquet-format/blob/master/Encodings.md#byte-stream-split-byte_stream_split--9
package bytestreamsplit

import (
	"math"

	"github.com/rionmonster/hardwood/encoding"
	"github.com/rionmonster/hardwood/format"
)

// DecodeFloat decodes 32-bit floating point values split across four byte
// streams.
func DecodeFloat(dst []float32, src []byte) ([]float32, error) {
	if (len(src) % 4) != 0 {
		return dst[:0], encoding.ErrInvalidInputSize(format.ByteStreamSplit, "FLOAT", len(src))
	}
	n := len(src) / 4
	if cap(dst) < n {
		dst = make([]float32, n)
	} else {
		dst = dst[:n]
	}
	for i := range dst {
		dst[i] = math.Float32frombits(uint32(src[i]) |
			uint32(src[n+i])<<8 |
			uint32(src[2*n+i])<<16 |
			uint32(src[3*n+i])<<24)
	}
	return dst, nil
}

// DecodeDouble decodes 64-bit floating point values split across eight byte
// streams.
func DecodeDouble(dst []float64, src []byte) ([]float64, error) {
	if (len(src) % 8) != 0 {
		return dst[:0], encoding.ErrInvalidInputSize(format.ByteStreamSplit, "DOUBLE", len(src))
	}
	n := len(src) / 8
	if cap(dst) < n {
		dst = make([]float64, n)
	} else {
		dst = dst[:n]
	}
	for i := range dst {
		v := uint64(0)
		for k := 0; k < 8; k++ {
			v |= uint64(src[k*n+i]) << (8 * k)
		}
		dst[i] = math.Float64frombits(v)
	}
	return dst, nil
}

// DecodeFixedLenByteArray decodes fixed-length byte array values of the given
// size split across size byte streams. Each value owns its buffer.
func DecodeFixedLenByteArray(dst [][]byte, src []byte, size int) ([][]byte, error) {
	if size <= 0 || (len(src)%size) != 0 {
		return dst[:0], encoding.ErrInvalidInputSize(format.ByteStreamSplit, "FIXED_LEN_BYTE_ARRAY", len(src))
	}
	n := len(src) / size
	dst = dst[:0]
	buf := make([]byte, n*size)
	for i := 0; i < n; i++ {
		v := buf[i*size : (i+1)*size : (i+1)*size]
		for k := 0; k < size; k++ {
			v[k] = src[k*n+i]
		}
		dst = append(dst, v)
	}
	return dst, nil
}
