// Package enctest provides reference encoders for the parquet value
// encodings. They exist to feed the decoder tests and the in-test file
// writers; the library itself never encodes.
package enctest

import (
	"encoding/binary"
	"math"
	"math/bits"
)

// PlainBoolean encodes booleans bit-packed eight per byte.
func PlainBoolean(values []bool) []byte {
	dst := make([]byte, (len(values)+7)/8)
	for i, v := range values {
		if v {
			dst[i/8] |= 1 << (i % 8)
		}
	}
	return dst
}

// PlainInt32 encodes little-endian 32-bit integers.
func PlainInt32(values []int32) []byte {
	var dst []byte
	for _, v := range values {
		dst = binary.LittleEndian.AppendUint32(dst, uint32(v))
	}
	return dst
}

// PlainInt64 encodes little-endian 64-bit integers.
func PlainInt64(values []int64) []byte {
	var dst []byte
	for _, v := range values {
		dst = binary.LittleEndian.AppendUint64(dst, uint64(v))
	}
	return dst
}

// PlainFloat encodes little-endian 32-bit floating point values.
func PlainFloat(values []float32) []byte {
	var dst []byte
	for _, v := range values {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
	}
	return dst
}

// PlainDouble encodes little-endian 64-bit floating point values.
func PlainDouble(values []float64) []byte {
	var dst []byte
	for _, v := range values {
		dst = binary.LittleEndian.AppendUint64(dst, math.Float64bits(v))
	}
	return dst
}

// PlainByteArray encodes length-prefixed byte array values.
func PlainByteArray(values [][]byte) []byte {
	var dst []byte
	for _, v := range values {
		dst = binary.LittleEndian.AppendUint32(dst, uint32(len(v)))
		dst = append(dst, v...)
	}
	return dst
}

// PlainFixedLenByteArray concatenates fixed-length values.
func PlainFixedLenByteArray(values [][]byte) []byte {
	var dst []byte
	for _, v := range values {
		dst = append(dst, v...)
	}
	return dst
}

// RepeatRun appends one RLE repeat run.
func RepeatRun(dst []byte, count int, value uint32, bitWidth uint) []byte {
	dst = binary.AppendUvarint(dst, uint64(count)<<1)
	for i := uint(0); i < (bitWidth+7)/8; i++ {
		dst = append(dst, byte(value>>(8*i)))
	}
	return dst
}

// Levels encodes a level stream as repeat runs over consecutive equal
// values.
func Levels(levels []byte, bitWidth uint) []byte {
	var dst []byte
	for i := 0; i < len(levels); {
		j := i
		for j < len(levels) && levels[j] == levels[i] {
			j++
		}
		dst = RepeatRun(dst, j-i, uint32(levels[i]), bitWidth)
		i = j
	}
	return dst
}

// LevelsV1 encodes a level stream with the 4-byte length prefix of v1 data
// pages.
func LevelsV1(levels []byte, bitWidth uint) []byte {
	stream := Levels(levels, bitWidth)
	dst := binary.LittleEndian.AppendUint32(nil, uint32(len(stream)))
	return append(dst, stream...)
}

// Indexes encodes dictionary indexes: the index bit width byte followed by
// repeat runs.
func Indexes(indexes []int32, bitWidth uint) []byte {
	dst := []byte{byte(bitWidth)}
	for i := 0; i < len(indexes); {
		j := i
		for j < len(indexes) && indexes[j] == indexes[i] {
			j++
		}
		dst = RepeatRun(dst, j-i, uint32(indexes[i]), bitWidth)
		i = j
	}
	return dst
}

// BooleanRLE encodes booleans the way BOOLEAN data pages with the RLE
// encoding are laid out: a 4-byte length prefix and a width-1 stream.
func BooleanRLE(values []bool) []byte {
	levels := make([]byte, len(values))
	for i, v := range values {
		if v {
			levels[i] = 1
		}
	}
	return LevelsV1(levels, 1)
}

const (
	deltaBlockSize     = 128
	deltaNumMiniBlocks = 4
	deltaMiniBlockSize = deltaBlockSize / deltaNumMiniBlocks
)

// DeltaInt64 encodes one DELTA_BINARY_PACKED run.
func DeltaInt64(values []int64) []byte {
	dst := binary.AppendUvarint(nil, deltaBlockSize)
	dst = binary.AppendUvarint(dst, deltaNumMiniBlocks)
	dst = binary.AppendUvarint(dst, uint64(len(values)))
	first := int64(0)
	if len(values) > 0 {
		first = values[0]
	}
	dst = binary.AppendVarint(dst, first)

	deltas := make([]int64, 0, deltaBlockSize)
	for i := 1; i < len(values); i += deltaBlockSize {
		deltas = deltas[:0]
		for j := i; j < len(values) && j < i+deltaBlockSize; j++ {
			deltas = append(deltas, values[j]-values[j-1])
		}
		dst = appendDeltaBlock(dst, deltas)
	}
	return dst
}

// DeltaInt32 encodes one DELTA_BINARY_PACKED run of 32-bit integers.
func DeltaInt32(values []int32) []byte {
	wide := make([]int64, len(values))
	for i, v := range values {
		wide[i] = int64(v)
	}
	return DeltaInt64(wide)
}

func appendDeltaBlock(dst []byte, deltas []int64) []byte {
	minDelta := deltas[0]
	for _, d := range deltas {
		if d < minDelta {
			minDelta = d
		}
	}
	dst = binary.AppendVarint(dst, minDelta)

	widths := make([]byte, deltaNumMiniBlocks)
	for m := 0; m < deltaNumMiniBlocks; m++ {
		lo := m * deltaMiniBlockSize
		if lo >= len(deltas) {
			break
		}
		hi := lo + deltaMiniBlockSize
		if hi > len(deltas) {
			hi = len(deltas)
		}
		width := 0
		for _, d := range deltas[lo:hi] {
			if n := bits.Len64(uint64(d - minDelta)); n > width {
				width = n
			}
		}
		widths[m] = byte(width)
	}
	dst = append(dst, widths...)

	for m := 0; m < deltaNumMiniBlocks; m++ {
		lo := m * deltaMiniBlockSize
		if lo >= len(deltas) || widths[m] == 0 {
			continue
		}
		hi := lo + deltaMiniBlockSize
		if hi > len(deltas) {
			hi = len(deltas)
		}
		buf := make([]byte, deltaMiniBlockSize*int(widths[m])/8)
		bitOffset := uint(0)
		for _, d := range deltas[lo:hi] {
			packBits(buf, bitOffset, uint64(d-minDelta), uint(widths[m]))
			bitOffset += uint(widths[m])
		}
		dst = append(dst, buf...)
	}
	return dst
}

func packBits(buf []byte, bitOffset uint, v uint64, width uint) {
	for b := uint(0); b < width; b++ {
		if (v>>b)&1 != 0 {
			buf[(bitOffset+b)/8] |= 1 << ((bitOffset + b) % 8)
		}
	}
}

// DeltaLengthByteArray encodes values as a run of lengths followed by the
// concatenated bytes.
func DeltaLengthByteArray(values [][]byte) []byte {
	lengths := make([]int32, len(values))
	for i, v := range values {
		lengths[i] = int32(len(v))
	}
	dst := DeltaInt32(lengths)
	for _, v := range values {
		dst = append(dst, v...)
	}
	return dst
}

// DeltaByteArray encodes values as prefix lengths, suffix lengths and the
// concatenated suffixes.
func DeltaByteArray(values [][]byte) []byte {
	prefixes := make([]int32, len(values))
	suffixes := make([]int32, len(values))
	var tail []byte
	var prev []byte
	for i, v := range values {
		p := 0
		for p < len(prev) && p < len(v) && prev[p] == v[p] {
			p++
		}
		prefixes[i] = int32(p)
		suffixes[i] = int32(len(v) - p)
		tail = append(tail, v[p:]...)
		prev = v
	}
	dst := DeltaInt32(prefixes)
	dst = append(dst, DeltaInt32(suffixes)...)
	return append(dst, tail...)
}

// ByteStreamSplit splits fixed-width records of the given size into size
// parallel byte streams.
func ByteStreamSplit(data []byte, size int) []byte {
	n := len(data) / size
	dst := make([]byte, len(data))
	for i := 0; i < n; i++ {
		for k := 0; k < size; k++ {
			dst[k*n+i] = data[i*size+k]
		}
	}
	return dst
}
