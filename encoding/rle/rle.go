// Package rle implements the hybrid RLE/Bit-Packed encoding employed in
// repetition and definition levels, dictionary indexed data pages, and
// boolean values in the PLAIN encoding.
//
// https://github.com/apache/parquet-format/blob/master/Encodings.md#run-length-encoding--bit-packing-hybrid-rle--3
package rle

import (
	"encoding/binary"
	"io"

	"github.com/rionmonster/hardwood/encoding"
	"github.com/rionmonster/hardwood/format"
	"github.com/rionmonster/hardwood/internal/bitpack"
)

// DecodeInt32 decodes numValues integers of the given bit width from the
// hybrid stream in src.
//
// The stream is a sequence of runs, each introduced by an unsigned varint
// header. A header with a clear low bit carries a repeat count followed by
// one ceil(bitWidth/8)-byte little-endian value; a set low bit carries a
// count of bit-packed groups of eight values each.
func DecodeInt32(dst []int32, src []byte, bitWidth uint, numValues int) ([]int32, error) {
	if bitWidth > 32 {
		return dst[:0], encoding.ErrInvalidBitWidth(format.RLE, bitWidth)
	}
	dst = resizeInt32(dst, numValues)
	decoded := 0
	for decoded < numValues {
		u, n := binary.Uvarint(src)
		if n <= 0 {
			return dst[:decoded], encoding.Errorf(format.RLE, "decoding run header after %d of %d values: %w", decoded, numValues, io.ErrUnexpectedEOF)
		}
		src = src[n:]

		if (u & 1) == 0 {
			count := int(u >> 1)
			if count > numValues-decoded {
				count = numValues - decoded
			}
			size := bitpack.ByteCount(bitWidth)
			if len(src) < size {
				return dst[:decoded], encoding.Errorf(format.RLE, "decoding repeated value of %d bytes: %w", size, io.ErrUnexpectedEOF)
			}
			v := uint32(0)
			for b := 0; b < size; b++ {
				v |= uint32(src[b]) << (8 * b)
			}
			src = src[size:]
			for i := 0; i < count; i++ {
				dst[decoded+i] = int32(v)
			}
			decoded += count
		} else {
			groups := int(u >> 1)
			size := groups * int(bitWidth)
			if len(src) < size {
				return dst[:decoded], encoding.Errorf(format.RLE, "decoding %d bit-packed groups of width %d: %w", groups, bitWidth, io.ErrUnexpectedEOF)
			}
			count := 8 * groups
			if count > numValues-decoded {
				count = numValues - decoded
			}
			bitpack.UnpackInt32(dst[decoded:decoded+count], src[:size], bitWidth)
			src = src[size:]
			decoded += count
		}
	}
	return dst, nil
}

// DecodeBoolean decodes numValues booleans from the RLE encoding of BOOLEAN
// data pages: a 4-byte little-endian length prefix followed by a hybrid
// stream of bit width 1.
func DecodeBoolean(dst []bool, src []byte, numValues int) ([]bool, error) {
	if len(src) < 4 {
		return dst[:0], encoding.Errorf(format.RLE, "input shorter than 4 bytes: %w", io.ErrUnexpectedEOF)
	}
	n := int(binary.LittleEndian.Uint32(src))
	src = src[4:]
	if n > len(src) {
		return dst[:0], encoding.Errorf(format.RLE, "input shorter than length prefix: %d < %d: %w", len(src), n, io.ErrUnexpectedEOF)
	}
	levels, err := DecodeLevels(nil, src[:n], 1, numValues)
	if err != nil {
		return dst[:0], err
	}
	dst = resizeBool(dst, numValues)
	for i, l := range levels {
		dst[i] = l != 0
	}
	return dst, nil
}

// DecodeIndexes decodes numValues dictionary indexes from the body of a
// dictionary-encoded data page, whose first byte carries the index bit width.
func DecodeIndexes(dst []int32, src []byte, numValues int) ([]int32, error) {
	if len(src) == 0 {
		return dst[:0], encoding.Errorf(format.RLEDictionary, "missing bit-width header byte: %w", io.ErrUnexpectedEOF)
	}
	bitWidth := uint(src[0])
	if bitWidth > 32 {
		return dst[:0], encoding.ErrInvalidBitWidth(format.RLEDictionary, bitWidth)
	}
	return DecodeInt32(dst, src[1:], bitWidth, numValues)
}

func resizeInt32(buf []int32, size int) []int32 {
	if cap(buf) < size {
		return make([]int32, size)
	}
	return buf[:size]
}

func resizeBool(buf []bool, size int) []bool {
	if cap(buf) < size {
		return make([]bool, size)
	}
	return buf[:size]
}
