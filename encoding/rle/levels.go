package rle

import (
	"encoding/binary"
	"io"

	"github.com/rionmonster/hardwood/encoding"
	"github.com/rionmonster/hardwood/format"
)

// DecodeLevels decodes numValues definition or repetition levels from the
// hybrid stream in src. Levels fit in a byte; the bit width is
// ceil(log2(maxLevel+1)).
func DecodeLevels(dst []byte, src []byte, bitWidth uint, numValues int) ([]byte, error) {
	if bitWidth > 8 {
		return dst[:0], encoding.ErrInvalidBitWidth(format.RLE, bitWidth)
	}
	dst = resizeLevels(dst, numValues)
	decoded := 0
	for decoded < numValues {
		u, n := binary.Uvarint(src)
		if n <= 0 {
			return dst[:decoded], encoding.Errorf(format.RLE, "decoding run header after %d of %d levels: %w", decoded, numValues, io.ErrUnexpectedEOF)
		}
		src = src[n:]

		if (u & 1) == 0 {
			count := int(u >> 1)
			if count > numValues-decoded {
				count = numValues - decoded
			}
			v := byte(0)
			if bitWidth != 0 {
				if len(src) < 1 {
					return dst[:decoded], encoding.Errorf(format.RLE, "decoding repeated level: %w", io.ErrUnexpectedEOF)
				}
				v = src[0]
				src = src[1:]
			}
			for i := 0; i < count; i++ {
				dst[decoded+i] = v
			}
			decoded += count
		} else {
			groups := int(u >> 1)
			size := groups * int(bitWidth)
			if len(src) < size {
				return dst[:decoded], encoding.Errorf(format.RLE, "decoding %d bit-packed level groups of width %d: %w", groups, bitWidth, io.ErrUnexpectedEOF)
			}
			count := 8 * groups
			if count > numValues-decoded {
				count = numValues - decoded
			}
			unpackLevels(dst[decoded:decoded+count], src[:size], bitWidth)
			src = src[size:]
			decoded += count
		}
	}
	return dst, nil
}

// DecodeLevelsCount is the fused form of DecodeLevels used for definition
// levels: it also returns the number of decoded levels equal to max, which is
// the count of values present in the page.
func DecodeLevelsCount(dst []byte, src []byte, bitWidth uint, numValues int, max byte) ([]byte, int, error) {
	dst, err := DecodeLevels(dst, src, bitWidth, numValues)
	if err != nil {
		return dst, 0, err
	}
	return dst, CountLevelsEqual(dst, max), nil
}

// CountLevelsEqual returns the number of levels equal to the given value.
func CountLevelsEqual(levels []byte, value byte) int {
	n := 0
	for _, l := range levels {
		if l == value {
			n++
		}
	}
	return n
}

func unpackLevels(dst []byte, src []byte, bitWidth uint) {
	bitOffset := uint(0)
	for i := range dst {
		v := byte(0)
		for b := uint(0); b < bitWidth; b++ {
			x := (bitOffset + b) / 8
			y := (bitOffset + b) % 8
			v |= ((src[x] >> y) & 1) << b
		}
		dst[i] = v
		bitOffset += bitWidth
	}
}

func resizeLevels(buf []byte, size int) []byte {
	if cap(buf) < size {
		return make([]byte, size)
	}
	return buf[:size]
}
