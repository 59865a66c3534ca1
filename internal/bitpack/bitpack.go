// Package bitpack implements unpacking routines for the little-endian
// bit-packed integer layout used by the parquet RLE/bit-packing hybrid and
// DELTA_BINARY_PACKED encodings.
package bitpack

// ByteCount returns the number of bytes needed to hold the given bit count.
func ByteCount(bitCount uint) int {
	return int((bitCount + 7) / 8)
}

// UnpackInt32 unpacks len(dst) values of the given bit width from src into
// dst. Values are packed least-significant bit first, each spanning bitWidth
// consecutive bits of the input.
func UnpackInt32(dst []int32, src []byte, bitWidth uint) {
	bitOffset := uint(0)
	for i := range dst {
		dst[i] = int32(unpack(src, bitOffset, bitWidth))
		bitOffset += bitWidth
	}
}

// UnpackInt64 unpacks len(dst) values of the given bit width from src into
// dst.
func UnpackInt64(dst []int64, src []byte, bitWidth uint) {
	bitOffset := uint(0)
	for i := range dst {
		dst[i] = int64(unpack(src, bitOffset, bitWidth))
		bitOffset += bitWidth
	}
}

func unpack(src []byte, bitOffset, bitWidth uint) uint64 {
	v := uint64(0)
	for b := uint(0); b < bitWidth; b++ {
		x := (bitOffset + b) / 8
		y := (bitOffset + b) % 8
		v |= uint64((src[x]>>y)&1) << b
	}
	return v
}
