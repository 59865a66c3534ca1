// Package bits implements small helpers to work on sizes and counts expressed
// in bits.
package bits

import "math/bits"

// BitCount returns the number of bits in the given byte count.
func BitCount(byteCount int) uint {
	return 8 * uint(byteCount)
}

// ByteCount returns the number of bytes needed to hold the given bit count.
func ByteCount(bitCount uint) int {
	return int((bitCount + 7) / 8)
}

// Len returns the minimum number of bits required to represent v.
func Len(v int) int {
	return bits.Len(uint(v))
}

// Len32 returns the minimum number of bits required to represent v.
func Len32(v int32) int {
	return bits.Len32(uint32(v))
}

// Len64 returns the minimum number of bits required to represent v.
func Len64(v int64) int {
	return bits.Len64(uint64(v))
}
