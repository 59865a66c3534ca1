// Package deprecated provides implementations of the INT96 parquet type,
// which is deprecated in the format but still found in files written by
// legacy tools.
package deprecated

import (
	"encoding/binary"
	"math/big"
)

// Int96 is an implementation of the deprecated INT96 parquet type.
//
// The value is stored as three little-endian 32-bit words, least significant
// first, matching the 12-byte wire layout of the PLAIN encoding.
type Int96 [3]uint32

// FromBytes decodes an Int96 from its 12-byte little-endian wire form.
func FromBytes(b []byte) Int96 {
	return Int96{
		binary.LittleEndian.Uint32(b[0:4]),
		binary.LittleEndian.Uint32(b[4:8]),
		binary.LittleEndian.Uint32(b[8:12]),
	}
}

// Bytes returns the 12-byte little-endian wire form of i.
func (i Int96) Bytes() [12]byte {
	b := [12]byte{}
	binary.LittleEndian.PutUint32(b[0:4], i[0])
	binary.LittleEndian.PutUint32(b[4:8], i[1])
	binary.LittleEndian.PutUint32(b[8:12], i[2])
	return b
}

// Negative returns true if i is a negative value.
func (i Int96) Negative() bool {
	return (i[2] >> 31) != 0
}

// Int converts i to a big.Int representation.
func (i Int96) Int() *big.Int {
	z := new(big.Int)
	z.Or(z, big.NewInt(int64(int32(i[2]))))
	z.Lsh(z, 32)
	z.Or(z, big.NewInt(int64(i[1])))
	z.Lsh(z, 32)
	z.Or(z, big.NewInt(int64(i[0])))
	return z
}

// String returns a string representation of i.
func (i Int96) String() string {
	return i.Int().String()
}

// JulianDay splits a legacy INT96 timestamp into its julian day number and
// nanoseconds within the day.
func (i Int96) JulianDay() (day uint32, nanos uint64) {
	return i[2], uint64(i[1])<<32 | uint64(i[0])
}
