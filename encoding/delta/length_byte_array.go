package delta

import (
	"github.com/rionmonster/hardwood/encoding"
	"github.com/rionmonster/hardwood/format"
)

// DecodeLengthByteArray decodes DELTA_LENGTH_BYTE_ARRAY values: one
// DELTA_BINARY_PACKED run of byte lengths followed by the concatenated value
// bytes. The returned slices alias src.
func DecodeLengthByteArray(dst [][]byte, src []byte) ([][]byte, error) {
	lengths, rest, err := DecodeInt32(nil, src)
	if err != nil {
		return dst[:0], encoding.Error(format.DeltaLengthByteArray, err)
	}
	dst = dst[:0]
	for _, n := range lengths {
		if n < 0 || int(n) > len(rest) {
			return dst, encoding.Errorf(format.DeltaLengthByteArray, "value of length %d exceeds the %d remaining input bytes: %w", n, len(rest), encoding.ErrInvalidArgument)
		}
		dst = append(dst, rest[:n:n])
		rest = rest[n:]
	}
	return dst, nil
}
