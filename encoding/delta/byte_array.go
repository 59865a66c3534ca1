package delta

import (
	"github.com/rionmonster/hardwood/encoding"
	"github.com/rionmonster/hardwood/format"
)

// DecodeByteArray decodes DELTA_BYTE_ARRAY values: a DELTA_BINARY_PACKED run
// of prefix lengths shared with the previous value, a second run of suffix
// lengths, then the concatenated suffix bytes. Each value owns its buffer.
func DecodeByteArray(dst [][]byte, src []byte) ([][]byte, error) {
	prefixes, rest, err := DecodeInt32(nil, src)
	if err != nil {
		return dst[:0], encoding.Error(format.DeltaByteArray, err)
	}
	suffixes, rest, err := DecodeInt32(nil, rest)
	if err != nil {
		return dst[:0], encoding.Error(format.DeltaByteArray, err)
	}
	if len(prefixes) != len(suffixes) {
		return dst[:0], encoding.Errorf(format.DeltaByteArray, "%d prefix lengths for %d suffix lengths: %w", len(prefixes), len(suffixes), encoding.ErrInvalidArgument)
	}

	dst = dst[:0]
	var prev []byte
	for i := range prefixes {
		p, s := int(prefixes[i]), int(suffixes[i])
		if p < 0 || p > len(prev) {
			return dst, encoding.Errorf(format.DeltaByteArray, "prefix of length %d references only %d previous bytes: %w", p, len(prev), encoding.ErrInvalidArgument)
		}
		if s < 0 || s > len(rest) {
			return dst, encoding.Errorf(format.DeltaByteArray, "suffix of length %d exceeds the %d remaining input bytes: %w", s, len(rest), encoding.ErrInvalidArgument)
		}
		v := make([]byte, 0, p+s)
		v = append(v, prev[:p]...)
		v = append(v, rest[:s]...)
		rest = rest[s:]
		dst = append(dst, v)
		prev = v
	}
	return dst, nil
}
