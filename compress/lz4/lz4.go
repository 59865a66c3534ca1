// Package lz4 implements the LZ4_RAW and legacy LZ4 parquet compression
// codecs.
package lz4

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pierrec/lz4/v4"
	"github.com/rionmonster/hardwood/format"
)

// The LZ4 frame format starts with this magic number; the legacy LZ4 codec id
// does not say whether the body is framed or a raw block, so the reader
// detects the frame and falls back to the raw block format.
const frameMagic = 0x184D2204

// Codec implements the LZ4_RAW codec: page bodies are single raw lz4 blocks.
type Codec struct{}

func (c *Codec) String() string {
	return "LZ4_RAW"
}

func (c *Codec) CompressionCodec() format.CompressionCodec {
	return format.Lz4Raw
}

func (c *Codec) Decode(dst, src []byte) ([]byte, error) {
	dst = dst[:cap(dst)]
	for {
		n, err := lz4.UncompressBlock(src, dst)
		if err == nil {
			return dst[:n], nil
		}
		if len(dst) > 4*len(src) && len(dst) > 1024*1024 {
			return dst[:0], err
		}
		// The caller's expected size may be missing (zero); grow and retry.
		size := 2 * len(dst)
		if n := 4 * len(src); n > size {
			size = n
		}
		dst = make([]byte, size)
	}
}

// LegacyCodec implements the ambiguous LZ4 codec id: bodies written by Hadoop
// tools use the frame format, others a raw block.
type LegacyCodec struct {
	raw Codec
}

func (c *LegacyCodec) String() string {
	return "LZ4"
}

func (c *LegacyCodec) CompressionCodec() format.CompressionCodec {
	return format.Lz4
}

func (c *LegacyCodec) Decode(dst, src []byte) ([]byte, error) {
	if len(src) >= 4 && binary.LittleEndian.Uint32(src) == frameMagic {
		output := bytes.NewBuffer(dst[:0])
		_, err := io.Copy(output, lz4.NewReader(bytes.NewReader(src)))
		if err == nil {
			return output.Bytes(), nil
		}
	}
	return c.raw.Decode(dst, src)
}
