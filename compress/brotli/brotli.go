// Package brotli implements the BROTLI parquet compression codec.
package brotli

import (
	"bytes"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/rionmonster/hardwood/format"
)

type Codec struct{}

func (c *Codec) String() string {
	return "BROTLI"
}

func (c *Codec) CompressionCodec() format.CompressionCodec {
	return format.Brotli
}

func (c *Codec) Decode(dst, src []byte) ([]byte, error) {
	output := bytes.NewBuffer(dst[:0])
	_, err := io.Copy(output, brotli.NewReader(bytes.NewReader(src)))
	return output.Bytes(), err
}
