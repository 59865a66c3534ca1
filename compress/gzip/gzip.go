// Package gzip implements the GZIP parquet compression codec.
package gzip

import (
	"bytes"
	"io"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/rionmonster/hardwood/format"
)

type Codec struct {
	readers sync.Pool
}

func (c *Codec) String() string {
	return "GZIP"
}

func (c *Codec) CompressionCodec() format.CompressionCodec {
	return format.Gzip
}

func (c *Codec) Decode(dst, src []byte) ([]byte, error) {
	r, _ := c.readers.Get().(*gzip.Reader)
	if r != nil {
		if err := r.Reset(bytes.NewReader(src)); err != nil {
			return dst[:0], err
		}
	} else {
		var err error
		if r, err = gzip.NewReader(bytes.NewReader(src)); err != nil {
			return dst[:0], err
		}
	}
	defer c.readers.Put(r)

	output := bytes.NewBuffer(dst[:0])
	_, err := io.Copy(output, r)
	if err != nil {
		return output.Bytes(), err
	}
	return output.Bytes(), r.Close()
}
