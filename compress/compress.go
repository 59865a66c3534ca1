// Package compress provides the generic APIs implemented by parquet
// decompression codecs.
//
// https://github.com/apache/parquet-format/blob/master/Compression.md
package compress

import (
	"fmt"

	"github.com/rionmonster/hardwood/format"
)

// The Decompressor interface represents parquet compression codecs on the
// read path.
//
// Decompressor instances must be safe to use concurrently from multiple
// goroutines.
type Decompressor interface {
	// Returns a human-readable name for the codec.
	String() string

	// Returns the code of the compression codec in the parquet format.
	CompressionCodec() format.CompressionCodec

	// Writes the uncompressed version of src to dst and returns it. The
	// caller sizes dst to the expected uncompressed length; the method
	// reallocates the buffer if its capacity was too small to hold the
	// uncompressed data.
	Decode(dst, src []byte) ([]byte, error)
}

// Registry maps codec ids to decompressors. A registry is immutable once
// shared with a reader.
type Registry struct {
	codecs map[format.CompressionCodec]Decompressor
}

// NewRegistry constructs a registry holding the given decompressors.
func NewRegistry(codecs ...Decompressor) *Registry {
	r := &Registry{codecs: make(map[format.CompressionCodec]Decompressor, len(codecs))}
	for _, c := range codecs {
		r.codecs[c.CompressionCodec()] = c
	}
	return r
}

// Register adds or replaces the decompressor for its codec id.
func (r *Registry) Register(d Decompressor) {
	r.codecs[d.CompressionCodec()] = d
}

// Lookup returns the decompressor registered for the given codec id.
func (r *Registry) Lookup(codec format.CompressionCodec) (Decompressor, error) {
	if d, ok := r.codecs[codec]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("unsupported compression codec: %s", codec)
}
