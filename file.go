package hardwood

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/rionmonster/hardwood/format"
	"github.com/rionmonster/hardwood/internal/debug"
	"github.com/rionmonster/hardwood/internal/mmap"
)

// The layout of a parquet file can be found here:
// https://github.com/apache/parquet-format#file-format
const magic = "PAR1"

// File represents an open parquet file. The file's content is memory mapped
// from open until close; pages reference sub-ranges of the mapping and stay
// valid for the lifetime of the file.
type File struct {
	path     string
	mapping  *mmap.Mapping
	data     []byte
	config   *FileConfig
	metadata *format.FileMetaData
	schema   *Schema
}

// Open opens the parquet file at the given path, validating the magic bytes
// and decoding the footer. Column chunks and pages are left untouched until
// a row cursor reads them.
func Open(path string, options ...Option) (*File, error) {
	c, err := NewFileConfig(options...)
	if err != nil {
		return nil, err
	}
	m, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	f, err := openFile(path, m.Data, c)
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.mapping = m
	return f, nil
}

// OpenBuffer reads a parquet file already loaded in memory. The returned
// file references data until closed.
func OpenBuffer(data []byte, options ...Option) (*File, error) {
	c, err := NewFileConfig(options...)
	if err != nil {
		return nil, err
	}
	return openFile("", data, c)
}

func openFile(path string, data []byte, c *FileConfig) (*File, error) {
	if len(data) < 2*len(magic)+4 {
		return nil, errMalformedf("%d bytes cannot hold a parquet file", len(data))
	}
	if string(data[:4]) != magic {
		return nil, errMalformedf("invalid magic header %q at offset 0", data[:4])
	}
	if tail := data[len(data)-4:]; string(tail) != magic {
		return nil, errMalformedf("invalid magic footer %q at offset %d", tail, len(data)-4)
	}

	footerSize := int64(binary.LittleEndian.Uint32(data[len(data)-8:]))
	footerOffset := int64(len(data)) - (footerSize + 8)
	if footerOffset < 4 {
		return nil, errMalformedf("footer of length %d overflows the file", footerSize)
	}
	debug.Format("hardwood: %s: footer of %d bytes at offset %d", path, footerSize, footerOffset)

	metadata, err := format.DecodeFileMetaData(data[footerOffset : footerOffset+footerSize])
	if err != nil {
		return nil, errMalformedf("footer at offset %d: %s", footerOffset, err)
	}

	schema, err := newSchema(metadata.Schema)
	if err != nil {
		return nil, err
	}

	f := &File{
		path:     path,
		data:     data,
		config:   c,
		metadata: metadata,
		schema:   schema,
	}
	if err := f.validateMetadata(); err != nil {
		return nil, err
	}
	sortKeyValueMetadata(metadata.KeyValueMetadata)
	return f, nil
}

// validateMetadata checks that every row group carries one chunk per column
// and that each chunk's data page offset lies inside the file.
func (f *File) validateMetadata() error {
	numColumns := len(f.schema.columns)
	for i := range f.metadata.RowGroups {
		g := &f.metadata.RowGroups[i]
		if len(g.Columns) != numColumns {
			return errMalformedf("row group %d holds %d column chunks for %d columns", i, len(g.Columns), numColumns)
		}
		for j := range g.Columns {
			meta := &g.Columns[j].MetaData
			if meta.DataPageOffset < 0 || meta.DataPageOffset >= int64(len(f.data)) {
				return errMalformedf("row group %d column %d data pages at offset %d outside the file", i, j, meta.DataPageOffset)
			}
		}
	}
	return nil
}

// Path returns the path the file was opened from, if any.
func (f *File) Path() string { return f.path }

// Size returns the size of the file in bytes.
func (f *File) Size() int64 { return int64(len(f.data)) }

// Schema returns the typed schema of the file.
func (f *File) Schema() *Schema { return f.schema }

// Metadata returns the decoded footer of the file.
func (f *File) Metadata() *format.FileMetaData { return f.metadata }

// NumRows returns the number of rows recorded in the footer.
func (f *File) NumRows() int64 { return f.metadata.NumRows }

// Lookup returns the value associated with the given key in the file's
// key/value metadata.
func (f *File) Lookup(key string) (string, bool) {
	kv := f.metadata.KeyValueMetadata
	i := sort.Search(len(kv), func(i int) bool { return kv[i].Key >= key })
	if i < len(kv) && kv[i].Key == key {
		return kv[i].Value, true
	}
	return "", false
}

// RowCursor returns a cursor over the rows of the file. The cursor borrows
// the file and must be closed before it.
func (f *File) RowCursor(options ...Option) (*RowCursor, error) {
	c, err := NewCursorConfig(options...)
	if err != nil {
		return nil, err
	}
	return newRowCursor(f, c)
}

// Close releases the memory mapping. Pages and batches referencing the file
// must not be used afterwards.
func (f *File) Close() error {
	f.data = nil
	if f.mapping != nil {
		m := f.mapping
		f.mapping = nil
		return m.Close()
	}
	return nil
}

func sortKeyValueMetadata(kv []format.KeyValue) {
	sort.Slice(kv, func(i, j int) bool {
		switch {
		case kv[i].Key < kv[j].Key:
			return true
		case kv[i].Key > kv[j].Key:
			return false
		default:
			return kv[i].Value < kv[j].Value
		}
	})
}
