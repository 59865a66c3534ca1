package hardwood

import (
	"sync"

	"github.com/rionmonster/hardwood/format"
	"github.com/rionmonster/hardwood/internal/debug"
)

// PageInfo locates one page inside a column chunk: its decoded header and
// the byte range of its (still compressed) body within the file mapping.
// PageInfo values stay valid for the lifetime of the owning file.
type PageInfo struct {
	header *format.PageHeader
	body   []byte
	chunk  *chunkPages
}

// NumValues returns the number of values held by the page, nulls included.
func (p *PageInfo) NumValues() int {
	switch {
	case p.header.DataPageHeader != nil:
		return int(p.header.DataPageHeader.NumValues)
	case p.header.DataPageHeaderV2 != nil:
		return int(p.header.DataPageHeaderV2.NumValues)
	case p.header.DictionaryPageHeader != nil:
		return int(p.header.DictionaryPageHeader.NumValues)
	default:
		return 0
	}
}

// chunkPages carries the per-chunk state shared by the chunk's pages: the
// column, the chunk metadata, and the lazily decoded dictionary.
type chunkPages struct {
	column *ColumnSchema
	meta   *format.ColumnMetaData
	config *FileConfig

	dictInfo *PageInfo
	dictOnce sync.Once
	dict     *Dictionary
	dictErr  error
}

// dictionary decodes the chunk's dictionary page on first use. The decoded
// dictionary outlives all data pages of the chunk.
func (c *chunkPages) dictionary() (*Dictionary, error) {
	if c.dictInfo == nil {
		return nil, nil
	}
	c.dictOnce.Do(func() {
		hdr := c.dictInfo.header.DictionaryPageHeader
		if enc := hdr.Encoding; enc != format.Plain && enc != format.PlainDictionary {
			c.dictErr = errUnsupportedf("column %q: dictionary page encoding %s", c.column.Name(), enc)
			return
		}
		body, err := c.decompress(c.dictInfo.body, int(c.dictInfo.header.UncompressedPageSize))
		if err != nil {
			c.dictErr = err
			return
		}
		c.dict, c.dictErr = newDictionary(c.column, int(hdr.NumValues), body)
	})
	return c.dict, c.dictErr
}

// scanColumnChunk walks the byte range of one column chunk and materializes
// the ordered list of its pages. Headers are parsed; bodies are not touched.
// The walk starts at the lower of the dictionary and first data page offsets
// (the dictionary offset counts only when the chunk's encoding set announces
// a dictionary) and stops once the data pages account for the chunk's value
// count.
func scanColumnChunk(data []byte, column *ColumnSchema, chunk *format.ColumnChunk, config *FileConfig) ([]*PageInfo, error) {
	meta := &chunk.MetaData
	offset := meta.DataPageOffset
	if meta.HasDictionary() && meta.DictionaryPageOffset > 0 && meta.DictionaryPageOffset < offset {
		offset = meta.DictionaryPageOffset
	}

	c := &chunkPages{column: column, meta: meta, config: config}
	var pages []*PageInfo
	numValues := int64(0)

	for numValues < meta.NumValues {
		if offset < 0 || offset >= int64(len(data)) {
			return nil, errMalformedf("column %q: page header at offset %d outside the file", column.Name(), offset)
		}
		header, headerSize, err := format.DecodePageHeader(data[offset:])
		if err != nil {
			return nil, errMalformedf("column %q: page header at offset %d: %s", column.Name(), offset, err)
		}
		bodyOffset := offset + int64(headerSize)
		bodySize := int64(header.CompressedPageSize)
		if bodySize < 0 || bodyOffset+bodySize > int64(len(data)) {
			return nil, errMalformedf("column %q: page body of %d bytes at offset %d overflows the file", column.Name(), bodySize, bodyOffset)
		}

		info := &PageInfo{
			header: header,
			body:   data[bodyOffset : bodyOffset+bodySize : bodyOffset+bodySize],
			chunk:  c,
		}

		switch header.Type {
		case format.DictionaryPage:
			if header.DictionaryPageHeader == nil {
				return nil, errMalformedf("column %q: DICTIONARY_PAGE without a dictionary page header", column.Name())
			}
			if c.dictInfo != nil {
				return nil, errMalformedf("column %q: second dictionary page at offset %d", column.Name(), offset)
			}
			c.dictInfo = info
		case format.DataPage, format.DataPageV2:
			pages = append(pages, info)
			numValues += int64(info.NumValues())
		default:
			return nil, errUnsupportedf("column %q: page type %s at offset %d", column.Name(), header.Type, offset)
		}

		offset = bodyOffset + bodySize
	}

	if numValues != meta.NumValues {
		return nil, errMalformedf("column %q: data pages hold %d values, the chunk metadata announces %d", column.Name(), numValues, meta.NumValues)
	}
	debug.Format("hardwood: column %q: %d pages, %d values", column.Name(), len(pages), numValues)
	return pages, nil
}
