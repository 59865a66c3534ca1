package hardwood

import (
	"encoding/binary"
	"testing"

	"github.com/segmentio/encoding/thrift"

	"github.com/rionmonster/hardwood/format"
	"github.com/rionmonster/hardwood/internal/enctest"
)

// The helpers below write parquet byte streams for the reader tests: page
// bodies come from the reference encoders in internal/enctest, page headers
// and the footer are marshalled with the reference thrift implementation.

func thriftMarshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := thrift.Marshal(new(thrift.CompactProtocol), v)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

type testPage struct {
	header *format.PageHeader
	body   []byte
}

// dataPageV1 lays out a v1 data page: length-prefixed repetition and
// definition level streams followed by the encoded values.
func dataPageV1(numValues int, enc format.Encoding, rep, def []byte, repWidth, defWidth uint, values []byte) testPage {
	var body []byte
	if rep != nil {
		body = append(body, enctest.LevelsV1(rep, repWidth)...)
	}
	if def != nil {
		body = append(body, enctest.LevelsV1(def, defWidth)...)
	}
	body = append(body, values...)
	return testPage{
		header: &format.PageHeader{
			Type:                 format.DataPage,
			UncompressedPageSize: int32(len(body)),
			CompressedPageSize:   int32(len(body)),
			DataPageHeader: &format.DataPageHeader{
				NumValues:               int32(numValues),
				Encoding:                enc,
				DefinitionLevelEncoding: format.RLE,
				RepetitionLevelEncoding: format.RLE,
			},
		},
		body: body,
	}
}

// dataPageV2 lays out a v2 data page: raw level streams followed by the
// values, which stay uncompressed here.
func dataPageV2(numValues, numNulls int, enc format.Encoding, rep, def []byte, repWidth, defWidth uint, values []byte) testPage {
	repStream := []byte{}
	if rep != nil {
		repStream = enctest.Levels(rep, repWidth)
	}
	defStream := []byte{}
	if def != nil {
		defStream = enctest.Levels(def, defWidth)
	}
	body := append(append(append([]byte{}, repStream...), defStream...), values...)
	compressed := false
	return testPage{
		header: &format.PageHeader{
			Type:                 format.DataPageV2,
			UncompressedPageSize: int32(len(body)),
			CompressedPageSize:   int32(len(body)),
			DataPageHeaderV2: &format.DataPageHeaderV2{
				NumValues:                  int32(numValues),
				NumNulls:                   int32(numNulls),
				NumRows:                    int32(numValues),
				Encoding:                   enc,
				DefinitionLevelsByteLength: int32(len(defStream)),
				RepetitionLevelsByteLength: int32(len(repStream)),
				IsCompressed:               &compressed,
			},
		},
		body: body,
	}
}

func dictionaryPage(numValues int, values []byte) testPage {
	return testPage{
		header: &format.PageHeader{
			Type:                 format.DictionaryPage,
			UncompressedPageSize: int32(len(values)),
			CompressedPageSize:   int32(len(values)),
			DictionaryPageHeader: &format.DictionaryPageHeader{
				NumValues: int32(numValues),
				Encoding:  format.Plain,
			},
		},
		body: values,
	}
}

// compressPage replaces a page's body with its compressed form.
func compressPage(p testPage, codec func([]byte) []byte) testPage {
	compressed := codec(p.body)
	p.header.CompressedPageSize = int32(len(compressed))
	p.body = compressed
	return p
}

// buildTestFile assembles a single-row-group parquet file from one page list
// per leaf column, in schema order.
func buildTestFile(t *testing.T, elements []format.SchemaElement, columns [][]testPage, numRows int64) []byte {
	t.Helper()
	return buildTestFileCodec(t, elements, columns, numRows, format.Uncompressed)
}

func buildTestFileCodec(t *testing.T, elements []format.SchemaElement, columns [][]testPage, numRows int64, codec format.CompressionCodec) []byte {
	t.Helper()

	schema, err := newSchema(elements)
	if err != nil {
		t.Fatal(err)
	}
	leaves := schema.Columns()
	if len(leaves) != len(columns) {
		t.Fatalf("%d page lists for %d leaf columns", len(columns), len(leaves))
	}

	buf := []byte(magic)
	chunks := make([]format.ColumnChunk, len(columns))

	for i, pages := range columns {
		leaf := leaves[i]
		meta := format.ColumnMetaData{
			Type:         leaf.PhysicalType(),
			PathInSchema: leaf.Path,
			Codec:        codec,
		}
		encodings := map[format.Encoding]bool{format.RLE: true}

		for _, p := range pages {
			offset := int64(len(buf))
			buf = append(buf, thriftMarshal(t, p.header)...)
			buf = append(buf, p.body...)

			switch p.header.Type {
			case format.DictionaryPage:
				meta.DictionaryPageOffset = offset
				encodings[format.Plain] = true
			case format.DataPage:
				if meta.DataPageOffset == 0 {
					meta.DataPageOffset = offset
				}
				meta.NumValues += int64(p.header.DataPageHeader.NumValues)
				encodings[p.header.DataPageHeader.Encoding] = true
			case format.DataPageV2:
				if meta.DataPageOffset == 0 {
					meta.DataPageOffset = offset
				}
				meta.NumValues += int64(p.header.DataPageHeaderV2.NumValues)
				encodings[p.header.DataPageHeaderV2.Encoding] = true
			}
			meta.TotalCompressedSize += int64(len(p.body))
			meta.TotalUncompressedSize += int64(p.header.UncompressedPageSize)
		}

		for enc := range encodings {
			meta.Encoding = append(meta.Encoding, enc)
		}
		chunks[i] = format.ColumnChunk{
			FileOffset: meta.DataPageOffset,
			MetaData:   meta,
		}
	}

	metadata := &format.FileMetaData{
		Version: 1,
		Schema:  elements,
		NumRows: numRows,
		RowGroups: []format.RowGroup{
			{
				Columns:       chunks,
				TotalByteSize: int64(len(buf)) - 4,
				NumRows:       numRows,
			},
		},
		CreatedBy: "hardwood test suite",
	}

	footer := thriftMarshal(t, metadata)
	buf = append(buf, footer...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(footer)))
	return append(buf, magic...)
}

// Schema element constructors.

func group(name string, numChildren int32) format.SchemaElement {
	return format.SchemaElement{Name: name, NumChildren: numChildren}
}

func groupWith(name string, numChildren int32, rep format.FieldRepetitionType, converted *format.ConvertedType, logical *format.LogicalType) format.SchemaElement {
	return format.SchemaElement{
		Name:           name,
		NumChildren:    numChildren,
		RepetitionType: &rep,
		ConvertedType:  converted,
		LogicalType:    logical,
	}
}

func leaf(name string, typ format.Type, rep format.FieldRepetitionType) format.SchemaElement {
	return format.SchemaElement{
		Name:           name,
		Type:           &typ,
		RepetitionType: &rep,
	}
}

func leafWith(name string, typ format.Type, rep format.FieldRepetitionType, mutate func(*format.SchemaElement)) format.SchemaElement {
	e := leaf(name, typ, rep)
	mutate(&e)
	return e
}

func utf8() *format.ConvertedType {
	ct := format.UTF8
	return &ct
}

func listConverted() *format.ConvertedType {
	ct := format.List
	return &ct
}
