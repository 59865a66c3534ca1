package format_test

import (
	"reflect"
	"testing"

	"github.com/segmentio/encoding/thrift"

	"github.com/rionmonster/hardwood/format"
)

// The tests below use the reference thrift implementation as the encoder and
// check that the hand-written decoder reproduces the original structs.

func marshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := thrift.Marshal(new(thrift.CompactProtocol), v)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func schemaType(t format.Type) *format.Type { return &t }

func repetitionType(t format.FieldRepetitionType) *format.FieldRepetitionType { return &t }

func convertedType(t format.ConvertedType) *format.ConvertedType { return &t }

func int32Ptr(v int32) *int32 { return &v }

func TestDecodeFileMetaData(t *testing.T) {
	metadata := &format.FileMetaData{
		Version: 1,
		Schema: []format.SchemaElement{
			{
				Name:        "example",
				NumChildren: 3,
			},
			{
				Type:           schemaType(format.Int64),
				RepetitionType: repetitionType(format.Required),
				Name:           "id",
			},
			{
				Type:           schemaType(format.ByteArray),
				RepetitionType: repetitionType(format.Optional),
				Name:           "name",
				ConvertedType:  convertedType(format.UTF8),
				LogicalType:    &format.LogicalType{UTF8: new(format.StringType)},
			},
			{
				Type:           schemaType(format.FixedLenByteArray),
				TypeLength:     int32Ptr(9),
				RepetitionType: repetitionType(format.Optional),
				Name:           "balance",
				ConvertedType:  convertedType(format.Decimal),
				Scale:          int32Ptr(2),
				Precision:      int32Ptr(18),
				LogicalType: &format.LogicalType{
					Decimal: &format.DecimalType{Scale: 2, Precision: 18},
				},
			},
		},
		NumRows: 42,
		RowGroups: []format.RowGroup{
			{
				Columns: []format.ColumnChunk{
					{
						FileOffset: 4,
						MetaData: format.ColumnMetaData{
							Type:                  format.Int64,
							Encoding:              []format.Encoding{format.Plain, format.RLE},
							PathInSchema:          []string{"id"},
							Codec:                 format.Snappy,
							NumValues:             42,
							TotalUncompressedSize: 1024,
							TotalCompressedSize:   512,
							DataPageOffset:        4,
						},
					},
				},
				TotalByteSize: 1024,
				NumRows:       42,
			},
		},
		KeyValueMetadata: []format.KeyValue{
			{Key: "writer.model.name", Value: "example"},
		},
		CreatedBy: "hardwood test suite",
	}

	decoded, err := format.DecodeFileMetaData(marshal(t, metadata))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(metadata, decoded) {
		t.Error("values mismatch:")
		t.Logf("expected:\n%#v", metadata)
		t.Logf("found:\n%#v", decoded)
	}
}

func TestDecodeFileMetaDataLogicalTypes(t *testing.T) {
	isAdjusted := true
	metadata := &format.FileMetaData{
		Version: 2,
		Schema: []format.SchemaElement{
			{Name: "types", NumChildren: 4},
			{
				Type:           schemaType(format.Int64),
				RepetitionType: repetitionType(format.Required),
				Name:           "created_at",
				LogicalType: &format.LogicalType{
					Timestamp: &format.TimestampType{
						IsAdjustedToUTC: isAdjusted,
						Unit:            format.TimeUnit{Millis: new(format.MilliSeconds)},
					},
				},
			},
			{
				Type:           schemaType(format.Int32),
				RepetitionType: repetitionType(format.Optional),
				Name:           "birth_date",
				LogicalType:    &format.LogicalType{Date: new(format.DateType)},
			},
			{
				Type:           schemaType(format.FixedLenByteArray),
				TypeLength:     int32Ptr(16),
				RepetitionType: repetitionType(format.Required),
				Name:           "account_id",
				LogicalType:    &format.LogicalType{UUID: new(format.UUIDType)},
			},
			{
				Type:           schemaType(format.Int32),
				RepetitionType: repetitionType(format.Required),
				Name:           "age",
				LogicalType: &format.LogicalType{
					Integer: &format.IntType{BitWidth: 8, IsSigned: false},
				},
			},
		},
		NumRows:   0,
		RowGroups: []format.RowGroup{},
	}

	decoded, err := format.DecodeFileMetaData(marshal(t, metadata))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(metadata, decoded) {
		t.Error("values mismatch:")
		t.Logf("expected:\n%#v", metadata)
		t.Logf("found:\n%#v", decoded)
	}
}

func TestDecodePageHeader(t *testing.T) {
	header := &format.PageHeader{
		Type:                 format.DataPage,
		UncompressedPageSize: 1024,
		CompressedPageSize:   512,
		DataPageHeader: &format.DataPageHeader{
			NumValues:               100,
			Encoding:                format.Plain,
			DefinitionLevelEncoding: format.RLE,
			RepetitionLevelEncoding: format.RLE,
		},
	}

	input := marshal(t, header)
	decoded, n, err := format.DecodePageHeader(input)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(input) {
		t.Errorf("consumed %d of %d bytes", n, len(input))
	}
	if !reflect.DeepEqual(header, decoded) {
		t.Errorf("values mismatch:\nexpected: %#v\nfound:    %#v", header, decoded)
	}
}

func TestDecodePageHeaderTrailingBytes(t *testing.T) {
	header := &format.PageHeader{
		Type:                 format.DataPageV2,
		UncompressedPageSize: 256,
		CompressedPageSize:   256,
		DataPageHeaderV2: &format.DataPageHeaderV2{
			NumValues:                  10,
			NumNulls:                   2,
			NumRows:                    10,
			Encoding:                   format.DeltaBinaryPacked,
			DefinitionLevelsByteLength: 6,
			RepetitionLevelsByteLength: 0,
		},
	}

	input := marshal(t, header)
	body := append(append([]byte(nil), input...), 0xde, 0xad, 0xbe, 0xef)
	decoded, n, err := format.DecodePageHeader(body)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(input) {
		t.Errorf("consumed %d bytes, the header occupies %d", n, len(input))
	}
	if !reflect.DeepEqual(header, decoded) {
		t.Errorf("values mismatch:\nexpected: %#v\nfound:    %#v", header, decoded)
	}
}

func TestDecodeFileMetaDataTruncated(t *testing.T) {
	metadata := &format.FileMetaData{Version: 1, NumRows: 1}
	input := marshal(t, metadata)
	if _, err := format.DecodeFileMetaData(input[:len(input)-1]); err == nil {
		t.Error("decoding a truncated footer did not fail")
	}
}

func TestHasDictionary(t *testing.T) {
	meta := &format.ColumnMetaData{
		Encoding: []format.Encoding{format.Plain, format.RLE},
	}
	if meta.HasDictionary() {
		t.Error("PLAIN chunk reported a dictionary")
	}
	meta.Encoding = append(meta.Encoding, format.RLEDictionary)
	if !meta.HasDictionary() {
		t.Error("RLE_DICTIONARY chunk reported no dictionary")
	}
}
