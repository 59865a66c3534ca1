// Package format defines the data types of the parquet file metadata, mapped
// from the thrift definition of the format.
//
// https://github.com/apache/parquet-format/blob/master/src/main/thrift/parquet.thrift
//
// The thrift struct tags document the field ids of the compact protocol
// encoding; the hand-written decoders in decode.go follow them.
package format

import "fmt"

// Type is the physical type of a parquet column.
type Type int32

const (
	Boolean           Type = 0
	Int32             Type = 1
	Int64             Type = 2
	Int96             Type = 3
	Float             Type = 4
	Double            Type = 5
	ByteArray         Type = 6
	FixedLenByteArray Type = 7
)

func (t Type) String() string {
	switch t {
	case Boolean:
		return "BOOLEAN"
	case Int32:
		return "INT32"
	case Int64:
		return "INT64"
	case Int96:
		return "INT96"
	case Float:
		return "FLOAT"
	case Double:
		return "DOUBLE"
	case ByteArray:
		return "BYTE_ARRAY"
	case FixedLenByteArray:
		return "FIXED_LEN_BYTE_ARRAY"
	default:
		return fmt.Sprintf("Type(%d)", int32(t))
	}
}

// ConvertedType is the legacy annotation refining the meaning of a physical
// type, superseded by LogicalType.
type ConvertedType int32

const (
	UTF8            ConvertedType = 0
	Map             ConvertedType = 1
	MapKeyValue     ConvertedType = 2
	List            ConvertedType = 3
	Enum            ConvertedType = 4
	Decimal         ConvertedType = 5
	Date            ConvertedType = 6
	TimeMillis      ConvertedType = 7
	TimeMicros      ConvertedType = 8
	TimestampMillis ConvertedType = 9
	TimestampMicros ConvertedType = 10
	Uint8           ConvertedType = 11
	Uint16          ConvertedType = 12
	Uint32          ConvertedType = 13
	Uint64          ConvertedType = 14
	Int8            ConvertedType = 15
	Int16           ConvertedType = 16
	Int32Type       ConvertedType = 17
	Int64Type       ConvertedType = 18
	Json            ConvertedType = 19
	Bson            ConvertedType = 20
	Interval        ConvertedType = 21
)

func (t ConvertedType) String() string {
	switch t {
	case UTF8:
		return "UTF8"
	case Map:
		return "MAP"
	case MapKeyValue:
		return "MAP_KEY_VALUE"
	case List:
		return "LIST"
	case Enum:
		return "ENUM"
	case Decimal:
		return "DECIMAL"
	case Date:
		return "DATE"
	case TimeMillis:
		return "TIME_MILLIS"
	case TimeMicros:
		return "TIME_MICROS"
	case TimestampMillis:
		return "TIMESTAMP_MILLIS"
	case TimestampMicros:
		return "TIMESTAMP_MICROS"
	case Uint8:
		return "UINT_8"
	case Uint16:
		return "UINT_16"
	case Uint32:
		return "UINT_32"
	case Uint64:
		return "UINT_64"
	case Int8:
		return "INT_8"
	case Int16:
		return "INT_16"
	case Int32Type:
		return "INT_32"
	case Int64Type:
		return "INT_64"
	case Json:
		return "JSON"
	case Bson:
		return "BSON"
	case Interval:
		return "INTERVAL"
	default:
		return fmt.Sprintf("ConvertedType(%d)", int32(t))
	}
}

// FieldRepetitionType indicates how often a schema field may appear in a
// record.
type FieldRepetitionType int32

const (
	Required FieldRepetitionType = 0
	Optional FieldRepetitionType = 1
	Repeated FieldRepetitionType = 2
)

func (t FieldRepetitionType) String() string {
	switch t {
	case Required:
		return "REQUIRED"
	case Optional:
		return "OPTIONAL"
	case Repeated:
		return "REPEATED"
	default:
		return fmt.Sprintf("FieldRepetitionType(%d)", int32(t))
	}
}

// Encoding is the encoding of a parquet page.
type Encoding int32

const (
	Plain                Encoding = 0
	PlainDictionary      Encoding = 2
	RLE                  Encoding = 3
	BitPacked            Encoding = 4
	DeltaBinaryPacked    Encoding = 5
	DeltaLengthByteArray Encoding = 6
	DeltaByteArray       Encoding = 7
	RLEDictionary        Encoding = 8
	ByteStreamSplit      Encoding = 9
)

func (e Encoding) String() string {
	switch e {
	case Plain:
		return "PLAIN"
	case PlainDictionary:
		return "PLAIN_DICTIONARY"
	case RLE:
		return "RLE"
	case BitPacked:
		return "BIT_PACKED"
	case DeltaBinaryPacked:
		return "DELTA_BINARY_PACKED"
	case DeltaLengthByteArray:
		return "DELTA_LENGTH_BYTE_ARRAY"
	case DeltaByteArray:
		return "DELTA_BYTE_ARRAY"
	case RLEDictionary:
		return "RLE_DICTIONARY"
	case ByteStreamSplit:
		return "BYTE_STREAM_SPLIT"
	default:
		return fmt.Sprintf("Encoding(%d)", int32(e))
	}
}

// CompressionCodec identifies the compression applied to page bodies.
type CompressionCodec int32

const (
	Uncompressed CompressionCodec = 0
	Snappy       CompressionCodec = 1
	Gzip         CompressionCodec = 2
	Lzo          CompressionCodec = 3
	Brotli       CompressionCodec = 4
	Lz4          CompressionCodec = 5
	Zstd         CompressionCodec = 6
	Lz4Raw       CompressionCodec = 7
)

func (c CompressionCodec) String() string {
	switch c {
	case Uncompressed:
		return "UNCOMPRESSED"
	case Snappy:
		return "SNAPPY"
	case Gzip:
		return "GZIP"
	case Lzo:
		return "LZO"
	case Brotli:
		return "BROTLI"
	case Lz4:
		return "LZ4"
	case Zstd:
		return "ZSTD"
	case Lz4Raw:
		return "LZ4_RAW"
	default:
		return fmt.Sprintf("CompressionCodec(%d)", int32(c))
	}
}

// PageType identifies the kind of a parquet page.
type PageType int32

const (
	DataPage       PageType = 0
	IndexPage      PageType = 1
	DictionaryPage PageType = 2
	DataPageV2     PageType = 3
)

func (t PageType) String() string {
	switch t {
	case DataPage:
		return "DATA_PAGE"
	case IndexPage:
		return "INDEX_PAGE"
	case DictionaryPage:
		return "DICTIONARY_PAGE"
	case DataPageV2:
		return "DATA_PAGE_V2"
	default:
		return fmt.Sprintf("PageType(%d)", int32(t))
	}
}

// The empty structs below are the parameterless member types of the
// LogicalType union.
type (
	StringType struct{}
	UUIDType   struct{}
	MapType    struct{}
	ListType   struct{}
	EnumType   struct{}
	DateType   struct{}
	NullType   struct{}
	JsonType   struct{}
	BsonType   struct{}
)

func (*StringType) String() string { return "STRING" }
func (*UUIDType) String() string   { return "UUID" }
func (*MapType) String() string    { return "MAP" }
func (*ListType) String() string   { return "LIST" }
func (*EnumType) String() string   { return "ENUM" }
func (*DateType) String() string   { return "DATE" }
func (*NullType) String() string   { return "NULL" }
func (*JsonType) String() string   { return "JSON" }
func (*BsonType) String() string   { return "BSON" }

// MilliSeconds, MicroSeconds and NanoSeconds are the member types of the
// TimeUnit union.
type (
	MilliSeconds struct{}
	MicroSeconds struct{}
	NanoSeconds  struct{}
)

// TimeUnit is the resolution of a TIME or TIMESTAMP logical type.
type TimeUnit struct {
	Millis *MilliSeconds `thrift:"1"`
	Micros *MicroSeconds `thrift:"2"`
	Nanos  *NanoSeconds  `thrift:"3"`
}

func (u *TimeUnit) String() string {
	switch {
	case u.Millis != nil:
		return "MILLIS"
	case u.Micros != nil:
		return "MICROS"
	case u.Nanos != nil:
		return "NANOS"
	default:
		return ""
	}
}

// TimeType annotates an INT32 or INT64 column holding a time of day.
type TimeType struct {
	IsAdjustedToUTC bool     `thrift:"1,required"`
	Unit            TimeUnit `thrift:"2,required"`
}

// TimestampType annotates an INT64 column holding an instant.
type TimestampType struct {
	IsAdjustedToUTC bool     `thrift:"1,required"`
	Unit            TimeUnit `thrift:"2,required"`
}

// DecimalType annotates a column holding fixed-point decimal values.
type DecimalType struct {
	Scale     int32 `thrift:"1,required"`
	Precision int32 `thrift:"2,required"`
}

// IntType annotates an INT32 or INT64 column restricted to a bit width.
type IntType struct {
	BitWidth int8 `thrift:"1,required"`
	IsSigned bool `thrift:"2,required"`
}

// LogicalType is the union of annotations refining the meaning of a physical
// type. At most one member is non-nil.
type LogicalType struct {
	UTF8      *StringType    `thrift:"1"`
	Map       *MapType       `thrift:"2"`
	List      *ListType      `thrift:"3"`
	Enum      *EnumType      `thrift:"4"`
	Decimal   *DecimalType   `thrift:"5"`
	Date      *DateType      `thrift:"6"`
	Time      *TimeType      `thrift:"7"`
	Timestamp *TimestampType `thrift:"8"`
	Integer   *IntType       `thrift:"10"`
	Unknown   *NullType      `thrift:"11"`
	Json      *JsonType      `thrift:"12"`
	Bson      *BsonType      `thrift:"13"`
	UUID      *UUIDType      `thrift:"14"`
}

func (t *LogicalType) String() string {
	switch {
	case t.UTF8 != nil:
		return t.UTF8.String()
	case t.Map != nil:
		return t.Map.String()
	case t.List != nil:
		return t.List.String()
	case t.Enum != nil:
		return t.Enum.String()
	case t.Decimal != nil:
		return fmt.Sprintf("DECIMAL(%d,%d)", t.Decimal.Precision, t.Decimal.Scale)
	case t.Date != nil:
		return t.Date.String()
	case t.Time != nil:
		return fmt.Sprintf("TIME(%s,%t)", t.Time.Unit.String(), t.Time.IsAdjustedToUTC)
	case t.Timestamp != nil:
		return fmt.Sprintf("TIMESTAMP(%s,%t)", t.Timestamp.Unit.String(), t.Timestamp.IsAdjustedToUTC)
	case t.Integer != nil:
		return fmt.Sprintf("INT(%d,%t)", t.Integer.BitWidth, t.Integer.IsSigned)
	case t.Unknown != nil:
		return t.Unknown.String()
	case t.Json != nil:
		return t.Json.String()
	case t.Bson != nil:
		return t.Bson.String()
	case t.UUID != nil:
		return t.UUID.String()
	default:
		return ""
	}
}

// SchemaElement is one node of the pre-order flattened schema tree.
type SchemaElement struct {
	Type           *Type                `thrift:"1,optional"`
	TypeLength     *int32               `thrift:"2,optional"`
	RepetitionType *FieldRepetitionType `thrift:"3,optional"`
	Name           string               `thrift:"4,required"`
	NumChildren    int32                `thrift:"5,optional"`
	ConvertedType  *ConvertedType       `thrift:"6,optional"`
	Scale          *int32               `thrift:"7,optional"`
	Precision      *int32               `thrift:"8,optional"`
	FieldID        int32                `thrift:"9,optional"`
	LogicalType    *LogicalType         `thrift:"10,optional"`
}

// Statistics of a column chunk or page.
type Statistics struct {
	Max           []byte `thrift:"1,optional"`
	Min           []byte `thrift:"2,optional"`
	NullCount     int64  `thrift:"3,optional"`
	DistinctCount int64  `thrift:"4,optional"`
	MaxValue      []byte `thrift:"5,optional"`
	MinValue      []byte `thrift:"6,optional"`
}

// PageEncodingStats counts the pages of a column chunk per type and encoding.
type PageEncodingStats struct {
	PageType PageType `thrift:"1,required"`
	Encoding Encoding `thrift:"2,required"`
	Count    int32    `thrift:"3,required"`
}

// KeyValue is an entry of the optional file or chunk metadata.
type KeyValue struct {
	Key   string `thrift:"1,required"`
	Value string `thrift:"2,optional"`
}

// SortingColumn describes the sort order of a row group.
type SortingColumn struct {
	ColumnIdx  int32 `thrift:"1,required"`
	Descending bool  `thrift:"2,required"`
	NullsFirst bool  `thrift:"3,required"`
}

// ColumnMetaData describes one column chunk.
type ColumnMetaData struct {
	Type                  Type                `thrift:"1,required"`
	Encoding              []Encoding          `thrift:"2,required"`
	PathInSchema          []string            `thrift:"3,required"`
	Codec                 CompressionCodec    `thrift:"4,required"`
	NumValues             int64               `thrift:"5,required"`
	TotalUncompressedSize int64               `thrift:"6,required"`
	TotalCompressedSize   int64               `thrift:"7,required"`
	KeyValueMetadata      []KeyValue          `thrift:"8,optional"`
	DataPageOffset        int64               `thrift:"9,required"`
	IndexPageOffset       int64               `thrift:"10,optional"`
	DictionaryPageOffset  int64               `thrift:"11,optional"`
	Statistics            Statistics          `thrift:"12,optional"`
	EncodingStats         []PageEncodingStats `thrift:"13,optional"`
	BloomFilterOffset     int64               `thrift:"14,optional"`
}

// HasDictionary returns true if the chunk's encoding set announces a
// dictionary. Presence of a dictionary page is decided here rather than from
// DictionaryPageOffset, whose zero value is ambiguous.
func (c *ColumnMetaData) HasDictionary() bool {
	for _, enc := range c.Encoding {
		if enc == PlainDictionary || enc == RLEDictionary {
			return true
		}
	}
	return false
}

// ColumnChunk locates one column of one row group.
type ColumnChunk struct {
	FilePath          string         `thrift:"1,optional"`
	FileOffset        int64          `thrift:"2,required"`
	MetaData          ColumnMetaData `thrift:"3,optional"`
	OffsetIndexOffset int64          `thrift:"4,optional"`
	OffsetIndexLength int32          `thrift:"5,optional"`
	ColumnIndexOffset int64          `thrift:"6,optional"`
	ColumnIndexLength int32          `thrift:"7,optional"`
}

// RowGroup is a horizontal partition of the file.
type RowGroup struct {
	Columns             []ColumnChunk   `thrift:"1,required"`
	TotalByteSize       int64           `thrift:"2,required"`
	NumRows             int64           `thrift:"3,required"`
	SortingColumns      []SortingColumn `thrift:"4,optional"`
	FileOffset          int64           `thrift:"5,optional"`
	TotalCompressedSize int64           `thrift:"6,optional"`
	Ordinal             int16           `thrift:"7,optional"`
}

// TypeDefinedOrder is the sole member of the ColumnOrder union.
type TypeDefinedOrder struct{}

// ColumnOrder describes the ordering used for min/max statistics.
type ColumnOrder struct {
	TypeOrder *TypeDefinedOrder `thrift:"1"`
}

// FileMetaData is the footer of a parquet file.
type FileMetaData struct {
	Version          int32           `thrift:"1,required"`
	Schema           []SchemaElement `thrift:"2,required"`
	NumRows          int64           `thrift:"3,required"`
	RowGroups        []RowGroup      `thrift:"4,required"`
	KeyValueMetadata []KeyValue      `thrift:"5,optional"`
	CreatedBy        string          `thrift:"6,optional"`
	ColumnOrders     []ColumnOrder   `thrift:"7,optional"`
}

// DataPageHeader is the sub-header of a v1 data page.
type DataPageHeader struct {
	NumValues               int32       `thrift:"1,required"`
	Encoding                Encoding    `thrift:"2,required"`
	DefinitionLevelEncoding Encoding    `thrift:"3,required"`
	RepetitionLevelEncoding Encoding    `thrift:"4,required"`
	Statistics              *Statistics `thrift:"5,optional"`
}

// DictionaryPageHeader is the sub-header of a dictionary page.
type DictionaryPageHeader struct {
	NumValues int32    `thrift:"1,required"`
	Encoding  Encoding `thrift:"2,required"`
	IsSorted  bool     `thrift:"3,optional"`
}

// DataPageHeaderV2 is the sub-header of a v2 data page. Repetition and
// definition levels are always uncompressed; IsCompressed applies to the
// value region only.
type DataPageHeaderV2 struct {
	NumValues                  int32       `thrift:"1,required"`
	NumNulls                   int32       `thrift:"2,required"`
	NumRows                    int32       `thrift:"3,required"`
	Encoding                   Encoding    `thrift:"4,required"`
	DefinitionLevelsByteLength int32       `thrift:"5,required"`
	RepetitionLevelsByteLength int32       `thrift:"6,required"`
	IsCompressed               *bool       `thrift:"7,optional"`
	Statistics                 *Statistics `thrift:"8,optional"`
}

// PageHeader precedes every page of a column chunk.
type PageHeader struct {
	Type                 PageType              `thrift:"1,required"`
	UncompressedPageSize int32                 `thrift:"2,required"`
	CompressedPageSize   int32                 `thrift:"3,required"`
	CRC                  int32                 `thrift:"4,optional"`
	DataPageHeader       *DataPageHeader       `thrift:"5,optional"`
	DictionaryPageHeader *DictionaryPageHeader `thrift:"7,optional"`
	DataPageHeaderV2     *DataPageHeaderV2     `thrift:"8,optional"`
}
