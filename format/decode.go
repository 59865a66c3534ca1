package format

import (
	"fmt"

	"github.com/rionmonster/hardwood/internal/thrift"
)

// DecodeFileMetaData decodes the thrift-compact encoded footer of a parquet
// file.
func DecodeFileMetaData(b []byte) (*FileMetaData, error) {
	r := thrift.NewReader(b)
	m := new(FileMetaData)
	if err := readFileMetaData(r, m); err != nil {
		return nil, fmt.Errorf("decoding file metadata at offset %d: %w", r.Offset(), err)
	}
	return m, nil
}

// DecodePageHeader decodes the thrift-compact encoded page header found at
// the start of b, returning the header and the number of bytes it occupies.
func DecodePageHeader(b []byte) (*PageHeader, int, error) {
	r := thrift.NewReader(b)
	h := new(PageHeader)
	if err := readPageHeader(r, h); err != nil {
		return nil, 0, fmt.Errorf("decoding page header at offset %d: %w", r.Offset(), err)
	}
	return h, r.Offset(), nil
}

// readStruct drives the field loop of one struct, delegating known fields to
// the given function. The function must consume the field value; unknown
// fields are skipped by passing them back to the reader.
func readStruct(r *thrift.Reader, field func(typ thrift.Type, id int16) (bool, error)) error {
	r.ReadStructBegin()
	defer r.ReadStructEnd()
	for {
		typ, id, err := r.ReadFieldHeader()
		if err != nil {
			return err
		}
		if typ == thrift.STOP {
			return nil
		}
		known, err := field(typ, id)
		if err != nil {
			return fmt.Errorf("field %d (%s): %w", id, typ, err)
		}
		if !known {
			if err := r.Skip(typ); err != nil {
				return fmt.Errorf("skipping field %d (%s): %w", id, typ, err)
			}
		}
	}
}

func readFileMetaData(r *thrift.Reader, m *FileMetaData) error {
	return readStruct(r, func(typ thrift.Type, id int16) (bool, error) {
		switch id {
		case 1:
			v, err := r.ReadI32()
			m.Version = v
			return true, err
		case 2:
			_, n, err := r.ReadListHeader()
			if err != nil {
				return true, err
			}
			m.Schema = make([]SchemaElement, n)
			for i := range m.Schema {
				if err := readSchemaElement(r, &m.Schema[i]); err != nil {
					return true, err
				}
			}
			return true, nil
		case 3:
			v, err := r.ReadI64()
			m.NumRows = v
			return true, err
		case 4:
			_, n, err := r.ReadListHeader()
			if err != nil {
				return true, err
			}
			m.RowGroups = make([]RowGroup, n)
			for i := range m.RowGroups {
				if err := readRowGroup(r, &m.RowGroups[i]); err != nil {
					return true, err
				}
			}
			return true, nil
		case 5:
			kv, err := readKeyValueList(r)
			m.KeyValueMetadata = kv
			return true, err
		case 6:
			v, err := r.ReadString()
			m.CreatedBy = v
			return true, err
		case 7:
			_, n, err := r.ReadListHeader()
			if err != nil {
				return true, err
			}
			m.ColumnOrders = make([]ColumnOrder, n)
			for i := range m.ColumnOrders {
				if err := readColumnOrder(r, &m.ColumnOrders[i]); err != nil {
					return true, err
				}
			}
			return true, nil
		default:
			return false, nil
		}
	})
}

func readSchemaElement(r *thrift.Reader, e *SchemaElement) error {
	return readStruct(r, func(typ thrift.Type, id int16) (bool, error) {
		switch id {
		case 1:
			v, err := r.ReadI32()
			t := Type(v)
			e.Type = &t
			return true, err
		case 2:
			v, err := r.ReadI32()
			e.TypeLength = &v
			return true, err
		case 3:
			v, err := r.ReadI32()
			t := FieldRepetitionType(v)
			e.RepetitionType = &t
			return true, err
		case 4:
			v, err := r.ReadString()
			e.Name = v
			return true, err
		case 5:
			v, err := r.ReadI32()
			e.NumChildren = v
			return true, err
		case 6:
			v, err := r.ReadI32()
			t := ConvertedType(v)
			e.ConvertedType = &t
			return true, err
		case 7:
			v, err := r.ReadI32()
			e.Scale = &v
			return true, err
		case 8:
			v, err := r.ReadI32()
			e.Precision = &v
			return true, err
		case 9:
			v, err := r.ReadI32()
			e.FieldID = v
			return true, err
		case 10:
			e.LogicalType = new(LogicalType)
			return true, readLogicalType(r, e.LogicalType)
		default:
			return false, nil
		}
	})
}

// readEmptyStruct consumes a struct with no recognized fields, as found in
// the parameterless members of the LogicalType union.
func readEmptyStruct(r *thrift.Reader) error {
	return readStruct(r, func(thrift.Type, int16) (bool, error) {
		return false, nil
	})
}

func readLogicalType(r *thrift.Reader, t *LogicalType) error {
	return readStruct(r, func(typ thrift.Type, id int16) (bool, error) {
		switch id {
		case 1:
			t.UTF8 = new(StringType)
			return true, readEmptyStruct(r)
		case 2:
			t.Map = new(MapType)
			return true, readEmptyStruct(r)
		case 3:
			t.List = new(ListType)
			return true, readEmptyStruct(r)
		case 4:
			t.Enum = new(EnumType)
			return true, readEmptyStruct(r)
		case 5:
			t.Decimal = new(DecimalType)
			return true, readDecimalType(r, t.Decimal)
		case 6:
			t.Date = new(DateType)
			return true, readEmptyStruct(r)
		case 7:
			t.Time = new(TimeType)
			return true, readTimeType(r, t.Time)
		case 8:
			t.Timestamp = new(TimestampType)
			return true, readTimestampType(r, t.Timestamp)
		case 10:
			t.Integer = new(IntType)
			return true, readIntType(r, t.Integer)
		case 11:
			t.Unknown = new(NullType)
			return true, readEmptyStruct(r)
		case 12:
			t.Json = new(JsonType)
			return true, readEmptyStruct(r)
		case 13:
			t.Bson = new(BsonType)
			return true, readEmptyStruct(r)
		case 14:
			t.UUID = new(UUIDType)
			return true, readEmptyStruct(r)
		default:
			return false, nil
		}
	})
}

func readDecimalType(r *thrift.Reader, t *DecimalType) error {
	return readStruct(r, func(typ thrift.Type, id int16) (bool, error) {
		switch id {
		case 1:
			v, err := r.ReadI32()
			t.Scale = v
			return true, err
		case 2:
			v, err := r.ReadI32()
			t.Precision = v
			return true, err
		default:
			return false, nil
		}
	})
}

func readTimeUnit(r *thrift.Reader, u *TimeUnit) error {
	return readStruct(r, func(typ thrift.Type, id int16) (bool, error) {
		switch id {
		case 1:
			u.Millis = new(MilliSeconds)
			return true, readEmptyStruct(r)
		case 2:
			u.Micros = new(MicroSeconds)
			return true, readEmptyStruct(r)
		case 3:
			u.Nanos = new(NanoSeconds)
			return true, readEmptyStruct(r)
		default:
			return false, nil
		}
	})
}

func readTimeType(r *thrift.Reader, t *TimeType) error {
	return readStruct(r, func(typ thrift.Type, id int16) (bool, error) {
		switch id {
		case 1:
			t.IsAdjustedToUTC = typ == thrift.TRUE
			return true, nil
		case 2:
			return true, readTimeUnit(r, &t.Unit)
		default:
			return false, nil
		}
	})
}

func readTimestampType(r *thrift.Reader, t *TimestampType) error {
	return readStruct(r, func(typ thrift.Type, id int16) (bool, error) {
		switch id {
		case 1:
			t.IsAdjustedToUTC = typ == thrift.TRUE
			return true, nil
		case 2:
			return true, readTimeUnit(r, &t.Unit)
		default:
			return false, nil
		}
	})
}

func readIntType(r *thrift.Reader, t *IntType) error {
	return readStruct(r, func(typ thrift.Type, id int16) (bool, error) {
		switch id {
		case 1:
			v, err := r.ReadByte()
			t.BitWidth = int8(v)
			return true, err
		case 2:
			t.IsSigned = typ == thrift.TRUE
			return true, nil
		default:
			return false, nil
		}
	})
}

func readRowGroup(r *thrift.Reader, g *RowGroup) error {
	return readStruct(r, func(typ thrift.Type, id int16) (bool, error) {
		switch id {
		case 1:
			_, n, err := r.ReadListHeader()
			if err != nil {
				return true, err
			}
			g.Columns = make([]ColumnChunk, n)
			for i := range g.Columns {
				if err := readColumnChunk(r, &g.Columns[i]); err != nil {
					return true, err
				}
			}
			return true, nil
		case 2:
			v, err := r.ReadI64()
			g.TotalByteSize = v
			return true, err
		case 3:
			v, err := r.ReadI64()
			g.NumRows = v
			return true, err
		case 4:
			_, n, err := r.ReadListHeader()
			if err != nil {
				return true, err
			}
			g.SortingColumns = make([]SortingColumn, n)
			for i := range g.SortingColumns {
				if err := readSortingColumn(r, &g.SortingColumns[i]); err != nil {
					return true, err
				}
			}
			return true, nil
		case 5:
			v, err := r.ReadI64()
			g.FileOffset = v
			return true, err
		case 6:
			v, err := r.ReadI64()
			g.TotalCompressedSize = v
			return true, err
		case 7:
			v, err := r.ReadI16()
			g.Ordinal = v
			return true, err
		default:
			return false, nil
		}
	})
}

func readSortingColumn(r *thrift.Reader, c *SortingColumn) error {
	return readStruct(r, func(typ thrift.Type, id int16) (bool, error) {
		switch id {
		case 1:
			v, err := r.ReadI32()
			c.ColumnIdx = v
			return true, err
		case 2:
			c.Descending = typ == thrift.TRUE
			return true, nil
		case 3:
			c.NullsFirst = typ == thrift.TRUE
			return true, nil
		default:
			return false, nil
		}
	})
}

func readColumnChunk(r *thrift.Reader, c *ColumnChunk) error {
	return readStruct(r, func(typ thrift.Type, id int16) (bool, error) {
		switch id {
		case 1:
			v, err := r.ReadString()
			c.FilePath = v
			return true, err
		case 2:
			v, err := r.ReadI64()
			c.FileOffset = v
			return true, err
		case 3:
			return true, readColumnMetaData(r, &c.MetaData)
		case 4:
			v, err := r.ReadI64()
			c.OffsetIndexOffset = v
			return true, err
		case 5:
			v, err := r.ReadI32()
			c.OffsetIndexLength = v
			return true, err
		case 6:
			v, err := r.ReadI64()
			c.ColumnIndexOffset = v
			return true, err
		case 7:
			v, err := r.ReadI32()
			c.ColumnIndexLength = v
			return true, err
		default:
			return false, nil
		}
	})
}

func readColumnMetaData(r *thrift.Reader, m *ColumnMetaData) error {
	return readStruct(r, func(typ thrift.Type, id int16) (bool, error) {
		switch id {
		case 1:
			v, err := r.ReadI32()
			m.Type = Type(v)
			return true, err
		case 2:
			_, n, err := r.ReadListHeader()
			if err != nil {
				return true, err
			}
			m.Encoding = make([]Encoding, n)
			for i := range m.Encoding {
				v, err := r.ReadI32()
				if err != nil {
					return true, err
				}
				m.Encoding[i] = Encoding(v)
			}
			return true, nil
		case 3:
			_, n, err := r.ReadListHeader()
			if err != nil {
				return true, err
			}
			m.PathInSchema = make([]string, n)
			for i := range m.PathInSchema {
				if m.PathInSchema[i], err = r.ReadString(); err != nil {
					return true, err
				}
			}
			return true, nil
		case 4:
			v, err := r.ReadI32()
			m.Codec = CompressionCodec(v)
			return true, err
		case 5:
			v, err := r.ReadI64()
			m.NumValues = v
			return true, err
		case 6:
			v, err := r.ReadI64()
			m.TotalUncompressedSize = v
			return true, err
		case 7:
			v, err := r.ReadI64()
			m.TotalCompressedSize = v
			return true, err
		case 8:
			kv, err := readKeyValueList(r)
			m.KeyValueMetadata = kv
			return true, err
		case 9:
			v, err := r.ReadI64()
			m.DataPageOffset = v
			return true, err
		case 10:
			v, err := r.ReadI64()
			m.IndexPageOffset = v
			return true, err
		case 11:
			v, err := r.ReadI64()
			m.DictionaryPageOffset = v
			return true, err
		case 12:
			return true, readStatistics(r, &m.Statistics)
		case 13:
			_, n, err := r.ReadListHeader()
			if err != nil {
				return true, err
			}
			m.EncodingStats = make([]PageEncodingStats, n)
			for i := range m.EncodingStats {
				if err := readPageEncodingStats(r, &m.EncodingStats[i]); err != nil {
					return true, err
				}
			}
			return true, nil
		case 14:
			v, err := r.ReadI64()
			m.BloomFilterOffset = v
			return true, err
		default:
			return false, nil
		}
	})
}

func readStatistics(r *thrift.Reader, s *Statistics) error {
	return readStruct(r, func(typ thrift.Type, id int16) (bool, error) {
		switch id {
		case 1:
			v, err := r.ReadBytes()
			s.Max = v
			return true, err
		case 2:
			v, err := r.ReadBytes()
			s.Min = v
			return true, err
		case 3:
			v, err := r.ReadI64()
			s.NullCount = v
			return true, err
		case 4:
			v, err := r.ReadI64()
			s.DistinctCount = v
			return true, err
		case 5:
			v, err := r.ReadBytes()
			s.MaxValue = v
			return true, err
		case 6:
			v, err := r.ReadBytes()
			s.MinValue = v
			return true, err
		default:
			return false, nil
		}
	})
}

func readPageEncodingStats(r *thrift.Reader, s *PageEncodingStats) error {
	return readStruct(r, func(typ thrift.Type, id int16) (bool, error) {
		switch id {
		case 1:
			v, err := r.ReadI32()
			s.PageType = PageType(v)
			return true, err
		case 2:
			v, err := r.ReadI32()
			s.Encoding = Encoding(v)
			return true, err
		case 3:
			v, err := r.ReadI32()
			s.Count = v
			return true, err
		default:
			return false, nil
		}
	})
}

func readKeyValueList(r *thrift.Reader) ([]KeyValue, error) {
	_, n, err := r.ReadListHeader()
	if err != nil {
		return nil, err
	}
	kv := make([]KeyValue, n)
	for i := range kv {
		err := readStruct(r, func(typ thrift.Type, id int16) (bool, error) {
			switch id {
			case 1:
				v, err := r.ReadString()
				kv[i].Key = v
				return true, err
			case 2:
				v, err := r.ReadString()
				kv[i].Value = v
				return true, err
			default:
				return false, nil
			}
		})
		if err != nil {
			return nil, err
		}
	}
	return kv, nil
}

func readColumnOrder(r *thrift.Reader, o *ColumnOrder) error {
	return readStruct(r, func(typ thrift.Type, id int16) (bool, error) {
		switch id {
		case 1:
			o.TypeOrder = new(TypeDefinedOrder)
			return true, readEmptyStruct(r)
		default:
			return false, nil
		}
	})
}

func readPageHeader(r *thrift.Reader, h *PageHeader) error {
	return readStruct(r, func(typ thrift.Type, id int16) (bool, error) {
		switch id {
		case 1:
			v, err := r.ReadI32()
			h.Type = PageType(v)
			return true, err
		case 2:
			v, err := r.ReadI32()
			h.UncompressedPageSize = v
			return true, err
		case 3:
			v, err := r.ReadI32()
			h.CompressedPageSize = v
			return true, err
		case 4:
			v, err := r.ReadI32()
			h.CRC = v
			return true, err
		case 5:
			h.DataPageHeader = new(DataPageHeader)
			return true, readDataPageHeader(r, h.DataPageHeader)
		case 7:
			h.DictionaryPageHeader = new(DictionaryPageHeader)
			return true, readDictionaryPageHeader(r, h.DictionaryPageHeader)
		case 8:
			h.DataPageHeaderV2 = new(DataPageHeaderV2)
			return true, readDataPageHeaderV2(r, h.DataPageHeaderV2)
		default:
			return false, nil
		}
	})
}

func readDataPageHeader(r *thrift.Reader, h *DataPageHeader) error {
	return readStruct(r, func(typ thrift.Type, id int16) (bool, error) {
		switch id {
		case 1:
			v, err := r.ReadI32()
			h.NumValues = v
			return true, err
		case 2:
			v, err := r.ReadI32()
			h.Encoding = Encoding(v)
			return true, err
		case 3:
			v, err := r.ReadI32()
			h.DefinitionLevelEncoding = Encoding(v)
			return true, err
		case 4:
			v, err := r.ReadI32()
			h.RepetitionLevelEncoding = Encoding(v)
			return true, err
		case 5:
			h.Statistics = new(Statistics)
			return true, readStatistics(r, h.Statistics)
		default:
			return false, nil
		}
	})
}

func readDictionaryPageHeader(r *thrift.Reader, h *DictionaryPageHeader) error {
	return readStruct(r, func(typ thrift.Type, id int16) (bool, error) {
		switch id {
		case 1:
			v, err := r.ReadI32()
			h.NumValues = v
			return true, err
		case 2:
			v, err := r.ReadI32()
			h.Encoding = Encoding(v)
			return true, err
		case 3:
			h.IsSorted = typ == thrift.TRUE
			return true, nil
		default:
			return false, nil
		}
	})
}

func readDataPageHeaderV2(r *thrift.Reader, h *DataPageHeaderV2) error {
	return readStruct(r, func(typ thrift.Type, id int16) (bool, error) {
		switch id {
		case 1:
			v, err := r.ReadI32()
			h.NumValues = v
			return true, err
		case 2:
			v, err := r.ReadI32()
			h.NumNulls = v
			return true, err
		case 3:
			v, err := r.ReadI32()
			h.NumRows = v
			return true, err
		case 4:
			v, err := r.ReadI32()
			h.Encoding = Encoding(v)
			return true, err
		case 5:
			v, err := r.ReadI32()
			h.DefinitionLevelsByteLength = v
			return true, err
		case 6:
			v, err := r.ReadI32()
			h.RepetitionLevelsByteLength = v
			return true, err
		case 7:
			b := typ == thrift.TRUE
			h.IsCompressed = &b
			return true, nil
		case 8:
			h.Statistics = new(Statistics)
			return true, readStatistics(r, h.Statistics)
		default:
			return false, nil
		}
	})
}
