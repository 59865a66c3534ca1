package hardwood

import (
	"github.com/rionmonster/hardwood/encoding/plain"
	"github.com/rionmonster/hardwood/format"
)

// Dictionary holds the distinct values of a column chunk, decoded once from
// the chunk's dictionary page and shared read-only by all of its data pages.
type Dictionary struct {
	column *ColumnSchema
	size   int
	values vector
}

// newDictionary decodes the PLAIN encoded body of a dictionary page.
func newDictionary(column *ColumnSchema, numValues int, data []byte) (*Dictionary, error) {
	values, err := decodePlain(column, data, numValues)
	if err != nil {
		return nil, err
	}
	return &Dictionary{column: column, size: numValues, values: values}, nil
}

// Len returns the number of entries in the dictionary.
func (d *Dictionary) Len() int { return d.size }

// lookup resolves indexes into a dense vector of values. Indexes outside
// [0, Len) fail the page.
func (d *Dictionary) lookup(indexes []int32) (vector, error) {
	typ := d.column.PhysicalType()
	out := vector{}
	out.alloc(typ, len(indexes))
	for i, index := range indexes {
		if index < 0 || int(index) >= d.size {
			return out, errMalformedf("column %q: dictionary index %d out of range [0,%d)", d.column.Name(), index, d.size)
		}
		out.move(typ, i, &d.values, int(index))
	}
	return out, nil
}

// decodePlain decodes numValues PLAIN encoded values of the column's
// physical type from data.
func decodePlain(column *ColumnSchema, data []byte, numValues int) (vector, error) {
	v := vector{}
	var err error
	switch column.PhysicalType() {
	case format.Boolean:
		v.booleans, err = plain.DecodeBoolean(nil, data, numValues)
	case format.Int32:
		v.int32s, err = plain.DecodeInt32(nil, data)
	case format.Int64:
		v.int64s, err = plain.DecodeInt64(nil, data)
	case format.Int96:
		v.int96s, err = plain.DecodeInt96(nil, data)
	case format.Float:
		v.floats, err = plain.DecodeFloat(nil, data)
	case format.Double:
		v.doubles, err = plain.DecodeDouble(nil, data)
	case format.ByteArray:
		v.byteArrays, err = plain.DecodeByteArray(nil, data)
	case format.FixedLenByteArray:
		v.byteArrays, err = plain.DecodeFixedLenByteArray(nil, data, column.Node.TypeLength)
	default:
		return v, errUnsupportedf("column %q: physical type %s", column.Name(), column.PhysicalType())
	}
	if err != nil {
		return v, errMalformedf("column %q: %s", column.Name(), err)
	}
	if n := v.len(column.PhysicalType()); n != numValues {
		return v, errMalformedf("column %q: PLAIN data holds %d values, the page header announced %d", column.Name(), n, numValues)
	}
	return v, nil
}
