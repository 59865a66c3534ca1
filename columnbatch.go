package hardwood

import (
	"github.com/rionmonster/hardwood/deprecated"
	"github.com/rionmonster/hardwood/format"
)

// vector holds decoded primitive values of one physical type. Exactly one of
// the slices is in use, matching the column's type.
type vector struct {
	booleans   []bool
	int32s     []int32
	int64s     []int64
	int96s     []deprecated.Int96
	floats     []float32
	doubles    []float64
	byteArrays [][]byte
}

func (v *vector) alloc(typ format.Type, n int) {
	switch typ {
	case format.Boolean:
		v.booleans = make([]bool, n)
	case format.Int32:
		v.int32s = make([]int32, n)
	case format.Int64:
		v.int64s = make([]int64, n)
	case format.Int96:
		v.int96s = make([]deprecated.Int96, n)
	case format.Float:
		v.floats = make([]float32, n)
	case format.Double:
		v.doubles = make([]float64, n)
	default:
		v.byteArrays = make([][]byte, n)
	}
}

func (v *vector) len(typ format.Type) int {
	switch typ {
	case format.Boolean:
		return len(v.booleans)
	case format.Int32:
		return len(v.int32s)
	case format.Int64:
		return len(v.int64s)
	case format.Int96:
		return len(v.int96s)
	case format.Float:
		return len(v.floats)
	case format.Double:
		return len(v.doubles)
	default:
		return len(v.byteArrays)
	}
}

// move copies the value at index j of src to index i of v.
func (v *vector) move(typ format.Type, i int, src *vector, j int) {
	switch typ {
	case format.Boolean:
		v.booleans[i] = src.booleans[j]
	case format.Int32:
		v.int32s[i] = src.int32s[j]
	case format.Int64:
		v.int64s[i] = src.int64s[j]
	case format.Int96:
		v.int96s[i] = src.int96s[j]
	case format.Float:
		v.floats[i] = src.floats[j]
	case format.Double:
		v.doubles[i] = src.doubles[j]
	default:
		v.byteArrays[i] = src.byteArrays[j]
	}
}

// push appends the value at index j of src to v.
func (v *vector) push(typ format.Type, src *vector, j int) {
	switch typ {
	case format.Boolean:
		v.booleans = append(v.booleans, src.booleans[j])
	case format.Int32:
		v.int32s = append(v.int32s, src.int32s[j])
	case format.Int64:
		v.int64s = append(v.int64s, src.int64s[j])
	case format.Int96:
		v.int96s = append(v.int96s, src.int96s[j])
	case format.Float:
		v.floats = append(v.floats, src.floats[j])
	case format.Double:
		v.doubles = append(v.doubles, src.doubles[j])
	default:
		v.byteArrays = append(v.byteArrays, src.byteArrays[j])
	}
}

// truncate shortens the vector to n values.
func (v *vector) truncate(typ format.Type, n int) {
	switch typ {
	case format.Boolean:
		v.booleans = v.booleans[:n]
	case format.Int32:
		v.int32s = v.int32s[:n]
	case format.Int64:
		v.int64s = v.int64s[:n]
	case format.Int96:
		v.int96s = v.int96s[:n]
	case format.Float:
		v.floats = v.floats[:n]
	case format.Double:
		v.doubles = v.doubles[:n]
	default:
		v.byteArrays = v.byteArrays[:n]
	}
}

// at boxes the value at index i.
func (v *vector) at(typ format.Type, i int) interface{} {
	switch typ {
	case format.Boolean:
		return v.booleans[i]
	case format.Int32:
		return v.int32s[i]
	case format.Int64:
		return v.int64s[i]
	case format.Int96:
		return v.int96s[i]
	case format.Float:
		return v.floats[i]
	case format.Double:
		return v.doubles[i]
	default:
		return v.byteArrays[i]
	}
}

// ColumnBatch holds a fixed-size run of records of one projected column.
//
// Flat batches carry one value per record plus a null bitmap. Nested batches
// carry the value, definition level and repetition level streams plus record
// offsets: recordOffsets[i] is the index of the first value of record i, and
// recordOffsets[numRecords] closes the last record.
type ColumnBatch struct {
	column     *ColumnSchema
	flat       bool
	numRecords int

	// Flat flavor.
	nulls []uint64

	// Nested flavor.
	defLevels     []byte
	repLevels     []byte
	recordOffsets []int32

	values vector
}

// NumRecords returns the number of records held by the batch.
func (b *ColumnBatch) NumRecords() int { return b.numRecords }

// Column returns the schema of the batch's column.
func (b *ColumnBatch) Column() *ColumnSchema { return b.column }

// IsNull returns true if the value of record i of a flat batch is null.
func (b *ColumnBatch) IsNull(i int) bool {
	if b.nulls == nil {
		return false
	}
	return (b.nulls[i/64]>>(i%64))&1 != 0
}

func (b *ColumnBatch) setNull(i int) {
	b.nulls[i/64] |= 1 << (i % 64)
}

// record returns the value range [start, end) of record i of a nested batch.
func (b *ColumnBatch) record(i int) (int, int) {
	return int(b.recordOffsets[i]), int(b.recordOffsets[i+1])
}

// Typed accessors over the value stream. The index is a record index for
// flat batches and a value index for nested batches.

func (b *ColumnBatch) Boolean(i int) bool           { return b.values.booleans[i] }
func (b *ColumnBatch) Int32(i int) int32            { return b.values.int32s[i] }
func (b *ColumnBatch) Int64(i int) int64            { return b.values.int64s[i] }
func (b *ColumnBatch) Int96(i int) deprecated.Int96 { return b.values.int96s[i] }
func (b *ColumnBatch) Float(i int) float32          { return b.values.floats[i] }
func (b *ColumnBatch) Double(i int) float64         { return b.values.doubles[i] }
func (b *ColumnBatch) ByteArray(i int) []byte       { return b.values.byteArrays[i] }
