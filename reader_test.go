package hardwood

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	gzipenc "github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rionmonster/hardwood/format"
	"github.com/rionmonster/hardwood/internal/enctest"
)

// Scenario: flat required primitives, uncompressed PLAIN pages.
func TestReadFlatPrimitives(t *testing.T) {
	elements := []format.SchemaElement{
		group("example", 2),
		leaf("id", format.Int64, format.Required),
		leaf("value", format.Int64, format.Required),
	}
	columns := [][]testPage{
		{dataPageV1(3, format.Plain, nil, nil, 0, 0, enctest.PlainInt64([]int64{1, 2, 3}))},
		{dataPageV1(3, format.Plain, nil, nil, 0, 0, enctest.PlainInt64([]int64{100, 200, 300}))},
	}
	data := buildTestFile(t, elements, columns, 3)

	f, err := OpenBuffer(data)
	require.NoError(t, err)
	defer f.Close()
	require.EqualValues(t, 3, f.NumRows())

	cur, err := f.RowCursor()
	require.NoError(t, err)
	defer cur.Close()

	var ids, values []int64
	for cur.HasNext() {
		require.NoError(t, cur.Next())
		id, err := cur.Int64("id")
		require.NoError(t, err)
		v, err := cur.Int64("value")
		require.NoError(t, err)
		ids = append(ids, id)
		values = append(values, v)
	}
	require.NoError(t, cur.Err())
	assert.Equal(t, []int64{1, 2, 3}, ids)
	assert.Equal(t, []int64{100, 200, 300}, values)
}

// Scenario: optional dictionary-encoded strings resolved through the chunk
// dictionary.
func dictionaryFile(t *testing.T) []byte {
	elements := []format.SchemaElement{
		group("example", 2),
		leaf("id", format.Int64, format.Required),
		leafWith("category", format.ByteArray, format.Optional, func(e *format.SchemaElement) {
			e.ConvertedType = utf8()
			e.LogicalType = &format.LogicalType{UTF8: new(format.StringType)}
		}),
	}
	dict := enctest.PlainByteArray([][]byte{[]byte("A"), []byte("B"), []byte("C")})
	columns := [][]testPage{
		{dataPageV1(5, format.Plain, nil, nil, 0, 0, enctest.PlainInt64([]int64{1, 2, 3, 4, 5}))},
		{
			dictionaryPage(3, dict),
			dataPageV1(5, format.RLEDictionary, nil, []byte{1, 1, 1, 1, 1}, 0, 1,
				enctest.Indexes([]int32{0, 1, 0, 2, 1}, 2)),
		},
	}
	return buildTestFile(t, elements, columns, 5)
}

func TestReadDictionaryStrings(t *testing.T) {
	f, err := OpenBuffer(dictionaryFile(t))
	require.NoError(t, err)
	defer f.Close()

	cur, err := f.RowCursor()
	require.NoError(t, err)
	defer cur.Close()

	var categories []string
	for cur.HasNext() {
		require.NoError(t, cur.Next())
		s, err := cur.String("category")
		require.NoError(t, err)
		categories = append(categories, s)
	}
	require.NoError(t, cur.Err())
	assert.Equal(t, []string{"A", "B", "A", "C", "B"}, categories)
}

// Reading a column under a projection yields the same values as reading it
// with every column selected.
func TestProjectionEquivalence(t *testing.T) {
	read := func(options ...Option) []string {
		f, err := OpenBuffer(dictionaryFile(t))
		require.NoError(t, err)
		defer f.Close()
		cur, err := f.RowCursor(options...)
		require.NoError(t, err)
		defer cur.Close()
		var out []string
		for cur.HasNext() {
			require.NoError(t, cur.Next())
			s, err := cur.String("category")
			require.NoError(t, err)
			out = append(out, s)
		}
		require.NoError(t, cur.Err())
		return out
	}
	assert.Equal(t, read(), read(Projection("category")))
}

// Scenario: logical type conversions on date, timestamp, decimal and UUID
// columns.
func TestReadLogicalTypes(t *testing.T) {
	elements := []format.SchemaElement{
		group("account", 4),
		leafWith("birth_date", format.Int32, format.Required, func(e *format.SchemaElement) {
			ct := format.Date
			e.ConvertedType = &ct
			e.LogicalType = &format.LogicalType{Date: new(format.DateType)}
		}),
		leafWith("created_at", format.Int64, format.Required, func(e *format.SchemaElement) {
			e.LogicalType = &format.LogicalType{
				Timestamp: &format.TimestampType{
					IsAdjustedToUTC: true,
					Unit:            format.TimeUnit{Millis: new(format.MilliSeconds)},
				},
			}
		}),
		leafWith("balance", format.FixedLenByteArray, format.Required, func(e *format.SchemaElement) {
			length, scale, precision := int32(9), int32(2), int32(18)
			ct := format.Decimal
			e.TypeLength = &length
			e.ConvertedType = &ct
			e.Scale = &scale
			e.Precision = &precision
			e.LogicalType = &format.LogicalType{Decimal: &format.DecimalType{Scale: 2, Precision: 18}}
		}),
		leafWith("account_id", format.FixedLenByteArray, format.Required, func(e *format.SchemaElement) {
			length := int32(16)
			e.TypeLength = &length
			e.LogicalType = &format.LogicalType{UUID: new(format.UUIDType)}
		}),
	}

	birthDate := time.Date(1990, time.January, 15, 0, 0, 0, 0, time.UTC)
	createdAt := time.Date(2025, time.January, 1, 10, 30, 0, 0, time.UTC)
	days := int32(birthDate.Unix() / 86400)
	balance := []byte{0, 0, 0, 0, 0, 0, 0x01, 0xe2, 0x40} // 123456
	accountID := []byte{0x12, 0x34, 0x56, 0x78, 0x12, 0x34, 0x56, 0x78, 0x12, 0x34, 0x56, 0x78, 0x12, 0x34, 0x56, 0x78}

	columns := [][]testPage{
		{dataPageV1(1, format.Plain, nil, nil, 0, 0, enctest.PlainInt32([]int32{days}))},
		{dataPageV1(1, format.Plain, nil, nil, 0, 0, enctest.PlainInt64([]int64{createdAt.UnixMilli()}))},
		{dataPageV1(1, format.Plain, nil, nil, 0, 0, enctest.PlainFixedLenByteArray([][]byte{balance}))},
		{dataPageV1(1, format.Plain, nil, nil, 0, 0, enctest.PlainFixedLenByteArray([][]byte{accountID}))},
	}
	data := buildTestFile(t, elements, columns, 1)

	f, err := OpenBuffer(data)
	require.NoError(t, err)
	defer f.Close()

	cur, err := f.RowCursor()
	require.NoError(t, err)
	defer cur.Close()

	require.True(t, cur.HasNext())
	require.NoError(t, cur.Next())

	date, err := cur.Date("birth_date")
	require.NoError(t, err)
	assert.True(t, birthDate.Equal(date), "got %s", date)

	ts, err := cur.Timestamp("created_at")
	require.NoError(t, err)
	assert.True(t, createdAt.Equal(ts), "got %s", ts)

	dec, err := cur.Decimal("balance")
	require.NoError(t, err)
	assert.Equal(t, "1234.56", dec.String())

	id, err := cur.UUID("account_id")
	require.NoError(t, err)
	assert.Equal(t, "12345678-1234-5678-1234-567812345678", id.String())
}

// Scenario: the AddressBook example from the Dremel paper, with a legacy
// repeated string field and a repeated group.
func TestReadAddressBook(t *testing.T) {
	elements := []format.SchemaElement{
		group("AddressBook", 3),
		leafWith("owner", format.ByteArray, format.Required, func(e *format.SchemaElement) {
			e.ConvertedType = utf8()
		}),
		leafWith("ownerPhoneNumbers", format.ByteArray, format.Repeated, func(e *format.SchemaElement) {
			e.ConvertedType = utf8()
		}),
		groupWith("contacts", 2, format.Repeated, nil, nil),
		leafWith("name", format.ByteArray, format.Required, func(e *format.SchemaElement) {
			e.ConvertedType = utf8()
		}),
		leafWith("phoneNumber", format.ByteArray, format.Optional, func(e *format.SchemaElement) {
			e.ConvertedType = utf8()
		}),
	}

	columns := [][]testPage{
		{dataPageV1(2, format.Plain, nil, nil, 0, 0,
			enctest.PlainByteArray([][]byte{[]byte("Julien Le Dem"), []byte("A. Nonymous")}))},
		{dataPageV1(3, format.Plain,
			[]byte{0, 1, 0}, []byte{1, 1, 0}, 1, 1,
			enctest.PlainByteArray([][]byte{[]byte("555 123 4567"), []byte("555 666 1337")}))},
		{dataPageV1(3, format.Plain,
			[]byte{0, 1, 0}, []byte{1, 1, 0}, 1, 1,
			enctest.PlainByteArray([][]byte{[]byte("Dmitriy Ryaboy"), []byte("Chris Aniszczyk")}))},
		{dataPageV1(3, format.Plain,
			[]byte{0, 1, 0}, []byte{2, 1, 0}, 1, 2,
			enctest.PlainByteArray([][]byte{[]byte("555 987 6543")}))},
	}
	data := buildTestFile(t, elements, columns, 2)

	f, err := OpenBuffer(data)
	require.NoError(t, err)
	defer f.Close()

	cur, err := f.RowCursor()
	require.NoError(t, err)
	defer cur.Close()

	// First record.
	require.True(t, cur.HasNext())
	require.NoError(t, cur.Next())

	owner, err := cur.String("owner")
	require.NoError(t, err)
	assert.Equal(t, "Julien Le Dem", owner)

	phones, err := cur.List("ownerPhoneNumbers")
	require.NoError(t, err)
	strs, ok := phones.Strings()
	require.True(t, ok)
	assert.Equal(t, []string{"555 123 4567", "555 666 1337"}, strs)

	contacts, err := cur.List("contacts")
	require.NoError(t, err)
	require.Equal(t, 2, contacts.Len())

	first := contacts.Index(0).(*Group)
	name, _ := first.FieldByName("name")
	assert.Equal(t, "Dmitriy Ryaboy", name)
	phone, _ := first.FieldByName("phoneNumber")
	assert.Equal(t, "555 987 6543", phone)

	second := contacts.Index(1).(*Group)
	name, _ = second.FieldByName("name")
	assert.Equal(t, "Chris Aniszczyk", name)
	phone, _ = second.FieldByName("phoneNumber")
	assert.Nil(t, phone)

	// Second record: both lists are present and empty.
	require.True(t, cur.HasNext())
	require.NoError(t, cur.Next())

	owner, err = cur.String("owner")
	require.NoError(t, err)
	assert.Equal(t, "A. Nonymous", owner)

	phones, err = cur.List("ownerPhoneNumbers")
	require.NoError(t, err)
	require.NotNil(t, phones)
	assert.Equal(t, 0, phones.Len())

	contacts, err = cur.List("contacts")
	require.NoError(t, err)
	require.NotNil(t, contacts)
	assert.Equal(t, 0, contacts.Len())

	assert.False(t, cur.HasNext())
}

// Scenario: a two-level nested list assembled from repetition levels 0-2.
func TestReadNestedLists(t *testing.T) {
	elements := []format.SchemaElement{
		group("test", 2),
		leaf("id", format.Int32, format.Required),
		groupWith("matrix", 1, format.Optional, listConverted(), nil),
		groupWith("list", 1, format.Repeated, nil, nil),
		groupWith("element", 1, format.Optional, listConverted(), nil),
		groupWith("list", 1, format.Repeated, nil, nil),
		leaf("element", format.Int32, format.Optional),
	}

	// (1, [[1,2],[3,4,5],[6]]): all elements defined at level 5.
	def := []byte{5, 5, 5, 5, 5, 5}
	rep := []byte{0, 2, 1, 2, 2, 1}
	columns := [][]testPage{
		{dataPageV1(1, format.Plain, nil, nil, 0, 0, enctest.PlainInt32([]int32{1}))},
		{dataPageV1(6, format.Plain, rep, def, 2, 3,
			enctest.PlainInt32([]int32{1, 2, 3, 4, 5, 6}))},
	}
	data := buildTestFile(t, elements, columns, 1)

	f, err := OpenBuffer(data)
	require.NoError(t, err)
	defer f.Close()

	cur, err := f.RowCursor()
	require.NoError(t, err)
	defer cur.Close()

	require.True(t, cur.HasNext())
	require.NoError(t, cur.Next())

	id, err := cur.Int32("id")
	require.NoError(t, err)
	assert.EqualValues(t, 1, id)

	matrix, err := cur.List("matrix")
	require.NoError(t, err)
	require.Equal(t, 3, matrix.Len())

	want := [][]int32{{1, 2}, {3, 4, 5}, {6}}
	for i, row := range want {
		inner, ok := matrix.Index(i).(*List)
		require.True(t, ok, "row %d", i)
		values, ok := inner.Int32s()
		require.True(t, ok, "row %d", i)
		assert.Equal(t, row, values, "row %d", i)
	}
}

// Scenario: delta-encoded integer columns re-read under several batch sizes.
func TestReadDeltaEncoded(t *testing.T) {
	const numRows = 200
	ids := make([]int64, numRows)
	values := make([]int32, numRows)
	for i := range ids {
		ids[i] = int64(i + 1)
		values[i] = int32(10 * (i + 1))
	}

	elements := []format.SchemaElement{
		group("example", 2),
		leaf("id", format.Int64, format.Required),
		leaf("value_i32", format.Int32, format.Required),
	}
	columns := [][]testPage{
		{dataPageV1(numRows, format.DeltaBinaryPacked, nil, nil, 0, 0, enctest.DeltaInt64(ids))},
		{dataPageV1(numRows, format.DeltaBinaryPacked, nil, nil, 0, 0, enctest.DeltaInt32(values))},
	}
	data := buildTestFile(t, elements, columns, numRows)

	for _, batchSize := range []int{1, 7, 8, 64, 200, 4096} {
		f, err := OpenBuffer(data)
		require.NoError(t, err)

		cur, err := f.RowCursor(BatchSize(batchSize))
		require.NoError(t, err)

		var gotIDs []int64
		var gotValues []int32
		for cur.HasNext() {
			require.NoError(t, cur.Next())
			id, err := cur.Int64("id")
			require.NoError(t, err)
			v, err := cur.Int32("value_i32")
			require.NoError(t, err)
			gotIDs = append(gotIDs, id)
			gotValues = append(gotValues, v)
		}
		require.NoError(t, cur.Err())
		assert.Equal(t, ids, gotIDs, "batch size %d", batchSize)
		assert.Equal(t, values, gotValues, "batch size %d", batchSize)

		cur.Close()
		f.Close()
	}
}

// Optional values: the null bitmap of a flat batch must mirror the positions
// where the definition level fell short of the column's max.
func TestReadOptionalNulls(t *testing.T) {
	elements := []format.SchemaElement{
		group("example", 1),
		leaf("score", format.Int64, format.Optional),
	}
	def := []byte{1, 0, 1, 0, 0, 1}
	columns := [][]testPage{
		{dataPageV1(6, format.Plain, nil, def, 0, 1, enctest.PlainInt64([]int64{10, 20, 30}))},
	}
	data := buildTestFile(t, elements, columns, 6)

	f, err := OpenBuffer(data)
	require.NoError(t, err)
	defer f.Close()

	cur, err := f.RowCursor()
	require.NoError(t, err)
	defer cur.Close()

	wantNull := []bool{false, true, false, true, true, false}
	wantValue := []int64{10, 0, 20, 0, 0, 30}
	for i := 0; cur.HasNext(); i++ {
		require.NoError(t, cur.Next())
		null, err := cur.IsNull("score")
		require.NoError(t, err)
		assert.Equal(t, wantNull[i], null, "row %d", i)
		v, err := cur.Int64("score")
		require.NoError(t, err)
		assert.Equal(t, wantValue[i], v, "row %d", i)
	}
	require.NoError(t, cur.Err())
}

// V2 data pages carry their level streams outside the compressed region.
func TestReadDataPageV2(t *testing.T) {
	elements := []format.SchemaElement{
		group("example", 1),
		leaf("score", format.Int64, format.Optional),
	}
	def := []byte{1, 0, 1}
	columns := [][]testPage{
		{dataPageV2(3, 1, format.Plain, nil, def, 0, 1, enctest.PlainInt64([]int64{7, 9}))},
	}
	data := buildTestFile(t, elements, columns, 3)

	f, err := OpenBuffer(data)
	require.NoError(t, err)
	defer f.Close()

	cur, err := f.RowCursor()
	require.NoError(t, err)
	defer cur.Close()

	var got []int64
	var nulls []bool
	for cur.HasNext() {
		require.NoError(t, cur.Next())
		null, err := cur.IsNull("score")
		require.NoError(t, err)
		v, err := cur.Int64("score")
		require.NoError(t, err)
		nulls = append(nulls, null)
		got = append(got, v)
	}
	require.NoError(t, cur.Err())
	assert.Equal(t, []bool{false, true, false}, nulls)
	assert.Equal(t, []int64{7, 0, 9}, got)
}

// Compressed pages round-trip through the decompressor registry.
func TestReadGzipPages(t *testing.T) {
	elements := []format.SchemaElement{
		group("example", 1),
		leaf("id", format.Int64, format.Required),
	}
	page := dataPageV1(3, format.Plain, nil, nil, 0, 0, enctest.PlainInt64([]int64{1, 2, 3}))
	page = compressPage(page, func(b []byte) []byte {
		buf := new(bytes.Buffer)
		w := gzipenc.NewWriter(buf)
		w.Write(b)
		w.Close()
		return buf.Bytes()
	})
	data := buildTestFileCodec(t, elements, [][]testPage{{page}}, 3, format.Gzip)

	f, err := OpenBuffer(data)
	require.NoError(t, err)
	defer f.Close()

	cur, err := f.RowCursor()
	require.NoError(t, err)
	defer cur.Close()

	var got []int64
	for cur.HasNext() {
		require.NoError(t, cur.Next())
		v, err := cur.Int64("id")
		require.NoError(t, err)
		got = append(got, v)
	}
	require.NoError(t, cur.Err())
	assert.Equal(t, []int64{1, 2, 3}, got)
}

// Records split across several pages reassemble exactly.
func TestReadMultiplePages(t *testing.T) {
	elements := []format.SchemaElement{
		group("example", 1),
		leaf("id", format.Int64, format.Required),
	}
	columns := [][]testPage{{
		dataPageV1(2, format.Plain, nil, nil, 0, 0, enctest.PlainInt64([]int64{1, 2})),
		dataPageV1(2, format.Plain, nil, nil, 0, 0, enctest.PlainInt64([]int64{3, 4})),
		dataPageV1(1, format.Plain, nil, nil, 0, 0, enctest.PlainInt64([]int64{5})),
	}}
	data := buildTestFile(t, elements, columns, 5)

	f, err := OpenBuffer(data)
	require.NoError(t, err)
	defer f.Close()

	cur, err := f.RowCursor(BatchSize(3))
	require.NoError(t, err)
	defer cur.Close()

	var got []int64
	for cur.HasNext() {
		require.NoError(t, cur.Next())
		v, err := cur.Int64("id")
		require.NoError(t, err)
		got = append(got, v)
	}
	require.NoError(t, cur.Err())
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, got)
}

// Row count conservation: the cursor yields exactly the footer's row count.
func TestRowCountConservation(t *testing.T) {
	f, err := OpenBuffer(dictionaryFile(t))
	require.NoError(t, err)
	defer f.Close()

	total := int64(0)
	for _, g := range f.Metadata().RowGroups {
		total += g.NumRows
	}
	require.Equal(t, f.NumRows(), total)

	cur, err := f.RowCursor()
	require.NoError(t, err)
	defer cur.Close()

	rows := int64(0)
	for cur.HasNext() {
		require.NoError(t, cur.Next())
		rows++
	}
	require.NoError(t, cur.Err())
	assert.Equal(t, f.NumRows(), rows)
}

func TestOpenAll(t *testing.T) {
	elements := []format.SchemaElement{
		group("example", 1),
		leaf("id", format.Int64, format.Required),
	}
	dir := t.TempDir()
	paths := make([]string, 2)
	for i, ids := range [][]int64{{1, 2, 3}, {4, 5}} {
		columns := [][]testPage{
			{dataPageV1(len(ids), format.Plain, nil, nil, 0, 0, enctest.PlainInt64(ids))},
		}
		data := buildTestFile(t, elements, columns, int64(len(ids)))
		paths[i] = filepath.Join(dir, "part-"+string(rune('a'+i))+".parquet")
		require.NoError(t, os.WriteFile(paths[i], data, 0o644))
	}

	cur, err := OpenAll(paths)
	require.NoError(t, err)
	defer cur.Close()

	var got []int64
	for cur.HasNext() {
		require.NoError(t, cur.Next())
		v, err := cur.Int64("id")
		require.NoError(t, err)
		got = append(got, v)
	}
	require.NoError(t, cur.Err())
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, got)
}

func TestOpenInvalidMagic(t *testing.T) {
	data := buildTestFile(t, []format.SchemaElement{
		group("example", 1),
		leaf("id", format.Int64, format.Required),
	}, [][]testPage{{dataPageV1(1, format.Plain, nil, nil, 0, 0, enctest.PlainInt64([]int64{1}))}}, 1)
	data[0] = 'X'
	_, err := OpenBuffer(data)
	require.ErrorIs(t, err, ErrMalformed)
}

func TestOpenTruncatedFooter(t *testing.T) {
	_, err := OpenBuffer([]byte("PAR1xxPAR1"))
	require.ErrorIs(t, err, ErrMalformed)
}

func TestTypedGetterMismatch(t *testing.T) {
	f, err := OpenBuffer(dictionaryFile(t))
	require.NoError(t, err)
	defer f.Close()

	cur, err := f.RowCursor()
	require.NoError(t, err)
	defer cur.Close()

	require.True(t, cur.HasNext())
	require.NoError(t, cur.Next())

	_, err = cur.Int32("id")
	require.ErrorIs(t, err, ErrTypeMismatch)
	_, err = cur.String("id")
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestUnknownProjection(t *testing.T) {
	f, err := OpenBuffer(dictionaryFile(t))
	require.NoError(t, err)
	defer f.Close()

	_, err = f.RowCursor(Projection("no_such_column"))
	require.ErrorIs(t, err, ErrProjection)
}

func TestNextPastEnd(t *testing.T) {
	f, err := OpenBuffer(dictionaryFile(t))
	require.NoError(t, err)
	defer f.Close()

	cur, err := f.RowCursor()
	require.NoError(t, err)
	defer cur.Close()

	for cur.HasNext() {
		require.NoError(t, cur.Next())
	}
	require.ErrorIs(t, cur.Next(), ErrEndOfRecords)
}

func TestCursorClosed(t *testing.T) {
	f, err := OpenBuffer(dictionaryFile(t))
	require.NoError(t, err)
	defer f.Close()

	cur, err := f.RowCursor()
	require.NoError(t, err)
	require.NoError(t, cur.Close())
	require.False(t, cur.HasNext())
	require.ErrorIs(t, cur.Next(), ErrCursorClosed)
}
