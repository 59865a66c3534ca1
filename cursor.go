package hardwood

import (
	"time"

	"github.com/google/uuid"
	"github.com/rionmonster/hardwood/deprecated"
	"github.com/rionmonster/hardwood/format"
	"golang.org/x/sync/errgroup"
)

// RowCursor iterates the rows of one file, or of an ordered list of files,
// one record at a time.
//
// The cursor pulls fixed-size batches from every projected column, aligns
// them on record count, and presents typed accessors over the current row.
// Batches of different columns load concurrently; the cursor itself is not
// safe for concurrent use.
type RowCursor struct {
	config *CursorConfig

	cur     *cursorFile
	paths   []string
	options []Option
	next    int
	pending chan *cursorFile
	owned   bool

	batches     []*ColumnBatch
	recordCount int
	rowIndex    int
	record      *Group

	err    error
	closed bool
}

// cursorFile is the per-file state of a cursor: the projection resolved
// against the file's schema, one reader per projected column, and the record
// assembler when any column is nested.
type cursorFile struct {
	file      *File
	proj      *projection
	readers   []*columnReader
	assembler *recordAssembler
	flat      bool
	err       error
}

func newRowCursor(f *File, config *CursorConfig) (*RowCursor, error) {
	cur, err := prepareCursorFile(f, config)
	if err != nil {
		return nil, err
	}
	return &RowCursor{
		config:   config,
		cur:      cur,
		rowIndex: -1,
	}, nil
}

// prepareCursorFile resolves the projection and scans the pages of every
// projected column, column by column in parallel.
func prepareCursorFile(f *File, config *CursorConfig) (*cursorFile, error) {
	proj, err := resolveProjection(f.schema, config.Projection)
	if err != nil {
		return nil, err
	}

	pages := make([][]*PageInfo, len(proj.columns))
	g := new(errgroup.Group)
	for i, col := range proj.columns {
		i, col := i, col
		g.Go(func() error {
			for gi := range f.metadata.RowGroups {
				chunk := &f.metadata.RowGroups[gi].Columns[col.Index]
				p, err := scanColumnChunk(f.data, col, chunk, f.config)
				if err != nil {
					return err
				}
				pages[i] = append(pages[i], p...)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cf := &cursorFile{
		file:    f,
		proj:    proj,
		readers: make([]*columnReader, len(proj.columns)),
		flat:    true,
	}
	for i, col := range proj.columns {
		cf.readers[i] = newColumnReader(col, pages[i])
		if !col.Flat() {
			cf.flat = false
		}
	}
	if !cf.flat {
		cf.assembler = newRecordAssembler(f.schema.root, proj.columns)
	}
	return cf, nil
}

// HasNext reports whether another row is available, loading the next batch
// of every projected column when the current one is exhausted. Errors
// observed during the load are reported by Err or by the following Next.
func (c *RowCursor) HasNext() bool {
	if c.closed || c.err != nil {
		return false
	}
	if c.rowIndex+1 < c.recordCount {
		return true
	}
	return c.loadBatch()
}

// Next advances the cursor to the next row, assembling the record when the
// projection includes nested columns.
func (c *RowCursor) Next() error {
	if c.closed {
		return ErrCursorClosed
	}
	if c.err != nil {
		return c.err
	}
	if c.rowIndex+1 >= c.recordCount && !c.loadBatch() {
		if c.err != nil {
			return c.err
		}
		return ErrEndOfRecords
	}
	c.rowIndex++
	if c.cur.assembler != nil {
		record, err := c.cur.assembler.assemble(c.batches, c.rowIndex)
		if err != nil {
			c.err = err
			return err
		}
		c.record = record
	}
	return nil
}

// Err returns the first error observed by the cursor.
func (c *RowCursor) Err() error { return c.err }

// loadBatch pulls the next batch from every column of the current file,
// moving to the next file when the current one is exhausted.
func (c *RowCursor) loadBatch() bool {
	for {
		n, err := c.loadFileBatch()
		if err != nil {
			c.err = err
			return false
		}
		if n > 0 {
			c.recordCount = n
			c.rowIndex = -1
			return true
		}
		if !c.advanceFile() {
			// The accessors must not see the exhausted batches.
			c.recordCount = 0
			c.rowIndex = -1
			return false
		}
	}
}

func (c *RowCursor) loadFileBatch() (int, error) {
	readers := c.cur.readers
	if c.batches == nil {
		c.batches = make([]*ColumnBatch, len(readers))
	}
	g := new(errgroup.Group)
	for i := range readers {
		i := i
		g.Go(func() error {
			b, err := readers[i].readBatch(c.config.BatchSize)
			if err != nil {
				return err
			}
			c.batches[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	n := -1
	for i, b := range c.batches {
		if n < 0 {
			n = b.NumRecords()
		} else if b.NumRecords() != n {
			return 0, errMalformedf("column %q produced %d records where %q produced %d",
				c.cur.proj.columns[i].Name(), b.NumRecords(), c.cur.proj.columns[0].Name(), n)
		}
	}
	if n < 0 {
		n = 0
	}
	return n, nil
}

// advanceFile closes the exhausted file and swaps in the next prepared one.
func (c *RowCursor) advanceFile() bool {
	if c.pending == nil {
		return false
	}
	next := <-c.pending
	c.pending = nil
	if c.owned {
		c.cur.file.Close()
	}
	if next == nil {
		return false
	}
	if next.err != nil {
		c.err = next.err
		return false
	}
	c.cur = next
	c.batches = nil
	c.recordCount = 0
	c.rowIndex = -1
	c.prefetchNext()
	return true
}

// Close releases the cursor. An in-flight file preparation is waited for and
// discarded; files owned by the cursor are closed.
func (c *RowCursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.pending != nil {
		if next := <-c.pending; next != nil && next.file != nil {
			next.file.Close()
		}
		c.pending = nil
	}
	var err error
	if c.owned && c.cur != nil {
		err = c.cur.file.Close()
	}
	c.cur = nil
	c.batches = nil
	c.record = nil
	return err
}

// Record returns the assembled record of the current row. It is nil when
// every projected column is flat.
func (c *RowCursor) Record() *Group { return c.record }

// columnAt validates a projected column index against the cursor state.
func (c *RowCursor) columnAt(i int) (*ColumnSchema, *ColumnBatch, error) {
	if c.closed {
		return nil, nil, ErrCursorClosed
	}
	if c.rowIndex < 0 || c.rowIndex >= c.recordCount {
		return nil, nil, ErrEndOfRecords
	}
	if i < 0 || i >= len(c.cur.proj.columns) {
		return nil, nil, errProjectionf("column index %d out of the %d projected columns", i, len(c.cur.proj.columns))
	}
	return c.cur.proj.columns[i], c.batches[i], nil
}

// ColumnIndex resolves a column name to its projected index.
func (c *RowCursor) ColumnIndex(name string) (int, error) {
	if c.closed {
		return 0, ErrCursorClosed
	}
	if i, ok := c.cur.proj.lookup(name); ok {
		return i, nil
	}
	return 0, errProjectionf("no projected column named %q", name)
}

// value locates the current row's single value of a non-repeated column,
// returning its index in the batch's value stream and whether it is null.
func (c *RowCursor) value(i int) (*ColumnBatch, int, bool, error) {
	col, b, err := c.columnAt(i)
	if err != nil {
		return nil, 0, false, err
	}
	if col.MaxRepetitionLevel > 0 {
		return nil, 0, false, errTypeMismatchf("column %q is repeated; use the container accessors", col.Name())
	}
	if b.flat {
		return b, c.rowIndex, b.IsNull(c.rowIndex), nil
	}
	vi, _ := b.record(c.rowIndex)
	null := b.defLevels != nil && int(b.defLevels[vi]) < col.MaxDefinitionLevel
	return b, vi, null, nil
}

func (c *RowCursor) typedValue(i int, want format.Type) (*ColumnBatch, int, bool, error) {
	col, _, err := c.columnAt(i)
	if err != nil {
		return nil, 0, false, err
	}
	if col.PhysicalType() != want {
		return nil, 0, false, errTypeMismatchf("column %q holds %s values, not %s", col.Name(), col.PhysicalType(), want)
	}
	return c.value(i)
}

// IsNull reports whether the named column is null at the current row.
func (c *RowCursor) IsNull(name string) (bool, error) {
	i, err := c.ColumnIndex(name)
	if err != nil {
		return false, err
	}
	return c.IsNullAt(i)
}

// IsNullAt reports whether the projected column i is null at the current
// row.
func (c *RowCursor) IsNullAt(i int) (bool, error) {
	_, _, null, err := c.value(i)
	return null, err
}

// Typed accessors. Each validates the column's declared type and returns the
// zero value for null.

func (c *RowCursor) Int32(name string) (int32, error) {
	i, err := c.ColumnIndex(name)
	if err != nil {
		return 0, err
	}
	return c.Int32At(i)
}

func (c *RowCursor) Int32At(i int) (int32, error) {
	b, vi, null, err := c.typedValue(i, format.Int32)
	if err != nil || null {
		return 0, err
	}
	return b.Int32(vi), nil
}

func (c *RowCursor) Int64(name string) (int64, error) {
	i, err := c.ColumnIndex(name)
	if err != nil {
		return 0, err
	}
	return c.Int64At(i)
}

func (c *RowCursor) Int64At(i int) (int64, error) {
	b, vi, null, err := c.typedValue(i, format.Int64)
	if err != nil || null {
		return 0, err
	}
	return b.Int64(vi), nil
}

func (c *RowCursor) Float(name string) (float32, error) {
	i, err := c.ColumnIndex(name)
	if err != nil {
		return 0, err
	}
	return c.FloatAt(i)
}

func (c *RowCursor) FloatAt(i int) (float32, error) {
	b, vi, null, err := c.typedValue(i, format.Float)
	if err != nil || null {
		return 0, err
	}
	return b.Float(vi), nil
}

func (c *RowCursor) Double(name string) (float64, error) {
	i, err := c.ColumnIndex(name)
	if err != nil {
		return 0, err
	}
	return c.DoubleAt(i)
}

func (c *RowCursor) DoubleAt(i int) (float64, error) {
	b, vi, null, err := c.typedValue(i, format.Double)
	if err != nil || null {
		return 0, err
	}
	return b.Double(vi), nil
}

func (c *RowCursor) Boolean(name string) (bool, error) {
	i, err := c.ColumnIndex(name)
	if err != nil {
		return false, err
	}
	return c.BooleanAt(i)
}

func (c *RowCursor) BooleanAt(i int) (bool, error) {
	b, vi, null, err := c.typedValue(i, format.Boolean)
	if err != nil || null {
		return false, err
	}
	return b.Boolean(vi), nil
}

// Binary returns the raw bytes of a BYTE_ARRAY, FIXED_LEN_BYTE_ARRAY or
// INT96 column.
func (c *RowCursor) Binary(name string) ([]byte, error) {
	i, err := c.ColumnIndex(name)
	if err != nil {
		return nil, err
	}
	return c.BinaryAt(i)
}

func (c *RowCursor) BinaryAt(i int) ([]byte, error) {
	col, _, err := c.columnAt(i)
	if err != nil {
		return nil, err
	}
	b, vi, null, err := c.value(i)
	if err != nil || null {
		return nil, err
	}
	switch col.PhysicalType() {
	case format.ByteArray, format.FixedLenByteArray:
		return b.ByteArray(vi), nil
	case format.Int96:
		v := b.Int96(vi).Bytes()
		return v[:], nil
	default:
		return nil, errTypeMismatchf("column %q holds %s values, not binary", col.Name(), col.PhysicalType())
	}
}

// Int96 returns the raw INT96 value of a legacy column.
func (c *RowCursor) Int96(name string) (deprecated.Int96, error) {
	i, err := c.ColumnIndex(name)
	if err != nil {
		return deprecated.Int96{}, err
	}
	b, vi, null, err := c.typedValue(i, format.Int96)
	if err != nil || null {
		return deprecated.Int96{}, err
	}
	return b.Int96(vi), nil
}

// Logical accessors.

func (c *RowCursor) String(name string) (string, error) {
	i, err := c.ColumnIndex(name)
	if err != nil {
		return "", err
	}
	return c.StringAt(i)
}

func (c *RowCursor) StringAt(i int) (string, error) {
	col, _, err := c.columnAt(i)
	if err != nil {
		return "", err
	}
	if col.PhysicalType() != format.ByteArray {
		return "", errTypeMismatchf("column %q holds %s values, not strings", col.Name(), col.PhysicalType())
	}
	b, vi, null, err := c.value(i)
	if err != nil || null {
		return "", err
	}
	return string(b.ByteArray(vi)), nil
}

func (c *RowCursor) Date(name string) (time.Time, error) {
	i, err := c.ColumnIndex(name)
	if err != nil {
		return time.Time{}, err
	}
	col, _, err := c.columnAt(i)
	if err != nil {
		return time.Time{}, err
	}
	if col.PhysicalType() != format.Int32 || !isDate(col.Node) {
		return time.Time{}, errTypeMismatchf("column %q is not a DATE column", col.Name())
	}
	b, vi, null, err := c.value(i)
	if err != nil || null {
		return time.Time{}, err
	}
	return convertDate(b.Int32(vi)), nil
}

func (c *RowCursor) Time(name string) (time.Duration, error) {
	i, err := c.ColumnIndex(name)
	if err != nil {
		return 0, err
	}
	col, _, err := c.columnAt(i)
	if err != nil {
		return 0, err
	}
	unit, ok := timeOfDayUnit(col.Node)
	if !ok {
		return 0, errTypeMismatchf("column %q is not a TIME column", col.Name())
	}
	b, vi, null, err := c.value(i)
	if err != nil || null {
		return 0, err
	}
	switch col.PhysicalType() {
	case format.Int32:
		return convertTimeOfDay(int64(b.Int32(vi)), unit), nil
	case format.Int64:
		return convertTimeOfDay(b.Int64(vi), unit), nil
	default:
		return 0, errTypeMismatchf("column %q holds %s values, not times", col.Name(), col.PhysicalType())
	}
}

func (c *RowCursor) Timestamp(name string) (time.Time, error) {
	i, err := c.ColumnIndex(name)
	if err != nil {
		return time.Time{}, err
	}
	col, _, err := c.columnAt(i)
	if err != nil {
		return time.Time{}, err
	}
	unit, ok := timestampUnit(col.Node)
	if !ok || col.PhysicalType() != format.Int64 {
		return time.Time{}, errTypeMismatchf("column %q is not a TIMESTAMP column", col.Name())
	}
	b, vi, null, err := c.value(i)
	if err != nil || null {
		return time.Time{}, err
	}
	return convertTimestamp(b.Int64(vi), unit), nil
}

func (c *RowCursor) Decimal(name string) (Decimal, error) {
	i, err := c.ColumnIndex(name)
	if err != nil {
		return Decimal{}, err
	}
	col, _, err := c.columnAt(i)
	if err != nil {
		return Decimal{}, err
	}
	if !isDecimal(col.Node) {
		return Decimal{}, errTypeMismatchf("column %q is not a DECIMAL column", col.Name())
	}
	b, vi, null, err := c.value(i)
	if err != nil || null {
		return Decimal{}, err
	}
	precision, scale := decimalScale(col.Node)
	switch col.PhysicalType() {
	case format.Int32:
		return convertDecimalInt(int64(b.Int32(vi)), precision, scale), nil
	case format.Int64:
		return convertDecimalInt(b.Int64(vi), precision, scale), nil
	case format.ByteArray, format.FixedLenByteArray:
		return convertDecimalBytes(b.ByteArray(vi), precision, scale), nil
	default:
		return Decimal{}, errTypeMismatchf("column %q holds %s values, not decimals", col.Name(), col.PhysicalType())
	}
}

func (c *RowCursor) UUID(name string) (uuid.UUID, error) {
	i, err := c.ColumnIndex(name)
	if err != nil {
		return uuid.UUID{}, err
	}
	col, _, err := c.columnAt(i)
	if err != nil {
		return uuid.UUID{}, err
	}
	if col.PhysicalType() != format.FixedLenByteArray || !isUUID(col.Node) {
		return uuid.UUID{}, errTypeMismatchf("column %q is not a UUID column", col.Name())
	}
	b, vi, null, err := c.value(i)
	if err != nil || null {
		return uuid.UUID{}, err
	}
	return convertUUID(b.ByteArray(vi))
}

// Container accessors over the assembled record.

func (c *RowCursor) field(name string) (interface{}, error) {
	if c.closed {
		return nil, ErrCursorClosed
	}
	if c.record == nil {
		return nil, errTypeMismatchf("projection holds no nested columns; use the typed accessors")
	}
	v, ok := c.record.FieldByName(name)
	if !ok {
		return nil, errProjectionf("no top-level field named %q", name)
	}
	return v, nil
}

// Group returns the struct value of a top-level group field, nil when the
// group is null.
func (c *RowCursor) Group(name string) (*Group, error) {
	v, err := c.field(name)
	if err != nil || v == nil {
		return nil, err
	}
	g, ok := v.(*Group)
	if !ok {
		return nil, errTypeMismatchf("field %q holds %T, not a group", name, v)
	}
	return g, nil
}

// List returns the list value of a top-level list field, nil when the list
// is null.
func (c *RowCursor) List(name string) (*List, error) {
	v, err := c.field(name)
	if err != nil || v == nil {
		return nil, err
	}
	l, ok := v.(*List)
	if !ok {
		return nil, errTypeMismatchf("field %q holds %T, not a list", name, v)
	}
	return l, nil
}

// Map returns the map value of a top-level map field, nil when the map is
// null.
func (c *RowCursor) Map(name string) (*Map, error) {
	v, err := c.field(name)
	if err != nil || v == nil {
		return nil, err
	}
	m, ok := v.(*Map)
	if !ok {
		return nil, errTypeMismatchf("field %q holds %T, not a map", name, v)
	}
	return m, nil
}
