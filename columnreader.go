package hardwood

// columnReader streams the pages of one projected column into successive
// typed column batches. Readers of different columns share no mutable state
// and may run on independent goroutines.
type columnReader struct {
	column *ColumnSchema
	pages  []*PageInfo
	index  int
	page   *Page
	off    int
}

func newColumnReader(column *ColumnSchema, pages []*PageInfo) *columnReader {
	return &columnReader{column: column, pages: pages}
}

// nextPage decodes the next page of the column, returning false at the end
// of the page list.
func (r *columnReader) nextPage() (bool, error) {
	if r.index == len(r.pages) {
		return false, nil
	}
	info := r.pages[r.index]
	r.index++
	page, err := info.chunk.decodePage(info)
	if err != nil {
		return false, err
	}
	if err := r.validateLevels(page); err != nil {
		return false, err
	}
	r.page = page
	r.off = 0
	return true, nil
}

func (r *columnReader) validateLevels(p *Page) error {
	maxDef, maxRep := byte(r.column.MaxDefinitionLevel), byte(r.column.MaxRepetitionLevel)
	for _, l := range p.defLevels {
		if l > maxDef {
			return errMalformedf("column %q: definition level %d above the column's max %d", r.column.Name(), l, maxDef)
		}
	}
	for _, l := range p.repLevels {
		if l > maxRep {
			return errMalformedf("column %q: repetition level %d above the column's max %d", r.column.Name(), l, maxRep)
		}
	}
	return nil
}

// readBatch assembles up to maxRecords records into a typed batch. The batch
// is short only at the end of the column.
func (r *columnReader) readBatch(maxRecords int) (*ColumnBatch, error) {
	if r.column.Flat() {
		return r.readFlatBatch(maxRecords)
	}
	return r.readNestedBatch(maxRecords)
}

// readFlatBatch copies values record by record: for a top-level non-repeated
// primitive, one value is one record.
func (r *columnReader) readFlatBatch(maxRecords int) (*ColumnBatch, error) {
	col := r.column
	typ := col.PhysicalType()
	b := &ColumnBatch{column: col, flat: true}
	b.values.alloc(typ, maxRecords)
	if col.MaxDefinitionLevel > 0 {
		b.nulls = make([]uint64, (maxRecords+63)/64)
	}

	n := 0
	for n < maxRecords {
		if r.page == nil || r.off == r.page.numValues {
			more, err := r.nextPage()
			if err != nil {
				return nil, err
			}
			if !more {
				break
			}
			continue
		}
		k := maxRecords - n
		if avail := r.page.numValues - r.off; avail < k {
			k = avail
		}
		for i := 0; i < k; i++ {
			b.values.move(typ, n+i, &r.page.values, r.off+i)
		}
		if r.page.defLevels != nil {
			maxDef := byte(col.MaxDefinitionLevel)
			for i := 0; i < k; i++ {
				if r.page.defLevels[r.off+i] < maxDef {
					b.setNull(n + i)
				}
			}
		}
		n += k
		r.off += k
	}

	b.numRecords = n
	b.values.truncate(typ, n)
	return b, nil
}

// readNestedBatch gathers whole records: a record starts at a value with
// repetition level zero and runs to the next one. Records may span pages but
// never split across batches.
func (r *columnReader) readNestedBatch(maxRecords int) (*ColumnBatch, error) {
	col := r.column
	typ := col.PhysicalType()
	b := &ColumnBatch{column: col}
	records := 0

scan:
	for {
		if r.page == nil || r.off == r.page.numValues {
			more, err := r.nextPage()
			if err != nil {
				return nil, err
			}
			if !more {
				break
			}
			continue
		}
		page := r.page
		for r.off < page.numValues {
			rep := byte(0)
			if page.repLevels != nil {
				rep = page.repLevels[r.off]
			}
			if rep == 0 {
				if records == maxRecords {
					break scan
				}
				b.recordOffsets = append(b.recordOffsets, int32(b.values.len(typ)))
				records++
			} else if records == 0 {
				return nil, errMalformedf("column %q: first value of a record carries repetition level %d", col.Name(), rep)
			}

			if page.defLevels != nil {
				b.defLevels = append(b.defLevels, page.defLevels[r.off])
			}
			if page.repLevels != nil {
				b.repLevels = append(b.repLevels, rep)
			}
			b.values.push(typ, &page.values, r.off)
			r.off++
		}
	}

	b.recordOffsets = append(b.recordOffsets, int32(b.values.len(typ)))
	b.numRecords = records
	return b, nil
}
