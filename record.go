package hardwood

// The containers built by record assembly. A record is a tree of Group, List
// and Map values whose leaf slots hold primitives (after logical type
// conversion). A record exclusively owns its container subtree; it stays
// valid after the cursor advances and shares no container with it. Raw
// []byte leaf values reference the decoded page data rather than a copy.

// Group is a struct container with one slot per field. Absent optional
// fields hold nil.
type Group struct {
	node  *SchemaNode
	slots []interface{}
}

func newGroup(node *SchemaNode) *Group {
	return &Group{node: node, slots: make([]interface{}, len(node.Children))}
}

// NumFields returns the number of fields of the group.
func (g *Group) NumFields() int { return len(g.slots) }

// FieldName returns the name of field i.
func (g *Group) FieldName(i int) string { return g.node.Children[i].Name }

// Field returns the value of field i, nil when absent.
func (g *Group) Field(i int) interface{} { return g.slots[i] }

// FieldByName returns the value of the named field.
func (g *Group) FieldByName(name string) (interface{}, bool) {
	if _, i := g.node.Lookup(name); i >= 0 {
		return g.slots[i], true
	}
	return nil, false
}

// List is a growable container of elements. Null elements hold nil.
type List struct {
	elems []interface{}
}

// Len returns the number of elements.
func (l *List) Len() int { return len(l.elems) }

// Index returns element i, nil when the element is null.
func (l *List) Index(i int) interface{} { return l.elems[i] }

// Int32s unboxes a list of INT32 values; ok is false if any element is null
// or of another type.
func (l *List) Int32s() (values []int32, ok bool) {
	values = make([]int32, len(l.elems))
	for i, e := range l.elems {
		if values[i], ok = e.(int32); !ok {
			return nil, false
		}
	}
	return values, true
}

// Int64s unboxes a list of INT64 values; ok is false if any element is null
// or of another type.
func (l *List) Int64s() (values []int64, ok bool) {
	values = make([]int64, len(l.elems))
	for i, e := range l.elems {
		if values[i], ok = e.(int64); !ok {
			return nil, false
		}
	}
	return values, true
}

// Doubles unboxes a list of DOUBLE values; ok is false if any element is
// null or of another type.
func (l *List) Doubles() (values []float64, ok bool) {
	values = make([]float64, len(l.elems))
	for i, e := range l.elems {
		if values[i], ok = e.(float64); !ok {
			return nil, false
		}
	}
	return values, true
}

// Strings unboxes a list of STRING values; ok is false if any element is
// null or of another type.
func (l *List) Strings() (values []string, ok bool) {
	values = make([]string, len(l.elems))
	for i, e := range l.elems {
		if values[i], ok = e.(string); !ok {
			return nil, false
		}
	}
	return values, true
}

func (l *List) grow(n int) {
	for len(l.elems) < n {
		l.elems = append(l.elems, nil)
	}
}

// Map is a growable container of key/value entries, each a two-slot group
// over the schema's key_value node.
type Map struct {
	entries []*Group
}

// Len returns the number of entries.
func (m *Map) Len() int { return len(m.entries) }

// Key returns the key of entry i.
func (m *Map) Key(i int) interface{} {
	if e := m.entries[i]; len(e.slots) > 0 {
		return e.slots[0]
	}
	return nil
}

// Value returns the value of entry i, nil when the value is null.
func (m *Map) Value(i int) interface{} {
	if e := m.entries[i]; len(e.slots) > 1 {
		return e.slots[1]
	}
	return nil
}

// recordAssembler inverts the Dremel shredding: from the per-column value
// and level streams of one record, it rebuilds the record's container tree.
//
// Sibling columns agree on the shape of every ancestor they share, so each
// column is processed independently: its repetition levels drive an index
// vector addressing the list and map elements its values belong to, and its
// field path drives the descent from the root.
type recordAssembler struct {
	root    *SchemaNode
	columns []*ColumnSchema
	idx     []int
}

func newRecordAssembler(root *SchemaNode, columns []*ColumnSchema) *recordAssembler {
	maxRep := 0
	for _, c := range columns {
		if c.MaxRepetitionLevel > maxRep {
			maxRep = c.MaxRepetitionLevel
		}
	}
	return &recordAssembler{
		root:    root,
		columns: columns,
		idx:     make([]int, maxRep+1),
	}
}

// assemble materializes the record at the given row index of the batches.
func (a *recordAssembler) assemble(batches []*ColumnBatch, row int) (*Group, error) {
	record := newGroup(a.root)
	for ci, b := range batches {
		col := a.columns[ci]
		typ := col.PhysicalType()

		if b.flat {
			if !b.IsNull(row) {
				record.slots[col.FieldPath[0].FieldIndex] = convertLeaf(col, b.values.at(typ, row))
			}
			continue
		}

		start, end := b.record(row)
		for t := start; t < end; t++ {
			def := col.MaxDefinitionLevel
			if b.defLevels != nil {
				def = int(b.defLevels[t])
			}
			rep := 0
			if b.repLevels != nil {
				rep = int(b.repLevels[t])
			}

			if t == start {
				for i := range a.idx {
					a.idx[i] = 0
				}
			} else {
				for i := rep + 1; i < len(a.idx); i++ {
					a.idx[i] = 0
				}
				if rep > 0 {
					a.idx[rep]++
				}
			}

			var value interface{}
			if def == col.MaxDefinitionLevel {
				value = convertLeaf(col, b.values.at(typ, t))
			}
			if err := a.insert(record, col, def, value); err != nil {
				return nil, err
			}
		}
	}
	return record, nil
}

// insert walks the column's field path from the root, creating containers
// down to the depth the definition level proves present, and stores the
// value at the leaf slot when it is present.
func (a *recordAssembler) insert(record *Group, col *ColumnSchema, def int, value interface{}) error {
	g := record
	var l *List
	var m *Map
	elem := -1

	for si := range col.FieldPath {
		st := &col.FieldPath[si]
		switch st.Kind {
		case stepLeaf:
			if value != nil {
				if l != nil {
					l.elems[elem] = value
				} else {
					g.slots[st.FieldIndex] = value
				}
			}
			return nil

		case stepGroup:
			if def < st.DefinitionLevel {
				return nil
			}
			child, err := a.ensureGroup(g, l, elem, st)
			if err != nil {
				return err
			}
			g, l, elem = child, nil, -1

		case stepList:
			if def < st.DefinitionLevel {
				return nil
			}
			list, err := a.ensureList(g, l, elem, st)
			if err != nil {
				return err
			}
			g, l, m, elem = nil, list, nil, -1

		case stepMap:
			if def < st.DefinitionLevel {
				return nil
			}
			mp, err := a.ensureMap(g, l, elem, st)
			if err != nil {
				return err
			}
			g, l, m, elem = nil, nil, mp, -1

		case stepRepeated:
			if st.InMap {
				if def < st.DefinitionLevel {
					return nil
				}
				e := a.idx[st.RepetitionLevel]
				for len(m.entries) <= e {
					m.entries = append(m.entries, newGroup(st.Node))
				}
				g, m, elem = m.entries[e], nil, -1
				continue
			}

			container := l
			if !st.InList {
				// A repeated field without a LIST annotation is its own list.
				var err error
				if container, err = a.ensureList(g, l, elem, st); err != nil {
					return err
				}
			}
			if def < st.DefinitionLevel {
				return nil
			}
			e := a.idx[st.RepetitionLevel]
			container.grow(e + 1)

			switch {
			case st.IsListMiddle:
				g, l, elem = nil, container, e
			case st.IsLeaf:
				if value != nil {
					container.elems[e] = value
				}
				return nil
			default:
				child, err := a.ensureGroupAt(container, e, st)
				if err != nil {
					return err
				}
				g, l, elem = child, nil, -1
			}
		}
	}
	return nil
}

func (a *recordAssembler) slot(g *Group, l *List, elem int, fieldIndex int) interface{} {
	if l != nil {
		return l.elems[elem]
	}
	return g.slots[fieldIndex]
}

func (a *recordAssembler) setSlot(g *Group, l *List, elem int, fieldIndex int, v interface{}) {
	if l != nil {
		l.elems[elem] = v
	} else {
		g.slots[fieldIndex] = v
	}
}

func (a *recordAssembler) ensureGroup(g *Group, l *List, elem int, st *PathStep) (*Group, error) {
	switch v := a.slot(g, l, elem, st.FieldIndex).(type) {
	case nil:
		child := newGroup(st.Node)
		a.setSlot(g, l, elem, st.FieldIndex, child)
		return child, nil
	case *Group:
		return v, nil
	default:
		return nil, errMalformedf("columns disagree on the shape of %q: %T is not a group", st.Name, v)
	}
}

func (a *recordAssembler) ensureGroupAt(l *List, elem int, st *PathStep) (*Group, error) {
	switch v := l.elems[elem].(type) {
	case nil:
		child := newGroup(st.Node)
		l.elems[elem] = child
		return child, nil
	case *Group:
		return v, nil
	default:
		return nil, errMalformedf("columns disagree on the shape of %q: %T is not a group", st.Name, v)
	}
}

func (a *recordAssembler) ensureList(g *Group, l *List, elem int, st *PathStep) (*List, error) {
	switch v := a.slot(g, l, elem, st.FieldIndex).(type) {
	case nil:
		child := new(List)
		a.setSlot(g, l, elem, st.FieldIndex, child)
		return child, nil
	case *List:
		return v, nil
	default:
		return nil, errMalformedf("columns disagree on the shape of %q: %T is not a list", st.Name, v)
	}
}

func (a *recordAssembler) ensureMap(g *Group, l *List, elem int, st *PathStep) (*Map, error) {
	switch v := a.slot(g, l, elem, st.FieldIndex).(type) {
	case nil:
		child := new(Map)
		a.setSlot(g, l, elem, st.FieldIndex, child)
		return child, nil
	case *Map:
		return v, nil
	default:
		return nil, errMalformedf("columns disagree on the shape of %q: %T is not a map", st.Name, v)
	}
}
