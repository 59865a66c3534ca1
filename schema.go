package hardwood

import (
	"strconv"
	"strings"

	"github.com/rionmonster/hardwood/format"
)

// Schema is the typed view of a parquet file's schema: the tree of nodes
// reconstructed from the flattened element list of the footer, plus the flat
// list of leaf columns in pre-order.
type Schema struct {
	root    *SchemaNode
	columns []*ColumnSchema
	byPath  map[string]*ColumnSchema
}

// SchemaNode is one node of the schema tree: either a primitive column or a
// group of child nodes.
type SchemaNode struct {
	Name               string
	Repetition         format.FieldRepetitionType
	Type               format.Type
	TypeLength         int
	Scale              int
	Precision          int
	ConvertedType      *format.ConvertedType
	LogicalType        *format.LogicalType
	Children           []*SchemaNode
	ColumnIndex        int
	MaxDefinitionLevel int
	MaxRepetitionLevel int
}

// Leaf returns true if the node is a primitive column.
func (n *SchemaNode) Leaf() bool { return len(n.Children) == 0 }

// Optional returns true if the node may be absent from a record.
func (n *SchemaNode) Optional() bool { return n.Repetition == format.Optional }

// Repeated returns true if the node may appear multiple times in a record.
func (n *SchemaNode) Repeated() bool { return n.Repetition == format.Repeated }

// IsList returns true if the group is annotated as a list.
func (n *SchemaNode) IsList() bool {
	if n.Leaf() {
		return false
	}
	if n.ConvertedType != nil && *n.ConvertedType == format.List {
		return true
	}
	return n.LogicalType != nil && n.LogicalType.List != nil
}

// IsMap returns true if the group is annotated as a map.
func (n *SchemaNode) IsMap() bool {
	if n.Leaf() {
		return false
	}
	if n.ConvertedType != nil && (*n.ConvertedType == format.Map || *n.ConvertedType == format.MapKeyValue) {
		return true
	}
	return n.LogicalType != nil && n.LogicalType.Map != nil
}

// Lookup returns the child with the given name and its index among the
// node's children.
func (n *SchemaNode) Lookup(name string) (*SchemaNode, int) {
	for i, c := range n.Children {
		if c.Name == name {
			return c, i
		}
	}
	return nil, -1
}

// newSchema rebuilds the schema tree from the pre-order element list of the
// file footer, assigning column indexes to primitives as they appear.
func newSchema(elements []format.SchemaElement) (*Schema, error) {
	if len(elements) == 0 {
		return nil, ErrMissingRootColumn
	}
	pos, columnIndex := 0, 0
	root, err := buildSchemaNode(elements, &pos, &columnIndex, true, 0, 0)
	if err != nil {
		return nil, err
	}
	if pos != len(elements) {
		return nil, errMalformedf("schema holds %d elements but the root subtree ends after %d", len(elements), pos)
	}

	s := &Schema{
		root:   root,
		byPath: make(map[string]*ColumnSchema),
	}
	s.columns = buildColumns(root)
	for _, c := range s.columns {
		s.byPath[c.Name()] = c
	}
	return s, nil
}

func buildSchemaNode(elements []format.SchemaElement, pos, columnIndex *int, isRoot bool, maxDef, maxRep int) (*SchemaNode, error) {
	if *pos >= len(elements) {
		return nil, errMalformedf("schema subtree references elements past the %d available", len(elements))
	}
	e := &elements[*pos]
	*pos++

	n := &SchemaNode{
		Name:          e.Name,
		Repetition:    format.Required,
		ConvertedType: e.ConvertedType,
		LogicalType:   e.LogicalType,
		ColumnIndex:   -1,
	}
	if e.RepetitionType != nil && !isRoot {
		n.Repetition = *e.RepetitionType
	}
	if e.TypeLength != nil {
		n.TypeLength = int(*e.TypeLength)
	}
	if e.Scale != nil {
		n.Scale = int(*e.Scale)
	}
	if e.Precision != nil {
		n.Precision = int(*e.Precision)
	}

	// Optional and repeated nodes raise the definition level; repeated nodes
	// raise the repetition level. The root contributes to neither.
	if !isRoot {
		if n.Repetition != format.Required {
			maxDef++
		}
		if n.Repetition == format.Repeated {
			maxRep++
		}
	}
	n.MaxDefinitionLevel = maxDef
	n.MaxRepetitionLevel = maxRep

	if e.NumChildren == 0 {
		if isRoot {
			return nil, ErrMissingRootColumn
		}
		if e.Type == nil {
			return nil, errMalformedf("schema element %q has no children and no type", e.Name)
		}
		n.Type = *e.Type
		n.ColumnIndex = *columnIndex
		*columnIndex++
		return n, nil
	}

	n.Children = make([]*SchemaNode, e.NumChildren)
	for i := range n.Children {
		child, err := buildSchemaNode(elements, pos, columnIndex, false, maxDef, maxRep)
		if err != nil {
			return nil, err
		}
		n.Children[i] = child
	}
	return n, nil
}

// Root returns the root group of the schema tree.
func (s *Schema) Root() *SchemaNode { return s.root }

// Columns returns the leaf columns of the schema in pre-order.
func (s *Schema) Columns() []*ColumnSchema { return s.columns }

// Lookup returns the leaf column with the given dotted path.
func (s *Schema) Lookup(path string) (*ColumnSchema, bool) {
	c, ok := s.byPath[path]
	return c, ok
}

// String renders the schema in the parquet message format.
func (s *Schema) String() string {
	b := new(strings.Builder)
	b.WriteString("message ")
	if s.root.Name != "" {
		b.WriteString(s.root.Name)
		b.WriteString(" ")
	}
	b.WriteString("{")
	for _, child := range s.root.Children {
		printNode(b, child, 1)
	}
	b.WriteString("\n}")
	return b.String()
}

func printNode(b *strings.Builder, n *SchemaNode, depth int) {
	b.WriteString("\n")
	for i := 0; i < depth; i++ {
		b.WriteString("\t")
	}

	switch n.Repetition {
	case format.Optional:
		b.WriteString("optional ")
	case format.Repeated:
		b.WriteString("repeated ")
	default:
		b.WriteString("required ")
	}

	if n.Leaf() {
		switch n.Type {
		case format.Boolean:
			b.WriteString("boolean ")
		case format.Int32:
			b.WriteString("int32 ")
		case format.Int64:
			b.WriteString("int64 ")
		case format.Int96:
			b.WriteString("int96 ")
		case format.Float:
			b.WriteString("float ")
		case format.Double:
			b.WriteString("double ")
		case format.ByteArray:
			b.WriteString("binary ")
		case format.FixedLenByteArray:
			b.WriteString("fixed_len_byte_array(")
			b.WriteString(strconv.Itoa(n.TypeLength))
			b.WriteString(") ")
		}
		b.WriteString(n.Name)
		if annotation := nodeAnnotation(n); annotation != "" {
			b.WriteString(" (")
			b.WriteString(annotation)
			b.WriteString(")")
		}
		b.WriteString(";")
		return
	}

	b.WriteString("group ")
	b.WriteString(n.Name)
	if annotation := nodeAnnotation(n); annotation != "" {
		b.WriteString(" (")
		b.WriteString(annotation)
		b.WriteString(")")
	}
	b.WriteString(" {")
	for _, child := range n.Children {
		printNode(b, child, depth+1)
	}
	b.WriteString("\n")
	for i := 0; i < depth; i++ {
		b.WriteString("\t")
	}
	b.WriteString("}")
}

func nodeAnnotation(n *SchemaNode) string {
	if n.LogicalType != nil {
		if s := n.LogicalType.String(); s != "" {
			return s
		}
	}
	if n.ConvertedType != nil {
		return n.ConvertedType.String()
	}
	return ""
}
