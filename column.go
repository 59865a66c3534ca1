package hardwood

import (
	"strings"

	"github.com/rionmonster/hardwood/format"
)

// ColumnSchema describes one leaf column: its node in the schema tree, its
// position in the pre-order column space, its maximum definition and
// repetition levels, and the precomputed path used by record assembly.
type ColumnSchema struct {
	Node               *SchemaNode
	Index              int
	Path               []string
	MaxDefinitionLevel int
	MaxRepetitionLevel int
	FieldPath          []PathStep
}

// Name returns the dotted path of the column.
func (c *ColumnSchema) Name() string { return strings.Join(c.Path, ".") }

// PhysicalType returns the wire-level storage type of the column.
func (c *ColumnSchema) PhysicalType() format.Type { return c.Node.Type }

// Flat returns true if the column is a non-repeated top-level primitive,
// eligible for the flat assembly fast path.
func (c *ColumnSchema) Flat() bool {
	return len(c.FieldPath) == 1 && c.MaxRepetitionLevel == 0
}

// StepKind discriminates the behaviors of a PathStep during record assembly.
type StepKind int8

const (
	// stepGroup descends into a struct slot, creating the group on first
	// visit.
	stepGroup StepKind = iota

	// stepList materializes a List container at the current slot; the next
	// step is the list's repeated child.
	stepList

	// stepMap materializes a Map container at the current slot; the next step
	// is the map's repeated key_value child.
	stepMap

	// stepRepeated selects the element indexed by the repetition vector
	// within the enclosing List or Map, creating the enclosing List first for
	// legacy repeated fields without a LIST annotation.
	stepRepeated

	// stepLeaf stores the value at the final slot when the definition level
	// proves it present.
	stepLeaf
)

// PathStep is one level of the precomputed path from the schema root to a
// leaf column. Record assembly interprets the steps without reparsing the
// schema.
type PathStep struct {
	Name            string
	Node            *SchemaNode
	Kind            StepKind
	FieldIndex      int
	DefinitionLevel int
	RepetitionLevel int
	ChildCount      int

	// For stepRepeated: the node sits under an annotated LIST or MAP group,
	// and, under a LIST, whether it is the intermediate 3-level group whose
	// single child is the element.
	InList       bool
	InMap        bool
	IsListMiddle bool

	// The repeated node is itself the leaf (legacy repeated primitive) or the
	// final step is a leaf.
	IsLeaf bool
}

// buildColumns collects the leaf columns of the tree in pre-order, building
// each column's field path along the way.
func buildColumns(root *SchemaNode) []*ColumnSchema {
	var columns []*ColumnSchema
	var walk func(n *SchemaNode, parent *SchemaNode, fieldIndex int, path []string, steps []PathStep)

	walk = func(n, parent *SchemaNode, fieldIndex int, path []string, steps []PathStep) {
		path = append(path, n.Name)
		steps = append(steps, newPathStep(n, parent, fieldIndex))

		if n.Leaf() {
			c := &ColumnSchema{
				Node:               n,
				Index:              n.ColumnIndex,
				Path:               append([]string(nil), path...),
				MaxDefinitionLevel: n.MaxDefinitionLevel,
				MaxRepetitionLevel: n.MaxRepetitionLevel,
				FieldPath:          append([]PathStep(nil), steps...),
			}
			columns = append(columns, c)
			return
		}
		for i, child := range n.Children {
			walk(child, n, i, path, steps)
		}
	}

	for i, child := range root.Children {
		walk(child, root, i, nil, nil)
	}
	return columns
}

func newPathStep(n, parent *SchemaNode, fieldIndex int) PathStep {
	st := PathStep{
		Name:            n.Name,
		Node:            n,
		FieldIndex:      fieldIndex,
		DefinitionLevel: n.MaxDefinitionLevel,
		RepetitionLevel: n.MaxRepetitionLevel,
		ChildCount:      len(n.Children),
		IsLeaf:          n.Leaf(),
	}
	switch {
	case n.IsList() && hasRepeatedChild(n):
		st.Kind = stepList
	case n.IsMap() && hasRepeatedChild(n):
		st.Kind = stepMap
	case n.Repeated():
		st.Kind = stepRepeated
		st.InList = parent.IsList() && hasRepeatedChild(parent)
		st.InMap = parent.IsMap() && hasRepeatedChild(parent)
		if st.InList {
			st.IsListMiddle = isListMiddle(n, parent)
		}
	case n.Leaf():
		st.Kind = stepLeaf
	default:
		st.Kind = stepGroup
	}
	return st
}

// hasRepeatedChild reports whether an annotated LIST or MAP group has the
// single repeated child the encodings require. Groups that do not are
// treated as plain structs rather than failing the schema.
func hasRepeatedChild(n *SchemaNode) bool {
	return len(n.Children) == 1 && n.Children[0].Repeated()
}

// isListMiddle reports whether the repeated child of a LIST group is the
// intermediate group of the canonical 3-level encoding, as opposed to the
// element itself in the legacy 2-level encoding. The rules follow the
// backward-compatibility section of the parquet logical type spec.
func isListMiddle(n, list *SchemaNode) bool {
	if n.Leaf() {
		return false
	}
	if len(n.Children) != 1 {
		return false
	}
	if n.Name == "array" || n.Name == list.Name+"_tuple" {
		return false
	}
	return true
}
