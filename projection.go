package hardwood

import (
	"strings"
)

// projection maps a user column selection to a dense list of projected leaf
// columns in schema order.
type projection struct {
	columns []*ColumnSchema
	byName  map[string]int
	all     bool
}

// resolveProjection maps the requested paths onto the schema. A nil or empty
// request selects every column. Each path is either a leaf's dotted path or
// the path of a group, which selects every primitive below it.
func resolveProjection(schema *Schema, paths []string) (*projection, error) {
	p := &projection{byName: make(map[string]int)}

	if len(paths) == 0 {
		p.all = true
		p.columns = schema.Columns()
		for i, c := range p.columns {
			p.byName[c.Name()] = i
		}
		return p, nil
	}

	selected := make(map[int]bool)
	for _, path := range paths {
		node := schema.Root()
		for _, name := range strings.Split(path, ".") {
			if node.Leaf() {
				return nil, errProjectionf("path %q navigates into the primitive column %q", path, node.Name)
			}
			child, _ := node.Lookup(name)
			if child == nil {
				return nil, errProjectionf("no column named %q under %q", name, node.Name)
			}
			node = child
		}
		for _, c := range collectLeaves(schema, node) {
			selected[c.Index] = true
		}
	}

	for _, c := range schema.Columns() {
		if selected[c.Index] {
			p.byName[c.Name()] = len(p.columns)
			p.columns = append(p.columns, c)
		}
	}
	return p, nil
}

func collectLeaves(schema *Schema, node *SchemaNode) []*ColumnSchema {
	if node.Leaf() {
		for _, c := range schema.Columns() {
			if c.Index == node.ColumnIndex {
				return []*ColumnSchema{c}
			}
		}
		return nil
	}
	var leaves []*ColumnSchema
	for _, child := range node.Children {
		leaves = append(leaves, collectLeaves(schema, child)...)
	}
	return leaves
}

// lookup resolves a column name to its projected index. Simple names match
// both top-level fields and full dotted paths.
func (p *projection) lookup(name string) (int, bool) {
	i, ok := p.byName[name]
	return i, ok
}
