package ir

// State records whether a definition was produced by polymorphism expansion.
type State int

const (
	Unspecialized State = iota
	Specialized
)

func (s State) String() string {
	if s == Specialized {
		return "specialized"
	}
	return "unspecialized"
}

// Definition is a named entry of the Table. The table owns Node.
type Definition struct {
	Name  string
	Node  Node
	State State
}

// Table maps definition names to nodes, keeping insertion order.
type Table struct {
	order []string
	defs  map[string]*Definition
}

// NewTable returns an empty table.
func NewTable() *Table { return &Table{defs: map[string]*Definition{}} }

// Put inserts or replaces a definition.
func (t *Table) Put(name string, n Node, s State) {
	if d, ok := t.defs[name]; ok {
		d.Node, d.State = n, s
		return
	}
	t.order = append(t.order, name)
	t.defs[name] = &Definition{Name: name, Node: n, State: s}
}

// Lookup returns the definition named name.
func (t *Table) Lookup(name string) (*Definition, bool) {
	d, ok := t.defs[name]
	return d, ok
}

// Node returns the node of the definition named name, or nil.
func (t *Table) Node(name string) Node {
	if d, ok := t.defs[name]; ok {
		return d.Node
	}
	return nil
}

// Has reports whether name is defined.
func (t *Table) Has(name string) bool {
	_, ok := t.defs[name]
	return ok
}

// Names returns definition names in insertion order.
func (t *Table) Names() []string { return append([]string(nil), t.order...) }

// Len returns the number of definitions.
func (t *Table) Len() int { return len(t.order) }

// Retain drops every definition whose name is not in keep.
func (t *Table) Retain(keep map[string]struct{}) {
	kept := t.order[:0]
	for _, name := range t.order {
		if _, ok := keep[name]; ok {
			kept = append(kept, name)
			continue
		}
		delete(t.defs, name)
	}
	t.order = kept
}
