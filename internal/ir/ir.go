// Package ir defines the intermediate representation produced by the tree
// builder and rewritten by the link, polymorphism and pruning passes. This
// package is internal and not part of the public API.
package ir

import "strings"

// Kind identifies an IR node type.
type Kind int

const (
	KindObject Kind = iota
	KindArray
	KindPrimitive
	KindEnum
	KindRegex
	KindInclude
	KindNestedInclude
	KindLinkTarget
	KindLink
	KindVocabulary
	KindChoose
)

var kindNames = [...]string{
	KindObject:        "object",
	KindArray:         "array",
	KindPrimitive:     "primitive",
	KindEnum:          "enum",
	KindRegex:         "regex",
	KindInclude:       "include",
	KindNestedInclude: "nested_include",
	KindLinkTarget:    "link_target",
	KindLink:          "link",
	KindVocabulary:    "vocabulary",
	KindChoose:        "choose",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Node is implemented by every IR node kind. The set of kinds is closed;
// passes switch on the concrete type.
type Node interface {
	Kind() Kind
	Info() *Meta
}

// Meta is the metadata carried by every node.
type Meta struct {
	// Path is the build location (for example /Person/name/value). It is
	// assigned once by the builder.
	Path          string
	Required      bool
	Description   string
	Label         string
	DefaultSearch bool
	// Extensions are sibling fields declared next to an annotated value.
	Extensions *Fields
}

// Info returns the node metadata.
func (m *Meta) Info() *Meta { return m }

// Range holds optional numeric bounds (nil when unset).
type Range struct {
	Minimum any
	Maximum any
}

// Object is a record of named fields.
type Object struct {
	Meta
	Children *Fields
}

// Array is a repeated element.
type Array struct {
	Meta
	Item     Node
	MinItems int64
}

// Primitive types.
const (
	TypeKeyword  = "keyword"
	TypeFulltext = "fulltext"
	TypeDate     = "date"
	TypeBoolean  = "boolean"
	TypeDouble   = "double"
	TypeInteger  = "integer"
	TypeUUID     = "uuid"
	TypeURL      = "url"
)

// Primitive is a scalar leaf.
type Primitive struct {
	Meta
	Range
	Type string
}

// Enum is a closed set of string values.
type Enum struct {
	Meta
	Range
	Values []string
}

// Regex is a pattern-constrained string.
type Regex struct {
	Meta
	Pattern string
}

// Include references a named definition.
type Include struct {
	Meta
	Target string
}

// NestedInclude is an Include rendered as an embedded sub-document.
// Polymorphic is set by the pruner when the target is a Choose.
type NestedInclude struct {
	Meta
	Target      string
	Polymorphic bool
}

// LinkTarget declares an anchor other fields may link to.
type LinkTarget struct {
	Meta
	Anchor string
}

// Link references a LinkTarget by anchor name.
type Link struct {
	Meta
	Anchor string
	Fields []string
	// ResolvedPath is the data path of the object declaring the anchor,
	// set by the link resolver.
	ResolvedPath string
}

// Vocabulary references an external controlled vocabulary.
type Vocabulary struct {
	Meta
	VocabularyType string
	Fields         []string
}

// Variant is a tagged alternative of a Choose.
type Variant struct {
	Tag     string
	Include *Include
}

// Choose is a tagged union selected by Discriminator.
type Choose struct {
	Meta
	Base          *Include
	Discriminator string
	Variants      []Variant
	// LinkID is the anchor of the base definition's id field, if any.
	LinkID string
	// Expanded marks the node as processed by the polymorphism expander.
	Expanded bool
}

func (*Object) Kind() Kind        { return KindObject }
func (*Array) Kind() Kind         { return KindArray }
func (*Primitive) Kind() Kind     { return KindPrimitive }
func (*Enum) Kind() Kind          { return KindEnum }
func (*Regex) Kind() Kind         { return KindRegex }
func (*Include) Kind() Kind       { return KindInclude }
func (*NestedInclude) Kind() Kind { return KindNestedInclude }
func (*LinkTarget) Kind() Kind    { return KindLinkTarget }
func (*Link) Kind() Kind          { return KindLink }
func (*Vocabulary) Kind() Kind    { return KindVocabulary }
func (*Choose) Kind() Kind        { return KindChoose }

// Fields is an ordered map of field name to node.
type Fields struct {
	keys  []string
	nodes map[string]Node
}

// NewFields returns an empty field map.
func NewFields() *Fields { return &Fields{nodes: map[string]Node{}} }

// Set appends or replaces name.
func (f *Fields) Set(name string, n Node) {
	if _, ok := f.nodes[name]; !ok {
		f.keys = append(f.keys, name)
	}
	f.nodes[name] = n
}

// Get returns the node stored under name.
func (f *Fields) Get(name string) (Node, bool) {
	if f == nil {
		return nil, false
	}
	n, ok := f.nodes[name]
	return n, ok
}

// Keys returns field names in insertion order.
func (f *Fields) Keys() []string {
	if f == nil {
		return nil
	}
	return append([]string(nil), f.keys...)
}

// Len returns the number of fields.
func (f *Fields) Len() int {
	if f == nil {
		return 0
	}
	return len(f.keys)
}

// Each calls fn for every field in order.
func (f *Fields) Each(fn func(name string, n Node)) {
	if f == nil {
		return
	}
	for _, k := range f.keys {
		fn(k, f.nodes[k])
	}
}

// Fold returns the field whose name equals name ignoring case.
func (f *Fields) Fold(name string) (string, bool) {
	if f == nil {
		return "", false
	}
	for _, k := range f.keys {
		if strings.EqualFold(k, name) {
			return k, true
		}
	}
	return "", false
}
