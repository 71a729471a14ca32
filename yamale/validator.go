package yamale

import "sort"

// Node is a raw schema node: either a *Map (a YAML mapping of field name to
// node) or a *Validator (a parsed validator expression).
type Node interface {
	Pos() Position
}

// Position locates a node in the schema text (1-based, 0 when synthesized).
type Position struct {
	Line   int
	Column int
}

func (p Position) Pos() Position { return p }

// Map is an ordered mapping of keys to raw nodes.
type Map struct {
	Position
	keys   []string
	values map[string]Node
}

// NewMap returns an empty Map.
func NewMap() *Map { return &Map{values: map[string]Node{}} }

// Set appends or replaces key, keeping the first insertion position.
func (m *Map) Set(key string, n Node) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = n
}

// Get returns the node stored under key.
func (m *Map) Get(key string) (Node, bool) {
	n, ok := m.values[key]
	return n, ok
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.values[key]
	return ok
}

// Keys returns the keys in source order.
func (m *Map) Keys() []string { return append([]string(nil), m.keys...) }

// Len returns the number of keys.
func (m *Map) Len() int { return len(m.keys) }

// Constraint kinds, named after the yamale constraint classes.
const (
	ConstraintMin              = "Min"
	ConstraintMax              = "Max"
	ConstraintLengthMin        = "LengthMin"
	ConstraintLengthMax        = "LengthMax"
	ConstraintCharacterExclude = "CharacterExclude"
	ConstraintStringEquals     = "StringEquals"
	ConstraintStringStartsWith = "StringStartsWith"
	ConstraintStringEndsWith   = "StringEndsWith"
	ConstraintStringMatches    = "StringMatches"
)

// Constraint is an active constraint of a validator: a constraint kind plus
// the keyword argument value that activated it.
type Constraint struct {
	Kind  string
	Arg   string
	Value any
}

// Validator is a parsed validator expression such as str(required=False).
//
// Positional arguments are literals (string, int64, float64, bool, nil,
// []any) or nested *Validator values.
type Validator struct {
	Position
	Tag         string
	Args        []any
	Kwargs      map[string]any
	Required    bool
	Constraints []Constraint

	order []string
}

// Kwarg returns a keyword argument.
func (v *Validator) Kwarg(name string) (any, bool) {
	a, ok := v.Kwargs[name]
	return a, ok
}

// StringKwarg returns a string keyword argument or def.
func (v *Validator) StringKwarg(name, def string) string {
	if s, ok := v.Kwargs[name].(string); ok {
		return s
	}
	return def
}

// KwargNames returns keyword argument names sorted by the order they were
// written in.
func (v *Validator) KwargNames() []string {
	names := make([]string, 0, len(v.Kwargs))
	for k := range v.Kwargs {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool { return v.kwargIndex(names[i]) < v.kwargIndex(names[j]) })
	return names
}

func (v *Validator) kwargIndex(name string) int {
	for i, k := range v.order {
		if k == name {
			return i
		}
	}
	return len(v.order)
}

// IncludeName returns the include target of include/nested_include.
func (v *Validator) IncludeName() string {
	if len(v.Args) == 0 {
		return ""
	}
	s, _ := v.Args[0].(string)
	return s
}

// Validators returns the positional arguments that are validators (list
// items, choose base).
func (v *Validator) Validators() []*Validator {
	var out []*Validator
	for _, a := range v.Args {
		if vv, ok := a.(*Validator); ok {
			out = append(out, vv)
		}
	}
	return out
}

// Constraint returns the active constraint of the given kind.
func (v *Validator) Constraint(kind string) (Constraint, bool) {
	for _, c := range v.Constraints {
		if c.Kind == kind {
			return c, true
		}
	}
	return Constraint{}, false
}

// IsInclude reports whether v references a named include.
func (v *Validator) IsInclude() bool { return v.Tag == "include" || v.Tag == "nested_include" }

type constraintArg struct {
	arg  string
	kind string
}

var (
	stringConstraints = []constraintArg{
		{"min", ConstraintLengthMin},
		{"max", ConstraintLengthMax},
		{"exclude", ConstraintCharacterExclude},
		{"equals", ConstraintStringEquals},
		{"starts_with", ConstraintStringStartsWith},
		{"ends_with", ConstraintStringEndsWith},
		{"matches", ConstraintStringMatches},
	}
	rangeConstraints  = []constraintArg{{"min", ConstraintMin}, {"max", ConstraintMax}}
	lengthConstraints = []constraintArg{{"min", ConstraintLengthMin}, {"max", ConstraintLengthMax}}
)

// argShape describes which positional arguments a validator accepts.
type argShape int

const (
	argsNone argShape = iota
	argsLiterals
	argsOneString
	argsOptionalString
	argsValidators
	argsStrings
)

// tagSpec describes a validator tag: its constraints, its plain options and
// the shape of its positional arguments. variants marks choose, whose unknown
// keyword arguments are variant includes.
type tagSpec struct {
	constraints []constraintArg
	options     []string
	args        argShape
	variants    bool
}

// tags is the validator registry: yamale's default validators plus the
// repository-specific ones.
var tags = map[string]tagSpec{
	// yamale defaults
	"str":       {constraints: stringConstraints, options: []string{"ignore_case", "multiline", "dotall"}},
	"num":       {constraints: rangeConstraints},
	"int":       {constraints: rangeConstraints},
	"bool":      {},
	"null":      {},
	"enum":      {args: argsLiterals},
	"day":       {constraints: rangeConstraints},
	"timestamp": {constraints: rangeConstraints},
	"list":      {constraints: lengthConstraints, args: argsValidators},
	"map":       {constraints: lengthConstraints, options: []string{"key"}, args: argsValidators},
	"include":   {options: []string{"strict"}, args: argsOneString},
	"any":       {args: argsValidators},
	"subset":    {options: []string{"allow_empty"}, args: argsValidators},
	"regex":     {options: []string{"name", "ignore_case", "multiline", "dotall"}, args: argsStrings},
	"ip":        {options: []string{"version"}},
	"mac":       {},
	"semver":    {},
	// repository validators
	"keyword":          {constraints: stringConstraints, options: []string{"ignore_case"}},
	"fulltext":         {constraints: stringConstraints, options: []string{"ignore_case"}},
	"database_id":      {constraints: stringConstraints, options: []string{"ignore_case"}},
	"chemical_id":      {constraints: stringConstraints, options: []string{"ignore_case"}},
	"person_id":        {constraints: stringConstraints, options: []string{"ignore_case"}},
	"publication_id":   {constraints: stringConstraints, options: []string{"ignore_case"}},
	"macromolecule_id": {constraints: stringConstraints, options: []string{"ignore_case"}},
	"taxonomy_id":      {constraints: stringConstraints, options: []string{"ignore_case"}},
	"link_target":      {constraints: stringConstraints, options: []string{"name", "ignore_case"}},
	"link":             {options: []string{"target", "fields"}},
	"vocabulary":       {options: []string{"vocabulary", "fields"}, args: argsOptionalString},
	"uuid":             {},
	"url":              {},
	"true":             {},
	"false":            {},
	"nested_include":   {options: []string{"strict"}, args: argsOneString},
	"choose":           {options: []string{"type_field"}, args: argsValidators, variants: true},
}

// KnownTag reports whether tag is a registered validator name.
func KnownTag(tag string) bool {
	_, ok := tags[tag]
	return ok
}
