// Package build translates a parsed yamale schema into the IR: the root node
// plus a Definition Table filled by expanding includes to a fixpoint.
package build

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	ymerrors "github.com/reoring/yamodel/errors"
	"github.com/reoring/yamodel/internal/ir"
	"github.com/reoring/yamodel/yamale"
)

// Annotation keys of an annotated value.
const (
	keyValue         = "value"
	keyDescription   = "description"
	keyLabel         = "label"
	keyDefaultSearch = "default_search"
)

var (
	defaultLinkFields       = []string{"id", "name"}
	defaultVocabularyFields = []string{"id", "title"}
)

// Builder holds the state of one build: the table being filled and the queue
// of include names waiting to be parsed.
type Builder struct {
	schema  *yamale.Schema
	table   *ir.Table
	pending []string
	// referrer records the first path referencing each queued name.
	referrer map[string]string
	log      *slog.Logger
}

// New returns a builder for s. A nil logger discards output.
func New(s *yamale.Schema, log *slog.Logger) *Builder {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Builder{schema: s, table: ir.NewTable(), referrer: map[string]string{}, log: log}
}

// Build builds the root and every definition reachable through includes.
func Build(s *yamale.Schema, log *slog.Logger) (ir.Node, *ir.Table, error) {
	b := New(s, log)
	root, err := b.Run()
	if err != nil {
		return nil, nil, err
	}
	return root, b.table, nil
}

// Run builds the root map and then drains the pending queue.
func (b *Builder) Run() (ir.Node, error) {
	if b.schema == nil || b.schema.Root == nil {
		return nil, ymerrors.Fail(ymerrors.CodeSchemaSyntax, "", map[string]string{"reason": "schema has no root"})
	}
	root, err := b.node(b.schema.Root, "", false)
	if err != nil {
		return nil, err
	}
	for len(b.pending) > 0 {
		name := b.pending[0]
		b.pending = b.pending[1:]
		raw, ok := b.schema.Include(name)
		if !ok {
			return nil, ymerrors.Fail(ymerrors.CodeMissingDefinition, b.referrer[name], map[string]string{"name": name})
		}
		b.log.Debug("build definition", "name", name)
		n, err := b.node(raw, "/"+name, false)
		if err != nil {
			return nil, err
		}
		b.table.Put(name, n, ir.Unspecialized)
	}
	return root, nil
}

// Table returns the definitions built so far.
func (b *Builder) Table() *ir.Table { return b.table }

func (b *Builder) schedule(name, path string) {
	if _, seen := b.referrer[name]; seen {
		return
	}
	b.referrer[name] = path
	b.pending = append(b.pending, name)
}

func (b *Builder) node(raw yamale.Node, path string, search bool) (ir.Node, error) {
	switch x := raw.(type) {
	case *yamale.Map:
		if isAnnotated(x) {
			b.log.Debug("annotated value", "path", path)
			return b.annotated(x, path)
		}
		return b.object(x, path, search)
	case *yamale.Validator:
		return b.validator(x, path, search)
	}
	return nil, ymerrors.Fail(ymerrors.CodeUnknownNodeKind, path, map[string]string{"kind": fmt.Sprintf("%T", raw)})
}

func isAnnotated(m *yamale.Map) bool {
	return m.Has(keyValue) && (m.Has(keyDescription) || m.Has(keyLabel) || m.Has(keyDefaultSearch))
}

func (b *Builder) object(m *yamale.Map, path string, search bool) (*ir.Object, error) {
	o := &ir.Object{Meta: ir.Meta{Path: path, DefaultSearch: search}, Children: ir.NewFields()}
	for _, k := range m.Keys() {
		raw, _ := m.Get(k)
		child, err := b.node(raw, path+"/"+k, search)
		if err != nil {
			return nil, err
		}
		if err := setField(o, k, child); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// setField adds a child, rejecting names that collide once lower-cased on
// emission.
func setField(o *ir.Object, name string, child ir.Node) error {
	if other, ok := o.Children.Fold(name); ok && other != name {
		return ymerrors.Failf(ymerrors.CodeDuplicateKey, child.Info().Path, map[string]string{"key": name}, "differs only in case from %s", other)
	}
	o.Children.Set(name, child)
	return nil
}

// annotated builds the value of {value, description, label, default_search,
// ...} at path/value and attaches the annotations. Remaining keys become
// extension elements.
func (b *Builder) annotated(m *yamale.Map, path string) (ir.Node, error) {
	description, err := annotationText(m, keyDescription, path)
	if err != nil {
		return nil, err
	}
	label, err := annotationText(m, keyLabel, path)
	if err != nil {
		return nil, err
	}
	search, err := annotationFlag(m, path)
	if err != nil {
		return nil, err
	}
	raw, _ := m.Get(keyValue)
	n, err := b.node(raw, path+"/"+keyValue, search)
	if err != nil {
		return nil, err
	}
	meta := n.Info()
	meta.Description = description
	meta.Label = label
	meta.DefaultSearch = search
	for _, k := range m.Keys() {
		switch k {
		case keyValue, keyDescription, keyLabel, keyDefaultSearch:
			continue
		}
		rawExt, _ := m.Get(k)
		ext, err := b.node(rawExt, path+"/"+k, false)
		if err != nil {
			return nil, err
		}
		if meta.Extensions == nil {
			meta.Extensions = ir.NewFields()
		}
		meta.Extensions.Set(k, ext)
	}
	return n, nil
}

// annotationText returns the equals text of str(equals="...").
func annotationText(m *yamale.Map, key, path string) (string, error) {
	raw, ok := m.Get(key)
	if !ok {
		return "", nil
	}
	v, ok := raw.(*yamale.Validator)
	if !ok {
		return "", ymerrors.Failf(ymerrors.CodeUnknownNodeKind, path+"/"+key, map[string]string{"kind": "map"}, "%s must be a validator such as str(equals=...)", key)
	}
	return v.StringKwarg("equals", ""), nil
}

func annotationFlag(m *yamale.Map, path string) (bool, error) {
	raw, ok := m.Get(keyDefaultSearch)
	if !ok {
		return false, nil
	}
	v, ok := raw.(*yamale.Validator)
	if !ok || (v.Tag != "true" && v.Tag != "false") {
		return false, ymerrors.Failf(ymerrors.CodeUnknownNodeKind, path+"/"+keyDefaultSearch, map[string]string{"kind": kindName(raw)}, "default_search must be true() or false()")
	}
	return v.Tag == "true", nil
}

func kindName(raw yamale.Node) string {
	if v, ok := raw.(*yamale.Validator); ok {
		return v.Tag
	}
	return "map"
}

func (b *Builder) validator(v *yamale.Validator, path string, search bool) (ir.Node, error) {
	meta := ir.Meta{Path: path, Required: v.Required, DefaultSearch: search}
	switch v.Tag {
	case "str", "keyword", "database_id", "chemical_id", "person_id", "publication_id", "macromolecule_id", "taxonomy_id":
		if _, ok := v.Constraint(yamale.ConstraintStringEquals); ok {
			return enumNode(v, meta, nil)
		}
		return primitive(v, meta, ir.TypeKeyword)
	case "fulltext":
		return primitive(v, meta, ir.TypeFulltext)
	case "uuid":
		return primitive(v, meta, ir.TypeUUID)
	case "url":
		return primitive(v, meta, ir.TypeURL)
	case "day":
		return primitive(v, meta, ir.TypeDate)
	case "bool":
		return primitive(v, meta, ir.TypeBoolean)
	case "num":
		return primitive(v, meta, ir.TypeDouble)
	case "int":
		return primitive(v, meta, ir.TypeInteger)
	case "enum":
		values := make([]string, 0, len(v.Args))
		for _, a := range v.Args {
			values = append(values, literal(a))
		}
		return enumNode(v, meta, values)
	case "regex":
		if err := noConstraints(v, path, ir.KindRegex); err != nil {
			return nil, err
		}
		if len(v.Args) > 1 {
			return nil, ymerrors.Fail(ymerrors.CodeSchemaSyntax, path, map[string]string{"reason": "regex() takes a single pattern"})
		}
		pattern, _ := v.Args[0].(string)
		return &ir.Regex{Meta: meta, Pattern: pattern}, nil
	case "include":
		b.schedule(v.IncludeName(), path)
		return &ir.Include{Meta: meta, Target: v.IncludeName()}, nil
	case "nested_include":
		b.schedule(v.IncludeName(), path)
		return &ir.NestedInclude{Meta: meta, Target: v.IncludeName()}, nil
	case "list":
		return b.array(v, meta)
	case "link_target":
		if err := noConstraints(v, path, ir.KindLinkTarget); err != nil {
			return nil, err
		}
		return &ir.LinkTarget{Meta: meta, Anchor: v.StringKwarg("name", "")}, nil
	case "link":
		return link(v, meta)
	case "vocabulary":
		return vocabulary(v, meta)
	case "choose":
		return b.choose(v, meta)
	}
	return nil, ymerrors.Fail(ymerrors.CodeUnknownNodeKind, path, map[string]string{"kind": v.Tag})
}

func unknownConstraint(path string, kind ir.Kind, c yamale.Constraint) error {
	return ymerrors.Fail(ymerrors.CodeUnknownConstraint, path, map[string]string{"constraint": c.Kind, "kind": kind.String()})
}

func noConstraints(v *yamale.Validator, path string, kind ir.Kind) error {
	if len(v.Constraints) > 0 {
		return unknownConstraint(path, kind, v.Constraints[0])
	}
	return nil
}

func primitive(v *yamale.Validator, meta ir.Meta, typ string) (*ir.Primitive, error) {
	p := &ir.Primitive{Meta: meta, Type: typ}
	for _, c := range v.Constraints {
		switch c.Kind {
		case yamale.ConstraintMin:
			p.Minimum = c.Value
		case yamale.ConstraintMax:
			p.Maximum = c.Value
		default:
			return nil, unknownConstraint(meta.Path, ir.KindPrimitive, c)
		}
	}
	return p, nil
}

// enumNode builds an Enum from values; a StringEquals constraint yields a
// singleton set.
func enumNode(v *yamale.Validator, meta ir.Meta, values []string) (*ir.Enum, error) {
	e := &ir.Enum{Meta: meta}
	for _, c := range v.Constraints {
		switch c.Kind {
		case yamale.ConstraintStringEquals:
			values = []string{literal(c.Value)}
		case yamale.ConstraintMin:
			e.Minimum = c.Value
		case yamale.ConstraintMax:
			e.Maximum = c.Value
		default:
			return nil, unknownConstraint(meta.Path, ir.KindEnum, c)
		}
	}
	seen := make(map[string]struct{}, len(values))
	for _, s := range values {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		e.Values = append(e.Values, s)
	}
	return e, nil
}

// literal renders an expression literal as an enum value.
func literal(a any) string {
	switch x := a.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case nil:
		return "null"
	}
	return fmt.Sprint(a)
}

func (b *Builder) array(v *yamale.Validator, meta ir.Meta) (*ir.Array, error) {
	a := &ir.Array{Meta: meta, MinItems: 1}
	for _, c := range v.Constraints {
		switch c.Kind {
		case yamale.ConstraintLengthMin:
			n, ok := toInt(c.Value)
			if !ok {
				return nil, ymerrors.Failf(ymerrors.CodeSchemaSyntax, meta.Path, map[string]string{"reason": "min must be an integer"}, "got %v", c.Value)
			}
			a.MinItems = n
		default:
			return nil, unknownConstraint(meta.Path, ir.KindArray, c)
		}
	}
	items := v.Validators()
	switch len(items) {
	case 0:
		return nil, ymerrors.Failf(ymerrors.CodeUnknownNodeKind, meta.Path, map[string]string{"kind": "list"}, "list() needs an item validator")
	case 1:
		item, err := b.validator(items[0], ir.ItemPath(meta.Path), meta.DefaultSearch)
		if err != nil {
			return nil, err
		}
		a.Item = item
	default:
		// several allowed shapes: an object keyed by include name
		itemPath := ir.ItemPath(meta.Path)
		union := &ir.Object{Meta: ir.Meta{Path: itemPath, DefaultSearch: meta.DefaultSearch}, Children: ir.NewFields()}
		for _, it := range items {
			if !it.IsInclude() {
				return nil, ymerrors.Failf(ymerrors.CodeUnknownNodeKind, meta.Path, map[string]string{"kind": it.Tag}, "list() with several items accepts only includes")
			}
			child, err := b.validator(it, itemPath+"/"+it.IncludeName(), meta.DefaultSearch)
			if err != nil {
				return nil, err
			}
			if err := setField(union, it.IncludeName(), child); err != nil {
				return nil, err
			}
		}
		a.Item = union
	}
	return a, nil
}

func toInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case float64:
		if x == float64(int64(x)) {
			return int64(x), true
		}
	}
	return 0, false
}

func link(v *yamale.Validator, meta ir.Meta) (*ir.Link, error) {
	if err := noConstraints(v, meta.Path, ir.KindLink); err != nil {
		return nil, err
	}
	target := v.StringKwarg("target", "")
	if target == "" {
		return nil, ymerrors.Fail(ymerrors.CodeSchemaSyntax, meta.Path, map[string]string{"reason": "link() needs target="})
	}
	fields, err := displayFields(v, meta.Path, defaultLinkFields)
	if err != nil {
		return nil, err
	}
	return &ir.Link{Meta: meta, Anchor: target, Fields: fields}, nil
}

func vocabulary(v *yamale.Validator, meta ir.Meta) (*ir.Vocabulary, error) {
	if err := noConstraints(v, meta.Path, ir.KindVocabulary); err != nil {
		return nil, err
	}
	typ := v.StringKwarg("vocabulary", "")
	if len(v.Args) == 1 {
		typ, _ = v.Args[0].(string)
	}
	if typ == "" {
		return nil, ymerrors.Fail(ymerrors.CodeSchemaSyntax, meta.Path, map[string]string{"reason": "vocabulary() needs a vocabulary type"})
	}
	fields, err := displayFields(v, meta.Path, defaultVocabularyFields)
	if err != nil {
		return nil, err
	}
	return &ir.Vocabulary{Meta: meta, VocabularyType: typ, Fields: fields}, nil
}

// displayFields reads fields= either as a list literal or as YAML flow text
// such as "[id, title]".
func displayFields(v *yamale.Validator, path string, def []string) ([]string, error) {
	raw, ok := v.Kwarg("fields")
	if !ok || raw == nil {
		return append([]string(nil), def...), nil
	}
	bad := func(detail string) error {
		return ymerrors.Failf(ymerrors.CodeSchemaSyntax, path, map[string]string{"reason": "fields must be a list of names"}, "%s", detail)
	}
	switch x := raw.(type) {
	case []any:
		out := make([]string, 0, len(x))
		for _, e := range x {
			s, ok := e.(string)
			if !ok {
				return nil, bad(fmt.Sprintf("unexpected %T", e))
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		var out []string
		if err := yaml.Unmarshal([]byte(x), &out); err != nil {
			return nil, bad(err.Error())
		}
		return out, nil
	}
	return nil, bad(fmt.Sprintf("unexpected %T", raw))
}

func (b *Builder) choose(v *yamale.Validator, meta ir.Meta) (*ir.Choose, error) {
	if err := noConstraints(v, meta.Path, ir.KindChoose); err != nil {
		return nil, err
	}
	if len(v.Args) == 0 {
		return nil, ymerrors.Failf(ymerrors.CodeInvalidChoose, meta.Path, map[string]string{"reason": "missing base include"}, "choose(include('Base'), Variant=include('Variant'))")
	}
	base, ok := v.Args[0].(*yamale.Validator)
	if !ok || base.Tag != "include" {
		return nil, ymerrors.Fail(ymerrors.CodeInvalidChoose, meta.Path, map[string]string{"reason": "base must be an include"})
	}
	c := &ir.Choose{
		Meta:          meta,
		Base:          &ir.Include{Meta: ir.Meta{Path: ir.BasePath(meta.Path), Required: base.Required, DefaultSearch: meta.DefaultSearch}, Target: base.IncludeName()},
		Discriminator: v.StringKwarg("type_field", "type"),
	}
	b.schedule(base.IncludeName(), c.Base.Path)
	for _, k := range v.KwargNames() {
		switch k {
		case "type_field", "required", "none":
			continue
		}
		inc, _ := v.Kwargs[k].(*yamale.Validator)
		tag := strings.ReplaceAll(k, "_", " ")
		p := ir.VariantPath(meta.Path, tag)
		c.Variants = append(c.Variants, ir.Variant{
			Tag:     tag,
			Include: &ir.Include{Meta: ir.Meta{Path: p, Required: inc.Required, DefaultSearch: meta.DefaultSearch}, Target: inc.IncludeName()},
		})
		b.schedule(inc.IncludeName(), p)
	}
	return c, nil
}
