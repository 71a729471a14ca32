// Package poly specializes tagged unions. Every variant of a Choose is
// cloned under a new name and receives the fields of the base definition, so
// the emitted model needs no notion of inheritance.
package poly

import (
	"log/slog"
	"strings"

	ymerrors "github.com/reoring/yamodel/errors"
	"github.com/reoring/yamodel/internal/ir"
)

// Marker is the suffix of every specialized definition name.
const Marker = "Polymorphic"

// Expander holds the state of one expansion pass.
type Expander struct {
	table    *ir.Table
	log      *slog.Logger
	active   map[string]bool
	warnings ymerrors.Issues
}

// New returns an expander over table. A nil logger discards output.
func New(table *ir.Table, log *slog.Logger) *Expander {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Expander{table: table, log: log, active: map[string]bool{}}
}

// Expand specializes every Choose reachable from root and returns the
// non-fatal warnings raised while merging base fields.
func Expand(root ir.Node, table *ir.Table, log *slog.Logger) (ymerrors.Issues, error) {
	e := New(table, log)
	if err := e.Run(root); err != nil {
		return e.warnings, err
	}
	return e.warnings, nil
}

// Run walks root.
func (e *Expander) Run(root ir.Node) error { return e.walk(root, nil) }

// Warnings returns the warnings collected so far.
func (e *Expander) Warnings() ymerrors.Issues { return e.warnings }

// with returns ancestors extended by path without sharing the backing array.
func with(ancestors []string, path string) []string {
	out := make([]string, len(ancestors), len(ancestors)+1)
	copy(out, ancestors)
	return append(out, path)
}

func (e *Expander) walk(n ir.Node, ancestors []string) error {
	if n == nil {
		return nil
	}
	if ext := n.Info().Extensions; ext.Len() > 0 {
		next := with(ancestors, n.Info().Path)
		for _, k := range ext.Keys() {
			x, _ := ext.Get(k)
			if err := e.walk(x, next); err != nil {
				return err
			}
		}
	}
	switch x := n.(type) {
	case *ir.Object:
		next := with(ancestors, x.Path)
		for _, k := range x.Children.Keys() {
			c, _ := x.Children.Get(k)
			if err := e.walk(c, next); err != nil {
				return err
			}
		}
	case *ir.Array:
		return e.walk(x.Item, with(ancestors, x.Path))
	case *ir.Include:
		return e.enter(x.Target, with(ancestors, x.Path))
	case *ir.NestedInclude:
		return e.enter(x.Target, with(ancestors, x.Path))
	case *ir.Choose:
		return e.expand(x, ancestors)
	}
	return nil
}

func (e *Expander) enter(name string, ancestors []string) error {
	if e.active[name] {
		return nil
	}
	target := e.table.Node(name)
	if target == nil {
		return nil
	}
	e.active[name] = true
	defer delete(e.active, name)
	return e.walk(target, ancestors)
}

func (e *Expander) expand(c *ir.Choose, ancestors []string) error {
	if c.Expanded {
		return nil
	}
	c.Expanded = true
	inner := with(ancestors, c.Path)

	// chooses inside the base are expanded before its fields are copied
	if err := e.enter(c.Base.Target, with(inner, c.Base.Path)); err != nil {
		return err
	}
	base, ok := e.table.Node(c.Base.Target).(*ir.Object)
	if !ok {
		return ymerrors.Failf(ymerrors.CodeInvalidChoose, c.Path, map[string]string{"reason": "base is not an object"}, "base %s", c.Base.Target)
	}
	for i, v := range c.Variants {
		prev := v.Include.Target
		def, ok := e.table.Lookup(prev)
		if !ok {
			return ymerrors.Fail(ymerrors.CodeMissingDefinition, c.Path, map[string]string{"name": prev})
		}
		if def.State == ir.Specialized || strings.HasSuffix(prev, Marker) {
			return ymerrors.Fail(ymerrors.CodeRespecialization, c.Path, map[string]string{"name": prev})
		}
		name := lastSegment(c.Path) + prev + Marker
		if e.table.Has(name) {
			var err error
			if name, err = uniqueName(name, ancestors, e.table.Has); err != nil {
				return err
			}
		}
		e.log.Debug("specialize variant", "path", c.Path, "tag", v.Tag, "from", prev, "to", name)
		clone := ir.Clone(def.Node)
		e.table.Put(name, clone, ir.Specialized)
		inc := &ir.Include{
			Meta:   ir.Meta{Path: v.Include.Path, Required: v.Include.Required, DefaultSearch: c.DefaultSearch},
			Target: name,
		}
		c.Variants[i].Include = inc
		if err := e.merge(clone, base, v.Tag, c, with(inner, inc.Path)); err != nil {
			return err
		}
		if err := e.walk(inc, inner); err != nil {
			return err
		}
	}
	return nil
}

// lastSegment returns the nearest path segment that is not "value".
func lastSegment(path string) string {
	segs := strings.Split(path, "/")
	for i := len(segs) - 1; i >= 0; i-- {
		if s := ir.Segment(segs[i]); s != "" && s != "value" {
			return s
		}
	}
	return ""
}

// uniqueName prefixes name with ancestor segments, nearest first, until
// taken reports a free name. Segments are lower-cased; each ancestor
// contributes only the part not shared with the previous one.
func uniqueName(name string, ancestors []string, taken func(string) bool) (string, error) {
	var (
		flat []string
		prev []string
	)
	for _, p := range ancestors {
		var segs []string
		for _, s := range strings.Split(p, "/") {
			s = ir.Segment(s)
			if s == "" || s == "value" {
				continue
			}
			segs = append(segs, strings.ToLower(s))
		}
		if len(segs) == 0 {
			continue
		}
		if prev == nil {
			flat = append(flat, segs...)
			prev = segs
			continue
		}
		i := 0
		for i < len(segs) && i < len(prev) && segs[i] == prev[i] {
			i++
		}
		if i == len(segs) {
			continue
		}
		flat = append(flat, segs[i:]...)
		prev = segs
	}
	candidate := name
	for i := len(flat) - 1; i >= 0; i-- {
		candidate = flat[i] + "_" + candidate
		if !taken(candidate) {
			return candidate, nil
		}
	}
	return "", ymerrors.Fail(ymerrors.CodeNameExhaustion, strings.Join(ancestors, " > "), map[string]string{"name": name})
}

// merge copies the base fields missing from target. A Choose target is
// expanded first and receives them in each of its variant definitions.
func (e *Expander) merge(target ir.Node, base *ir.Object, tag string, c *ir.Choose, ancestors []string) error {
	switch t := target.(type) {
	case *ir.Object:
		for _, k := range base.Children.Keys() {
			field, _ := base.Children.Get(k)
			field = specializeField(k, field, tag, c.Discriminator, t.DefaultSearch)
			existing, ok := t.Children.Get(k)
			if !ok {
				if other, clash := t.Children.Fold(k); clash {
					return ymerrors.Failf(ymerrors.CodeDuplicateKey, t.Path+"/"+other, map[string]string{"key": other}, "differs only in case from base field %s of %s", k, c.Path)
				}
				t.Children.Set(k, ir.Clone(field))
				continue
			}
			if ir.Equal(existing, field) {
				continue
			}
			it := ymerrors.New(ymerrors.CodeFieldShadow, existing.Info().Path, map[string]string{"field": k})
			it.Hint = "variant " + tag + " of " + c.Path
			e.warnings = ymerrors.AppendIssues(e.warnings, it)
			e.log.Warn("variant field shadows base field", "field", k, "path", existing.Info().Path, "choose", c.Path)
		}
		return nil
	case *ir.Choose:
		if err := e.expand(t, ancestors); err != nil {
			return err
		}
		for _, v := range t.Variants {
			if err := e.merge(e.table.Node(v.Include.Target), base, tag, c, with(ancestors, t.Path)); err != nil {
				return err
			}
		}
		return nil
	}
	return ymerrors.Failf(ymerrors.CodeInvalidChoose, c.Path, map[string]string{"reason": "variant is not an object"}, "variant %s", tag)
}

// specializeField adapts a base field for one variant: the id anchor becomes
// a plain keyword so anchors stay unique and the discriminator enum is
// narrowed to the variant tag.
func specializeField(name string, field ir.Node, tag, discriminator string, search bool) ir.Node {
	switch f := field.(type) {
	case *ir.LinkTarget:
		if name == "id" {
			return &ir.Primitive{Meta: ir.Meta{Path: f.Path, DefaultSearch: search}, Type: ir.TypeKeyword}
		}
	case *ir.Enum:
		if name == discriminator {
			n := ir.Clone(f).(*ir.Enum)
			n.Values = []string{tag}
			return n
		}
	}
	return field
}
