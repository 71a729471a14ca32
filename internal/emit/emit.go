// Package emit serializes the IR into the model description consumed by the
// repository model builder.
//
// Every field becomes a flat map: the type declaration and its metadata
// (required, help.en, label.en, mapping, constraints) are siblings.
package emit

import (
	"strings"
	"unicode"

	"github.com/reoring/yamodel/internal/ir"
)

// Link model styles.
const (
	// LinkModelAnchor renders relation models as "#<anchor>".
	LinkModelAnchor = "anchor"
	// LinkModelPath renders relation models as "#/<resolved data path>".
	LinkModelPath = "path"
)

// Emitter turns IR nodes into generic maps.
type Emitter struct {
	linkModel  string
	queryField string
}

// NewEmitter returns an emitter. Empty arguments select the defaults.
func NewEmitter(linkModel, queryField string) *Emitter {
	if linkModel == "" {
		linkModel = LinkModelAnchor
	}
	if queryField == "" {
		queryField = DefaultQueryField
	}
	return &Emitter{linkModel: linkModel, queryField: queryField}
}

// Field emits n as it appears under its parent's properties. short reports an
// array in shorthand form, whose property key takes a "[]" suffix.
func (e *Emitter) Field(n ir.Node) (m map[string]any, short bool) {
	if a, ok := n.(*ir.Array); ok {
		return e.shorthand(a), true
	}
	return e.Node(n), false
}

// Node emits n standalone; arrays use the explicit {type: array, items} form.
func (e *Emitter) Node(n ir.Node) map[string]any {
	switch x := n.(type) {
	case *ir.Object:
		return e.object(x)
	case *ir.Array:
		return e.explicit(x)
	case *ir.Primitive:
		out := map[string]any{"type": x.Type}
		putRange(out, x.Range)
		return e.common(x.Info(), out)
	case *ir.Enum:
		out := map[string]any{"type": ir.TypeKeyword, "enum": strings2any(x.Values)}
		putRange(out, x.Range)
		return e.common(x.Info(), out)
	case *ir.Regex:
		return e.common(x.Info(), map[string]any{"type": ir.TypeKeyword, "regex": x.Pattern})
	case *ir.Include:
		return include(x.Info(), x.Target)
	case *ir.NestedInclude:
		out := include(x.Info(), x.Target)
		if x.Polymorphic {
			out["type"] = "polymorphic"
			out["mapping"] = map[string]any{"type": "nested"}
		} else {
			out["type"] = "nested"
		}
		return out
	case *ir.Choose:
		return e.choose(x)
	case *ir.LinkTarget:
		out := map[string]any{"type": ir.TypeKeyword}
		if x.Required {
			out["required"] = true
		}
		return out
	case *ir.Link:
		model := "#" + x.Anchor
		if e.linkModel == LinkModelPath && x.ResolvedPath != "" {
			model = "#/" + x.ResolvedPath
		}
		out := map[string]any{"type": "relation", "model": model, "keys": strings2any(x.Fields)}
		if x.Required {
			out["required"] = true
		}
		return out
	case *ir.Vocabulary:
		out := e.common(x.Info(), map[string]any{})
		out["keys"] = strings2any(x.Fields)
		out["vocabulary-type"] = x.VocabularyType
		out["type"] = "vocabulary"
		if x.DefaultSearch {
			// only the title and id of vocabulary entries are searchable
			delete(out, "mapping")
			out["extras"] = map[string]any{
				"title": map[string]any{"mapping": map[string]any{"properties": map[string]any{"en": e.copyTo()}}},
				"id":    map[string]any{"mapping": e.copyTo()},
			}
		}
		return out
	}
	return map[string]any{}
}

func (e *Emitter) copyTo() map[string]any { return map[string]any{"copy_to": e.queryField} }

// common adds the metadata shared by value kinds.
func (e *Emitter) common(m *ir.Meta, out map[string]any) map[string]any {
	if d := strings.TrimSpace(m.Description); d != "" {
		out["help.en"] = d
	}
	if m.Required {
		out["required"] = true
	}
	if m.DefaultSearch {
		out["mapping"] = e.copyTo()
	}
	m.Extensions.Each(func(name string, ext ir.Node) {
		v := e.Node(ext)
		delete(v, "required")
		delete(v, "default")
		delete(v, "mapping")
		out[name] = v
	})
	out["label.en"] = label(m)
	return out
}

func include(m *ir.Meta, target string) map[string]any {
	out := map[string]any{"use": "#/$defs/" + target}
	if m.Required {
		out["required"] = true
	}
	if d := strings.TrimSpace(m.Description); d != "" {
		out["help.en"] = d
	}
	out["label.en"] = label(m)
	return out
}

func (e *Emitter) object(o *ir.Object) map[string]any {
	props := map[string]any{}
	out := map[string]any{"properties": props}
	o.Children.Each(func(name string, c ir.Node) {
		v, short := e.Field(c)
		key := strings.ToLower(name)
		if short {
			key += "[]"
		}
		props[key] = v
		if lt, ok := c.(*ir.LinkTarget); ok && name == "id" {
			out["id"] = lt.Anchor
		}
	})
	return e.common(o.Info(), out)
}

// shorthand folds the array metadata, caret-prefixed, into the item.
func (e *Emitter) shorthand(a *ir.Array) map[string]any {
	own := e.common(a.Info(), map[string]any{"minItems": a.MinItems})
	out := make(map[string]any, len(own))
	for k, v := range own {
		if k == "mapping" {
			continue
		}
		out["^"+k] = v
	}
	for k, v := range e.Node(a.Item) {
		out[k] = v
	}
	delete(out, "required")
	delete(out, "label.en")
	return out
}

func (e *Emitter) explicit(a *ir.Array) map[string]any {
	out := e.common(a.Info(), map[string]any{"minItems": a.MinItems})
	item := e.Node(a.Item)
	delete(item, "required")
	delete(item, "label.en")
	out["items"] = item
	out["type"] = "array"
	return out
}

func (e *Emitter) choose(c *ir.Choose) map[string]any {
	out := e.common(c.Info(), map[string]any{})
	schemas := make(map[string]any, len(c.Variants))
	for _, v := range c.Variants {
		schemas[v.Tag] = include(v.Include.Info(), v.Include.Target)
	}
	out["schemas"] = schemas
	out["type"] = "polymorphic"
	out["discriminator"] = c.Discriminator
	if c.LinkID != "" {
		out["id"] = c.LinkID
	}
	delete(out, "required")
	return out
}

func putRange(out map[string]any, r ir.Range) {
	if r.Minimum != nil {
		out["minimum"] = r.Minimum
	}
	if r.Maximum != nil {
		out["maximum"] = r.Maximum
	}
}

func strings2any(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// label returns the explicit label or one derived from the path: the last
// segment without selectors (its parent for an annotated value), underscores
// as spaces, capitalized.
func label(m *ir.Meta) string {
	if l := strings.TrimSpace(m.Label); l != "" {
		return l
	}
	segs := strings.Split(m.Path, "/")
	s := ir.Segment(segs[len(segs)-1])
	if s == "value" && len(segs) > 2 {
		s = ir.Segment(segs[len(segs)-2])
	}
	return capitalize(strings.ReplaceAll(s, "_", " "))
}

func capitalize(s string) string {
	r := []rune(strings.ToLower(s))
	if len(r) > 0 {
		r[0] = unicode.ToUpper(r[0])
	}
	return string(r)
}
