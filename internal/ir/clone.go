package ir

import "slices"

// Clone returns a deep copy of n. The copy shares no mutable state (field
// maps, slices, nested nodes) with the original.
func Clone(n Node) Node {
	switch x := n.(type) {
	case nil:
		return nil
	case *Object:
		c := *x
		c.Meta = cloneMeta(x.Meta)
		c.Children = cloneFields(x.Children)
		return &c
	case *Array:
		c := *x
		c.Meta = cloneMeta(x.Meta)
		c.Item = Clone(x.Item)
		return &c
	case *Primitive:
		c := *x
		c.Meta = cloneMeta(x.Meta)
		return &c
	case *Enum:
		c := *x
		c.Meta = cloneMeta(x.Meta)
		c.Values = slices.Clone(x.Values)
		return &c
	case *Regex:
		c := *x
		c.Meta = cloneMeta(x.Meta)
		return &c
	case *Include:
		return cloneInclude(x)
	case *NestedInclude:
		c := *x
		c.Meta = cloneMeta(x.Meta)
		return &c
	case *LinkTarget:
		c := *x
		c.Meta = cloneMeta(x.Meta)
		return &c
	case *Link:
		c := *x
		c.Meta = cloneMeta(x.Meta)
		c.Fields = slices.Clone(x.Fields)
		return &c
	case *Vocabulary:
		c := *x
		c.Meta = cloneMeta(x.Meta)
		c.Fields = slices.Clone(x.Fields)
		return &c
	case *Choose:
		c := *x
		c.Meta = cloneMeta(x.Meta)
		c.Base = cloneInclude(x.Base)
		c.Variants = make([]Variant, len(x.Variants))
		for i, v := range x.Variants {
			c.Variants[i] = Variant{Tag: v.Tag, Include: cloneInclude(v.Include)}
		}
		return &c
	}
	panic("ir: clone of unknown node kind")
}

func cloneInclude(x *Include) *Include {
	if x == nil {
		return nil
	}
	c := *x
	c.Meta = cloneMeta(x.Meta)
	return &c
}

func cloneMeta(m Meta) Meta {
	m.Extensions = cloneFields(m.Extensions)
	return m
}

func cloneFields(f *Fields) *Fields {
	if f == nil {
		return nil
	}
	out := NewFields()
	f.Each(func(name string, n Node) { out.Set(name, Clone(n)) })
	return out
}

// Equal reports whether a and b describe the same shape. Paths are ignored,
// so a field copied from another definition compares equal to the original.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() || !metaEqual(a.Info(), b.Info()) {
		return false
	}
	switch x := a.(type) {
	case *Object:
		return fieldsEqual(x.Children, b.(*Object).Children)
	case *Array:
		y := b.(*Array)
		return x.MinItems == y.MinItems && Equal(x.Item, y.Item)
	case *Primitive:
		y := b.(*Primitive)
		return x.Type == y.Type && x.Range == y.Range
	case *Enum:
		y := b.(*Enum)
		return x.Range == y.Range && slices.Equal(x.Values, y.Values)
	case *Regex:
		return x.Pattern == b.(*Regex).Pattern
	case *Include:
		return x.Target == b.(*Include).Target
	case *NestedInclude:
		return x.Target == b.(*NestedInclude).Target
	case *LinkTarget:
		return x.Anchor == b.(*LinkTarget).Anchor
	case *Link:
		y := b.(*Link)
		return x.Anchor == y.Anchor && slices.Equal(x.Fields, y.Fields)
	case *Vocabulary:
		y := b.(*Vocabulary)
		return x.VocabularyType == y.VocabularyType && slices.Equal(x.Fields, y.Fields)
	case *Choose:
		y := b.(*Choose)
		if x.Discriminator != y.Discriminator || !Equal(x.Base, y.Base) || len(x.Variants) != len(y.Variants) {
			return false
		}
		for i := range x.Variants {
			if x.Variants[i].Tag != y.Variants[i].Tag || !Equal(x.Variants[i].Include, y.Variants[i].Include) {
				return false
			}
		}
		return true
	}
	return false
}

func metaEqual(a, b *Meta) bool {
	return a.Required == b.Required &&
		a.Description == b.Description &&
		a.Label == b.Label &&
		a.DefaultSearch == b.DefaultSearch &&
		fieldsEqual(a.Extensions, b.Extensions)
}

func fieldsEqual(a, b *Fields) bool {
	if a.Len() != b.Len() {
		return false
	}
	for _, k := range a.Keys() {
		x, _ := a.Get(k)
		y, ok := b.Get(k)
		if !ok || !Equal(x, y) {
			return false
		}
	}
	return true
}
