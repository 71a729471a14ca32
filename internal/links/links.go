// Package links resolves Link nodes against the LinkTarget anchors declared
// anywhere in the compiled tree.
//
// Resolution has two walks. Discovery records every anchor and the data
// path of the object declaring it; binding then looks every link up. Anchors
// may therefore be declared after the links using them.
package links

import (
	"strings"

	ymerrors "github.com/reoring/yamodel/errors"
	"github.com/reoring/yamodel/internal/ir"
)

// Anchors maps anchor names to the data path of the declaring object.
type Anchors map[string]string

// Resolve runs discovery followed by binding.
func Resolve(root ir.Node, table *ir.Table) (Anchors, error) {
	anchors, err := Discover(root, table)
	if err != nil {
		return nil, err
	}
	if err := Bind(root, table, anchors); err != nil {
		return nil, err
	}
	return anchors, nil
}

// walker follows includes and extension elements through the table. active
// holds the definitions on the current walk stack so recursive includes
// terminate.
type walker struct {
	table  *ir.Table
	active map[string]bool
	visit  func(n ir.Node, path string) error
}

func (w *walker) walk(n ir.Node, path string) error {
	if n == nil {
		return nil
	}
	if err := w.visit(n, path); err != nil {
		return err
	}
	ext := n.Info().Extensions
	for _, k := range ext.Keys() {
		x, _ := ext.Get(k)
		if err := w.walk(x, join(path, k)); err != nil {
			return err
		}
	}
	switch x := n.(type) {
	case *ir.Object:
		for _, k := range x.Children.Keys() {
			c, _ := x.Children.Get(k)
			if err := w.walk(c, join(path, k)); err != nil {
				return err
			}
		}
	case *ir.Array:
		return w.walk(x.Item, path)
	case *ir.Include:
		return w.enter(x.Target, path)
	case *ir.NestedInclude:
		return w.enter(x.Target, path)
	case *ir.Choose:
		if err := w.enter(x.Base.Target, path); err != nil {
			return err
		}
		for _, v := range x.Variants {
			if err := w.enter(v.Include.Target, path); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *walker) enter(name, path string) error {
	if w.active[name] {
		return nil
	}
	target := w.table.Node(name)
	if target == nil {
		return nil
	}
	w.active[name] = true
	defer delete(w.active, name)
	return w.walk(target, path)
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "/" + key
}

// parent drops the last segment of a data path.
func parent(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[:i]
	}
	return ""
}

// Discover collects anchors. It also records on every Choose the anchor of
// its base definition's id field.
func Discover(root ir.Node, table *ir.Table) (Anchors, error) {
	anchors := Anchors{}
	where := map[string]string{}
	w := &walker{table: table, active: map[string]bool{}}
	w.visit = func(n ir.Node, path string) error {
		switch x := n.(type) {
		case *ir.LinkTarget:
			if first, dup := where[x.Anchor]; dup {
				return ymerrors.Failf(ymerrors.CodeDuplicateAnchor, path, map[string]string{"anchor": x.Anchor}, "also declared at %s", first)
			}
			where[x.Anchor] = path
			anchors[x.Anchor] = parent(path)
		case *ir.Choose:
			if base, ok := table.Node(x.Base.Target).(*ir.Object); ok {
				if id, ok := base.Children.Get("id"); ok {
					if lt, ok := id.(*ir.LinkTarget); ok {
						x.LinkID = lt.Anchor
					}
				}
			}
		}
		return nil
	}
	if err := w.walk(root, ""); err != nil {
		return nil, err
	}
	return anchors, nil
}

// Bind sets ResolvedPath on every Link. Vocabularies are external and left
// untouched.
func Bind(root ir.Node, table *ir.Table, anchors Anchors) error {
	w := &walker{table: table, active: map[string]bool{}}
	w.visit = func(n ir.Node, _ string) error {
		l, ok := n.(*ir.Link)
		if !ok {
			return nil
		}
		p, ok := anchors[l.Anchor]
		if !ok {
			return ymerrors.Fail(ymerrors.CodeDanglingLink, l.Path, map[string]string{"anchor": l.Anchor})
		}
		l.ResolvedPath = p
		return nil
	}
	return w.walk(root, "")
}
