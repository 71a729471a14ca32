// Package prune drops definitions that are not reachable from the root.
package prune

import "github.com/reoring/yamodel/internal/ir"

// Reachable returns the names reachable from root through Include,
// NestedInclude and Choose (base and variants) edges, including those inside
// extension elements. NestedIncludes whose target is a Choose are marked
// polymorphic on the way.
func Reachable(root ir.Node, table *ir.Table) map[string]struct{} {
	seen := map[string]struct{}{}
	var visit func(n ir.Node)
	follow := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		if target := table.Node(name); target != nil {
			visit(target)
		}
	}
	visit = func(n ir.Node) {
		if n == nil {
			return
		}
		n.Info().Extensions.Each(func(_ string, ext ir.Node) { visit(ext) })
		switch x := n.(type) {
		case *ir.Object:
			x.Children.Each(func(_ string, c ir.Node) { visit(c) })
		case *ir.Array:
			visit(x.Item)
		case *ir.Include:
			follow(x.Target)
		case *ir.NestedInclude:
			_, x.Polymorphic = table.Node(x.Target).(*ir.Choose)
			follow(x.Target)
		case *ir.Choose:
			follow(x.Base.Target)
			for _, v := range x.Variants {
				follow(v.Include.Target)
			}
		}
	}
	visit(root)
	return seen
}

// Prune removes unreachable definitions from table in place and returns the
// names it dropped.
func Prune(root ir.Node, table *ir.Table) []string {
	keep := Reachable(root, table)
	var dropped []string
	for _, name := range table.Names() {
		if _, ok := keep[name]; !ok {
			dropped = append(dropped, name)
		}
	}
	table.Retain(keep)
	return dropped
}
