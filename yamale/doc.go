// Package yamale reads yamale validation schemas.
//
// A schema file holds one or more YAML documents. The first document is the
// root mapping; later documents declare named includes. Every scalar is a
// validator expression such as
//
//	name: str(min=1)
//	authors: list(include('person'))
//	kind: choose(include('Base'), A=include('A'), type_field='type')
//
// Parse checks expressions against the validator registry (yamale defaults
// plus the repository validators: keyword, fulltext, link, link_target,
// vocabulary, choose, nested_include and the typed identifiers) and returns
// the raw tree with positions, required flags and active constraints.
package yamale
