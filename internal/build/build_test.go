package build_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	ymerrors "github.com/reoring/yamodel/errors"
	"github.com/reoring/yamodel/internal/build"
	"github.com/reoring/yamodel/internal/ir"
	"github.com/reoring/yamodel/yamale"
)

func mustBuild(t *testing.T, src string) (ir.Node, *ir.Table) {
	t.Helper()
	s, err := yamale.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	root, table, err := build.Build(s, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return root, table
}

func buildErr(t *testing.T, src string) error {
	t.Helper()
	s, err := yamale.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, _, err = build.Build(s, nil)
	if err == nil {
		t.Fatalf("expected build error")
	}
	return err
}

func child(t *testing.T, n ir.Node, name string) ir.Node {
	t.Helper()
	o, ok := n.(*ir.Object)
	if !ok {
		t.Fatalf("%s: expected object, got %T", n.Info().Path, n)
	}
	c, ok := o.Children.Get(name)
	if !ok {
		t.Fatalf("%s: no child %q (have %v)", o.Path, name, o.Children.Keys())
	}
	return c
}

func TestBuild_PrimitivesAndPaths(t *testing.T) {
	root, _ := mustBuild(t, `
name: str()
note: fulltext(required=False)
count: int(min=0, max=10)
ratio: num()
when: day()
flag: bool()
ident: uuid()
home: url()
doi: database_id()
`)
	want := map[string]string{
		"name": ir.TypeKeyword, "note": ir.TypeFulltext, "count": ir.TypeInteger,
		"ratio": ir.TypeDouble, "when": ir.TypeDate, "flag": ir.TypeBoolean,
		"ident": ir.TypeUUID, "home": ir.TypeURL, "doi": ir.TypeKeyword,
	}
	for field, typ := range want {
		p, ok := child(t, root, field).(*ir.Primitive)
		if !ok {
			t.Fatalf("%s: expected primitive", field)
		}
		if p.Type != typ || p.Path != "/"+field {
			t.Fatalf("%s: type=%s path=%s", field, p.Type, p.Path)
		}
	}
	count := child(t, root, "count").(*ir.Primitive)
	if count.Minimum != int64(0) || count.Maximum != int64(10) {
		t.Fatalf("bounds: %v %v", count.Minimum, count.Maximum)
	}
	if child(t, root, "note").Info().Required {
		t.Fatalf("note must be optional")
	}
	if root.Info().Required {
		t.Fatalf("plain maps are never required")
	}
}

func TestBuild_EqualsBecomesSingletonEnum(t *testing.T) {
	root, _ := mustBuild(t, `
kind: str(equals="fixed")
mode: enum('a', 'b', 'a', 3)
`)
	e, ok := child(t, root, "kind").(*ir.Enum)
	if !ok {
		t.Fatalf("expected enum")
	}
	if diff := cmp.Diff([]string{"fixed"}, e.Values); diff != "" {
		t.Fatalf("values (-want +got):\n%s", diff)
	}
	m := child(t, root, "mode").(*ir.Enum)
	if diff := cmp.Diff([]string{"a", "b", "3"}, m.Values); diff != "" {
		t.Fatalf("values (-want +got):\n%s", diff)
	}
}

func TestBuild_AnnotatedValue(t *testing.T) {
	root, _ := mustBuild(t, `
temperature:
  value: num()
  description: str(equals="Measured temperature")
  label: str(equals="Temp")
  default_search: true
  ui_file_context: keyword(required=False)
`)
	n := child(t, root, "temperature")
	p, ok := n.(*ir.Primitive)
	if !ok {
		t.Fatalf("annotated value must build its value node, got %T", n)
	}
	if p.Path != "/temperature/value" || p.Description != "Measured temperature" || p.Label != "Temp" || !p.DefaultSearch {
		t.Fatalf("unexpected meta: %+v", p.Meta)
	}
	ext, ok := p.Extensions.Get("ui_file_context")
	if !ok || ext.Info().Path != "/temperature/ui_file_context" {
		t.Fatalf("extension element missing: %v", p.Extensions.Keys())
	}
}

func TestBuild_SearchHintInherited(t *testing.T) {
	root, _ := mustBuild(t, `
sample:
  value:
    name: str()
    tags: list(keyword())
  description: str(equals="sample")
  default_search: true
`)
	obj := child(t, root, "sample")
	if !child(t, obj, "name").Info().DefaultSearch {
		t.Fatalf("children inherit the search hint")
	}
	arr := child(t, obj, "tags").(*ir.Array)
	if !arr.Item.Info().DefaultSearch {
		t.Fatalf("array items inherit the search hint")
	}
}

func TestBuild_ArrayMinItems(t *testing.T) {
	root, _ := mustBuild(t, `
a: list(str())
b: list(str(), min=3)
`)
	if got := child(t, root, "a").(*ir.Array).MinItems; got != 1 {
		t.Fatalf("default minItems: %d", got)
	}
	if got := child(t, root, "b").(*ir.Array).MinItems; got != 3 {
		t.Fatalf("explicit minItems: %d", got)
	}
}

func TestBuild_ArrayOfIncludesIsKeyedUnion(t *testing.T) {
	root, table := mustBuild(t, `
parts: list(include('Wheel'), include('Door'))
---
Wheel:
  size: int()
Door:
  color: str()
`)
	arr := child(t, root, "parts").(*ir.Array)
	union, ok := arr.Item.(*ir.Object)
	if !ok {
		t.Fatalf("expected keyed union object, got %T", arr.Item)
	}
	if diff := cmp.Diff([]string{"Wheel", "Door"}, union.Children.Keys()); diff != "" {
		t.Fatalf("keys (-want +got):\n%s", diff)
	}
	if !table.Has("Wheel") || !table.Has("Door") {
		t.Fatalf("includes not scheduled: %v", table.Names())
	}
}

func TestBuild_KeylessNodesGetSelectorPaths(t *testing.T) {
	root, _ := mustBuild(t, `
tags: list(str())
parts: list(include('A'), include('Base'))
thing: choose(include('Base'), A=include('A'))
---
Base:
  type: enum('A')
A:
  x: int()
`)
	if p := child(t, root, "tags").(*ir.Array).Item.Info().Path; p != "/tags[]" {
		t.Fatalf("item path: %s", p)
	}
	union := child(t, root, "parts").(*ir.Array).Item
	if union.Info().Path != "/parts[]" || child(t, union, "A").Info().Path != "/parts[]/A" {
		t.Fatalf("union paths: %s, %s", union.Info().Path, child(t, union, "A").Info().Path)
	}
	c := child(t, root, "thing").(*ir.Choose)
	if c.Base.Path != "/thing[*]" || c.Variants[0].Include.Path != "/thing[A]" {
		t.Fatalf("choose paths: base %s, variant %s", c.Base.Path, c.Variants[0].Include.Path)
	}
}

func TestBuild_FixpointHandlesRecursion(t *testing.T) {
	_, table := mustBuild(t, `
root: include('Node')
---
Node:
  children: list(include('Node'), required=False)
  leaf: include('Leaf')
Leaf:
  value: int()
Unused:
  x: int()
`)
	if diff := cmp.Diff([]string{"Node", "Leaf"}, table.Names()); diff != "" {
		t.Fatalf("names (-want +got):\n%s", diff)
	}
	if table.Node("Leaf").Info().Path != "/Leaf" {
		t.Fatalf("definition path: %s", table.Node("Leaf").Info().Path)
	}
}

func TestBuild_ChooseAndLinks(t *testing.T) {
	root, table := mustBuild(t, `
thing: choose(include('Base'), first_kind=include('A'), B=include('B'), type_field='kind')
ref: link(target='widget', fields='[id, title]')
voc: vocabulary('languages')
---
Base:
  kind: enum('first kind', 'B')
A:
  x: int()
B:
  y: num()
`)
	c := child(t, root, "thing").(*ir.Choose)
	if c.Discriminator != "kind" || c.Base.Target != "Base" {
		t.Fatalf("choose: %+v", c)
	}
	if c.Variants[0].Tag != "first kind" || c.Variants[1].Tag != "B" {
		t.Fatalf("variant tags: %+v", c.Variants)
	}
	if table.Len() != 3 {
		t.Fatalf("definitions: %v", table.Names())
	}
	l := child(t, root, "ref").(*ir.Link)
	if diff := cmp.Diff([]string{"id", "title"}, l.Fields); diff != "" {
		t.Fatalf("link fields (-want +got):\n%s", diff)
	}
	v := child(t, root, "voc").(*ir.Vocabulary)
	if v.VocabularyType != "languages" || !cmp.Equal(v.Fields, []string{"id", "title"}) {
		t.Fatalf("vocabulary: %+v", v)
	}
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
		path string
	}{
		{"unknown kind", "a: any(str())\n", ymerrors.CodeUnknownNodeKind, "/a"},
		{"unknown constraint", "a: str(min=2)\n", ymerrors.CodeUnknownConstraint, "/a"},
		{"max items", "a: list(str(), max=2)\n", ymerrors.CodeUnknownConstraint, "/a"},
		{"bare true", "a: true\n", ymerrors.CodeUnknownNodeKind, "/a"},
		{"missing definition", "a:\n  b: include('Nope')\n", ymerrors.CodeMissingDefinition, "/a/b"},
		{"union of primitives", "a: list(str(), int())\n", ymerrors.CodeUnknownNodeKind, "/a"},
		{"choose base", "a: choose(str(), X=include('X'))\n---\nX:\n  x: int()\n", ymerrors.CodeInvalidChoose, "/a"},
		{"several regex patterns", "a: regex('x', 'y')\n", ymerrors.CodeSchemaSyntax, "/a"},
		{"keys differing in case", "a:\n  Name: str()\n  name: int()\n", ymerrors.CodeDuplicateKey, "/a/name"},
		{"union keys differing in case", "a: list(include('Part'), include('part'))\n---\nPart:\n  x: int()\npart:\n  y: int()\n", ymerrors.CodeDuplicateKey, "/a[]/part"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := buildErr(t, tt.src)
			it, ok := ymerrors.First(err)
			if !ok {
				t.Fatalf("expected issues, got %v", err)
			}
			if it.Code != tt.code || it.Path != tt.path {
				t.Fatalf("got %s at %s, want %s at %s", it.Code, it.Path, tt.code, tt.path)
			}
		})
	}
}
