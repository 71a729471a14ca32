package yamodel_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/reoring/yamodel"
	ymerrors "github.com/reoring/yamodel/errors"
	"github.com/reoring/yamodel/internal/ir"
	"github.com/reoring/yamodel/yamale"
)

func compile(t *testing.T, src string, opts yamodel.Options) (*yamodel.Model, error) {
	t.Helper()
	s, err := yamale.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return yamodel.Compile(s, opts)
}

func compileSample(t *testing.T) *yamodel.Model {
	t.Helper()
	m, err := yamodel.CompileFile("testdata/sample_with_description.yaml", yamodel.Options{}, "testdata/general.yaml")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return m
}

func TestCompileFile_Sample(t *testing.T) {
	m := compileSample(t)
	if m.Package() != "sample" {
		t.Fatalf("package: %q", m.Package())
	}
	want := []string{"Sample", "Substance", "KindBase", "kindSolidPolymorphic", "kindLiquidPolymorphic"}
	if diff := cmp.Diff(want, m.Definitions()); diff != "" {
		t.Fatalf("definitions (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Solid", "Liquid"}, m.Pruned()); diff != "" {
		t.Fatalf("pruned (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]string{"sample": "samples", "substance": "substance"}, m.Anchors()); diff != "" {
		t.Fatalf("anchors (-want +got):\n%s", diff)
	}
	if len(m.Warnings()) != 0 {
		t.Fatalf("unexpected warnings: %v", m.Warnings())
	}
}

func TestCompile_OutputIsByteIdentical(t *testing.T) {
	a, err := compileSample(t).YAML()
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	b, _ := compileSample(t).YAML()
	if !bytes.Equal(a, b) {
		t.Fatalf("yaml differs between compiles")
	}
	ja, err := compileSample(t).JSON()
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	jb, _ := compileSample(t).JSON()
	if !bytes.Equal(ja, jb) {
		t.Fatalf("json differs between compiles")
	}
	if !strings.Contains(string(a), "qualified: mbdb_sample") {
		t.Fatalf("yaml lacks module name:\n%s", a)
	}
}

func TestCompile_ArrayMinimumDefault(t *testing.T) {
	md := compileSample(t).Metadata()
	for key, want := range map[string]int64{"tags[]": 1, "samples[]": 3} {
		f, ok := md[key].(map[string]any)
		if !ok {
			t.Fatalf("metadata lacks %s: %v", key, md)
		}
		if f["^minItems"] != want {
			t.Fatalf("%s minItems = %v, want %d", key, f["^minItems"], want)
		}
	}
}

func TestCompile_PolymorphismCompleteness(t *testing.T) {
	m, err := compile(t, `
root: choose(include('Base'), A=include('A'), B=include('B'))
---
Base:
  name: str()
  type: enum('A', 'B')
A:
  x: int()
B:
  y: num()
`, yamodel.Options{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	for tag, own := range map[string]string{"A": "x", "B": "y"} {
		n, ok := m.Definition("root" + tag + "Polymorphic")
		if !ok {
			t.Fatalf("missing variant %s in %v", tag, m.Definitions())
		}
		obj := n.(*ir.Object)
		if diff := cmp.Diff([]string{own, "name", "type"}, obj.Children.Keys()); diff != "" {
			t.Fatalf("variant %s fields (-want +got):\n%s", tag, diff)
		}
		typ, _ := obj.Children.Get("type")
		if diff := cmp.Diff([]string{tag}, typ.(*ir.Enum).Values); diff != "" {
			t.Fatalf("variant %s discriminator (-want +got):\n%s", tag, diff)
		}
	}
	root := m.Metadata()["root"].(map[string]any)
	if root["type"] != "polymorphic" || root["discriminator"] != "type" {
		t.Fatalf("root: %v", root)
	}
	schemas := root["schemas"].(map[string]any)
	if len(schemas) != 2 || schemas["A"] == nil || schemas["B"] == nil {
		t.Fatalf("schemas: %v", schemas)
	}
}

func TestCompile_ChooseInsideBaseIsSpecialized(t *testing.T) {
	m, err := compile(t, `
root: choose(include('Base'), A=include('A'))
---
Base:
  type: enum('A')
  sub: choose(include('SB'), X=include('X'), type_field='kind')
SB:
  kind: enum('X')
  common: str()
A:
  a: int()
X:
  x: int()
`, yamodel.Options{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	want := []string{"Base", "SB", "subXPolymorphic", "rootAPolymorphic"}
	if diff := cmp.Diff(want, m.Definitions()); diff != "" {
		t.Fatalf("definitions (-want +got):\n%s", diff)
	}
	defs := m.Document()["$defs"].(map[string]any)
	sub := defs["rootAPolymorphic"].(map[string]any)["properties"].(map[string]any)["sub"].(map[string]any)
	x := sub["schemas"].(map[string]any)["X"].(map[string]any)
	if x["use"] != "#/$defs/subXPolymorphic" {
		t.Fatalf("nested variant: %v", x)
	}
	props := defs["subXPolymorphic"].(map[string]any)["properties"].(map[string]any)
	if _, ok := props["common"]; !ok {
		t.Fatalf("nested variant lacks base field common: %v", props)
	}
}

func TestCompile_FatalIssues(t *testing.T) {
	cases := []struct {
		name string
		src  string
		code string
		path string
	}{
		{"dangling link", "part:\n  ref: link(target='widget')\n", ymerrors.CodeDanglingLink, "/part/ref"},
		{"duplicate anchor", "a:\n  id: link_target(name='widget')\nb:\n  id: link_target(name='widget')\n", ymerrors.CodeDuplicateAnchor, "b/id"},
		{"unknown keyword", "a: regex('x', min=1)\n", "", ""},
		{"unknown constraint", "a: list(int(), max=2)\n", ymerrors.CodeUnknownConstraint, "/a"},
		{"missing include", "a: include('Nowhere')\n", ymerrors.CodeMissingDefinition, "/a"},
		{"dangling link in extension", "f:\n  value: str()\n  description: str(equals='d')\n  ref: link(target='nowhere')\n", ymerrors.CodeDanglingLink, "/f/ref"},
		{"several regex patterns", "a: regex('x', 'y')\n", ymerrors.CodeSchemaSyntax, "/a"},
		{"keys differing in case", "a:\n  Name: str()\n  name: str()\n", ymerrors.CodeDuplicateKey, "/a/name"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := yamale.Parse([]byte(tc.src))
			if tc.code == "" {
				// rejected by the reader already
				if err == nil {
					t.Fatalf("expected a parse error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			m, err := yamodel.Compile(s, yamodel.Options{})
			if m != nil {
				t.Fatalf("model returned on error")
			}
			if !ymerrors.HasCode(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
			it, _ := ymerrors.First(err)
			if it.Path != tc.path {
				t.Fatalf("path = %q, want %q", it.Path, tc.path)
			}
		})
	}
}

func TestCompile_ShadowWarningIsLogged(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	m, err := compile(t, `
thing: choose(include('Base'), A=include('A'))
---
Base:
  type: enum('A')
  size: int()
A:
  size: str()
`, yamodel.Options{Logger: log})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if len(m.Warnings()) != 1 || m.Warnings()[0].Code != ymerrors.CodeFieldShadow {
		t.Fatalf("warnings: %v", m.Warnings())
	}
	if !strings.Contains(buf.String(), "level=WARN") {
		t.Fatalf("warning not logged: %q", buf.String())
	}
	n, _ := m.Definition("thingAPolymorphic")
	size, _ := n.(*ir.Object).Children.Get("size")
	if p := size.(*ir.Primitive); p.Type != ir.TypeKeyword {
		t.Fatalf("variant field must win, got %s", p.Type)
	}
}

func TestOptions_Overrides(t *testing.T) {
	m, err := compile(t, `
compound: link(target='chem')
entity:
  id: link_target(name='chem')
`, yamodel.Options{Package: "Chem", LinkModel: yamodel.LinkModelPath, FieldsLimit: 10})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	doc := m.Document()
	record := doc["record"].(map[string]any)
	if diff := cmp.Diff(map[string]any{"qualified": "mbdb_Chem"}, record["module"]); diff != "" {
		t.Fatalf("module (-want +got):\n%s", diff)
	}
	settings := record["mapping"].(map[string]any)["template"].(map[string]any)["settings"].(map[string]any)
	if settings["index.mapping.total_fields.limit"] != 10 || settings["index.mapping.nested_fields.limit"] != 200 {
		t.Fatalf("limits: %v", settings)
	}
	compound := m.Metadata()["compound"].(map[string]any)
	if compound["model"] != "#/entity" {
		t.Fatalf("link model: %v", compound)
	}
}

func TestEncode_Formats(t *testing.T) {
	doc := map[string]any{"b": 1, "a": "On"}
	y, err := yamodel.Encode(doc, "YAML")
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if string(y) != "a: \"On\"\nb: 1\n" {
		t.Fatalf("yaml: %q", y)
	}
	j, err := yamodel.Encode(doc, yamodel.FormatJSON)
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	if !strings.HasPrefix(string(j), "{\n") || !strings.HasSuffix(string(j), "}\n") {
		t.Fatalf("json: %q", j)
	}
	if _, err := yamodel.Encode(doc, "toml"); err == nil {
		t.Fatalf("expected an error for an unknown format")
	}
}

func TestPackageName(t *testing.T) {
	for in, want := range map[string]string{
		"schemas/MST_with_description.yaml": "mst",
		"DLS.yml":                           "dls",
		"/abs/path/Itc":                     "itc",
	} {
		if got := yamodel.PackageName(in); got != want {
			t.Fatalf("PackageName(%q) = %q, want %q", in, got, want)
		}
	}
}
