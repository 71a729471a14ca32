package ir

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sampleObject(path string) *Object {
	o := &Object{Meta: Meta{Path: path}, Children: NewFields()}
	o.Children.Set("name", &Primitive{Meta: Meta{Path: path + "/name", Required: true}, Type: TypeKeyword})
	o.Children.Set("kind", &Enum{Meta: Meta{Path: path + "/kind"}, Values: []string{"A", "B"}})
	o.Children.Set("tags", &Array{Meta: Meta{Path: path + "/tags"}, MinItems: 1, Item: &Primitive{Meta: Meta{Path: path + "/tags"}, Type: TypeFulltext}})
	return o
}

func TestClone_DoesNotAlias(t *testing.T) {
	orig := sampleObject("/Base")
	c := Clone(orig).(*Object)

	c.Children.Set("extra", &Primitive{Type: TypeInteger})
	n, _ := c.Children.Get("kind")
	n.(*Enum).Values[0] = "Z"

	if orig.Children.Len() != 3 {
		t.Fatalf("original gained a field: %v", orig.Children.Keys())
	}
	on, _ := orig.Children.Get("kind")
	if got := on.(*Enum).Values; !cmp.Equal(got, []string{"A", "B"}) {
		t.Fatalf("original enum mutated: %v", got)
	}
}

func TestEqual_IgnoresPath(t *testing.T) {
	a := sampleObject("/Base")
	b := sampleObject("/Other")
	if !Equal(a, b) {
		t.Fatalf("objects differing only by path must be equal")
	}
	n, _ := b.Children.Get("name")
	n.Info().Required = false
	if Equal(a, b) {
		t.Fatalf("required flag difference must be detected")
	}
	if Equal(&Primitive{Type: TypeKeyword}, &Enum{Values: []string{"x"}}) {
		t.Fatalf("different kinds compared equal")
	}
}

func TestTable_PutLookupRetain(t *testing.T) {
	tb := NewTable()
	tb.Put("A", sampleObject("/A"), Unspecialized)
	tb.Put("B", sampleObject("/B"), Unspecialized)
	tb.Put("C", sampleObject("/C"), Specialized)
	tb.Put("A", &Object{Meta: Meta{Path: "/A"}, Children: NewFields()}, Unspecialized)

	if diff := cmp.Diff([]string{"A", "B", "C"}, tb.Names()); diff != "" {
		t.Fatalf("names (-want +got):\n%s", diff)
	}
	if d, _ := tb.Lookup("C"); d.State != Specialized {
		t.Fatalf("state: %v", d.State)
	}
	if o := tb.Node("A").(*Object); o.Children.Len() != 0 {
		t.Fatalf("Put must replace the node")
	}

	tb.Retain(map[string]struct{}{"C": {}, "A": {}})
	if diff := cmp.Diff([]string{"A", "C"}, tb.Names()); diff != "" {
		t.Fatalf("retained names (-want +got):\n%s", diff)
	}
	if tb.Has("B") || tb.Node("B") != nil {
		t.Fatalf("B should be dropped")
	}
}

func TestKind_String(t *testing.T) {
	if KindNestedInclude.String() != "nested_include" || Kind(99).String() != "unknown" {
		t.Fatalf("unexpected kind names")
	}
}

func TestPathSelectors(t *testing.T) {
	for in, want := range map[string]string{
		ItemPath("tags"):              "tags",
		ItemPath(ItemPath("matrix")):  "matrix",
		BasePath("thing"):             "thing",
		VariantPath("thing", "solid"): "thing",
		"plain":                       "plain",
	} {
		if got := Segment(in); got != want {
			t.Fatalf("Segment(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFields_Fold(t *testing.T) {
	f := NewFields()
	f.Set("Name", &Primitive{Type: TypeKeyword})
	if k, ok := f.Fold("name"); !ok || k != "Name" {
		t.Fatalf("Fold = %q, %v", k, ok)
	}
	if _, ok := f.Fold("other"); ok {
		t.Fatalf("unexpected match")
	}
	var empty *Fields
	if _, ok := empty.Fold("name"); ok {
		t.Fatalf("nil fields must not match")
	}
}
