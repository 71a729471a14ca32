package yamale_test

import (
	"testing"

	"github.com/reoring/yamodel/yamale"
)

func TestStripDescriptions(t *testing.T) {
	in := `sample:
  value:
    name:
      value: str()
      description: str(equals="inner")
    size: int()
  description: str(equals="outer")
  label: str(equals="Sample")
plain:
  value: int()
---
Person:
  first:
    value: str()
    description: str(equals="first name")
`
	want := `sample:
  name: str()
  size: int()
plain:
  value: int()
---
Person:
  first: str()
`
	got, err := yamale.StripDescriptions([]byte(in))
	if err != nil {
		t.Fatalf("strip: %v", err)
	}
	if string(got) != want {
		t.Fatalf("strip output\n got:\n%s\nwant:\n%s", got, want)
	}
	if _, err := yamale.Parse(got); err != nil {
		t.Fatalf("stripped schema must parse: %v", err)
	}
}
