// Package tree renders a schema with every include unrolled in place, one
// line per field, as a quick reference of the full document structure.
package tree

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	ymerrors "github.com/reoring/yamodel/errors"
	"github.com/reoring/yamodel/yamale"
)

const (
	indent = "  |  "
	// column at which summaries start
	column = 90
)

// Line is one field of the unrolled tree.
type Line struct {
	Level   int
	Key     string
	Summary Summary
}

// Summary describes a field: its multiplicity (singular or list), whether
// it is required, its validator types and its keyword arguments.
type Summary struct {
	Multiplicity string
	Importance   string
	Types        []string
	Arguments    []string
}

func (s Summary) String() string {
	return fmt.Sprintf("%s %s [%s] {%s}", s.Multiplicity, s.Importance, strings.Join(s.Types, ", "), strings.Join(s.Arguments, ", "))
}

type unroller struct {
	schema *yamale.Schema
	active map[string]bool
	lines  []Line
}

// Unroll walks the root of s, replacing includes by their definitions.
// A recursive include is listed but not expanded again.
func Unroll(s *yamale.Schema) ([]Line, error) {
	u := &unroller{schema: s, active: map[string]bool{}}
	if err := u.walk(s.Root, "", 0); err != nil {
		return nil, err
	}
	return u.lines, nil
}

func (u *unroller) walk(m *yamale.Map, path string, level int) error {
	for _, k := range m.Keys() {
		raw, _ := m.Get(k)
		if err := u.field(k, raw, path+"/"+k, level); err != nil {
			return err
		}
	}
	return nil
}

func (u *unroller) field(key string, raw yamale.Node, path string, level int) error {
	switch x := raw.(type) {
	case *yamale.Map:
		u.lines = append(u.lines, Line{Level: level, Key: key, Summary: mapSummary()})
		return u.walk(x, path, level+1)
	case *yamale.Validator:
		if x.IsInclude() {
			return u.include(key, x, path, level)
		}
		sum := validatorSummary(x)
		if x.Tag == "list" || x.Tag == "any" {
			return u.items(key, x, sum, path, level)
		}
		u.lines = append(u.lines, Line{Level: level, Key: key, Summary: sum})
	}
	return nil
}

// items lists a list/any field and unrolls its included item maps one level
// deeper.
func (u *unroller) items(key string, v *yamale.Validator, sum Summary, path string, level int) error {
	var (
		maps  []*yamale.Map
		names []string
	)
	for i, item := range v.Validators() {
		if !item.IsInclude() || u.active[item.IncludeName()] {
			continue
		}
		target, err := u.resolve(item, path)
		if err != nil {
			return err
		}
		if tm, ok := target.(*yamale.Map); ok {
			sum.Types[i] = "map"
			maps = append(maps, tm)
			names = append(names, item.IncludeName())
		}
	}
	u.lines = append(u.lines, Line{Level: level, Key: key, Summary: sum})
	for i, tm := range maps {
		u.active[names[i]] = true
		err := u.walk(tm, path, level+1)
		delete(u.active, names[i])
		if err != nil {
			return err
		}
	}
	return nil
}

func (u *unroller) include(key string, v *yamale.Validator, path string, level int) error {
	name := v.IncludeName()
	target, err := u.resolve(v, path)
	if err != nil {
		return err
	}
	if u.active[name] {
		u.lines = append(u.lines, Line{Level: level, Key: key, Summary: validatorSummary(v)})
		return nil
	}
	u.active[name] = true
	defer delete(u.active, name)
	return u.field(key, target, path, level)
}

func (u *unroller) resolve(v *yamale.Validator, path string) (yamale.Node, error) {
	target, ok := u.schema.Include(v.IncludeName())
	if !ok {
		return nil, ymerrors.Fail(ymerrors.CodeMissingDefinition, path, map[string]string{"name": v.IncludeName()})
	}
	return target, nil
}

func mapSummary() Summary {
	return Summary{Multiplicity: "singular", Importance: "required", Types: []string{"map"}}
}

func validatorSummary(v *yamale.Validator) Summary {
	s := Summary{Multiplicity: "singular", Importance: "optional", Types: []string{v.Tag}}
	if v.Required {
		s.Importance = "required"
	}
	for _, k := range v.KwargNames() {
		s.Arguments = append(s.Arguments, fmt.Sprintf("%s=%v", k, argString(v.Kwargs[k])))
	}
	if v.Tag == "list" || v.Tag == "any" {
		if v.Tag == "list" {
			s.Multiplicity = "list"
		}
		s.Types = s.Types[:0]
		for _, item := range v.Validators() {
			s.Types = append(s.Types, item.Tag)
		}
	}
	return s
}

func argString(a any) string {
	switch x := a.(type) {
	case *yamale.Validator:
		if x.IsInclude() {
			return fmt.Sprintf("%s(%s)", x.Tag, x.IncludeName())
		}
		return x.Tag + "()"
	case string:
		return fmt.Sprintf("%q", x)
	}
	return fmt.Sprint(a)
}

// Write renders lines with one indent per level and the summaries aligned at
// a fixed display column.
func Write(w io.Writer, lines []Line) error {
	bw := bufio.NewWriter(w)
	for _, l := range lines {
		head := strings.Repeat(indent, l.Level) + " " + l.Key
		pad := column - runewidth.StringWidth(head)
		if pad < 0 {
			pad = 0
		}
		if _, err := fmt.Fprintf(bw, "%s %s %s\n", head, strings.Repeat(" ", pad), l.Summary); err != nil {
			return err
		}
	}
	return bw.Flush()
}
