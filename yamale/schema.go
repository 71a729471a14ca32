package yamale

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	ymerrors "github.com/reoring/yamodel/errors"
)

// Schema is a parsed yamale schema: the root mapping of the first YAML
// document plus the named includes declared by the following documents.
type Schema struct {
	Root *Map

	includes map[string]Node
	order    []string
}

// Parse reads a multi-document yamale schema. The first document is the root
// mapping; every further document maps include names to schema nodes.
func Parse(data []byte) (*Schema, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	s := &Schema{includes: map[string]Node{}}
	first := true
	for {
		var doc yaml.Node
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			it := ymerrors.New(ymerrors.CodeSchemaSyntax, "", map[string]string{"reason": err.Error()})
			it.Cause = err
			return nil, ymerrors.Issues{it}
		}
		if len(doc.Content) == 0 || doc.Content[0].Tag == "!!null" {
			continue
		}
		n, err := convert(doc.Content[0], "")
		if err != nil {
			return nil, err
		}
		m, ok := n.(*Map)
		if !ok {
			return nil, syntaxIssue(doc.Content[0], "", "a schema document must be a mapping")
		}
		if first {
			s.Root = m
			first = false
			continue
		}
		for _, k := range m.Keys() {
			v, _ := m.Get(k)
			s.AddInclude(k, v)
		}
	}
	if s.Root == nil {
		return nil, ymerrors.Fail(ymerrors.CodeSchemaSyntax, "", map[string]string{"reason": "schema is empty"})
	}
	return s, nil
}

// ParseFile reads and parses the schema at path.
func ParseFile(path string) (*Schema, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("yamale: reading schema: %w", err)
	}
	s, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("yamale: %s: %w", path, err)
	}
	return s, nil
}

// AddInclude registers (or replaces) a named include.
func (s *Schema) AddInclude(name string, n Node) {
	if _, ok := s.includes[name]; !ok {
		s.order = append(s.order, name)
	}
	s.includes[name] = n
}

// Include returns the raw node of a named include.
func (s *Schema) Include(name string) (Node, bool) {
	n, ok := s.includes[name]
	return n, ok
}

// IncludeNames returns include names in declaration order.
func (s *Schema) IncludeNames() []string { return append([]string(nil), s.order...) }

// Merge registers other's root fields and includes as includes of s.
// Entries of other replace same-named entries of s.
func (s *Schema) Merge(other *Schema) {
	if other == nil {
		return
	}
	if other.Root != nil {
		for _, k := range other.Root.Keys() {
			v, _ := other.Root.Get(k)
			s.AddInclude(k, v)
		}
	}
	for _, k := range other.order {
		s.AddInclude(k, other.includes[k])
	}
}

// convert turns a YAML node into a raw schema node. Mappings become *Map
// (duplicate keys are rejected), string scalars are parsed as validator
// expressions and boolean scalars become true()/false().
func convert(n *yaml.Node, path string) (Node, error) {
	switch n.Kind {
	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, syntaxIssue(n, path, "dangling alias")
		}
		return convert(n.Alias, path)
	case yaml.MappingNode:
		m := NewMap()
		m.Position = Position{Line: n.Line, Column: n.Column}
		first := make(map[string][2]int, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			key := k.Value
			if pos, dup := first[key]; dup {
				it := ymerrors.New(ymerrors.CodeDuplicateKey, path+"/"+key, map[string]string{"key": key})
				it.Line, it.Column = k.Line, k.Column
				it.Hint = fmt.Sprintf("first at %d:%d", pos[0], pos[1])
				return nil, ymerrors.Issues{it}
			}
			first[key] = [2]int{k.Line, k.Column}
			v, err := convert(n.Content[i+1], path+"/"+key)
			if err != nil {
				return nil, err
			}
			m.Set(key, v)
		}
		return m, nil
	case yaml.ScalarNode:
		switch n.Tag {
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err != nil {
				return nil, syntaxIssue(n, path, err.Error())
			}
			tag := "false"
			if b {
				tag = "true"
			}
			return &Validator{Position: Position{Line: n.Line, Column: n.Column}, Tag: tag, Required: true, Kwargs: map[string]any{}}, nil
		case "!!str", "!":
			v, err := ParseExpression(n.Value)
			if err != nil {
				return nil, syntaxIssue(n, path, err.Error())
			}
			v.Position = Position{Line: n.Line, Column: n.Column}
			return v, nil
		}
		return nil, syntaxIssue(n, path, "expected a validator expression, found "+n.Tag)
	default:
		return nil, syntaxIssue(n, path, "expected a mapping or a validator expression")
	}
}

func syntaxIssue(n *yaml.Node, path, reason string) error {
	it := ymerrors.New(ymerrors.CodeSchemaSyntax, path, map[string]string{"reason": reason})
	it.Line, it.Column = n.Line, n.Column
	return ymerrors.Issues{it}
}
