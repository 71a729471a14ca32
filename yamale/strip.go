package yamale

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// StripDescriptions rewrites every annotated value of a schema (a mapping
// holding both value and description) to its bare value, in every document.
// Key order and comments of the remaining nodes are kept.
func StripDescriptions(data []byte) ([]byte, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var docs []*yaml.Node
	for {
		var doc yaml.Node
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("yamale: strip: %w", err)
		}
		for _, c := range doc.Content {
			strip(c)
		}
		docs = append(docs, &doc)
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	for _, d := range docs {
		if err := enc.Encode(d); err != nil {
			return nil, fmt.Errorf("yamale: strip: %w", err)
		}
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("yamale: strip: %w", err)
	}
	return buf.Bytes(), nil
}

func strip(n *yaml.Node) {
	if n.Kind != yaml.MappingNode {
		return
	}
	for i := 1; i < len(n.Content); i += 2 {
		v := n.Content[i]
		for {
			inner, ok := annotatedValue(v)
			if !ok {
				break
			}
			v = inner
		}
		n.Content[i] = v
		strip(v)
	}
}

// annotatedValue returns the value node of {value, description, ...}.
func annotatedValue(n *yaml.Node) (*yaml.Node, bool) {
	if n.Kind != yaml.MappingNode {
		return nil, false
	}
	var value *yaml.Node
	described := false
	for i := 0; i+1 < len(n.Content); i += 2 {
		switch n.Content[i].Value {
		case "value":
			value = n.Content[i+1]
		case "description":
			described = true
		}
	}
	if value == nil || !described {
		return nil, false
	}
	return value, true
}
