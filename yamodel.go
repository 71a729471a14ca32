package yamodel

import (
	"fmt"
	"path/filepath"
	"strings"

	ymerrors "github.com/reoring/yamodel/errors"
	"github.com/reoring/yamodel/internal/build"
	"github.com/reoring/yamodel/internal/emit"
	"github.com/reoring/yamodel/internal/ir"
	"github.com/reoring/yamodel/internal/links"
	"github.com/reoring/yamodel/internal/poly"
	"github.com/reoring/yamodel/internal/prune"
	"github.com/reoring/yamodel/yamale"
)

// Model is a compiled schema: the root node, the pruned definition table and
// the warnings raised on the way.
type Model struct {
	root     ir.Node
	table    *ir.Table
	anchors  links.Anchors
	warnings ymerrors.Issues
	dropped  []string
	settings emit.Settings
}

// Compile runs every pass over s. On error no model is returned.
func Compile(s *yamale.Schema, opts Options) (*Model, error) {
	log := opts.logger()

	root, table, err := build.Build(s, log)
	if err != nil {
		return nil, err
	}
	log.Debug("build done", "definitions", table.Len())

	anchors, err := links.Resolve(root, table)
	if err != nil {
		return nil, err
	}
	log.Debug("links resolved", "anchors", len(anchors))

	warnings, err := poly.Expand(root, table, log)
	if err != nil {
		return nil, err
	}

	dropped := prune.Prune(root, table)
	if len(dropped) > 0 {
		log.Debug("pruned definitions", "names", dropped)
	}

	return &Model{
		root:     root,
		table:    table,
		anchors:  anchors,
		warnings: warnings,
		dropped:  dropped,
		settings: opts.settings(),
	}, nil
}

// CompileFile reads the schema at path, merges every include file into it and
// compiles the result. An empty opts.Package is derived from the file name.
func CompileFile(path string, opts Options, includes ...string) (*Model, error) {
	s, err := yamale.ParseFile(path)
	if err != nil {
		return nil, err
	}
	for _, inc := range includes {
		other, err := yamale.ParseFile(inc)
		if err != nil {
			return nil, err
		}
		s.Merge(other)
	}
	if opts.Package == "" {
		opts.Package = PackageName(path)
	}
	return Compile(s, opts)
}

// PackageName derives a package name from a schema file name:
// "MST_with_description.yaml" becomes "mst".
func PackageName(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	stem = strings.TrimSuffix(stem, "_with_description")
	return strings.ToLower(stem)
}

// Root returns the root node.
func (m *Model) Root() ir.Node { return m.root }

// Definitions returns the names of the kept definitions in insertion order.
func (m *Model) Definitions() []string { return m.table.Names() }

// Definition returns the named definition node.
func (m *Model) Definition(name string) (ir.Node, bool) {
	n := m.table.Node(name)
	return n, n != nil
}

// Anchors maps every anchor name to the path of its declaring object.
func (m *Model) Anchors() map[string]string { return m.anchors }

// Pruned returns the definitions dropped as unreachable.
func (m *Model) Pruned() []string { return m.dropped }

// Warnings returns the non-fatal issues of the compile.
func (m *Model) Warnings() ymerrors.Issues { return m.warnings }

// Package returns the package name used in the emitted document.
func (m *Model) Package() string { return m.settings.Package }

// Document returns the single-file model document.
func (m *Model) Document() map[string]any {
	return emit.Document(m.root, m.table, m.settings)
}

// Metadata returns the emitted properties of the root object.
func (m *Model) Metadata() map[string]any {
	return emit.NewEmitter(m.settings.LinkModel, m.settings.QueryField).Metadata(m.root)
}

// Split returns the definitions and metadata documents keyed by file stem.
func (m *Model) Split() map[string]map[string]any {
	return emit.Split(m.root, m.table, m.settings)
}

// YAML encodes the document as YAML.
func (m *Model) YAML() ([]byte, error) { return emit.YAML(m.Document()) }

// JSON encodes the document as indented JSON.
func (m *Model) JSON() ([]byte, error) { return emit.JSON(m.Document()) }

// Encode encodes v in the given format, "yaml" or "json".
func Encode(v any, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", FormatYAML, "yml":
		return emit.YAML(v)
	case FormatJSON:
		return emit.JSON(v)
	}
	return nil, fmt.Errorf("yamodel: unknown output format %q", format)
}

// Output formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)
