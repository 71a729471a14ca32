package emit

import "github.com/reoring/yamodel/internal/ir"

// DefaultQueryField is the field collecting default-search values.
const DefaultQueryField = "collected_default_search_fields"

// Settings configures the surrounding model document.
type Settings struct {
	Package           string
	Use               []string
	Plugins           map[string]any
	Languages         []string
	ExtensionElements []string
	FieldsLimit       int
	NestedFieldsLimit int
	LinkModel         string
	QueryField        string
}

// DefaultSettings returns the settings of the repository model builder.
func DefaultSettings() Settings {
	return Settings{
		Use: []string{"invenio"},
		Plugins: map[string]any{
			"builder": map[string]any{"disable": []any{"script_sample_data"}},
			"packages": []any{
				"oarepo-model-builder-files==4.*",
				"oarepo-model-builder-cf==4.*",
				"oarepo-model-builder-vocabularies==4.*",
				"oarepo-model-builder-relations==4.*",
				"oarepo-model-builder-polymorphic==1.*",
				"oarepo-model-builder-drafts",
				"oarepo-model-builder-drafts-files",
			},
		},
		Languages:         []string{"en"},
		ExtensionElements: []string{"ui_file_context"},
		FieldsLimit:       3000,
		NestedFieldsLimit: 200,
		LinkModel:         LinkModelAnchor,
		QueryField:        DefaultQueryField,
	}
}

// Definitions emits every definition of the table by name.
func (e *Emitter) Definitions(table *ir.Table) map[string]any {
	out := make(map[string]any, table.Len())
	for _, name := range table.Names() {
		out[name] = e.Node(table.Node(name))
	}
	return out
}

// Metadata emits the properties of the root object.
func (e *Emitter) Metadata(root ir.Node) map[string]any {
	m := e.Node(root)
	if props, ok := m["properties"].(map[string]any); ok {
		return props
	}
	return m
}

// Document assembles the single-file model: the root under
// record.properties.metadata and the definitions under $defs.
func Document(root ir.Node, table *ir.Table, s Settings) map[string]any {
	e := NewEmitter(s.LinkModel, s.QueryField)
	queryField := e.queryField
	record := map[string]any{
		"use":        strings2any(s.Use),
		"module":     map[string]any{"qualified": "mbdb_" + s.Package},
		"properties": map[string]any{"metadata": e.Node(root)},
		"mapping": map[string]any{
			"template": map[string]any{
				"settings": map[string]any{
					"index.mapping.total_fields.limit":  s.FieldsLimit,
					"index.mapping.nested_fields.limit": s.NestedFieldsLimit,
					"index.query.default_field":         queryField,
				},
			},
		},
	}
	doc := map[string]any{
		"record":   record,
		"$defs":    e.Definitions(table),
		"settings": map[string]any{"i18n-languages": strings2any(s.Languages), "extension-elements": strings2any(s.ExtensionElements)},
	}
	if len(s.Plugins) > 0 {
		doc["plugins"] = s.Plugins
	}
	return doc
}

// Split returns the definitions and metadata documents keyed by their file
// stem ("<package>-definitions", "<package>-metadata").
func Split(root ir.Node, table *ir.Table, s Settings) map[string]map[string]any {
	e := NewEmitter(s.LinkModel, s.QueryField)
	prefix := ""
	if s.Package != "" {
		prefix = s.Package + "-"
	}
	return map[string]map[string]any{
		prefix + "definitions": e.Definitions(table),
		prefix + "metadata":    e.Metadata(root),
	}
}
