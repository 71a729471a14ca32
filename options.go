package yamodel

import (
	"log/slog"

	"github.com/reoring/yamodel/internal/emit"
)

// Link model styles for relation fields.
const (
	LinkModelAnchor = emit.LinkModelAnchor
	LinkModelPath   = emit.LinkModelPath
)

// Options controls a compile. Zero fields take the defaults of
// DefaultOptions.
type Options struct {
	// Logger receives debug traces and warnings. Nil discards them.
	Logger *slog.Logger
	// Package names the model module (record.module.qualified is
	// mbdb_<Package>) and prefixes split output files.
	Package string
	// LinkModel selects how relation targets are rendered.
	LinkModel string
	// QueryField collects the values of default-search fields.
	QueryField        string
	Use               []string
	Plugins           map[string]any
	Languages         []string
	ExtensionElements []string
	FieldsLimit       int
	NestedFieldsLimit int
}

// DefaultOptions returns the options matching the repository model builder.
func DefaultOptions() Options {
	s := emit.DefaultSettings()
	return Options{
		LinkModel:         s.LinkModel,
		QueryField:        s.QueryField,
		Use:               s.Use,
		Plugins:           s.Plugins,
		Languages:         s.Languages,
		ExtensionElements: s.ExtensionElements,
		FieldsLimit:       s.FieldsLimit,
		NestedFieldsLimit: s.NestedFieldsLimit,
	}
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

func (o Options) settings() emit.Settings {
	s := emit.DefaultSettings()
	s.Package = o.Package
	if o.LinkModel != "" {
		s.LinkModel = o.LinkModel
	}
	if o.QueryField != "" {
		s.QueryField = o.QueryField
	}
	if o.Use != nil {
		s.Use = o.Use
	}
	if o.Plugins != nil {
		s.Plugins = o.Plugins
	}
	if o.Languages != nil {
		s.Languages = o.Languages
	}
	if o.ExtensionElements != nil {
		s.ExtensionElements = o.ExtensionElements
	}
	if o.FieldsLimit > 0 {
		s.FieldsLimit = o.FieldsLimit
	}
	if o.NestedFieldsLimit > 0 {
		s.NestedFieldsLimit = o.NestedFieldsLimit
	}
	return s
}
