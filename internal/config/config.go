// Package config loads compile options from an optional YAML file and
// YAMODEL_* environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/reoring/yamodel"
)

// EnvPrefix prefixes every environment override, e.g. YAMODEL_LINK_MODEL.
const EnvPrefix = "YAMODEL"

// Config mirrors the file layout. Keys use snake case.
type Config struct {
	Package           string         `mapstructure:"package"`
	Format            string         `mapstructure:"format"`
	LinkModel         string         `mapstructure:"link_model"`
	QueryField        string         `mapstructure:"query_field"`
	Use               []string       `mapstructure:"use"`
	Plugins           map[string]any `mapstructure:"plugins"`
	Languages         []string       `mapstructure:"languages"`
	ExtensionElements []string       `mapstructure:"extension_elements"`
	FieldsLimit       int            `mapstructure:"fields_limit"`
	NestedFieldsLimit int            `mapstructure:"nested_fields_limit"`
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() Config {
	o := yamodel.DefaultOptions()
	return Config{
		Format:            yamodel.FormatYAML,
		LinkModel:         o.LinkModel,
		QueryField:        o.QueryField,
		Use:               o.Use,
		Plugins:           o.Plugins,
		Languages:         o.Languages,
		ExtensionElements: o.ExtensionElements,
		FieldsLimit:       o.FieldsLimit,
		NestedFieldsLimit: o.NestedFieldsLimit,
	}
}

// Load reads path (if not empty) over the defaults, then applies environment
// overrides.
func Load(path string) (Config, error) {
	v := viper.New()
	d := Defaults()
	v.SetDefault("package", d.Package)
	v.SetDefault("format", d.Format)
	v.SetDefault("link_model", d.LinkModel)
	v.SetDefault("query_field", d.QueryField)
	v.SetDefault("use", d.Use)
	v.SetDefault("plugins", d.Plugins)
	v.SetDefault("languages", d.Languages)
	v.SetDefault("extension_elements", d.ExtensionElements)
	v.SetDefault("fields_limit", d.FieldsLimit)
	v.SetDefault("nested_fields_limit", d.NestedFieldsLimit)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	switch c.LinkModel {
	case yamodel.LinkModelAnchor, yamodel.LinkModelPath:
	default:
		return Config{}, fmt.Errorf("config: link_model must be %q or %q, got %q", yamodel.LinkModelAnchor, yamodel.LinkModelPath, c.LinkModel)
	}
	switch strings.ToLower(c.Format) {
	case yamodel.FormatYAML, yamodel.FormatJSON:
	default:
		return Config{}, fmt.Errorf("config: format must be %q or %q, got %q", yamodel.FormatYAML, yamodel.FormatJSON, c.Format)
	}
	return c, nil
}

// Options converts c into compile options.
func (c Config) Options() yamodel.Options {
	return yamodel.Options{
		Package:           c.Package,
		LinkModel:         c.LinkModel,
		QueryField:        c.QueryField,
		Use:               c.Use,
		Plugins:           c.Plugins,
		Languages:         c.Languages,
		ExtensionElements: c.ExtensionElements,
		FieldsLimit:       c.FieldsLimit,
		NestedFieldsLimit: c.NestedFieldsLimit,
	}
}
