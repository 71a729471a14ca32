package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/reoring/yamodel"
	"github.com/reoring/yamodel/internal/config"
)

type compileFlags struct {
	includes []string
	config   string
	format   string
	pkg      string
	split    string
	files    string
}

func runCompile(cf *compileFlags, input, output string, stdout io.Writer, log *slog.Logger) error {
	cfg, err := config.Load(cf.config)
	if err != nil {
		return err
	}
	format := cfg.Format
	if cf.format != "" {
		format = cf.format
	}
	format = strings.ToLower(format)
	opts := cfg.Options()
	opts.Logger = log
	if cf.pkg != "" {
		opts.Package = cf.pkg
	}

	m, err := yamodel.CompileFile(input, opts, cf.includes...)
	if err != nil {
		return err
	}
	log.Info("compiled", "input", input, "package", m.Package(), "definitions", len(m.Definitions()), "warnings", len(m.Warnings()))

	if cf.split != "" {
		return writeSplit(m, cf, opts, format, log)
	}
	if cf.files != "" {
		return fmt.Errorf("--files requires --split")
	}

	data, err := yamodel.Encode(m.Document(), format)
	if err != nil {
		return err
	}
	if output == "" {
		_, err = stdout.Write(data)
		return err
	}
	if st, err := os.Stat(output); err == nil && st.IsDir() {
		output = filepath.Join(output, m.Package()+"."+format)
	}
	return writeFile(output, data, log)
}

func writeSplit(m *yamodel.Model, cf *compileFlags, opts yamodel.Options, format string, log *slog.Logger) error {
	docs := make(map[string]any)
	for stem, doc := range m.Split() {
		docs[stem] = doc
	}
	if cf.files != "" {
		opts.Package = ""
		files, err := yamodel.CompileFile(cf.files, opts, cf.includes...)
		if err != nil {
			return err
		}
		docs["files"] = files.Metadata()
	}
	stems := make([]string, 0, len(docs))
	for stem := range docs {
		stems = append(stems, stem)
	}
	sort.Strings(stems)
	// encode everything before touching the directory
	out := make(map[string][]byte, len(docs))
	for _, stem := range stems {
		data, err := yamodel.Encode(docs[stem], format)
		if err != nil {
			return err
		}
		out[stem] = data
	}
	if err := os.MkdirAll(cf.split, 0o755); err != nil {
		return err
	}
	for _, stem := range stems {
		if err := writeFile(filepath.Join(cf.split, stem+"."+format), out[stem], log); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, data []byte, log *slog.Logger) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	log.Debug("wrote", "path", path, "bytes", len(data))
	return nil
}
