// Command yamodel compiles yamale schemas into repository model documents.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	ymerrors "github.com/reoring/yamodel/errors"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		report(os.Stderr, err)
		os.Exit(1)
	}
}

// report prints one line per issue, falling back to the plain error text.
func report(w io.Writer, err error) {
	iss, ok := ymerrors.AsIssues(err)
	if !ok {
		fmt.Fprintf(w, "yamodel: %v\n", err)
		return
	}
	for _, it := range iss {
		fmt.Fprintf(w, "yamodel: %v\n", it)
	}
}

type globalFlags struct {
	debug bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globalFlags{}
	cf := &compileFlags{}
	root := &cobra.Command{
		Use:           "yamodel [flags] INPUT [OUTPUT]",
		Short:         "Compile a yamale schema into a repository model",
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := ""
			if len(args) == 2 {
				out = args[1]
			}
			return runCompile(cf, args[0], out, stdout, newLogger(stderr, g.debug))
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().BoolVar(&g.debug, "debug", false, "debug logging")

	f := root.Flags()
	f.StringArrayVar(&cf.includes, "include", nil, "secondary schema merged as includes (repeatable)")
	f.StringVar(&cf.config, "config", "", "configuration file")
	f.StringVar(&cf.format, "format", "", "output format: yaml or json")
	f.StringVar(&cf.pkg, "package", "", "package name (default: derived from INPUT)")
	f.StringVar(&cf.split, "split", "", "write definitions and metadata documents into this directory")
	f.StringVar(&cf.files, "files", "", "attachment schema written as the files document (with --split)")

	root.AddCommand(newStripCmd(stderr, g), newTreeCmd(stdout, g))
	return root
}

// newLogger picks a text handler for terminals and JSON otherwise.
func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
