package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reoring/yamodel/yamale"
)

func newStripCmd(stderr io.Writer, g *globalFlags) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "strip [--out DIR] FILES...",
		Short: "Write values-only copies of annotated schemas",
		Long: "strip replaces every {value, description} mapping by its value. " +
			"The output name drops the _with_description suffix.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(stderr, g.debug)
			for _, in := range args {
				out := strippedName(in, outDir)
				if filepath.Clean(out) == filepath.Clean(in) {
					return fmt.Errorf("strip %s: output would overwrite the input, use --out", in)
				}
				data, err := os.ReadFile(in)
				if err != nil {
					return err
				}
				stripped, err := yamale.StripDescriptions(data)
				if err != nil {
					return fmt.Errorf("strip %s: %w", in, err)
				}
				if err := writeFile(out, stripped, log); err != nil {
					return err
				}
				log.Info("stripped", "input", in, "output", out)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "", "output directory (default: next to each input)")
	return cmd
}

func strippedName(in, outDir string) string {
	ext := filepath.Ext(in)
	stem := strings.TrimSuffix(filepath.Base(in), ext)
	stem = strings.TrimSuffix(stem, "_with_description")
	dir := outDir
	if dir == "" {
		dir = filepath.Dir(in)
	}
	return filepath.Join(dir, stem+ext)
}
