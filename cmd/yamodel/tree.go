package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/reoring/yamodel/internal/tree"
	"github.com/reoring/yamodel/yamale"
)

func newTreeCmd(stdout io.Writer, g *globalFlags) *cobra.Command {
	var (
		includes []string
		out      string
	)
	cmd := &cobra.Command{
		Use:   "tree [--include PATH] [--out FILE] INPUT",
		Short: "Print the schema with every include unrolled",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := yamale.ParseFile(args[0])
			if err != nil {
				return err
			}
			for _, inc := range includes {
				other, err := yamale.ParseFile(inc)
				if err != nil {
					return err
				}
				s.Merge(other)
			}
			lines, err := tree.Unroll(s)
			if err != nil {
				return err
			}
			if out == "" {
				return tree.Write(stdout, lines)
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := tree.Write(f, lines); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringArrayVar(&includes, "include", nil, "secondary schema merged as includes (repeatable)")
	cmd.Flags().StringVar(&out, "out", "", "output file (default: stdout)")
	return cmd
}
