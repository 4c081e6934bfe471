package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newExtractCmd(g *globalOptions) *cobra.Command {
	var (
		source string
		clean  bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "extract FILE",
		Short: "Print the text of a PDF or DOCX file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, _, err := g.setup(ctx)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			st, err := p.Extract(ctx, f, filepath.Base(args[0]), source)
			if err != nil {
				return err
			}
			if clean {
				if st, err = p.Clean(ctx, st); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}
			if clean {
				_, err = fmt.Fprintln(out, st.CleanedText)
			} else {
				_, err = fmt.Fprintln(out, st.ExtractedText)
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&source, "source", "s", "", "source language, e.g. English or Tamil")
	cmd.Flags().BoolVar(&clean, "clean", false, "restructure the text with the language model")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full pipeline state as JSON")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}
