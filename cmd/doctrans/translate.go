package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/toricodesthings/doc-translate-service/internal/accuracy"
)

func newTranslateCmd(g *globalOptions) *cobra.Command {
	var (
		source       string
		target       string
		out          string
		withAccuracy bool
		review       string
	)
	cmd := &cobra.Command{
		Use:   "translate FILE",
		Short: "Extract, clean and translate a document, then export it as PDF",
		Long: `translate runs every step in order. Use --out - to print the
translation instead of rendering a PDF.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, log, err := g.setup(ctx)
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
			log.WithField("method", st.ExtractionMethod).Info("text extracted")

			if st, err = p.Clean(ctx, st); err != nil {
				return err
			}
			if st, err = p.Translate(ctx, st, target); err != nil {
				return err
			}

			stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
			if withAccuracy || review != "" {
				if st, err = p.Score(st); err != nil {
					return err
				}
				if withAccuracy {
					fmt.Fprintln(stderr, accuracy.Label(*st.Accuracy))
				}
			}

			if out == "-" {
				fmt.Fprintln(stdout, st.TranslatedText)
			} else {
				art, err := p.Export(ctx, st)
				if err != nil {
					return err
				}
				if out == "" {
					out = art.FileName
				}
				if err := os.WriteFile(out, art.Data, 0o644); err != nil {
					return err
				}
				fmt.Fprintf(stderr, "wrote %s (%d pages)\n", out, art.Pages)
			}

			if review != "" {
				data, err := p.Review(st)
				if err != nil {
					return err
				}
				if err := os.WriteFile(review, data, 0o644); err != nil {
					return err
				}
				fmt.Fprintf(stderr, "wrote %s\n", review)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&source, "source", "s", "", "source language")
	cmd.Flags().StringVarP(&target, "target", "t", "", "target language")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output PDF path (default translated_doc.pdf, - for stdout)")
	cmd.Flags().BoolVar(&withAccuracy, "accuracy", false, "print the character-similarity score")
	cmd.Flags().StringVar(&review, "review", "", "also write a bilingual review workbook to this path")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}
