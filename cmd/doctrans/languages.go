package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/toricodesthings/doc-translate-service/internal/config"
	"github.com/toricodesthings/doc-translate-service/internal/languages"
)

func newLanguagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported languages and their OCR codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := languages.Load(config.Load().LanguagesFile)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "LANGUAGE\tOCR CODE")
			for _, l := range table.All() {
				fmt.Fprintf(tw, "%s\t%s\n", l.Name, l.OCRCode)
			}
			return tw.Flush()
		},
	}
}
