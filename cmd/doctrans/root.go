package main

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/toricodesthings/doc-translate-service/internal/app"
	"github.com/toricodesthings/doc-translate-service/internal/config"
	"github.com/toricodesthings/doc-translate-service/internal/logging"
	"github.com/toricodesthings/doc-translate-service/internal/pipeline"
)

// buildPipeline is swapped out in tests.
var buildPipeline = func(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (*pipeline.Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return a.Pipeline, nil
}

type globalOptions struct {
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:   "doctrans",
		Short: "Extract, clean, translate and export documents",
		Long: `doctrans pulls text out of PDF and DOCX files (falling back to OCR for
scanned pages), restructures it with a language model, translates it and
exports the result as a PDF.

Model, OCR and export backends are configured through the same environment
variables as the HTTP service (LLM_PROVIDER, LLM_API_KEY, OCR_ENGINE,
EXPORT_RENDERER, ...).

Examples:
  doctrans languages
  doctrans extract scan.pdf --source Tamil
  doctrans translate report.pdf --source English --target Spanish --accuracy`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "log format (text, json)")

	root.AddCommand(newLanguagesCmd(), newExtractCmd(opts), newTranslateCmd(opts))
	return root
}

// setup loads configuration and builds the pipeline for one command run.
func (o *globalOptions) setup(ctx context.Context) (*pipeline.Pipeline, logrus.FieldLogger, error) {
	cfg := config.Load()
	log := logging.New(o.logLevel, o.logFormat)
	p, err := buildPipeline(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return p, log, nil
}
