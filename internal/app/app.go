// Package app assembles the extraction, model and export components from
// configuration. Both the HTTP server and the CLI start here.
package app

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"github.com/toricodesthings/doc-translate-service/internal/config"
	"github.com/toricodesthings/doc-translate-service/internal/export"
	"github.com/toricodesthings/doc-translate-service/internal/extract"
	docxextractor "github.com/toricodesthings/doc-translate-service/internal/extractors/docx"
	imageextractor "github.com/toricodesthings/doc-translate-service/internal/extractors/image"
	pdfextractor "github.com/toricodesthings/doc-translate-service/internal/extractors/pdf"
	plaintextextractor "github.com/toricodesthings/doc-translate-service/internal/extractors/plaintext"
	"github.com/toricodesthings/doc-translate-service/internal/languages"
	"github.com/toricodesthings/doc-translate-service/internal/llm"
	"github.com/toricodesthings/doc-translate-service/internal/ocr"
	"github.com/toricodesthings/doc-translate-service/internal/ocr/tesseract"
	"github.com/toricodesthings/doc-translate-service/internal/pipeline"
	"github.com/toricodesthings/doc-translate-service/internal/poppler"
	"github.com/toricodesthings/doc-translate-service/internal/translate"
)

type App struct {
	Pipeline  *pipeline.Pipeline
	Router    *extract.Router
	Languages *languages.Table
}

func Build(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (*App, error) {
	langs, err := languages.Load(cfg.LanguagesFile)
	if err != nil {
		return nil, eris.Wrap(err, "load languages")
	}

	engine, err := NewOCREngine(cfg)
	if err != nil {
		return nil, err
	}
	ocr.SetConcurrencyLimit(cfg.MaxOCRConcurrent)

	pop := poppler.Config{
		PDFInfoTimeout:   cfg.PDFInfoTimeout,
		PDFToTextTimeout: cfg.PDFToTextTimeout,
		PDFToPPMTimeout:  cfg.PDFToPPMTimeout,
		DPI:              cfg.RasterDPI,
		Log:              log,
	}
	chain := pdfextractor.NewChain(log,
		pdfextractor.NewTextLayer(pop, log),
		pdfextractor.NewOCR(engine, pdfextractor.PopplerRasterizer(pop), pdfextractor.OCRConfig{
			Workers:         cfg.MaxPageWorkers,
			SkipFailedPages: cfg.OCRSkipFailedPages,
		}, log),
	)

	registry := extract.NewRegistry()
	registry.Register(pdfextractor.New(chain, cfg.MaxUploadBytes))
	registry.Register(docxextractor.New(cfg.MaxUploadBytes))
	registry.Register(imageextractor.New(engine, cfg.MaxUploadBytes))
	registry.Register(plaintextextractor.New(cfg.MaxUploadBytes))
	router := extract.NewRouter(registry, log)

	gen, err := llm.New(ctx, llm.Config{
		Provider:    cfg.LLMProvider,
		Model:       cfg.LLMModel,
		APIKey:      cfg.LLMAPIKey,
		BaseURL:     cfg.LLMBaseURL,
		Temperature: cfg.LLMTemperature,
		Timeout:     cfg.GenerateTimeout,
	}, log)
	if err != nil {
		return nil, err
	}
	text := translate.NewService(gen, translate.Options{
		StripMarkup: cfg.LLMStripMarkup,
		Timeout:     cfg.GenerateTimeout,
	}, log)

	exporter := export.NewExporter(NewRenderer(cfg), cfg.ExportFileName, cfg.ExportTimeout, log)

	p := pipeline.New(router, text, exporter, langs, pipeline.Options{
		MaxUploadBytes: cfg.MaxUploadBytes,
		ExtractTimeout: cfg.ExtractTimeout,
	}, log)

	log.WithFields(logrus.Fields{
		"ocr":       engine.Name(),
		"llm":       cfg.LLMProvider,
		"renderer":  cfg.ExportRenderer,
		"languages": len(langs.All()),
	}).Info("pipeline ready")

	return &App{Pipeline: p, Router: router, Languages: langs}, nil
}

// NewOCREngine picks the recognizer named by OCR_ENGINE.
func NewOCREngine(cfg config.Config) (ocr.Engine, error) {
	var engine ocr.Engine
	switch cfg.OCREngine {
	case "", "tesseract":
		engine = tesseract.New(cfg.RasterDPI)
	case "mistral":
		engine = ocr.NewMistral(cfg.MistralAPIKey, cfg.MistralOCRModel, cfg.MistralOCRURL, cfg.MistralOCRTimeout)
	default:
		return nil, eris.Errorf("unknown OCR engine %q", cfg.OCREngine)
	}
	if cfg.OCRPreprocess {
		engine = ocr.WithPreprocessing(engine)
	}
	return engine, nil
}

// NewRenderer picks the PDF backend named by EXPORT_RENDERER.
func NewRenderer(cfg config.Config) export.Renderer {
	if cfg.ExportRenderer == "gopdf" {
		return export.NewGoPDF(cfg.ExportFontPath)
	}
	return export.NewLibreOffice(cfg.LibreOfficeBinary, cfg.LibreOfficeTimeout)
}
