// Package export turns translated text into a downloadable PDF and a
// bilingual review workbook.
package export

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

const DefaultFileName = "translated_doc.pdf"

var ErrEmptyText = eris.New("nothing to export")

func init() {
	api.DisableConfigDir()
}

// Artifact is a finished export held in memory. Nothing remains on disk.
type Artifact struct {
	FileName string
	Data     []byte
	Pages    int
	Renderer string
}

type Exporter struct {
	renderer Renderer
	fileName string
	timeout  time.Duration
	log      logrus.FieldLogger

	// validate checks the rendered file and returns its page count.
	validate func(path string) (int, error)
}

func NewExporter(renderer Renderer, fileName string, timeout time.Duration, log logrus.FieldLogger) *Exporter {
	if strings.TrimSpace(fileName) == "" {
		fileName = DefaultFileName
	}
	return &Exporter{
		renderer: renderer,
		fileName: fileName,
		timeout:  timeout,
		log:      log,
		validate: validatePDF,
	}
}

// Export writes text to a DOCX, renders it and validates the PDF. The
// working directory is unique per call and removed on every path.
func (e *Exporter) Export(ctx context.Context, text, language string) (Artifact, error) {
	if strings.TrimSpace(text) == "" {
		return Artifact{}, ErrEmptyText
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	dir, err := os.MkdirTemp("", "doctrans-export-"+uuid.NewString()+"-*")
	if err != nil {
		return Artifact{}, eris.Wrap(err, "export dir")
	}
	defer os.RemoveAll(dir)

	start := time.Now()
	docxPath := filepath.Join(dir, "translated_doc.docx")
	if err := WriteDOCX(docxPath, text); err != nil {
		return Artifact{}, err
	}

	pdfPath, err := e.renderer.Render(ctx, Document{
		DOCXPath: docxPath,
		Text:     text,
		Language: language,
		OutDir:   dir,
	})
	if err != nil {
		return Artifact{}, eris.Wrapf(err, "render with %s", e.renderer.Name())
	}

	pages, err := e.validate(pdfPath)
	if err != nil {
		return Artifact{}, err
	}

	data, err := os.ReadFile(pdfPath)
	if err != nil {
		return Artifact{}, eris.Wrap(err, "read pdf")
	}

	e.log.WithFields(logrus.Fields{
		"renderer":    e.renderer.Name(),
		"pages":       pages,
		"bytes":       len(data),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("export finished")

	return Artifact{FileName: e.fileName, Data: data, Pages: pages, Renderer: e.renderer.Name()}, nil
}

func validatePDF(path string) (int, error) {
	if err := api.ValidateFile(path, model.NewDefaultConfiguration()); err != nil {
		return 0, eris.Wrap(err, "rendered pdf is invalid")
	}
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, eris.Wrap(err, "count pages")
	}
	if n == 0 {
		return 0, eris.New("rendered pdf has no pages")
	}
	return n, nil
}
