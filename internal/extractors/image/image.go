package image

import (
	"bytes"
	"context"
	"os"

	"github.com/disintegration/imaging"
	"github.com/rotisserie/eris"

	"github.com/toricodesthings/doc-translate-service/internal/extract"
	"github.com/toricodesthings/doc-translate-service/internal/ocr"
)

// Extractor recognises a single scanned page uploaded as an image.
type Extractor struct {
	engine   ocr.Engine
	maxBytes int64
}

func New(engine ocr.Engine, maxBytes int64) *Extractor {
	return &Extractor{engine: engine, maxBytes: maxBytes}
}

func (e *Extractor) Name() string { return "image" }

func (e *Extractor) MaxFileSize() int64 { return e.maxBytes }

func (e *Extractor) SupportedTypes() []string {
	return []string{"image/jpeg", "image/png", "image/gif", "image/bmp", "image/tiff"}
}

func (e *Extractor) SupportedExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".tif"}
}

func (e *Extractor) Extract(ctx context.Context, job extract.Job) (extract.Result, error) {
	if err := ctx.Err(); err != nil {
		return extract.Result{}, err
	}

	f, err := os.Open(job.LocalPath)
	if err != nil {
		return extract.Result{FileType: e.Name()}, eris.Wrap(err, "open image")
	}
	defer f.Close()

	// Engines take PNG, so every format is re-encoded once here.
	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return extract.Result{FileType: e.Name()}, eris.Wrap(err, "decode image")
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return extract.Result{FileType: e.Name()}, eris.Wrap(err, "encode png")
	}

	raw, err := e.engine.Recognize(ctx, buf.Bytes(), job.Language)
	if err != nil {
		return extract.Result{FileType: e.Name()}, eris.Wrapf(err, "%s ocr", e.engine.Name())
	}

	text := extract.CleanOCRText(raw)
	words, _ := extract.BuildCounts(text)
	return extract.Result{
		Text:     text,
		Method:   extract.MethodOCR,
		FileType: e.Name(),
		MIMEType: job.MIMEType,
		Pages:    []extract.PageResult{{PageNumber: 1, Text: text, Method: extract.MethodOCR, WordCount: words}},
	}, nil
}
