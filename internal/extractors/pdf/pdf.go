// Package pdf extracts text from PDF uploads through an ordered chain of
// strategies: the embedded text layer first, OCR when that yields nothing.
package pdf

import (
	"context"

	"github.com/toricodesthings/doc-translate-service/internal/extract"
)

type Extractor struct {
	chain    *Chain
	maxBytes int64
}

func New(chain *Chain, maxBytes int64) *Extractor {
	return &Extractor{chain: chain, maxBytes: maxBytes}
}

func (e *Extractor) Name() string { return "document/pdf" }

func (e *Extractor) MaxFileSize() int64 { return e.maxBytes }

func (e *Extractor) SupportedTypes() []string {
	return []string{"application/pdf", "application/x-pdf"}
}

func (e *Extractor) SupportedExtensions() []string {
	return []string{".pdf"}
}

func (e *Extractor) Extract(ctx context.Context, job extract.Job) (extract.Result, error) {
	res, err := e.chain.Extract(ctx, job)
	res.FileType = e.Name()
	if res.MIMEType == "" {
		res.MIMEType = job.MIMEType
	}
	return res, err
}
