package extract

import (
	"context"

	"github.com/rotisserie/eris"
)

var (
	// ErrNoExtractableText is terminal: every strategy produced only whitespace.
	ErrNoExtractableText = eris.New("no extractable text found in document")
	ErrUnsupportedType   = eris.New("unsupported document type")
	ErrTooLarge          = eris.New("document exceeds size limit")
)

// Extractor is implemented by every document-type handler.
type Extractor interface {
	Extract(ctx context.Context, job Job) (Result, error)
	SupportedTypes() []string
	SupportedExtensions() []string
	Name() string
	MaxFileSize() int64
}
