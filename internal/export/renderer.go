package export

import "context"

// Document is what a Renderer turns into a PDF. DOCXPath is always
// written; Text carries the same content for renderers that lay out text
// themselves.
type Document struct {
	DOCXPath string
	Text     string
	Language string
	OutDir   string
}

// Renderer converts a Document to a PDF inside doc.OutDir and returns the
// PDF path.
type Renderer interface {
	Name() string
	Render(ctx context.Context, doc Document) (string, error)
}
