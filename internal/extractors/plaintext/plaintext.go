package plaintext

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"

	"github.com/toricodesthings/doc-translate-service/internal/extract"
)

// Extractor passes plain text and markdown through with light
// normalisation. Markdown front matter is dropped.
type Extractor struct {
	maxBytes int64
}

func New(maxBytes int64) *Extractor {
	return &Extractor{maxBytes: maxBytes}
}

func (e *Extractor) Name() string { return "text" }

func (e *Extractor) MaxFileSize() int64 { return e.maxBytes }

func (e *Extractor) SupportedTypes() []string {
	return []string{"text/plain", "text/markdown"}
}

func (e *Extractor) SupportedExtensions() []string {
	return []string{".txt", ".text", ".md", ".markdown"}
}

func (e *Extractor) Extract(ctx context.Context, job extract.Job) (extract.Result, error) {
	if err := ctx.Err(); err != nil {
		return extract.Result{}, err
	}

	b, err := os.ReadFile(job.LocalPath)
	if err != nil {
		return extract.Result{FileType: e.Name()}, eris.Wrap(err, "read text file")
	}
	if !utf8.Valid(b) {
		return extract.Result{FileType: e.Name()}, eris.Wrap(extract.ErrUnsupportedType, "text file is not UTF-8")
	}

	text := string(b)
	fileType := "text/plain"
	switch strings.ToLower(filepath.Ext(job.FileName)) {
	case ".md", ".markdown":
		text = stripFrontMatter(text)
		fileType = "text/markdown"
	}

	text = extract.CleanOCRText(text)
	return extract.Result{
		Text:     text,
		Method:   extract.MethodNative,
		FileType: fileType,
		MIMEType: job.MIMEType,
		Pages:    []extract.PageResult{{PageNumber: 1, Text: text, Method: extract.MethodNative}},
	}, nil
}

func stripFrontMatter(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	if !strings.HasPrefix(s, "---\n") {
		return s
	}
	idx := strings.Index(s[4:], "\n---\n")
	if idx < 0 {
		return s
	}
	return s[4+idx+5:]
}
