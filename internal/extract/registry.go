package extract

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

type Registry struct {
	byMIME      map[string]Extractor
	byExtension map[string]Extractor
}

func NewRegistry() *Registry {
	return &Registry{
		byMIME:      make(map[string]Extractor),
		byExtension: make(map[string]Extractor),
	}
}

func (r *Registry) Register(e Extractor) {
	for _, mt := range e.SupportedTypes() {
		key := strings.ToLower(strings.TrimSpace(mt))
		if key != "" {
			r.byMIME[key] = e
		}
	}
	for _, ext := range e.SupportedExtensions() {
		key := strings.ToLower(strings.TrimSpace(ext))
		if key != "" {
			r.byExtension[key] = e
		}
	}
}

// Resolve prefers the file extension and falls back to the sniffed MIME type.
func (r *Registry) Resolve(mimeType, extension string) (Extractor, error) {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	ext := strings.ToLower(strings.TrimSpace(extension))

	if e, ok := r.byExtension[ext]; ok {
		return e, nil
	}

	if e, ok := r.byMIME[mt]; ok {
		return e, nil
	}

	if i := strings.Index(mt, ";"); i > 0 {
		if e, ok := r.byMIME[strings.TrimSpace(mt[:i])]; ok {
			return e, nil
		}
	}

	return nil, eris.Wrapf(ErrUnsupportedType, "mime=%q extension=%q", mimeType, extension)
}

// Extensions lists every registered extension in sorted order.
func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.byExtension))
	for ext := range r.byExtension {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}
