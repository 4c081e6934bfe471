// Package ocr recognises text in rasterised page images.
package ocr

import (
	"context"
)

// Engine turns one PNG page image into text. lang is a tesseract-style
// language code such as "eng" or "tam"; engines that detect the language
// themselves may ignore it.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, png []byte, lang string) (string, error)
}

type preprocessing struct {
	next Engine
}

// WithPreprocessing enhances each image before handing it to next.
func WithPreprocessing(next Engine) Engine {
	return &preprocessing{next: next}
}

func (p *preprocessing) Name() string { return p.next.Name() + "+preprocess" }

func (p *preprocessing) Recognize(ctx context.Context, png []byte, lang string) (string, error) {
	enhanced, err := Enhance(png)
	if err != nil {
		return "", err
	}
	return p.next.Recognize(ctx, enhanced, lang)
}
