// Package tesseract provides the default OCR engine backed by libtesseract.
package tesseract

import (
	"context"
	"strconv"

	"github.com/otiai10/gosseract/v2"
	"github.com/rotisserie/eris"

	"github.com/toricodesthings/doc-translate-service/internal/ocr"
)

// Engine runs a fresh gosseract client per page; clients are not safe for
// concurrent use.
type Engine struct {
	clientFactory func() *gosseract.Client
	dpi           int
}

func New(dpi int) *Engine {
	return &Engine{clientFactory: gosseract.NewClient, dpi: dpi}
}

func (e *Engine) Name() string { return "tesseract" }

func (e *Engine) Recognize(ctx context.Context, png []byte, lang string) (string, error) {
	return ocr.WithConcurrencyLimit(ctx, func() (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		c := e.clientFactory()
		defer c.Close()

		if lang != "" {
			if err := c.SetLanguage(lang); err != nil {
				return "", eris.Wrapf(err, "set language %q", lang)
			}
		}
		if e.dpi > 0 {
			if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), strconv.Itoa(e.dpi)); err != nil {
				return "", eris.Wrap(err, "set dpi")
			}
		}
		if err := c.SetImageFromBytes(png); err != nil {
			return "", eris.Wrap(err, "set image")
		}

		text, err := c.Text()
		if err != nil {
			return "", eris.Wrapf(err, "tesseract (%s)", lang)
		}
		return text, nil
	})
}

var _ ocr.Engine = (*Engine)(nil)
