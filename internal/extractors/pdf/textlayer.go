package pdf

import (
	"context"
	"fmt"

	ledongthuc "github.com/ledongthuc/pdf"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"github.com/toricodesthings/doc-translate-service/internal/extract"
	"github.com/toricodesthings/doc-translate-service/internal/poppler"
)

// TextLayer reads the embedded text of every page. Files the Go parser
// cannot open are retried with pdftotext.
type TextLayer struct {
	poppler poppler.Config
	log     logrus.FieldLogger
}

func NewTextLayer(cfg poppler.Config, log logrus.FieldLogger) *TextLayer {
	return &TextLayer{poppler: cfg, log: log}
}

func (t *TextLayer) Name() string { return extract.MethodTextLayer }

func (t *TextLayer) Extract(ctx context.Context, job extract.Job) (extract.Result, error) {
	pages, err := readTextLayer(job.LocalPath)
	if err != nil {
		t.log.WithError(err).WithField("file", job.FileName).Debug("pdf parser failed, falling back to pdftotext")

		texts, perr := poppler.ExtractPages(ctx, job.LocalPath, t.poppler)
		if perr != nil {
			return extract.Result{}, eris.Wrapf(perr, "text layer unreadable (%v)", err)
		}
		pages = make([]extract.PageResult, len(texts))
		for i, text := range texts {
			pages[i] = pageResult(i+1, text)
		}
	}

	return extract.Result{
		Text:   extract.JoinPages(pages),
		Method: extract.MethodTextLayer,
		Pages:  pages,
	}, nil
}

func readTextLayer(path string) (pages []extract.PageResult, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = eris.Errorf("pdf parser panic: %s", fmt.Sprint(r))
		}
	}()

	f, r, err := ledongthuc.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "open pdf")
	}
	defer f.Close()

	total := r.NumPage()
	pages = make([]extract.PageResult, 0, total)
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() || page.V.Key("Contents").Kind() == ledongthuc.Null {
			pages = append(pages, pageResult(i, ""))
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, eris.Wrapf(err, "page %d", i)
		}
		pages = append(pages, pageResult(i, text))
	}
	return pages, nil
}

func pageResult(n int, text string) extract.PageResult {
	words, _ := extract.BuildCounts(text)
	return extract.PageResult{
		PageNumber: n,
		Text:       text,
		Method:     extract.MethodTextLayer,
		WordCount:  words,
	}
}
