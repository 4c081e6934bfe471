package pdf

import (
	"context"
	"os"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/toricodesthings/doc-translate-service/internal/extract"
	"github.com/toricodesthings/doc-translate-service/internal/ocr"
	"github.com/toricodesthings/doc-translate-service/internal/poppler"
)

// Rasterizer turns PDF pages into PNG files.
type Rasterizer interface {
	PageCount(ctx context.Context, pdfPath string) (int, error)
	RenderPage(ctx context.Context, pdfPath string, page int, outDir string) (string, error)
}

type popplerRasterizer struct {
	cfg poppler.Config
}

func PopplerRasterizer(cfg poppler.Config) Rasterizer {
	return popplerRasterizer{cfg: cfg}
}

func (p popplerRasterizer) PageCount(ctx context.Context, pdfPath string) (int, error) {
	return poppler.PageCount(ctx, pdfPath, p.cfg)
}

func (p popplerRasterizer) RenderPage(ctx context.Context, pdfPath string, page int, outDir string) (string, error) {
	return poppler.RenderPage(ctx, pdfPath, page, outDir, p.cfg)
}

type OCRConfig struct {
	Workers         int
	SkipFailedPages bool
}

// OCR rasterises every page and recognises it with the job's language code.
type OCR struct {
	engine ocr.Engine
	raster Rasterizer
	cfg    OCRConfig
	log    logrus.FieldLogger
}

func NewOCR(engine ocr.Engine, raster Rasterizer, cfg OCRConfig, log logrus.FieldLogger) *OCR {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &OCR{engine: engine, raster: raster, cfg: cfg, log: log}
}

func (o *OCR) Name() string { return extract.MethodOCR }

func (o *OCR) Extract(ctx context.Context, job extract.Job) (extract.Result, error) {
	total, err := o.raster.PageCount(ctx, job.LocalPath)
	if err != nil {
		return extract.Result{}, eris.Wrap(err, "page count")
	}
	if total == 0 {
		return extract.Result{Method: extract.MethodOCR}, nil
	}

	scratch, err := os.MkdirTemp(job.WorkDir, "ocr-pages-*")
	if err != nil {
		return extract.Result{}, eris.Wrap(err, "scratch dir")
	}
	defer os.RemoveAll(scratch)

	log := o.log.WithFields(logrus.Fields{
		"engine": o.engine.Name(),
		"lang":   job.Language,
		"pages":  total,
	})
	log.Info("running OCR")

	pages, errs := o.recognizePages(ctx, job, total, scratch)
	if err := ctx.Err(); err != nil {
		return extract.Result{}, err
	}

	var failed []int
	for i, perr := range errs {
		if perr == nil {
			continue
		}
		if !o.cfg.SkipFailedPages {
			return extract.Result{}, eris.Wrapf(perr, "ocr page %d", i+1)
		}
		log.WithError(perr).WithField("page", i+1).Warn("skipping page that failed OCR")
		failed = append(failed, i+1)
	}
	if len(failed) == total {
		return extract.Result{}, eris.Wrapf(errs[0], "ocr failed on all %d pages", total)
	}

	return extract.Result{
		Text:        extract.JoinPages(pages),
		Method:      extract.MethodOCR,
		Pages:       pages,
		FailedPages: failed,
	}, nil
}

// recognizePages fans pages out over a bounded pool. Results are indexed by
// page so the join order never depends on scheduling.
func (o *OCR) recognizePages(ctx context.Context, job extract.Job, total int, scratch string) ([]extract.PageResult, []error) {
	results := make([]extract.PageResult, total)
	errs := make([]error, total)

	workers := o.cfg.Workers
	if workers > total {
		workers = total
	}
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup

	for i := 0; i < total; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				errs[idx] = err
				return
			}
			defer sem.Release(1)

			results[idx], errs[idx] = o.recognizePage(ctx, job, idx+1, scratch)
		}(i)
	}

	wg.Wait()
	return results, errs
}

func (o *OCR) recognizePage(ctx context.Context, job extract.Job, page int, scratch string) (extract.PageResult, error) {
	res := extract.PageResult{PageNumber: page, Method: extract.MethodOCR}

	imgPath, err := o.raster.RenderPage(ctx, job.LocalPath, page, scratch)
	if err != nil {
		return res, err
	}
	defer os.Remove(imgPath)

	img, err := os.ReadFile(imgPath)
	if err != nil {
		return res, eris.Wrapf(err, "read page image %d", page)
	}

	text, err := o.engine.Recognize(ctx, img, job.Language)
	if err != nil {
		return res, err
	}

	res.Text = extract.CleanOCRText(text)
	res.WordCount, _ = extract.BuildCounts(res.Text)
	return res, nil
}
