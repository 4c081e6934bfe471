package extract

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

type SuccessHook func(fileType string, fileSize int64, duration time.Duration)

type Router struct {
	registry    *Registry
	log         logrus.FieldLogger
	successHook SuccessHook
}

func NewRouter(registry *Registry, log logrus.FieldLogger) *Router {
	return &Router{registry: registry, log: log}
}

// SetSuccessHook registers a callback run after each successful extraction.
func (r *Router) SetSuccessHook(h SuccessHook) {
	r.successHook = h
}

// Extensions lists the upload extensions the router accepts.
func (r *Router) Extensions() []string {
	return r.registry.Extensions()
}

// Extract resolves the handler for a stored upload and runs it. The
// returned text is trimmed and never empty on success.
func (r *Router) Extract(ctx context.Context, file StoredFile, language string) (Result, error) {
	start := time.Now()

	ext := strings.ToLower(filepath.Ext(file.FileName))
	extractor, err := r.registry.Resolve(file.MIMEType, ext)
	if err != nil {
		return Result{MIMEType: file.MIMEType, FileType: "unknown"}, err
	}

	if max := extractor.MaxFileSize(); max > 0 && file.Size > max {
		return Result{MIMEType: file.MIMEType, FileType: extractor.Name()},
			eris.Wrapf(ErrTooLarge, "file exceeds extractor limit (%dMB)", max/(1<<20))
	}

	job := Job{
		LocalPath: file.Path,
		WorkDir:   file.TempDir,
		FileName:  file.FileName,
		MIMEType:  file.MIMEType,
		FileSize:  file.Size,
		Language:  language,
	}

	log := r.log.WithFields(logrus.Fields{
		"extractor": extractor.Name(),
		"file":      file.FileName,
		"size":      file.Size,
		"lang":      language,
	})

	res, err := extractor.Extract(ctx, job)
	if res.MIMEType == "" {
		res.MIMEType = file.MIMEType
	}
	if res.FileType == "" {
		res.FileType = extractor.Name()
	}
	if err != nil {
		log.WithError(err).Warn("extraction failed")
		return res, err
	}

	res.Text = strings.TrimSpace(res.Text)
	if res.Text == "" {
		log.Warn("extraction produced no text")
		return res, ErrNoExtractableText
	}
	res.WordCount, res.CharCount = BuildCounts(res.Text)

	elapsed := time.Since(start)
	log.WithFields(logrus.Fields{
		"method":   res.Method,
		"words":    res.WordCount,
		"duration": elapsed.Round(time.Millisecond),
	}).Info("extraction complete")

	if r.successHook != nil {
		r.successHook(res.FileType, file.Size, elapsed)
	}
	return res, nil
}
