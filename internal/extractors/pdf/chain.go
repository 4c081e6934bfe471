package pdf

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"github.com/toricodesthings/doc-translate-service/internal/extract"
)

// Strategy is one way of pulling text out of a PDF. A strategy that finds
// nothing returns an empty Text and a nil error.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, job extract.Job) (extract.Result, error)
}

// Chain runs strategies in order and stops at the first non-empty result.
type Chain struct {
	strategies []Strategy
	log        logrus.FieldLogger
}

func NewChain(log logrus.FieldLogger, strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies, log: log}
}

// Extract returns the first result whose trimmed text is non-empty. A
// strategy error is logged and the next strategy runs. When every strategy
// comes up empty the error wraps extract.ErrNoExtractableText.
func (c *Chain) Extract(ctx context.Context, job extract.Job) (extract.Result, error) {
	var errs []error
	for _, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			return extract.Result{}, err
		}

		log := c.log.WithFields(logrus.Fields{"strategy": s.Name(), "file": job.FileName})
		res, err := s.Extract(ctx, job)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return extract.Result{}, ctxErr
			}
			log.WithError(err).Warn("strategy failed, trying next")
			errs = append(errs, eris.Wrapf(err, "%s", s.Name()))
			continue
		}

		res.Text = strings.TrimSpace(res.Text)
		if res.Text != "" {
			if res.Method == "" {
				res.Method = s.Name()
			}
			return res, nil
		}
		log.Info("strategy found no text, trying next")
	}

	if len(errs) > 0 {
		return extract.Result{}, eris.Wrapf(extract.ErrNoExtractableText, "%v", errors.Join(errs...))
	}
	return extract.Result{}, extract.ErrNoExtractableText
}
