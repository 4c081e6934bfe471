// Package translate restructures extracted text and translates it with a
// language model.
package translate

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"github.com/toricodesthings/doc-translate-service/internal/llm"
)

var ErrEmptyResponse = eris.New("model returned an empty response")

type Options struct {
	// StripMarkup flattens markdown or HTML in replies to plain text.
	StripMarkup bool
	// Timeout bounds each model call. Zero means no extra bound.
	Timeout time.Duration
}

type Service struct {
	gen  llm.Generator
	opts Options
	log  logrus.FieldLogger
}

func NewService(gen llm.Generator, opts Options, log logrus.FieldLogger) *Service {
	return &Service{gen: gen, opts: opts, log: log}
}

// Clean asks the model to restructure raw extracted text, dropping image
// references and stray links.
func (s *Service) Clean(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", eris.New("no text to clean")
	}
	return s.generate(ctx, "clean", cleanupPrompt(text))
}

// Translate renders text from source into target. Both are language names
// such as "Tamil" or "Spanish".
func (s *Service) Translate(ctx context.Context, text, source, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", eris.New("no text to translate")
	}
	if source == "" || target == "" {
		return "", eris.New("source and target languages are required")
	}
	return s.generate(ctx, "translate", translatePrompt(text, source, target))
}

func (s *Service) generate(ctx context.Context, op, prompt string) (string, error) {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return "", eris.Wrapf(err, "%s request", op)
	}

	if s.opts.StripMarkup {
		out = llm.PlainText(out)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", eris.Wrap(ErrEmptyResponse, op)
	}

	s.log.WithFields(logrus.Fields{
		"op":          op,
		"prompt_len":  len(prompt),
		"reply_len":   len(out),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("model call finished")
	return out, nil
}
