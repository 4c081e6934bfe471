// Package llm adapts hosted and local language models to a single
// prompt-in, text-out Generator.
package llm

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// Generator sends one prompt and returns the model's reply.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Config struct {
	Provider    string // gemini | openai | ollama | mistral | anthropic
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float64
	Timeout     time.Duration
}

// New builds the Generator for cfg.Provider.
func New(ctx context.Context, cfg Config, log logrus.FieldLogger) (Generator, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	log = log.WithFields(logrus.Fields{"provider": provider, "model": cfg.Model})

	var (
		gen Generator
		err error
	)
	switch provider {
	case "openai":
		gen, err = newEino(ctx, cfg)
	case "gemini", "ollama", "mistral", "anthropic":
		gen, err = newLangchain(ctx, provider, cfg)
	default:
		return nil, eris.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
	if err != nil {
		log.WithError(err).Error("failed to create LLM client")
		return nil, eris.Wrapf(err, "create %s client", provider)
	}

	log.Info("LLM client ready")
	return gen, nil
}
