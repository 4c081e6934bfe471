package llm

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/mistral"
	"github.com/tmc/langchaingo/llms/ollama"
)

const defaultOllamaURL = "http://127.0.0.1:11434"

type langchainGenerator struct {
	llm         llms.Model
	temperature float64
}

func newLangchain(ctx context.Context, provider string, cfg Config) (*langchainGenerator, error) {
	var (
		model llms.Model
		err   error
	)
	switch provider {
	case "gemini":
		if cfg.APIKey == "" {
			return nil, eris.New("Gemini API key is not set")
		}
		model, err = googleai.New(ctx,
			googleai.WithAPIKey(cfg.APIKey),
			googleai.WithDefaultModel(cfg.Model),
		)
	case "ollama":
		host := cfg.BaseURL
		if host == "" {
			host = defaultOllamaURL
		}
		model, err = ollama.New(
			ollama.WithModel(cfg.Model),
			ollama.WithServerURL(host),
		)
	case "mistral":
		if cfg.APIKey == "" {
			return nil, eris.New("Mistral API key is not set")
		}
		model, err = mistral.New(
			mistral.WithModel(cfg.Model),
			mistral.WithAPIKey(cfg.APIKey),
		)
	case "anthropic":
		if cfg.APIKey == "" {
			return nil, eris.New("Anthropic API key is not set")
		}
		model, err = anthropic.New(
			anthropic.WithModel(cfg.Model),
			anthropic.WithToken(cfg.APIKey),
		)
	default:
		return nil, eris.Errorf("unsupported provider %q", provider)
	}
	if err != nil {
		return nil, err
	}
	return &langchainGenerator{llm: model, temperature: cfg.Temperature}, nil
}

func (g *langchainGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt, llms.WithTemperature(g.temperature))
	if err != nil {
		return "", eris.Wrap(err, "generate")
	}
	return out, nil
}
