package llm

import (
	"context"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/schema"
	"github.com/rotisserie/eris"
)

// einoGenerator talks to any OpenAI-compatible chat completions endpoint.
type einoGenerator struct {
	model *openai.ChatModel
}

func newEino(ctx context.Context, cfg Config) (*einoGenerator, error) {
	temp := float32(cfg.Temperature)
	mc := &openai.ChatModelConfig{
		Model:       cfg.Model,
		APIKey:      cfg.APIKey,
		Timeout:     cfg.Timeout,
		Temperature: &temp,
	}
	if cfg.BaseURL != "" {
		mc.BaseURL = cfg.BaseURL
	}

	cm, err := openai.NewChatModel(ctx, mc)
	if err != nil {
		return nil, err
	}
	return &einoGenerator{model: cm}, nil
}

func (g *einoGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return "", eris.Wrap(err, "chat completion")
	}
	if resp == nil {
		return "", eris.New("chat completion returned no message")
	}
	return resp.Content, nil
}
