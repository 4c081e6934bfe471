package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: "parrot"}, quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported LLM provider")
}

func TestNewRequiresKeys(t *testing.T) {
	for _, p := range []string{"gemini", "mistral", "anthropic"} {
		t.Run(p, func(t *testing.T) {
			_, err := New(context.Background(), Config{Provider: p, Model: "m"}, quietLogger())
			assert.Error(t, err)
		})
	}
}

func TestEinoGenerate(t *testing.T) {
	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if len(body.Messages) > 0 {
			gotPrompt = body.Messages[len(body.Messages)-1].Content
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"test",
			"choices":[{"index":0,"message":{"role":"assistant","content":"Hola mundo"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`))
	}))
	defer srv.Close()

	gen, err := New(context.Background(), Config{
		Provider: "openai",
		Model:    "test",
		APIKey:   "k",
		BaseURL:  srv.URL,
		Timeout:  5 * time.Second,
	}, quietLogger())
	require.NoError(t, err)

	out, err := gen.Generate(context.Background(), "Translate: Hello world")
	require.NoError(t, err)
	assert.Equal(t, "Hola mundo", out)
	assert.Equal(t, "Translate: Hello world", gotPrompt)
}

type stubModel struct {
	reply string
	opts  llms.CallOptions
	got   string
}

func (s *stubModel) GenerateContent(ctx context.Context, msgs []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	for _, o := range options {
		o(&s.opts)
	}
	if len(msgs) > 0 && len(msgs[0].Parts) > 0 {
		if tp, ok := msgs[0].Parts[0].(llms.TextContent); ok {
			s.got = tp.Text
		}
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: s.reply}}}, nil
}

func (s *stubModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, s, prompt, options...)
}

func TestLangchainGenerate(t *testing.T) {
	stub := &stubModel{reply: "Bonjour"}
	gen := &langchainGenerator{llm: stub, temperature: 0.2}

	out, err := gen.Generate(context.Background(), "Translate: Hello")
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", out)
	assert.Equal(t, "Translate: Hello", stub.got)
	assert.InDelta(t, 0.2, stub.opts.Temperature, 1e-9)
}
