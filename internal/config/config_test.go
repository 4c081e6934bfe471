package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "tesseract", cfg.OCREngine)
	assert.Equal(t, "gemini", cfg.LLMProvider)
	assert.Equal(t, "libreoffice", cfg.ExportRenderer)
	assert.Equal(t, "translated_doc.pdf", cfg.ExportFileName)
	assert.Equal(t, 1, cfg.MaxPageWorkers)
	assert.False(t, cfg.LLMStripMarkup)
	assert.False(t, cfg.OCRSkipFailedPages)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("OCR_ENGINE", "Mistral")
	t.Setenv("OCR_SKIP_FAILED_PAGES", "true")
	t.Setenv("EXTRACT_TIMEOUT", "15s")
	t.Setenv("MAX_PAGE_WORKERS", "-3")
	t.Setenv("LLM_TEMPERATURE", "0")

	cfg := Load()

	assert.Equal(t, "mistral", cfg.OCREngine)
	assert.True(t, cfg.OCRSkipFailedPages)
	assert.Equal(t, 15*time.Second, cfg.ExtractTimeout)
	assert.Equal(t, 1, cfg.MaxPageWorkers, "non-positive worker counts fall back")
	assert.Zero(t, cfg.LLMTemperature)
}

func TestValidate(t *testing.T) {
	base := Config{
		OCREngine:      "tesseract",
		LLMProvider:    "gemini",
		LLMAPIKey:      "key",
		ExportRenderer: "libreoffice",
	}
	require.NoError(t, base.Validate())

	cases := map[string]func(c *Config){
		"unknown engine":      func(c *Config) { c.OCREngine = "abbyy" },
		"mistral without key": func(c *Config) { c.OCREngine = "mistral" },
		"gemini without key":  func(c *Config) { c.LLMAPIKey = "" },
		"unknown provider":    func(c *Config) { c.LLMProvider = "bard" },
		"gopdf without font":  func(c *Config) { c.ExportRenderer = "gopdf" },
		"unknown renderer":    func(c *Config) { c.ExportRenderer = "pandoc" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := base
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestValidateServerRequiresSecret(t *testing.T) {
	c := Config{
		OCREngine:      "tesseract",
		LLMProvider:    "ollama",
		ExportRenderer: "libreoffice",
	}
	c.InternalSharedSecret = "short"
	assert.Error(t, c.ValidateServer())

	c.InternalSharedSecret = strings.Repeat("s", 32)
	assert.NoError(t, c.ValidateServer())
}
