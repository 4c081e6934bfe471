package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

type Config struct {
	// Server
	Port string

	// Secrets
	InternalSharedSecret string
	MistralAPIKey        string
	LLMAPIKey            string

	// Logging
	LogLevel  string
	LogFormat string

	// Limits
	MaxJSONBodyBytes int64
	MaxUploadBytes   int64

	// Concurrency
	MaxConcurrentRequests int64
	MaxOCRConcurrent      int64
	MaxPageWorkers        int // per-document OCR page workers

	// Server timeouts
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration

	// Step timeouts
	ExtractTimeout  time.Duration
	GenerateTimeout time.Duration
	ExportTimeout   time.Duration

	// Poppler
	PDFInfoTimeout   time.Duration
	PDFToTextTimeout time.Duration
	PDFToPPMTimeout  time.Duration
	RasterDPI        int

	// rate limiting (per IP)
	RateLimitEvery time.Duration
	RateLimitBurst int

	// housekeeping
	CleanupInterval time.Duration

	// health
	HealthDegradeRatio float64

	// http
	MaxHeaderBytes int

	// Languages
	LanguagesFile string

	// OCR
	OCREngine          string // tesseract | mistral
	OCRPreprocess      bool
	OCRSkipFailedPages bool
	MistralOCRURL      string
	MistralOCRModel    string
	MistralOCRTimeout  time.Duration

	// Generative model
	LLMProvider    string // gemini | openai | ollama | mistral | anthropic
	LLMModel       string
	LLMBaseURL     string
	LLMTemperature float64
	LLMStripMarkup bool

	// Export
	ExportRenderer     string // libreoffice | gopdf
	ExportFileName     string
	ExportFontPath     string
	LibreOfficeTimeout time.Duration
	LibreOfficeBinary  string
}

func Load() Config {
	return Config{
		Port: envStr("PORT", "8080"),

		InternalSharedSecret: envStr("INTERNAL_SHARED_SECRET", ""),
		MistralAPIKey:        envStr("MISTRAL_API_KEY", ""),
		LLMAPIKey:            envStr("LLM_API_KEY", ""),

		LogLevel:  envStr("LOG_LEVEL", "info"),
		LogFormat: envStr("LOG_FORMAT", "text"),

		MaxJSONBodyBytes: int64(envInt("MAX_JSON_BODY_BYTES", 8<<20)),
		MaxUploadBytes:   int64(envInt("MAX_UPLOAD_BYTES", int(100<<20))),

		MaxConcurrentRequests: int64(envInt("MAX_CONCURRENT_REQUESTS", 10)),
		MaxOCRConcurrent:      int64(envInt("MAX_OCR_CONCURRENT", 2)),
		MaxPageWorkers:        envInt("MAX_PAGE_WORKERS", 1),

		ReadHeaderTimeout: envDur("READ_HEADER_TIMEOUT", 10*time.Second),
		ReadTimeout:       envDur("READ_TIMEOUT", 60*time.Second),
		WriteTimeout:      envDur("WRITE_TIMEOUT", 300*time.Second),
		IdleTimeout:       envDur("IDLE_TIMEOUT", 60*time.Second),

		ExtractTimeout:  envDur("EXTRACT_TIMEOUT", 240*time.Second),
		GenerateTimeout: envDur("GENERATE_TIMEOUT", 120*time.Second),
		ExportTimeout:   envDur("EXPORT_TIMEOUT", 90*time.Second),

		PDFInfoTimeout:   envDur("PDFINFO_TIMEOUT", 5*time.Second),
		PDFToTextTimeout: envDur("PDFTOTEXT_TIMEOUT", 30*time.Second),
		PDFToPPMTimeout:  envDur("PDFTOPPM_TIMEOUT", 30*time.Second),
		RasterDPI:        envInt("RASTER_DPI", 300),

		RateLimitEvery: envDur("RATE_LIMIT_EVERY", 600*time.Millisecond),
		RateLimitBurst: envInt("RATE_LIMIT_BURST", 20),

		CleanupInterval: envDur("CLEANUP_INTERVAL", 5*time.Minute),

		HealthDegradeRatio: envFloat("HEALTH_DEGRADE_RATIO", 0.9),

		MaxHeaderBytes: envInt("MAX_HEADER_BYTES", 1<<20),

		LanguagesFile: envStr("LANGUAGES_FILE", ""),

		OCREngine:          strings.ToLower(envStr("OCR_ENGINE", "tesseract")),
		OCRPreprocess:      envBool("OCR_PREPROCESS", false),
		OCRSkipFailedPages: envBool("OCR_SKIP_FAILED_PAGES", false),
		MistralOCRURL:      envStr("MISTRAL_OCR_URL", "https://api.mistral.ai/v1/ocr"),
		MistralOCRModel:    envStr("MISTRAL_OCR_MODEL", "mistral-ocr-latest"),
		MistralOCRTimeout:  envDur("MISTRAL_OCR_TIMEOUT", 60*time.Second),

		LLMProvider:    strings.ToLower(envStr("LLM_PROVIDER", "gemini")),
		LLMModel:       envStr("LLM_MODEL", "gemini-1.5-flash"),
		LLMBaseURL:     envStr("LLM_BASE_URL", ""),
		LLMTemperature: envFloat("LLM_TEMPERATURE", 0.2),
		LLMStripMarkup: envBool("LLM_STRIP_MARKUP", false),

		ExportRenderer:     strings.ToLower(envStr("EXPORT_RENDERER", "libreoffice")),
		ExportFileName:     envStr("EXPORT_FILE_NAME", "translated_doc.pdf"),
		ExportFontPath:     envStr("EXPORT_FONT_PATH", ""),
		LibreOfficeTimeout: envDur("LIBREOFFICE_TIMEOUT", 60*time.Second),
		LibreOfficeBinary:  envStr("LIBREOFFICE_BINARY", "soffice"),
	}
}

// Validate checks the settings shared by every entry point.
func (c Config) Validate() error {
	switch c.OCREngine {
	case "tesseract":
	case "mistral":
		if c.MistralAPIKey == "" {
			return eris.New("MISTRAL_API_KEY is required when OCR_ENGINE=mistral")
		}
	default:
		return eris.Errorf("unknown OCR_ENGINE %q", c.OCREngine)
	}

	switch c.LLMProvider {
	case "gemini", "mistral", "anthropic":
		if c.LLMAPIKey == "" {
			return eris.Errorf("LLM_API_KEY is required for LLM_PROVIDER=%s", c.LLMProvider)
		}
	case "openai", "ollama":
	default:
		return eris.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}

	switch c.ExportRenderer {
	case "libreoffice":
	case "gopdf":
		if c.ExportFontPath == "" {
			return eris.New("EXPORT_FONT_PATH is required when EXPORT_RENDERER=gopdf")
		}
	default:
		return eris.Errorf("unknown EXPORT_RENDERER %q", c.ExportRenderer)
	}
	return nil
}

// ValidateServer adds the checks that only apply to the HTTP service.
func (c Config) ValidateServer() error {
	if len(strings.TrimSpace(c.InternalSharedSecret)) < 32 {
		return eris.New("INTERNAL_SHARED_SECRET must be at least 32 characters")
	}
	return c.Validate()
}

func envStr(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return fallback
	}
	return f
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envDur(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
