package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

type OCRPage struct {
	Index    int    `json:"index"`
	Markdown string `json:"markdown"`
}

type OCRResponse struct {
	Pages     []OCRPage `json:"pages"`
	Model     string    `json:"model"`
	UsageInfo UsageInfo `json:"usage_info"`
}

type UsageInfo struct {
	PagesProcessed int  `json:"pages_processed"`
	DocSizeBytes   *int `json:"doc_size_bytes"`
}

type mistralErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

const (
	DefaultMistralURL   = "https://api.mistral.ai/v1/ocr"
	DefaultMistralModel = "mistral-ocr-latest"
	maxRetries          = 2
)

// MistralEngine sends page images to the Mistral OCR API. The API detects
// the language itself, so the lang hint is only logged by callers.
type MistralEngine struct {
	apiKey     string
	model      string
	endpoint   string
	client     *http.Client
	retryDelay time.Duration
}

func NewMistral(apiKey, model, endpoint string, timeout time.Duration) *MistralEngine {
	if model == "" {
		model = DefaultMistralModel
	}
	if endpoint == "" {
		endpoint = DefaultMistralURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &MistralEngine{
		apiKey:   apiKey,
		model:    model,
		endpoint: endpoint,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		retryDelay: 2 * time.Second,
	}
}

func (m *MistralEngine) Name() string { return "mistral" }

func (m *MistralEngine) Recognize(ctx context.Context, png []byte, lang string) (string, error) {
	if m.apiKey == "" {
		return "", eris.New("MISTRAL_API_KEY not configured")
	}
	if len(png) == 0 {
		return "", eris.New("empty page image")
	}

	body := map[string]any{
		"model": m.model,
		"document": map[string]any{
			"type":      "image_url",
			"image_url": "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
		},
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return "", eris.Wrap(err, "marshal")
	}

	return WithConcurrencyLimit(ctx, func() (string, error) {
		var lastErr error
		for attempt := 0; attempt <= maxRetries; attempt++ {
			if attempt > 0 {
				select {
				case <-ctx.Done():
					return "", ctx.Err()
				case <-time.After(m.retryDelay * time.Duration(attempt)):
				}
			}

			result, err := m.execute(ctx, bodyBytes)
			if err == nil {
				return combinePages(result), nil
			}
			lastErr = err

			// Don't retry client errors (4xx)
			if isClientError(err) {
				break
			}
		}
		return "", eris.Wrapf(lastErr, "image OCR failed after %d attempts", maxRetries+1)
	})
}

func (m *MistralEngine) execute(ctx context.Context, bodyBytes []byte) (OCRResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return OCRResponse{}, eris.Wrap(err, "create request")
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "doctrans/1.0")

	resp, err := m.client.Do(req)
	if err != nil {
		return OCRResponse{}, eris.Wrap(err, "request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return OCRResponse{}, parseErrorResponse(resp)
	}

	// Parse response (limit to 100MB)
	var result OCRResponse
	decoder := json.NewDecoder(io.LimitReader(resp.Body, 100<<20))
	if err := decoder.Decode(&result); err != nil {
		return OCRResponse{}, eris.Wrap(err, "decode")
	}

	if len(result.Pages) == 0 {
		return OCRResponse{}, eris.New("OCR returned no pages")
	}
	for i, page := range result.Pages {
		if page.Index < 0 {
			return OCRResponse{}, eris.Errorf("invalid page index at %d: %d", i, page.Index)
		}
		if len(page.Markdown) > 10<<20 {
			return OCRResponse{}, eris.Errorf("page %d markdown too large: %dMB", page.Index, len(page.Markdown)/(1<<20))
		}
	}
	return result, nil
}

// combinePages joins the returned markdown in page index order.
func combinePages(resp OCRResponse) string {
	pages := append([]OCRPage(nil), resp.Pages...)
	sort.SliceStable(pages, func(i, j int) bool { return pages[i].Index < pages[j].Index })

	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		md := strings.TrimSpace(p.Markdown)
		if md == "" || md == "." {
			continue
		}
		parts = append(parts, md)
	}
	return strings.Join(parts, "\n\n")
}

func parseErrorResponse(resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var errResp mistralErrorResponse
	if json.Unmarshal(bodyBytes, &errResp) == nil && errResp.Error.Message != "" {
		return &OCRError{
			StatusCode: resp.StatusCode,
			Message:    errResp.Error.Message,
			Type:       errResp.Error.Type,
		}
	}

	return &OCRError{
		StatusCode: resp.StatusCode,
		Message:    string(bodyBytes),
		Type:       "unknown",
	}
}

type OCRError struct {
	StatusCode int
	Message    string
	Type       string
}

func (e *OCRError) Error() string {
	return fmt.Sprintf("mistral OCR %d (%s): %s", e.StatusCode, e.Type, e.Message)
}

func isClientError(err error) bool {
	var ocrErr *OCRError
	if errors.As(err, &ocrErr) {
		return ocrErr.StatusCode >= 400 && ocrErr.StatusCode < 500
	}
	return false
}
