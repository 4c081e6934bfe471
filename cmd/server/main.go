package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/toricodesthings/doc-translate-service/internal/app"
	"github.com/toricodesthings/doc-translate-service/internal/config"
	"github.com/toricodesthings/doc-translate-service/internal/logging"
	"github.com/toricodesthings/doc-translate-service/internal/pipeline"
)

var (
	cfg config.Config
	log logrus.FieldLogger = logging.Discard()

	requestSem *semaphore.Weighted
	pipe       *pipeline.Pipeline

	// Per-IP rate limiters, emptied in place by cleanupRateLimiters.
	limiters sync.Map

	metrics = &serverMetrics{extractions: map[string]int64{}}
)

type serverMetrics struct {
	mu            sync.RWMutex
	totalRequests int64
	activeReqs    int64

	extractions   map[string]int64 // by file type
	extractMillis int64
}

func (m *serverMetrics) incActive() {
	m.mu.Lock()
	m.activeReqs++
	m.totalRequests++
	m.mu.Unlock()
}
func (m *serverMetrics) decActive() {
	m.mu.Lock()
	m.activeReqs--
	m.mu.Unlock()
}
func (m *serverMetrics) get() (total, active int64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalRequests, m.activeReqs
}

func (m *serverMetrics) recordExtraction(fileType string, _ int64, d time.Duration) {
	m.mu.Lock()
	m.extractions[fileType]++
	m.extractMillis += d.Milliseconds()
	m.mu.Unlock()
}

func (m *serverMetrics) extractionStats() (map[string]int64, int64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int64, len(m.extractions))
	var n int64
	for k, v := range m.extractions {
		out[k] = v
		n += v
	}
	if n == 0 {
		return out, 0
	}
	return out, m.extractMillis / n
}

func main() {
	cfg = config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	log = logger
	if err := cfg.ValidateServer(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	requestSem = semaphore.NewWeighted(cfg.MaxConcurrentRequests)

	a, err := app.Build(context.Background(), cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("startup failed")
	}
	a.Router.SetSuccessHook(metrics.recordExtraction)
	pipe = a.Pipeline

	maxHeaderBytes := 1 << 20
	if cfg.MaxHeaderBytes > 0 {
		maxHeaderBytes = cfg.MaxHeaderBytes
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           withLogging(withRecovery(newMux())),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    maxHeaderBytes,
	}

	go cleanupRateLimiters()

	logger.WithFields(logrus.Fields{
		"addr":            srv.Addr,
		"max_concurrent":  cfg.MaxConcurrentRequests,
		"ocr_concurrent":  cfg.MaxOCRConcurrent,
		"ocr_engine":      cfg.OCREngine,
		"llm_provider":    cfg.LLMProvider,
		"export_renderer": cfg.ExportRenderer,
	}).Info("doctrans listening")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("server stopped")
	}
}

func newMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/metrics", withInternalAuth(handleMetrics))
	mux.HandleFunc("/languages", withInternalAuth(withMethod("GET", handleLanguages)))

	mux.HandleFunc("/extract", step(handleExtract))
	mux.HandleFunc("/clean", step(handleClean))
	mux.HandleFunc("/translate", step(handleTranslate))
	mux.HandleFunc("/accuracy", step(handleAccuracy))
	mux.HandleFunc("/export", step(handleExport))
	mux.HandleFunc("/export/review", step(handleExportReview))
	return mux
}

// step wraps a POST pipeline endpoint in the shared middleware chain.
func step(h http.HandlerFunc) http.HandlerFunc {
	return withInternalAuth(
		withRateLimit(
			withMethod("POST",
				withConcurrencyLimit(h))))
}

func cleanupRateLimiters() {
	interval := cfg.CleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		total, active := metrics.get()
		log.WithFields(logrus.Fields{
			"active":     active,
			"total":      total,
			"goroutines": runtime.NumGoroutine(),
			"mem_mb":     m.Alloc / (1 << 20),
		}).Info("stats")

		resetRateLimiters()
	}
}

// resetRateLimiters forgets every per-IP limiter.
func resetRateLimiters() {
	limiters.Range(func(key, _ any) bool {
		limiters.Delete(key)
		return true
	})
}

// ---------- Middleware ----------

func withMethod(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			writeErr(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method must be "+method)
			return
		}
		next(w, r)
	}
}

func withInternalAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shared := cfg.InternalSharedSecret
		got := r.Header.Get("X-Internal-Auth")
		if shared == "" || subtle.ConstantTimeCompare([]byte(got), []byte(shared)) != 1 {
			writeErr(w, http.StatusUnauthorized, "unauthorized", "Invalid authentication")
			return
		}
		next(w, r)
	}
}

func withConcurrencyLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := requestSem.Acquire(r.Context(), 1); err != nil {
			writeErr(w, http.StatusServiceUnavailable, "capacity", "Service at capacity")
			return
		}
		defer requestSem.Release(1)

		metrics.incActive()
		defer metrics.decActive()

		next(w, r)
	}
}

func withRateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := getClientIP(r)
		limiter := getRateLimiter(ip)

		if !limiter.Allow() {
			w.Header().Set("Retry-After", "60")
			writeErr(w, http.StatusTooManyRequests, "rate_limit", "Rate limit exceeded")
			return
		}
		next(w, r)
	}
}

func withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.WithFields(logrus.Fields{
					"panic": fmt.Sprint(err),
					"path":  sanitizeLogString(r.URL.Path),
				}).Error("handler panicked")
				writeErr(w, http.StatusInternalServerError, "internal_error", "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &wrapWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(ww, r)

		log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     sanitizeLogString(r.URL.Path),
			"status":   ww.status,
			"duration": time.Since(start).Round(time.Millisecond).String(),
		}).Info("request")
	})
}

type wrapWriter struct {
	http.ResponseWriter
	status int
}

func (w *wrapWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// ---------- Helpers ----------

func getRateLimiter(ip string) *rate.Limiter {
	if v, ok := limiters.Load(ip); ok {
		return v.(*rate.Limiter)
	}

	every := cfg.RateLimitEvery
	if every <= 0 {
		every = 600 * time.Millisecond // ~100/min
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = 20
	}

	limiter := rate.NewLimiter(rate.Every(every), burst)
	actual, _ := limiters.LoadOrStore(ip, limiter)
	return actual.(*rate.Limiter)
}

func getClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		if idx := strings.Index(ip, ","); idx > 0 {
			return strings.TrimSpace(ip[:idx])
		}
		return strings.TrimSpace(ip)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return strings.TrimSpace(ip)
	}

	host, _, _ := net.SplitHostPort(r.RemoteAddr)
	return host
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	msg = strings.ReplaceAll(msg, os.TempDir(), "[tmp]")
	if len(msg) > 300 {
		msg = msg[:300] + "..."
	}
	return msg
}

func sanitizeLogString(s string) string {
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, "\r", "")
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

func parseJSON[T any](r *http.Request, limit int64) (T, error) {
	var out T
	dec := json.NewDecoder(io.LimitReader(r.Body, limit))
	dec.DisallowUnknownFields()

	if err := dec.Decode(&out); err != nil {
		return out, err
	}

	// Ensure there's nothing else after the first JSON value
	if err := dec.Decode(new(any)); err != io.EOF {
		if err == nil {
			return out, fmt.Errorf("unexpected trailing data")
		}
		return out, err
	}

	return out, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   message,
		"code":    code,
	})
}

// writeStageErr reports a pipeline failure. st, when set, is the last good
// state so the client can retry the failed step.
func writeStageErr(w http.ResponseWriter, err error, st *pipeline.State) {
	se, ok := pipeline.AsStageError(err)
	if !ok {
		writeErr(w, http.StatusInternalServerError, "internal_error", sanitizeError(err))
		return
	}
	body := map[string]any{
		"success": false,
		"error":   se.Message,
		"code":    string(se.Kind),
		"stage":   se.Stage,
	}
	if st != nil {
		body["state"] = st
	}
	writeJSON(w, se.Kind.HTTPStatus(), body)
}
