package main

import (
	"errors"
	"mime/multipart"
	"net/http"
	"runtime"
	"strconv"
	"strings"

	"github.com/toricodesthings/doc-translate-service/internal/accuracy"
	"github.com/toricodesthings/doc-translate-service/internal/export"
	"github.com/toricodesthings/doc-translate-service/internal/pipeline"
)

type stepRequest struct {
	State          pipeline.State `json:"state"`
	TargetLanguage string         `json:"targetLanguage,omitempty"`
}

type stateResponse struct {
	Success       bool           `json:"success"`
	State         pipeline.State `json:"state"`
	AccuracyLabel string         `json:"accuracyLabel,omitempty"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	_, active := metrics.get()
	status := "healthy"
	code := http.StatusOK

	ratio := cfg.HealthDegradeRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 0.9
	}

	if active >= int64(float64(cfg.MaxConcurrentRequests)*ratio) {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"status":  status,
		"active":  active,
		"version": "1.0.0",
	})
}

func handleMetrics(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	total, active := metrics.get()
	byType, avgMillis := metrics.extractionStats()

	writeJSON(w, http.StatusOK, map[string]any{
		"activeRequests":      active,
		"totalRequests":       total,
		"extractions":         byType,
		"avgExtractionMillis": avgMillis,
		"goroutines":          runtime.NumGoroutine(),
		"memAllocMB":          m.Alloc / (1 << 20),
		"memSysMB":            m.Sys / (1 << 20),
	})
}

func handleLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"languages":   pipe.Languages(),
		"uploadTypes": pipe.UploadTypes(),
	})
}

// handleExtract takes a multipart upload with "file" and "sourceLanguage".
// The text is cleaned straight away unless clean=false.
func handleExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || errors.Is(err, multipart.ErrMessageTooLarge) {
			writeErr(w, http.StatusRequestEntityTooLarge, "too_large", "The file is too large.")
			return
		}
		writeErr(w, http.StatusBadRequest, "bad_request", "Expected a multipart form with a file")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	source := strings.TrimSpace(r.FormValue("sourceLanguage"))
	if source == "" {
		writeErr(w, http.StatusBadRequest, "validation_failed", "sourceLanguage required")
		return
	}
	clean := true
	if v := strings.TrimSpace(r.FormValue("clean")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeErr(w, http.StatusBadRequest, "validation_failed", "clean must be true or false")
			return
		}
		clean = b
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "validation_failed", "file required")
		return
	}
	defer file.Close()

	st, err := pipe.Extract(r.Context(), file, header.Filename, source)
	if err != nil {
		writeStageErr(w, err, nil)
		return
	}

	if clean {
		cleaned, err := pipe.Clean(r.Context(), st)
		if err != nil {
			writeStageErr(w, err, &st)
			return
		}
		st = cleaned
	}
	writeJSON(w, http.StatusOK, stateResponse{Success: true, State: st})
}

func handleClean(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeStep(w, r)
	if !ok {
		return
	}
	st, err := pipe.Clean(r.Context(), req.State)
	if err != nil {
		writeStageErr(w, err, &req.State)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse{Success: true, State: st})
}

func handleTranslate(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeStep(w, r)
	if !ok {
		return
	}
	if strings.TrimSpace(req.TargetLanguage) == "" {
		writeErr(w, http.StatusBadRequest, "validation_failed", "targetLanguage required")
		return
	}
	st, err := pipe.Translate(r.Context(), req.State, req.TargetLanguage)
	if err != nil {
		writeStageErr(w, err, &req.State)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse{Success: true, State: st})
}

func handleAccuracy(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeStep(w, r)
	if !ok {
		return
	}
	st, err := pipe.Score(req.State)
	if err != nil {
		writeStageErr(w, err, &req.State)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse{Success: true, State: st, AccuracyLabel: accuracy.Label(*st.Accuracy)})
}

func handleExport(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeStep(w, r)
	if !ok {
		return
	}
	art, err := pipe.Export(r.Context(), req.State)
	if err != nil {
		writeStageErr(w, err, nil)
		return
	}
	writeAttachment(w, "application/pdf", art.FileName, art.Data)
}

func handleExportReview(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeStep(w, r)
	if !ok {
		return
	}
	data, err := pipe.Review(req.State)
	if err != nil {
		writeStageErr(w, err, nil)
		return
	}
	writeAttachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", export.ReviewFileName, data)
}

func decodeStep(w http.ResponseWriter, r *http.Request) (stepRequest, bool) {
	req, err := parseJSON[stepRequest](r, cfg.MaxJSONBodyBytes)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "bad_request", sanitizeError(err))
		return stepRequest{}, false
	}
	return req, true
}

func writeAttachment(w http.ResponseWriter, contentType, name string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
