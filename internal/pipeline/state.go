package pipeline

import (
	"slices"

	"github.com/google/uuid"

	"github.com/toricodesthings/doc-translate-service/internal/langdetect"
)

// State is everything one document session has produced so far. It is a
// plain value: every step takes a State and returns a new one, so clients
// can carry it between calls and nothing is shared between sessions.
type State struct {
	SessionID        string                `json:"sessionId"`
	FileName         string                `json:"fileName,omitempty"`
	SourceLanguage   string                `json:"sourceLanguage,omitempty"`
	OCRCode          string                `json:"ocrCode,omitempty"`
	ExtractedText    string                `json:"extractedText,omitempty"`
	ExtractionMethod string                `json:"extractionMethod,omitempty"`
	Pages            int                   `json:"pages,omitempty"`
	FailedPages      []int                 `json:"failedPages,omitempty"`
	DetectedLanguage *langdetect.Detection `json:"detectedLanguage,omitempty"`
	CleanedText      string                `json:"cleanedText,omitempty"`
	TargetLanguage   string                `json:"targetLanguage,omitempty"`
	TranslatedText   string                `json:"translatedText,omitempty"`
	Accuracy         *float64              `json:"accuracy,omitempty"`
}

func NewState() State {
	return State{SessionID: uuid.NewString()}
}

// clone copies the slice and pointer fields so the result shares nothing
// with s.
func (s State) clone() State {
	out := s
	out.FailedPages = slices.Clone(s.FailedPages)
	if s.DetectedLanguage != nil {
		d := *s.DetectedLanguage
		out.DetectedLanguage = &d
	}
	if s.Accuracy != nil {
		a := *s.Accuracy
		out.Accuracy = &a
	}
	return out
}

// WithCleaned replaces the cleaned text. The translation and score derived
// from the previous cleaned text are dropped.
func (s State) WithCleaned(text string) State {
	out := s.clone()
	out.CleanedText = text
	out.TranslatedText = ""
	out.Accuracy = nil
	return out
}

// WithTranslation replaces the translation and drops the stale score.
func (s State) WithTranslation(target, text string) State {
	out := s.clone()
	out.TargetLanguage = target
	out.TranslatedText = text
	out.Accuracy = nil
	return out
}

func (s State) WithAccuracy(score float64) State {
	out := s.clone()
	out.Accuracy = &score
	return out
}
