package pipeline

import (
	"errors"
	"fmt"
	"net/http"
)

type FailureKind string

const (
	KindExtraction      FailureKind = "extraction_failure"
	KindDetection       FailureKind = "detection_failure"
	KindExternalService FailureKind = "external_service_failure"
	KindExport          FailureKind = "export_failure"
	KindPrecondition    FailureKind = "precondition_failed"
	KindScoring         FailureKind = "scoring_failure"
)

// HTTPStatus maps a failure kind to the response status the server uses.
func (k FailureKind) HTTPStatus() int {
	switch k {
	case KindExtraction, KindScoring:
		return http.StatusUnprocessableEntity
	case KindExternalService:
		return http.StatusBadGateway
	case KindPrecondition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

const (
	msgCleanFirst     = "Please clean and structure the text first."
	msgTranslateFirst = "Please translate the text first."
	msgNeedBothTexts  = "Please ensure both input and translated text are available."
	msgExtractFirst   = "Please upload a document and extract its text first."
)

// StageError is the only error a pipeline step returns. Message is safe to
// show to users; Err keeps the cause for logs.
type StageError struct {
	Stage   string
	Kind    FailureKind
	Message string
	Err     error
}

func (e *StageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Message, e.Err)
	}
	return e.Stage + ": " + e.Message
}

func (e *StageError) Unwrap() error { return e.Err }

// AsStageError finds a StageError in err's chain.
func AsStageError(err error) (*StageError, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
