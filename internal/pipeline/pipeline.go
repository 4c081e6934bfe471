// Package pipeline runs the document steps: extract, clean, translate,
// score and export. Each step takes a State and returns a new one.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"github.com/toricodesthings/doc-translate-service/internal/accuracy"
	"github.com/toricodesthings/doc-translate-service/internal/export"
	"github.com/toricodesthings/doc-translate-service/internal/extract"
	"github.com/toricodesthings/doc-translate-service/internal/langdetect"
	"github.com/toricodesthings/doc-translate-service/internal/languages"
	"github.com/toricodesthings/doc-translate-service/internal/poppler"
)

const (
	StageExtract   = "extract"
	StageDetect    = "detect"
	StageClean     = "clean"
	StageTranslate = "translate"
	StageScore     = "accuracy"
	StageExport    = "export"
	StageReview    = "review"
)

// Extractor pulls text out of a stored upload. *extract.Router satisfies it.
type Extractor interface {
	Extract(ctx context.Context, file extract.StoredFile, language string) (extract.Result, error)
}

// TextService talks to the language model. *translate.Service satisfies it.
type TextService interface {
	Clean(ctx context.Context, text string) (string, error)
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// PDFExporter renders translated text. *export.Exporter satisfies it.
type PDFExporter interface {
	Export(ctx context.Context, text, language string) (export.Artifact, error)
}

type Options struct {
	MaxUploadBytes int64
	ExtractTimeout time.Duration
}

type Pipeline struct {
	extractor Extractor
	text      TextService
	exporter  PDFExporter
	languages *languages.Table
	opts      Options
	log       logrus.FieldLogger
}

func New(extractor Extractor, text TextService, exporter PDFExporter, langs *languages.Table, opts Options, log logrus.FieldLogger) *Pipeline {
	if langs == nil {
		langs = languages.Default()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 50 << 20
	}
	return &Pipeline{
		extractor: extractor,
		text:      text,
		exporter:  exporter,
		languages: langs,
		opts:      opts,
		log:       log,
	}
}

func (p *Pipeline) Languages() []languages.Language {
	return p.languages.All()
}

// UploadTypes lists the accepted file extensions, or nil when the extractor
// does not advertise them.
func (p *Pipeline) UploadTypes() []string {
	if l, ok := p.extractor.(interface{ Extensions() []string }); ok {
		return l.Extensions()
	}
	return nil
}

// Extract stores the upload in a session directory, pulls its text out and
// guesses its language. The directory is removed before returning.
func (p *Pipeline) Extract(ctx context.Context, body io.Reader, fileName, sourceLanguage string) (State, error) {
	st := NewState()
	log := p.log.WithFields(logrus.Fields{"session": st.SessionID, "stage": StageExtract})

	lang, err := p.languages.Lookup(sourceLanguage)
	if err != nil {
		return State{}, p.fail(log, StageExtract, KindPrecondition, p.unsupportedLanguage("source"), err)
	}

	if p.opts.ExtractTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.ExtractTimeout)
		defer cancel()
	}

	file, err := extract.SaveBodyToTemp(body, fileName, st.SessionID, p.opts.MaxUploadBytes)
	if err != nil {
		return State{}, p.fail(log, StageExtract, KindExtraction, p.extractionMessage(ctx, err), err)
	}
	defer file.Cleanup()

	res, err := p.extractor.Extract(ctx, file, lang.OCRCode)
	if err != nil {
		return State{}, p.fail(log, StageExtract, KindExtraction, p.extractionMessage(ctx, err), err)
	}

	st.FileName = file.FileName
	st.SourceLanguage = lang.Name
	st.OCRCode = lang.OCRCode
	st.ExtractedText = res.Text
	st.ExtractionMethod = res.Method
	st.Pages = len(res.Pages)
	st.FailedPages = res.FailedPages

	if det, err := langdetect.Detect(res.Text); err != nil {
		log.WithError(err).WithField("kind", KindDetection).Warn("language detection failed")
	} else {
		st.DetectedLanguage = &det
	}

	log.WithFields(logrus.Fields{
		"method": res.Method,
		"pages":  st.Pages,
		"chars":  res.CharCount,
	}).Info("document extracted")
	return st, nil
}

// Clean restructures the extracted text with the language model.
func (p *Pipeline) Clean(ctx context.Context, st State) (State, error) {
	log := p.stageLog(st, StageClean)
	if st.ExtractedText == "" {
		return st, p.fail(log, StageClean, KindPrecondition, msgExtractFirst, nil)
	}

	cleaned, err := p.text.Clean(ctx, st.ExtractedText)
	if err != nil {
		return st, p.fail(log, StageClean, KindExternalService, "Text cleanup failed. Please try again.", err)
	}
	return st.WithCleaned(cleaned), nil
}

// Translate renders the cleaned text into targetLanguage.
func (p *Pipeline) Translate(ctx context.Context, st State, targetLanguage string) (State, error) {
	log := p.stageLog(st, StageTranslate)
	if st.CleanedText == "" {
		return st, p.fail(log, StageTranslate, KindPrecondition, msgCleanFirst, nil)
	}
	target, err := p.languages.Lookup(targetLanguage)
	if err != nil {
		return st, p.fail(log, StageTranslate, KindPrecondition, p.unsupportedLanguage("target"), err)
	}
	source := st.SourceLanguage
	if source == "" {
		source = "source"
	}

	translated, err := p.text.Translate(ctx, st.CleanedText, source, target.Name)
	if err != nil {
		return st, p.fail(log, StageTranslate, KindExternalService, "Translation failed. Please try again.", err)
	}
	return st.WithTranslation(target.Name, translated), nil
}

// Score compares the cleaned source with the translation. The number is
// character similarity, not a judgement of translation quality.
func (p *Pipeline) Score(st State) (State, error) {
	log := p.stageLog(st, StageScore)
	if st.CleanedText == "" || st.TranslatedText == "" {
		return st, p.fail(log, StageScore, KindPrecondition, msgNeedBothTexts, nil)
	}

	score, err := accuracy.Score(st.CleanedText, st.TranslatedText)
	if err != nil {
		return st, p.fail(log, StageScore, KindScoring, "Accuracy could not be computed.", err)
	}
	log.WithField("score", score).Debug("accuracy computed")
	return st.WithAccuracy(score), nil
}

// Export renders the translation to a PDF held in memory.
func (p *Pipeline) Export(ctx context.Context, st State) (export.Artifact, error) {
	log := p.stageLog(st, StageExport)
	if st.TranslatedText == "" {
		return export.Artifact{}, p.fail(log, StageExport, KindPrecondition, msgTranslateFirst, nil)
	}

	art, err := p.exporter.Export(ctx, st.TranslatedText, st.TargetLanguage)
	if err != nil {
		return export.Artifact{}, p.fail(log, StageExport, KindExport, "Failed to export the translated document.", err)
	}
	return art, nil
}

// Review builds the bilingual workbook for st.
func (p *Pipeline) Review(st State) ([]byte, error) {
	log := p.stageLog(st, StageReview)
	if st.CleanedText == "" || st.TranslatedText == "" {
		return nil, p.fail(log, StageReview, KindPrecondition, msgNeedBothTexts, nil)
	}

	data, err := export.WriteReview(export.Review{
		SourceLanguage: st.SourceLanguage,
		TargetLanguage: st.TargetLanguage,
		Source:         st.CleanedText,
		Translation:    st.TranslatedText,
		Accuracy:       st.Accuracy,
	})
	if err != nil {
		return nil, p.fail(log, StageReview, KindExport, "Failed to build the review workbook.", err)
	}
	return data, nil
}

func (p *Pipeline) stageLog(st State, stage string) logrus.FieldLogger {
	return p.log.WithFields(logrus.Fields{"session": st.SessionID, "stage": stage})
}

func (p *Pipeline) fail(log logrus.FieldLogger, stage string, kind FailureKind, msg string, err error) *StageError {
	entry := log.WithField("kind", kind)
	if err != nil {
		entry = entry.WithError(err)
	}
	if kind == KindPrecondition {
		entry.Info(msg)
	} else {
		entry.Error(msg)
	}
	return &StageError{Stage: stage, Kind: kind, Message: msg, Err: err}
}

func (p *Pipeline) unsupportedLanguage(role string) string {
	return fmt.Sprintf("Unsupported %s language. Choose one of: %s.", role, strings.Join(p.languages.Names(), ", "))
}

func (p *Pipeline) extractionMessage(ctx context.Context, err error) string {
	switch {
	case ctx.Err() != nil:
		return "Text extraction timed out."
	case eris.Is(err, extract.ErrUnsupportedType):
		if types := p.UploadTypes(); len(types) > 0 {
			return "Unsupported file type. Please upload one of: " + strings.Join(types, ", ") + "."
		}
		return "Unsupported file type. Please upload a PDF, DOCX, image or text file."
	case eris.Is(err, extract.ErrTooLarge):
		return "The file is too large."
	case eris.Is(err, poppler.ErrPasswordProtected):
		return "The PDF is password protected."
	case eris.Is(err, poppler.ErrDamaged):
		return "The PDF appears to be damaged."
	case eris.Is(err, extract.ErrNoExtractableText):
		return "No text could be extracted from the document."
	default:
		return "Text extraction failed."
	}
}
