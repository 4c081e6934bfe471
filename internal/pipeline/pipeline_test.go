package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toricodesthings/doc-translate-service/internal/export"
	"github.com/toricodesthings/doc-translate-service/internal/extract"
	"github.com/toricodesthings/doc-translate-service/internal/extractors/docx"
	"github.com/toricodesthings/doc-translate-service/internal/extractors/pdf"
	"github.com/toricodesthings/doc-translate-service/internal/languages"
	"github.com/toricodesthings/doc-translate-service/internal/poppler"
	"github.com/toricodesthings/doc-translate-service/internal/testpdf"
)

// events records the order in which collaborators were called.
type events struct {
	mu  sync.Mutex
	log []string
}

func (e *events) add(s string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.log = append(e.log, s)
}

type fakeRaster struct{ pages int }

func (f fakeRaster) PageCount(ctx context.Context, pdfPath string) (int, error) {
	return f.pages, nil
}

func (f fakeRaster) RenderPage(ctx context.Context, pdfPath string, page int, outDir string) (string, error) {
	p := filepath.Join(outDir, fmt.Sprintf("page-%d.png", page))
	return p, os.WriteFile(p, []byte(strconv.Itoa(page)), 0o600)
}

type fakeEngine struct {
	ev    *events
	pages map[string]string
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Recognize(ctx context.Context, png []byte, lang string) (string, error) {
	f.ev.add("ocr:" + lang)
	return f.pages[string(png)], nil
}

type stubText struct {
	ev         *events
	cleaned    string
	translated string
	err        error
	gotSource  string
	gotTarget  string
	gotClean   string
}

func (s *stubText) Clean(ctx context.Context, text string) (string, error) {
	s.ev.add("clean")
	s.gotClean = text
	return s.cleaned, s.err
}

func (s *stubText) Translate(ctx context.Context, text, source, target string) (string, error) {
	s.ev.add("translate")
	s.gotSource, s.gotTarget = source, target
	return s.translated, s.err
}

type stubExporter struct {
	art export.Artifact
	err error
}

func (s *stubExporter) Export(ctx context.Context, text, language string) (export.Artifact, error) {
	return s.art, s.err
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func newTestPipeline(ev *events, ocrPages map[string]string, text TextService, exp PDFExporter) *Pipeline {
	log := quietLogger()
	chain := pdf.NewChain(log,
		pdf.NewTextLayer(poppler.Config{}, log),
		pdf.NewOCR(&fakeEngine{ev: ev, pages: ocrPages}, fakeRaster{pages: len(ocrPages)}, pdf.OCRConfig{Workers: 2}, log),
	)
	reg := extract.NewRegistry()
	reg.Register(pdf.New(chain, 10<<20))
	reg.Register(docx.New(10 << 20))
	router := extract.NewRouter(reg, log)
	return New(router, text, exp, languages.Default(), Options{MaxUploadBytes: 10 << 20}, log)
}

func TestEnglishToSpanish(t *testing.T) {
	ev := &events{}
	text := &stubText{
		ev:         ev,
		cleaned:    "Annual Report\n\nRevenue grew by ten percent this year across every region.",
		translated: "Informe anual\n\nLos ingresos crecieron un diez por ciento este año en todas las regiones.",
	}
	p := newTestPipeline(ev, map[string]string{"1": "should not be used"}, text, &stubExporter{})

	doc := testpdf.Build(
		"The annual report shows that revenue grew by ten percent this year",
		"across every region where the company operates",
	)
	st, err := p.Extract(context.Background(), bytes.NewReader(doc), "report.pdf", "English")
	require.NoError(t, err)

	assert.NotEmpty(t, st.SessionID)
	assert.Equal(t, "The annual report shows that revenue grew by ten percent this year\nacross every region where the company operates", st.ExtractedText)
	assert.Equal(t, extract.MethodTextLayer, st.ExtractionMethod)
	assert.Equal(t, "eng", st.OCRCode)
	assert.Equal(t, 2, st.Pages)
	require.NotNil(t, st.DetectedLanguage)
	assert.Equal(t, "en", st.DetectedLanguage.Code)

	st, err = p.Clean(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, st.ExtractedText, text.gotClean)

	st, err = p.Translate(context.Background(), st, "spanish")
	require.NoError(t, err)
	assert.Equal(t, "English", text.gotSource)
	assert.Equal(t, "Spanish", text.gotTarget)
	assert.Equal(t, text.translated, st.TranslatedText)

	st, err = p.Score(st)
	require.NoError(t, err)
	require.NotNil(t, st.Accuracy)
	assert.InDelta(t, 38.51, *st.Accuracy, 0.001)

	assert.Equal(t, []string{"clean", "translate"}, ev.log)
}

func TestTamilScanRunsOCRBeforeModel(t *testing.T) {
	ev := &events{}
	text := &stubText{ev: ev, cleaned: "cleaned", translated: "translated"}
	p := newTestPipeline(ev, map[string]string{
		"1": "வணக்கம் உலகம்",
		"2": "இது ஒரு சோதனை ஆவணம்",
	}, text, &stubExporter{})

	st, err := p.Extract(context.Background(), bytes.NewReader(testpdf.Build("", "")), "scan.pdf", "Tamil")
	require.NoError(t, err)
	assert.Equal(t, extract.MethodOCR, st.ExtractionMethod)
	assert.Equal(t, "tam", st.OCRCode)
	assert.Equal(t, "வணக்கம் உலகம்\nஇது ஒரு சோதனை ஆவணம்", st.ExtractedText)

	st, err = p.Clean(context.Background(), st)
	require.NoError(t, err)
	_, err = p.Translate(context.Background(), st, "English")
	require.NoError(t, err)

	assert.Equal(t, []string{"ocr:tam", "ocr:tam", "clean", "translate"}, ev.log)
}

func TestBlankDocumentFails(t *testing.T) {
	ev := &events{}
	p := newTestPipeline(ev, map[string]string{"1": "  "}, &stubText{ev: ev}, &stubExporter{})

	_, err := p.Extract(context.Background(), bytes.NewReader(testpdf.Build("")), "blank.pdf", "English")
	require.Error(t, err)

	se, ok := AsStageError(err)
	require.True(t, ok)
	assert.Equal(t, KindExtraction, se.Kind)
	assert.Equal(t, http.StatusUnprocessableEntity, se.Kind.HTTPStatus())
}

func TestExtractRejectsUnknownInputs(t *testing.T) {
	ev := &events{}
	p := newTestPipeline(ev, nil, &stubText{ev: ev}, &stubExporter{})

	_, err := p.Extract(context.Background(), bytes.NewReader([]byte("x")), "a.pdf", "Klingon")
	assertStage(t, err, KindPrecondition, "Unsupported source language. Choose one of: "+
		"English, Hindi, Telugu, Tamil, Malayalam, Kannada, Marathi, Russian, German, French, Spanish.")

	_, err = p.Extract(context.Background(), bytes.NewReader([]byte("just some words")), "notes.xyz", "English")
	se, ok := AsStageError(err)
	require.True(t, ok)
	assert.Equal(t, KindExtraction, se.Kind)
	assert.Equal(t, "Unsupported file type. Please upload one of: .docx, .pdf.", se.Message)
	assert.Equal(t, []string{".docx", ".pdf"}, p.UploadTypes())
}

func TestPreconditions(t *testing.T) {
	ev := &events{}
	p := newTestPipeline(ev, nil, &stubText{ev: ev, cleaned: "c", translated: "t"}, &stubExporter{})
	st := NewState()

	_, err := p.Clean(context.Background(), st)
	assertStage(t, err, KindPrecondition, msgExtractFirst)

	st.ExtractedText = "raw"
	_, err = p.Translate(context.Background(), st, "Spanish")
	assertStage(t, err, KindPrecondition, msgCleanFirst)

	_, err = p.Score(st)
	assertStage(t, err, KindPrecondition, msgNeedBothTexts)

	_, err = p.Export(context.Background(), st)
	assertStage(t, err, KindPrecondition, msgTranslateFirst)

	_, err = p.Review(st)
	assertStage(t, err, KindPrecondition, msgNeedBothTexts)

	st.CleanedText = "clean"
	_, err = p.Translate(context.Background(), st, "Klingon")
	assertStage(t, err, KindPrecondition, p.unsupportedLanguage("target"))

	assert.Empty(t, ev.log)
}

func assertStage(t *testing.T, err error, kind FailureKind, msg string) {
	t.Helper()
	se, ok := AsStageError(err)
	require.True(t, ok, "expected StageError, got %v", err)
	assert.Equal(t, kind, se.Kind)
	assert.Equal(t, msg, se.Message)
}

func TestModelFailureLeavesStateUnchanged(t *testing.T) {
	ev := &events{}
	p := newTestPipeline(ev, nil, &stubText{ev: ev, err: errors.New("quota exceeded")}, &stubExporter{})
	st := NewState()
	st.ExtractedText = "raw"
	st.CleanedText = "clean"
	st.SourceLanguage = "English"

	out, err := p.Translate(context.Background(), st, "French")
	se, ok := AsStageError(err)
	require.True(t, ok)
	assert.Equal(t, KindExternalService, se.Kind)
	assert.Equal(t, http.StatusBadGateway, se.Kind.HTTPStatus())
	assert.Empty(t, out.TranslatedText)
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestExportAndReview(t *testing.T) {
	ev := &events{}
	exp := &stubExporter{art: export.Artifact{FileName: export.DefaultFileName, Data: []byte("%PDF"), Pages: 1}}
	p := newTestPipeline(ev, nil, &stubText{ev: ev}, exp)

	st := NewState().WithCleaned("Hello world").WithTranslation("Spanish", "Hola mundo")
	art, err := p.Export(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, "translated_doc.pdf", art.FileName)

	xlsx, err := p.Review(st)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(xlsx, []byte("PK")))

	exp.err = errors.New("soffice missing")
	_, err = p.Export(context.Background(), st)
	assertStage(t, err, KindExport, "Failed to export the translated document.")
}

func TestStateIsCopiedNotShared(t *testing.T) {
	base := NewState()
	base.FailedPages = []int{2}

	scored := base.WithCleaned("a").WithTranslation("Hindi", "b").WithAccuracy(12.5)
	scored.FailedPages[0] = 9

	assert.Equal(t, []int{2}, base.FailedPages)
	assert.Nil(t, base.Accuracy)
	assert.Empty(t, base.CleanedText)

	recleaned := scored.WithCleaned("new")
	assert.Empty(t, recleaned.TranslatedText)
	assert.Nil(t, recleaned.Accuracy)
	assert.Equal(t, "Hindi", recleaned.TargetLanguage)
	assert.Equal(t, 12.5, *scored.Accuracy)
	assert.Equal(t, base.SessionID, recleaned.SessionID)
}
