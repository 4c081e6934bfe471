package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toricodesthings/doc-translate-service/internal/extract"
	"github.com/toricodesthings/doc-translate-service/internal/poppler"
	"github.com/toricodesthings/doc-translate-service/internal/testpdf"
)

// fakeRaster writes the page number into each "image" file.
type fakeRaster struct {
	pages int
}

func (f fakeRaster) PageCount(ctx context.Context, pdfPath string) (int, error) {
	return f.pages, nil
}

func (f fakeRaster) RenderPage(ctx context.Context, pdfPath string, page int, outDir string) (string, error) {
	p := filepath.Join(outDir, fmt.Sprintf("page-%d.png", page))
	return p, os.WriteFile(p, []byte(strconv.Itoa(page)), 0o600)
}

type fakeEngine struct {
	mu      sync.Mutex
	langs   []string
	failOn  map[string]bool
	reverse bool // later pages finish first
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Recognize(ctx context.Context, png []byte, lang string) (string, error) {
	f.mu.Lock()
	f.langs = append(f.langs, lang)
	f.mu.Unlock()

	page := string(png)
	if f.reverse {
		n, _ := strconv.Atoi(page)
		time.Sleep(time.Duration(10-n) * 3 * time.Millisecond)
	}
	if f.failOn[page] {
		return "", eris.Errorf("engine choked on page %s", page)
	}
	return "page " + page + " \r\n", nil
}

func TestOCRConcatenatesInPageOrder(t *testing.T) {
	eng := &fakeEngine{reverse: true}
	strategy := NewOCR(eng, fakeRaster{pages: 5}, OCRConfig{Workers: 5}, quietLogger())

	res, err := strategy.Extract(context.Background(), extract.Job{WorkDir: t.TempDir(), Language: "tam"})
	require.NoError(t, err)

	assert.Equal(t, "page 1\npage 2\npage 3\npage 4\npage 5", res.Text)
	assert.Equal(t, extract.MethodOCR, res.Method)
	assert.Len(t, eng.langs, 5)
	for _, l := range eng.langs {
		assert.Equal(t, "tam", l)
	}
}

func TestOCRPageFailureFailsStrategyByDefault(t *testing.T) {
	eng := &fakeEngine{failOn: map[string]bool{"2": true}}
	strategy := NewOCR(eng, fakeRaster{pages: 3}, OCRConfig{}, quietLogger())

	_, err := strategy.Extract(context.Background(), extract.Job{WorkDir: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ocr page 2")
}

func TestOCRSkipsFailedPagesWhenConfigured(t *testing.T) {
	eng := &fakeEngine{failOn: map[string]bool{"2": true}}
	strategy := NewOCR(eng, fakeRaster{pages: 3}, OCRConfig{SkipFailedPages: true}, quietLogger())

	res, err := strategy.Extract(context.Background(), extract.Job{WorkDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "page 1\npage 3", res.Text)
	assert.Equal(t, []int{2}, res.FailedPages)
}

func TestOCRAllPagesFailing(t *testing.T) {
	eng := &fakeEngine{failOn: map[string]bool{"1": true, "2": true}}
	strategy := NewOCR(eng, fakeRaster{pages: 2}, OCRConfig{SkipFailedPages: true}, quietLogger())

	_, err := strategy.Extract(context.Background(), extract.Job{WorkDir: t.TempDir()})
	assert.Error(t, err)
}

func TestOCRZeroPages(t *testing.T) {
	strategy := NewOCR(&fakeEngine{}, fakeRaster{pages: 0}, OCRConfig{}, quietLogger())

	res, err := strategy.Extract(context.Background(), extract.Job{WorkDir: t.TempDir()})
	require.NoError(t, err)
	assert.Empty(t, res.Text)
}

func TestOCRRemovesScratchImages(t *testing.T) {
	work := t.TempDir()
	strategy := NewOCR(&fakeEngine{}, fakeRaster{pages: 2}, OCRConfig{}, quietLogger())

	_, err := strategy.Extract(context.Background(), extract.Job{WorkDir: work})
	require.NoError(t, err)

	entries, err := os.ReadDir(work)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestScannedPDFFallsBackToOCRWithLanguage(t *testing.T) {
	path := testpdf.Write(t, "scan.pdf", "", "")
	eng := &fakeEngine{}
	chain := NewChain(quietLogger(),
		NewTextLayer(poppler.Config{}, quietLogger()),
		NewOCR(eng, fakeRaster{pages: 2}, OCRConfig{}, quietLogger()),
	)

	res, err := New(chain, 0).Extract(context.Background(), extract.Job{LocalPath: path, WorkDir: t.TempDir(), Language: "tam"})
	require.NoError(t, err)

	assert.Equal(t, extract.MethodOCR, res.Method)
	assert.Equal(t, "document/pdf", res.FileType)
	assert.True(t, strings.HasPrefix(res.Text, "page 1"))
	assert.Equal(t, []string{"tam", "tam"}, eng.langs)
}

func TestDigitalPDFNeverInvokesOCR(t *testing.T) {
	path := testpdf.Write(t, "digital.pdf", "Hello World")
	eng := &fakeEngine{}
	chain := NewChain(quietLogger(),
		NewTextLayer(poppler.Config{}, quietLogger()),
		NewOCR(eng, fakeRaster{pages: 1}, OCRConfig{}, quietLogger()),
	)

	res, err := chain.Extract(context.Background(), extract.Job{LocalPath: path, WorkDir: t.TempDir(), Language: "eng"})
	require.NoError(t, err)
	assert.Equal(t, "Hello World", res.Text)
	assert.Empty(t, eng.langs)
}
