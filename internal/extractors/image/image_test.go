package image

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toricodesthings/doc-translate-service/internal/extract"
)

type fakeEngine struct {
	text    string
	err     error
	gotLang string
	gotPNG  []byte
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Recognize(ctx context.Context, png []byte, lang string) (string, error) {
	f.gotLang, f.gotPNG = lang, png
	return f.text, f.err
}

func writeJPEG(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 20, 10))
	for x := 0; x < 20; x++ {
		for y := 0; y < 10; y++ {
			img.Set(x, y, color.White)
		}
	}
	p := filepath.Join(t.TempDir(), "scan.jpg")
	f, err := os.Create(p)
	require.NoError(t, err)
	require.NoError(t, jpeg.Encode(f, img, nil))
	require.NoError(t, f.Close())
	return p
}

func TestExtractRunsOCRWithLanguage(t *testing.T) {
	eng := &fakeEngine{text: "नमस्ते दुनिया  \r\n\u200b"}
	res, err := New(eng, 1<<20).Extract(context.Background(), extract.Job{LocalPath: writeJPEG(t), Language: "hin"})
	require.NoError(t, err)

	assert.Equal(t, "नमस्ते दुनिया", res.Text)
	assert.Equal(t, extract.MethodOCR, res.Method)
	assert.Equal(t, "hin", eng.gotLang)
	assert.Equal(t, []byte("\x89PNG"), eng.gotPNG[:4])
	require.Len(t, res.Pages, 1)
}

func TestExtractRejectsNonImages(t *testing.T) {
	p := filepath.Join(t.TempDir(), "fake.png")
	require.NoError(t, os.WriteFile(p, []byte("not an image"), 0o600))

	eng := &fakeEngine{}
	_, err := New(eng, 1<<20).Extract(context.Background(), extract.Job{LocalPath: p})
	assert.Error(t, err)
	assert.Nil(t, eng.gotPNG)
}

func TestExtractPropagatesEngineErrors(t *testing.T) {
	eng := &fakeEngine{err: errors.New("tesseract missing tam.traineddata")}
	_, err := New(eng, 1<<20).Extract(context.Background(), extract.Job{LocalPath: writeJPEG(t), Language: "tam"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tam.traineddata")
}
