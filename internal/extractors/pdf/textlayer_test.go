package pdf

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toricodesthings/doc-translate-service/internal/extract"
	"github.com/toricodesthings/doc-translate-service/internal/poppler"
	"github.com/toricodesthings/doc-translate-service/internal/testpdf"
)

func TestTextLayerReadsEmbeddedText(t *testing.T) {
	path := testpdf.Write(t, "report.pdf", "Quarterly results", "Revenue grew")

	res, err := NewTextLayer(poppler.Config{}, quietLogger()).Extract(context.Background(), extract.Job{LocalPath: path})
	require.NoError(t, err)

	assert.Equal(t, "Quarterly results\nRevenue grew", res.Text)
	assert.Equal(t, extract.MethodTextLayer, res.Method)
	require.Len(t, res.Pages, 2)
	assert.Equal(t, 2, res.Pages[1].PageNumber)
}

func TestTextLayerSkipsPagesWithoutContent(t *testing.T) {
	path := testpdf.Write(t, "mixed.pdf", "", "Only page two")

	res, err := NewTextLayer(poppler.Config{}, quietLogger()).Extract(context.Background(), extract.Job{LocalPath: path})
	require.NoError(t, err)
	assert.Equal(t, "Only page two", res.Text)
}

func TestTextLayerScannedDocumentIsEmptyNotError(t *testing.T) {
	path := testpdf.Write(t, "scan.pdf", "", "")

	res, err := NewTextLayer(poppler.Config{}, quietLogger()).Extract(context.Background(), extract.Job{LocalPath: path})
	require.NoError(t, err)
	assert.Empty(t, res.Text)
}

func TestTextLayerUnreadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.pdf")
	require.NoError(t, os.WriteFile(path, []byte("this is not a pdf"), 0o600))

	_, err := NewTextLayer(poppler.Config{}, quietLogger()).Extract(context.Background(), extract.Job{LocalPath: path})
	assert.Error(t, err)
}
