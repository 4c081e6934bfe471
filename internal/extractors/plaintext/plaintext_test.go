package plaintext

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toricodesthings/doc-translate-service/internal/extract"
)

func write(t *testing.T, name string, content []byte) extract.Job {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, content, 0o600))
	return extract.Job{LocalPath: p, FileName: name}
}

func TestPlainText(t *testing.T) {
	job := write(t, "notes.txt", []byte("\ufeffLine one  \r\nLine two\r\n\r\n\r\n\r\n\r\nEnd\n"))
	res, err := New(1<<20).Extract(context.Background(), job)
	require.NoError(t, err)

	assert.Equal(t, "Line one\nLine two\n\n\nEnd", res.Text)
	assert.Equal(t, "text/plain", res.FileType)
	assert.Equal(t, extract.MethodNative, res.Method)
}

func TestMarkdownDropsFrontMatter(t *testing.T) {
	job := write(t, "post.md", []byte("---\ntitle: Hello\n---\n# Heading\n\nBody"))
	res, err := New(1<<20).Extract(context.Background(), job)
	require.NoError(t, err)

	assert.Equal(t, "# Heading\n\nBody", res.Text)
	assert.Equal(t, "text/markdown", res.FileType)
}

func TestRejectsInvalidUTF8(t *testing.T) {
	job := write(t, "latin1.txt", []byte{'c', 'a', 'f', 0xe9})
	_, err := New(1<<20).Extract(context.Background(), job)
	require.Error(t, err)
	assert.True(t, eris.Is(err, extract.ErrUnsupportedType))
}
