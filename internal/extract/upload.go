package extract

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rotisserie/eris"
)

// StoredFile is an upload saved under its own session directory.
type StoredFile struct {
	TempDir  string
	Path     string
	FileName string
	MIMEType string
	Size     int64
}

func (d StoredFile) Cleanup() {
	if d.TempDir != "" {
		_ = os.RemoveAll(d.TempDir)
	}
}

// SaveBodyToTemp writes an upload to a fresh directory named after the
// session and sniffs its MIME type. The caller owns Cleanup.
func SaveBodyToTemp(body io.Reader, fileName, sessionID string, maxBytes int64) (StoredFile, error) {
	tmpDir, err := os.MkdirTemp("", "doctrans-"+sanitizeID(sessionID)+"-*")
	if err != nil {
		return StoredFile{}, eris.Wrap(err, "temp dir")
	}

	safeName := filepath.Base(strings.TrimSpace(fileName))
	if safeName == "" || safeName == "." || safeName == string(filepath.Separator) {
		safeName = "input.bin"
	}
	outPath := filepath.Join(tmpDir, safeName)

	f, err := os.Create(outPath)
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return StoredFile{}, eris.Wrap(err, "create")
	}
	defer f.Close()

	lr := &io.LimitedReader{R: body, N: maxBytes + 1}
	n, err := io.Copy(f, lr)
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return StoredFile{}, eris.Wrap(err, "write")
	}
	if n > maxBytes {
		_ = os.RemoveAll(tmpDir)
		return StoredFile{}, eris.Wrapf(ErrTooLarge, "file exceeds %dMB limit", maxBytes/(1<<20))
	}
	if n == 0 {
		_ = os.RemoveAll(tmpDir)
		return StoredFile{}, eris.Wrap(ErrNoExtractableText, "empty upload")
	}

	if err := f.Sync(); err != nil {
		_ = os.RemoveAll(tmpDir)
		return StoredFile{}, eris.Wrap(err, "sync")
	}

	return StoredFile{
		TempDir:  tmpDir,
		Path:     outPath,
		FileName: safeName,
		MIMEType: sniffMIMEType(outPath),
		Size:     n,
	}, nil
}

func sanitizeID(id string) string {
	var b strings.Builder
	for _, r := range id {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "session"
	}
	return b.String()
}

func sniffMIMEType(path string) string {
	m, err := mimetype.DetectFile(path)
	if err == nil && m != nil {
		return strings.ToLower(strings.TrimSpace(m.String()))
	}

	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, _ := f.Read(buf)
	if n <= 0 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(http.DetectContentType(buf[:n])))
}
