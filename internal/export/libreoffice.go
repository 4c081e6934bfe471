package export

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// LibreOffice converts the DOCX with a headless soffice process.
type LibreOffice struct {
	binary  string
	timeout time.Duration
}

func NewLibreOffice(binary string, timeout time.Duration) *LibreOffice {
	if strings.TrimSpace(binary) == "" {
		binary = "soffice"
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &LibreOffice{binary: binary, timeout: timeout}
}

func (r *LibreOffice) Name() string { return "libreoffice" }

func (r *LibreOffice) Render(ctx context.Context, doc Document) (string, error) {
	localCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// A private profile lets several conversions run at once.
	profile := filepath.Join(doc.OutDir, "lo-profile")
	cmd := exec.CommandContext(localCtx, r.binary,
		"-env:UserInstallation=file://"+filepath.ToSlash(profile),
		"--headless", "--convert-to", "pdf", "--outdir", doc.OutDir, doc.DOCXPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		if localCtx.Err() != nil {
			return "", eris.Wrap(localCtx.Err(), "libreoffice conversion timed out")
		}
		return "", eris.Wrapf(err, "libreoffice conversion failed: %s", strings.TrimSpace(string(out)))
	}

	pdfPath := filepath.Join(doc.OutDir, strings.TrimSuffix(filepath.Base(doc.DOCXPath), filepath.Ext(doc.DOCXPath))+".pdf")
	if _, err := os.Stat(pdfPath); err != nil {
		return "", eris.Wrap(err, "libreoffice produced no pdf")
	}
	return pdfPath, nil
}
