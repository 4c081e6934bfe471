package export

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/signintech/gopdf"
)

const (
	fontName   = "body"
	fontSize   = 11
	lineHeight = 16.0
	pageMargin = 56.0
)

// GoPDF lays the text out on A4 pages with one TTF font. It does no
// complex-script shaping, so Indic output reads best through LibreOffice.
type GoPDF struct {
	fontPath string
}

func NewGoPDF(fontPath string) *GoPDF {
	return &GoPDF{fontPath: fontPath}
}

func (r *GoPDF) Name() string { return "gopdf" }

func (r *GoPDF) Render(ctx context.Context, doc Document) (string, error) {
	if r.fontPath == "" {
		return "", eris.New("gopdf renderer needs a TTF font path")
	}

	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	if err := pdf.AddTTFFont(fontName, r.fontPath); err != nil {
		return "", eris.Wrapf(err, "load font %s", r.fontPath)
	}
	if err := pdf.SetFont(fontName, "", fontSize); err != nil {
		return "", eris.Wrap(err, "set font")
	}

	pageW, pageH := gopdf.PageSizeA4.W, gopdf.PageSizeA4.H
	width := pageW - 2*pageMargin

	pdf.AddPage()
	y := pageMargin
	advance := func() {
		y += lineHeight
		if y > pageH-pageMargin-lineHeight {
			pdf.AddPage()
			y = pageMargin
		}
	}

	for _, para := range strings.Split(strings.ReplaceAll(doc.Text, "\r\n", "\n"), "\n") {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if strings.TrimSpace(para) == "" {
			advance()
			continue
		}
		lines, err := pdf.SplitText(para, width)
		if err != nil {
			return "", eris.Wrap(err, "wrap text")
		}
		for _, line := range lines {
			pdf.SetXY(pageMargin, y)
			if err := pdf.Cell(nil, line); err != nil {
				return "", eris.Wrap(err, "write text")
			}
			advance()
		}
	}

	out := filepath.Join(doc.OutDir, "document.pdf")
	if err := pdf.WritePdf(out); err != nil {
		return "", eris.Wrap(err, "write pdf")
	}
	return out, nil
}
