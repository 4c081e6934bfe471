// Package docx extracts the body text of Word documents. There is no OCR
// fallback: a DOCX without text is a failed extraction.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/toricodesthings/doc-translate-service/internal/extract"
)

// maxDocumentXML caps word/document.xml after decompression.
const maxDocumentXML = 64 << 20

type Extractor struct {
	maxBytes int64
}

func New(maxBytes int64) *Extractor {
	return &Extractor{maxBytes: maxBytes}
}

func (e *Extractor) Name() string       { return "document/docx" }
func (e *Extractor) MaxFileSize() int64 { return e.maxBytes }
func (e *Extractor) SupportedTypes() []string {
	return []string{"application/vnd.openxmlformats-officedocument.wordprocessingml.document"}
}
func (e *Extractor) SupportedExtensions() []string { return []string{".docx"} }

func (e *Extractor) Extract(ctx context.Context, job extract.Job) (extract.Result, error) {
	if err := ctx.Err(); err != nil {
		return extract.Result{}, err
	}

	zr, err := zip.OpenReader(job.LocalPath)
	if err != nil {
		return extract.Result{FileType: e.Name()}, eris.Wrap(err, "open docx")
	}
	defer zr.Close()

	body, err := readZipFile(&zr.Reader, "word/document.xml", maxDocumentXML)
	if err != nil {
		return extract.Result{FileType: e.Name()}, err
	}

	text := strings.TrimSpace(toText(body))
	return extract.Result{
		Text:     text,
		Method:   extract.MethodNative,
		FileType: e.Name(),
		MIMEType: job.MIMEType,
		Pages:    []extract.PageResult{{PageNumber: 1, Text: text, Method: extract.MethodNative}},
	}, nil
}

// toText walks <w:body> producing markdown-flavoured plain text: headings
// keep a # prefix, list items a dash, tables become pipe rows.
func toText(b []byte) string {
	w := &walker{dec: xml.NewDecoder(bytes.NewReader(b))}

	var blocks []string
	for {
		tok, err := w.dec.Token()
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		var block string
		switch se.Name.Local {
		case "p":
			block = w.paragraph()
		case "tbl":
			block = w.table()
		}
		if block = strings.TrimRight(block, " \n"); strings.TrimSpace(block) != "" {
			blocks = append(blocks, block)
		}
	}
	return strings.Join(blocks, "\n\n")
}

type walker struct {
	dec *xml.Decoder
}

// each consumes tokens until the element opened before the call closes,
// invoking fn for every nested start element. fn reports whether it read
// the element through its own end tag.
func (w *walker) each(fn func(se xml.StartElement) bool) {
	depth := 1
	for depth > 0 {
		tok, err := w.dec.Token()
		if err != nil {
			return
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if !fn(t) {
				depth++
			}
		case xml.EndElement:
			depth--
		}
	}
}

func (w *walker) paragraph() string {
	var style, numID, level string
	var runs strings.Builder

	w.each(func(se xml.StartElement) bool {
		switch se.Name.Local {
		case "pStyle":
			style = attr(se, "val")
		case "numId":
			numID = attr(se, "val")
		case "ilvl":
			level = attr(se, "val")
		case "t":
			runs.WriteString(w.charData())
			return true
		case "tab":
			runs.WriteByte('\t')
		case "br", "cr":
			runs.WriteByte('\n')
		}
		return false
	})

	text := strings.TrimSpace(runs.String())
	if text == "" {
		return ""
	}
	if h := headingLevel(style); h > 0 {
		return strings.Repeat("#", h) + " " + text
	}
	if numID != "" && numID != "0" {
		lvl, _ := strconv.Atoi(level)
		return strings.Repeat("  ", lvl) + "- " + text
	}
	return text
}

func (w *walker) table() string {
	var rows [][]string
	w.each(func(se xml.StartElement) bool {
		if se.Name.Local != "tr" {
			return false
		}
		rows = append(rows, w.row())
		return true
	})
	if len(rows) == 0 {
		return ""
	}

	cols := 0
	for _, r := range rows {
		if len(r) > cols {
			cols = len(r)
		}
	}
	var sb strings.Builder
	for i, r := range rows {
		for len(r) < cols {
			r = append(r, "")
		}
		sb.WriteString("| " + strings.Join(r, " | ") + " |\n")
		if i == 0 {
			sb.WriteString("|" + strings.Repeat(" --- |", cols) + "\n")
		}
	}
	return sb.String()
}

func (w *walker) row() []string {
	var cells []string
	w.each(func(se xml.StartElement) bool {
		if se.Name.Local != "tc" {
			return false
		}
		cells = append(cells, w.cell())
		return true
	})
	return cells
}

func (w *walker) cell() string {
	var parts []string
	w.each(func(se xml.StartElement) bool {
		if se.Name.Local != "t" {
			return false
		}
		parts = append(parts, w.charData())
		return true
	})
	return strings.TrimSpace(strings.Join(parts, " "))
}

// charData reads the text of a <w:t> element through its end tag.
func (w *walker) charData() string {
	var sb strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := w.dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.CharData:
			if depth == 1 {
				sb.Write(t)
			}
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return sb.String()
}

func attr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// headingLevel maps OOXML paragraph styles to markdown heading levels.
func headingLevel(style string) int {
	s := strings.ToLower(style)
	switch s {
	case "title":
		return 1
	case "subtitle":
		return 2
	}
	if n := strings.TrimPrefix(s, "heading"); n != s && len(n) == 1 && n[0] >= '1' && n[0] <= '6' {
		return int(n[0] - '0')
	}
	return 0
}

func readZipFile(zr *zip.Reader, name string, limit int64) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, eris.Wrapf(err, "open %s", name)
		}
		defer rc.Close()

		b, err := io.ReadAll(io.LimitReader(rc, limit+1))
		if err != nil {
			return nil, eris.Wrapf(err, "read %s", name)
		}
		if int64(len(b)) > limit {
			return nil, eris.Errorf("%s exceeds %d bytes", name, limit)
		}
		return b, nil
	}
	return nil, eris.Errorf("missing %s", name)
}
