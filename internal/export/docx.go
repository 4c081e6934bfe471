package export

import (
	"archive/zip"
	"encoding/xml"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

// WriteDOCX stores text as a word-processing document holding a single
// paragraph. Line breaks become <w:br/> inside that paragraph.
func WriteDOCX(path, text string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "create docx")
	}

	zw := zip.NewWriter(f)
	parts := []struct{ name, body string }{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", relsXML},
		{"word/document.xml", documentXML(text)},
	}
	for _, p := range parts {
		w, err := zw.Create(p.name)
		if err != nil {
			_ = f.Close()
			return eris.Wrapf(err, "docx part %s", p.name)
		}
		if _, err := w.Write([]byte(p.body)); err != nil {
			_ = f.Close()
			return eris.Wrapf(err, "docx part %s", p.name)
		}
	}
	if err := zw.Close(); err != nil {
		_ = f.Close()
		return eris.Wrap(err, "finish docx")
	}
	return eris.Wrap(f.Close(), "close docx")
}

func documentXML(text string) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	sb.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p>`)

	text = strings.ReplaceAll(text, "\r\n", "\n")
	for i, line := range strings.Split(text, "\n") {
		sb.WriteString("<w:r>")
		if i > 0 {
			sb.WriteString("<w:br/>")
		}
		if line != "" {
			sb.WriteString(`<w:t xml:space="preserve">`)
			_ = xml.EscapeText(&sb, []byte(line))
			sb.WriteString("</w:t>")
		}
		sb.WriteString("</w:r>")
	}

	sb.WriteString(`</w:p><w:sectPr><w:pgSz w:w="11906" w:h="16838"/>`)
	sb.WriteString(`<w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440"/></w:sectPr>`)
	sb.WriteString(`</w:body></w:document>`)
	return sb.String()
}
