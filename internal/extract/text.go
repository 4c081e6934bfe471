package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	// ZWJ and ZWNJ are left alone: Indic scripts depend on them.
	invisibleChars    = regexp.MustCompile("[\u200B\uFEFF\u00AD\u2060\f]")
	excessiveNewlines = regexp.MustCompile(`\n{4,}`)
	trailingSpaces    = regexp.MustCompile(`(?m)[ \t]+$`)
)

// CleanOCRText tidies raw recogniser output: NFC composition, line endings,
// invisible characters and runs of blank lines.
func CleanOCRText(text string) string {
	if text == "" {
		return ""
	}

	text = norm.NFC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = invisibleChars.ReplaceAllString(text, "")
	text = trailingSpaces.ReplaceAllString(text, "")
	text = excessiveNewlines.ReplaceAllString(text, "\n\n\n")

	return strings.TrimSpace(text)
}

// JoinPages concatenates page texts in order and trims the result. Page
// text is kept as the parser produced it; a newline is added only where two
// pages would otherwise run together. Empty pages contribute nothing.
func JoinPages(pages []PageResult) string {
	var b strings.Builder
	for _, p := range pages {
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		if b.Len() > 0 && !endsWithSpace(b.String()) && !startsWithSpace(p.Text) {
			b.WriteByte('\n')
		}
		b.WriteString(p.Text)
	}
	return strings.TrimSpace(b.String())
}

func startsWithSpace(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsSpace(r)
}

func endsWithSpace(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return unicode.IsSpace(r)
}
