package export

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"
)

const (
	ReviewFileName = "translation_review.xlsx"
	reviewSheet    = "Review"
)

// Review holds what goes into the bilingual workbook.
type Review struct {
	SourceLanguage string
	TargetLanguage string
	Source         string
	Translation    string
	Accuracy       *float64
}

// WriteReview lays source and translated paragraphs side by side, one
// paragraph per row. Paragraphs are split on blank lines; when the counts
// differ the shorter column is left empty.
func WriteReview(r Review) ([]byte, error) {
	if strings.TrimSpace(r.Source) == "" || strings.TrimSpace(r.Translation) == "" {
		return nil, ErrEmptyText
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reviewSheet); err != nil {
		return nil, eris.Wrap(err, "rename sheet")
	}

	header := []any{"#", r.SourceLanguage, r.TargetLanguage}
	if err := f.SetSheetRow(reviewSheet, "A1", &header); err != nil {
		return nil, eris.Wrap(err, "header row")
	}

	src, dst := paragraphs(r.Source), paragraphs(r.Translation)
	rows := max(len(src), len(dst))
	for i := 0; i < rows; i++ {
		row := []any{i + 1, at(src, i), at(dst, i)}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(reviewSheet, cell, &row); err != nil {
			return nil, eris.Wrapf(err, "row %d", i+1)
		}
	}

	if r.Accuracy != nil {
		cell, _ := excelize.CoordinatesToCellName(1, rows+3)
		summary := []any{"Accuracy", fmt.Sprintf("%.2f%%", *r.Accuracy), "character similarity, not translation quality"}
		if err := f.SetSheetRow(reviewSheet, cell, &summary); err != nil {
			return nil, eris.Wrap(err, "summary row")
		}
	}

	if err := f.SetColWidth(reviewSheet, "B", "C", 80); err != nil {
		return nil, eris.Wrap(err, "column width")
	}
	wrap, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		return nil, eris.Wrap(err, "style")
	}
	last, _ := excelize.CoordinatesToCellName(3, rows+1)
	if err := f.SetCellStyle(reviewSheet, "B2", last, wrap); err != nil {
		return nil, eris.Wrap(err, "apply style")
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, eris.Wrap(err, "write workbook")
	}
	return buf.Bytes(), nil
}

func paragraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func at(s []string, i int) string {
	if i < len(s) {
		return s[i]
	}
	return ""
}
