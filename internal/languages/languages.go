// Package languages holds the fixed table of supported languages and the
// OCR codes used to recognise them.
package languages

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

var ErrUnknownLanguage = eris.New("unsupported language")

type Language struct {
	Name    string `json:"name" yaml:"name"`
	OCRCode string `json:"ocrCode" yaml:"ocr_code"`
}

// Table is an ordered name to OCR code mapping. Order is presentation order.
type Table struct {
	langs  []Language
	byName map[string]int
}

var defaultLanguages = []Language{
	{Name: "English", OCRCode: "eng"},
	{Name: "Hindi", OCRCode: "hin"},
	{Name: "Telugu", OCRCode: "tel"},
	{Name: "Tamil", OCRCode: "tam"},
	{Name: "Malayalam", OCRCode: "mal"},
	{Name: "Kannada", OCRCode: "kan"},
	{Name: "Marathi", OCRCode: "mar"},
	{Name: "Russian", OCRCode: "rus"},
	{Name: "German", OCRCode: "deu"},
	{Name: "French", OCRCode: "fra"},
	{Name: "Spanish", OCRCode: "spa"},
}

func Default() *Table {
	t, err := New(defaultLanguages)
	if err != nil {
		panic(err)
	}
	return t
}

func New(langs []Language) (*Table, error) {
	if len(langs) == 0 {
		return nil, eris.New("language table is empty")
	}
	t := &Table{
		langs:  make([]Language, 0, len(langs)),
		byName: make(map[string]int, len(langs)),
	}
	for _, l := range langs {
		l.Name = strings.TrimSpace(l.Name)
		l.OCRCode = strings.TrimSpace(l.OCRCode)
		if l.Name == "" || l.OCRCode == "" {
			return nil, eris.Errorf("language entry %q has an empty name or code", l.Name)
		}
		key := strings.ToLower(l.Name)
		if _, dup := t.byName[key]; dup {
			return nil, eris.Errorf("duplicate language %q", l.Name)
		}
		t.byName[key] = len(t.langs)
		t.langs = append(t.langs, l)
	}
	return t, nil
}

type fileFormat struct {
	Languages []Language `yaml:"languages"`
}

// Load reads a YAML table of the form:
//
//	languages:
//	  - name: English
//	    ocr_code: eng
//
// An empty path returns the built-in table.
func Load(path string) (*Table, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read languages file %s", path)
	}
	var ff fileFormat
	if err := yaml.Unmarshal(b, &ff); err != nil {
		return nil, eris.Wrapf(err, "parse languages file %s", path)
	}
	return New(ff.Languages)
}

// Lookup matches names case-insensitively.
func (t *Table) Lookup(name string) (Language, error) {
	idx, ok := t.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Language{}, eris.Wrapf(ErrUnknownLanguage, "%q", name)
	}
	return t.langs[idx], nil
}

func (t *Table) All() []Language {
	out := make([]Language, len(t.langs))
	copy(out, t.langs)
	return out
}

func (t *Table) Names() []string {
	out := make([]string, len(t.langs))
	for i, l := range t.langs {
		out[i] = l.Name
	}
	return out
}
