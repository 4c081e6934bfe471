// Package langdetect guesses the language of extracted text. Results are
// advisory; callers never block on a failed detection.
package langdetect

import (
	"strings"
	"unicode"

	"github.com/abadojack/whatlanggo"
	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

var ErrUndetermined = eris.New("language could not be determined")

// minLetters is the least amount of letters worth classifying.
const minLetters = 10

type Detection struct {
	Code       string  `json:"code"` // ISO-639-1
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Reliable   bool    `json:"reliable"`
}

func Detect(text string) (Detection, error) {
	if countLetters(text) < minLetters {
		return Detection{}, eris.Wrap(ErrUndetermined, "not enough text")
	}

	info := whatlanggo.Detect(text)
	if info.Lang < 0 {
		return Detection{}, eris.Wrap(ErrUndetermined, "unrecognised script")
	}
	code := info.Lang.Iso6391()
	if code == "" {
		return Detection{}, eris.Wrapf(ErrUndetermined, "no ISO-639-1 code for %s", info.Lang.String())
	}

	tag, err := language.Parse(code)
	if err != nil {
		return Detection{}, eris.Wrapf(ErrUndetermined, "invalid code %q", code)
	}
	name := display.English.Languages().Name(tag)
	if name == "" {
		name = info.Lang.String()
	}

	return Detection{
		Code:       tag.String(),
		Name:       name,
		Confidence: info.Confidence,
		Reliable:   info.IsReliable(),
	}, nil
}

func countLetters(s string) int {
	n := 0
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsLetter(r) || unicode.Is(unicode.Mn, r) {
			n++
		}
	}
	return n
}
