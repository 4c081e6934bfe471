// Package accuracy scores how closely two texts resemble each other.
//
// The score is structural character similarity, NOT translation quality.
// A faithful translation into another script shares almost no characters
// with its source and scores near zero; an untranslated echo scores 100.
// Callers must present the number as informational only.
package accuracy

import (
	"fmt"
	"math"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/rotisserie/eris"
)

var ErrEmptyInput = eris.New("both texts must be non-empty to compute a score")

// Score returns the difflib sequence-matcher ratio 2*M/T between a and b,
// compared rune by rune, as a percentage rounded to two decimals.
// It is symmetric for identical or disjoint inputs but, like difflib, may
// differ slightly when the argument order is swapped on partial matches.
func Score(a, b string) (float64, error) {
	if a == "" || b == "" {
		return 0, ErrEmptyInput
	}
	m := difflib.NewMatcher(runes(a), runes(b))
	return round2(m.Ratio() * 100), nil
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Label renders a score the way it is shown to users.
func Label(score float64) string {
	return fmt.Sprintf("Translation accuracy: %.2f%%", score)
}
