package accuracy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	cases := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "The quick brown fox", "The quick brown fox", 100},
		{"disjoint", "abc", "xyz", 0},
		{"five of six", "abcdef", "abcdeg", 83.33},
		{"half", "ab", "ac", 50},
		{"cross script", "hello world", "नमस्ते दुनिया", 8.33},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Score(tc.a, tc.b)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestScoreComparesRunesNotBytes(t *testing.T) {
	got, err := Score("தமிழ்", "தமிழ்")
	require.NoError(t, err)
	assert.Equal(t, 100.0, got)

	// One differing rune out of five on each side.
	got, err = Score("தமிழ்", "தமிழா")
	require.NoError(t, err)
	assert.Equal(t, 80.0, got)
}

func TestScoreEmptyInput(t *testing.T) {
	_, err := Score("", "text")
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = Score("text", "")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Translation accuracy: 83.33%", Label(83.33))
	assert.Equal(t, "Translation accuracy: 100.00%", Label(100))
}
