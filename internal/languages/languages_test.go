package languages

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOrderAndCodes(t *testing.T) {
	tbl := Default()

	assert.Equal(t, []string{
		"English", "Hindi", "Telugu", "Tamil", "Malayalam", "Kannada",
		"Marathi", "Russian", "German", "French", "Spanish",
	}, tbl.Names())

	tamil, err := tbl.Lookup("tamil")
	require.NoError(t, err)
	assert.Equal(t, "tam", tamil.OCRCode)

	english, err := tbl.Lookup(" English ")
	require.NoError(t, err)
	assert.Equal(t, "eng", english.OCRCode)
}

func TestLookupUnknown(t *testing.T) {
	_, err := Default().Lookup("Klingon")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnknownLanguage))
}

func TestNewRejectsBadTables(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New([]Language{{Name: "English", OCRCode: "eng"}, {Name: "english", OCRCode: "eng"}})
	assert.Error(t, err)

	_, err = New([]Language{{Name: "Greek", OCRCode: ""}})
	assert.Error(t, err)
}

func TestAllReturnsCopy(t *testing.T) {
	tbl := Default()
	all := tbl.All()
	all[0].Name = "Changed"
	assert.Equal(t, "English", tbl.Names()[0])
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "languages.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`languages:
  - name: Bengali
    ocr_code: ben
  - name: English
    ocr_code: eng
`), 0o600))

	tbl, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bengali", "English"}, tbl.Names())

	l, err := tbl.Lookup("Bengali")
	require.NoError(t, err)
	assert.Equal(t, "ben", l.OCRCode)
}

func TestLoadEmptyPathUsesDefault(t *testing.T) {
	tbl, err := Load("")
	require.NoError(t, err)
	assert.Len(t, tbl.All(), 11)
}
