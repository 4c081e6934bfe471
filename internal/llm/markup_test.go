package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainTextMarkdown(t *testing.T) {
	in := "# Annual Report\n\n" +
		"Revenue grew **ten** percent. See [the site](https://example.com).\n\n" +
		"- first\n- second\n\n" +
		"1. one\n2. two\n\n" +
		"![logo](logo.png)\n\n" +
		"<div>raw <b>html</b></div>\n"

	want := "Annual Report\n\n" +
		"Revenue grew **ten** percent. See the site.\n\n" +
		"- first\n- second\n\n" +
		"1. one\n2. two\n\n" +
		"raw html"
	assert.Equal(t, want, PlainText(in))
}

func TestPlainTextKeepsParagraphs(t *testing.T) {
	in := "Line one\nLine two\n\nFish & Chips"
	assert.Equal(t, "Line one\nLine two\n\nFish & Chips", PlainText(in))
}

func TestPlainTextNestedAndNumberedLists(t *testing.T) {
	in := "3. third\n4. fourth\n\n- parent\n  - child\n"
	assert.Equal(t, "3. third\n4. fourth\n\n- parent\n  - child", PlainText(in))
}

func TestPlainTextTable(t *testing.T) {
	in := "| Name | Qty |\n| --- | --- |\n| Rice | 2 |\n"
	assert.Equal(t, "Name | Qty\nRice | 2", PlainText(in))
}

func TestPlainTextDropsScripts(t *testing.T) {
	in := "<script>alert(1)</script>\n\nनमस्ते दुनिया"
	assert.Equal(t, "नमस्ते दुनिया", PlainText(in))
}

func TestPlainTextKeepsLiteralTagsAndAsterisks(t *testing.T) {
	cases := []string{
		"Use the <Ctrl> key with snake_case_name and 2*3*4",
		"x <y> z",
		"Press <Ctrl>\n\nthen *save*",
		"a ~~b~~ c and <https://example.com>",
	}
	for _, in := range cases {
		assert.Equal(t, in, PlainText(in), in)
	}
}

func TestPlainTextFlattensHTMLBlocks(t *testing.T) {
	in := "<p>first</p>\n<p>second<br>line</p>\n\n<!-- note -->\n\nafter"
	assert.Equal(t, "first\nsecond\nline\n\nafter", PlainText(in))
}
