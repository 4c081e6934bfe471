package llm

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// The inline parsers are limited to code spans and links. Emphasis,
// autolinks and inline raw HTML are left to the text, so a literal "*" or
// "<Ctrl>" in a reply is never swallowed.
var md = goldmark.New(
	goldmark.WithParser(parser.NewParser(
		parser.WithBlockParsers(parser.DefaultBlockParsers()...),
		parser.WithInlineParsers(
			util.Prioritized(parser.NewCodeSpanParser(), 100),
			util.Prioritized(parser.NewLinkParser(), 200),
		),
		parser.WithParagraphTransformers(parser.DefaultParagraphTransformers()...),
	)),
	goldmark.WithExtensions(extension.Table),
)

// PlainText flattens markdown in a model reply into plain paragraphs.
// Headings stay on their own line, list items keep a "- " or "N. " marker,
// links keep only their text and images are dropped. HTML blocks made of
// known elements are reduced to their text; anything else that merely looks
// like a tag is kept verbatim.
func PlainText(markup string) string {
	src := []byte(markup)
	doc := md.Parser().Parse(text.NewReader(src))

	var blocks []string
	add := func(s string) {
		if s = tidy(s); s != "" {
			blocks = append(blocks, s)
		}
	}

	var walk func(ast.Node)
	walk = func(n ast.Node) {
		switch v := n.(type) {
		case *ast.Heading, *ast.Paragraph, *ast.TextBlock:
			add(inlineText(n, src))
		case *ast.List:
			add(listText(v, src, 0))
		case *extast.Table:
			add(tableText(v, src))
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			add(linesText(n.Lines(), src))
		case *ast.HTMLBlock:
			raw := linesText(v.Lines(), src)
			if v.HasClosure() {
				raw += string(v.ClosureLine.Value(src))
			}
			if knownElement(raw) {
				add(htmlText(raw))
			} else {
				add(raw)
			}
		case *ast.ThematicBreak:
		default:
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				walk(c)
			}
		}
	}
	walk(doc)

	return strings.Join(blocks, "\n\n")
}

// inlineText is the visible text under n, ignoring nested lists.
func inlineText(n ast.Node, src []byte) string {
	var sb strings.Builder
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch v := c.(type) {
			case *ast.Text:
				sb.Write(v.Segment.Value(src))
				if v.SoftLineBreak() || v.HardLineBreak() {
					sb.WriteByte('\n')
				}
			case *ast.String:
				sb.Write(v.Value)
			case *ast.Image, *ast.List:
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return sb.String()
}

func linesText(lines *text.Segments, src []byte) string {
	var sb strings.Builder
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(src))
	}
	return sb.String()
}

func listText(list *ast.List, src []byte, depth int) string {
	num := 1
	if list.IsOrdered() {
		num = list.Start
	}

	indent := strings.Repeat("  ", depth)
	var lines []string
	for li := list.FirstChild(); li != nil; li = li.NextSibling() {
		marker := "- "
		if list.IsOrdered() {
			marker = strconv.Itoa(num) + ". "
			num++
		}

		var parts []string
		var nested []string
		for c := li.FirstChild(); c != nil; c = c.NextSibling() {
			if sub, ok := c.(*ast.List); ok {
				nested = append(nested, listText(sub, src, depth+1))
				continue
			}
			parts = append(parts, inlineText(c, src))
		}
		lines = append(lines, indent+marker+strings.Join(strings.Fields(strings.Join(parts, " ")), " "))
		lines = append(lines, nested...)
	}
	return strings.Join(lines, "\n")
}

func tableText(table *extast.Table, src []byte) string {
	var rows []string
	for r := table.FirstChild(); r != nil; r = r.NextSibling() {
		var cells []string
		for c := r.FirstChild(); c != nil; c = c.NextSibling() {
			cells = append(cells, strings.Join(strings.Fields(inlineText(c, src)), " "))
		}
		if len(cells) > 0 {
			rows = append(rows, strings.Join(cells, " | "))
		}
	}
	return strings.Join(rows, "\n")
}

// knownElement reports whether raw opens with a comment or a standard HTML
// element such as <div> or <script>.
func knownElement(raw string) bool {
	s := strings.TrimLeft(raw, " \t\n")
	if strings.HasPrefix(s, "<!--") {
		return true
	}
	s = strings.TrimPrefix(strings.TrimPrefix(s, "<"), "/")
	end := 0
	for end < len(s) && (isASCIILetter(s[end]) || (end > 0 && s[end] >= '0' && s[end] <= '9')) {
		end++
	}
	if end == 0 {
		return false
	}
	return atom.Lookup(bytes.ToLower([]byte(s[:end]))) != 0
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// htmlText is the visible text of an HTML fragment. Block elements and <br>
// start a new line; script and style content is dropped.
func htmlText(raw string) string {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return raw
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Head, atom.Img:
				return
			case atom.Br:
				sb.WriteByte('\n')
				return
			case atom.P, atom.Div, atom.Li, atom.Tr, atom.Table, atom.Ul, atom.Ol,
				atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Blockquote, atom.Pre:
				defer sb.WriteByte('\n')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.TrimSpace(sb.String())
}

// tidy trims each line and the block, keeping list indentation.
func tidy(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t\r")
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n ")
}
