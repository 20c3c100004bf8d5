package normalisers

import (
	"bytes"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New()

// MarkdownNormaliser parses Markdown and keeps the text of the document.
// Link and image text survive, code is kept verbatim and raw HTML is dropped.
type MarkdownNormaliser struct{}

func (n *MarkdownNormaliser) Normalise(content string, mimeType string) string {
	src := []byte(normaliseNewlines(content))
	doc := markdown.Parser().Parse(text.NewReader(src))

	var b bytes.Buffer
	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		status := ast.WalkContinue

		switch v := node.(type) {
		case *ast.Text:
			if entering {
				b.Write(v.Segment.Value(src))
				switch {
				case v.HardLineBreak():
					b.WriteByte('\n')
				case v.SoftLineBreak():
					b.WriteByte(' ')
				}
			}
		case *ast.String:
			if entering {
				b.Write(v.Value)
			}
		case *ast.AutoLink:
			if entering {
				b.Write(v.Label(src))
			}
			status = ast.WalkSkipChildren
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			if entering {
				lines := node.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					b.Write(seg.Value(src))
				}
			}
		case *ast.HTMLBlock, *ast.RawHTML:
			status = ast.WalkSkipChildren
		case *ast.Emphasis:
			// 2*3*4 parses as emphasis; keep the asterisks between word characters.
			if intraword(v, src) {
				b.WriteString(strings.Repeat("*", v.Level))
			}
		}

		if !entering && node.Type() == ast.TypeBlock {
			b.WriteString("\n\n")
		}
		return status, nil
	})

	return collapseBlankLines(b.String())
}

func (n *MarkdownNormaliser) SupportedTypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

func (n *MarkdownNormaliser) Priority() int {
	return 50
}

// intraword reports whether the emphasis sits between two word characters.
func intraword(e *ast.Emphasis, src []byte) bool {
	prev, ok := e.PreviousSibling().(*ast.Text)
	if !ok {
		return false
	}
	next, ok := e.NextSibling().(*ast.Text)
	if !ok {
		return false
	}

	before := prev.Segment.Value(src)
	after := next.Segment.Value(src)
	if len(before) == 0 || len(after) == 0 {
		return false
	}
	last, _ := utf8.DecodeLastRune(before)
	first, _ := utf8.DecodeRune(after)
	return isWordRune(last) && isWordRune(first)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
