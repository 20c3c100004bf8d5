package normalisers

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLNormaliser extracts visible text from HTML. Script, style and
// template content is dropped; block elements become line breaks.
type HTMLNormaliser struct{}

func (n *HTMLNormaliser) Normalise(content string, mimeType string) string {
	z := html.NewTokenizer(strings.NewReader(content))
	var b strings.Builder
	skip := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			return collapseBlankLines(b.String())
		case html.StartTagToken:
			tok := z.Token()
			if isHidden(tok.DataAtom) {
				skip++
			} else if isBlock(tok.DataAtom) {
				b.WriteString("\n")
			}
		case html.EndTagToken:
			tok := z.Token()
			if isHidden(tok.DataAtom) {
				if skip > 0 {
					skip--
				}
			} else if isBlock(tok.DataAtom) {
				b.WriteString("\n")
			}
		case html.SelfClosingTagToken:
			if tok := z.Token(); tok.DataAtom == atom.Br || tok.DataAtom == atom.Hr {
				b.WriteString("\n")
			}
		case html.TextToken:
			if skip == 0 {
				b.WriteString(string(z.Text()))
				b.WriteString(" ")
			}
		}
	}
}

func (n *HTMLNormaliser) SupportedTypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

func (n *HTMLNormaliser) Priority() int {
	return 50
}

func isHidden(a atom.Atom) bool {
	switch a {
	case atom.Script, atom.Style, atom.Template, atom.Noscript, atom.Head:
		return true
	}
	return false
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Br, atom.Hr, atom.Li, atom.Ul, atom.Ol, atom.Tr, atom.Table,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Section, atom.Article, atom.Blockquote, atom.Pre, atom.Figure, atom.Header, atom.Footer:
		return true
	}
	return false
}
