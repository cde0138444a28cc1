package widgets

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
	"golang.org/x/text/unicode/bidi"
)

// ExcerptLength is the rune budget for excerpts derived from a body.
const ExcerptLength = 160

// Markdown converts content bodies. Raw HTML in bodies is dropped.
type Markdown struct {
	md goldmark.Markdown
}

// NewMarkdown creates a Markdown converter with GitHub-flavored extensions.
func NewMarkdown() *Markdown {
	return &Markdown{
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// ToHTML renders a markdown body.
func (m *Markdown) ToHTML(body string) (string, error) {
	var buf bytes.Buffer
	if err := m.md.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}

// PlainText returns the text content of a markdown body with formatting removed.
func (m *Markdown) PlainText(body string) string {
	src := []byte(body)
	doc := m.md.Parser().Parse(text.NewReader(src))

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock && b.Len() > 0 {
				b.WriteByte(' ')
			}
			return ast.WalkContinue, nil
		}
		if t, ok := n.(*ast.Text); ok {
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.Join(strings.Fields(b.String()), " ")
}

// Excerpt returns explicit when set, otherwise the start of body's text
// truncated on a word boundary.
func (m *Markdown) Excerpt(explicit, body string) string {
	if explicit != "" {
		return explicit
	}
	plain := m.PlainText(body)
	if utf8.RuneCountInString(plain) <= ExcerptLength {
		return plain
	}

	runes := []rune(plain)[:ExcerptLength]
	cut := len(runes)
	for i := len(runes) - 1; i > ExcerptLength/2; i-- {
		if unicode.IsSpace(runes[i]) {
			cut = i
			break
		}
	}
	return strings.TrimRightFunc(string(runes[:cut]), unicode.IsPunct) + "…"
}

// IsRTL reports whether the first strongly directional rune in s is
// right-to-left.
func IsRTL(s string) bool {
	for _, r := range s {
		p, _ := bidi.LookupRune(r)
		switch p.Class() {
		case bidi.R, bidi.AL:
			return true
		case bidi.L:
			return false
		}
	}
	return false
}
