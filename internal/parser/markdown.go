package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/dgallion1/docqa/internal/document"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. Each top-level
// block (heading, paragraph, list, code fence) becomes a page.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(src))

	doc := &document.Document{Title: titleFromFilename(filename)}
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		var t string
		if h, ok := n.(*ast.Heading); ok {
			t = strings.TrimSpace(string(h.Text(src)))
			if h.Level == 1 && doc.Title == titleFromFilename(filename) && len(doc.Pages) == 0 {
				doc.Title = t
			}
		} else {
			t = extractText(n, src)
		}
		doc.AddPage(len(doc.Pages)+1, t)
	}
	return doc, nil
}

// extractText gets the text content of a goldmark AST node. Leaf blocks
// such as code fences carry their text in Lines; everything else is
// reassembled from its inline children.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if !n.HasChildren() {
		if t, ok := n.(*ast.Text); ok {
			buf.Write(t.Value(src))
		} else if n.Type() == ast.TypeBlock {
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				line := lines.At(i)
				buf.Write(line.Value(src))
			}
		}
		return strings.TrimSpace(buf.String())
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
			continue
		}
		if buf.Len() > 0 && c.Type() == ast.TypeBlock {
			buf.WriteByte('\n')
		}
		buf.WriteString(extractText(c, src))
	}
	return strings.TrimSpace(buf.String())
}
