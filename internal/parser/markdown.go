package parser

import (
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownExtractor handles Markdown files using goldmark. Markup is dropped;
// headings, paragraphs, list items and code blocks each become a block.
type MarkdownExtractor struct{}

func (e *MarkdownExtractor) Extract(r io.Reader, filename string) (string, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var out blocks
	var current strings.Builder
	flush := func() {
		out.add(current.String())
		current.Reset()
	}

	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Heading, *ast.Paragraph, *ast.TextBlock:
			flush()
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				flush()
				lines := node.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					current.Write(seg.Value(src))
				}
				flush()
			}
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			if entering {
				current.Write(node.Segment.Value(src))
				if node.SoftLineBreak() || node.HardLineBreak() {
					current.WriteByte('\n')
				}
			}
		case *ast.String:
			if entering {
				current.Write(node.Value)
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", err
	}
	flush()

	return out.String(), nil
}
