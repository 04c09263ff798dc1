package parser

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

var (
	skippedElements = map[string]bool{
		"script": true, "style": true, "noscript": true, "template": true,
		"nav": true, "footer": true, "header": true, "head": true,
	}
	blockElements = map[string]bool{
		"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
		"p": true, "div": true, "section": true, "article": true, "main": true,
		"ul": true, "ol": true, "li": true, "dl": true, "dt": true, "dd": true,
		"table": true, "tr": true, "td": true, "th": true,
		"blockquote": true, "figure": true, "figcaption": true,
	}
)

// HTMLExtractor handles HTML files. Each block element becomes one block of
// whitespace-collapsed text; navigation and script content is skipped.
type HTMLExtractor struct{}

func (e *HTMLExtractor) Extract(r io.Reader, filename string) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var out blocks
	var current strings.Builder
	flush := func() {
		out.add(collapseSpace(current.String()))
		current.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			current.WriteString(n.Data)
			return
		case html.ElementNode:
			switch {
			case skippedElements[n.Data]:
				return
			case n.Data == "br":
				current.WriteByte(' ')
				return
			case n.Data == "pre":
				flush()
				out.add(textContent(n))
				return
			case blockElements[n.Data]:
				flush()
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					walk(c)
				}
				flush()
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findBody(doc); body != nil {
		walk(body)
	} else {
		walk(doc)
	}
	flush()
	return out.String(), nil
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
