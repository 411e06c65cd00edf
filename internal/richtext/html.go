package richtext

import (
	"fmt"
	"io"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Section is a titled run of paragraphs, the unit imports turn into chapters.
type Section struct {
	Title      string
	Paragraphs []string
}

// ParseHTML splits an HTML document into sections at every <h1> and <h2>.
// Text before the first heading lands in an untitled section.
func ParseHTML(r io.Reader) ([]Section, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	p := &htmlSplitter{}
	p.walk(doc)
	p.flushParagraph()
	return p.finish(), nil
}

// htmlSplitter collects sections; the last one is always the open section.
type htmlSplitter struct {
	sections []Section
	para     strings.Builder
}

func (p *htmlSplitter) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Head:
			return
		case atom.H1, atom.H2:
			p.flushParagraph()
			p.sections = append(p.sections, Section{Title: collapse(textOf(n))})
			return
		case atom.Br:
			p.flushParagraph()
			return
		}
	}
	if n.Type == html.TextNode {
		p.para.WriteString(n.Data)
	}

	block := n.Type == html.ElementNode && isBlock(n.DataAtom)
	if block {
		p.flushParagraph()
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c)
	}
	if block {
		p.flushParagraph()
	}
}

func (p *htmlSplitter) flushParagraph() {
	text := collapse(p.para.String())
	p.para.Reset()
	if text == "" {
		return
	}
	if len(p.sections) == 0 {
		p.sections = append(p.sections, Section{})
	}
	last := &p.sections[len(p.sections)-1]
	last.Paragraphs = append(last.Paragraphs, text)
}

func (p *htmlSplitter) finish() []Section {
	out := p.sections[:0]
	for _, s := range p.sections {
		if s.Title != "" || len(s.Paragraphs) > 0 {
			out = append(out, s)
		}
	}
	return out
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Li, atom.Blockquote, atom.Pre,
		atom.H3, atom.H4, atom.H5, atom.H6, atom.Section, atom.Article, atom.Tr:
		return true
	default:
		return false
	}
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ToHTML renders a title and paragraphs as a standalone HTML document.
func ToHTML(title string, paragraphs []string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head><meta charset=\"utf-8\"><title>")
	b.WriteString(html.EscapeString(title))
	b.WriteString("</title></head>\n<body>\n")
	b.WriteString(htmlBody(title, paragraphs))
	b.WriteString("</body>\n</html>\n")
	return b.String()
}

func htmlBody(title string, paragraphs []string) string {
	var b strings.Builder
	if title != "" {
		b.WriteString("<h1>" + html.EscapeString(title) + "</h1>\n")
	}
	for _, p := range paragraphs {
		b.WriteString("<p>" + html.EscapeString(p) + "</p>\n")
	}
	return b.String()
}

// ToMarkdown renders a title and paragraphs as Markdown.
func ToMarkdown(title string, paragraphs []string) (string, error) {
	md, err := htmltomarkdown.ConvertString(htmlBody(title, paragraphs))
	if err != nil {
		return "", fmt.Errorf("convert to markdown: %w", err)
	}
	return strings.TrimSpace(md) + "\n", nil
}

// ToText renders a title and paragraphs as plain text, blank-line separated.
func ToText(title string, paragraphs []string) string {
	parts := make([]string, 0, len(paragraphs)+1)
	if title != "" {
		parts = append(parts, title)
	}
	parts = append(parts, paragraphs...)
	return strings.Join(parts, "\n\n") + "\n"
}
