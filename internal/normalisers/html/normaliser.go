package html

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/normalisers"
)

var _ driven.Extractor = (*Normaliser)(nil)

// hidden lists elements whose content is never text a reader sees.
const hidden = "head, script, style, noscript, template, svg, iframe, object"

// blocks start and end on their own line.
var blocks = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"br": true, "dd": true, "div": true, "dl": true, "dt": true,
	"figcaption": true, "figure": true, "footer": true, "h1": true,
	"h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "pre": true, "section": true, "table": true,
	"tr": true, "ul": true,
}

// Normaliser extracts readable text from HTML and XHTML.
type Normaliser struct{}

func New() *Normaliser { return &Normaliser{} }

func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority ranks the normaliser above plain text, which also accepts text/*.
func (n *Normaliser) Priority() int { return 50 }

// Extract parses the page, drops hidden elements and returns the visible
// text with one block per line. The title is the <title> element, else the
// file name.
func (n *Normaliser) Extract(_ context.Context, file *domain.SourceFile) (*domain.Extraction, error) {
	if file == nil {
		return nil, domain.ErrInvalidInput
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(normalisers.Decode(file.Content)))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title := strings.Join(strings.Fields(doc.Find("title").First().Text()), " ")
	if title == "" {
		title = normalisers.TitleFromPath(file.Path)
	}

	return &domain.Extraction{Title: title, Text: visibleText(doc), Format: "html"}, nil
}

// stripHTML returns the visible text of an HTML fragment.
func stripHTML(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	return visibleText(doc)
}

func visibleText(doc *goquery.Document) string {
	doc.Find(hidden).Remove()

	var w textWriter
	for _, node := range doc.Nodes {
		w.walk(node)
	}
	return w.lines()
}

// textWriter gathers text. Line breaks inside inline text are spaces
// except within <pre>.
type textWriter struct {
	b   strings.Builder
	pre int
}

func (w *textWriter) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		if w.pre > 0 {
			w.b.WriteString(n.Data)
		} else {
			w.b.WriteString(strings.Map(flatten, n.Data))
		}
		return
	case html.ElementNode, html.DocumentNode:
	default:
		return
	}

	block := n.Type == html.ElementNode && blocks[n.Data]
	if block {
		w.b.WriteByte('\n')
	}
	if (n.Data == "td" || n.Data == "th") && n.PrevSibling != nil {
		w.b.WriteByte(' ')
	}
	if n.Data == "pre" {
		w.pre++
		defer func() { w.pre-- }()
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
	if block {
		w.b.WriteByte('\n')
	}
}

// lines trims every line, collapses inner runs of spaces and drops blanks.
func (w *textWriter) lines() string {
	var out []string
	for _, line := range strings.Split(w.b.String(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func flatten(r rune) rune {
	if r == '\n' || r == '\r' {
		return ' '
	}
	return r
}
