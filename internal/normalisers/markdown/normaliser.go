// Package markdown extracts plain text from Markdown with goldmark.
package markdown

import (
	"context"
	"html"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/normalisers"
)

var _ driven.Extractor = (*Normaliser)(nil)

// Normaliser turns Markdown into reading text. Block structure becomes
// line breaks as written in the source, so a heading such as
// "## Chapter 3" stays on a line of its own for chapter detection.
// Markup, code blocks, images and raw HTML are dropped.
type Normaliser struct {
	md goldmark.Markdown
}

// New creates a Markdown normaliser that understands GFM tables.
func New() *Normaliser {
	return &Normaliser{
		md: goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough)),
	}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority ranks this above the plain text fallback.
func (n *Normaliser) Priority() int {
	return 50
}

// Extract returns the text and the first level-one heading as title,
// falling back to the file name.
func (n *Normaliser) Extract(_ context.Context, file *domain.SourceFile) (*domain.Extraction, error) {
	if file == nil {
		return nil, domain.ErrInvalidInput
	}

	src := []byte(normalisers.Decode(file.Content))
	w := &textWriter{src: src}
	if err := ast.Walk(n.md.Parser().Parse(text.NewReader(src)), w.visit); err != nil {
		return nil, err
	}

	title := w.title
	if title == "" {
		title = normalisers.TitleFromPath(file.Path)
	}
	return &domain.Extraction{Title: title, Text: w.String(), Format: "markdown"}, nil
}

var blankRuns = regexp.MustCompile(`\n{3,}`)

// textWriter collects the text of a goldmark tree.
type textWriter struct {
	src []byte
	b   strings.Builder
	// breaks is the number of newlines owed before the next text.
	breaks int

	title     string
	inTitle   bool
	titleText strings.Builder
}

func (w *textWriter) visit(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch n := node.(type) {
	case *ast.Document:
		return ast.WalkContinue, nil
	case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock, *ast.RawHTML, *ast.Image, *ast.ThematicBreak:
		return ast.WalkSkipChildren, nil
	case *ast.Text:
		if entering {
			w.write(string(n.Segment.Value(w.src)))
			if n.SoftLineBreak() || n.HardLineBreak() {
				w.owe(1)
			}
		}
		return ast.WalkContinue, nil
	case *ast.String:
		if entering {
			w.write(string(n.Value))
		}
		return ast.WalkContinue, nil
	case *ast.AutoLink:
		if entering {
			w.write(string(n.Label(w.src)))
		}
		return ast.WalkSkipChildren, nil
	case *extast.TableHeader, *extast.TableRow:
		if entering {
			w.owe(1)
		}
		return ast.WalkContinue, nil
	case *extast.TableCell:
		if entering && n.PreviousSibling() != nil {
			w.write(" ")
		}
		return ast.WalkContinue, nil
	case *ast.Heading:
		if n.Level == 1 && w.title == "" {
			w.inTitle = entering
			if !entering {
				w.title = strings.TrimSpace(w.titleText.String())
			}
		}
	}

	if entering && node.Type() == ast.TypeBlock {
		if node.HasBlankPreviousLines() {
			w.owe(2)
		} else {
			w.owe(1)
		}
	}
	return ast.WalkContinue, nil
}

func (w *textWriter) owe(n int) {
	w.breaks = max(w.breaks, n)
}

func (w *textWriter) write(s string) {
	if s == "" {
		return
	}
	s = html.UnescapeString(s)
	if w.b.Len() > 0 && w.breaks > 0 {
		w.b.WriteString(strings.Repeat("\n", w.breaks))
	}
	w.breaks = 0
	w.b.WriteString(s)
	if w.inTitle {
		w.titleText.WriteString(s)
	}
}

// String returns the collected text with blank runs squeezed to one line.
func (w *textWriter) String() string {
	return strings.TrimSpace(blankRuns.ReplaceAllString(w.b.String(), "\n\n"))
}
