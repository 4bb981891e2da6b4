// Package assembler builds grounded prompts from retrieved excerpts or
// whole chapter text. It performs no I/O beyond optional template lookup.
package assembler

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/logger"
)

// Ensure Assembler can take user prompts.
var _ driven.PromptStoreAware = (*Assembler)(nil)

const (
	// BlockSeparator joins excerpt blocks and document groups.
	BlockSeparator = "\n\n---\n\n"

	// ExcerptSeparator joins excerpts of one document in a comparison.
	ExcerptSeparator = "\n\n"

	unknownDocument = "Unknown"
)

// Prompt is a system instruction plus the user message.
type Prompt struct {
	System string
	User   string
}

// ChapterEvents is one chapter's event extraction, input to a timeline merge.
type ChapterEvents struct {
	Label  string
	Events string
}

// Assembler builds prompts.
type Assembler struct {
	prompts driven.PromptStore
}

// New creates an Assembler using the built-in templates.
func New() *Assembler {
	return &Assembler{}
}

// SetPromptStore lets user-edited templates replace the built-in ones.
func (a *Assembler) SetPromptStore(store driven.PromptStore) {
	a.prompts = store
}

// RAG builds a strict answer-from-excerpts prompt. Each excerpt becomes a
// "[Source: name]" block.
func (a *Assembler) RAG(question string, results []domain.SearchResult) (Prompt, error) {
	if strings.TrimSpace(question) == "" {
		return Prompt{}, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}
	if len(results) == 0 {
		return Prompt{}, fmt.Errorf("%w: no excerpts to ground on", domain.ErrInvalidInput)
	}

	blocks := make([]string, len(results))
	for i, r := range results {
		blocks[i] = fmt.Sprintf("[Source: %s]\n%s", docName(r.Metadata.DocumentName), r.Content)
	}

	return Prompt{
		System: a.template(driven.PromptRAGSystem),
		User: render(a.template(driven.PromptRAG), map[string]string{
			"context":  strings.Join(blocks, BlockSeparator),
			"question": question,
		}),
	}, nil
}

// Comparison builds a multi-document prompt with one "=== FROM: name ==="
// group per document. Groups without excerpts are left out, but the
// document is still named so the answer can say it had nothing relevant.
func (a *Assembler) Comparison(question string, groups []domain.DocumentExcerpts) (Prompt, error) {
	if strings.TrimSpace(question) == "" {
		return Prompt{}, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}
	if len(groups) == 0 {
		return Prompt{}, fmt.Errorf("%w: no documents to compare", domain.ErrInvalidInput)
	}

	names := make([]string, len(groups))
	var parts []string
	for i, g := range groups {
		names[i] = docName(g.DocumentName)
		if len(g.Results) == 0 {
			continue
		}
		excerpts := make([]string, len(g.Results))
		for j, r := range g.Results {
			excerpts[j] = r.Content
		}
		parts = append(parts, fmt.Sprintf("=== FROM: %s ===\n%s", names[i], strings.Join(excerpts, ExcerptSeparator)))
	}
	if len(parts) == 0 {
		return Prompt{}, fmt.Errorf("%w: no excerpts to ground on", domain.ErrInvalidInput)
	}

	return Prompt{
		System: a.template(driven.PromptRAGSystem),
		User: render(a.template(driven.PromptComparison), map[string]string{
			"documents": strings.Join(names, ", "),
			"context":   strings.Join(parts, BlockSeparator),
			"question":  question,
		}),
	}, nil
}

// ChapterSummary embeds a whole chapter and asks for a summary.
func (a *Assembler) ChapterSummary(chapterText, label, docName string) (Prompt, error) {
	return a.chapterPrompt(driven.PromptChapterSummary, chapterText, label, docName, nil)
}

// ChapterEvents embeds a whole chapter and asks for its dated events.
func (a *Assembler) ChapterEvents(chapterText, label, docName string) (Prompt, error) {
	return a.chapterPrompt(driven.PromptChapterEvents, chapterText, label, docName, nil)
}

// ChapterQuestion embeds a whole chapter and asks a question about it.
func (a *Assembler) ChapterQuestion(chapterText, label, docName, question string) (Prompt, error) {
	if strings.TrimSpace(question) == "" {
		return Prompt{}, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}
	return a.chapterPrompt(driven.PromptChapterQuestion, chapterText, label, docName,
		map[string]string{"question": question})
}

// TimelineMerge asks for one chronological timeline from per-chapter extractions.
// Extractions are labelled "=== label ===" in chapter order.
func (a *Assembler) TimelineMerge(events []ChapterEvents, docName string) (Prompt, error) {
	if len(events) == 0 {
		return Prompt{}, fmt.Errorf("%w: no chapter events to merge", domain.ErrInvalidInput)
	}

	var b strings.Builder
	for _, e := range events {
		fmt.Fprintf(&b, "\n\n=== %s ===\n%s", e.Label, e.Events)
	}

	return Prompt{
		System: a.template(driven.PromptChapterSystem),
		User: render(a.template(driven.PromptTimelineMerge), map[string]string{
			"doc_name":       docName,
			"chapter_events": b.String(),
		}),
	}, nil
}

func (a *Assembler) chapterPrompt(name, chapterText, label, docName string, extra map[string]string) (Prompt, error) {
	if strings.TrimSpace(chapterText) == "" {
		return Prompt{}, fmt.Errorf("%w: empty chapter text", domain.ErrInvalidInput)
	}

	values := map[string]string{
		"chapter_label": label,
		"doc_name":      docName,
		"chapter_text":  chapterText,
	}
	for k, v := range extra {
		values[k] = v
	}

	return Prompt{
		System: a.template(driven.PromptChapterSystem),
		User:   render(a.template(name), values),
	}, nil
}

// template returns the user's template for name, or the built-in one.
func (a *Assembler) template(name string) string {
	if a.prompts != nil {
		if tmpl, err := a.prompts.Load(name); err == nil && strings.TrimSpace(tmpl) != "" {
			return tmpl
		} else if err != nil {
			logger.Debug("Prompt %q unavailable, using built-in: %v", name, err)
		}
	}
	return DefaultTemplates[name]
}

// render substitutes {{key}} placeholders in one pass, so placeholder-like
// text inside values is never expanded.
func render(tmpl string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for k, v := range values {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

func docName(name string) string {
	if name == "" {
		return unknownDocument
	}
	return name
}
