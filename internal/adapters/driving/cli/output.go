package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// Output formats accepted by --format.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// previewLength bounds excerpt previews in text output.
const previewLength = 160

// errDocumentServiceMissing is shared by every command that resolves documents.
var errDocumentServiceMissing = errors.New("document service not configured")

func validateFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("%w: unknown format %q (want text, json or yaml)", domain.ErrInvalidInput, format)
	}
}

// printStructured writes v as JSON or YAML.
func printStructured(cmd *cobra.Command, format string, v any) error {
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal output: %w", err)
		}
		cmd.Println(string(data))
	case formatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal output: %w", err)
		}
		cmd.Print(string(data))
	default:
		return validateFormat(format)
	}
	return nil
}

// preview collapses whitespace and truncates to n runes.
func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}

func formatDistance(d *float64) string {
	if d == nil {
		return "-"
	}
	return fmt.Sprintf("%.3f", *d)
}

func formatSource(i int, r domain.SearchResult) string {
	name := r.Metadata.DocumentName
	if name == "" {
		name = r.Metadata.DocumentID
	}
	return fmt.Sprintf("[%d] %s (chunk %d/%d, distance %s)",
		i+1, name, r.Metadata.ChunkIndex+1, r.Metadata.TotalChunks, formatDistance(r.Distance))
}

// resolveDocument finds a document by exact ID, unique ID prefix, or
// case-insensitive name.
func resolveDocument(ctx context.Context, ref string) (domain.DocumentSummary, error) {
	if documentService == nil {
		return domain.DocumentSummary{}, errDocumentServiceMissing
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return domain.DocumentSummary{}, fmt.Errorf("%w: empty document reference", domain.ErrInvalidInput)
	}

	docs, err := documentService.List(ctx)
	if err != nil {
		return domain.DocumentSummary{}, fmt.Errorf("failed to list documents: %w", err)
	}

	for _, d := range docs {
		if d.ID == ref {
			return d, nil
		}
	}

	var matches []domain.DocumentSummary
	for _, d := range docs {
		if strings.HasPrefix(d.ID, ref) || strings.EqualFold(d.Name, ref) {
			matches = append(matches, d)
		}
	}

	switch len(matches) {
	case 0:
		return domain.DocumentSummary{}, fmt.Errorf("%w: no document matches %q", domain.ErrNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = fmt.Sprintf("%s (%s)", m.Name, m.ID)
		}
		return domain.DocumentSummary{}, fmt.Errorf("%w: %q matches %s",
			domain.ErrInvalidInput, ref, strings.Join(names, ", "))
	}
}

// resolveScope turns --doc references into IDs. No references means every
// document, reported as nil.
func resolveScope(ctx context.Context, refs []string) ([]string, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(refs))
	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		doc, err := resolveDocument(ctx, ref)
		if err != nil {
			return nil, err
		}
		if !seen[doc.ID] {
			seen[doc.ID] = true
			ids = append(ids, doc.ID)
		}
	}
	return ids, nil
}

// progressEnabled reports whether stderr is a terminal worth drawing on.
func progressEnabled() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// newProgressBar draws a bar on stderr, or returns nil when stderr is not a terminal.
func newProgressBar(total int, description string) *progressbar.ProgressBar {
	if total <= 0 || !progressEnabled() {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(32),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// chapterProgress adapts a batch progress callback to a progress bar
// created on the first report.
func chapterProgress(description string) (domain.ProgressFunc, func()) {
	var bar *progressbar.ProgressBar
	report := func(p domain.Progress) {
		if bar == nil {
			bar = newProgressBar(p.Total, description)
			if bar == nil {
				return
			}
		}
		bar.Describe(fmt.Sprintf("%s %s", description, p.Message))
		_ = bar.Set(p.Step)
	}
	finish := func() {
		if bar != nil {
			_ = bar.Finish()
		}
	}
	return report, finish
}
