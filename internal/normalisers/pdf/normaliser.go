package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Extractor = (*Normaliser)(nil)

// ErrPDFToolNotFound is returned when pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

const toolName = "pdftotext"

// maxTitleLength bounds the first-line title heuristic.
const maxTitleLength = 200

// CommandRunner executes external commands.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands with os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, ErrPDFToolNotFound
	}
	return exec.CommandContext(ctx, name, args...).Output()
}

// Normaliser extracts text from PDF files with pdftotext (poppler).
type Normaliser struct {
	runner CommandRunner
}

// New creates a PDF normaliser that shells out to pdftotext.
func New() *Normaliser {
	return &Normaliser{runner: execRunner{}}
}

// NewWithRunner creates a PDF normaliser with a custom command runner.
func NewWithRunner(runner CommandRunner) *Normaliser {
	return &Normaliser{runner: runner}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Extract writes the PDF to a temporary file and converts it with
// pdftotext in layout mode. Page breaks become blank lines.
func (n *Normaliser) Extract(ctx context.Context, file *domain.SourceFile) (*domain.Extraction, error) {
	if file == nil {
		return nil, domain.ErrInvalidInput
	}

	tmp, err := os.CreateTemp("", "marginalia-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(file.Content); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	out, err := n.runner.Run(ctx, toolName, "-layout", "-enc", "UTF-8", tmp.Name(), "-")
	if err != nil {
		if errors.Is(err, ErrPDFToolNotFound) {
			return nil, fmt.Errorf("%w\n%s", err, InstallInstructions())
		}
		return nil, fmt.Errorf("pdftotext failed: %w", err)
	}

	text := normalisers.Decode(out)
	text = strings.ReplaceAll(text, "\f", "\n\n")
	text = strings.TrimSpace(text)

	return &domain.Extraction{
		Title:  extractTitle(text, file.Path),
		Text:   text,
		Format: "pdf",
	}, nil
}

// CheckAvailable reports whether pdftotext is on PATH.
func CheckAvailable() error {
	if _, err := exec.LookPath(toolName); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions explains how to install pdftotext.
func InstallInstructions() string {
	return `PDF import needs pdftotext from poppler:
  macOS:         brew install poppler
  Debian/Ubuntu: apt install poppler-utils
  Fedora:        dnf install poppler-utils`
}

// extractTitle uses the first short non-empty line, else the file name.
func extractTitle(content, path string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && len(line) < maxTitleLength {
			return line
		}
	}
	return normalisers.TitleFromPath(path)
}
