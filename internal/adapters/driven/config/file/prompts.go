package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/marginalia/internal/core/assembler"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

var _ driven.PromptStore = (*PromptStore)(nil)

// ErrUnknownPrompt is returned for a name with no built-in template.
var ErrUnknownPrompt = errors.New("unknown prompt")

// PromptStore serves prompt templates from <dir>/<name>.txt. The directory
// is seeded with the built-in templates on first use, and an edited file is
// picked up on the next Load without a restart.
type PromptStore struct {
	dir      string
	defaults map[string]string

	mu     sync.Mutex
	seeded bool
	cache  map[string]cachedPrompt
}

type cachedPrompt struct {
	text    string
	modTime time.Time
	size    int64
}

// NewPromptStore returns a store rooted at dir, or ~/.marginalia/prompts
// when dir is empty. Nothing is written until the first Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, DirName, "prompts")
	}
	return &PromptStore{
		dir:      dir,
		defaults: assembler.DefaultTemplates,
		cache:    make(map[string]cachedPrompt),
	}, nil
}

// Load returns the template called name. A missing, unreadable or blank
// file yields the built-in template; only names with no built-in fail.
func (s *PromptStore) Load(name string) (string, error) {
	builtin, known := s.defaults[name]

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.seed(); err != nil {
		if known {
			return builtin, nil
		}
		return "", err
	}

	text, err := s.read(name)
	switch {
	case err == nil && text != "":
		return text, nil
	case known:
		return builtin, nil
	case err != nil:
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	default:
		return "", fmt.Errorf("%w: %q is empty", ErrUnknownPrompt, name)
	}
}

// read returns the trimmed file contents, reusing the cached copy while
// the file's size and modification time are unchanged.
func (s *PromptStore) read(name string) (string, error) {
	path := s.path(name)
	info, err := os.Stat(path)
	if err != nil {
		delete(s.cache, name)
		return "", err
	}
	if c, ok := s.cache[name]; ok && c.modTime.Equal(info.ModTime()) && c.size == info.Size() {
		return c.text, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(data))
	s.cache[name] = cachedPrompt{text: text, modTime: info.ModTime(), size: info.Size()}
	return text, nil
}

// Reload drops cached templates so the next Load reads every file again.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	clear(s.cache)
	s.mu.Unlock()
}

// Dir returns the template directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Names returns the built-in template names, sorted.
func (s *PromptStore) Names() []string {
	names := make([]string, 0, len(s.defaults))
	for name := range s.defaults {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Customised reports whether the file for name differs from the built-in
// template. A missing file is not customised.
func (s *PromptStore) Customised(name string) (bool, error) {
	builtin, ok := s.defaults[name]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownPrompt, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	text, err := s.read(name)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return text != "" && text != strings.TrimSpace(builtin), nil
}

// Reset overwrites the file for name with the built-in template.
func (s *PromptStore) Reset(name string) error {
	builtin, ok := s.defaults[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPrompt, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create prompt directory: %w", err)
	}
	if err := os.WriteFile(s.path(name), []byte(builtin), 0o600); err != nil {
		return fmt.Errorf("reset prompt %q: %w", name, err)
	}
	delete(s.cache, name)
	return nil
}

// seed creates the directory, any missing template files and the README.
// Existing files are never touched. Callers hold mu.
func (s *PromptStore) seed() error {
	if s.seeded {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create prompt directory: %w", err)
	}
	for _, name := range s.Names() {
		if err := writeIfMissing(s.path(name), s.defaults[name]); err != nil {
			return fmt.Errorf("seed prompt %q: %w", name, err)
		}
	}
	if err := writeIfMissing(filepath.Join(s.dir, "README.md"), s.readme()); err != nil {
		return fmt.Errorf("write prompt readme: %w", err)
	}
	s.seeded = true
	return nil
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.dir, name+".txt")
}

// writeIfMissing creates path with content unless it already exists.
func writeIfMissing(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *PromptStore) readme() string {
	var b strings.Builder
	b.WriteString("# Marginalia prompts\n\n")
	b.WriteString("Each .txt file here is a template sent to the LLM:\n\n")
	for _, name := range s.Names() {
		fmt.Fprintf(&b, "- %s.txt\n", name)
	}
	b.WriteString(`
Edits apply to the next question, including in a running "mcp serve".
A blank or deleted file falls back to the built-in wording, and
"marginalia settings prompts reset <name>" restores a file.

Markers in double braces are replaced before sending:

  {{context}} {{question}}                      retrieved excerpts, the question
  {{documents}}                                 names of compared documents
  {{chapter_label}} {{doc_name}} {{chapter_text}}  whole-chapter prompts
  {{chapter_events}}                            events merged into a timeline
`)
	return b.String()
}
