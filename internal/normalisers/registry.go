package normalisers

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry selects the highest-priority extractor for a MIME type.
type Registry struct {
	mu         sync.RWMutex
	extractors map[string][]driven.Extractor
}

// NewRegistry creates a registry holding the given extractors.
func NewRegistry(extractors ...driven.Extractor) *Registry {
	r := &Registry{extractors: make(map[string][]driven.Extractor)}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// Register adds an extractor for each MIME type it supports.
func (r *Registry) Register(extractor driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, mimeType := range extractor.SupportedMIMETypes() {
		list := append(r.extractors[mimeType], extractor)
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Priority() > list[j].Priority()
		})
		r.extractors[mimeType] = list
	}
}

// SupportedMIMETypes returns every registered MIME type, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.extractors))
	for mimeType := range r.extractors {
		types = append(types, mimeType)
	}
	sort.Strings(types)
	return types
}

// Extract runs the preferred extractor for the file. A missing MIME type is
// detected from the path first.
func (r *Registry) Extract(ctx context.Context, file *domain.SourceFile) (*domain.Extraction, error) {
	if file == nil {
		return nil, domain.ErrInvalidInput
	}
	mimeType := file.MIMEType
	if mimeType == "" {
		mimeType = DetectMIMEType(file.Path)
	}

	r.mu.RLock()
	candidates := r.extractors[mimeType]
	r.mu.RUnlock()

	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %q (%s)", domain.ErrUnsupportedType, mimeType, filepath.Base(file.Path))
	}
	if file.MIMEType == "" {
		copied := *file
		copied.MIMEType = mimeType
		file = &copied
	}
	return candidates[0].Extract(ctx, file)
}

// DetectMIMEType maps a file path to a MIME type.
func (r *Registry) DetectMIMEType(path string) string {
	return DetectMIMEType(path)
}

// Supports reports whether path has an extension the registry can extract.
func (r *Registry) Supports(path string) bool {
	mimeType := DetectMIMEType(path)
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.extractors[mimeType]) > 0
}

var knownExtensions = map[string]string{
	".txt":      "text/plain",
	".text":     "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".html":     "text/html",
	".htm":      "text/html",
	".pdf":      "application/pdf",
	".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// DetectMIMEType maps a file extension to a MIME type, without parameters.
// Unknown extensions fall back to the system table, then to
// application/octet-stream.
func DetectMIMEType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if mimeType, ok := knownExtensions[ext]; ok {
		return mimeType
	}
	if ext != "" {
		if mimeType := mime.TypeByExtension(ext); mimeType != "" {
			if base, _, err := mime.ParseMediaType(mimeType); err == nil {
				return base
			}
		}
	}
	return "application/octet-stream"
}
