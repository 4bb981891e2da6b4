package domain

import (
	"fmt"
	"strings"
)

const unknownDescription = "Unknown"

// Default settings values.
const (
	// DefaultChunkSize is the chunk window in characters.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is how far each window backtracks.
	DefaultChunkOverlap = 200

	// DefaultChatTopK is the retrieval depth for single-question chat.
	DefaultChatTopK = 5

	// DefaultCompareTopK is the per-document retrieval depth for comparison.
	DefaultCompareTopK = 3

	// DefaultMaxTokens bounds hosted backend responses.
	DefaultMaxTokens = 2000

	// DefaultLocalDimensions is the vector size of the local hashing embedder.
	DefaultLocalDimensions = 512
)

// AIProvider identifies a generation or embedding backend.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderLocal is the in-process hashing embedder. Embeddings only.
	AIProviderLocal AIProvider = "local"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderLocal:
		return true
	default:
		return false
	}
}

// SupportsGeneration returns true if the provider can generate text.
func (p AIProvider) SupportsGeneration() bool {
	return p == AIProviderOllama || p == AIProviderOpenAI || p == AIProviderAnthropic
}

// SupportsEmbedding returns true if the provider can embed text.
func (p AIProvider) SupportsEmbedding() bool {
	return p == AIProviderOllama || p == AIProviderOpenAI || p == AIProviderLocal
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if data never leaves the machine.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderLocal
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderLocal:
		return "Local hashing (built in)"
	default:
		return unknownDescription
	}
}

// GenerationProviders lists the providers usable for generation.
func GenerationProviders() []AIProvider {
	return []AIProvider{AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic}
}

// EmbeddingProviders lists the providers usable for embeddings.
func EmbeddingProviders() []AIProvider {
	return []AIProvider{AIProviderLocal, AIProviderOllama, AIProviderOpenAI}
}

// DefaultLLMModels maps providers to their default generation model.
var DefaultLLMModels = map[AIProvider]string{
	AIProviderOllama:    "qwen2.5:14b",
	AIProviderOpenAI:    "gpt-4o",
	AIProviderAnthropic: "claude-sonnet-4-20250514",
}

// DefaultEmbeddingModels maps providers to their default embedding model.
var DefaultEmbeddingModels = map[AIProvider]string{
	AIProviderOllama: "nomic-embed-text",
	AIProviderOpenAI: "text-embedding-3-small",
	AIProviderLocal:  "hashing-bow",
}

// EmbeddingDimensions maps known embedding models to their vector size.
var EmbeddingDimensions = map[string]int{
	"nomic-embed-text":       768,
	"mxbai-embed-large":      1024,
	"all-minilm":             384,
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
	"hashing-bow":            DefaultLocalDimensions,
}

// LLMSettings holds generation backend configuration.
type LLMSettings struct {
	// Provider is the generation backend.
	Provider AIProvider

	// Model is the model identifier.
	Model string

	// BaseURL overrides the API endpoint.
	BaseURL string

	// APIKey is the credential for hosted backends.
	APIKey string

	// MaxTokens bounds response length on hosted backends.
	MaxTokens int
}

// IsConfigured returns true if the generation backend is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.SupportsGeneration() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// EmbeddingSettings holds embedding backend configuration.
type EmbeddingSettings struct {
	// Provider is the embedding backend.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL overrides the API endpoint.
	BaseURL string

	// APIKey is the credential for hosted backends.
	APIKey string

	// Dimensions is the vector size, used by the local embedder.
	Dimensions int
}

// IsConfigured returns true if the embedding backend is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.SupportsEmbedding() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// ChunkingSettings controls how documents are cut into retrieval units.
type ChunkingSettings struct {
	// Size is the window length in characters.
	Size int

	// Overlap is how far each window backtracks into the previous one.
	Overlap int
}

// Validate rejects sizes the chunker cannot work with.
func (c ChunkingSettings) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfig, c.Size)
	}
	if c.Overlap >= c.Size {
		return fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d",
			ErrInvalidConfig, c.Overlap, c.Size)
	}
	return nil
}

// RetrievalSettings controls search depth.
type RetrievalSettings struct {
	// ChatTopK is the number of chunks retrieved per question.
	ChatTopK int

	// CompareTopK is the number of chunks retrieved per document when comparing.
	CompareTopK int
}

// ChapterSettings controls chapter detection.
type ChapterSettings struct {
	// DigitFixes maps single-token recognition artifacts to the digit they
	// stand for, e.g. "s" -> "5". Keys are matched case-insensitively.
	DigitFixes map[string]string
}

// DefaultDigitFixes returns the built-in recognition artifact table.
func DefaultDigitFixes() map[string]string {
	return map[string]string{"s": "5"}
}

// ParseDigitFixes parses "artifact=digit" pairs.
func ParseDigitFixes(pairs []string) (map[string]string, error) {
	fixes := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if !ok || key == "" || !isDigits(value) {
			return nil, fmt.Errorf("%w: digit fix %q must look like artifact=digits", ErrInvalidConfig, pair)
		}
		fixes[key] = value
	}
	return fixes, nil
}

// FormatDigitFixes renders a fix table as "artifact=digit" pairs.
func FormatDigitFixes(fixes map[string]string) []string {
	pairs := make([]string, 0, len(fixes))
	for k, v := range fixes {
		pairs = append(pairs, k+"="+v)
	}
	return pairs
}

// AppSettings holds all application settings.
type AppSettings struct {
	LLM       LLMSettings
	Embedding EmbeddingSettings
	Chunking  ChunkingSettings
	Retrieval RetrievalSettings
	Chapters  ChapterSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// Generation defaults to a local Ollama model and embeddings to the
// built-in hashing embedder, so nothing leaves the machine until the
// user opts into a hosted backend.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		LLM: LLMSettings{
			Provider:  AIProviderOllama,
			Model:     DefaultLLMModels[AIProviderOllama],
			MaxTokens: DefaultMaxTokens,
		},
		Embedding: EmbeddingSettings{
			Provider:   AIProviderLocal,
			Model:      DefaultEmbeddingModels[AIProviderLocal],
			Dimensions: DefaultLocalDimensions,
		},
		Chunking: ChunkingSettings{
			Size:    DefaultChunkSize,
			Overlap: DefaultChunkOverlap,
		},
		Retrieval: RetrievalSettings{
			ChatTopK:    DefaultChatTopK,
			CompareTopK: DefaultCompareTopK,
		},
		Chapters: ChapterSettings{
			DigitFixes: DefaultDigitFixes(),
		},
	}
}
