// Package local provides an in-process embedding service that needs no model
// server. Texts are tokenised and hashed into a fixed-size bag-of-words vector.
//
// The vectors capture term overlap, not meaning, so retrieval quality is below
// a neural model. It keeps import and search working offline.
package local

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"strings"

	"github.com/custodia-labs/marginalia/internal/adapters/driven/embedding"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// ModelName identifies vectors produced by this embedder.
const ModelName = "hashing-bow"

var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)

// EmbeddingService hashes tokens into a fixed number of buckets.
type EmbeddingService struct {
	dimensions int
	stopwords  map[string]struct{}
}

// NewEmbeddingService creates a local embedder producing vectors of the
// given size. Zero selects domain.DefaultLocalDimensions.
func NewEmbeddingService(dimensions int) (*EmbeddingService, error) {
	if dimensions == 0 {
		dimensions = domain.DefaultLocalDimensions
	}
	if dimensions < 0 {
		return nil, fmt.Errorf("%w: embedding dimensions must be positive, got %d",
			domain.ErrInvalidConfig, dimensions)
	}
	return &EmbeddingService{
		dimensions: dimensions,
		stopwords:  defaultStopwords(),
	}, nil
}

// Embed returns the unit-length hashed term vector of text.
// Text without tokens yields the zero vector.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	counts := make(map[int]int)
	for _, tok := range s.Tokenize(text) {
		counts[s.bucket(tok)]++
	}

	vec := make([]float32, s.dimensions)
	for idx, n := range counts {
		// Sublinear term frequency keeps repeated words from dominating.
		vec[idx] = float32(1 + math.Log(float64(n)))
	}
	return embedding.Normalize(vec), nil
}

// EmbedBatch embeds each text in order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := s.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}

// Tokenize lowercases text and returns its word and number tokens,
// stopwords removed.
func (s *EmbeddingService) Tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, stop := s.stopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (s *EmbeddingService) bucket(token string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	return int(h.Sum32() % uint32(s.dimensions)) //nolint:gosec // dimensions is positive
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the embedder identifier.
func (s *EmbeddingService) ModelName() string {
	return ModelName
}

// Ping always succeeds.
func (s *EmbeddingService) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in",
		"on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being",
		"it", "its", "this", "that", "these", "those", "from", "up", "down", "over", "under",
		"again", "further", "than", "so", "such", "into", "about", "between", "through",
		"during", "before", "after", "above", "below", "out", "off", "own", "same", "too",
		"very", "can", "will", "just", "don", "should", "now", "do", "does", "did", "has",
		"have", "had", "he", "she", "they", "we", "you", "i", "his", "her", "their", "our",
		"what", "which", "who", "whom", "how", "when", "where", "why", "not", "no",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
