// Package ollama embeds text with a local Ollama server.
package ollama

import (
	"cmp"
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/marginalia/internal/adapters/driven/embedding"
	"github.com/custodia-labs/marginalia/internal/adapters/driven/httpapi"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultModel      = "nomic-embed-text"
	DefaultTimeout    = 60 * time.Second
	DefaultDimensions = 768
	DefaultBatchSize  = 32
)

// Config selects the server and model. Zero fields take the defaults above;
// a zero Dimensions is looked up from the model name.
type Config struct {
	BaseURL    string
	Model      string
	Timeout    time.Duration
	Dimensions int
	BatchSize  int
}

// EmbeddingService calls /api/embed, which accepts several inputs at once.
type EmbeddingService struct {
	api        *httpapi.Client
	model      string
	dimensions int
	batchSize  int
}

func NewEmbeddingService(cfg Config) *EmbeddingService {
	cfg.BaseURL = cmp.Or(cfg.BaseURL, DefaultBaseURL)
	cfg.Model = cmp.Or(cfg.Model, DefaultModel)
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
		if d, ok := domain.EmbeddingDimensions[cfg.Model]; ok {
			cfg.Dimensions = d
		}
	}

	return &EmbeddingService{
		api:        httpapi.New(cfg.BaseURL, cfg.Timeout, nil),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		batchSize:  cfg.BatchSize,
	}
}

func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch sends at most BatchSize texts per request.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.batchSize {
		end := min(start+s.batchSize, len(texts))
		vecs, err := s.embed(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed texts %d-%d: %w", start, end-1, err)
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (s *EmbeddingService) embed(ctx context.Context, texts []string) ([][]float32, error) {
	req := struct {
		Model string   `json:"model"`
		Input []string `json:"input"`
	}{s.model, texts}
	var resp struct {
		Embeddings [][]float64 `json:"embeddings"`
	}

	if err := s.api.Post(ctx, "/api/embed", req, &resp); err != nil {
		return nil, fmt.Errorf("%w: ollama: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: ollama returned %d embeddings for %d texts",
			domain.ErrEmbeddingUnavailable, len(resp.Embeddings), len(texts))
	}

	vecs := make([][]float32, len(texts))
	for i, e := range resp.Embeddings {
		vecs[i] = embedding.ToFloat32(e)
	}
	return vecs, nil
}

func (s *EmbeddingService) Dimensions() int   { return s.dimensions }
func (s *EmbeddingService) ModelName() string { return s.model }

// Ping lists local models, which needs no inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if err := s.api.Check(ctx, "/api/tags"); err != nil {
		return fmt.Errorf("%w: ollama: %w", domain.ErrEmbeddingUnavailable, err)
	}
	return nil
}

func (s *EmbeddingService) Close() error { return nil }
