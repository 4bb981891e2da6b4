// Package openai embeds text through the OpenAI embeddings endpoint or any
// server that copies it.
package openai

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/marginalia/internal/adapters/driven/embedding"
	"github.com/custodia-labs/marginalia/internal/adapters/driven/httpapi"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL   = "https://api.openai.com/v1"
	DefaultModel     = "text-embedding-3-small"
	DefaultTimeout   = 60 * time.Second
	DefaultBatchSize = 256

	fallbackDimensions = 1536
)

// Config selects the account, endpoint and model. APIKey is required.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	// Dimensions shortens the vectors. Only text-embedding-3-* models
	// accept it; for others it only records the expected size.
	Dimensions int
	BatchSize  int
}

type EmbeddingService struct {
	api        *httpapi.Client
	model      string
	dimensions int
	shorten    bool
	batchSize  int
}

func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai embeddings need an API key", domain.ErrInvalidCredentials)
	}
	cfg.Model = cmp.Or(cfg.Model, DefaultModel)
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	dims := cfg.Dimensions
	if dims == 0 {
		dims = fallbackDimensions
		if d, ok := domain.EmbeddingDimensions[cfg.Model]; ok {
			dims = d
		}
	}

	header := http.Header{"Authorization": {"Bearer " + cfg.APIKey}}
	return &EmbeddingService{
		api:        httpapi.New(cmp.Or(cfg.BaseURL, DefaultBaseURL), cmp.Or(cfg.Timeout, DefaultTimeout), header),
		model:      cfg.Model,
		dimensions: dims,
		shorten:    strings.HasPrefix(cfg.Model, "text-embedding-3-"),
		batchSize:  cfg.BatchSize,
	}, nil
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

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

// embed places each returned vector by its index, since the reply order is
// not promised.
func (s *EmbeddingService) embed(ctx context.Context, texts []string) ([][]float32, error) {
	req := embeddingRequest{Model: s.model, Input: texts}
	if s.shorten {
		req.Dimensions = s.dimensions
	}
	var resp struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
	}
	if err := s.api.Post(ctx, "/embeddings", req, &resp); err != nil {
		return nil, s.wrap(err)
	}

	vecs := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("%w: openai returned index %d for %d texts",
				domain.ErrEmbeddingUnavailable, d.Index, len(texts))
		}
		vecs[d.Index] = embedding.ToFloat32(d.Embedding)
	}
	for i, v := range vecs {
		if v == nil {
			return nil, fmt.Errorf("%w: openai returned no embedding for text %d", domain.ErrEmbeddingUnavailable, i)
		}
	}
	return vecs, nil
}

// wrap marks rejected keys as credential errors and everything else as the
// service being unavailable.
func (s *EmbeddingService) wrap(err error) error {
	var se *httpapi.StatusError
	if errors.As(err, &se) && se.Unauthorized() {
		return fmt.Errorf("%w: openai rejected the API key: %w", domain.ErrInvalidCredentials, err)
	}
	return fmt.Errorf("%w: openai: %w", domain.ErrEmbeddingUnavailable, err)
}

func (s *EmbeddingService) Dimensions() int   { return s.dimensions }
func (s *EmbeddingService) ModelName() string { return s.model }

// Ping lists models, which checks the key without spending tokens.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if err := s.api.Check(ctx, "/models"); err != nil {
		return s.wrap(err)
	}
	return nil
}

func (s *EmbeddingService) Close() error { return nil }
