// Package openai generates text through the OpenAI chat completions API.
package openai

import (
	"cmp"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/custodia-labs/marginalia/internal/adapters/driven/httpapi"
	"github.com/custodia-labs/marginalia/internal/adapters/driven/llm/throttle"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "gpt-4o"
	DefaultTimeout     = 5 * time.Minute
	DefaultTemperature = 0.7
)

// LLMConfig selects the account and model. APIKey is required; a nil
// Limiter sends requests unpaced.
type LLMConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
	Limiter   *throttle.Limiter
}

type LLMService struct {
	api       *httpapi.Client
	model     string
	maxTokens int
	limiter   *throttle.Limiter
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

// NewLLMService fails with domain.ErrInvalidCredentials when no key is set.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, domain.NewGenerationError(domain.ErrInvalidCredentials, domain.AIProviderOpenAI,
			"API key is required; set OPENAI_API_KEY or llm.api_key", nil)
	}
	header := http.Header{"Authorization": {"Bearer " + cfg.APIKey}}
	return &LLMService{
		api:       httpapi.New(cmp.Or(cfg.BaseURL, DefaultBaseURL), cmp.Or(cfg.Timeout, DefaultTimeout), header),
		model:     cmp.Or(cfg.Model, DefaultModel),
		maxTokens: cmp.Or(cfg.MaxTokens, domain.DefaultMaxTokens),
		limiter:   cfg.Limiter,
	}, nil
}

func (s *LLMService) Generate(ctx context.Context, prompt, systemPrompt string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", s.fail(err)
	}

	req := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   s.maxTokens,
		Temperature: DefaultTemperature,
	}
	var resp chatResponse
	if err := s.api.Post(ctx, "/chat/completions", req, &resp); err != nil {
		return "", s.fail(err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.NewGenerationError(domain.ErrProviderError, domain.AIProviderOpenAI, "no response choices returned", nil)
	}
	return resp.Choices[0].Message.Content, nil
}

// fail classifies err, backing the limiter off on 429.
func (s *LLMService) fail(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	kind := domain.ErrProviderError
	var se *httpapi.StatusError
	if errors.As(err, &se) {
		if se.Code == http.StatusTooManyRequests {
			s.limiter.Backoff(se.RetryAfter)
		}
		if se.Unauthorized() || se.Type == "invalid_api_key" || se.ErrCode == "invalid_api_key" {
			kind = domain.ErrInvalidCredentials
		}
	}
	return domain.NewGenerationError(kind, domain.AIProviderOpenAI, err.Error(), err)
}

func (s *LLMService) Provider() domain.AIProvider { return domain.AIProviderOpenAI }
func (s *LLMService) ModelName() string           { return s.model }

// Ping lists models, which checks the key without spending tokens.
func (s *LLMService) Ping(ctx context.Context) error {
	if err := s.api.Check(ctx, "/models"); err != nil {
		return s.fail(err)
	}
	return nil
}

func (s *LLMService) Close() error { return nil }
