// Package anthropic generates text through the Anthropic Messages API.
package anthropic

import (
	"cmp"
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/marginalia/internal/adapters/driven/httpapi"
	"github.com/custodia-labs/marginalia/internal/adapters/driven/llm/throttle"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultBaseURL = "https://api.anthropic.com"
	DefaultModel   = "claude-sonnet-4-20250514"
	DefaultTimeout = 5 * time.Minute

	apiVersion = "2023-06-01"
)

// Config selects the account and model. APIKey is required; a nil Limiter
// sends requests unpaced.
type Config struct {
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

type messagesMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model     string            `json:"model"`
	Messages  []messagesMessage `json:"messages"`
	MaxTokens int               `json:"max_tokens"`
	System    string            `json:"system,omitempty"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// NewLLMService fails with domain.ErrInvalidCredentials when no key is set.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, domain.NewGenerationError(domain.ErrInvalidCredentials, domain.AIProviderAnthropic,
			"API key is required; set ANTHROPIC_API_KEY or llm.api_key", nil)
	}
	header := http.Header{
		"X-Api-Key":         {cfg.APIKey},
		"Anthropic-Version": {apiVersion},
	}
	return &LLMService{
		api:       httpapi.New(cmp.Or(cfg.BaseURL, DefaultBaseURL), cmp.Or(cfg.Timeout, DefaultTimeout), header),
		model:     cmp.Or(cfg.Model, DefaultModel),
		maxTokens: cmp.Or(cfg.MaxTokens, domain.DefaultMaxTokens),
		limiter:   cfg.Limiter,
	}, nil
}

// Generate sends prompt as the only user turn with systemPrompt in the
// system field, and joins the text blocks of the reply.
func (s *LLMService) Generate(ctx context.Context, prompt, systemPrompt string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", s.fail(err)
	}

	req := messagesRequest{
		Model:     s.model,
		Messages:  []messagesMessage{{Role: "user", Content: prompt}},
		MaxTokens: s.maxTokens,
		System:    systemPrompt,
	}
	var resp messagesResponse
	if err := s.api.Post(ctx, "/v1/messages", req, &resp); err != nil {
		return "", s.fail(err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", domain.NewGenerationError(domain.ErrProviderError, domain.AIProviderAnthropic, "no text content returned", nil)
	}
	return text.String(), nil
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
		if se.Unauthorized() || se.Type == "authentication_error" || se.Type == "permission_error" {
			kind = domain.ErrInvalidCredentials
		}
	}
	return domain.NewGenerationError(kind, domain.AIProviderAnthropic, err.Error(), err)
}

func (s *LLMService) Provider() domain.AIProvider { return domain.AIProviderAnthropic }
func (s *LLMService) ModelName() string           { return s.model }

// Ping lists models, which checks the key without spending tokens.
func (s *LLMService) Ping(ctx context.Context) error {
	if err := s.api.Check(ctx, "/v1/models"); err != nil {
		return s.fail(err)
	}
	return nil
}

func (s *LLMService) Close() error { return nil }
