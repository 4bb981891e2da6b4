// Package ollama generates text with a local Ollama server.
package ollama

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/marginalia/internal/adapters/driven/httpapi"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultLLMModel   = "qwen2.5:14b"
	DefaultLLMTimeout = 10 * time.Minute

	// DefaultContextWindow is large enough to hold a whole chapter.
	DefaultContextWindow = 131072
)

// LLMConfig selects the server and model. ContextWindow is sent as num_ctx
// because Ollama's own default truncates long chapters silently.
type LLMConfig struct {
	BaseURL       string
	Model         string
	Timeout       time.Duration
	ContextWindow int
}

// LLMService talks to /api/chat without streaming.
type LLMService struct {
	api           *httpapi.Client
	model         string
	contextWindow int
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *options      `json:"options,omitempty"`
}

type options struct {
	NumCtx int `json:"num_ctx,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

func NewLLMService(cfg LLMConfig) *LLMService {
	return &LLMService{
		api:           httpapi.New(cmp.Or(cfg.BaseURL, DefaultBaseURL), cmp.Or(cfg.Timeout, DefaultLLMTimeout), nil),
		model:         cmp.Or(cfg.Model, DefaultLLMModel),
		contextWindow: cmp.Or(cfg.ContextWindow, DefaultContextWindow),
	}
}

func (s *LLMService) Generate(ctx context.Context, prompt, systemPrompt string) (string, error) {
	req := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Options: &options{NumCtx: s.contextWindow},
	}
	var resp chatResponse
	if err := s.api.Post(ctx, "/api/chat", req, &resp); err != nil {
		return "", s.fail(err)
	}
	return resp.Message.Content, nil
}

// fail sorts an error into the generation taxonomy and adds the command
// that usually fixes it. Cancellation passes through untouched.
func (s *LLMService) fail(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var se *httpapi.StatusError
	switch {
	case errors.Is(err, httpapi.ErrUnreachable):
		return s.genErr(domain.ErrConnectionFailure,
			fmt.Sprintf("could not reach Ollama at %s; start it with: ollama serve", s.api.BaseURL()), err)
	case errors.As(err, &se) && se.Code == http.StatusNotFound:
		return s.genErr(domain.ErrMissingDependency,
			fmt.Sprintf("model %q is not available (%s); pull it with: ollama pull %s", s.model, se.Message, s.model), err)
	default:
		return s.genErr(domain.ErrProviderError, err.Error(), err)
	}
}

func (s *LLMService) genErr(kind error, detail string, cause error) error {
	return domain.NewGenerationError(kind, domain.AIProviderOllama, detail, cause)
}

func (s *LLMService) Provider() domain.AIProvider { return domain.AIProviderOllama }
func (s *LLMService) ModelName() string           { return s.model }

// Ping lists local models, which needs no inference.
func (s *LLMService) Ping(ctx context.Context) error {
	err := s.api.Check(ctx, "/api/tags")
	switch {
	case err == nil:
		return nil
	case errors.Is(err, httpapi.ErrUnreachable), errors.Is(err, context.Canceled):
		return s.fail(err)
	}
	return s.genErr(domain.ErrProviderError, "ping: "+err.Error(), err)
}

func (s *LLMService) Close() error { return nil }
