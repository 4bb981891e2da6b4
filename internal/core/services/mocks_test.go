package services

import (
	"context"
	"sync"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

// countingEmbedder wraps an embedder and counts calls; err makes every call fail.
type countingEmbedder struct {
	driven.EmbeddingService
	mu    sync.Mutex
	calls int
	err   error
}

func (e *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	return e.EmbeddingService.Embed(ctx, text)
}

func (e *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	return e.EmbeddingService.EmbedBatch(ctx, texts)
}

func (e *countingEmbedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// generateCall records one Generate invocation.
type generateCall struct {
	Prompt string
	System string
}

// fakeLLM returns scripted replies. A reply function may fail selectively.
type fakeLLM struct {
	mu    sync.Mutex
	calls []generateCall
	reply func(prompt string) (string, error)
}

var _ driven.LLMService = (*fakeLLM)(nil)

func newFakeLLM(reply func(prompt string) (string, error)) *fakeLLM {
	if reply == nil {
		reply = func(string) (string, error) { return "generated", nil }
	}
	return &fakeLLM{reply: reply}
}

func (f *fakeLLM) Generate(_ context.Context, prompt, systemPrompt string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, generateCall{Prompt: prompt, System: systemPrompt})
	f.mu.Unlock()
	return f.reply(prompt)
}

func (f *fakeLLM) Calls() []generateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]generateCall(nil), f.calls...)
}

func (f *fakeLLM) Provider() domain.AIProvider { return domain.AIProviderOllama }
func (f *fakeLLM) ModelName() string { return "fake" }
func (f *fakeLLM) Ping(_ context.Context) error { return nil }
func (f *fakeLLM) Close() error { return nil }
