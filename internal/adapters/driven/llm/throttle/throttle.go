// Package throttle paces requests to hosted generation APIs.
package throttle

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// DefaultBackoff applies when a 429 carries no usable Retry-After.
const DefaultBackoff = 30 * time.Second

// Config holds rate limiting configuration for a backend.
type Config struct {
	// RequestsPerSecond is the sustained rate.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
}

// DefaultConfigs are conservative per-provider limits. Ollama runs locally
// and is not throttled.
var DefaultConfigs = map[domain.AIProvider]Config{
	domain.AIProviderOpenAI:    {RequestsPerSecond: 2, BurstSize: 4},
	domain.AIProviderAnthropic: {RequestsPerSecond: 1, BurstSize: 2},
}

// Limiter is a token bucket with a backoff window set by 429 responses.
// A nil *Limiter never blocks.
type Limiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
}

// New creates a limiter from cfg.
func New(cfg Config) *Limiter {
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = 1
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize)}
}

// ForProvider returns the default limiter for p, or nil when p is unthrottled.
func ForProvider(p domain.AIProvider) *Limiter {
	cfg, ok := DefaultConfigs[p]
	if !ok {
		return nil
	}
	return New(cfg)
}

// Wait blocks until a request may be sent or ctx ends.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	retryAt := l.retryAt
	l.mu.Unlock()

	if d := time.Until(retryAt); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return l.limiter.Wait(ctx)
}

// Backoff holds further requests for the duration named by a Retry-After
// header value, or DefaultBackoff when it is empty or unparseable.
func (l *Limiter) Backoff(retryAfter string) {
	if l == nil {
		return
	}

	d := DefaultBackoff
	if secs, err := strconv.Atoi(retryAfter); err == nil && secs > 0 {
		d = time.Duration(secs) * time.Second
	}

	l.mu.Lock()
	l.retryAt = time.Now().Add(d)
	l.mu.Unlock()
}
