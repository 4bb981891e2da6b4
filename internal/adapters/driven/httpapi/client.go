// Package httpapi carries the JSON-over-HTTP plumbing shared by the model
// provider adapters. It knows nothing about any one provider beyond the
// usual shapes of an error reply.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrUnreachable wraps failures to get any reply from the server.
var ErrUnreachable = errors.New("server unreachable")

// maxErrorBody bounds how much of an unparseable error reply is quoted.
const maxErrorBody = 512

// StatusError is a reply the server sent but the caller cannot use: a
// status other than 200, or a 200 that carries an error object.
type StatusError struct {
	Code int
	// Message is the provider's message, else the start of the body.
	Message string
	// Type and ErrCode are the provider's classification, when given.
	Type    string
	ErrCode string
	// RetryAfter is the raw Retry-After header.
	RetryAfter string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("status %d", e.Code)
	}
	return fmt.Sprintf("status %d: %s", e.Code, e.Message)
}

// Unauthorized reports a rejected or missing credential.
func (e *StatusError) Unauthorized() bool {
	return e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden
}

// Client sends JSON requests below one base URL with fixed headers.
type Client struct {
	base   string
	header http.Header
	http   *http.Client
}

// New returns a client for baseURL. header is sent on every request.
func New(baseURL string, timeout time.Duration, header http.Header) *Client {
	if header == nil {
		header = http.Header{}
	}
	return &Client{
		base:   strings.TrimRight(baseURL, "/"),
		header: header,
		http:   &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.base }

// Post sends in as JSON to path and decodes the reply into out.
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Check sends GET path and succeeds on 200. Providers answer it without
// running a model.
func (c *Client) Check(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	_, err = c.do(req)
	return err
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreachable, c.base, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read reply: %w", ErrUnreachable, err)
	}

	se, failed := replyError(body)
	if resp.StatusCode != http.StatusOK {
		if se.Message == "" {
			se.Message = clip(strings.TrimSpace(string(body)))
		}
		failed = true
	}
	if !failed {
		return body, nil
	}
	se.Code = resp.StatusCode
	se.RetryAfter = resp.Header.Get("Retry-After")
	return nil, se
}

// replyError reads the "error" member of a reply. Ollama sends a bare
// string; OpenAI and Anthropic send an object.
func replyError(body []byte) (*StatusError, bool) {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	se := &StatusError{}
	if json.Unmarshal(body, &envelope) != nil || len(envelope.Error) == 0 || string(envelope.Error) == "null" {
		return se, false
	}

	if json.Unmarshal(envelope.Error, &se.Message) == nil {
		return se, se.Message != ""
	}
	var detail struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	}
	if json.Unmarshal(envelope.Error, &detail) != nil {
		return se, false
	}
	se.Message, se.Type = detail.Message, detail.Type
	if code, ok := detail.Code.(string); ok {
		se.ErrCode = code
	}
	return se, true
}

// clip cuts s to maxErrorBody bytes without splitting a rune.
func clip(s string) string {
	if len(s) <= maxErrorBody {
		return s
	}
	cut := maxErrorBody
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
