package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

func newService(t *testing.T, handler http.HandlerFunc) *EmbeddingService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	s, err := NewEmbeddingService(Config{APIKey: "sk-test", BaseURL: srv.URL})
	require.NoError(t, err)
	return s
}

func TestNewEmbeddingService_RequiresKey(t *testing.T) {
	_, err := NewEmbeddingService(Config{})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestNewEmbeddingService_Dimensions(t *testing.T) {
	s, err := NewEmbeddingService(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, 1536, s.Dimensions())

	s, err = NewEmbeddingService(Config{APIKey: "k", Model: "text-embedding-3-large"})
	require.NoError(t, err)
	assert.Equal(t, 3072, s.Dimensions())

	s, err = NewEmbeddingService(Config{APIKey: "k", Model: "custom", Dimensions: 42})
	require.NoError(t, err)
	assert.Equal(t, 42, s.Dimensions())
}

func TestEmbedBatch_OrdersByIndex(t *testing.T) {
	s := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 1536, req.Dimensions)

		_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[0,1]},{"index":0,"embedding":[1,0]}]}`))
	})

	vecs, err := s.EmbedBatch(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vecs)
}

func TestEmbed_Unauthorized(t *testing.T) {
	s := newService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key","type":"invalid_request_error"}}`))
	})

	_, err := s.Embed(context.Background(), "text")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestEmbed_MissingEntry(t *testing.T) {
	s := newService(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[1]}]}`))
	})

	_, err := s.EmbedBatch(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestEmbedBatch_Empty(t *testing.T) {
	s := newService(t, func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatal("no request expected")
	})

	vecs, err := s.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vecs)
}
