package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marginalia/internal/adapters/driven/embedding/local"
	"github.com/custodia-labs/marginalia/internal/adapters/driven/passages/textindex"
	"github.com/custodia-labs/marginalia/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/postprocessors/chunker"
)

type indexFixture struct {
	service  *IndexService
	embedder *countingEmbedder
	chunks   *memory.ChunkStore
}

func newIndexFixture(t *testing.T, withPassages bool, opts ...chunker.Option) *indexFixture {
	t.Helper()

	c, err := chunker.New(opts...)
	require.NoError(t, err)
	base, err := local.NewEmbeddingService(0)
	require.NoError(t, err)
	embedder := &countingEmbedder{EmbeddingService: base}
	chunks := memory.NewChunkStore()

	var service *IndexService
	if withPassages {
		passages, err := textindex.Open("")
		require.NoError(t, err)
		t.Cleanup(func() { _ = passages.Close() })
		service = NewIndexService(c, embedder, chunks, passages)
	} else {
		service = NewIndexService(c, embedder, chunks, nil)
	}

	return &indexFixture{service: service, embedder: embedder, chunks: chunks}
}

func longText(sentences int) string {
	var b strings.Builder
	for i := range sentences {
		b.WriteString("Sentence number ")
		b.WriteString(strings.Repeat("x", i%7+1))
		b.WriteString(" tells of the sea and the whale. ")
	}
	return b.String()
}

func TestIndexService_AddDocument(t *testing.T) {
	f := newIndexFixture(t, false, chunker.WithChunkSize(200), chunker.WithOverlap(40))
	ctx := context.Background()

	n, err := f.service.AddDocument(ctx, "moby", longText(30), "Moby Dick")
	require.NoError(t, err)
	assert.Greater(t, n, 1)

	indexed, err := f.service.IsIndexed(ctx, "moby")
	require.NoError(t, err)
	assert.True(t, indexed)

	chunks, err := f.service.GetAllChunks(ctx, "moby")
	require.NoError(t, err)
	require.Len(t, chunks, n)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, n, c.Total)
		assert.Equal(t, domain.ChunkID("moby", i), c.ID)
		assert.Equal(t, "Moby Dick", c.DocumentName)
		assert.NotEmpty(t, c.Embedding)
	}
}

func TestIndexService_AddDocument_Idempotent(t *testing.T) {
	f := newIndexFixture(t, false, chunker.WithChunkSize(200), chunker.WithOverlap(40))
	ctx := context.Background()
	text := longText(30)

	first, err := f.service.AddDocument(ctx, "moby", text, "Moby Dick")
	require.NoError(t, err)
	before, err := f.service.GetAllChunks(ctx, "moby")
	require.NoError(t, err)

	second, err := f.service.AddDocument(ctx, "moby", text, "Moby Dick")
	require.NoError(t, err)
	after, err := f.service.GetAllChunks(ctx, "moby")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, before, after)
}

func TestIndexService_AddDocument_ShrinkingReplacesEverything(t *testing.T) {
	f := newIndexFixture(t, false, chunker.WithChunkSize(200), chunker.WithOverlap(40))
	ctx := context.Background()

	_, err := f.service.AddDocument(ctx, "doc", longText(30), "Doc")
	require.NoError(t, err)

	n, err := f.service.AddDocument(ctx, "doc", "A single short line.", "Doc")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	count, err := f.chunks.CountDocumentChunks(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIndexService_AddDocument_WhitespaceClearsEntries(t *testing.T) {
	f := newIndexFixture(t, false)
	ctx := context.Background()

	_, err := f.service.AddDocument(ctx, "doc", "Some text.", "Doc")
	require.NoError(t, err)
	calls := f.embedder.Calls()

	n, err := f.service.AddDocument(ctx, "doc", " \n\t ", "Doc")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, calls, f.embedder.Calls())

	indexed, err := f.service.IsIndexed(ctx, "doc")
	require.NoError(t, err)
	assert.False(t, indexed)
}

func TestIndexService_AddDocument_EmbeddingFailureKeepsOldEntries(t *testing.T) {
	f := newIndexFixture(t, false)
	ctx := context.Background()

	_, err := f.service.AddDocument(ctx, "doc", "Original text.", "Doc")
	require.NoError(t, err)

	f.embedder.err = errors.New("model crashed")
	_, err = f.service.AddDocument(ctx, "doc", "Replacement text.", "Doc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model crashed")

	chunks, err := f.service.GetAllChunks(ctx, "doc")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Original text.", chunks[0].Content)
}

func TestIndexService_AddDocument_RequiresID(t *testing.T) {
	f := newIndexFixture(t, false)

	_, err := f.service.AddDocument(context.Background(), "", "text", "Doc")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIndexService_NoEmbedder(t *testing.T) {
	c, err := chunker.New()
	require.NoError(t, err)
	service := NewIndexService(c, nil, memory.NewChunkStore(), nil)
	ctx := context.Background()

	_, err = service.AddDocument(ctx, "doc", "text", "Doc")
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)

	_, err = service.Search(ctx, "text", domain.SearchOptions{})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestIndexService_DeleteDocument(t *testing.T) {
	f := newIndexFixture(t, false)
	ctx := context.Background()

	_, err := f.service.AddDocument(ctx, "doc", "Some text.", "Doc")
	require.NoError(t, err)

	removed, err := f.service.DeleteDocument(ctx, "doc")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = f.service.DeleteDocument(ctx, "doc")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestIndexService_Search(t *testing.T) {
	f := newIndexFixture(t, false)
	ctx := context.Background()

	_, err := f.service.AddDocument(ctx, "sea", "The whale swam through the cold grey sea.", "Sea")
	require.NoError(t, err)
	_, err = f.service.AddDocument(ctx, "garden", "Roses and tulips bloomed in the walled garden.", "Garden")
	require.NoError(t, err)
	_, err = f.service.AddDocument(ctx, "kitchen", "Bread baked slowly in the warm kitchen oven.", "Kitchen")
	require.NoError(t, err)

	t.Run("ranks the closest chunk first", func(t *testing.T) {
		results, err := f.service.Search(ctx, "whale sea", domain.SearchOptions{TopK: 3})
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, "sea", results[0].Metadata.DocumentID)
		for i := 1; i < len(results); i++ {
			require.NotNil(t, results[i].Distance)
			assert.LessOrEqual(t, *results[i-1].Distance, *results[i].Distance)
		}
	})

	t.Run("respects top k", func(t *testing.T) {
		results, err := f.service.Search(ctx, "whale", domain.SearchOptions{TopK: 1})
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("scoped to documents", func(t *testing.T) {
		results, err := f.service.Search(ctx, "whale sea", domain.SearchOptions{DocIDs: []string{"garden", "kitchen"}})
		require.NoError(t, err)
		require.Len(t, results, 2)
		for _, r := range results {
			assert.NotEqual(t, "sea", r.Metadata.DocumentID)
		}
	})

	t.Run("empty scope matches nothing", func(t *testing.T) {
		calls := f.embedder.Calls()
		results, err := f.service.Search(ctx, "whale", domain.SearchOptions{DocIDs: []string{}})
		require.NoError(t, err)
		assert.NotNil(t, results)
		assert.Empty(t, results)
		assert.Equal(t, calls, f.embedder.Calls())
	})

	t.Run("blank query", func(t *testing.T) {
		calls := f.embedder.Calls()
		results, err := f.service.Search(ctx, "   ", domain.SearchOptions{})
		require.NoError(t, err)
		assert.Empty(t, results)
		assert.Equal(t, calls, f.embedder.Calls())
	})
}

func TestIndexService_SearchPassages(t *testing.T) {
	t.Run("without passage index", func(t *testing.T) {
		f := newIndexFixture(t, false)
		_, err := f.service.SearchPassages(context.Background(), "whale", nil, 5)
		assert.ErrorIs(t, err, domain.ErrPassageIndexUnavailable)
	})

	t.Run("mirrors the chunk index", func(t *testing.T) {
		f := newIndexFixture(t, true)
		ctx := context.Background()

		_, err := f.service.AddDocument(ctx, "sea", "Queequeg sharpened his harpoon.", "Sea")
		require.NoError(t, err)

		passages, err := f.service.SearchPassages(ctx, "harpoon", nil, 5)
		require.NoError(t, err)
		require.Len(t, passages, 1)
		assert.Equal(t, domain.ChunkID("sea", 0), passages[0].ChunkID)

		_, err = f.service.AddDocument(ctx, "sea", "Ahab paced the deck.", "Sea")
		require.NoError(t, err)
		passages, err = f.service.SearchPassages(ctx, "harpoon", nil, 5)
		require.NoError(t, err)
		assert.Empty(t, passages)

		_, err = f.service.DeleteDocument(ctx, "sea")
		require.NoError(t, err)
		passages, err = f.service.SearchPassages(ctx, "Ahab", nil, 5)
		require.NoError(t, err)
		assert.Empty(t, passages)
	})
}
