package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

func doc(id, name string, created time.Time) *domain.Document {
	return &domain.Document{ID: id, Name: name, Content: "text of " + name, CreatedAt: created, UpdatedAt: created}
}

func TestDocumentStore_CRUD(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.SaveDocument(ctx, doc("b", "Second", now)))
	require.NoError(t, store.SaveDocument(ctx, doc("a", "First", now.Add(-time.Minute))))

	got, err := store.GetDocument(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "First", got.Name)

	list, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, len("text of First"), list[0].CharCount)

	require.NoError(t, store.RenameDocument(ctx, "a", "Renamed"))
	got, err = store.GetDocument(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)

	require.NoError(t, store.DeleteDocument(ctx, "a"))
	_, err = store.GetDocument(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_Errors(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	assert.ErrorIs(t, store.SaveDocument(ctx, nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.RenameDocument(ctx, "x", "y"), domain.ErrNotFound)
	assert.ErrorIs(t, store.DeleteDocument(ctx, "x"), domain.ErrNotFound)
}

func TestDocumentStore_ReturnsCopies(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	require.NoError(t, store.SaveDocument(ctx, doc("a", "Book", time.Now())))

	got, err := store.GetDocument(ctx, "a")
	require.NoError(t, err)
	got.Name = "mutated"

	again, err := store.GetDocument(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Book", again.Name)
}

func TestChapterCache(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	require.NoError(t, store.SaveDocument(ctx, doc("a", "Book", time.Now())))

	_, found, err := store.GetChapterMetadata(ctx, "a")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.SaveChapterMetadata(ctx, "a", nil))
	spans, found, err := store.GetChapterMetadata(ctx, "a")
	require.NoError(t, err)
	assert.True(t, found)
	assert.NotNil(t, spans)
	assert.Empty(t, spans)

	require.NoError(t, store.SaveChapterMetadata(ctx, "a", []domain.ChapterSpan{{Number: "1"}}))
	spans, _, err = store.GetChapterMetadata(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, spans, 1)

	assert.ErrorIs(t, store.SaveChapterMetadata(ctx, "ghost", nil), domain.ErrNotFound)

	// Deleting the document drops its cache.
	require.NoError(t, store.DeleteDocument(ctx, "a"))
	_, found, err = store.GetChapterMetadata(ctx, "a")
	require.NoError(t, err)
	assert.False(t, found)
}
