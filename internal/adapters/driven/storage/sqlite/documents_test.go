package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

func TestDocumentStore_SaveAndGet(t *testing.T) {
	store := setupTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	doc := testDocument("d1", "Moby Dick", "Call me Ishmael.")
	doc.Path = "/books/moby.txt"
	require.NoError(t, docs.SaveDocument(ctx, doc))

	got, err := docs.GetDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, doc.Name, got.Name)
	assert.Equal(t, doc.Content, got.Content)
	assert.Equal(t, doc.Path, got.Path)
	assert.Equal(t, doc.MIMEType, got.MIMEType)
	assert.True(t, doc.CreatedAt.Equal(got.CreatedAt))
}

func TestDocumentStore_SaveUpserts(t *testing.T) {
	store := setupTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	require.NoError(t, docs.SaveDocument(ctx, testDocument("d1", "Old", "a")))
	require.NoError(t, docs.SaveDocument(ctx, testDocument("d1", "New", "b")))

	list, err := docs.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "New", list[0].Name)
}

func TestDocumentStore_SaveRejectsMissingID(t *testing.T) {
	store := setupTestStore(t)
	err := store.DocumentStore().SaveDocument(context.Background(), &domain.Document{Name: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDocumentStore_GetMissing(t *testing.T) {
	store := setupTestStore(t)
	_, err := store.DocumentStore().GetDocument(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_ListOldestFirst(t *testing.T) {
	store := setupTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	older := testDocument("a", "Older", "héllo")
	older.CreatedAt = older.CreatedAt.Add(-time.Hour)
	require.NoError(t, docs.SaveDocument(ctx, testDocument("b", "Newer", "world")))
	require.NoError(t, docs.SaveDocument(ctx, older))

	list, err := docs.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, 5, list[0].CharCount)
	assert.Equal(t, "b", list[1].ID)
}

func TestDocumentStore_Rename(t *testing.T) {
	store := setupTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	require.NoError(t, docs.SaveDocument(ctx, testDocument("d1", "Draft", "text")))
	require.NoError(t, docs.RenameDocument(ctx, "d1", "Final"))

	got, err := docs.GetDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "Final", got.Name)

	assert.ErrorIs(t, docs.RenameDocument(ctx, "missing", "x"), domain.ErrNotFound)
}

func TestDocumentStore_DeleteCascadesChapters(t *testing.T) {
	store := setupTestStore(t)
	docs := store.DocumentStore()
	cache := store.ChapterCache()
	ctx := context.Background()

	require.NoError(t, docs.SaveDocument(ctx, testDocument("d1", "Book", "text")))
	require.NoError(t, cache.SaveChapterMetadata(ctx, "d1", []domain.ChapterSpan{{Index: 0, Number: "1"}}))

	require.NoError(t, docs.DeleteDocument(ctx, "d1"))

	_, found, err := cache.GetChapterMetadata(ctx, "d1")
	require.NoError(t, err)
	assert.False(t, found)

	assert.ErrorIs(t, docs.DeleteDocument(ctx, "d1"), domain.ErrNotFound)
}
