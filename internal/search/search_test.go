package search

import (
	"context"
	"testing"
	"time"

	"github.com/quillbook/quillbook-server/internal/domain"
	"github.com/quillbook/quillbook-server/internal/logger"
	"github.com/quillbook/quillbook-server/internal/richtext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestIndex(t *testing.T, dir string) *Index {
	t.Helper()
	idx, err := Open(Options{DataPath: dir, Logger: logger.Discard()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func chapter(id string, workID int, title string, paragraphs ...string) *domain.ContentItem {
	return &domain.ContentItem{
		ID:        id,
		WorkID:    workID,
		Kind:      domain.KindChapter,
		Title:     title,
		Content:   richtext.FromParagraphs(paragraphs),
		UpdatedAt: time.Now(),
	}
}

func TestIndex_SearchBody(t *testing.T) {
	idx := setupTestIndex(t, "")
	require.NoError(t, idx.Put(NewDocument("a@gmail.com", domain.ScopeBook, chapter("c1", 1, "Arrival", "The dragon landed on the tower."))))
	require.NoError(t, idx.Put(NewDocument("a@gmail.com", domain.ScopeBook, chapter("c2", 1, "Departure", "Nobody left the village."))))

	res, err := idx.Search(context.Background(), Params{Owner: "a@gmail.com", Scope: domain.ScopeBook, Query: "dragons"})
	require.NoError(t, err)

	require.Len(t, res.Hits, 1)
	assert.Equal(t, "c1", res.Hits[0].ItemID)
	assert.Equal(t, 1, res.Hits[0].WorkID)
	assert.Equal(t, domain.KindChapter, res.Hits[0].Kind)
	assert.Equal(t, "Arrival", res.Hits[0].Title)
	assert.NotEmpty(t, res.Hits[0].Fragments)
}

func TestIndex_OwnerIsolation(t *testing.T) {
	idx := setupTestIndex(t, "")
	require.NoError(t, idx.PutAll([]*Document{
		NewDocument("a@gmail.com", domain.ScopeBook, chapter("c1", 1, "Secret", "hidden words")),
		NewDocument("b@gmail.com", domain.ScopeBook, chapter("c1", 1, "Secret", "hidden words")),
	}))

	count, err := idx.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	res, err := idx.Search(context.Background(), Params{Owner: "b@gmail.com", Query: "secret"})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Total)
}

func TestIndex_WorkAndScopeFilters(t *testing.T) {
	idx := setupTestIndex(t, "")
	require.NoError(t, idx.Put(NewDocument("u", domain.ScopeBook, chapter("c1", 1, "Storm"))))
	require.NoError(t, idx.Put(NewDocument("u", domain.ScopeBook, chapter("c2", 2, "Storm"))))
	require.NoError(t, idx.Put(NewDocument("u", domain.ScopeQuickStory, chapter("c3", 1, "Storm"))))

	res, err := idx.Search(context.Background(), Params{Owner: "u", Scope: domain.ScopeBook, WorkID: 2, Query: "storm"})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "c2", res.Hits[0].ItemID)
}

func TestIndex_Remove(t *testing.T) {
	idx := setupTestIndex(t, "")
	doc := NewDocument("u", domain.ScopeBook, chapter("c1", 1, "Gone", "soon"))
	require.NoError(t, idx.Put(doc))

	require.NoError(t, idx.Remove(doc.ID()))

	res, err := idx.Search(context.Background(), Params{Owner: "u", Query: "gone"})
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
}

func TestIndex_RequiresOwner(t *testing.T) {
	idx := setupTestIndex(t, "")
	_, err := idx.Search(context.Background(), Params{Query: "x"})
	assert.Error(t, err)
}

func TestOpen_OnDiskReopen(t *testing.T) {
	dir := t.TempDir()
	idx, err := Open(Options{DataPath: dir, Logger: logger.Discard()})
	require.NoError(t, err)
	require.NoError(t, idx.Put(NewDocument("u", domain.ScopeBook, chapter("c1", 1, "Kept"))))
	require.NoError(t, idx.Close())

	reopened := setupTestIndex(t, dir)
	count, err := reopened.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestNewDocument_CharacterUsesDescription(t *testing.T) {
	item := &domain.ContentItem{ID: "ch1", WorkID: 1, Kind: domain.KindCharacter, Title: "Ada", Role: "Protagonist", Description: "An engineer."}

	doc := NewDocument("u", domain.ScopeBook, item)

	assert.Equal(t, "Protagonist\nAn engineer.", doc.Body)
	assert.Equal(t, "u/book/1/ch1", doc.ID())
}
