package store

import (
	"context"
	"testing"
	"time"

	"github.com/quillbook/quillbook-server/internal/domain"
	"github.com/quillbook/quillbook-server/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a badger store in a temp directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// backends runs fn against every in-package KV implementation.
func backends(t *testing.T, fn func(t *testing.T, kv KV)) {
	t.Run("badger", func(t *testing.T) { fn(t, setupTestStore(t)) })
	t.Run("memory", func(t *testing.T) { fn(t, NewMemory()) })
}

func TestKV_GetSetDelete(t *testing.T) {
	backends(t, func(t *testing.T, kv KV) {
		ctx := context.Background()

		_, err := kv.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, kv.Set(ctx, "k", []byte("v1")))
		got, err := kv.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "v1", string(got))

		require.NoError(t, kv.Delete(ctx, "k"))
		require.NoError(t, kv.Delete(ctx, "k"))
		_, err = kv.Get(ctx, "k")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestKV_KeysByPrefix(t *testing.T) {
	backends(t, func(t *testing.T, kv KV) {
		ctx := context.Background()
		for _, k := range []string{"book-works-b", "book-works-a", "quickstory-works-a"} {
			require.NoError(t, kv.Set(ctx, k, []byte("[]")))
		}

		keys, err := kv.Keys(ctx, "book-")
		require.NoError(t, err)
		assert.Equal(t, []string{"book-works-a", "book-works-b"}, keys)
	})
}

func TestKV_EmptyKeyRejected(t *testing.T) {
	backends(t, func(t *testing.T, kv KV) {
		assert.ErrorIs(t, kv.Set(context.Background(), " ", []byte("x")), ErrEmptyKey)
	})
}

func TestKeys_ScopesDoNotCollide(t *testing.T) {
	book := ItemsKey(domain.ScopeBook, domain.KindChapter, 1, "a@gmail.com")
	story := ItemsKey(domain.ScopeQuickStory, domain.KindChapter, 1, "a@gmail.com")

	assert.Equal(t, "book-chapter-1-a@gmail.com", book)
	assert.Equal(t, "quickstory-chapter-1-a@gmail.com", story)
	assert.NotEqual(t, WorksKey(domain.ScopeBook, "u"), WorksKey(domain.ScopeQuickStory, "u"))
	assert.Len(t, WorkCollectionKeys(domain.ScopeBook, 1, "u"), len(domain.ContentKinds)+2)
}

func TestCollection_RoundTrip(t *testing.T) {
	kv := NewMemory()
	col := NewCollection[domain.ContentItem](kv, logger.Discard())
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	item := domain.ContentItem{
		ID:        "0190c7a4-0000-7000-8000-000000000001",
		WorkID:    1,
		Kind:      domain.KindChapter,
		Title:     "Chapter 1",
		Content:   `{"ops":[{"insert":"Hello world\n"}]}`,
		CreatedAt: now,
		UpdatedAt: now.Add(time.Second),
	}
	key := ItemsKey(domain.ScopeBook, domain.KindChapter, 1, "a@gmail.com")

	require.NoError(t, col.Save(ctx, key, []domain.ContentItem{item}))
	loaded := col.Load(ctx, key)

	require.Len(t, loaded, 1)
	assert.Equal(t, item, loaded[0])
}

func TestCollection_CorruptIsEmpty(t *testing.T) {
	kv := NewMemory()
	kv.SetRaw("book-idea-1-u", []byte("{not json"))
	col := NewCollection[domain.ContentItem](kv, logger.Discard())

	assert.Empty(t, col.Load(context.Background(), "book-idea-1-u"))

	_, err := col.LoadStrict(context.Background(), "book-idea-1-u")
	assert.Error(t, err)
}

func TestCollection_MissingIsEmptyNotNil(t *testing.T) {
	col := NewCollection[domain.Part](NewMemory(), logger.Discard())

	parts := col.Load(context.Background(), "book-parts-1-u")
	assert.NotNil(t, parts)
	assert.Empty(t, parts)
}

func TestValue_RoundTrip(t *testing.T) {
	kv := NewMemory()
	ctx := context.Background()

	_, ok, err := LoadValue[domain.Plan](ctx, kv, PlanKey("u"))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, SaveValue(ctx, kv, PlanKey("u"), domain.Plan{Type: domain.PlanPaid, Status: domain.PlanActive}))
	plan, ok, err := LoadValue[domain.Plan](ctx, kv, PlanKey("u"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, domain.PlanPaid, plan.Type)
}

func TestParseItemsKey(t *testing.T) {
	scope, kind, workID, user, ok := ParseItemsKey(ItemsKey(domain.ScopeQuickStory, domain.KindStory, 12, "first-last@gmail.com"))
	require.True(t, ok)
	assert.Equal(t, domain.ScopeQuickStory, scope)
	assert.Equal(t, domain.KindStory, kind)
	assert.Equal(t, 12, workID)
	assert.Equal(t, "first-last@gmail.com", user)

	for _, key := range []string{
		WorksKey(domain.ScopeBook, "u"),
		ContentKey(domain.ScopeBook, CollectionParts, 1, "u"),
		"book-chapter-x-u",
		"book-chapter-1-",
		PlanKey("u"),
	} {
		_, _, _, _, ok := ParseItemsKey(key)
		assert.False(t, ok, key)
	}
}
