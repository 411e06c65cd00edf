package service

import (
	"context"
	"testing"

	"github.com/quillbook/quillbook-server/internal/domain"
	domainerrors "github.com/quillbook/quillbook-server/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentService_WordCountFollowsChapters(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	ref := env.createBook(t, "Counting")

	first := env.createItem(t, ref, domain.KindChapter, "Chapter 1", "Hello world")
	assert.Equal(t, 2, env.wordCount(t, ref))

	env.createItem(t, ref, domain.KindChapter, "Chapter 2", "one two", "three")
	env.createItem(t, ref, domain.KindOutline, "Plan", "act one")
	assert.Equal(t, 7, env.wordCount(t, ref))

	require.NoError(t, env.content.Delete(ctx, ref, domain.KindChapter, first.ID))
	assert.Equal(t, 5, env.wordCount(t, ref))
	assert.True(t, env.hasActivity(testUser, domain.ActivityChapter, "Chapter 1", domain.ActionDeleted))
}

func TestContentService_IdeasDoNotCount(t *testing.T) {
	env := setupTestEnv(t)
	ref := env.createBook(t, "Notes")

	_, err := env.content.Create(context.Background(), ref, domain.KindIdea, ItemInput{
		Title:       "Twist",
		Description: "the butler did it after all",
	})
	require.NoError(t, err)
	assert.Zero(t, env.wordCount(t, ref))
}

func TestContentService_UpdateRecounts(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	ref := env.createBook(t, "Edits")
	ch := env.createItem(t, ref, domain.KindChapter, "Draft", "short")

	body := doc("a much longer paragraph now")
	title := "Final"
	updated, err := env.content.Update(ctx, ref, domain.KindChapter, ch.ID, ItemPatch{Title: &title, Content: &body})
	require.NoError(t, err)

	assert.Equal(t, "Final", updated.Title)
	assert.Equal(t, 5, env.wordCount(t, ref))
	assert.True(t, env.hasActivity(testUser, domain.ActivityChapter, "Final", domain.ActionModified))

	got, err := env.content.Get(ctx, ref, domain.KindChapter, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, body, got.Content)
}

func TestContentService_FreePlanItemLimits(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	ref := env.createBook(t, "Limits")

	for _, title := range []string{"A", "B", "C"} {
		env.createItem(t, ref, domain.KindCharacter, title)
	}
	_, err := env.content.Create(ctx, ref, domain.KindCharacter, ItemInput{Title: "D"})
	assertCode(t, err, domainerrors.ErrUpgradeRequired)

	env.createItem(t, ref, domain.KindOutline, "Only outline")
	_, err = env.content.Create(ctx, ref, domain.KindOutline, ItemInput{Title: "Second outline"})
	assertCode(t, err, domainerrors.ErrUpgradeRequired)

	items, err := env.content.List(ctx, ref, domain.KindCharacter)
	require.NoError(t, err)
	assert.Len(t, items, 3)

	// Limits are per work.
	other := env.createBook(t, "Other")
	env.createItem(t, other, domain.KindCharacter, "D")
}

func TestContentService_KindFields(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	ref := env.createBook(t, "Fields")

	_, err := env.content.Create(ctx, ref, domain.KindChapter, ItemInput{Title: "One", Role: "Villain"})
	assertCode(t, err, domainerrors.ErrValidation)

	_, err = env.content.Create(ctx, ref, domain.KindIdea, ItemInput{Title: "One", Content: doc("x")})
	assertCode(t, err, domainerrors.ErrValidation)

	_, err = env.content.Create(ctx, ref, "poem", ItemInput{Title: "One"})
	assertCode(t, err, domainerrors.ErrValidation)

	_, err = env.content.Create(ctx, ref, domain.KindIdea, ItemInput{Title: ""})
	assertCode(t, err, domainerrors.ErrValidation)

	c, err := env.content.Create(ctx, ref, domain.KindCharacter, ItemInput{Title: "Ada", Role: " Lead "})
	require.NoError(t, err)
	assert.Equal(t, "Lead", c.Role)
}

func TestContentService_MissingWork(t *testing.T) {
	env := setupTestEnv(t)
	ref := WorkRef{UserKey: testUser, Scope: domain.ScopeBook, WorkID: 42}

	_, err := env.content.Create(context.Background(), ref, domain.KindIdea, ItemInput{Title: "Lost"})
	assertCode(t, err, domainerrors.ErrNotFound)
}

func TestContentService_UsersAreIsolated(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	ref := env.createBook(t, "Mine")
	env.createItem(t, ref, domain.KindIdea, "Secret")

	other := WorkRef{UserKey: "someone@gmail.com", Scope: domain.ScopeBook, WorkID: ref.WorkID}
	_, err := env.content.List(ctx, other, domain.KindIdea)
	assertCode(t, err, domainerrors.ErrNotFound)
}

func TestContentService_DeleteCascadesToParts(t *testing.T) {
	env := setupTestEnv(t)
	env.upgrade(t, testUser)
	ctx := context.Background()
	ref := env.createBook(t, "Cascade")

	ch1 := env.createItem(t, ref, domain.KindChapter, "One")
	ch2 := env.createItem(t, ref, domain.KindChapter, "Two")
	ch3 := env.createItem(t, ref, domain.KindChapter, "Three")
	_, err := env.parts.Create(ctx, ref, PartInput{Name: "Solo", ChapterIDs: []string{ch1.ID}})
	require.NoError(t, err)
	pair, err := env.parts.Create(ctx, ref, PartInput{Name: "Pair", ChapterIDs: []string{ch2.ID, ch3.ID}})
	require.NoError(t, err)

	require.NoError(t, env.content.Delete(ctx, ref, domain.KindChapter, ch1.ID))
	require.NoError(t, env.content.Delete(ctx, ref, domain.KindChapter, ch2.ID))

	parts, err := env.parts.List(ctx, ref)
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, pair.ID, parts[0].ID)
	assert.Equal(t, []string{ch3.ID}, parts[0].ChapterIDs)
	assert.True(t, env.hasActivity(testUser, domain.ActivityPart, "Solo", domain.ActionDeleted))
}

func TestContentService_DeletePrunesNoteCards(t *testing.T) {
	env := setupTestEnv(t)
	env.upgrade(t, testUser)
	ctx := context.Background()
	ref := env.createBook(t, "Cards")

	idea := env.createItem(t, ref, domain.KindIdea, "Hook")
	ch := env.createItem(t, ref, domain.KindChapter, "One")
	card, err := env.cards.Create(ctx, ref, NoteCardInput{
		Content:    "remember the hook",
		IdeaIDs:    []string{idea.ID},
		ChapterIDs: []string{ch.ID},
	})
	require.NoError(t, err)

	require.NoError(t, env.content.Delete(ctx, ref, domain.KindChapter, ch.ID))

	cards, err := env.cards.List(ctx, ref)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, card.ID, cards[0].ID)
	assert.Empty(t, cards[0].ChapterIDs)
	assert.Equal(t, []string{idea.ID}, cards[0].IdeaIDs)
}

func TestContentService_DeleteNotifiesListeners(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	ref := env.createBook(t, "Listen")
	idea := env.createItem(t, ref, domain.KindIdea, "Gone")

	var got []string
	env.content.AddDeleteListener(func(_ WorkRef, kind domain.ContentKind, itemID string) {
		got = append(got, string(kind)+":"+itemID)
	})

	require.NoError(t, env.content.Delete(ctx, ref, domain.KindIdea, idea.ID))
	assert.Equal(t, []string{"idea:" + idea.ID}, got)

	err := env.content.Delete(ctx, ref, domain.KindIdea, idea.ID)
	assertCode(t, err, domainerrors.ErrNotFound)
}

func TestContentService_SaveContent(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	ref := env.createBook(t, "Autosave")
	ch := env.createItem(t, ref, domain.KindChapter, "One")
	before := len(env.activity.List(ctx, testUser))

	saved, err := env.content.SaveContent(ctx, ref, domain.KindChapter, ch.ID, doc("three little words"))
	require.NoError(t, err)
	assert.Equal(t, doc("three little words"), saved.Content)
	assert.Equal(t, 3, env.wordCount(t, ref))
	assert.Len(t, env.activity.List(ctx, testUser), before)

	_, err = env.content.SaveContent(ctx, ref, domain.KindIdea, ch.ID, doc("x"))
	assertCode(t, err, domainerrors.ErrValidation)
}

type recordingIndexer struct {
	indexed   []string
	unindexed []string
}

func (r *recordingIndexer) Index(_ context.Context, _ WorkRef, item *domain.ContentItem) {
	r.indexed = append(r.indexed, item.ID)
}

func (r *recordingIndexer) Unindex(_ context.Context, _ WorkRef, ids ...string) {
	r.unindexed = append(r.unindexed, ids...)
}

func TestContentService_KeepsIndexInStep(t *testing.T) {
	env := setupTestEnv(t)
	idx := &recordingIndexer{}
	env.content.index = idx
	env.works.index = idx
	ctx := context.Background()
	ref := env.createBook(t, "Indexed")

	a := env.createItem(t, ref, domain.KindChapter, "A")
	b := env.createItem(t, ref, domain.KindIdea, "B")
	require.NoError(t, env.content.Delete(ctx, ref, domain.KindChapter, a.ID))
	require.NoError(t, env.works.Delete(ctx, ref))

	assert.Equal(t, []string{a.ID, b.ID}, idx.indexed)
	assert.Equal(t, []string{a.ID, b.ID}, idx.unindexed)
}
