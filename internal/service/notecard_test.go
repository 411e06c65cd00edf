package service

import (
	"context"
	"strings"
	"testing"

	"github.com/quillbook/quillbook-server/internal/domain"
	domainerrors "github.com/quillbook/quillbook-server/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteCardService_RequiresPaidPlan(t *testing.T) {
	env := setupTestEnv(t)
	ref := env.createBook(t, "Free")

	_, err := env.cards.Create(context.Background(), ref, NoteCardInput{Content: "note"})
	assertCode(t, err, domainerrors.ErrUpgradeRequired)
}

func TestNoteCardService_Create(t *testing.T) {
	env := setupTestEnv(t)
	env.upgrade(t, testUser)
	ctx := context.Background()
	ref := env.createBook(t, "Board")
	char := env.createItem(t, ref, domain.KindCharacter, "Ada")

	card, err := env.cards.Create(ctx, ref, NoteCardInput{Content: "motivation?", CharacterIDs: []string{char.ID}})
	require.NoError(t, err)
	assert.Equal(t, domain.ColorYellow, card.Color)
	assert.Equal(t, []string{char.ID}, card.CharacterIDs)
	assert.True(t, env.hasActivity(testUser, domain.ActivityNoteCard, "motivation?", domain.ActionCreated))

	_, err = env.cards.Create(ctx, ref, NoteCardInput{Content: "x", Color: "teal"})
	assertCode(t, err, domainerrors.ErrValidation)

	_, err = env.cards.Create(ctx, ref, NoteCardInput{Content: "x", IdeaIDs: []string{"nope"}})
	assertCode(t, err, domainerrors.ErrValidation)

	_, err = env.cards.Create(ctx, ref, NoteCardInput{Content: "  "})
	assertCode(t, err, domainerrors.ErrValidation)
}

func TestNoteCardService_UpdateAndDelete(t *testing.T) {
	env := setupTestEnv(t)
	env.upgrade(t, testUser)
	ctx := context.Background()
	ref := env.createBook(t, "Board")

	card, err := env.cards.Create(ctx, ref, NoteCardInput{Title: "Theme", Content: "loss"})
	require.NoError(t, err)

	blue := domain.ColorBlue
	updated, err := env.cards.Update(ctx, ref, card.ID, NoteCardPatch{Color: &blue})
	require.NoError(t, err)
	assert.Equal(t, domain.ColorBlue, updated.Color)
	assert.Equal(t, "loss", updated.Content)

	require.NoError(t, env.cards.Delete(ctx, ref, card.ID))
	cards, err := env.cards.List(ctx, ref)
	require.NoError(t, err)
	assert.Empty(t, cards)
	assert.True(t, env.hasActivity(testUser, domain.ActivityNoteCard, "Theme", domain.ActionDeleted))

	_, err = env.cards.Update(ctx, ref, card.ID, NoteCardPatch{Color: &blue})
	assertCode(t, err, domainerrors.ErrNotFound)
}

func TestNoteCardService_Move(t *testing.T) {
	env := setupTestEnv(t)
	env.upgrade(t, testUser)
	ctx := context.Background()
	ref := env.createBook(t, "Board")

	var ids []string
	for _, c := range []string{"a", "b", "c", "d"} {
		card, err := env.cards.Create(ctx, ref, NoteCardInput{Content: c})
		require.NoError(t, err)
		ids = append(ids, card.ID)
	}

	moved, err := env.cards.Move(ctx, ref, ids[3], ids[1])
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "d", "b", "c"}, contents(moved))

	cards, err := env.cards.List(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "d", "b", "c"}, contents(cards))

	_, err = env.cards.Move(ctx, ref, ids[0], "card-missing")
	assertCode(t, err, domainerrors.ErrNotFound)
}

func TestCardLabel(t *testing.T) {
	assert.Equal(t, "Title", cardLabel(&domain.NoteCard{Title: "Title", Content: "body"}))
	assert.Equal(t, "short body", cardLabel(&domain.NoteCard{Content: "short\n body"}))

	long := strings.Repeat("word ", 20)
	label := cardLabel(&domain.NoteCard{Content: long})
	assert.True(t, strings.HasSuffix(label, "..."))
	assert.Len(t, []rune(label), 43)
}

func contents(cards []domain.NoteCard) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.Content
	}
	return out
}
