package service

import (
	"context"
	"testing"

	"github.com/quillbook/quillbook-server/internal/domain"
	domainerrors "github.com/quillbook/quillbook-server/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartService_RequiresPaidPlan(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	ref := env.createBook(t, "Free")
	ch := env.createItem(t, ref, domain.KindChapter, "One")

	_, err := env.parts.Create(ctx, ref, PartInput{Name: "Part I", ChapterIDs: []string{ch.ID}})
	assertCode(t, err, domainerrors.ErrUpgradeRequired)

	parts, err := env.parts.List(ctx, ref)
	require.NoError(t, err)
	assert.Empty(t, parts)
}

func TestPartService_ItemBelongsToOnePart(t *testing.T) {
	env := setupTestEnv(t)
	env.upgrade(t, testUser)
	ctx := context.Background()
	ref := env.createBook(t, "Parts")
	ch1 := env.createItem(t, ref, domain.KindChapter, "One")
	ch2 := env.createItem(t, ref, domain.KindChapter, "Two")

	first, err := env.parts.Create(ctx, ref, PartInput{Name: " Part I ", ChapterIDs: []string{ch1.ID, ch1.ID, " "}})
	require.NoError(t, err)
	assert.Equal(t, "Part I", first.Name)
	assert.Equal(t, []string{ch1.ID}, first.ChapterIDs)

	_, err = env.parts.Create(ctx, ref, PartInput{Name: "Part II", ChapterIDs: []string{ch2.ID, ch1.ID}})
	assertCode(t, err, domainerrors.ErrConflict)
	var de *domainerrors.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, map[string]string{"item_id": ch1.ID, "part_id": first.ID}, de.Details)

	// Re-saving a part with its own items is fine.
	name := "Part One"
	updated, err := env.parts.Update(ctx, ref, first.ID, PartPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, []string{ch1.ID}, updated.ChapterIDs)

	ids := []string{ch1.ID, ch2.ID}
	updated, err = env.parts.Update(ctx, ref, first.ID, PartPatch{ChapterIDs: &ids})
	require.NoError(t, err)
	assert.Equal(t, ids, updated.ChapterIDs)
}

func TestPartService_ReferencesMustExist(t *testing.T) {
	env := setupTestEnv(t)
	env.upgrade(t, testUser)
	ctx := context.Background()
	ref := env.createBook(t, "Refs")

	_, err := env.parts.Create(ctx, ref, PartInput{Name: "Ghost", ChapterIDs: []string{"missing"}})
	assertCode(t, err, domainerrors.ErrValidation)

	_, err = env.parts.Create(ctx, ref, PartInput{Name: "Empty"})
	assertCode(t, err, domainerrors.ErrValidation)

	_, err = env.parts.Update(ctx, ref, "part-missing", PartPatch{})
	assertCode(t, err, domainerrors.ErrNotFound)
}

func TestPartService_MixesChaptersAndStories(t *testing.T) {
	env := setupTestEnv(t)
	env.upgrade(t, testUser)
	ctx := context.Background()
	ref := env.createBook(t, "Mixed")
	ch := env.createItem(t, ref, domain.KindChapter, "Chapter")
	st := env.createItem(t, ref, domain.KindStory, "Story")

	part, err := env.parts.Create(ctx, ref, PartInput{Name: "Both", ChapterIDs: []string{ch.ID}, StoryIDs: []string{st.ID}})
	require.NoError(t, err)

	// Deleting one leaves the part alive.
	require.NoError(t, env.content.Delete(ctx, ref, domain.KindStory, st.ID))
	parts, err := env.parts.List(ctx, ref)
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, part.ID, parts[0].ID)
	assert.Empty(t, parts[0].StoryIDs)
}

func TestPartService_DeleteKeepsItems(t *testing.T) {
	env := setupTestEnv(t)
	env.upgrade(t, testUser)
	ctx := context.Background()
	ref := env.createBook(t, "Keep")
	ch := env.createItem(t, ref, domain.KindChapter, "Survivor")

	part, err := env.parts.Create(ctx, ref, PartInput{Name: "Temporary", ChapterIDs: []string{ch.ID}})
	require.NoError(t, err)
	require.NoError(t, env.parts.Delete(ctx, ref, part.ID))

	_, err = env.content.Get(ctx, ref, domain.KindChapter, ch.ID)
	assert.NoError(t, err)
	assert.True(t, env.hasActivity(testUser, domain.ActivityPart, "Temporary", domain.ActionDeleted))
	assertCode(t, env.parts.Delete(ctx, ref, part.ID), domainerrors.ErrNotFound)
}
