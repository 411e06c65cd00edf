package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/quillbook/quillbook-server/internal/domain"
	domainerrors "github.com/quillbook/quillbook-server/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookRef = WorkRef{UserKey: testUser, Scope: domain.ScopeBook, WorkID: 1}

func TestActivityLog_NewestFirstAndCapped(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	for i := range 55 {
		assert.True(t, env.activity.Append(ctx, bookRef, domain.ActivityIdea, fmt.Sprintf("Idea %d", i), domain.ActionCreated))
	}

	entries := env.activity.List(ctx, testUser)
	require.Len(t, entries, domain.MaxActivityEntries)
	assert.Equal(t, "Idea 54", entries[0].Title)
	assert.Equal(t, "Idea 5", entries[len(entries)-1].Title)
	assert.Equal(t, domain.ScopeBook, entries[0].Scope)
	assert.Equal(t, 1, entries[0].WorkID)
}

func TestActivityLog_Dedup(t *testing.T) {
	env := setupTestEnv(t)
	clock := newFakeClock()
	env.activity.now = clock.Now
	ctx := context.Background()

	assert.True(t, env.activity.Append(ctx, bookRef, domain.ActivityChapter, "One", domain.ActionModified))

	clock.Advance(time.Second)
	assert.False(t, env.activity.Append(ctx, bookRef, domain.ActivityChapter, "One", domain.ActionModified))
	assert.True(t, env.activity.Append(ctx, bookRef, domain.ActivityChapter, "One", domain.ActionDeleted))
	assert.True(t, env.activity.Append(ctx, bookRef, domain.ActivityChapter, "Two", domain.ActionModified))

	clock.Advance(domain.ActivityDedupWindow)
	assert.True(t, env.activity.Append(ctx, bookRef, domain.ActivityChapter, "One", domain.ActionModified))

	assert.Len(t, env.activity.List(ctx, testUser), 4)
}

func TestActivityLog_SpansScopes(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	story := WorkRef{UserKey: testUser, Scope: domain.ScopeQuickStory, WorkID: 1}

	env.activity.Append(ctx, bookRef, domain.ActivityChapter, "Book chapter", domain.ActionCreated)
	env.activity.Append(ctx, story, domain.ActivityStory, "Story", domain.ActionCreated)

	entries := env.activity.List(ctx, testUser)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.ScopeQuickStory, entries[0].Scope)
	assert.Empty(t, env.activity.List(ctx, "other@gmail.com"))
}

func TestActivityLog_Remove(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.activity.Append(ctx, bookRef, domain.ActivityIdea, "Keep", domain.ActionCreated)
	env.activity.Append(ctx, bookRef, domain.ActivityIdea, "Drop", domain.ActionCreated)

	entries := env.activity.List(ctx, testUser)
	require.NoError(t, env.activity.Remove(ctx, testUser, entries[0].ID))

	entries = env.activity.List(ctx, testUser)
	require.Len(t, entries, 1)
	assert.Equal(t, "Keep", entries[0].Title)

	assertCode(t, env.activity.Remove(ctx, testUser, "act-missing"), domainerrors.ErrNotFound)
}

func TestActivityLog_WriteFailureIsSwallowed(t *testing.T) {
	env := setupTestEnv(t)
	env.kv.FailWrites = errors.New("disk full")

	assert.False(t, env.activity.Append(context.Background(), bookRef, domain.ActivityIdea, "Lost", domain.ActionCreated))
}
