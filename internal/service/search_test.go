package service

import (
	"context"
	"testing"

	"github.com/quillbook/quillbook-server/internal/domain"
	domainerrors "github.com/quillbook/quillbook-server/internal/errors"
	"github.com/quillbook/quillbook-server/internal/logger"
	"github.com/quillbook/quillbook-server/internal/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSearch(t *testing.T, env *testEnv) *SearchService {
	t.Helper()
	idx, err := search.Open(search.Options{Logger: logger.Discard()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	svc := NewSearchService(idx, logger.Discard())
	env.works.index = svc
	env.content.index = svc
	return svc
}

func TestSearchService_FollowsContentWrites(t *testing.T) {
	env := setupTestEnv(t)
	svc := setupSearch(t, env)
	ctx := context.Background()
	ref := env.createBook(t, "Searchable")

	ch := env.createItem(t, ref, domain.KindChapter, "Storm", "Lightning split the mast.")
	env.createItem(t, ref, domain.KindIdea, "Calm")

	res, err := svc.Search(ctx, ref, "lightning", nil, 10)
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, ch.ID, res.Hits[0].ItemID)

	_, err = env.content.SaveContent(ctx, ref, domain.KindChapter, ch.ID, doc("Thunder followed."))
	require.NoError(t, err)
	res, err = svc.Search(ctx, ref, "lightning", nil, 10)
	require.NoError(t, err)
	assert.Empty(t, res.Hits)

	require.NoError(t, env.content.Delete(ctx, ref, domain.KindChapter, ch.ID))
	res, err = svc.Search(ctx, ref, "thunder", nil, 10)
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
}

func TestSearchService_KindFilter(t *testing.T) {
	env := setupTestEnv(t)
	svc := setupSearch(t, env)
	ref := env.createBook(t, "Kinds")
	env.createItem(t, ref, domain.KindChapter, "Harbor", "boats")
	env.createItem(t, ref, domain.KindIdea, "Harbor")

	res, err := svc.Search(context.Background(), ref, "harbor", []domain.ContentKind{domain.KindIdea}, 10)
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, domain.KindIdea, res.Hits[0].Kind)

	_, err = svc.Search(context.Background(), ref, "harbor", []domain.ContentKind{"poem"}, 10)
	assertCode(t, err, domainerrors.ErrValidation)
}

func TestSearchService_Rebuild(t *testing.T) {
	env := setupTestEnv(t)
	ref := env.createBook(t, "Before Index")
	env.createItem(t, ref, domain.KindChapter, "Lighthouse", "a beam over the water")
	env.createItem(t, ref, domain.KindCharacter, "Keeper")

	svc := setupSearch(t, env)
	n, err := svc.Rebuild(context.Background(), env.kv)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	res, err := svc.Search(context.Background(), ref, "beam", nil, 10)
	require.NoError(t, err)
	assert.Len(t, res.Hits, 1)
}
