package service

import (
	"context"
	"log/slog"

	"github.com/quillbook/quillbook-server/internal/domain"
	domainerrors "github.com/quillbook/quillbook-server/internal/errors"
	"github.com/quillbook/quillbook-server/internal/search"
	"github.com/quillbook/quillbook-server/internal/store"
)

// SearchService bridges content writes and queries to the full-text index.
// It implements Indexer; index failures are logged and never returned to
// the writer.
type SearchService struct {
	index  *search.Index
	logger *slog.Logger
}

var _ Indexer = (*SearchService)(nil)

// NewSearchService creates a new search service.
func NewSearchService(index *search.Index, logger *slog.Logger) *SearchService {
	return &SearchService{index: index, logger: logger}
}

// Index implements Indexer.
func (s *SearchService) Index(_ context.Context, ref WorkRef, item *domain.ContentItem) {
	if err := s.index.Put(search.NewDocument(ref.UserKey, ref.Scope, item)); err != nil {
		s.logger.Warn("failed to index item", "work", ref.String(), "id", item.ID, "error", err)
	}
}

// Unindex implements Indexer.
func (s *SearchService) Unindex(_ context.Context, ref WorkRef, itemIDs ...string) {
	ids := make([]string, len(itemIDs))
	for i, itemID := range itemIDs {
		ids[i] = search.DocID(ref.UserKey, ref.Scope, ref.WorkID, itemID)
	}
	if err := s.index.Remove(ids...); err != nil {
		s.logger.Warn("failed to unindex items", "work", ref.String(), "count", len(ids), "error", err)
	}
}

// DocumentCount returns the number of indexed items.
func (s *SearchService) DocumentCount() (uint64, error) {
	return s.index.Count()
}

// Search queries one work, or every work in the scope when ref.WorkID is 0.
func (s *SearchService) Search(ctx context.Context, ref WorkRef, query string, kinds []domain.ContentKind, limit int) (*search.Result, error) {
	if ref.UserKey == "" {
		return nil, domainerrors.Unauthorized("missing user")
	}
	for _, k := range kinds {
		if !k.Valid() {
			return nil, domainerrors.Validationf("unknown content kind %q", k)
		}
	}

	res, err := s.index.Search(ctx, search.Params{
		Owner:  ref.UserKey,
		Scope:  ref.Scope,
		WorkID: ref.WorkID,
		Query:  query,
		Kinds:  kinds,
		Limit:  limit,
	})
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "search failed")
	}
	return res, nil
}

// Rebuild indexes every content item in kv. It runs at startup when the
// index was recreated empty.
func (s *SearchService) Rebuild(ctx context.Context, kv store.KV) (int, error) {
	keys, err := kv.Keys(ctx, "")
	if err != nil {
		return 0, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to list content")
	}

	items := store.NewCollection[domain.ContentItem](kv, s.logger)
	var docs []*search.Document
	for _, key := range keys {
		scope, _, _, userKey, ok := store.ParseItemsKey(key)
		if !ok {
			continue
		}
		for _, it := range items.Load(ctx, key) {
			docs = append(docs, search.NewDocument(userKey, scope, &it))
		}
	}

	if err := s.index.PutAll(docs); err != nil {
		return 0, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to rebuild search index")
	}
	s.logger.Info("search index rebuilt", "documents", len(docs))
	return len(docs), nil
}
