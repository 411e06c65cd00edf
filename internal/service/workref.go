package service

import (
	"context"
	"strconv"

	"github.com/quillbook/quillbook-server/internal/domain"
	domainerrors "github.com/quillbook/quillbook-server/internal/errors"
	"github.com/quillbook/quillbook-server/internal/store"
)

// WorkRef names one work of one user.
type WorkRef struct {
	UserKey string
	Scope   domain.Scope
	WorkID  int
}

func (r WorkRef) String() string {
	return string(r.Scope) + "/" + strconv.Itoa(r.WorkID)
}

func (r WorkRef) validate() error {
	if r.UserKey == "" {
		return domainerrors.Unauthorized("missing user")
	}
	if !r.Scope.Valid() {
		return domainerrors.Validationf("unknown scope %q", r.Scope)
	}
	if r.WorkID <= 0 {
		return domainerrors.Validation("work id must be positive")
	}
	return nil
}

func (r WorkRef) itemsKey(kind domain.ContentKind) string {
	return store.ItemsKey(r.Scope, kind, r.WorkID, r.UserKey)
}

func (r WorkRef) partsKey() string {
	return store.ContentKey(r.Scope, store.CollectionParts, r.WorkID, r.UserKey)
}

func (r WorkRef) cardsKey() string {
	return store.ContentKey(r.Scope, store.CollectionNoteCards, r.WorkID, r.UserKey)
}

// Indexer keeps the full-text index in step with content writes. Failures
// are the indexer's to log; content writes never fail because of it.
type Indexer interface {
	Index(ctx context.Context, ref WorkRef, item *domain.ContentItem)
	Unindex(ctx context.Context, ref WorkRef, itemIDs ...string)
}

type noopIndexer struct{}

func (noopIndexer) Index(context.Context, WorkRef, *domain.ContentItem) {}
func (noopIndexer) Unindex(context.Context, WorkRef, ...string)         {}
