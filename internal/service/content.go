package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/quillbook/quillbook-server/internal/domain"
	domainerrors "github.com/quillbook/quillbook-server/internal/errors"
	"github.com/quillbook/quillbook-server/internal/id"
	"github.com/quillbook/quillbook-server/internal/richtext"
	"github.com/quillbook/quillbook-server/internal/store"
	"github.com/quillbook/quillbook-server/internal/validation"
)

// ItemInput creates a content item.
type ItemInput struct {
	Title       string `json:"title" validate:"notblank,max=200"`
	Description string `json:"description,omitempty" validate:"max=10000"`
	Role        string `json:"role,omitempty" validate:"max=100"`
	Content     string `json:"content,omitempty"`
}

// ItemPatch updates a content item. Nil fields are left alone.
type ItemPatch struct {
	Title       *string `json:"title,omitempty" validate:"omitnil,notblank,max=200"`
	Description *string `json:"description,omitempty" validate:"omitnil,max=10000"`
	Role        *string `json:"role,omitempty" validate:"omitnil,max=100"`
	Content     *string `json:"content,omitempty"`
}

// ItemDeleteListener is told about every deleted content item.
type ItemDeleteListener func(ref WorkRef, kind domain.ContentKind, itemID string)

// ItemUpdateListener is told about every item changed through Update.
type ItemUpdateListener func(ref WorkRef, kind domain.ContentKind, item domain.ContentItem)

// ContentService stores ideas, characters, chapters, stories and outlines.
// It keeps the work's word total current, cascades deletes into parts and
// note cards, and records activity.
type ContentService struct {
	items     *store.Collection[domain.ContentItem]
	parts     *store.Collection[domain.Part]
	cards     *store.Collection[domain.NoteCard]
	works     *WorkService
	plans     *PlanService
	activity  *ActivityLog
	index     Indexer
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time

	mu              sync.Mutex
	listeners       []ItemDeleteListener
	updateListeners []ItemUpdateListener
}

// NewContentService creates a new content service. index may be nil.
func NewContentService(kv store.KV, works *WorkService, plans *PlanService, activity *ActivityLog, index Indexer, logger *slog.Logger) *ContentService {
	if index == nil {
		index = noopIndexer{}
	}
	return &ContentService{
		items:     store.NewCollection[domain.ContentItem](kv, logger),
		parts:     store.NewCollection[domain.Part](kv, logger),
		cards:     store.NewCollection[domain.NoteCard](kv, logger),
		works:     works,
		plans:     plans,
		activity:  activity,
		index:     index,
		validator: validation.New(),
		logger:    logger,
		now:       time.Now,
	}
}

// AddDeleteListener registers fn to run after an item is deleted.
func (s *ContentService) AddDeleteListener(fn ItemDeleteListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// AddUpdateListener registers fn to run after an item is updated.
func (s *ContentService) AddUpdateListener(fn ItemUpdateListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateListeners = append(s.updateListeners, fn)
}

// List returns every item of kind in the work.
func (s *ContentService) List(ctx context.Context, ref WorkRef, kind domain.ContentKind) ([]domain.ContentItem, error) {
	if err := s.checkTarget(ctx, ref, kind); err != nil {
		return nil, err
	}
	return s.items.Load(ctx, ref.itemsKey(kind)), nil
}

// Get returns one item.
func (s *ContentService) Get(ctx context.Context, ref WorkRef, kind domain.ContentKind, itemID string) (*domain.ContentItem, error) {
	items, err := s.List(ctx, ref, kind)
	if err != nil {
		return nil, err
	}
	i := domain.FindItem(items, itemID)
	if i < 0 {
		return nil, domainerrors.NotFoundf("%s not found", kind)
	}
	return &items[i], nil
}

// Create adds an item, subject to the plan's per-work limit for kind.
func (s *ContentService) Create(ctx context.Context, ref WorkRef, kind domain.ContentKind, in ItemInput) (*domain.ContentItem, error) {
	if err := s.checkTarget(ctx, ref, kind); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}
	if err := checkKindFields(kind, in.Role, in.Content); err != nil {
		return nil, err
	}

	key := ref.itemsKey(kind)
	items := s.items.Load(ctx, key)
	if err := s.plans.CheckItemQuota(ctx, ref.UserKey, kind, len(items), 1); err != nil {
		return nil, err
	}

	itemID, err := id.NewContentID()
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to create item")
	}
	now := s.now().UTC().Truncate(time.Millisecond)
	item := domain.ContentItem{
		ID:          itemID,
		WorkID:      ref.WorkID,
		Kind:        kind,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Role:        strings.TrimSpace(in.Role),
		Content:     in.Content,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	items = append(items, item)
	if err := s.items.Save(ctx, key, items); err != nil {
		return nil, domainerrors.Wrapf(err, domainerrors.CodeInternal, "failed to save %s", kind)
	}

	s.afterWrite(ctx, ref, &item)
	s.activity.Append(ctx, ref, domain.ActivityTypeFor(kind), item.Title, domain.ActionCreated)

	s.logger.Debug("item created", "work", ref.String(), "kind", kind, "id", item.ID)
	return &item, nil
}

// Update applies a patch to an item and records a modification.
func (s *ContentService) Update(ctx context.Context, ref WorkRef, kind domain.ContentKind, itemID string, patch ItemPatch) (*domain.ContentItem, error) {
	if err := s.checkTarget(ctx, ref, kind); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(patch); err != nil {
		return nil, err
	}
	if err := checkKindFields(kind, deref(patch.Role), deref(patch.Content)); err != nil {
		return nil, err
	}

	key := ref.itemsKey(kind)
	items := s.items.Load(ctx, key)
	i := domain.FindItem(items, itemID)
	if i < 0 {
		return nil, domainerrors.NotFoundf("%s not found", kind)
	}

	item := &items[i]
	if patch.Title != nil {
		item.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		item.Description = *patch.Description
	}
	if patch.Role != nil {
		item.Role = strings.TrimSpace(*patch.Role)
	}
	if patch.Content != nil {
		item.Content = *patch.Content
	}
	item.UpdatedAt = s.now().UTC().Truncate(time.Millisecond)

	if err := s.items.Save(ctx, key, items); err != nil {
		return nil, domainerrors.Wrapf(err, domainerrors.CodeInternal, "failed to save %s", kind)
	}

	updated := *item
	s.afterWrite(ctx, ref, &updated)
	s.activity.Append(ctx, ref, domain.ActivityTypeFor(kind), updated.Title, domain.ActionModified)

	s.mu.Lock()
	listeners := slices.Clone(s.updateListeners)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(ref, kind, updated)
	}
	return &updated, nil
}

// SaveContent overwrites an item's document. It is the autosave path:
// no activity is recorded here, the session decides when an edit is worth
// logging.
func (s *ContentService) SaveContent(ctx context.Context, ref WorkRef, kind domain.ContentKind, itemID, doc string) (*domain.ContentItem, error) {
	if !kind.IsDocument() {
		return nil, domainerrors.Validationf("%s has no document", kind)
	}

	key := ref.itemsKey(kind)
	items, err := s.items.LoadStrict(ctx, key)
	if err != nil {
		return nil, domainerrors.Wrapf(err, domainerrors.CodeInternal, "failed to load %s", kind)
	}
	i := domain.FindItem(items, itemID)
	if i < 0 {
		return nil, domainerrors.NotFoundf("%s not found", kind)
	}

	items[i].Content = doc
	items[i].UpdatedAt = s.now().UTC().Truncate(time.Millisecond)
	if err := s.items.Save(ctx, key, items); err != nil {
		return nil, domainerrors.Wrapf(err, domainerrors.CodeInternal, "failed to save %s", kind)
	}

	saved := items[i]
	s.afterWrite(ctx, ref, &saved)
	return &saved, nil
}

// Delete removes an item and every reference to it: a chapter or story
// leaves its part (an emptied part is deleted too), and note cards drop
// their links.
func (s *ContentService) Delete(ctx context.Context, ref WorkRef, kind domain.ContentKind, itemID string) error {
	if err := s.checkTarget(ctx, ref, kind); err != nil {
		return err
	}

	key := ref.itemsKey(kind)
	items := s.items.Load(ctx, key)
	i := domain.FindItem(items, itemID)
	if i < 0 {
		return domainerrors.NotFoundf("%s not found", kind)
	}
	deleted := items[i]

	if err := s.items.Save(ctx, key, slices.Delete(items, i, i+1)); err != nil {
		return domainerrors.Wrapf(err, domainerrors.CodeInternal, "failed to delete %s", kind)
	}

	s.cascadeParts(ctx, ref, kind, itemID)
	s.pruneNoteCards(ctx, ref, kind, itemID)

	if kind.IsDocument() {
		if _, err := s.Recount(ctx, ref); err != nil {
			s.logger.Warn("failed to recount words", "work", ref.String(), "error", err)
		}
	}
	s.index.Unindex(ctx, ref, itemID)
	s.activity.Append(ctx, ref, domain.ActivityTypeFor(kind), deleted.Title, domain.ActionDeleted)

	s.mu.Lock()
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(ref, kind, itemID)
	}

	s.logger.Debug("item deleted", "work", ref.String(), "kind", kind, "id", itemID)
	return nil
}

// Recount recomputes the work's word total from its chapters, stories and
// outlines and stores it on the work.
func (s *ContentService) Recount(ctx context.Context, ref WorkRef) (int, error) {
	total := 0
	for _, kind := range domain.ContentKinds {
		if !kind.IsDocument() {
			continue
		}
		for _, it := range s.items.Load(ctx, ref.itemsKey(kind)) {
			total += richtext.CountWords(it.Content)
		}
	}
	if err := s.works.SetWordCount(ctx, ref, total); err != nil {
		return total, err
	}
	return total, nil
}

func (s *ContentService) afterWrite(ctx context.Context, ref WorkRef, item *domain.ContentItem) {
	if item.Kind.IsDocument() {
		if _, err := s.Recount(ctx, ref); err != nil {
			s.logger.Warn("failed to recount words", "work", ref.String(), "error", err)
		}
	}
	s.index.Index(ctx, ref, item)
}

func (s *ContentService) cascadeParts(ctx context.Context, ref WorkRef, kind domain.ContentKind, itemID string) {
	if kind != domain.KindChapter && kind != domain.KindStory {
		return
	}

	key := ref.partsKey()
	parts := s.parts.Load(ctx, key)
	kept, changed := domain.RemoveFromParts(parts, kind, itemID)
	if !changed {
		return
	}
	if err := s.parts.Save(ctx, key, kept); err != nil {
		s.logger.Warn("failed to update parts after delete", "work", ref.String(), "item", itemID, "error", err)
		return
	}

	for _, p := range parts {
		if domain.FindPart(kept, p.ID) < 0 {
			s.activity.Append(ctx, ref, domain.ActivityPart, p.Name, domain.ActionDeleted)
		}
	}
}

func (s *ContentService) pruneNoteCards(ctx context.Context, ref WorkRef, kind domain.ContentKind, itemID string) {
	key := ref.cardsKey()
	cards := s.cards.Load(ctx, key)
	if !domain.PruneNoteCardLinks(cards, kind, itemID) {
		return
	}
	if err := s.cards.Save(ctx, key, cards); err != nil {
		s.logger.Warn("failed to prune note card links", "work", ref.String(), "item", itemID, "error", err)
	}
}

// checkTarget validates kind and confirms the work exists.
func (s *ContentService) checkTarget(ctx context.Context, ref WorkRef, kind domain.ContentKind) error {
	if !kind.Valid() {
		return domainerrors.Validationf("unknown content kind %q", kind)
	}
	_, err := s.works.Get(ctx, ref)
	return err
}

func checkKindFields(kind domain.ContentKind, role, content string) error {
	if role != "" && kind != domain.KindCharacter {
		return domainerrors.Validationf("%s has no role", kind)
	}
	if content != "" && !kind.IsDocument() {
		return domainerrors.Validationf("%s has no document", kind)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
