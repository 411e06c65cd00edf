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
	"github.com/quillbook/quillbook-server/internal/store"
	"github.com/quillbook/quillbook-server/internal/validation"
)

// WorkInput is the caller-editable part of a work. WordCount is derived and
// never taken from input.
type WorkInput struct {
	Title  string               `json:"title" validate:"notblank,max=200"`
	Author string               `json:"author,omitempty" validate:"max=200"`
	Book   *domain.BookMetadata `json:"book,omitempty"`
}

// WorkPatch changes selected fields of a work. A nil field keeps the current
// value. A non-nil Book replaces the metadata, except that a zero series
// number keeps the work's current position when the series is unchanged.
type WorkPatch struct {
	Title  *string              `json:"title,omitempty" validate:"omitnil,notblank,max=200"`
	Author *string              `json:"author,omitempty" validate:"omitnil,max=200"`
	Book   *domain.BookMetadata `json:"book,omitempty"`
}

// WorkService manages the list of works in each scope and the series
// numbering rule for books.
type WorkService struct {
	kv        store.KV
	works     *store.Collection[domain.Work]
	plans     *PlanService
	index     Indexer
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time

	mu        sync.Mutex
	listeners []func(WorkRef)
}

// NewWorkService creates a new work service. index may be nil.
func NewWorkService(kv store.KV, plans *PlanService, index Indexer, logger *slog.Logger) *WorkService {
	if index == nil {
		index = noopIndexer{}
	}
	return &WorkService{
		kv:        kv,
		works:     store.NewCollection[domain.Work](kv, logger),
		plans:     plans,
		index:     index,
		validator: validation.New(),
		logger:    logger,
		now:       time.Now,
	}
}

// AddDeleteListener registers fn to run after a work is deleted.
func (s *WorkService) AddDeleteListener(fn func(WorkRef)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// List returns the user's works in scope, in creation order.
func (s *WorkService) List(ctx context.Context, userKey string, scope domain.Scope) ([]domain.Work, error) {
	if !scope.Valid() {
		return nil, domainerrors.Validationf("unknown scope %q", scope)
	}
	return s.works.Load(ctx, store.WorksKey(scope, userKey)), nil
}

// Get returns one work.
func (s *WorkService) Get(ctx context.Context, ref WorkRef) (*domain.Work, error) {
	if err := ref.validate(); err != nil {
		return nil, err
	}
	works := s.works.Load(ctx, store.WorksKey(ref.Scope, ref.UserKey))
	i := domain.FindWork(works, ref.WorkID)
	if i < 0 {
		return nil, domainerrors.NotFoundf("%s %d not found", ref.Scope, ref.WorkID)
	}
	return &works[i], nil
}

// Create adds a work to the scope, subject to the plan's work limit.
func (s *WorkService) Create(ctx context.Context, userKey string, scope domain.Scope, in WorkInput) (*domain.Work, error) {
	if !scope.Valid() {
		return nil, domainerrors.Validationf("unknown scope %q", scope)
	}
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	key := store.WorksKey(scope, userKey)
	works := s.works.Load(ctx, key)
	if err := s.plans.CheckWorkQuota(ctx, userKey, len(works)); err != nil {
		return nil, err
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	work := domain.Work{
		ID:        domain.NextWorkID(works),
		Scope:     scope,
		Title:     strings.TrimSpace(in.Title),
		Author:    strings.TrimSpace(in.Author),
		CreatedAt: now,
		UpdatedAt: now,
	}

	book, err := s.checkBook(ctx, userKey, scope, works, work.ID, in.Book)
	if err != nil {
		return nil, err
	}
	work.Book = book

	works = append(works, work)
	if err := s.works.Save(ctx, key, works); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to save work")
	}

	s.logger.Info("work created", "user", userKey, "scope", scope, "work_id", work.ID, "title", work.Title)
	return &work, nil
}

// Update applies a patch to a work.
func (s *WorkService) Update(ctx context.Context, ref WorkRef, patch WorkPatch) (*domain.Work, error) {
	if err := ref.validate(); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(patch); err != nil {
		return nil, err
	}

	key := store.WorksKey(ref.Scope, ref.UserKey)
	works := s.works.Load(ctx, key)
	i := domain.FindWork(works, ref.WorkID)
	if i < 0 {
		return nil, domainerrors.NotFoundf("%s %d not found", ref.Scope, ref.WorkID)
	}
	work := &works[i]

	if patch.Book != nil {
		in := *patch.Book
		if in.SeriesNumber == 0 && work.InSeries() && domain.SameSeries(work.Book.SeriesName, in.SeriesName) {
			in.SeriesNumber = work.Book.SeriesNumber
		}
		book, err := s.checkBook(ctx, ref.UserKey, ref.Scope, works, ref.WorkID, &in)
		if err != nil {
			return nil, err
		}
		work.Book = book
	}
	if patch.Title != nil {
		work.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Author != nil {
		work.Author = strings.TrimSpace(*patch.Author)
	}
	work.Touch(s.now().UTC().Truncate(time.Millisecond))

	if err := s.works.Save(ctx, key, works); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to save work")
	}
	updated := *work
	return &updated, nil
}

// Delete removes a work together with every collection it owns.
func (s *WorkService) Delete(ctx context.Context, ref WorkRef) error {
	if err := ref.validate(); err != nil {
		return err
	}

	key := store.WorksKey(ref.Scope, ref.UserKey)
	works := s.works.Load(ctx, key)
	i := domain.FindWork(works, ref.WorkID)
	if i < 0 {
		return domainerrors.NotFoundf("%s %d not found", ref.Scope, ref.WorkID)
	}

	// Collect indexed item ids before the collections go away.
	var itemIDs []string
	items := store.NewCollection[domain.ContentItem](s.kv, s.logger)
	for _, kind := range domain.ContentKinds {
		for _, it := range items.Load(ctx, ref.itemsKey(kind)) {
			itemIDs = append(itemIDs, it.ID)
		}
	}

	works = slices.Delete(works, i, i+1)
	if err := s.works.Save(ctx, key, works); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to delete work")
	}

	for _, k := range store.WorkCollectionKeys(ref.Scope, ref.WorkID, ref.UserKey) {
		if err := s.kv.Delete(ctx, k); err != nil {
			s.logger.Warn("failed to delete work collection", "key", k, "error", err)
		}
	}
	if len(itemIDs) > 0 {
		s.index.Unindex(ctx, ref, itemIDs...)
	}

	s.mu.Lock()
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(ref)
	}

	s.logger.Info("work deleted", "user", ref.UserKey, "scope", ref.Scope, "work_id", ref.WorkID)
	return nil
}

// AvailableSeriesNumbers returns the series positions still free in
// seriesName, ignoring the work excludeID.
func (s *WorkService) AvailableSeriesNumbers(ctx context.Context, userKey, seriesName string, excludeID int) []int {
	works := s.works.Load(ctx, store.WorksKey(domain.ScopeBook, userKey))
	return domain.AvailableSeriesNumbers(works, seriesName, excludeID)
}

// SetWordCount stores a recomputed aggregate on the work.
func (s *WorkService) SetWordCount(ctx context.Context, ref WorkRef, count int) error {
	key := store.WorksKey(ref.Scope, ref.UserKey)
	works, err := s.works.LoadStrict(ctx, key)
	if err != nil {
		return err
	}
	i := domain.FindWork(works, ref.WorkID)
	if i < 0 {
		return domainerrors.NotFoundf("%s %d not found", ref.Scope, ref.WorkID)
	}
	if works[i].WordCount == count {
		return nil
	}

	works[i].WordCount = count
	works[i].Touch(s.now().UTC().Truncate(time.Millisecond))
	return s.works.Save(ctx, key, works)
}

// checkBook validates book metadata for a work: quick stories carry none,
// paid-only fields need the feature, and series numbers stay unique.
func (s *WorkService) checkBook(ctx context.Context, userKey string, scope domain.Scope, works []domain.Work, workID int, in *domain.BookMetadata) (*domain.BookMetadata, error) {
	if in == nil {
		return nil, nil
	}
	if scope != domain.ScopeBook {
		return nil, domainerrors.Validation("quick stories have no book metadata")
	}

	book := *in
	book.Contributors = slices.Clone(in.Contributors)
	book.LegalClauses = slices.Clone(in.LegalClauses)
	book.SeriesName = strings.TrimSpace(book.SeriesName)

	if len(book.Contributors) > 0 {
		if err := s.plans.RequireFeature(ctx, userKey, domain.FeatureContributors); err != nil {
			return nil, err
		}
		for _, c := range book.Contributors {
			if strings.TrimSpace(c.Name) == "" {
				return nil, domainerrors.Validation("contributor name is required")
			}
		}
	}
	if book.Publisher != nil {
		if err := s.plans.RequireFeature(ctx, userKey, domain.FeaturePublisher); err != nil {
			return nil, err
		}
		pub := *book.Publisher
		book.Publisher = &pub
	}

	if book.SeriesName == "" {
		book.SeriesNumber = 0
		return &book, nil
	}

	available := domain.AvailableSeriesNumbers(works, book.SeriesName, workID)
	switch n := book.SeriesNumber; {
	case n == 0:
		if len(available) == 0 {
			return nil, domainerrors.Conflictf("no series numbers available in %q", book.SeriesName)
		}
		book.SeriesNumber = available[0]
	case n < 1 || n > domain.MaxSeriesNumber:
		return nil, domainerrors.Validationf("series number must be between 1 and %d", domain.MaxSeriesNumber)
	case !slices.Contains(available, n):
		return nil, domainerrors.Conflictf("number %d is already taken in series %q", n, book.SeriesName)
	}
	return &book, nil
}
