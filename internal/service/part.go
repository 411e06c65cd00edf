package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/quillbook/quillbook-server/internal/domain"
	domainerrors "github.com/quillbook/quillbook-server/internal/errors"
	"github.com/quillbook/quillbook-server/internal/id"
	"github.com/quillbook/quillbook-server/internal/store"
)

// PartInput creates a part.
type PartInput struct {
	Name       string   `json:"name" validate:"notblank,max=200"`
	ChapterIDs []string `json:"chapter_ids,omitempty"`
	StoryIDs   []string `json:"story_ids,omitempty"`
}

// PartPatch updates a part. Nil fields are left alone; a non-nil id list
// replaces the current one.
type PartPatch struct {
	Name       *string   `json:"name,omitempty" validate:"omitnil,notblank,max=200"`
	ChapterIDs *[]string `json:"chapter_ids,omitempty"`
	StoryIDs   *[]string `json:"story_ids,omitempty"`
}

// PartService groups chapters and stories into parts. A chapter or story
// belongs to at most one part, and every referenced item must exist.
type PartService struct {
	parts   *store.Collection[domain.Part]
	content *ContentService
	plans   *PlanService
	logger  *slog.Logger
}

// NewPartService creates a new part service.
func NewPartService(kv store.KV, content *ContentService, plans *PlanService, logger *slog.Logger) *PartService {
	return &PartService{
		parts:   store.NewCollection[domain.Part](kv, logger),
		content: content,
		plans:   plans,
		logger:  logger,
	}
}

// List returns the work's parts in display order.
func (s *PartService) List(ctx context.Context, ref WorkRef) ([]domain.Part, error) {
	if _, err := s.content.works.Get(ctx, ref); err != nil {
		return nil, err
	}
	return s.parts.Load(ctx, ref.partsKey()), nil
}

// Create adds a part.
func (s *PartService) Create(ctx context.Context, ref WorkRef, in PartInput) (*domain.Part, error) {
	if err := s.plans.RequireFeature(ctx, ref.UserKey, domain.FeatureParts); err != nil {
		return nil, err
	}
	if err := s.content.validator.Validate(in); err != nil {
		return nil, err
	}

	parts, err := s.List(ctx, ref)
	if err != nil {
		return nil, err
	}

	partID, err := id.Generate("part")
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to create part")
	}
	part := domain.Part{
		ID:         partID,
		Name:       strings.TrimSpace(in.Name),
		ChapterIDs: compact(in.ChapterIDs),
		StoryIDs:   compact(in.StoryIDs),
	}
	if err := s.checkRefs(ctx, ref, parts, &part); err != nil {
		return nil, err
	}

	parts = append(parts, part)
	if err := s.parts.Save(ctx, ref.partsKey(), parts); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to save part")
	}

	s.content.activity.Append(ctx, ref, domain.ActivityPart, part.Name, domain.ActionCreated)
	return &part, nil
}

// Update renames a part or replaces its references.
func (s *PartService) Update(ctx context.Context, ref WorkRef, partID string, patch PartPatch) (*domain.Part, error) {
	if err := s.plans.RequireFeature(ctx, ref.UserKey, domain.FeatureParts); err != nil {
		return nil, err
	}
	if err := s.content.validator.Validate(patch); err != nil {
		return nil, err
	}

	parts, err := s.List(ctx, ref)
	if err != nil {
		return nil, err
	}
	i := domain.FindPart(parts, partID)
	if i < 0 {
		return nil, domainerrors.NotFound("part not found")
	}

	part := parts[i]
	if patch.Name != nil {
		part.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.ChapterIDs != nil {
		part.ChapterIDs = compact(*patch.ChapterIDs)
	}
	if patch.StoryIDs != nil {
		part.StoryIDs = compact(*patch.StoryIDs)
	}
	if err := s.checkRefs(ctx, ref, parts, &part); err != nil {
		return nil, err
	}

	parts[i] = part
	if err := s.parts.Save(ctx, ref.partsKey(), parts); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to save part")
	}

	s.content.activity.Append(ctx, ref, domain.ActivityPart, part.Name, domain.ActionModified)
	return &part, nil
}

// Delete removes a part. The chapters and stories it grouped are kept.
func (s *PartService) Delete(ctx context.Context, ref WorkRef, partID string) error {
	if err := s.plans.RequireFeature(ctx, ref.UserKey, domain.FeatureParts); err != nil {
		return err
	}

	parts, err := s.List(ctx, ref)
	if err != nil {
		return err
	}
	i := domain.FindPart(parts, partID)
	if i < 0 {
		return domainerrors.NotFound("part not found")
	}
	name := parts[i].Name

	if err := s.parts.Save(ctx, ref.partsKey(), slices.Delete(parts, i, i+1)); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to delete part")
	}

	s.content.activity.Append(ctx, ref, domain.ActivityPart, name, domain.ActionDeleted)
	return nil
}

// checkRefs enforces that part references at least one existing chapter or
// story and shares none with another part.
func (s *PartService) checkRefs(ctx context.Context, ref WorkRef, parts []domain.Part, part *domain.Part) error {
	if part.IsEmpty() {
		return domainerrors.Validation("a part needs at least one chapter or story")
	}

	for _, group := range []refGroup{
		{domain.KindChapter, part.ChapterIDs},
		{domain.KindStory, part.StoryIDs},
	} {
		kind, ids := group.kind, group.ids
		if len(ids) == 0 {
			continue
		}
		items, err := s.content.List(ctx, ref, kind)
		if err != nil {
			return err
		}
		for _, itemID := range ids {
			i := domain.FindItem(items, itemID)
			if i < 0 {
				return domainerrors.Validationf("%s %s does not exist", kind, itemID)
			}
			if other, ok := domain.PartHolding(parts, kind, itemID, part.ID); ok {
				return domainerrors.Conflictf("%s %q already belongs to part %q", kind, items[i].Title, other.Name).
					WithDetails(map[string]string{"item_id": itemID, "part_id": other.ID})
			}
		}
	}
	return nil
}

type refGroup struct {
	kind domain.ContentKind
	ids  []string
}

// compact trims ids, drops blanks and removes duplicates, keeping order.
func compact(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		v = strings.TrimSpace(v)
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
