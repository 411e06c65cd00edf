package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/quillbook/quillbook-server/internal/domain"
	domainerrors "github.com/quillbook/quillbook-server/internal/errors"
	"github.com/quillbook/quillbook-server/internal/id"
	"github.com/quillbook/quillbook-server/internal/store"
)

// NoteCardInput creates a note card. An empty color means yellow.
type NoteCardInput struct {
	Title        string               `json:"title,omitempty" validate:"max=200"`
	Content      string               `json:"content" validate:"notblank,max=5000"`
	Color        domain.NoteCardColor `json:"color,omitempty"`
	IdeaIDs      []string             `json:"idea_ids,omitempty"`
	CharacterIDs []string             `json:"character_ids,omitempty"`
	ChapterIDs   []string             `json:"chapter_ids,omitempty"`
}

// NoteCardPatch updates a note card. Nil fields are left alone.
type NoteCardPatch struct {
	Title        *string               `json:"title,omitempty" validate:"omitnil,max=200"`
	Content      *string               `json:"content,omitempty" validate:"omitnil,notblank,max=5000"`
	Color        *domain.NoteCardColor `json:"color,omitempty"`
	IdeaIDs      *[]string             `json:"idea_ids,omitempty"`
	CharacterIDs *[]string             `json:"character_ids,omitempty"`
	ChapterIDs   *[]string             `json:"chapter_ids,omitempty"`
}

// NoteCardService manages a work's note cards. Every operation requires a
// plan with the note cards feature.
type NoteCardService struct {
	cards   *store.Collection[domain.NoteCard]
	content *ContentService
	plans   *PlanService
	logger  *slog.Logger
	now     func() time.Time
}

// NewNoteCardService creates a new note card service.
func NewNoteCardService(kv store.KV, content *ContentService, plans *PlanService, logger *slog.Logger) *NoteCardService {
	return &NoteCardService{
		cards:   store.NewCollection[domain.NoteCard](kv, logger),
		content: content,
		plans:   plans,
		logger:  logger,
		now:     time.Now,
	}
}

// List returns the work's cards in display order.
func (s *NoteCardService) List(ctx context.Context, ref WorkRef) ([]domain.NoteCard, error) {
	if _, err := s.content.works.Get(ctx, ref); err != nil {
		return nil, err
	}
	return s.cards.Load(ctx, ref.cardsKey()), nil
}

// Create adds a card at the end of the board.
func (s *NoteCardService) Create(ctx context.Context, ref WorkRef, in NoteCardInput) (*domain.NoteCard, error) {
	if err := s.plans.RequireFeature(ctx, ref.UserKey, domain.FeatureNoteCards); err != nil {
		return nil, err
	}
	if err := s.content.validator.Validate(in); err != nil {
		return nil, err
	}

	cards, err := s.List(ctx, ref)
	if err != nil {
		return nil, err
	}

	cardID, err := id.Generate("card")
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to create note card")
	}
	now := s.now().UTC().Truncate(time.Millisecond)
	card := domain.NoteCard{
		ID:           cardID,
		Title:        strings.TrimSpace(in.Title),
		Content:      in.Content,
		Color:        in.Color,
		IdeaIDs:      compact(in.IdeaIDs),
		CharacterIDs: compact(in.CharacterIDs),
		ChapterIDs:   compact(in.ChapterIDs),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if card.Color == "" {
		card.Color = domain.ColorYellow
	}
	if err := s.checkCard(ctx, ref, &card); err != nil {
		return nil, err
	}

	cards = append(cards, card)
	if err := s.cards.Save(ctx, ref.cardsKey(), cards); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to save note card")
	}

	s.content.activity.Append(ctx, ref, domain.ActivityNoteCard, cardLabel(&card), domain.ActionCreated)
	return &card, nil
}

// Update applies a patch to a card.
func (s *NoteCardService) Update(ctx context.Context, ref WorkRef, cardID string, patch NoteCardPatch) (*domain.NoteCard, error) {
	if err := s.plans.RequireFeature(ctx, ref.UserKey, domain.FeatureNoteCards); err != nil {
		return nil, err
	}
	if err := s.content.validator.Validate(patch); err != nil {
		return nil, err
	}

	cards, err := s.List(ctx, ref)
	if err != nil {
		return nil, err
	}
	i := domain.FindNoteCard(cards, cardID)
	if i < 0 {
		return nil, domainerrors.NotFound("note card not found")
	}

	card := cards[i]
	if patch.Title != nil {
		card.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Content != nil {
		card.Content = *patch.Content
	}
	if patch.Color != nil {
		card.Color = *patch.Color
	}
	if patch.IdeaIDs != nil {
		card.IdeaIDs = compact(*patch.IdeaIDs)
	}
	if patch.CharacterIDs != nil {
		card.CharacterIDs = compact(*patch.CharacterIDs)
	}
	if patch.ChapterIDs != nil {
		card.ChapterIDs = compact(*patch.ChapterIDs)
	}
	if err := s.checkCard(ctx, ref, &card); err != nil {
		return nil, err
	}
	card.UpdatedAt = s.now().UTC().Truncate(time.Millisecond)

	cards[i] = card
	if err := s.cards.Save(ctx, ref.cardsKey(), cards); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to save note card")
	}

	s.content.activity.Append(ctx, ref, domain.ActivityNoteCard, cardLabel(&card), domain.ActionModified)
	return &card, nil
}

// Delete removes a card.
func (s *NoteCardService) Delete(ctx context.Context, ref WorkRef, cardID string) error {
	if err := s.plans.RequireFeature(ctx, ref.UserKey, domain.FeatureNoteCards); err != nil {
		return err
	}

	cards, err := s.List(ctx, ref)
	if err != nil {
		return err
	}
	i := domain.FindNoteCard(cards, cardID)
	if i < 0 {
		return domainerrors.NotFound("note card not found")
	}
	label := cardLabel(&cards[i])

	if err := s.cards.Save(ctx, ref.cardsKey(), slices.Delete(cards, i, i+1)); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to delete note card")
	}

	s.content.activity.Append(ctx, ref, domain.ActivityNoteCard, label, domain.ActionDeleted)
	return nil
}

// Move drags the card fromID onto the position of toID.
func (s *NoteCardService) Move(ctx context.Context, ref WorkRef, fromID, toID string) ([]domain.NoteCard, error) {
	if err := s.plans.RequireFeature(ctx, ref.UserKey, domain.FeatureNoteCards); err != nil {
		return nil, err
	}

	cards, err := s.List(ctx, ref)
	if err != nil {
		return nil, err
	}
	moved, ok := domain.MoveNoteCard(cards, fromID, toID)
	if !ok {
		return nil, domainerrors.NotFound("note card not found")
	}
	if fromID == toID {
		return moved, nil
	}

	if err := s.cards.Save(ctx, ref.cardsKey(), moved); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to reorder note cards")
	}
	return moved, nil
}

// checkCard validates the color and that every linked item exists.
func (s *NoteCardService) checkCard(ctx context.Context, ref WorkRef, card *domain.NoteCard) error {
	if !card.Color.Valid() {
		return domainerrors.Validationf("unknown note card color %q", card.Color)
	}

	for _, group := range []refGroup{
		{domain.KindIdea, card.IdeaIDs},
		{domain.KindCharacter, card.CharacterIDs},
		{domain.KindChapter, card.ChapterIDs},
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
			if domain.FindItem(items, itemID) < 0 {
				return domainerrors.Validationf("%s %s does not exist", kind, itemID)
			}
		}
	}
	return nil
}

// cardLabel is the title used in activity entries: the card title, or the
// start of its content.
func cardLabel(card *domain.NoteCard) string {
	if card.Title != "" {
		return card.Title
	}
	const maxLabel = 40
	text := strings.Join(strings.Fields(card.Content), " ")
	if utf8.RuneCountInString(text) <= maxLabel {
		return text
	}
	return string([]rune(text)[:maxLabel]) + "..."
}
