package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/quillbook/quillbook-server/internal/domain"
	"github.com/quillbook/quillbook-server/internal/service"
)

func (s *Server) registerNoteCardRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listNoteCards",
		Method:      http.MethodGet,
		Path:        "/api/v1/{scope}/works/{id}/notecards",
		Summary:     "List note cards",
		Description: "Returns the work's note cards in display order",
		Tags:        []string{"Note cards"},
		Security:    bearerSecurity,
	}, s.handleListNoteCards)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createNoteCard",
		Method:        http.MethodPost,
		Path:          "/api/v1/{scope}/works/{id}/notecards",
		Summary:       "Create note card",
		Description:   "Adds a note card at the end (paid plans)",
		Tags:          []string{"Note cards"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateNoteCard)

	huma.Register(s.api, huma.Operation{
		OperationID: "moveNoteCard",
		Method:      http.MethodPost,
		Path:        "/api/v1/{scope}/works/{id}/notecards/move",
		Summary:     "Move note card",
		Description: "Moves a card to another card's position and returns the new order",
		Tags:        []string{"Note cards"},
		Security:    bearerSecurity,
	}, s.handleMoveNoteCard)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateNoteCard",
		Method:      http.MethodPatch,
		Path:        "/api/v1/{scope}/works/{id}/notecards/{cardID}",
		Summary:     "Update note card",
		Description: "Updates the given fields of a note card",
		Tags:        []string{"Note cards"},
		Security:    bearerSecurity,
	}, s.handleUpdateNoteCard)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteNoteCard",
		Method:      http.MethodDelete,
		Path:        "/api/v1/{scope}/works/{id}/notecards/{cardID}",
		Summary:     "Delete note card",
		Description: "Deletes a note card",
		Tags:        []string{"Note cards"},
		Security:    bearerSecurity,
	}, s.handleDeleteNoteCard)
}

// === DTOs ===

// NoteCardPath identifies one note card.
type NoteCardPath struct {
	WorkPath
	CardID string `path:"cardID" doc:"Note card ID"`
}

// ListNoteCardsResponse contains note cards in display order.
type ListNoteCardsResponse struct {
	Cards []domain.NoteCard `json:"cards" doc:"Note cards in display order"`
}

// ListNoteCardsOutput wraps the note card list for Huma.
type ListNoteCardsOutput struct {
	Body ListNoteCardsResponse
}

// CreateNoteCardInput wraps the create note card request for Huma.
type CreateNoteCardInput struct {
	WorkPath
	Body service.NoteCardInput
}

// UpdateNoteCardInput wraps the update note card request for Huma.
type UpdateNoteCardInput struct {
	NoteCardPath
	Body service.NoteCardPatch
}

// NoteCardOutput wraps a note card for Huma.
type NoteCardOutput struct {
	Body *domain.NoteCard
}

// MoveNoteCardRequest is the request body for reordering cards.
type MoveNoteCardRequest struct {
	FromID string `json:"from_id" minLength:"1" doc:"Card to move"`
	ToID   string `json:"to_id" minLength:"1" doc:"Card whose position it takes"`
}

// MoveNoteCardInput wraps the move request for Huma.
type MoveNoteCardInput struct {
	WorkPath
	Body MoveNoteCardRequest
}

// === Handlers ===

func (s *Server) handleListNoteCards(ctx context.Context, input *WorkPath) (*ListNoteCardsOutput, error) {
	ref, err := s.workRef(ctx, *input)
	if err != nil {
		return nil, err
	}
	cards, err := s.services.NoteCards.List(ctx, ref)
	if err != nil {
		return nil, err
	}
	return &ListNoteCardsOutput{Body: ListNoteCardsResponse{Cards: cards}}, nil
}

func (s *Server) handleCreateNoteCard(ctx context.Context, input *CreateNoteCardInput) (*NoteCardOutput, error) {
	ref, err := s.workRef(ctx, input.WorkPath)
	if err != nil {
		return nil, err
	}
	card, err := s.services.NoteCards.Create(ctx, ref, input.Body)
	if err != nil {
		return nil, err
	}
	return &NoteCardOutput{Body: card}, nil
}

func (s *Server) handleMoveNoteCard(ctx context.Context, input *MoveNoteCardInput) (*ListNoteCardsOutput, error) {
	ref, err := s.workRef(ctx, input.WorkPath)
	if err != nil {
		return nil, err
	}
	cards, err := s.services.NoteCards.Move(ctx, ref, input.Body.FromID, input.Body.ToID)
	if err != nil {
		return nil, err
	}
	return &ListNoteCardsOutput{Body: ListNoteCardsResponse{Cards: cards}}, nil
}

func (s *Server) handleUpdateNoteCard(ctx context.Context, input *UpdateNoteCardInput) (*NoteCardOutput, error) {
	ref, err := s.workRef(ctx, input.WorkPath)
	if err != nil {
		return nil, err
	}
	card, err := s.services.NoteCards.Update(ctx, ref, input.CardID, input.Body)
	if err != nil {
		return nil, err
	}
	return &NoteCardOutput{Body: card}, nil
}

func (s *Server) handleDeleteNoteCard(ctx context.Context, input *NoteCardPath) (*struct{}, error) {
	ref, err := s.workRef(ctx, input.WorkPath)
	if err != nil {
		return nil, err
	}
	if err := s.services.NoteCards.Delete(ctx, ref, input.CardID); err != nil {
		return nil, err
	}
	return nil, nil
}
