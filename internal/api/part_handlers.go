package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/quillbook/quillbook-server/internal/domain"
	"github.com/quillbook/quillbook-server/internal/service"
)

func (s *Server) registerPartRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listParts",
		Method:      http.MethodGet,
		Path:        "/api/v1/{scope}/works/{id}/parts",
		Summary:     "List parts",
		Description: "Returns the work's parts",
		Tags:        []string{"Parts"},
		Security:    bearerSecurity,
	}, s.handleListParts)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createPart",
		Method:        http.MethodPost,
		Path:          "/api/v1/{scope}/works/{id}/parts",
		Summary:       "Create part",
		Description:   "Groups chapters and stories into a part (paid plans)",
		Tags:          []string{"Parts"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreatePart)

	huma.Register(s.api, huma.Operation{
		OperationID: "updatePart",
		Method:      http.MethodPatch,
		Path:        "/api/v1/{scope}/works/{id}/parts/{partID}",
		Summary:     "Update part",
		Description: "Renames a part or replaces its references",
		Tags:        []string{"Parts"},
		Security:    bearerSecurity,
	}, s.handleUpdatePart)

	huma.Register(s.api, huma.Operation{
		OperationID: "deletePart",
		Method:      http.MethodDelete,
		Path:        "/api/v1/{scope}/works/{id}/parts/{partID}",
		Summary:     "Delete part",
		Description: "Deletes a part; its chapters and stories are kept",
		Tags:        []string{"Parts"},
		Security:    bearerSecurity,
	}, s.handleDeletePart)
}

// === DTOs ===

// PartPath identifies one part.
type PartPath struct {
	WorkPath
	PartID string `path:"partID" doc:"Part ID"`
}

// ListPartsResponse contains a list of parts.
type ListPartsResponse struct {
	Parts []domain.Part `json:"parts" doc:"Parts in creation order"`
}

// ListPartsOutput wraps the list parts response for Huma.
type ListPartsOutput struct {
	Body ListPartsResponse
}

// CreatePartInput wraps the create part request for Huma.
type CreatePartInput struct {
	WorkPath
	Body service.PartInput
}

// UpdatePartInput wraps the update part request for Huma.
type UpdatePartInput struct {
	PartPath
	Body service.PartPatch
}

// PartOutput wraps a part for Huma.
type PartOutput struct {
	Body *domain.Part
}

// === Handlers ===

func (s *Server) handleListParts(ctx context.Context, input *WorkPath) (*ListPartsOutput, error) {
	ref, err := s.workRef(ctx, *input)
	if err != nil {
		return nil, err
	}
	parts, err := s.services.Parts.List(ctx, ref)
	if err != nil {
		return nil, err
	}
	return &ListPartsOutput{Body: ListPartsResponse{Parts: parts}}, nil
}

func (s *Server) handleCreatePart(ctx context.Context, input *CreatePartInput) (*PartOutput, error) {
	ref, err := s.workRef(ctx, input.WorkPath)
	if err != nil {
		return nil, err
	}
	part, err := s.services.Parts.Create(ctx, ref, input.Body)
	if err != nil {
		return nil, err
	}
	return &PartOutput{Body: part}, nil
}

func (s *Server) handleUpdatePart(ctx context.Context, input *UpdatePartInput) (*PartOutput, error) {
	ref, err := s.workRef(ctx, input.WorkPath)
	if err != nil {
		return nil, err
	}
	part, err := s.services.Parts.Update(ctx, ref, input.PartID, input.Body)
	if err != nil {
		return nil, err
	}
	return &PartOutput{Body: part}, nil
}

func (s *Server) handleDeletePart(ctx context.Context, input *PartPath) (*struct{}, error) {
	ref, err := s.workRef(ctx, input.WorkPath)
	if err != nil {
		return nil, err
	}
	if err := s.services.Parts.Delete(ctx, ref, input.PartID); err != nil {
		return nil, err
	}
	return nil, nil
}
