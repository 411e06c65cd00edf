package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/quillbook/quillbook-server/internal/domain"
	"github.com/quillbook/quillbook-server/internal/service"
)

func (s *Server) registerItemRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listItems",
		Method:      http.MethodGet,
		Path:        "/api/v1/{scope}/works/{id}/{kind}",
		Summary:     "List items",
		Description: "Returns the work's ideas, characters, chapters, stories or outlines",
		Tags:        []string{"Items"},
		Security:    bearerSecurity,
	}, s.handleListItems)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createItem",
		Method:        http.MethodPost,
		Path:          "/api/v1/{scope}/works/{id}/{kind}",
		Summary:       "Create item",
		Description:   "Creates an item, subject to the plan's per-work limit for its kind",
		Tags:          []string{"Items"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "getItem",
		Method:      http.MethodGet,
		Path:        "/api/v1/{scope}/works/{id}/{kind}/{itemID}",
		Summary:     "Get item",
		Description: "Returns one item",
		Tags:        []string{"Items"},
		Security:    bearerSecurity,
	}, s.handleGetItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateItem",
		Method:      http.MethodPatch,
		Path:        "/api/v1/{scope}/works/{id}/{kind}/{itemID}",
		Summary:     "Update item",
		Description: "Updates the given fields of an item",
		Tags:        []string{"Items"},
		Security:    bearerSecurity,
	}, s.handleUpdateItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteItem",
		Method:      http.MethodDelete,
		Path:        "/api/v1/{scope}/works/{id}/{kind}/{itemID}",
		Summary:     "Delete item",
		Description: "Deletes an item and drops references to it from parts and note cards",
		Tags:        []string{"Items"},
		Security:    bearerSecurity,
	}, s.handleDeleteItem)
}

// === DTOs ===

// KindPath selects the item kind within a work.
type KindPath struct {
	WorkPath
	Kind string `path:"kind" enum:"idea,character,chapter,story,outline" doc:"Item kind"`
}

// ItemPath identifies one item.
type ItemPath struct {
	KindPath
	ItemID string `path:"itemID" doc:"Item ID"`
}

// ListItemsResponse contains a list of items.
type ListItemsResponse struct {
	Items []domain.ContentItem `json:"items" doc:"Items in creation order"`
}

// ListItemsOutput wraps the list items response for Huma.
type ListItemsOutput struct {
	Body ListItemsResponse
}

// CreateItemInput wraps the create item request for Huma.
type CreateItemInput struct {
	KindPath
	Body service.ItemInput
}

// UpdateItemInput wraps the update item request for Huma.
type UpdateItemInput struct {
	ItemPath
	Body service.ItemPatch
}

// ItemOutput wraps an item for Huma.
type ItemOutput struct {
	Body *domain.ContentItem
}

// === Handlers ===

func (s *Server) handleListItems(ctx context.Context, input *KindPath) (*ListItemsOutput, error) {
	ref, err := s.workRef(ctx, input.WorkPath)
	if err != nil {
		return nil, err
	}
	items, err := s.services.Content.List(ctx, ref, domain.ContentKind(input.Kind))
	if err != nil {
		return nil, err
	}
	return &ListItemsOutput{Body: ListItemsResponse{Items: items}}, nil
}

func (s *Server) handleCreateItem(ctx context.Context, input *CreateItemInput) (*ItemOutput, error) {
	ref, err := s.workRef(ctx, input.WorkPath)
	if err != nil {
		return nil, err
	}
	item, err := s.services.Content.Create(ctx, ref, domain.ContentKind(input.Kind), input.Body)
	if err != nil {
		return nil, err
	}
	return &ItemOutput{Body: item}, nil
}

func (s *Server) handleGetItem(ctx context.Context, input *ItemPath) (*ItemOutput, error) {
	ref, err := s.workRef(ctx, input.WorkPath)
	if err != nil {
		return nil, err
	}
	item, err := s.services.Content.Get(ctx, ref, domain.ContentKind(input.Kind), input.ItemID)
	if err != nil {
		return nil, err
	}
	return &ItemOutput{Body: item}, nil
}

func (s *Server) handleUpdateItem(ctx context.Context, input *UpdateItemInput) (*ItemOutput, error) {
	ref, err := s.workRef(ctx, input.WorkPath)
	if err != nil {
		return nil, err
	}
	item, err := s.services.Content.Update(ctx, ref, domain.ContentKind(input.Kind), input.ItemID, input.Body)
	if err != nil {
		return nil, err
	}
	return &ItemOutput{Body: item}, nil
}

func (s *Server) handleDeleteItem(ctx context.Context, input *ItemPath) (*struct{}, error) {
	ref, err := s.workRef(ctx, input.WorkPath)
	if err != nil {
		return nil, err
	}
	if err := s.services.Content.Delete(ctx, ref, domain.ContentKind(input.Kind), input.ItemID); err != nil {
		return nil, err
	}
	return nil, nil
}
