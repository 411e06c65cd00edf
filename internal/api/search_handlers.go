package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/quillbook/quillbook-server/internal/domain"
	domainerrors "github.com/quillbook/quillbook-server/internal/errors"
	"github.com/quillbook/quillbook-server/internal/search"
	"github.com/quillbook/quillbook-server/internal/service"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchScope",
		Method:      http.MethodGet,
		Path:        "/api/v1/{scope}/search",
		Summary:     "Search all works",
		Description: "Full-text search across every work in a scope",
		Tags:        []string{"Search"},
		Security:    bearerSecurity,
	}, s.handleSearchScope)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchWork",
		Method:      http.MethodGet,
		Path:        "/api/v1/{scope}/works/{id}/search",
		Summary:     "Search one work",
		Description: "Full-text search within one work",
		Tags:        []string{"Search"},
		Security:    bearerSecurity,
	}, s.handleSearchWork)
}

// === DTOs ===

// SearchParams are the query parameters shared by both search routes.
type SearchParams struct {
	Query string `query:"q" required:"true" minLength:"1" doc:"Search text"`
	Kind  string `query:"kind" doc:"Comma separated item kinds to include"`
	Limit int    `query:"limit" minimum:"1" maximum:"100" default:"20" doc:"Maximum hits"`
}

// SearchScopeInput contains parameters for a scope-wide search.
type SearchScopeInput struct {
	ScopePath
	SearchParams
}

// SearchWorkInput contains parameters for a per-work search.
type SearchWorkInput struct {
	WorkPath
	SearchParams
}

// SearchOutput wraps search results for Huma.
type SearchOutput struct {
	Body *search.Result
}

// === Handlers ===

func (s *Server) handleSearchScope(ctx context.Context, input *SearchScopeInput) (*SearchOutput, error) {
	ref, err := s.workRef(ctx, WorkPath{Scope: input.Scope})
	if err != nil {
		return nil, err
	}
	return s.search(ctx, ref, input.SearchParams)
}

func (s *Server) handleSearchWork(ctx context.Context, input *SearchWorkInput) (*SearchOutput, error) {
	ref, err := s.existingWorkRef(ctx, input.WorkPath)
	if err != nil {
		return nil, err
	}
	return s.search(ctx, ref, input.SearchParams)
}

func (s *Server) search(ctx context.Context, ref service.WorkRef, params SearchParams) (*SearchOutput, error) {
	if s.services.Search == nil {
		return nil, domainerrors.Internal("search is not available")
	}

	var kinds []domain.ContentKind
	for _, k := range strings.Split(params.Kind, ",") {
		if k = strings.TrimSpace(k); k != "" {
			kinds = append(kinds, domain.ContentKind(k))
		}
	}

	res, err := s.services.Search.Search(ctx, ref, params.Query, kinds, params.Limit)
	if err != nil {
		return nil, err
	}
	return &SearchOutput{Body: res}, nil
}
