package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/quillbook/quillbook-server/internal/domain"
	domainerrors "github.com/quillbook/quillbook-server/internal/errors"
	"github.com/quillbook/quillbook-server/internal/service"
)

func (s *Server) registerWorkRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listWorks",
		Method:      http.MethodGet,
		Path:        "/api/v1/{scope}/works",
		Summary:     "List works",
		Description: "Returns the user's works in a scope, in creation order",
		Tags:        []string{"Works"},
		Security:    bearerSecurity,
	}, s.handleListWorks)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createWork",
		Method:        http.MethodPost,
		Path:          "/api/v1/{scope}/works",
		Summary:       "Create work",
		Description:   "Creates a book or quick story, subject to the plan's work limit",
		Tags:          []string{"Works"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateWork)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSeriesNumbers",
		Method:      http.MethodGet,
		Path:        "/api/v1/{scope}/works/series-numbers",
		Summary:     "Available series numbers",
		Description: "Returns the series numbers still free in a series (books only)",
		Tags:        []string{"Works"},
		Security:    bearerSecurity,
	}, s.handleGetSeriesNumbers)

	huma.Register(s.api, huma.Operation{
		OperationID: "getWork",
		Method:      http.MethodGet,
		Path:        "/api/v1/{scope}/works/{id}",
		Summary:     "Get work",
		Description: "Returns a work by ID",
		Tags:        []string{"Works"},
		Security:    bearerSecurity,
	}, s.handleGetWork)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateWork",
		Method:      http.MethodPatch,
		Path:        "/api/v1/{scope}/works/{id}",
		Summary:     "Update work",
		Description: "Updates the given fields of a work. Omitted fields keep their values",
		Tags:        []string{"Works"},
		Security:    bearerSecurity,
	}, s.handleUpdateWork)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteWork",
		Method:      http.MethodDelete,
		Path:        "/api/v1/{scope}/works/{id}",
		Summary:     "Delete work",
		Description: "Deletes a work and everything it owns",
		Tags:        []string{"Works"},
		Security:    bearerSecurity,
	}, s.handleDeleteWork)
}

// === DTOs ===

// ScopePath selects book or quick story mode.
type ScopePath struct {
	Scope string `path:"scope" enum:"book,quickstory" doc:"Work scope"`
}

// WorkPath identifies one work of the signed-in user.
type WorkPath struct {
	Scope  string `path:"scope" enum:"book,quickstory" doc:"Work scope"`
	WorkID int    `path:"id" minimum:"1" doc:"Work ID"`
}

// ListWorksResponse contains a list of works.
type ListWorksResponse struct {
	Works []domain.Work `json:"works" doc:"Works in creation order"`
}

// ListWorksOutput wraps the list works response for Huma.
type ListWorksOutput struct {
	Body ListWorksResponse
}

// CreateWorkInput wraps the create work request for Huma.
type CreateWorkInput struct {
	ScopePath
	Body service.WorkInput
}

// UpdateWorkInput wraps the update work request for Huma.
type UpdateWorkInput struct {
	WorkPath
	Body service.WorkPatch
}

// WorkOutput wraps a work for Huma.
type WorkOutput struct {
	Body *domain.Work
}

// SeriesNumbersInput contains parameters for the series number lookup.
type SeriesNumbersInput struct {
	ScopePath
	Series  string `query:"series" required:"true" doc:"Series name"`
	Exclude int    `query:"exclude" doc:"Work ID whose own number counts as free"`
}

// SeriesNumbersResponse lists free series numbers.
type SeriesNumbersResponse struct {
	Series  string `json:"series" doc:"Series name"`
	Numbers []int  `json:"numbers" doc:"Free numbers in ascending order"`
}

// SeriesNumbersOutput wraps the series numbers for Huma.
type SeriesNumbersOutput struct {
	Body SeriesNumbersResponse
}

// === Handlers ===

func (s *Server) workRef(ctx context.Context, p WorkPath) (service.WorkRef, error) {
	user, err := userKey(ctx)
	if err != nil {
		return service.WorkRef{}, err
	}
	return service.WorkRef{UserKey: user, Scope: domain.Scope(p.Scope), WorkID: p.WorkID}, nil
}

// existingWorkRef is workRef for routes that need the work to exist.
func (s *Server) existingWorkRef(ctx context.Context, p WorkPath) (service.WorkRef, error) {
	ref, err := s.workRef(ctx, p)
	if err != nil {
		return ref, err
	}
	if _, err := s.services.Works.Get(ctx, ref); err != nil {
		return ref, err
	}
	return ref, nil
}

func (s *Server) handleListWorks(ctx context.Context, input *ScopePath) (*ListWorksOutput, error) {
	user, err := userKey(ctx)
	if err != nil {
		return nil, err
	}
	works, err := s.services.Works.List(ctx, user, domain.Scope(input.Scope))
	if err != nil {
		return nil, err
	}
	return &ListWorksOutput{Body: ListWorksResponse{Works: works}}, nil
}

func (s *Server) handleCreateWork(ctx context.Context, input *CreateWorkInput) (*WorkOutput, error) {
	user, err := userKey(ctx)
	if err != nil {
		return nil, err
	}
	w, err := s.services.Works.Create(ctx, user, domain.Scope(input.Scope), input.Body)
	if err != nil {
		return nil, err
	}
	return &WorkOutput{Body: w}, nil
}

func (s *Server) handleGetSeriesNumbers(ctx context.Context, input *SeriesNumbersInput) (*SeriesNumbersOutput, error) {
	user, err := userKey(ctx)
	if err != nil {
		return nil, err
	}
	if domain.Scope(input.Scope) != domain.ScopeBook {
		return nil, domainerrors.Validation("series numbers apply to books only")
	}
	numbers := s.services.Works.AvailableSeriesNumbers(ctx, user, input.Series, input.Exclude)
	if numbers == nil {
		numbers = []int{}
	}
	return &SeriesNumbersOutput{Body: SeriesNumbersResponse{Series: input.Series, Numbers: numbers}}, nil
}

func (s *Server) handleGetWork(ctx context.Context, input *WorkPath) (*WorkOutput, error) {
	ref, err := s.workRef(ctx, *input)
	if err != nil {
		return nil, err
	}
	w, err := s.services.Works.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	return &WorkOutput{Body: w}, nil
}

func (s *Server) handleUpdateWork(ctx context.Context, input *UpdateWorkInput) (*WorkOutput, error) {
	ref, err := s.workRef(ctx, input.WorkPath)
	if err != nil {
		return nil, err
	}
	w, err := s.services.Works.Update(ctx, ref, input.Body)
	if err != nil {
		return nil, err
	}
	return &WorkOutput{Body: w}, nil
}

func (s *Server) handleDeleteWork(ctx context.Context, input *WorkPath) (*struct{}, error) {
	ref, err := s.workRef(ctx, *input)
	if err != nil {
		return nil, err
	}
	if err := s.services.Works.Delete(ctx, ref); err != nil {
		return nil, err
	}
	return nil, nil
}
