package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/quillbook/quillbook-server/internal/domain"
)

func (s *Server) registerActivityRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listActivity",
		Method:      http.MethodGet,
		Path:        "/api/v1/activity",
		Summary:     "Recent activity",
		Description: "Returns the user's last 50 creates, edits and deletes across all works, newest first",
		Tags:        []string{"Activity"},
		Security:    bearerSecurity,
	}, s.handleListActivity)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteActivity",
		Method:      http.MethodDelete,
		Path:        "/api/v1/activity/{id}",
		Summary:     "Remove activity entry",
		Description: "Removes one entry from the recent-activity log",
		Tags:        []string{"Activity"},
		Security:    bearerSecurity,
	}, s.handleDeleteActivity)
}

// ListActivityResponse contains activity entries.
type ListActivityResponse struct {
	Entries []domain.ActivityEntry `json:"entries" doc:"Entries, newest first"`
}

// ListActivityOutput wraps the activity list for Huma.
type ListActivityOutput struct {
	Body ListActivityResponse
}

// DeleteActivityInput identifies one activity entry.
type DeleteActivityInput struct {
	ID string `path:"id" doc:"Activity entry ID"`
}

func (s *Server) handleListActivity(ctx context.Context, _ *struct{}) (*ListActivityOutput, error) {
	user, err := userKey(ctx)
	if err != nil {
		return nil, err
	}
	return &ListActivityOutput{Body: ListActivityResponse{Entries: s.services.Activity.List(ctx, user)}}, nil
}

func (s *Server) handleDeleteActivity(ctx context.Context, input *DeleteActivityInput) (*struct{}, error) {
	user, err := userKey(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.services.Activity.Remove(ctx, user, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}
