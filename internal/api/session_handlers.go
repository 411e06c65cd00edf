package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/quillbook/quillbook-server/internal/domain"
	"github.com/quillbook/quillbook-server/internal/service"
)

func (s *Server) registerSessionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getSession",
		Method:      http.MethodGet,
		Path:        "/api/v1/{scope}/works/{id}/session",
		Summary:     "Get session",
		Description: "Returns the work's authoring session state",
		Tags:        []string{"Sessions"},
		Security:    bearerSecurity,
	}, s.handleGetSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "openSessionItem",
		Method:      http.MethodPost,
		Path:        "/api/v1/{scope}/works/{id}/session/open",
		Summary:     "Open item",
		Description: "Flushes the open document and opens a chapter, story or outline",
		Tags:        []string{"Sessions"},
		Security:    bearerSecurity,
	}, s.handleOpenSessionItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "createSessionItem",
		Method:      http.MethodPost,
		Path:        "/api/v1/{scope}/works/{id}/session/create",
		Summary:     "Create and open item",
		Description: "Creates a chapter, story or outline and opens it",
		Tags:        []string{"Sessions"},
		Security:    bearerSecurity,
	}, s.handleCreateSessionItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "closeSession",
		Method:      http.MethodPost,
		Path:        "/api/v1/{scope}/works/{id}/session/close",
		Summary:     "Close item",
		Description: "Flushes the open document and returns to idle",
		Tags:        []string{"Sessions"},
		Security:    bearerSecurity,
	}, s.handleCloseSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "saveSessionDocument",
		Method:      http.MethodPut,
		Path:        "/api/v1/{scope}/works/{id}/session/document",
		Summary:     "Save document",
		Description: "Stores a new revision of the open document. Save failures are reported in the session state.",
		Tags:        []string{"Sessions"},
		Security:    bearerSecurity,
	}, s.handleSaveSessionDocument)

	huma.Register(s.api, huma.Operation{
		OperationID: "startSessionTimer",
		Method:      http.MethodPost,
		Path:        "/api/v1/{scope}/works/{id}/session/timer",
		Summary:     "Start timer",
		Description: "Starts a writing timer",
		Tags:        []string{"Sessions"},
		Security:    bearerSecurity,
	}, s.handleStartSessionTimer)

	huma.Register(s.api, huma.Operation{
		OperationID: "stopSessionTimer",
		Method:      http.MethodDelete,
		Path:        "/api/v1/{scope}/works/{id}/session/timer",
		Summary:     "Stop timer",
		Description: "Stops the writing timer",
		Tags:        []string{"Sessions"},
		Security:    bearerSecurity,
	}, s.handleStopSessionTimer)

	huma.Register(s.api, huma.Operation{
		OperationID: "startSessionGoal",
		Method:      http.MethodPost,
		Path:        "/api/v1/{scope}/works/{id}/session/goal",
		Summary:     "Start word goal",
		Description: "Sets a word goal for the open document",
		Tags:        []string{"Sessions"},
		Security:    bearerSecurity,
	}, s.handleStartSessionGoal)

	huma.Register(s.api, huma.Operation{
		OperationID: "stopSessionGoal",
		Method:      http.MethodDelete,
		Path:        "/api/v1/{scope}/works/{id}/session/goal",
		Summary:     "Stop word goal",
		Description: "Clears the word goal without keeping progress",
		Tags:        []string{"Sessions"},
		Security:    bearerSecurity,
	}, s.handleStopSessionGoal)
}

// === DTOs ===

// SessionOutput wraps the session state for Huma.
type SessionOutput struct {
	Body service.SessionSnapshot
}

// OpenItemRequest is the request body for opening an item.
type OpenItemRequest struct {
	Kind   string `json:"kind" enum:"chapter,story,outline" doc:"Item kind"`
	ItemID string `json:"item_id" minLength:"1" doc:"Item ID"`
}

// OpenItemInput wraps the open request for Huma.
type OpenItemInput struct {
	WorkPath
	Body OpenItemRequest
}

// CreateSessionItemRequest is the request body for creating and opening an item.
type CreateSessionItemRequest struct {
	Kind  string `json:"kind" enum:"chapter,story,outline" doc:"Item kind"`
	Title string `json:"title" doc:"Item title"`
}

// CreateSessionItemInput wraps the create request for Huma.
type CreateSessionItemInput struct {
	WorkPath
	Body CreateSessionItemRequest
}

// SaveDocumentRequest is the request body for an autosave.
type SaveDocumentRequest struct {
	Content string `json:"content" doc:"Serialized rich-text delta"`
}

// SaveDocumentInput wraps the autosave request for Huma.
type SaveDocumentInput struct {
	WorkPath
	Body SaveDocumentRequest
}

// StartTimerRequest is the request body for a writing timer.
type StartTimerRequest struct {
	DurationSeconds int `json:"duration_seconds" minimum:"1" maximum:"86400" doc:"Timer length in seconds"`
}

// StartTimerInput wraps the timer request for Huma.
type StartTimerInput struct {
	WorkPath
	Body StartTimerRequest
}

// StartGoalRequest is the request body for a word goal.
type StartGoalRequest struct {
	Target int `json:"target" minimum:"1" doc:"Words to write"`
}

// StartGoalInput wraps the goal request for Huma.
type StartGoalInput struct {
	WorkPath
	Body StartGoalRequest
}

// === Handlers ===

func (s *Server) session(ctx context.Context, p WorkPath) (*service.Session, error) {
	ref, err := s.existingWorkRef(ctx, p)
	if err != nil {
		return nil, err
	}
	return s.services.Sessions.Get(ref), nil
}

func (s *Server) handleGetSession(ctx context.Context, input *WorkPath) (*SessionOutput, error) {
	sess, err := s.session(ctx, *input)
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Body: sess.Snapshot()}, nil
}

func (s *Server) handleOpenSessionItem(ctx context.Context, input *OpenItemInput) (*SessionOutput, error) {
	sess, err := s.session(ctx, input.WorkPath)
	if err != nil {
		return nil, err
	}
	snap, err := sess.Open(ctx, domain.ContentKind(input.Body.Kind), input.Body.ItemID)
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Body: snap}, nil
}

func (s *Server) handleCreateSessionItem(ctx context.Context, input *CreateSessionItemInput) (*SessionOutput, error) {
	sess, err := s.session(ctx, input.WorkPath)
	if err != nil {
		return nil, err
	}
	snap, err := sess.Create(ctx, domain.ContentKind(input.Body.Kind), input.Body.Title)
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Body: snap}, nil
}

func (s *Server) handleCloseSession(ctx context.Context, input *WorkPath) (*SessionOutput, error) {
	sess, err := s.session(ctx, *input)
	if err != nil {
		return nil, err
	}
	snap, err := sess.Close(ctx)
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Body: snap}, nil
}

func (s *Server) handleSaveSessionDocument(ctx context.Context, input *SaveDocumentInput) (*SessionOutput, error) {
	sess, err := s.session(ctx, input.WorkPath)
	if err != nil {
		return nil, err
	}
	snap, err := sess.DocumentChanged(ctx, input.Body.Content)
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Body: snap}, nil
}

func (s *Server) handleStartSessionTimer(ctx context.Context, input *StartTimerInput) (*SessionOutput, error) {
	sess, err := s.session(ctx, input.WorkPath)
	if err != nil {
		return nil, err
	}
	snap, err := sess.StartTimer(time.Duration(input.Body.DurationSeconds) * time.Second)
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Body: snap}, nil
}

func (s *Server) handleStopSessionTimer(ctx context.Context, input *WorkPath) (*SessionOutput, error) {
	sess, err := s.session(ctx, *input)
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Body: sess.StopTimer()}, nil
}

func (s *Server) handleStartSessionGoal(ctx context.Context, input *StartGoalInput) (*SessionOutput, error) {
	sess, err := s.session(ctx, input.WorkPath)
	if err != nil {
		return nil, err
	}
	snap, err := sess.StartGoal(input.Body.Target)
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Body: snap}, nil
}

func (s *Server) handleStopSessionGoal(ctx context.Context, input *WorkPath) (*SessionOutput, error) {
	sess, err := s.session(ctx, *input)
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Body: sess.StopGoal()}, nil
}
