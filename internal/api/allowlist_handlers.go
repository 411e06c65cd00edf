package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/quillbook/quillbook-server/internal/domain"
	"github.com/quillbook/quillbook-server/internal/service"
)

func (s *Server) registerAllowListRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listUsers",
		Method:      http.MethodGet,
		Path:        "/api/v1/users",
		Summary:     "List allowed users",
		Description: "Returns every allow-listed user (admin only)",
		Tags:        []string{"Users"},
		Security:    bearerSecurity,
	}, s.handleListUsers)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addUser",
		Method:        http.MethodPost,
		Path:          "/api/v1/users",
		Summary:       "Add allowed user",
		Description:   "Adds an email to the allow-list (admin only)",
		Tags:          []string{"Users"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleAddUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeUser",
		Method:      http.MethodDelete,
		Path:        "/api/v1/users/{email}",
		Summary:     "Remove allowed user",
		Description: "Removes an email from the allow-list (admin only)",
		Tags:        []string{"Users"},
		Security:    bearerSecurity,
	}, s.handleRemoveUser)

	huma.Register(s.api, huma.Operation{
		OperationID:   "requestSignup",
		Method:        http.MethodPost,
		Path:          "/api/v1/signup",
		Summary:       "Request signup",
		Description:   "Files a signup request for an email in the accepted domain",
		Tags:          []string{"Signup"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   s.rateLimited(),
	}, s.handleRequestSignup)

	huma.Register(s.api, huma.Operation{
		OperationID: "listSignupRequests",
		Method:      http.MethodGet,
		Path:        "/api/v1/signup-requests",
		Summary:     "List signup requests",
		Description: "Returns signup requests, newest first (admin only)",
		Tags:        []string{"Signup"},
		Security:    bearerSecurity,
	}, s.handleListSignupRequests)

	huma.Register(s.api, huma.Operation{
		OperationID: "approveSignupRequest",
		Method:      http.MethodPost,
		Path:        "/api/v1/signup-requests/{id}/approve",
		Summary:     "Approve signup request",
		Description: "Approves a pending request and adds the email to the allow-list (admin only)",
		Tags:        []string{"Signup"},
		Security:    bearerSecurity,
	}, s.handleApproveSignupRequest)

	huma.Register(s.api, huma.Operation{
		OperationID: "rejectSignupRequest",
		Method:      http.MethodPost,
		Path:        "/api/v1/signup-requests/{id}/reject",
		Summary:     "Reject signup request",
		Description: "Rejects a pending request (admin only)",
		Tags:        []string{"Signup"},
		Security:    bearerSecurity,
	}, s.handleRejectSignupRequest)
}

// === DTOs ===

// ListUsersResponse contains the allow-list.
type ListUsersResponse struct {
	Users []domain.AllowedUser `json:"users" doc:"Allowed users"`
}

// ListUsersOutput wraps the user list for Huma.
type ListUsersOutput struct {
	Body ListUsersResponse
}

// AddUserInput wraps the add user request for Huma.
type AddUserInput struct {
	Body service.AddUserInput
}

// RemoveUserInput contains parameters for removing a user.
type RemoveUserInput struct {
	Email string `path:"email" doc:"Email to remove"`
}

// SignupInput wraps the signup request for Huma.
type SignupInput struct {
	Body service.SignupInput
}

// SignupRequestOutput wraps a signup request for Huma.
type SignupRequestOutput struct {
	Body *domain.SignupRequest
}

// ListSignupRequestsInput contains parameters for listing signup requests.
type ListSignupRequestsInput struct {
	Status string `query:"status" enum:"pending,approved,rejected" doc:"Only requests in this state"`
}

// ListSignupRequestsResponse contains signup requests.
type ListSignupRequestsResponse struct {
	Requests []domain.SignupRequest `json:"requests" doc:"Signup requests, newest first"`
}

// ListSignupRequestsOutput wraps the request list for Huma.
type ListSignupRequestsOutput struct {
	Body ListSignupRequestsResponse
}

// SignupRequestIDInput identifies one signup request.
type SignupRequestIDInput struct {
	ID string `path:"id" doc:"Signup request ID"`
}

// === Handlers ===

func (s *Server) handleListUsers(ctx context.Context, _ *struct{}) (*ListUsersOutput, error) {
	if _, err := RequireAdmin(ctx); err != nil {
		return nil, err
	}
	return &ListUsersOutput{Body: ListUsersResponse{Users: s.services.AllowList.ListUsers()}}, nil
}

func (s *Server) handleAddUser(ctx context.Context, input *AddUserInput) (*UserOutput, error) {
	if _, err := RequireAdmin(ctx); err != nil {
		return nil, err
	}
	user, err := s.services.AllowList.AddUser(input.Body)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: user}, nil
}

func (s *Server) handleRemoveUser(ctx context.Context, input *RemoveUserInput) (*struct{}, error) {
	admin, err := RequireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.services.AllowList.RemoveUser(input.Email, admin.Email); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleRequestSignup(_ context.Context, input *SignupInput) (*SignupRequestOutput, error) {
	req, err := s.services.AllowList.CreateSignupRequest(input.Body)
	if err != nil {
		return nil, err
	}
	return &SignupRequestOutput{Body: req}, nil
}

func (s *Server) handleListSignupRequests(ctx context.Context, input *ListSignupRequestsInput) (*ListSignupRequestsOutput, error) {
	if _, err := RequireAdmin(ctx); err != nil {
		return nil, err
	}
	reqs := s.services.AllowList.ListSignupRequests(domain.SignupStatus(input.Status))
	return &ListSignupRequestsOutput{Body: ListSignupRequestsResponse{Requests: reqs}}, nil
}

func (s *Server) handleApproveSignupRequest(ctx context.Context, input *SignupRequestIDInput) (*UserOutput, error) {
	admin, err := RequireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.services.AllowList.Approve(input.ID, admin.Email)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: user}, nil
}

func (s *Server) handleRejectSignupRequest(ctx context.Context, input *SignupRequestIDInput) (*SignupRequestOutput, error) {
	admin, err := RequireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	req, err := s.services.AllowList.Reject(input.ID, admin.Email)
	if err != nil {
		return nil, err
	}
	return &SignupRequestOutput{Body: req}, nil
}
