package api

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/quillbook/quillbook-server/internal/domain"
	domainerrors "github.com/quillbook/quillbook-server/internal/errors"
	"github.com/quillbook/quillbook-server/internal/service"
)

// callbackSecretHeader carries the shared secret on sign-in callbacks.
const callbackSecretHeader = "X-Callback-Secret"

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "signInCallback",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/callback",
		Summary:     "Sign-in callback",
		Description: "Receives the identity asserted by the sign-in provider. Allowed users get an access token; others are told to request signup.",
		Tags:        []string{"Auth"},
		Middlewares: s.rateLimited(),
	}, s.handleSignInCallback)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/me",
		Summary:     "Get current user",
		Description: "Returns the allow-list record of the signed-in user",
		Tags:        []string{"Auth"},
		Security:    bearerSecurity,
	}, s.handleGetCurrentUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "checkAdmin",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/check",
		Summary:     "Check admin",
		Description: "Reports whether the signed-in user is an admin",
		Tags:        []string{"Auth"},
		Security:    bearerSecurity,
	}, s.handleCheckAdmin)
}

// === DTOs ===

// SignInCallbackInput wraps the callback request for Huma.
type SignInCallbackInput struct {
	Secret string `header:"X-Callback-Secret" doc:"Shared secret configured for the sign-in provider"`
	Body   service.Identity
}

// SignInOutput wraps the sign-in result for Huma.
type SignInOutput struct {
	Body *service.SignInResult
}

// UserOutput wraps an allowed user for Huma.
type UserOutput struct {
	Body *domain.AllowedUser
}

// AdminCheckResponse reports admin status.
type AdminCheckResponse struct {
	IsAdmin bool `json:"is_admin" doc:"Whether the user is an admin"`
}

// AdminCheckOutput wraps the admin check for Huma.
type AdminCheckOutput struct {
	Body AdminCheckResponse
}

// === Handlers ===

func (s *Server) handleSignInCallback(ctx context.Context, input *SignInCallbackInput) (*SignInOutput, error) {
	if s.callbackSecret != "" && subtle.ConstantTimeCompare([]byte(input.Secret), []byte(s.callbackSecret)) != 1 {
		return nil, domainerrors.Unauthorized("invalid callback secret")
	}

	res, err := s.services.Auth.Callback(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return &SignInOutput{Body: res}, nil
}

func (s *Server) handleGetCurrentUser(ctx context.Context, _ *struct{}) (*UserOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: user}, nil
}

func (s *Server) handleCheckAdmin(ctx context.Context, _ *struct{}) (*AdminCheckOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}
	return &AdminCheckOutput{Body: AdminCheckResponse{IsAdmin: user.IsAdmin}}, nil
}
