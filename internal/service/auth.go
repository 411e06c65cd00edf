package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/quillbook/quillbook-server/internal/auth"
	"github.com/quillbook/quillbook-server/internal/domain"
	domainerrors "github.com/quillbook/quillbook-server/internal/errors"
)

// Sign-in outcomes.
const (
	SignInOK             = "signed_in"
	SignInSignupRequired = "signup_required"
)

// SignInResult is the outcome of an identity provider callback.
type SignInResult struct {
	Status      string              `json:"status"`
	AccessToken string              `json:"access_token,omitempty"`
	ExpiresAt   *time.Time          `json:"expires_at,omitempty"`
	User        *domain.AllowedUser `json:"user,omitempty"`
}

// AuthService turns an identity asserted by the OAuth provider into an
// access token, if the allow-list admits it.
type AuthService struct {
	tokens    *auth.TokenService
	allowList *AllowListService
	logger    *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(tokens *auth.TokenService, allowList *AllowListService, logger *slog.Logger) *AuthService {
	return &AuthService{tokens: tokens, allowList: allowList, logger: logger}
}

// Callback signs in an identity. Emails that are not on the allow-list get
// SignInSignupRequired and no token; disabled users are forbidden.
func (s *AuthService) Callback(_ context.Context, ident Identity) (*SignInResult, error) {
	existing, err := s.allowList.GetUser(ident.Email)
	if err != nil {
		if domainerrors.Is(err, domainerrors.ErrNotFound) {
			s.logger.Info("sign-in without allow-list entry", "email", domain.NormalizeEmail(ident.Email))
			return &SignInResult{Status: SignInSignupRequired}, nil
		}
		return nil, err
	}
	if !existing.CanSignIn() {
		return nil, domainerrors.Forbidden("this account is disabled")
	}

	user, err := s.allowList.UpsertOnLogin(ident)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.tokens.Issue(user.Email, user.IsAdmin)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to issue access token")
	}

	s.logger.Info("user signed in", "email", user.Email, "is_admin", user.IsAdmin)
	return &SignInResult{Status: SignInOK, AccessToken: token, ExpiresAt: &expiresAt, User: user}, nil
}

// Authenticate verifies an access token and re-checks the allow-list, so
// removing a user takes effect before their token expires.
func (s *AuthService) Authenticate(token string) (*domain.AllowedUser, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, domainerrors.TokenExpired("access token expired")
		}
		return nil, domainerrors.Unauthorized("invalid access token")
	}

	user, err := s.allowList.GetUser(claims.Email)
	if err != nil || !user.CanSignIn() {
		return nil, domainerrors.Unauthorized("access revoked")
	}
	return user, nil
}
