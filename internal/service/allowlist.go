package service

import (
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/quillbook/quillbook-server/internal/allowlist"
	"github.com/quillbook/quillbook-server/internal/domain"
	domainerrors "github.com/quillbook/quillbook-server/internal/errors"
	"github.com/quillbook/quillbook-server/internal/id"
	"github.com/quillbook/quillbook-server/internal/validation"
)

// AddUserInput is an admin's request to allow a user directly.
type AddUserInput struct {
	Email   string `json:"email" validate:"required,email"`
	Name    string `json:"name,omitempty" validate:"max=100"`
	IsAdmin bool   `json:"is_admin,omitempty"`
}

// SignupInput asks for access.
type SignupInput struct {
	Email  string `json:"email" validate:"required,email"`
	Name   string `json:"name" validate:"notblank,max=100"`
	Reason string `json:"reason,omitempty" validate:"max=1000"`
}

// Identity is what the identity provider asserts about a signed-in person.
type Identity struct {
	Email   string `json:"email" validate:"required,email"`
	Name    string `json:"name,omitempty" validate:"max=100"`
	Picture string `json:"picture,omitempty" validate:"omitempty,url"`
}

// AllowListService decides who may sign in and runs the signup approval
// workflow over the allow-list files.
type AllowListService struct {
	store        *allowlist.Store
	signupDomain string
	validator    *validation.Validator
	logger       *slog.Logger
	now          func() time.Time
}

// NewAllowListService creates a new allow-list service. Signup requests are
// accepted only from emails in signupDomain.
func NewAllowListService(store *allowlist.Store, signupDomain string, logger *slog.Logger) *AllowListService {
	return &AllowListService{
		store:        store,
		signupDomain: strings.ToLower(strings.TrimSpace(signupDomain)),
		validator:    validation.New(),
		logger:       logger,
		now:          time.Now,
	}
}

func (s *AllowListService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// IsAllowed reports whether email may sign in.
func (s *AllowListService) IsAllowed(email string) bool {
	u, ok := s.store.User(email)
	return ok && u.CanSignIn()
}

// IsAdmin reports whether email is an active admin.
func (s *AllowListService) IsAdmin(email string) bool {
	u, ok := s.store.User(email)
	return ok && u.CanSignIn() && u.IsAdmin
}

// GetUser returns one allowed user.
func (s *AllowListService) GetUser(email string) (*domain.AllowedUser, error) {
	u, ok := s.store.User(email)
	if !ok {
		return nil, domainerrors.NotFound("user not found")
	}
	return &u, nil
}

// ListUsers returns every allowed user.
func (s *AllowListService) ListUsers() []domain.AllowedUser {
	return s.store.Users()
}

// AddUser allows a user directly.
func (s *AllowListService) AddUser(in AddUserInput) (*domain.AllowedUser, error) {
	in.Email = domain.NormalizeEmail(in.Email)
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	user := domain.AllowedUser{
		Email:     in.Email,
		Name:      strings.TrimSpace(in.Name),
		IsAdmin:   in.IsAdmin,
		Status:    domain.UserActive,
		CreatedAt: s.timestamp(),
	}
	err := s.store.Update(func(users []domain.AllowedUser, reqs []domain.SignupRequest) ([]domain.AllowedUser, []domain.SignupRequest, error) {
		if findUser(users, user.Email) >= 0 {
			return nil, nil, domainerrors.Conflict("user is already allowed")
		}
		return append(users, user), reqs, nil
	})
	if err != nil {
		return nil, wrapStoreErr(err, "failed to add user")
	}

	s.logger.Info("user allowed", "email", user.Email, "is_admin", user.IsAdmin)
	return &user, nil
}

// RemoveUser revokes a user's access. Admins cannot remove themselves.
func (s *AllowListService) RemoveUser(email, actor string) error {
	email = domain.NormalizeEmail(email)
	if email == domain.NormalizeEmail(actor) {
		return domainerrors.Conflict("you cannot remove yourself")
	}

	err := s.store.Update(func(users []domain.AllowedUser, reqs []domain.SignupRequest) ([]domain.AllowedUser, []domain.SignupRequest, error) {
		i := findUser(users, email)
		if i < 0 {
			return nil, nil, domainerrors.NotFound("user not found")
		}
		return slices.Delete(users, i, i+1), reqs, nil
	})
	if err != nil {
		return wrapStoreErr(err, "failed to remove user")
	}

	s.logger.Info("user removed", "email", email, "by", actor)
	return nil
}

// UpsertOnLogin records a sign-in: it refreshes the user's name, picture
// and last login, creating an active member if the email is new.
func (s *AllowListService) UpsertOnLogin(ident Identity) (*domain.AllowedUser, error) {
	ident.Email = domain.NormalizeEmail(ident.Email)
	if err := s.validator.Validate(ident); err != nil {
		return nil, err
	}

	email := ident.Email
	now := s.timestamp()
	var result domain.AllowedUser
	err := s.store.Update(func(users []domain.AllowedUser, reqs []domain.SignupRequest) ([]domain.AllowedUser, []domain.SignupRequest, error) {
		i := findUser(users, email)
		if i < 0 {
			users = append(users, domain.AllowedUser{Email: email, Status: domain.UserActive, CreatedAt: now})
			i = len(users) - 1
		}
		if name := strings.TrimSpace(ident.Name); name != "" {
			users[i].Name = name
		}
		if ident.Picture != "" {
			users[i].Picture = ident.Picture
		}
		users[i].LastLoginAt = &now
		result = users[i]
		return users, reqs, nil
	})
	if err != nil {
		return nil, wrapStoreErr(err, "failed to record sign-in")
	}
	return &result, nil
}

// SeedAdmins makes sure each email is an active admin.
func (s *AllowListService) SeedAdmins(emails []string) error {
	if len(emails) == 0 {
		return nil
	}
	now := s.timestamp()
	err := s.store.Update(func(users []domain.AllowedUser, reqs []domain.SignupRequest) ([]domain.AllowedUser, []domain.SignupRequest, error) {
		for _, email := range emails {
			email = domain.NormalizeEmail(email)
			if email == "" {
				continue
			}
			i := findUser(users, email)
			if i < 0 {
				users = append(users, domain.AllowedUser{Email: email, Status: domain.UserActive, CreatedAt: now})
				i = len(users) - 1
			}
			users[i].IsAdmin = true
			users[i].Status = domain.UserActive
		}
		return users, reqs, nil
	})
	if err != nil {
		return wrapStoreErr(err, "failed to seed admins")
	}
	return nil
}

// CreateSignupRequest files a request for access. The email must belong to
// the signup domain and must not be allowed or pending already.
func (s *AllowListService) CreateSignupRequest(in SignupInput) (*domain.SignupRequest, error) {
	in.Email = domain.NormalizeEmail(in.Email)
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}
	email := in.Email
	if domain.EmailDomain(email) != s.signupDomain {
		return nil, domainerrors.Validationf("signup is limited to %s addresses", s.signupDomain)
	}

	reqID, err := id.Generate("signup")
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to create signup request")
	}
	req := domain.SignupRequest{
		ID:        reqID,
		Email:     email,
		Name:      strings.TrimSpace(in.Name),
		Reason:    strings.TrimSpace(in.Reason),
		Status:    domain.SignupPending,
		CreatedAt: s.timestamp(),
	}

	err = s.store.Update(func(users []domain.AllowedUser, reqs []domain.SignupRequest) ([]domain.AllowedUser, []domain.SignupRequest, error) {
		if findUser(users, email) >= 0 {
			return nil, nil, domainerrors.Conflict("this email is already allowed")
		}
		for _, r := range reqs {
			if r.Email == email && r.Status == domain.SignupPending {
				return nil, nil, domainerrors.Conflict("a signup request for this email is already pending")
			}
		}
		return users, append(reqs, req), nil
	})
	if err != nil {
		return nil, wrapStoreErr(err, "failed to save signup request")
	}

	s.logger.Info("signup requested", "email", email, "id", req.ID)
	return &req, nil
}

// ListSignupRequests returns requests, newest first, optionally filtered by
// status.
func (s *AllowListService) ListSignupRequests(status domain.SignupStatus) []domain.SignupRequest {
	reqs := s.store.Requests()
	if status != "" {
		reqs = slices.DeleteFunc(reqs, func(r domain.SignupRequest) bool { return r.Status != status })
	}
	slices.SortStableFunc(reqs, func(a, b domain.SignupRequest) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return reqs
}

// Approve admits a pending request's email to the allow-list.
func (s *AllowListService) Approve(requestID, actor string) (*domain.AllowedUser, error) {
	now := s.timestamp()
	var user domain.AllowedUser
	err := s.store.Update(func(users []domain.AllowedUser, reqs []domain.SignupRequest) ([]domain.AllowedUser, []domain.SignupRequest, error) {
		i, err := pendingRequest(reqs, requestID)
		if err != nil {
			return nil, nil, err
		}
		if findUser(users, reqs[i].Email) >= 0 {
			return nil, nil, domainerrors.Conflict("user is already allowed")
		}

		user = domain.AllowedUser{
			Email:     reqs[i].Email,
			Name:      reqs[i].Name,
			Status:    domain.UserActive,
			CreatedAt: now,
		}
		reqs[i].Status = domain.SignupApproved
		reqs[i].DecidedAt = &now
		reqs[i].DecidedBy = domain.NormalizeEmail(actor)
		return append(users, user), reqs, nil
	})
	if err != nil {
		return nil, wrapStoreErr(err, "failed to approve signup request")
	}

	s.logger.Info("signup approved", "email", user.Email, "id", requestID, "by", actor)
	return &user, nil
}

// Reject closes a pending request without admitting anyone.
func (s *AllowListService) Reject(requestID, actor string) (*domain.SignupRequest, error) {
	now := s.timestamp()
	var req domain.SignupRequest
	err := s.store.Update(func(users []domain.AllowedUser, reqs []domain.SignupRequest) ([]domain.AllowedUser, []domain.SignupRequest, error) {
		i, err := pendingRequest(reqs, requestID)
		if err != nil {
			return nil, nil, err
		}
		reqs[i].Status = domain.SignupRejected
		reqs[i].DecidedAt = &now
		reqs[i].DecidedBy = domain.NormalizeEmail(actor)
		req = reqs[i]
		return users, reqs, nil
	})
	if err != nil {
		return nil, wrapStoreErr(err, "failed to reject signup request")
	}

	s.logger.Info("signup rejected", "email", req.Email, "id", requestID, "by", actor)
	return &req, nil
}

func findUser(users []domain.AllowedUser, email string) int {
	return slices.IndexFunc(users, func(u domain.AllowedUser) bool {
		return domain.NormalizeEmail(u.Email) == email
	})
}

func pendingRequest(reqs []domain.SignupRequest, requestID string) (int, error) {
	i := slices.IndexFunc(reqs, func(r domain.SignupRequest) bool { return r.ID == requestID })
	if i < 0 {
		return -1, domainerrors.NotFound("signup request not found")
	}
	if reqs[i].Status != domain.SignupPending {
		return -1, domainerrors.Conflictf("signup request is already %s", reqs[i].Status)
	}
	return i, nil
}

// wrapStoreErr passes domain errors through and wraps I/O failures.
func wrapStoreErr(err error, msg string) error {
	var domainErr *domainerrors.Error
	if domainerrors.As(err, &domainErr) {
		return err
	}
	return domainerrors.Wrap(err, domainerrors.CodeInternal, msg)
}
