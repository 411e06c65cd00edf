package domain

import (
	"strings"
	"time"
)

// AllowedUserStatus toggles whether an allowed user may currently sign in.
type AllowedUserStatus string

const (
	UserActive   AllowedUserStatus = "active"
	UserInactive AllowedUserStatus = "inactive"
)

// AllowedUser is an identity permitted to sign in.
type AllowedUser struct {
	Email       string            `json:"email"`
	Name        string            `json:"name,omitempty"`
	IsAdmin     bool              `json:"is_admin"`
	Status      AllowedUserStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	LastLoginAt *time.Time        `json:"last_login_at,omitempty"`
	Picture     string            `json:"picture,omitempty"`
}

// CanSignIn reports whether the user is active.
func (u *AllowedUser) CanSignIn() bool {
	return u.Status != UserInactive
}

// SignupStatus is the state of a signup request.
type SignupStatus string

const (
	SignupPending  SignupStatus = "pending"
	SignupApproved SignupStatus = "approved"
	SignupRejected SignupStatus = "rejected"
)

// SignupRequest asks for admission to the allow-list. It moves from pending
// to approved or rejected exactly once.
type SignupRequest struct {
	ID        string       `json:"id"`
	Email     string       `json:"email"`
	Name      string       `json:"name"`
	Reason    string       `json:"reason,omitempty"`
	Status    SignupStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	DecidedAt *time.Time   `json:"decided_at,omitempty"`
	DecidedBy string       `json:"decided_by,omitempty"`
}

// NormalizeEmail lowercases and trims an email for comparison and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailDomain returns the part after the last @, lowercased.
func EmailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return ""
	}
	return NormalizeEmail(email[at+1:])
}
