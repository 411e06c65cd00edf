package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/quillbook/quillbook-server/internal/id"
)

const (
	tokenIssuer   = "quillbook-server"
	tokenAudience = "quillbook-client"
)

// ErrTokenExpired is returned for a well-formed token past its expiry.
var ErrTokenExpired = errors.New("token expired")

// TokenService issues PASETO v4.local access tokens.
type TokenService struct {
	symmetricKey paseto.V4SymmetricKey
	duration     time.Duration
	now          func() time.Time
}

// NewTokenService creates a token service from a 32-byte key.
func NewTokenService(key []byte, duration time.Duration) (*TokenService, error) {
	if len(key) != keyLength {
		return nil, fmt.Errorf("PASETO v4 key must be %d bytes, got %d", keyLength, len(key))
	}
	if duration <= 0 {
		return nil, fmt.Errorf("token duration must be positive, got %s", duration)
	}

	symmetricKey, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("create PASETO symmetric key: %w", err)
	}

	return &TokenService{symmetricKey: symmetricKey, duration: duration, now: time.Now}, nil
}

// Issue creates an access token for an allowed user.
func (s *TokenService) Issue(email string, isAdmin bool) (token string, expiresAt time.Time, err error) {
	now := s.now()
	expiresAt = now.Add(s.duration)

	tokenID, err := id.Generate("tok")
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate token ID: %w", err)
	}

	t := paseto.NewToken()
	t.SetIssuer(tokenIssuer)
	t.SetSubject(email)
	t.SetAudience(tokenAudience)
	t.SetIssuedAt(now)
	t.SetNotBefore(now)
	t.SetExpiration(expiresAt)
	t.SetJti(tokenID)
	//nolint:errcheck // Token.Set only errors on values that cannot be encoded
	_ = t.Set("email", email)
	//nolint:errcheck // Token.Set only errors on values that cannot be encoded
	_ = t.Set("is_admin", isAdmin)

	return t.V4Encrypt(s.symmetricKey, nil), expiresAt, nil
}

// Verify decrypts a token and checks issuer, audience and validity window.
// Expired tokens return ErrTokenExpired.
func (s *TokenService) Verify(token string) (*AccessClaims, error) {
	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))

	parsed, err := parser.ParseV4Local(s.symmetricKey, token, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	var claims AccessClaims
	if err := json.Unmarshal(parsed.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}

	now := s.now()
	if !now.Before(claims.Expiration) {
		return nil, ErrTokenExpired
	}
	if now.Before(claims.NotBefore) {
		return nil, errors.New("invalid token: not yet valid")
	}
	return &claims, nil
}

// Duration returns the configured token lifetime.
func (s *TokenService) Duration() time.Duration {
	return s.duration
}
