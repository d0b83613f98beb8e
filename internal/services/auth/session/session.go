// Package session issues and verifies signed session tokens.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/roomdesk/roomdesk/internal/platform/errors"
	"github.com/roomdesk/roomdesk/internal/services/auth/user"
)

// MinSecretLength is the shortest accepted HMAC signing secret.
const MinSecretLength = 32

var (
	// ErrInvalid indicates a token that fails verification.
	ErrInvalid = apperrors.New(apperrors.CodeSessionInvalid, "session is invalid")
	// ErrExpired indicates a token past its expiry.
	ErrExpired = apperrors.New(apperrors.CodeSessionInvalid, "session is expired")
)

// Config defines how sessions are signed.
type Config struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
	Now    func() time.Time
}

// Claims are the verified contents of a session token.
type Claims struct {
	UserID    string
	Role      user.Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Manager signs and verifies HS256 session tokens.
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, fmt.Errorf("session secret must be at least %d bytes", MinSecretLength)
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		return nil, errors.New("session issuer is required")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{secret: cfg.Secret, issuer: issuer, ttl: cfg.TTL, now: now}, nil
}

// TTL returns the configured session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a session for u and returns the token with its expiry.
func (m *Manager) Issue(u user.User) (string, time.Time, error) {
	if strings.TrimSpace(u.ID) == "" {
		return "", time.Time{}, errors.New("user id is required")
	}
	issuedAt := m.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(m.ttl)
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role: string(u.Role),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return token, expiresAt, nil
}

// Verify parses token and validates signature, issuer and expiry.
func (m *Manager) Verify(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, ErrInvalid
	}

	var parsed tokenClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Claims{}, apperrors.Wrap(apperrors.CodeSessionInvalid, "session signature is invalid", err)
	}
	if parsed.Issuer != m.issuer {
		return Claims{}, ErrInvalid
	}
	if strings.TrimSpace(parsed.Subject) == "" || parsed.ExpiresAt == nil {
		return Claims{}, ErrInvalid
	}
	expiresAt := parsed.ExpiresAt.Time.UTC()
	if !expiresAt.After(m.now().UTC()) {
		return Claims{}, ErrExpired
	}

	claims := Claims{
		UserID:    parsed.Subject,
		Role:      user.Role(parsed.Role),
		ExpiresAt: expiresAt,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time.UTC()
	}
	return claims, nil
}
