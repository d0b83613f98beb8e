// Package account owns credential registration, sign-in and session
// resolution for roomdesk users.
package account

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/roomdesk/roomdesk/internal/platform/id"
	"github.com/roomdesk/roomdesk/internal/services/auth/session"
	"github.com/roomdesk/roomdesk/internal/services/auth/storage"
	"github.com/roomdesk/roomdesk/internal/services/auth/user"
)

// Session is an issued session token.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// RegisterInput describes a credential sign-up.
type RegisterInput struct {
	Email       string
	DisplayName string
	Password    string
	Locale      string
}

// ExternalProfile is the identity returned by an external provider.
type ExternalProfile struct {
	Provider       string
	ProviderUserID string
	Email          string
	EmailVerified  bool
	DisplayName    string
	Locale         string
}

// ErrUnverifiedEmail indicates a provider profile without a verified email.
var ErrUnverifiedEmail = errors.New("provider email is not verified")

// Service coordinates account storage and session issuance.
type Service struct {
	users     storage.UserStore
	providers storage.ProviderStore
	sessions  *session.Manager
	now       func() time.Time
	newID     func() (string, error)
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides user ID generation.
func WithIDGenerator(newID func() (string, error)) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// WithProviderStore enables external identity linking.
func WithProviderStore(providers storage.ProviderStore) Option {
	return func(s *Service) {
		s.providers = providers
	}
}

// NewService builds an account service.
func NewService(users storage.UserStore, sessions *session.Manager, opts ...Option) *Service {
	s := &Service{
		users:    users,
		sessions: sessions,
		now:      time.Now,
		newID:    id.NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a credential account with the user role.
func (s *Service) Register(ctx context.Context, input RegisterInput) (user.User, error) {
	if len(input.Password) < user.MinPasswordLength {
		return user.User{}, user.ErrPasswordTooShort
	}
	created, err := user.CreateUser(user.CreateUserInput{
		Email:       input.Email,
		DisplayName: input.DisplayName,
		Password:    input.Password,
		Role:        user.RoleUser,
		Locale:      input.Locale,
	}, s.now, s.newID)
	if err != nil {
		return user.User{}, err
	}
	if err := s.users.CreateUser(ctx, created); err != nil {
		return user.User{}, err
	}
	return created, nil
}

// Login verifies credentials and issues a session.
func (s *Service) Login(ctx context.Context, email, password string) (user.User, Session, error) {
	normalized, err := user.NormalizeEmail(email)
	if err != nil {
		return user.User{}, Session{}, user.ErrInvalidCredentials
	}
	found, err := s.users.GetUserByEmail(ctx, normalized)
	if errors.Is(err, storage.ErrNotFound) {
		return user.User{}, Session{}, user.ErrInvalidCredentials
	}
	if err != nil {
		return user.User{}, Session{}, fmt.Errorf("load user: %w", err)
	}
	if err := found.CheckPassword(password); err != nil {
		return user.User{}, Session{}, err
	}
	issued, err := s.IssueSession(found)
	if err != nil {
		return user.User{}, Session{}, err
	}
	return found, issued, nil
}

// IssueSession signs a session for u.
func (s *Service) IssueSession(u user.User) (Session, error) {
	token, expiresAt, err := s.sessions.Issue(u)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: expiresAt}, nil
}

// Authenticate verifies a session token and loads the current account. The
// stored role wins over the role embedded in the token.
func (s *Service) Authenticate(ctx context.Context, token string) (user.User, error) {
	claims, err := s.sessions.Verify(token)
	if err != nil {
		return user.User{}, err
	}
	found, err := s.users.GetUser(ctx, claims.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return user.User{}, session.ErrInvalid
	}
	if err != nil {
		return user.User{}, fmt.Errorf("load session user: %w", err)
	}
	return found, nil
}

// GetUser loads an account by ID.
func (s *Service) GetUser(ctx context.Context, userID string) (user.User, error) {
	return s.users.GetUser(ctx, userID)
}

// ListAdmins returns every admin account.
func (s *Service) ListAdmins(ctx context.Context) ([]user.User, error) {
	return s.users.ListUsersByRole(ctx, user.RoleAdmin)
}

// EnsureAdmin creates the account for email as an admin, or promotes and
// resets the password of an existing one.
func (s *Service) EnsureAdmin(ctx context.Context, email, password, displayName string) (user.User, error) {
	normalized, err := user.NormalizeEmail(email)
	if err != nil {
		return user.User{}, err
	}
	if strings.TrimSpace(displayName) == "" {
		displayName = "Administrator"
	}

	existing, err := s.users.GetUserByEmail(ctx, normalized)
	if errors.Is(err, storage.ErrNotFound) {
		created, err := user.CreateUser(user.CreateUserInput{
			Email:       normalized,
			DisplayName: displayName,
			Password:    password,
			Role:        user.RoleAdmin,
		}, s.now, s.newID)
		if err != nil {
			return user.User{}, err
		}
		if err := s.users.CreateUser(ctx, created); err != nil {
			return user.User{}, err
		}
		log.Printf("bootstrap admin created user_id=%s", created.ID)
		return created, nil
	}
	if err != nil {
		return user.User{}, fmt.Errorf("load admin: %w", err)
	}

	hash, err := user.HashPassword(password)
	if err != nil {
		return user.User{}, err
	}
	existing.Role = user.RoleAdmin
	existing.PasswordHash = hash
	existing.UpdatedAt = s.now().UTC()
	if err := s.users.UpdateUser(ctx, existing); err != nil {
		return user.User{}, err
	}
	return existing, nil
}

// SignInExternal resolves a provider profile to an account: an existing link
// wins, then a verified email match, otherwise a new account is created.
func (s *Service) SignInExternal(ctx context.Context, profile ExternalProfile) (user.User, error) {
	if s.providers == nil {
		return user.User{}, errors.New("provider store is not configured")
	}
	if strings.TrimSpace(profile.Provider) == "" || strings.TrimSpace(profile.ProviderUserID) == "" {
		return user.User{}, errors.New("provider identity is required")
	}

	identity, err := s.providers.GetExternalIdentity(ctx, profile.Provider, profile.ProviderUserID)
	switch {
	case err == nil:
		return s.users.GetUser(ctx, identity.UserID)
	case !errors.Is(err, storage.ErrNotFound):
		return user.User{}, fmt.Errorf("load external identity: %w", err)
	}

	if !profile.EmailVerified {
		return user.User{}, ErrUnverifiedEmail
	}
	email, err := user.NormalizeEmail(profile.Email)
	if err != nil {
		return user.User{}, err
	}

	account, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		account, err = user.CreateUser(user.CreateUserInput{
			Email:       email,
			DisplayName: firstNonEmpty(profile.DisplayName, email),
			Role:        user.RoleUser,
			Locale:      profile.Locale,
		}, s.now, s.newID)
		if err != nil {
			return user.User{}, err
		}
		if err := s.users.CreateUser(ctx, account); err != nil {
			return user.User{}, err
		}
	} else if err != nil {
		return user.User{}, fmt.Errorf("load user by email: %w", err)
	}

	now := s.now().UTC()
	if err := s.providers.UpsertExternalIdentity(ctx, storage.ExternalIdentity{
		Provider:       profile.Provider,
		ProviderUserID: profile.ProviderUserID,
		UserID:         account.ID,
		Email:          email,
		CreatedAt:      now,
		UpdatedAt:      now,
	}); err != nil {
		return user.User{}, err
	}
	return account, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
