package storage

import (
	"context"
	"time"

	"github.com/roomdesk/roomdesk/internal/platform/errors"
	"github.com/roomdesk/roomdesk/internal/services/auth/user"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New(errors.CodeNotFound, "record not found")
	// ErrEmailTaken indicates another account already owns the email.
	ErrEmailTaken = errors.New(errors.CodeUserEmailTaken, "email already registered")
)

// UserStore persists account records.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) error
	UpdateUser(ctx context.Context, u user.User) error
	GetUser(ctx context.Context, userID string) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
	ListUsersByRole(ctx context.Context, role user.Role) ([]user.User, error)
}

// ProviderState tracks one in-flight external sign-in.
type ProviderState struct {
	State        string
	Provider     string
	RedirectPath string
	CodeVerifier string
	ExpiresAt    time.Time
}

// ExternalIdentity links a provider account to a roomdesk user.
type ExternalIdentity struct {
	Provider       string
	ProviderUserID string
	UserID         string
	Email          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ProviderStore persists external sign-in state and identity links.
type ProviderStore interface {
	PutProviderState(ctx context.Context, state ProviderState) error
	// TakeProviderState returns and deletes a state so it can be used once.
	TakeProviderState(ctx context.Context, state string) (ProviderState, error)
	DeleteExpiredProviderStates(ctx context.Context, now time.Time) (int64, error)
	UpsertExternalIdentity(ctx context.Context, identity ExternalIdentity) error
	GetExternalIdentity(ctx context.Context, provider, providerUserID string) (ExternalIdentity, error)
}
