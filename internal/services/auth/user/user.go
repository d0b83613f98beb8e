// Package user provides the roomdesk account model.
package user

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/roomdesk/roomdesk/internal/platform/errors"
	"github.com/roomdesk/roomdesk/internal/platform/id"
)

// MinPasswordLength is the shortest accepted credential password.
const MinPasswordLength = 8

var (
	// ErrInvalidEmail indicates an address that cannot receive mail.
	ErrInvalidEmail = apperrors.New(apperrors.CodeUserEmailInvalid, "email is invalid")
	// ErrEmptyDisplayName indicates a missing display name.
	ErrEmptyDisplayName = apperrors.New(apperrors.CodeUserDisplayNameEmpty, "display name is required")
	// ErrPasswordTooShort indicates a password below MinPasswordLength.
	ErrPasswordTooShort = apperrors.New(apperrors.CodeUserPasswordTooShort, "password is too short")
	// ErrInvalidCredentials indicates an unknown email or wrong password.
	ErrInvalidCredentials = apperrors.New(apperrors.CodeUserInvalidCredentials, "invalid credentials")
)

// Role grants access to admin surfaces.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Locale selects notification and error copy.
type Locale string

const (
	LocaleEN   Locale = "en"
	LocalePTBR Locale = "pt-BR"
)

// NormalizeLocale maps free-form locale input to a supported locale.
func NormalizeLocale(raw string) Locale {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pt-br", "pt_br", "pt":
		return LocalePTBR
	default:
		return LocaleEN
	}
}

// User represents an account record.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	Role         Role
	Locale       Locale
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the user can review reservations.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasPassword reports whether the account can sign in with credentials.
func (u User) HasPassword() bool {
	return u.PasswordHash != ""
}

// CreateUserInput describes the metadata needed to create a user.
type CreateUserInput struct {
	Email       string
	DisplayName string
	Password    string
	Role        Role
	Locale      string
}

// NormalizeEmail lower-cases and validates an email address.
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", ErrInvalidEmail
	}
	parsed, err := mail.ParseAddress(email)
	if err != nil || parsed.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// CreateUser creates an account from validated input. An empty password
// creates an account that can only sign in through an external provider.
func CreateUser(input CreateUserInput, now func() time.Time, idGenerator func() (string, error)) (User, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	email, err := NormalizeEmail(input.Email)
	if err != nil {
		return User{}, err
	}
	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		return User{}, ErrEmptyDisplayName
	}
	var hash string
	if input.Password != "" {
		hash, err = HashPassword(input.Password)
		if err != nil {
			return User{}, err
		}
	}
	role := input.Role
	if role != RoleAdmin {
		role = RoleUser
	}

	userID, err := idGenerator()
	if err != nil {
		return User{}, fmt.Errorf("generate user id: %w", err)
	}

	createdAt := now().UTC()
	return User{
		ID:           userID,
		Email:        email,
		DisplayName:  displayName,
		Role:         role,
		Locale:       NormalizeLocale(input.Locale),
		PasswordHash: hash,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}, nil
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword verifies password against the user's hash.
func (u User) CheckPassword(password string) error {
	if !u.HasPassword() {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
