package session

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/roomdesk/roomdesk/internal/services/auth/user"
)

var testSecret = []byte(strings.Repeat("k", MinSecretLength))

func newTestManager(t *testing.T, now func() time.Time) *Manager {
	t.Helper()
	manager, err := NewManager(Config{Secret: testSecret, Issuer: "roomdesk-test", TTL: time.Hour, Now: now})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return manager
}

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	manager := newTestManager(t, func() time.Time { return now })

	token, expiresAt, err := manager.Issue(user.User{ID: "user-1", Role: user.RoleAdmin})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !expiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("expires at = %v", expiresAt)
	}

	claims, err := manager.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-1" || claims.Role != user.RoleAdmin {
		t.Fatalf("claims = %+v", claims)
	}
	if !claims.IssuedAt.Equal(now) {
		t.Fatalf("issued at = %v", claims.IssuedAt)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	clock := now
	manager := newTestManager(t, func() time.Time { return clock })

	token, _, err := manager.Issue(user.User{ID: "user-1", Role: user.RoleUser})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	clock = now.Add(2 * time.Hour)
	if _, err := manager.Verify(token); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestVerifyRejectsForeignSignatureAndIssuer(t *testing.T) {
	t.Parallel()

	manager := newTestManager(t, nil)
	other, err := NewManager(Config{Secret: []byte(strings.Repeat("x", MinSecretLength)), Issuer: "roomdesk-test", TTL: time.Hour})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	token, _, err := other.Issue(user.User{ID: "user-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := manager.Verify(token); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for foreign key, got %v", err)
	}

	otherIssuer, err := NewManager(Config{Secret: testSecret, Issuer: "someone-else", TTL: time.Hour})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	token, _, err = otherIssuer.Issue(user.User{ID: "user-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := manager.Verify(token); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for foreign issuer, got %v", err)
	}

	if _, err := manager.Verify(" "); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for empty token, got %v", err)
	}
}

func TestNewManagerValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewManager(Config{Secret: []byte("short"), Issuer: "x", TTL: time.Hour}); err == nil {
		t.Fatal("expected error for short secret")
	}
	if _, err := NewManager(Config{Secret: testSecret, TTL: time.Hour}); err == nil {
		t.Fatal("expected error for missing issuer")
	}
	if _, err := NewManager(Config{Secret: testSecret, Issuer: "x"}); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}
