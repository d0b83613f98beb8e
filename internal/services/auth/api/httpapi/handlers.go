// Package httpapi exposes credential and provider sign-in over HTTP.
package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	apperrors "github.com/roomdesk/roomdesk/internal/platform/errors"
	"github.com/roomdesk/roomdesk/internal/platform/httpx"
	"github.com/roomdesk/roomdesk/internal/platform/requestctx"
	"github.com/roomdesk/roomdesk/internal/services/auth/account"
	"github.com/roomdesk/roomdesk/internal/services/auth/oauth"
	"github.com/roomdesk/roomdesk/internal/services/auth/user"
)

// Accounts is the account surface used by the handlers.
type Accounts interface {
	Authenticator
	Register(ctx context.Context, input account.RegisterInput) (user.User, error)
	Login(ctx context.Context, email, password string) (user.User, account.Session, error)
	IssueSession(u user.User) (account.Session, error)
	GetUser(ctx context.Context, userID string) (user.User, error)
	SignInExternal(ctx context.Context, profile account.ExternalProfile) (user.User, error)
}

// Providers is the external sign-in surface used by the handlers.
type Providers interface {
	Providers() map[string]string
	Start(ctx context.Context, providerID, redirectPath string) (string, error)
	Complete(ctx context.Context, providerID, code, state string) (account.ExternalProfile, string, error)
}

// Handler serves the auth routes.
type Handler struct {
	accounts  Accounts
	providers Providers
}

// NewHandler builds auth handlers. providers may be nil when no external
// provider is configured.
func NewHandler(accounts Accounts, providers Providers) *Handler {
	return &Handler{accounts: accounts, providers: providers}
}

// RegisterRoutes mounts the auth routes on mux. Routes that need a session
// still expect the Authenticate middleware to run first.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/register", h.handleRegister)
	mux.HandleFunc("POST /api/auth/login", h.handleLogin)
	mux.Handle("POST /api/auth/logout", RequireUser(http.HandlerFunc(h.handleLogout)))
	mux.Handle("GET /api/auth/me", RequireUser(http.HandlerFunc(h.handleMe)))
	mux.HandleFunc("GET /api/auth/providers", h.handleProviders)
	mux.HandleFunc("GET /auth/providers/{id}/start", h.handleProviderStart)
	mux.HandleFunc("GET /auth/providers/{id}/callback", h.handleProviderCallback)
}

type userResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	Locale      string    `json:"locale"`
	CreatedAt   time.Time `json:"create_time"`
}

func toUserResponse(u user.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
		Locale:      string(u.Locale),
		CreatedAt:   u.CreatedAt,
	}
}

type sessionResponse struct {
	User      userResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expire_time"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
		Password    string `json:"password"`
		Locale      string `json:"locale"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	locale := body.Locale
	if locale == "" {
		locale = r.Header.Get("Accept-Language")
	}
	created, err := h.accounts.Register(r.Context(), account.RegisterInput{
		Email:       body.Email,
		DisplayName: body.DisplayName,
		Password:    body.Password,
		Locale:      locale,
	})
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	issued, err := h.accounts.IssueSession(created)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	writeSessionCookie(w, r, issued.Token, issued.ExpiresAt)
	_ = httpx.WriteJSON(w, http.StatusCreated, sessionResponse{User: toUserResponse(created), Token: issued.Token, ExpiresAt: issued.ExpiresAt})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	signedIn, issued, err := h.accounts.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	writeSessionCookie(w, r, issued.Token, issued.ExpiresAt)
	_ = httpx.WriteJSON(w, http.StatusOK, sessionResponse{User: toUserResponse(signedIn), Token: issued.Token, ExpiresAt: issued.ExpiresAt})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w, r)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	current, err := h.accounts.GetUser(r.Context(), requestctx.UserIDFromContext(r.Context()))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, toUserResponse(current))
}

func (h *Handler) handleProviders(w http.ResponseWriter, r *http.Request) {
	type providerEntry struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		StartURL string `json:"start_url"`
	}
	entries := []providerEntry{}
	if h.providers != nil {
		for id, name := range h.providers.Providers() {
			entries = append(entries, providerEntry{ID: id, Name: name, StartURL: "/auth/providers/" + id + "/start"})
		}
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]any{"providers": entries})
}

func (h *Handler) handleProviderStart(w http.ResponseWriter, r *http.Request) {
	if h.providers == nil {
		http.NotFound(w, r)
		return
	}
	authURL, err := h.providers.Start(r.Context(), r.PathValue("id"), r.URL.Query().Get("redirect"))
	if errors.Is(err, oauth.ErrUnknownProvider) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		log.Printf("provider start failed provider=%s err=%v", r.PathValue("id"), err)
		httpx.WriteError(w, r, err)
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

func (h *Handler) handleProviderCallback(w http.ResponseWriter, r *http.Request) {
	if h.providers == nil {
		http.NotFound(w, r)
		return
	}
	providerID := r.PathValue("id")
	query := r.URL.Query()
	if errParam := query.Get("error"); errParam != "" {
		log.Printf("provider denied sign-in provider=%s error=%s", providerID, errParam)
		httpx.WriteError(w, r, apperrors.New(apperrors.CodeSessionRequired, "provider sign-in was cancelled"))
		return
	}

	profile, redirectPath, err := h.providers.Complete(r.Context(), providerID, query.Get("code"), query.Get("state"))
	switch {
	case errors.Is(err, oauth.ErrUnknownProvider):
		http.NotFound(w, r)
		return
	case errors.Is(err, oauth.ErrInvalidState):
		httpx.WriteError(w, r, apperrors.Wrap(apperrors.CodeSessionInvalid, "oauth state is invalid", err))
		return
	case err != nil:
		log.Printf("provider callback failed provider=%s err=%v", providerID, err)
		httpx.WriteError(w, r, apperrors.Wrap(apperrors.CodeSessionInvalid, "provider sign-in failed", err))
		return
	}

	signedIn, err := h.accounts.SignInExternal(r.Context(), profile)
	if errors.Is(err, account.ErrUnverifiedEmail) {
		httpx.WriteError(w, r, apperrors.Wrap(apperrors.CodeUserEmailInvalid, "provider email is not verified", err))
		return
	}
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	issued, err := h.accounts.IssueSession(signedIn)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	writeSessionCookie(w, r, issued.Token, issued.ExpiresAt)
	http.Redirect(w, r, oauth.SafeRedirectPath(redirectPath), http.StatusFound)
}
