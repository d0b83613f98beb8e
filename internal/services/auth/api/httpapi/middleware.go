package httpapi

import (
	"context"
	"net/http"

	apperrors "github.com/roomdesk/roomdesk/internal/platform/errors"
	"github.com/roomdesk/roomdesk/internal/platform/httpx"
	"github.com/roomdesk/roomdesk/internal/platform/requestctx"
	"github.com/roomdesk/roomdesk/internal/services/auth/user"
)

// Authenticator resolves a session token to the current account.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (user.User, error)
}

var (
	errSessionRequired = apperrors.New(apperrors.CodeSessionRequired, "session required")
	errAdminRequired   = apperrors.New(apperrors.CodeAdminRequired, "admin role required")
)

// PrincipalFor converts an account into a request principal.
func PrincipalFor(u user.User) requestctx.Principal {
	return requestctx.Principal{
		UserID:      u.ID,
		Role:        string(u.Role),
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Locale:      string(u.Locale),
	}
}

// Authenticate attaches the principal for a valid session. Requests without
// a session pass through anonymously; invalid sessions are cleared.
func Authenticate(auth Authenticator) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := readSessionToken(r)
			if !ok || auth == nil {
				next.ServeHTTP(w, r)
				return
			}
			current, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				if apperrors.GetCode(err) == apperrors.CodeSessionInvalid {
					clearSessionCookie(w, r)
					next.ServeHTTP(w, r)
					return
				}
				httpx.WriteError(w, r, err)
				return
			}
			ctx := requestctx.WithPrincipal(r.Context(), PrincipalFor(current))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects anonymous requests with 401.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requestctx.PrincipalFromContext(r.Context()); !ok {
			httpx.WriteError(w, r, errSessionRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects anonymous requests with 401 and non-admins with 403.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requestctx.PrincipalFromContext(r.Context())
		if !ok {
			httpx.WriteError(w, r, errSessionRequired)
			return
		}
		if !principal.IsAdmin() {
			httpx.WriteError(w, r, errAdminRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}
