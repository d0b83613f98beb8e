// Package requestctx carries the authenticated principal through request
// contexts.
package requestctx

import "context"

type principalContextKey struct{}

// Principal identifies the signed-in user for one request.
type Principal struct {
	UserID      string
	Role        string
	Email       string
	DisplayName string
	Locale      string
}

// IsAdmin reports whether the principal carries the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == "admin"
}

// WithPrincipal stores the signed-in principal in context.
func WithPrincipal(ctx context.Context, principal Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, principalContextKey{}, principal)
}

// PrincipalFromContext returns the principal stored in context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	value, ok := ctx.Value(principalContextKey{}).(Principal)
	if !ok || value.UserID == "" {
		return Principal{}, false
	}
	return value, true
}

// UserIDFromContext returns the signed-in user identifier or "".
func UserIDFromContext(ctx context.Context) string {
	principal, _ := PrincipalFromContext(ctx)
	return principal.UserID
}
