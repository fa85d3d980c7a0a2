package rbac

import (
	"net/http"
	"strings"

	"log/slog"

	"github.com/gatehouse-rbac/gatehouse/internal/platform/httpx"
)

// TokenVerifier decodes an opaque signed credential into a principal.
type TokenVerifier interface {
	Verify(token string) (*Principal, error)
}

// Middleware wires authorization helpers for HTTP handlers.
type Middleware struct {
	Verifier  TokenVerifier
	Staleness *Staleness
	Logger    *slog.Logger
}

// Authenticate extracts the bearer token, verifies it, and stores the
// resulting principal in the request context.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
			return
		}
		raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		principal, err := m.Verifier.Verify(raw)
		if err != nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid or expired token")
			return
		}
		if m.Staleness.IsStale(r.Context(), principal) {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "credential predates a password change")
			return
		}
		ctx := ContextWithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAny ensures the current principal has at least one of the required
// permission codes. Membership is by exact string match.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(perms) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			principal := PrincipalFromContext(r.Context())
			if principal == nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing principal")
				return
			}
			for _, p := range perms {
				if principal.HasPermission(p) {
					next.ServeHTTP(w, r)
					return
				}
			}
			if m.Logger != nil {
				m.Logger.Warn("permission denied",
					slog.String("user", principal.Username),
					slog.String("path", r.URL.Path))
			}
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "missing required permission")
		})
	}
}
