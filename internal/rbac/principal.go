package rbac

import (
	"context"
	"time"

	"github.com/gatehouse-rbac/gatehouse/internal/shared"
)

// Principal is the resolved identity attached to one authenticated request.
// It is computed once at credential issuance from a user+role snapshot and is
// immutable afterwards: role edits take effect on the next issuance, never
// retroactively on live credentials.
type Principal struct {
	UserID      shared.EntityID
	Username    string
	RoleID      shared.EntityID
	Permissions []string
	IssuedAt    time.Time
}

// HasPermission is an exact-match membership test over the snapshot.
func (p *Principal) HasPermission(code string) bool {
	for _, c := range p.Permissions {
		if c == code {
			return true
		}
	}
	return false
}

// IsAdministrator reports whether the principal holds the distinguished
// administrator role.
func (p *Principal) IsAdministrator() bool { return p.RoleID.IsAdmin() }

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context, nil when absent.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
