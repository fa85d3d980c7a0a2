// Package auth resolves credentials into principals and issues the signed
// tokens the transport layer carries.
package auth

import (
	"fmt"
	"time"

	"github.com/gatehouse-rbac/gatehouse/internal/rbac"
	"github.com/gatehouse-rbac/gatehouse/internal/shared"
	"github.com/gatehouse-rbac/gatehouse/internal/store"
	"github.com/gatehouse-rbac/gatehouse/internal/users"
)

// Service wraps authentication business rules.
type Service struct {
	store  *store.Store
	hasher users.PasswordHasher
}

// NewService constructs a Service.
func NewService(st *store.Store, hasher users.PasswordHasher) *Service {
	return &Service{store: st, hasher: hasher}
}

// Authenticate validates username/password credentials and returns the
// principal snapshot for token issuance. Unknown users, wrong passwords, and
// disabled roles all collapse into the same unauthorized error.
func (s *Service) Authenticate(username, password string) (*rbac.Principal, error) {
	var principal *rbac.Principal
	s.store.View(func(doc *store.Document) {
		user := doc.UserByUsername(username)
		if user == nil {
			return
		}
		if !s.hasher.Compare(user.Password, password) {
			return
		}
		role := doc.RoleByID(user.RoleID)
		if role == nil || !role.Enabled() {
			return
		}
		principal = &rbac.Principal{
			UserID:      user.ID,
			Username:    user.Username,
			RoleID:      role.ID,
			Permissions: append([]string(nil), role.Permissions...),
			IssuedAt:    time.Now(),
		}
	})
	if principal == nil {
		return nil, fmt.Errorf("invalid credentials: %w", shared.ErrUnauthorized)
	}
	return principal, nil
}

// UserInfo is the current-user payload: the account joined with its role.
type UserInfo struct {
	ID       shared.EntityID `json:"id"`
	Username string          `json:"username"`
	Email    string          `json:"email,omitempty"`
	Phone    string          `json:"phone,omitempty"`
	Avatar   string          `json:"avatar,omitempty"`
	Role     rbac.Role       `json:"role"`
}

// CurrentUser resolves the principal's account and role from the live
// document; the account may have been removed after issuance.
func (s *Service) CurrentUser(p *rbac.Principal) (UserInfo, error) {
	var info *UserInfo
	s.store.View(func(doc *store.Document) {
		user := doc.UserByID(p.UserID)
		if user == nil {
			return
		}
		out := UserInfo{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			Phone:    user.Phone,
			Avatar:   user.Avatar,
		}
		if role := doc.RoleByID(user.RoleID); role != nil {
			out.Role = *role
			out.Role.Permissions = append([]string(nil), role.Permissions...)
		}
		info = &out
	})
	if info == nil {
		return UserInfo{}, fmt.Errorf("user %s: %w", p.UserID, shared.ErrNotFound)
	}
	return *info, nil
}
