// Package users implements the user registry and its last-administrator
// invariants.
package users

import (
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/gatehouse-rbac/gatehouse/internal/rbac"
	"github.com/gatehouse-rbac/gatehouse/internal/shared"
	"github.com/gatehouse-rbac/gatehouse/internal/store"
)

// MinPasswordLength is the credential policy floor.
const MinPasswordLength = 6

// Service guards user mutations behind the document store.
type Service struct {
	store  *store.Store
	hasher PasswordHasher
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(st *store.Store, hasher PasswordHasher, logger *slog.Logger) *Service {
	return &Service{store: st, hasher: hasher, logger: logger}
}

// Public is the user shape exposed over HTTP; the stored credential never
// leaves the registry.
type Public struct {
	ID        shared.EntityID `json:"id"`
	Username  string          `json:"username"`
	RoleID    shared.EntityID `json:"roleId"`
	Email     string          `json:"email,omitempty"`
	Phone     string          `json:"phone,omitempty"`
	Avatar    string          `json:"avatar,omitempty"`
	CreatedAt time.Time       `json:"createdAt,omitempty"`
}

func toPublic(u *rbac.User) Public {
	return Public{
		ID:        u.ID,
		Username:  u.Username,
		RoleID:    u.RoleID,
		Email:     u.Email,
		Phone:     u.Phone,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
	}
}

// List returns all users without credentials.
func (s *Service) List() []Public {
	var out []Public
	s.store.View(func(doc *store.Document) {
		for i := range doc.Users {
			out = append(out, toPublic(&doc.Users[i]))
		}
	})
	return out
}

// Get returns the user with the given id.
func (s *Service) Get(id shared.EntityID) (Public, error) {
	var found *Public
	s.store.View(func(doc *store.Document) {
		if u := doc.UserByID(id); u != nil {
			p := toPublic(u)
			found = &p
		}
	})
	if found == nil {
		return Public{}, fmt.Errorf("user %s: %w", id, shared.ErrNotFound)
	}
	return *found, nil
}

// CreateInput carries the fields of a new account.
type CreateInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
	RoleID   string `json:"roleId" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone"`
	Avatar   string `json:"avatar"`
}

// Create inserts a new account bound to an existing role.
func (s *Service) Create(input CreateInput) (Public, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return Public{}, fmt.Errorf("username required: %w", shared.ErrInvalidInput)
	}
	if len(input.Password) < MinPasswordLength {
		return Public{}, fmt.Errorf("password must be at least %d characters: %w", MinPasswordLength, shared.ErrInvalidInput)
	}
	roleID, err := shared.ParseID(input.RoleID)
	if err != nil {
		return Public{}, err
	}
	hashed, err := s.hasher.Hash(input.Password)
	if err != nil {
		return Public{}, err
	}
	user := rbac.User{
		Username:  username,
		Password:  hashed,
		RoleID:    roleID,
		Email:     strings.TrimSpace(input.Email),
		Phone:     strings.TrimSpace(input.Phone),
		Avatar:    input.Avatar,
		CreatedAt: time.Now().UTC(),
	}
	err = s.store.Update(func(doc *store.Document) error {
		if doc.UserByUsername(username) != nil {
			return fmt.Errorf("username %q already exists: %w", username, shared.ErrConflict)
		}
		if doc.RoleByID(roleID) == nil {
			return fmt.Errorf("role %s does not exist: %w", roleID, shared.ErrInvalidInput)
		}
		ids := make([]shared.EntityID, 0, len(doc.Users))
		for _, u := range doc.Users {
			ids = append(ids, u.ID)
		}
		user.ID = shared.NextID(ids)
		doc.Users = append(doc.Users, user)
		return nil
	})
	if err != nil {
		return Public{}, err
	}
	return toPublic(&user), nil
}

// UpdateInput carries the patchable account fields; nil fields are no-ops.
type UpdateInput struct {
	Username *string `json:"username"`
	RoleID   *string `json:"roleId"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Avatar   *string `json:"avatar"`
}

// Update patches an existing account. Moving the last administrator anywhere
// but another enabled administrator-designated role is rejected.
func (s *Service) Update(id shared.EntityID, input UpdateInput) (Public, error) {
	var updated Public
	err := s.store.Update(func(doc *store.Document) error {
		user := doc.UserByID(id)
		if user == nil {
			return fmt.Errorf("user %s: %w", id, shared.ErrNotFound)
		}
		var username string
		if input.Username != nil {
			username = strings.TrimSpace(*input.Username)
			if username == "" {
				return fmt.Errorf("username required: %w", shared.ErrInvalidInput)
			}
			if other := doc.UserByUsername(username); other != nil && other.ID != user.ID {
				return fmt.Errorf("username %q already exists: %w", username, shared.ErrConflict)
			}
		}
		var roleID shared.EntityID
		if input.RoleID != nil {
			parsed, err := shared.ParseID(*input.RoleID)
			if err != nil {
				return err
			}
			newRole := doc.RoleByID(parsed)
			if newRole == nil {
				return fmt.Errorf("role %s does not exist: %w", parsed, shared.ErrInvalidInput)
			}
			if holdsAdministratorRole(doc, user) && !(newRole.IsAdministrator() && newRole.Enabled()) && countOtherAdministrators(doc, user.ID) == 0 {
				return fmt.Errorf("must keep at least one administrator account: %w", shared.ErrInvariant)
			}
			roleID = parsed
		}
		if input.Username != nil {
			user.Username = username
		}
		if input.RoleID != nil {
			user.RoleID = roleID
		}
		if input.Email != nil {
			user.Email = strings.TrimSpace(*input.Email)
		}
		if input.Phone != nil {
			user.Phone = strings.TrimSpace(*input.Phone)
		}
		if input.Avatar != nil {
			user.Avatar = *input.Avatar
		}
		updated = toPublic(user)
		return nil
	})
	if err != nil {
		return Public{}, err
	}
	return updated, nil
}

// Delete removes an account. The distinguished administrator username can
// never be deleted, and neither can the last administrator account.
func (s *Service) Delete(id shared.EntityID) error {
	return s.store.Update(func(doc *store.Document) error {
		user := doc.UserByID(id)
		if user == nil {
			return fmt.Errorf("user %s: %w", id, shared.ErrNotFound)
		}
		if user.Username == shared.AdminSentinel {
			return fmt.Errorf("administrator account cannot be deleted: %w", shared.ErrForbidden)
		}
		if holdsAdministratorRole(doc, user) && countOtherAdministrators(doc, user.ID) == 0 {
			return fmt.Errorf("must keep at least one administrator account: %w", shared.ErrInvariant)
		}
		kept := doc.Users[:0]
		for _, u := range doc.Users {
			if u.ID != id {
				kept = append(kept, u)
			}
		}
		doc.Users = kept
		return nil
	})
}

// ChangePassword replaces the stored credential after checking the old one
// and the length policy. Callers must treat previously issued credentials for
// this user as stale; the registry does not track revocation itself.
func (s *Service) ChangePassword(id shared.EntityID, oldPassword, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters: %w", MinPasswordLength, shared.ErrInvalidInput)
	}
	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.store.Update(func(doc *store.Document) error {
		user := doc.UserByID(id)
		if user == nil {
			return fmt.Errorf("user %s: %w", id, shared.ErrNotFound)
		}
		if !s.hasher.Compare(user.Password, oldPassword) {
			return fmt.Errorf("current password does not match: %w", shared.ErrInvalidInput)
		}
		user.Password = hashed
		return nil
	})
}

// holdsAdministratorRole reports whether the user's role carries the
// administrator designation and is enabled.
func holdsAdministratorRole(doc *store.Document, user *rbac.User) bool {
	role := doc.RoleByID(user.RoleID)
	return role != nil && role.IsAdministrator() && role.Enabled()
}

// countOtherAdministrators counts users other than exclude that hold an
// enabled administrator-designated role.
func countOtherAdministrators(doc *store.Document, exclude shared.EntityID) int {
	count := 0
	for i := range doc.Users {
		u := &doc.Users[i]
		if u.ID == exclude {
			continue
		}
		if holdsAdministratorRole(doc, u) {
			count++
		}
	}
	return count
}
