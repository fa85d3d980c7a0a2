// Package roles implements the role registry and its administrator
// invariants.
package roles

import (
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/gatehouse-rbac/gatehouse/internal/rbac"
	"github.com/gatehouse-rbac/gatehouse/internal/shared"
	"github.com/gatehouse-rbac/gatehouse/internal/store"
)

// Service guards role mutations behind the document store.
type Service struct {
	store  *store.Store
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(st *store.Store, logger *slog.Logger) *Service {
	return &Service{store: st, logger: logger}
}

// List returns all roles.
func (s *Service) List() []rbac.Role {
	var out []rbac.Role
	s.store.View(func(doc *store.Document) {
		out = append(out, doc.Roles...)
	})
	return out
}

// Get returns the role with the given id.
func (s *Service) Get(id shared.EntityID) (rbac.Role, error) {
	var role *rbac.Role
	s.store.View(func(doc *store.Document) {
		if r := doc.RoleByID(id); r != nil {
			c := *r
			role = &c
		}
	})
	if role == nil {
		return rbac.Role{}, fmt.Errorf("role %s: %w", id, shared.ErrNotFound)
	}
	return *role, nil
}

// CreateInput carries the fields of a new role.
type CreateInput struct {
	ID          string   `json:"id"`
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
	Status      string   `json:"status"`
	Admin       bool     `json:"admin"`
}

// Create inserts a new role. An explicit unused id is honored, otherwise the
// next numeric sequence id is assigned. New roles default to enabled.
func (s *Service) Create(input CreateInput) (rbac.Role, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return rbac.Role{}, fmt.Errorf("role name required: %w", shared.ErrInvalidInput)
	}
	status := rbac.StatusEnabled
	if input.Status != "" {
		status = rbac.Status(input.Status)
		if !status.Valid() {
			return rbac.Role{}, fmt.Errorf("unknown status %q: %w", input.Status, shared.ErrInvalidInput)
		}
	}
	role := rbac.Role{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Permissions: append([]string(nil), input.Permissions...),
		Status:      status,
		Admin:       input.Admin,
		CreatedAt:   time.Now().UTC(),
	}
	err := s.store.Update(func(doc *store.Document) error {
		if input.ID != "" {
			id, err := shared.ParseID(input.ID)
			if err != nil {
				return err
			}
			if doc.RoleByID(id) != nil {
				return fmt.Errorf("role id %s already exists: %w", id, shared.ErrConflict)
			}
			role.ID = id
		} else {
			ids := make([]shared.EntityID, 0, len(doc.Roles))
			for _, r := range doc.Roles {
				ids = append(ids, r.ID)
			}
			role.ID = shared.NextID(ids)
		}
		if doc.RoleByName(role.Name) != nil {
			return fmt.Errorf("role name %q already exists: %w", role.Name, shared.ErrConflict)
		}
		doc.Roles = append(doc.Roles, role)
		return nil
	})
	if err != nil {
		return rbac.Role{}, err
	}
	return role, nil
}

// UpdateInput carries the patchable role fields; nil fields are no-ops.
type UpdateInput struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Permissions *[]string `json:"permissions"`
	Status      *string   `json:"status"`
}

// Update patches an existing role. All guards run against the current
// snapshot before any field is merged, so a rejected write changes nothing.
func (s *Service) Update(id shared.EntityID, input UpdateInput) (rbac.Role, error) {
	var updated rbac.Role
	err := s.store.Update(func(doc *store.Document) error {
		role := doc.RoleByID(id)
		if role == nil {
			return fmt.Errorf("role %s: %w", id, shared.ErrNotFound)
		}
		var status rbac.Status
		if input.Status != nil {
			status = rbac.Status(*input.Status)
			if !status.Valid() {
				return fmt.Errorf("unknown status %q: %w", *input.Status, shared.ErrInvalidInput)
			}
		}
		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return fmt.Errorf("role name required: %w", shared.ErrInvalidInput)
			}
			if role.ID.IsAdmin() && name != role.Name {
				return fmt.Errorf("administrator role name is immutable: %w", shared.ErrForbidden)
			}
			if other := doc.RoleByName(name); other != nil && other.ID != role.ID {
				return fmt.Errorf("role name %q already exists: %w", name, shared.ErrConflict)
			}
			input.Name = &name
		}
		if input.Description != nil && role.ID.IsAdmin() && *input.Description != role.Description {
			return fmt.Errorf("administrator role description is immutable: %w", shared.ErrForbidden)
		}
		if input.Status != nil && status == rbac.StatusDisabled && role.Enabled() {
			if err := ensureOtherEnabledAdministrator(doc, role); err != nil {
				return err
			}
		}
		if input.Name != nil {
			role.Name = *input.Name
		}
		if input.Description != nil {
			role.Description = *input.Description
		}
		if input.Permissions != nil {
			role.Permissions = append([]string(nil), (*input.Permissions)...)
		}
		if input.Status != nil {
			role.Status = status
		}
		updated = *role
		return nil
	})
	if err != nil {
		return rbac.Role{}, err
	}
	return updated, nil
}

// Delete removes a role that no user references. The distinguished
// administrator role can never be deleted.
func (s *Service) Delete(id shared.EntityID) error {
	return s.store.Update(func(doc *store.Document) error {
		if id.IsAdmin() {
			return fmt.Errorf("administrator role cannot be deleted: %w", shared.ErrForbidden)
		}
		role := doc.RoleByID(id)
		if role == nil {
			return fmt.Errorf("role %s: %w", id, shared.ErrNotFound)
		}
		for _, u := range doc.Users {
			if u.RoleID == id {
				return fmt.Errorf("role %s is assigned to user %q: %w", id, u.Username, shared.ErrConflict)
			}
		}
		kept := doc.Roles[:0]
		for _, r := range doc.Roles {
			if r.ID != id {
				kept = append(kept, r)
			}
		}
		doc.Roles = kept
		return nil
	})
}

// SetStatus flips a role between enabled and disabled. Disabling the
// distinguished administrator role outright is forbidden; disabling any other
// administrator-designated role requires another enabled one to remain.
func (s *Service) SetStatus(id shared.EntityID, status rbac.Status) (rbac.Role, error) {
	var updated rbac.Role
	err := s.store.Update(func(doc *store.Document) error {
		if !status.Valid() {
			return fmt.Errorf("unknown status %q: %w", status, shared.ErrInvalidInput)
		}
		if id.IsAdmin() && status == rbac.StatusDisabled {
			return fmt.Errorf("administrator role cannot be disabled: %w", shared.ErrForbidden)
		}
		role := doc.RoleByID(id)
		if role == nil {
			return fmt.Errorf("role %s: %w", id, shared.ErrNotFound)
		}
		if status == rbac.StatusDisabled && role.Enabled() {
			if err := ensureOtherEnabledAdministrator(doc, role); err != nil {
				return err
			}
		}
		role.Status = status
		updated = *role
		return nil
	})
	if err != nil {
		return rbac.Role{}, err
	}
	return updated, nil
}

// ensureOtherEnabledAdministrator rejects disabling role when it is the last
// enabled role carrying the administrator designation.
func ensureOtherEnabledAdministrator(doc *store.Document, role *rbac.Role) error {
	if !role.IsAdministrator() {
		return nil
	}
	for i := range doc.Roles {
		other := &doc.Roles[i]
		if other.ID != role.ID && other.IsAdministrator() && other.Enabled() {
			return nil
		}
	}
	return fmt.Errorf("must keep at least one enabled administrator role: %w", shared.ErrInvariant)
}
