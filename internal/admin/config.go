// Package admin exposes the bulk RBAC configuration surface: a dump of the
// role and menu configuration, and a wholesale replace used by management
// tooling. Replacement still runs through the invariant checks; unlike single
// mutations it swaps whole sections at once.
package admin

import (
	"fmt"

	"log/slog"

	"github.com/gatehouse-rbac/gatehouse/internal/rbac"
	"github.com/gatehouse-rbac/gatehouse/internal/shared"
	"github.com/gatehouse-rbac/gatehouse/internal/store"
)

// Config is the dump payload. User accounts and their credentials are never
// part of it.
type Config struct {
	Roles []rbac.Role     `json:"roles"`
	Menus rbac.MenuForest `json:"menus"`
}

// Service reads and replaces the configuration sections.
type Service struct {
	store  *store.Store
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(st *store.Store, logger *slog.Logger) *Service {
	return &Service{store: st, logger: logger}
}

// Dump returns the current role and menu configuration.
func (s *Service) Dump() Config {
	var cfg Config
	s.store.View(func(doc *store.Document) {
		cfg.Roles = append(cfg.Roles, doc.Roles...)
		cfg.Menus = doc.Menus.Clone()
	})
	return cfg
}

// Replace swaps the provided sections. A nil section is left untouched. The
// replacement is rejected when it would orphan a user's role reference or
// leave zero enabled administrator roles.
func (s *Service) Replace(roles []rbac.Role, menus rbac.MenuForest) error {
	return s.store.Update(func(doc *store.Document) error {
		if roles != nil {
			if err := validateRoles(doc, roles); err != nil {
				return err
			}
			doc.Roles = roles
		}
		if menus != nil {
			doc.Menus = menus
		}
		return nil
	})
}

func validateRoles(doc *store.Document, roles []rbac.Role) error {
	byID := make(map[shared.EntityID]*rbac.Role, len(roles))
	byName := make(map[string]struct{}, len(roles))
	hasEnabledAdmin := false
	for i := range roles {
		r := &roles[i]
		if !r.Status.Valid() {
			return fmt.Errorf("role %s has unknown status %q: %w", r.ID, r.Status, shared.ErrInvalidInput)
		}
		if _, dup := byID[r.ID]; dup {
			return fmt.Errorf("duplicate role id %s: %w", r.ID, shared.ErrConflict)
		}
		if _, dup := byName[r.Name]; dup {
			return fmt.Errorf("duplicate role name %q: %w", r.Name, shared.ErrConflict)
		}
		byID[r.ID] = r
		byName[r.Name] = struct{}{}
		if r.IsAdministrator() && r.Enabled() {
			hasEnabledAdmin = true
		}
	}
	if !hasEnabledAdmin {
		return fmt.Errorf("must keep at least one enabled administrator role: %w", shared.ErrInvariant)
	}
	for i := range doc.Users {
		u := &doc.Users[i]
		if _, ok := byID[u.RoleID]; !ok {
			return fmt.Errorf("user %q references missing role %s: %w", u.Username, u.RoleID, shared.ErrConflict)
		}
	}
	return nil
}
