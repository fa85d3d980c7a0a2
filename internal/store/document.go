package store

import (
	"time"

	"github.com/gatehouse-rbac/gatehouse/internal/rbac"
	"github.com/gatehouse-rbac/gatehouse/internal/shared"
)

// Document is the full persisted state: every mutation validates against one
// snapshot of it and writes back atomically.
type Document struct {
	Roles []rbac.Role     `json:"roles"`
	Users []rbac.User     `json:"users"`
	Menus rbac.MenuForest `json:"menus"`
}

// RoleByID returns the role with the given id, nil when absent.
func (d *Document) RoleByID(id shared.EntityID) *rbac.Role {
	for i := range d.Roles {
		if d.Roles[i].ID == id {
			return &d.Roles[i]
		}
	}
	return nil
}

// RoleByName returns the role with the given name, nil when absent.
func (d *Document) RoleByName(name string) *rbac.Role {
	for i := range d.Roles {
		if d.Roles[i].Name == name {
			return &d.Roles[i]
		}
	}
	return nil
}

// UserByID returns the user with the given id, nil when absent.
func (d *Document) UserByID(id shared.EntityID) *rbac.User {
	for i := range d.Users {
		if d.Users[i].ID == id {
			return &d.Users[i]
		}
	}
	return nil
}

// UserByUsername returns the user with the given username, nil when absent.
func (d *Document) UserByUsername(username string) *rbac.User {
	for i := range d.Users {
		if d.Users[i].Username == username {
			return &d.Users[i]
		}
	}
	return nil
}

// EnsureAdministrator seeds the distinguished administrator role and account
// when the document has neither, so the zero-enabled-administrators invariant
// holds from first boot. passwordHash is the stored credential for the seeded
// account.
func (d *Document) EnsureAdministrator(passwordHash string) bool {
	seeded := false
	if d.RoleByID(shared.AdministratorID) == nil {
		d.Roles = append(d.Roles, rbac.Role{
			ID:          shared.AdministratorID,
			Name:        shared.AdminSentinel,
			Description: "System administrator",
			Permissions: shared.AdministratorPermissions(),
			Status:      rbac.StatusEnabled,
			Admin:       true,
			CreatedAt:   time.Now().UTC(),
		})
		seeded = true
	}
	if d.UserByUsername(shared.AdminSentinel) == nil {
		ids := make([]shared.EntityID, 0, len(d.Users))
		for _, u := range d.Users {
			ids = append(ids, u.ID)
		}
		d.Users = append(d.Users, rbac.User{
			ID:        shared.NextID(ids),
			Username:  shared.AdminSentinel,
			Password:  passwordHash,
			RoleID:    shared.AdministratorID,
			CreatedAt: time.Now().UTC(),
		})
		seeded = true
	}
	return seeded
}
