package menu

import (
	"fmt"
	"strings"

	"log/slog"

	"github.com/gatehouse-rbac/gatehouse/internal/rbac"
	"github.com/gatehouse-rbac/gatehouse/internal/shared"
	"github.com/gatehouse-rbac/gatehouse/internal/store"
)

// Service guards menu mutations behind the document store.
type Service struct {
	store  *store.Store
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(st *store.Store, logger *slog.Logger) *Service {
	return &Service{store: st, logger: logger}
}

// CreateInput carries the fields for a new menu node.
type CreateInput struct {
	ID         string `json:"id"`
	Title      string `json:"title" validate:"required"`
	Path       string `json:"path"`
	Icon       string `json:"icon"`
	Component  string `json:"component"`
	Permission string `json:"permission"`
	Type       string `json:"type"`
	ParentID   string `json:"parentId"`
}

// List returns a copy of the whole forest.
func (s *Service) List() rbac.MenuForest {
	var out rbac.MenuForest
	s.store.View(func(doc *store.Document) {
		out = doc.Menus.Clone()
	})
	return out
}

// Visible returns the forest the principal may navigate. Principals holding
// the distinguished administrator role bypass permission gating and see every
// node.
func (s *Service) Visible(p *rbac.Principal) rbac.MenuForest {
	var out rbac.MenuForest
	s.store.View(func(doc *store.Document) {
		if p.IsAdministrator() {
			out = doc.Menus.Clone()
			return
		}
		out = Filter(doc.Menus, p.Permissions, false)
	})
	return out
}

// Create inserts a new node under the requested parent, or at the root when
// no parent is given. An explicit unused id is honored, otherwise the next
// sequence id is assigned. The forest is left unchanged on any failure.
func (s *Service) Create(input CreateInput) (*rbac.MenuNode, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("menu title required: %w", shared.ErrInvalidInput)
	}
	node := &rbac.MenuNode{
		ID:         input.ID,
		Title:      strings.TrimSpace(input.Title),
		Path:       input.Path,
		Icon:       input.Icon,
		Component:  input.Component,
		Permission: input.Permission,
		Type:       input.Type,
	}
	err := s.store.Update(func(doc *store.Document) error {
		if node.ID == "" {
			node.ID = NextID(doc.Menus)
		} else if _, err := Find(doc.Menus, node.ID); err == nil {
			return fmt.Errorf("menu id %s already exists: %w", node.ID, shared.ErrConflict)
		}
		if input.ParentID != "" {
			if _, err := Find(doc.Menus, input.ParentID); err != nil {
				return err
			}
		}
		forest, err := Insert(doc.Menus, node, input.ParentID)
		if err != nil {
			return err
		}
		doc.Menus = forest
		return nil
	})
	if err != nil {
		return nil, err
	}
	created := *node
	created.Children = nil
	return &created, nil
}

// Update shallow-merges the patch into the identified node.
func (s *Service) Update(id string, patch NodePatch) (*rbac.MenuNode, error) {
	var updated rbac.MenuNode
	err := s.store.Update(func(doc *store.Document) error {
		node, err := Update(doc.Menus, id, patch)
		if err != nil {
			return err
		}
		updated = *node
		updated.Children = node.Children.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes the identified node and its entire subtree.
func (s *Service) Delete(id string) error {
	return s.store.Update(func(doc *store.Document) error {
		forest, err := Remove(doc.Menus, id)
		if err != nil {
			return err
		}
		doc.Menus = forest
		return nil
	})
}

// Replace swaps the whole forest, used by the bulk configuration endpoint.
func (s *Service) Replace(forest rbac.MenuForest) error {
	return s.store.Update(func(doc *store.Document) error {
		doc.Menus = forest
		return nil
	})
}
