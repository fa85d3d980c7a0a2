package menu

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gatehouse-rbac/gatehouse/internal/rbac"
	"github.com/gatehouse-rbac/gatehouse/internal/shared"
	"github.com/gatehouse-rbac/gatehouse/internal/store"
)

func newService(t *testing.T, forest rbac.MenuForest) (*Service, *store.Store) {
	t.Helper()
	st := store.NewFromDocument(&store.Document{Menus: forest})
	return NewService(st, nil), st
}

func TestCreateAssignsNextID(t *testing.T) {
	svc, _ := newService(t, sampleForest())

	node, err := svc.Create(CreateInput{Title: "Reports"})
	require.NoError(t, err)
	require.Equal(t, "6", node.ID)

	node, err = svc.Create(CreateInput{Title: "Audit", ParentID: "2"})
	require.NoError(t, err)
	require.Equal(t, "7", node.ID)

	forest := svc.List()
	found, err := Find(forest, "7")
	require.NoError(t, err)
	require.Equal(t, "Audit", found.Title)
}

func TestCreateExplicitIDConflict(t *testing.T) {
	svc, _ := newService(t, sampleForest())
	_, err := svc.Create(CreateInput{ID: "3", Title: "Dup"})
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestCreateMissingParentLeavesForestUnchanged(t *testing.T) {
	svc, st := newService(t, sampleForest())

	_, err := svc.Create(CreateInput{Title: "Orphan", ParentID: "99"})
	require.ErrorIs(t, err, shared.ErrNotFound)

	st.View(func(doc *store.Document) {
		require.Equal(t, sampleForest(), doc.Menus)
	})
}

func TestCreateRequiresTitle(t *testing.T) {
	svc, _ := newService(t, nil)
	_, err := svc.Create(CreateInput{Title: "   "})
	require.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestDeleteRemovesSubtree(t *testing.T) {
	svc, _ := newService(t, sampleForest())
	require.NoError(t, svc.Delete("2"))

	forest := svc.List()
	_, err := Find(forest, "3")
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.ErrorIs(t, svc.Delete("2"), shared.ErrNotFound)
}

func TestVisibleMenus(t *testing.T) {
	svc, _ := newService(t, rbac.MenuForest{
		{ID: "1", Permission: "page:dashboard"},
		{ID: "2", Permission: "page:user"},
	})

	alice := &rbac.Principal{
		UserID:      shared.NumericID(2),
		Username:    "alice",
		RoleID:      shared.NumericID(2),
		Permissions: []string{"page:dashboard"},
	}
	bob := &rbac.Principal{
		UserID:   shared.NumericID(1),
		Username: "bob",
		RoleID:   shared.AdministratorID,
	}

	got := svc.Visible(alice)
	require.Len(t, got, 1)
	require.Equal(t, "1", got[0].ID)

	got = svc.Visible(bob)
	require.Len(t, got, 2)
}
