package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gatehouse-rbac/gatehouse/internal/rbac"
	"github.com/gatehouse-rbac/gatehouse/internal/shared"
	"github.com/gatehouse-rbac/gatehouse/internal/store"
	"github.com/gatehouse-rbac/gatehouse/internal/users"
)

func fixtureStore(roleStatus rbac.Status) *store.Store {
	return store.NewFromDocument(&store.Document{
		Roles: []rbac.Role{
			{ID: shared.AdministratorID, Name: "admin", Status: rbac.StatusEnabled, Admin: true,
				Permissions: shared.AdministratorPermissions()},
			{ID: shared.NumericID(2), Name: "viewer", Status: roleStatus,
				Permissions: []string{"page:dashboard"}},
		},
		Users: []rbac.User{
			{ID: shared.NumericID(1), Username: "admin", Password: "admin123", RoleID: shared.AdministratorID},
			{ID: shared.NumericID(2), Username: "alice", Password: "alicepw", RoleID: shared.NumericID(2)},
		},
	})
}

type plainHasher struct{}

func (plainHasher) Hash(plain string) (string, error) { return plain, nil }
func (plainHasher) Compare(stored, plain string) bool { return stored == plain }

var _ users.PasswordHasher = plainHasher{}

func TestAuthenticate(t *testing.T) {
	svc := NewService(fixtureStore(rbac.StatusEnabled), plainHasher{})

	principal, err := svc.Authenticate("alice", "alicepw")
	require.NoError(t, err)
	require.Equal(t, "alice", principal.Username)
	require.Equal(t, []string{"page:dashboard"}, principal.Permissions)
	require.False(t, principal.IsAdministrator())

	_, err = svc.Authenticate("alice", "wrong")
	require.ErrorIs(t, err, shared.ErrUnauthorized)

	_, err = svc.Authenticate("nobody", "alicepw")
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestAuthenticateDisabledRole(t *testing.T) {
	svc := NewService(fixtureStore(rbac.StatusDisabled), plainHasher{})

	// Correct password, but the role is disabled.
	_, err := svc.Authenticate("alice", "alicepw")
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestPermissionSnapshotIsDetached(t *testing.T) {
	st := fixtureStore(rbac.StatusEnabled)
	svc := NewService(st, plainHasher{})

	principal, err := svc.Authenticate("alice", "alicepw")
	require.NoError(t, err)

	// Role edits after issuance never reach the live principal.
	_ = st.Update(func(doc *store.Document) error {
		doc.RoleByID(shared.NumericID(2)).Permissions = nil
		return nil
	})
	require.Equal(t, []string{"page:dashboard"}, principal.Permissions)
}

func TestTokenRoundTrip(t *testing.T) {
	codec := NewTokenCodec("test-secret", time.Hour)
	issued := &rbac.Principal{
		UserID:      shared.NumericID(2),
		Username:    "alice",
		RoleID:      shared.NumericID(2),
		Permissions: []string{"page:dashboard"},
		IssuedAt:    time.Now(),
	}

	token, err := codec.Issue(issued)
	require.NoError(t, err)

	got, err := codec.Verify(token)
	require.NoError(t, err)
	require.Equal(t, issued.UserID, got.UserID)
	require.Equal(t, issued.Username, got.Username)
	require.Equal(t, issued.RoleID, got.RoleID)
	require.Equal(t, issued.Permissions, got.Permissions)
	require.False(t, got.IssuedAt.IsZero())
}

func TestTokenVerifyRejectsForgery(t *testing.T) {
	codec := NewTokenCodec("test-secret", time.Hour)
	other := NewTokenCodec("other-secret", time.Hour)

	token, err := other.Issue(&rbac.Principal{
		UserID: shared.NumericID(1), Username: "admin", RoleID: shared.AdministratorID,
	})
	require.NoError(t, err)

	_, err = codec.Verify(token)
	require.ErrorIs(t, err, shared.ErrUnauthorized)

	_, err = codec.Verify("not-a-token")
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestTokenExpiry(t *testing.T) {
	codec := NewTokenCodec("test-secret", time.Hour)
	codec.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := codec.Issue(&rbac.Principal{
		UserID: shared.NumericID(2), Username: "alice", RoleID: shared.NumericID(2),
	})
	require.NoError(t, err)

	_, err = NewTokenCodec("test-secret", time.Hour).Verify(token)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestCurrentUser(t *testing.T) {
	svc := NewService(fixtureStore(rbac.StatusEnabled), plainHasher{})

	info, err := svc.CurrentUser(&rbac.Principal{UserID: shared.NumericID(2)})
	require.NoError(t, err)
	require.Equal(t, "alice", info.Username)
	require.Equal(t, "viewer", info.Role.Name)

	_, err = svc.CurrentUser(&rbac.Principal{UserID: shared.NumericID(9)})
	require.ErrorIs(t, err, shared.ErrNotFound)
}
