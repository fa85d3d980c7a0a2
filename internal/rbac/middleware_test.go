package rbac

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse-rbac/gatehouse/internal/shared"
)

type stubVerifier struct {
	principal *Principal
}

func (s *stubVerifier) Verify(token string) (*Principal, error) {
	if s.principal == nil {
		return nil, errors.New("bad token")
	}
	return s.principal, nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticateMissingToken(t *testing.T) {
	mw := Middleware{Verifier: &stubVerifier{}}
	req := httptest.NewRequest(http.MethodGet, "/api/menus", nil)
	res := httptest.NewRecorder()

	mw.Authenticate(okHandler()).ServeHTTP(res, req)
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestAuthenticateInjectsPrincipal(t *testing.T) {
	principal := &Principal{
		UserID:      shared.NumericID(2),
		Username:    "alice",
		RoleID:      shared.NumericID(2),
		Permissions: []string{"page:dashboard"},
		IssuedAt:    time.Now(),
	}
	mw := Middleware{Verifier: &stubVerifier{principal: principal}}

	var seen *Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/menus", nil)
	req.Header.Set("Authorization", "Bearer anything")
	res := httptest.NewRecorder()

	mw.Authenticate(next).ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, principal, seen)
}

func TestRequireAny(t *testing.T) {
	principal := &Principal{
		UserID:      shared.NumericID(2),
		Username:    "alice",
		Permissions: []string{"page:dashboard"},
	}
	mw := Middleware{}

	run := func(perms ...string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/roles", nil)
		req = req.WithContext(ContextWithPrincipal(req.Context(), principal))
		res := httptest.NewRecorder()
		mw.RequireAny(perms...)(okHandler()).ServeHTTP(res, req)
		return res.Code
	}

	require.Equal(t, http.StatusOK, run("page:dashboard"))
	require.Equal(t, http.StatusOK, run("page:role", "page:dashboard"))
	require.Equal(t, http.StatusForbidden, run("page:role"))
	// Codes match exactly, no prefix semantics.
	require.Equal(t, http.StatusForbidden, run("page:dashboards"))
}

func TestRequireAnyWithoutPrincipal(t *testing.T) {
	mw := Middleware{}
	req := httptest.NewRequest(http.MethodGet, "/api/admin/roles", nil)
	res := httptest.NewRecorder()
	mw.RequireAny("page:role")(okHandler()).ServeHTTP(res, req)
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestStalenessRejectsOldCredentials(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	staleness := NewStaleness(client, time.Hour)

	stale := &Principal{
		UserID:   shared.NumericID(2),
		Username: "alice",
		IssuedAt: time.Now().Add(-time.Minute),
	}
	require.False(t, staleness.IsStale(context.Background(), stale))

	require.NoError(t, staleness.MarkChanged(context.Background(), shared.NumericID(2)))
	require.True(t, staleness.IsStale(context.Background(), stale))

	fresh := &Principal{
		UserID:   shared.NumericID(2),
		Username: "alice",
		IssuedAt: time.Now().Add(time.Minute),
	}
	require.False(t, staleness.IsStale(context.Background(), fresh))

	// Markers are per user.
	other := &Principal{UserID: shared.NumericID(3), IssuedAt: time.Now().Add(-time.Minute)}
	require.False(t, staleness.IsStale(context.Background(), other))
}

func TestStalenessDisabledWithoutClient(t *testing.T) {
	var staleness *Staleness
	p := &Principal{UserID: shared.NumericID(2), IssuedAt: time.Now().Add(-time.Hour)}
	require.False(t, staleness.IsStale(context.Background(), p))
	require.NoError(t, staleness.MarkChanged(context.Background(), shared.NumericID(2)))
}

func TestAuthenticateRejectsStaleToken(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	staleness := NewStaleness(client, time.Hour)

	principal := &Principal{
		UserID:   shared.NumericID(2),
		Username: "alice",
		IssuedAt: time.Now().Add(-time.Minute),
	}
	mw := Middleware{Verifier: &stubVerifier{principal: principal}, Staleness: staleness}
	require.NoError(t, staleness.MarkChanged(context.Background(), shared.NumericID(2)))

	req := httptest.NewRequest(http.MethodGet, "/api/menus", nil)
	req.Header.Set("Authorization", "Bearer anything")
	res := httptest.NewRecorder()
	mw.Authenticate(okHandler()).ServeHTTP(res, req)
	require.Equal(t, http.StatusUnauthorized, res.Code)
}
