package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gatehouse-rbac/gatehouse/internal/admin"
	"github.com/gatehouse-rbac/gatehouse/internal/auth"
	"github.com/gatehouse-rbac/gatehouse/internal/menu"
	"github.com/gatehouse-rbac/gatehouse/internal/observability"
	"github.com/gatehouse-rbac/gatehouse/internal/rbac"
	"github.com/gatehouse-rbac/gatehouse/internal/roles"
	"github.com/gatehouse-rbac/gatehouse/internal/shared"
	"github.com/gatehouse-rbac/gatehouse/internal/store"
	"github.com/gatehouse-rbac/gatehouse/internal/users"
)

// Stored passwords use the plaintext compatibility path of BcryptHasher so the
// fixtures stay readable.
func testDocument() *store.Document {
	return &store.Document{
		Roles: []rbac.Role{
			{ID: shared.AdministratorID, Name: "admin", Permissions: shared.AdministratorPermissions(), Status: rbac.StatusEnabled, Admin: true},
			{ID: shared.NumericID(2), Name: "viewer", Permissions: []string{"page:dashboard"}, Status: rbac.StatusEnabled},
			{ID: shared.NumericID(3), Name: "suspended", Permissions: []string{"page:dashboard"}, Status: rbac.StatusDisabled},
		},
		Users: []rbac.User{
			{ID: shared.NumericID(1), Username: "bob", Password: "hunter2", RoleID: shared.AdministratorID},
			{ID: shared.NumericID(2), Username: "alice", Password: "wonder", RoleID: shared.NumericID(2)},
			{ID: shared.NumericID(3), Username: "carol", Password: "benched", RoleID: shared.NumericID(3)},
		},
		Menus: rbac.MenuForest{
			{ID: "1", Title: "Dashboard", Path: "/dashboard", Permission: "page:dashboard", Children: rbac.MenuForest{
				{ID: "1-1", Title: "Overview", Path: "/dashboard/overview"},
			}},
			{ID: "2", Title: "Menu Manage", Path: "/menu-manage", Permission: "page:menu-manage"},
		},
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	st := store.NewFromDocument(testDocument())
	logger := NewLogger(&Config{LogFormat: "json"})
	hasher := users.BcryptHasher{}

	codec := auth.NewTokenCodec("test-secret", time.Hour)
	mw := rbac.Middleware{Verifier: codec, Logger: logger}

	authSvc := auth.NewService(st, hasher)
	menuSvc := menu.NewService(st, logger)
	rolesSvc := roles.NewService(st, logger)
	usersSvc := users.NewService(st, hasher, logger)
	adminSvc := admin.NewService(st, logger)

	return NewRouter(RouterParams{
		Logger:         logger,
		AuthHandler:    auth.NewHandler(logger, authSvc, codec),
		MenuHandler:    menu.NewHandler(logger, menuSvc, mw),
		RolesHandler:   roles.NewHandler(logger, rolesSvc, mw),
		UsersHandler:   users.NewHandler(logger, usersSvc, mw, nil, nil),
		AdminHandler:   admin.NewHandler(logger, adminSvc, mw),
		RBACMiddleware: mw,
		Metrics:        observability.NewMetrics(),
	})
}

func login(t *testing.T, router http.Handler, username, password string) (string, int) {
	t.Helper()
	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		return "", res.Code
	}
	var out map[string]string
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	require.NotEmpty(t, out["token"])
	return out["token"], res.Code
}

func doJSON(router http.Handler, method, path, token string, payload any) *httptest.ResponseRecorder {
	var body *bytes.Reader
	if payload != nil {
		data, _ := json.Marshal(payload)
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t)
	res := doJSON(router, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
}

func TestLogin(t *testing.T) {
	router := newTestRouter(t)

	_, code := login(t, router, "alice", "wonder")
	require.Equal(t, http.StatusOK, code)

	_, code = login(t, router, "alice", "wrong")
	require.Equal(t, http.StatusUnauthorized, code)

	_, code = login(t, router, "nobody", "wonder")
	require.Equal(t, http.StatusUnauthorized, code)

	// A disabled role blocks the whole account.
	_, code = login(t, router, "carol", "benched")
	require.Equal(t, http.StatusUnauthorized, code)
}

func TestMenusFilteredByPermission(t *testing.T) {
	router := newTestRouter(t)

	require.Equal(t, http.StatusUnauthorized, doJSON(router, http.MethodGet, "/api/menus", "", nil).Code)

	aliceToken, _ := login(t, router, "alice", "wonder")
	res := doJSON(router, http.MethodGet, "/api/menus", aliceToken, nil)
	require.Equal(t, http.StatusOK, res.Code)

	var visible rbac.MenuForest
	require.NoError(t, json.NewDecoder(res.Body).Decode(&visible))
	require.Len(t, visible, 1)
	require.Equal(t, "1", visible[0].ID)
	require.Len(t, visible[0].Children, 1)

	bobToken, _ := login(t, router, "bob", "hunter2")
	res = doJSON(router, http.MethodGet, "/api/menus", bobToken, nil)
	require.Equal(t, http.StatusOK, res.Code)

	require.NoError(t, json.NewDecoder(res.Body).Decode(&visible))
	require.Len(t, visible, 2)
	require.Equal(t, "2", visible[1].ID)
}

func TestCheckPermission(t *testing.T) {
	router := newTestRouter(t)
	token, _ := login(t, router, "alice", "wonder")

	check := func(code string) bool {
		res := doJSON(router, http.MethodPost, "/api/check-permission", token, map[string]string{"code": code})
		require.Equal(t, http.StatusOK, res.Code)
		var out map[string]bool
		require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
		return out["allowed"]
	}

	require.True(t, check("page:dashboard"))
	require.False(t, check("page:role"))
}

func TestAdminSurfaceRequiresPermission(t *testing.T) {
	router := newTestRouter(t)

	aliceToken, _ := login(t, router, "alice", "wonder")
	bobToken, _ := login(t, router, "bob", "hunter2")

	for _, path := range []string{"/api/admin/menus", "/api/admin/roles", "/api/admin/users", "/api/admin/rbac"} {
		require.Equal(t, http.StatusForbidden, doJSON(router, http.MethodGet, path, aliceToken, nil).Code, path)
		require.Equal(t, http.StatusOK, doJSON(router, http.MethodGet, path, bobToken, nil).Code, path)
	}
}

func TestMenuCreateValidatesParent(t *testing.T) {
	router := newTestRouter(t)
	token, _ := login(t, router, "bob", "hunter2")

	res := doJSON(router, http.MethodPost, "/api/admin/menus", token, map[string]string{
		"title":    "Orphan",
		"parentId": "999",
	})
	require.Equal(t, http.StatusNotFound, res.Code)

	// The failed insert leaves the forest unchanged.
	list := doJSON(router, http.MethodGet, "/api/admin/menus", token, nil)
	var forest rbac.MenuForest
	require.NoError(t, json.NewDecoder(list.Body).Decode(&forest))
	require.Len(t, forest, 2)

	res = doJSON(router, http.MethodPost, "/api/admin/menus", token, map[string]string{
		"title":    "Settings",
		"parentId": "2",
	})
	require.Equal(t, http.StatusCreated, res.Code)

	var created rbac.MenuNode
	require.NoError(t, json.NewDecoder(res.Body).Decode(&created))
	require.Equal(t, "3", created.ID)
}

func TestUserInfo(t *testing.T) {
	router := newTestRouter(t)
	token, _ := login(t, router, "alice", "wonder")

	res := doJSON(router, http.MethodGet, "/api/user/info", token, nil)
	require.Equal(t, http.StatusOK, res.Code)

	var out map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	require.Equal(t, "alice", out["username"])
	require.NotContains(t, out, "password")
}

func TestForgedTokenRejected(t *testing.T) {
	router := newTestRouter(t)

	forged := auth.NewTokenCodec("other-secret", time.Hour)
	principal := &rbac.Principal{
		UserID:      shared.NumericID(2),
		Username:    "alice",
		RoleID:      shared.NumericID(2),
		Permissions: []string{"page:dashboard"},
		IssuedAt:    time.Now(),
	}
	token, err := forged.Issue(principal)
	require.NoError(t, err)

	res := doJSON(router, http.MethodGet, "/api/menus", token, nil)
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestRoleLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	token, _ := login(t, router, "bob", "hunter2")

	res := doJSON(router, http.MethodPost, "/api/admin/roles", token, map[string]any{
		"name":        "auditor",
		"permissions": []string{"page:dashboard"},
	})
	require.Equal(t, http.StatusCreated, res.Code)

	var created rbac.Role
	require.NoError(t, json.NewDecoder(res.Body).Decode(&created))
	require.Equal(t, rbac.StatusEnabled, created.Status)

	id := created.ID.String()
	res = doJSON(router, http.MethodPut, fmt.Sprintf("/api/admin/roles/%s/status", id), token, map[string]string{"status": "disabled"})
	require.Equal(t, http.StatusOK, res.Code)

	// The sentinel administrator role cannot be disabled over the API.
	res = doJSON(router, http.MethodPut, "/api/admin/roles/admin/status", token, map[string]string{"status": "disabled"})
	require.Equal(t, http.StatusForbidden, res.Code)

	res = doJSON(router, http.MethodDelete, "/api/admin/roles/"+id, token, nil)
	require.Equal(t, http.StatusOK, res.Code)
}
