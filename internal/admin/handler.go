package admin

import (
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/gatehouse-rbac/gatehouse/internal/platform/httpx"
	"github.com/gatehouse-rbac/gatehouse/internal/rbac"
	"github.com/gatehouse-rbac/gatehouse/internal/shared"
)

// Handler wires the bulk configuration endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: mw}
}

// MountAdminRoutes registers the configuration dump/replace endpoints.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermMenuManage))
		r.Get("/rbac", h.dump)
		r.Post("/rbac", h.replace)
	})
}

func (h *Handler) dump(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.service.Dump())
}

func (h *Handler) replace(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Roles []rbac.Role     `json:"roles"`
		Menus rbac.MenuForest `json:"menus"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", "malformed JSON body")
		return
	}
	if err := h.service.Replace(body.Roles, body.Menus); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("rbac configuration replaced",
		slog.Int("roles", len(body.Roles)), slog.Int("menus", len(body.Menus)))
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "saved"})
}
