package users

import (
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gatehouse-rbac/gatehouse/internal/platform/httpx"
	"github.com/gatehouse-rbac/gatehouse/internal/rbac"
	"github.com/gatehouse-rbac/gatehouse/internal/shared"
	"github.com/gatehouse-rbac/gatehouse/internal/uploads"
)

const maxAvatarBytes = 5 << 20

// Handler manages user management and self-service endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	avatars   *uploads.Store
	staleness *rbac.Staleness
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware, avatars *uploads.Store, staleness *rbac.Staleness) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		rbac:      mw,
		avatars:   avatars,
		staleness: staleness,
		validator: validator.New(),
	}
}

// MountRoutes registers the self-service endpoints for the authenticated user.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/user/profile", h.updateProfile)
	r.Post("/user/change-password", h.changePassword)
	r.Post("/user/avatar", h.uploadAvatar)
}

// MountAdminRoutes registers account management endpoints with their
// per-verb permissions.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermUserPage))
		r.Get("/users", h.listUsers)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermUserAdd))
		r.Post("/users", h.createUser)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermUserEdit))
		r.Put("/users/{id}", h.updateUser)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermUserDelete))
		r.Delete("/users/{id}", h.deleteUser)
	})
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.service.List())
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var input CreateInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", err.Error())
		return
	}
	user, err := h.service.Create(input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, user)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input UpdateInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", "malformed JSON body")
		return
	}
	user, err := h.service.Update(id, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	principal := rbac.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing principal")
		return
	}
	var input struct {
		Email  *string `json:"email"`
		Phone  *string `json:"phone"`
		Avatar *string `json:"avatar"`
	}
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", "malformed JSON body")
		return
	}
	user, err := h.service.Update(principal.UserID, UpdateInput{
		Email:  input.Email,
		Phone:  input.Phone,
		Avatar: input.Avatar,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	principal := rbac.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing principal")
		return
	}
	var input struct {
		OldPassword string `json:"oldPassword" validate:"required"`
		NewPassword string `json:"newPassword" validate:"required,min=6"`
	}
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", err.Error())
		return
	}
	if err := h.service.ChangePassword(principal.UserID, input.OldPassword, input.NewPassword); err != nil {
		httpx.RespondError(w, err)
		return
	}
	// Previously issued credentials for this user are stale from here on.
	if err := h.staleness.MarkChanged(r.Context(), principal.UserID); err != nil {
		h.logger.Warn("mark password change", slog.Any("error", err))
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "password changed, re-authentication required"})
}

func (h *Handler) uploadAvatar(w http.ResponseWriter, r *http.Request) {
	principal := rbac.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing principal")
		return
	}
	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", "malformed multipart body")
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", "avatar file missing")
		return
	}
	defer file.Close()

	path, err := h.avatars.Save(file, header.Filename)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if _, err := h.service.Update(principal.UserID, UpdateInput{Avatar: &path}); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"path": path})
}
