package app

import (
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/gatehouse-rbac/gatehouse/internal/admin"
	"github.com/gatehouse-rbac/gatehouse/internal/auth"
	"github.com/gatehouse-rbac/gatehouse/internal/menu"
	"github.com/gatehouse-rbac/gatehouse/internal/observability"
	"github.com/gatehouse-rbac/gatehouse/internal/rbac"
	"github.com/gatehouse-rbac/gatehouse/internal/roles"
	"github.com/gatehouse-rbac/gatehouse/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	AuthHandler    *auth.Handler
	MenuHandler    *menu.Handler
	RolesHandler   *roles.Handler
	UsersHandler   *users.Handler
	AdminHandler   *admin.Handler
	RBACMiddleware rbac.Middleware
	Metrics        *observability.Metrics
	UploadDir      string
}

// NewRouter constructs the chi.Router with service defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	if params.UploadDir != "" {
		fileServer := http.StripPrefix("/uploads/", http.FileServer(http.Dir(params.UploadDir)))
		r.Get("/uploads/*", fileServer.ServeHTTP)
	}

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(LoginRateLimit())
			params.AuthHandler.MountPublicRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(params.RBACMiddleware.Authenticate)
			params.AuthHandler.MountRoutes(r)
			params.MenuHandler.MountRoutes(r)
			params.UsersHandler.MountRoutes(r)

			r.Route("/admin", func(r chi.Router) {
				params.MenuHandler.MountAdminRoutes(r)
				params.RolesHandler.MountAdminRoutes(r)
				params.UsersHandler.MountAdminRoutes(r)
				params.AdminHandler.MountAdminRoutes(r)
			})
		})
	})

	return r
}
