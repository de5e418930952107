package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-auth-api/internal/config"
	"go-auth-api/internal/database"
	"go-auth-api/internal/event"
	"go-auth-api/internal/handler"
	"go-auth-api/internal/middleware"
	"go-auth-api/internal/repository"
	"go-auth-api/internal/router"
	"go-auth-api/internal/service"
)

type App struct {
	server       *http.Server
	db           *database.DB
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var db *database.DB
	var userStore service.CredentialStore
	var auditStore service.AuditStore

	if cfg.DatabaseURL != "" {
		slog.Info("connecting to PostgreSQL")
		db, err = database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		if err := db.EnsureSchema(context.Background()); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ensure database schema: %w", err)
		}

		userStore = repository.NewUserRepository(db.Pool)
		auditStore = repository.NewAuditRepository(db.Pool)
		slog.Info("database ready")
	} else {
		slog.Warn("DATABASE_URL not set; using in-memory stores")
		userStore = repository.NewMemoryUserRepository()
		auditStore = repository.NewMemoryAuditRepository()
	}

	if cfg.SeedDemoUsers {
		if err := service.SeedDemoUsers(context.Background(), userStore); err != nil {
			if db != nil {
				db.Close()
			}
			return nil, fmt.Errorf("failed to seed demo users: %w", err)
		}
		slog.Info("demo users seeded")
	}

	tokenService, err := service.NewTokenService(service.TokenConfig{
		Secret:           cfg.JWTSecret,
		Issuer:           cfg.JWTIssuer,
		Audience:         cfg.JWTAudience,
		ValidateIssuer:   cfg.JWTValidateIssuer,
		ValidateAudience: cfg.JWTValidateAudience,
		AccessTTL:        cfg.JWTAccessTTL,
		RefreshTTL:       cfg.RefreshTTL,
	})
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	authService := service.NewAuthService(userStore, tokenService)
	auditService := service.NewAuditService(auditStore)
	authMiddleware := middleware.NewAuthMiddleware(authService)

	bus := event.NewBus()
	recorderCtx, recorderCancel := context.WithCancel(context.Background())
	go auditService.RecordEvents(recorderCtx, bus)

	appRouter := router.New(cfg, authMiddleware, router.Handlers{
		Auth:   handler.NewAuthHandler(authService, bus),
		Action: handler.NewActionHandler(),
		Audit:  handler.NewAuditHandler(auditService),
	})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	cleanup := []func(){recorderCancel}
	if db != nil {
		cleanup = append(cleanup, db.Close)
	}

	return &App{
		server:       server,
		db:           db,
		cleanupFuncs: cleanup,
	}, nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	slog.Info("server stopped")
	return nil
}
