package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-auth-api/internal/config"
	"go-auth-api/internal/handler"
	"go-auth-api/internal/middleware"
	"go-auth-api/internal/model"
	"go-auth-api/internal/service"
)

type Handlers struct {
	Auth   *handler.AuthHandler
	Action *handler.ActionHandler
	Audit  *handler.AuditHandler
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, handlers Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/login", handlers.Auth.Login)
			auth.Post("/refresh", handlers.Auth.Refresh)
			auth.With(authMiddleware.RequireAuth).Post("/revoke", handlers.Auth.Revoke)
			auth.With(authMiddleware.RequireAuth).Get("/me", handlers.Auth.Me)
		})

		api.Route("/actions", func(actions chi.Router) {
			actions.Get("/any", handlers.Action.Any)
			actions.With(authMiddleware.RequireAuth, authMiddleware.RequireRole(model.RoleDeveloper)).Get("/developer", handlers.Action.Developer)
			actions.With(authMiddleware.RequireAuth, authMiddleware.RequireRole(model.RoleManager)).Get("/manager", handlers.Action.Manager)
			actions.With(authMiddleware.RequireAuth, authMiddleware.RequirePolicy(service.BossOnly)).Get("/boss", handlers.Action.Boss)
		})

		api.With(authMiddleware.RequireAuth, authMiddleware.RequirePolicy(service.BossOnly)).Get("/audit", handlers.Audit.List)
	})

	return r
}
