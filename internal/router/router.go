package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"devboard-trash/internal/config"
	"devboard-trash/internal/handler"
	"devboard-trash/internal/middleware"
	"devboard-trash/internal/websocket"
)

func New(
	cfg *config.Config,
	authMiddleware *middleware.AuthMiddleware,
	authHandler *handler.AuthHandler,
	trashHandler *handler.TrashHandler,
	auditHandler *handler.AuditHandler,
	hub *websocket.Hub,
) http.Handler {
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
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.With(authMiddleware.RequireAuth).Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		websocket.ServeWs(hub, w, r)
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/login", authHandler.Login)
			auth.Post("/refresh", authHandler.Refresh)
			auth.With(authMiddleware.RequireAuth).Post("/logout", authHandler.Logout)
			auth.With(authMiddleware.RequireAuth).Get("/me", authHandler.Me)
		})

		api.Route("/trash", func(trash chi.Router) {
			trash.Use(authMiddleware.RequireAuth)

			trash.With(authMiddleware.RequireRoles("admin", "editor")).Get("/", trashHandler.List)
			trash.With(authMiddleware.RequireRoles("admin")).Delete("/items", trashHandler.Delete)
			trash.With(authMiddleware.RequireRoles("admin")).Post("/bulk-delete", trashHandler.BulkDelete)
			trash.With(authMiddleware.RequireRoles("admin")).Post("/sweep", trashHandler.Sweep)
			trash.With(authMiddleware.RequireRoles("admin")).Post("/{id}/restore", trashHandler.Restore)
			trash.With(authMiddleware.RequireRoles("admin")).Post("/{id}/purge", trashHandler.Purge)
		})

		api.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles("admin")).Get("/audit", auditHandler.List)
	})

	return r
}
