package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"vidtube/internal/handler"
	"vidtube/internal/httputil"
	authmw "vidtube/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler *handler.AuthHandler
	UserHandler *handler.UserHandler
	Tokens      authmw.TokenVerifier
	Users       authmw.UserResolver
	CORSOrigin  string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	if cfg.CORSOrigin != "" {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{cfg.CORSOrigin},
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
		}))
	}

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteNotFound(w, "Route not found")
	})

	r.Get("/api/v1/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"}, "healthcheck passed")
	})

	r.Route("/api/v1/users", func(r chi.Router) {
		// Public routes - no authentication required
		r.Post("/register", cfg.AuthHandler.Register)
		r.Post("/login", cfg.AuthHandler.Login)
		r.Post("/refresh-token", cfg.AuthHandler.Refresh)

		// Protected routes - require a valid access token
		r.Group(func(r chi.Router) {
			r.Use(authmw.Auth(cfg.Tokens, cfg.Users))

			r.Post("/logout", cfg.AuthHandler.Logout)
			r.Patch("/update-password", cfg.AuthHandler.ChangePassword)
			r.Get("/current-user", cfg.AuthHandler.Me)

			r.Patch("/account", cfg.UserHandler.UpdateAccount)
			r.Patch("/avatar", cfg.UserHandler.UpdateAvatar)
			r.Patch("/cover-image", cfg.UserHandler.UpdateCoverImage)
			r.Get("/history", cfg.UserHandler.WatchHistory)
			r.Get("/c/{username}", cfg.UserHandler.ChannelProfile)
		})
	})

	return r
}
