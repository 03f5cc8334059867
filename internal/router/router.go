package router

import (
	"net/http"

	"github.com/barberia/backend/internal/auth"
	"github.com/barberia/backend/internal/handlers"
	authmw "github.com/barberia/backend/internal/middleware"
	"github.com/barberia/backend/internal/repositories"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// New assembles the HTTP routes. Auth endpoints live under /api/auth to
// match the site's frontend; protected routes go through the token guard.
func New(authHandler *handlers.AuthHandler, tokens *auth.TokenService, denylist repositories.TokenDenylist, logger zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(authmw.Authenticate(tokens, denylist, logger))
			r.Get("/me", authHandler.Me)
			r.Post("/change-password", authHandler.ChangePassword)
			r.Delete("/delete-account", authHandler.DeleteAccount)
		})
	})

	return r
}
