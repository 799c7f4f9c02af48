package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	// The health endpoint is the only unauthenticated route.
	r.Get("/api/health", apiHandler.HealthHandler)

	r.Group(func(r chi.Router) {
		r.Use(apiHandler.BasicAuthMiddleware)

		r.Get("/", apiHandler.IndexHandler)

		r.Route("/api", func(r chi.Router) {
			r.Post("/chat", apiHandler.ChatHandler)
			r.Post("/reset", apiHandler.ResetHandler)
			r.Post("/search", apiHandler.SearchHandler)
		})
	})

	return r
}
