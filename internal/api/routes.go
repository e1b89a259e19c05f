package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"foncier-search/internal/db"
	"foncier-search/internal/logger"
)

// NewRouter creates and configures the Chi router
func NewRouter(database *db.DB, log *logger.Logger) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(RequestLogger(log))
	r.Use(CORS)

	// Create handlers
	h := NewHandlers(database)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/records", h.ListRecords)
		r.Get("/records/{id}", h.GetRecord)
		r.Get("/filters/options", h.GetFilterOptions)
		r.Get("/health", h.Health)
	})

	return r
}
