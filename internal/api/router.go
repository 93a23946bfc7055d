package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/perthro/internal/reviewservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(svc *reviewservice.Service, authEnabled bool, token string) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Review queue.
	r.Get("/queue", h.Queue)
	r.Get("/items/{id}", h.GetItem)
	r.Get("/summary", h.Summary)

	// Imports.
	r.Post("/import", h.Import)

	return r
}
