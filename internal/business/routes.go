package business

import "github.com/go-chi/chi/v5"

// MountRoutes attaches the collection-level business routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Post("/join", h.Join)
}

// MountBusinessRoutes attaches routes scoped to one business; the caller
// mounts them under /{businessID}.
func (h *Handler) MountBusinessRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Get("/members", h.Members)
}
