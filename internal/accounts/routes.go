package accounts

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{ref}", h.Get)
	r.Patch("/{ref}", h.Update)
	r.Delete("/{ref}", h.Delete)
}
