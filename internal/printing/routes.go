package printing

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handlers) Register(r chi.Router, authed func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authed)
		r.Get("/printing", h.ListHandler)
		r.Post("/printing", h.SubmitHandler)
	})
}
