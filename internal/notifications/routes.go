package notifications

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handlers) Register(r chi.Router, authed func(http.Handler) http.Handler) {
	r.With(authed).Get("/notifications", h.FetchHandler)
}
