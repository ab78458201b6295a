package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Register attaches the auth routes under an already contest-scoped router.
// loginLimit throttles credential guessing; authed guards routes that need
// a live session.
func (h *Handlers) Register(r chi.Router, loginLimit, authed func(http.Handler) http.Handler) {
	r.With(loginLimit).Post("/login", h.LoginHandler)
	r.Post("/logout", h.LogoutHandler)
	r.With(authed).Post("/start", h.StartHandler)
}
