package auth

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/contesthub/gateway/internal/contest"
	"github.com/contesthub/gateway/internal/middleware"
	"github.com/contesthub/gateway/internal/session"
	"github.com/contesthub/gateway/internal/utils"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type LoginForm struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

type Handlers struct {
	Gateway *Gateway
}

func (h *Handlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	c, ok := middleware.ContestFromContext(r.Context())
	if !ok {
		http.Error(w, "Contest not resolved", http.StatusInternalServerError)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	next := r.FormValue("next")
	target, ok := resolveNext(c.Name, next)
	if !ok {
		// Absolute or cross-host redirect targets are not a soft failure.
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	form := LoginForm{
		Username: r.FormValue("username"),
		Password: r.FormValue("password"),
	}

	remoteIP := middleware.RemoteIP(r)
	filteredUser := utils.FilterASCII(form.Username)

	if err := validate.Struct(form); err != nil {
		log.Printf("Login error: user=%s remote_ip=%s reason=EmptyCredentials.", filteredUser, remoteIP)
		http.Redirect(w, r, errorPage(c.Name, next), http.StatusSeeOther)
		return
	}

	result, err := h.Gateway.Login(c, form.Username, form.Password, remoteIP, time.Now())
	if err != nil {
		var le *LoginError
		if errors.As(err, &le) {
			// Same opaque redirect for every reason; the reason only
			// reaches the audit log.
			log.Printf("Login error: user=%s remote_ip=%s reason=%s.", filteredUser, remoteIP, le.Reason)
			http.Redirect(w, r, errorPage(c.Name, next), http.StatusSeeOther)
			return
		}
		log.Printf("Login failed unexpectedly: user=%s remote_ip=%s err=%v", filteredUser, remoteIP, err)
		http.Error(w, "Temporary failure, please retry", http.StatusInternalServerError)
		return
	}

	log.Printf("User logged in: user=%s remote_ip=%s.", filteredUser, remoteIP)
	session.SetCookie(w, session.CookieName(c.Name), result.Token)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *Handlers) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	c, ok := middleware.ContestFromContext(r.Context())
	if !ok {
		http.Error(w, "Contest not resolved", http.StatusInternalServerError)
		return
	}

	session.ClearCookie(w, session.CookieName(c.Name))
	http.Redirect(w, r, "/"+c.Name+"/", http.StatusSeeOther)
}

func (h *Handlers) StartHandler(w http.ResponseWriter, r *http.Request) {
	c, ok := middleware.ContestFromContext(r.Context())
	if !ok {
		http.Error(w, "Contest not resolved", http.StatusInternalServerError)
		return
	}
	participation, ok := middleware.ParticipationFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	err := h.Gateway.StartClock(c, participation, time.Now())
	switch {
	case errors.Is(err, contest.ErrAlreadyStarted):
		http.Error(w, "Clock already started", http.StatusConflict)
		return
	case errors.Is(err, ErrClockNotStartable):
		http.Error(w, "Clock cannot start now", http.StatusForbidden)
		return
	case err != nil:
		log.Printf("Start failed for participation %d: %v", participation.ID, err)
		http.Error(w, "Temporary failure, please retry", http.StatusInternalServerError)
		return
	}

	log.Printf("Starting now for user %s", utils.FilterASCII(user.Username))
	http.Redirect(w, r, "/"+c.Name+"/", http.StatusSeeOther)
}

func errorPage(contestName, next string) string {
	page := "/" + contestName + "/?login_error=true"
	if next != "" {
		page += "&next=" + url.QueryEscape(next)
	}
	return page
}

// resolveNext maps the submitted next parameter onto a path under the
// contest namespace. Anything absolute or carrying a host is rejected; a
// plain relative path cannot escape the namespace.
func resolveNext(contestName, next string) (string, bool) {
	base := "/" + contestName + "/"
	if next == "" || next == "/" {
		return base, true
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "", false
	}
	cleaned := path.Clean("/" + strings.Trim(u.Path, "/"))
	if cleaned == "/" {
		return base, true
	}
	return "/" + contestName + cleaned, true
}
