package middleware

import (
	"context"
	"net"
	"net/http"

	"github.com/contesthub/gateway/internal/contest"
	"github.com/contesthub/gateway/internal/session"
	"github.com/go-chi/chi/v5"
)

type contextKey string

const (
	contextContestKey       contextKey = "contest"
	contextUserKey          contextKey = "user"
	contextParticipationKey contextKey = "participation"
)

// ContestFetcher resolves the {contest} URL segment to a contest row.
type ContestFetcher interface {
	ContestByName(name string) (*contest.Contest, error)
}

// CredentialFetcher loads the records a session token is checked against.
type CredentialFetcher interface {
	UserByUsername(username string) (*contest.User, error)
	ParticipationFor(contestID, userID int64) (*contest.Participation, error)
}

func ContestFromContext(ctx context.Context) (*contest.Contest, bool) {
	c, ok := ctx.Value(contextContestKey).(*contest.Contest)
	return c, ok
}

func UserFromContext(ctx context.Context) (*contest.User, bool) {
	u, ok := ctx.Value(contextUserKey).(*contest.User)
	return u, ok
}

func ParticipationFromContext(ctx context.Context) (*contest.Participation, bool) {
	p, ok := ctx.Value(contextParticipationKey).(*contest.Participation)
	return p, ok
}

// ContestMiddleware resolves the contest namespace every gateway route
// lives under. Unknown contests are a plain 404.
func ContestMiddleware(fetcher ContestFetcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name := chi.URLParam(r, "contest")
			c, err := fetcher.ContestByName(name)
			if err != nil {
				http.Error(w, "Contest not found", http.StatusNotFound)
				return
			}

			ctx := context.WithValue(r.Context(), contextContestKey, c)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AuthMiddleware validates the signed login cookie. There is no session
// table: the token's embedded password payload is compared against the live
// effective record, so a password change invalidates outstanding tokens.
func AuthMiddleware(fetcher CredentialFetcher, signer *session.Signer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, ok := ContestFromContext(r.Context())
			if !ok {
				http.Error(w, "Contest not resolved", http.StatusInternalServerError)
				return
			}

			cookie, err := r.Cookie(session.CookieName(c.Name))
			if err != nil {
				http.Error(w, "Couldn't find cookie", http.StatusUnauthorized)
				return
			}

			tok, err := signer.Decode(c.Name, cookie.Value)
			if err != nil {
				http.Error(w, "Invalid session", http.StatusUnauthorized)
				return
			}

			user, err := fetcher.UserByUsername(tok.Username)
			if err != nil {
				http.Error(w, "Invalid session", http.StatusUnauthorized)
				return
			}

			participation, err := fetcher.ParticipationFor(c.ID, user.ID)
			if err != nil {
				http.Error(w, "Invalid session", http.StatusUnauthorized)
				return
			}

			// The stored record may have changed since the token was
			// issued; a stale snapshot means the token is dead.
			if tok.PasswordPayload != contest.EffectivePassword(user, participation) {
				http.Error(w, "Session expired", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), contextUserKey, user)
			ctx = context.WithValue(ctx, contextParticipationKey, participation)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RemoteIP strips the port from RemoteAddr; proxies are expected to be
// handled by the host in front of us.
func RemoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

var allowed = map[string]struct{}{
	"http://localhost:5173": {},
	"http://localhost:8080": {},
}

func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Echo the origin back only if it's on our allow-list
		if _, ok := allowed[origin]; ok {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin") // important for caches
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods",
				"GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers",
				"Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
