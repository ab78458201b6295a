package notifications

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/contesthub/gateway/internal/middleware"
	"github.com/contesthub/gateway/internal/session"
)

type Handlers struct {
	Aggregator *Aggregator
	Signer     *session.Signer
}

// FetchHandler serves the merged notification feed. The unread counter
// rides in a signed per-contest cookie; a missing or forged cookie simply
// restarts the count at zero.
func (h *Handlers) FetchHandler(w http.ResponseWriter, r *http.Request) {
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

	lastSeen := time.Unix(0, 0)
	if raw := r.URL.Query().Get("last_notification"); raw != "" {
		seconds, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			http.Error(w, "Invalid last_notification", http.StatusBadRequest)
			return
		}
		lastSeen = time.Unix(int64(seconds), 0)
	}

	prevUnread := 0
	counterName := session.CounterCookieName(c.Name)
	if cookie, err := r.Cookie(counterName); err == nil {
		if count, err := h.Signer.DecodeCounter(c.Name, cookie.Value); err == nil {
			prevUnread = count
		}
	}

	now := time.Now()
	events, newUnread, err := h.Aggregator.Fetch(r.Context(), c, participation, user.Username, lastSeen, now, prevUnread)
	if err != nil {
		log.Printf("Notification fetch failed for participation %d: %v", participation.ID, err)
		http.Error(w, "Temporary failure, please retry", http.StatusInternalServerError)
		return
	}

	counter, err := h.Signer.IssueCounter(c.Name, newUnread)
	if err != nil {
		log.Printf("Counter cookie issue failed: %v", err)
		http.Error(w, "Temporary failure, please retry", http.StatusInternalServerError)
		return
	}
	session.SetCookie(w, counterName, counter)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(events); err != nil {
		log.Printf("Failed to encode notifications: %v", err)
	}
}
