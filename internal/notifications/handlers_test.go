package notifications

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/contesthub/gateway/internal/contest"
	"github.com/contesthub/gateway/internal/middleware"
	"github.com/contesthub/gateway/internal/session"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

// feedFetcher backs the contest and auth middleware for handler tests.
type feedFetcher struct{}

func (feedFetcher) ContestByName(name string) (*contest.Contest, error) {
	if name == "demo" {
		return &contest.Contest{ID: 1, Name: "demo"}, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (feedFetcher) UserByUsername(username string) (*contest.User, error) {
	if username == "alice" {
		return &contest.User{ID: 2, Username: "alice", Password: "bcrypt:$2a$10$abc"}, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (feedFetcher) ParticipationFor(contestID, userID int64) (*contest.Participation, error) {
	return &contest.Participation{ID: 3, ContestID: contestID, UserID: userID}, nil
}

func newFeedServer(t *testing.T, agg *Aggregator, signer *session.Signer) http.Handler {
	t.Helper()
	h := &Handlers{Aggregator: agg, Signer: signer}
	r := chi.NewRouter()
	r.Route("/{contest}", func(r chi.Router) {
		r.Use(middleware.ContestMiddleware(feedFetcher{}))
		h.Register(r, middleware.AuthMiddleware(feedFetcher{}, signer))
	})
	return r
}

func loginCookie(t *testing.T, signer *session.Signer) *http.Cookie {
	t.Helper()
	value, err := signer.Issue("demo", session.Token{
		Username:        "alice",
		PasswordPayload: "bcrypt:$2a$10$abc",
		IssuedAt:        time.Now(),
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return &http.Cookie{Name: "demo_login", Value: value}
}

// TestFetchHandlerAccumulatesCounter verifies the signed unread-count
// cookie carries the running total across fetches and that the feed is
// returned as JSON.
func TestFetchHandlerAccumulatesCounter(t *testing.T) {
	signer := session.NewSigner("secret")
	src := fakeSource{announcements: []contest.Announcement{
		{Timestamp: time.Now().Add(-2 * time.Minute), Subject: "a1"},
		{Timestamp: time.Now().Add(-1 * time.Minute), Subject: "a2"},
	}}
	router := newFeedServer(t, &Aggregator{Source: src, Sink: NewMemorySink()}, signer)

	fetch := func(counter *http.Cookie) (*httptest.ResponseRecorder, []Event) {
		req := httptest.NewRequest(http.MethodGet, "/demo/notifications?last_notification=0", nil)
		req.AddCookie(loginCookie(t, signer))
		if counter != nil {
			req.AddCookie(counter)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		var events []Event
		if rec.Code == http.StatusOK {
			if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil {
				t.Fatalf("invalid JSON body: %s", rec.Body.String())
			}
		}
		return rec, events
	}

	rec, events := fetch(nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body: %s", rec.Code, rec.Body.String())
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}

	var counter *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "demo_unread_count" {
			counter = c
		}
	}
	if counter == nil {
		t.Fatal("expected demo_unread_count cookie")
	}
	if n, err := signer.DecodeCounter("demo", counter.Value); err != nil || n != 2 {
		t.Fatalf("counter = %d (%v), want 2", n, err)
	}

	rec, _ = fetch(counter)
	if rec.Code != http.StatusOK {
		t.Fatalf("second fetch: expected 200, got %d", rec.Code)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == "demo_unread_count" {
			if n, err := signer.DecodeCounter("demo", c.Value); err != nil || n != 4 {
				t.Errorf("counter after second fetch = %d (%v), want 4", n, err)
			}
		}
	}
}

// TestFetchHandlerRequiresSession verifies the feed is gated by the auth
// middleware.
func TestFetchHandlerRequiresSession(t *testing.T) {
	signer := session.NewSigner("secret")
	router := newFeedServer(t, &Aggregator{Source: fakeSource{}, Sink: NewMemorySink()}, signer)

	req := httptest.NewRequest(http.MethodGet, "/demo/notifications", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

// TestFetchHandlerBadLastNotification verifies a non-numeric
// last_notification argument is a 400.
func TestFetchHandlerBadLastNotification(t *testing.T) {
	signer := session.NewSigner("secret")
	router := newFeedServer(t, &Aggregator{Source: fakeSource{}, Sink: NewMemorySink()}, signer)

	req := httptest.NewRequest(http.MethodGet, "/demo/notifications?last_notification=abc", nil)
	req.AddCookie(loginCookie(t, signer))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
