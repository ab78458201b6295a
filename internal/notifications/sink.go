package notifications

import (
	"context"
	"sync"
	"time"
)

// Notification severity levels, mirrored in the JSON feed.
const (
	LevelError   = "error"
	LevelWarning = "warning"
	LevelSuccess = "success"
)

// Item is one ad-hoc notification: ephemeral, keyed by username, consumed
// exactly once on read.
type Item struct {
	Timestamp time.Time `json:"timestamp"`
	Subject   string    `json:"subject"`
	Text      string    `json:"text"`
	Level     string    `json:"level"`
}

// Sink queues ad-hoc notifications per username. Push is fire-and-forget;
// Drain atomically takes everything queued for one username, so two
// concurrent drains never both see the same item.
type Sink interface {
	Push(ctx context.Context, username string, at time.Time, subject, text, level string)
	Drain(ctx context.Context, username string) []Item
}

// MemorySink is the in-process sink used by single-node deploys and tests.
type MemorySink struct {
	mu    sync.Mutex
	items map[string][]Item
}

func NewMemorySink() *MemorySink {
	return &MemorySink{items: make(map[string][]Item)}
}

func (s *MemorySink) Push(ctx context.Context, username string, at time.Time, subject, text, level string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[username] = append(s.items[username], Item{
		Timestamp: at,
		Subject:   subject,
		Text:      text,
		Level:     level,
	})
}

func (s *MemorySink) Drain(ctx context.Context, username string) []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.items[username]
	delete(s.items, username)
	return items
}
