package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/contesthub/gateway/internal/contest"
)

// Event is one entry of the merged feed.
type Event struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	Subject   string `json:"subject"`
	Text      string `json:"text"`
	Level     string `json:"level,omitempty"`
}

// EventSource provides the three durable feeds, each filtered to an open
// timestamp interval.
type EventSource interface {
	AnnouncementsBetween(contestID int64, after, before time.Time) ([]contest.Announcement, error)
	MessagesBetween(participationID int64, after, before time.Time) ([]contest.Message, error)
	QuestionRepliesBetween(participationID int64, after, before time.Time) ([]contest.Question, error)
}

type Aggregator struct {
	Source EventSource
	Sink   Sink
}

// Fetch merges the durable sources for one participation into a single
// feed and drains the ad-hoc sink.
//
// Durable events are emitted grouped by type, each group in timestamp
// order; clients sorting on timestamp see the same result either way, and
// retrying with the same lastSeen is safe. The unread counter is advanced
// by the durable count alone, before the drain, so ad-hoc items never
// inflate it. Drained items are gone: a retry will not see them again.
func (a *Aggregator) Fetch(ctx context.Context, c *contest.Contest, p *contest.Participation, username string, lastSeen, now time.Time, prevUnread int) ([]Event, int, error) {
	announcements, err := a.Source.AnnouncementsBetween(c.ID, lastSeen, now)
	if err != nil {
		return nil, 0, fmt.Errorf("announcements: %w", err)
	}
	messages, err := a.Source.MessagesBetween(p.ID, lastSeen, now)
	if err != nil {
		return nil, 0, fmt.Errorf("messages: %w", err)
	}
	questions, err := a.Source.QuestionRepliesBetween(p.ID, lastSeen, now)
	if err != nil {
		return nil, 0, fmt.Errorf("questions: %w", err)
	}

	events := make([]Event, 0, len(announcements)+len(messages)+len(questions))
	for _, ann := range announcements {
		events = append(events, Event{
			Type:      "announcement",
			Timestamp: ann.Timestamp.Unix(),
			Subject:   ann.Subject,
			Text:      ann.Text,
		})
	}
	for _, msg := range messages {
		events = append(events, Event{
			Type:      "message",
			Timestamp: msg.Timestamp.Unix(),
			Subject:   msg.Subject,
			Text:      msg.Text,
		})
	}
	for _, q := range questions {
		subject, text := normalizeReply(q)
		events = append(events, Event{
			Type:      "question",
			Timestamp: q.ReplyTimestamp.Unix(),
			Subject:   subject,
			Text:      text,
		})
	}

	// The counter only ever counts durable events, and it is settled
	// before the drain below.
	newUnread := prevUnread + len(events)

	for _, item := range a.Sink.Drain(ctx, username) {
		events = append(events, Event{
			Type:      "notification",
			Timestamp: item.Timestamp.Unix(),
			Subject:   item.Subject,
			Text:      item.Text,
			Level:     item.Level,
		})
	}

	return events, newUnread, nil
}

// normalizeReply collapses partial replies: whichever of subject/text is
// set becomes the subject, with an empty body.
func normalizeReply(q contest.Question) (subject, text string) {
	if q.ReplySubject == "" {
		return q.ReplyText, ""
	}
	return q.ReplySubject, q.ReplyText
}
