package notifications

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSink queues ad-hoc notifications in a Redis list per username, so
// several gateway replicas share one sink. Losing an item on a Redis hiccup
// is acceptable: delivery is best-effort by contract.
type RedisSink struct {
	client *redis.Client
}

func NewRedisSink(client *redis.Client) *RedisSink {
	return &RedisSink{client: client}
}

func sinkKey(username string) string {
	return "notify:" + username
}

func (s *RedisSink) Push(ctx context.Context, username string, at time.Time, subject, text, level string) {
	data, err := json.Marshal(Item{Timestamp: at, Subject: subject, Text: text, Level: level})
	if err != nil {
		log.Printf("[notifications] marshal error: %v", err)
		return
	}
	if err := s.client.RPush(ctx, sinkKey(username), data).Err(); err != nil {
		log.Printf("[notifications] push error for %s: %v", username, err)
	}
}

// Drain reads and deletes the whole list in one MULTI/EXEC so concurrent
// drains for the same username cannot both deliver an item.
func (s *RedisSink) Drain(ctx context.Context, username string) []Item {
	var lrange *redis.StringSliceCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		lrange = pipe.LRange(ctx, sinkKey(username), 0, -1)
		pipe.Del(ctx, sinkKey(username))
		return nil
	})
	if err != nil {
		log.Printf("[notifications] drain error for %s: %v", username, err)
		return nil
	}

	var items []Item
	for _, raw := range lrange.Val() {
		var item Item
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			log.Printf("[notifications] unmarshal error: %v", err)
			continue
		}
		items = append(items, item)
	}
	return items
}
