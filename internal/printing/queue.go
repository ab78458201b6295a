package printing

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
)

// Queue hands finished intake jobs to the downstream printing service.
// Delivery is best-effort; the job row is the source of truth either way.
type Queue interface {
	Enqueue(ctx context.Context, jobID string) error
}

const queueKey = "print_jobs"

// RedisQueue pushes job ids onto a shared Redis list the print workers pop.
type RedisQueue struct {
	client *redis.Client
}

func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client}
}

func (q *RedisQueue) Enqueue(ctx context.Context, jobID string) error {
	return q.client.LPush(ctx, queueKey, jobID).Err()
}

// LogQueue is the no-broker fallback: it only records the hand-off.
type LogQueue struct{}

func (LogQueue) Enqueue(ctx context.Context, jobID string) error {
	log.Printf("[printing] job %s ready for pickup", jobID)
	return nil
}
