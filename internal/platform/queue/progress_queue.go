package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ProgressQueue carries ids of accepted submissions whose progress update
// must be retried. It is a plain Redis list: LPUSH in, BRPOP out.
type ProgressQueue struct {
	rdb  *redis.Client
	name string
}

func NewProgressQueue(rdb *redis.Client, name string) *ProgressQueue {
	return &ProgressQueue{rdb: rdb, name: name}
}

func (q *ProgressQueue) Enqueue(ctx context.Context, submissionID string) error {
	if err := q.rdb.LPush(ctx, q.name, submissionID).Err(); err != nil {
		return fmt.Errorf("push submission %s to %s: %w", submissionID, q.name, err)
	}
	return nil
}

// Dequeue blocks up to timeout. It returns "" with a nil error when nothing arrived.
func (q *ProgressQueue) Dequeue(ctx context.Context, timeout time.Duration) (string, error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	// res is [queueName, value]
	if len(res) < 2 {
		return "", nil
	}
	return res[1], nil
}
