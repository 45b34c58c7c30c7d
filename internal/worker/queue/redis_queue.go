// Package queue is the Redis list that carries run IDs from certify-api to
// certify-worker.
package queue

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"certify/internal/pkg/errors"
)

// DefaultName is the list used when RUN_QUEUE_NAME is unset.
const DefaultName = "certify:runs"

// client is the subset of *redis.Client the queue uses.
type client interface {
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

var _ client = (*redis.Client)(nil)

// RedisQueue is a FIFO of run IDs: LPUSH on one end, BRPOP on the other.
type RedisQueue struct {
	rdb   client
	name  string
	block time.Duration
}

// NewRedisQueue returns a queue over the list name. Pop blocks for at most
// block before reporting an empty queue; zero means 5s.
func NewRedisQueue(rdb client, name string, block time.Duration) *RedisQueue {
	if name == "" {
		name = DefaultName
	}
	if block <= 0 {
		block = 5 * time.Second
	}
	return &RedisQueue{rdb: rdb, name: name, block: block}
}

// Name is the Redis key of the list.
func (q *RedisQueue) Name() string { return q.name }

// Push appends a run ID.
func (q *RedisQueue) Push(ctx context.Context, runID string) error {
	if runID == "" {
		return errors.Validation("empty run id").WithOp("queue.push")
	}
	if err := q.rdb.LPush(ctx, q.name, runID).Err(); err != nil {
		return errors.WrapWithCode(err, errors.CodeUnavailable, "queue.push", "lpush "+q.name)
	}
	return nil
}

// Pop waits for the next run ID. An empty string with a nil error means
// nothing arrived within the block time.
func (q *RedisQueue) Pop(ctx context.Context) (string, error) {
	res, err := q.rdb.BRPop(ctx, q.block, q.name).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", errors.WrapWithCode(err, errors.CodeUnavailable, "queue.pop", "brpop "+q.name)
	}
	if len(res) < 2 {
		return "", nil
	}
	return res[1], nil
}

// Ping checks the Redis connection.
func (q *RedisQueue) Ping(ctx context.Context) error {
	if err := q.rdb.Ping(ctx).Err(); err != nil {
		return errors.WrapWithCode(err, errors.CodeUnavailable, "queue.ping", "redis ping")
	}
	return nil
}
