package main

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"certify/internal/batch"
	"certify/internal/pkg/env"
	"certify/internal/pkg/logger"
	"certify/internal/pkg/shutdown"
	"certify/internal/registry"
	"certify/internal/worker"
	"certify/internal/worker/queue"
)

func main() {
	cfg := logger.DefaultConfig()
	cfg.Format = env.Get("LOG_FORMAT", "json")
	cfg.ServiceName = "certify-worker"
	log := logger.New(cfg)

	dbURL := mustEnv(log, "DATABASE_URL")
	redisAddr := mustEnv(log, "REDIS_ADDR")

	// a run in progress gets the whole timeout to record its outcome
	shutdownMgr := shutdown.NewManager(log, 60*time.Second)
	ctx := shutdownMgr.Context()

	pool, err := registry.Connect(ctx, dbURL)
	if err != nil {
		log.LogFatal("failed to connect to PostgreSQL", err)
	}
	reg := registry.New(pool)
	if err := reg.EnsureSchema(ctx); err != nil {
		log.LogFatal("failed to apply registry schema", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	q := queue.NewRedisQueue(rdb, env.Get("RUN_QUEUE_NAME", queue.DefaultName), 5*time.Second)
	if err := q.Ping(ctx); err != nil {
		log.LogFatal("failed to ping Redis", err)
	}

	w := worker.New(worker.Deps{
		Queue:    q,
		Runs:     reg,
		Executor: batch.NewRunner(reg, nil, log),
		Log:      log,
	})

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		log.Info("worker started", "queue", q.Name())
		if err := w.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("worker stopped", "error", err.Error())
		}
	}()

	// LIFO: wait for the loop before closing what it uses
	shutdownMgr.RegisterSimple("postgres", pool.Close)
	shutdownMgr.Register("redis", func(ctx context.Context) error {
		return rdb.Close()
	})
	shutdownMgr.Register("worker", func(ctx context.Context) error {
		select {
		case <-stopped:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	shutdownMgr.Wait()
}

func mustEnv(log *logger.Logger, key string) string {
	v, err := env.Require(key)
	if err != nil {
		log.LogFatal("missing required environment variable", err, "key", key)
	}
	return v
}
