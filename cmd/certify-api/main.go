package main

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"certify/internal/httpapi"
	"certify/internal/httpapi/handlers"
	"certify/internal/pkg/env"
	"certify/internal/pkg/logger"
	"certify/internal/pkg/shutdown"
	"certify/internal/ports"
	"certify/internal/registry"
	"certify/internal/storage"
	"certify/internal/worker/queue"
)

func main() {
	cfg := logger.DefaultConfig()
	cfg.Format = env.Get("LOG_FORMAT", "json")
	cfg.ServiceName = "certify-api"
	log := logger.New(cfg)

	httpPort := env.Get("HTTP_PORT", "8080")
	dbURL := mustEnv(log, "DATABASE_URL")
	redisAddr := mustEnv(log, "REDIS_ADDR")

	ctx := context.Background()
	shutdownMgr := shutdown.NewManager(log, 30*time.Second)

	log.Info("connecting to PostgreSQL")
	pool, err := registry.Connect(ctx, dbURL)
	if err != nil {
		log.LogFatal("failed to connect to PostgreSQL", err)
	}
	shutdownMgr.RegisterSimple("postgres", pool.Close)

	reg := registry.New(pool)
	if err := reg.EnsureSchema(ctx); err != nil {
		log.LogFatal("failed to apply registry schema", err)
	}

	log.Info("connecting to Redis")
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	shutdownMgr.Register("redis", func(ctx context.Context) error {
		return rdb.Close()
	})
	q := queue.NewRedisQueue(rdb, env.Get("RUN_QUEUE_NAME", queue.DefaultName), 0)
	if err := q.Ping(ctx); err != nil {
		log.LogFatal("failed to ping Redis", err)
	}

	// Local certificates are served from the directory recorded when they
	// were issued. CERTIFY_STORAGE=gdrive lets the API stream Drive files too.
	var sp ports.StorageProvider
	if env.Get("CERTIFY_STORAGE", "") == "gdrive" {
		sp, err = storage.NewProvider(ctx, "gdrive", "")
		if err != nil {
			log.LogFatal("failed to initialize storage provider", err)
		}
		log.Info("storage provider initialized", "provider", sp.Provider())
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Handlers: handlers.Deps{
			Runs:         reg,
			Certificates: reg,
			Queue:        q,
			Storage:      sp,
		},
		AllowedOrigins: env.List("CORS_ALLOWED_ORIGINS"),
		Log:            log,
	})

	server := &http.Server{
		Addr:         "0.0.0.0:" + httpPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	shutdownMgr.Register("http-server", func(ctx context.Context) error {
		return server.Shutdown(ctx)
	})

	go func() {
		log.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogFatal("HTTP server failed", err)
		}
	}()

	shutdownMgr.Wait()
}

func mustEnv(log *logger.Logger, key string) string {
	v, err := env.Require(key)
	if err != nil {
		log.LogFatal("missing required environment variable", err, "key", key)
	}
	return v
}
