package worker

import (
	"context"
	"time"

	"certify/internal/batch"
	"certify/internal/models"
	"certify/internal/pkg/logger"
)

// Queue hands out run IDs. An empty ID with a nil error means the queue was
// empty for the block time.
type Queue interface {
	Pop(ctx context.Context) (string, error)
}

// Runs tracks run status in the registry.
type Runs interface {
	GetRun(ctx context.Context, id string) (*models.Run, error)
	MarkRunning(ctx context.Context, id string) error
	MarkDone(ctx context.Context, id string, certificates int) error
	MarkFailed(ctx context.Context, id string, cause error) error
}

// Executor runs one batch from a configuration file.
type Executor interface {
	Execute(ctx context.Context, runID, configPath string) (batch.Summary, error)
}

var _ Executor = (*batch.Runner)(nil)

type Deps struct {
	Queue    Queue
	Runs     Runs
	Executor Executor
	Log      *logger.Logger
	// RetryDelay is the pause after a failed Pop; zero means one second.
	RetryDelay time.Duration
}
