// Package worker drains the run queue, executing one batch at a time.
package worker

import (
	"context"
	"time"

	"certify/internal/models"
	"certify/internal/pkg/errors"
	"certify/internal/pkg/logger"
)

type Worker struct {
	queue      Queue
	runs       Runs
	executor   Executor
	log        *logger.Logger
	retryDelay time.Duration
}

func New(d Deps) *Worker {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	delay := d.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}
	return &Worker{
		queue:      d.Queue,
		runs:       d.Runs,
		executor:   d.Executor,
		log:        log.WithComponent("worker"),
		retryDelay: delay,
	}
}

// Run pops run IDs until ctx is canceled. Failed runs are recorded and do
// not stop the loop.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Info("worker context canceled, stopping")
			return ctx.Err()
		default:
		}

		runID, err := w.queue.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				w.log.Info("worker stopping due to context cancellation")
				return ctx.Err()
			}

			w.log.Warn("queue pop error, retrying", "error", err.Error())
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.retryDelay):
			}
			continue
		}

		if runID == "" {
			continue
		}

		// Process logs and records every failure; the next run still goes.
		if err := w.Process(ctx, runID); err != nil {
			continue
		}
	}
}

// Process executes one queued run and records its outcome. Runs that are
// no longer QUEUED are skipped.
func (w *Worker) Process(ctx context.Context, runID string) error {
	ctx = logger.ContextWithRunID(ctx, runID)
	log := w.log.FromContext(ctx)

	run, err := w.runs.GetRun(ctx, runID)
	if err != nil {
		log.Error("load run", "error", err.Error())
		return err
	}
	if run.Status != models.RunQueued {
		log.Warn("run is not queued, skipping", "status", run.Status)
		return nil
	}

	if err := w.runs.MarkRunning(ctx, runID); err != nil {
		log.Error("mark run running", "error", err.Error())
		return err
	}

	log.Info("processing run", "config", run.ConfigPath)
	start := time.Now()

	summary, runErr := w.executor.Execute(ctx, runID, run.ConfigPath)

	// the outcome is recorded even when shutdown canceled the run
	recordCtx := context.WithoutCancel(ctx)
	if runErr != nil {
		log.Error("run failed",
			"error", runErr.Error(),
			"code", string(errors.GetCode(runErr)),
			"certificates", summary.Certificates,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		if err := w.runs.MarkFailed(recordCtx, runID, runErr); err != nil {
			log.Error("mark run failed", "error", err.Error())
		}
		return runErr
	}

	if err := w.runs.MarkDone(recordCtx, runID, summary.Certificates); err != nil {
		log.Error("mark run done", "error", err.Error())
		return err
	}

	log.Info("run completed",
		"rows", summary.Rows,
		"certificates", summary.Certificates,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
