package registry

import (
	"context"

	"github.com/jackc/pgx/v5"

	"certify/internal/models"
	"certify/internal/pkg/errors"
)

// maxErrorText bounds the error stored on a failed run.
const maxErrorText = 2000

// CreateRun inserts a QUEUED run for configPath.
func (r *Registry) CreateRun(ctx context.Context, configPath string) (*models.Run, error) {
	run := &models.Run{
		ID:         NewID("run"),
		ConfigPath: configPath,
		Status:     models.RunQueued,
	}

	err := r.db.QueryRow(ctx, `
		INSERT INTO runs (id, config_path, status)
		VALUES ($1,$2,$3)
		RETURNING created_at
	`, run.ID, run.ConfigPath, run.Status).Scan(&run.CreatedAt)
	if err != nil {
		return nil, dbErr(err, "registry.create_run", "insert run")
	}
	return run, nil
}

// GetRun loads a run by ID.
func (r *Registry) GetRun(ctx context.Context, id string) (*models.Run, error) {
	var (
		run       models.Run
		errorText *string
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, config_path, status, error_text, certificates, created_at, started_at, finished_at
		FROM runs
		WHERE id=$1
	`, id).Scan(
		&run.ID,
		&run.ConfigPath,
		&run.Status,
		&errorText,
		&run.Certificates,
		&run.CreatedAt,
		&run.StartedAt,
		&run.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFound("run", id).WithOp("registry.get_run")
		}
		return nil, dbErr(err, "registry.get_run", "select run")
	}
	if errorText != nil {
		run.ErrorText = *errorText
	}
	return &run, nil
}

func (r *Registry) MarkRunning(ctx context.Context, id string) error {
	return r.update(ctx, "registry.mark_running", id,
		`UPDATE runs SET status='RUNNING', started_at=NOW(), finished_at=NULL, error_text=NULL WHERE id=$1`,
		id,
	)
}

func (r *Registry) MarkDone(ctx context.Context, id string, certificates int) error {
	return r.update(ctx, "registry.mark_done", id,
		`UPDATE runs SET status='DONE', finished_at=NOW(), certificates=$2 WHERE id=$1`,
		id, certificates,
	)
}

// MarkFailed stores cause's text, truncated, on the run.
func (r *Registry) MarkFailed(ctx context.Context, id string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
		if len(msg) > maxErrorText {
			msg = msg[:maxErrorText]
		}
	}
	return r.update(ctx, "registry.mark_failed", id,
		`UPDATE runs SET status='FAILED', finished_at=NOW(), error_text=$2 WHERE id=$1`,
		id, msg,
	)
}

func (r *Registry) update(ctx context.Context, op, id, sql string, args ...any) error {
	cmd, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return dbErr(err, op, "update run")
	}
	if cmd.RowsAffected() == 0 {
		return errors.NotFound("run", id).WithOp(op)
	}
	return nil
}
