// Package registry records batch runs and issued certificates in
// PostgreSQL, so a certificate ID printed in a QR code can be verified later.
package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"certify/internal/httpkit"
	"certify/internal/pkg/errors"
)

// DB is the subset of *pgxpool.Pool the registry uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

var _ DB = (*pgxpool.Pool)(nil)

// Registry stores runs and issued certificates.
type Registry struct {
	db DB
}

func New(db DB) *Registry {
	return &Registry{db: db}
}

// Connect opens a pool on dsn and verifies it.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeValidation, "registry.connect", "parse database url")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "registry.connect", "ping database")
	}
	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	config_path  TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'QUEUED',
	error_text   TEXT,
	certificates INTEGER NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	started_at   TIMESTAMPTZ,
	finished_at  TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS certificates (
	id               TEXT PRIMARY KEY,
	run_id           TEXT REFERENCES runs(id) ON DELETE SET NULL,
	basename         TEXT NOT NULL,
	participant_name TEXT NOT NULL,
	affiliation      TEXT,
	variant          TEXT NOT NULL,
	object_key       TEXT NOT NULL,
	storage          TEXT NOT NULL,
	location         TEXT,
	issued_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

ALTER TABLE certificates ADD COLUMN IF NOT EXISTS location TEXT;

CREATE INDEX IF NOT EXISTS certificates_run_id_idx ON certificates (run_id);
`

// EnsureSchema creates the tables when they do not exist.
func (r *Registry) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return errors.Wrap(err, "registry.schema", "create tables")
	}
	return nil
}

// Ping checks the database connection.
func (r *Registry) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return errors.WrapWithCode(err, errors.CodeUnavailable, "registry.ping", "database")
	}
	return nil
}

// NewID returns a time-ordered ID with the given prefix.
func NewID(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

// NullIfEmpty maps "" to SQL NULL.
func NullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// dbErr maps driver errors onto coded errors.
func dbErr(err error, op, msg string) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return errors.WrapWithCode(err, errors.CodeNotFound, op, msg)
	case httpkit.IsUniqueViolation(err):
		return errors.WrapWithCode(err, errors.CodeAlreadyExists, op, msg)
	case httpkit.IsUndefinedTable(err):
		return errors.WrapWithCode(err, errors.CodeFailedPrecond, op, msg+": registry schema missing")
	default:
		return errors.Wrap(err, op, msg)
	}
}
