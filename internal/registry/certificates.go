package registry

import (
	"context"

	"github.com/jackc/pgx/v5"

	"certify/internal/models"
	"certify/internal/pkg/errors"
)

// RecordCertificate upserts an issued certificate. Re-issuing the same
// participant and variant under the same basename keeps the ID and moves it
// to the latest run.
func (r *Registry) RecordCertificate(ctx context.Context, c *models.IssuedCertificate) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO certificates (id, run_id, basename, participant_name, affiliation, variant, object_key, storage, location)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO UPDATE SET
			run_id=EXCLUDED.run_id,
			affiliation=EXCLUDED.affiliation,
			object_key=EXCLUDED.object_key,
			storage=EXCLUDED.storage,
			location=EXCLUDED.location,
			issued_at=NOW()
		RETURNING issued_at
	`,
		c.ID,
		NullIfEmpty(c.RunID),
		c.Basename,
		c.ParticipantName,
		NullIfEmpty(c.Affiliation),
		c.Variant,
		c.ObjectKey,
		c.Storage,
		NullIfEmpty(c.Location),
	).Scan(&c.IssuedAt)
	if err != nil {
		return dbErr(err, "registry.record_certificate", "upsert certificate "+c.ID)
	}
	return nil
}

// GetCertificate loads an issued certificate by ID.
func (r *Registry) GetCertificate(ctx context.Context, id string) (*models.IssuedCertificate, error) {
	var (
		c                  models.IssuedCertificate
		runID, affiliation *string
		location           *string
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, run_id, basename, participant_name, affiliation, variant, object_key, storage, location, issued_at
		FROM certificates
		WHERE id=$1
	`, id).Scan(
		&c.ID,
		&runID,
		&c.Basename,
		&c.ParticipantName,
		&affiliation,
		&c.Variant,
		&c.ObjectKey,
		&c.Storage,
		&location,
		&c.IssuedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFound("certificate", id).WithOp("registry.get_certificate")
		}
		return nil, dbErr(err, "registry.get_certificate", "select certificate")
	}
	if runID != nil {
		c.RunID = *runID
	}
	if affiliation != nil {
		c.Affiliation = *affiliation
	}
	if location != nil {
		c.Location = *location
	}
	return &c, nil
}
