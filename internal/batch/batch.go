// Package batch runs a certificate batch: every participant row in order,
// one attendant certificate each and a poster certificate when the row has a
// poster title.
package batch

import (
	"context"
	"image"

	"certify/internal/certificate"
	"certify/internal/models"
	"certify/internal/output"
	"certify/internal/pkg/errors"
	"certify/internal/pkg/logger"
)

// Composer renders one job.
type Composer interface {
	Compose(job certificate.Job) (image.Image, error)
}

// Writer persists a rendered job.
type Writer interface {
	Write(ctx context.Context, job certificate.Job, img image.Image) (output.Written, error)
	Provider() string
}

// Recorder stores issued certificates. Optional.
type Recorder interface {
	RecordCertificate(ctx context.Context, c *models.IssuedCertificate) error
}

// Deps wires a Processor.
type Deps struct {
	Composer Composer
	Writer   Writer
	Recorder Recorder
	Log      *logger.Logger
}

// Processor renders and writes the certificates of a participant table.
type Processor struct {
	composer Composer
	writer   Writer
	recorder Recorder
	log      *logger.Logger
}

func New(d Deps) *Processor {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	return &Processor{
		composer: d.Composer,
		writer:   d.Writer,
		recorder: d.Recorder,
		log:      log.WithComponent("batch"),
	}
}

// Summary counts what a run produced.
type Summary struct {
	Rows         int
	Certificates int
	Files        []string
}

// Run processes participants in order. The first error stops the batch;
// files already written stay where they are. runID is attached to registry
// entries and may be empty.
func (p *Processor) Run(ctx context.Context, runID, basename string, participants []certificate.Participant) (Summary, error) {
	log := p.log.FromContext(ctx)
	var sum Summary

	for i, participant := range participants {
		if err := ctx.Err(); err != nil {
			return sum, errors.Wrap(err, "batch.run", "cancelled")
		}

		log.Info("processing certificate", "row", i+1, "participant", participant.Name)
		sum.Rows++

		for _, v := range participant.Variants() {
			job := certificate.Job{Participant: participant, Variant: v, Basename: basename}

			written, err := p.process(ctx, runID, job)
			if err != nil {
				log.WithCertificate(participant.Name, v.String()).Error("certificate failed", "row", i+1, "error", err.Error())
				return sum, errors.Wrapf(err, "batch.run", "row %d", i+1)
			}
			sum.Certificates++
			sum.Files = append(sum.Files, written.Filename)
		}
	}

	log.Info("batch complete", "rows", sum.Rows, "certificates", sum.Certificates)
	return sum, nil
}

func (p *Processor) process(ctx context.Context, runID string, job certificate.Job) (output.Written, error) {
	log := p.log.FromContext(ctx).WithCertificate(job.Participant.Name, job.Variant.String())

	img, err := p.composer.Compose(job)
	if err != nil {
		return output.Written{}, err
	}

	written, err := p.writer.Write(ctx, job, img)
	if err != nil {
		return output.Written{}, err
	}
	log.Debug("certificate written", "file", written.Filename, "bytes", written.Size)

	if p.recorder != nil {
		err := p.recorder.RecordCertificate(ctx, &models.IssuedCertificate{
			ID:              job.ID(),
			RunID:           runID,
			Basename:        job.Basename,
			ParticipantName: job.Participant.Name,
			Affiliation:     job.Participant.Affiliation,
			Variant:         job.Variant.String(),
			ObjectKey:       written.ObjectKey,
			Storage:         p.writer.Provider(),
			Location:        written.Location,
		})
		if err != nil {
			return output.Written{}, err
		}
	}
	return written, nil
}
