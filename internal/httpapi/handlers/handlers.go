// Package handlers implements the certify-api endpoints.
package handlers

import (
	"context"

	"certify/internal/models"
	"certify/internal/pkg/logger"
	"certify/internal/ports"
)

// RunStore is the registry's view of runs.
type RunStore interface {
	CreateRun(ctx context.Context, configPath string) (*models.Run, error)
	GetRun(ctx context.Context, id string) (*models.Run, error)
	MarkFailed(ctx context.Context, id string, cause error) error
	Ping(ctx context.Context) error
}

// CertificateStore looks up issued certificates.
type CertificateStore interface {
	GetCertificate(ctx context.Context, id string) (*models.IssuedCertificate, error)
}

// RunQueue hands run IDs to the worker.
type RunQueue interface {
	Push(ctx context.Context, runID string) error
	Ping(ctx context.Context) error
}

type Deps struct {
	Runs         RunStore
	Certificates CertificateStore
	Queue        RunQueue
	// Storage serves images of non-local certificates (gdrive); may be nil.
	Storage ports.StorageProvider
	Log     *logger.Logger
}

type Handler struct {
	runs  RunStore
	certs CertificateStore
	queue RunQueue
	sp    ports.StorageProvider
	log   *logger.Logger
}

func New(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	return &Handler{
		runs:  d.Runs,
		certs: d.Certificates,
		queue: d.Queue,
		sp:    d.Storage,
		log:   log.WithComponent("api"),
	}
}
