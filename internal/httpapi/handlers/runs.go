package handlers

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"certify/internal/httpkit"
	"certify/internal/pkg/errors"
)

type CreateRunRequest struct {
	// ConfigPath is the configuration file as seen by the worker.
	ConfigPath string `json:"config_path"`
}

// PostRun queues a batch over a configuration file.
func (h *Handler) PostRun(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var req CreateRunRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		return errors.WrapWithCode(err, errors.CodeValidation, "api.post_run", "invalid json body")
	}

	configPath := strings.TrimSpace(req.ConfigPath)
	if configPath == "" {
		return errors.ValidationField("config_path", "config_path is required")
	}
	if !filepath.IsAbs(configPath) {
		return errors.ValidationField("config_path", "config_path must be absolute")
	}

	run, err := h.runs.CreateRun(ctx, filepath.Clean(configPath))
	if err != nil {
		return err
	}

	if err := h.queue.Push(ctx, run.ID); err != nil {
		// a run nobody will pop must not stay QUEUED
		if mErr := h.runs.MarkFailed(context.WithoutCancel(ctx), run.ID, err); mErr != nil {
			h.log.FromContext(ctx).Error("mark unqueued run failed", "run_id", run.ID, "error", mErr.Error())
		}
		return err
	}

	h.log.FromContext(ctx).Info("run queued", "run_id", run.ID, "config", run.ConfigPath)
	httpkit.WriteJSON(w, http.StatusCreated, map[string]any{"run": run})
	return nil
}

// GetRun returns a run's status.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) error {
	run, err := h.runs.GetRun(r.Context(), chi.URLParam(r, "runId"))
	if err != nil {
		return err
	}
	httpkit.WriteJSON(w, http.StatusOK, map[string]any{"run": run})
	return nil
}
