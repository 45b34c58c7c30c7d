package handlers

import (
	"context"
	"net/http"
	"time"

	"certify/internal/httpkit"
)

// Health reports liveness. With ?deep=true it also pings Postgres, Redis
// and the storage provider; a failing dependency marks the service
// "degraded" without changing the status code.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	health := map[string]any{
		"status":  "ok",
		"service": "certify-api",
	}

	if r.URL.Query().Get("deep") == "true" {
		checks := map[string]map[string]any{
			"postgres": check(ctx, h.runs),
			"redis":    check(ctx, h.queue),
		}
		if h.sp != nil {
			st := check(ctx, h.sp)
			st["provider"] = h.sp.Provider()
			checks["storage"] = st
		}
		health["checks"] = checks

		for _, c := range checks {
			if c["status"] != "ok" {
				health["status"] = "degraded"
				h.log.FromContext(ctx).Warn("health check degraded", "checks", checks)
				break
			}
		}
	}

	httpkit.WriteJSON(w, http.StatusOK, health)
}

type pinger interface {
	Ping(ctx context.Context) error
}

func check(ctx context.Context, p pinger) map[string]any {
	start := time.Now()
	result := map[string]any{"status": "ok"}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := p.Ping(checkCtx); err != nil {
		result["status"] = "error"
		result["error"] = err.Error()
	}

	result["latency_ms"] = time.Since(start).Milliseconds()
	return result
}
