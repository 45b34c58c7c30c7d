// Package httpapi wires the certify-api routes.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"certify/internal/httpapi/handlers"
	"certify/internal/httpkit"
	"certify/internal/pkg/logger"
	"certify/internal/pkg/middleware"
)

// Deps are the dependencies of the router.
type Deps struct {
	Handlers handlers.Deps
	// AllowedOrigins for CORS; empty falls back to local development hosts.
	AllowedOrigins []string
	Log            *logger.Logger
}

func NewRouter(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	if d.Handlers.Log == nil {
		d.Handlers.Log = log
	}

	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:8081", "http://localhost:5173"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(log))
	r.Use(middleware.Recovery(log))
	r.Use(httpkit.CORS(httpkit.CORSOptions{
		AllowedOrigins: origins,
		ExposedHeaders: []string{middleware.RequestIDHeader},
	}))

	h := handlers.New(d.Handlers)
	wrap := func(fn middleware.ErrorHandlerFunc) http.HandlerFunc {
		return middleware.WrapHandler(log, fn)
	}

	r.Get("/health", h.Health)

	r.Post("/runs", wrap(h.PostRun))
	r.Get("/runs/{runId}", wrap(h.GetRun))

	r.Get("/certificates/{certificateId}", wrap(h.GetCertificate))
	r.Get("/certificates/{certificateId}/image", wrap(h.GetCertificateImage))

	return r
}
