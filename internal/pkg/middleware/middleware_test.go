package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"certify/internal/httpkit"
	"certify/internal/pkg/errors"
	"certify/internal/pkg/logger"
)

func jsonLogger(buf *bytes.Buffer, level string) *logger.Logger {
	return logger.New(logger.Config{Level: level, Format: "json", Output: buf})
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value(logger.RequestIDKey).(string)
	}))

	t.Run("generates new request ID", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

		reqID := rec.Header().Get(RequestIDHeader)
		if _, err := uuid.Parse(reqID); err != nil {
			t.Errorf("expected a UUID request ID, got %q", reqID)
		}
		if seen != reqID {
			t.Errorf("context request ID %q differs from header %q", seen, reqID)
		}
	})

	t.Run("preserves existing request ID", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/health", nil)
		req.Header.Set(RequestIDHeader, "existing-id-123")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get(RequestIDHeader); got != "existing-id-123" {
			t.Errorf("expected preserved request ID, got %s", got)
		}
	})
}

func TestLoggingLevels(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  string
	}{
		{"2xx logs info", 200, "INFO"},
		{"3xx logs info", 302, "INFO"},
		{"4xx logs warn", 404, "WARN"},
		{"5xx logs error", 500, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := Logging(jsonLogger(&buf, "debug"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/runs/run_1", nil))

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("log is not JSON: %v (%s)", err, buf.String())
			}
			if entry["level"] != tt.level || entry["path"] != "/runs/run_1" || entry["status"] != float64(tt.status) {
				t.Errorf("unexpected log entry %v", entry)
			}
			if _, ok := entry["duration_ms"]; !ok {
				t.Error("expected duration_ms")
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	handler := Recovery(jsonLogger(&buf, "info"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/test", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "INTERNAL_ERROR") {
		t.Errorf("expected INTERNAL_ERROR in body, got: %s", rec.Body.String())
	}
	if !strings.Contains(buf.String(), "test panic") {
		t.Errorf("expected panic message in log, got: %s", buf.String())
	}
}

func TestResponseWriter(t *testing.T) {
	rw := wrapResponseWriter(httptest.NewRecorder())
	rw.Write([]byte("hello world"))
	rw.WriteHeader(http.StatusCreated)

	if rw.status != http.StatusOK {
		t.Errorf("implicit 200 should stick, got %d", rw.status)
	}
	if rw.size != 11 {
		t.Errorf("expected size 11, got %d", rw.size)
	}
}

func TestWrapHandler(t *testing.T) {
	var buf bytes.Buffer
	log := jsonLogger(&buf, "info")

	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"not found", errors.NotFound("certificate", "abc"), 404, "NOT_FOUND", "certificate not found: abc"},
		{"validation", errors.ValidationField("config_path", "config_path is required"), 400, "VALIDATION_ERROR", "config_path is required"},
		{"internal hides detail", errors.Wrap(errors.Internal("pool exhausted"), "registry.get_run", "select run"), 500, "INTERNAL_ERROR", "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := WrapHandler(log, func(w http.ResponseWriter, r *http.Request) error {
				return tt.err
			})

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest("GET", "/x", nil))

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			var env httpkit.ErrorEnvelope
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatalf("body is not the error envelope: %v", err)
			}
			if env.Error.Code != tt.code || env.Error.Message != tt.message {
				t.Errorf("unexpected envelope %+v", env.Error)
			}
		})
	}

	t.Run("success passes through", func(t *testing.T) {
		handler := WrapHandler(log, func(w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/x", nil))
		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d", rec.Code)
		}
	})
}
