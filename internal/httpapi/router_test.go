package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/color"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/go-cmp/cmp"

	"certify/internal/adapters/storage/localfs"
	"certify/internal/certificate"
	"certify/internal/httpapi/handlers"
	"certify/internal/httpkit"
	"certify/internal/models"
	"certify/internal/output"
	"certify/internal/pkg/errors"
	"certify/internal/pkg/logger"
)

type fakeRuns struct {
	runs    map[string]*models.Run
	next    int
	pingErr error
	failed  []string
}

func (f *fakeRuns) CreateRun(ctx context.Context, configPath string) (*models.Run, error) {
	f.next++
	run := &models.Run{
		ID:         fmt.Sprintf("run_%d", f.next),
		ConfigPath: configPath,
		Status:     models.RunQueued,
		CreatedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.runs[run.ID] = run
	return run, nil
}

func (f *fakeRuns) GetRun(ctx context.Context, id string) (*models.Run, error) {
	if r, ok := f.runs[id]; ok {
		return r, nil
	}
	return nil, errors.NotFound("run", id)
}

func (f *fakeRuns) MarkFailed(ctx context.Context, id string, cause error) error {
	f.failed = append(f.failed, id)
	f.runs[id].Status = models.RunFailed
	return nil
}

func (f *fakeRuns) Ping(ctx context.Context) error { return f.pingErr }

type fakeQueue struct {
	pushed  []string
	pushErr error
	pingErr error
}

func (q *fakeQueue) Push(ctx context.Context, runID string) error {
	if q.pushErr != nil {
		return q.pushErr
	}
	q.pushed = append(q.pushed, runID)
	return nil
}

func (q *fakeQueue) Ping(ctx context.Context) error { return q.pingErr }

type fakeCerts map[string]*models.IssuedCertificate

func (f fakeCerts) GetCertificate(ctx context.Context, id string) (*models.IssuedCertificate, error) {
	if c, ok := f[id]; ok {
		return c, nil
	}
	return nil, errors.NotFound("certificate", id)
}

type fixture struct {
	runs  *fakeRuns
	queue *fakeQueue
	certs fakeCerts
	srv   *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "gala_Ana_Lopez_attendant.png"), []byte("\x89PNG fake"), 0o644); err != nil {
		t.Fatal(err)
	}

	f := &fixture{
		runs:  &fakeRuns{runs: map[string]*models.Run{}},
		queue: &fakeQueue{},
	}
	f.certs = fakeCerts{
		"c-local": {ID: "c-local", ParticipantName: "Ana Lopez", Variant: "attendant", ObjectKey: "gala_Ana_Lopez_attendant.png", Storage: "localfs"},
		"c-drive": {ID: "c-drive", ParticipantName: "Bo Chen", Variant: "poster", ObjectKey: "1AbC", Storage: "gdrive"},
	}

	router := NewRouter(Deps{
		Handlers: handlers.Deps{
			Runs:         f.runs,
			Certificates: f.certs,
			Queue:        f.queue,
			Storage:      localfs.New(root),
		},
		AllowedOrigins: []string{"https://certs.example.org"},
		Log:            logger.Discard(),
	})
	f.srv = httptest.NewServer(router)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := f.srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatal(err)
	}
	return resp, buf.Bytes()
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var env httpkit.ErrorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("not an error envelope: %s", body)
	}
	return env.Error.Code
}

func TestPostRun(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, "POST", "/runs", `{"config_path":"/srv/gala/input.dat"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected request id header")
	}

	var got struct {
		Run models.Run `json:"run"`
	}
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	if got.Run.ID != "run_1" || got.Run.Status != models.RunQueued || got.Run.ConfigPath != "/srv/gala/input.dat" {
		t.Errorf("unexpected run %+v", got.Run)
	}
	if diff := cmp.Diff([]string{"run_1"}, f.queue.pushed); diff != "" {
		t.Errorf("queue mismatch (-want +got):\n%s", diff)
	}
}

func TestPostRunValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"config_path":`},
		{"unknown field", `{"config":"/a.dat"}`},
		{"missing path", `{}`},
		{"relative path", `{"config_path":"input.dat"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			resp, body := f.do(t, "POST", "/runs", tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
			if code := errorCode(t, body); code != "VALIDATION_ERROR" {
				t.Errorf("code = %s", code)
			}
			if len(f.queue.pushed) != 0 {
				t.Error("nothing should be queued")
			}
		})
	}
}

func TestPostRunQueueDown(t *testing.T) {
	f := newFixture(t)
	f.queue.pushErr = errors.Unavailable("redis")

	resp, body := f.do(t, "POST", "/runs", `{"config_path":"/srv/gala/input.dat"}`)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d: %s", resp.StatusCode, body)
	}
	if f.runs.runs["run_1"].Status != models.RunFailed {
		t.Errorf("unqueued run should be failed, got %s", f.runs.runs["run_1"].Status)
	}
}

func TestGetRun(t *testing.T) {
	f := newFixture(t)
	f.do(t, "POST", "/runs", `{"config_path":"/srv/gala/input.dat"}`)

	resp, _ := f.do(t, "GET", "/runs/run_1", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	resp, body := f.do(t, "GET", "/runs/run_404", "")
	if resp.StatusCode != http.StatusNotFound || errorCode(t, body) != "NOT_FOUND" {
		t.Errorf("unexpected response %d %s", resp.StatusCode, body)
	}
}

func TestGetCertificate(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, "GET", "/certificates/c-local", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var got struct {
		Certificate models.IssuedCertificate `json:"certificate"`
	}
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	if got.Certificate.ParticipantName != "Ana Lopez" || got.Certificate.Variant != "attendant" {
		t.Errorf("unexpected certificate %+v", got.Certificate)
	}

	resp, _ = f.do(t, "GET", "/certificates/missing", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestGetCertificateImage(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, "GET", "/certificates/c-local/image", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	if string(body) != "\x89PNG fake" {
		t.Errorf("unexpected body %q", body)
	}

	resp, body = f.do(t, "GET", "/certificates/c-drive/image", "")
	if resp.StatusCode != http.StatusPreconditionFailed || errorCode(t, body) != "FAILED_PRECONDITION" {
		t.Errorf("unexpected response %d %s", resp.StatusCode, body)
	}
}

func TestGetCertificateImageFromRunWorkdir(t *testing.T) {
	f := newFixture(t)

	workdir := t.TempDir()
	job := certificate.Job{
		Participant: certificate.Participant{Name: "Chen Wu", Affiliation: "Lab"},
		Variant:     certificate.Poster,
		Basename:    "summit",
	}
	w := output.NewWriter(localfs.New(workdir))
	written, err := w.Write(context.Background(), job, imaging.New(8, 4, color.NRGBA{B: 255, A: 255}))
	if err != nil {
		t.Fatal(err)
	}
	f.certs["c-run"] = &models.IssuedCertificate{
		ID:              "c-run",
		ParticipantName: "Chen Wu",
		Variant:         "poster",
		ObjectKey:       written.ObjectKey,
		Storage:         w.Provider(),
		Location:        written.Location,
	}

	want, err := os.ReadFile(filepath.Join(workdir, written.Filename))
	if err != nil {
		t.Fatal(err)
	}
	resp, body := f.do(t, "GET", "/certificates/c-run/image", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q", ct)
	}
	if !bytes.Equal(body, want) {
		t.Errorf("streamed %d bytes, want the %d written", len(body), len(want))
	}

	f.certs["c-gone"] = &models.IssuedCertificate{ID: "c-gone", ObjectKey: "missing.png", Storage: "localfs", Location: workdir}
	resp, _ = f.do(t, "GET", "/certificates/c-gone/image", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing file status = %d", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	type health struct {
		Status string                    `json:"status"`
		Checks map[string]map[string]any `json:"checks"`
	}
	read := func(path string) health {
		resp, body := f.do(t, "GET", path, "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		var h health
		if err := json.Unmarshal(body, &h); err != nil {
			t.Fatal(err)
		}
		return h
	}

	if h := read("/health"); h.Status != "ok" || h.Checks != nil {
		t.Errorf("shallow health = %+v", h)
	}

	h := read("/health?deep=true")
	if h.Status != "ok" || h.Checks["storage"]["provider"] != "localfs" {
		t.Errorf("deep health = %+v", h)
	}

	f.queue.pingErr = fmt.Errorf("connection refused")
	h = read("/health?deep=true")
	if h.Status != "degraded" || h.Checks["redis"]["status"] != "error" || h.Checks["postgres"]["status"] != "ok" {
		t.Errorf("degraded health = %+v", h)
	}
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t)

	req, _ := http.NewRequest("OPTIONS", f.srv.URL+"/runs", nil)
	req.Header.Set("Origin", "https://certs.example.org")
	resp, err := f.srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "https://certs.example.org" {
		t.Errorf("missing allow-origin")
	}
}
