package batch

import (
	"context"
	"image"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/google/go-cmp/cmp"

	"certify/internal/certificate"
	"certify/internal/models"
	"certify/internal/output"
	"certify/internal/pkg/errors"
	"certify/internal/pkg/logger"
)

type fakeComposer struct {
	jobs   []certificate.Job
	failOn string
}

func (f *fakeComposer) Compose(job certificate.Job) (image.Image, error) {
	f.jobs = append(f.jobs, job)
	if job.Participant.Name == f.failOn {
		return nil, errors.NotFound("font", "Missing.ttf")
	}
	return imaging.New(4, 4, image.White), nil
}

type fakeWriter struct {
	files []string
}

func (f *fakeWriter) Write(ctx context.Context, job certificate.Job, img image.Image) (output.Written, error) {
	f.files = append(f.files, job.Filename())
	return output.Written{Filename: job.Filename(), ObjectKey: "obj/" + job.Filename(), Location: "/out", Size: 1}, nil
}

func (f *fakeWriter) Provider() string { return "fake" }

type fakeRecorder struct {
	certs []models.IssuedCertificate
}

func (f *fakeRecorder) RecordCertificate(ctx context.Context, c *models.IssuedCertificate) error {
	f.certs = append(f.certs, *c)
	return nil
}

var sample = []certificate.Participant{
	{Name: "Ana Lopez", Affiliation: "Univ X", PosterTitle: "Graph Theory"},
	{Name: "Bo Kim", Affiliation: "Univ Y", PosterTitle: ""},
	{Name: "Cy Diaz", Affiliation: "Univ Z", PosterTitle: "0", TalkTitle: "Keynote", Role: "Chair"},
}

func TestRunVariants(t *testing.T) {
	comp := &fakeComposer{}
	w := &fakeWriter{}
	p := New(Deps{Composer: comp, Writer: w, Log: logger.Discard()})

	sum, err := p.Run(context.Background(), "", "basename", sample)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{
		"basename_Ana_Lopez_attendant.png",
		"basename_Ana_Lopez_poster.png",
		"basename_Bo_Kim_attendant.png",
		"basename_Cy_Diaz_attendant.png",
	}
	if diff := cmp.Diff(want, w.files); diff != "" {
		t.Errorf("files (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, sum.Files); diff != "" {
		t.Errorf("summary files (-want +got):\n%s", diff)
	}
	if sum.Rows != 3 || sum.Certificates != 4 {
		t.Errorf("unexpected summary %+v", sum)
	}
	if comp.jobs[1].Participant.PosterTitle != "Graph Theory" {
		t.Errorf("poster job should carry the poster title")
	}
}

func TestRunStopsAtFirstError(t *testing.T) {
	comp := &fakeComposer{failOn: "Bo Kim"}
	w := &fakeWriter{}
	p := New(Deps{Composer: comp, Writer: w, Log: logger.Discard()})

	sum, err := p.Run(context.Background(), "", "b", sample)
	if !errors.IsNotFound(err) {
		t.Fatalf("expected the composer's not found error, got %v", err)
	}
	if len(w.files) != 2 || sum.Certificates != 2 {
		t.Errorf("files before the failure should be kept and counted: %v, %+v", w.files, sum)
	}
	for _, j := range comp.jobs {
		if j.Participant.Name == "Cy Diaz" {
			t.Error("rows after the failure must not be processed")
		}
	}
}

func TestRunRecordsCertificates(t *testing.T) {
	rec := &fakeRecorder{}
	p := New(Deps{Composer: &fakeComposer{}, Writer: &fakeWriter{}, Recorder: rec, Log: logger.Discard()})

	if _, err := p.Run(context.Background(), "run_7", "event", sample[:1]); err != nil {
		t.Fatal(err)
	}

	if len(rec.certs) != 2 {
		t.Fatalf("expected 2 recorded certificates, got %d", len(rec.certs))
	}
	got := rec.certs[1]
	want := models.IssuedCertificate{
		ID:              certificate.ID("event", "Ana Lopez", certificate.Poster),
		RunID:           "run_7",
		Basename:        "event",
		ParticipantName: "Ana Lopez",
		Affiliation:     "Univ X",
		Variant:         "poster",
		ObjectKey:       "obj/event_Ana_Lopez_poster.png",
		Storage:         "fake",
		Location:        "/out",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("recorded certificate (-want +got):\n%s", diff)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := &fakeWriter{}
	p := New(Deps{Composer: &fakeComposer{}, Writer: w, Log: logger.Discard()})
	if _, err := p.Run(ctx, "", "b", sample); err == nil {
		t.Fatal("expected an error for a cancelled context")
	}
	if len(w.files) != 0 {
		t.Errorf("nothing should be written, got %v", w.files)
	}
}
