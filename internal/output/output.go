// Package output persists rendered certificates through a storage provider.
package output

import (
	"bytes"
	"context"
	"image"
	"os"

	"github.com/disintegration/imaging"

	"certify/internal/certificate"
	"certify/internal/pkg/errors"
	"certify/internal/ports"
)

// PrepareDir creates the run's output directory. A directory (or file) that
// already exists at dir fails the run before anything is rendered, so a
// previous run's certificates are never overwritten.
func PrepareDir(dir string) error {
	if dir == "" {
		return errors.ValidationField("settings.workdir", "output directory not configured").WithOp("output.prepare")
	}

	if _, err := os.Stat(dir); err == nil {
		return errors.FailedPrecondition("output directory "+dir+" exists, remove it before continuing").
			WithOp("output.prepare").
			WithField("dir", dir)
	} else if !os.IsNotExist(err) {
		return errors.Wrapf(err, "output.prepare", "stat %s", dir)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "output.prepare", "create %s", dir)
	}
	return nil
}

// Written describes one persisted certificate.
type Written struct {
	Filename  string
	ObjectKey string
	Location  string
	Size      int64
}

// Writer encodes certificates as PNG and stores them under their
// deterministic filename.
type Writer struct {
	store ports.StorageProvider
}

func NewWriter(store ports.StorageProvider) *Writer {
	return &Writer{store: store}
}

// Provider names the backing storage.
func (w *Writer) Provider() string { return w.store.Provider() }

// Write stores img for job. An existing object with the same filename is
// replaced (localfs rewrites the file, gdrive updates the file's content).
func (w *Writer) Write(ctx context.Context, job certificate.Job, img image.Image) (Written, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return Written{}, errors.Wrapf(err, "output.write", "encode %s", job.Filename())
	}

	name := job.Filename()
	size := int64(buf.Len())
	out, err := w.store.PutObject(ctx, ports.PutObjectInput{
		ObjectKey:   name,
		ContentType: "image/png",
		Reader:      &buf,
		Size:        size,
	})
	if err != nil {
		return Written{}, errors.Wrapf(err, "output.write", "store %s", name)
	}

	return Written{Filename: name, ObjectKey: out.ObjectKey, Location: out.Location, Size: size}, nil
}
