package localfs

import (
	"context"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"certify/internal/pkg/errors"
	"certify/internal/ports"
)

// LocalFS implements ports.StorageProvider over a directory. It is the
// run's output directory for CLI batches.
type LocalFS struct {
	root string
}

func New(root string) *LocalFS {
	return &LocalFS{root: root}
}

func (l *LocalFS) Provider() string { return "localfs" }

// Root is the directory objects are written under.
func (l *LocalFS) Root() string { return l.root }

func (l *LocalFS) path(objectKey string) (string, error) {
	if objectKey == "" {
		return "", errors.Validation("object key is required").WithOp("localfs.path")
	}
	clean := filepath.Clean(filepath.FromSlash(objectKey))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", errors.Validationf("object key %q escapes the storage root", objectKey).WithOp("localfs.path")
	}
	return filepath.Join(l.root, clean), nil
}

// PutObject writes the object, overwriting any object with the same key.
func (l *LocalFS) PutObject(ctx context.Context, in ports.PutObjectInput) (ports.PutObjectOutput, error) {
	dst, err := l.path(in.ObjectKey)
	if err != nil {
		return ports.PutObjectOutput{}, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return ports.PutObjectOutput{}, errors.Wrapf(err, "localfs.put", "create directory for %s", in.ObjectKey)
	}

	outF, err := os.Create(dst)
	if err != nil {
		return ports.PutObjectOutput{}, errors.Wrapf(err, "localfs.put", "create %s", in.ObjectKey)
	}
	defer outF.Close()

	n, err := io.Copy(outF, in.Reader)
	if err != nil {
		return ports.PutObjectOutput{}, errors.Wrapf(err, "localfs.put", "write %s", in.ObjectKey)
	}
	if err := outF.Sync(); err != nil {
		return ports.PutObjectOutput{}, errors.Wrapf(err, "localfs.put", "sync %s", in.ObjectKey)
	}

	loc, err := filepath.Abs(l.root)
	if err != nil {
		return ports.PutObjectOutput{}, errors.Wrapf(err, "localfs.put", "resolve root %s", l.root)
	}
	return ports.PutObjectOutput{ObjectKey: in.ObjectKey, Size: n, Location: loc}, nil
}

func (l *LocalFS) GetObject(ctx context.Context, objectKey string) (rc io.ReadCloser, contentType string, size int64, err error) {
	p, err := l.path(objectKey)
	if err != nil {
		return nil, "", 0, err
	}
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", 0, errors.NotFound("object", objectKey).WithOp("localfs.get")
		}
		return nil, "", 0, errors.Wrapf(err, "localfs.get", "open %s", objectKey)
	}

	st, statErr := f.Stat()
	if statErr == nil {
		size = st.Size()
	}

	// Prefer extension-based type. If empty, sniff first bytes.
	contentType = mime.TypeByExtension(filepath.Ext(p))
	if contentType == "" {
		buf := make([]byte, 512)
		n, _ := f.Read(buf)
		_, _ = f.Seek(0, io.SeekStart)
		contentType = http.DetectContentType(buf[:n])
	}

	return f, contentType, size, nil
}

// Ping checks that the root exists and is a directory.
func (l *LocalFS) Ping(ctx context.Context) error {
	st, err := os.Stat(l.root)
	if err != nil {
		return errors.Wrapf(err, "localfs.ping", "stat %s", l.root)
	}
	if !st.IsDir() {
		return errors.FailedPrecondition(l.root + " is not a directory").WithOp("localfs.ping")
	}
	return nil
}
