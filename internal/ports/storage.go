package ports

import (
	"context"
	"io"
)

type PutObjectInput struct {
	ObjectKey   string
	ContentType string
	Reader      io.Reader
	Size        int64
}

type PutObjectOutput struct {
	// localfs: the object key itself.
	// gdrive: the Drive file ID, which GetObject expects later.
	ObjectKey string
	Size      int64
	// Location resolves ObjectKey later without the writer's configuration.
	// localfs: the absolute root directory. gdrive: empty.
	Location string
}

// StorageProvider is where rendered certificates are written
// (localfs, gdrive).
type StorageProvider interface {
	Provider() string

	PutObject(ctx context.Context, in PutObjectInput) (PutObjectOutput, error)
	GetObject(ctx context.Context, objectKey string) (rc io.ReadCloser, contentType string, size int64, err error)

	// Ping reports whether the backend is reachable, for deep health checks.
	Ping(ctx context.Context) error
}
