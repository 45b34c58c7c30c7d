package gdrive

import (
	"context"
	"io"
	"net/http"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"certify/internal/pkg/errors"
	"certify/internal/ports"
)

// Client implements ports.StorageProvider backed by Google Drive.
// Uploads use the object key as the file name inside the configured folder;
// the returned ObjectKey is the Drive file ID, which GetObject expects.
// A file that already has that name in the folder gets new content in place.
type Client struct {
	srv      *drive.Service
	folderID string
}

func NewClient(srv *drive.Service, folderID string) *Client {
	return &Client{srv: srv, folderID: folderID}
}

func (c *Client) Provider() string { return "gdrive" }

func (c *Client) PutObject(ctx context.Context, in ports.PutObjectInput) (ports.PutObjectOutput, error) {
	if in.ObjectKey == "" {
		return ports.PutObjectOutput{}, errors.Validation("object key is required").WithOp("gdrive.put")
	}

	existingID, err := c.findByName(ctx, in.ObjectKey)
	if err != nil {
		return ports.PutObjectOutput{}, err
	}

	var media []googleapi.MediaOption
	if in.ContentType != "" {
		media = append(media, googleapi.ContentType(in.ContentType))
	}

	var stored *drive.File
	if existingID != "" {
		stored, err = c.srv.Files.Update(existingID, &drive.File{}).
			SupportsAllDrives(true).
			Media(in.Reader, media...).
			Context(ctx).
			Do()
	} else {
		file := &drive.File{Name: in.ObjectKey}
		if c.folderID != "" {
			file.Parents = []string{c.folderID}
		}
		stored, err = c.srv.Files.Create(file).
			SupportsAllDrives(true).
			Media(in.Reader, media...).
			Context(ctx).
			Do()
	}
	if err != nil {
		return ports.PutObjectOutput{}, wrap(err, "gdrive.put", "upload "+in.ObjectKey)
	}

	return ports.PutObjectOutput{ObjectKey: stored.Id, Size: in.Size}, nil
}

// findByName returns the ID of a non-trashed file called name in the folder,
// or "" when there is none.
func (c *Client) findByName(ctx context.Context, name string) (string, error) {
	q := "name = '" + escapeQuery(name) + "' and trashed = false"
	if c.folderID != "" {
		q += " and '" + escapeQuery(c.folderID) + "' in parents"
	}
	list, err := c.srv.Files.List().
		Q(q).
		Fields("files(id)").
		PageSize(1).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", wrap(err, "gdrive.put", "look up "+name)
	}
	if len(list.Files) == 0 {
		return "", nil
	}
	return list.Files[0].Id, nil
}

var queryEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func escapeQuery(s string) string { return queryEscaper.Replace(s) }

func (c *Client) GetObject(ctx context.Context, objectKey string) (rc io.ReadCloser, contentType string, size int64, err error) {
	resp, err := c.srv.Files.Get(objectKey).
		SupportsAllDrives(true).
		Context(ctx).
		Download()
	if err != nil {
		return nil, "", 0, wrap(err, "gdrive.get", "download "+objectKey)
	}

	return resp.Body, resp.Header.Get("Content-Type"), resp.ContentLength, nil
}

// Ping asks Drive who the token belongs to.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.srv.About.Get().Fields("user").Context(ctx).Do(); err != nil {
		return wrap(err, "gdrive.ping", "drive about")
	}
	return nil
}

func wrap(err error, op, msg string) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusNotFound:
			return errors.WrapWithCode(err, errors.CodeNotFound, op, msg)
		case http.StatusUnauthorized, http.StatusForbidden:
			return errors.WrapWithCode(err, errors.CodeFailedPrecond, op, msg)
		case http.StatusTooManyRequests, http.StatusServiceUnavailable:
			return errors.WrapWithCode(err, errors.CodeUnavailable, op, msg)
		}
	}
	return errors.Wrap(err, op, msg)
}
