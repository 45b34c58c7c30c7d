package storage

import (
	"context"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"certify/internal/adapters/storage/gdrive"
	"certify/internal/adapters/storage/localfs"
	"certify/internal/pkg/env"
	"certify/internal/pkg/errors"
)

// NewProvider builds the provider named by the run's configuration. root is
// the run's output directory and is only used by localfs; gdrive reads its
// credentials from GDRIVE_CLIENT_ID, GDRIVE_CLIENT_SECRET,
// GDRIVE_REFRESH_TOKEN and GDRIVE_FOLDER_ID.
func NewProvider(ctx context.Context, name, root string) (Provider, error) {
	if name == "" {
		name = "localfs"
	}

	switch name {
	case "localfs":
		if root == "" {
			return nil, errors.Validation("localfs storage needs an output directory").WithOp("storage.new")
		}
		return localfs.New(root), nil

	case "gdrive":
		return newGDriveProvider(ctx)

	default:
		return nil, errors.ValidationField("settings.storage", "unknown storage provider "+strconv.Quote(name)).
			WithOp("storage.new")
	}
}

func newGDriveProvider(ctx context.Context) (Provider, error) {
	var creds [3]string
	for i, k := range []string{"GDRIVE_CLIENT_ID", "GDRIVE_CLIENT_SECRET", "GDRIVE_REFRESH_TOKEN"} {
		v, err := env.Require(k)
		if err != nil {
			return nil, err
		}
		creds[i] = v
	}

	conf := &oauth2.Config{
		ClientID:     creds[0],
		ClientSecret: creds[1],
		Endpoint:     google.Endpoint,
		Scopes:       []string{drive.DriveFileScope},
	}

	tok := &oauth2.Token{RefreshToken: creds[2]}
	httpClient := conf.Client(ctx, tok)

	srv, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, errors.Wrap(err, "storage.new", "drive service")
	}

	return gdrive.NewClient(srv, env.Get("GDRIVE_FOLDER_ID", "")), nil
}
