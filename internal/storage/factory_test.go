package storage

import (
	"context"
	"testing"

	"certify/internal/pkg/errors"
)

func TestNewProvider(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	for _, name := range []string{"", "localfs"} {
		p, err := NewProvider(ctx, name, root)
		if err != nil {
			t.Fatalf("NewProvider(%q): %v", name, err)
		}
		if p.Provider() != "localfs" {
			t.Errorf("provider = %s", p.Provider())
		}
	}

	if _, err := NewProvider(ctx, "localfs", ""); !errors.IsValidation(err) {
		t.Errorf("localfs without root: expected validation error, got %v", err)
	}
	if _, err := NewProvider(ctx, "s3", root); !errors.IsValidation(err) {
		t.Errorf("unknown provider: expected validation error, got %v", err)
	}
}

func TestNewProviderGDriveNeedsCredentials(t *testing.T) {
	t.Setenv("GDRIVE_CLIENT_ID", "")
	t.Setenv("GDRIVE_CLIENT_SECRET", "")
	t.Setenv("GDRIVE_REFRESH_TOKEN", "")

	_, err := NewProvider(context.Background(), "gdrive", "")
	if !errors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if errors.GetFields(err)["field"] != "GDRIVE_CLIENT_ID" {
		t.Errorf("expected the first missing variable, got %v", errors.GetFields(err))
	}
}

func TestNewProviderGDrive(t *testing.T) {
	t.Setenv("GDRIVE_CLIENT_ID", "id")
	t.Setenv("GDRIVE_CLIENT_SECRET", "secret")
	t.Setenv("GDRIVE_REFRESH_TOKEN", "refresh")
	t.Setenv("GDRIVE_FOLDER_ID", "folder")

	p, err := NewProvider(context.Background(), "gdrive", "")
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	if p.Provider() != "gdrive" {
		t.Errorf("provider = %s", p.Provider())
	}
}
