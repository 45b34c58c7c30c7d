package localfs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"certify/internal/pkg/errors"
	"certify/internal/ports"
)

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	l := New(root)

	out, err := l.PutObject(ctx, ports.PutObjectInput{
		ObjectKey:   "event_Ana_Lopez_attendant.png",
		ContentType: "image/png",
		Reader:      strings.NewReader("png-bytes"),
	})
	if err != nil {
		t.Fatalf("PutObject: %v", err)
	}
	if out.ObjectKey != "event_Ana_Lopez_attendant.png" || out.Size != 9 {
		t.Errorf("unexpected output %+v", out)
	}
	if out.Location != root {
		t.Errorf("location = %q, want %q", out.Location, root)
	}
	if _, err := os.Stat(filepath.Join(root, "event_Ana_Lopez_attendant.png")); err != nil {
		t.Errorf("file not on disk: %v", err)
	}

	rc, ct, size, err := l.GetObject(ctx, out.ObjectKey)
	if err != nil {
		t.Fatalf("GetObject: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "png-bytes" || ct != "image/png" || size != 9 {
		t.Errorf("GetObject = %q, %q, %d", body, ct, size)
	}
}

func TestPutOverwrites(t *testing.T) {
	ctx := context.Background()
	l := New(t.TempDir())

	for _, body := range []string{"first", "second"} {
		if _, err := l.PutObject(ctx, ports.PutObjectInput{ObjectKey: "same.png", Reader: strings.NewReader(body)}); err != nil {
			t.Fatal(err)
		}
	}

	rc, _, _, err := l.GetObject(ctx, "same.png")
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	if body, _ := io.ReadAll(rc); string(body) != "second" {
		t.Errorf("expected last write to win, got %q", body)
	}
}

func TestKeyValidation(t *testing.T) {
	ctx := context.Background()
	l := New(t.TempDir())

	for _, key := range []string{"", "../escape.png", "/etc/passwd"} {
		_, err := l.PutObject(ctx, ports.PutObjectInput{ObjectKey: key, Reader: strings.NewReader("x")})
		if !errors.IsValidation(err) {
			t.Errorf("key %q: expected validation error, got %v", key, err)
		}
	}

	if _, _, _, err := l.GetObject(ctx, "missing.png"); !errors.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestPing(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	if err := New(root).Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
	if err := New(filepath.Join(root, "missing")).Ping(ctx); err == nil {
		t.Error("expected error for missing root")
	}

	file := filepath.Join(root, "file")
	os.WriteFile(file, nil, 0o644)
	if err := New(file).Ping(ctx); !errors.IsFailedPrecondition(err) {
		t.Errorf("expected failed precondition for a file root, got %v", err)
	}
}
