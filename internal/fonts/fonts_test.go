package fonts

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"certify/internal/pkg/errors"
)

func writeFont(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Go-Regular.ttf"), goregular.TTF, 0o644); err != nil {
		t.Fatalf("write font: %v", err)
	}
	return dir
}

func TestFace(t *testing.T) {
	c := NewCache(writeFont(t))
	defer c.Close()

	face, err := c.Face("Go-Regular.ttf", 32)
	if err != nil {
		t.Fatalf("Face() error: %v", err)
	}
	if face.Metrics().Height.Ceil() <= 0 {
		t.Error("expected positive line height")
	}

	again, err := c.Face("Go-Regular.ttf", 32)
	if err != nil {
		t.Fatalf("Face() error: %v", err)
	}
	if again != face {
		t.Error("expected cached face to be reused")
	}

	bigger, err := c.Face("Go-Regular.ttf", 64)
	if err != nil {
		t.Fatalf("Face() error: %v", err)
	}
	if bigger == face {
		t.Error("expected a new face for a new size")
	}
	if len(c.fonts) != 1 {
		t.Errorf("expected the font file to be parsed once, got %d", len(c.fonts))
	}
}

func TestFaceErrors(t *testing.T) {
	dir := writeFont(t)
	if err := os.WriteFile(filepath.Join(dir, "broken.ttf"), []byte("not a font"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := NewCache(dir)

	tests := []struct {
		name string
		file string
		size float64
		code errors.Code
	}{
		{"missing file", "Nope.ttf", 20, errors.CodeNotFound},
		{"unconfigured", "", 20, errors.CodeValidation},
		{"zero size", "Go-Regular.ttf", 0, errors.CodeValidation},
		{"negative size", "Go-Regular.ttf", -3, errors.CodeValidation},
		{"unparseable", "broken.ttf", 20, errors.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Face(tt.file, tt.size)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("expected code %s, got %s (%v)", tt.code, got, err)
			}
		})
	}
}

func TestAbsolutePath(t *testing.T) {
	dir := writeFont(t)
	c := NewCache(t.TempDir())

	if _, err := c.Face(filepath.Join(dir, "Go-Regular.ttf"), 12); err != nil {
		t.Fatalf("expected absolute font path to load: %v", err)
	}
}
