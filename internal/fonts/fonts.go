// Package fonts loads TrueType/OpenType files from the configured fonts
// folder and caches one parsed font per file and one face per (file, size).
package fonts

import (
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"

	"certify/internal/pkg/errors"
)

// maxFontFileSize limits the size of individual font files loaded into memory.
const maxFontFileSize = 20 << 20

type faceKey struct {
	file string
	size float64
}

// Cache resolves font file names relative to Dir.
type Cache struct {
	dir string

	mu    sync.Mutex
	fonts map[string]*opentype.Font
	faces map[faceKey]font.Face
}

// NewCache creates a cache over the fonts folder dir.
func NewCache(dir string) *Cache {
	return &Cache{
		dir:   dir,
		fonts: make(map[string]*opentype.Font),
		faces: make(map[faceKey]font.Face),
	}
}

// Dir is the folder font file names are resolved against.
func (c *Cache) Dir() string { return c.dir }

// Face returns the face for file at size points (72 DPI, so points equal
// pixels, matching how the template coordinates are measured). A missing or
// unparseable file, or a non-positive size, is an error.
func (c *Cache) Face(file string, size float64) (font.Face, error) {
	if file == "" {
		return nil, errors.Validation("font file not configured").WithOp("fonts.face")
	}
	if size <= 0 {
		return nil, errors.Validationf("font size %v for %s must be positive", size, file).
			WithOp("fonts.face").
			WithField("font", file)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := faceKey{file: file, size: size}
	if face, ok := c.faces[key]; ok {
		return face, nil
	}

	f, err := c.load(file)
	if err != nil {
		return nil, err
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "fonts.face", "create face %s at %.1fpt", file, size)
	}

	c.faces[key] = face
	return face, nil
}

// load must be called with c.mu held.
func (c *Cache) load(file string) (*opentype.Font, error) {
	if f, ok := c.fonts[file]; ok {
		return f, nil
	}

	path := file
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.dir, file)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("font", path).WithOp("fonts.load")
		}
		return nil, errors.Wrapf(err, "fonts.load", "stat %s", path)
	}
	if info.Size() > maxFontFileSize {
		return nil, errors.Validationf("font file too large: %d bytes (max %d)", info.Size(), maxFontFileSize).
			WithOp("fonts.load").
			WithField("font", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "fonts.load", "read %s", path)
	}

	f, err := opentype.Parse(data)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeValidation, "fonts.load", "parse "+path)
	}

	c.fonts[file] = f
	return f, nil
}

// Close releases every cached face.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var first error
	for k, face := range c.faces {
		if err := face.Close(); err != nil && first == nil {
			first = err
		}
		delete(c.faces, k)
	}
	return first
}
