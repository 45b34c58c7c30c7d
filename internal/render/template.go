// Package render draws certificate fields onto a copy of the template image.
package render

import (
	"image"
	"os"

	"github.com/disintegration/imaging"

	"certify/internal/pkg/errors"
)

// LoadTemplate decodes the template image, applying any EXIF orientation so
// normalized coordinates match what a viewer shows.
func LoadTemplate(path string) (image.Image, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("template", path).WithOp("render.load_template")
		}
		return nil, errors.Wrapf(err, "render.load_template", "stat %s", path)
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeValidation, "render.load_template", "decode "+path)
	}
	return img, nil
}
