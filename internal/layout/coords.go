// Package layout turns normalized field positions into pixel placements and
// lays out wrapped, horizontally centered text blocks.
package layout

import (
	"image"
	"math"
	"strconv"
	"strings"

	"certify/internal/pkg/errors"
)

// Point is a position expressed as fractions of the image width and height.
// Values are expected in [0,1] but are never clamped: a point outside the
// unit square places text off the visible canvas.
type Point struct {
	X, Y float64
}

// Resolve maps p onto a w×h image: (round(x*w), round(y*h)).
func Resolve(p Point, w, h int) image.Point {
	return image.Point{
		X: int(math.Round(p.X * float64(w))),
		Y: int(math.Round(p.Y * float64(h))),
	}
}

// ParsePoint reads the "x, y" form used in configuration files.
func ParsePoint(s string) (Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Point{}, errors.Validationf("coordinates %q: want \"x, y\"", s).
			WithOp("layout.parse_point")
	}

	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Point{}, errors.WrapWithCode(err, errors.CodeValidation, "layout.parse_point",
			"coordinates "+strconv.Quote(s)+": bad x")
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Point{}, errors.WrapWithCode(err, errors.CodeValidation, "layout.parse_point",
			"coordinates "+strconv.Quote(s)+": bad y")
	}

	return Point{X: x, Y: y}, nil
}

func (p Point) String() string {
	return strconv.FormatFloat(p.X, 'g', -1, 64) + ", " + strconv.FormatFloat(p.Y, 'g', -1, 64)
}
