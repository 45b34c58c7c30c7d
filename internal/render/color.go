package render

import (
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"

	"certify/internal/pkg/errors"
)

// ParseColor accepts #rgb, #rrggbb, #rrggbbaa and CSS color names. An empty
// value (or the literal "None" older configurations carry) is black.
func ParseColor(s string) (color.Color, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") {
		return color.Black, nil
	}

	if !strings.HasPrefix(s, "#") {
		if c, ok := colornames.Map[strings.ToLower(s)]; ok {
			return c, nil
		}
		return nil, errors.Validationf("unknown color %q", s).WithOp("render.parse_color")
	}

	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return nil, errors.Validationf("invalid hex color %q", s).WithOp("render.parse_color")
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, errors.Validationf("invalid hex color %q", s).WithOp("render.parse_color")
	}
	return color.NRGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}

// contrast picks black or white, whichever stands out against c.
func contrast(c color.Color) color.Color {
	r, g, b, _ := c.RGBA()
	lum := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
	if lum/0xffff < 0.5 {
		return color.White
	}
	return color.Black
}
