package render

import (
	"image/color"
	"math"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"certify/internal/config"
	"certify/internal/fonts"
	"certify/internal/layout"
	"certify/internal/pkg/errors"
)

// Mode is how a field's text is laid out.
type Mode int

const (
	// Title is one line anchored at the coordinate: horizontal center,
	// baseline.
	Title Mode = iota
	// Body is a wrapped block starting at the coordinate's y, every line
	// centered on the image width.
	Body
	// Quoted is Body with the text in double quotes.
	Quoted
)

func (m Mode) String() string {
	switch m {
	case Title:
		return "title"
	case Body:
		return "body"
	case Quoted:
		return "quoted"
	default:
		return "unknown"
	}
}

// resolvedField is a FieldSpec with everything parsed and loaded.
type resolvedField struct {
	name  string
	point layout.Point
	size  float64
	face  font.Face
	color color.Color
	style config.Style
}

func resolveField(spec config.FieldSpec, cache *fonts.Cache) (*resolvedField, error) {
	p, err := spec.Point()
	if err != nil {
		return nil, err
	}
	size, err := spec.Size()
	if err != nil {
		return nil, err
	}
	face, err := cache.Face(spec.Font, size)
	if err != nil {
		return nil, errors.Wrap(err, "render.field", "info."+spec.Name+"_font")
	}
	c, err := ParseColor(spec.FontColor)
	if err != nil {
		return nil, errors.Wrap(err, "render.field", "info."+spec.Name+"_font_color")
	}

	return &resolvedField{
		name:  spec.Name,
		point: p,
		size:  size,
		face:  face,
		color: c,
		style: spec.Style,
	}, nil
}

// drawField renders text onto dc according to mode. The text is drawn as
// given, see fieldText for quoting. Empty text draws nothing.
func drawField(dc *gg.Context, f *resolvedField, mode Mode, text string, wrapWidth int) {
	if strings.TrimSpace(text) == "" {
		return
	}

	dc.SetFontFace(f.face)
	at := layout.Resolve(f.point, dc.Width(), dc.Height())

	switch mode {
	case Title:
		drawLine(dc, f, text, float64(at.X), float64(at.Y), 0.5, 0)
	case Body, Quoted:
		for _, l := range layout.Block(text, wrapWidth, dc.Width(), float64(at.Y), dc) {
			drawLine(dc, f, l.Text, l.X, l.Y, 0, 1)
		}
	}
}

// drawLine draws one line anchored like gg.DrawStringAnchored and applies
// the field's style effects around it.
func drawLine(dc *gg.Context, f *resolvedField, s string, x, y, ax, ay float64) {
	offset := math.Max(1, math.Round(f.size/24))

	if f.style.Shadow {
		dc.SetColor(color.NRGBA{A: 0x80})
		dc.DrawStringAnchored(s, x+offset, y+offset, ax, ay)
	}
	if f.style.Outline {
		dc.SetColor(contrast(f.color))
		for dy := -1.0; dy <= 1; dy++ {
			for dx := -1.0; dx <= 1; dx++ {
				if dx != 0 || dy != 0 {
					dc.DrawStringAnchored(s, x+dx*offset, y+dy*offset, ax, ay)
				}
			}
		}
	}

	dc.SetColor(f.color)
	dc.DrawStringAnchored(s, x, y, ax, ay)

	if f.style.Underline {
		w, h := dc.MeasureString(s)
		left := x - ax*w
		baseline := y + ay*h + 2*offset
		dc.SetLineWidth(offset)
		dc.DrawLine(left, baseline, left+w, baseline)
		dc.Stroke()
	}
}
