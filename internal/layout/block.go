package layout

// Measurer reports the rendered size of a string. *gg.Context satisfies it.
type Measurer interface {
	MeasureString(s string) (w, h float64)
}

// Line is one placed line of a text block. X is the left edge, Y the top.
type Line struct {
	Text   string
	X, Y   float64
	Width  float64
	Height float64
}

// CenterX is the left offset that centers a line of lineWidth on an image of
// imageWidth: the left and right margins are equal.
func CenterX(imageWidth int, lineWidth float64) float64 {
	return (float64(imageWidth) - lineWidth) / 2
}

// Block wraps text to width characters and stacks the lines downward from
// startY, each advanced by its measured height and centered on the full
// image width.
func Block(text string, width, imageWidth int, startY float64, m Measurer) []Line {
	wrapped := Wrap(text, width)
	out := make([]Line, 0, len(wrapped))

	y := startY
	for _, s := range wrapped {
		lw, lh := m.MeasureString(s)
		out = append(out, Line{
			Text:   s,
			X:      CenterX(imageWidth, lw),
			Y:      y,
			Width:  lw,
			Height: lh,
		})
		y += lh
	}
	return out
}
