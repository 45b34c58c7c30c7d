package config

import (
	"math"
	"strconv"
	"strings"

	"certify/internal/pkg/errors"
)

// paper sizes in millimetres, portrait.
var paperSizes = map[string][2]float64{
	"a3":     {297, 420},
	"a4":     {210, 297},
	"a5":     {148, 210},
	"a6":     {105, 148},
	"letter": {215.9, 279.4},
	"legal":  {215.9, 355.6},
}

// aspectTolerance is how far the template's width/height ratio may drift
// from the declared paper before a warning is raised.
const aspectTolerance = 0.02

// Aspect returns the declared paper's width/height ratio, honoring the
// orientation ("vertical" or "horizontal").
func (l Layout) Aspect() (float64, error) {
	var w, h float64

	name := strings.ToLower(strings.TrimSpace(l.PaperSize))
	if name == "custom" {
		parts := strings.Fields(strings.ReplaceAll(l.CustomSize, ",", " "))
		if len(parts) != 2 {
			return 0, errors.ValidationField("layout.custom_size", "custom size must be \"width height\"").
				WithOp("config.aspect")
		}
		var err error
		if w, err = strconv.ParseFloat(parts[0], 64); err != nil || w <= 0 {
			return 0, errors.ValidationField("layout.custom_size", "invalid width "+strconv.Quote(parts[0])).
				WithOp("config.aspect")
		}
		if h, err = strconv.ParseFloat(parts[1], 64); err != nil || h <= 0 {
			return 0, errors.ValidationField("layout.custom_size", "invalid height "+strconv.Quote(parts[1])).
				WithOp("config.aspect")
		}
	} else {
		size, ok := paperSizes[name]
		if !ok {
			return 0, errors.ValidationField("layout.paper_size", "unknown paper size "+strconv.Quote(l.PaperSize)).
				WithOp("config.aspect")
		}
		w, h = size[0], size[1]
	}

	switch strings.ToLower(strings.TrimSpace(l.Orientation)) {
	case "", "vertical", "portrait":
		if w > h {
			w, h = h, w
		}
	case "horizontal", "landscape":
		if w < h {
			w, h = h, w
		}
	default:
		return 0, errors.ValidationField("layout.orientation", "unknown orientation "+strconv.Quote(l.Orientation)).
			WithOp("config.aspect")
	}
	return w / h, nil
}

// MatchesImage reports whether a width x height pixel image has the declared
// paper's proportions.
func (l Layout) MatchesImage(width, height int) (bool, error) {
	want, err := l.Aspect()
	if err != nil {
		return false, err
	}
	if width <= 0 || height <= 0 {
		return false, nil
	}
	got := float64(width) / float64(height)
	return math.Abs(got-want)/want <= aspectTolerance, nil
}
