package render

import (
	"strconv"
	"strings"

	"github.com/fogleman/gg"
	qrcode "github.com/skip2/go-qrcode"

	"certify/internal/config"
	"certify/internal/layout"
	"certify/internal/pkg/errors"
)

const defaultQRSize = 256

// drawQR draws a verification code for content centered on the
// configured coordinate.
func drawQR(dc *gg.Context, spec config.QRSpec, content string) error {
	p, err := layout.ParsePoint(spec.Coords)
	if err != nil {
		return errors.Wrap(err, "render.qr", "info.verification_qr_coords")
	}

	size := defaultQRSize
	if raw := strings.TrimSpace(spec.Size); raw != "" {
		size, err = strconv.Atoi(raw)
		if err != nil || size <= 0 {
			return errors.ValidationField("info.verification_qr_size", "qr size "+strconv.Quote(raw)+" is not a positive integer").
				WithOp("render.qr")
		}
	}

	code, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return errors.Wrap(err, "render.qr", "encode verification code")
	}

	at := layout.Resolve(p, dc.Width(), dc.Height())
	dc.DrawImageAnchored(code.Image(size), at.X, at.Y, 0.5, 0.5)
	return nil
}
