package config

import (
	"strconv"
	"strings"

	"certify/internal/pkg/errors"
)

const defaultWrapWidth = 40

func applySetting(o *Options, key, val string) (bool, error) {
	s := &o.Settings
	switch key {
	case "participants_data":
		s.ParticipantsData = val
	case "workdir":
		s.Workdir = val
	case "fonts_folder":
		s.FontsFolder = val
	case "template":
		s.Template = val
	case "basename":
		s.Basename = val
	case "storage":
		s.Storage = strings.ToLower(val)
	case "verification_url":
		s.VerificationURL = val
	case "wrap_width":
		if val == "" {
			return true, nil
		}
		n, err := strconv.Atoi(val)
		if err != nil || n <= 0 {
			return true, errors.ValidationField("settings.wrap_width", "wrap width "+strconv.Quote(val)+" is not a positive integer").
				WithOp("config.parse")
		}
		s.WrapWidth = n
	case "input":
		// the original tool echoed its own -i flag into [settings]
	default:
		return false, nil
	}
	return true, nil
}

func applyLayout(o *Options, key, val string) (bool, error) {
	switch key {
	case "paper_size":
		o.Layout.PaperSize = val
	case "orientation":
		o.Layout.Orientation = strings.ToLower(val)
	case "custom_size":
		o.Layout.CustomSize = val
	default:
		return false, nil
	}
	return true, nil
}

func applyInfo(o *Options, key, val string) (bool, error) {
	switch key {
	case "verification_qr_coords":
		o.Info.QR.Coords = val
		return true, nil
	case "verification_qr_size":
		o.Info.QR.Size = val
		return true, nil
	case "run_preparation":
		o.Info.RunPreparation = IsTruthy(val)
		return true, nil
	case "run_infos":
		o.Info.RunInfos = IsTruthy(val)
		return true, nil
	}

	name, attr, ok := splitFieldKey(key)
	if !ok {
		return false, nil
	}

	f := o.Info.Fields[name]
	switch attr {
	case "":
		f.Text, f.TextSet = val, true
	case "coords":
		f.Coords = val
	case "font":
		f.Font = val
	case "font_size":
		f.FontSize = val
	case "font_color":
		f.FontColor = val
	case "font_bold":
		f.Style.Bold = IsTruthy(val)
	case "font_italic":
		f.Style.Italic = IsTruthy(val)
	case "font_underline":
		f.Style.Underline = IsTruthy(val)
	case "font_shadow":
		f.Style.Shadow = IsTruthy(val)
	case "font_outline":
		f.Style.Outline = IsTruthy(val)
	default:
		return false, nil
	}
	o.Info.Fields[name] = f
	return true, nil
}

var fieldAttrs = []string{
	"font_underline",
	"font_outline",
	"font_italic",
	"font_shadow",
	"font_color",
	"font_size",
	"font_bold",
	"coords",
	"font",
}

// splitFieldKey splits "poster_title_font_size" into ("poster_title",
// "font_size"). The longest known field name wins, so "title_coords" and
// "participant_work_title_coords" never collide.
func splitFieldKey(key string) (name, attr string, ok bool) {
	best := ""
	for _, n := range FieldNames {
		if (key == n || strings.HasPrefix(key, n+"_")) && len(n) > len(best) {
			best = n
		}
	}
	if best == "" {
		return "", "", false
	}
	if key == best {
		return best, "", true
	}

	rest := strings.TrimPrefix(key, best+"_")
	for _, a := range fieldAttrs {
		if rest == a {
			return best, a, true
		}
	}
	return "", "", false
}

// IsTruthy reads a configuration flag: 1, true, yes and on (any case).
func IsTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
