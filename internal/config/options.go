// Package config reads the certify configuration file (the INI "input.dat"
// format, or YAML) into typed options. Every known key has a default; keys
// the table does not know are reported as diagnostics instead of being
// silently ignored.
package config

import (
	"path/filepath"
	"strconv"
	"strings"

	"certify/internal/layout"
	"certify/internal/pkg/errors"
)

// Section names.
const (
	SectionSettings = "settings"
	SectionLayout   = "layout"
	SectionInfo     = "info"
)

// Info field names, in the order the configuration documents them.
const (
	FieldTitle                  = "title"
	FieldSubtitle               = "subtitle"
	FieldParticipantName        = "participant_name"
	FieldParticipantAffiliation = "participant_affiliation"
	FieldWorkTitle              = "participant_work_title"
	FieldDate                   = "date"
	FieldAttendantTitle         = "attendant_title"
	FieldAttendantText          = "attendant_text"
	FieldPosterTitle            = "poster_title"
	FieldPosterText             = "poster_text"
)

// FieldNames lists every info field the configuration understands.
var FieldNames = []string{
	FieldTitle,
	FieldSubtitle,
	FieldParticipantName,
	FieldParticipantAffiliation,
	FieldWorkTitle,
	FieldDate,
	FieldAttendantTitle,
	FieldAttendantText,
	FieldPosterTitle,
	FieldPosterText,
}

// OptionalFieldNames are drawn only when fully configured; a partial
// configuration is reported as a diagnostic.
var OptionalFieldNames = []string{FieldTitle, FieldDate}

// default literal text per field; fields bound to a participant attribute
// ignore their text.
var defaultText = map[string]string{
	FieldAttendantText: "Attendant",
	FieldPosterText:    "poster",
}

// Options is the typed result of loading a configuration file. It is not
// modified after Load returns.
type Options struct {
	// Path is the configuration file the options came from.
	Path     string
	Settings Settings
	Layout   Layout
	Info     Info
	// Diagnostics lists unrecognized sections and keys.
	Diagnostics []Diagnostic
}

// Settings is the [settings] section.
type Settings struct {
	ParticipantsData string
	Workdir          string
	FontsFolder      string
	Template         string
	// Basename prefixes every output file; defaults to the template's stem.
	Basename  string
	WrapWidth int
	// Storage selects the output provider: "localfs" or "gdrive".
	Storage string
	// VerificationURL is a pattern containing "{id}", embedded in the QR
	// code when one is configured.
	VerificationURL string
}

// Layout is the [layout] section.
type Layout struct {
	PaperSize   string
	Orientation string
	// CustomSize is "width height" in centimetres, used with paper_size=custom.
	CustomSize string
}

// Style holds the declared style flags of a field.
type Style struct {
	Bold      bool
	Italic    bool
	Underline bool
	Shadow    bool
	Outline   bool
}

// FieldSpec describes one renderable text field. Coordinates and size are
// kept as written and parsed when a variant needs the field, so a typo in a
// field no variant renders never stops a run.
type FieldSpec struct {
	Name string
	// Text is the literal content; TextSet is false when the key is absent.
	Text      string
	TextSet   bool
	Coords    string
	Font      string
	FontSize  string
	FontColor string
	Style     Style
}

// Configured reports whether the field has both content and a position.
func (f FieldSpec) Configured() bool {
	return f.TextSet && strings.TrimSpace(f.Text) != "" && strings.TrimSpace(f.Coords) != ""
}

// Renderable reports whether the field carries everything needed to draw
// it: text, coordinates, font and font size.
func (f FieldSpec) Renderable() bool {
	return f.Configured() && strings.TrimSpace(f.Font) != "" && strings.TrimSpace(f.FontSize) != ""
}

// partial reports a field with some but not all of text, coordinates, font
// and font size set.
func (f FieldSpec) partial() bool {
	text := ""
	if f.TextSet {
		text = f.Text
	}
	set := 0
	for _, v := range []string{text, f.Coords, f.Font, f.FontSize} {
		if strings.TrimSpace(v) != "" {
			set++
		}
	}
	return set > 0 && set < 4
}

// Point parses the field's normalized coordinates.
func (f FieldSpec) Point() (layout.Point, error) {
	if strings.TrimSpace(f.Coords) == "" {
		return layout.Point{}, errors.ValidationField("info."+f.Name+"_coords", "coordinates not configured").
			WithOp("config.field")
	}
	p, err := layout.ParsePoint(f.Coords)
	if err != nil {
		return layout.Point{}, errors.Wrap(err, "config.field", "info."+f.Name+"_coords")
	}
	return p, nil
}

// Size parses the font size in points. Fractional sizes are accepted.
func (f FieldSpec) Size() (float64, error) {
	raw := strings.TrimSpace(f.FontSize)
	if raw == "" {
		return 0, errors.ValidationField("info."+f.Name+"_font_size", "font size not configured").
			WithOp("config.field")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return 0, errors.ValidationField("info."+f.Name+"_font_size", "font size "+strconv.Quote(raw)+" is not a positive number").
			WithOp("config.field")
	}
	return v, nil
}

// QRSpec places the optional verification QR code.
type QRSpec struct {
	Coords string
	// Size is the side of the code in pixels.
	Size string
}

// Configured reports whether a QR code should be drawn.
func (q QRSpec) Configured() bool {
	return strings.TrimSpace(q.Coords) != ""
}

// Info is the [info] section.
type Info struct {
	Fields map[string]FieldSpec
	QR     QRSpec
	// RunPreparation and RunInfos are accepted for compatibility and unused.
	RunPreparation bool
	RunInfos       bool
}

// Field returns the settings of the named field. Unknown or absent fields
// yield their unset value, never a lookup failure.
func (i Info) Field(name string) FieldSpec {
	if f, ok := i.Fields[name]; ok {
		return f
	}
	return FieldSpec{Name: name, Text: defaultText[name]}
}

// Diagnostic reports a configuration entry the loader did not recognize,
// or one it recognized but will not use (Reason set).
type Diagnostic struct {
	Section string
	Key     string
	Reason  string
}

func (d Diagnostic) String() string {
	if d.Reason != "" {
		return d.Section + "." + d.Key + ": " + d.Reason
	}
	if d.Key == "" {
		return "unrecognized section [" + d.Section + "]"
	}
	return "unrecognized key " + d.Section + "." + d.Key
}

// Validate checks that the settings needed to run a batch are present.
func (o *Options) Validate() error {
	required := []struct{ key, val string }{
		{"template", o.Settings.Template},
		{"participants_data", o.Settings.ParticipantsData},
		{"workdir", o.Settings.Workdir},
	}
	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			return errors.ValidationField(SectionSettings+"."+r.key, "required setting missing").
				WithOp("config.validate")
		}
	}

	switch o.Settings.Storage {
	case "localfs", "gdrive":
	default:
		return errors.ValidationField(SectionSettings+".storage", "unknown storage provider "+strconv.Quote(o.Settings.Storage)).
			WithOp("config.validate")
	}
	return nil
}

// resolve makes a relative path relative to the configuration file.
func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

func templateStem(p string) string {
	base := filepath.Base(p)
	if i := strings.Index(base, "."); i > 0 {
		return base[:i]
	}
	return base
}
