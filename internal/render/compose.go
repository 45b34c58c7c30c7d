package render

import (
	"image"
	"strings"

	"github.com/fogleman/gg"

	"certify/internal/certificate"
	"certify/internal/config"
	"certify/internal/fonts"
	"certify/internal/pkg/errors"
)

// Binding selects where a field's text comes from.
type Binding int

const (
	// Literal uses the text written in the configuration.
	Literal Binding = iota
	BindName
	BindAffiliation
	BindPosterTitle
)

func (b Binding) text(spec config.FieldSpec, p certificate.Participant) string {
	switch b {
	case BindName:
		return p.Name
	case BindAffiliation:
		return p.Affiliation
	case BindPosterTitle:
		return p.PosterTitle
	default:
		return spec.Text
	}
}

// fieldText is the text ref draws for p: the literal or bound text, in
// double quotes for Quoted fields. Blank text stays blank.
func fieldText(ref FieldRef, spec config.FieldSpec, p certificate.Participant) string {
	text := ref.Bind.text(spec, p)
	if ref.Mode == Quoted && strings.TrimSpace(text) != "" {
		return `"` + text + `"`
	}
	return text
}

// FieldRef places one configured field in a variant's field list.
type FieldRef struct {
	Field string
	Mode  Mode
	Bind  Binding
}

// DefaultVariants maps each variant to its own fields, drawn before the
// shared ones.
var DefaultVariants = map[certificate.Variant][]FieldRef{
	certificate.Attendant: {
		{Field: config.FieldAttendantTitle, Mode: Title},
		{Field: config.FieldAttendantText, Mode: Body},
	},
	certificate.Poster: {
		{Field: config.FieldPosterTitle, Mode: Title},
		{Field: config.FieldPosterText, Mode: Body},
		{Field: config.FieldWorkTitle, Mode: Quoted, Bind: BindPosterTitle},
	},
}

// SharedFields are drawn on every certificate.
var SharedFields = []FieldRef{
	{Field: config.FieldParticipantName, Mode: Title, Bind: BindName},
	{Field: config.FieldParticipantAffiliation, Mode: Body, Bind: BindAffiliation},
	{Field: config.FieldSubtitle, Mode: Title},
}

// OptionalFields are drawn only when the configuration gives them text,
// coordinates, font and size. See config.OptionalFieldNames.
var OptionalFields = []FieldRef{
	{Field: config.FieldTitle, Mode: Title},
	{Field: config.FieldDate, Mode: Title},
}

// Composer renders jobs. The field tables are copied at construction and
// never change afterwards.
type Composer struct {
	info      config.Info
	wrapWidth int
	verifyURL string
	fonts     *fonts.Cache
	template  image.Image
	variants  map[certificate.Variant][]FieldRef
}

// NewComposer builds a composer over the default variant table.
func NewComposer(opts *config.Options, cache *fonts.Cache, template image.Image) *Composer {
	return NewComposerWithVariants(opts, cache, template, DefaultVariants)
}

// NewComposerWithVariants builds a composer over a custom variant table.
// Adding a certificate kind is a new entry in variants.
func NewComposerWithVariants(opts *config.Options, cache *fonts.Cache, template image.Image, variants map[certificate.Variant][]FieldRef) *Composer {
	table := make(map[certificate.Variant][]FieldRef, len(variants))
	for v, refs := range variants {
		table[v] = append([]FieldRef(nil), refs...)
	}

	return &Composer{
		info:      opts.Info,
		wrapWidth: opts.Settings.WrapWidth,
		verifyURL: opts.Settings.VerificationURL,
		fonts:     cache,
		template:  template,
		variants:  table,
	}
}

// Fields returns the ordered field list rendered for v, shared and
// optional fields included.
func (c *Composer) Fields(v certificate.Variant) ([]FieldRef, error) {
	own, ok := c.variants[v]
	if !ok {
		return nil, errors.Validationf("unknown certificate variant %q", v).WithOp("render.fields")
	}

	out := make([]FieldRef, 0, len(own)+len(SharedFields)+len(OptionalFields))
	out = append(out, own...)
	out = append(out, SharedFields...)
	for _, ref := range OptionalFields {
		if c.info.Field(ref.Field).Renderable() {
			out = append(out, ref)
		}
	}
	return out, nil
}

// Compose renders job onto a fresh copy of the template. Any field that
// cannot be resolved (coordinates, size, font, color) fails the job.
func (c *Composer) Compose(job certificate.Job) (image.Image, error) {
	refs, err := c.Fields(job.Variant)
	if err != nil {
		return nil, err
	}

	dc := gg.NewContextForImage(c.template)
	for _, ref := range refs {
		spec := c.info.Field(ref.Field)
		f, err := resolveField(spec, c.fonts)
		if err != nil {
			return nil, errors.Wrapf(err, "render.compose", "%s certificate for %s", job.Variant, job.Participant.Name)
		}
		drawField(dc, f, ref.Mode, fieldText(ref, spec, job.Participant), c.wrapWidth)
	}

	if c.info.QR.Configured() {
		if err := drawQR(dc, c.info.QR, c.VerificationURL(job)); err != nil {
			return nil, errors.Wrapf(err, "render.compose", "%s certificate for %s", job.Variant, job.Participant.Name)
		}
	}

	return dc.Image(), nil
}

// VerificationURL is the configured verification pattern with "{id}"
// replaced by the job's certificate ID, or the bare ID when no pattern is
// set.
func (c *Composer) VerificationURL(job certificate.Job) string {
	if c.verifyURL == "" {
		return job.ID()
	}
	return strings.ReplaceAll(c.verifyURL, "{id}", job.ID())
}
