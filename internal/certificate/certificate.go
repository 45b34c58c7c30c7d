// Package certificate holds the domain types shared by the renderer, the
// batch processor and the registry: participants, variants and render jobs.
package certificate

import (
	"strings"

	"github.com/google/uuid"
)

// Variant tags a category of certificate. Each variant owns an ordered field
// list in the composer table.
type Variant string

const (
	Attendant Variant = "attendant"
	Poster    Variant = "poster"
)

func (v Variant) String() string { return string(v) }

// Participant is one row of the participant table. Empty cells are empty
// strings; use Present to test optional columns.
type Participant struct {
	Name        string
	Affiliation string
	PosterTitle string
	// TalkTitle, AwardTitle and Role are read from every row but no variant
	// renders them yet.
	TalkTitle  string
	AwardTitle string
	Role       string
}

// Present reports whether an optional cell carries a value. Spreadsheets
// exported with blanks filled as 0 read back as "0", which counts as empty.
func Present(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && v != "0"
}

// Variants lists the certificates a participant receives, in render order:
// attendant always, poster only when the poster title is present.
func (p Participant) Variants() []Variant {
	out := []Variant{Attendant}
	if Present(p.PosterTitle) {
		out = append(out, Poster)
	}
	return out
}

// Job is one (participant, variant) pairing producing exactly one image.
type Job struct {
	Participant Participant
	Variant     Variant
	Basename    string
}

// Filename is "{basename}_{name with spaces as underscores}_{variant}.png".
func (j Job) Filename() string {
	return Filename(j.Basename, j.Participant.Name, j.Variant)
}

// ID is stable across re-runs of the same batch.
func (j Job) ID() string {
	return ID(j.Basename, j.Participant.Name, j.Variant)
}

// Filename builds the output file name for a certificate. Collisions are not
// detected; the later write wins.
func Filename(basename, name string, v Variant) string {
	return basename + "_" + strings.ReplaceAll(name, " ", "_") + "_" + string(v) + ".png"
}

var namespace = uuid.MustParse("6f1c7d1e-3c1a-5b5e-9a77-2f0d3c4b8e10")

// ID derives a UUIDv5 from the same inputs as Filename, so the verification
// ID embedded in a certificate is reproducible.
func ID(basename, name string, v Variant) string {
	return uuid.NewSHA1(namespace, []byte(basename+"\x00"+name+"\x00"+string(v))).String()
}
