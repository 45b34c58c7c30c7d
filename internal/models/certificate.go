package models

import "time"

// IssuedCertificate is the registry entry behind a verification lookup.
type IssuedCertificate struct {
	ID              string    `json:"id"`
	RunID           string    `json:"run_id,omitempty"`
	Basename        string    `json:"basename"`
	ParticipantName string    `json:"participant_name"`
	Affiliation     string    `json:"affiliation,omitempty"`
	Variant         string    `json:"variant"`
	ObjectKey       string    `json:"object_key"`
	Storage         string    `json:"storage"`
	Location        string    `json:"location,omitempty"`
	IssuedAt        time.Time `json:"issued_at"`
}
