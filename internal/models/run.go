package models

import "time"

// Run statuses.
const (
	RunQueued  = "QUEUED"
	RunRunning = "RUNNING"
	RunDone    = "DONE"
	RunFailed  = "FAILED"
)

// Run is one batch over a configuration file, queued through the API or
// started by the CLI.
type Run struct {
	ID           string     `json:"id"`
	ConfigPath   string     `json:"config_path"`
	Status       string     `json:"status"`
	ErrorText    string     `json:"error_text,omitempty"`
	Certificates int        `json:"certificates"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}
