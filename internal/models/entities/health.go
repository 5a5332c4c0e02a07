package entities

import "time"

type ServiceStatus struct {
	Status  string `json:"status"`
	Details string `json:"details"`
}

type HealthCheckResponse struct {
	Status   string                   `json:"status"`
	Services map[string]ServiceStatus `json:"services"`
	UpSince  time.Time                `json:"up_since"`
	Uptime   string                   `json:"uptime"`
}

// StateCounts is the per-state record tally shown on the health surface.
type StateCounts struct {
	Active   int `db:"active" json:"active"`
	Marked   int `db:"marked" json:"marked"`
	Notified int `db:"notified" json:"notified"`
}
