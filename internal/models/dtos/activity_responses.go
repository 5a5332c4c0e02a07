package dtos

import "time"

// EndorsementStatus is the per-position lifecycle view consumed by
// user-facing pages.
type EndorsementStatus struct {
	Position        string     `json:"position"`
	ActivityMinutes int        `json:"activity_minutes"`
	LastActivityAt  *time.Time `json:"last_activity_at,omitempty"`
	State           string     `json:"state"`
	RemovalDueAt    *time.Time `json:"removal_due_at,omitempty"`
}

// SubjectStatusResponse aggregates everything we track for one subject.
type SubjectStatusResponse struct {
	SubjectCID   int                 `json:"cid"`
	Endorsements []EndorsementStatus `json:"endorsements"`
	Roster       *RosterStatusView   `json:"roster,omitempty"`
}

// RosterStatusView is the roster-membership lifecycle view for one subject.
type RosterStatusView struct {
	FIR             string     `json:"fir"`
	ActivityMinutes int        `json:"activity_minutes"`
	LastActivityAt  *time.Time `json:"last_activity_at,omitempty"`
	State           string     `json:"state"`
	RemovalDueAt    *time.Time `json:"removal_due_at,omitempty"`
}

// WaitingHoursResponse is the rolling-window controller hours read used for
// waiting-list priority.
type WaitingHoursResponse struct {
	SubjectCID int     `json:"cid"`
	WindowDays int     `json:"window_days"`
	Hours      float64 `json:"hours"`
}

// RefreshResponse reports the outcome of an operator-triggered refresh.
type RefreshResponse struct {
	SubjectCID int    `json:"cid"`
	Refreshed  int    `json:"refreshed"`
	Message    string `json:"message"`
}

// MarkRemovalResponse reports an operator-initiated mark-for-removal.
type MarkRemovalResponse struct {
	RecordID     string    `json:"record_id"`
	RemovalDueAt time.Time `json:"removal_due_at"`
}

// JobRunResponse reports a manually triggered job run.
type JobRunResponse struct {
	Job          string `json:"job"`
	TriggeredBy  string `json:"triggered_by"`
	TriggeredAt  string `json:"triggered_at"`
	CompletedAt  string `json:"completed_at"`
	ResponseTime string `json:"response_time"`
}
