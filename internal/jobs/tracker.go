package jobs

import "context"

// Subject is an opaque handle on one lifecycle record as seen by the generic
// engine: enough to refresh, notify or finalize it without knowing which
// tracker it belongs to.
type Subject struct {
	RecordID string
	CID      int
	// Label is the tracker-specific display token: a position for
	// endorsements, a FIR for roster entries.
	Label string
}

// Trackable is the capability set the sync, notify and finalize jobs run
// against. Endorsement activity and roster inactivity both implement it, so
// one engine drives both lifecycles instead of two parallel ones.
type Trackable interface {
	Name() string
	SyncEvent() string

	// Reconcile aligns local lifecycle records with the authoritative
	// registry snapshot: create what is missing, delete what disappeared.
	// An error here aborts the whole run with records untouched.
	Reconcile(ctx context.Context) error

	Stalest(ctx context.Context, limit int) ([]Subject, error)
	All(ctx context.Context) ([]Subject, error)
	BySubject(ctx context.Context, cid int) ([]Subject, error)

	// Refresh fetches fresh activity for one record, runs the transition
	// rule and persists the outcome. A returned error means the record was
	// left unchanged (including last-synced, so it stays stalest).
	Refresh(ctx context.Context, s Subject, allowAutoMark bool) error

	PendingNotification(ctx context.Context) ([]Subject, error)
	Notify(ctx context.Context, s Subject) error

	DueForFinalize(ctx context.Context) ([]Subject, error)
	// Finalize re-verifies registry presence, fresh activity and grace
	// eligibility before executing the removal. Any re-check that no longer
	// holds cancels the removal instead.
	Finalize(ctx context.Context, s Subject) error
}
