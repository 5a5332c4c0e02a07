package lifecycle

import "time"

// State is the current removal-lifecycle position of a tracked record.
type State string

const (
	StateActive                 State = "ACTIVE"
	StateWarning                State = "WARNING"
	StateMarkedForRemoval       State = "MARKED_FOR_REMOVAL"
	StateNotifiedPendingRemoval State = "NOTIFIED_PENDING_REMOVAL"
	StateRemoved                State = "REMOVED"
)

// Thresholds are the policy knobs of the removal lifecycle. They come from
// configuration, never hard-coded in the engine.
type Thresholds struct {
	// MinMinutes is the activity floor over the rolling window.
	MinMinutes int
	// GracePeriodDays is the minimum record age before it can ever be marked
	// for removal.
	GracePeriodDays int
	// RemovalWarningDays is how far in the future removal-due is set once a
	// record is marked.
	RemovalWarningDays int
	// WindowDays is the rolling lookback the aggregator fetches.
	WindowDays int
}

// Snapshot is the removal-relevant part of a lifecycle record as it stands
// before a reconciliation pass.
type Snapshot struct {
	CreatedAt       time.Time
	RemovalDue      *time.Time
	RemovalNotified bool
}

// Outcome is the next record state produced by one evaluation of the
// transition rule.
type Outcome struct {
	State           State
	RemovalDue      *time.Time
	RemovalNotified bool
}

// Decide evaluates the removal transition rule for one record against a
// freshly aggregated minute count. It is pure and idempotent: re-running it
// on an already-updated record with the same measurement reproduces the same
// outcome, which is what makes overlapping job runs safe.
//
// allowAutoMark distinguishes the bulk scheduler path (may set removal-due)
// from the per-subject on-demand path (only ever clears it).
func Decide(s Snapshot, minutes int, now time.Time, t Thresholds, allowAutoMark bool) Outcome {
	// Repair rather than crash on a notified flag without a deadline; the
	// transition rules below cannot construct that combination.
	if s.RemovalDue == nil {
		s.RemovalNotified = false
	}

	// Full recovery wins unconditionally: any accumulated grace is forfeited
	// and both removal fields clear in the same update.
	if minutes >= t.MinMinutes {
		return Outcome{State: StateActive}
	}

	// Records younger than the grace period are never marked, regardless of
	// how low the activity is.
	age := now.Sub(s.CreatedAt)
	if age < time.Duration(t.GracePeriodDays)*24*time.Hour {
		return Outcome{
			State:           StateWarning,
			RemovalDue:      s.RemovalDue,
			RemovalNotified: s.RemovalNotified,
		}
	}

	// An existing deadline is never silently pushed back: it is set exactly
	// once per low-activity episode.
	if s.RemovalDue != nil {
		state := StateMarkedForRemoval
		if s.RemovalNotified {
			state = StateNotifiedPendingRemoval
		}
		return Outcome{
			State:           state,
			RemovalDue:      s.RemovalDue,
			RemovalNotified: s.RemovalNotified,
		}
	}

	if !allowAutoMark {
		return Outcome{State: StateWarning}
	}

	due := now.Add(time.Duration(t.RemovalWarningDays) * 24 * time.Hour)
	return Outcome{
		State:           StateMarkedForRemoval,
		RemovalDue:      &due,
		RemovalNotified: false,
	}
}

// StateOf derives the display state of a record from its stored fields and
// the last aggregated minute count, without running a transition.
func StateOf(s Snapshot, minutes int, now time.Time, t Thresholds) State {
	if s.RemovalDue != nil {
		if s.RemovalNotified {
			return StateNotifiedPendingRemoval
		}
		return StateMarkedForRemoval
	}
	if minutes >= t.MinMinutes {
		return StateActive
	}
	return StateWarning
}
