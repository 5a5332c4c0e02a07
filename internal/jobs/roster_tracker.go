package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"infinite-experiment/kontrollburo/internal/activity"
	"infinite-experiment/kontrollburo/internal/constants"
	"infinite-experiment/kontrollburo/internal/db/repositories"
	"infinite-experiment/kontrollburo/internal/lifecycle"
	"infinite-experiment/kontrollburo/internal/metrics"
	gormModels "infinite-experiment/kontrollburo/internal/models/gorm"
	"infinite-experiment/kontrollburo/internal/providers"
	"infinite-experiment/kontrollburo/internal/services"
)

// RosterTracker binds the generic engine to roster-membership records. Where
// the endorsement tracker matches sessions against one position, any
// controlling activity inside the FIR keeps a roster membership alive.
type RosterTracker struct {
	repo       *repositories.RosterStatusRepo
	registry   providers.Registry
	sessions   providers.SessionLogSource
	notifier   providers.Notifier
	policies   *services.PolicyService
	thresholds lifecycle.Thresholds
	homeFIR    string
	metrics    *metrics.MetricsRegistry
}

var _ Trackable = (*RosterTracker)(nil)

// NewRosterTracker creates the roster instantiation of the engine.
func NewRosterTracker(
	repo *repositories.RosterStatusRepo,
	registry providers.Registry,
	sessions providers.SessionLogSource,
	notifier providers.Notifier,
	policies *services.PolicyService,
	thresholds lifecycle.Thresholds,
	homeFIR string,
	m *metrics.MetricsRegistry,
) *RosterTracker {
	return &RosterTracker{
		repo:       repo,
		registry:   registry,
		sessions:   sessions,
		notifier:   notifier,
		policies:   policies,
		thresholds: thresholds,
		homeFIR:    homeFIR,
		metrics:    m,
	}
}

func (t *RosterTracker) Name() string      { return "roster" }
func (t *RosterTracker) SyncEvent() string { return constants.SyncEventRoster }

// Reconcile mirrors the roster membership list into lifecycle records. A CID
// seen for the first time starts a fresh grace period.
func (t *RosterTracker) Reconcile(ctx context.Context) error {
	entries, err := t.registry.GetRoster(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch roster snapshot: %w", err)
	}

	now := time.Now()
	validCIDs := make([]int, 0, len(entries))
	var created int
	for _, entry := range entries {
		validCIDs = append(validCIDs, entry.SubjectCID)

		fir := entry.FIR
		if fir == "" {
			fir = t.homeFIR
		}
		wasNew, err := t.repo.EnsureTracked(ctx, entry.SubjectCID, fir, now)
		if err != nil {
			log.Printf("[RosterTracker] Failed to track CID %d: %v", entry.SubjectCID, err)
			continue
		}
		if wasNew {
			created++
		}
	}

	deleted, err := t.repo.DeleteOrphans(ctx, validCIDs)
	if err != nil {
		return fmt.Errorf("failed to delete orphaned roster statuses: %w", err)
	}
	if deleted > 0 {
		log.Printf("[RosterTracker] Deleted %d roster statuses no longer on the roster", deleted)
	}

	t.metrics.AddReconciled(t.Name(), "created", float64(created))
	t.metrics.AddReconciled(t.Name(), "deleted", float64(deleted))
	return nil
}

func (t *RosterTracker) Stalest(ctx context.Context, limit int) ([]Subject, error) {
	recs, err := t.repo.Stalest(ctx, limit)
	if err != nil {
		return nil, err
	}
	return t.toSubjects(recs), nil
}

func (t *RosterTracker) All(ctx context.Context) ([]Subject, error) {
	recs, err := t.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	return t.toSubjects(recs), nil
}

func (t *RosterTracker) BySubject(ctx context.Context, cid int) ([]Subject, error) {
	rec, err := t.repo.BySubject(ctx, cid)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	return t.toSubjects([]gormModels.RosterStatus{*rec}), nil
}

// Refresh aggregates all FIR-local sessions over the roster window and runs
// the shared transition rule.
func (t *RosterTracker) Refresh(ctx context.Context, s Subject, allowAutoMark bool) error {
	rec, err := t.repo.BySubject(ctx, s.CID)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("roster status for CID %d disappeared mid-run", s.CID)
	}

	now := time.Now()
	start := now.AddDate(0, 0, -t.thresholds.WindowDays)

	sessions, err := t.sessions.GetAtcSessions(ctx, rec.SubjectCID, start)
	if err != nil {
		return fmt.Errorf("session log unavailable for CID %d: %w", rec.SubjectCID, err)
	}

	policy := t.policies.PolicyFor(ctx, rec.FIR)
	sum := activity.AggregateFunc(sessions, func(callsign string) bool {
		return activity.MatchesFIR(callsign, policy.FIRPrefixes)
	})

	out := lifecycle.Decide(lifecycle.Snapshot{
		CreatedAt:       rec.CreatedAt,
		RemovalDue:      rec.RemovalDueAt,
		RemovalNotified: rec.RemovalNotified,
	}, sum.Minutes, now, t.thresholds, allowAutoMark)

	return t.repo.ApplyRefresh(ctx, rec.ID, sum.Minutes, sum.LastActivityAt, out.RemovalDue, out.RemovalNotified, now)
}

func (t *RosterTracker) PendingNotification(ctx context.Context) ([]Subject, error) {
	recs, err := t.repo.PendingNotification(ctx)
	if err != nil {
		return nil, err
	}
	return t.toSubjects(recs), nil
}

func (t *RosterTracker) Notify(ctx context.Context, s Subject) error {
	rec, err := t.repo.BySubject(ctx, s.CID)
	if err != nil {
		return err
	}
	if rec == nil || rec.RemovalDueAt == nil {
		return nil
	}

	title := "Your roster membership is at risk of removal"
	message := fmt.Sprintf(
		"You have controlled less than %d minutes in %s over the last %d days. "+
			"Without renewed activity you will be removed from the roster on %s.",
		t.thresholds.MinMinutes, rec.FIR, t.thresholds.WindowDays,
		rec.RemovalDueAt.Format("2006-01-02"))

	if err := t.notifier.Send(ctx, rec.SubjectCID, title, message); err != nil {
		return err
	}
	return t.repo.MarkNotified(ctx, rec.ID)
}

func (t *RosterTracker) DueForFinalize(ctx context.Context) ([]Subject, error) {
	recs, err := t.repo.DueForFinalize(ctx, time.Now())
	if err != nil {
		return nil, err
	}
	return t.toSubjects(recs), nil
}

// Finalize removes one subject from the roster after the same three
// re-checks the endorsement tracker applies.
func (t *RosterTracker) Finalize(ctx context.Context, s Subject) error {
	rec, err := t.repo.BySubject(ctx, s.CID)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}

	onRoster, err := t.registry.HasRosterEntry(ctx, rec.SubjectCID)
	if err != nil {
		return fmt.Errorf("failed to re-verify roster entry for CID %d: %w", rec.SubjectCID, err)
	}
	if !onRoster {
		log.Printf("[RosterTracker] CID %d already off the roster, dropping stale record", rec.SubjectCID)
		return t.repo.Delete(ctx, rec.ID)
	}

	now := time.Now()
	start := now.AddDate(0, 0, -t.thresholds.WindowDays)
	sessions, err := t.sessions.GetAtcSessions(ctx, rec.SubjectCID, start)
	if err != nil {
		return fmt.Errorf("session log unavailable during finalize for CID %d: %w", rec.SubjectCID, err)
	}

	policy := t.policies.PolicyFor(ctx, rec.FIR)
	sum := activity.AggregateFunc(sessions, func(callsign string) bool {
		return activity.MatchesFIR(callsign, policy.FIRPrefixes)
	})

	out := lifecycle.Decide(lifecycle.Snapshot{
		CreatedAt:       rec.CreatedAt,
		RemovalDue:      rec.RemovalDueAt,
		RemovalNotified: rec.RemovalNotified,
	}, sum.Minutes, now, t.thresholds, true)

	if out.State == lifecycle.StateActive || out.State == lifecycle.StateWarning {
		log.Printf("[RosterTracker] CID %d recovered before finalize, clearing deadline", rec.SubjectCID)
		t.metrics.IncRecovered(t.Name())
		return t.repo.ApplyRefresh(ctx, rec.ID, sum.Minutes, sum.LastActivityAt, nil, false, now)
	}

	if err := t.registry.RemoveFromRoster(ctx, rec.SubjectCID); err != nil {
		return fmt.Errorf("roster removal of CID %d failed: %w", rec.SubjectCID, err)
	}
	if err := t.repo.Delete(ctx, rec.ID); err != nil {
		return err
	}

	log.Printf("[RosterTracker] Removed CID %d from the roster", rec.SubjectCID)
	t.metrics.IncFinalized(t.Name())
	return nil
}

func (t *RosterTracker) toSubjects(recs []gormModels.RosterStatus) []Subject {
	subjects := make([]Subject, 0, len(recs))
	for _, rec := range recs {
		subjects = append(subjects, Subject{
			RecordID: rec.ID,
			CID:      rec.SubjectCID,
			Label:    rec.FIR,
		})
	}
	return subjects
}
