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

// EndorsementTracker binds the generic engine to tier-1 endorsement
// lifecycle records.
type EndorsementTracker struct {
	repo       *repositories.EndorsementActivityRepo
	registry   providers.Registry
	sessions   providers.SessionLogSource
	notifier   providers.Notifier
	policies   *services.PolicyService
	thresholds lifecycle.Thresholds
	metrics    *metrics.MetricsRegistry
}

var _ Trackable = (*EndorsementTracker)(nil)

// NewEndorsementTracker creates the endorsement instantiation of the engine.
func NewEndorsementTracker(
	repo *repositories.EndorsementActivityRepo,
	registry providers.Registry,
	sessions providers.SessionLogSource,
	notifier providers.Notifier,
	policies *services.PolicyService,
	thresholds lifecycle.Thresholds,
	m *metrics.MetricsRegistry,
) *EndorsementTracker {
	return &EndorsementTracker{
		repo:       repo,
		registry:   registry,
		sessions:   sessions,
		notifier:   notifier,
		policies:   policies,
		thresholds: thresholds,
		metrics:    m,
	}
}

func (t *EndorsementTracker) Name() string      { return "endorsement" }
func (t *EndorsementTracker) SyncEvent() string { return constants.SyncEventEndorsements }

// Reconcile mirrors the registry's holder list into lifecycle records. A
// registry entry we do not track yet gets a record; a local record whose
// entry disappeared is an orphan and goes away. Divergence is data to
// resolve, not an error.
func (t *EndorsementTracker) Reconcile(ctx context.Context) error {
	entries, err := t.registry.GetTierOneEndorsements(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch registry snapshot: %w", err)
	}

	validIDs := make([]int64, 0, len(entries))
	var created int
	for _, entry := range entries {
		validIDs = append(validIDs, entry.ID)

		grantedAt := parseRegistryTime(entry.CreatedAt)
		wasNew, err := t.repo.EnsureTracked(ctx, entry.ID, entry.SubjectCID, entry.Position, grantedAt)
		if err != nil {
			log.Printf("[EndorsementTracker] Failed to track registry entry %d: %v", entry.ID, err)
			continue
		}
		if wasNew {
			created++
		}
	}

	deleted, err := t.repo.DeleteOrphans(ctx, validIDs)
	if err != nil {
		return fmt.Errorf("failed to delete orphaned records: %w", err)
	}
	if deleted > 0 {
		log.Printf("[EndorsementTracker] Deleted %d orphaned lifecycle records", deleted)
	}

	t.metrics.AddReconciled(t.Name(), "created", float64(created))
	t.metrics.AddReconciled(t.Name(), "deleted", float64(deleted))
	return nil
}

func (t *EndorsementTracker) Stalest(ctx context.Context, limit int) ([]Subject, error) {
	recs, err := t.repo.Stalest(ctx, limit)
	if err != nil {
		return nil, err
	}
	return t.toSubjects(recs), nil
}

func (t *EndorsementTracker) All(ctx context.Context) ([]Subject, error) {
	recs, err := t.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	return t.toSubjects(recs), nil
}

func (t *EndorsementTracker) BySubject(ctx context.Context, cid int) ([]Subject, error) {
	recs, err := t.repo.BySubject(ctx, cid)
	if err != nil {
		return nil, err
	}
	return t.toSubjects(recs), nil
}

// Refresh fetches the subject's sessions over the rolling window, aggregates
// them against the position's matching policy, runs the transition rule and
// persists everything in one update. An error from the session log (after
// the provider's own retries) leaves the record untouched: unchanged, not
// zero.
func (t *EndorsementTracker) Refresh(ctx context.Context, s Subject, allowAutoMark bool) error {
	rec, err := t.repo.ByID(ctx, s.RecordID)
	if err != nil {
		return err
	}

	now := time.Now()
	start := now.AddDate(0, 0, -t.thresholds.WindowDays)

	sessions, err := t.sessions.GetAtcSessions(ctx, rec.SubjectCID, start)
	if err != nil {
		return fmt.Errorf("session log unavailable for CID %d: %w", rec.SubjectCID, err)
	}

	// A descriptor we cannot parse degrades to matching nothing; the matcher
	// under-credits rather than the sync crashing.
	var sum activity.Summary
	desc, derr := activity.ParseDescriptor(rec.Position)
	if derr != nil {
		log.Printf("[EndorsementTracker] Unparseable position %q for record %s: %v", rec.Position, rec.ID, derr)
	} else {
		policy := t.policies.PolicyFor(ctx, desc.FIR())
		sum = activity.Aggregate(desc, sessions, policy)
	}

	out := lifecycle.Decide(lifecycle.Snapshot{
		CreatedAt:       rec.CreatedAt,
		RemovalDue:      rec.RemovalDueAt,
		RemovalNotified: rec.RemovalNotified,
	}, sum.Minutes, now, t.thresholds, allowAutoMark)

	return t.repo.ApplyRefresh(ctx, rec.ID, sum.Minutes, sum.LastActivityAt, out.RemovalDue, out.RemovalNotified, now)
}

func (t *EndorsementTracker) PendingNotification(ctx context.Context) ([]Subject, error) {
	recs, err := t.repo.PendingNotification(ctx)
	if err != nil {
		return nil, err
	}
	return t.toSubjects(recs), nil
}

// Notify delivers the removal warning for one record and flips the notified
// flag only on delivered success.
func (t *EndorsementTracker) Notify(ctx context.Context, s Subject) error {
	rec, err := t.repo.ByID(ctx, s.RecordID)
	if err != nil {
		return err
	}
	if rec.RemovalDueAt == nil {
		// Cleared between scan and delivery; nothing to announce.
		return nil
	}

	title := fmt.Sprintf("Your %s endorsement is at risk of removal", rec.Position)
	message := fmt.Sprintf(
		"Your activity on %s over the last %d days is below the required %d minutes. "+
			"Without renewed activity the endorsement will be removed on %s.",
		rec.Position, t.thresholds.WindowDays, t.thresholds.MinMinutes,
		rec.RemovalDueAt.Format("2006-01-02"))

	if err := t.notifier.Send(ctx, rec.SubjectCID, title, message); err != nil {
		return err
	}
	return t.repo.MarkNotified(ctx, rec.ID)
}

func (t *EndorsementTracker) DueForFinalize(ctx context.Context) ([]Subject, error) {
	recs, err := t.repo.DueForFinalize(ctx, time.Now())
	if err != nil {
		return nil, err
	}
	return t.toSubjects(recs), nil
}

// Finalize executes one removal after re-verifying that it is still
// warranted: the registry entry must still exist, activity must still be
// below the floor, and the grace eligibility must still hold. Last-second
// recovery always wins over a stale deadline.
func (t *EndorsementTracker) Finalize(ctx context.Context, s Subject) error {
	rec, err := t.repo.ByID(ctx, s.RecordID)
	if err != nil {
		return err
	}

	exists, err := t.registry.HasEndorsement(ctx, rec.RegistryID)
	if err != nil {
		return fmt.Errorf("failed to re-verify registry entry %d: %w", rec.RegistryID, err)
	}
	if !exists {
		log.Printf("[EndorsementTracker] Registry entry %d already gone, dropping stale record %s", rec.RegistryID, rec.ID)
		return t.repo.Delete(ctx, rec.ID)
	}

	now := time.Now()
	start := now.AddDate(0, 0, -t.thresholds.WindowDays)
	sessions, err := t.sessions.GetAtcSessions(ctx, rec.SubjectCID, start)
	if err != nil {
		return fmt.Errorf("session log unavailable during finalize for CID %d: %w", rec.SubjectCID, err)
	}

	var sum activity.Summary
	if desc, derr := activity.ParseDescriptor(rec.Position); derr == nil {
		policy := t.policies.PolicyFor(ctx, desc.FIR())
		sum = activity.Aggregate(desc, sessions, policy)
	}

	snapshot := lifecycle.Snapshot{
		CreatedAt:       rec.CreatedAt,
		RemovalDue:      rec.RemovalDueAt,
		RemovalNotified: rec.RemovalNotified,
	}
	out := lifecycle.Decide(snapshot, sum.Minutes, now, t.thresholds, true)

	if out.State == lifecycle.StateActive || out.State == lifecycle.StateWarning {
		// Recovered, or no longer grace-eligible: cancel the removal and
		// clear the deadline outright.
		log.Printf("[EndorsementTracker] CID %d recovered on %s before finalize, clearing deadline",
			rec.SubjectCID, rec.Position)
		t.metrics.IncRecovered(t.Name())
		return t.repo.ApplyRefresh(ctx, rec.ID, sum.Minutes, sum.LastActivityAt, nil, false, now)
	}

	if err := t.registry.DeleteEndorsement(ctx, rec.RegistryID); err != nil {
		return fmt.Errorf("registry removal of entry %d failed: %w", rec.RegistryID, err)
	}
	if err := t.repo.Delete(ctx, rec.ID); err != nil {
		return err
	}

	log.Printf("[EndorsementTracker] Removed endorsement %s of CID %d (registry entry %d)",
		rec.Position, rec.SubjectCID, rec.RegistryID)
	t.metrics.IncFinalized(t.Name())
	return nil
}

func (t *EndorsementTracker) toSubjects(recs []gormModels.EndorsementActivity) []Subject {
	subjects := make([]Subject, 0, len(recs))
	for _, rec := range recs {
		subjects = append(subjects, Subject{
			RecordID: rec.ID,
			CID:      rec.SubjectCID,
			Label:    rec.Position,
		})
	}
	return subjects
}

// parseRegistryTime parses the registry's created-at stamp, defaulting to
// now so a malformed stamp starts a fresh grace period instead of an
// immediately removal-eligible record.
func parseRegistryTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Now()
}
