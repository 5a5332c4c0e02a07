package jobs

import (
	"context"
	"log"
	"time"

	"infinite-experiment/kontrollburo/internal/constants"
	"infinite-experiment/kontrollburo/internal/db/repositories"
	"infinite-experiment/kontrollburo/internal/metrics"
)

// NotifyJob sends removal warnings for all records that carry a deadline but
// have not been told about it yet. The sync job runs the same pass after each
// batch, this job exists as a standalone sweep so a notifier outage cannot
// leave deadlines silent until the next sync.
type NotifyJob struct {
	trackers []Trackable
	history  *repositories.SyncHistoryRepo
	metrics  *metrics.MetricsRegistry
}

func NewNotifyJob(trackers []Trackable, history *repositories.SyncHistoryRepo, m *metrics.MetricsRegistry) *NotifyJob {
	return &NotifyJob{trackers: trackers, history: history, metrics: m}
}

// Run sweeps every tracker once.
func (j *NotifyJob) Run(ctx context.Context) error {
	start := time.Now()
	log.Printf("[NotifyJob] Starting notification sweep")

	for _, tracker := range j.trackers {
		runNotifications(ctx, tracker, j.metrics)
	}

	if j.history != nil {
		if err := j.history.RecordSync(ctx, constants.SyncEventNotify); err != nil {
			log.Printf("[NotifyJob] Failed to record sync history: %v", err)
		}
	}

	j.metrics.ObserveSyncJob("notify", time.Since(start))
	log.Printf("[NotifyJob] Notification sweep completed in %v", time.Since(start))
	return nil
}

// RunScheduled runs the sweep on a fixed interval until the context is done.
func (j *NotifyJob) RunScheduled(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[NotifyJob] Scheduled notification sweep stopped")
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				log.Printf("[NotifyJob] Sweep failed: %v", err)
			}
		}
	}
}

// runNotifications delivers pending warnings for one tracker. A failed send
// leaves the record un-notified so the next pass retries it.
func runNotifications(ctx context.Context, tracker Trackable, m *metrics.MetricsRegistry) {
	pending, err := tracker.PendingNotification(ctx)
	if err != nil {
		log.Printf("[NotifyJob] Failed to list pending %s notifications: %v", tracker.Name(), err)
		return
	}
	if len(pending) == 0 {
		return
	}

	log.Printf("[NotifyJob] %d %s record(s) awaiting notification", len(pending), tracker.Name())
	for _, s := range pending {
		if err := ctx.Err(); err != nil {
			return
		}
		if err := tracker.Notify(ctx, s); err != nil {
			log.Printf("[NotifyJob] Failed to notify CID %d (%s): %v", s.CID, s.Label, err)
			m.IncNotified(tracker.Name(), false)
			continue
		}
		m.IncNotified(tracker.Name(), true)
	}
}
