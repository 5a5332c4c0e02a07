package jobs

import (
	"context"
	"log"
	"time"

	"infinite-experiment/kontrollburo/internal/constants"
	"infinite-experiment/kontrollburo/internal/db/repositories"
	"infinite-experiment/kontrollburo/internal/metrics"
)

// FinalizeJob executes removals whose notified deadline has passed. Each
// candidate is re-verified against the registry and the session log right
// before removal, so activity that arrived after the last sync still saves
// the record.
type FinalizeJob struct {
	trackers []Trackable
	history  *repositories.SyncHistoryRepo
	metrics  *metrics.MetricsRegistry
}

func NewFinalizeJob(trackers []Trackable, history *repositories.SyncHistoryRepo, m *metrics.MetricsRegistry) *FinalizeJob {
	return &FinalizeJob{trackers: trackers, history: history, metrics: m}
}

// Run processes all due records across every tracker. A failure on one record
// leaves it due, it will be retried on the next run.
func (j *FinalizeJob) Run(ctx context.Context) error {
	start := time.Now()
	log.Printf("[FinalizeJob] Starting removal pass")

	for _, tracker := range j.trackers {
		due, err := tracker.DueForFinalize(ctx)
		if err != nil {
			log.Printf("[FinalizeJob] Failed to list due %s records: %v", tracker.Name(), err)
			continue
		}
		if len(due) == 0 {
			continue
		}

		log.Printf("[FinalizeJob] %d %s record(s) past deadline", len(due), tracker.Name())
		for _, s := range due {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := tracker.Finalize(ctx, s); err != nil {
				log.Printf("[FinalizeJob] Failed to finalize CID %d (%s): %v", s.CID, s.Label, err)
				continue
			}
		}
	}

	if j.history != nil {
		if err := j.history.RecordSync(ctx, constants.SyncEventFinalize); err != nil {
			log.Printf("[FinalizeJob] Failed to record sync history: %v", err)
		}
	}

	j.metrics.ObserveSyncJob("finalize", time.Since(start))
	log.Printf("[FinalizeJob] Removal pass completed in %v", time.Since(start))
	return nil
}

// RunScheduled runs the removal pass on a fixed interval until the context is
// done.
func (j *FinalizeJob) RunScheduled(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[FinalizeJob] Scheduled removal pass stopped")
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				log.Printf("[FinalizeJob] Removal pass failed: %v", err)
			}
		}
	}
}
