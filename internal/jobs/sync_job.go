package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"infinite-experiment/kontrollburo/internal/db/repositories"
	"infinite-experiment/kontrollburo/internal/metrics"
)

// SchedulerConfig are the per-run knobs of the sync engine.
type SchedulerConfig struct {
	BatchSize       int
	InterBatchPause time.Duration
}

// SyncJob drives one Trackable through the reconcile → refresh → notify
// cycle. Record processing is sequential on purpose: the session log source
// is a shared rate-limited dependency, and serializing calls is the simplest
// way to stay under its quota.
type SyncJob struct {
	tracker Trackable
	history *repositories.SyncHistoryRepo
	cfg     SchedulerConfig
	metrics *metrics.MetricsRegistry
}

// NewSyncJob creates a sync job for one tracker.
func NewSyncJob(tracker Trackable, history *repositories.SyncHistoryRepo, cfg SchedulerConfig, m *metrics.MetricsRegistry) *SyncJob {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	return &SyncJob{
		tracker: tracker,
		history: history,
		cfg:     cfg,
		metrics: m,
	}
}

// Run is the default mode: reconcile, then refresh the BatchSize stalest
// records. Designed for frequent, cheap, low-blast-radius invocations.
func (j *SyncJob) Run(ctx context.Context) error {
	start := time.Now()
	name := j.tracker.Name()
	log.Printf("[SyncJob:%s] Starting run at %s", name, start.Format(time.RFC3339))

	if err := j.tracker.Reconcile(ctx); err != nil {
		return fmt.Errorf("reconcile against registry failed, aborting run: %w", err)
	}

	subjects, err := j.tracker.Stalest(ctx, j.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("failed to select stalest records: %w", err)
	}

	refreshed, failed := j.refreshBatch(ctx, subjects)
	j.notifyPass(ctx)
	j.recordHistory(ctx)

	j.metrics.ObserveSyncJob(name, time.Since(start))
	log.Printf("[SyncJob:%s] Completed in %s. Refreshed: %d, Failed: %d",
		name, time.Since(start).Truncate(time.Millisecond), refreshed, failed)
	return nil
}

// RunFull refreshes every record in fixed-size batches with a pause between
// batches, for the occasional full sweep.
func (j *SyncJob) RunFull(ctx context.Context) error {
	start := time.Now()
	name := j.tracker.Name()
	log.Printf("[SyncJob:%s] Starting full run at %s", name, start.Format(time.RFC3339))

	if err := j.tracker.Reconcile(ctx); err != nil {
		return fmt.Errorf("reconcile against registry failed, aborting run: %w", err)
	}

	subjects, err := j.tracker.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to list records: %w", err)
	}

	var refreshed, failed int
	for i := 0; i < len(subjects); i += j.cfg.BatchSize {
		end := i + j.cfg.BatchSize
		if end > len(subjects) {
			end = len(subjects)
		}

		r, f := j.refreshBatch(ctx, subjects[i:end])
		refreshed += r
		failed += f

		if end < len(subjects) && j.cfg.InterBatchPause > 0 {
			select {
			case <-time.After(j.cfg.InterBatchPause):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	j.notifyPass(ctx)
	j.recordHistory(ctx)

	j.metrics.ObserveSyncJob(name, time.Since(start))
	log.Printf("[SyncJob:%s] Full run completed in %s. Refreshed: %d, Failed: %d",
		name, time.Since(start).Truncate(time.Millisecond), refreshed, failed)
	return nil
}

// RunSubject refreshes all records of one subject on demand. This path never
// auto-sets a removal deadline; it only ever clears one on recovery.
func (j *SyncJob) RunSubject(ctx context.Context, cid int) (int, error) {
	subjects, err := j.tracker.BySubject(ctx, cid)
	if err != nil {
		return 0, err
	}

	var refreshed int
	var lastErr error
	for _, s := range subjects {
		if err := j.tracker.Refresh(ctx, s, false); err != nil {
			log.Printf("[SyncJob:%s] On-demand refresh for CID %d (%s) failed: %v",
				j.tracker.Name(), cid, s.Label, err)
			j.metrics.IncRefreshError(j.tracker.Name())
			lastErr = err
			continue
		}
		refreshed++
		j.metrics.IncRefreshed(j.tracker.Name())
	}

	if refreshed == 0 && lastErr != nil {
		return 0, lastErr
	}
	return refreshed, nil
}

// refreshBatch refreshes each subject independently. A single failure never
// aborts the batch: the record keeps its old last-synced timestamp and is
// retried next run.
func (j *SyncJob) refreshBatch(ctx context.Context, subjects []Subject) (refreshed, failed int) {
	name := j.tracker.Name()
	for _, s := range subjects {
		if err := j.tracker.Refresh(ctx, s, true); err != nil {
			log.Printf("[SyncJob:%s] Refresh for CID %d (%s) failed, left unchanged: %v",
				name, s.CID, s.Label, err)
			j.metrics.IncRefreshError(name)
			failed++
			continue
		}
		j.metrics.IncRefreshed(name)
		refreshed++
	}
	return refreshed, failed
}

// notifyPass delivers pending removal warnings at the tail of a bulk run.
// Delivery failures are logged and retried by the next pass, never surfaced
// as a sync failure.
func (j *SyncJob) notifyPass(ctx context.Context) {
	runNotifications(ctx, j.tracker, j.metrics)
}

func (j *SyncJob) recordHistory(ctx context.Context) {
	if j.history == nil {
		return
	}
	if err := j.history.RecordSync(ctx, j.tracker.SyncEvent()); err != nil {
		log.Printf("[SyncJob:%s] Warning - failed to record sync history: %v", j.tracker.Name(), err)
	}
}

// shouldRunInitialSync checks whether the last recorded run is old enough to
// warrant an immediate run on startup.
func (j *SyncJob) shouldRunInitialSync(ctx context.Context, maxAge time.Duration) bool {
	if j.history == nil {
		return true
	}

	last, err := j.history.GetLastSyncTime(ctx, j.tracker.SyncEvent())
	if err != nil {
		log.Printf("[SyncJob:%s] Error checking last sync time: %v. Running anyway.", j.tracker.Name(), err)
		return true
	}
	if last == nil {
		return true
	}
	return time.Since(*last) > maxAge
}

// RunScheduled runs the job on a fixed interval until the context is
// cancelled. An external cron hitting cmd/syncrun is the preferred driver;
// this in-process loop covers deployments without one.
func (j *SyncJob) RunScheduled(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if j.shouldRunInitialSync(ctx, 4*time.Hour) {
		if err := j.Run(ctx); err != nil {
			log.Printf("[SyncJob:%s] Error in initial run: %v", j.tracker.Name(), err)
		}
	}

	for {
		select {
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				log.Printf("[SyncJob:%s] Error in scheduled run: %v", j.tracker.Name(), err)
			}
		case <-ctx.Done():
			log.Printf("[SyncJob:%s] Shutting down scheduled sync", j.tracker.Name())
			return
		}
	}
}
