package jobs

import (
	"context"
	"log"

	"infinite-experiment/kontrollburo/internal/config"
	"infinite-experiment/kontrollburo/internal/db/repositories"
	"infinite-experiment/kontrollburo/internal/metrics"
	"infinite-experiment/kontrollburo/internal/providers"
	"infinite-experiment/kontrollburo/internal/services"

	"gorm.io/gorm"
)

// Jobs bundles the background jobs so handlers can trigger runs on demand.
type Jobs struct {
	EndorsementSync *SyncJob
	RosterSync      *SyncJob
	Notify          *NotifyJob
	Finalize        *FinalizeJob
}

// InitializeJobs wires trackers, providers and jobs together, and starts the
// scheduled loops when enabled.
// The providers come from the caller so the session log's rate limiter is
// shared with the on-demand API path.
func InitializeJobs(
	ctx context.Context,
	cfg *config.Config,
	db *gorm.DB,
	registry providers.Registry,
	sessions providers.SessionLogSource,
	notifier providers.Notifier,
	policies *services.PolicyService,
	m *metrics.MetricsRegistry,
) *Jobs {
	historyRepo := repositories.NewSyncHistoryRepo(db)

	homeFIR := ""
	if len(cfg.PolicyFIRs) > 0 {
		homeFIR = cfg.PolicyFIRs[0]
	}

	endorsements := NewEndorsementTracker(
		repositories.NewEndorsementActivityRepo(db),
		registry, sessions, notifier, policies,
		cfg.Endorsement, m,
	)
	roster := NewRosterTracker(
		repositories.NewRosterStatusRepo(db),
		registry, sessions, notifier, policies,
		cfg.Roster, homeFIR, m,
	)

	schedCfg := SchedulerConfig{
		BatchSize:       cfg.BatchSize,
		InterBatchPause: cfg.InterBatchPause,
	}
	trackers := []Trackable{endorsements, roster}

	j := &Jobs{
		EndorsementSync: NewSyncJob(endorsements, historyRepo, schedCfg, m),
		RosterSync:      NewSyncJob(roster, historyRepo, schedCfg, m),
		Notify:          NewNotifyJob(trackers, historyRepo, m),
		Finalize:        NewFinalizeJob(trackers, historyRepo, m),
	}

	if cfg.JobsEnabled {
		go j.EndorsementSync.RunScheduled(ctx, cfg.SyncInterval)
		go j.RosterSync.RunScheduled(ctx, cfg.SyncInterval)
		go j.Finalize.RunScheduled(ctx, cfg.SyncInterval)
		log.Printf("[Jobs] Scheduled loops started, interval %s", cfg.SyncInterval)
	} else {
		log.Printf("[Jobs] Scheduled loops disabled, expecting external cron via cmd/syncrun")
	}

	return j
}
