package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"infinite-experiment/kontrollburo/internal/activity"
	"infinite-experiment/kontrollburo/internal/db/repositories"
	"infinite-experiment/kontrollburo/internal/models/dtos"
	gormModels "infinite-experiment/kontrollburo/internal/models/gorm"

	"gorm.io/gorm"
)

func seedEndorsement(db *gorm.DB, id string, registryID int64, cid int, syncedAt time.Time) {
	db.Create(&gormModels.EndorsementActivity{
		ID:           id,
		RegistryID:   registryID,
		SubjectCID:   cid,
		Position:     "EDDF_TWR",
		LastSyncedAt: syncedAt,
		CreatedAt:    time.Now().AddDate(0, 0, -200),
	})
}

func registryMirroring(db *gorm.DB) *mockRegistry {
	return &mockRegistry{
		getTierOneFunc: func(ctx context.Context) ([]dtos.TierOneEndorsement, error) {
			var recs []gormModels.EndorsementActivity
			db.Find(&recs)
			entries := make([]dtos.TierOneEndorsement, 0, len(recs))
			for _, r := range recs {
				entries = append(entries, dtos.TierOneEndorsement{
					ID:         r.RegistryID,
					SubjectCID: r.SubjectCID,
					Position:   r.Position,
					CreatedAt:  r.CreatedAt.Format(time.RFC3339),
				})
			}
			return entries, nil
		},
	}
}

func TestSyncJob_Run_RefreshesStalestFirst(t *testing.T) {
	db := setupTestDB(t)

	now := time.Now()
	seedEndorsement(db, "rec-fresh", 1, 1000001, now.Add(-1*time.Hour))
	seedEndorsement(db, "rec-stale", 2, 1000002, now.Add(-72*time.Hour))
	seedEndorsement(db, "rec-mid", 3, 1000003, now.Add(-24*time.Hour))

	var refreshedCIDs []int
	sessions := &mockSessionLog{
		getAtcSessionsFunc: func(ctx context.Context, cid int, start time.Time) ([]activity.Session, error) {
			refreshedCIDs = append(refreshedCIDs, cid)
			return sessionsWithMinutes("EDDF_TWR", 300), nil
		},
	}

	tracker := newTestTracker(db, registryMirroring(db), sessions, &mockNotifier{})
	job := NewSyncJob(tracker, repositories.NewSyncHistoryRepo(db), SchedulerConfig{BatchSize: 2}, nil)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(refreshedCIDs) != 2 {
		t.Fatalf("Expected 2 refreshes, got %d", len(refreshedCIDs))
	}
	if refreshedCIDs[0] != 1000002 || refreshedCIDs[1] != 1000003 {
		t.Errorf("Expected stalest-first order [1000002 1000003], got %v", refreshedCIDs)
	}

	// The fresh record kept its old sync timestamp
	var fresh gormModels.EndorsementActivity
	db.Where("id = ?", "rec-fresh").First(&fresh)
	if fresh.LastSyncedAt.After(now.Add(-30 * time.Minute)) {
		t.Errorf("Fresh record should not have been refreshed, last_synced_at = %v", fresh.LastSyncedAt)
	}
}

func TestSyncJob_Run_AbortsWhenRegistryUnreachable(t *testing.T) {
	db := setupTestDB(t)
	seedEndorsement(db, "rec-1", 1, 1000001, time.Time{})

	registry := &mockRegistry{
		getTierOneFunc: func(ctx context.Context) ([]dtos.TierOneEndorsement, error) {
			return nil, errors.New("registry unreachable")
		},
	}
	sessions := &mockSessionLog{
		getAtcSessionsFunc: func(ctx context.Context, cid int, start time.Time) ([]activity.Session, error) {
			t.Fatal("No refresh should run when reconciliation fails")
			return nil, nil
		},
	}

	tracker := newTestTracker(db, registry, sessions, &mockNotifier{})
	job := NewSyncJob(tracker, repositories.NewSyncHistoryRepo(db), SchedulerConfig{BatchSize: 10}, nil)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("Expected run to fail when the registry snapshot is unavailable")
	}

	// No record was deleted on the failed run
	var count int64
	db.Model(&gormModels.EndorsementActivity{}).Count(&count)
	if count != 1 {
		t.Errorf("Expected record untouched, %d remain", count)
	}
}

func TestSyncJob_Run_NotifiesNewlyMarkedRecords(t *testing.T) {
	db := setupTestDB(t)
	seedEndorsement(db, "rec-1", 1, 1000001, time.Time{})

	sessions := &mockSessionLog{
		getAtcSessionsFunc: func(ctx context.Context, cid int, start time.Time) ([]activity.Session, error) {
			return sessionsWithMinutes("EDDF_TWR", 10), nil
		},
	}
	notifier := &mockNotifier{}

	tracker := newTestTracker(db, registryMirroring(db), sessions, notifier)
	job := NewSyncJob(tracker, repositories.NewSyncHistoryRepo(db), SchedulerConfig{BatchSize: 10}, nil)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(notifier.sent) != 1 || notifier.sent[0] != 1000001 {
		t.Errorf("Expected warning sent to CID 1000001 in the same run, got %v", notifier.sent)
	}

	var rec gormModels.EndorsementActivity
	db.Where("id = ?", "rec-1").First(&rec)
	if rec.RemovalDueAt == nil {
		t.Fatal("Expected removal deadline set")
	}
	if !rec.RemovalNotified {
		t.Error("Expected record flagged as notified")
	}
}

func TestSyncJob_Run_FailedRefreshDoesNotAdvanceSyncTimestamp(t *testing.T) {
	db := setupTestDB(t)

	synced := time.Now().Add(-48 * time.Hour)
	seedEndorsement(db, "rec-bad", 1, 1000001, synced)
	seedEndorsement(db, "rec-good", 2, 1000002, synced.Add(time.Hour))

	sessions := &mockSessionLog{
		getAtcSessionsFunc: func(ctx context.Context, cid int, start time.Time) ([]activity.Session, error) {
			if cid == 1000001 {
				return nil, errors.New("upstream down")
			}
			return sessionsWithMinutes("EDDF_TWR", 300), nil
		},
	}

	tracker := newTestTracker(db, registryMirroring(db), sessions, &mockNotifier{})
	job := NewSyncJob(tracker, repositories.NewSyncHistoryRepo(db), SchedulerConfig{BatchSize: 10}, nil)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var bad, good gormModels.EndorsementActivity
	db.Where("id = ?", "rec-bad").First(&bad)
	db.Where("id = ?", "rec-good").First(&good)

	if !bad.LastSyncedAt.Equal(synced) {
		t.Errorf("Failed record should keep its sync timestamp, got %v", bad.LastSyncedAt)
	}
	if !good.LastSyncedAt.After(synced.Add(time.Hour)) {
		t.Errorf("Succeeding record should have advanced, got %v", good.LastSyncedAt)
	}
}

func TestSyncJob_Run_RecordsSyncHistory(t *testing.T) {
	db := setupTestDB(t)

	sessions := &mockSessionLog{
		getAtcSessionsFunc: func(ctx context.Context, cid int, start time.Time) ([]activity.Session, error) {
			return nil, nil
		},
	}
	historyRepo := repositories.NewSyncHistoryRepo(db)

	tracker := newTestTracker(db, registryMirroring(db), sessions, &mockNotifier{})
	job := NewSyncJob(tracker, historyRepo, SchedulerConfig{BatchSize: 10}, nil)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	last, err := historyRepo.GetLastSyncTime(context.Background(), tracker.SyncEvent())
	if err != nil {
		t.Fatalf("GetLastSyncTime failed: %v", err)
	}
	if last == nil {
		t.Fatal("Expected a sync history entry after a run")
	}
	if time.Since(*last) > time.Minute {
		t.Errorf("Expected a recent sync timestamp, got %v", *last)
	}
}

func TestSyncJob_RunSubject_NeverMarksButClears(t *testing.T) {
	db := setupTestDB(t)
	repo := repositories.NewEndorsementActivityRepo(db)

	// One inactive record past grace, one marked record that recovered
	seedEndorsement(db, "rec-low", 1, 1000001, time.Time{})
	due := time.Now().Add(5 * 24 * time.Hour)
	db.Create(&gormModels.EndorsementActivity{
		ID:           "rec-marked",
		RegistryID:   2,
		SubjectCID:   1000002,
		Position:     "EDDF_TWR",
		CreatedAt:    time.Now().AddDate(0, 0, -200),
		RemovalDueAt: &due,
	})

	sessions := &mockSessionLog{
		getAtcSessionsFunc: func(ctx context.Context, cid int, start time.Time) ([]activity.Session, error) {
			if cid == 1000001 {
				return nil, nil
			}
			return sessionsWithMinutes("EDDF_TWR", 400), nil
		},
	}

	tracker := newTestTracker(db, registryMirroring(db), sessions, &mockNotifier{})
	job := NewSyncJob(tracker, nil, SchedulerConfig{BatchSize: 10}, nil)

	// The inactive subject is refreshed but never marked on demand
	n, err := job.RunSubject(context.Background(), 1000001)
	if err != nil {
		t.Fatalf("RunSubject failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 record refreshed, got %d", n)
	}
	low, _ := repo.ByID(context.Background(), "rec-low")
	if low.RemovalDueAt != nil {
		t.Errorf("On-demand refresh must not set a deadline, got %v", low.RemovalDueAt)
	}

	// The recovered subject gets its deadline cleared on demand
	if _, err := job.RunSubject(context.Background(), 1000002); err != nil {
		t.Fatalf("RunSubject failed: %v", err)
	}
	marked, _ := repo.ByID(context.Background(), "rec-marked")
	if marked.RemovalDueAt != nil {
		t.Errorf("Expected recovery to clear the deadline, got %v", marked.RemovalDueAt)
	}
}

func TestNotifyJob_Run_SweepsAllTrackers(t *testing.T) {
	db := setupTestDB(t)

	due := time.Now().Add(20 * 24 * time.Hour)
	db.Create(&gormModels.EndorsementActivity{
		ID:           "rec-1",
		RegistryID:   1,
		SubjectCID:   1000001,
		Position:     "EDDF_TWR",
		CreatedAt:    time.Now().AddDate(0, 0, -200),
		RemovalDueAt: &due,
	})

	notifier := &mockNotifier{}
	tracker := newTestTracker(db, &mockRegistry{}, &mockSessionLog{}, notifier)
	job := NewNotifyJob([]Trackable{tracker}, repositories.NewSyncHistoryRepo(db), nil)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(notifier.sent) != 1 || notifier.sent[0] != 1000001 {
		t.Errorf("Expected one warning to CID 1000001, got %v", notifier.sent)
	}

	// A second sweep finds nothing pending
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	if len(notifier.sent) != 1 {
		t.Errorf("Expected no duplicate warning, got %v", notifier.sent)
	}
}

func TestFinalizeJob_Run_OnlyProcessesDueAndNotified(t *testing.T) {
	db := setupTestDB(t)

	pastDue := time.Now().Add(-24 * time.Hour)
	futureDue := time.Now().Add(24 * time.Hour)

	db.Create(&gormModels.EndorsementActivity{
		ID: "rec-due", RegistryID: 1, SubjectCID: 1000001, Position: "EDDF_TWR",
		CreatedAt: time.Now().AddDate(0, 0, -300), RemovalDueAt: &pastDue, RemovalNotified: true,
	})
	db.Create(&gormModels.EndorsementActivity{
		ID: "rec-future", RegistryID: 2, SubjectCID: 1000002, Position: "EDDF_TWR",
		CreatedAt: time.Now().AddDate(0, 0, -300), RemovalDueAt: &futureDue, RemovalNotified: true,
	})
	db.Create(&gormModels.EndorsementActivity{
		ID: "rec-unnotified", RegistryID: 3, SubjectCID: 1000003, Position: "EDDF_TWR",
		CreatedAt: time.Now().AddDate(0, 0, -300), RemovalDueAt: &pastDue, RemovalNotified: false,
	})

	var removed []int64
	registry := &mockRegistry{
		deleteEndorsementFunc: func(ctx context.Context, id int64) error {
			removed = append(removed, id)
			return nil
		},
	}
	sessions := &mockSessionLog{
		getAtcSessionsFunc: func(ctx context.Context, cid int, start time.Time) ([]activity.Session, error) {
			return nil, nil
		},
	}

	tracker := newTestTracker(db, registry, sessions, &mockNotifier{})
	job := NewFinalizeJob([]Trackable{tracker}, repositories.NewSyncHistoryRepo(db), nil)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(removed) != 1 || removed[0] != 1 {
		t.Errorf("Expected only registry entry 1 removed, got %v", removed)
	}

	var count int64
	db.Model(&gormModels.EndorsementActivity{}).Count(&count)
	if count != 2 {
		t.Errorf("Expected the two ineligible records to survive, got %d", count)
	}
}
