package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"infinite-experiment/kontrollburo/internal/activity"
	"infinite-experiment/kontrollburo/internal/db/repositories"
	"infinite-experiment/kontrollburo/internal/lifecycle"
	gormModels "infinite-experiment/kontrollburo/internal/models/gorm"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type mockRefresher struct {
	runSubjectFunc func(ctx context.Context, cid int) (int, error)
}

func (m *mockRefresher) RunSubject(ctx context.Context, cid int) (int, error) {
	if m.runSubjectFunc == nil {
		return 0, nil
	}
	return m.runSubjectFunc(ctx, cid)
}

type mockSessions struct {
	getAtcSessionsFunc func(ctx context.Context, cid int, start time.Time) ([]activity.Session, error)
}

func (m *mockSessions) GetAtcSessions(ctx context.Context, cid int, start time.Time) ([]activity.Session, error) {
	return m.getAtcSessionsFunc(ctx, cid, start)
}

func setupStatusTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&gormModels.EndorsementActivity{}, &gormModels.RosterStatus{}); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

func newStatusService(db *gorm.DB, sessions *mockSessions, endorsementRef, rosterRef Refresher) *ActivityStatusService {
	if endorsementRef == nil {
		endorsementRef = &mockRefresher{}
	}
	if rosterRef == nil {
		rosterRef = &mockRefresher{}
	}
	return NewActivityStatusService(
		repositories.NewEndorsementActivityRepo(db),
		repositories.NewRosterStatusRepo(db),
		sessions,
		endorsementRef,
		rosterRef,
		lifecycle.Thresholds{MinMinutes: 180, GracePeriodDays: 150, RemovalWarningDays: 31, WindowDays: 180},
		lifecycle.Thresholds{MinMinutes: 30, GracePeriodDays: 150, RemovalWarningDays: 31, WindowDays: 365},
		60,
	)
}

func TestActivityStatusService_Status(t *testing.T) {
	db := setupStatusTestDB(t)

	due := time.Now().Add(10 * 24 * time.Hour)
	db.Create(&gormModels.EndorsementActivity{
		ID: "e-1", RegistryID: 1, SubjectCID: 1000001, Position: "EDDF_TWR",
		ActivityMinutes: 300, CreatedAt: time.Now().AddDate(0, 0, -200),
	})
	db.Create(&gormModels.EndorsementActivity{
		ID: "e-2", RegistryID: 2, SubjectCID: 1000001, Position: "EDWW_W_CTR",
		ActivityMinutes: 40, CreatedAt: time.Now().AddDate(0, 0, -200),
		RemovalDueAt: &due, RemovalNotified: true,
	})
	db.Create(&gormModels.RosterStatus{
		ID: "r-1", SubjectCID: 1000001, FIR: "EDGG",
		ActivityMinutes: 55, CreatedAt: time.Now().AddDate(0, 0, -400),
	})

	svc := newStatusService(db, &mockSessions{}, nil, nil)

	resp, err := svc.Status(context.Background(), 1000001)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}

	if len(resp.Endorsements) != 2 {
		t.Fatalf("Expected 2 endorsement views, got %d", len(resp.Endorsements))
	}

	states := map[string]string{}
	for _, e := range resp.Endorsements {
		states[e.Position] = e.State
	}
	if states["EDDF_TWR"] != "ACTIVE" {
		t.Errorf("Expected EDDF_TWR ACTIVE, got %s", states["EDDF_TWR"])
	}
	if states["EDWW_W_CTR"] != "NOTIFIED_PENDING_REMOVAL" {
		t.Errorf("Expected EDWW_W_CTR NOTIFIED_PENDING_REMOVAL, got %s", states["EDWW_W_CTR"])
	}

	if resp.Roster == nil {
		t.Fatal("Expected roster view")
	}
	if resp.Roster.State != "ACTIVE" {
		t.Errorf("Expected roster ACTIVE, got %s", resp.Roster.State)
	}
}

func TestActivityStatusService_Status_UnknownSubject(t *testing.T) {
	db := setupStatusTestDB(t)
	svc := newStatusService(db, &mockSessions{}, nil, nil)

	resp, err := svc.Status(context.Background(), 999)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if len(resp.Endorsements) != 0 {
		t.Errorf("Expected empty endorsement list, got %d", len(resp.Endorsements))
	}
	if resp.Roster != nil {
		t.Error("Expected no roster view for an untracked subject")
	}
}

func TestActivityStatusService_ForceRefresh(t *testing.T) {
	db := setupStatusTestDB(t)

	endorsementRef := &mockRefresher{
		runSubjectFunc: func(ctx context.Context, cid int) (int, error) { return 2, nil },
	}
	rosterRef := &mockRefresher{
		runSubjectFunc: func(ctx context.Context, cid int) (int, error) { return 1, nil },
	}
	svc := newStatusService(db, &mockSessions{}, endorsementRef, rosterRef)

	resp, err := svc.ForceRefresh(context.Background(), 1000001)
	if err != nil {
		t.Fatalf("ForceRefresh failed: %v", err)
	}
	if resp.Refreshed != 3 {
		t.Errorf("Expected 3 records refreshed, got %d", resp.Refreshed)
	}
}

func TestActivityStatusService_ForceRefresh_PropagatesFailure(t *testing.T) {
	db := setupStatusTestDB(t)

	endorsementRef := &mockRefresher{
		runSubjectFunc: func(ctx context.Context, cid int) (int, error) {
			return 0, errors.New("session log down")
		},
	}
	svc := newStatusService(db, &mockSessions{}, endorsementRef, nil)

	if _, err := svc.ForceRefresh(context.Background(), 1000001); err == nil {
		t.Fatal("Expected error to propagate")
	}
}

func TestActivityStatusService_MarkEndorsementForRemoval(t *testing.T) {
	db := setupStatusTestDB(t)
	repo := repositories.NewEndorsementActivityRepo(db)

	db.Create(&gormModels.EndorsementActivity{
		ID: "e-1", RegistryID: 1, SubjectCID: 1000001, Position: "EDDF_TWR",
		CreatedAt: time.Now().AddDate(0, 0, -200),
	})

	svc := newStatusService(db, &mockSessions{}, nil, nil)

	resp, err := svc.MarkEndorsementForRemoval(context.Background(), "e-1")
	if err != nil {
		t.Fatalf("MarkEndorsementForRemoval failed: %v", err)
	}

	rec, _ := repo.ByID(context.Background(), "e-1")
	if rec.RemovalDueAt == nil {
		t.Fatal("Expected deadline persisted")
	}
	if !rec.RemovalDueAt.Equal(resp.RemovalDueAt) {
		t.Errorf("Response and stored deadline differ: %v vs %v", resp.RemovalDueAt, rec.RemovalDueAt)
	}

	// Marking twice is rejected, the existing deadline stands
	if _, err := svc.MarkEndorsementForRemoval(context.Background(), "e-1"); err == nil {
		t.Fatal("Expected second mark to be rejected")
	}
}

func TestActivityStatusService_WaitingHours(t *testing.T) {
	db := setupStatusTestDB(t)

	start := time.Now().AddDate(0, 0, -10)
	sessions := &mockSessions{
		getAtcSessionsFunc: func(ctx context.Context, cid int, s time.Time) ([]activity.Session, error) {
			return []activity.Session{
				{Callsign: "EDDF_TWR", Minutes: 90, Start: &start},
				{Callsign: "LFPG_GND", Minutes: 30, Start: &start},
			}, nil
		},
	}
	svc := newStatusService(db, sessions, nil, nil)

	resp, err := svc.WaitingHours(context.Background(), 1000001)
	if err != nil {
		t.Fatalf("WaitingHours failed: %v", err)
	}
	if resp.Hours != 2.0 {
		t.Errorf("Expected 2.0 hours, got %v", resp.Hours)
	}
	if resp.WindowDays != 60 {
		t.Errorf("Expected 60-day window, got %d", resp.WindowDays)
	}
}
