package repositories

import (
	"context"
	"fmt"
	"time"

	gormModels "infinite-experiment/kontrollburo/internal/models/gorm"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RosterStatusRepo owns the roster-membership lifecycle records, keyed by
// network CID.
type RosterStatusRepo struct {
	db *gorm.DB
}

// NewRosterStatusRepo creates a new roster status repository
func NewRosterStatusRepo(db *gorm.DB) *RosterStatusRepo {
	return &RosterStatusRepo{db: db}
}

// EnsureTracked creates a record the first time a CID appears on the roster.
// Created-at is set to now: a subject new to the roster starts a fresh grace
// period.
func (r *RosterStatusRepo) EnsureTracked(ctx context.Context, cid int, fir string, now time.Time) (bool, error) {
	var existing gormModels.RosterStatus
	err := r.db.WithContext(ctx).
		Where("subject_cid = ?", cid).
		First(&existing).Error

	if err == nil {
		return false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return false, fmt.Errorf("failed to query roster status: %w", err)
	}

	rec := gormModels.RosterStatus{
		ID:         uuid.NewString(),
		SubjectCID: cid,
		FIR:        fir,
		CreatedAt:  now,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return false, fmt.Errorf("failed to create roster status: %w", err)
	}
	return true, nil
}

// DeleteOrphans removes local records for CIDs no longer on the roster.
func (r *RosterStatusRepo) DeleteOrphans(ctx context.Context, validCIDs []int) (int64, error) {
	q := r.db.WithContext(ctx).Where("subject_cid IS NOT NULL")
	if len(validCIDs) > 0 {
		q = r.db.WithContext(ctx).Where("subject_cid NOT IN ?", validCIDs)
	}

	res := q.Delete(&gormModels.RosterStatus{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete orphaned roster statuses: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Stalest returns the limit records with the oldest last-synced timestamps.
func (r *RosterStatusRepo) Stalest(ctx context.Context, limit int) ([]gormModels.RosterStatus, error) {
	var recs []gormModels.RosterStatus
	err := r.db.WithContext(ctx).
		Order("last_synced_at ASC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to select stalest roster statuses: %w", err)
	}
	return recs, nil
}

// All returns every tracked roster status, stalest-first.
func (r *RosterStatusRepo) All(ctx context.Context) ([]gormModels.RosterStatus, error) {
	var recs []gormModels.RosterStatus
	err := r.db.WithContext(ctx).
		Order("last_synced_at ASC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list roster statuses: %w", err)
	}
	return recs, nil
}

// BySubject returns the roster record for one CID, or nil when untracked.
func (r *RosterStatusRepo) BySubject(ctx context.Context, cid int) (*gormModels.RosterStatus, error) {
	var rec gormModels.RosterStatus
	err := r.db.WithContext(ctx).Where("subject_cid = ?", cid).First(&rec).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch roster status: %w", err)
	}
	return &rec, nil
}

// ApplyRefresh persists one reconciliation pass for a roster record.
func (r *RosterStatusRepo) ApplyRefresh(ctx context.Context, id string, minutes int, lastActivity, removalDue *time.Time, notified bool, syncedAt time.Time) error {
	if removalDue == nil {
		notified = false
	}
	err := r.db.WithContext(ctx).
		Model(&gormModels.RosterStatus{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"activity_minutes": minutes,
			"last_activity_at": lastActivity,
			"removal_due_at":   removalDue,
			"removal_notified": notified,
			"last_synced_at":   syncedAt,
			"updated_at":       time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to apply roster refresh: %w", err)
	}
	return nil
}

// SetRemovalDue sets the removal deadline directly for an operator-initiated
// removal.
func (r *RosterStatusRepo) SetRemovalDue(ctx context.Context, id string, due time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&gormModels.RosterStatus{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"removal_due_at":   due,
			"removal_notified": false,
			"updated_at":       time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to set roster removal due: %w", err)
	}
	return nil
}

// PendingNotification returns marked-but-unnotified roster records.
func (r *RosterStatusRepo) PendingNotification(ctx context.Context) ([]gormModels.RosterStatus, error) {
	var recs []gormModels.RosterStatus
	err := r.db.WithContext(ctx).
		Where("removal_due_at IS NOT NULL AND removal_notified = ?", false).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending roster notifications: %w", err)
	}
	return recs, nil
}

// MarkNotified flips the notified flag after a successful notification.
func (r *RosterStatusRepo) MarkNotified(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).
		Model(&gormModels.RosterStatus{}).
		Where("id = ? AND removal_due_at IS NOT NULL", id).
		Update("removal_notified", true).Error
	if err != nil {
		return fmt.Errorf("failed to mark roster notified: %w", err)
	}
	return nil
}

// DueForFinalize returns notified roster records whose deadline has passed.
func (r *RosterStatusRepo) DueForFinalize(ctx context.Context, now time.Time) ([]gormModels.RosterStatus, error) {
	var recs []gormModels.RosterStatus
	err := r.db.WithContext(ctx).
		Where("removal_due_at IS NOT NULL AND removal_due_at < ? AND removal_notified = ?", now, true).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list roster records due for finalize: %w", err)
	}
	return recs, nil
}

// Delete removes one roster lifecycle record.
func (r *RosterStatusRepo) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&gormModels.RosterStatus{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete roster status: %w", err)
	}
	return nil
}
