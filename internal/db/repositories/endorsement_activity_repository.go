package repositories

import (
	"context"
	"fmt"
	"time"

	gormModels "infinite-experiment/kontrollburo/internal/models/gorm"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EndorsementActivityRepo owns the endorsement lifecycle records. Every
// mutation is scoped to a single record; no cross-record transactions are
// needed, which is what makes interrupted runs safe.
type EndorsementActivityRepo struct {
	db *gorm.DB
}

// NewEndorsementActivityRepo creates a new endorsement activity repository
func NewEndorsementActivityRepo(db *gorm.DB) *EndorsementActivityRepo {
	return &EndorsementActivityRepo{db: db}
}

// EnsureTracked creates a lifecycle record for a registry entry we do not
// track yet. New records get a zero last-synced timestamp so they are
// immediately stale for syncing, and the registry's grant time as created-at
// so they are not immediately eligible for removal.
func (r *EndorsementActivityRepo) EnsureTracked(ctx context.Context, registryID int64, cid int, position string, grantedAt time.Time) (bool, error) {
	var existing gormModels.EndorsementActivity
	err := r.db.WithContext(ctx).
		Where("registry_id = ?", registryID).
		First(&existing).Error

	if err == nil {
		return false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return false, fmt.Errorf("failed to query tracked endorsement: %w", err)
	}

	rec := gormModels.EndorsementActivity{
		ID:         uuid.NewString(),
		RegistryID: registryID,
		SubjectCID: cid,
		Position:   position,
		CreatedAt:  grantedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return false, fmt.Errorf("failed to create lifecycle record: %w", err)
	}
	return true, nil
}

// DeleteOrphans removes local records whose registry entry has disappeared.
// Returns the number of records deleted.
func (r *EndorsementActivityRepo) DeleteOrphans(ctx context.Context, validRegistryIDs []int64) (int64, error) {
	q := r.db.WithContext(ctx).Where("registry_id IS NOT NULL")
	if len(validRegistryIDs) > 0 {
		q = r.db.WithContext(ctx).Where("registry_id NOT IN ?", validRegistryIDs)
	}

	res := q.Delete(&gormModels.EndorsementActivity{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete orphaned records: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Stalest returns the limit records with the oldest last-synced timestamps.
func (r *EndorsementActivityRepo) Stalest(ctx context.Context, limit int) ([]gormModels.EndorsementActivity, error) {
	var recs []gormModels.EndorsementActivity
	err := r.db.WithContext(ctx).
		Order("last_synced_at ASC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to select stalest records: %w", err)
	}
	return recs, nil
}

// All returns every tracked record ordered stalest-first.
func (r *EndorsementActivityRepo) All(ctx context.Context) ([]gormModels.EndorsementActivity, error) {
	var recs []gormModels.EndorsementActivity
	err := r.db.WithContext(ctx).
		Order("last_synced_at ASC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return recs, nil
}

// BySubject returns all records for one subject.
func (r *EndorsementActivityRepo) BySubject(ctx context.Context, cid int) ([]gormModels.EndorsementActivity, error) {
	var recs []gormModels.EndorsementActivity
	err := r.db.WithContext(ctx).
		Where("subject_cid = ?", cid).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list records for subject %d: %w", cid, err)
	}
	return recs, nil
}

// ByID returns one record by primary key.
func (r *EndorsementActivityRepo) ByID(ctx context.Context, id string) (*gormModels.EndorsementActivity, error) {
	var rec gormModels.EndorsementActivity
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("lifecycle record not found: %s", id)
		}
		return nil, fmt.Errorf("failed to fetch record: %w", err)
	}
	return &rec, nil
}

// ApplyRefresh persists the outcome of one reconciliation pass in a single
// update: new minute total, last activity, removal fields and the advanced
// last-synced timestamp. Clearing removal-due also clears removal-notified
// here because both travel in the same write.
func (r *EndorsementActivityRepo) ApplyRefresh(ctx context.Context, id string, minutes int, lastActivity, removalDue *time.Time, notified bool, syncedAt time.Time) error {
	if removalDue == nil {
		notified = false
	}
	err := r.db.WithContext(ctx).
		Model(&gormModels.EndorsementActivity{}).
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
		return fmt.Errorf("failed to apply refresh: %w", err)
	}
	return nil
}

// SetRemovalDue sets the removal deadline directly, bypassing threshold
// checks. Operator-initiated removals enter the notify/finalize pipeline
// through here.
func (r *EndorsementActivityRepo) SetRemovalDue(ctx context.Context, id string, due time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&gormModels.EndorsementActivity{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"removal_due_at":   due,
			"removal_notified": false,
			"updated_at":       time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to set removal due: %w", err)
	}
	return nil
}

// PendingNotification returns records marked for removal whose subject has
// not been notified yet.
func (r *EndorsementActivityRepo) PendingNotification(ctx context.Context) ([]gormModels.EndorsementActivity, error) {
	var recs []gormModels.EndorsementActivity
	err := r.db.WithContext(ctx).
		Where("removal_due_at IS NOT NULL AND removal_notified = ?", false).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending notifications: %w", err)
	}
	return recs, nil
}

// MarkNotified flips the notified flag after a successful notification.
func (r *EndorsementActivityRepo) MarkNotified(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).
		Model(&gormModels.EndorsementActivity{}).
		Where("id = ? AND removal_due_at IS NOT NULL", id).
		Update("removal_notified", true).Error
	if err != nil {
		return fmt.Errorf("failed to mark notified: %w", err)
	}
	return nil
}

// DueForFinalize returns records whose deadline has passed and whose subject
// was notified.
func (r *EndorsementActivityRepo) DueForFinalize(ctx context.Context, now time.Time) ([]gormModels.EndorsementActivity, error) {
	var recs []gormModels.EndorsementActivity
	err := r.db.WithContext(ctx).
		Where("removal_due_at IS NOT NULL AND removal_due_at < ? AND removal_notified = ?", now, true).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list records due for finalize: %w", err)
	}
	return recs, nil
}

// Delete removes a lifecycle record after finalized removal or when it has
// gone stale against the registry.
func (r *EndorsementActivityRepo) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&gormModels.EndorsementActivity{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}
