package repositories

import (
	"context"
	"time"

	gormModels "infinite-experiment/kontrollburo/internal/models/gorm"

	"gorm.io/gorm"
)

// SyncHistoryRepo records the last successful run per job event.
type SyncHistoryRepo struct {
	db *gorm.DB
}

// NewSyncHistoryRepo creates a new sync history repository
func NewSyncHistoryRepo(db *gorm.DB) *SyncHistoryRepo {
	return &SyncHistoryRepo{db: db}
}

// RecordSync upserts the last-run timestamp for one event.
func (r *SyncHistoryRepo) RecordSync(ctx context.Context, event string) error {
	now := time.Now()

	history := gormModels.SyncHistory{
		Event:      event,
		LastSyncAt: &now,
	}

	err := r.db.WithContext(ctx).
		Where("event = ?", event).
		Assign(gormModels.SyncHistory{LastSyncAt: &now}).
		FirstOrCreate(&history).Error

	return err
}

// GetLastSyncTime returns when the event last ran, or nil if it never has.
// Used to skip redundant startup runs after a restart.
func (r *SyncHistoryRepo) GetLastSyncTime(ctx context.Context, event string) (*time.Time, error) {
	var history gormModels.SyncHistory

	err := r.db.WithContext(ctx).
		Where("event = ?", event).
		First(&history).Error

	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}

	return history.LastSyncAt, nil
}
