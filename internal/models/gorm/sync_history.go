package gorm

import "time"

// SyncHistory records the last successful run per job event.
type SyncHistory struct {
	ID         uint       `gorm:"column:id;primaryKey;autoIncrement"`
	Event      string     `gorm:"column:event;uniqueIndex"`
	LastSyncAt *time.Time `gorm:"column:last_sync_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (SyncHistory) TableName() string {
	return "sync_history"
}
