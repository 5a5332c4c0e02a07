package gorm

import "time"

// RosterStatus is the lifecycle record for one roster membership, keyed by
// network CID. Created the first time a CID is observed on the roster.
type RosterStatus struct {
	ID         string `gorm:"column:id;primaryKey;type:uuid"`
	SubjectCID int    `gorm:"column:subject_cid;uniqueIndex"`
	FIR        string `gorm:"column:fir"`

	ActivityMinutes int        `gorm:"column:activity_minutes"`
	LastActivityAt  *time.Time `gorm:"column:last_activity_at"`

	RemovalDueAt    *time.Time `gorm:"column:removal_due_at;index"`
	RemovalNotified bool       `gorm:"column:removal_notified;default:false"`

	LastSyncedAt time.Time `gorm:"column:last_synced_at;index"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (RosterStatus) TableName() string {
	return "roster_statuses"
}
