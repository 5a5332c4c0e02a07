package gorm

import "time"

// EndorsementActivity is the lifecycle record for one tier-1 endorsement. It
// is created when the subject first appears as a holder in the authoritative
// registry, mutated by the sync scheduler and operator actions, and deleted
// when removal is finalized or the registry entry disappears.
type EndorsementActivity struct {
	ID         string `gorm:"column:id;primaryKey;type:uuid"`
	RegistryID int64  `gorm:"column:registry_id;uniqueIndex"`
	SubjectCID int    `gorm:"column:subject_cid;index"`
	Position   string `gorm:"column:position"`

	// ActivityMinutes is the rolling-window sum, overwritten (never
	// incremented) on each reconciliation pass.
	ActivityMinutes int        `gorm:"column:activity_minutes"`
	LastActivityAt  *time.Time `gorm:"column:last_activity_at"`

	RemovalDueAt    *time.Time `gorm:"column:removal_due_at;index"`
	RemovalNotified bool       `gorm:"column:removal_notified;default:false"`

	LastSyncedAt time.Time `gorm:"column:last_synced_at;index"`

	// CreatedAt mirrors the registry's grant timestamp and drives the grace
	// period, so it is set explicitly, not by GORM.
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (EndorsementActivity) TableName() string {
	return "endorsement_activities"
}
