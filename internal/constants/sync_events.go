package constants

// Sync history event names, one per scheduled job.
const (
	SyncEventEndorsements = "ENDORSEMENT_ACTIVITY_SYNC"
	SyncEventRoster       = "ROSTER_ACTIVITY_SYNC"
	SyncEventNotify       = "REMOVAL_NOTIFY"
	SyncEventFinalize     = "REMOVAL_FINALIZE"
)
