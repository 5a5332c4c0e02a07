package constants

const (
	GetStatusByApiKey = `
	SELECT * FROM api_keys WHERE id = $1
	`

	CountEndorsementStates = `
	SELECT
		COUNT(*) FILTER (WHERE removal_due_at IS NULL)                            AS active,
		COUNT(*) FILTER (WHERE removal_due_at IS NOT NULL AND NOT removal_notified) AS marked,
		COUNT(*) FILTER (WHERE removal_due_at IS NOT NULL AND removal_notified)     AS notified
	FROM endorsement_activities
	`

	CountRosterStates = `
	SELECT
		COUNT(*) FILTER (WHERE removal_due_at IS NULL)                            AS active,
		COUNT(*) FILTER (WHERE removal_due_at IS NOT NULL AND NOT removal_notified) AS marked,
		COUNT(*) FILTER (WHERE removal_due_at IS NOT NULL AND removal_notified)     AS notified
	FROM roster_statuses
	`
)
