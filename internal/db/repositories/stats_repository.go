package repositories

import (
	"context"

	"infinite-experiment/kontrollburo/internal/constants"
	"infinite-experiment/kontrollburo/internal/models/entities"

	"github.com/jmoiron/sqlx"
)

// StatsRepo serves the per-state record tallies shown on the health surface.
// Raw SQL against the shared sqlx handle; these are read-only aggregates.
type StatsRepo struct {
	db *sqlx.DB
}

func NewStatsRepo(db *sqlx.DB) *StatsRepo {
	return &StatsRepo{db}
}

func (r *StatsRepo) EndorsementStateCounts(ctx context.Context) (*entities.StateCounts, error) {
	var counts entities.StateCounts
	if err := r.db.GetContext(ctx, &counts, constants.CountEndorsementStates); err != nil {
		return nil, err
	}
	return &counts, nil
}

func (r *StatsRepo) RosterStateCounts(ctx context.Context) (*entities.StateCounts, error) {
	var counts entities.StateCounts
	if err := r.db.GetContext(ctx, &counts, constants.CountRosterStates); err != nil {
		return nil, err
	}
	return &counts, nil
}
