package services

import (
	"context"
	"fmt"
	"time"

	"infinite-experiment/kontrollburo/internal/activity"
	"infinite-experiment/kontrollburo/internal/db/repositories"
	"infinite-experiment/kontrollburo/internal/lifecycle"
	"infinite-experiment/kontrollburo/internal/models/dtos"
	"infinite-experiment/kontrollburo/internal/providers"
)

// Refresher triggers an on-demand sync for one subject. Implemented by the
// sync jobs; declared here so the service does not depend on the jobs
// package.
type Refresher interface {
	RunSubject(ctx context.Context, cid int) (int, error)
}

// ActivityStatusService serves the read side of the lifecycle records plus
// the operator actions that act on individual subjects.
type ActivityStatusService struct {
	endorsements *repositories.EndorsementActivityRepo
	roster       *repositories.RosterStatusRepo
	sessions     providers.SessionLogSource

	endorsementRefresher Refresher
	rosterRefresher      Refresher

	endorsementThresholds lifecycle.Thresholds
	rosterThresholds      lifecycle.Thresholds
	waitingWindowDays     int
}

// NewActivityStatusService wires the read-side service.
func NewActivityStatusService(
	endorsements *repositories.EndorsementActivityRepo,
	roster *repositories.RosterStatusRepo,
	sessions providers.SessionLogSource,
	endorsementRefresher Refresher,
	rosterRefresher Refresher,
	endorsementThresholds lifecycle.Thresholds,
	rosterThresholds lifecycle.Thresholds,
	waitingWindowDays int,
) *ActivityStatusService {
	return &ActivityStatusService{
		endorsements:          endorsements,
		roster:                roster,
		sessions:              sessions,
		endorsementRefresher:  endorsementRefresher,
		rosterRefresher:       rosterRefresher,
		endorsementThresholds: endorsementThresholds,
		rosterThresholds:      rosterThresholds,
		waitingWindowDays:     waitingWindowDays,
	}
}

// Status returns everything tracked for one subject: all endorsement records
// plus the roster membership, each with a derived display state.
func (s *ActivityStatusService) Status(ctx context.Context, cid int) (*dtos.SubjectStatusResponse, error) {
	now := time.Now()

	recs, err := s.endorsements.BySubject(ctx, cid)
	if err != nil {
		return nil, fmt.Errorf("failed to load endorsement records: %w", err)
	}

	resp := &dtos.SubjectStatusResponse{
		SubjectCID:   cid,
		Endorsements: make([]dtos.EndorsementStatus, 0, len(recs)),
	}
	for _, rec := range recs {
		state := lifecycle.StateOf(lifecycle.Snapshot{
			CreatedAt:       rec.CreatedAt,
			RemovalDue:      rec.RemovalDueAt,
			RemovalNotified: rec.RemovalNotified,
		}, rec.ActivityMinutes, now, s.endorsementThresholds)

		resp.Endorsements = append(resp.Endorsements, dtos.EndorsementStatus{
			Position:        rec.Position,
			ActivityMinutes: rec.ActivityMinutes,
			LastActivityAt:  rec.LastActivityAt,
			State:           string(state),
			RemovalDueAt:    rec.RemovalDueAt,
		})
	}

	rosterRec, err := s.roster.BySubject(ctx, cid)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster status: %w", err)
	}
	if rosterRec != nil {
		state := lifecycle.StateOf(lifecycle.Snapshot{
			CreatedAt:       rosterRec.CreatedAt,
			RemovalDue:      rosterRec.RemovalDueAt,
			RemovalNotified: rosterRec.RemovalNotified,
		}, rosterRec.ActivityMinutes, now, s.rosterThresholds)

		resp.Roster = &dtos.RosterStatusView{
			FIR:             rosterRec.FIR,
			ActivityMinutes: rosterRec.ActivityMinutes,
			LastActivityAt:  rosterRec.LastActivityAt,
			State:           string(state),
			RemovalDueAt:    rosterRec.RemovalDueAt,
		}
	}

	return resp, nil
}

// ForceRefresh re-syncs all records of one subject right now, ahead of the
// scheduler. The on-demand path never sets a removal deadline.
func (s *ActivityStatusService) ForceRefresh(ctx context.Context, cid int) (*dtos.RefreshResponse, error) {
	var refreshed int

	n, err := s.endorsementRefresher.RunSubject(ctx, cid)
	if err != nil {
		return nil, fmt.Errorf("endorsement refresh failed: %w", err)
	}
	refreshed += n

	n, err = s.rosterRefresher.RunSubject(ctx, cid)
	if err != nil {
		return nil, fmt.Errorf("roster refresh failed: %w", err)
	}
	refreshed += n

	return &dtos.RefreshResponse{
		SubjectCID: cid,
		Refreshed:  refreshed,
		Message:    fmt.Sprintf("Refreshed %d record(s)", refreshed),
	}, nil
}

// MarkEndorsementForRemoval sets a removal deadline on one endorsement
// record by operator decision, bypassing the activity rule. The deadline
// still goes through the normal notify and finalize flow, so a recovery
// before the deadline cancels it.
func (s *ActivityStatusService) MarkEndorsementForRemoval(ctx context.Context, recordID string) (*dtos.MarkRemovalResponse, error) {
	rec, err := s.endorsements.ByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if rec.RemovalDueAt != nil {
		return nil, fmt.Errorf("record %s already carries a removal deadline", recordID)
	}

	due := time.Now().Add(time.Duration(s.endorsementThresholds.RemovalWarningDays) * 24 * time.Hour)
	if err := s.endorsements.SetRemovalDue(ctx, rec.ID, due); err != nil {
		return nil, err
	}
	return &dtos.MarkRemovalResponse{RecordID: rec.ID, RemovalDueAt: due}, nil
}

// MarkRosterForRemoval sets a removal deadline on a subject's roster
// membership by operator decision.
func (s *ActivityStatusService) MarkRosterForRemoval(ctx context.Context, cid int) (*dtos.MarkRemovalResponse, error) {
	rec, err := s.roster.BySubject(ctx, cid)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("CID %d is not on the roster", cid)
	}
	if rec.RemovalDueAt != nil {
		return nil, fmt.Errorf("CID %d already carries a removal deadline", cid)
	}

	due := time.Now().Add(time.Duration(s.rosterThresholds.RemovalWarningDays) * 24 * time.Hour)
	if err := s.roster.SetRemovalDue(ctx, rec.ID, due); err != nil {
		return nil, err
	}
	return &dtos.MarkRemovalResponse{RecordID: rec.ID, RemovalDueAt: due}, nil
}

// WaitingHours returns a subject's total controlling hours over the
// waiting-list window. Counts every connection regardless of position; the
// subject is not on the roster yet, so no matching policy applies.
func (s *ActivityStatusService) WaitingHours(ctx context.Context, cid int) (*dtos.WaitingHoursResponse, error) {
	start := time.Now().AddDate(0, 0, -s.waitingWindowDays)
	sessions, err := s.sessions.GetAtcSessions(ctx, cid, start)
	if err != nil {
		return nil, fmt.Errorf("session log unavailable for CID %d: %w", cid, err)
	}

	sum := activity.AggregateFunc(sessions, func(string) bool { return true })
	return &dtos.WaitingHoursResponse{
		SubjectCID: cid,
		WindowDays: s.waitingWindowDays,
		Hours:      float64(sum.Minutes) / 60,
	}, nil
}
