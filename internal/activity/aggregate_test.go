package activity

import (
	"testing"
	"time"
)

func ts(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestAggregate_TowerScenario(t *testing.T) {
	policy := DefaultPolicy()
	desc := PositionDescriptor{Airport: "EDDF", Category: CategoryTower}

	sessions := []Session{
		{Callsign: "EDDF_TWR", Minutes: 60, Start: ts("2026-05-01T10:00:00Z")},
		{Callsign: "EDDF_APP", Minutes: 90, Start: ts("2026-06-01T10:00:00Z")},
		{Callsign: "EDDH_TWR", Minutes: 30, Start: ts("2026-07-01T10:00:00Z")},
	}

	sum := Aggregate(desc, sessions, policy)
	if sum.Minutes != 150 {
		t.Errorf("Expected 150 minutes, got %d", sum.Minutes)
	}
	if sum.LastActivityAt == nil || !sum.LastActivityAt.Equal(*ts("2026-06-01T10:00:00Z")) {
		t.Errorf("Expected last activity 2026-06-01, got %v", sum.LastActivityAt)
	}
}

func TestAggregate_CenterAliasScenario(t *testing.T) {
	policy := DefaultPolicy()
	desc := PositionDescriptor{Category: CategoryCenter, SectorPrefix: "EDWW_W"}

	sessions := []Session{
		{Callsign: "EDWW_W_CTR", Minutes: 120, Start: ts("2026-05-01T18:00:00Z")},
		{Callsign: "EDWW_CTR", Minutes: 60, Start: ts("2026-05-02T18:00:00Z")},
	}

	sum := Aggregate(desc, sessions, policy)
	if sum.Minutes != 180 {
		t.Errorf("Expected 180 minutes (alias included), got %d", sum.Minutes)
	}
}

func TestAggregate_NoMatches(t *testing.T) {
	policy := DefaultPolicy()
	desc := PositionDescriptor{Airport: "EDDF", Category: CategoryApproach}

	sum := Aggregate(desc, []Session{{Callsign: "EDDH_APP", Minutes: 45, Start: ts("2026-05-01T10:00:00Z")}}, policy)
	if sum.Minutes != 0 {
		t.Errorf("Expected 0 minutes, got %d", sum.Minutes)
	}
	if sum.LastActivityAt != nil {
		t.Errorf("Expected nil last activity, got %v", sum.LastActivityAt)
	}
}

func TestAggregate_MalformedRecords(t *testing.T) {
	policy := DefaultPolicy()
	desc := PositionDescriptor{Airport: "EDDF", Category: CategoryTower}

	sessions := []Session{
		// Unparseable timestamp upstream: Start nil, minutes still count.
		{Callsign: "EDDF_TWR", Minutes: 42.4, Start: nil},
		// Missing duration upstream: zero minutes, timestamp still counts.
		{Callsign: "EDDF_TWR", Minutes: 0, Start: ts("2026-04-01T09:00:00Z")},
	}

	sum := Aggregate(desc, sessions, policy)
	if sum.Minutes != 42 {
		t.Errorf("Expected 42 minutes, got %d", sum.Minutes)
	}
	if sum.LastActivityAt == nil || !sum.LastActivityAt.Equal(*ts("2026-04-01T09:00:00Z")) {
		t.Errorf("Expected last activity from the dated session, got %v", sum.LastActivityAt)
	}
}

func TestAggregate_RecomputationNotAccumulation(t *testing.T) {
	policy := DefaultPolicy()
	desc := PositionDescriptor{Airport: "EDDF", Category: CategoryTower}
	sessions := []Session{
		{Callsign: "EDDF_TWR", Minutes: 75, Start: ts("2026-05-01T10:00:00Z")},
	}

	first := Aggregate(desc, sessions, policy)
	second := Aggregate(desc, sessions, policy)
	if first.Minutes != second.Minutes {
		t.Errorf("Aggregation must recompute, not accumulate: %d then %d", first.Minutes, second.Minutes)
	}
}

func TestAggregateFunc_AllSessions(t *testing.T) {
	sessions := []Session{
		{Callsign: "EDDF_TWR", Minutes: 30, Start: ts("2026-05-01T10:00:00Z")},
		{Callsign: "EDWW_CTR", Minutes: 90, Start: ts("2026-05-03T10:00:00Z")},
	}

	sum := AggregateFunc(sessions, func(string) bool { return true })
	if sum.Minutes != 120 {
		t.Errorf("Expected 120 minutes, got %d", sum.Minutes)
	}
}
