package activity

import "testing"

func TestMatches_TowerViableSuffixes(t *testing.T) {
	policy := DefaultPolicy()
	desc := PositionDescriptor{Airport: "EDDF", Category: CategoryTower}

	cases := []struct {
		callsign string
		want     bool
	}{
		{"EDDF_TWR", true},
		{"EDDF_APP", true},
		{"EDDF_DEP", true},
		{"EDDF_N_APP", true}, // middle qualifier token is ignored
		{"EDDF_GND", false},  // below the tower, does not credit it
		{"EDDH_TWR", false},  // wrong airport
		{"EDDF", false},      // fewer than two tokens never matches
		{"", false},
	}

	for _, c := range cases {
		if got := Matches(desc, c.callsign, policy); got != c.want {
			t.Errorf("Matches(EDDF TWR, %q) = %v, want %v", c.callsign, got, c.want)
		}
	}
}

func TestMatches_CenterPrefixAndAlias(t *testing.T) {
	policy := DefaultPolicy()
	desc := PositionDescriptor{Category: CategoryCenter, SectorPrefix: "EDWW_W"}

	if !Matches(desc, "EDWW_W_CTR", policy) {
		t.Error("Expected sector prefix match for EDWW_W_CTR")
	}
	if !Matches(desc, "EDWW_CTR", policy) {
		t.Error("Expected alias match for EDWW_CTR")
	}
	if Matches(desc, "EDMM_CTR", policy) {
		t.Error("Did not expect match for foreign center EDMM_CTR")
	}
}

func TestMatches_TopdownDelegation(t *testing.T) {
	policy := DefaultPolicy()
	desc := PositionDescriptor{Airport: "EDDH", Category: CategoryTower}

	if !Matches(desc, "EDWW_W_CTR", policy) {
		t.Error("Expected topdown credit from overlying EDWW_W sector")
	}
	if Matches(desc, "EDMM_R_CTR", policy) {
		t.Error("Did not expect credit from unrelated sector")
	}
}

func TestMatches_UnknownCategoryDegradesToNoMatch(t *testing.T) {
	policy := DefaultPolicy()
	desc := PositionDescriptor{Airport: "EDDF", Category: StationCategory("FSS")}

	if Matches(desc, "EDDF_TWR", policy) {
		t.Error("Unknown category must not match any suffix")
	}
}

func TestMatches_NilPolicy(t *testing.T) {
	desc := PositionDescriptor{Airport: "EDDF", Category: CategoryTower}
	if Matches(desc, "EDDF_TWR", nil) {
		t.Error("Nil policy must never match")
	}
}

func TestMatches_Idempotent(t *testing.T) {
	policy := DefaultPolicy()
	desc := PositionDescriptor{Airport: "EDDB", Category: CategoryGroundDelivery}

	for _, callsign := range []string{"EDDB_GND", "EDWW_B_CTR", "EDDF_TWR", "XYZ"} {
		first := Matches(desc, callsign, policy)
		second := Matches(desc, callsign, policy)
		if first != second {
			t.Errorf("Matches(%q) not stable across calls: %v then %v", callsign, first, second)
		}
	}
}

func TestMatchesFIR(t *testing.T) {
	prefixes := []string{"ED", "ET"}

	if !MatchesFIR("EDDF_TWR", prefixes) {
		t.Error("Expected EDDF_TWR to count inside the FIR")
	}
	if !MatchesFIR("ETNN_APP", prefixes) {
		t.Error("Expected ETNN_APP to count inside the FIR")
	}
	if MatchesFIR("LOVV_CTR", prefixes) {
		t.Error("Did not expect foreign callsign to count")
	}
	if MatchesFIR("EDDF_TWR", nil) {
		t.Error("Empty prefix list must not match")
	}
}

func TestParseDescriptor(t *testing.T) {
	d, err := ParseDescriptor("EDDF_TWR")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if d.Airport != "EDDF" || d.Category != CategoryTower {
		t.Errorf("Unexpected descriptor: %+v", d)
	}

	d, err = ParseDescriptor("edww_w_ctr")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if d.Category != CategoryCenter || d.SectorPrefix != "EDWW_W" {
		t.Errorf("Unexpected center descriptor: %+v", d)
	}
	if d.FIR() != "EDWW" {
		t.Errorf("Expected FIR EDWW, got %s", d.FIR())
	}

	if _, err := ParseDescriptor("EDDF"); err == nil {
		t.Error("Expected error for token without station part")
	}
	if _, err := ParseDescriptor("EDDF_FSS"); err == nil {
		t.Error("Expected error for unknown station")
	}
}
