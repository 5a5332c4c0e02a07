package activity

// MatchingPolicy holds the tables the position matcher consults. Policies are
// plain data so they can be unit-tested in isolation, fetched per FIR from the
// reference dataset, or hot-swapped without touching matcher code.
type MatchingPolicy struct {
	// ViableSuffixes maps a station category to the callsign suffixes that
	// credit activity for it. A tower endorsement is also credited by time on
	// the overlying approach/departure positions, etc.
	ViableSuffixes map[StationCategory][]string

	// Topdown maps an airport ICAO to the overlying sector prefixes whose
	// sessions also credit that airport's positions, modeling topdown
	// delegation when the lower station is unstaffed.
	Topdown map[string][]string

	// CenterAliases maps an exact callsign to the sector prefix it stands in
	// for. Covers umbrella sector logins that historically substitute for a
	// named sub-sector.
	CenterAliases map[string]string

	// FIRPrefixes lists the callsign prefixes that count as controlling
	// inside this FIR at all, used by the roster inactivity tracker.
	FIRPrefixes []string
}

// DefaultPolicy returns the compiled-in matching tables. The dataset provider
// overlays per-FIR entries on top of these at runtime; this is also the
// fallback when the dataset is unreachable.
func DefaultPolicy() *MatchingPolicy {
	return &MatchingPolicy{
		ViableSuffixes: map[StationCategory][]string{
			CategoryGroundDelivery: {"DEL", "GND", "TWR", "APP", "DEP"},
			CategoryTower:          {"TWR", "APP", "DEP"},
			CategoryApproach:       {"APP", "DEP"},
		},
		Topdown: map[string][]string{
			// Airports covered topdown by an overlying center sector.
			"EDDB": {"EDWW_B", "EDWW_F"},
			"EDDH": {"EDWW_A", "EDWW_W"},
			"EDDW": {"EDWW_A", "EDWW_W"},
			"EDDC": {"EDMM_R", "EDMM_B"},
			"EDDE": {"EDMM_B"},
		},
		CenterAliases: map[string]string{
			// The bare EDWW umbrella login historically stands in for the
			// west sector.
			"EDWW_CTR": "EDWW_W",
		},
		FIRPrefixes: []string{"ED", "ET"},
	}
}

// suffixAllowed reports whether suffix is in the viable set for cat. Unknown
// categories have no viable suffixes, so a misconfigured policy degrades to
// under-crediting instead of failing.
func (p *MatchingPolicy) suffixAllowed(cat StationCategory, suffix string) bool {
	for _, s := range p.ViableSuffixes[cat] {
		if s == suffix {
			return true
		}
	}
	return false
}
