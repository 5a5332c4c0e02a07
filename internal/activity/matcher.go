package activity

import "strings"

// Matches reports whether a session on callsign counts as activity for the
// position described by d under policy p. It is a pure function of its
// arguments: recomputing over the same inputs always yields the same answer.
func Matches(d PositionDescriptor, callsign string, p *MatchingPolicy) bool {
	if p == nil {
		return false
	}

	callsign = strings.ToUpper(strings.TrimSpace(callsign))

	if d.Category == CategoryCenter {
		if d.SectorPrefix == "" {
			return false
		}
		if strings.HasPrefix(callsign, d.SectorPrefix) {
			return true
		}
		return p.CenterAliases[callsign] == d.SectorPrefix
	}

	// Airport stations: first token is the airport, last token the station
	// suffix. Middle tokens encode sub-position qualifiers and are ignored.
	parts := strings.Split(callsign, "_")
	if len(parts) < 2 {
		return false
	}

	airport := parts[0]
	suffix := parts[len(parts)-1]

	if airport == d.Airport && p.suffixAllowed(d.Category, suffix) {
		return true
	}

	// Topdown delegation: the overlying sector's sessions credit the
	// subordinate airport position.
	for _, prefix := range p.Topdown[d.Airport] {
		if strings.HasPrefix(callsign, prefix) {
			return true
		}
	}

	return false
}

// MatchesFIR reports whether callsign belongs to any of the given FIR
// prefixes. Used by the roster tracker, where any controlling activity inside
// the FIR counts.
func MatchesFIR(callsign string, prefixes []string) bool {
	callsign = strings.ToUpper(strings.TrimSpace(callsign))
	for _, prefix := range prefixes {
		if prefix != "" && strings.HasPrefix(callsign, prefix) {
			return true
		}
	}
	return false
}
