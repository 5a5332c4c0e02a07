package activity

import (
	"fmt"
	"strings"
)

// StationCategory classifies the kind of station a position descriptor refers to.
type StationCategory string

const (
	CategoryGroundDelivery StationCategory = "GNDDEL"
	CategoryTower          StationCategory = "TWR"
	CategoryApproach       StationCategory = "APP"
	CategoryCenter         StationCategory = "CTR"
)

// PositionDescriptor identifies an abstract controlling position as tracked by
// the endorsement registry. Airport stations carry an ICAO code plus a station
// category; center positions carry a sector prefix instead (e.g. "EDWW_W").
type PositionDescriptor struct {
	Airport      string
	Category     StationCategory
	SectorPrefix string
}

// ParseDescriptor parses a registry position token (e.g. "EDDF_TWR",
// "EDDF_GNDDEL", "EDWW_W_CTR") into a PositionDescriptor. Descriptors are
// immutable once attached to a lifecycle record, so parse failures here mean
// the registry handed us a token we do not understand.
func ParseDescriptor(token string) (PositionDescriptor, error) {
	token = strings.ToUpper(strings.TrimSpace(token))

	parts := strings.Split(token, "_")
	if len(parts) < 2 {
		return PositionDescriptor{}, fmt.Errorf("position token %q has no station part", token)
	}

	station := parts[len(parts)-1]

	if station == "CTR" {
		return PositionDescriptor{
			Category:     CategoryCenter,
			SectorPrefix: strings.TrimSuffix(token, "_CTR"),
		}, nil
	}

	var cat StationCategory
	switch station {
	case "DEL", "GND", "GNDDEL":
		cat = CategoryGroundDelivery
	case "TWR":
		cat = CategoryTower
	case "APP", "DEP":
		cat = CategoryApproach
	default:
		return PositionDescriptor{}, fmt.Errorf("position token %q has unknown station %q", token, station)
	}

	return PositionDescriptor{
		Airport:  parts[0],
		Category: cat,
	}, nil
}

// FIR returns the flight information region key used for policy lookup. For
// center positions this is the first token of the sector prefix; for airport
// stations it is derived from the ICAO prefix (first two letters).
func (d PositionDescriptor) FIR() string {
	if d.Category == CategoryCenter {
		if i := strings.Index(d.SectorPrefix, "_"); i > 0 {
			return d.SectorPrefix[:i]
		}
		return d.SectorPrefix
	}
	if len(d.Airport) >= 2 {
		return d.Airport[:2]
	}
	return d.Airport
}

// Token renders the descriptor back into its registry form.
func (d PositionDescriptor) Token() string {
	if d.Category == CategoryCenter {
		return d.SectorPrefix + "_CTR"
	}
	return d.Airport + "_" + string(d.Category)
}
