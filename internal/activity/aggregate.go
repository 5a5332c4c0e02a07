package activity

import (
	"math"
	"time"
)

// Session is one observed connection from the session log source. Minutes is
// zero when the upstream record carried no usable duration; Start is nil when
// the timestamp was missing or unparseable.
type Session struct {
	Callsign string
	Minutes  float64
	Start    *time.Time
}

// Summary is the result of aggregating a batch of sessions for one position.
type Summary struct {
	Minutes        int
	LastActivityAt *time.Time
}

// Aggregate filters sessions through the position matcher and sums the
// matched durations over whatever window the caller fetched. The sum is a
// flat recomputation, not an increment: running it twice over the same
// sessions yields the same total.
func Aggregate(d PositionDescriptor, sessions []Session, p *MatchingPolicy) Summary {
	return AggregateFunc(sessions, func(callsign string) bool {
		return Matches(d, callsign, p)
	})
}

// AggregateFunc aggregates sessions accepted by an arbitrary match function.
// Sessions without a parseable start timestamp still contribute their minutes
// but are excluded from the last-activity maximum.
func AggregateFunc(sessions []Session, match func(callsign string) bool) Summary {
	var sum float64
	var last *time.Time

	for _, s := range sessions {
		if !match(s.Callsign) {
			continue
		}
		if s.Minutes > 0 {
			sum += s.Minutes
		}
		if s.Start != nil && (last == nil || s.Start.After(*last)) {
			t := *s.Start
			last = &t
		}
	}

	return Summary{
		Minutes:        int(math.Round(sum)),
		LastActivityAt: last,
	}
}
