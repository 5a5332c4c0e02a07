package dtos

// AtcSessionsResponse is the session log source's reply for one subject.
type AtcSessionsResponse struct {
	Count   int          `json:"count"`
	Results []AtcSession `json:"results"`
}

// AtcSession is one raw connection record. Minutes arrive as a decimal
// string; Start is a timestamp string in one of several historical layouts.
// Both are parsed leniently downstream.
type AtcSession struct {
	ConnectionID      int64  `json:"connection_id"`
	Callsign          string `json:"callsign"`
	MinutesOnCallsign string `json:"minutes_on_callsign"`
	Start             string `json:"start"`
}
