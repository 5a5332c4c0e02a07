package dtos

// TierOneEndorsement is one qualification-holder entry in the authoritative
// registry.
type TierOneEndorsement struct {
	ID         int64  `json:"id"`
	SubjectCID int    `json:"user_cid"`
	Position   string `json:"position"`
	CreatedAt  string `json:"created_at"`
}

// RosterEntry is one roster membership as reported by the registry.
type RosterEntry struct {
	SubjectCID int    `json:"cid"`
	FIR        string `json:"fir"`
}

// NotifyRequest is the payload sent to the external notifier.
type NotifyRequest struct {
	SubjectCID int    `json:"cid"`
	Title      string `json:"title"`
	Message    string `json:"message"`
}

// PolicyDataset is the per-FIR reference dataset overlaying the compiled-in
// matching tables.
type PolicyDataset struct {
	Topdown       map[string][]string `json:"topdown"`
	CenterAliases map[string]string   `json:"center_aliases"`
	FIRPrefixes   []string            `json:"fir_prefixes"`
}
