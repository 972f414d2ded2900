package canonical

import "github.com/hikmetpinarbas/hpfa-go/pkg/epistemic"

// PossessionFrame is the single output record of one Possession State
// Machine step. ContestedCount is an observational field only: psm.Machine
// does not set it (it stays zero and is omitted from JSON), and it never
// drives a transition.
type PossessionFrame struct {
	EventID                string                   `json:"event_id"`
	StateBefore            epistemic.PossessionState `json:"state_before"`
	StateAfter             epistemic.PossessionState `json:"state_after"`
	PossessionIDBefore     string                   `json:"possession_id_before,omitempty"`
	PossessionIDAfter      string                   `json:"possession_id_after,omitempty"`
	PossessingTeamBefore   string                   `json:"possessing_team_before,omitempty"`
	PossessingTeamAfter    string                   `json:"possessing_team_after,omitempty"`
	Effect                 epistemic.Effect         `json:"possession_effect"`
	SMReason               string                   `json:"sm_reason"`
	LogicVersion           string                   `json:"logic_version"`
	ContestedCount         int                      `json:"contested_count,omitempty"`
	Flags                  map[string]bool          `json:"flags,omitempty"`
}

// SetFlag sets a boolean flag on the frame, allocating the map lazily.
func (f *PossessionFrame) SetFlag(name string, v bool) {
	if f.Flags == nil {
		f.Flags = map[string]bool{}
	}
	f.Flags[name] = v
}
