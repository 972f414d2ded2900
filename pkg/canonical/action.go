package canonical

import "github.com/hikmetpinarbas/hpfa-go/pkg/epistemic"

// CanonicalAction is one entry of the loaded action registry. Instances are
// created once at registry load and are immutable for the life of a
// process; callers must never mutate Aliases or Qualifiers after
// construction, since the registry hands out the same pointer to every
// resolver call.
type CanonicalAction struct {
	ID                 string
	PossessionEffect   epistemic.Effect
	AllowedStates      map[epistemic.PossessionState]bool
	FailClosedDefault  epistemic.PossessionState
	Aliases            map[string]bool // normalized aliases
	Qualifiers         map[string][]string
	Status             string // core | aurelia | deprecated
}

// AllowsState reports whether the action is legal to apply from st.
func (a *CanonicalAction) AllowsState(st epistemic.PossessionState) bool {
	if a == nil {
		return false
	}
	return a.AllowedStates[st]
}
