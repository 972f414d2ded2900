// Package policy implements the Epistemic Policy Engine and the Canon
// Contract Reader gate that sits in front of it.
package policy

import (
	pipeerr "github.com/hikmetpinarbas/hpfa-go/pkg/errors"
	"github.com/hikmetpinarbas/hpfa-go/pkg/epistemic"
)

// Decision is the outcome of the Epistemic Policy Engine.
type Decision string

const (
	DecisionAccept   Decision = "ACCEPT"
	DecisionSoftFail Decision = "SOFT_FAIL"
	DecisionHardFail Decision = "HARD_FAIL"
)

// Input carries exactly the fields the policy decision depends on.
type Input struct {
	Status         epistemic.Status
	Lossy          bool
	HumanOverride  bool
	AssumptionID   string
}

// Decide applies the policy decision surface:
//   - status outside the allowed set            -> HARD_FAIL
//   - human_override true with no assumption_id  -> HARD_FAIL
//   - lossy mapping                              -> SOFT_FAIL (independent of override)
//   - otherwise                                  -> ACCEPT
//
// allowed is the runtime-derived allowed-status set; an empty set means the
// enumeration could not be resolved and the function fails closed to
// HARD_FAIL for every input.
func Decide(in Input, allowed map[epistemic.Status]bool) Decision {
	if len(allowed) == 0 {
		return DecisionHardFail
	}
	if !allowed[in.Status] {
		return DecisionHardFail
	}
	if in.HumanOverride && in.AssumptionID == "" {
		return DecisionHardFail
	}
	if in.Lossy {
		return DecisionSoftFail
	}
	return DecisionAccept
}

// AllowedStatusSet derives the allowed-status set from the epistemic
// status enumeration at runtime. If epistemic.AllStatuses is empty, the
// caller's Decide call fails closed per the contract above.
func AllowedStatusSet() map[epistemic.Status]bool {
	out := map[epistemic.Status]bool{}
	for _, s := range epistemic.AllStatuses {
		out[s] = true
	}
	return out
}

// DecisionError renders a HARD_FAIL decision as an error with the
// epistemic:hard_fail code, for callers that need to propagate a Go error
// rather than branch on the Decision value directly.
func DecisionError(d Decision, reason string) error {
	if d != DecisionHardFail {
		return nil
	}
	return pipeerr.New(pipeerr.EpistemicHardFail, reason)
}
