package psm

import "github.com/hikmetpinarbas/hpfa-go/pkg/epistemic"

// transition implements the complete PSM transition table. Undefined
// cells fall through to the final default rule (UNVALIDATED, NEUTRAL);
// post-transition invariant checks in Step may still promote a result to
// ERROR.
func transition(prev epistemic.PossessionState, et epistemic.EventType, outcome epistemic.Outcome) (epistemic.PossessionState, epistemic.Effect, string) {
	switch {
	case et == epistemic.EventOut || et == epistemic.EventFoul:
		return epistemic.StateDeadBall, epistemic.EffectEnd, "dead_ball_event"

	case et == epistemic.EventLooseBall:
		return epistemic.StateContested, epistemic.EffectNeutral, "loose_ball"

	case prev == epistemic.StateDeadBall && et.IsRestart():
		return epistemic.StateControlled, epistemic.EffectStart, "restart_from_dead_ball"

	case prev == epistemic.StateControlled && (et == epistemic.EventPass || et == epistemic.EventDribble):
		if outcome == epistemic.OutcomeSuccess {
			return epistemic.StateControlled, epistemic.EffectContinue, "pass_or_dribble_success"
		}
		return epistemic.StateUnvalidated, epistemic.EffectNeutral, "pass_or_dribble_unresolved"

	case prev == epistemic.StateControlled && et == epistemic.EventTackle:
		return epistemic.StateContested, epistemic.EffectNeutral, "tackle_from_controlled"

	case prev == epistemic.StateContested && et == epistemic.EventTackle:
		return epistemic.StateContested, epistemic.EffectNeutral, "tackle_from_contested"

	case (prev == epistemic.StateControlled || prev == epistemic.StateContested) && et == epistemic.EventInterception:
		return epistemic.StateControlled, epistemic.EffectStart, "interception"

	default:
		return epistemic.StateUnvalidated, epistemic.EffectNeutral, "unknown_or_undefined_transition"
	}
}
