package hsr

import (
	pipeerr "github.com/hikmetpinarbas/hpfa-go/pkg/errors"
	"github.com/hikmetpinarbas/hpfa-go/pkg/epistemic"
)

// DefaultCooldownS bounds how long after a dead ball a TACKLE or
// INTERCEPTION may legally follow before Ring 5 flags a cooldown breach.
const DefaultCooldownS = 3.0

// Ring5Input carries exactly the fields Ring 5's rules depend on.
type Ring5Input struct {
	EventStartTime float64
	PrevEventTime  float64
	StateID        epistemic.PossessionState
	PrevStateID    epistemic.PossessionState
	Effect         epistemic.Effect
	EventType      epistemic.EventType
}

// CheckContext is HSR Ring 5, the temporal/context validator. It is a pure
// function: monotonicity, START legality, and cooldown are all checked
// against explicit prev/current values rather than internal state.
func CheckContext(in Ring5Input, cooldownS float64) error {
	if cooldownS <= 0 {
		cooldownS = DefaultCooldownS
	}

	if in.EventStartTime < in.PrevEventTime {
		return pipeerr.New(pipeerr.HSRContextViolation, "HSR_CONTEXT_VIOLATION: timestamp monotonicity violated").
			With("event_start_time", in.EventStartTime).
			With("prev_event_time", in.PrevEventTime)
	}

	if in.Effect == epistemic.EffectStart {
		if !(in.PrevStateID == epistemic.StateDeadBall && in.StateID == epistemic.StateControlled) {
			return pipeerr.New(pipeerr.HSRContextViolation, "HSR_CONTEXT_VIOLATION: START effect outside DEAD_BALL->CONTROLLED").
				With("prev_state_id", string(in.PrevStateID)).
				With("state_id", string(in.StateID))
		}
	}

	if in.PrevStateID == epistemic.StateDeadBall &&
		(in.EventStartTime-in.PrevEventTime) > cooldownS &&
		(in.EventType == epistemic.EventTackle || in.EventType == epistemic.EventInterception) {
		return pipeerr.New(pipeerr.HSRContextViolation, "HSR_CONTEXT_VIOLATION: cooldown breach after dead ball").
			With("gap_s", in.EventStartTime-in.PrevEventTime).
			With("cooldown_s", cooldownS)
	}

	return nil
}
