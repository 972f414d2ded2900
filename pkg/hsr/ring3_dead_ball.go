// Package hsr implements the Hardened Safety Rings: layered validators
// that may veto an event but never repair one. Ring 3 and Ring 5 are pure
// functions over explicit prev/current values; Ring 4 holds per-stream
// state and must be constructed once per stream, matching the Possession
// State Machine's lifecycle discipline.
package hsr

import (
	pipeerr "github.com/hikmetpinarbas/hpfa-go/pkg/errors"
	"github.com/hikmetpinarbas/hpfa-go/pkg/epistemic"
)

// CheckDeadBall is HSR Ring 3. It is a pure function: it vetoes by
// returning an error when event_type is TACKLE or INTERCEPTION while
// either the previous or current possession state is DEAD_BALL. A missing
// event type or missing state fields fails closed rather than passing the
// event through. Ring 3 never repairs an event.
func CheckDeadBall(eventType epistemic.EventType, eventTypePresent bool, prevState, curState epistemic.PossessionState, statesPresent bool) error {
	if !eventTypePresent {
		return pipeerr.New(pipeerr.HSRFailClosed, "HSR_FAIL_CLOSED:ring3 missing event_type")
	}
	if !statesPresent {
		return pipeerr.New(pipeerr.HSRFailClosed, "HSR_FAIL_CLOSED:ring3 missing state fields")
	}
	if eventType != epistemic.EventTackle && eventType != epistemic.EventInterception {
		return nil
	}
	if prevState == epistemic.StateDeadBall || curState == epistemic.StateDeadBall {
		return pipeerr.New(pipeerr.HSRDeadBallViolation, "HSR_DEAD_BALL_VIOLATION: illegal event type following dead-ball context").
			With("event_type", string(eventType)).
			With("prev_state", string(prevState)).
			With("state", string(curState))
	}
	return nil
}
