// Package psm implements the Possession State Machine: deterministic state
// transitions, possession-id lifecycle, atomic unification, and the
// scramble buffer. One Machine drives exactly one event stream; there are
// no process-wide singletons, and callers construct one instance per
// stream and thread it through explicitly.
package psm

import (
	"fmt"

	"github.com/hikmetpinarbas/hpfa-go/pkg/canonical"
	"github.com/hikmetpinarbas/hpfa-go/pkg/epistemic"
)

// LogicVersion is stamped on every emitted frame so downstream consumers
// can detect when the transition table itself changed between runs.
const LogicVersion = "psm.v1"

// DefaultScrambleBufferS is the default time window, in seconds, during
// which a team change following CONTESTED does not allocate a new
// possession.
const DefaultScrambleBufferS = 2.0

// Machine is the per-stream possession state machine. The zero value is
// not usable; construct with New.
type Machine struct {
	state          epistemic.PossessionState
	possessionID   string
	possessingTeam string
	nextSeq        int64

	lastSeenTS    float64
	lastSeenTeam  string
	lastSeenValid bool

	scrambleBufferS float64
}

// New constructs a Machine in the initial DEAD_BALL state.
func New(scrambleBufferS float64) *Machine {
	if scrambleBufferS <= 0 {
		scrambleBufferS = DefaultScrambleBufferS
	}
	return &Machine{
		state:           epistemic.StateDeadBall,
		scrambleBufferS: scrambleBufferS,
	}
}

// State returns the machine's current state, for diagnostics only; callers
// must never drive behavior off of it outside this package.
func (m *Machine) State() epistemic.PossessionState { return m.state }

func (m *Machine) allocatePossessionID() string {
	m.nextSeq++
	return fmt.Sprintf("p%06d", m.nextSeq)
}

// Step advances the machine by one raw event and returns the frame
// produced. raw must be a map[string]any; any other shape is itself a
// fail-closed condition.
func (m *Machine) Step(raw any) canonical.PossessionFrame {
	stateBefore := m.state
	pidBefore := m.possessionID
	teamBefore := m.possessingTeam

	ev, ok := raw.(map[string]any)
	if !ok {
		m.state = epistemic.StateError
		return m.frame(stateBefore, epistemic.StateError, pidBefore, pidBefore, teamBefore, teamBefore,
			epistemic.EffectNeutral, "fail_closed:non_object_event")
	}

	eventTypeRaw, hasEventType := stringField(ev, "event_type")
	teamID, hasTeam := stringField(ev, "team_id")
	_, hasPlayer := stringField(ev, "player_id")
	startTime, hasStart := floatField(ev, "event_start_time")

	if !hasEventType || !hasStart || !hasTeam {
		m.state = epistemic.StateError
		reason := "fail_closed:missing_required_keys"
		if !hasTeam || !hasPlayer {
			reason = "fail_closed:MISSING_IDENTITY"
		}
		return m.frame(stateBefore, epistemic.StateError, pidBefore, pidBefore, teamBefore, teamBefore,
			epistemic.EffectNeutral, reason)
	}

	// team_id (and event_type/event_start_time) are present, but player_id
	// is absent: the required-keys gate above does not cover this shape,
	// yet the identity invariant still applies. Drive to UNVALIDATED
	// without allocating or clearing possession identity.
	if !hasPlayer {
		m.state = epistemic.StateUnvalidated
		return m.frame(stateBefore, epistemic.StateUnvalidated, pidBefore, pidBefore, teamBefore, teamBefore,
			epistemic.EffectNeutral, "fail_closed:MISSING_IDENTITY")
	}

	prevTS := m.lastSeenTS
	prevTeam := m.lastSeenTeam
	prevValid := m.lastSeenValid

	if prevValid && startTime == prevTS && teamID == prevTeam {
		m.lastSeenTS = startTime
		m.lastSeenTeam = teamID
		return m.frame(stateBefore, stateBefore, pidBefore, pidBefore, teamBefore, teamBefore,
			epistemic.EffectNeutral, "atomic_unification")
	}
	m.lastSeenTS = startTime
	m.lastSeenTeam = teamID
	m.lastSeenValid = true

	eventType := epistemic.EventType(eventTypeRaw)
	outcomeRaw, hasOutcome := stringField(ev, "outcome")
	outcome := epistemic.ParseOutcome(outcomeRaw, hasOutcome)

	newState, effect, reason := transition(stateBefore, eventType, outcome)

	pidAfter, teamAfter := pidBefore, teamBefore

	switch effect {
	case epistemic.EffectEnd:
		pidAfter, teamAfter = "", ""
	case epistemic.EffectStart:
		scrambleApplies := stateBefore == epistemic.StateContested &&
			teamBefore != "" && teamID != teamBefore &&
			(startTime-prevTS) <= m.scrambleBufferS
		if scrambleApplies {
			pidAfter, teamAfter = pidBefore, teamBefore
			effect = epistemic.EffectNeutral
			reason = "scramble_buffer_retained"
		} else {
			pidAfter = m.allocatePossessionID()
			teamAfter = teamID
		}
	case epistemic.EffectContinue:
		pidAfter, teamAfter = pidBefore, teamBefore
	}

	if newState == epistemic.StateDeadBall {
		pidAfter, teamAfter = "", ""
	}

	if effect == epistemic.EffectStart && newState != epistemic.StateControlled {
		newState = epistemic.StateError
		reason = "invariant_violation:start_not_controlled"
	}
	if effect == epistemic.EffectContinue && newState != epistemic.StateControlled {
		newState = epistemic.StateError
		reason = "invariant_violation:continue_not_controlled"
	}

	m.state = newState
	m.possessionID = pidAfter
	m.possessingTeam = teamAfter

	return m.frame(stateBefore, newState, pidBefore, pidAfter, teamBefore, teamAfter, effect, reason)
}

func (m *Machine) frame(stateBefore, stateAfter epistemic.PossessionState, pidBefore, pidAfter, teamBefore, teamAfter string, effect epistemic.Effect, reason string) canonical.PossessionFrame {
	return canonical.PossessionFrame{
		StateBefore:          stateBefore,
		StateAfter:           stateAfter,
		PossessionIDBefore:   pidBefore,
		PossessionIDAfter:    pidAfter,
		PossessingTeamBefore: teamBefore,
		PossessingTeamAfter:  teamAfter,
		Effect:               effect,
		SMReason:             reason,
		LogicVersion:         LogicVersion,
	}
}

func stringField(m map[string]any, key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func floatField(m map[string]any, key string) (float64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}
