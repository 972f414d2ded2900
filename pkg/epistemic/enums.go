// Package epistemic declares the closed enumerations shared across the
// canonicalization pipeline: possession states and effects, event and
// outcome sum types, and the epistemic status attached to every record.
// Every type here is a string-backed closed variant; unrecognized input
// values map to an explicit Unknown/Absent member. For EventType and Phase
// that member (EventUnknown, PhaseUnknown) is the empty string, which is
// also the zero value.
package epistemic

import "strings"

// Status is the epistemic tag attached to every canonical record. FACT and
// OPINION/HYPOTHESIS/SIGNAL describe provenance confidence for mapped
// events; VALID/UNVALIDATED/INCONCLUSIVE/FALSIFIED describe the outcome of
// contract validation. Both families are members of the same closed set so
// a single allowed-set check covers a record regardless of which producer
// attached the status.
type Status string

const (
	StatusFact         Status = "FACT"
	StatusOpinion      Status = "OPINION"
	StatusHypothesis   Status = "HYPOTHESIS"
	StatusSignal       Status = "SIGNAL"
	StatusValid        Status = "VALID"
	StatusUnvalidated  Status = "UNVALIDATED"
	StatusInconclusive Status = "INCONCLUSIVE"
	StatusFalsified    Status = "FALSIFIED"
)

// AllStatuses is the canonical enumeration used to derive the allowed set
// for policy decisions. If this slice were ever empty, a Canon Contract
// Reader must fail closed rather than treat every status as valid.
var AllStatuses = []Status{
	StatusFact, StatusOpinion, StatusHypothesis, StatusSignal,
	StatusValid, StatusUnvalidated, StatusInconclusive, StatusFalsified,
}

// Valid reports whether s is a member of the closed enumeration.
func (s Status) Valid() bool {
	for _, v := range AllStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// PopperTag marks an epistemic confidence downgrade applied to rows that
// survive contract validation only via quarantine-and-degrade.
type PopperTag string

const (
	PopperTagNone         PopperTag = ""
	PopperTagLowConfidence PopperTag = "LOW_CONFIDENCE"
)

// PossessionState is one of the five closed states of the possession state
// machine. DEAD_BALL is the initial state of every stream.
type PossessionState string

const (
	StateDeadBall     PossessionState = "DEAD_BALL"
	StateControlled   PossessionState = "CONTROLLED"
	StateContested    PossessionState = "CONTESTED"
	StateUnvalidated  PossessionState = "UNVALIDATED"
	StateError        PossessionState = "ERROR"
)

// Effect is the possession-changing effect of a single transition.
type Effect string

const (
	EffectStart    Effect = "START"
	EffectContinue Effect = "CONTINUE"
	EffectEnd      Effect = "END"
	EffectNeutral  Effect = "NEUTRAL"
)

// EventType is a closed tagged variant over provider-agnostic canonical
// event kinds. RESTART_* is a family, not a single literal, so
// IsRestart checks the prefix rather than enumerating every restart kind.
type EventType string

const (
	EventOut           EventType = "OUT"
	EventFoul          EventType = "FOUL"
	EventLooseBall     EventType = "LOOSE_BALL"
	EventRestartKickoff EventType = "RESTART_KICKOFF"
	EventRestartThrowIn EventType = "RESTART_THROW_IN"
	EventRestartFreeKick EventType = "RESTART_FREE_KICK"
	EventRestartCorner  EventType = "RESTART_CORNER"
	EventRestartGoalKick EventType = "RESTART_GOAL_KICK"
	EventPass          EventType = "PASS"
	EventDribble       EventType = "DRIBBLE"
	EventTackle        EventType = "TACKLE"
	EventInterception  EventType = "INTERCEPTION"
	EventUnknown       EventType = ""
)

const restartPrefix = "RESTART_"

// IsRestart reports whether e belongs to the RESTART_* family.
func (e EventType) IsRestart() bool {
	return strings.HasPrefix(string(e), restartPrefix)
}

// Recognized reports whether e is a value the transition table has an
// explicit rule for, as opposed to falling through to the unknown-event
// catch-all.
func (e EventType) Recognized() bool {
	switch e {
	case EventOut, EventFoul, EventLooseBall, EventPass, EventDribble,
		EventTackle, EventInterception:
		return true
	}
	return e.IsRestart()
}

// Outcome is a small sum type with an explicit Absent variant: the PSM's
// fail-closed path depends on distinguishing "no outcome was reported"
// from "outcome reported as failure".
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFail    Outcome = "fail"
	OutcomeAbsent  Outcome = "absent"
	OutcomeUnknown Outcome = "unknown"
)

// ParseOutcome normalizes a raw outcome value. present distinguishes a
// field that was absent from the source document (→ Absent) from one that
// was present but held an unrecognized token (→ Unknown).
func ParseOutcome(raw string, present bool) Outcome {
	if !present {
		return OutcomeAbsent
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "success", "true", "completed":
		return OutcomeSuccess
	case "fail", "failed", "false":
		return OutcomeFail
	case "":
		return OutcomeAbsent
	default:
		return OutcomeUnknown
	}
}

// ShotOutcome is a closed variant describing the fate of a shot event.
type ShotOutcome string

const (
	ShotOutcomeGoal      ShotOutcome = "GOAL"
	ShotOutcomeSaved     ShotOutcome = "SAVED"
	ShotOutcomeBlocked   ShotOutcome = "BLOCKED"
	ShotOutcomeOffTarget ShotOutcome = "OFF_TARGET"
	ShotOutcomeAbsent    ShotOutcome = "ABSENT"
)

// Phase names the match phase used by the NAS detector's gating rules.
type Phase string

const (
	PhaseDefensive  Phase = "DEFENSIVE"
	PhaseTransition Phase = "TRANSITION"
	PhaseOffensive  Phase = "OFFENSIVE"
	PhaseUnknown    Phase = ""
)
