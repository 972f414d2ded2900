package canonical

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"

	"github.com/hikmetpinarbas/hpfa-go/pkg/detjson"
	"github.com/hikmetpinarbas/hpfa-go/pkg/epistemic"
)

// CanonEvent is the output of the Mapping Adapter and the input to the
// HSR/PSM pipeline. Invariant: if either TeamID or PlayerID is absent, the
// Possession State Machine must drive state to UNVALIDATED without side
// effects on possession identity; this package does not enforce that
// invariant itself, it only carries the presence information the PSM
// needs to enforce it.
type CanonEvent struct {
	EventID      string                `json:"event_id"`
	TeamID       OptionalID            `json:"-"`
	PlayerID     OptionalID            `json:"-"`
	EventType    epistemic.EventType   `json:"event_type"`
	Outcome      epistemic.Outcome     `json:"outcome"`
	ShotOutcome  epistemic.ShotOutcome `json:"shot_outcome,omitempty"`
	Qualifiers   map[string]string     `json:"qualifiers,omitempty"`
	Epistemic    epistemic.Status      `json:"epistemic"`
	Position     *Position             `json:"position,omitempty"`
	Timestamp    float64               `json:"timestamp"`
	AssumptionID uuid.UUID             `json:"-"`
}

// Position is a 2-D pitch coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// HasIdentity reports whether both TeamID and PlayerID are present. The PSM
// invariant for MISSING_IDENTITY keys off the negation of this: either one
// being absent is enough to trigger the gate.
func (e *CanonEvent) HasIdentity() bool {
	return e.TeamID.Present && e.PlayerID.Present
}

// asMap renders the event into the plain-value tree detjson expects,
// including the identity fields JSON tags deliberately omit so that
// reflection-based marshaling never has to special-case OptionalID.
func (e *CanonEvent) asMap() map[string]any {
	m := map[string]any{
		"event_id":   e.EventID,
		"event_type": string(e.EventType),
		"outcome":    string(e.Outcome),
		"epistemic":  string(e.Epistemic),
		"timestamp":  e.Timestamp,
	}
	if e.ShotOutcome != "" {
		m["shot_outcome"] = string(e.ShotOutcome)
	}
	if e.TeamID.Present {
		m["team_id"] = string(e.TeamID.Value)
	}
	if e.PlayerID.Present {
		m["player_id"] = string(e.PlayerID.Value)
	}
	if e.Position != nil {
		m["position"] = map[string]any{"x": e.Position.X, "y": e.Position.Y}
	}
	if e.AssumptionID != uuid.Nil {
		m["assumption_id"] = e.AssumptionID.String()
	}
	if len(e.Qualifiers) > 0 {
		q := make(map[string]any, len(e.Qualifiers))
		for k, v := range e.Qualifiers {
			q[k] = v
		}
		m["qualifiers"] = q
	}
	return m
}

// CanonicalBytes returns the deterministic JSON encoding of the event.
func (e *CanonEvent) CanonicalBytes() ([]byte, error) {
	return detjson.Marshal(e.asMap())
}

// ComputeHash returns the hex-encoded SHA-256 of the event's canonical
// bytes, used for artifact fingerprinting and duplicate detection.
func (e *CanonEvent) ComputeHash() (string, error) {
	b, err := e.CanonicalBytes()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
