// Package nas implements the Negative Action Spiral detector: a sequence
// detector over consecutive failed actions within a single zone during a
// defensive or transition phase, gated by the HSR veto flags attached to
// each event.
package nas

import (
	"sort"
	"strconv"
	"strings"

	pipeerr "github.com/hikmetpinarbas/hpfa-go/pkg/errors"
	"github.com/hikmetpinarbas/hpfa-go/pkg/epistemic"
)

// DefaultMaxDtS and DefaultMinFailCount are the spec-mandated defaults for
// chain extension and sequence promotion.
const (
	DefaultMaxDtS       = 0.5
	DefaultMinFailCount = 3
)

// Sequence is one flushed, promoted chain of consecutive failures.
type Sequence struct {
	StartTS     float64  `json:"start_ts"`
	EndTS       float64  `json:"end_ts"`
	ZoneID      string   `json:"zone_id"`
	FailCount   int      `json:"fail_count"`
	AvgPressure float64  `json:"avg_pressure"`
	MaxPressure float64  `json:"max_pressure"`
	EventIDs    []string `json:"event_ids"`
}

type parsedEvent struct {
	ts        float64
	phase     epistemic.Phase
	stateID   epistemic.PossessionState
	outcome   string
	zoneID    string
	pressure  float64
	ring3Veto bool
	ring4Veto bool
	eventID   string
}

// Detect runs the NAS chain algorithm over raw events. It fails closed if
// any event is not a mapping, a required field is absent, or a declared
// numeric field fails to parse; it never skips a malformed event silently.
func Detect(raw []any, maxDtS float64, minFailCount int) ([]Sequence, error) {
	if maxDtS <= 0 {
		maxDtS = DefaultMaxDtS
	}
	if minFailCount <= 0 {
		minFailCount = DefaultMinFailCount
	}

	parsed := make([]parsedEvent, 0, len(raw))
	for i, r := range raw {
		pe, err := parseEvent(r)
		if err != nil {
			return nil, pipeerr.Wrap(pipeerr.RuntimeParse, err, "nas: malformed event").With("index", i)
		}
		parsed = append(parsed, pe)
	}

	sort.SliceStable(parsed, func(i, j int) bool { return parsed[i].ts < parsed[j].ts })

	var sequences []Sequence
	var chain []parsedEvent
	var lastFailTS float64

	flush := func() {
		if len(chain) >= minFailCount {
			sequences = append(sequences, buildSequence(chain))
		}
		chain = nil
	}

	for _, e := range parsed {
		if gateBreaks(e) {
			flush()
			continue
		}

		if len(chain) == 0 {
			chain = append(chain, e)
			lastFailTS = e.ts
			continue
		}

		sameZone := e.zoneID == chain[len(chain)-1].zoneID
		withinWindow := (e.ts - lastFailTS) <= maxDtS
		if sameZone && withinWindow {
			chain = append(chain, e)
			lastFailTS = e.ts
		} else {
			flush()
			chain = append(chain, e)
			lastFailTS = e.ts
		}
	}
	flush()

	return sequences, nil
}

func gateBreaks(e parsedEvent) bool {
	if e.phase != epistemic.PhaseDefensive && e.phase != epistemic.PhaseTransition {
		return true
	}
	if e.stateID == epistemic.StateDeadBall {
		return true
	}
	if e.ring3Veto || e.ring4Veto {
		return true
	}
	if !strings.EqualFold(e.outcome, "fail") {
		return true
	}
	return false
}

func buildSequence(chain []parsedEvent) Sequence {
	seq := Sequence{
		StartTS:   chain[0].ts,
		EndTS:     chain[len(chain)-1].ts,
		ZoneID:    chain[0].zoneID,
		FailCount: len(chain),
	}
	sum := 0.0
	maxP := chain[0].pressure
	for _, e := range chain {
		sum += e.pressure
		if e.pressure > maxP {
			maxP = e.pressure
		}
		seq.EventIDs = append(seq.EventIDs, e.eventID)
	}
	seq.AvgPressure = sum / float64(len(chain))
	seq.MaxPressure = maxP
	return seq
}

func parseEvent(r any) (parsedEvent, error) {
	m, ok := r.(map[string]any)
	if !ok {
		return parsedEvent{}, pipeerr.New(pipeerr.FailClosedNonObjectEvent, "nas event is not a mapping")
	}

	ts, ok := numField(m, "event_start_time")
	if !ok {
		return parsedEvent{}, fieldErr("event_start_time")
	}
	phaseRaw, ok := strField(m, "phase")
	if !ok {
		return parsedEvent{}, fieldErr("phase")
	}
	stateRaw, ok := strField(m, "state_id")
	if !ok {
		return parsedEvent{}, fieldErr("state_id")
	}
	if _, ok := strField(m, "action_type"); !ok {
		return parsedEvent{}, fieldErr("action_type")
	}
	outcomeRaw, ok := strField(m, "outcome")
	if !ok {
		return parsedEvent{}, fieldErr("outcome")
	}
	zoneID, ok := anyFieldAsString(m, "zone_id")
	if !ok {
		return parsedEvent{}, fieldErr("zone_id")
	}
	pressure, ok := numField(m, "pressure_level")
	if !ok {
		return parsedEvent{}, fieldErr("pressure_level")
	}
	flagsRaw, ok := m["hsr_flags"].(map[string]any)
	if !ok {
		return parsedEvent{}, fieldErr("hsr_flags")
	}
	ring3, ok := boolField(flagsRaw, "ring3_dead_ball_veto")
	if !ok {
		return parsedEvent{}, fieldErr("hsr_flags.ring3_dead_ball_veto")
	}
	ring4, ok := boolField(flagsRaw, "ring4_physics_veto")
	if !ok {
		return parsedEvent{}, fieldErr("hsr_flags.ring4_physics_veto")
	}
	eventID, _ := strField(m, "event_id")

	return parsedEvent{
		ts:        ts,
		phase:     epistemic.Phase(phaseRaw),
		stateID:   epistemic.PossessionState(stateRaw),
		outcome:   outcomeRaw,
		zoneID:    zoneID,
		pressure:  pressure,
		ring3Veto: ring3,
		ring4Veto: ring4,
		eventID:   eventID,
	}, nil
}

func fieldErr(name string) error {
	return pipeerr.New(pipeerr.FailClosedMissingRequiredKeys, "nas: required field missing or unparseable").With("field", name)
}

func strField(m map[string]any, key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func boolField(m map[string]any, key string) (bool, bool) {
	v, ok := m[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

func numField(m map[string]any, key string) (float64, bool) {
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
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func anyFieldAsString(m map[string]any, key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	switch x := v.(type) {
	case string:
		return x, true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	}
	return "", false
}
