// Package mapping implements the Mapping Adapter: translation of provider
// events into canonical events via a contract-validated map. The adapter
// is side-effect-free — it returns quarantine items as an output list
// rather than writing to an ambient log — so callers can run it in tests
// or in a dry-run mode without touching any shared state.
package mapping

import (
	"encoding/json"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/hikmetpinarbas/hpfa-go/pkg/canonical"
	pipeerr "github.com/hikmetpinarbas/hpfa-go/pkg/errors"
	"github.com/hikmetpinarbas/hpfa-go/pkg/epistemic"
	"github.com/hikmetpinarbas/hpfa-go/pkg/registry"
)

// Entry is one record of the mapping contract: a provider action resolved
// to a canonical action, whether that resolution is lossy, and the
// assumption backing it. AssumptionID is a 128-bit opaque identifier;
// equality is bitwise via uuid.UUID's own comparison, and serialization is
// always the canonical lowercase-hyphenated form.
type Entry struct {
	CanonAction  string
	Lossy        bool
	AssumptionID uuid.UUID
}

// Contract is the full provider_action -> Entry map, keyed by the raw
// provider action string exactly as it appears in source events (not
// normalized — Resolve in pkg/registry owns normalization separately for
// alias matching; the mapping contract is a direct lookup).
type Contract map[string]Entry

// sourceEntry is the on-disk shape of one mapping contract record: every
// key is required, matching the contract's own rule that "every
// recognized provider action has exactly one entry" — a partially
// specified entry is not a lesser entry, it is an invalid one.
type sourceEntry struct {
	CanonAction  *string `json:"canon_action"`
	Lossy        *bool   `json:"lossy"`
	AssumptionID *string `json:"assumption_id"`
}

// LoadContract parses the mapping contract document: a JSON object keyed
// by provider_action, each value an object with canon_action, lossy, and
// assumption_id. Every key is mandatory; a missing key or an
// unparseable assumption_id fails closed rather than defaulting.
func LoadContract(r io.Reader) (Contract, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, pipeerr.Wrap(pipeerr.RuntimeIO, err, "mapping: read contract source")
	}

	var doc map[string]sourceEntry
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, pipeerr.Wrap(pipeerr.RuntimeParse, err, "mapping: parse contract json")
	}

	providerActions := make([]string, 0, len(doc))
	for pa := range doc {
		providerActions = append(providerActions, pa)
	}
	sort.Strings(providerActions)

	out := make(Contract, len(doc))
	for _, pa := range providerActions {
		spec := doc[pa]
		if spec.CanonAction == nil || spec.Lossy == nil || spec.AssumptionID == nil {
			return nil, pipeerr.New(pipeerr.RuntimeParse, "mapping: contract entry missing required key").With("provider_action", pa)
		}
		canonAction := strings.TrimSpace(*spec.CanonAction)
		if canonAction == "" {
			return nil, pipeerr.New(pipeerr.RuntimeParse, "mapping: empty canon_action").With("provider_action", pa)
		}
		id, err := uuid.Parse(*spec.AssumptionID)
		if err != nil {
			return nil, pipeerr.Wrap(pipeerr.RuntimeParse, err, "mapping: invalid assumption_id").With("provider_action", pa)
		}
		out[pa] = Entry{CanonAction: canonAction, Lossy: *spec.Lossy, AssumptionID: id}
	}
	return out, nil
}

// Result is the output of running the adapter over a batch of provider
// events.
type Result struct {
	Events     []canonical.CanonEvent
	Quarantine []canonical.QuarantineItem
}

// Apply translates raw provider events into canonical events. Each event
// is a plain document; the field "provider_action" is read and trimmed.
// nowUTC stamps quarantine items; callers normally supply clock.FormatRFC3339UTC(clk.Now()).
func Apply(events []map[string]any, contract Contract, nowUTC string) Result {
	var res Result
	for _, raw := range events {
		action, present := extractAction(raw)
		if !present {
			res.Quarantine = append(res.Quarantine, canonical.QuarantineItem{
				Reason:         canonical.ReasonMissingAction,
				ProviderAction: "",
				RawEvent:       raw,
				TSUtc:          nowUTC,
			})
			continue
		}

		entry, ok := contract[action]
		if !ok {
			res.Quarantine = append(res.Quarantine, canonical.QuarantineItem{
				Reason:         canonical.ReasonUnmappedAction,
				ProviderAction: action,
				RawEvent:       raw,
				TSUtc:          nowUTC,
			})
			continue
		}

		status := epistemic.StatusFact
		if entry.Lossy {
			status = epistemic.StatusSignal
		}

		ev := buildCanonEvent(raw, entry, status)
		res.Events = append(res.Events, ev)
	}
	return res
}

func extractAction(raw map[string]any) (string, bool) {
	v, ok := raw["provider_action"]
	if !ok {
		v, ok = raw["action"]
	}
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}

func buildCanonEvent(raw map[string]any, entry Entry, status epistemic.Status) canonical.CanonEvent {
	ev := canonical.CanonEvent{
		EventType:    epistemic.EventType(entry.CanonAction),
		Outcome:      epistemic.ParseOutcome(stringField(raw, "outcome"), hasField(raw, "outcome")),
		Epistemic:    status,
		Timestamp:    floatField(raw, "timestamp"),
		AssumptionID: entry.AssumptionID,
	}
	if id, ok := stringOK(raw, "event_id"); ok {
		ev.EventID = id
	}
	if tid, ok := canonical.NewOptionalID(stringField(raw, "team_id")); ok {
		ev.TeamID = tid
	}
	if pid, ok := canonical.NewOptionalID(stringField(raw, "player_id")); ok {
		ev.PlayerID = pid
	}
	return ev
}

func hasField(raw map[string]any, key string) bool {
	_, ok := raw[key]
	return ok
}

func stringField(raw map[string]any, key string) string {
	s, _ := stringOK(raw, key)
	return s
}

func stringOK(raw map[string]any, key string) (string, bool) {
	v, ok := raw[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func floatField(raw map[string]any, key string) float64 {
	v, ok := raw[key]
	if !ok {
		return 0
	}
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	case int64:
		return float64(x)
	}
	return 0
}

// ValidateAgainstRegistry checks that every canon_action referenced by the
// contract exists in reg, the separate gate test required by the external
// interface contract.
func ValidateAgainstRegistry(contract Contract, reg *registry.Registry) []string {
	providers := make([]string, 0, len(contract))
	for provider := range contract {
		providers = append(providers, provider)
	}
	sort.Strings(providers)

	var missing []string
	for _, provider := range providers {
		entry := contract[provider]
		if reg.Get(entry.CanonAction) == nil {
			missing = append(missing, provider+" -> "+entry.CanonAction)
		}
	}
	return missing
}
