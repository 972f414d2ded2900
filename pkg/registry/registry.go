// Package registry loads the canonical action catalog and resolves raw
// provider action strings onto canonical action identifiers.
package registry

import (
	"io"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hikmetpinarbas/hpfa-go/pkg/canonical"
	pipeerr "github.com/hikmetpinarbas/hpfa-go/pkg/errors"
	"github.com/hikmetpinarbas/hpfa-go/pkg/epistemic"
)

// sourceDoc is the on-disk shape of the registry: a schema version plus a
// mapping keyed by canonical action id.
type sourceDoc struct {
	SchemaVersion string                  `yaml:"schema_version"`
	Actions       map[string]sourceRecord `yaml:"actions"`
}

type sourceRecord struct {
	Aliases           []string            `yaml:"aliases"`
	PossessionEffect  string              `yaml:"possession_effect"`
	AllowedStates     []string            `yaml:"allowed_states"`
	FailClosedDefault string              `yaml:"fail_closed_default"`
	Qualifiers        map[string][]string `yaml:"qualifiers"`
	Status            string              `yaml:"status"`
}

// ResolutionStatus is returned by Resolve alongside the canonical id.
type ResolutionStatus string

const (
	ResolutionValid       ResolutionStatus = "VALID"
	ResolutionUnvalidated ResolutionStatus = "UNVALIDATED"
)

// UnknownActionID is returned by Resolve when no alias matches.
const UnknownActionID = "UNKNOWN"

var canonicalActionIDRe = regexp.MustCompile(`^[A-Z][A-Z0-9]*(_[A-Z0-9]+)*$`)

// Registry is the immutable, process-lifetime action catalog.
type Registry struct {
	SchemaVersion string
	actions       map[string]*canonical.CanonicalAction
	aliasOwner    map[string]string // normalized alias -> canonical id
}

// Load parses a declarative catalog from r. It fails closed on: a missing
// canonical_action key (a key that is not UPPER_SNAKE_CASE), allowed_states
// not a sequence, and any normalized alias already claimed by another
// canonical action.
func Load(r io.Reader) (*Registry, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, pipeerr.Wrap(pipeerr.RuntimeIO, err, "read registry source")
	}

	var doc sourceDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, pipeerr.Wrap(pipeerr.RegistryInvalid, err, "parse registry yaml")
	}
	if doc.SchemaVersion == "" {
		return nil, pipeerr.New(pipeerr.RegistryInvalid, "registry missing schema_version")
	}
	if len(doc.Actions) == 0 {
		return nil, pipeerr.New(pipeerr.RegistryInvalid, "registry declares no actions")
	}

	reg := &Registry{
		SchemaVersion: doc.SchemaVersion,
		actions:       map[string]*canonical.CanonicalAction{},
		aliasOwner:    map[string]string{},
	}

	ids := make([]string, 0, len(doc.Actions))
	for id := range doc.Actions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		rec := doc.Actions[id]
		if !canonicalActionIDRe.MatchString(id) {
			return nil, pipeerr.New(pipeerr.RegistryInvalid, "canonical_action must be UPPER_SNAKE_CASE").With("canonical_action", id)
		}
		if len(rec.AllowedStates) == 0 {
			return nil, pipeerr.New(pipeerr.RegistryInvalid, "allowed_states must be a non-empty sequence").With("canonical_action", id)
		}

		allowed := map[epistemic.PossessionState]bool{}
		for _, s := range rec.AllowedStates {
			allowed[epistemic.PossessionState(s)] = true
		}

		action := &canonical.CanonicalAction{
			ID:                id,
			PossessionEffect:  epistemic.Effect(rec.PossessionEffect),
			AllowedStates:     allowed,
			FailClosedDefault: epistemic.PossessionState(rec.FailClosedDefault),
			Aliases:           map[string]bool{},
			Qualifiers:        rec.Qualifiers,
			Status:            rec.Status,
		}

		aliasSources := append([]string{id}, rec.Aliases...)
		for _, raw := range aliasSources {
			norm := NormalizeAlias(raw)
			if norm == "" {
				continue
			}
			if owner, exists := reg.aliasOwner[norm]; exists && owner != id {
				return nil, pipeerr.New(pipeerr.RegistryAliasCollision, "normalized alias claimed by more than one canonical action").
					With("alias", norm).With("first_owner", owner).With("second_owner", id)
			}
			reg.aliasOwner[norm] = id
			action.Aliases[norm] = true
		}

		reg.actions[id] = action
	}

	return reg, nil
}

// Get returns the CanonicalAction for id, or nil if unknown.
func (r *Registry) Get(id string) *canonical.CanonicalAction {
	return r.actions[id]
}

// IDs returns every canonical action id in sorted order.
func (r *Registry) IDs() []string {
	out := make([]string, 0, len(r.actions))
	for id := range r.actions {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Resolve maps a raw provider action string, plus optional hints, onto a
// canonical action id. Unknown raw actions return (UNKNOWN, {}, UNVALIDATED)
// without error. Goalkeeper-save resolution carries a conservative
// gk_holds=false default when no hint is given, preventing an adapter from
// speculatively establishing control on a save it cannot confirm was held.
func (r *Registry) Resolve(rawAction string, hints map[string]string) (string, map[string]string, ResolutionStatus) {
	norm := NormalizeAlias(rawAction)
	if norm == "" {
		return UnknownActionID, map[string]string{}, ResolutionUnvalidated
	}
	id, ok := r.aliasOwner[norm]
	if !ok {
		return UnknownActionID, map[string]string{}, ResolutionUnvalidated
	}

	qualifiers := map[string]string{}
	for k, v := range hints {
		qualifiers[k] = v
	}
	if id == "GK_SAVE" {
		if _, has := qualifiers["gk_holds"]; !has {
			qualifiers["gk_holds"] = "false"
		}
	}
	return id, qualifiers, ResolutionValid
}

// AliasCount returns the total number of distinct normalized aliases
// registered, used by drift checks to sanity-check registry size.
func (r *Registry) AliasCount() int { return len(r.aliasOwner) }
