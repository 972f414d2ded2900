// Package canonical holds the wire-level types produced and consumed by
// the canonicalization pipeline: canonical actions, canonical events,
// quarantine items, and possession frames.
package canonical

import (
	"regexp"
	"strings"
)

// idRe bounds opaque identifiers (team_id, player_id, event_id): non-empty,
// printable ASCII, no surrounding whitespace. The pipeline never
// interprets these values beyond equality, so the bound exists only to
// reject obviously malformed input early.
var idRe = regexp.MustCompile(`^[A-Za-z0-9_.:-]{1,128}$`)

// ID is an opaque, validated identifier for a team, player, or event.
type ID string

// ValidID reports whether s is a well-formed opaque identifier.
func ValidID(s string) bool {
	if s == "" {
		return false
	}
	return idRe.MatchString(s) && strings.TrimSpace(s) == s
}

// OptionalID parses an identifier that may legitimately be absent from an
// event. present must come from the source document's field presence, not
// from an empty-string check, since an empty string and an absent field
// both collapse to the same Go zero value.
type OptionalID struct {
	Value   ID
	Present bool
}

// NoID is the canonical representation of an absent identifier.
var NoID = OptionalID{}

// NewOptionalID constructs a present, validated OptionalID.
func NewOptionalID(s string) (OptionalID, bool) {
	if !ValidID(s) {
		return OptionalID{}, false
	}
	return OptionalID{Value: ID(s), Present: true}, true
}
