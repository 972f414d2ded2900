package registry

import (
	"regexp"
	"sort"
	"strings"

	pipeerr "github.com/hikmetpinarbas/hpfa-go/pkg/errors"
)

var (
	upperSnakeRe   = regexp.MustCompile(`^[A-Z][A-Z0-9]*(_[A-Z0-9]+)*$`)
	doubleUnderRe  = regexp.MustCompile(`__`)
)

var allowedStatusValues = map[string]bool{
	"core":       true,
	"aurelia":    true,
	"deprecated": true,
}

// IntegrityReport is the result of the registry self-test.
type IntegrityReport struct {
	SchemaVersion string
	ActionCount   int
	Violations    []string
}

// Passed reports whether the self-test found zero violations.
func (r IntegrityReport) Passed() bool { return len(r.Violations) == 0 }

// CheckIntegrity re-validates the loaded registry against the integrity
// constraints: every key UPPER_SNAKE_CASE with single underscores (no
// double-underscores), every value's status in the allowed set, and the
// raw source text free of any forbidden keyword. forbiddenKeywords is
// supplied by the caller rather than hardcoded, since the deployment that
// owns the registry source is the authority on what it must not contain.
func CheckIntegrity(reg *Registry, rawSourceText string, forbiddenKeywords []string) IntegrityReport {
	rep := IntegrityReport{SchemaVersion: reg.SchemaVersion, ActionCount: len(reg.actions)}

	if reg.SchemaVersion == "" {
		rep.Violations = append(rep.Violations, "schema_version must be a non-empty string")
	}

	ids := reg.IDs()
	for _, id := range ids {
		if !upperSnakeRe.MatchString(id) {
			rep.Violations = append(rep.Violations, "key not UPPER_SNAKE_CASE: "+id)
			continue
		}
		if doubleUnderRe.MatchString(id) {
			rep.Violations = append(rep.Violations, "key contains double underscore: "+id)
		}
		action := reg.actions[id]
		if !allowedStatusValues[strings.ToLower(action.Status)] {
			rep.Violations = append(rep.Violations, "invalid status for "+id+": "+action.Status)
		}
	}

	lower := strings.ToLower(rawSourceText)
	found := map[string]bool{}
	for _, kw := range forbiddenKeywords {
		k := strings.ToLower(strings.TrimSpace(kw))
		if k == "" {
			continue
		}
		if strings.Contains(lower, k) && !found[k] {
			found[k] = true
			rep.Violations = append(rep.Violations, "forbidden keyword present: "+kw)
		}
	}

	sort.Strings(rep.Violations)
	return rep
}

// MustPass returns an error built from the first integrity violation when
// the report did not pass, so callers can fail closed with a single call.
func (r IntegrityReport) MustPass() error {
	if r.Passed() {
		return nil
	}
	return pipeerr.New(pipeerr.RegistryInvalid, "registry integrity self-test failed").
		With("violation_count", len(r.Violations)).
		With("first_violation", r.Violations[0])
}
