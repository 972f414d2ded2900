// Package clock isolates all wall-clock reads behind a narrow interface.
// Hot-path packages never call time.Now directly: callers supply a Clock
// (or a fixed timestamp) so that generated_at_utc fields, log timestamps,
// and audit records stay deterministic under test.
package clock

import "time"

// Clock returns the current time. Production code uses Real; tests use a
// Fixed or Sequence clock so output is reproducible.
type Clock interface {
	Now() time.Time
}

// Real is the production Clock backed by time.Now.
type Real struct{}

// Now returns the current UTC time.
func (Real) Now() time.Time { return time.Now().UTC() }

// Fixed is a Clock that always returns the same instant.
type Fixed time.Time

// Now returns the fixed instant.
func (f Fixed) Now() time.Time { return time.Time(f) }

// Sequence is a Clock that advances by a fixed step on every call,
// starting from Start. Useful for tests that need monotonically
// increasing but deterministic timestamps.
type Sequence struct {
	Start time.Time
	Step  time.Duration
	n     int
}

// Now returns Start + n*Step and advances n.
func (s *Sequence) Now() time.Time {
	t := s.Start.Add(time.Duration(s.n) * s.Step)
	s.n++
	return t
}

// FormatRFC3339UTC renders t as an RFC3339 timestamp in UTC with second
// precision, the canonical wire format for generated_at_utc fields.
func FormatRFC3339UTC(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ParseRFC3339UTC parses an RFC3339 timestamp and normalizes it to UTC.
func ParseRFC3339UTC(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
