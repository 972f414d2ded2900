package telemetry

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoggerWritesDeterministicJSONLine(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, Options{Service: "hpfa-pipeline", Level: LevelInfo})
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	l.Info(ts, "record accepted", F("tenant", "acme"), F("count", 3))

	line := strings.TrimSpace(buf.String())
	require.Contains(t, line, `"level":"info"`)
	require.Contains(t, line, `"service":"hpfa-pipeline"`)
	require.Contains(t, line, `"tenant":"acme"`)
	require.Less(t, strings.Index(line, `"count"`), strings.Index(line, `"level"`))
}

func TestLoggerRespectsLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, Options{Service: "svc", Level: LevelWarn})
	ts := time.Unix(0, 0)

	l.Debug(ts, "should not appear")
	l.Info(ts, "should not appear either")
	require.Empty(t, buf.String())

	l.Warn(ts, "this appears")
	require.Contains(t, buf.String(), "this appears")
}

func TestLoggerTruncatesOversizedFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, Options{Service: "svc", Level: LevelInfo})
	ts := time.Unix(0, 0)

	fields := make([]Field, MaxFields+5)
	for i := range fields {
		fields[i] = F("k", i)
	}
	l.Info(ts, "many fields", fields...)
	require.Contains(t, buf.String(), `"fields_truncated":true`)
}

func TestNopLoggerDiscardsEverything(t *testing.T) {
	Nop.Info(time.Unix(0, 0), "noop")
}
