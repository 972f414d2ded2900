// Package telemetry provides a bounded, deterministic structured logger.
// Every line is a single JSON object with sorted keys; no package in the
// canonicalization pipeline calls time.Now directly, so callers supply the
// timestamp (normally via pkg/clock) and log lines stay reproducible in
// tests.
package telemetry

import (
	"bytes"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/hikmetpinarbas/hpfa-go/pkg/detjson"
)

// Level ranks log severity. Higher ranks are more severe.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

const (
	MaxFields     = 64
	MaxKeyLen     = 64
	MaxValLen     = 512
	MaxMessageLen = 1024
)

// Field is a single structured log attribute.
type Field struct {
	K string
	V any
}

// F is shorthand for constructing a Field.
func F(k string, v any) Field { return Field{K: k, V: v} }

// Options configures a Logger.
type Options struct {
	Service string
	Level   Level
}

// Logger writes bounded, deterministic JSON log lines. The zero value is
// not usable; construct with NewLogger.
type Logger struct {
	w       io.Writer
	mu      sync.Mutex
	service string
	level   Level
}

// Nop discards everything written to it.
var Nop = NewLogger(io.Discard, Options{Service: "nop", Level: LevelError + 1})

// NewLogger constructs a Logger writing to w.
func NewLogger(w io.Writer, opt Options) *Logger {
	if w == nil {
		w = os.Stdout
	}
	return &Logger{w: w, service: opt.Service, level: opt.Level}
}

// NewDefaultLogger writes info-and-above lines to stdout.
func NewDefaultLogger(service string) *Logger {
	return NewLogger(os.Stdout, Options{Service: service, Level: LevelInfo})
}

func (l *Logger) enabled(lvl Level) bool { return lvl >= l.level }

// Debug logs at debug level.
func (l *Logger) Debug(ts time.Time, msg string, fields ...Field) { l.log(ts, LevelDebug, msg, fields) }

// Info logs at info level.
func (l *Logger) Info(ts time.Time, msg string, fields ...Field) { l.log(ts, LevelInfo, msg, fields) }

// Warn logs at warn level.
func (l *Logger) Warn(ts time.Time, msg string, fields ...Field) { l.log(ts, LevelWarn, msg, fields) }

// Error logs at error level.
func (l *Logger) Error(ts time.Time, msg string, fields ...Field) { l.log(ts, LevelError, msg, fields) }

func (l *Logger) log(ts time.Time, lvl Level, msg string, fields []Field) {
	if !l.enabled(lvl) {
		return
	}
	doc := map[string]any{
		"ts":      ts.UTC().Format(time.RFC3339Nano),
		"level":   lvl.String(),
		"service": l.service,
		"msg":     sanitizeText(msg, MaxMessageLen),
	}

	n := len(fields)
	if n > MaxFields {
		n = MaxFields
	}
	for i := 0; i < n; i++ {
		k := sanitizeText(fields[i].K, MaxKeyLen)
		if k == "" {
			continue
		}
		doc[k] = sanitizeValue(fields[i].V)
	}
	if len(fields) > MaxFields {
		doc["fields_truncated"] = true
	}

	line, err := detjson.Marshal(doc)
	if err != nil {
		line = []byte(`{"level":"error","msg":"telemetry: failed to encode log line"}`)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.w.Write(line)
	_, _ = l.w.Write([]byte{'\n'})
}

func sanitizeText(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) > max {
		s = s[:max]
	}
	var b bytes.Buffer
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// sanitizeValue bounds string values and passes structured values through
// for deterministic encoding by detjson; unsupported types are stringified.
func sanitizeValue(v any) any {
	switch x := v.(type) {
	case string:
		return sanitizeText(x, MaxValLen)
	case nil, bool, int, int64, float64, map[string]any, []any:
		return x
	case error:
		return sanitizeText(x.Error(), MaxValLen)
	default:
		return sanitizeText(toDebugString(x), MaxValLen)
	}
}

func toDebugString(v any) string {
	type stringer interface{ String() string }
	if s, ok := v.(stringer); ok {
		return s.String()
	}
	return "unsupported"
}
