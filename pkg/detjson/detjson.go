// Package detjson implements deterministic JSON encoding: sorted object
// keys, stable separators, and no HTML escaping. Every artifact the
// pipeline writes to disk or hashes (reports, manifests, canonical events)
// goes through this encoder so that two runs over the same input produce
// byte-identical output.
package detjson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// MaxBytes bounds a single encoded document. Callers that need a different
// bound should use EncodeBounded directly; Marshal uses this default.
const MaxBytes = 16 * 1024 * 1024

// ErrTooLarge is returned when encoded output would exceed the byte bound.
var ErrTooLarge = fmt.Errorf("detjson: encoded document exceeds max bytes")

// Marshal encodes v deterministically using the default byte bound.
func Marshal(v any) ([]byte, error) {
	return EncodeBounded(v, MaxBytes)
}

// EncodeBounded encodes v deterministically, failing closed if the result
// would exceed maxBytes. v must already be built from plain Go values
// (map[string]any, []any, string, bool, nil, and numeric types) or a type
// implementing json.Marshaler; struct values are first normalized through
// encoding/json and then re-walked for determinism.
func EncodeBounded(v any, maxBytes int) ([]byte, error) {
	norm, err := normalize(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := encodeValue(&buf, norm, maxBytes); err != nil {
		return nil, err
	}
	if buf.Len() > maxBytes {
		return nil, ErrTooLarge
	}
	return buf.Bytes(), nil
}

// normalize round-trips v through encoding/json when it is not already a
// plain value tree, so struct tags and json.Marshaler implementations are
// respected before deterministic re-encoding.
func normalize(v any) (any, error) {
	switch v.(type) {
	case nil, bool, string, map[string]any, []any:
		return v, nil
	}
	switch v.(type) {
	case float64, float32, int, int64, int32, uint, uint64, uint32, json.Number:
		return v, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func encodeValue(buf *bytes.Buffer, v any, maxBytes int) error {
	if buf.Len() > maxBytes {
		return ErrTooLarge
	}
	switch x := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if x {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case string:
		encodeString(buf, x)
	case json.Number:
		buf.WriteString(x.String())
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("detjson: non-finite float cannot be encoded deterministically")
		}
		buf.WriteString(formatFloat(x))
	case int:
		fmt.Fprintf(buf, "%d", x)
	case int64:
		fmt.Fprintf(buf, "%d", x)
	case int32, uint, uint32, uint64:
		fmt.Fprintf(buf, "%d", x)
	case float32:
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("detjson: non-finite float cannot be encoded deterministically")
		}
		buf.WriteString(formatFloat(f))
	case []any:
		buf.WriteByte('[')
		for i, item := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeValue(buf, item, maxBytes); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			encodeString(buf, k)
			buf.WriteByte(':')
			if err := encodeValue(buf, x[k], maxBytes); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("detjson: unsupported type %T after normalization", v)
	}
	return nil
}

// encodeString writes s as a JSON string without HTML escaping, matching
// the behavior of json.Encoder with SetEscapeHTML(false) but without
// depending on the trailing newline that encoder adds.
func encodeString(buf *bytes.Buffer, s string) {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
