// Package config loads pipeline run configuration from a base document
// optionally overlaid by an environment-specific document and process
// environment variables. It follows the same bounded, symlink-safe,
// deterministic-merge discipline used throughout the pipeline: every
// document read is size-capped and hashed, and the final merged tree is
// built with sorted keys so CanonicalJSON is reproducible across runs.
package config

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/hikmetpinarbas/hpfa-go/pkg/detjson"
	pipeerr "github.com/hikmetpinarbas/hpfa-go/pkg/errors"
)

// Defaults mirror the bounds used across the pipeline's bounded-read
// helpers; callers rarely need to change these outside of tests.
const (
	DefaultMaxFileBytes = 4 * 1024 * 1024
	DefaultMaxEnvVars   = 512
)

// Options controls how a run configuration is assembled.
type Options struct {
	// Env selects the optional overlay document, e.g. "dev", "ci", "prod".
	// Empty means base-only.
	Env string

	// EnvPrefix filters process environment variables that override the
	// merged tree, e.g. "HPFA_". Empty disables env overrides.
	EnvPrefix string

	MaxFileBytes int
	MaxEnvVars   int

	// Environ is injected for testability; nil means os.Environ().
	Environ []string
}

// Document is one loaded config layer with its provenance.
type Document struct {
	Path   string         `json:"path"`
	SHA256 string         `json:"sha256"`
	Data   map[string]any `json:"data"`
}

// Bundle is the fully merged configuration, plus the layers that produced it.
type Bundle struct {
	Env    string         `json:"env,omitempty"`
	Docs   []Document     `json:"docs"`
	Merged map[string]any `json:"merged"`
}

var envSegRe = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)

// Load reads base.json (required) and, when Options.Env is set,
// "<env>.json" in the same directory (optional), merges them with later
// layers winning, then applies process environment overrides. It fails
// closed: any I/O, parse, or bound violation returns an error instead of a
// partially-loaded bundle.
func Load(ctx context.Context, root string, opts Options) (*Bundle, error) {
	opts = withDefaults(opts)

	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return nil, pipeerr.Wrap(pipeerr.RuntimeIO, err, "resolve config root")
	}
	rootAbs, err = filepath.EvalSymlinks(rootAbs)
	if err != nil {
		return nil, pipeerr.Wrap(pipeerr.RuntimeIO, err, "resolve config root symlinks")
	}

	var docs []Document
	base, err := readDoc(rootAbs, "base.json", opts.MaxFileBytes)
	if err != nil {
		return nil, err
	}
	docs = append(docs, *base)

	layers := []map[string]any{base.Data}

	if opts.Env != "" {
		if !envSegRe.MatchString(opts.Env) {
			return nil, pipeerr.New(pipeerr.RuntimeParse, "invalid env name").With("env", opts.Env)
		}
		envPath := opts.Env + ".json"
		if _, statErr := os.Stat(filepath.Join(rootAbs, envPath)); statErr == nil {
			doc, err := readDoc(rootAbs, envPath, opts.MaxFileBytes)
			if err != nil {
				return nil, err
			}
			docs = append(docs, *doc)
			layers = append(layers, doc.Data)
		}
	}

	merged := mergeLayers(layers)

	if opts.EnvPrefix != "" {
		environ := opts.Environ
		if environ == nil {
			environ = os.Environ()
		}
		if err := applyEnvOverrides(merged, environ, opts.EnvPrefix, opts.MaxEnvVars); err != nil {
			return nil, err
		}
	}

	select {
	case <-ctx.Done():
		return nil, pipeerr.Wrap(pipeerr.RuntimeIO, ctx.Err(), "config load canceled")
	default:
	}

	return &Bundle{Env: opts.Env, Docs: docs, Merged: merged}, nil
}

// CanonicalJSON returns the deterministic encoding of the merged tree,
// the same bytes a second load of identical inputs would produce.
func (b *Bundle) CanonicalJSON() ([]byte, error) {
	return detjson.Marshal(b.Merged)
}

func withDefaults(o Options) Options {
	if o.MaxFileBytes <= 0 {
		o.MaxFileBytes = DefaultMaxFileBytes
	}
	if o.MaxEnvVars <= 0 {
		o.MaxEnvVars = DefaultMaxEnvVars
	}
	return o
}

func readDoc(rootAbs, relPath string, maxBytes int) (*Document, error) {
	full := filepath.Join(rootAbs, relPath)
	full, err := filepath.Abs(full)
	if err != nil {
		return nil, pipeerr.Wrap(pipeerr.RuntimeIO, err, "resolve config path").With("path", relPath)
	}
	if !withinRoot(rootAbs, full) {
		return nil, pipeerr.New(pipeerr.RuntimeIO, "config path escapes root").With("path", relPath)
	}

	info, err := os.Stat(full)
	if err != nil {
		return nil, pipeerr.Wrap(pipeerr.RuntimeIO, err, "stat config file").With("path", relPath)
	}
	if info.Size() > int64(maxBytes) {
		return nil, pipeerr.New(pipeerr.RuntimeIO, "config file exceeds max bytes").With("path", relPath)
	}

	raw, err := os.ReadFile(full)
	if err != nil {
		return nil, pipeerr.Wrap(pipeerr.RuntimeIO, err, "read config file").With("path", relPath)
	}

	sum := sha256.Sum256(raw)

	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return nil, pipeerr.Wrap(pipeerr.RuntimeParse, err, "decode config file").With("path", relPath)
	}
	if dec.More() {
		return nil, pipeerr.New(pipeerr.RuntimeParse, "trailing content after config document").With("path", relPath)
	}

	return &Document{Path: relPath, SHA256: hex.EncodeToString(sum[:]), Data: data}, nil
}

func withinRoot(rootAbs, candidate string) bool {
	rel, err := filepath.Rel(rootAbs, candidate)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// mergeLayers folds layers in order with later layers winning, recursing
// into nested maps and replacing on type conflicts or non-map values.
func mergeLayers(layers []map[string]any) map[string]any {
	out := map[string]any{}
	for _, layer := range layers {
		out = mergeMap(out, layer)
	}
	return out
}

func mergeMap(dst, src map[string]any) map[string]any {
	out := make(map[string]any, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	keys := make([]string, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sv := src[k]
		if dv, exists := out[k]; exists {
			dm, dok := dv.(map[string]any)
			sm, sok := sv.(map[string]any)
			if dok && sok {
				out[k] = mergeMap(dm, sm)
				continue
			}
		}
		out[k] = sv
	}
	return out
}

// applyEnvOverrides scans environ for keys with prefix, stripping the
// prefix and splitting on "__" to address nested paths, e.g.
// HPFA_PSM__COOLDOWN_MS=250 sets merged["psm"]["cooldown_ms"] = 250.
// Values are parsed as JSON scalars when possible, else kept as strings.
func applyEnvOverrides(merged map[string]any, environ []string, prefix string, maxVars int) error {
	seen := 0
	for _, kv := range environ {
		if !strings.HasPrefix(kv, prefix) {
			continue
		}
		seen++
		if seen > maxVars {
			return pipeerr.New(pipeerr.RuntimeIO, "too many env overrides").With("max", strconv.Itoa(maxVars))
		}
		eq := strings.IndexByte(kv, '=')
		if eq < 0 {
			continue
		}
		key := strings.TrimPrefix(kv[:eq], prefix)
		val := kv[eq+1:]
		if key == "" {
			continue
		}
		segs := strings.Split(strings.ToLower(key), "__")
		setPath(merged, segs, parseEnvValue(val))
	}
	return nil
}

func setPath(root map[string]any, segs []string, val any) {
	cur := root
	for i, seg := range segs {
		if i == len(segs)-1 {
			cur[seg] = val
			return
		}
		next, ok := cur[seg].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[seg] = next
		}
		cur = next
	}
}

func parseEnvValue(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	case "null", "":
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// Get navigates a dotted path ("psm.cooldown_ms") in the merged tree.
func (b *Bundle) Get(path string) (any, bool) {
	segs := strings.Split(path, ".")
	var cur any = b.Merged
	for _, seg := range segs {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// MustString fetches a string at path or returns def.
func (b *Bundle) MustString(path, def string) string {
	if v, ok := b.Get(path); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// MustInt fetches an int at path or returns def. Accepts json.Number,
// float64, and int64 shapes produced by the decoder or env override path.
func (b *Bundle) MustInt(path string, def int) int {
	v, ok := b.Get(path)
	if !ok {
		return def
	}
	switch x := v.(type) {
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return def
		}
		return int(n)
	case int64:
		return int(x)
	case float64:
		return int(x)
	case int:
		return x
	default:
		return def
	}
}
