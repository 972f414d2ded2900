// Package reports generates the deterministic JSON and CSV artifacts the
// pipeline writes at the end of a run: unmapped-action rollups, mapping
// coverage, the baseline drift gate, and the canon-hash gate. Every JSON
// artifact is encoded through detjson so re-serialization is byte-identical
// across runs given identical input, aside from the single
// generated_at_utc field.
package reports

import (
	"sort"

	"github.com/hikmetpinarbas/hpfa-go/pkg/canonical"
	"github.com/hikmetpinarbas/hpfa-go/pkg/detjson"
	pipeerr "github.com/hikmetpinarbas/hpfa-go/pkg/errors"
)

const (
	maxExampleStringBytes = 512
	maxExampleKeyBytes    = 128
	maxExampleTotalBytes  = 2048
	maxExamplesPerGroup   = 3
)

// UnmappedActionRow is one group in the unmapped-actions report.
type UnmappedActionRow struct {
	ProviderAction string           `json:"provider_action"`
	Count          int              `json:"count"`
	Examples       []map[string]any `json:"examples"`
}

// UnmappedActionsReport is the full report document.
type UnmappedActionsReport struct {
	GeneratedAtUTC string              `json:"generated_at_utc"`
	Rows           []UnmappedActionRow `json:"rows"`
}

// BuildUnmappedActionsReport groups quarantine items whose reason is
// UNMAPPED_ACTION by provider_action, keeping up to three normalized
// examples per group chosen by the stable JSON ordering of the raw event.
func BuildUnmappedActionsReport(items []canonical.QuarantineItem, generatedAtUTC string) (UnmappedActionsReport, error) {
	byAction := map[string][]canonical.QuarantineItem{}
	for _, it := range items {
		if it.Reason != canonical.ReasonUnmappedAction {
			continue
		}
		byAction[it.ProviderAction] = append(byAction[it.ProviderAction], it)
	}

	rows := make([]UnmappedActionRow, 0, len(byAction))
	for action, group := range byAction {
		sorted, err := stableSortByCanonicalJSON(group)
		if err != nil {
			return UnmappedActionsReport{}, err
		}
		row := UnmappedActionRow{ProviderAction: action, Count: len(group)}
		for i := 0; i < len(sorted) && i < maxExamplesPerGroup; i++ {
			ex, err := normalizeExample(sorted[i].RawEvent)
			if err != nil {
				return UnmappedActionsReport{}, err
			}
			row.Examples = append(row.Examples, ex)
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].ProviderAction < rows[j].ProviderAction
	})

	return UnmappedActionsReport{GeneratedAtUTC: generatedAtUTC, Rows: rows}, nil
}

func stableSortByCanonicalJSON(items []canonical.QuarantineItem) ([]canonical.QuarantineItem, error) {
	type keyed struct {
		item canonical.QuarantineItem
		key  string
	}
	ks := make([]keyed, len(items))
	for i, it := range items {
		b, err := detjson.Marshal(it.RawEvent)
		if err != nil {
			return nil, pipeerr.Wrap(pipeerr.RuntimeParse, err, "reports: raw event not encodable")
		}
		ks[i] = keyed{item: it, key: string(b)}
	}
	sort.SliceStable(ks, func(i, j int) bool { return ks[i].key < ks[j].key })
	out := make([]canonical.QuarantineItem, len(ks))
	for i, k := range ks {
		out[i] = k.item
	}
	return out, nil
}

// normalizeExample sorts keys implicitly (map[string]any already sorts on
// encode), truncates string values to 512 bytes and keys to 128 bytes, and
// replaces the whole example with a truncation marker if it still exceeds
// 2048 bytes after normalization.
func normalizeExample(raw map[string]any) (map[string]any, error) {
	norm := map[string]any{}
	for k, v := range raw {
		nk := truncateBytes(k, maxExampleKeyBytes)
		norm[nk] = truncateValue(v)
	}

	b, err := detjson.Marshal(norm)
	if err != nil {
		return nil, pipeerr.Wrap(pipeerr.RuntimeParse, err, "reports: example not encodable")
	}
	if len(b) <= maxExampleTotalBytes {
		return norm, nil
	}

	prefix := b
	if len(prefix) > maxExampleTotalBytes {
		prefix = prefix[:maxExampleTotalBytes]
	}
	return map[string]any{
		"_truncated":   true,
		"_json_prefix": string(prefix),
	}, nil
}

func truncateValue(v any) any {
	if s, ok := v.(string); ok {
		return truncateBytes(s, maxExampleStringBytes)
	}
	return v
}

func truncateBytes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	b := []byte(s)[:max]
	for len(b) > 0 && !isUTF8Boundary(b) {
		b = b[:len(b)-1]
	}
	return string(b)
}

func isUTF8Boundary(b []byte) bool {
	if len(b) == 0 {
		return true
	}
	last := b[len(b)-1]
	return last&0xC0 != 0x80
}
