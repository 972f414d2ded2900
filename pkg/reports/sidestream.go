package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/hikmetpinarbas/hpfa-go/pkg/canonical"
	"github.com/hikmetpinarbas/hpfa-go/pkg/detjson"
	pipeerr "github.com/hikmetpinarbas/hpfa-go/pkg/errors"
)

// QuarantineCSVFileName builds the side-stream file name for one reason,
// e.g. quarantine_UNMAPPED_ENUM_20260731T120000Z.csv.
func QuarantineCSVFileName(reason canonical.QuarantineReason, utcStamp string) string {
	return fmt.Sprintf("quarantine_%s_%s.csv", reason, utcStamp)
}

// RenderQuarantineCSV writes one row per item: reason, provider_action,
// ts_utc, raw_event (rendered as compact JSON via detjson so a single cell
// round-trips deterministically).
func RenderQuarantineCSV(items []canonical.QuarantineItem) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = false

	if err := w.Write([]string{"reason", "provider_action", "ts_utc", "raw_event"}); err != nil {
		return nil, pipeerr.Wrap(pipeerr.RuntimeIO, err, "reports: csv header write failed")
	}

	for _, it := range items {
		raw, err := marshalCell(it.RawEvent)
		if err != nil {
			return nil, err
		}
		row := []string{string(it.Reason), it.ProviderAction, it.TSUtc, raw}
		if err := w.Write(row); err != nil {
			return nil, pipeerr.Wrap(pipeerr.RuntimeIO, err, "reports: csv row write failed")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, pipeerr.Wrap(pipeerr.RuntimeIO, err, "reports: csv flush failed")
	}
	return buf.Bytes(), nil
}

func marshalCell(raw map[string]any) (string, error) {
	b, err := detjson.Marshal(raw)
	if err != nil {
		return "", pipeerr.Wrap(pipeerr.RuntimeParse, err, "reports: raw event not encodable")
	}
	return string(b), nil
}

// ManifestLog renders the human-readable companion to the quarantine
// side-streams: one line per reason with its row count, deterministic
// order by reason name.
func ManifestLog(counts map[canonical.QuarantineReason]int, generatedAtUTC string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "generated_at_utc=%s\n", generatedAtUTC)

	reasons := []canonical.QuarantineReason{
		canonical.ReasonMissingAction,
		canonical.ReasonUnmappedAction,
		canonical.ReasonUnmappedEnum,
	}
	for _, r := range reasons {
		fmt.Fprintf(&b, "%s=%d\n", r, counts[r])
	}
	return b.String()
}
