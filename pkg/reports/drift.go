package reports

import (
	"sort"

	pipeerr "github.com/hikmetpinarbas/hpfa-go/pkg/errors"
)

// DriftResult reports the set-difference between a baseline and the
// current run's unmapped provider actions.
type DriftResult struct {
	Novel []string
	Clean bool
}

// CheckBaselineDrift hard-fails if current contains any provider action
// absent from baseline. Novel actions are returned in full, sorted, on
// both the success and failure path so a caller can log them regardless.
func CheckBaselineDrift(baseline, current []string) (DriftResult, error) {
	known := make(map[string]bool, len(baseline))
	for _, b := range baseline {
		known[b] = true
	}

	var novel []string
	for _, c := range current {
		if !known[c] {
			novel = append(novel, c)
		}
	}
	sort.Strings(novel)

	if len(novel) > 0 {
		return DriftResult{Novel: novel, Clean: false}, pipeerr.New(pipeerr.BaselineDriftDetected, "reports: baseline drift detected").
			With("novel_count", len(novel)).With("novel_actions", novel)
	}
	return DriftResult{Clean: true}, nil
}
