package reports

import "github.com/hikmetpinarbas/hpfa-go/pkg/fingerprint"

// CanonHashGateReport is the terminal pass/fail document for the
// canon-hash gate.
type CanonHashGateReport struct {
	GeneratedAtUTC string                        `json:"generated_at_utc"`
	Action         string                        `json:"action"` // PASS | WARN | QUARANTINE
	Missing        []string                      `json:"missing,omitempty"`
	Mismatched     []fingerprint.MismatchedFile  `json:"mismatched,omitempty"`
}

// RunCanonHashGate wraps fingerprint.Verify and shapes its outcome into the
// engine_gate_report.json action vocabulary. The gate never returns QUARANTINE
// on its own; that action is reserved for callers layering epistemic
// degrade on top of a structurally passing run.
func RunCanonHashGate(m fingerprint.Manifest, baseDir, generatedAtUTC string) (CanonHashGateReport, error) {
	result, err := fingerprint.Verify(m, baseDir)
	if err != nil {
		return CanonHashGateReport{
			GeneratedAtUTC: generatedAtUTC,
			Action:         "WARN",
			Missing:        result.Missing,
			Mismatched:     result.Mismatched,
		}, err
	}
	return CanonHashGateReport{GeneratedAtUTC: generatedAtUTC, Action: "PASS"}, nil
}
