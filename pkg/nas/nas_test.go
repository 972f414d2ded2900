package nas

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func failEvent(ts float64, zone string, pressure float64, eventID string) map[string]any {
	return map[string]any{
		"event_start_time": ts,
		"phase":            "DEFENSIVE",
		"state_id":         "CONTESTED",
		"action_type":      "TACKLE",
		"outcome":          "FAIL",
		"zone_id":          zone,
		"pressure_level":   pressure,
		"event_id":         eventID,
		"hsr_flags": map[string]any{
			"ring3_dead_ball_veto": false,
			"ring4_physics_veto":   false,
		},
	}
}

func TestScenarioThreeFailsWithinWindowFormSequence(t *testing.T) {
	events := []any{
		failEvent(10.0, "1", 0.5, "e1"),
		failEvent(10.3, "1", 0.6, "e2"),
		failEvent(10.7, "1", 0.7, "e3"),
	}
	seqs, err := Detect(events, 0.5, 3)
	require.NoError(t, err)
	require.Len(t, seqs, 1)
	require.Equal(t, 3, seqs[0].FailCount)
	require.Equal(t, "1", seqs[0].ZoneID)
}

func TestExactlyMinFailCountCounts(t *testing.T) {
	events := []any{
		failEvent(0.0, "z", 1, "a"),
		failEvent(0.3, "z", 1, "b"),
		failEvent(0.6, "z", 1, "c"),
	}
	seqs, err := Detect(events, 0.5, 3)
	require.NoError(t, err)
	require.Len(t, seqs, 1)
}

func TestBelowMinFailCountDoesNotCount(t *testing.T) {
	events := []any{
		failEvent(0.0, "z", 1, "a"),
		failEvent(0.3, "z", 1, "b"),
	}
	seqs, err := Detect(events, 0.5, 3)
	require.NoError(t, err)
	require.Empty(t, seqs)
}

func TestTimeGapExactlyAtMaxDtExtendsChain(t *testing.T) {
	events := []any{
		failEvent(0.0, "z", 1, "a"),
		failEvent(0.5, "z", 1, "b"),
		failEvent(1.0, "z", 1, "c"),
	}
	seqs, err := Detect(events, 0.5, 3)
	require.NoError(t, err)
	require.Len(t, seqs, 1)
	require.Equal(t, 3, seqs[0].FailCount)
}

func TestTimeGapOverMaxDtBreaksChain(t *testing.T) {
	events := []any{
		failEvent(0.0, "z", 1, "a"),
		failEvent(0.51, "z", 1, "b"),
		failEvent(1.02, "z", 1, "c"),
	}
	seqs, err := Detect(events, 0.5, 3)
	require.NoError(t, err)
	require.Empty(t, seqs)
}

func TestZoneMismatchBreaksChain(t *testing.T) {
	events := []any{
		failEvent(0.0, "z1", 1, "a"),
		failEvent(0.1, "z2", 1, "b"),
		failEvent(0.2, "z1", 1, "c"),
	}
	seqs, err := Detect(events, 0.5, 3)
	require.NoError(t, err)
	require.Empty(t, seqs)
}

func TestNonDefensivePhaseBreaksChain(t *testing.T) {
	offensive := failEvent(0.2, "z", 1, "b")
	offensive["phase"] = "OFFENSIVE"
	events := []any{
		failEvent(0.0, "z", 1, "a"),
		offensive,
		failEvent(0.4, "z", 1, "c"),
		failEvent(0.6, "z", 1, "d"),
	}
	seqs, err := Detect(events, 0.5, 3)
	require.NoError(t, err)
	require.Empty(t, seqs)
}

func TestRing3VetoBreaksChain(t *testing.T) {
	vetoed := failEvent(0.2, "z", 1, "b")
	vetoed["hsr_flags"].(map[string]any)["ring3_dead_ball_veto"] = true
	events := []any{failEvent(0.0, "z", 1, "a"), vetoed, failEvent(0.4, "z", 1, "c")}
	seqs, err := Detect(events, 0.5, 3)
	require.NoError(t, err)
	require.Empty(t, seqs)
}

func TestFailsClosedOnMissingField(t *testing.T) {
	ev := failEvent(0.0, "z", 1, "a")
	delete(ev, "zone_id")
	_, err := Detect([]any{ev}, 0.5, 3)
	require.Error(t, err)
}

func TestFailsClosedOnNonMapEvent(t *testing.T) {
	_, err := Detect([]any{"not a map"}, 0.5, 3)
	require.Error(t, err)
}

func TestAvgAndMaxPressure(t *testing.T) {
	events := []any{
		failEvent(0.0, "z", 1.0, "a"),
		failEvent(0.2, "z", 2.0, "b"),
		failEvent(0.4, "z", 3.0, "c"),
	}
	seqs, err := Detect(events, 0.5, 3)
	require.NoError(t, err)
	require.Len(t, seqs, 1)
	require.InDelta(t, 2.0, seqs[0].AvgPressure, 0.0001)
	require.Equal(t, 3.0, seqs[0].MaxPressure)
}
