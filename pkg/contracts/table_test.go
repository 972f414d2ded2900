package contracts

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func baseValidator() *Validator {
	return &Validator{
		SchemaVersion: "contracts.v1",
		Constraints: Constraints{
			XMax: 105, YMax: 68, EpsilonM: 0.5,
			TMin: 0, TMax: 5400, HasPhaseID: true,
		},
		Columns: []ColumnSpec{
			{Name: "event_id", Required: true, Nullable: false, Type: TypeString},
			{Name: "x", Required: true, Nullable: false, Type: TypeFloat},
			{Name: "y", Required: true, Nullable: false, Type: TypeFloat},
			{Name: "event_start_time", Required: true, Nullable: false, Type: TypeFloat},
			{Name: "phase_id", Required: true, Nullable: false, Type: TypeInt},
			{Name: "outcome", Required: false, Nullable: true, Type: TypeEnum,
				EnumValues: []string{"SUCCESS", "FAIL"}, EnumFallback: "UNMAPPED_ENUM"},
		},
	}
}

func TestValidateAcceptsCleanRows(t *testing.T) {
	v := baseValidator()
	rows := []Row{{
		"event_id": "e1", "x": 10.0, "y": 20.0,
		"event_start_time": 12.5, "phase_id": 3, "outcome": "success",
	}}
	out, quarantine, report, err := v.Validate(rows)
	require.NoError(t, err)
	require.Empty(t, quarantine)
	require.Equal(t, "SUCCESS", out[0]["outcome"])
	require.Equal(t, 0, report.QuarantinedRows)
}

func TestValidateMissingRequiredColumnHardFails(t *testing.T) {
	v := baseValidator()
	rows := []Row{{"event_id": "e1", "x": 1.0, "y": 1.0, "event_start_time": 1.0}}
	_, _, _, err := v.Validate(rows)
	require.Error(t, err)
}

func TestValidateCoercesStringNumber(t *testing.T) {
	v := baseValidator()
	rows := []Row{{
		"event_id": "e1", "x": "10.5", "y": "20.0",
		"event_start_time": "12.0", "phase_id": "2", "outcome": nil,
	}}
	out, _, _, err := v.Validate(rows)
	require.NoError(t, err)
	require.Equal(t, 10.5, out[0]["x"])
	require.Equal(t, int64(2), out[0]["phase_id"])
}

func TestValidateUnmappedEnumQuarantinesAndDegrades(t *testing.T) {
	v := baseValidator()
	rows := []Row{{
		"event_id": "e1", "x": 1.0, "y": 1.0,
		"event_start_time": 1.0, "phase_id": 1, "outcome": "weird_value",
	}}
	out, quarantine, report, err := v.Validate(rows)
	require.NoError(t, err)
	require.Len(t, quarantine, 1)
	require.Equal(t, "UNMAPPED_ENUM", out[0]["outcome"])
	require.Equal(t, true, out[0]["audit_flag"])
	require.Equal(t, "LOW_CONFIDENCE", out[0]["epistemic_tag"])
	require.Equal(t, 1, report.QuarantinedRows)
}

func TestValidateNullEnumFallsBackWithoutQuarantine(t *testing.T) {
	v := baseValidator()
	rows := []Row{{
		"event_id": "e1", "x": 1.0, "y": 1.0,
		"event_start_time": 1.0, "phase_id": 1, "outcome": nil,
	}}
	out, quarantine, _, err := v.Validate(rows)
	require.NoError(t, err)
	require.Empty(t, quarantine)
	require.Equal(t, "UNMAPPED_ENUM", out[0]["outcome"])
}

func TestValidateNonNullableNullHardFails(t *testing.T) {
	v := baseValidator()
	rows := []Row{{
		"event_id": "e1", "x": nil, "y": 1.0,
		"event_start_time": 1.0, "phase_id": 1,
	}}
	_, _, _, err := v.Validate(rows)
	require.Error(t, err)
}

func TestValidateCoercionFailureOnNonNullableHardFails(t *testing.T) {
	v := baseValidator()
	rows := []Row{{
		"event_id": "e1", "x": "not-a-number", "y": 1.0,
		"event_start_time": 1.0, "phase_id": 1,
	}}
	_, _, _, err := v.Validate(rows)
	require.Error(t, err)
}

func TestValidateXOutOfBoundsHardFails(t *testing.T) {
	v := baseValidator()
	rows := []Row{{
		"event_id": "e1", "x": 999.0, "y": 1.0,
		"event_start_time": 1.0, "phase_id": 1,
	}}
	_, _, _, err := v.Validate(rows)
	require.Error(t, err)
}

func TestValidateXWithinEpsilonPasses(t *testing.T) {
	v := baseValidator()
	rows := []Row{{
		"event_id": "e1", "x": 105.4, "y": 1.0,
		"event_start_time": 1.0, "phase_id": 1,
	}}
	_, _, _, err := v.Validate(rows)
	require.NoError(t, err)
}

func TestValidatePhaseIDOutOfRangeHardFails(t *testing.T) {
	v := baseValidator()
	rows := []Row{{
		"event_id": "e1", "x": 1.0, "y": 1.0,
		"event_start_time": 1.0, "phase_id": 7,
	}}
	_, _, _, err := v.Validate(rows)
	require.Error(t, err)
}

func TestValidateDoesNotMutateSourceRows(t *testing.T) {
	v := baseValidator()
	source := Row{
		"event_id": "e1", "x": "10.5", "y": "20.0",
		"event_start_time": "12.0", "phase_id": "2", "outcome": "weird_value",
	}
	rows := []Row{source}
	out, _, _, err := v.Validate(rows)
	require.NoError(t, err)
	require.Equal(t, "10.5", source["x"], "source row must be untouched by coercion")
	require.Equal(t, "weird_value", source["outcome"], "source row must be untouched by enum quarantine")
	require.NotContains(t, source, "audit_flag")
	require.Equal(t, 10.5, out[0]["x"])
	require.Equal(t, "UNMAPPED_ENUM", out[0]["outcome"])
}

func TestValidateTimestampOutOfRangeHardFails(t *testing.T) {
	v := baseValidator()
	rows := []Row{{
		"event_id": "e1", "x": 1.0, "y": 1.0,
		"event_start_time": 9999.0, "phase_id": 1,
	}}
	_, _, _, err := v.Validate(rows)
	require.Error(t, err)
}
