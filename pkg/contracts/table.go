package contracts

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	pipeerr "github.com/hikmetpinarbas/hpfa-go/pkg/errors"
	"github.com/hikmetpinarbas/hpfa-go/pkg/epistemic"
)

// ColumnType names a tabular Contract Validator target type.
type ColumnType string

const (
	TypeString ColumnType = "string"
	TypeBool   ColumnType = "bool"
	TypeInt    ColumnType = "int"
	TypeFloat  ColumnType = "float"
	TypeEnum   ColumnType = "enum"
)

// ColumnSpec declares one column's coercion and constraint rules.
type ColumnSpec struct {
	Name           string
	Required       bool
	Nullable       bool
	Type           ColumnType
	EnumValues     []string // canonical set, already uppercase
	EnumFallback   string
	RequiredGroup  string // carried on the spec only; Validate checks presence per column via Required and does not read it
}

// Constraints bounds the three range-checked fields. EpsilonM widens the
// pitch bounding box by a small tolerance on both axes.
type Constraints struct {
	XMax, YMax float64
	EpsilonM   float64
	TMin, TMax float64
	HasPhaseID bool
}

// Row is one tabular record keyed by column name.
type Row map[string]any

// ValidationReport summarizes one validation run.
type ValidationReport struct {
	Errors         []string
	Warnings       []string
	QuarantinedRows int
	SchemaVersion  string
}

// QuarantinedRow is appended to the quarantine stream for every
// UNMAPPED_ENUM cell encountered.
type QuarantinedRow struct {
	RowIndex int
	Column   string
	Reason   string
	Raw      any
}

// Validator runs the six-stage tabular contract pipeline.
type Validator struct {
	Columns       []ColumnSpec
	Constraints   Constraints
	SchemaVersion string
}

// Validate runs all six stages over rows in order. It never mutates
// sourceRows: each row is copied into a new Row before coercion begins, so
// the caller's original table is untouched regardless of outcome. A hard
// error at any stage aborts validation and is returned as the fourth value;
// the returned rows and quarantine reflect state up to the abort point and
// must not be treated as complete.
func (v *Validator) Validate(sourceRows []Row) ([]Row, []QuarantinedRow, ValidationReport, error) {
	report := ValidationReport{SchemaVersion: v.SchemaVersion}
	var quarantine []QuarantinedRow

	if err := v.checkRequiredColumns(sourceRows); err != nil {
		return sourceRows, quarantine, report, err
	}

	rows := make([]Row, len(sourceRows))
	for i, src := range sourceRows {
		row := make(Row, len(src))
		for k, val := range src {
			row[k] = val
		}
		rows[i] = row
	}

	for i := range rows {
		if err := v.coerceRow(rows[i], i); err != nil {
			return rows, quarantine, report, err
		}
	}

	for i := range rows {
		v.enforceEnums(rows[i], i, &quarantine, &report)
	}

	if err := v.recheckNonNull(rows); err != nil {
		return rows, quarantine, report, err
	}

	for i := range rows {
		if err := v.checkConstraints(rows[i], i); err != nil {
			return rows, quarantine, report, err
		}
	}

	report.QuarantinedRows = len(quarantine)
	return rows, quarantine, report, nil
}

func (v *Validator) checkRequiredColumns(rows []Row) error {
	for _, col := range v.Columns {
		if !col.Required {
			continue
		}
		for i, row := range rows {
			if _, ok := row[col.Name]; !ok {
				return pipeerr.New(pipeerr.SchemaMissingColumn, "contracts: required column absent").
					With("column", col.Name).With("row", i)
			}
		}
	}
	return nil
}

func (v *Validator) coerceRow(row Row, idx int) error {
	for _, col := range v.Columns {
		raw, present := row[col.Name]
		if !present {
			continue
		}
		if raw == nil {
			if !col.Nullable {
				return pipeerr.New(pipeerr.SchemaCoercionFailed, "contracts: null in non-nullable column").
					With("column", col.Name).With("row", idx)
			}
			continue
		}

		switch col.Type {
		case TypeString, TypeEnum:
			row[col.Name] = fmt.Sprintf("%v", raw)

		case TypeBool:
			b, ok := coerceBool(raw)
			if !ok {
				if !col.Nullable {
					return pipeerr.New(pipeerr.SchemaCoercionFailed, "contracts: bool coercion failed").
						With("column", col.Name).With("row", idx)
				}
				row[col.Name] = nil
				continue
			}
			row[col.Name] = b

		case TypeFloat:
			f, ok := coerceFloat(raw)
			if !ok || math.IsNaN(f) {
				if !col.Nullable {
					return pipeerr.New(pipeerr.SchemaCoercionFailed, "contracts: float coercion failed").
						With("column", col.Name).With("row", idx)
				}
				row[col.Name] = nil
				continue
			}
			row[col.Name] = f

		case TypeInt:
			f, ok := coerceFloat(raw)
			if !ok || math.IsNaN(f) {
				if !col.Nullable {
					return pipeerr.New(pipeerr.SchemaCoercionFailed, "contracts: int coercion failed").
						With("column", col.Name).With("row", idx)
				}
				row[col.Name] = nil
				continue
			}
			row[col.Name] = int64(math.Round(f))
		}
	}
	return nil
}

func (v *Validator) enforceEnums(row Row, idx int, quarantine *[]QuarantinedRow, report *ValidationReport) {
	for _, col := range v.Columns {
		if col.Type != TypeEnum {
			continue
		}
		raw, present := row[col.Name]
		if !present {
			continue
		}
		if raw == nil {
			row[col.Name] = col.EnumFallback
			continue
		}
		s := strings.ToUpper(fmt.Sprintf("%v", raw))
		if containsString(col.EnumValues, s) {
			row[col.Name] = s
			continue
		}

		*quarantine = append(*quarantine, QuarantinedRow{
			RowIndex: idx, Column: col.Name, Reason: string(pipeerr.EpistemicUnmappedEnum), Raw: raw,
		})
		row[col.Name] = col.EnumFallback
		row["audit_flag"] = true
		row["epistemic_tag"] = string(epistemic.PopperTagLowConfidence)
		report.Warnings = append(report.Warnings, fmt.Sprintf("row %d column %q: unmapped enum value %q quarantined", idx, col.Name, raw))
	}
}

func (v *Validator) recheckNonNull(rows []Row) error {
	for _, col := range v.Columns {
		if col.Nullable {
			continue
		}
		for i, row := range rows {
			if val, ok := row[col.Name]; ok && val == nil {
				return pipeerr.New(pipeerr.SchemaCoercionFailed, "contracts: non-nullable column is null post-coercion").
					With("column", col.Name).With("row", i)
			}
		}
	}
	return nil
}

func (v *Validator) checkConstraints(row Row, idx int) error {
	c := v.Constraints
	if x, ok := floatVal(row, "x"); ok {
		if x < -c.EpsilonM || x > c.XMax+c.EpsilonM {
			return pipeerr.New(pipeerr.SchemaConstraintFailed, "contracts: x out of bounds").With("row", idx).With("x", x)
		}
	}
	if y, ok := floatVal(row, "y"); ok {
		if y < -c.EpsilonM || y > c.YMax+c.EpsilonM {
			return pipeerr.New(pipeerr.SchemaConstraintFailed, "contracts: y out of bounds").With("row", idx).With("y", y)
		}
	}
	if ts, ok := floatVal(row, "event_start_time"); ok {
		if ts < c.TMin || ts > c.TMax {
			return pipeerr.New(pipeerr.SchemaConstraintFailed, "contracts: timestamp out of bounds").With("row", idx).With("ts", ts)
		}
	}
	if c.HasPhaseID {
		if p, ok := floatVal(row, "phase_id"); ok {
			if p < 1 || p > 6 {
				return pipeerr.New(pipeerr.SchemaConstraintFailed, "contracts: phase_id out of range").With("row", idx).With("phase_id", p)
			}
		}
	}
	return nil
}

func coerceBool(raw any) (bool, bool) {
	switch x := raw.(type) {
	case bool:
		return x, true
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "1", "yes":
			return true, true
		case "false", "0", "no":
			return false, true
		}
	}
	return false, false
}

func coerceFloat(raw any) (float64, bool) {
	switch x := raw.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return math.NaN(), false
		}
		return f, true
	}
	return math.NaN(), false
}

func floatVal(row Row, key string) (float64, bool) {
	v, ok := row[key]
	if !ok || v == nil {
		return 0, false
	}
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	}
	return 0, false
}

func containsString(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

// SortedColumnNames returns declared column names in lexical order, used
// by reports that must render a table deterministically.
func (v *Validator) SortedColumnNames() []string {
	names := make([]string, len(v.Columns))
	for i, c := range v.Columns {
		names[i] = c.Name
	}
	sort.Strings(names)
	return names
}
