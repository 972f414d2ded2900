package reports

import "sort"

// CoverageCount is one named bucket of occurrences, used both for the
// mapped/unmapped action tallies feeding coverage_ratio and the top-10
// unmapped listing.
type CoverageCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// MappingCoverageReport is the full coverage document.
type MappingCoverageReport struct {
	GeneratedAtUTC string          `json:"generated_at_utc"`
	Mapped         int             `json:"mapped"`
	Unmapped       int             `json:"unmapped"`
	CoverageRatio  float64         `json:"coverage_ratio"`
	TopUnmapped    []CoverageCount `json:"top_unmapped"`
}

// BuildMappingCoverageReport computes coverage_ratio = mapped / (mapped +
// unmapped) and the top-10 unmapped actions sorted by (-count, name). An
// empty run (mapped+unmapped == 0) reports a ratio of 0 rather than
// dividing by zero.
func BuildMappingCoverageReport(mapped int, unmappedCounts map[string]int, generatedAtUTC string) MappingCoverageReport {
	unmappedTotal := 0
	rows := make([]CoverageCount, 0, len(unmappedCounts))
	for name, count := range unmappedCounts {
		unmappedTotal += count
		rows = append(rows, CoverageCount{Name: name, Count: count})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Name < rows[j].Name
	})
	if len(rows) > 10 {
		rows = rows[:10]
	}

	ratio := 0.0
	if total := mapped + unmappedTotal; total > 0 {
		ratio = float64(mapped) / float64(total)
	}

	return MappingCoverageReport{
		GeneratedAtUTC: generatedAtUTC,
		Mapped:         mapped,
		Unmapped:       unmappedTotal,
		CoverageRatio:  ratio,
		TopUnmapped:    rows,
	}
}
