package benchmark

import (
	"fmt"
	"math"
)

// MatchPercentile returns the percentile of the last row whose DataValue is at
// or below value, or 0 when value is below every row.
func MatchPercentile(value float64, rows []Row) float64 {
	matched := 0.0
	for _, r := range rows {
		if r.DataValue > value {
			break
		}
		matched = r.PercentileValue
	}
	return matched
}

// IndustryStandardMessage places value against rows. When invert is set a
// higher value is worse, so the position is measured from the top of the table.
func IndustryStandardMessage(value float64, rows []Row, label string, invert bool) string {
	pct := MatchPercentile(value, rows)
	if invert {
		pct = 100 - pct
	}
	if pct >= 50 {
		return fmt.Sprintf("Your %s is ahead of %s%% of the industry", label, formatPercent(pct))
	}
	return fmt.Sprintf("Your %s is behind %s%% of the industry", label, formatPercent(100-pct))
}

// FlowEfficiencyMessage always reports the share of organisations value is ahead of.
func FlowEfficiencyMessage(value float64, rows []Row) string {
	pct := MatchPercentile(value, rows)
	return fmt.Sprintf("Your flow efficiency is ahead of %s%% of the industry", formatPercent(pct))
}

// MatchCohort returns the first band containing value.
func MatchCohort(value float64, cohorts []Cohort) (Cohort, bool) {
	for _, c := range cohorts {
		if c.StartValue <= value && value <= c.EndValue {
			return c, true
		}
	}
	return Cohort{}, false
}

// IndustryCohortMessage names the cohort value falls in, or returns "" when no band matches.
func IndustryCohortMessage(value float64, cohorts []Cohort, label, unit string) string {
	c, ok := MatchCohort(value, cohorts)
	if !ok {
		return ""
	}
	return fmt.Sprintf("A %s of %s%s puts you in the %s cohort (%s%s to %s%s)",
		label, formatPercent(value), unit, c.Label,
		formatPercent(c.StartValue), unit, formatPercent(c.EndValue), unit)
}

func formatPercent(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
