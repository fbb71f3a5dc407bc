package stats

import "math"

// Two High/Low conventions coexist:
//   - HighVariabilityLimit compares the tail against the median (p98/p50 >= 5.6)
//     and is used for lead time distributions.
//   - ThroughputVariabilityLimit compares the median against the tail
//     (p50/p98 <= 0.4) and is used for weekly delivery counts.
const (
	HighVariabilityLimit       = 5.6
	ThroughputVariabilityLimit = 0.4
)

const (
	High = "High"
	Low  = "Low"
)

// IsVariabilityHigh reports whether the 98th percentile sits at least
// HighVariabilityLimit times above the median.
func IsVariabilityHigh(p50, p98 float64) bool {
	if p50 <= 0 {
		return p98 > 0
	}
	return p98/p50 >= HighVariabilityLimit
}

// Variability labels a lead time distribution as High or Low variability.
func Variability(p50, p98 float64) string {
	if IsVariabilityHigh(p50, p98) {
		return High
	}
	return Low
}

// Predictability is the inverted reading of Variability used by the service
// level and fitness criteria widgets: high variability means low predictability.
func Predictability(p50, p98 float64) string {
	if IsVariabilityHigh(p50, p98) {
		return Low
	}
	return High
}

// TargetForPredictability is the tail a predictable process should stay under.
func TargetForPredictability(median float64) float64 {
	return RoundToDecimalPlaces(median*HighVariabilityLimit, 2)
}

// ThroughputVariability labels weekly delivery counts using the ratio convention.
// It returns an empty string when there is nothing to compare against.
func ThroughputVariability(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	p50 := MustPercentile(50, values)
	p98 := MustPercentile(98, values)
	if p98 == 0 {
		return ""
	}
	if p50/p98 <= ThroughputVariabilityLimit {
		return High
	}
	return Low
}

// ThroughputByCoefficient labels a series by its coefficient of variation.
// A zero or undefined coefficient yields an empty string.
func ThroughputByCoefficient(values []float64) string {
	mean := Mean(values)
	if mean == 0 {
		return ""
	}
	cov := PopulationStdDev(values) / mean
	if cov == 0 || math.IsNaN(cov) || math.IsInf(cov, 0) {
		return ""
	}
	if cov <= ThroughputVariabilityLimit {
		return High
	}
	return Low
}
