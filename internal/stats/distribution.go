package stats

// DistributionSummary describes the shape of a duration sample.
type DistributionSummary struct {
	Minimum                 float64   `json:"minimum"`
	Maximum                 float64   `json:"maximum"`
	Modes                   []float64 `json:"modes"`
	Average                 float64   `json:"average"`
	Percentile50th          float64   `json:"percentile50th"`
	Percentile85th          float64   `json:"percentile85th"`
	Percentile95th          float64   `json:"percentile95th"`
	Percentile98th          float64   `json:"percentile98th"`
	TargetForPredictability float64   `json:"targetForPredictability"`
}

// Summarize computes the distribution summary of values. An empty sample yields
// a zeroed summary with no modes.
func Summarize(values []float64) DistributionSummary {
	if len(values) == 0 {
		return DistributionSummary{Modes: []float64{}}
	}

	sorted := sortedCopy(values)
	p50 := MustPercentile(50, sorted)

	return DistributionSummary{
		Minimum:                 sorted[0],
		Maximum:                 sorted[len(sorted)-1],
		Modes:                   Modes(sorted),
		Average:                 RoundToDecimalPlaces(Mean(sorted), 2),
		Percentile50th:          p50,
		Percentile85th:          MustPercentile(85, sorted),
		Percentile95th:          MustPercentile(95, sorted),
		Percentile98th:          MustPercentile(98, sorted),
		TargetForPredictability: TargetForPredictability(p50),
	}
}
