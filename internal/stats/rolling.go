package stats

// RollingWindowSize is the number of points, current included, in a rolling window.
const RollingWindowSize = 4

// RollingStdDev returns the population standard deviation of the trailing window ending at i.
func RollingStdDev(series []float64, i int) float64 {
	return PopulationStdDev(trailingWindow(series, i))
}

// RollingMean returns the mean of the trailing window ending at i.
func RollingMean(series []float64, i int) float64 {
	return Mean(trailingWindow(series, i))
}

// CalculateRollingCoefficient returns the rolling coefficient of variation for
// each point of series. A nil entry means the coefficient is undefined: the
// first point always, and any window whose mean is zero.
func CalculateRollingCoefficient(series []float64) []*float64 {
	out := make([]*float64, len(series))
	for i := range series {
		if i == 0 {
			continue
		}
		mean := RollingMean(series, i)
		if mean == 0 {
			continue
		}
		cov := RoundToDecimalPlaces(RollingStdDev(series, i)/mean, 2)
		out[i] = &cov
	}
	return out
}

func trailingWindow(series []float64, i int) []float64 {
	if i < 0 || i >= len(series) {
		return nil
	}
	start := i - (RollingWindowSize - 1)
	if start < 0 {
		start = 0
	}
	return series[start : i+1]
}
