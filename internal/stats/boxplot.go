package stats

import "slices"

// BoxPlot is the five-number style summary used by the delivery rate and lead time widgets.
type BoxPlot struct {
	Median             float64   `json:"median"`
	Quartile1st        float64   `json:"quartile1st"`
	Quartile3rd        float64   `json:"quartile3rd"`
	InterQuartileRange float64   `json:"interQuartileRange"`
	LowerWhisker       float64   `json:"lowerWhisker"`
	UpperWhisker       float64   `json:"upperWhisker"`
	LowerOutliers      []float64 `json:"lowerOutliers"`
	UpperOutliers      []float64 `json:"upperOutliers"`
}

// NewBoxPlot builds a box plot from an unordered sample. The boolean is false
// when the sample is empty and there is nothing to plot.
func NewBoxPlot(values []float64) (BoxPlot, bool) {
	if len(values) == 0 {
		return BoxPlot{}, false
	}

	sorted := sortedCopy(values)
	median := MustPercentile(50, sorted)
	q1 := MustPercentile(25, sorted)
	q3 := MustPercentile(75, sorted)
	iqr := q3 - q1
	lower := q1 - 1.5*iqr
	upper := q3 + 1.5*iqr

	lowerOutliers := []float64{}
	upperOutliers := []float64{}
	for _, v := range sorted {
		switch {
		case v < lower:
			lowerOutliers = append(lowerOutliers, RoundToDecimalPlaces(v, 2))
		case v > upper:
			upperOutliers = append(upperOutliers, RoundToDecimalPlaces(v, 2))
		}
	}

	return BoxPlot{
		Median:             median,
		Quartile1st:        q1,
		Quartile3rd:        q3,
		InterQuartileRange: RoundToDecimalPlaces(iqr, 2),
		LowerWhisker:       RoundToDecimalPlaces(lower, 2),
		UpperWhisker:       RoundToDecimalPlaces(upper, 2),
		LowerOutliers:      slices.Compact(lowerOutliers),
		UpperOutliers:      slices.Compact(upperOutliers),
	}, true
}
