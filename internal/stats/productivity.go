package stats

// Productivity labels, ordered from worst to best.
const (
	NoWorkCompleted = "No work completed"
	Terrible        = "Terrible"
	Bad             = "Bad"
	Poor            = "Poor"
	SlightlyUnder   = "Slightly Under"
	Average         = "Average"
	Good            = "Good"
	Great           = "Great"
	Excellent       = "Excellent"
	Phenomenal      = "Phenomenal"
)

// UI colour tiers for productivity labels.
const (
	ColourRed    = "red"
	ColourYellow = "yellow"
	ColourGreen  = "green"
)

// ProductivityLabels lists every label in ascending order of performance.
var ProductivityLabels = []string{
	NoWorkCompleted, Terrible, Bad, Poor, SlightlyUnder,
	Average, Good, Great, Excellent, Phenomenal,
}

var productivityColours = map[string]string{
	NoWorkCompleted: ColourRed,
	Terrible:        ColourRed,
	Bad:             ColourRed,
	Poor:            ColourRed,
	SlightlyUnder:   ColourYellow,
	Average:         ColourYellow,
	Good:            ColourGreen,
	Great:           ColourGreen,
	Excellent:       ColourGreen,
	Phenomenal:      ColourGreen,
}

// ProductivityPoint is one classified value of a productivity series.
type ProductivityPoint struct {
	Value  float64 `json:"value"`
	Label  string  `json:"label"`
	Colour string  `json:"colour"`
}

// ProductivityColour returns the colour tier for a label, or "" if unknown.
func ProductivityColour(label string) string {
	return productivityColours[label]
}

// ClassifyProductivity places value into a band measured in standard deviations from the mean.
func ClassifyProductivity(value, mean, stdev float64) string {
	if value == 0 {
		return NoWorkCompleted
	}
	switch {
	case value < mean-3*stdev:
		return Terrible
	case value < mean-2*stdev:
		return Bad
	case value < mean-stdev:
		return Poor
	case value < mean:
		return SlightlyUnder
	case stdev == 0 || value < mean+stdev:
		return Average
	case value < mean+2*stdev:
		return Good
	case value < mean+3*stdev:
		return Great
	case value < mean+4*stdev:
		return Excellent
	}
	return Phenomenal
}

// CalculateProductivityByMeanAndStdv classifies every point of series against
// the population mean and standard deviation of the whole series.
func CalculateProductivityByMeanAndStdv(series []float64) []ProductivityPoint {
	mean := Mean(series)
	stdev := PopulationStdDev(series)

	points := make([]ProductivityPoint, len(series))
	for i, v := range series {
		label := ClassifyProductivity(v, mean, stdev)
		points[i] = ProductivityPoint{
			Value:  v,
			Label:  label,
			Colour: productivityColours[label],
		}
	}
	return points
}
