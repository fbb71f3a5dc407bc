// Package benchmark holds the industry reference tables used to place a
// metric among other organisations, and the lookups that phrase the result.
package benchmark

// Row maps a metric value to the share of organisations at or below it.
type Row struct {
	PercentileValue float64 `json:"percentileValue"`
	DataValue       float64 `json:"dataValue"`
}

// Cohort is a named band of metric values, bounds included.
type Cohort struct {
	Label      string  `json:"label"`
	StartValue float64 `json:"startValue"`
	EndValue   float64 `json:"endValue"`
}

// Rows are ascending in DataValue.
var (
	sleRows = []Row{
		{0, 0}, {10, 20}, {20, 32}, {30, 41}, {40, 50},
		{50, 58}, {60, 66}, {70, 74}, {80, 82}, {90, 90}, {95, 95},
	}
	leadTimePortfolioRows = []Row{
		{5, 21}, {10, 35}, {20, 49}, {30, 63}, {40, 77},
		{50, 91}, {60, 112}, {70, 140}, {80, 182}, {90, 245}, {95, 320},
	}
	leadTimeTeamRows = []Row{
		{5, 2}, {10, 3}, {20, 5}, {30, 7}, {40, 9},
		{50, 12}, {60, 15}, {70, 20}, {80, 27}, {90, 40}, {95, 56},
	}
	customerValueRows = []Row{
		{0, 0}, {10, 15}, {20, 25}, {30, 33}, {40, 40},
		{50, 47}, {60, 54}, {70, 61}, {80, 69}, {90, 78}, {95, 85},
	}
	flowEfficiencyRows = []Row{
		{0, 0}, {10, 3}, {20, 5}, {30, 8}, {40, 10},
		{50, 13}, {60, 15}, {70, 19}, {80, 24}, {90, 32}, {95, 40},
	}

	flowEfficiencyCohorts = []Cohort{
		{"low", 0, 14.99},
		{"typical", 15, 39.99},
		{"high", 40, 100},
	}
	customerValueCohorts = []Cohort{
		{"mostly failure demand", 0, 29.99},
		{"balanced", 30, 59.99},
		{"mostly value demand", 60, 100},
	}
)

// SLE returns the target met table, in percent.
func SLE() []Row { return clone(sleRows) }

// LeadTimePortfolio returns the 85th percentile lead time table for portfolio items, in days.
// A higher lead time is worse, so callers invert the percentile.
func LeadTimePortfolio() []Row { return clone(leadTimePortfolioRows) }

// LeadTimeTeam is LeadTimePortfolio for team level items.
func LeadTimeTeam() []Row { return clone(leadTimeTeamRows) }

// CustomerValue returns the value demand share table, in percent.
func CustomerValue() []Row { return clone(customerValueRows) }

// FlowEfficiency returns the flow efficiency table, in percent.
func FlowEfficiency() []Row { return clone(flowEfficiencyRows) }

func FlowEfficiencyCohorts() []Cohort { return clone(flowEfficiencyCohorts) }

func CustomerValueCohorts() []Cohort { return clone(customerValueCohorts) }

func clone[T any](s []T) []T {
	out := make([]T, len(s))
	copy(out, s)
	return out
}
