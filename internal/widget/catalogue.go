// Package widget serves the descriptive metadata attached to dashboard payloads.
package widget

import (
	"context"
	"slices"

	"flow-metrics/internal/workitem"
)

// Keys of the widgets the calculation engine produces payloads for.
const (
	Throughput              = "throughput"
	LeadTime                = "leadtime"
	WIP                     = "wip"
	ServiceLevel            = "servicelevel"
	Productivity            = "productivity"
	Predictability          = "predictability"
	Speed                   = "speed"
	ServiceLevelExpectation = "servicelevelexpectation"
	CustomerValue           = "customervalue"
	FlowEfficiency          = "flowefficiency"
)

var entries = map[string][]workitem.WidgetInformation{
	Throughput: {{
		Name:        "Throughput",
		Description: "Number of work items completed per period.",
		HowToRead:   "Each bar is one period. Gaps are periods where nothing was delivered.",
	}},
	LeadTime: {{
		Name:        "Lead Time",
		Description: "Whole days from commitment to delivery of completed work items.",
		HowToRead:   "Use the 85th percentile as a conservative expectation for new work.",
	}},
	WIP: {{
		Name:        "Work In Process",
		Description: "Work items started but not yet finished, and how long they have been open.",
	}},
	ServiceLevel: {{
		Name:        "Service Level",
		Description: "Share of work items finished within their service level expectation.",
		HowToRead:   "Target met compares each item against the SLE of its type, per project when configured.",
	}},
	Productivity: {{
		Name:        "Productivity",
		Description: "Throughput per period classified against the mean and standard deviation of the window.",
	}},
	Predictability: {{
		Name:        "Predictability",
		Description: "How far the tail of lead time and throughput strays from the median.",
		HowToRead:   "High variability means the 98th percentile is more than 5.6 times the median.",
	}},
	Speed: {{
		Name:        "Speed",
		Description: "85th percentile lead time compared with organisations working at the same level.",
	}},
	ServiceLevelExpectation: {{
		Name:        "Service Level Expectation",
		Description: "Target met across all completed work compared with the industry.",
	}},
	CustomerValue: {{
		Name:        "Customer Value",
		Description: "Share of completed work normalised as value demand.",
	}},
	FlowEfficiency: {{
		Name:        "Flow Efficiency",
		Description: "Active time as a share of total time for completed work.",
		Link:        "https://en.wikipedia.org/wiki/Flow_efficiency",
	}},
}

// Catalogue is the built-in WidgetInformationProvider.
type Catalogue struct{}

// NewCatalogue returns the built-in catalogue.
func NewCatalogue() *Catalogue {
	return &Catalogue{}
}

// GetWidgetInformation returns a copy of the entries for typeKey, empty when unknown.
func (c *Catalogue) GetWidgetInformation(_ context.Context, typeKey string) ([]workitem.WidgetInformation, error) {
	return slices.Clone(entries[typeKey]), nil
}

// Keys lists every known widget key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
