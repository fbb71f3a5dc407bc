package workitem

import (
	"testing"
	"time"

	"flow-metrics/internal/calendar"
)

func TestQueryFilters_Defaults(t *testing.T) {
	f := &QueryFilters{Key: "fortnight", Timezone: "Nowhere/Special"}
	if f.Aggregation() != calendar.Weekly {
		t.Errorf("Aggregation() = %v, want week", f.Aggregation())
	}
	if f.ClientTimezone() != "UTC" {
		t.Errorf("ClientTimezone() = %v, want UTC", f.ClientTimezone())
	}
	if _, ok := f.DatePeriod(); ok {
		t.Error("missing period should not be ok")
	}
}

func TestQueryFilters_SetSafeAggregation(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		key  calendar.AggregationKey
		days int
		want calendar.AggregationKey
	}{
		{"UnknownBecomesWeek", "fortnight", 60, calendar.Weekly},
		{"YearSteppedDownToQuarter", calendar.Yearly, 60, calendar.Quarterly},
		{"MonthTooCoarseForThreeWeeks", calendar.Monthly, 20, calendar.Weekly},
		{"WeekTooCoarseForThreeDays", calendar.Weekly, 3, calendar.Daily},
		{"QuarterKeptForAYear", calendar.Quarterly, 365, calendar.Quarterly},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &QueryFilters{
				Period: calendar.Interval{Start: start, End: start.AddDate(0, 0, tt.days)},
				Key:    tt.key,
			}
			f.SetSafeAggregation()
			if f.Key != tt.want {
				t.Errorf("SetSafeAggregation() = %v, want %v", f.Key, tt.want)
			}
		})
	}
}
