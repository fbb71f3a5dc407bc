package aggregation

import (
	"reflect"
	"testing"
	"time"

	"flow-metrics/internal/calendar"
	"flow-metrics/internal/workitem"
)

func at(m time.Month, d int) *time.Time {
	t := time.Date(2024, m, d, 15, 0, 0, 0, time.UTC)
	return &t
}

func completed(id string, departure *time.Time) workitem.StateItem {
	return workitem.StateItem{WorkItemID: id, StateCategory: workitem.Completed, DepartureDateTime: departure}
}

func sampleItems() []workitem.StateItem {
	return []workitem.StateItem{
		completed("A", at(time.March, 5)),
		completed("B", at(time.March, 6)),
		completed("A", at(time.March, 5)),
		completed("C", at(time.March, 19)),
		completed("D", at(time.March, 26)),
		completed("E", nil),
		completed("F", at(time.April, 10)),
	}
}

func TestCompletedByAggregation_Weekly(t *testing.T) {
	period := calendar.Interval{
		Start: time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.March, 27, 23, 59, 59, 0, time.UTC),
	}

	tests := []struct {
		name    string
		exclude bool
		want    []int
	}{
		{"KeepsTrailingPartialWeek", false, []int{2, 0, 1, 1}},
		{"DropsTrailingPartialWeek", true, []int{2, 0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Counts(CompletedByAggregation(sampleItems(), calendar.Weekly, period, tt.exclude))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Counts() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompletedByAggregation_KeepsWholeTrailingWeek(t *testing.T) {
	period := calendar.Interval{
		Start: time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.March, 31, 23, 59, 59, 0, time.UTC),
	}
	buckets := CompletedByAggregation(sampleItems(), calendar.Weekly, period, true)
	if len(buckets) != 4 {
		t.Fatalf("len(buckets) = %d, want 4", len(buckets))
	}
	for i := 1; i < len(buckets); i++ {
		if !buckets[i].Start.After(buckets[i-1].Start) {
			t.Errorf("bucket %d starts at %v, not after %v", i, buckets[i].Start, buckets[i-1].Start)
		}
	}
}

func TestCompletedByAggregation_SundayMidnightIsNotWhole(t *testing.T) {
	start := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		end  time.Time
		want int
	}{
		{"SundayMidnight", time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC), 3},
		{"SundayAfternoon", time.Date(2024, time.March, 31, 15, 0, 0, 0, time.UTC), 3},
		{"LastSecondOfSunday", time.Date(2024, time.March, 31, 23, 59, 59, 0, time.UTC), 4},
		{"EndOfSunday", calendar.EndOfDay(time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)), 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			period := calendar.Interval{Start: start, End: tt.end}
			if got := len(CompletedByAggregation(sampleItems(), calendar.Weekly, period, true)); got != tt.want {
				t.Errorf("len(buckets) = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCompletedByAggregation_Monthly(t *testing.T) {
	period := calendar.Interval{
		Start: time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC),
	}
	items := []workitem.StateItem{
		completed("early", at(time.January, 10)),
		completed("jan", at(time.January, 20)),
		completed("mar", at(time.March, 3)),
	}
	got := Counts(CompletedByAggregation(items, calendar.Monthly, period, true))
	if want := []int{1, 0, 1}; !reflect.DeepEqual(got, want) {
		t.Errorf("Counts() = %v, want %v", got, want)
	}
}

func TestCompletedByAggregation_UsesPeriodLocation(t *testing.T) {
	loc := time.FixedZone("AEST", 10*3600)
	period := calendar.Interval{
		Start: time.Date(2024, time.March, 4, 0, 0, 0, 0, loc),
		End:   time.Date(2024, time.March, 17, 23, 59, 59, 0, loc),
	}
	// Sunday evening in UTC is Monday morning in AEST.
	dep := time.Date(2024, time.March, 10, 20, 0, 0, 0, time.UTC)
	items := []workitem.StateItem{completed("X", &dep)}

	got := Counts(CompletedByAggregation(items, calendar.Weekly, period, false))
	if want := []int{0, 1}; !reflect.DeepEqual(got, want) {
		t.Errorf("Counts() = %v, want %v", got, want)
	}
}

func TestCompletedByAggregation_IsIdempotent(t *testing.T) {
	period := calendar.Interval{
		Start: time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.March, 27, 23, 59, 59, 0, time.UTC),
	}
	items := sampleItems()
	before := sampleItems()

	first := CompletedByAggregation(items, calendar.Weekly, period, true)
	second := CompletedByAggregation(items, calendar.Weekly, period, true)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("second run differs:\n%v\n%v", first, second)
	}
	if !reflect.DeepEqual(items, before) {
		t.Error("input items were modified")
	}
}

func TestCompletedByFilters_InvalidPeriod(t *testing.T) {
	filters := &workitem.QueryFilters{Key: calendar.Weekly}
	buckets := CompletedByFilters(sampleItems(), filters, true)
	if buckets == nil || len(buckets) != 0 {
		t.Errorf("CompletedByFilters() = %v, want empty non-nil list", buckets)
	}
}

func TestByDate_Commitment(t *testing.T) {
	period := calendar.Interval{
		Start: time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.March, 6, 23, 59, 59, 0, time.UTC),
	}
	items := []workitem.StateItem{
		{WorkItemID: "1", CommitmentDateTime: at(time.March, 4)},
		{WorkItemID: "2", CommitmentDateTime: at(time.March, 6)},
		{WorkItemID: "3", DepartureDateTime: at(time.March, 5)},
	}
	got := Counts(ByDate(items, calendar.Daily, period, Commitment, false))
	if want := []int{1, 0, 1}; !reflect.DeepEqual(got, want) {
		t.Errorf("Counts() = %v, want %v", got, want)
	}
	if n := len(Flatten(ByDate(items, calendar.Daily, period, Commitment, false))); n != 2 {
		t.Errorf("len(Flatten()) = %d, want 2", n)
	}
}
