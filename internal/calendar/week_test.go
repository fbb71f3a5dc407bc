package calendar

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestNewWeek_ISOIdentity(t *testing.T) {
	tests := []struct {
		name       string
		at         time.Time
		wantYear   int
		wantNumber int
		wantStart  time.Time
	}{
		{"MidYear", date(2024, time.June, 12), 2024, 24, time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)},
		{"Sunday", date(2024, time.June, 16), 2024, 24, time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)},
		{"JanuaryInPreviousYearWeek", date(2021, time.January, 2), 2020, 53, time.Date(2020, time.December, 28, 0, 0, 0, 0, time.UTC)},
		{"DecemberInNextYearWeek", date(2024, time.December, 31), 2025, 1, time.Date(2024, time.December, 30, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWeek(tt.at)
			if w.Year != tt.wantYear || w.Number != tt.wantNumber || !w.Start.Equal(tt.wantStart) {
				t.Errorf("NewWeek(%v) = %d-W%d starting %v, want %d-W%d starting %v",
					tt.at, w.Year, w.Number, w.Start, tt.wantYear, tt.wantNumber, tt.wantStart)
			}
		})
	}
}

func TestIsNextWeekOf(t *testing.T) {
	tests := []struct {
		name    string
		earlier time.Time
		want    bool
		later   time.Time
	}{
		{"SevenDaysApart", date(2024, time.March, 6), true, date(2024, time.March, 13)},
		{"YearBoundary52To1", date(2023, time.December, 27), true, date(2024, time.January, 3)},
		{"YearBoundary53To1", date(2020, time.December, 30), true, date(2021, time.January, 6)},
		{"SameWeek", date(2024, time.March, 4), false, date(2024, time.March, 10)},
		{"TwoWeeksApart", date(2024, time.March, 6), false, date(2024, time.March, 20)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewWeek(tt.later).IsNextWeekOf(NewWeek(tt.earlier)); got != tt.want {
				t.Errorf("IsNextWeekOf() = %v, want %v", got, tt.want)
			}
		})
	}

	for d := date(2019, time.January, 1); d.Before(date(2026, time.January, 1)); d = d.AddDate(0, 0, 3) {
		if !NewWeek(d.AddDate(0, 0, 7)).IsNextWeekOf(NewWeek(d)) {
			t.Fatalf("week of %v is not next of week of %v", d.AddDate(0, 0, 7), d)
		}
	}
}

func TestLastFourFullWeeks(t *testing.T) {
	tests := []struct {
		name     string
		at       time.Time
		wantWeek int
		wantYear int
	}{
		{"MidWeekShiftsBack", date(2024, time.June, 12), 23, 2024},
		{"SundayKeepsWeek", date(2024, time.June, 16), 24, 2024},
		{"MondayShiftsBack", date(2024, time.June, 10), 23, 2024},
		{"EarlyJanuaryCrossesYear", date(2024, time.January, 3), 52, 2023},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			weeks := LastFourFullWeeks(tt.at)
			if weeks.Week4.Number != tt.wantWeek || weeks.Week4.Year != tt.wantYear {
				t.Errorf("Week4 = %d-W%d, want %d-W%d", weeks.Week4.Year, weeks.Week4.Number, tt.wantYear, tt.wantWeek)
			}
			if !weeks.Consecutive() {
				t.Errorf("weeks are not consecutive: %+v", weeks)
			}
			if !weeks.Week1.Before(weeks.Week4) {
				t.Errorf("Week1 %+v should precede Week4 %+v", weeks.Week1, weeks.Week4)
			}
		})
	}
}

func TestFourWeeks_ConsecutiveDetectsGaps(t *testing.T) {
	weeks := LastFourFullWeeks(date(2024, time.June, 16))
	weeks.Week2 = weeks.Week1
	if weeks.Consecutive() {
		t.Error("duplicated week should not be consecutive")
	}
}

func TestWeekOf_RoundTrips(t *testing.T) {
	for d := date(2019, time.December, 20); d.Before(date(2021, time.February, 1)); d = d.AddDate(0, 0, 1) {
		w := NewWeek(d)
		back := WeekOf(w.Key(), time.UTC)
		if !back.Same(w) || !back.Start.Equal(w.Start) {
			t.Fatalf("WeekOf(%+v) = %+v, want %+v", w.Key(), back, w)
		}
	}
}
