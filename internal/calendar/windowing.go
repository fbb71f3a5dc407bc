package calendar

import (
	"fmt"
	"strings"
	"time"
)

// AggregationKey is the calendar granularity used to bucket work items.
type AggregationKey string

const (
	Daily     AggregationKey = "day"
	Weekly    AggregationKey = "week"
	Monthly   AggregationKey = "month"
	Quarterly AggregationKey = "quarter"
	Yearly    AggregationKey = "year"
)

// AggregationKeys lists the supported granularities from finest to coarsest.
var AggregationKeys = []AggregationKey{Daily, Weekly, Monthly, Quarterly, Yearly}

// ParseAggregationKey maps user input onto a key; ok is false for unknown values.
func ParseAggregationKey(s string) (AggregationKey, bool) {
	k := AggregationKey(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AggregationKeys {
		if k == known {
			return k, true
		}
	}
	return "", false
}

// Interval is a closed time range.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Valid reports whether both ends are set and the range is not inverted.
func (i Interval) Valid() bool {
	return !i.Start.IsZero() && !i.End.IsZero() && !i.End.Before(i.Start)
}

// Contains reports whether t falls within the interval, ends included.
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && !t.After(i.End)
}

// In returns the interval expressed in loc.
func (i Interval) In(loc *time.Location) Interval {
	return Interval{Start: i.Start.In(loc), End: i.End.In(loc)}
}

// SnapToStart normalizes a timestamp to the beginning of its bucket (0:00:00).
func SnapToStart(t time.Time, key AggregationKey) time.Time {
	if t.IsZero() {
		return t
	}
	switch key {
	case Yearly:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	case Quarterly:
		first := time.Month(((int(t.Month())-1)/3)*3 + 1)
		return time.Date(t.Year(), first, 1, 0, 0, 0, 0, t.Location())
	case Monthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	case Weekly:
		// Snap to Monday
		return time.Date(t.Year(), t.Month(), t.Day()-(ISOWeekday(t)-1), 0, 0, 0, 0, t.Location())
	default: // day
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}
}

// SnapToEnd normalizes a timestamp to the very end of its bucket (23:59:59.999...).
func SnapToEnd(t time.Time, key AggregationKey) time.Time {
	if t.IsZero() {
		return t
	}
	return Next(SnapToStart(t, key), key).Add(-time.Nanosecond)
}

// Next returns the start of the bucket following the one starting at start.
func Next(start time.Time, key AggregationKey) time.Time {
	switch key {
	case Yearly:
		return start.AddDate(1, 0, 0)
	case Quarterly:
		return start.AddDate(0, 3, 0)
	case Monthly:
		return start.AddDate(0, 1, 0)
	case Weekly:
		return start.AddDate(0, 0, 7)
	default:
		return start.AddDate(0, 0, 1)
	}
}

// ISOWeekday returns 1 for Monday through 7 for Sunday.
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// EndOfDay returns the last nanosecond of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return SnapToEnd(t, Daily)
}

// GenerateDateArray returns the start of every bucket overlapping the interval,
// ascending. An invalid interval yields no buckets.
func GenerateDateArray(interval Interval, key AggregationKey) []time.Time {
	if !interval.Valid() {
		return nil
	}
	var buckets []time.Time
	for current := SnapToStart(interval.Start, key); !current.After(interval.End); current = Next(current, key) {
		buckets = append(buckets, current)
	}
	return buckets
}

// GenerateLabel returns a human-readable label for a bucket (e.g., "Jan 2024" or "2024-W01").
func GenerateLabel(t time.Time, key AggregationKey) string {
	switch key {
	case Yearly:
		return t.Format("2006")
	case Quarterly:
		return fmt.Sprintf("%d-Q%d", t.Year(), (int(t.Month())-1)/3+1)
	case Monthly:
		return t.Format("Jan 2006")
	case Weekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	default: // day
		return t.Format("2006-01-02")
	}
}
