// Package aggregation slices work items into contiguous calendar buckets.
package aggregation

import (
	"time"

	"github.com/rs/zerolog/log"

	"flow-metrics/internal/calendar"
	"flow-metrics/internal/workitem"
)

// Bucket is one slice of the analysis interval and the items that fall into it.
type Bucket struct {
	Start time.Time            `json:"date"`
	Items []workitem.StateItem `json:"items"`
}

// DateFunc picks the lifecycle date an item is bucketed by.
type DateFunc func(workitem.StateItem) *time.Time

// Departure buckets items by the day they were completed.
func Departure(item workitem.StateItem) *time.Time { return item.DepartureDateTime }

// Commitment buckets items by the day work started.
func Commitment(item workitem.StateItem) *time.Time { return item.CommitmentDateTime }

// CompletedByAggregation buckets completed items by departure date. See ByDate.
func CompletedByAggregation(items []workitem.StateItem, key calendar.AggregationKey, period calendar.Interval, excludeIncompleteTrailingWeek bool) []Bucket {
	return ByDate(items, key, period, Departure, excludeIncompleteTrailingWeek)
}

// CompletedByFilters runs CompletedByAggregation with the period and key of filters.
func CompletedByFilters(items []workitem.StateItem, filters workitem.Filters, excludeIncompleteTrailingWeek bool) []Bucket {
	period, ok := filters.DatePeriod()
	if !ok {
		log.Debug().Msg("No valid date period, returning no buckets")
		return []Bucket{}
	}
	return CompletedByAggregation(items, filters.Aggregation(), period, excludeIncompleteTrailingWeek)
}

// ByDate returns one bucket per key-sized slice of period, ascending and
// including empty slices. Items are deduplicated by id and placed by dateOf
// expressed in the period's location; items without a date or outside the
// period are left out. For weekly buckets with excludeIncompleteTrailingWeek
// set, the last bucket is dropped when the period ends before the close of
// its Sunday.
//
// An invalid period yields an empty list. Items are never modified.
func ByDate(items []workitem.StateItem, key calendar.AggregationKey, period calendar.Interval, dateOf DateFunc, excludeIncompleteTrailingWeek bool) []Bucket {
	starts := calendar.GenerateDateArray(period, key)
	if len(starts) == 0 {
		return []Bucket{}
	}
	loc := period.Start.Location()

	// 1. Index bucket starts
	buckets := make([]Bucket, len(starts))
	index := make(map[int64]int, len(starts))
	for i, s := range starts {
		buckets[i] = Bucket{Start: s, Items: []workitem.StateItem{}}
		index[s.UnixNano()] = i
	}

	// 2. Place each item by its snapped date
	for _, item := range workitem.Dedupe(items) {
		d := dateOf(item)
		if d == nil || d.IsZero() {
			continue
		}
		local := d.In(loc)
		if !period.Contains(local) {
			continue
		}
		if i, ok := index[calendar.SnapToStart(local, key).UnixNano()]; ok {
			buckets[i].Items = append(buckets[i].Items, item)
		}
	}

	// 3. Drop a trailing week that is not yet whole; the period has to reach
	// the last second of its Sunday
	if key == calendar.Weekly && excludeIncompleteTrailingWeek {
		weekEnd := calendar.SnapToEnd(buckets[len(buckets)-1].Start, calendar.Weekly)
		if period.End.Before(weekEnd.Truncate(time.Second)) {
			buckets = buckets[:len(buckets)-1]
		}
	}

	log.Debug().
		Int("items", len(items)).
		Int("buckets", len(buckets)).
		Str("aggregation", string(key)).
		Msg("Bucketed work items")
	return buckets
}

// Counts returns the number of items in each bucket.
func Counts(buckets []Bucket) []int {
	counts := make([]int, len(buckets))
	for i, b := range buckets {
		counts[i] = len(b.Items)
	}
	return counts
}

// Flatten returns every item across buckets in bucket order.
func Flatten(buckets []Bucket) []workitem.StateItem {
	var out []workitem.StateItem
	for _, b := range buckets {
		out = append(out, b.Items...)
	}
	return out
}
