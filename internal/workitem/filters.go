package workitem

import (
	"flow-metrics/internal/calendar"
)

// QueryFilters is the concrete Filters built from request or command line input.
type QueryFilters struct {
	Period   calendar.Interval
	Key      calendar.AggregationKey
	Types    []string
	Timezone string
	Language string
}

func (f *QueryFilters) DatePeriod() (calendar.Interval, bool) {
	if f == nil || !f.Period.Valid() {
		return calendar.Interval{}, false
	}
	return f.Period.In(calendar.ResolveLocation(f.Timezone)), true
}

func (f *QueryFilters) Aggregation() calendar.AggregationKey {
	if f == nil {
		return calendar.Weekly
	}
	if _, ok := calendar.ParseAggregationKey(string(f.Key)); !ok {
		return calendar.Weekly
	}
	return f.Key
}

func (f *QueryFilters) WorkItemTypes() []string {
	if f == nil {
		return nil
	}
	return f.Types
}

func (f *QueryFilters) ClientTimezone() string {
	if f == nil || !calendar.IsValidTimezone(f.Timezone) {
		return "UTC"
	}
	return f.Timezone
}

func (f *QueryFilters) ClientLanguage() string {
	if f == nil || f.Language == "" {
		return "en-US"
	}
	return f.Language
}

// SetSafeAggregation replaces an unknown key with week and steps a key down
// until the period spans at least two of its buckets, so a chart never
// collapses to a single bar.
func (f *QueryFilters) SetSafeAggregation() {
	key, ok := calendar.ParseAggregationKey(string(f.Key))
	if !ok {
		key = calendar.Weekly
	}
	period, valid := f.DatePeriod()
	if valid {
		for key != calendar.Daily && len(calendar.GenerateDateArray(period, key)) < 2 {
			key = finer(key)
		}
	}
	f.Key = key
}

func finer(key calendar.AggregationKey) calendar.AggregationKey {
	for i, k := range calendar.AggregationKeys {
		if k == key && i > 0 {
			return calendar.AggregationKeys[i-1]
		}
	}
	return calendar.Daily
}
