package commands

import (
	"fmt"
	"strings"
	"time"

	"flow-metrics/internal/calculations"
	"flow-metrics/internal/calendar"
	"flow-metrics/internal/workitem"
)

// defaultWeeks is the look-back of a query without --from.
const defaultWeeks = 12

type queryOptions struct {
	org         string
	from        string
	to          string
	aggregation string
	timezone    string
	types       []string
}

func (o queryOptions) filters(defaultTZ string) (*workitem.QueryFilters, error) {
	return o.filtersAt(defaultTZ, time.Now())
}

// filtersAt builds the query filters as of now. Malformed flags are invalid
// input; an unknown timezone falls back to UTC. An aggregation too coarse for
// the period is stepped down.
func (o queryOptions) filtersAt(defaultTZ string, now time.Time) (*workitem.QueryFilters, error) {
	tz := o.timezone
	if tz == "" {
		tz = defaultTZ
	}
	loc := calendar.ResolveLocation(tz)

	key, ok := calendar.ParseAggregationKey(o.aggregation)
	if !ok {
		return nil, fmt.Errorf("%w: unknown aggregation %q", calculations.ErrInvalidInput, o.aggregation)
	}

	end := calendar.EndOfDay(now.In(loc))
	if o.to != "" {
		t, err := time.ParseInLocation(time.DateOnly, o.to, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: --to: %v", calculations.ErrInvalidInput, err)
		}
		end = calendar.EndOfDay(t)
	}
	start := calendar.SnapToStart(end.AddDate(0, 0, -7*(defaultWeeks-1)), calendar.Weekly)
	if o.from != "" {
		t, err := time.ParseInLocation(time.DateOnly, o.from, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: --from: %v", calculations.ErrInvalidInput, err)
		}
		start = t
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: --from %s is after --to %s", calculations.ErrInvalidInput, start.Format(time.DateOnly), end.Format(time.DateOnly))
	}

	var types []string
	for _, t := range o.types {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, t)
		}
	}

	f := &workitem.QueryFilters{
		Period:   calendar.Interval{Start: start, End: end},
		Key:      key,
		Types:    types,
		Timezone: loc.String(),
	}
	f.SetSafeAggregation()
	return f, nil
}
