package calculations

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog/log"

	"flow-metrics/internal/aggregation"
	"flow-metrics/internal/calendar"
	"flow-metrics/internal/stats"
	"flow-metrics/internal/trend"
	"flow-metrics/internal/workitem"
)

// RunChartItem is a delivered item listed under its week.
type RunChartItem struct {
	WorkItemID string `json:"workItemId"`
	Title      string `json:"title,omitempty"`
}

// RunChartPoint is one week of the throughput run chart, keyed by the Sunday
// (00:00 local time) that ends it.
type RunChartPoint struct {
	WeekEndingOn time.Time      `json:"weekEndingOn"`
	Count        int            `json:"count"`
	WorkItems    []RunChartItem `json:"workItems"`
}

// Throughput computes delivery rate figures from completed work.
type Throughput struct {
	req *Request
}

func NewThroughput(req *Request) *Throughput {
	return &Throughput{req: req}
}

// WeekEndingOn returns the Sunday at 00:00 closing the week that contains t.
func WeekEndingOn(t time.Time) time.Time {
	return calendar.SnapToStart(t, calendar.Weekly).AddDate(0, 0, 6)
}

// BuildRunChart lays completed items out in weekly buckets. Items are walked
// in order of their departure day; the bucket pointer advances seven days at a
// time until it covers the next item, so weeks without deliveries are
// skipped. Every week of period missing from the result is then added with a
// zero count, and the series is returned ascending. An invalid period yields
// an empty series.
func BuildRunChart(items []workitem.StateItem, period calendar.Interval) []RunChartPoint {
	if !period.Valid() {
		return []RunChartPoint{}
	}
	loc := period.Start.Location()

	// 1. Sort by end of departure day
	type dated struct {
		item workitem.StateItem
		day  time.Time
	}
	var sorted []dated
	for _, it := range workitem.Dedupe(items) {
		if it.DepartureDateTime == nil {
			continue
		}
		sorted = append(sorted, dated{item: it, day: calendar.EndOfDay(it.DepartureDateTime.In(loc))})
	}
	slices.SortStableFunc(sorted, func(a, b dated) int { return a.day.Compare(b.day) })

	// 2. Walk items, advancing the week pointer over gaps
	points := []RunChartPoint{}
	var sunday, weekEnd time.Time
	for i, d := range sorted {
		if i == 0 {
			sunday = WeekEndingOn(d.day)
			weekEnd = calendar.EndOfDay(sunday)
			points = append(points, RunChartPoint{WeekEndingOn: sunday, WorkItems: []RunChartItem{}})
		}
		if d.day.After(weekEnd) {
			for d.day.After(weekEnd) {
				sunday = sunday.AddDate(0, 0, 7)
				weekEnd = calendar.EndOfDay(sunday)
			}
			points = append(points, RunChartPoint{WeekEndingOn: sunday, WorkItems: []RunChartItem{}})
		}
		last := &points[len(points)-1]
		last.Count++
		last.WorkItems = append(last.WorkItems, RunChartItem{WorkItemID: d.item.WorkItemID, Title: d.item.Title})
	}

	// 3. Back-fill empty weeks of the requested window
	present := make(map[int64]bool, len(points))
	for _, p := range points {
		present[p.WeekEndingOn.UnixNano()] = true
	}
	lastSunday := WeekEndingOn(period.End)
	for s := WeekEndingOn(period.Start); !s.After(lastSunday); s = s.AddDate(0, 0, 7) {
		if !present[s.UnixNano()] {
			points = append(points, RunChartPoint{WeekEndingOn: s, WorkItems: []RunChartItem{}})
		}
	}
	slices.SortFunc(points, func(a, b RunChartPoint) int { return a.WeekEndingOn.Compare(b.WeekEndingOn) })
	return points
}

// RunChartData returns the weekly throughput series of the request period.
func (t *Throughput) RunChartData(ctx context.Context) (points []RunChartPoint, err error) {
	defer func(start time.Time) { observe("throughput.run_chart", start, err) }(time.Now())

	period, ok := t.req.period()
	if !ok {
		log.Debug().Str("org", t.req.orgID).Msg("No valid period for throughput run chart")
		return []RunChartPoint{}, nil
	}
	items, err := t.req.completedItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load completed items: %w", err)
	}
	points = BuildRunChart(items, period)

	log.Debug().
		Str("org", t.req.orgID).
		Int("items", len(items)).
		Int("weeks", len(points)).
		Msg("Built throughput run chart")
	return points, nil
}

func (t *Throughput) weeklyCounts(ctx context.Context) ([]float64, error) {
	points, err := t.RunChartData(ctx)
	if err != nil {
		return nil, err
	}
	counts := make([]float64, len(points))
	for i, p := range points {
		counts[i] = float64(p.Count)
	}
	return counts, nil
}

// DeliveryRateBoxPlot summarises the weekly counts; ok is false without weeks.
func (t *Throughput) DeliveryRateBoxPlot(ctx context.Context) (stats.BoxPlot, bool, error) {
	counts, err := t.weeklyCounts(ctx)
	if err != nil {
		return stats.BoxPlot{}, false, err
	}
	box, ok := stats.NewBoxPlot(counts)
	return box, ok, nil
}

// Percentile returns the p-th percentile of weekly counts.
func (t *Throughput) Percentile(ctx context.Context, p float64) (float64, error) {
	counts, err := t.weeklyCounts(ctx)
	if err != nil {
		return 0, err
	}
	v, err := stats.Percentile(p, counts)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return v, nil
}

// Minimum returns the lowest weekly count, 0 without weeks.
func (t *Throughput) Minimum(ctx context.Context) (float64, error) {
	return t.Percentile(ctx, 0)
}

// Maximum returns the highest weekly count, 0 without weeks.
func (t *Throughput) Maximum(ctx context.Context) (float64, error) {
	return t.Percentile(ctx, 100)
}

// Variability labels weekly counts with the ratio convention.
func (t *Throughput) Variability(ctx context.Context) (string, error) {
	counts, err := t.weeklyCounts(ctx)
	if err != nil {
		return "", err
	}
	return stats.ThroughputVariability(counts), nil
}

// TrendAnalysis compares recent weekly deliveries with the weeks before them.
func (t *Throughput) TrendAnalysis(ctx context.Context) (res trend.Result, err error) {
	defer func(start time.Time) { observe("throughput.trend", start, err) }(time.Now())

	period, ok := t.req.period()
	if !ok {
		return trend.Result{}, nil
	}
	items, err := t.req.completedItems(ctx)
	if err != nil {
		return trend.Result{}, fmt.Errorf("failed to load completed items: %w", err)
	}
	return trend.Analyse(departures(items), period, trend.DefaultPalette), nil
}

// ByAggregation buckets completed items at the request granularity,
// dropping a trailing partial week.
func (t *Throughput) ByAggregation(ctx context.Context) ([]aggregation.Bucket, error) {
	if _, ok := t.req.period(); !ok {
		return []aggregation.Bucket{}, nil
	}
	items, err := t.req.completedItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load completed items: %w", err)
	}
	return aggregation.CompletedByFilters(items, t.req.filters, true), nil
}

// CountsBy counts completed items per value of a classification dimension.
func (t *Throughput) CountsBy(ctx context.Context, d workitem.Dimension) ([]GroupCount, error) {
	items, err := t.req.completedItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load completed items: %w", err)
	}
	return t.req.countBy(ctx, items, d)
}

func departures(items []workitem.StateItem) []time.Time {
	var dates []time.Time
	for _, it := range workitem.Dedupe(items) {
		if it.DepartureDateTime != nil {
			dates = append(dates, *it.DepartureDateTime)
		}
	}
	slices.SortFunc(dates, func(a, b time.Time) int { return a.Compare(b) })
	return dates
}
