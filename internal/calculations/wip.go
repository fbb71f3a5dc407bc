package calculations

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"flow-metrics/internal/aggregation"
	"flow-metrics/internal/calendar"
	"flow-metrics/internal/stats"
	"flow-metrics/internal/trend"
	"flow-metrics/internal/workitem"
)

// WIPPoint is the number of items in progress at the end of one bucket.
type WIPPoint struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

// WIP computes work in process figures.
type WIP struct {
	req *Request
}

func NewWIP(req *Request) *WIP {
	return &WIP{req: req}
}

func (w *WIP) inProgress(ctx context.Context) ([]workitem.StateItem, error) {
	items, err := w.req.items(ctx, workitem.InProgress)
	if err != nil {
		return nil, fmt.Errorf("failed to load in progress items: %w", err)
	}
	return workitem.Dedupe(items), nil
}

// Count returns the number of items in progress.
func (w *WIP) Count(ctx context.Context) (int, error) {
	items, err := w.inProgress(ctx)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// AgeDistribution summarises WIP age in whole days.
func (w *WIP) AgeDistribution(ctx context.Context) (summary stats.DistributionSummary, err error) {
	defer func(start time.Time) { observe("wip.age_distribution", start, err) }(time.Now())

	items, err := w.inProgress(ctx)
	if err != nil {
		return stats.DistributionSummary{}, err
	}
	ages := make([]float64, len(items))
	for i, it := range items {
		ages[i] = float64(it.WIPAgeInWholeDays)
	}
	return stats.Summarize(ages), nil
}

// RunChart counts, at the end of each bucket of the period, the items that
// had been committed by then and had not yet departed. Both completed and
// in-progress items are considered, so past buckets include work that has
// since finished.
func (w *WIP) RunChart(ctx context.Context) (points []WIPPoint, err error) {
	defer func(start time.Time) { observe("wip.run_chart", start, err) }(time.Now())

	period, ok := w.req.period()
	if !ok {
		return []WIPPoint{}, nil
	}
	items, err := w.committed(ctx)
	if err != nil {
		return nil, err
	}

	key := w.req.aggregation()
	starts := calendar.GenerateDateArray(period, key)
	points = make([]WIPPoint, 0, len(starts))
	for _, s := range starts {
		end := calendar.SnapToEnd(s, key)
		if period.End.Before(end) {
			end = period.End
		}
		points = append(points, WIPPoint{Date: s, Count: countInProgressAt(items, end)})
	}

	log.Debug().Str("org", w.req.orgID).Int("items", len(items)).Int("buckets", len(points)).Msg("Built WIP run chart")
	return points, nil
}

// committed returns in-progress and completed items, the population that
// has passed its commitment point.
func (w *WIP) committed(ctx context.Context) ([]workitem.StateItem, error) {
	open, err := w.inProgress(ctx)
	if err != nil {
		return nil, err
	}
	done, err := w.req.completedItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load completed items: %w", err)
	}
	return workitem.Dedupe(append(append([]workitem.StateItem{}, open...), done...)), nil
}

// Starts buckets the items committed within the period by commitment date.
func (w *WIP) Starts(ctx context.Context) ([]aggregation.Bucket, error) {
	period, ok := w.req.period()
	if !ok {
		return []aggregation.Bucket{}, nil
	}
	items, err := w.committed(ctx)
	if err != nil {
		return nil, err
	}
	return aggregation.ByDate(items, w.req.aggregation(), period, aggregation.Commitment, false), nil
}

// StartsTrend compares recent weekly commitments with the weeks before them.
// Starting less work is the favourable direction, so the palette is inverted.
func (w *WIP) StartsTrend(ctx context.Context) (res trend.Result, err error) {
	defer func(start time.Time) { observe("wip.starts_trend", start, err) }(time.Now())

	period, ok := w.req.period()
	if !ok {
		return trend.Result{}, nil
	}
	buckets, err := w.Starts(ctx)
	if err != nil {
		return trend.Result{}, err
	}
	var dates []time.Time
	for _, it := range aggregation.Flatten(buckets) {
		dates = append(dates, *it.CommitmentDateTime)
	}
	return trend.Analyse(dates, period, trend.PaletteFor(true)), nil
}

func countInProgressAt(items []workitem.StateItem, at time.Time) int {
	n := 0
	for _, it := range items {
		if it.CommitmentDateTime == nil || it.CommitmentDateTime.After(at) {
			continue
		}
		if it.DepartureDateTime != nil && !it.DepartureDateTime.After(at) {
			continue
		}
		n++
	}
	return n
}

// CountsBy counts in-progress items per value of a classification dimension.
func (w *WIP) CountsBy(ctx context.Context, d workitem.Dimension) ([]GroupCount, error) {
	items, err := w.inProgress(ctx)
	if err != nil {
		return nil, err
	}
	return w.req.countBy(ctx, items, d)
}
