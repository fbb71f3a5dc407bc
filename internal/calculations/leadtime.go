package calculations

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"flow-metrics/internal/stats"
	"flow-metrics/internal/workitem"
)

// HistogramBin counts completed items sharing a lead time.
type HistogramBin struct {
	LeadTimeInWholeDays int `json:"leadTimeInWholeDays"`
	Count               int `json:"count"`
}

// ScatterPoint is one completed item on the lead time scatter plot.
type ScatterPoint struct {
	WorkItemID          string    `json:"workItemId"`
	Title               string    `json:"title,omitempty"`
	WorkItemType        string    `json:"workItemType"`
	DepartureDateTime   time.Time `json:"departureDateTime"`
	LeadTimeInWholeDays int       `json:"leadTimeInWholeDays"`
}

// LeadTime computes lead time figures from completed work.
type LeadTime struct {
	req *Request
}

func NewLeadTime(req *Request) *LeadTime {
	return &LeadTime{req: req}
}

func (l *LeadTime) items(ctx context.Context) ([]workitem.StateItem, error) {
	if _, ok := l.req.period(); !ok {
		return nil, nil
	}
	items, err := l.req.completedItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load completed items: %w", err)
	}
	return workitem.Dedupe(items), nil
}

func leadTimes(items []workitem.StateItem) []float64 {
	out := make([]float64, 0, len(items))
	for _, it := range items {
		out = append(out, float64(it.LeadTimeInWholeDays))
	}
	return out
}

// Distribution summarises lead times in whole days.
func (l *LeadTime) Distribution(ctx context.Context) (summary stats.DistributionSummary, err error) {
	defer func(start time.Time) { observe("lead_time.distribution", start, err) }(time.Now())

	items, err := l.items(ctx)
	if err != nil {
		return stats.DistributionSummary{}, err
	}
	return stats.Summarize(leadTimes(items)), nil
}

// Variability labels the lead time distribution with the multiplier convention.
func (l *LeadTime) Variability(ctx context.Context) (string, error) {
	summary, err := l.Distribution(ctx)
	if err != nil {
		return "", err
	}
	if summary.Percentile50th == 0 && summary.Percentile98th == 0 {
		return "", nil
	}
	return stats.Variability(summary.Percentile50th, summary.Percentile98th), nil
}

// Histogram counts items per lead time, ascending.
func (l *LeadTime) Histogram(ctx context.Context) ([]HistogramBin, error) {
	items, err := l.items(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[int]int)
	for _, it := range items {
		counts[it.LeadTimeInWholeDays]++
	}
	bins := make([]HistogramBin, 0, len(counts))
	for days, n := range counts {
		bins = append(bins, HistogramBin{LeadTimeInWholeDays: days, Count: n})
	}
	slices.SortFunc(bins, func(a, b HistogramBin) int { return cmp.Compare(a.LeadTimeInWholeDays, b.LeadTimeInWholeDays) })
	return bins, nil
}

// BoxPlot summarises lead times; ok is false without completed items.
func (l *LeadTime) BoxPlot(ctx context.Context) (stats.BoxPlot, bool, error) {
	items, err := l.items(ctx)
	if err != nil {
		return stats.BoxPlot{}, false, err
	}
	box, ok := stats.NewBoxPlot(leadTimes(items))
	return box, ok, nil
}

// ScatterPlot lists completed items by departure, in the request location.
func (l *LeadTime) ScatterPlot(ctx context.Context) ([]ScatterPoint, error) {
	items, err := l.items(ctx)
	if err != nil {
		return nil, err
	}
	loc := l.req.location()
	points := make([]ScatterPoint, 0, len(items))
	for _, it := range items {
		if it.DepartureDateTime == nil {
			continue
		}
		points = append(points, ScatterPoint{
			WorkItemID:          it.WorkItemID,
			Title:               it.Title,
			WorkItemType:        it.FlomatikaWorkItemTypeName,
			DepartureDateTime:   it.DepartureDateTime.In(loc),
			LeadTimeInWholeDays: it.LeadTimeInWholeDays,
		})
	}
	slices.SortStableFunc(points, func(a, b ScatterPoint) int { return a.DepartureDateTime.Compare(b.DepartureDateTime) })
	return points, nil
}
