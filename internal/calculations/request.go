// Package calculations computes the dashboard payloads: throughput, lead
// time, WIP, service level and fitness criteria.
package calculations

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"flow-metrics/internal/calendar"
	"flow-metrics/internal/metrics"
	"flow-metrics/internal/workitem"
)

// Services are the collaborators a calculation reads from.
type Services struct {
	State           workitem.StateProvider
	Classifications func(workitem.Dimension) workitem.ClassificationService
	Widgets         workitem.WidgetInformationProvider
}

// Request scopes calculations to one organisation and query. Requests are
// cheap; build one per incoming call so the memo never outlives it.
type Request struct {
	svc     Services
	orgID   string
	filters workitem.Filters
	memo    *Memo
	now     func() time.Time
}

// NewRequest creates a request with its own memo.
func NewRequest(svc Services, orgID string, filters workitem.Filters) *Request {
	return &Request{
		svc:     svc,
		orgID:   orgID,
		filters: filters,
		memo:    NewMemo(),
		now:     time.Now,
	}
}

// WithClock replaces the clock used for "now", for deterministic runs.
func (r *Request) WithClock(now func() time.Time) *Request {
	r.now = now
	return r
}

// OrgID returns the organisation the request is scoped to.
func (r *Request) OrgID() string { return r.orgID }

// Filters returns the query filters of the request.
func (r *Request) Filters() workitem.Filters { return r.filters }

func (r *Request) period() (calendar.Interval, bool) {
	if r.filters == nil {
		return calendar.Interval{}, false
	}
	return r.filters.DatePeriod()
}

func (r *Request) location() *time.Location {
	if period, ok := r.period(); ok {
		return period.Start.Location()
	}
	if r.filters != nil {
		return calendar.ResolveLocation(r.filters.ClientTimezone())
	}
	return time.UTC
}

func (r *Request) aggregation() calendar.AggregationKey {
	if r.filters == nil {
		return calendar.Weekly
	}
	return r.filters.Aggregation()
}

// items fetches the items of a category once per request.
func (r *Request) items(ctx context.Context, category workitem.StateCategory) ([]workitem.StateItem, error) {
	key := MemoKey(r.orgID, "items:"+string(category), r.filters)
	return Remember(r.memo, key, func() ([]workitem.StateItem, error) {
		items, err := r.svc.State.GetWorkItems(ctx, r.orgID, category, r.filters)
		if err != nil {
			return nil, err
		}
		metrics.RecordWorkItemsLoaded(string(category), len(items))
		return items, nil
	})
}

func (r *Request) extendedItems(ctx context.Context, category workitem.StateCategory) ([]workitem.StateItem, error) {
	key := MemoKey(r.orgID, "extended:"+string(category), r.filters)
	return Remember(r.memo, key, func() ([]workitem.StateItem, error) {
		items, err := r.svc.State.GetExtendedWorkItems(ctx, r.orgID, category, r.filters)
		if err != nil {
			return nil, err
		}
		metrics.RecordWorkItemsLoaded(string(category), len(items))
		return items, nil
	})
}

func (r *Request) normalisedItems(ctx context.Context, category workitem.StateCategory, tag string) ([]workitem.StateItem, error) {
	key := MemoKey(r.orgID, "normalised:"+string(category)+":"+tag, r.filters)
	return Remember(r.memo, key, func() ([]workitem.StateItem, error) {
		items, err := r.svc.State.GetNormalisedWorkItems(ctx, r.orgID, category, r.filters, tag)
		if err != nil {
			return nil, err
		}
		metrics.RecordWorkItemsLoaded(string(category), len(items))
		return items, nil
	})
}

// completedItems is the cached completed work item list shared by every
// calculation of the request.
func (r *Request) completedItems(ctx context.Context) ([]workitem.StateItem, error) {
	return r.items(ctx, workitem.Completed)
}

// sleConfig returns the merged SLE configuration under tag.
func (r *Request) sleConfig(ctx context.Context, tag string) ([]workitem.MergedSLE, error) {
	key := MemoKey(r.orgID, "sle:"+tag, nil)
	return Remember(r.memo, key, func() ([]workitem.MergedSLE, error) {
		entries, err := r.svc.State.GetFQLFilters(ctx, r.orgID, tag)
		if err != nil {
			return nil, err
		}
		return workitem.MergeSLEEntries(entries), nil
	})
}

func (r *Request) classifications(ctx context.Context, d workitem.Dimension) ([]workitem.Classification, error) {
	if r.svc.Classifications == nil {
		return nil, nil
	}
	svc := r.svc.Classifications(d)
	if svc == nil {
		return nil, nil
	}
	key := MemoKey(r.orgID, "classifications:"+string(d), nil)
	return Remember(r.memo, key, func() ([]workitem.Classification, error) {
		return svc.GetTypes(ctx, r.orgID)
	})
}

// widgetInformation never fails a calculation; metadata is descriptive only.
func (r *Request) widgetInformation(ctx context.Context, typeKey string) []workitem.WidgetInformation {
	if r.svc.Widgets == nil {
		return nil
	}
	info, err := r.svc.Widgets.GetWidgetInformation(ctx, typeKey)
	if err != nil {
		log.Warn().Err(err).Str("widget", typeKey).Msg("Failed to load widget information")
		return nil
	}
	return info
}

// observe records the duration and outcome of a named calculation.
func observe(name string, start time.Time, err error) {
	metrics.RecordCalculation(name, time.Since(start), err)
}

func init() {
	metrics.SetErrorClassifier(ErrorKind)
}
