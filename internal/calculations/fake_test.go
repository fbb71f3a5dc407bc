package calculations

import (
	"context"
	"errors"
	"sync"
	"time"

	"flow-metrics/internal/calendar"
	"flow-metrics/internal/workitem"
)

var errUpstream = errors.New("upstream unavailable")

// fakeState serves fixed items and counts calls per method and category.
type fakeState struct {
	items []workitem.StateItem
	sles  map[string][]workitem.SLEEntry

	failOn string

	mu    sync.Mutex
	calls map[string]int
}

func newFakeState(items []workitem.StateItem, sles map[string][]workitem.SLEEntry) *fakeState {
	return &fakeState{items: items, sles: sles, calls: make(map[string]int)}
}

func (f *fakeState) record(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
	if f.failOn == method {
		return errUpstream
	}
	return nil
}

func (f *fakeState) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeState) byCategory(category workitem.StateCategory, tag string, extended bool) []workitem.StateItem {
	var out []workitem.StateItem
	for _, it := range f.items {
		if it.StateCategory != category {
			continue
		}
		if tag != "" {
			name := it.Normalisation[tag]
			if name == "" {
				continue
			}
			it.NormalisedDisplayName = name
		}
		if !extended {
			it.ActiveTime, it.WaitingTime = 0, 0
		}
		out = append(out, it)
	}
	return out
}

func (f *fakeState) GetWorkItems(_ context.Context, _ string, category workitem.StateCategory, _ workitem.Filters) ([]workitem.StateItem, error) {
	if err := f.record("GetWorkItems:" + string(category)); err != nil {
		return nil, err
	}
	return f.byCategory(category, "", false), nil
}

func (f *fakeState) GetNormalisedWorkItems(_ context.Context, _ string, category workitem.StateCategory, _ workitem.Filters, tag string) ([]workitem.StateItem, error) {
	if err := f.record("GetNormalisedWorkItems"); err != nil {
		return nil, err
	}
	return f.byCategory(category, tag, false), nil
}

func (f *fakeState) GetExtendedWorkItems(_ context.Context, _ string, category workitem.StateCategory, _ workitem.Filters) ([]workitem.StateItem, error) {
	if err := f.record("GetExtendedWorkItems"); err != nil {
		return nil, err
	}
	return f.byCategory(category, "", true), nil
}

func (f *fakeState) GetNormalisedExtendedWorkItems(_ context.Context, _ string, category workitem.StateCategory, _ workitem.Filters, tag string) ([]workitem.StateItem, error) {
	if err := f.record("GetNormalisedExtendedWorkItems"); err != nil {
		return nil, err
	}
	return f.byCategory(category, tag, true), nil
}

func (f *fakeState) GetFQLFilters(_ context.Context, _ string, tag string) ([]workitem.SLEEntry, error) {
	if err := f.record("GetFQLFilters:" + tag); err != nil {
		return nil, err
	}
	return f.sles[tag], nil
}

type fakeClassifications []workitem.Classification

func (f fakeClassifications) GetTypes(context.Context, string) ([]workitem.Classification, error) {
	return f, nil
}

func day(m time.Month, d int) *time.Time {
	t := time.Date(2024, m, d, 14, 0, 0, 0, time.UTC)
	return &t
}

// marchFilters covers the four whole weeks of March 4-31, 2024.
func marchFilters() *workitem.QueryFilters {
	return &workitem.QueryFilters{
		Period: calendar.Interval{
			Start: time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, time.March, 31, 23, 59, 59, 0, time.UTC),
		},
		Key:      calendar.Weekly,
		Timezone: "UTC",
	}
}

func done(id, typeName string, departure *time.Time, leadTime int) workitem.StateItem {
	return workitem.StateItem{
		WorkItemID:                 id,
		FlomatikaWorkItemTypeID:    "t-" + typeName,
		FlomatikaWorkItemTypeName:  typeName,
		FlomatikaWorkItemTypeLevel: workitem.Team,
		StateCategory:              workitem.Completed,
		DepartureDateTime:          departure,
		LeadTimeInWholeDays:        leadTime,
	}
}

func newTestRequest(state *fakeState, filters workitem.Filters) *Request {
	svc := Services{State: state}
	return NewRequest(svc, "org-1", filters).WithClock(func() time.Time {
		return time.Date(2024, time.March, 27, 12, 0, 0, 0, time.UTC)
	})
}
