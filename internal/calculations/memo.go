package calculations

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"flow-metrics/internal/metrics"
	"flow-metrics/internal/workitem"
)

// Memo caches upstream fetches for the lifetime of one request. Concurrent
// callers asking for the same key share a single fetch; failures are not
// cached.
type Memo struct {
	group singleflight.Group

	mu     sync.RWMutex
	values map[string]any
}

// NewMemo returns an empty memo. Create one per request.
func NewMemo() *Memo {
	return &Memo{values: make(map[string]any)}
}

// Remember returns the value stored under key, computing it with fn on first use.
func Remember[T any](m *Memo, key string, fn func() (T, error)) (T, error) {
	if m == nil {
		return fn()
	}

	m.mu.RLock()
	v, ok := m.values[key]
	m.mu.RUnlock()
	metrics.RecordMemoLookup(ok)
	if ok {
		log.Trace().Str("key", key).Msg("Memo hit")
		return v.(T), nil
	}

	out, err, _ := m.group.Do(key, func() (any, error) {
		// A concurrent Do for the same key may have stored it already.
		m.mu.RLock()
		v, ok := m.values[key]
		m.mu.RUnlock()
		if ok {
			return v, nil
		}

		fresh, err := fn()
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.values[key] = fresh
		m.mu.Unlock()
		return fresh, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out.(T), nil
}

// MemoKey builds a key from an organisation, a fetch name and the query shape.
func MemoKey(orgID, fetch string, filters workitem.Filters) string {
	return strings.Join([]string{orgID, fetch, queryShape(filters)}, "|")
}

func queryShape(filters workitem.Filters) string {
	if filters == nil {
		return "-"
	}
	period, ok := filters.DatePeriod()
	p := "-"
	if ok {
		p = fmt.Sprintf("%d-%d", period.Start.UnixNano(), period.End.UnixNano())
	}
	return fmt.Sprintf("%s|%s|%s|%s", p, filters.Aggregation(), strings.Join(filters.WorkItemTypes(), ","), filters.ClientTimezone())
}
