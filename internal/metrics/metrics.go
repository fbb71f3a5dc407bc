// Package metrics instruments the calculation engine with Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CalculationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flow_calculation_duration_seconds",
			Help:    "Duration of flow metric calculations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"calculation"},
	)

	CalculationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flow_calculation_errors_total",
			Help: "Total number of failed flow metric calculations",
		},
		[]string{"calculation", "error_type"},
	)

	WorkItemsLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flow_work_items_loaded_total",
			Help: "Total number of work items read from the state provider",
		},
		[]string{"state_category"},
	)

	MemoLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flow_memo_lookups_total",
			Help: "Request memo lookups by result",
		},
		[]string{"result"}, // "hit", "miss"
	)
)

// ErrorClassifier maps an error onto a low-cardinality label.
type ErrorClassifier func(error) string

// classify is replaced by the calculation layer so errors are labelled by kind
// rather than message.
var classify ErrorClassifier = func(error) string { return "internal" }

// SetErrorClassifier installs the function used to label errors.
func SetErrorClassifier(fn ErrorClassifier) {
	if fn != nil {
		classify = fn
	}
}

// RecordCalculation observes one calculation run.
func RecordCalculation(calculation string, duration time.Duration, err error) {
	CalculationDuration.WithLabelValues(calculation).Observe(duration.Seconds())
	if err != nil {
		CalculationErrors.WithLabelValues(calculation, classify(err)).Inc()
	}
}

// RecordWorkItemsLoaded counts items fetched for a state category.
func RecordWorkItemsLoaded(category string, n int) {
	WorkItemsLoaded.WithLabelValues(category).Add(float64(n))
}

// RecordMemoLookup counts a memo hit or miss.
func RecordMemoLookup(hit bool) {
	if hit {
		MemoLookups.WithLabelValues("hit").Inc()
		return
	}
	MemoLookups.WithLabelValues("miss").Inc()
}

// WriteTextfile writes every registered metric to path in the text exposition
// format, for collection by a node exporter textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
