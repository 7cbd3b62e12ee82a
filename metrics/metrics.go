package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Registry holds the workspace collectors.
	Registry = prometheus.NewRegistry()

	persistTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "collaborax",
			Subsystem: "store",
			Name:      "persist_total",
			Help:      "Total number of full database saves, by result.",
		},
		[]string{"result"},
	)

	blobBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "collaborax",
			Subsystem: "store",
			Name:      "blob_bytes",
			Help:      "Size of the last successfully written durable blob.",
		},
	)

	unsaved = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "collaborax",
			Subsystem: "store",
			Name:      "unsaved_changes",
			Help:      "1 when in-memory state has changes the durable blob does not.",
		},
	)

	mutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "collaborax",
			Subsystem: "facade",
			Name:      "mutations_total",
			Help:      "Total number of facade mutations, by operation and result.",
		},
		[]string{"operation", "result"},
	)

	reloadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "collaborax",
			Subsystem: "state",
			Name:      "reload_duration_seconds",
			Help:      "Duration of full state cache reloads.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		},
	)
)

func init() {
	Registry.MustRegister(persistTotal, blobBytes, unsaved, mutationsTotal, reloadDuration)
}

// RecordPersist records the outcome of a full save.
func RecordPersist(size int, err error) {
	if err != nil {
		persistTotal.WithLabelValues("error").Inc()
		unsaved.Set(1)
		return
	}
	persistTotal.WithLabelValues("ok").Inc()
	blobBytes.Set(float64(size))
	unsaved.Set(0)
}

// RecordMutation counts a facade mutation.
func RecordMutation(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	mutationsTotal.WithLabelValues(operation, result).Inc()
}

// ObserveReload records how long a cache reload took.
func ObserveReload(d time.Duration) {
	reloadDuration.Observe(d.Seconds())
}

// PersistCount returns the counter for a persist result, for tests and the CLI.
func PersistCount(result string) prometheus.Counter {
	return persistTotal.WithLabelValues(result)
}

// MutationCount returns the counter for an operation/result pair.
func MutationCount(operation, result string) prometheus.Counter {
	return mutationsTotal.WithLabelValues(operation, result)
}
