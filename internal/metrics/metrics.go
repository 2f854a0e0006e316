package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// The controller is a run-to-completion process, so there is no listener to
// scrape. Counters are written to a textfile at exit for node_exporter's
// textfile collector to pick up.

var (
	registry = prometheus.NewRegistry()

	actionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "svclift",
			Name:      "action_total",
			Help:      "Lifecycle actions dispatched, by command and outcome.",
		}, []string{"command", "outcome"},
	)
	actionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "svclift",
			Name:      "action_duration_seconds",
			Help:      "Wall time of one dispatched action including the supervisor call.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"command"},
	)
	serviceUp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "svclift",
			Name:      "service_up",
			Help:      "Last known service state from the marker (1 = started).",
		},
	)
)

func init() {
	registry.MustRegister(actionTotal, actionDuration, serviceUp)
}

func RecordAction(command, outcome string, seconds float64) {
	actionTotal.WithLabelValues(command, outcome).Inc()
	actionDuration.WithLabelValues(command).Observe(seconds)
}

func SetServiceUp(up bool) {
	if up {
		serviceUp.Set(1)
	} else {
		serviceUp.Set(0)
	}
}

// WriteTextfile dumps the registry to path in the text exposition format.
// Callers invoke it once, right before process exit. An empty path disables
// the dump.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, registry)
}
