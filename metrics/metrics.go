// Package metrics holds the Prometheus collectors of the tally engine and
// the data service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "demos"

// Tally run outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeEmpty   = "empty"
)

var (
	registryOnce sync.Once
	registry     *prometheus.Registry
)

var (
	// BallotsProcessed counts the ballots processed by tally workers.
	BallotsProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tally",
			Name:      "ballots_processed_total",
			Help:      "number of ballots processed by tally workers",
		},
	)
	// ActiveWorkers is the number of tally workers currently running.
	ActiveWorkers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "tally",
			Name:      "active_workers",
			Help:      "number of running tally workers",
		},
	)
	// TallyRuns counts the finished tally runs by outcome.
	TallyRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tally",
			Name:      "runs_total",
			Help:      "number of tally runs by outcome",
		},
		[]string{"outcome"},
	)
	// APIRequests counts the data service requests by route and method.
	APIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "number of data service requests",
		},
		[]string{"route", "method"},
	)
)

// Registry returns the registry every collector of this package is
// registered on.
func Registry() *prometheus.Registry {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			BallotsProcessed,
			ActiveWorkers,
			TallyRuns,
			APIRequests,
		)
	})
	return registry
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry(), promhttp.HandlerOpts{})
}
