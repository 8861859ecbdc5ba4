// Package metric defines the prometheus instrumentation for the gateway.
package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all gateway metrics. Instances are created unregistered so
// tests can construct them freely; the binary registers one instance on the
// default registry at startup.
type Metrics struct {
	SubmissionsTotal *prometheus.CounterVec
	PushesTotal      *prometheus.CounterVec
	StoreWritesTotal *prometheus.CounterVec
	LookupsTotal     *prometheus.CounterVec
	NotifyFailures   prometheus.Counter
	RegistryDuration prometheus.Histogram
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{
		SubmissionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fairgate",
				Subsystem: "submissions",
				Name:      "total",
				Help:      "Total number of record submissions by outcome",
			},
			[]string{"outcome"},
		),
		PushesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fairgate",
				Subsystem: "pushes",
				Name:      "total",
				Help:      "Total number of graph document pushes by outcome",
			},
			[]string{"outcome"},
		),
		StoreWritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fairgate",
				Subsystem: "store",
				Name:      "writes_total",
				Help:      "Total number of versioned store writes by operation (create/update)",
			},
			[]string{"operation"},
		),
		LookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fairgate",
				Subsystem: "lookup",
				Name:      "references_total",
				Help:      "Total number of classification references by result (resolved/dropped/cached)",
			},
			[]string{"result"},
		),
		NotifyFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "fairgate",
				Subsystem: "notify",
				Name:      "failures_total",
				Help:      "Total number of failed index notifications",
			},
		),
		RegistryDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "fairgate",
				Subsystem: "registry",
				Name:      "request_duration_seconds",
				Help:      "Latency of registry API calls",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}
}

// Register registers all metrics with the given registerer.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.SubmissionsTotal,
		m.PushesTotal,
		m.StoreWritesTotal,
		m.LookupsTotal,
		m.NotifyFailures,
		m.RegistryDuration,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveRegistryDuration records the latency of one registry call.
func (m *Metrics) ObserveRegistryDuration(d time.Duration) {
	m.RegistryDuration.Observe(d.Seconds())
}
