package reclaim

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the reclaimer.
// A nil *Metrics records nothing.
type Metrics struct {
	added         *prometheus.CounterVec
	removed       *prometheus.CounterVec
	reclaimed     *prometheus.CounterVec
	failures      *prometheus.CounterVec
	pending       *prometheus.GaugeVec
	sweepDuration prometheus.Histogram
}

// NewMetrics registers the reclaimer collectors on registry.
// An empty namespace defaults to "sigreact".
func NewMetrics(registry prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = "sigreact"
	}
	factory := promauto.With(registry)

	return &Metrics{
		added: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reclaim",
			Name:      "added_total",
			Help:      "Reactions registered as pending",
		}, []string{"strategy"}),

		removed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reclaim",
			Name:      "removed_total",
			Help:      "Pending reactions confirmed by their owner",
		}, []string{"strategy"}),

		reclaimed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reclaim",
			Name:      "reclaimed_total",
			Help:      "Abandoned reactions destroyed by the reclaimer",
		}, []string{"strategy"}),

		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reclaim",
			Name:      "destroy_failures_total",
			Help:      "Reactions whose destroy panicked during reclamation",
		}, []string{"strategy"}),

		pending: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "reclaim",
			Name:      "pending",
			Help:      "Reactions awaiting confirmation",
		}, []string{"strategy"}),

		sweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "reclaim",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of sweep passes",
			Buckets:   []float64{.0001, .001, .01, .1, 1},
		}),
	}
}

func (m *Metrics) onAdd(strategy string) {
	if m == nil {
		return
	}
	m.added.WithLabelValues(strategy).Inc()
	m.pending.WithLabelValues(strategy).Inc()
}

func (m *Metrics) onRemove(strategy string) {
	if m == nil {
		return
	}
	m.removed.WithLabelValues(strategy).Inc()
	m.pending.WithLabelValues(strategy).Dec()
}

func (m *Metrics) onReclaim(strategy string, err error) {
	if m == nil {
		return
	}
	m.pending.WithLabelValues(strategy).Dec()
	if err != nil {
		m.failures.WithLabelValues(strategy).Inc()
		return
	}
	m.reclaimed.WithLabelValues(strategy).Inc()
}

func (m *Metrics) onSweep(seconds float64) {
	if m == nil {
		return
	}
	m.sweepDuration.Observe(seconds)
}
