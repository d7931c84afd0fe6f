package monitor

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ainsophic/hubguard/internal/probe"
)

// Metrics republishes probe verdicts for Prometheus scraping.
type Metrics struct {
	registry *prometheus.Registry

	probeHealthy     prometheus.Gauge
	componentHealthy *prometheus.GaugeVec
	probeAttempts    prometheus.Counter
	probeDuration    prometheus.Histogram
	probesTotal      *prometheus.CounterVec
	guardedUp        prometheus.Gauge
}

// NewMetrics creates and registers the monitor metric set on its own
// registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		probeHealthy: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hubguard_probe_healthy",
			Help: "Whether the last probe passed (1) or failed (0)",
		}),
		componentHealthy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hubguard_component_healthy",
			Help: "Per-component liveness from the last health report",
		}, []string{"component"}),
		probeAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hubguard_probe_attempts_total",
			Help: "Total HTTP attempts across all probes, including retries",
		}),
		probeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hubguard_probe_duration_seconds",
			Help:    "Wall-clock duration of each probe including retries",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		probesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hubguard_probes_total",
			Help: "Probe verdicts by result and failure reason",
		}, []string{"result", "reason"}),
		guardedUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hubguard_guarded_process_up",
			Help: "Whether the guarded process is present in the process table",
		}),
	}

	m.registry.MustRegister(
		m.probeHealthy,
		m.componentHealthy,
		m.probeAttempts,
		m.probeDuration,
		m.probesTotal,
		m.guardedUp,
	)

	return m
}

// Registry exposes the registry for the /metrics handler and for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordOutcome publishes one probe outcome.
func (m *Metrics) RecordOutcome(o *probe.Outcome) {
	m.probeAttempts.Add(float64(o.Attempts))
	m.probeDuration.Observe(o.Duration.Seconds())

	if o.Healthy {
		m.probeHealthy.Set(1)
		m.probesTotal.WithLabelValues("pass", "").Inc()
	} else {
		m.probeHealthy.Set(0)
		m.probesTotal.WithLabelValues("fail", string(o.Reason)).Inc()
	}

	// Reset so components that vanish from the report do not linger
	// with stale values.
	m.componentHealthy.Reset()
	if o.Report != nil {
		for name, up := range o.Report.Components {
			v := 0.0
			if up {
				v = 1.0
			}
			m.componentHealthy.WithLabelValues(name).Set(v)
		}
	}
}

// RecordGuardedProcess publishes guarded-process presence.
func (m *Metrics) RecordGuardedProcess(up bool) {
	if up {
		m.guardedUp.Set(1)
	} else {
		m.guardedUp.Set(0)
	}
}
