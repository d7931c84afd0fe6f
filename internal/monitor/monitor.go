package monitor

// Monitor is the optional sidecar mode: the same probe the container
// HEALTHCHECK runs, executed on a fixed interval and republished as
// Prometheus metrics. It never kills or restarts the guarded process;
// it only observes.

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/ainsophic/hubguard/internal/config"
	"github.com/ainsophic/hubguard/internal/probe"
	"github.com/ainsophic/hubguard/pkg/logging"
)

// Monitor runs periodic probes and serves the scrape endpoint.
type Monitor struct {
	settings config.MonitorSettings
	prober   *probe.Prober
	metrics  *Metrics
	log      *logging.Logger

	// processUp is injectable for tests; defaults to a gopsutil scan
	processUp func(name string) bool
}

// New creates a monitor around an existing prober.
func New(settings config.MonitorSettings, prober *probe.Prober, log *logging.Logger) *Monitor {
	return &Monitor{
		settings:  settings,
		prober:    prober,
		metrics:   NewMetrics(),
		log:       log,
		processUp: processRunning,
	}
}

// Metrics exposes the metric set, mainly for tests.
func (m *Monitor) Metrics() *Metrics {
	return m.metrics
}

// Run probes until the context is cancelled, serving /metrics and
// /health on the configured listen address. Blocks.
func (m *Monitor) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    m.settings.ListenAddr,
		Handler: m.router(),
	}

	errCh := make(chan error, 1)
	go func() {
		m.log.Info("Monitor listening", map[string]interface{}{
			"addr":     m.settings.ListenAddr,
			"interval": m.settings.Interval.String(),
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	ticker := time.NewTicker(m.settings.Interval)
	defer ticker.Stop()

	// Initial probe so the first scrape sees real values
	m.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
			return nil
		case err := <-errCh:
			return fmt.Errorf("monitor server failed: %w", err)
		case <-ticker.C:
			m.runOnce(ctx)
		}
	}
}

// runOnce executes one probe cycle and publishes the results.
func (m *Monitor) runOnce(ctx context.Context) {
	outcome := m.prober.Probe(ctx)
	m.metrics.RecordOutcome(outcome)

	up := m.processUp(m.settings.ProcessName)
	m.metrics.RecordGuardedProcess(up)

	if outcome.Healthy {
		m.log.Debug("Probe passed", map[string]interface{}{
			"attempts": outcome.Attempts,
			"duration": outcome.Duration.String(),
		})
	} else {
		m.log.Warn("Probe failed", map[string]interface{}{
			"reason":  string(outcome.Reason),
			"message": outcome.Message,
		})
	}
	if !up {
		m.log.Warn("Guarded process not found", map[string]interface{}{
			"process": m.settings.ProcessName,
		})
	}
}

func (m *Monitor) router() *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(m.metrics.Registry(), promhttp.HandlerOpts{}))
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "OK")
	}).Methods(http.MethodGet)
	return r
}

// processRunning scans the process table for a process whose name
// matches. Best effort: scan errors count as not running.
func processRunning(name string) bool {
	if name == "" {
		return false
	}

	procs, err := process.Processes()
	if err != nil {
		return false
	}

	for _, p := range procs {
		pname, err := p.Name()
		if err != nil {
			continue
		}
		if strings.EqualFold(pname, name) {
			return true
		}
	}
	return false
}
