package monitor

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ainsophic/hubguard/internal/config"
	"github.com/ainsophic/hubguard/internal/probe"
	"github.com/ainsophic/hubguard/pkg/logging"
)

func testMonitor(t *testing.T, backendURL string, processUp bool) *Monitor {
	t.Helper()

	log := logging.NewLogger(logging.ERROR)
	log.SetOutput(io.Discard)

	prober := probe.New(config.ProbeSettings{
		URL:        backendURL,
		Timeout:    time.Second,
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
	}, log)

	m := New(config.MonitorSettings{
		Interval:    time.Minute,
		ListenAddr:  ":0",
		ProcessName: "python3",
	}, prober, log)

	m.processUp = func(name string) bool { return processUp }
	return m
}

func TestRunOnce_HealthyBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"healthy","components":{"registry":true,"router":true}}`))
	}))
	defer srv.Close()

	m := testMonitor(t, srv.URL, true)
	m.runOnce(context.Background())

	if got := testutil.ToFloat64(m.metrics.probeHealthy); got != 1 {
		t.Errorf("hubguard_probe_healthy = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.metrics.guardedUp); got != 1 {
		t.Errorf("hubguard_guarded_process_up = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.metrics.componentHealthy.WithLabelValues("registry")); got != 1 {
		t.Errorf("component registry = %v, want 1", got)
	}
}

func TestRunOnce_ComponentDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"healthy","components":{"registry":true,"gateway":false}}`))
	}))
	defer srv.Close()

	m := testMonitor(t, srv.URL, true)
	m.runOnce(context.Background())

	if got := testutil.ToFloat64(m.metrics.probeHealthy); got != 0 {
		t.Errorf("hubguard_probe_healthy = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.metrics.componentHealthy.WithLabelValues("gateway")); got != 0 {
		t.Errorf("component gateway = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.metrics.probesTotal.WithLabelValues("fail", "ComponentDown")); got != 1 {
		t.Errorf("probes_total{fail,ComponentDown} = %v, want 1", got)
	}
}

func TestRunOnce_UnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	m := testMonitor(t, url, false)
	m.runOnce(context.Background())

	if got := testutil.ToFloat64(m.metrics.probeHealthy); got != 0 {
		t.Errorf("hubguard_probe_healthy = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.metrics.guardedUp); got != 0 {
		t.Errorf("hubguard_guarded_process_up = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.metrics.probesTotal.WithLabelValues("fail", "EndpointUnreachable")); got != 1 {
		t.Errorf("probes_total{fail,EndpointUnreachable} = %v, want 1", got)
	}
}

func TestComponentMetricsDoNotLinger(t *testing.T) {
	// First report includes ui_proxy, second does not. The stale series
	// must disappear rather than keep its old value.
	bodies := []string{
		`{"status":"healthy","components":{"registry":true,"ui_proxy":true}}`,
		`{"status":"healthy","components":{"registry":true}}`,
	}
	i := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(bodies[i]))
		if i < len(bodies)-1 {
			i++
		}
	}))
	defer srv.Close()

	m := testMonitor(t, srv.URL, true)
	m.runOnce(context.Background())
	m.runOnce(context.Background())

	if got := testutil.CollectAndCount(m.metrics.componentHealthy); got != 1 {
		t.Errorf("component series = %d, want 1 after ui_proxy vanished", got)
	}
}

func TestRouter_Endpoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"healthy","components":{"registry":true}}`))
	}))
	defer srv.Close()

	m := testMonitor(t, srv.URL, true)
	m.runOnce(context.Background())

	ts := httptest.NewServer(m.router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /health = %d, want 200", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /metrics = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(string(body), "hubguard_probe_healthy 1") {
		t.Errorf("/metrics output missing hubguard_probe_healthy 1:\n%s", body)
	}
}
