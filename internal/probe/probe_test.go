package probe

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ainsophic/hubguard/internal/config"
	"github.com/ainsophic/hubguard/pkg/logging"
)

func testProber(url string, maxRetries int) (*Prober, *[]time.Duration) {
	log := logging.NewLogger(logging.ERROR)
	log.SetOutput(io.Discard)

	p := New(config.ProbeSettings{
		URL:        url,
		Timeout:    2 * time.Second,
		MaxRetries: maxRetries,
		RetryDelay: 100 * time.Millisecond,
	}, log)

	// Record sleeps instead of paying them
	var sleeps []time.Duration
	p.sleep = func(d time.Duration) {
		sleeps = append(sleeps, d)
	}

	return p, &sleeps
}

func healthServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func TestProbe_Verdicts(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantHealthy bool
		wantReason  Reason
		wantInMsg   string
	}{
		{
			name:        "all components healthy",
			body:        `{"status":"healthy","components":{"a":true,"b":true}}`,
			wantHealthy: true,
		},
		{
			name:        "no components still healthy",
			body:        `{"status":"healthy","components":{}}`,
			wantHealthy: true,
		},
		{
			name:       "single component down",
			body:       `{"status":"healthy","components":{"a":true,"b":false}}`,
			wantReason: ReasonComponentDown,
			wantInMsg:  "b",
		},
		{
			name:       "every failing component listed",
			body:       `{"status":"healthy","components":{"router":false,"gateway":false,"registry":true}}`,
			wantReason: ReasonComponentDown,
			wantInMsg:  "gateway, router",
		},
		{
			name:       "degraded status",
			body:       `{"status":"degraded","components":{}}`,
			wantReason: ReasonReportedUnhealthy,
			wantInMsg:  `"degraded"`,
		},
		{
			name:       "missing status field",
			body:       `{"components":{"a":true}}`,
			wantReason: ReasonReportedUnhealthy,
			wantInMsg:  "(missing)",
		},
		{
			name:       "non-JSON body",
			body:       "<html>It works!</html>",
			wantReason: ReasonMalformedPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := healthServer(t, http.StatusOK, tt.body)
			defer srv.Close()

			p, _ := testProber(srv.URL+"/health", 3)
			outcome := p.Probe(context.Background())

			if outcome.Healthy != tt.wantHealthy {
				t.Fatalf("Healthy = %v, want %v (message: %s)", outcome.Healthy, tt.wantHealthy, outcome.Message)
			}
			if outcome.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", outcome.Reason, tt.wantReason)
			}
			if tt.wantInMsg != "" && !strings.Contains(outcome.Message, tt.wantInMsg) {
				t.Errorf("Message %q does not contain %q", outcome.Message, tt.wantInMsg)
			}
		})
	}
}

func TestProbe_NoRetryOnceResponseReceived(t *testing.T) {
	srv := healthServer(t, http.StatusOK, "not json at all")
	defer srv.Close()

	p, sleeps := testProber(srv.URL+"/health", 5)
	outcome := p.Probe(context.Background())

	if outcome.Reason != ReasonMalformedPayload {
		t.Fatalf("Reason = %q, want %q", outcome.Reason, ReasonMalformedPayload)
	}
	if outcome.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1: malformed payload must not be retried", outcome.Attempts)
	}
	if len(*sleeps) != 0 {
		t.Errorf("slept %d times, want 0", len(*sleeps))
	}
}

func TestProbe_UnreachableRetriesFullBudget(t *testing.T) {
	// Grab an address that refuses connections
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL + "/health"
	srv.Close()

	p, sleeps := testProber(url, 3)
	outcome := p.Probe(context.Background())

	if outcome.Healthy {
		t.Fatal("Healthy = true, want false")
	}
	if outcome.Reason != ReasonEndpointUnreachable {
		t.Fatalf("Reason = %q, want %q", outcome.Reason, ReasonEndpointUnreachable)
	}
	if outcome.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", outcome.Attempts)
	}
	// Delay between attempts, not after the last one
	if len(*sleeps) != 2 {
		t.Fatalf("slept %d times, want 2", len(*sleeps))
	}
	for _, d := range *sleeps {
		if d != 100*time.Millisecond {
			t.Errorf("sleep = %v, want 100ms", d)
		}
	}
}

func TestProbe_Non2xxCountsAsFailedAttempt(t *testing.T) {
	srv := healthServer(t, http.StatusServiceUnavailable, "busy")
	defer srv.Close()

	p, _ := testProber(srv.URL+"/health", 2)
	outcome := p.Probe(context.Background())

	if outcome.Reason != ReasonEndpointUnreachable {
		t.Fatalf("Reason = %q, want %q", outcome.Reason, ReasonEndpointUnreachable)
	}
	if outcome.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", outcome.Attempts)
	}
	if !strings.Contains(outcome.Message, "HTTP 503") {
		t.Errorf("Message %q does not mention HTTP 503", outcome.Message)
	}
}

func TestProbe_RecoversWithinRetryBudget(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"status":"healthy","components":{"a":true}}`))
	}))
	defer srv.Close()

	p, _ := testProber(srv.URL+"/health", 3)
	outcome := p.Probe(context.Background())

	if !outcome.Healthy {
		t.Fatalf("Healthy = false (%s), want true", outcome.Message)
	}
	if outcome.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", outcome.Attempts)
	}
}

func TestReason_Retryable(t *testing.T) {
	tests := []struct {
		reason Reason
		want   bool
	}{
		{ReasonEndpointUnreachable, true},
		{ReasonMalformedPayload, false},
		{ReasonReportedUnhealthy, false},
		{ReasonComponentDown, false},
	}

	for _, tt := range tests {
		if got := tt.reason.Retryable(); got != tt.want {
			t.Errorf("%s.Retryable() = %v, want %v", tt.reason, got, tt.want)
		}
	}
}
