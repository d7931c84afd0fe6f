package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ainsophic/hubguard/internal/config"
	"github.com/ainsophic/hubguard/pkg/logging"
)

// Outcome is the result of one probe invocation. Produced fresh every
// time, never persisted; the exit code derived from Healthy is the only
// signal the orchestrator consumes.
type Outcome struct {
	Healthy  bool
	Reason   Reason // empty when Healthy
	Message  string
	Attempts int
	Duration time.Duration
	Report   *Report // last decoded payload, nil if none received
}

// Prober performs bounded-effort HTTP probes against the guarded
// service's health endpoint. A Prober holds no state across probes; a
// single instance is safe to reuse from the monitor loop.
type Prober struct {
	settings config.ProbeSettings
	client   *http.Client
	log      *logging.Logger

	// sleep is injectable so tests do not pay the retry delay
	sleep func(time.Duration)
}

// New creates a prober for the given settings.
func New(settings config.ProbeSettings, log *logging.Logger) *Prober {
	return &Prober{
		settings: settings,
		client:   &http.Client{Timeout: settings.Timeout},
		log:      log,
		sleep:    time.Sleep,
	}
}

// Probe performs one health probe: up to MaxRetries attempts spaced by
// RetryDelay for transport-level failures, no retries once a response
// body is in hand.
func (p *Prober) Probe(ctx context.Context) *Outcome {
	start := time.Now()
	outcome := &Outcome{}

	var lastErr string
	for attempt := 1; attempt <= p.settings.MaxRetries; attempt++ {
		outcome.Attempts = attempt

		body, err := p.fetch(ctx)
		if err != nil {
			lastErr = err.Error()
			p.log.Debug("Probe attempt failed", map[string]interface{}{
				"attempt": fmt.Sprintf("%d/%d", attempt, p.settings.MaxRetries),
				"error":   lastErr,
			})
			if attempt < p.settings.MaxRetries {
				p.sleep(p.settings.RetryDelay)
			}
			continue
		}

		// A response is in hand. From here nothing is retried: a
		// reachable-but-broken endpoint will not self-correct by
		// repeating the same request.
		p.evaluate(body, outcome)
		outcome.Duration = time.Since(start)
		return outcome
	}

	outcome.Healthy = false
	outcome.Reason = ReasonEndpointUnreachable
	outcome.Message = fmt.Sprintf("no response from %s after %d attempts: %s",
		p.settings.URL, p.settings.MaxRetries, lastErr)
	outcome.Duration = time.Since(start)
	return outcome
}

// fetch performs a single GET attempt. Any transport error or non-2xx
// status counts as a failed attempt.
func (p *Prober) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.settings.URL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused on retry
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// evaluate turns a received body into a verdict.
func (p *Prober) evaluate(body []byte, outcome *Outcome) {
	report, err := ParseReport(body)
	if err != nil {
		outcome.Healthy = false
		outcome.Reason = ReasonMalformedPayload
		outcome.Message = fmt.Sprintf("response from %s is not valid JSON: %v", p.settings.URL, err)
		return
	}
	outcome.Report = report

	if report.Status != StatusHealthy {
		actual := report.Status
		if actual == "" {
			actual = "(missing)"
		}
		outcome.Healthy = false
		outcome.Reason = ReasonReportedUnhealthy
		outcome.Message = fmt.Sprintf("service reports status %q, want %q", actual, StatusHealthy)
		return
	}

	if failed := report.FailedComponents(); len(failed) > 0 {
		outcome.Healthy = false
		outcome.Reason = ReasonComponentDown
		outcome.Message = fmt.Sprintf("components down: %s", strings.Join(failed, ", "))
		return
	}

	// Healthy only when zero components are false.
	outcome.Healthy = true
	outcome.Message = fmt.Sprintf("all %d components healthy", len(report.Components))
}
