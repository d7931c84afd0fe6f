package probe

// Reason categorizes probe failures for the operator and for retry policy.
type Reason string

const (
	// ReasonEndpointUnreachable: no successful HTTP response within the
	// retry budget. The only retryable class; a transient network hiccup
	// may resolve.
	ReasonEndpointUnreachable Reason = "EndpointUnreachable"

	// ReasonMalformedPayload: reachable endpoint, body is not valid JSON.
	// Never retried; the same request would return the same garbage.
	ReasonMalformedPayload Reason = "MalformedPayload"

	// ReasonReportedUnhealthy: top-level status is not "healthy".
	ReasonReportedUnhealthy Reason = "ReportedUnhealthy"

	// ReasonComponentDown: one or more components report false.
	ReasonComponentDown Reason = "ComponentDown"
)

// Retryable reports whether another attempt could change the verdict.
func (r Reason) Retryable() bool {
	return r == ReasonEndpointUnreachable
}
