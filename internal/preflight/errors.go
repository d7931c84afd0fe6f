package preflight

import "fmt"

// Reason identifies which startup gate rejected the container.
type Reason string

const (
	ReasonConfigMissing  Reason = "ConfigMissing"
	ReasonConfigInvalid  Reason = "ConfigInvalid"
	ReasonRuntimeMissing Reason = "RuntimeMissing"
	ReasonDirUnwritable  Reason = "DirUnwritable"
	ReasonHandoffFailed  Reason = "HandoffFailed"
)

// Error is a terminal preflight failure. Every preflight fault aborts
// startup; none of them are retryable, a broken environment does not
// heal by waiting.
type Error struct {
	Reason  Reason
	Check   string // check name, e.g. "config-syntax"
	Path    string // file or directory involved, if any
	Message string
	Err     error
}

// Error implements error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s check failed (%s)", e.Check, e.Reason)
	if e.Path != "" {
		msg += ": " + e.Path
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap implements error unwrapping
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(reason Reason, check, path, message string, err error) *Error {
	return &Error{
		Reason:  reason,
		Check:   check,
		Path:    path,
		Message: message,
		Err:     err,
	}
}
