package session

import "fmt"

// ConfigurationError means the route identifier could not be resolved to a
// usable route configuration. Initialize fails and the session stays Readying.
type ConfigurationError struct {
	RouteID string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error for route %q: %v", e.RouteID, e.Err)
	}
	return fmt.Sprintf("configuration error: unknown route %q", e.RouteID)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ValidationError means a selected file set violates the route constraints.
// The session is left untouched and SelectFiles may be retried.
type ValidationError struct {
	FileName string
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.FileName != "" {
		return fmt.Sprintf("validation failed for %q: %s", e.FileName, e.Reason)
	}
	return "validation failed: " + e.Reason
}

// InvalidStateError means an operation was invoked in a state that forbids it,
// e.g. StartUpload while already Uploading. No state change happens.
type InvalidStateError struct {
	Op     string
	Status Status
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s not allowed while session is %s", e.Op, e.Status)
}

// TransportError wraps the failure of an upload attempt. The session moves to
// Errored and the payload is preserved for display until Reset.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "upload transport failed: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }
