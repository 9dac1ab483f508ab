package tools

import (
	"errors"
	"fmt"
)

// ErrMissingArgument is returned when a tool is invoked without its input.
var ErrMissingArgument = errors.New("missing tool argument")

// ToolUnavailableError reports a tool that cannot serve requests: it is not
// registered, not configured, or its backend failed to start.
type ToolUnavailableError struct {
	Tool string
	Err  error
}

func (e *ToolUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("tool %s unavailable", e.Tool)
	}
	return fmt.Sprintf("tool %s unavailable: %v", e.Tool, e.Err)
}

func (e *ToolUnavailableError) Unwrap() error { return e.Err }

// NetworkError reports a failed outbound call made by a tool. Status is the
// HTTP status when a response was received, zero otherwise.
type NetworkError struct {
	Tool   string
	URL    string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("%s: %s returned %d: %v", e.Tool, e.URL, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s: %s returned %d", e.Tool, e.URL, e.Status)
	default:
		return fmt.Sprintf("%s: request to %s failed: %v", e.Tool, e.URL, e.Err)
	}
}

func (e *NetworkError) Unwrap() error { return e.Err }
