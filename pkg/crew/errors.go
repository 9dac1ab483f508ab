package crew

import (
	"fmt"
	"strings"
)

// TaskError reports the task that aborted a run.
type TaskError struct {
	Index  int
	TaskID string
	Err    error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %d (%s) failed: %v", e.Index+1, e.TaskID, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

// ValidationError lists every problem found in a crew configuration.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid crew: " + strings.Join(e.Problems, "; ")
}
