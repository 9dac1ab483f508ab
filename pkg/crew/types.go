// Package crew describes role agents and ordered tasks, and runs them one at
// a time, threading every task's output forward as an explicit log.
package crew

import (
	"context"
	"time"

	"github.com/Protocol-Lattice/funeral-research/pkg/tools"
)

// AgentSpec configures one role agent. Values are built once and never
// mutated; tasks refer to them by pointer.
type AgentSpec struct {
	Role            string
	Goal            string
	Backstory       string
	Tools           []tools.Ref
	AllowDelegation bool
	Memory          bool
	Verbose         bool
}

// TaskSpec is one unit of work. A task without an Agent is a standalone tool
// step: each of its tools is invoked with InputData.
type TaskSpec struct {
	ID             string
	Description    string
	ExpectedOutput string
	Tools          []tools.Ref
	Agent          *AgentSpec
	InputData      map[string]string
	AsyncExecution bool
}

// Crew pairs the agent set with the ordered task list.
type Crew struct {
	Agents []*AgentSpec
	Tasks  []TaskSpec
}

// TaskOutput is one entry of the run log.
type TaskOutput struct {
	TaskID      string    `json:"task_id" bson:"task_id"`
	Agent       string    `json:"agent" bson:"agent"`
	Description string    `json:"description" bson:"description"`
	Output      string    `json:"output" bson:"output"`
	StartedAt   time.Time `json:"started_at" bson:"started_at"`
	FinishedAt  time.Time `json:"finished_at" bson:"finished_at"`
}

// ExecutionResult is the outcome of a completed run. Final is the output of
// the last task; Log holds every task output in execution order.
type ExecutionResult struct {
	RunID string
	Final string
	Log   []TaskOutput
}

// Output returns the logged output of taskID.
func (r *ExecutionResult) Output(taskID string) (string, bool) {
	if r == nil {
		return "", false
	}
	for _, entry := range r.Log {
		if entry.TaskID == taskID {
			return entry.Output, true
		}
	}
	return "", false
}

// TaskInput is what an agent receives for one task.
type TaskInput struct {
	Task TaskSpec
	// Description is the task description with run inputs interpolated.
	Description string
	// Context holds the outputs of every earlier task, oldest first.
	Context []TaskOutput
}

// AgentRunner executes a task on behalf of an agent.
type AgentRunner interface {
	RunTask(ctx context.Context, agent *AgentSpec, in TaskInput) (string, error)
}

// Journal persists the run log as it grows.
type Journal interface {
	Begin(ctx context.Context, runID string) error
	Append(ctx context.Context, runID string, out TaskOutput) error
}

// Executor runs a crew to completion.
type Executor interface {
	Run(ctx context.Context, c Crew, inputs map[string]string) (*ExecutionResult, error)
}
