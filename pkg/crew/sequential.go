package crew

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Protocol-Lattice/funeral-research/pkg/tools"
)

// Sequential runs tasks strictly in list order, one at a time. The first
// failure aborts the run; nothing is retried.
type Sequential struct {
	Runner  AgentRunner
	Tools   *tools.Catalog
	Journal Journal
	Logger  *log.Logger

	OnTaskStart func(index int, task TaskSpec)
	OnTaskDone  func(index int, out TaskOutput)

	now func() time.Time
}

var _ Executor = (*Sequential)(nil)

// NewSequential builds an executor. tools may be nil when no task is agentless.
func NewSequential(runner AgentRunner, catalog *tools.Catalog) *Sequential {
	return &Sequential{Runner: runner, Tools: catalog}
}

func (s *Sequential) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now().UTC()
}

func (s *Sequential) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
	}
}

// Run validates c and executes its tasks in order.
func (s *Sequential) Run(ctx context.Context, c Crew, inputs map[string]string) (*ExecutionResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	result := &ExecutionResult{
		RunID: ulid.Make().String(),
		Log:   make([]TaskOutput, 0, len(c.Tasks)),
	}
	if s.Journal != nil {
		if err := s.Journal.Begin(ctx, result.RunID); err != nil {
			return nil, fmt.Errorf("journal: %w", err)
		}
	}
	s.logf("run %s: %d tasks", result.RunID, len(c.Tasks))

	for i, task := range c.Tasks {
		if err := ctx.Err(); err != nil {
			return nil, &TaskError{Index: i, TaskID: task.ID, Err: err}
		}
		if s.OnTaskStart != nil {
			s.OnTaskStart(i, task)
		}

		started := s.clock()
		description := Interpolate(task.Description, inputs)
		agentRole := ""
		var (
			output string
			err    error
		)
		if task.Agent == nil {
			s.logf("[%d/%d] %s: standalone tool step", i+1, len(c.Tasks), task.ID)
			output, err = s.runTools(ctx, task, inputs)
		} else {
			agentRole = task.Agent.Role
			s.logf("[%d/%d] %s: %s", i+1, len(c.Tasks), task.ID, agentRole)
			if s.Runner == nil {
				err = errors.New("no agent runner configured")
			} else {
				in := TaskInput{
					Task:        task,
					Description: description,
					Context:     append([]TaskOutput(nil), result.Log...),
				}
				output, err = s.Runner.RunTask(ctx, task.Agent, in)
			}
		}
		if err != nil {
			s.logf("[%d/%d] %s failed: %v", i+1, len(c.Tasks), task.ID, err)
			return nil, &TaskError{Index: i, TaskID: task.ID, Err: err}
		}

		out := TaskOutput{
			TaskID:      task.ID,
			Agent:       agentRole,
			Description: description,
			Output:      strings.TrimSpace(output),
			StartedAt:   started,
			FinishedAt:  s.clock(),
		}
		if s.Journal != nil {
			if err := s.Journal.Append(ctx, result.RunID, out); err != nil {
				return nil, &TaskError{Index: i, TaskID: task.ID, Err: fmt.Errorf("journal: %w", err)}
			}
		}
		result.Log = append(result.Log, out)
		if s.OnTaskDone != nil {
			s.OnTaskDone(i, out)
		}
	}

	result.Final = result.Log[len(result.Log)-1].Output
	return result, nil
}

// runTools invokes every tool of an agentless task with its input data.
func (s *Sequential) runTools(ctx context.Context, task TaskSpec, inputs map[string]string) (string, error) {
	if s.Tools == nil {
		return "", &tools.ToolUnavailableError{Tool: tools.Names(task.Tools), Err: errors.New("no tool catalog configured")}
	}
	selected, err := s.Tools.Subset(task.Tools)
	if err != nil {
		return "", err
	}

	args := make(map[string]any, len(task.InputData))
	for k, v := range task.InputData {
		args[k] = Interpolate(v, inputs)
	}

	parts := make([]string, 0, len(selected))
	for _, tool := range selected {
		resp, err := tool.Invoke(ctx, tools.ToolRequest{SessionID: task.ID, Arguments: args})
		if err != nil {
			return "", err
		}
		parts = append(parts, strings.TrimSpace(resp.Content))
	}
	return strings.Join(parts, "\n\n"), nil
}

// Interpolate replaces {key} placeholders with inputs[key]. Unknown
// placeholders are left as they are.
func Interpolate(text string, inputs map[string]string) string {
	if len(inputs) == 0 || !strings.Contains(text, "{") {
		return text
	}
	keys := make([]string, 0, len(inputs))
	for k := range inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", inputs[k])
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
