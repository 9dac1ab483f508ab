package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/Protocol-Lattice/funeral-research/pkg/crew"
	"github.com/Protocol-Lattice/funeral-research/pkg/memory"
	"github.com/Protocol-Lattice/funeral-research/pkg/models"
	"github.com/Protocol-Lattice/funeral-research/pkg/tools"
)

// ErrMaxIterations is returned when an agent keeps calling tools past its
// iteration budget without producing a final answer.
var ErrMaxIterations = errors.New("agent exceeded its iteration budget without a final answer")

const (
	defaultMaxIterations = 5
	defaultContextChars  = 6000
	memoryRecall         = 6
)

// Agent runs tasks for a single role: it prompts the model, executes the
// tool and delegation commands the model replies with, and returns the
// first plain reply as the task result.
type Agent struct {
	spec      *crew.AgentSpec
	model     models.Agent
	tools     []tools.Tool
	memory    *memory.SessionMemory
	sessionID string

	maxIterations int
	contextChars  int
	team          *Team
	logger        *log.Logger
}

// Options configure a new Agent.
type Options struct {
	MaxIterations int
	// ContextChars caps each earlier task output quoted in the prompt.
	ContextChars int
	Memory       *memory.SessionMemory
	Logger       *log.Logger
}

// New creates an Agent for spec. toolset must hold exactly the tools the
// spec allows, in spec order.
func New(spec *crew.AgentSpec, model models.Agent, toolset []tools.Tool, opts Options) (*Agent, error) {
	if spec == nil {
		return nil, errors.New("agent requires a spec")
	}
	if model == nil {
		return nil, fmt.Errorf("agent %s requires a language model", spec.Role)
	}
	if len(toolset) != len(spec.Tools) {
		return nil, fmt.Errorf("agent %s: got %d tools for %d allowed", spec.Role, len(toolset), len(spec.Tools))
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = defaultMaxIterations
	}
	if opts.ContextChars <= 0 {
		opts.ContextChars = defaultContextChars
	}

	a := &Agent{
		spec:          spec,
		model:         model,
		tools:         toolset,
		sessionID:     fmt.Sprintf("%s:%s", slug(spec.Role), uuid.NewString()),
		maxIterations: opts.MaxIterations,
		contextChars:  opts.ContextChars,
		logger:        opts.Logger,
	}
	if spec.Memory {
		a.memory = opts.Memory
		if a.memory == nil {
			a.memory = memory.NewSessionMemory(16)
		}
	}
	return a, nil
}

// Role returns the agent's role name.
func (a *Agent) Role() string { return a.spec.Role }

// Spec returns the configuration the agent was built from.
func (a *Agent) Spec() *crew.AgentSpec { return a.spec }

// SessionID identifies the agent's memory session.
func (a *Agent) SessionID() string { return a.sessionID }

func (a *Agent) tracef(format string, args ...any) {
	if a.logger != nil && a.spec.Verbose {
		a.logger.Printf("[%s] "+format, append([]any{a.spec.Role}, args...)...)
	}
}

// Execute runs one task to completion.
func (a *Agent) Execute(ctx context.Context, in crew.TaskInput) (string, error) {
	return a.execute(ctx, in, a.spec.AllowDelegation && a.team != nil)
}

func (a *Agent) execute(ctx context.Context, in crew.TaskInput, canDelegate bool) (string, error) {
	description := in.Description
	if strings.TrimSpace(description) == "" {
		description = in.Task.Description
	}
	if strings.TrimSpace(description) == "" {
		return "", errors.New("task description is empty")
	}

	var steps []step
	for iter := 0; iter < a.maxIterations; iter++ {
		final := iter == a.maxIterations-1
		prompt := a.buildPrompt(in, description, steps, canDelegate, final)

		completion, err := a.model.Generate(ctx, prompt)
		if err != nil {
			return "", fmt.Errorf("%s: model: %w", a.spec.Role, err)
		}
		reply := models.Text(completion)
		act := parseAction(reply)

		switch act.kind {
		case actionTool:
			if final {
				return "", ErrMaxIterations
			}
			obs, err := a.useTool(ctx, act.target, act.input)
			if err != nil {
				return "", err
			}
			steps = append(steps, step{command: reply, observation: obs})
		case actionDelegate:
			if final {
				return "", ErrMaxIterations
			}
			obs, err := a.delegate(ctx, in, act.target, act.input, canDelegate)
			if err != nil {
				return "", err
			}
			steps = append(steps, step{command: reply, observation: obs})
		default:
			a.remember(in.Task.ID, description, reply)
			a.tracef("finished %s", in.Task.ID)
			return reply, nil
		}
	}
	return "", ErrMaxIterations
}

func (a *Agent) useTool(ctx context.Context, name, input string) (string, error) {
	for _, tool := range a.tools {
		spec := tool.Spec()
		if !strings.EqualFold(spec.Name, name) {
			continue
		}
		a.tracef("tool %s %q", spec.Name, input)
		resp, err := tool.Invoke(ctx, toolRequest(spec, a.sessionID, input))
		if err != nil {
			return "", err
		}
		content := strings.TrimSpace(resp.Content)
		if a.memory != nil {
			a.memory.AddShortTerm(a.sessionID, "tool", fmt.Sprintf("%s => %s", spec.Name, truncate(content, 500)), map[string]string{"tool": spec.Name})
		}
		return content, nil
	}
	return fmt.Sprintf("Tool %q is not available to you. Available tools: %s.", name, a.toolNames()), nil
}

func (a *Agent) delegate(ctx context.Context, in crew.TaskInput, role, job string, canDelegate bool) (string, error) {
	if !canDelegate {
		return "Delegation is not available to you; complete the task yourself.", nil
	}
	if strings.EqualFold(role, a.spec.Role) {
		return "You cannot delegate to yourself.", nil
	}
	coworker, ok := a.team.Lookup(role)
	if !ok {
		return fmt.Sprintf("There is no co-worker named %q. Co-workers: %s.", role, strings.Join(a.team.coworkers(a.spec.Role), ", ")), nil
	}
	if strings.TrimSpace(job) == "" {
		return "Say what the co-worker should do after the role name.", nil
	}

	a.tracef("delegating to %s", coworker.Role())
	sub := crew.TaskInput{
		Task: crew.TaskSpec{
			ID:             in.Task.ID + ".delegated",
			Description:    job,
			ExpectedOutput: "A complete answer to the request.",
			Agent:          coworker.spec,
		},
		Description: job,
		Context:     in.Context,
	}
	out, err := coworker.execute(ctx, sub, false)
	if err != nil {
		return "", fmt.Errorf("delegated to %s: %w", coworker.Role(), err)
	}
	return out, nil
}

func (a *Agent) remember(taskID, description, reply string) {
	if a.memory == nil {
		return
	}
	a.memory.AddShortTerm(a.sessionID, "task", description, map[string]string{"task": taskID})
	a.memory.AddShortTerm(a.sessionID, "assistant", truncate(reply, a.contextChars), map[string]string{"task": taskID})
}

func (a *Agent) toolNames() string {
	if len(a.tools) == 0 {
		return "<none>"
	}
	names := make([]string, len(a.tools))
	for i, t := range a.tools {
		names[i] = t.Spec().Name
	}
	return strings.Join(names, ", ")
}

func slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "\n[truncated]"
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
