package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Protocol-Lattice/funeral-research/pkg/crew"
	"github.com/Protocol-Lattice/funeral-research/pkg/tools"
)

type actionKind int

const (
	actionAnswer actionKind = iota
	actionTool
	actionDelegate
)

type action struct {
	kind   actionKind
	target string
	input  string
}

// step is one command the model issued during a task and what came back.
type step struct {
	command     string
	observation string
}

// parseAction recognises replies that start with `tool:<name> <input>` or
// `delegate:<role> | <task>`. Anything else is a final answer.
func parseAction(reply string) action {
	trimmed := strings.TrimSpace(reply)
	trimmed = strings.Trim(trimmed, "`")
	trimmed = strings.TrimSpace(trimmed)
	lower := strings.ToLower(trimmed)

	switch {
	case strings.HasPrefix(lower, "tool:"):
		payload := strings.TrimSpace(trimmed[len("tool:"):])
		if payload == "" {
			return action{kind: actionAnswer}
		}
		name, rest := splitCommand(payload)
		return action{kind: actionTool, target: name, input: rest}
	case strings.HasPrefix(lower, "delegate:"):
		payload := strings.TrimSpace(trimmed[len("delegate:"):])
		role, job, ok := strings.Cut(payload, "|")
		if !ok || strings.TrimSpace(role) == "" {
			return action{kind: actionAnswer}
		}
		return action{kind: actionDelegate, target: strings.TrimSpace(role), input: strings.TrimSpace(job)}
	default:
		return action{kind: actionAnswer}
	}
}

func splitCommand(payload string) (string, string) {
	payload = strings.TrimSpace(payload)
	idx := strings.IndexAny(payload, " \t\n")
	if idx < 0 {
		return payload, ""
	}
	return payload[:idx], strings.TrimSpace(payload[idx+1:])
}

// toolRequest accepts either a JSON object of arguments or free text bound to
// the tool's primary argument.
func toolRequest(spec tools.ToolSpec, sessionID, raw string) tools.ToolRequest {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "{") {
		var payload map[string]any
		if err := json.Unmarshal([]byte(raw), &payload); err == nil && len(payload) > 0 {
			return tools.ToolRequest{SessionID: sessionID, Arguments: payload}
		}
	}
	return tools.Request(spec, sessionID, raw)
}

func (a *Agent) buildPrompt(in crew.TaskInput, description string, steps []step, canDelegate, final bool) string {
	var sb strings.Builder
	sb.Grow(4096)

	fmt.Fprintf(&sb, "You are %s.\n%s\n\nYour personal goal is: %s\n", a.spec.Role, strings.TrimSpace(a.spec.Backstory), strings.TrimSpace(a.spec.Goal))

	if t := a.renderTools(); t != "" {
		sb.WriteString("\n")
		sb.WriteString(t)
	}
	if canDelegate {
		if c := a.renderCoworkers(); c != "" {
			sb.WriteString("\n")
			sb.WriteString(c)
		}
	}
	if m := a.renderMemory(); m != "" {
		sb.WriteString("\nWhat you remember from earlier work:\n")
		sb.WriteString(m)
	}
	if len(in.Context) > 0 {
		sb.WriteString("\nThis is the context you're working with:\n")
		for _, out := range in.Context {
			label := out.TaskID
			if out.Agent != "" {
				label = fmt.Sprintf("%s (%s)", out.TaskID, out.Agent)
			}
			fmt.Fprintf(&sb, "### %s\n%s\n\n", label, truncate(out.Output, a.contextChars))
		}
	}

	sb.WriteString("\nCurrent Task: ")
	sb.WriteString(strings.TrimSpace(description))
	sb.WriteString("\n")
	if expected := strings.TrimSpace(in.Task.ExpectedOutput); expected != "" {
		sb.WriteString("\nThis is the expected criteria for your final answer: ")
		sb.WriteString(expected)
		sb.WriteString("\n")
	}

	if len(steps) > 0 {
		sb.WriteString("\nYour work so far:\n")
		for _, s := range steps {
			fmt.Fprintf(&sb, "> %s\nObservation: %s\n", strings.TrimSpace(s.command), truncate(s.observation, a.contextChars))
		}
	}

	if final {
		sb.WriteString("\nYou must give your final answer now. Do not call any tool or co-worker.\n")
	} else {
		sb.WriteString("\nReply with a single command, or with your complete final answer and nothing else.\n")
	}
	return sb.String()
}

func (a *Agent) renderTools() string {
	if len(a.tools) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Available tools:\n")
	for _, t := range a.tools {
		spec := t.Spec()
		fmt.Fprintf(&sb, "- %s: %s\n", spec.Name, spec.Description)
		if len(spec.InputSchema) > 0 {
			if schemaJSON, err := json.Marshal(spec.InputSchema); err == nil {
				sb.WriteString("  Input schema: ")
				sb.Write(schemaJSON)
				sb.WriteString("\n")
			}
		}
	}
	sb.WriteString("Invoke a tool with: `tool:<name> <input or json arguments>`\n")
	return sb.String()
}

func (a *Agent) renderCoworkers() string {
	if a.team == nil {
		return ""
	}
	var sb strings.Builder
	for _, other := range a.team.members {
		if other == a {
			continue
		}
		fmt.Fprintf(&sb, "- %s: %s\n", other.spec.Role, strings.TrimSpace(other.spec.Goal))
	}
	if sb.Len() == 0 {
		return ""
	}
	return "Co-workers you can delegate to:\n" + sb.String() + "Delegate with: `delegate:<role> | <what they should do>`\n"
}

func (a *Agent) renderMemory() string {
	if a.memory == nil {
		return ""
	}
	records := a.memory.RetrieveContext(a.sessionID, memoryRecall)
	if len(records) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, rec := range records {
		fmt.Fprintf(&sb, "%d. [%s] %s\n", i+1, rec.Role, strings.ReplaceAll(truncate(rec.Content, 800), "`", "'"))
	}
	return sb.String()
}
