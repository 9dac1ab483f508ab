package crew

import (
	"fmt"
	"strings"

	"github.com/Protocol-Lattice/funeral-research/pkg/tools"
)

// Validate checks the wiring the executor relies on:
//   - role names are present and unique
//   - task IDs are present and unique
//   - an assigned agent belongs to the crew and owns every tool the task uses
//   - an agentless task has tools and input data to run them with
func (c Crew) Validate() error {
	var problems []string

	if len(c.Tasks) == 0 {
		problems = append(problems, "no tasks configured")
	}

	members := make(map[*AgentSpec]bool, len(c.Agents))
	roles := make(map[string]bool, len(c.Agents))
	for i, a := range c.Agents {
		if a == nil {
			problems = append(problems, fmt.Sprintf("agent %d is nil", i))
			continue
		}
		role := strings.ToLower(strings.TrimSpace(a.Role))
		switch {
		case role == "":
			problems = append(problems, fmt.Sprintf("agent %d has no role", i))
		case roles[role]:
			problems = append(problems, fmt.Sprintf("duplicate role %q", a.Role))
		}
		roles[role] = true
		members[a] = true
	}

	ids := make(map[string]bool, len(c.Tasks))
	for i, t := range c.Tasks {
		id := strings.TrimSpace(t.ID)
		switch {
		case id == "":
			problems = append(problems, fmt.Sprintf("task %d has no id", i))
		case ids[id]:
			problems = append(problems, fmt.Sprintf("duplicate task id %q", id))
		}
		ids[id] = true

		if strings.TrimSpace(t.Description) == "" {
			problems = append(problems, fmt.Sprintf("task %s has no description", t.ID))
		}

		if t.Agent == nil {
			if len(t.Tools) == 0 {
				problems = append(problems, fmt.Sprintf("task %s has neither agent nor tools", t.ID))
			}
			if len(t.InputData) == 0 {
				problems = append(problems, fmt.Sprintf("task %s has no agent and no input data", t.ID))
			}
			continue
		}
		if !members[t.Agent] {
			problems = append(problems, fmt.Sprintf("task %s is assigned to %q which is not in the crew", t.ID, t.Agent.Role))
		}
		for _, ref := range t.Tools {
			if !tools.Contains(t.Agent.Tools, ref) {
				problems = append(problems, fmt.Sprintf("task %s uses %s which %q is not allowed", t.ID, ref, t.Agent.Role))
			}
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// Agent returns the crew member with role, case-insensitively.
func (c Crew) Agent(role string) (*AgentSpec, bool) {
	key := strings.ToLower(strings.TrimSpace(role))
	for _, a := range c.Agents {
		if a != nil && strings.ToLower(strings.TrimSpace(a.Role)) == key {
			return a, true
		}
	}
	return nil, false
}
