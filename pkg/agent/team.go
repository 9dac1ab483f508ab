package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/Protocol-Lattice/funeral-research/pkg/crew"
	"github.com/Protocol-Lattice/funeral-research/pkg/memory"
	"github.com/Protocol-Lattice/funeral-research/pkg/models"
	"github.com/Protocol-Lattice/funeral-research/pkg/tools"
)

// Team holds one Agent per crew member and lets members delegate to each
// other. It implements crew.AgentRunner.
type Team struct {
	members []*Agent
	bySpec  map[*crew.AgentSpec]*Agent
}

var _ crew.AgentRunner = (*Team)(nil)

// NewTeam builds an agent for every member of c, all sharing model. Each
// agent only receives the catalog tools its spec allows.
func NewTeam(c crew.Crew, model models.Agent, catalog *tools.Catalog, opts Options) (*Team, error) {
	if opts.Memory == nil {
		opts.Memory = memory.NewSessionMemory(16)
	}
	team := &Team{
		bySpec: make(map[*crew.AgentSpec]*Agent, len(c.Agents)),
	}
	for _, spec := range c.Agents {
		if spec == nil {
			continue
		}
		var toolset []tools.Tool
		if len(spec.Tools) > 0 {
			if catalog == nil {
				return nil, &tools.ToolUnavailableError{Tool: tools.Names(spec.Tools), Err: fmt.Errorf("no tool catalog for %s", spec.Role)}
			}
			var err error
			if toolset, err = catalog.Subset(spec.Tools); err != nil {
				return nil, fmt.Errorf("agent %s: %w", spec.Role, err)
			}
		}
		a, err := New(spec, model, toolset, opts)
		if err != nil {
			return nil, err
		}
		a.team = team
		team.members = append(team.members, a)
		team.bySpec[spec] = a
	}
	return team, nil
}

// RunTask executes in with the team member built from spec.
func (t *Team) RunTask(ctx context.Context, spec *crew.AgentSpec, in crew.TaskInput) (string, error) {
	a, ok := t.bySpec[spec]
	if !ok && spec != nil {
		a, ok = t.Lookup(spec.Role)
	}
	if !ok {
		role := "<nil>"
		if spec != nil {
			role = spec.Role
		}
		return "", fmt.Errorf("no team member for role %q", role)
	}
	return a.Execute(ctx, in)
}

// Lookup finds a member by role, case-insensitively.
func (t *Team) Lookup(role string) (*Agent, bool) {
	key := strings.ToLower(strings.TrimSpace(role))
	for _, a := range t.members {
		if strings.ToLower(strings.TrimSpace(a.spec.Role)) == key {
			return a, true
		}
	}
	return nil, false
}

// Members returns the agents in crew order.
func (t *Team) Members() []*Agent {
	return append([]*Agent(nil), t.members...)
}

func (t *Team) coworkers(except string) []string {
	names := make([]string, 0, len(t.members))
	for _, a := range t.members {
		if !strings.EqualFold(a.spec.Role, except) {
			names = append(names, a.spec.Role)
		}
	}
	return names
}
