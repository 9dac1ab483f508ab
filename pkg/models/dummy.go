package models

import (
	"context"
	"strings"
)

const (
	taskMarker     = "Current Task:"
	criteriaMarker = "This is the expected criteria for your final answer:"
)

// DummyLLM answers offline. It restates the task and the expected criteria
// found in an agent prompt, so a run without a provider still yields a report
// that traces every step. Prompts without a task line get their last
// non-empty line echoed.
type DummyLLM struct {
	Prefix string
}

func NewDummyLLM(prefix string) *DummyLLM {
	if strings.TrimSpace(prefix) == "" {
		prefix = "Dummy response:"
	}
	return &DummyLLM{Prefix: prefix}
}

func (d *DummyLLM) Generate(_ context.Context, prompt string) (any, error) {
	var task, criteria, last string
	for _, line := range strings.Split(prompt, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		last = line
		if rest, ok := strings.CutPrefix(line, taskMarker); ok {
			task = strings.TrimSpace(rest)
		} else if rest, ok := strings.CutPrefix(line, criteriaMarker); ok {
			criteria = strings.TrimSpace(rest)
		}
	}

	switch {
	case task != "" && criteria != "":
		return d.Prefix + " " + task + "\nDelivers: " + criteria, nil
	case task != "":
		return d.Prefix + " " + task, nil
	case last != "":
		return d.Prefix + " " + last, nil
	default:
		return d.Prefix + " <empty prompt>", nil
	}
}

var _ Agent = (*DummyLLM)(nil)
