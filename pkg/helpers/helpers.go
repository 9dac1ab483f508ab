package helpers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Protocol-Lattice/funeral-research/pkg/crew"
)

// ParseInputs turns repeated key=value flags into kickoff inputs. Keys are
// kept as written; later pairs win.
func ParseInputs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	inputs := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("input %q: want key=value", pair)
		}
		inputs[key] = strings.TrimSpace(value)
	}
	return inputs, nil
}

// ParseSeries parses a comma separated list of numbers.
func ParseSeries(raw string) ([]float64, error) {
	parts := ParseCSVList(raw)
	if len(parts) == 0 {
		return nil, nil
	}
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("series value %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func AgentNames(agents []*crew.AgentSpec) string {
	names := make([]string, 0, len(agents))
	for _, a := range agents {
		if a != nil {
			names = append(names, a.Role)
		}
	}
	if len(names) == 0 {
		return "<none>"
	}
	return strings.Join(names, ", ")
}

func ParseCSVList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
