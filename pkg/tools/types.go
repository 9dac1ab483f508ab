package tools

import (
	"context"
	"fmt"
	"strings"
)

// ToolSpec describes how an agent should present a tool to the model.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
	// Argument is the key a bare `tool:<name> <input>` reply is bound to.
	Argument string `json:"argument"`
}

// ToolRequest captures an invocation request for a tool.
type ToolRequest struct {
	SessionID string
	Arguments map[string]any
}

// ToolResponse represents the structured response returned by a tool.
type ToolResponse struct {
	Content  string
	Metadata map[string]string
}

// Tool exposes structured metadata and an invocation handler.
type Tool interface {
	Spec() ToolSpec
	Invoke(ctx context.Context, req ToolRequest) (ToolResponse, error)
}

// Ref names one of the capabilities an agent or task may be granted.
type Ref int

const (
	WebScrape Ref = iota + 1
	WebSearch
	FileRead
)

func (r Ref) String() string {
	switch r {
	case WebScrape:
		return "scrape_website"
	case WebSearch:
		return "web_search"
	case FileRead:
		return "read_file"
	default:
		return fmt.Sprintf("tool(%d)", int(r))
	}
}

// ParseRef resolves a tool name as printed by Ref.String.
func ParseRef(name string) (Ref, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "scrape_website", "scrape":
		return WebScrape, nil
	case "web_search", "search":
		return WebSearch, nil
	case "read_file", "file_read":
		return FileRead, nil
	}
	return 0, fmt.Errorf("unknown tool %q", name)
}

// Contains reports whether ref is in refs.
func Contains(refs []Ref, ref Ref) bool {
	for _, r := range refs {
		if r == ref {
			return true
		}
	}
	return false
}

// Names renders refs as a comma separated list.
func Names(refs []Ref) string {
	if len(refs) == 0 {
		return "<none>"
	}
	names := make([]string, len(refs))
	for i, r := range refs {
		names[i] = r.String()
	}
	return strings.Join(names, ", ")
}

// Request builds a ToolRequest binding input to the ToolSpec's Argument key.
func Request(spec ToolSpec, sessionID, input string) ToolRequest {
	key := spec.Argument
	if key == "" {
		key = "input"
	}
	return ToolRequest{
		SessionID: sessionID,
		Arguments: map[string]any{key: strings.TrimSpace(input)},
	}
}

func stringArg(req ToolRequest, keys ...string) string {
	for _, key := range append(keys, "input") {
		if v, ok := req.Arguments[key]; ok && v != nil {
			if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
				return s
			}
		}
	}
	return ""
}

func objectSchema(key, description string) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			key: map[string]any{
				"type":        "string",
				"description": description,
			},
		},
		"required": []string{key},
	}
}
