package tools

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/universal-tool-calling-protocol/go-utcp/src/providers/base"
	utcptools "github.com/universal-tool-calling-protocol/go-utcp/src/tools"
)

// Catalog holds the process-wide tool instances, keyed by Ref.
type Catalog struct {
	mu    sync.RWMutex
	tools map[Ref]Tool
	names map[string]Ref
	order []Ref
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		tools: make(map[Ref]Tool),
		names: make(map[string]Ref),
	}
}

// Register adds a tool under ref. Duplicate refs or names return an error.
func (c *Catalog) Register(ref Ref, tool Tool) error {
	if tool == nil {
		return fmt.Errorf("tool %s is nil", ref)
	}
	key := strings.ToLower(strings.TrimSpace(tool.Spec().Name))
	if key == "" {
		return fmt.Errorf("tool %s has an empty name", ref)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.tools[ref]; exists {
		return fmt.Errorf("tool %s already registered", ref)
	}
	if _, exists := c.names[key]; exists {
		return fmt.Errorf("tool name %s already registered", key)
	}
	c.tools[ref] = tool
	c.names[key] = ref
	c.order = append(c.order, ref)
	return nil
}

// Get returns the tool registered for ref.
func (c *Catalog) Get(ref Ref) (Tool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tools[ref]
	return t, ok
}

// Lookup resolves a tool by its advertised name, case-insensitively.
func (c *Catalog) Lookup(name string) (Ref, Tool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ref, ok := c.names[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, nil, false
	}
	return ref, c.tools[ref], true
}

// Refs returns the registered refs in registration order.
func (c *Catalog) Refs() []Ref {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Ref(nil), c.order...)
}

// Specs returns the tool specifications in registration order.
func (c *Catalog) Specs() []ToolSpec {
	c.mu.RLock()
	defer c.mu.RUnlock()
	specs := make([]ToolSpec, 0, len(c.order))
	for _, ref := range c.order {
		specs = append(specs, c.tools[ref].Spec())
	}
	return specs
}

// Subset resolves refs to tool instances, preserving order. An unregistered
// ref yields a *ToolUnavailableError.
func (c *Catalog) Subset(refs []Ref) ([]Tool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Tool, 0, len(refs))
	for _, ref := range refs {
		t, ok := c.tools[ref]
		if !ok {
			return nil, &ToolUnavailableError{Tool: ref.String(), Err: fmt.Errorf("not registered")}
		}
		out = append(out, t)
	}
	return out, nil
}

// UTCPTools exports every registered tool as a UTCP tool with an in-process
// handler. RegisterUTCPProvider mounts the same set on a UTCP client.
func (c *Catalog) UTCPTools(providerName string) []utcptools.Tool {
	if strings.TrimSpace(providerName) == "" {
		providerName = "crew"
	}
	refs := c.Refs()
	out := make([]utcptools.Tool, 0, len(refs))
	for _, ref := range refs {
		tool, ok := c.Get(ref)
		if !ok {
			continue
		}
		spec := tool.Spec()
		props, _ := spec.InputSchema["properties"].(map[string]any)
		required, _ := spec.InputSchema["required"].([]string)
		out = append(out, utcptools.Tool{
			Name:        providerName + "." + spec.Name,
			Description: spec.Description,
			Provider: &base.BaseProvider{
				Name:         providerName,
				ProviderType: base.ProviderCLI,
			},
			Inputs: utcptools.ToolInputOutputSchema{
				Type:       "object",
				Properties: props,
				Required:   required,
			},
			Outputs: utcptools.ToolInputOutputSchema{
				Type: "object",
				Properties: map[string]any{
					"content": map[string]any{"type": "string"},
				},
			},
			Handler: utcptools.ToolHandler(func(_ map[string]interface{}, inputs map[string]interface{}) (map[string]interface{}, error) {
				return invokeUTCP(context.Background(), tool, providerName, inputs)
			}),
		})
	}
	return out
}
