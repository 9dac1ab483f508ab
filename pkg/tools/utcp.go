package tools

import (
	"context"
	"fmt"
	"strings"

	utcp "github.com/universal-tool-calling-protocol/go-utcp"
	"github.com/universal-tool-calling-protocol/go-utcp/src/providers/base"
	"github.com/universal-tool-calling-protocol/go-utcp/src/providers/cli"
	"github.com/universal-tool-calling-protocol/go-utcp/src/repository"
	utcptools "github.com/universal-tool-calling-protocol/go-utcp/src/tools"
	"github.com/universal-tool-calling-protocol/go-utcp/src/transports"
)

// catalogTransport routes CLI-provider calls for mounted catalogs to the
// in-process tools and forwards everything else to the transport it replaced.
type catalogTransport struct {
	inner    repository.ClientTransport
	catalogs map[string]*Catalog
}

func (t *catalogTransport) RegisterToolProvider(ctx context.Context, prov base.Provider) ([]utcptools.Tool, error) {
	if p, ok := prov.(*cli.CliProvider); ok {
		if c, ok := t.catalogs[p.Name]; ok {
			return c.UTCPTools(p.Name), nil
		}
	}
	if t.inner != nil {
		return t.inner.RegisterToolProvider(ctx, prov)
	}
	return nil, fmt.Errorf("unsupported provider type %T", prov)
}

func (t *catalogTransport) DeregisterToolProvider(ctx context.Context, prov base.Provider) error {
	if p, ok := prov.(*cli.CliProvider); ok {
		if _, ok := t.catalogs[p.Name]; ok {
			delete(t.catalogs, p.Name)
			return nil
		}
	}
	if t.inner != nil {
		return t.inner.DeregisterToolProvider(ctx, prov)
	}
	return nil
}

func (t *catalogTransport) CallTool(ctx context.Context, toolName string, args map[string]any, prov base.Provider, l *string) (any, error) {
	if p, ok := prov.(*cli.CliProvider); ok {
		if c, ok := t.catalogs[p.Name]; ok {
			name := strings.TrimPrefix(toolName, p.Name+".")
			_, tool, found := c.Lookup(name)
			if !found {
				return nil, &ToolUnavailableError{Tool: toolName, Err: fmt.Errorf("not registered with provider %s", p.Name)}
			}
			return invokeUTCP(ctx, tool, p.Name, args)
		}
	}
	if t.inner != nil {
		return t.inner.CallTool(ctx, toolName, args, prov, l)
	}
	return nil, fmt.Errorf("unsupported provider type %T", prov)
}

func (t *catalogTransport) CallToolStream(ctx context.Context, toolName string, args map[string]any, prov base.Provider) (transports.StreamResult, error) {
	if p, ok := prov.(*cli.CliProvider); ok {
		if _, ok := t.catalogs[p.Name]; ok {
			return nil, fmt.Errorf("streaming not supported for tool %s", toolName)
		}
	}
	if t.inner != nil {
		return t.inner.CallToolStream(ctx, toolName, args, prov)
	}
	return nil, fmt.Errorf("unsupported provider type %T", prov)
}

// RegisterUTCPProvider mounts the catalog on client under providerName, so
// every tool is callable as "<providerName>.<tool>". The client's CLI
// transport is wrapped; other CLI providers keep working.
func (c *Catalog) RegisterUTCPProvider(ctx context.Context, client utcp.UtcpClientInterface, providerName string) error {
	if client == nil {
		return fmt.Errorf("utcp client is nil")
	}
	providerName = strings.TrimSpace(providerName)
	if providerName == "" {
		providerName = "crew"
	}
	if strings.Contains(providerName, ".") {
		return fmt.Errorf("utcp provider name %q must not contain '.'", providerName)
	}

	transportsMap := client.GetTransports()
	if transportsMap == nil {
		return fmt.Errorf("utcp client transports map is nil")
	}
	key := string(base.ProviderCLI)
	shim, ok := transportsMap[key].(*catalogTransport)
	if !ok {
		shim = &catalogTransport{inner: transportsMap[key], catalogs: make(map[string]*Catalog)}
		transportsMap[key] = shim
	}
	shim.catalogs[providerName] = c

	_, err := client.RegisterToolProvider(ctx, &cli.CliProvider{
		BaseProvider: base.BaseProvider{
			Name:         providerName,
			ProviderType: base.ProviderCLI,
		},
	})
	return err
}

// NewUTCPClient returns a UTCP client with the catalog mounted under
// providerName.
func (c *Catalog) NewUTCPClient(ctx context.Context, providerName string) (utcp.UtcpClientInterface, error) {
	client, err := utcp.NewUTCPClient(ctx, nil, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("utcp client: %w", err)
	}
	if err := c.RegisterUTCPProvider(ctx, client, providerName); err != nil {
		return nil, err
	}
	return client, nil
}

func invokeUTCP(ctx context.Context, tool Tool, sessionID string, inputs map[string]interface{}) (map[string]interface{}, error) {
	resp, err := tool.Invoke(ctx, ToolRequest{SessionID: sessionID, Arguments: inputs})
	if err != nil {
		return nil, err
	}
	out := map[string]interface{}{"content": resp.Content}
	if len(resp.Metadata) > 0 {
		meta := make(map[string]interface{}, len(resp.Metadata))
		for k, v := range resp.Metadata {
			meta[k] = v
		}
		out["metadata"] = meta
	}
	return out, nil
}
