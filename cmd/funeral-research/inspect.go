package main

import (
	"fmt"
	"maps"
	"slices"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Protocol-Lattice/funeral-research/pkg/config"
	"github.com/Protocol-Lattice/funeral-research/pkg/crew"
	"github.com/Protocol-Lattice/funeral-research/pkg/helpers"
	"github.com/Protocol-Lattice/funeral-research/pkg/report"
	"github.com/Protocol-Lattice/funeral-research/pkg/research"
	"github.com/Protocol-Lattice/funeral-research/pkg/tools"
)

func newAgentsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List the crew members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := loadConfig(root, cmd, nil); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			title := color.New(color.FgCyan, color.Bold)
			for _, a := range research.Build().Agents {
				title.Fprintln(out, a.Role)
				fmt.Fprintf(out, "  goal:       %s\n", a.Goal)
				fmt.Fprintf(out, "  tools:      %s\n", tools.Names(a.Tools))
				fmt.Fprintf(out, "  delegation: %t\n", a.AllowDelegation)
			}
			return nil
		},
	}
}

func newTasksCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List the tasks in execution order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(root, cmd, nil)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			inputs := research.Inputs(cfg.InsurersURL)
			for i, t := range research.Build().Tasks {
				who := "standalone tools"
				if t.Agent != nil {
					who = t.Agent.Role
				}
				fmt.Fprintf(out, "%d. %s [%s; tools: %s]\n   %s\n", i+1, t.ID, who, tools.Names(t.Tools), t.Description)
				for _, k := range slices.Sorted(maps.Keys(t.InputData)) {
					fmt.Fprintf(out, "   %s = %s\n", k, crew.Interpolate(t.InputData[k], inputs))
				}
			}
			return nil
		},
	}
}

func newValidateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and the crew wiring without running anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(root, cmd, nil)
			if err != nil {
				return err
			}
			c := research.Build()
			if err := c.Validate(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "crew ok: %d agents (%s), %d tasks\n", len(c.Agents), helpers.AgentNames(c.Agents), len(c.Tasks))

			if _, err := config.LoadCredentials(cfg.Provider); err != nil {
				color.New(color.FgYellow).Fprintf(cmd.OutOrStdout(), "warning: %v; run will fail\n", err)
			}
			return nil
		},
	}
}

func newToolsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools available to the crew",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(root, cmd, nil)
			if err != nil {
				return err
			}
			catalog, closeTools, err := newCatalog(cfg, "", "http")
			if err != nil {
				return err
			}
			defer closeTools()

			out := cmd.OutOrStdout()
			for _, spec := range catalog.Specs() {
				fmt.Fprintf(out, "%-16s %s\n", spec.Name, spec.Description)
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, "UTCP names:")
			for _, t := range catalog.UTCPTools(utcpProvider) {
				fmt.Fprintf(out, "  %s\n", t.Name)
			}
			return nil
		},
	}
	cmd.AddCommand(newToolCallCmd(root))
	return cmd
}

func newToolCallCmd(root *rootOptions) *cobra.Command {
	var pairs []string
	cmd := &cobra.Command{
		Use:   "call <tool> [input]",
		Short: "Invoke a single tool through the UTCP client",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root, cmd, nil)
			if err != nil {
				return err
			}
			ref, err := tools.ParseRef(args[0])
			if err != nil {
				return err
			}
			// The search key is optional here; web_search reports it missing on use.
			searchKey, _ := config.GetSecret(config.SerperAPIKey)
			catalog, closeTools, err := newCatalog(cfg, searchKey, cfg.Scraper)
			if err != nil {
				return err
			}
			defer closeTools()

			tool, ok := catalog.Get(ref)
			if !ok {
				return &tools.ToolUnavailableError{Tool: ref.String(), Err: fmt.Errorf("not registered")}
			}
			arguments := map[string]any{}
			if len(args) == 2 {
				arguments = tools.Request(tool.Spec(), utcpProvider, args[1]).Arguments
			}
			extra, err := helpers.ParseInputs(pairs)
			if err != nil {
				return err
			}
			for k, v := range extra {
				arguments[k] = v
			}

			client, err := catalog.NewUTCPClient(cmd.Context(), utcpProvider)
			if err != nil {
				return err
			}
			res, err := client.CallTool(cmd.Context(), utcpProvider+"."+tool.Spec().Name, arguments)
			if err != nil {
				return fmt.Errorf("%s: %w", tool.Spec().Name, err)
			}
			if m, ok := res.(map[string]interface{}); ok {
				fmt.Fprintln(cmd.OutOrStdout(), m["content"])
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&pairs, "arg", nil, "tool argument as key=value (repeatable)")
	return cmd
}

const utcpProvider = "crew"

func newCatalog(cfg *config.Config, searchKey, scraper string) (*tools.Catalog, func() error, error) {
	return tools.NewToolset(tools.Options{
		SearchAPIKey:  searchKey,
		SearchResults: cfg.SearchResults,
		Timeout:       cfg.HTTPTimeout,
		Scraper:       scraper,
		FileRoot:      cfg.OutputDir,
	})
}

func newChartCmd(root *rootOptions) *cobra.Command {
	var (
		series string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Render the chart on its own",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(root, cmd, nil)
			if err != nil {
				return err
			}
			values, err := helpers.ParseSeries(series)
			if err != nil {
				return err
			}
			if values == nil {
				values = report.PlaceholderSeries()
			}
			if out == "" {
				out = cfg.ChartPath()
			}
			if err := report.RenderChart(values, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "chart written to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&series, "series", "", "comma separated values (default 1,2,3,4,5)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default from config)")
	return cmd
}
