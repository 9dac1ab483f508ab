// Command funeral-research runs the funeral-products research crew: it
// scrapes the regulator's insurers list, walks the research tasks in order
// and writes the final report plus a chart.
package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

type rootOptions struct {
	configPath string
	envFile    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Printf("funeral-research: %v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "funeral-research",
		Short: "Research South African funeral insurance products with a crew of agents",
		Long: `funeral-research runs a fixed crew of role agents over the Prudential
Authority insurers list and writes a markdown report and a chart.

Secrets come from the environment (or a .env file):
  SERPER_API_KEY   web search
  OPENAI_API_KEY   default model provider (ANTHROPIC_API_KEY, GOOGLE_API_KEY for others)`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (optional)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading secrets")

	root.AddCommand(
		newRunCmd(opts),
		newAgentsCmd(opts),
		newTasksCmd(opts),
		newValidateCmd(opts),
		newToolsCmd(opts),
		newChartCmd(opts),
	)
	return root
}
