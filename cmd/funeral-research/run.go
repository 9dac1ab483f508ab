package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Protocol-Lattice/funeral-research/pkg/agent"
	"github.com/Protocol-Lattice/funeral-research/pkg/cache"
	"github.com/Protocol-Lattice/funeral-research/pkg/config"
	"github.com/Protocol-Lattice/funeral-research/pkg/crew"
	"github.com/Protocol-Lattice/funeral-research/pkg/helpers"
	"github.com/Protocol-Lattice/funeral-research/pkg/journal"
	"github.com/Protocol-Lattice/funeral-research/pkg/models"
	"github.com/Protocol-Lattice/funeral-research/pkg/report"
	"github.com/Protocol-Lattice/funeral-research/pkg/research"
	"github.com/Protocol-Lattice/funeral-research/pkg/tools"
)

type runOptions struct {
	provider      string
	model         string
	outputDir     string
	url           string
	scraper       string
	journalDriver string
	journalDSN    string
	maxIterations int
	timeout       time.Duration
	quiet         bool
	inputs        []string
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the research crew and write the report and chart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(root, cmd, opts)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if opts.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, opts.timeout)
				defer cancel()
			}
			inputs, err := helpers.ParseInputs(opts.inputs)
			if err != nil {
				return err
			}
			return runPipeline(ctx, cfg, inputs, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.provider, "provider", "", "model provider: openai, anthropic, gemini, ollama, dummy")
	f.StringVar(&opts.model, "model", "", "model name")
	f.StringVar(&opts.outputDir, "output-dir", "", "directory for the report and chart")
	f.StringVar(&opts.url, "url", "", "insurers list to scrape")
	f.StringVar(&opts.scraper, "scraper", "", "scrape backend: http or browser")
	f.StringVar(&opts.journalDriver, "journal", "", "run journal: memory, sqlite, postgres, mongo, neo4j")
	f.StringVar(&opts.journalDSN, "journal-dsn", "", "journal connection string or file")
	f.IntVar(&opts.maxIterations, "max-iterations", 0, "tool calls an agent may make per task")
	f.DurationVar(&opts.timeout, "timeout", 0, "abort the whole run after this long")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress agent progress logs")
	f.StringArrayVar(&opts.inputs, "input", nil, "extra kickoff input as key=value (repeatable)")
	return cmd
}

// loadConfig reads .env and the config file, then applies the flags the user
// actually set.
func loadConfig(root *rootOptions, cmd *cobra.Command, opts *runOptions) (*config.Config, error) {
	if err := config.LoadDotEnv(root.envFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load(root.configPath)
	if err != nil {
		return nil, err
	}
	if opts == nil {
		return cfg, nil
	}

	flags := cmd.Flags()
	set := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	set("provider", &cfg.Provider, opts.provider)
	set("model", &cfg.Model, opts.model)
	set("output-dir", &cfg.OutputDir, opts.outputDir)
	set("url", &cfg.InsurersURL, opts.url)
	set("scraper", &cfg.Scraper, opts.scraper)
	set("journal", &cfg.Journal.Driver, opts.journalDriver)
	set("journal-dsn", &cfg.Journal.DSN, opts.journalDSN)
	if flags.Changed("max-iterations") {
		cfg.MaxIterations = opts.maxIterations
	}
	if flags.Changed("quiet") {
		cfg.Verbose = !opts.quiet
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runPipeline(ctx context.Context, cfg *config.Config, extra map[string]string, stdout, stderr io.Writer) error {
	// Secrets first: a missing key must stop the run before anything touches the network.
	creds, err := config.LoadCredentials(cfg.Provider)
	if err != nil {
		return err
	}

	var logger *log.Logger
	if cfg.Verbose {
		logger = log.New(stderr, "[crew] ", log.LstdFlags)
	}

	catalog, closeTools, err := tools.NewToolset(tools.Options{
		SearchAPIKey:  creds.SearchAPIKey,
		SearchResults: cfg.SearchResults,
		Timeout:       cfg.HTTPTimeout,
		Scraper:       cfg.Scraper,
		FileRoot:      cfg.OutputDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := closeTools(); err != nil {
			log.Printf("close tools: %v", err)
		}
	}()

	model, err := models.NewLLMProvider(ctx, cfg.Provider, cfg.Model, creds.ModelAPIKey)
	if err != nil {
		return fmt.Errorf("model provider: %w", err)
	}
	if closer, ok := model.(io.Closer); ok {
		defer closer.Close()
	}
	if cfg.Cache.Size > 0 {
		model = models.NewCachedLLM(model, cache.New(cfg.Cache.Size, cfg.Cache.TTL), cfg.Cache.Path)
	}

	c := research.Build()
	team, err := agent.NewTeam(c, model, catalog, agent.Options{
		MaxIterations: cfg.MaxIterations,
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	if logger != nil {
		for _, m := range team.Members() {
			logger.Printf("agent %s: session %s, tools %s", m.Role(), m.SessionID(), tools.Names(m.Spec().Tools))
		}
	}

	j, err := journal.Open(ctx, cfg.Journal)
	if err != nil {
		return err
	}
	defer func() {
		if err := j.Close(context.Background()); err != nil {
			log.Printf("close journal: %v", err)
		}
	}()

	exec := crew.NewSequential(team, catalog)
	exec.Journal = j
	exec.Logger = logger
	if cfg.Verbose {
		step := color.New(color.FgHiBlack)
		exec.OnTaskStart = func(i int, task crew.TaskSpec) {
			who := "tools"
			if task.Agent != nil {
				who = task.Agent.Role
			}
			step.Fprintf(stderr, "[%d/%d] %s (%s)\n", i+1, len(c.Tasks), task.ID, who)
		}
	}

	inputs := research.Inputs(cfg.InsurersURL)
	for k, v := range extra {
		inputs[k] = v
	}

	result, err := exec.Run(ctx, c, inputs)
	if err != nil {
		return err
	}

	formatted := report.FormatResult(result.Final)
	if err := report.PrettyPrint(stdout, formatted); err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return &report.FileWriteError{Path: cfg.OutputDir, Err: err}
	}
	if err := report.SaveReport(formatted, cfg.ReportPath()); err != nil {
		return err
	}
	if err := report.RenderChart(report.PlaceholderSeries(), cfg.ChartPath()); err != nil {
		return err
	}
	if logger != nil {
		logger.Printf("run %s: report %s, chart %s", result.RunID, cfg.ReportPath(), cfg.ChartPath())
	}
	return nil
}
