// Package config builds the run configuration once at process start. Nothing
// outside this package reads the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// InsurersListURL is the Prudential Authority list of registered insurers.
const InsurersListURL = "https://www.resbank.co.za/en/home/what-we-do/Prudentialregulation/insurers-list"

// CacheConfig controls the model response cache. Size 0 disables it.
type CacheConfig struct {
	Size int           `yaml:"size"`
	TTL  time.Duration `yaml:"ttl"`
	Path string        `yaml:"path"`
}

// JournalConfig selects where the ordered task log is persisted.
type JournalConfig struct {
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// Config is the explicit run configuration passed to every component.
type Config struct {
	Provider      string        `yaml:"provider"`
	Model         string        `yaml:"model"`
	OutputDir     string        `yaml:"output_dir"`
	ReportFile    string        `yaml:"report_file"`
	ChartFile     string        `yaml:"chart_file"`
	InsurersURL   string        `yaml:"insurers_url"`
	Scraper       string        `yaml:"scraper"`
	HTTPTimeout   time.Duration `yaml:"http_timeout"`
	SearchResults int           `yaml:"search_results"`
	MaxIterations int           `yaml:"max_iterations"`
	Verbose       bool          `yaml:"verbose"`

	Cache   CacheConfig   `yaml:"cache"`
	Journal JournalConfig `yaml:"journal"`
}

// Default returns the configuration used when no file or overrides are given.
func Default() Config {
	return Config{
		Provider:      "openai",
		Model:         "gpt-4o-mini",
		OutputDir:     ".",
		ReportFile:    "funeral_products_report.md",
		ChartFile:     "visualization.png",
		InsurersURL:   InsurersListURL,
		Scraper:       "http",
		HTTPTimeout:   30 * time.Second,
		SearchResults: 10,
		MaxIterations: 5,
		Verbose:       true,
		Cache:         CacheConfig{TTL: 300 * time.Second},
		Journal:       JournalConfig{Driver: "memory"},
	}
}

// Load starts from Default, overlays the YAML file at path (skipped when path
// is empty or the file does not exist), applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Provider, "CREW_PROVIDER")
	setString(&c.Model, "CREW_MODEL")
	setString(&c.OutputDir, "CREW_OUTPUT_DIR")
	setString(&c.Scraper, "CREW_SCRAPER")
	setString(&c.Journal.Driver, "CREW_JOURNAL_DRIVER")
	setString(&c.Journal.DSN, "CREW_JOURNAL_DSN")
	setString(&c.Journal.User, "CREW_JOURNAL_USER")
	setString(&c.Journal.Password, "CREW_JOURNAL_PASSWORD")
	setString(&c.Cache.Path, "AGENT_LLM_CACHE_PATH")

	if raw := strings.TrimSpace(os.Getenv("AGENT_LLM_CACHE_SIZE")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("AGENT_LLM_CACHE_SIZE: %w", err)
		}
		c.Cache.Size = size
	}
	if raw := strings.TrimSpace(os.Getenv("AGENT_LLM_CACHE_TTL")); raw != "" {
		sec, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("AGENT_LLM_CACHE_TTL: %w", err)
		}
		c.Cache.TTL = time.Duration(sec) * time.Second
	}
	if c.Cache.Size > 0 && c.Cache.Path == "" {
		c.Cache.Path = ".agent_cache.json"
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Provider) == "" {
		return errors.New("config: provider is required")
	}
	if strings.TrimSpace(c.ReportFile) == "" || strings.TrimSpace(c.ChartFile) == "" {
		return errors.New("config: report_file and chart_file are required")
	}
	if strings.TrimSpace(c.InsurersURL) == "" {
		return errors.New("config: insurers_url is required")
	}
	switch c.Scraper {
	case "http", "browser":
	default:
		return fmt.Errorf("config: unknown scraper %q", c.Scraper)
	}
	if c.MaxIterations <= 0 {
		return errors.New("config: max_iterations must be positive")
	}
	if c.HTTPTimeout <= 0 {
		return errors.New("config: http_timeout must be positive")
	}
	if c.Cache.Size < 0 {
		return errors.New("config: cache size must not be negative")
	}
	return nil
}

// ReportPath is the report file joined with the output directory.
func (c *Config) ReportPath() string { return filepath.Join(c.OutputDir, c.ReportFile) }

// ChartPath is the chart file joined with the output directory.
func (c *Config) ChartPath() string { return filepath.Join(c.OutputDir, c.ChartFile) }
