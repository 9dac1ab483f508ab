package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSecretMissing(t *testing.T) {
	t.Setenv("CREW_TEST_SECRET", "  ")
	_, err := GetSecret("CREW_TEST_SECRET")
	require.Error(t, err)
	assert.True(t, IsMissingCredential(err))

	var missing *MissingCredentialError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "CREW_TEST_SECRET", missing.Name)
}

func TestLoadCredentialsRequiresSearchKey(t *testing.T) {
	t.Setenv(SerperAPIKey, "")
	t.Setenv(OpenAIAPIKey, "sk-test")

	_, err := LoadCredentials("openai")
	var missing *MissingCredentialError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, SerperAPIKey, missing.Name)
}

func TestLoadCredentialsRequiresModelKey(t *testing.T) {
	t.Setenv(SerperAPIKey, "serper")
	t.Setenv(OpenAIAPIKey, "")

	_, err := LoadCredentials("openai")
	var missing *MissingCredentialError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, OpenAIAPIKey, missing.Name)
}

func TestLoadCredentialsGeminiFallback(t *testing.T) {
	t.Setenv(SerperAPIKey, "serper")
	t.Setenv(GoogleAPIKey, "")
	t.Setenv(GeminiAPIKey, "gem")

	creds, err := LoadCredentials("gemini")
	require.NoError(t, err)
	assert.Equal(t, "serper", creds.SearchAPIKey)
	assert.Equal(t, "gem", creds.ModelAPIKey)
}

func TestLoadCredentialsKeylessProvider(t *testing.T) {
	t.Setenv(SerperAPIKey, "serper")
	t.Setenv(OpenAIAPIKey, "")

	creds, err := LoadCredentials("dummy")
	require.NoError(t, err)
	assert.Empty(t, creds.ModelAPIKey)
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CREW_DOTENV_A=fromfile\nCREW_DOTENV_B=fromfile\n"), 0o600))

	t.Setenv("CREW_DOTENV_A", "fromenv")
	t.Setenv("CREW_DOTENV_B", "")
	os.Unsetenv("CREW_DOTENV_B")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "fromenv", os.Getenv("CREW_DOTENV_A"))
	assert.Equal(t, "fromfile", os.Getenv("CREW_DOTENV_B"))
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"CREW_PROVIDER", "CREW_JOURNAL_DRIVER", "CREW_OUTPUT_DIR"} {
		t.Setenv(key, "")
	}
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, InsurersListURL, cfg.InsurersURL)
	assert.Equal(t, filepath.Join(".", "funeral_products_report.md"), cfg.ReportPath())
	assert.Equal(t, "memory", cfg.Journal.Driver)
}

func TestLoadYAMLAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crew.yaml")
	body := `provider: anthropic
model: claude-3-5-haiku-latest
output_dir: out
http_timeout: 5s
max_iterations: 3
journal:
  driver: sqlite
  dsn: runs.db
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("CREW_MODEL", "claude-3-5-sonnet-latest")
	t.Setenv("AGENT_LLM_CACHE_SIZE", "16")
	t.Setenv("AGENT_LLM_CACHE_TTL", "60")
	t.Setenv("AGENT_LLM_CACHE_PATH", "")
	t.Setenv("CREW_PROVIDER", "")
	t.Setenv("CREW_JOURNAL_DRIVER", "")
	t.Setenv("CREW_OUTPUT_DIR", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, "claude-3-5-sonnet-latest", cfg.Model)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 3, cfg.MaxIterations)
	assert.Equal(t, "sqlite", cfg.Journal.Driver)
	assert.Equal(t, 16, cfg.Cache.Size)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, ".agent_cache.json", cfg.Cache.Path)
	assert.Equal(t, filepath.Join("out", "visualization.png"), cfg.ChartPath())
}

func TestValidateRejectsUnknownScraper(t *testing.T) {
	cfg := Default()
	cfg.Scraper = "curl"
	assert.Error(t, cfg.Validate())
}
