package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Protocol-Lattice/funeral-research/pkg/config"
)

// isolate clears every variable the CLI reads so the host environment and
// any local .env cannot leak into a test.
func isolate(t *testing.T) string {
	t.Helper()
	for _, key := range []string{
		config.SerperAPIKey, config.OpenAIAPIKey, config.AnthropicAPIKey, config.GoogleAPIKey, config.GeminiAPIKey,
		"CREW_PROVIDER", "CREW_MODEL", "CREW_OUTPUT_DIR", "CREW_SCRAPER",
		"CREW_JOURNAL_DRIVER", "CREW_JOURNAL_DSN", "CREW_JOURNAL_USER", "CREW_JOURNAL_PASSWORD",
		"AGENT_LLM_CACHE_SIZE", "AGENT_LLM_CACHE_TTL", "AGENT_LLM_CACHE_PATH",
	} {
		t.Setenv(key, "")
	}
	return t.TempDir()
}

func execute(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	base := []string{"--env-file", filepath.Join(dir, "missing.env"), "--config", filepath.Join(dir, "missing.yaml")}
	cmd.SetArgs(append(append([]string(nil), args...), base...))
	err := cmd.Execute()
	return out.String(), err
}

func countingServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><ul><li>Sanlam Life</li><li>Old Mutual</li></ul></body></html>"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunWithoutCredentialsWritesNothing(t *testing.T) {
	cases := []struct {
		name      string
		serperKey string
		provider  string
		missing   string
	}{
		{name: "search key", provider: "dummy", missing: config.SerperAPIKey},
		{name: "model key", serperKey: "test-key", provider: "openai", missing: config.OpenAIAPIKey},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := isolate(t)
			t.Setenv(config.SerperAPIKey, tc.serperKey)

			var hits atomic.Int32
			srv := countingServer(t, &hits)

			outDir := filepath.Join(dir, "out")
			_, err := execute(t, dir, "run", "--provider", tc.provider, "--url", srv.URL, "--output-dir", outDir, "--quiet")
			require.Error(t, err)
			var missing *config.MissingCredentialError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, tc.missing, missing.Name)
			assert.Zero(t, hits.Load(), "no request may be made before credentials are checked")

			_, statErr := os.Stat(outDir)
			assert.True(t, os.IsNotExist(statErr), "no output may be written on failure")
		})
	}
}

func TestRunOfflineWithDummyModel(t *testing.T) {
	dir := isolate(t)
	t.Setenv(config.SerperAPIKey, "test-key")

	var hits atomic.Int32
	srv := countingServer(t, &hits)

	outDir := filepath.Join(dir, "out")
	stdout, err := execute(t, dir, "run", "--provider", "dummy", "--url", srv.URL, "--output-dir", outDir, "--quiet")
	require.NoError(t, err)
	assert.EqualValues(t, 1, hits.Load())
	assert.Contains(t, stdout, "Dummy response:")

	reportData, err := os.ReadFile(filepath.Join(outDir, "funeral_products_report.md"))
	require.NoError(t, err)
	assert.Contains(t, string(reportData), "Dummy response: Summarize the refined research findings")

	chart, err := os.ReadFile(filepath.Join(outDir, "visualization.png"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(chart, []byte("\x89PNG")))
}

func TestRunKickoffInputOverridesURL(t *testing.T) {
	dir := isolate(t)
	t.Setenv(config.SerperAPIKey, "test-key")

	var hits atomic.Int32
	srv := countingServer(t, &hits)

	outDir := filepath.Join(dir, "out")
	_, err := execute(t, dir, "run", "--provider", "dummy", "--url", "http://127.0.0.1:1/unused",
		"--input", "url="+srv.URL, "--output-dir", outDir, "--quiet")
	require.NoError(t, err)
	assert.EqualValues(t, 1, hits.Load())
}

func TestRunAbortsWhenScrapeFails(t *testing.T) {
	dir := isolate(t)
	t.Setenv(config.SerperAPIKey, "test-key")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	outDir := filepath.Join(dir, "out")
	_, err := execute(t, dir, "run", "--provider", "dummy", "--url", srv.URL, "--output-dir", outDir, "--quiet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch_companies")

	_, statErr := os.Stat(outDir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestValidateCommand(t *testing.T) {
	dir := isolate(t)
	out, err := execute(t, dir, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "crew ok: 8 agents")
	assert.Contains(t, out, "9 tasks")
	assert.Contains(t, out, "SERPER_API_KEY")
}

func TestTasksCommandListsOrder(t *testing.T) {
	dir := isolate(t)
	out, err := execute(t, dir, "tasks")
	require.NoError(t, err)
	assert.Contains(t, out, "1. fetch_companies [standalone tools; tools: scrape_website]")
	assert.Contains(t, out, "9. write [Writer; tools: <none>]")
	assert.Contains(t, out, "url = "+config.InsurersListURL)
}

func TestToolsCommand(t *testing.T) {
	dir := isolate(t)
	out, err := execute(t, dir, "tools")
	require.NoError(t, err)
	assert.Contains(t, out, "web_search")
	assert.Contains(t, out, "crew.read_file")
}

func TestToolsCallCommand(t *testing.T) {
	dir := isolate(t)
	t.Setenv("CREW_OUTPUT_DIR", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("Hollard funeral plan"), 0o600))

	out, err := execute(t, dir, "tools", "call", "read_file", "notes.md")
	require.NoError(t, err)
	assert.Contains(t, out, "Hollard funeral plan")

	var hits atomic.Int32
	srv := countingServer(t, &hits)
	out, err = execute(t, dir, "tools", "call", "scrape", "--arg", "url="+srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Sanlam Life")
	assert.EqualValues(t, 1, hits.Load())

	_, err = execute(t, dir, "tools", "call", "web_search", "funeral cover")
	assert.Error(t, err, "search without a key must fail")

	_, err = execute(t, dir, "tools", "call", "calculator")
	assert.Error(t, err)
}

func TestChartCommand(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.png")
	out, err := execute(t, dir, "chart", "--series", "3,1,2", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	_, err = execute(t, dir, "chart", "--series", "a,b", "--out", path)
	assert.Error(t, err)
}
