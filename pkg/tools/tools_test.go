package tools

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRefRoundTrip(t *testing.T) {
	for _, ref := range []Ref{WebScrape, WebSearch, FileRead} {
		got, err := ParseRef(ref.String())
		if err != nil {
			t.Fatalf("ParseRef(%q) returned error: %v", ref, err)
		}
		if got != ref {
			t.Fatalf("expected %v, got %v", ref, got)
		}
	}
	if ref, err := ParseRef(" Search "); err != nil || ref != WebSearch {
		t.Fatalf("expected alias to resolve to web_search, got %v (%v)", ref, err)
	}
	if _, err := ParseRef("calculator"); err == nil {
		t.Fatalf("expected error for unknown tool name")
	}
}

func TestExtractTextSkipsScripts(t *testing.T) {
	page := `<html><head><title>x</title><style>p{}</style></head>
<body><h1>Insurers</h1><script>var a = 1;</script><ul><li>Old   Mutual</li><li>Sanlam</li></ul></body></html>`
	text, err := ExtractText(strings.NewReader(page))
	if err != nil {
		t.Fatalf("ExtractText returned error: %v", err)
	}
	if text != "Insurers\nOld Mutual\nSanlam" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestScrapeToolHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body><p>Hollard Life</p></body></html>`))
	}))
	defer srv.Close()

	tool := NewScrapeTool(NewHTTPFetcher(time.Second))
	resp, err := tool.Invoke(context.Background(), Request(tool.Spec(), "s", srv.URL))
	if err != nil {
		t.Fatalf("Invoke returned error: %v", err)
	}
	if resp.Content != "Hollard Life" {
		t.Fatalf("unexpected content: %q", resp.Content)
	}
	if resp.Metadata["url"] != srv.URL {
		t.Fatalf("expected url metadata, got %#v", resp.Metadata)
	}
}

func TestScrapeToolStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	tool := NewScrapeTool(NewHTTPFetcher(time.Second))
	_, err := tool.Invoke(context.Background(), ToolRequest{Arguments: map[string]any{"url": srv.URL}})
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if netErr.Status != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status: %d", netErr.Status)
	}
}

func TestScrapeToolRejectsBadURL(t *testing.T) {
	tool := NewScrapeTool(NewHTTPFetcher(time.Second))
	if _, err := tool.Invoke(context.Background(), ToolRequest{Arguments: map[string]any{"url": "ftp://x"}}); err == nil {
		t.Fatalf("expected error for non-http url")
	}
	if _, err := tool.Invoke(context.Background(), ToolRequest{}); !errors.Is(err, ErrMissingArgument) {
		t.Fatalf("expected ErrMissingArgument, got %v", err)
	}
}

func TestSearchTool(t *testing.T) {
	var gotKey string
	var gotBody serperRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-KEY")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"organic":[{"title":"Funeral cover","link":"https://example.com/a","snippet":"From R50 a month"}]}`))
	}))
	defer srv.Close()

	tool := NewSearchTool("secret", 5, time.Second)
	tool.Endpoint = srv.URL

	resp, err := tool.Invoke(context.Background(), Request(tool.Spec(), "s", "funeral cover pricing"))
	if err != nil {
		t.Fatalf("Invoke returned error: %v", err)
	}
	if gotKey != "secret" {
		t.Fatalf("expected api key header, got %q", gotKey)
	}
	if gotBody.Q != "funeral cover pricing" || gotBody.Num != 5 {
		t.Fatalf("unexpected request body: %#v", gotBody)
	}
	if !strings.Contains(resp.Content, "1. Funeral cover") || !strings.Contains(resp.Content, "From R50 a month") {
		t.Fatalf("unexpected content: %q", resp.Content)
	}
}

func TestSearchToolErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	tool := NewSearchTool("secret", 5, time.Second)
	tool.Endpoint = srv.URL
	_, err := tool.Invoke(context.Background(), ToolRequest{Arguments: map[string]any{"query": "x"}})
	var netErr *NetworkError
	if !errors.As(err, &netErr) || netErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 NetworkError, got %v", err)
	}

	unconfigured := NewSearchTool("", 5, time.Second)
	_, err = unconfigured.Invoke(context.Background(), ToolRequest{Arguments: map[string]any{"query": "x"}})
	var unavailable *ToolUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected ToolUnavailableError, got %v", err)
	}
}

func TestFileReadTool(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("broad research"), 0o600); err != nil {
		t.Fatal(err)
	}
	tool := &FileReadTool{Root: dir}

	resp, err := tool.Invoke(context.Background(), Request(tool.Spec(), "s", "notes.txt"))
	if err != nil {
		t.Fatalf("Invoke returned error: %v", err)
	}
	if resp.Content != "broad research" {
		t.Fatalf("unexpected content: %q", resp.Content)
	}
	if _, err := tool.Invoke(context.Background(), Request(tool.Spec(), "s", "../escape.txt")); err == nil {
		t.Fatalf("expected error for path outside root")
	}
	if _, err := tool.Invoke(context.Background(), Request(tool.Spec(), "s", "missing.txt")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestCatalogSubsetAndLookup(t *testing.T) {
	catalog, cleanup, err := NewToolset(Options{SearchAPIKey: "k"})
	if err != nil {
		t.Fatalf("NewToolset returned error: %v", err)
	}
	defer cleanup()

	if got := catalog.Refs(); len(got) != 3 || got[0] != WebScrape || got[2] != FileRead {
		t.Fatalf("unexpected registration order: %v", got)
	}
	subset, err := catalog.Subset([]Ref{FileRead, WebSearch})
	if err != nil {
		t.Fatalf("Subset returned error: %v", err)
	}
	if subset[0].Spec().Name != "read_file" || subset[1].Spec().Name != "web_search" {
		t.Fatalf("unexpected subset order")
	}
	ref, _, ok := catalog.Lookup("WEB_SEARCH")
	if !ok || ref != WebSearch {
		t.Fatalf("expected case-insensitive lookup to find web_search")
	}
	if err := catalog.Register(WebSearch, &FileReadTool{}); err == nil {
		t.Fatalf("expected duplicate registration error")
	}

	empty := NewCatalog()
	_, err = empty.Subset([]Ref{WebScrape})
	var unavailable *ToolUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected ToolUnavailableError, got %v", err)
	}
}

func TestCatalogUTCPTools(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("alpha"), 0o600); err != nil {
		t.Fatal(err)
	}
	catalog := NewCatalog()
	if err := catalog.Register(FileRead, &FileReadTool{Root: dir}); err != nil {
		t.Fatal(err)
	}

	exported := catalog.UTCPTools("research")
	if len(exported) != 1 {
		t.Fatalf("expected 1 exported tool, got %d", len(exported))
	}
	if exported[0].Name != "research.read_file" {
		t.Fatalf("unexpected tool name %q", exported[0].Name)
	}
	out, err := exported[0].Handler(nil, map[string]interface{}{"path": "a.txt"})
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if out["content"] != "alpha" {
		t.Fatalf("unexpected handler output: %#v", out)
	}
	if _, err := exported[0].Handler(nil, map[string]interface{}{"path": "../x"}); err == nil {
		t.Fatalf("expected handler to surface tool errors")
	}
}

func TestCatalogMountedOnUTCPClient(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.md"), []byte("sanlam funeral plan"), 0o600); err != nil {
		t.Fatal(err)
	}
	catalog := NewCatalog()
	if err := catalog.Register(FileRead, &FileReadTool{Root: dir}); err != nil {
		t.Fatal(err)
	}

	client, err := catalog.NewUTCPClient(ctx, "crew")
	if err != nil {
		t.Fatalf("NewUTCPClient returned error: %v", err)
	}
	out, err := client.CallTool(ctx, "crew.read_file", map[string]any{"path": "notes.md"})
	if err != nil {
		t.Fatalf("CallTool returned error: %v", err)
	}
	result, ok := out.(map[string]interface{})
	if !ok {
		t.Fatalf("expected map result, got %#v", out)
	}
	if result["content"] != "sanlam funeral plan" {
		t.Fatalf("unexpected content: %#v", result)
	}

	if _, err := client.CallTool(ctx, "crew.web_search", map[string]any{"query": "x"}); err == nil {
		t.Fatalf("expected error for a tool outside the catalog")
	}
	if err := catalog.RegisterUTCPProvider(ctx, client, "bad.name"); err == nil {
		t.Fatalf("expected error for dotted provider name")
	}
	if err := catalog.RegisterUTCPProvider(ctx, nil, "crew"); err == nil {
		t.Fatalf("expected error for nil client")
	}
}
