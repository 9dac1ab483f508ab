package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const maxPageBytes = 4 << 20

// Fetcher retrieves the readable text of a web page.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// ScrapeTool reads the text content of a web page.
type ScrapeTool struct {
	fetcher Fetcher
}

// NewScrapeTool builds a scrape tool on top of fetcher.
func NewScrapeTool(fetcher Fetcher) *ScrapeTool {
	return &ScrapeTool{fetcher: fetcher}
}

func (s *ScrapeTool) Spec() ToolSpec {
	return ToolSpec{
		Name:        WebScrape.String(),
		Description: "Reads a website and returns its visible text. Input is the page URL.",
		InputSchema: objectSchema("url", "Absolute http(s) URL of the page to read."),
		Argument:    "url",
	}
}

func (s *ScrapeTool) Invoke(ctx context.Context, req ToolRequest) (ToolResponse, error) {
	if s == nil || s.fetcher == nil {
		return ToolResponse{}, &ToolUnavailableError{Tool: WebScrape.String(), Err: fmt.Errorf("no fetcher configured")}
	}
	raw := stringArg(req, "url", "website_url")
	if raw == "" {
		return ToolResponse{}, fmt.Errorf("%s: %w 'url'", WebScrape, ErrMissingArgument)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ToolResponse{}, fmt.Errorf("%s: invalid url %q", WebScrape, raw)
	}

	text, err := s.fetcher.Fetch(ctx, u.String())
	if err != nil {
		return ToolResponse{}, err
	}
	return ToolResponse{
		Content:  text,
		Metadata: map[string]string{"url": u.String()},
	}, nil
}

// HTTPFetcher downloads a page with a plain GET and strips the markup.
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
}

// NewHTTPFetcher returns a fetcher with the given per-request timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPFetcher{
		Client:    &http.Client{Timeout: timeout},
		UserAgent: "Mozilla/5.0 (compatible; funeral-research/1.0)",
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", &NetworkError{Tool: WebScrape.String(), URL: pageURL, Err: err}
	}
	req.Header.Set("User-Agent", f.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")

	resp, err := f.Client.Do(req)
	if err != nil {
		return "", &NetworkError{Tool: WebScrape.String(), URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &NetworkError{Tool: WebScrape.String(), URL: pageURL, Status: resp.StatusCode}
	}

	body := io.LimitReader(resp.Body, maxPageBytes)
	if !strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), "html") {
		data, err := io.ReadAll(body)
		if err != nil {
			return "", &NetworkError{Tool: WebScrape.String(), URL: pageURL, Err: err}
		}
		return strings.TrimSpace(string(data)), nil
	}
	text, err := ExtractText(body)
	if err != nil {
		return "", &NetworkError{Tool: WebScrape.String(), URL: pageURL, Err: err}
	}
	return text, nil
}

// ExtractText returns the visible text of an HTML document, one block per
// line. Script, style and template content is dropped.
func ExtractText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}
	var lines []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "template", "svg", "head":
				return
			}
		}
		if n.Type == html.TextNode {
			if s := strings.Join(strings.Fields(n.Data), " "); s != "" {
				lines = append(lines, s)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.Join(lines, "\n"), nil
}
