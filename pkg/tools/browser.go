package tools

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// BrowserFetcher renders pages in headless Chrome through the DevTools
// protocol, for sites that build their content with JavaScript. The browser
// is launched on first use and reused until Close.
type BrowserFetcher struct {
	Timeout time.Duration

	mu      sync.Mutex
	browser *rod.Browser
}

// NewBrowserFetcher returns a fetcher whose page loads are bounded by timeout.
func NewBrowserFetcher(timeout time.Duration) *BrowserFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &BrowserFetcher{Timeout: timeout}
}

func (b *BrowserFetcher) connect() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser != nil {
		return b.browser, nil
	}

	path, _ := launcher.LookPath()
	controlURL, err := launcher.New().Bin(path).Headless(true).Launch()
	if err != nil {
		return nil, &ToolUnavailableError{Tool: WebScrape.String(), Err: fmt.Errorf("launch browser: %w", err)}
	}
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, &ToolUnavailableError{Tool: WebScrape.String(), Err: fmt.Errorf("connect browser: %w", err)}
	}
	b.browser = browser
	return browser, nil
}

func (b *BrowserFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	browser, err := b.connect()
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, b.Timeout)
	defer cancel()

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{URL: pageURL})
	if err != nil {
		return "", &NetworkError{Tool: WebScrape.String(), URL: pageURL, Err: err}
	}
	defer page.Close()

	if err := page.WaitLoad(); err != nil {
		return "", &NetworkError{Tool: WebScrape.String(), URL: pageURL, Err: err}
	}
	body, err := page.Element("body")
	if err != nil {
		return "", &NetworkError{Tool: WebScrape.String(), URL: pageURL, Err: err}
	}
	text, err := body.Text()
	if err != nil {
		return "", &NetworkError{Tool: WebScrape.String(), URL: pageURL, Err: err}
	}
	return strings.TrimSpace(text), nil
}

// Close shuts the browser down if it was started.
func (b *BrowserFetcher) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser == nil {
		return nil
	}
	err := b.browser.Close()
	b.browser = nil
	return err
}
