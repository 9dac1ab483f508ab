package tools

import (
	"fmt"
	"time"
)

// Options configure the standard tool set.
type Options struct {
	SearchAPIKey  string
	SearchResults int
	Timeout       time.Duration
	// Scraper is "http" (plain GET) or "browser" (headless Chrome).
	Scraper  string
	FileRoot string
}

// NewToolset registers the scrape, search and file-read tools. The returned
// func releases backend resources and is always non-nil.
func NewToolset(opts Options) (*Catalog, func() error, error) {
	cleanup := func() error { return nil }

	var fetcher Fetcher
	switch opts.Scraper {
	case "", "http":
		fetcher = NewHTTPFetcher(opts.Timeout)
	case "browser":
		bf := NewBrowserFetcher(opts.Timeout)
		fetcher = bf
		cleanup = bf.Close
	default:
		return nil, cleanup, fmt.Errorf("unknown scraper %q", opts.Scraper)
	}

	catalog := NewCatalog()
	for _, entry := range []struct {
		ref  Ref
		tool Tool
	}{
		{WebScrape, NewScrapeTool(fetcher)},
		{WebSearch, NewSearchTool(opts.SearchAPIKey, opts.SearchResults, opts.Timeout)},
		{FileRead, &FileReadTool{Root: opts.FileRoot}},
	} {
		if err := catalog.Register(entry.ref, entry.tool); err != nil {
			return nil, cleanup, err
		}
	}
	return catalog, cleanup, nil
}
