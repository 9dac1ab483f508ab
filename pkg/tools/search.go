package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultSerperURL is the Serper Google search endpoint.
const DefaultSerperURL = "https://google.serper.dev/search"

// SearchTool queries the web through the Serper API.
type SearchTool struct {
	APIKey   string
	Endpoint string
	Results  int
	Client   *http.Client
}

// NewSearchTool returns a search tool authenticated with apiKey.
func NewSearchTool(apiKey string, results int, timeout time.Duration) *SearchTool {
	if results <= 0 {
		results = 10
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SearchTool{
		APIKey:   apiKey,
		Endpoint: DefaultSerperURL,
		Results:  results,
		Client:   &http.Client{Timeout: timeout},
	}
}

func (s *SearchTool) Spec() ToolSpec {
	return ToolSpec{
		Name:        WebSearch.String(),
		Description: "Searches the internet and returns the top results with title, link and snippet. Input is the search query.",
		InputSchema: objectSchema("query", "Search query."),
		Argument:    "query",
	}
}

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num,omitempty"`
}

type serperOrganic struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position"`
}

type serperResponse struct {
	AnswerBox *struct {
		Title   string `json:"title"`
		Answer  string `json:"answer"`
		Snippet string `json:"snippet"`
	} `json:"answerBox"`
	Organic []serperOrganic `json:"organic"`
}

func (s *SearchTool) Invoke(ctx context.Context, req ToolRequest) (ToolResponse, error) {
	if s == nil || strings.TrimSpace(s.APIKey) == "" {
		return ToolResponse{}, &ToolUnavailableError{Tool: WebSearch.String(), Err: fmt.Errorf("search API key not configured")}
	}
	query := stringArg(req, "query", "search_query", "q")
	if query == "" {
		return ToolResponse{}, fmt.Errorf("%s: %w 'query'", WebSearch, ErrMissingArgument)
	}

	payload, err := json.Marshal(serperRequest{Q: query, Num: s.Results})
	if err != nil {
		return ToolResponse{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return ToolResponse{}, &NetworkError{Tool: WebSearch.String(), URL: s.Endpoint, Err: err}
	}
	httpReq.Header.Set("X-API-KEY", s.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(httpReq)
	if err != nil {
		return ToolResponse{}, &NetworkError{Tool: WebSearch.String(), URL: s.Endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return ToolResponse{}, &NetworkError{Tool: WebSearch.String(), URL: s.Endpoint, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ToolResponse{}, &NetworkError{
			Tool:   WebSearch.String(),
			URL:    s.Endpoint,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("%s", strings.TrimSpace(string(body))),
		}
	}

	var parsed serperResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ToolResponse{}, fmt.Errorf("%s: decode response: %w", WebSearch, err)
	}
	return ToolResponse{
		Content:  renderSearch(query, parsed),
		Metadata: map[string]string{"query": query, "results": fmt.Sprint(len(parsed.Organic))},
	}, nil
}

func renderSearch(query string, r serperResponse) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Search results for %q:\n", query)
	if r.AnswerBox != nil {
		answer := r.AnswerBox.Answer
		if answer == "" {
			answer = r.AnswerBox.Snippet
		}
		if answer != "" {
			fmt.Fprintf(&sb, "Answer: %s\n", strings.TrimSpace(answer))
		}
	}
	if len(r.Organic) == 0 {
		sb.WriteString("(no results)\n")
		return sb.String()
	}
	for i, item := range r.Organic {
		fmt.Fprintf(&sb, "%d. %s\n   %s\n   %s\n", i+1, strings.TrimSpace(item.Title), item.Link, strings.TrimSpace(item.Snippet))
	}
	return sb.String()
}
