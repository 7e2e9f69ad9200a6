package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/google/jsonschema-go/jsonschema"
)

// SearchResult is one web search hit.
type SearchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score,omitempty"`
}

// Searcher is a web search backend.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}

// TavilySearch queries the Tavily search API.
type TavilySearch struct {
	APIKey  string
	BaseURL string
	Depth   string
	Client  *http.Client
}

// NewTavilySearch creates a Tavily backend.
// If apiKey is empty, it tries to read from TAVILY_API_KEY environment variable.
func NewTavilySearch(apiKey string) (*TavilySearch, error) {
	if apiKey == "" {
		apiKey = os.Getenv("TAVILY_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("TAVILY_API_KEY not set")
	}
	return &TavilySearch{
		APIKey:  apiKey,
		BaseURL: "https://api.tavily.com/search",
		Depth:   "basic",
		Client:  http.DefaultClient,
	}, nil
}

type tavilyResponse struct {
	Results []SearchResult `json:"results"`
}

// Search implements Searcher.
func (t *TavilySearch) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	body, err := json.Marshal(map[string]any{
		"query":        query,
		"api_key":      t.APIKey,
		"search_depth": t.Depth,
		"max_results":  maxResults,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient(t.Client).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily api returned status: %d", resp.StatusCode)
	}

	var result tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return result.Results, nil
}

// BraveSearch queries the Brave Search API.
type BraveSearch struct {
	APIKey  string
	BaseURL string
	Country string
	Lang    string
	Client  *http.Client
}

type BraveOption func(*BraveSearch)

// WithBraveBaseURL sets the base URL for the Brave Search API.
func WithBraveBaseURL(baseURL string) BraveOption {
	return func(b *BraveSearch) {
		b.BaseURL = baseURL
	}
}

// WithBraveCountry sets the country code for search results (e.g., "US", "CN").
func WithBraveCountry(country string) BraveOption {
	return func(b *BraveSearch) {
		b.Country = country
	}
}

// WithBraveLang sets the language code for search results (e.g., "en", "zh").
func WithBraveLang(lang string) BraveOption {
	return func(b *BraveSearch) {
		b.Lang = lang
	}
}

// NewBraveSearch creates a Brave backend.
// If apiKey is empty, it tries to read from BRAVE_API_KEY environment variable.
func NewBraveSearch(apiKey string, opts ...BraveOption) (*BraveSearch, error) {
	if apiKey == "" {
		apiKey = os.Getenv("BRAVE_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("BRAVE_API_KEY not set")
	}

	b := &BraveSearch{
		APIKey:  apiKey,
		BaseURL: "https://api.search.brave.com/res/v1/web/search",
		Country: "US",
		Lang:    "en",
		Client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// Search implements Searcher. Brave caps count at 20.
func (b *BraveSearch) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(min(max(maxResults, 1), 20)))
	if b.Country != "" {
		params.Set("country", b.Country)
	}
	if b.Lang != "" {
		params.Set("search_lang", b.Lang)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.APIKey)

	resp, err := httpClient(b.Client).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("brave api returned status: %d", resp.StatusCode)
	}

	var result braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	out := make([]SearchResult, 0, len(result.Web.Results))
	for _, r := range result.Web.Results {
		out = append(out, SearchResult{Title: r.Title, URL: r.URL, Content: r.Description})
	}
	return out, nil
}

func httpClient(c *http.Client) *http.Client {
	if c == nil {
		return http.DefaultClient
	}
	return c
}

// WebSearchName is the name of the tool built by NewWebSearchTool.
const WebSearchName = "web_search"

// NewWebSearchTool exposes a Searcher as the web_search tool. defaultResults is
// used when the model does not pass max_results.
func NewWebSearchTool(s Searcher, defaultResults int) Descriptor {
	if defaultResults <= 0 {
		defaultResults = 5
	}
	return Descriptor{
		Name:        WebSearchName,
		Description: "Search the web for up-to-date information. Returns a list of results with title, url and content.",
		Schema: ObjectSchema(map[string]*jsonschema.Schema{
			"query":       {Type: "string", Description: "The search query"},
			"max_results": {Type: "integer", Description: "Maximum number of results, 1 to 20"},
		}, "query"),
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			query, _ := args["query"].(string)
			if query == "" {
				return nil, fmt.Errorf("query is empty")
			}
			n := defaultResults
			if v, ok := args["max_results"].(float64); ok && v >= 1 {
				n = min(int(v), 20)
			}
			results, err := s.Search(ctx, query, n)
			if err != nil {
				return nil, err
			}
			if len(results) == 0 {
				return "No results found", nil
			}
			return results, nil
		},
	}
}
