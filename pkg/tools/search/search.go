// Package search queries the Tavily web search API.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aretw0/foreman/pkg/registry"
)

// DefaultEndpoint is the Tavily search endpoint.
const DefaultEndpoint = "https://api.tavily.com/search"

// ToolName is the name the search tool is registered under.
const ToolName = "tavily_search"

// ErrMissingAPIKey is returned when no API key is configured.
var ErrMissingAPIKey = errors.New("search: api key is required")

// Result is one search hit.
type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Client calls the search API.
type Client struct {
	apiKey     string
	endpoint   string
	maxResults int
	http       *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the API endpoint.
func WithEndpoint(url string) Option {
	return func(c *Client) {
		c.endpoint = url
	}
}

// WithMaxResults caps the number of results per query (default 5).
func WithMaxResults(n int) Option {
	return func(c *Client) {
		c.maxResults = n
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New creates a search client.
func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	c := &Client{
		apiKey:     apiKey,
		endpoint:   DefaultEndpoint,
		maxResults: 5,
		http:       &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type searchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type searchResponse struct {
	Results []Result `json:"results"`
}

// Search runs a query and returns the hits in relevance order.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	body, err := json.Marshal(searchRequest{Query: query, MaxResults: c.maxResults})
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search API returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	return out.Results, nil
}

// Args are the tool arguments.
type Args struct {
	Query string `json:"query" jsonschema:"required" jsonschema_description:"The search query"`
}

// Tool exposes the client as a model-callable tool.
func (c *Client) Tool() registry.Tool {
	return registry.Typed(ToolName,
		"A search engine optimized for comprehensive, accurate, and trusted results. Input should be a search query.",
		func(ctx context.Context, args Args) (any, error) {
			return c.Search(ctx, args.Query)
		},
	)
}
