// Package scrape fetches web pages and extracts their readable text.
package scrape

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/aretw0/foreman/pkg/registry"
)

// ToolName is the name the scrape tool is registered under.
const ToolName = "scrape_webpages"

// maxPageText caps the text kept per page.
const maxPageText = 20000

// Page is the extracted content of one URL.
type Page struct {
	URL   string
	Title string
	Text  string
}

// Scraper downloads pages over HTTP.
type Scraper struct {
	http      *http.Client
	userAgent string
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *Scraper) {
		s.http = hc
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(s *Scraper) {
		s.userAgent = ua
	}
}

// New creates a Scraper.
func New(opts ...Option) *Scraper {
	s := &Scraper{
		http:      &http.Client{Timeout: 30 * time.Second},
		userAgent: "foreman-scraper/1.0",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch downloads url and extracts its title and body text.
// Scripts, styles and navigation chrome are dropped.
func (s *Scraper) Fetch(ctx context.Context, url string) (Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Page{}, fmt.Errorf("invalid url %q: %w", url, err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.http.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return Page{}, fmt.Errorf("failed to fetch %s: status %d", url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return Page{}, fmt.Errorf("failed to parse %s: %w", url, err)
	}
	doc.Find("script, style, noscript, nav, header, footer, iframe, svg").Remove()

	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	if len(text) > maxPageText {
		text = text[:maxPageText]
	}
	return Page{
		URL:   url,
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		Text:  text,
	}, nil
}

// Scrape fetches every URL and renders them as Document blocks.
// A page that fails is reported inline so the others still reach the model.
func (s *Scraper) Scrape(ctx context.Context, urls []string) string {
	docs := make([]string, 0, len(urls))
	for _, url := range urls {
		page, err := s.Fetch(ctx, url)
		if err != nil {
			docs = append(docs, fmt.Sprintf("<Document name=%q>\nerror: %v\n</Document>", url, err))
			continue
		}
		docs = append(docs, fmt.Sprintf("<Document name=%q>\n%s\n</Document>", page.Title, page.Text))
	}
	return strings.Join(docs, "\n\n")
}

// Args are the tool arguments.
type Args struct {
	URLs []string `json:"urls" jsonschema:"required,minItems=1" jsonschema_description:"The web pages to scrape"`
}

// Tool exposes the scraper as a model-callable tool.
func (s *Scraper) Tool() registry.Tool {
	return registry.Typed(ToolName,
		"Scrape the provided web pages for detailed information.",
		func(ctx context.Context, args Args) (any, error) {
			if len(args.URLs) == 0 {
				return nil, fmt.Errorf("at least one url is required")
			}
			return s.Scrape(ctx, args.URLs), nil
		},
	)
}
