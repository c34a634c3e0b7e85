// Package feed reads RSS and Atom feeds for research workers.
package feed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/foreman/pkg/registry"
	"github.com/mmcdole/gofeed"
)

// ToolName is the name the feed tool is registered under.
const ToolName = "read_feed"

// DefaultMaxItems is how many entries are kept per feed.
const DefaultMaxItems = 10

// Item is one feed entry.
type Item struct {
	Title     string
	Link      string
	Summary   string
	Published time.Time
}

// Reader fetches and parses feeds.
type Reader struct {
	parser   *gofeed.Parser
	maxItems int
}

// Option configures a Reader.
type Option func(*Reader)

// WithHTTPClient replaces the HTTP client used to download feeds.
func WithHTTPClient(hc *http.Client) Option {
	return func(r *Reader) {
		r.parser.Client = hc
	}
}

// WithMaxItems caps the entries returned per feed.
func WithMaxItems(n int) Option {
	return func(r *Reader) {
		if n > 0 {
			r.maxItems = n
		}
	}
}

// New creates a Reader.
func New(opts ...Option) *Reader {
	p := gofeed.NewParser()
	p.UserAgent = "foreman-feed/1.0"
	p.Client = &http.Client{Timeout: 30 * time.Second}
	r := &Reader{parser: p, maxItems: DefaultMaxItems}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Read downloads the feed at url and returns its newest entries in feed order.
func (r *Reader) Read(ctx context.Context, url string) (string, []Item, error) {
	f, err := r.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return "", nil, fmt.Errorf("failed to parse feed %s: %w", url, err)
	}
	return f.Title, r.extract(f), nil
}

func (r *Reader) extract(f *gofeed.Feed) []Item {
	n := min(len(f.Items), r.maxItems)
	items := make([]Item, 0, n)
	for _, it := range f.Items[:n] {
		item := Item{
			Title:   strings.TrimSpace(it.Title),
			Link:    it.Link,
			Summary: strings.Join(strings.Fields(it.Description), " "),
		}
		if item.Summary == "" {
			item.Summary = strings.Join(strings.Fields(it.Content), " ")
		}
		switch {
		case it.PublishedParsed != nil:
			item.Published = *it.PublishedParsed
		case it.UpdatedParsed != nil:
			item.Published = *it.UpdatedParsed
		}
		items = append(items, item)
	}
	return items
}

// Render formats entries the way the other research tools report documents.
func Render(title string, items []Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<Feed name=%q>\n", title)
	for _, it := range items {
		b.WriteString("- ")
		b.WriteString(it.Title)
		if !it.Published.IsZero() {
			b.WriteString(" (" + it.Published.UTC().Format("2006-01-02") + ")")
		}
		if it.Link != "" {
			b.WriteString(" " + it.Link)
		}
		b.WriteString("\n")
		if it.Summary != "" {
			b.WriteString("  " + it.Summary + "\n")
		}
	}
	b.WriteString("</Feed>")
	return b.String()
}

// Args are the tool arguments.
type Args struct {
	URLs []string `json:"urls" jsonschema:"required,minItems=1" jsonschema_description:"RSS or Atom feed URLs to read"`
}

// Tool exposes the reader as a model-callable tool.
// A feed that fails is reported inline so the others still reach the model.
func (r *Reader) Tool() registry.Tool {
	return registry.Typed(ToolName,
		"Read the latest entries of the provided RSS or Atom feeds.",
		func(ctx context.Context, args Args) (any, error) {
			if len(args.URLs) == 0 {
				return nil, fmt.Errorf("at least one url is required")
			}
			out := make([]string, 0, len(args.URLs))
			for _, url := range args.URLs {
				title, items, err := r.Read(ctx, url)
				if err != nil {
					out = append(out, fmt.Sprintf("<Feed name=%q>\nerror: %v\n</Feed>", url, err))
					continue
				}
				out = append(out, Render(title, items))
			}
			return strings.Join(out, "\n\n"), nil
		},
	)
}
