package feed_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/foreman/pkg/registry"
	"github.com/aretw0/foreman/pkg/tools/feed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rss = `<?xml version="1.0"?>
<rss version="2.0">
<channel>
  <title>Agent News</title>
  <item>
    <title>Supervisors ship</title>
    <link>https://example.com/1</link>
    <description>Teams   of agents.</description>
    <pubDate>Mon, 02 Mar 2026 10:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Second</title>
    <link>https://example.com/2</link>
  </item>
  <item>
    <title>Third</title>
  </item>
</channel>
</rss>`

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/rss", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rss))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestReader_Read(t *testing.T) {
	srv := newFeedServer(t)

	title, items, err := feed.New(feed.WithMaxItems(2)).Read(context.Background(), srv.URL+"/rss")
	require.NoError(t, err)
	assert.Equal(t, "Agent News", title)
	require.Len(t, items, 2)
	assert.Equal(t, "Supervisors ship", items[0].Title)
	assert.Equal(t, "Teams of agents.", items[0].Summary)
	assert.Equal(t, 2026, items[0].Published.Year())
	assert.True(t, items[1].Published.IsZero())
}

func TestRender(t *testing.T) {
	out := feed.Render("News", []feed.Item{{Title: "A", Link: "https://a", Summary: "sum"}})
	assert.Equal(t, "<Feed name=\"News\">\n- A https://a\n  sum\n</Feed>", out)
}

func TestReader_Tool(t *testing.T) {
	srv := newFeedServer(t)
	r := registry.NewRegistry(feed.New().Tool())

	out, err := r.Execute(context.Background(), feed.ToolName, map[string]any{
		"urls": []any{srv.URL + "/rss", srv.URL + "/broken"},
	})
	require.NoError(t, err)

	text := out.(string)
	assert.Contains(t, text, "<Feed name=\"Agent News\">\n- Supervisors ship (2026-03-02) https://example.com/1\n  Teams of agents.\n")
	assert.Contains(t, text, "error: failed to parse feed")

	_, err = r.Execute(context.Background(), feed.ToolName, map[string]any{"urls": []any{}})
	assert.Error(t, err)
}
