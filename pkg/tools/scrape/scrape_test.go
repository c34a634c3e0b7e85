package scrape_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/foreman/pkg/registry"
	"github.com/aretw0/foreman/pkg/tools/scrape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<html>
<head><title> Agent Frameworks </title><style>body{color:red}</style></head>
<body>
  <nav>Home | About</nav>
  <h1>Agents</h1>
  <p>Agents   plan and
     act.</p>
  <script>track()</script>
</body>
</html>`

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestScraper_Fetch(t *testing.T) {
	srv := newSite(t)

	p, err := scrape.New().Fetch(context.Background(), srv.URL+"/ok")
	require.NoError(t, err)
	assert.Equal(t, "Agent Frameworks", p.Title)
	assert.Equal(t, "Agents Agents plan and act.", p.Text)
}

func TestScraper_FetchError(t *testing.T) {
	srv := newSite(t)

	_, err := scrape.New().Fetch(context.Background(), srv.URL+"/missing")
	assert.ErrorContains(t, err, "status 404")
}

func TestScraper_Tool(t *testing.T) {
	srv := newSite(t)
	r := registry.NewRegistry(scrape.New().Tool())

	out, err := r.Execute(context.Background(), scrape.ToolName, map[string]any{
		"urls": []any{srv.URL + "/ok", srv.URL + "/missing"},
	})
	require.NoError(t, err)

	text := out.(string)
	assert.True(t, strings.HasPrefix(text, "<Document name=\"Agent Frameworks\">\nAgents Agents plan and act.\n</Document>"))
	assert.Contains(t, text, "error: failed to fetch")
	assert.NotContains(t, text, "track()")

	_, err = r.Execute(context.Background(), scrape.ToolName, map[string]any{"urls": []any{}})
	assert.Error(t, err)
}
