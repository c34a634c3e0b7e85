package search_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/foreman/pkg/registry"
	"github.com/aretw0/foreman/pkg/tools/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "AI agents", req["query"])
		assert.EqualValues(t, 3, req["max_results"])

		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Search(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"results":[{"title":"Agents","url":"https://example.com","content":"About agents","score":0.9}]}`)
	c, err := search.New("test-key", search.WithEndpoint(srv.URL), search.WithMaxResults(3))
	require.NoError(t, err)

	results, err := c.Search(context.Background(), "AI agents")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "https://example.com", results[0].URL)
}

func TestClient_ErrorStatus(t *testing.T) {
	srv := newServer(t, http.StatusUnauthorized, `{"detail":"bad key"}`)
	c, err := search.New("test-key", search.WithEndpoint(srv.URL), search.WithMaxResults(3))
	require.NoError(t, err)

	_, err = c.Search(context.Background(), "AI agents")
	assert.ErrorContains(t, err, "401")
}

func TestClient_Tool(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"results":[]}`)
	c, err := search.New("test-key", search.WithEndpoint(srv.URL), search.WithMaxResults(3))
	require.NoError(t, err)

	r := registry.NewRegistry(c.Tool())
	out, err := r.ExecuteJSON(context.Background(), search.ToolName, `{"query":"AI agents"}`)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestNew_RequiresKey(t *testing.T) {
	_, err := search.New("")
	assert.ErrorIs(t, err, search.ErrMissingAPIKey)
}
