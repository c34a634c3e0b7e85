package openai_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	foreopenai "github.com/aretw0/foreman/pkg/adapters/openai"
	"github.com/aretw0/foreman/pkg/domain"
	"github.com/aretw0/foreman/pkg/registry"
	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI serves canned chat completions in order and records request bodies.
type fakeAPI struct {
	mu       sync.Mutex
	replies  []string
	requests []map[string]any
	server   *httptest.Server
}

func newFakeAPI(t *testing.T, replies ...string) *fakeAPI {
	t.Helper()
	f := &fakeAPI{replies: replies}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		var req map[string]any
		_ = json.Unmarshal(body, &req)

		f.mu.Lock()
		defer f.mu.Unlock()
		f.requests = append(f.requests, req)
		if len(f.replies) == 0 {
			http.Error(w, `{"error":{"message":"script exhausted"}}`, http.StatusBadRequest)
			return
		}
		reply := f.replies[0]
		f.replies = f.replies[1:]
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeAPI) client() *openai.Client {
	return foreopenai.NewClient("test-key", f.server.URL+"/")
}

func (f *fakeAPI) request(i int) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[i]
}

func completion(content string) string {
	msg, _ := json.Marshal(content)
	return `{"id":"c1","object":"chat.completion","created":0,"model":"gpt-4o","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":` + string(msg) + `}}]}`
}

func toolCall(id, name, args string) string {
	a, _ := json.Marshal(args)
	return `{"id":"c2","object":"chat.completion","created":0,"model":"gpt-4o","choices":[{"index":0,"finish_reason":"tool_calls","message":{"role":"assistant","content":null,"tool_calls":[{"id":"` + id + `","type":"function","function":{"name":"` + name + `","arguments":` + string(a) + `}}]}}]}`
}

func conversation() domain.Conversation {
	log := domain.NewLog("Research AI agents")
	log.Append(domain.NewMessage("search", "Agents act autonomously.", domain.KindOrdinary))
	return log.Snapshot()
}

func TestDelegate_Decide(t *testing.T) {
	api := newFakeAPI(t, completion(`{"next":"web_scraper"}`))
	d := foreopenai.NewDelegate(api.client())

	v, err := d.Decide(context.Background(), []string{"search", "web_scraper", domain.Done}, conversation())
	require.NoError(t, err)
	assert.Equal(t, "web_scraper", v.Next)
	assert.Empty(t, v.Rationale)

	req := api.request(0)
	format := req["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", format["type"])
	schema := format["json_schema"].(map[string]any)["schema"].(map[string]any)
	next := schema["properties"].(map[string]any)["next"].(map[string]any)
	assert.Equal(t, []any{"search", "web_scraper", "FINISH"}, next["enum"])
	assert.NotContains(t, schema["properties"], "reason")

	messages := req["messages"].([]any)
	first := messages[0].(map[string]any)
	assert.Equal(t, "system", first["role"])
	assert.Contains(t, first["content"], "following workers: search, web_scraper")
	worker := messages[2].(map[string]any)
	assert.Equal(t, "search", worker["name"])
}

func TestDelegate_Rationale(t *testing.T) {
	api := newFakeAPI(t, completion(`{"next":"FINISH","reason":"The report is complete."}`))
	d := foreopenai.NewDelegate(api.client(), foreopenai.WithRationale())

	v, err := d.Decide(context.Background(), []string{"search", domain.Done}, conversation())
	require.NoError(t, err)
	assert.Equal(t, domain.Verdict{Next: domain.Done, Rationale: "The report is complete."}, v)
}

func TestDelegate_MalformedAnswer(t *testing.T) {
	api := newFakeAPI(t, completion("search"))
	d := foreopenai.NewDelegate(api.client())

	_, err := d.Decide(context.Background(), []string{"search", domain.Done}, conversation())
	assert.ErrorContains(t, err, "failed to parse routing response")
}

func TestAgent_ToolLoop(t *testing.T) {
	api := newFakeAPI(t,
		toolCall("call_1", "lookup", `{"query":"agents"}`),
		completion("Agents are autonomous programs."),
	)
	type lookupArgs struct {
		Query string `json:"query"`
	}
	var gotQuery string
	tools := registry.NewRegistry(registry.Typed("lookup", "Look things up",
		func(ctx context.Context, args lookupArgs) (any, error) {
			gotQuery = args.Query
			return map[string]string{"answer": "autonomous programs"}, nil
		}))

	agent := foreopenai.NewAgent("search", api.client(), tools, foreopenai.WithSystemPrompt("You research."))
	msg, err := agent.Invoke(context.Background(), conversation())
	require.NoError(t, err)

	assert.Equal(t, "search", msg.Author())
	assert.Equal(t, "Agents are autonomous programs.", msg.Content())
	assert.False(t, msg.IsToolResult())
	assert.Equal(t, "agents", gotQuery)

	first := api.request(0)
	tool := first["tools"].([]any)[0].(map[string]any)["function"].(map[string]any)
	assert.Equal(t, "lookup", tool["name"])

	second := api.request(1)["messages"].([]any)
	last := second[len(second)-1].(map[string]any)
	assert.Equal(t, "tool", last["role"])
	assert.Equal(t, "call_1", last["tool_call_id"])
	assert.JSONEq(t, `{"answer":"autonomous programs"}`, last["content"].(string))
}

func TestAgent_ToolErrorIsReportedToModel(t *testing.T) {
	api := newFakeAPI(t,
		toolCall("call_1", "missing_tool", `{}`),
		completion("I could not use the tool."),
	)
	agent := foreopenai.NewAgent("search", api.client(), nil)

	msg, err := agent.Invoke(context.Background(), conversation())
	require.NoError(t, err)
	assert.Equal(t, "I could not use the tool.", msg.Content())

	second := api.request(1)["messages"].([]any)
	last := second[len(second)-1].(map[string]any)
	assert.Contains(t, last["content"], "error: tool not found")
}

func TestAgent_MaxIterations(t *testing.T) {
	api := newFakeAPI(t,
		toolCall("call_1", "noop", `{}`),
		toolCall("call_2", "noop", `{}`),
	)
	tools := registry.NewRegistry()
	tools.Register("noop", func(ctx context.Context, args map[string]any) (any, error) { return "ok", nil })

	agent := foreopenai.NewAgent("search", api.client(), tools, foreopenai.WithMaxIterations(2))
	_, err := agent.Invoke(context.Background(), conversation())
	assert.ErrorIs(t, err, foreopenai.ErrMaxIterations)
}
