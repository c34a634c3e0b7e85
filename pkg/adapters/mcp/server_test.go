package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/foreman"
	"github.com/aretw0/foreman/internal/testutils"
	"github.com/aretw0/foreman/pkg/domain"
	"github.com/aretw0/foreman/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTeam(t *testing.T, delegate ports.Delegate, opts ...foreman.Option) *foreman.Team {
	t.Helper()
	team, err := foreman.New(delegate, opts...)
	require.NoError(t, err)
	return team
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func TestRunTask(t *testing.T) {
	team := newTeam(t, testutils.NewScriptedDelegate("search", "web_scraper", domain.Done),
		foreman.WithWorker("search", testutils.EchoWorker{Name: "search", Content: "Found sources."}),
		foreman.WithWorker("web_scraper", testutils.EchoWorker{Name: "web_scraper", Content: "Read the pages."}),
	)
	s := NewServer(team)

	res, err := s.handleRunTask(context.Background(), mcp.CallToolRequest{}, runTaskArgs{Task: "Research AI agents"})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "Found sources.\n\nRead the pages.", resultText(t, res))
}

func TestRunTask_Failure(t *testing.T) {
	team := newTeam(t, testutils.LoopDelegate{Worker: "search"},
		foreman.WithWorker("search", testutils.EchoWorker{Name: "search", Content: "again"}),
		foreman.WithStepLimit(2),
	)
	s := NewServer(team)

	res, err := s.handleRunTask(context.Background(), mcp.CallToolRequest{}, runTaskArgs{Task: "loop"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	text := resultText(t, res)
	assert.Contains(t, text, "step bound exceeded: step 3 > limit 2")
	assert.Contains(t, text, "again")
}

func TestRunTask_RejectsBadTask(t *testing.T) {
	delegate := new(testutils.MockDelegate)
	team := newTeam(t, delegate, foreman.WithWorker("search", testutils.EchoWorker{Name: "search"}))
	s := NewServer(team)

	res, err := s.handleRunTask(context.Background(), mcp.CallToolRequest{}, runTaskArgs{Task: "  \x00 "})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "task rejected")
	delegate.AssertNotCalled(t, "Decide")
}

func TestRunTask_NoReport(t *testing.T) {
	team := newTeam(t, testutils.NewScriptedDelegate(domain.Done),
		foreman.WithWorker("search", testutils.EchoWorker{Name: "search"}),
	)
	res, err := NewServer(team).handleRunTask(context.Background(), mcp.CallToolRequest{}, runTaskArgs{Task: "hi"})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "The team finished without a report.", resultText(t, res))
}

func TestDescribeTeam(t *testing.T) {
	team := newTeam(t, testutils.NewScriptedDelegate(),
		foreman.WithWorker("search", testutils.EchoWorker{Name: "search"}),
		foreman.WithWorker("web_scraper", testutils.EchoWorker{Name: "web_scraper"}),
		foreman.WithStepLimit(10),
	)

	desc, err := NewServer(team).handleDescribeTeam(context.Background(), mcp.CallToolRequest{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"search", "web_scraper"}, desc.Workers)
	assert.Equal(t, 10, desc.StepLimit)
	assert.Equal(t, team.Nodes(), desc.Nodes)
}

func TestProtocol_ToolsCall(t *testing.T) {
	team := newTeam(t, testutils.NewScriptedDelegate("search", domain.Done),
		foreman.WithWorker("search", testutils.EchoWorker{Name: "search", Content: "Agents act."}),
	)
	s := NewServer(team)

	reply := s.MCPServer().HandleMessage(context.Background(), json.RawMessage(
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"run_task","arguments":{"task":"agents"}}}`))
	data, err := json.Marshal(reply)
	require.NoError(t, err)

	var decoded struct {
		Result struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
			IsError bool `json:"isError"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Result.Content, 1)
	assert.Equal(t, "Agents act.", decoded.Result.Content[0].Text)
	assert.False(t, decoded.Result.IsError)
}
