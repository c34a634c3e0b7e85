// Package mcp exposes a team as a Model Context Protocol server, so other
// agents can delegate whole research tasks to it.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/foreman"
	"github.com/aretw0/foreman/internal/logging"
	"github.com/aretw0/foreman/internal/presentation/graph"
	"github.com/aretw0/foreman/pkg/domain"
	"github.com/aretw0/foreman/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// GraphURI is the resource holding the team topology as Mermaid.
const GraphURI = "foreman://graph"

// Team is the subset of *foreman.Team the server needs.
type Team interface {
	Execute(ctx context.Context, task string, sink func(domain.StreamEvent) error) domain.RunResult
	Workers() []string
	Nodes() []domain.Node
	StepLimit() int
}

// TeamDescription is the structured output of describe_team.
type TeamDescription struct {
	Workers   []string      `json:"workers" jsonschema_description:"Worker identities the supervisor can route to"`
	StepLimit int           `json:"step_limit" jsonschema_description:"Maximum transitions per run"`
	Nodes     []domain.Node `json:"nodes" jsonschema_description:"Topology of the team"`
}

type runTaskArgs struct {
	Task string `json:"task"`
}

// Server wraps a team as an MCP server.
type Server struct {
	team      Team
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates an MCP server for team.
func NewServer(team Team, opts ...Option) *Server {
	s := &Server{
		team:      team,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("foreman-mcp", strings.TrimSpace(foreman.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over SSE on port until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("run_task",
		mcp.WithDescription("Run a task with the team and return the workers' reports."),
		mcp.WithString("task", mcp.Required(), mcp.Description("The request for the team")),
	), mcp.NewTypedToolHandler(s.handleRunTask))

	s.mcpServer.AddTool(mcp.NewTool("describe_team",
		mcp.WithDescription("Describe the workers and limits of the team."),
		mcp.WithOutputSchema[TeamDescription](),
	), mcp.NewStructuredToolHandler(s.handleDescribeTeam))
}

func (s *Server) handleRunTask(ctx context.Context, request mcp.CallToolRequest, args runTaskArgs) (*mcp.CallToolResult, error) {
	task, err := runner.SanitizeTask(args.Task)
	if err != nil {
		s.logger.WarnContext(ctx, "task rejected", "err", err, "size", len(args.Task))
		return mcp.NewToolResultError(fmt.Sprintf("task rejected: %v", err)), nil
	}

	var reports []string
	res := s.team.Execute(ctx, task, func(ev domain.StreamEvent) error {
		reports = append(reports, ev.Payload.Content())
		return nil
	})
	output := strings.Join(reports, "\n\n")

	if res.Status == domain.StatusFailed {
		msg := fmt.Sprintf("run %s failed: %v", res.RunID, res.Err)
		if output != "" {
			msg += "\n\n" + output
		}
		return mcp.NewToolResultError(msg), nil
	}
	if output == "" {
		output = "The team finished without a report."
	}
	return mcp.NewToolResultText(output), nil
}

func (s *Server) handleDescribeTeam(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (TeamDescription, error) {
	return TeamDescription{
		Workers:   s.team.Workers(),
		StepLimit: s.team.StepLimit(),
		Nodes:     s.team.Nodes(),
	}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Team topology",
		mcp.WithMIMEType("text/vnd.mermaid"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      GraphURI,
				MIMEType: "text/vnd.mermaid",
				Text:     graph.GenerateMermaid(s.team.Nodes(), nil),
			},
		}, nil
	})
}
