package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/foreman/internal/logging"
	"github.com/aretw0/foreman/pkg/domain"
	"github.com/aretw0/foreman/pkg/registry"
	"github.com/openai/openai-go"
)

// ErrMaxIterations is returned when the model keeps calling tools.
var ErrMaxIterations = errors.New("agent exceeded its tool-call iterations")

// DefaultMaxIterations bounds the model/tool loop of one invocation.
const DefaultMaxIterations = 10

// Agent is a worker that lets a chat model call tools until it can answer.
// The final answer is returned as an ordinary message authored by the agent.
type Agent struct {
	name          string
	client        *openai.Client
	tools         *registry.Registry
	systemPrompt  string
	opts          Options
	maxIterations int
	logger        *slog.Logger
}

// AgentOption configures an Agent.
type AgentOption func(*Agent)

// WithSystemPrompt sets the agent's instructions.
func WithSystemPrompt(p string) AgentOption {
	return func(a *Agent) {
		a.systemPrompt = p
	}
}

// WithMaxIterations bounds the tool loop.
func WithMaxIterations(n int) AgentOption {
	return func(a *Agent) {
		if n > 0 {
			a.maxIterations = n
		}
	}
}

// WithAgentModel adjusts the model options.
func WithAgentModel(fns ...func(*Options)) AgentOption {
	return func(a *Agent) {
		for _, fn := range fns {
			fn(&a.opts)
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) AgentOption {
	return func(a *Agent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAgent creates a tool-calling worker named name.
func NewAgent(name string, client *openai.Client, tools *registry.Registry, opts ...AgentOption) *Agent {
	if tools == nil {
		tools = registry.NewRegistry()
	}
	a := &Agent{
		name:          name,
		client:        client,
		tools:         tools,
		opts:          defaultOptions(nil),
		maxIterations: DefaultMaxIterations,
		logger:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Invoke implements ports.Worker.
func (a *Agent) Invoke(ctx context.Context, conv domain.Conversation) (domain.Message, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if a.systemPrompt != "" {
		messages = append(messages, openai.SystemMessage(a.systemPrompt))
	}
	messages = append(messages, conversationMessages(conv)...)

	params := openai.ChatCompletionNewParams{
		Model: a.opts.Model,
		Tools: a.toolParams(),
	}
	if a.opts.Temperature > 0 {
		params.Temperature = openai.Float(a.opts.Temperature)
	}

	for i := 0; i < a.maxIterations; i++ {
		params.Messages = messages
		completion, err := a.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return domain.Message{}, fmt.Errorf("openai call failed: %w", err)
		}
		if len(completion.Choices) == 0 {
			return domain.Message{}, fmt.Errorf("openai returned no choices")
		}

		reply := completion.Choices[0].Message
		if len(reply.ToolCalls) == 0 {
			return domain.NewMessage(a.name, reply.Content, domain.KindOrdinary), nil
		}

		messages = append(messages, reply.ToParam())
		for _, call := range reply.ToolCalls {
			messages = append(messages, openai.ToolMessage(a.callTool(ctx, call), call.ID))
		}
	}
	return domain.Message{}, fmt.Errorf("%w (%d)", ErrMaxIterations, a.maxIterations)
}

// callTool runs one tool call. Tool failures are reported back to the model
// rather than failing the invocation.
func (a *Agent) callTool(ctx context.Context, call openai.ChatCompletionMessageToolCall) string {
	a.logger.DebugContext(ctx, "tool call", "agent", a.name, "tool", call.Function.Name)

	out, err := a.tools.ExecuteJSON(ctx, call.Function.Name, call.Function.Arguments)
	if err != nil {
		a.logger.WarnContext(ctx, "tool failed", "agent", a.name, "tool", call.Function.Name, "err", err)
		return "error: " + err.Error()
	}
	if s, ok := out.(string); ok {
		return s
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Sprintf("%v", out)
	}
	return string(data)
}

func (a *Agent) toolParams() []openai.ChatCompletionToolParam {
	tools := a.tools.Tools()
	if len(tools) == 0 {
		return nil
	}
	params := make([]openai.ChatCompletionToolParam, len(tools))
	for i, t := range tools {
		params[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  openai.FunctionParameters(t.Parameters),
			},
		}
	}
	return params
}
