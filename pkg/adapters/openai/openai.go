// Package openai implements the supervisor Delegate and a tool-calling
// worker on top of the OpenAI Chat Completions API.
package openai

import (
	"github.com/aretw0/foreman/pkg/domain"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultModel is used when no model is configured.
const DefaultModel = openai.ChatModelGPT4o

// Options are shared by the Delegate and the Agent.
type Options struct {
	Model       string
	Temperature float64
}

// NewClient builds an SDK client. An empty apiKey falls back to OPENAI_API_KEY,
// an empty baseURL to the public endpoint.
func NewClient(apiKey, baseURL string) *openai.Client {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return &client
}

func defaultOptions(optFns []func(*Options)) Options {
	opts := Options{Model: DefaultModel}
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

// conversationMessages maps the run history onto chat messages.
// Worker output is attributed by name so the model can tell the workers apart.
func conversationMessages(conv domain.Conversation) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, conv.Len())
	for _, m := range conv.Messages() {
		switch m.Author() {
		case domain.UserAuthor:
			msgs = append(msgs, openai.UserMessage(m.Content()))
		case domain.SupervisorName:
			msgs = append(msgs, openai.AssistantMessage(m.Content()))
		default:
			msgs = append(msgs, openai.ChatCompletionMessageParamUnion{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{OfString: openai.String(m.Content())},
					Name:    openai.String(m.Author()),
				},
			})
		}
	}
	return msgs
}
