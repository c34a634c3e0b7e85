package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/foreman/internal/prompt"
	"github.com/aretw0/foreman/pkg/domain"
	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
)

// route is the structured answer requested from the model.
type route struct {
	Next   string `json:"next" jsonschema_description:"The worker to act next, or FINISH"`
	Reason string `json:"reason" jsonschema_description:"One sentence explaining the choice"`
}

// Delegate asks a chat model which worker should act next.
// The answer is constrained with a JSON schema whose enum is the option list,
// but it is still untrusted: the supervisor validates it.
type Delegate struct {
	client    *openai.Client
	opts      Options
	rationale bool
}

// DelegateOption configures a Delegate.
type DelegateOption func(*Delegate)

// WithModelOptions adjusts the model options.
func WithModelOptions(fns ...func(*Options)) DelegateOption {
	return func(d *Delegate) {
		for _, fn := range fns {
			fn(&d.opts)
		}
	}
}

// WithRationale asks the model to justify each routing decision.
// The reason becomes a supervisor message in the conversation.
func WithRationale() DelegateOption {
	return func(d *Delegate) {
		d.rationale = true
	}
}

// NewDelegate wraps an SDK client.
func NewDelegate(client *openai.Client, opts ...DelegateOption) *Delegate {
	d := &Delegate{client: client, opts: defaultOptions(nil)}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decide implements ports.Delegate.
func (d *Delegate) Decide(ctx context.Context, options []string, conv domain.Conversation) (domain.Verdict, error) {
	messages := append([]openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(prompt.Supervisor(options)),
	}, conversationMessages(conv)...)
	messages = append(messages, openai.SystemMessage(
		fmt.Sprintf("Given the conversation above, who should act next? Select one of: %v", options)))

	params := openai.ChatCompletionNewParams{
		Model:    d.opts.Model,
		Messages: messages,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "route",
					Description: openai.String("The next worker to act"),
					Schema:      d.schema(options),
					Strict:      openai.Bool(true),
				},
			},
		},
	}
	if d.opts.Temperature > 0 {
		params.Temperature = openai.Float(d.opts.Temperature)
	}

	completion, err := d.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("openai routing call failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return domain.Verdict{}, fmt.Errorf("openai returned no choices")
	}

	var r route
	if err := json.Unmarshal([]byte(completion.Choices[0].Message.Content), &r); err != nil {
		return domain.Verdict{}, fmt.Errorf("failed to parse routing response: %w", err)
	}
	return domain.Verdict{Next: r.Next, Rationale: r.Reason}, nil
}

// schema reflects the route struct and pins "next" to the option list.
func (d *Delegate) schema(options []string) *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(&route{})
	schema.Version = ""

	if next, ok := schema.Properties.Get("next"); ok {
		next.Enum = make([]any, len(options))
		for i, o := range options {
			next.Enum[i] = o
		}
	}
	if !d.rationale {
		schema.Properties.Delete("reason")
		schema.Required = []string{"next"}
	}
	return schema
}
