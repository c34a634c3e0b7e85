// Package anthropic implements the supervisor Delegate on the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aretw0/foreman/internal/prompt"
	"github.com/aretw0/foreman/pkg/domain"
)

// DefaultModel is used when no model is configured.
const DefaultModel = anthropic.ModelClaudeSonnet4_20250514

// DefaultMaxTokens caps a routing reply.
const DefaultMaxTokens = 256

// Delegate asks Claude which worker should act next.
//
// The Messages API has no enum-constrained output, so the reply is parsed
// leniently: a JSON object {"next": ..., "reason": ...} anywhere in the text,
// or else the whole trimmed text as the worker name. The supervisor rejects
// anything outside the option list.
type Delegate struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	rationale bool
}

// Option configures a Delegate.
type Option func(*Delegate)

// WithModel overrides DefaultModel.
func WithModel(model string) Option {
	return func(d *Delegate) {
		if model != "" {
			d.model = anthropic.Model(model)
		}
	}
}

// WithMaxTokens overrides DefaultMaxTokens.
func WithMaxTokens(n int64) Option {
	return func(d *Delegate) {
		if n > 0 {
			d.maxTokens = n
		}
	}
}

// WithRationale asks the model to justify each routing decision.
func WithRationale() Option {
	return func(d *Delegate) {
		d.rationale = true
	}
}

// WithRequestOptions passes options through to the SDK client, e.g. a base URL.
func WithRequestOptions(opts ...option.RequestOption) Option {
	return func(d *Delegate) {
		d.client = anthropic.NewClient(opts...)
	}
}

// NewDelegate builds a Delegate. An empty apiKey falls back to ANTHROPIC_API_KEY.
func NewDelegate(apiKey string, opts ...Option) *Delegate {
	var reqOpts []option.RequestOption
	if apiKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(apiKey))
	}
	d := &Delegate{
		client:    anthropic.NewClient(reqOpts...),
		model:     DefaultModel,
		maxTokens: DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type route struct {
	Next   string `json:"next"`
	Reason string `json:"reason"`
}

// Decide implements ports.Delegate.
func (d *Delegate) Decide(ctx context.Context, options []string, conv domain.Conversation) (domain.Verdict, error) {
	resp, err := d.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     d.model,
		MaxTokens: d.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: prompt.Supervisor(options)}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(d.instruction(options, conv))),
		},
	})
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("anthropic routing call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(tb.Text)
		}
	}
	reply := strings.TrimSpace(text.String())
	if reply == "" {
		return domain.Verdict{}, fmt.Errorf("anthropic returned no text")
	}

	var r route
	if err := prompt.DecodeJSON(reply, &r); err != nil {
		return domain.Verdict{}, fmt.Errorf("failed to parse routing response: %w", err)
	}
	if r.Next == "" {
		return domain.Verdict{}, fmt.Errorf("failed to parse routing response: missing \"next\"")
	}
	v := domain.Verdict{Next: r.Next}
	if d.rationale {
		v.Rationale = r.Reason
	}
	return v, nil
}

func (d *Delegate) instruction(options []string, conv domain.Conversation) string {
	var sb strings.Builder
	sb.WriteString(prompt.Transcript(conv))
	fmt.Fprintf(&sb, "\n\nGiven the conversation above, who should act next? Select one of: %s.\n",
		strings.Join(options, ", "))
	if d.rationale {
		sb.WriteString(`Answer with a JSON object only: {"next": "<choice>", "reason": "<one sentence>"}`)
	} else {
		sb.WriteString(`Answer with a JSON object only: {"next": "<choice>"}`)
	}
	return sb.String()
}
