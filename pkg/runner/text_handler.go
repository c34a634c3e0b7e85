package runner

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/foreman/pkg/domain"
)

// ContentRenderer transforms report content before it is printed, e.g.
// markdown to ANSI.
type ContentRenderer func(string) (string, error)

// SpeakerFormatter formats the name printed above a worker's report.
type SpeakerFormatter func(name string) string

// TextHandler prints worker reports for people.
type TextHandler struct {
	Writer   io.Writer
	Renderer ContentRenderer
	Speaker  SpeakerFormatter
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithRenderer configures the content renderer.
func WithRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithSpeaker configures the speaker label.
func WithSpeaker(speaker SpeakerFormatter) TextHandlerOption {
	return func(h *TextHandler) {
		h.Speaker = speaker
	}
}

// NewTextHandler creates a handler writing to w (stdout when nil).
func NewTextHandler(w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Writer:  w,
		Speaker: func(name string) string { return "[" + name + "]" },
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Event prints one report. A renderer failure falls back to the raw text.
func (h *TextHandler) Event(ctx context.Context, ev domain.StreamEvent) error {
	content := ev.Payload.Content()
	if h.Renderer != nil {
		if rendered, err := h.Renderer(content); err == nil {
			content = rendered
		}
	}
	_, err := fmt.Fprintf(h.Writer, "%s\n%s\n", h.Speaker(ev.Source), content)
	return err
}

// Done prints the outcome of the run.
func (h *TextHandler) Done(ctx context.Context, res domain.RunResult) error {
	var err error
	if res.Status == domain.StatusFailed {
		_, err = fmt.Fprintf(h.Writer, "run failed after %d steps: %v\n", res.Steps, res.Err)
	} else {
		_, err = fmt.Fprintf(h.Writer, "done in %d steps\n", res.Steps)
	}
	return err
}
