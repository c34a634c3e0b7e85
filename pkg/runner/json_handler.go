package runner

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/aretw0/foreman/pkg/domain"
)

// EventLine is the JSON-Lines shape of one report.
type EventLine struct {
	Type    string `json:"type"`
	RunID   string `json:"run_id"`
	Step    int    `json:"step"`
	Source  string `json:"source"`
	Content string `json:"content"`
}

// ResultLine is the JSON-Lines shape of the run outcome.
type ResultLine struct {
	Type   string   `json:"type"`
	RunID  string   `json:"run_id"`
	Status string   `json:"status"`
	Steps  int      `json:"steps"`
	Path   []string `json:"path"`
	Error  string   `json:"error,omitempty"`
}

// JSONHandler writes one JSON object per line.
type JSONHandler struct {
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler writing to w (stdout when nil).
func NewJSONHandler(w io.Writer) *JSONHandler {
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{Encoder: json.NewEncoder(w)}
}

// Event writes an "event" line.
func (h *JSONHandler) Event(ctx context.Context, ev domain.StreamEvent) error {
	return h.Encoder.Encode(EventLine{
		Type:    "event",
		RunID:   ev.RunID,
		Step:    ev.Step,
		Source:  ev.Source,
		Content: ev.Payload.Content(),
	})
}

// Done writes a "result" line.
func (h *JSONHandler) Done(ctx context.Context, res domain.RunResult) error {
	line := ResultLine{
		Type:   "result",
		RunID:  res.RunID,
		Status: string(res.Status),
		Steps:  res.Steps,
		Path:   res.Path,
	}
	if res.Err != nil {
		line.Error = res.Err.Error()
	}
	return h.Encoder.Encode(line)
}
