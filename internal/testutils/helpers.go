package testutils

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/aretw0/foreman/internal/logging"
	"github.com/aretw0/foreman/pkg/domain"
	"github.com/stretchr/testify/mock"
)

// ErrScriptExhausted is returned by ScriptedDelegate when it runs out of answers.
var ErrScriptExhausted = errors.New("scripted delegate: no more answers")

// ScriptedDelegate answers with a fixed sequence of worker identities.
// It is safe for concurrent use.
type ScriptedDelegate struct {
	mu      sync.Mutex
	answers []string
	calls   int
}

// NewScriptedDelegate creates a delegate returning answers in order.
func NewScriptedDelegate(answers ...string) *ScriptedDelegate {
	return &ScriptedDelegate{answers: answers}
}

// Decide returns the next scripted answer.
func (d *ScriptedDelegate) Decide(ctx context.Context, options []string, conv domain.Conversation) (domain.Verdict, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.calls >= len(d.answers) {
		return domain.Verdict{}, ErrScriptExhausted
	}
	answer := d.answers[d.calls]
	d.calls++
	return domain.Verdict{Next: answer}, nil
}

// Calls returns how many times Decide was called.
func (d *ScriptedDelegate) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// LoopDelegate always routes to the same worker and never finishes.
type LoopDelegate struct {
	Worker string
}

// Decide returns d.Worker.
func (d LoopDelegate) Decide(ctx context.Context, options []string, conv domain.Conversation) (domain.Verdict, error) {
	return domain.Verdict{Next: d.Worker}, nil
}

// EchoWorker answers with a fixed content authored by Name.
type EchoWorker struct {
	Name    string
	Content string
	Kind    domain.MessageKind
}

// Invoke returns the configured message.
func (w EchoWorker) Invoke(ctx context.Context, conv domain.Conversation) (domain.Message, error) {
	return domain.NewMessage(w.Name, w.Content, w.Kind), nil
}

// MockDelegate is a testify mock of ports.Delegate.
type MockDelegate struct {
	mock.Mock
}

// Decide records the call.
func (m *MockDelegate) Decide(ctx context.Context, options []string, conv domain.Conversation) (domain.Verdict, error) {
	args := m.Called(ctx, options, conv)
	return args.Get(0).(domain.Verdict), args.Error(1)
}

// MockWorker is a testify mock of ports.Worker.
type MockWorker struct {
	mock.Mock
}

// Invoke records the call.
func (m *MockWorker) Invoke(ctx context.Context, conv domain.Conversation) (domain.Message, error) {
	args := m.Called(ctx, conv)
	return args.Get(0).(domain.Message), args.Error(1)
}

// Drain collects every event sent on ch until it is closed.
func Drain(ch <-chan domain.StreamEvent) []domain.StreamEvent {
	var out []domain.StreamEvent
	for ev := range ch {
		out = append(out, ev)
	}
	return out
}

type testWriter struct{ t testing.TB }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// NewTestLogger returns a debug-level logger that writes through t.Log.
func NewTestLogger(t testing.TB) *slog.Logger {
	return logging.NewWithWriter(testWriter{t}, slog.LevelDebug, logging.FormatText)
}
