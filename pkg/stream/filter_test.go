package stream

import (
	"context"
	"testing"

	"github.com/aretw0/foreman/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(step int, source, content string, kind domain.MessageKind) domain.StreamEvent {
	return domain.NewStreamEvent("run-1", step, source, domain.NewMessage(source, content, kind))
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name string
		ev   domain.StreamEvent
		keep bool
	}{
		{"worker prose", event(2, "search", "answer", domain.KindOrdinary), true},
		{"empty worker message", event(2, "search", "", domain.KindOrdinary), true},
		{"worker tool result", event(2, "search", "{raw}", domain.KindToolResult), false},
		{"supervisor deliberation", event(1, domain.SupervisorName, "next: search", domain.KindOrdinary), false},
		{"supervisor tool result", event(1, domain.SupervisorName, "x", domain.KindToolResult), false},
		{"flag without kind", domain.StreamEvent{Source: "search", IsToolResult: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, keep := Filter(tt.ev)
			assert.Equal(t, tt.keep, keep)
			if keep {
				assert.Equal(t, tt.ev, got, "survivors are forwarded verbatim")
			}
		})
	}
}

func TestPipe_PreservesOrderOfSurvivors(t *testing.T) {
	input := []domain.StreamEvent{
		event(1, domain.SupervisorName, "next: search", domain.KindOrdinary),
		event(2, "search", "first", domain.KindOrdinary),
		event(3, domain.SupervisorName, "next: web_scraper", domain.KindOrdinary),
		event(4, "web_scraper", "<html>", domain.KindToolResult),
		event(5, "web_scraper", "second", domain.KindOrdinary),
		event(6, "search", "third", domain.KindOrdinary),
	}
	in := make(chan domain.StreamEvent, len(input))
	for _, ev := range input {
		in <- ev
	}
	close(in)
	out := make(chan domain.StreamEvent)

	go Pipe(context.Background(), in, out)

	var contents []string
	for ev := range out {
		assert.NotEqual(t, domain.SupervisorName, ev.Source)
		assert.False(t, ev.IsToolResult)
		contents = append(contents, ev.Payload.Content())
	}
	assert.Equal(t, []string{"first", "second", "third"}, contents)
}

func TestPipe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan domain.StreamEvent)
	out := make(chan domain.StreamEvent)
	done := make(chan struct{})

	go func() {
		Pipe(ctx, in, out)
		close(done)
	}()
	cancel()
	<-done

	_, ok := <-out
	require.False(t, ok, "out must be closed")
}
