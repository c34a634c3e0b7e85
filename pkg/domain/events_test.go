package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeHooks_RunsInOrder(t *testing.T) {
	var calls []string
	first := LifecycleHooks{
		OnTransition: func(context.Context, *TransitionEvent) { calls = append(calls, "first") },
	}
	second := LifecycleHooks{
		OnTransition: func(context.Context, *TransitionEvent) { calls = append(calls, "second") },
		OnRunEnd:     func(context.Context, *RunResult) { calls = append(calls, "end") },
	}

	merged := MergeHooks(first, LifecycleHooks{}, second)
	merged.OnTransition(context.Background(), &TransitionEvent{})
	merged.OnRunEnd(context.Background(), &RunResult{})

	assert.Equal(t, []string{"first", "second", "end"}, calls)
	assert.Nil(t, merged.OnRoute)
}

func TestNewStreamEvent_DerivesToolResultFlag(t *testing.T) {
	ev := NewStreamEvent("run-1", 2, "search", NewMessage("search", "raw", KindToolResult))
	assert.True(t, ev.IsToolResult)

	ev = NewStreamEvent("run-1", 2, "search", NewMessage("search", "prose", KindOrdinary))
	assert.False(t, ev.IsToolResult)
}
