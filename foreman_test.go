package foreman_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/foreman"
	"github.com/aretw0/foreman/internal/testutils"
	"github.com/aretw0/foreman/pkg/adapters/memory"
	"github.com/aretw0/foreman/pkg/domain"
	"github.com/aretw0/foreman/pkg/ports"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(run *foreman.Run) []domain.StreamEvent {
	return testutils.Drain(run.Events())
}

func TestNew_Validation(t *testing.T) {
	echo := testutils.EchoWorker{Name: "search"}

	tests := []struct {
		name string
		opts []foreman.Option
	}{
		{"No Workers", nil},
		{"Reserved Name", []foreman.Option{foreman.WithWorker(domain.Done, echo)}},
		{"Duplicate", []foreman.Option{foreman.WithWorker("search", echo), foreman.WithWorker("search", echo)}},
		{"Zero Step Limit", []foreman.Option{foreman.WithWorker("search", echo), foreman.WithStepLimit(0)}},
		{"Zero Buffer", []foreman.Option{foreman.WithWorker("search", echo), foreman.WithEventBuffer(0)}},
		{"Unknown Policy", []foreman.Option{foreman.WithWorker("search", echo), foreman.WithFailurePolicy("retry")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := foreman.New(testutils.NewScriptedDelegate(), tt.opts...)
			assert.ErrorIs(t, err, domain.ErrInvalidTeam)
		})
	}
}

func TestTeam_StartFiltersEvents(t *testing.T) {
	team, err := foreman.New(testutils.NewScriptedDelegate("search", "web_scraper", "search", domain.Done),
		foreman.WithWorker("search", testutils.EchoWorker{Name: "search", Content: "found"}),
		foreman.WithWorker("web_scraper", testutils.EchoWorker{Name: "web_scraper", Content: "<html>", Kind: domain.KindToolResult}),
	)
	require.NoError(t, err)

	run := team.Start(context.Background(), "research")
	events := collect(run)
	res := run.Wait()

	require.Len(t, events, 2)
	for _, ev := range events {
		assert.Equal(t, "search", ev.Source)
		assert.False(t, ev.IsToolResult)
		assert.Equal(t, run.ID(), ev.RunID)
	}
	assert.Less(t, events[0].Step, events[1].Step)
	assert.Equal(t, domain.StatusDone, res.Status)
	assert.Equal(t, 7, res.Steps)
	_, err = uuid.Parse(run.ID())
	assert.NoError(t, err, "run IDs are UUIDs")
}

func TestTeam_StepLimitEndsRunFailed(t *testing.T) {
	team, err := foreman.New(testutils.LoopDelegate{Worker: "search"},
		foreman.WithWorker("search", testutils.EchoWorker{Name: "search", Content: "again"}),
		foreman.WithStepLimit(4),
	)
	require.NoError(t, err)

	run := team.Start(context.Background(), "loop")
	events := collect(run)
	res := run.Wait()

	assert.Equal(t, domain.StatusFailed, res.Status)
	assert.LessOrEqual(t, res.Steps, 5)
	var bound *domain.StepBoundError
	require.ErrorAs(t, res.Err, &bound)
	assert.Equal(t, 4, bound.Limit)
	assert.Len(t, events, 2)
}

func TestTeam_Execute(t *testing.T) {
	team, err := foreman.New(testutils.NewScriptedDelegate("search", domain.Done),
		foreman.WithWorker("search", testutils.EchoWorker{Name: "search", Content: "4"}),
	)
	require.NoError(t, err)

	var contents []string
	res := team.Execute(context.Background(), "What is 2+2?", func(ev domain.StreamEvent) error {
		contents = append(contents, ev.Payload.Content())
		return nil
	})

	assert.Equal(t, domain.StatusDone, res.Status)
	assert.Equal(t, []string{"4"}, contents)
}

func TestTeam_ExecuteSinkFailureCancelsRun(t *testing.T) {
	team, err := foreman.New(testutils.LoopDelegate{Worker: "search"},
		foreman.WithWorker("search", testutils.EchoWorker{Name: "search", Content: "again"}),
	)
	require.NoError(t, err)

	calls := 0
	res := team.Execute(context.Background(), "loop", func(ev domain.StreamEvent) error {
		calls++
		return errors.New("client went away")
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, domain.StatusFailed, res.Status)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestTeam_ContextCancellation(t *testing.T) {
	block := make(chan struct{})
	worker := ports.WorkerFunc(func(ctx context.Context, conv domain.Conversation) (domain.Message, error) {
		close(block)
		<-ctx.Done()
		return domain.NewMessage("search", "late", domain.KindOrdinary), nil
	})
	team, err := foreman.New(testutils.NewScriptedDelegate("search", domain.Done), foreman.WithWorker("search", worker))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	run := team.Start(ctx, "research")
	<-block
	cancel()

	events := collect(run)
	res := run.Wait()
	assert.Empty(t, events, "an in-flight result is discarded")
	assert.Equal(t, domain.StatusFailed, res.Status)
}

func TestTeam_RecordsRuns(t *testing.T) {
	rec := memory.NewRecorder()
	team, err := foreman.New(testutils.NewScriptedDelegate("search", domain.Done),
		foreman.WithWorker("search", testutils.EchoWorker{Name: "search", Content: "ok"}),
		foreman.WithRecorder(rec),
	)
	require.NoError(t, err)

	run := team.Start(context.Background(), "research")
	collect(run)
	run.Wait()

	got, err := rec.Load(context.Background(), run.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, got.Status)
	assert.Equal(t, 3, got.Steps)
	assert.Equal(t, []string{"supervisor", "search", "supervisor", "done"}, got.Path)
	assert.Empty(t, got.Error)
	require.NotNil(t, got.FinishedAt)
	assert.False(t, got.FinishedAt.Before(got.StartedAt))
}

type failingRecorder struct{ ports.RunRecorder }

func (failingRecorder) Save(ctx context.Context, rec domain.RunRecord) error {
	return errors.New("disk full")
}

func TestTeam_RecorderFailureIsNotFatal(t *testing.T) {
	team, err := foreman.New(testutils.NewScriptedDelegate(domain.Done),
		foreman.WithWorker("search", testutils.EchoWorker{Name: "search"}),
		foreman.WithRecorder(failingRecorder{}),
	)
	require.NoError(t, err)

	res := team.Execute(context.Background(), "x", func(domain.StreamEvent) error { return nil })
	assert.Equal(t, domain.StatusDone, res.Status)
}

func TestTeam_ConcurrentRunsAreIndependent(t *testing.T) {
	team, err := foreman.New(testutils.LoopDelegate{Worker: "search"},
		foreman.WithWorker("search", testutils.EchoWorker{Name: "search", Content: "again"}),
		foreman.WithStepLimit(6),
		foreman.WithEventBuffer(4),
	)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]domain.RunResult, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = team.Execute(context.Background(), "loop", func(domain.StreamEvent) error { return nil })
		}(i)
	}
	wg.Wait()

	ids := make(map[string]bool)
	for _, res := range results {
		assert.Equal(t, domain.StatusFailed, res.Status)
		assert.Equal(t, 7, res.Steps)
		ids[res.RunID] = true
	}
	assert.Len(t, ids, len(results))
}

func TestTeam_EmptyTaskUsesDefault(t *testing.T) {
	seen := make(chan string, 1)
	worker := ports.WorkerFunc(func(ctx context.Context, conv domain.Conversation) (domain.Message, error) {
		seen <- conv.At(0).Content()
		return domain.NewMessage("search", "ok", domain.KindOrdinary), nil
	})
	team, err := foreman.New(testutils.NewScriptedDelegate("search", domain.Done), foreman.WithWorker("search", worker))
	require.NoError(t, err)

	team.Execute(context.Background(), "", func(domain.StreamEvent) error { return nil })

	select {
	case task := <-seen:
		assert.Equal(t, foreman.DefaultTask, task)
	case <-time.After(time.Second):
		t.Fatal("worker was not called")
	}
}

func TestLoggingHooks(t *testing.T) {
	hooks := foreman.LoggingHooks(testutils.NewTestLogger(t))
	team, err := foreman.New(testutils.NewScriptedDelegate("search", domain.Done),
		foreman.WithWorker("search", testutils.EchoWorker{Name: "search", Content: "ok"}),
		foreman.WithLifecycleHooks(hooks),
	)
	require.NoError(t, err)

	res := team.Execute(context.Background(), "x", func(domain.StreamEvent) error { return nil })
	assert.Equal(t, domain.StatusDone, res.Status)
}
