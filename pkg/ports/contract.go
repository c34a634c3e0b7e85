package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/foreman/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunRecorderContract runs a suite of tests to verify that a RunRecorder implementation
// adheres to the defined interface contract.
func RunRecorderContract(t *testing.T, rec RunRecorder) {
	ctx := context.Background()
	runID := "contract-test-run-" + time.Now().Format("20060102150405")
	started := time.Now().UTC().Truncate(time.Second)

	t.Run("Save and Load", func(t *testing.T) {
		record := domain.RunRecord{
			ID:        runID,
			Status:    domain.StatusRunning,
			StartedAt: started,
		}
		require.NoError(t, rec.Save(ctx, record), "Save should not return error")

		loaded, err := rec.Load(ctx, runID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, domain.StatusRunning, loaded.Status)
		assert.True(t, started.Equal(loaded.StartedAt))
		assert.Nil(t, loaded.FinishedAt)
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		record := domain.RunRecord{ID: runID, Status: domain.StatusRunning, StartedAt: started}
		record.Finish(domain.RunResult{
			RunID:  runID,
			Status: domain.StatusFailed,
			Steps:  3,
			Path:   []string{"supervisor", "search", "supervisor"},
			Err:    &domain.StepBoundError{Limit: 2, Step: 3},
		}, started.Add(time.Second))
		require.NoError(t, rec.Save(ctx, record))

		loaded, err := rec.Load(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusFailed, loaded.Status)
		assert.Equal(t, 3, loaded.Steps)
		assert.Equal(t, []string{"supervisor", "search", "supervisor"}, loaded.Path)
		assert.Contains(t, loaded.Error, "step bound exceeded")
		require.NotNil(t, loaded.FinishedAt)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := rec.Load(ctx, "non-existent-"+runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, rec.Save(ctx, domain.RunRecord{ID: runID, Status: domain.StatusDone, StartedAt: started}))

		require.NoError(t, rec.Delete(ctx, runID), "Delete should not return error")

		_, err := rec.Load(ctx, runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound, "Load after Delete should return ErrRunNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := runID + "-1"
		id2 := runID + "-2"
		_ = rec.Save(ctx, domain.RunRecord{ID: id1, Status: domain.StatusRunning, StartedAt: started})
		_ = rec.Save(ctx, domain.RunRecord{ID: id2, Status: domain.StatusDone, StartedAt: started})

		defer func() {
			_ = rec.Delete(ctx, id1)
			_ = rec.Delete(ctx, id2)
		}()

		runs, err := rec.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, runs, id1)
		assert.Contains(t, runs, id2)
	})

	t.Run("List Newest Started First", func(t *testing.T) {
		base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
		newer := runID + "-newer"
		older := runID + "-older"
		// Sub-second starts, saved out of order.
		require.NoError(t, rec.Save(ctx, domain.RunRecord{ID: newer, Status: domain.StatusRunning, StartedAt: base.Add(100 * time.Millisecond)}))
		require.NoError(t, rec.Save(ctx, domain.RunRecord{ID: older, Status: domain.StatusDone, StartedAt: base}))

		defer func() {
			_ = rec.Delete(ctx, newer)
			_ = rec.Delete(ctx, older)
		}()

		runs, err := rec.List(ctx)
		require.NoError(t, err)
		iNewer, iOlder := indexOf(runs, newer), indexOf(runs, older)
		require.GreaterOrEqual(t, iNewer, 0)
		require.GreaterOrEqual(t, iOlder, 0)
		assert.Less(t, iNewer, iOlder, "runs should be listed most recently started first: %v", runs)
	})
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
