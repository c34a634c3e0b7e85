package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/foreman/pkg/adapters/sqlite"
	"github.com/aretw0/foreman/pkg/domain"
	"github.com/aretw0/foreman/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *sqlite.Recorder {
	t.Helper()
	rec, err := sqlite.Open(filepath.Join(t.TempDir(), "nested", "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rec.Close() })
	return rec
}

func TestSQLiteRecorder_Contract(t *testing.T) {
	ports.RunRecorderContract(t, openTemp(t))
}

func TestSQLiteRecorder_InMemory(t *testing.T) {
	rec, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	defer rec.Close()

	ports.RunRecorderContract(t, rec)
}

func TestSQLiteRecorder_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	rec := openTemp(t)
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	starts := map[string]time.Time{
		"whole second": base,
		"tenth":        base.Add(100 * time.Millisecond),
		"half":         base.Add(500 * time.Millisecond),
		"half plus":    base.Add(510 * time.Millisecond),
		"next minute":  base.Add(time.Minute),
	}
	for id, at := range starts {
		require.NoError(t, rec.Save(ctx, domain.RunRecord{ID: id, Status: domain.StatusDone, StartedAt: at}))
	}

	ids, err := rec.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"next minute", "half plus", "half", "tenth", "whole second"}, ids)
}

func TestSQLiteRecorder_KeepsNanoseconds(t *testing.T) {
	ctx := context.Background()
	rec := openTemp(t)
	at := time.Date(2026, 1, 1, 10, 0, 0, 123456789, time.UTC)
	require.NoError(t, rec.Save(ctx, domain.RunRecord{ID: "r1", Status: domain.StatusDone, StartedAt: at, FinishedAt: &at}))

	loaded, err := rec.Load(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, at.Equal(loaded.StartedAt))
	require.NotNil(t, loaded.FinishedAt)
	assert.True(t, at.Equal(*loaded.FinishedAt))
}

func TestSQLiteRecorder_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "runs.db")

	first, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, domain.RunRecord{
		ID:        "r1",
		Status:    domain.StatusDone,
		Steps:     2,
		Path:      []string{"supervisor", "search", "supervisor", "done"},
		StartedAt: time.Now().UTC(),
	}))
	require.NoError(t, first.Close())

	second, err := sqlite.Open(path)
	require.NoError(t, err)
	defer second.Close()

	loaded, err := second.Load(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, loaded.Status)
	assert.Equal(t, []string{"supervisor", "search", "supervisor", "done"}, loaded.Path)
	assert.Nil(t, loaded.FinishedAt)
}
