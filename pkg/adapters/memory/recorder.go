package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/foreman/pkg/domain"
)

// Recorder implements ports.RunRecorder in memory.
// Safe for concurrent use.
type Recorder struct {
	data map[string]domain.RunRecord
	mu   sync.RWMutex
}

// NewRecorder creates a new in-memory recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		data: make(map[string]domain.RunRecord),
	}
}

// Save stores a copy of rec.
func (r *Recorder) Save(ctx context.Context, rec domain.RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[rec.ID] = clone(rec)
	return nil
}

// Load returns a copy so callers cannot mutate the stored record.
func (r *Recorder) Load(ctx context.Context, runID string) (*domain.RunRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.data[runID]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	ret := clone(rec)
	return &ret, nil
}

// Delete removes the record. Deleting an unknown run is not an error.
func (r *Recorder) Delete(ctx context.Context, runID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, runID)
	return nil
}

// List returns the known run IDs, most recently started first.
func (r *Recorder) List(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	recs := make([]domain.RunRecord, 0, len(r.data))
	for _, rec := range r.data {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].StartedAt.Equal(recs[j].StartedAt) {
			return recs[i].ID < recs[j].ID
		}
		return recs[i].StartedAt.After(recs[j].StartedAt)
	})

	ids := make([]string, len(recs))
	for i, rec := range recs {
		ids[i] = rec.ID
	}
	return ids, nil
}

func clone(rec domain.RunRecord) domain.RunRecord {
	rec.Path = append([]string(nil), rec.Path...)
	if rec.FinishedAt != nil {
		at := *rec.FinishedAt
		rec.FinishedAt = &at
	}
	return rec
}
