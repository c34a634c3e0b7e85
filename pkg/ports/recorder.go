package ports

import (
	"context"

	"github.com/aretw0/foreman/pkg/domain"
)

// RunRecorder persists run metadata so finished and in-flight runs can be listed.
type RunRecorder interface {
	// Save creates or replaces the record with the same ID.
	Save(ctx context.Context, rec domain.RunRecord) error

	// Load retrieves a record.
	// Returns domain.ErrRunNotFound if the run does not exist.
	Load(ctx context.Context, runID string) (*domain.RunRecord, error)

	// Delete removes a record.
	Delete(ctx context.Context, runID string) error

	// List returns the IDs of all known runs.
	List(ctx context.Context) ([]string, error)
}
