package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/foreman/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

const defaultPrefix = "foreman:run:"

// Recorder implements ports.RunRecorder on Redis.
// Records are JSON values under <prefix><id>; <prefix>index is a sorted set
// scored by start time in microseconds.
type Recorder struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithTTL expires records ttl after their last save. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(r *Recorder) {
		r.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(r *Recorder) {
		r.prefix = prefix
	}
}

// New connects to the Redis server at addr and verifies the connection.
func New(ctx context.Context, addr string, opts ...Option) (*Recorder, error) {
	client := backend.NewClient(&backend.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return NewFromClient(client, opts...), nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Recorder {
	r := &Recorder{
		client: client,
		prefix: defaultPrefix,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Close releases the underlying client.
func (r *Recorder) Close() error {
	return r.client.Close()
}

func (r *Recorder) key(runID string) string { return r.prefix + runID }
func (r *Recorder) indexKey() string        { return r.prefix + "index" }

// Save writes the record and refreshes its index entry.
func (r *Recorder) Save(ctx context.Context, rec domain.RunRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal run record: %w", err)
	}

	score := float64(rec.StartedAt.UnixMicro())

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.key(rec.ID), data, r.ttl)
	pipe.ZAdd(ctx, r.indexKey(), backend.Z{Score: score, Member: rec.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save run %s: %w", rec.ID, err)
	}
	return nil
}

// Load reads a record.
func (r *Recorder) Load(ctx context.Context, runID string) (*domain.RunRecord, error) {
	data, err := r.client.Get(ctx, r.key(runID)).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, domain.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
	}

	var rec domain.RunRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run %s: %w", runID, err)
	}
	return &rec, nil
}

// Delete removes the record and its index entry.
func (r *Recorder) Delete(ctx context.Context, runID string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.key(runID))
	pipe.ZRem(ctx, r.indexKey(), runID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete run %s: %w", runID, err)
	}
	return nil
}

// List returns run IDs, most recently started first.
// Index entries whose record has expired are pruned.
func (r *Recorder) List(ctx context.Context) ([]string, error) {
	ids, err := r.client.ZRevRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	if len(ids) == 0 {
		return ids, nil
	}

	pipe := r.client.Pipeline()
	exists := make([]*backend.IntCmd, len(ids))
	for i, id := range ids {
		exists[i] = pipe.Exists(ctx, r.key(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	live := ids[:0]
	var stale []any
	for i, id := range ids {
		if exists[i].Val() > 0 {
			live = append(live, id)
		} else {
			stale = append(stale, id)
		}
	}
	if len(stale) > 0 {
		if err := r.client.ZRem(ctx, r.indexKey(), stale...).Err(); err != nil {
			return nil, fmt.Errorf("failed to prune run index: %w", err)
		}
	}
	return live, nil
}
