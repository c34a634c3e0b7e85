package middleware_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/foreman/pkg/adapters/memory"
	"github.com/aretw0/foreman/pkg/domain"
	"github.com/aretw0/foreman/pkg/persistence/middleware"
	"github.com/aretw0/foreman/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactMiddleware(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRecorder()
	rec := middleware.Chain(store, middleware.NewRedactMiddleware(middleware.DefaultSecretPatterns))

	tests := []struct {
		in, want string
	}{
		{`search failed: 401 for key sk-abcdefghijklmnop`, `search failed: 401 for key ***`},
		{`Authorization: Bearer abc.def-ghi rejected`, `Authorization: *** rejected`},
		{`bad key tvly-123456789abc`, `bad key ***`},
		{`GET /search?api_key=hunter2hunter2&q=x`, `GET /search?api_key=***&q=x`},
		{`step bound exceeded: step 3 > limit 2`, `step bound exceeded: step 3 > limit 2`},
	}
	for i, tt := range tests {
		id := string(rune('a' + i))
		require.NoError(t, rec.Save(ctx, domain.RunRecord{ID: id, Status: domain.StatusFailed, Error: tt.in, StartedAt: time.Now()}))

		got, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.Error, tt.in)
	}
}

func TestRedactMiddleware_Contract(t *testing.T) {
	ports.RunRecorderContract(t, middleware.Chain(memory.NewRecorder(), middleware.NewRedactMiddleware(nil)))
}

func TestChain_Order(t *testing.T) {
	var calls []string
	tag := func(name string) middleware.Middleware {
		return func(next ports.RunRecorder) ports.RunRecorder {
			return recorderFunc{next: next, before: func() { calls = append(calls, name) }}
		}
	}
	rec := middleware.Chain(memory.NewRecorder(), tag("outer"), tag("inner"))
	require.NoError(t, rec.Save(context.Background(), domain.RunRecord{ID: "x"}))
	assert.Equal(t, []string{"outer", "inner"}, calls)
}

type recorderFunc struct {
	ports.RunRecorder
	next   ports.RunRecorder
	before func()
}

func (r recorderFunc) Save(ctx context.Context, rec domain.RunRecord) error {
	r.before()
	return r.next.Save(ctx, rec)
}
