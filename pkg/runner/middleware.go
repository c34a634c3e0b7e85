package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aretw0/foreman/pkg/registry"
)

// ErrToolDenied is returned to the model when an interceptor blocks a call.
var ErrToolDenied = errors.New("tool call denied by policy")

// ToolInterceptor decides whether a tool call may run.
// It returns false to block the call; an error aborts it.
type ToolInterceptor func(ctx context.Context, tool string, args map[string]any) (bool, error)

// MultiInterceptor chains interceptors; the first denial wins.
func MultiInterceptor(interceptors ...ToolInterceptor) ToolInterceptor {
	return func(ctx context.Context, tool string, args map[string]any) (bool, error) {
		for _, interceptor := range interceptors {
			allowed, err := interceptor(ctx, tool, args)
			if err != nil || !allowed {
				return false, err
			}
		}
		return true, nil
	}
}

// AutoApproveMiddleware allows everything.
func AutoApproveMiddleware() ToolInterceptor {
	return func(ctx context.Context, tool string, args map[string]any) (bool, error) {
		return true, nil
	}
}

// AllowListMiddleware allows only the named tools.
func AllowListMiddleware(names ...string) ToolInterceptor {
	allowed := make(map[string]bool, len(names))
	for _, n := range names {
		allowed[n] = true
	}
	return func(ctx context.Context, tool string, args map[string]any) (bool, error) {
		return allowed[tool], nil
	}
}

// ConfirmationMiddleware asks on w and reads the answer from r before each
// call. Only "y" or "yes" approve. Prompts are serialised.
func ConfirmationMiddleware(r io.Reader, w io.Writer) ToolInterceptor {
	var mu sync.Mutex
	reader := bufio.NewReader(r)
	return func(ctx context.Context, tool string, args map[string]any) (bool, error) {
		mu.Lock()
		defer mu.Unlock()

		if _, err := fmt.Fprintf(w, "Tool request: %s %v\nAllow execution? [y/N] ", tool, args); err != nil {
			return false, err
		}
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			if errors.Is(err, io.EOF) {
				return false, nil
			}
			return false, err
		}
		answer := strings.TrimSpace(strings.ToLower(line))
		return answer == "y" || answer == "yes", nil
	}
}

// Guard returns a copy of reg whose tools consult interceptor before running.
// A denied call fails with ErrToolDenied, which the agent reports to its model.
func Guard(reg *registry.Registry, interceptor ToolInterceptor) *registry.Registry {
	guarded := registry.NewRegistry()
	for _, t := range reg.Tools() {
		t := t
		fn := t.Fn
		t.Fn = func(ctx context.Context, args map[string]any) (any, error) {
			allowed, err := interceptor(ctx, t.Name, args)
			if err != nil {
				return nil, fmt.Errorf("tool interceptor: %w", err)
			}
			if !allowed {
				return nil, fmt.Errorf("%w: %s", ErrToolDenied, t.Name)
			}
			return fn(ctx, args)
		}
		guarded.Add(t)
	}
	return guarded
}
