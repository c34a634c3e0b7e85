package ports

import (
	"context"

	"github.com/aretw0/foreman/pkg/domain"
)

// Delegate is the reasoning component behind the supervisor.
// options lists the registered worker identities; the delegate is expected to
// answer with one of them or domain.Done. Its answer is untrusted.
type Delegate interface {
	Decide(ctx context.Context, options []string, conv domain.Conversation) (domain.Verdict, error)
}

// DelegateFunc adapts a plain function to the Delegate interface.
type DelegateFunc func(ctx context.Context, options []string, conv domain.Conversation) (domain.Verdict, error)

// Decide calls f.
func (f DelegateFunc) Decide(ctx context.Context, options []string, conv domain.Conversation) (domain.Verdict, error) {
	return f(ctx, options, conv)
}
