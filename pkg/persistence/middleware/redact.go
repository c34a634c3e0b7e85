package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/foreman/pkg/domain"
	"github.com/aretw0/foreman/pkg/ports"
)

// Mask replaces every redacted match.
const Mask = "***"

// DefaultSecretPatterns match credentials that provider errors tend to echo back.
var DefaultSecretPatterns = []string{
	`sk-[A-Za-z0-9_\-]{8,}`,
	`sk-ant-[A-Za-z0-9_\-]{8,}`,
	`tvly-[A-Za-z0-9_\-]{8,}`,
	`(?i)bearer\s+[A-Za-z0-9._\-]+`,
	`(?i)(api[_-]?key=)[^&\s"]+`,
}

type redactMiddleware struct {
	next     ports.RunRecorder
	patterns []*regexp.Regexp
}

// NewRedactMiddleware masks pattern matches in a record's error text before
// it is stored. Records carry no message contents, so the error is the only
// free-form field. It panics on an invalid pattern.
func NewRedactMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.RunRecorder) ports.RunRecorder {
		return &redactMiddleware{next: next, patterns: patterns}
	}
}

func (m *redactMiddleware) Save(ctx context.Context, rec domain.RunRecord) error {
	if rec.Error != "" {
		rec.Error = m.redact(rec.Error)
	}
	return m.next.Save(ctx, rec)
}

func (m *redactMiddleware) Load(ctx context.Context, runID string) (*domain.RunRecord, error) {
	return m.next.Load(ctx, runID)
}

func (m *redactMiddleware) Delete(ctx context.Context, runID string) error {
	return m.next.Delete(ctx, runID)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *redactMiddleware) redact(s string) string {
	for _, p := range m.patterns {
		if p.NumSubexp() > 0 {
			s = p.ReplaceAllString(s, "${1}"+Mask)
		} else {
			s = p.ReplaceAllString(s, Mask)
		}
	}
	return s
}
