// Package llm wraps the chat-completion capability the summarization stages
// depend on. Callers treat every provider error uniformly: a failed request is
// a failed request, whatever the cause.
package llm

import (
	"context"
	"time"
)

// Completer is a synchronous chat-completion call: system prompt plus user
// prompt in, raw model text out.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// WithTimeout bounds every completion call on the wrapped Completer. A hung
// provider then fails like any other model error instead of stalling the run.
func WithTimeout(inner Completer, timeout time.Duration) Completer {
	return &timeoutCompleter{inner: inner, timeout: timeout}
}

type timeoutCompleter struct {
	inner   Completer
	timeout time.Duration
}

func (c *timeoutCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.inner.Complete(ctx, systemPrompt, userPrompt)
}
