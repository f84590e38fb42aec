package guard

import (
	"context"
	"time"

	"go.uber.org/atomic"
)

// AttemptFunc is called after each attempt with its classified outcome.
type AttemptFunc func(name string, attemptIndex int, out Outcome)

// Executor composes a circuit breaker with a retry policy. Every individual
// attempt is gated by the breaker and individually recorded into it; the
// retry policy only ever decides whether to attempt again, never whether the
// breaker counted an attempt.
//
// Because the breaker is consulted before every attempt rather than once per
// logical call, a circuit that opens mid-sequence stops further attempts
// immediately instead of burning the remaining retry budget against a dead
// service.
type Executor struct {
	breaker    *CircuitBreaker
	policy     *RetryPolicy
	classifier Classifier
	clock      Clock

	attemptTimeout time.Duration
	onAttempt      AttemptFunc

	attempts   atomic.Int64
	successes  atomic.Int64
	failures   atomic.Int64
	rejections atomic.Int64
}

// NewExecutor creates an executor wrapping calls with the given breaker and
// retry policy. Backoff sleeps use the breaker's clock.
func NewExecutor(breaker *CircuitBreaker, policy *RetryPolicy, opts ...ExecutorOption) *Executor {
	cfg := executorConfig{
		classifier: DefaultClassifier(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Executor{
		breaker:        breaker,
		policy:         policy,
		classifier:     cfg.classifier,
		clock:          breaker.clock,
		attemptTimeout: cfg.attemptTimeout,
		onAttempt:      cfg.onAttempt,
	}
}

// Do executes fn as one logical call: a bounded loop of attempts, each
// admitted by the breaker, classified, and recorded.
//
// Do returns nil on success, ErrOpen when the breaker denies an attempt, the
// classified error for a fatal failure, the context error when the caller's
// budget is spent, or an ExhaustedError once attempts run out.
func (e *Executor) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	for attempt := 0; ; attempt++ {
		ok, tok := e.breaker.Allow()
		if !ok {
			// An open breaker is itself the stop signal; retry never
			// absorbs it.
			e.rejections.Inc()
			return ErrOpen
		}

		out := e.classifier.Classify(e.attempt(ctx, fn))
		e.breaker.Record(tok, out)
		e.count(out)
		if e.onAttempt != nil {
			e.onAttempt(e.breaker.Name(), attempt, out)
		}

		if out.Kind == KindSuccess {
			return out.Err
		}

		// The caller's total budget wins over any remaining attempts.
		if err := ctx.Err(); err != nil {
			return err
		}

		if !e.policy.ShouldRetry(attempt, out) {
			if out.Kind == KindRetriable {
				return &ExhaustedError{Attempts: attempt + 1, Last: out.Err}
			}
			return out.Err
		}

		if err := e.clock.Sleep(ctx, e.policy.NextDelay(attempt)); err != nil {
			return err
		}
	}
}

// attempt runs fn once, bounded by the per-attempt timeout if one is set.
func (e *Executor) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	if e.attemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.attemptTimeout)
		defer cancel()
	}
	return fn(ctx)
}

func (e *Executor) count(out Outcome) {
	e.attempts.Inc()
	if out.Kind == KindSuccess {
		e.successes.Inc()
	} else {
		e.failures.Inc()
	}
}

// Stats are running totals across all logical calls through an executor.
type Stats struct {
	Attempts   int64
	Successes  int64
	Failures   int64
	Rejections int64
}

// Stats returns the executor's running totals.
func (e *Executor) Stats() Stats {
	return Stats{
		Attempts:   e.attempts.Load(),
		Successes:  e.successes.Load(),
		Failures:   e.failures.Load(),
		Rejections: e.rejections.Load(),
	}
}
