package guard

import (
	"math"
	"math/rand"
	"time"
)

// Jitter represents how much randomness is added to backoff delays. Jitter
// spreads out retries from many clients so they do not hit a recovering
// service in synchronized waves.
//
// The added delay is random in [0, jitter * baseDelay).
type Jitter float64

// FullJitter adds a random delay of up to one full base delay.
const FullJitter Jitter = 1.0

// EqualJitter adds a random delay of up to half a base delay.
const EqualJitter Jitter = 0.5

// WithoutJitter disables jitter entirely. Useful for deterministic tests.
const WithoutJitter Jitter = 0

// jitter returns the random component to add on top of a computed delay,
// bounded by the base delay.
func (j Jitter) jitter(base time.Duration) time.Duration {
	if j <= 0 || base <= 0 {
		return 0
	}
	//nolint:gosec // math/rand is sufficient for jitter
	return time.Duration(rand.Float64() * float64(j) * float64(base))
}

// RetryPolicy decides whether a failed attempt should be retried and how
// long to wait before the next one. A policy is stateless configuration and
// may be shared; the attempt index lives in the executor's loop, scoped to
// one logical call.
type RetryPolicy struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	jitter      Jitter
}

// NewRetryPolicy creates a policy allowing up to maxAttempts attempts with
// exponential backoff growing from baseDelay and capped at maxDelay. Full
// jitter is applied by default.
func NewRetryPolicy(maxAttempts int, baseDelay, maxDelay time.Duration, opts ...RetryOption) *RetryPolicy {
	cfg := retryConfig{
		jitter: FullJitter,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if maxDelay < baseDelay {
		maxDelay = baseDelay
	}

	return &RetryPolicy{
		maxAttempts: max(1, maxAttempts),
		baseDelay:   baseDelay,
		maxDelay:    maxDelay,
		jitter:      cfg.jitter,
	}
}

// MaxAttempts returns the hard bound on attempts per logical call.
func (p *RetryPolicy) MaxAttempts() int {
	return p.maxAttempts
}

// NextDelay returns the backoff to sleep after attempt attemptIndex:
// min(maxDelay, baseDelay * 2^attemptIndex) plus bounded random jitter.
func (p *RetryPolicy) NextDelay(attemptIndex int) time.Duration {
	f := float64(p.baseDelay) * math.Pow(2, float64(attemptIndex))

	delay := time.Duration(f)
	if delay < p.baseDelay {
		// Overflow or a negative index clamps to the base.
		delay = p.baseDelay
	}
	if delay > p.maxDelay {
		delay = p.maxDelay
	}

	return delay + p.jitter.jitter(p.baseDelay)
}

// ShouldRetry reports whether another attempt should be made after attempt
// attemptIndex finished with the given outcome. Only retriable failures are
// retried, and only while attempts remain.
func (p *RetryPolicy) ShouldRetry(attemptIndex int, out Outcome) bool {
	return attemptIndex+1 < p.maxAttempts && out.Kind == KindRetriable
}
