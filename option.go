package guard

import "time"

type breakerConfig struct {
	name  string
	clock Clock

	onStateChange StateChangeFunc
	onReject      RejectFunc
}

// BreakerOption configures a CircuitBreaker.
type BreakerOption func(*breakerConfig)

// WithName names the circuit, typically after the service it protects.
// The name is passed to every hook. Default is "circuit".
func WithName(name string) BreakerOption {
	return func(c *breakerConfig) {
		c.name = name
	}
}

// WithClock sets the clock for time operations. Useful for testing. An
// executor built on the breaker sleeps through the same clock.
func WithClock(clock Clock) BreakerOption {
	return func(c *breakerConfig) {
		c.clock = clock
	}
}

// OnStateChange sets a hook called after the circuit changes state. The hook
// runs outside the breaker's lock and is never required for correctness.
func OnStateChange(fn StateChangeFunc) BreakerOption {
	return func(c *breakerConfig) {
		c.onStateChange = fn
	}
}

// OnReject sets a hook called when an attempt is denied because the circuit
// is open or the half-open probe bound is reached.
func OnReject(fn RejectFunc) BreakerOption {
	return func(c *breakerConfig) {
		c.onReject = fn
	}
}

type retryConfig struct {
	jitter Jitter
}

// RetryOption configures a RetryPolicy.
type RetryOption func(*retryConfig)

// WithJitter sets the jitter strategy for randomizing backoff delays.
// Default is FullJitter.
func WithJitter(j Jitter) RetryOption {
	return func(c *retryConfig) {
		c.jitter = j
	}
}

type executorConfig struct {
	classifier     Classifier
	attemptTimeout time.Duration
	onAttempt      AttemptFunc
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*executorConfig)

// WithClassifier sets the classifier that decides what each attempt's raw
// error means. Default is DefaultClassifier.
func WithClassifier(c Classifier) ExecutorOption {
	return func(cfg *executorConfig) {
		cfg.classifier = c
	}
}

// WithAttemptTimeout bounds each individual attempt with its own deadline,
// independent of the caller's overall budget.
func WithAttemptTimeout(d time.Duration) ExecutorOption {
	return func(cfg *executorConfig) {
		cfg.attemptTimeout = d
	}
}

// OnAttempt sets a hook called after every attempt with its classified
// outcome, before the next attempt supersedes it. The hook runs outside any
// lock.
func OnAttempt(fn AttemptFunc) ExecutorOption {
	return func(cfg *executorConfig) {
		cfg.onAttempt = fn
	}
}
