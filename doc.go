// Package guard composes a circuit breaker with a retry policy for resilient
// remote calls.
//
// guard separates failure sensing from failure absorption:
//
//   - CircuitBreaker: senses aggregate call health and gates whether an
//     attempt is made at all
//   - RetryPolicy: absorbs transient failures with bounded, jittered backoff
//   - Classifier: decides what an error means, once, for both of them
//   - Executor: wires the three together with the right contract
//
// The contract matters. Retry must never nest inside a single breaker-counted
// unit: the executor consults the breaker before every individual attempt and
// records every individual attempt's outcome, so a failure threshold of 5
// means exactly 5 failed calls, not 5 exhausted retry sequences.
//
// # Quick Start
//
// Build the three pieces once, share them across goroutines:
//
//	circuit := guard.NewCircuitBreaker(5, 30*time.Second, 2, 1,
//	    guard.WithName("payment-service"),
//	)
//	policy := guard.NewRetryPolicy(3, 100*time.Millisecond, 2*time.Second)
//	exec := guard.NewExecutor(circuit, policy)
//
//	err := exec.Do(ctx, func(ctx context.Context) error {
//	    return client.Charge(ctx, amount)
//	})
//	if guard.IsOpen(err) {
//	    return handleFallback()
//	}
//
// For functions that return values, use the generic Execute helper:
//
//	user, err := guard.Execute(ctx, exec, func(ctx context.Context) (*User, error) {
//	    return client.GetUser(ctx, id)
//	})
//
// # Circuit States
//
// The circuit breaker has three states:
//
//	Closed (normal):
//	    - Attempts flow through to the protected function
//	    - Breaker-relevant failures are counted
//	    - When failures reach the threshold, the circuit opens
//
//	Open (tripped):
//	    - Attempts are rejected immediately with ErrOpen
//	    - After the reset timeout, the circuit transitions to half-open
//
//	HalfOpen (testing):
//	    - A bounded number of concurrent probes are admitted
//	    - Enough consecutive successes close the circuit
//	    - Any relevant failure reopens it immediately
//
// # Classifying Failures
//
// Every attempt's error is classified into exactly one of three kinds:
//
//   - Success: the attempt worked
//   - Retriable: transient; counts against circuit health, eligible for retry
//   - Fatal: permanent (a caller bug, a 4xx-class error); never retried and
//     never counted against the circuit, which measures service health
//
// By default a nil error is a success, an error marked with Fatal is fatal,
// and everything else is retriable:
//
//	err := exec.Do(ctx, func(ctx context.Context) error {
//	    if err := validate(req); err != nil {
//	        return guard.Fatal(err) // don't retry, don't count
//	    }
//	    return client.Call(ctx, req)
//	})
//
// Plug in your own convention with WithClassifier:
//
//	exec := guard.NewExecutor(circuit, policy,
//	    guard.WithClassifier(guard.ClassifierFunc(func(err error) guard.Outcome {
//	        var httpErr *HTTPError
//	        switch {
//	        case err == nil:
//	            return guard.Outcome{Kind: guard.KindSuccess}
//	        case errors.As(err, &httpErr) && httpErr.Code < 500:
//	            return guard.Outcome{Kind: guard.KindFatal, Err: err}
//	        default:
//	            return guard.Outcome{Kind: guard.KindRetriable, Err: err}
//	        }
//	    })),
//	)
//
// # Backoff
//
// Delays grow exponentially from the base, capped at the max, with jitter
// added to avoid synchronized retry storms:
//
//	// 100ms, 200ms, 400ms, ... capped at 2s, each plus up to 100ms jitter
//	policy := guard.NewRetryPolicy(5, 100*time.Millisecond, 2*time.Second)
//
//	// Deterministic delays for tests
//	policy := guard.NewRetryPolicy(5, 100*time.Millisecond, 2*time.Second,
//	    guard.WithJitter(guard.WithoutJitter),
//	)
//
// # Errors
//
// Do and Execute surface exactly one error per logical call:
//
//   - nil on success
//   - ErrOpen when the breaker denies an attempt (check with IsOpen)
//   - the fatal error itself when classification says stop
//   - the context error when the caller's budget is spent
//   - an ExhaustedError wrapping the last attempt's error once attempts run
//     out (check with IsExhausted)
//
// Intermediate attempt errors are not silently discarded: each one is fed to
// the OnAttempt hook before the next attempt supersedes it.
//
// # Hooks
//
// Hooks provide observability without coupling to a logger or metrics
// system. They fire outside the breaker's lock and are never required for
// correctness:
//
//	circuit := guard.NewCircuitBreaker(5, 30*time.Second, 2, 1,
//	    guard.WithName("api"),
//	    guard.OnStateChange(func(name string, from, to guard.State, at time.Time) {
//	        logger.Warn("circuit state change", "circuit", name, "from", from, "to", to)
//	    }),
//	    guard.OnReject(func(name string) {
//	        metrics.Increment("circuit.rejected", "circuit:"+name)
//	    }),
//	)
//	exec := guard.NewExecutor(circuit, policy,
//	    guard.OnAttempt(func(name string, attempt int, out guard.Outcome) {
//	        metrics.Increment("circuit.attempt", "outcome:"+out.Kind.String())
//	    }),
//	)
//
// Ready-made adapters live in the guardprom (Prometheus) and guardslog
// (log/slog) packages.
//
// # Using the Breaker Directly
//
// Allow and Record are the breaker's whole mutable surface. Allow admits an
// attempt and hands back a token; Record feeds the classified outcome back
// under that token:
//
//	ok, tok := circuit.Allow()
//	if !ok {
//	    return guard.ErrOpen
//	}
//	err := call(ctx)
//	circuit.Record(tok, classifier.Classify(err))
//
// The token pins the outcome to the state generation it was admitted under.
// A slow call that straddles a state change cannot corrupt the counters of
// the new state, and half-open probe concurrency is bounded explicitly
// rather than left to chance. Recording the same token twice is a
// composition bug and panics.
//
// # Testing
//
// Inject a fake clock to control time in tests:
//
//	type fakeClock struct {
//	    now time.Time
//	}
//
//	func (c *fakeClock) Now() time.Time { return c.now }
//	func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
//	    c.now = c.now.Add(d)
//	    return ctx.Err()
//	}
//	func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }
//
//	circuit := guard.NewCircuitBreaker(1, 30*time.Second, 1, 1,
//	    guard.WithClock(clock),
//	)
//
// # Best Practices
//
// 1. One breaker per protected downstream dependency, constructed once and
// shared by reference. Retry policies are cheap and stateless.
//
// 2. Classify deliberately. Counting caller bugs against the circuit opens
// it for no reason; retrying permanent errors wastes the budget.
//
// 3. Keep maxAttempts small and thresholds honest: with per-attempt
// recording, a threshold of 5 is 5 real failures no matter how retries are
// configured.
//
// 4. Provide fallbacks for open circuits:
//
//	if guard.IsOpen(err) {
//	    return cachedValue, nil
//	}
package guard
