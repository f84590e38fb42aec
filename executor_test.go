package guard_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bjaus/guard"
	"github.com/stretchr/testify/suite"
)

type ExecutorSuite struct {
	suite.Suite
	clock *fakeClock
}

func TestExecutorSuite(t *testing.T) {
	suite.Run(t, new(ExecutorSuite))
}

func (s *ExecutorSuite) SetupTest() {
	s.clock = newFakeClock()
}

func (s *ExecutorSuite) executor(failureThreshold, maxAttempts int, opts ...guard.ExecutorOption) (*guard.Executor, *guard.CircuitBreaker) {
	b := guard.NewCircuitBreaker(failureThreshold, 30*time.Second, 2, 1,
		guard.WithClock(s.clock),
	)
	p := guard.NewRetryPolicy(maxAttempts, 100*time.Millisecond, time.Second,
		guard.WithJitter(guard.WithoutJitter),
	)
	return guard.NewExecutor(b, p, opts...), b
}

func (s *ExecutorSuite) TestDo_SucceedsOnFirstAttempt() {
	exec, _ := s.executor(5, 3)

	calls := 0
	err := exec.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})

	s.NoError(err)
	s.Equal(1, calls)
	s.Empty(s.clock.Sleeps(), "expected no backoff on success")
}

func (s *ExecutorSuite) TestDo_RetriesUntilSuccess() {
	exec, b := s.executor(5, 3)

	calls := 0
	err := exec.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errTest
		}
		return nil
	})

	s.NoError(err)
	s.Equal(3, calls)
	s.Equal([]time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, s.clock.Sleeps())

	// The closing success wiped the transient failure history.
	failures, _ := b.Counts()
	s.Zero(failures)
}

func (s *ExecutorSuite) TestDo_ReturnsExhaustedAfterMaxAttempts() {
	exec, _ := s.executor(5, 3)

	calls := 0
	err := exec.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errTest
	})

	s.Equal(3, calls)
	s.True(guard.IsExhausted(err))
	s.ErrorIs(err, errTest, "expected last attempt error in the chain")

	var exhausted *guard.ExhaustedError
	s.Require().ErrorAs(err, &exhausted)
	s.Equal(3, exhausted.Attempts)
}

func (s *ExecutorSuite) TestDo_FatalFailureStopsImmediately() {
	exec, b := s.executor(5, 3)

	calls := 0
	err := exec.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return guard.Fatal(errTest)
	})

	s.Equal(1, calls, "expected no retry after fatal failure")
	s.True(guard.IsFatal(err))
	s.ErrorIs(err, errTest)

	// Fatal failures are not breaker-relevant.
	s.Equal(guard.Closed, b.State())
	failures, _ := b.Counts()
	s.Zero(failures)
}

func (s *ExecutorSuite) TestDo_ReturnsErrOpenWithoutCalling() {
	exec, b := s.executor(1, 1)

	s.ErrorIs(exec.Do(context.Background(), func(ctx context.Context) error {
		return errTest
	}), guard.ErrExhausted)
	s.Equal(guard.Open, b.State())

	called := false
	err := exec.Do(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})

	s.False(called, "expected function not to be called when circuit is open")
	s.True(guard.IsOpen(err))
}

func (s *ExecutorSuite) TestDo_NoRetryAmplification() {
	// failureThreshold means real failed attempts, not retry-exhaustion
	// events: with 3 attempts per call and a threshold of 5, the circuit
	// opens after exactly 5 recorded failures.
	exec, b := s.executor(5, 3)

	calls := 0
	fail := func(ctx context.Context) error {
		calls++
		return errTest
	}

	err := exec.Do(context.Background(), fail)
	s.True(guard.IsExhausted(err))
	s.Equal(3, calls)
	s.Equal(guard.Closed, b.State())

	// The second logical call's second attempt is the fifth failure. The
	// circuit opens mid-sequence and the third attempt is never made.
	err = exec.Do(context.Background(), fail)
	s.True(guard.IsOpen(err))
	s.Equal(5, calls)
	s.Equal(guard.Open, b.State())
}

func (s *ExecutorSuite) TestDo_CallerBudgetWins() {
	exec, _ := s.executor(5, 3)

	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := exec.Do(ctx, func(ctx context.Context) error {
		calls++
		cancel()
		return errTest
	})

	s.Equal(1, calls, "expected no retry once the caller's budget is spent")
	s.ErrorIs(err, context.Canceled)
}

func (s *ExecutorSuite) TestDo_AttemptTimeoutBoundsEachAttempt() {
	exec, _ := s.executor(5, 3, guard.WithAttemptTimeout(50*time.Millisecond))

	var hasDeadline bool
	err := exec.Do(context.Background(), func(ctx context.Context) error {
		_, hasDeadline = ctx.Deadline()
		return nil
	})

	s.NoError(err)
	s.True(hasDeadline, "expected per-attempt deadline on the context")
}

func (s *ExecutorSuite) TestDo_CustomClassifier() {
	classifier := guard.ClassifierFunc(func(err error) guard.Outcome {
		if errors.Is(err, errTest) {
			return guard.Outcome{Kind: guard.KindFatal, Err: err}
		}
		return guard.DefaultClassifier().Classify(err)
	})

	exec, b := s.executor(5, 3, guard.WithClassifier(classifier))

	calls := 0
	err := exec.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errTest
	})

	s.Equal(1, calls)
	s.ErrorIs(err, errTest)
	failures, _ := b.Counts()
	s.Zero(failures)
}

func (s *ExecutorSuite) TestDo_OnAttemptSeesEveryOutcome() {
	var outcomes []guard.Kind

	exec, _ := s.executor(5, 3, guard.OnAttempt(func(name string, attempt int, out guard.Outcome) {
		outcomes = append(outcomes, out.Kind)
	}))

	calls := 0
	s.NoError(exec.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errTest
		}
		return nil
	}))

	s.Equal([]guard.Kind{guard.KindRetriable, guard.KindRetriable, guard.KindSuccess}, outcomes)
}

func (s *ExecutorSuite) TestDo_RecoveryScenario() {
	b := guard.NewCircuitBreaker(3, 100*time.Millisecond, 2, 1,
		guard.WithClock(s.clock),
	)
	p := guard.NewRetryPolicy(1, 10*time.Millisecond, 100*time.Millisecond,
		guard.WithJitter(guard.WithoutJitter),
	)
	exec := guard.NewExecutor(b, p)

	for i := 0; i < 3; i++ {
		s.Error(exec.Do(context.Background(), func(ctx context.Context) error {
			return errTest
		}))
	}
	s.Equal(guard.Open, b.State())

	s.clock.Advance(150 * time.Millisecond)

	s.NoError(exec.Do(context.Background(), func(ctx context.Context) error {
		return nil
	}))
	s.Equal(guard.HalfOpen, b.State())
	_, successes := b.Counts()
	s.Equal(1, successes)

	s.NoError(exec.Do(context.Background(), func(ctx context.Context) error {
		return nil
	}))
	s.Equal(guard.Closed, b.State())
	failures, _ := b.Counts()
	s.Zero(failures)
}

func (s *ExecutorSuite) TestStats_TracksRunningTotals() {
	exec, _ := s.executor(1, 1)

	s.Error(exec.Do(context.Background(), func(ctx context.Context) error {
		return errTest
	}))
	s.True(guard.IsOpen(exec.Do(context.Background(), func(ctx context.Context) error {
		return nil
	})))

	stats := exec.Stats()
	s.Equal(int64(1), stats.Attempts)
	s.Equal(int64(0), stats.Successes)
	s.Equal(int64(1), stats.Failures)
	s.Equal(int64(1), stats.Rejections)
}

func TestIsExhausted(t *testing.T) {
	tests := map[string]struct {
		err  error
		want bool
	}{
		"returns true for ErrExhausted":  {err: guard.ErrExhausted, want: true},
		"returns true for wrapper":       {err: &guard.ExhaustedError{Attempts: 3, Last: errTest}, want: true},
		"returns false for other errors": {err: errTest, want: false},
		"returns false for nil":          {err: nil, want: false},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := guard.IsExhausted(tc.err); got != tc.want {
				t.Fatalf("IsExhausted(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
