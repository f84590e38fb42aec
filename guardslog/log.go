// Package guardslog logs guard circuit activity through log/slog.
//
// The adapter is an optional collaborator: it consumes the hooks guard
// already emits and is never required for correctness.
//
//	logger := slog.Default()
//
//	circuit := guard.NewCircuitBreaker(5, 30*time.Second, 2, 1,
//	    guard.WithName("payment-service"),
//	    guard.OnStateChange(guardslog.StateChange(logger)),
//	    guard.OnReject(guardslog.Reject(logger)),
//	)
//	exec := guard.NewExecutor(circuit, policy,
//	    guard.OnAttempt(guardslog.Attempt(logger)),
//	)
package guardslog

import (
	"context"
	"log/slog"
	"time"

	"github.com/bjaus/guard"
)

// StateChange returns a hook for guard.OnStateChange that logs every
// transition. Transitions into Open are logged at warn level, recoveries at
// info.
func StateChange(logger *slog.Logger) guard.StateChangeFunc {
	return func(name string, from, to guard.State, at time.Time) {
		level := slog.LevelInfo
		if to == guard.Open {
			level = slog.LevelWarn
		}
		logger.Log(context.Background(), level, "circuit state change",
			slog.String("circuit", name),
			slog.String("from", from.String()),
			slog.String("to", to.String()),
			slog.Time("at", at),
		)
	}
}

// Reject returns a hook for guard.OnReject that logs denied attempts.
func Reject(logger *slog.Logger) guard.RejectFunc {
	return func(name string) {
		logger.Warn("attempt rejected by open circuit",
			slog.String("circuit", name),
		)
	}
}

// Attempt returns a hook for guard.OnAttempt. Failed attempts are logged at
// warn level with their classified outcome; successes at debug.
func Attempt(logger *slog.Logger) guard.AttemptFunc {
	return func(name string, attempt int, out guard.Outcome) {
		if out.Kind == guard.KindSuccess {
			logger.Debug("attempt succeeded",
				slog.String("circuit", name),
				slog.Int("attempt", attempt),
			)
			return
		}
		logger.Warn("attempt failed",
			slog.String("circuit", name),
			slog.Int("attempt", attempt),
			slog.String("outcome", out.Kind.String()),
			slog.Any("error", out.Err),
		)
	}
}
