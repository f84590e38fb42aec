package guard

import "context"

// Execute runs fn through the executor and returns its result. This is a
// convenience wrapper for calls that return a value.
func Execute[T any](ctx context.Context, e *Executor, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := e.Do(ctx, func(ctx context.Context) error {
		var fnErr error
		result, fnErr = fn(ctx)
		return fnErr
	})
	return result, err
}
