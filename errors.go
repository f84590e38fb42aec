package guard

import (
	"errors"
	"fmt"
)

// ErrOpen is returned when the circuit is open and rejecting requests.
var ErrOpen = errors.New("guard: circuit open")

// ErrExhausted is returned when all retry attempts failed without success.
var ErrExhausted = errors.New("guard: retries exhausted")

// IsOpen reports whether err is because the circuit is open.
func IsOpen(err error) bool {
	return errors.Is(err, ErrOpen)
}

// IsExhausted reports whether err is because retry attempts ran out.
func IsExhausted(err error) bool {
	return errors.Is(err, ErrExhausted)
}

// ExhaustedError reports that every attempt failed with a retriable error.
// It matches ErrExhausted via errors.Is and unwraps to the last attempt's
// error.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("guard: retries exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrExhausted
}
