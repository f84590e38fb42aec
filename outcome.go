package guard

import "errors"

// Kind classifies the result of a single call attempt.
type Kind int

const (
	// KindSuccess means the attempt succeeded.
	KindSuccess Kind = iota

	// KindRetriable means the attempt failed transiently. Retriable failures
	// count toward circuit health and are eligible for retry.
	KindRetriable

	// KindFatal means the attempt failed permanently (e.g. a malformed
	// request). Fatal failures are never retried and never influence the
	// circuit, which measures service health rather than caller bugs.
	KindFatal
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindRetriable:
		return "retriable"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Outcome is the classified result of one attempt. The Kind tag is the
// single source of truth for what an error means: the circuit breaker and
// the retry policy both key off it, never off raw error identity.
type Outcome struct {
	Kind Kind
	Err  error
}

// Classifier decides whether a raw call result counts as a success, a
// retriable failure, or a fatal failure.
type Classifier interface {
	Classify(err error) Outcome
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(err error) Outcome

// Classify calls f(err).
func (f ClassifierFunc) Classify(err error) Outcome {
	return f(err)
}

// DefaultClassifier returns the classifier used when none is configured:
// a nil error is a success, an error marked with Fatal is a fatal failure,
// and everything else is a retriable failure.
func DefaultClassifier() Classifier {
	return ClassifierFunc(func(err error) Outcome {
		switch {
		case err == nil:
			return Outcome{Kind: KindSuccess}
		case IsFatal(err):
			return Outcome{Kind: KindFatal, Err: err}
		default:
			return Outcome{Kind: KindRetriable, Err: err}
		}
	})
}

// fatalError wraps an error to mark it as permanently non-retriable.
type fatalError struct {
	error
}

// Fatal returns true to indicate this error should not be retried.
func (e *fatalError) Fatal() bool { return true }

// Unwrap returns the underlying error for error chain unwrapping.
func (e *fatalError) Unwrap() error {
	return e.error
}

// Fatal marks err as permanent, causing the executor to stop immediately
// without further attempts and without counting the failure against the
// circuit. Use this when you know retrying would not help.
//
//	if err := validate(req); err != nil {
//	    return guard.Fatal(err)
//	}
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{err}
}

// IsFatal reports whether err (or any error in its chain) is marked as
// fatal, either via Fatal or by implementing interface{ Fatal() bool }.
func IsFatal(err error) bool {
	var f interface{ Fatal() bool }
	return errors.As(err, &f) && f.Fatal()
}
