package guard

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// State represents the circuit breaker state.
type State int

const (
	// Closed is the normal operating state. Attempts flow through.
	Closed State = iota

	// Open is the tripped state. Attempts are rejected immediately.
	Open

	// HalfOpen is the recovery testing state. A bounded number of probe
	// attempts are allowed.
	HalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// StateChangeFunc is called when the circuit changes state.
type StateChangeFunc func(name string, from, to State, at time.Time)

// RejectFunc is called when an attempt is denied due to an open circuit.
type RejectFunc func(name string)

// CircuitBreaker tracks aggregate health across calls to one protected
// resource and gates whether an attempt is admitted at all. One instance is
// shared by reference across all calling goroutines; it is safe for
// concurrent use.
//
// All mutable state is owned by the breaker and mutated only under its
// internal lock, exclusively through Allow and Record.
type CircuitBreaker struct {
	name             string
	clock            Clock
	failureThreshold int
	resetTimeout     time.Duration
	successThreshold int
	halfOpenMax      int

	onStateChange StateChangeFunc
	onReject      RejectFunc

	mu        sync.Mutex
	state     State
	gen       uint64
	failures  int
	successes int
	inFlight  int
	openedAt  time.Time
	pending   map[uuid.UUID]admission
}

// NewCircuitBreaker creates a breaker that opens after failureThreshold
// breaker-relevant failures, waits resetTimeout before probing recovery,
// closes again after halfOpenSuccessThreshold consecutive probe successes,
// and admits at most halfOpenMaxConcurrent probes at a time while half-open.
func NewCircuitBreaker(failureThreshold int, resetTimeout time.Duration, halfOpenSuccessThreshold, halfOpenMaxConcurrent int, opts ...BreakerOption) *CircuitBreaker {
	cfg := breakerConfig{
		name:  "circuit",
		clock: realClock{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &CircuitBreaker{
		name:             cfg.name,
		clock:            cfg.clock,
		failureThreshold: max(1, failureThreshold),
		resetTimeout:     resetTimeout,
		successThreshold: max(1, halfOpenSuccessThreshold),
		halfOpenMax:      max(1, halfOpenMaxConcurrent),
		onStateChange:    cfg.onStateChange,
		onReject:         cfg.onReject,
		state:            Closed,
		pending:          make(map[uuid.UUID]admission),
	}
}

// Allow reports whether an attempt may proceed. When permitted, the returned
// Token must be passed to Record exactly once with the attempt's classified
// outcome.
//
// While open, Allow transitions to half-open once resetTimeout has elapsed
// and admits the first probe. While half-open, it admits attempts only up to
// the configured concurrent probe bound.
func (b *CircuitBreaker) Allow() (bool, Token) {
	b.mu.Lock()
	tr := b.refresh()

	switch b.state {
	case Open:
		b.mu.Unlock()
		b.notify(tr)
		b.reject()
		return false, Token{}
	case HalfOpen:
		if b.inFlight >= b.halfOpenMax {
			b.mu.Unlock()
			b.notify(tr)
			b.reject()
			return false, Token{}
		}
		b.inFlight++
	}

	tok := Token{id: uuid.New(), state: b.state, gen: b.gen}
	b.pending[tok.id] = admission{state: tok.state, gen: tok.gen}
	b.mu.Unlock()
	b.notify(tr)
	return true, tok
}

// Record feeds one attempt's classified outcome back into the breaker.
//
// A token admitted under a state generation the breaker has since left is
// accepted for bookkeeping but cannot mutate the counters of the new
// generation. Calling Record with an unknown or already recorded token is a
// composition bug and panics.
func (b *CircuitBreaker) Record(tok Token, out Outcome) {
	b.mu.Lock()
	adm, ok := b.pending[tok.id]
	if !ok {
		b.mu.Unlock()
		panic("guard: Record called with unknown or already recorded token")
	}
	delete(b.pending, tok.id)

	var tr transition
	if adm.gen == b.gen {
		if adm.state == HalfOpen {
			b.inFlight--
		}
		tr = b.apply(adm.state, out)
	}
	b.mu.Unlock()
	b.notify(tr)
}

// apply mutates counters and state for an outcome recorded under the current
// generation. Caller holds the lock.
func (b *CircuitBreaker) apply(admitted State, out Outcome) transition {
	switch out.Kind {
	case KindSuccess:
		switch admitted {
		case Closed:
			// A success against a healthy path clears transient history.
			b.failures = 0
		case HalfOpen:
			b.successes++
			if b.successes >= b.successThreshold {
				return b.transition(Closed)
			}
		}

	case KindRetriable:
		switch admitted {
		case Closed:
			b.failures++
			if b.failures >= b.failureThreshold {
				return b.transition(Open)
			}
		case HalfOpen:
			// Any relevant failure during recovery reopens immediately,
			// independent of counters carried over from the closed phase.
			return b.transition(Open)
		}

	case KindFatal:
		// Fatal outcomes say nothing about service health.
	}

	return transition{}
}

// State returns the current state, accounting for an elapsed reset timeout.
func (b *CircuitBreaker) State() State {
	b.mu.Lock()
	tr := b.refresh()
	s := b.state
	b.mu.Unlock()
	b.notify(tr)
	return s
}

// Name returns the circuit name.
func (b *CircuitBreaker) Name() string {
	return b.name
}

// Counts returns the current failure and success counts.
func (b *CircuitBreaker) Counts() (failures, successes int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures, b.successes
}

// Reset manually returns the circuit to the closed state.
func (b *CircuitBreaker) Reset() {
	b.mu.Lock()
	tr := b.transition(Closed)
	b.mu.Unlock()
	b.notify(tr)
}

// refresh performs the lazy open-to-half-open transition once the reset
// timeout has elapsed. Caller holds the lock.
func (b *CircuitBreaker) refresh() transition {
	if b.state == Open && b.clock.Now().Sub(b.openedAt) >= b.resetTimeout {
		return b.transition(HalfOpen)
	}
	return transition{}
}

// transition moves the breaker to a new state, bumping the generation so
// outstanding tokens from the previous state cannot affect the new one.
// Caller holds the lock.
func (b *CircuitBreaker) transition(to State) transition {
	if b.state == to {
		return transition{}
	}
	from := b.state
	b.state = to
	b.gen++

	b.failures = 0
	b.successes = 0
	b.inFlight = 0

	at := b.clock.Now()
	if to == Open {
		b.openedAt = at
	}

	return transition{from: from, to: to, at: at, fired: true}
}

// transition captures a state change for hook delivery outside the lock.
type transition struct {
	from, to State
	at       time.Time
	fired    bool
}

func (b *CircuitBreaker) notify(tr transition) {
	if tr.fired && b.onStateChange != nil {
		b.onStateChange(b.name, tr.from, tr.to, tr.at)
	}
}

func (b *CircuitBreaker) reject() {
	if b.onReject != nil {
		b.onReject(b.name)
	}
}
