package guard

import "github.com/google/uuid"

// Token identifies one admitted attempt. It carries the state and state
// generation the attempt was admitted under, so a later Record cannot
// attribute its effect to a state the breaker has since left.
type Token struct {
	id    uuid.UUID
	state State
	gen   uint64
}

// State returns the circuit state the attempt was admitted under.
func (t Token) State() State {
	return t.state
}

// admission is the breaker-side record of an outstanding token.
type admission struct {
	state State
	gen   uint64
}
