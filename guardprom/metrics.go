// Package guardprom exports guard circuit activity as Prometheus metrics.
//
// The adapter is an optional collaborator: it consumes the hooks guard
// already emits and is never required for correctness.
//
//	metrics := guardprom.New(prometheus.DefaultRegisterer)
//
//	circuit := guard.NewCircuitBreaker(5, 30*time.Second, 2, 1,
//	    guard.WithName("payment-service"),
//	    guard.OnStateChange(metrics.StateChange()),
//	    guard.OnReject(metrics.Reject()),
//	)
//	exec := guard.NewExecutor(circuit, policy,
//	    guard.OnAttempt(metrics.Attempt()),
//	)
package guardprom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bjaus/guard"
)

// Metrics holds the collectors for one or more circuits. Circuits are
// distinguished by their configured name.
type Metrics struct {
	state       *prometheus.GaugeVec
	transitions *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	attempts    *prometheus.CounterVec
}

// New creates the guard collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		state: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "guard_circuit_state",
			Help: "Current circuit state (0 closed, 1 open, 2 half-open)",
		}, []string{"circuit"}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guard_circuit_transitions_total",
			Help: "Total number of circuit state transitions",
		}, []string{"circuit", "from", "to"}),
		rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guard_circuit_rejections_total",
			Help: "Total number of attempts rejected by an open or probing circuit",
		}, []string{"circuit"}),
		attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guard_attempts_total",
			Help: "Total number of call attempts by classified outcome",
		}, []string{"circuit", "outcome"}),
	}
}

// StateChange returns a hook for guard.OnStateChange.
func (m *Metrics) StateChange() guard.StateChangeFunc {
	return func(name string, from, to guard.State, at time.Time) {
		m.state.WithLabelValues(name).Set(float64(to))
		m.transitions.WithLabelValues(name, from.String(), to.String()).Inc()
	}
}

// Reject returns a hook for guard.OnReject.
func (m *Metrics) Reject() guard.RejectFunc {
	return func(name string) {
		m.rejections.WithLabelValues(name).Inc()
	}
}

// Attempt returns a hook for guard.OnAttempt.
func (m *Metrics) Attempt() guard.AttemptFunc {
	return func(name string, attempt int, out guard.Outcome) {
		m.attempts.WithLabelValues(name, out.Kind.String()).Inc()
	}
}
