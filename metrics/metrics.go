// Package metrics exposes the Prometheus counters the coordinator
// increments at its decision points. All counters are registered against
// a package-level registry that callers can plug into their own process
// registry via Registry().
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	registry = prometheus.NewRegistry()

	// LockRetryTotal counts KindRetry outcomes from lock.Manager.Lock,
	// labeled by reason (contended, replay-wait).
	LockRetryTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tablet_binding_lock_retry_total",
		Help: "Number of lock attempts that returned a retry signal.",
	}, []string{"reason"})

	// NoUpdateNeededTotal counts benign skips across all phases, labeled
	// by phase.
	NoUpdateNeededTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tablet_binding_no_update_needed_total",
		Help: "Number of phase steps that resolved to no-update-needed.",
	}, []string{"phase"})

	// RedoLogTsAlreadySetTotal counts the "log ts already set, may be bug
	// or retry" condition from logts.Binder.SetLogTs (spec §9 open
	// question: preserve the warning-without-error behavior but surface
	// a distinct metric).
	RedoLogTsAlreadySetTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tablet_binding_redo_log_ts_already_set_total",
		Help: "Number of set_log_ts calls that found tx_log_ts already equal to the incoming log ts.",
	})

	// UnexpectedTotal counts protocol-invariant violations, labeled by
	// the operation that detected them.
	UnexpectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tablet_binding_unexpected_total",
		Help: "Number of operations that failed with an unexpected/protocol-violation error.",
	}, []string{"op"})
)

func init() {
	registry.MustRegister(LockRetryTotal, NoUpdateNeededTotal, RedoLogTsAlreadySetTotal, UnexpectedTotal)
}

// Registry returns the Prometheus registry these counters are registered
// against, so a host process can expose them alongside its own metrics
// (e.g. via prometheus.Gatherers).
func Registry() *prometheus.Registry { return registry }
