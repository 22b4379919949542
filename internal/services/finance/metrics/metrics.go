// Package metrics exposes the finance check collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// Action outcomes.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
)

// Metrics holds the collectors registered for one process.
type Metrics struct {
	actions         *prometheus.CounterVec
	completions     *prometheus.CounterVec
	skips           *prometheus.CounterVec
	persistFailures prometheus.Counter
	balance         prometheus.Gauge
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		actions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "finanzcheck",
			Name:      "actions_total",
			Help:      "Learner actions by module, type, and outcome.",
		}, []string{"module", "action", "outcome"}),
		completions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "finanzcheck",
			Name:      "module_completions_total",
			Help:      "Modules reaching their success step.",
		}, []string{"module"}),
		skips: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "finanzcheck",
			Name:      "module_skips_total",
			Help:      "Modules force-completed through the admin skip.",
		}, []string{"module"}),
		persistFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "finanzcheck",
			Name:      "snapshot_persist_failures_total",
			Help:      "Snapshot writes that failed and were dropped.",
		}),
		balance: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "finanzcheck",
			Name:      "balance_euros",
			Help:      "Current learner account balance.",
		}),
	}
}

// ObserveAction counts one dispatched action.
func (m *Metrics) ObserveAction(module, action string, accepted bool) {
	if m == nil {
		return
	}
	outcome := OutcomeRejected
	if accepted {
		outcome = OutcomeAccepted
	}
	m.actions.WithLabelValues(module, action, outcome).Inc()
}

// ObserveCompletion counts one module completion.
func (m *Metrics) ObserveCompletion(module string) {
	if m == nil {
		return
	}
	m.completions.WithLabelValues(module).Inc()
}

// ObserveSkip counts one admin skip.
func (m *Metrics) ObserveSkip(module string) {
	if m == nil {
		return
	}
	m.skips.WithLabelValues(module).Inc()
}

// PersistFailed counts one dropped snapshot write. Its signature matches
// ledger.WithPersistFailureHook.
func (m *Metrics) PersistFailed(error) {
	if m == nil {
		return
	}
	m.persistFailures.Inc()
}

// SetBalance records the current balance.
func (m *Metrics) SetBalance(balance decimal.Decimal) {
	if m == nil {
		return
	}
	m.balance.Set(balance.InexactFloat64())
}
