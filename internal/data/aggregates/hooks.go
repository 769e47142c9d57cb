package aggregates

import (
	"time"

	"github.com/yungbote/autumn-backend/internal/observability"
)

// Hooks receives write outcomes and audit drift. Implementations must be safe for concurrent use.
type Hooks interface {
	ObserveOperation(name, status string, dur time.Duration)
	IncConflict(name string)
	IncRetry(name string)
	// ObserveDrift gets stored minus recomputed minutes for an audited project or subproject.
	ObserveDrift(entity string, drift float64)
}

type noopHooks struct{}

func (noopHooks) ObserveOperation(string, string, time.Duration) {}
func (noopHooks) IncConflict(string)                             {}
func (noopHooks) IncRetry(string)                                {}
func (noopHooks) ObserveDrift(string, float64)                   {}

// metricsHooks forwards to the process metrics registry.
type metricsHooks struct{ m *observability.Metrics }

// NewObservabilityHooks returns no-op hooks when metrics are disabled.
func NewObservabilityHooks(m *observability.Metrics) Hooks {
	if m == nil {
		return noopHooks{}
	}
	return metricsHooks{m: m}
}

func (h metricsHooks) ObserveOperation(name, status string, dur time.Duration) {
	h.m.ObserveAggregateOperation(name, status, dur)
}

func (h metricsHooks) IncConflict(name string) { h.m.IncAggregateConflict(name) }

func (h metricsHooks) IncRetry(name string) { h.m.IncAggregateRetry(name) }

func (h metricsHooks) ObserveDrift(entity string, drift float64) {
	h.m.ObserveAuditDrift(entity, drift)
}
