package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	domainauth "github.com/forkful/recipegen/internal/domain/auth"
	obserrors "github.com/forkful/recipegen/internal/observability/errors"
)

// Result constants for metric labels.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultStale   = "stale"
)

const namespace = "recipegen"

// AuthMetrics holds the Prometheus collectors for the route gate and token synchronizer.
type AuthMetrics struct {
	GateDecisions   *prometheus.CounterVec
	SyncEvents      *prometheus.CounterVec
	SyncRefresh     *prometheus.CounterVec
	SyncStale       prometheus.Counter
	RefreshDuration prometheus.Histogram
}

// New creates and registers the auth collectors on reg.
// A nil reg registers on prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *AuthMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &AuthMetrics{
		GateDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth_gate",
			Name:      "decisions_total",
			Help:      "Route gate decisions by route class, decision and credential state.",
		}, []string{"route", "decision", "credential"}),
		SyncEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth_sync",
			Name:      "events_total",
			Help:      "Identity provider events received by the token synchronizer.",
		}, []string{"kind"}),
		SyncRefresh: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth_sync",
			Name:      "refresh_total",
			Help:      "Token refresh attempts by result.",
		}, []string{"result", "error_class"}),
		SyncStale: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth_sync",
			Name:      "stale_total",
			Help:      "Refresh results discarded because a newer auth event superseded them.",
		}),
		RefreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "auth_sync",
			Name:      "refresh_seconds",
			Help:      "Duration of token refresh calls.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// ObserveDecision records a route gate decision.
func (m *AuthMetrics) ObserveDecision(d domainauth.Decision) {
	if m == nil {
		return
	}
	m.GateDecisions.WithLabelValues(d.Route.String(), d.Kind.String(), d.Credential.String()).Inc()
}

// EventReceived records an identity provider event of the given kind ("signed_in", "signed_out").
func (m *AuthMetrics) EventReceived(kind string) {
	if m == nil {
		return
	}
	m.SyncEvents.WithLabelValues(kind).Inc()
}

// RefreshFinished records a completed refresh call that was applied to the store.
func (m *AuthMetrics) RefreshFinished(_ uint64, took time.Duration, err error) {
	if m == nil {
		return
	}
	if took > 0 {
		m.RefreshDuration.Observe(took.Seconds())
	}
	if err != nil {
		m.SyncRefresh.WithLabelValues(ResultError, obserrors.Classify(err)).Inc()
		return
	}
	m.SyncRefresh.WithLabelValues(ResultSuccess, "").Inc()
}

// StaleDiscarded records a refresh result dropped by the epoch guard.
func (m *AuthMetrics) StaleDiscarded(_ uint64) {
	if m == nil {
		return
	}
	m.SyncStale.Inc()
	m.SyncRefresh.WithLabelValues(ResultStale, "").Inc()
}
