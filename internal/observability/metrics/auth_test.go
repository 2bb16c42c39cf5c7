package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	domainauth "github.com/forkful/recipegen/internal/domain/auth"
)

func TestAuthMetrics_ObserveDecision(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveDecision(domainauth.Decision{
		Kind:       domainauth.DecisionRedirectToLogin,
		Route:      domainauth.RouteClassProtected,
		Credential: domainauth.CredentialAbsent,
	})

	got := testutil.ToFloat64(m.GateDecisions.WithLabelValues("protected", "redirect_to_login", "absent"))
	assert.InDelta(t, 1, got, 0)
}

func TestAuthMetrics_Sync(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.EventReceived("signed_in")
	m.RefreshFinished(1, 20*time.Millisecond, nil)
	m.RefreshFinished(2, time.Second, context.DeadlineExceeded)
	m.StaleDiscarded(3)

	assert.InDelta(t, 1, testutil.ToFloat64(m.SyncEvents.WithLabelValues("signed_in")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SyncRefresh.WithLabelValues(ResultSuccess, "")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SyncRefresh.WithLabelValues(ResultError, "timeout")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SyncStale), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.RefreshDuration))
}

func TestAuthMetrics_NilSafe(t *testing.T) {
	var m *AuthMetrics
	assert.NotPanics(t, func() {
		m.ObserveDecision(domainauth.Decision{})
		m.EventReceived("signed_out")
		m.RefreshFinished(1, time.Second, nil)
		m.StaleDiscarded(1)
	})
}
