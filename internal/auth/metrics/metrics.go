// Package metrics provides Prometheus metrics for authentication flows.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Flow outcomes, used as the "outcome" label on the counters.
const (
	OutcomeSuccess            = "success"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeInvalidToken       = "invalid_token"
	OutcomeReuseDetected      = "reuse_detected"
	OutcomeError              = "error"
)

// Session revocation triggers, used as the "trigger" label.
const (
	TriggerLogout = "logout"
	TriggerRevoke = "revoke"
	TriggerReuse  = "reuse"
)

// Metrics contains all authentication metrics.
type Metrics struct {
	LoginsTotal        *prometheus.CounterVec // Login attempts by outcome
	RefreshesTotal     *prometheus.CounterVec // Token refreshes by outcome
	ReuseDetectedTotal prometheus.Counter     // Refresh token replays caught
	SessionsRevoked    *prometheus.CounterVec // Session revocations by trigger
}

// New creates a new Metrics instance with all metrics registered.
func New() *Metrics {
	return &Metrics{
		LoginsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gradus_auth_logins_total",
			Help: "Total number of login attempts by outcome",
		}, []string{"outcome"}),

		RefreshesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gradus_auth_refreshes_total",
			Help: "Total number of token refreshes by outcome",
		}, []string{"outcome"}),

		ReuseDetectedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gradus_auth_token_reuse_detected_total",
			Help: "Total number of refresh token replays detected",
		}),

		SessionsRevoked: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gradus_auth_sessions_revoked_total",
			Help: "Total number of session revocations by trigger",
		}, []string{"trigger"}),
	}
}

// RecordLogin records one login attempt.
func (m *Metrics) RecordLogin(outcome string) {
	m.LoginsTotal.WithLabelValues(outcome).Inc()
}

// RecordRefresh records one token refresh attempt.
func (m *Metrics) RecordRefresh(outcome string) {
	m.RefreshesTotal.WithLabelValues(outcome).Inc()
}

// RecordReuseDetected records one caught refresh token replay.
func (m *Metrics) RecordReuseDetected() {
	m.ReuseDetectedTotal.Inc()
}

// RecordSessionRevoked records one session revocation.
func (m *Metrics) RecordSessionRevoked(trigger string) {
	m.SessionsRevoked.WithLabelValues(trigger).Inc()
}
