package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeAllowed   = "allowed"
	outcomeThrottled = "throttled"
	outcomeError     = "error"
)

var decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "gradus_ratelimit_decisions_total",
	Help: "Rate limit decisions by scope and outcome",
}, []string{"scope", "outcome"})

func recordDecision(scope Scope, outcome string) {
	decisionsTotal.WithLabelValues(string(scope), outcome).Inc()
}
