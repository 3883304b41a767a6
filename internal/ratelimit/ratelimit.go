// Package ratelimit throttles request rates at the API edge using a sliding
// window per subject.
//
// Two scopes are enforced: auth endpoints are limited per client IP to slow
// credential stuffing, and graduation evaluation is limited per student
// because each evaluation walks the student's full requirement tree. Counts
// live in process memory on a single instance and in Redis when instances
// share state.
package ratelimit

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"gradus/pkg/platform/audit"
)

// Scope names a class of endpoints sharing one policy.
type Scope string

const (
	// ScopeAuth covers register, login and refresh, keyed by client IP.
	ScopeAuth Scope = "auth"
	// ScopeEvaluation covers graduation evaluation, keyed by student ID.
	ScopeEvaluation Scope = "evaluation"
)

// Policy bounds how many requests a subject may make inside the window.
// A non-positive limit disables the scope.
type Policy struct {
	Limit  int
	Window time.Duration
}

// Result reports one admission decision.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetAt is when the oldest counted request leaves the window.
	ResetAt time.Time
	// RetryAfter is whole seconds until a slot frees, zero when allowed.
	RetryAfter int
}

// Store counts requests per key inside a sliding window.
type Store interface {
	// Take records one request for key and reports whether it fits under
	// limit within the window. A denied request is not recorded.
	Take(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}

// Limiter applies per-scope policies on top of a Store.
type Limiter struct {
	store    Store
	logger   *slog.Logger
	audit    *audit.Logger
	policies map[Scope]Policy
}

// Option configures the Limiter.
type Option func(*Limiter)

// WithLogger sets the logger used when a check cannot complete.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithAuditLogger sets the audit logger notified when a request is denied.
func WithAuditLogger(a *audit.Logger) Option {
	return func(l *Limiter) {
		l.audit = a
	}
}

// WithPolicy overrides the policy for one scope.
func WithPolicy(scope Scope, policy Policy) Option {
	return func(l *Limiter) {
		l.policies[scope] = policy
	}
}

// DefaultPolicies returns the limits used when none are configured.
func DefaultPolicies() map[Scope]Policy {
	return map[Scope]Policy{
		ScopeAuth:       {Limit: 10, Window: time.Minute},
		ScopeEvaluation: {Limit: 30, Window: time.Minute},
	}
}

// New creates a Limiter. It panics if store is nil.
func New(store Store, opts ...Option) *Limiter {
	if store == nil {
		panic("ratelimit.New: store is required")
	}

	l := &Limiter{
		store:    store,
		logger:   slog.Default(),
		policies: DefaultPolicies(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow records one request by subject under the scope's policy. Scopes
// without a policy, or with a non-positive limit, admit everything.
func (l *Limiter) Allow(ctx context.Context, scope Scope, subject string) (Result, error) {
	policy, ok := l.policies[scope]
	if !ok || policy.Limit <= 0 {
		return Result{Allowed: true}, nil
	}

	res, err := l.store.Take(ctx, bucketKey(scope, subject), policy.Limit, policy.Window)
	if err != nil {
		recordDecision(scope, outcomeError)
		return Result{}, err
	}

	if res.Allowed {
		recordDecision(scope, outcomeAllowed)
	} else {
		recordDecision(scope, outcomeThrottled)
	}
	return res, nil
}

// bucketKey builds the storage key for a subject within a scope. Subjects
// are escaped so distinct values stay distinct even when they contain the
// ':' delimiter, as IPv6 addresses do.
func bucketKey(scope Scope, subject string) string {
	return "ratelimit:" + string(scope) + ":" + escapeSegment(subject)
}

func escapeSegment(s string) string {
	// The escape character goes first so escaping stays reversible.
	s = strings.ReplaceAll(s, "_", "__")
	s = strings.ReplaceAll(s, ":", "_c")
	return s
}
