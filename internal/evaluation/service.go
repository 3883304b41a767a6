package evaluation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gradus/internal/evaluation/metrics"
	"gradus/internal/evaluation/ports"
	dErrors "gradus/pkg/domain-errors"
	"gradus/pkg/platform/middleware/requesttime"
)

// defaultTimeout caps one full evaluation, including every provider call
// made while walking the tree, when no timeout is configured.
const defaultTimeout = 10 * time.Second

// Service runs graduation evaluations. It validates and canonicalizes the
// student context, builds the requirement tree for the current catalog,
// evaluates it, and flattens the unmet requirements. The goal is to keep
// the rules centralized and testable.
type Service struct {
	provider ports.CourseProvider
	builder  *Builder
	metrics  *metrics.Metrics
	logger   *slog.Logger
	timeout  time.Duration
}

// Option configures the Service.
type Option func(*Service)

// WithMetrics sets the metrics collector for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger sets the logger for the service.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithTimeout sets the per-evaluation deadline. Non-positive values keep
// the default.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// New creates a new evaluation service.
// Panics if the course provider is nil - fail fast at startup.
func New(provider ports.CourseProvider, opts ...Option) *Service {
	if provider == nil {
		panic("evaluation.New: course provider is required")
	}

	s := &Service{
		provider: provider,
		builder:  NewBuilder(provider),
		timeout:  defaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Evaluate judges one student context against the graduation requirements.
// Validation happens before any provider contact; after that the result is
// all or nothing - a provider failure yields an error, never a partial
// report.
func (s *Service) Evaluate(ctx context.Context, ec Context) (*Report, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveEvaluateLatency(time.Since(start))
		}
	}()

	normalized, err := ec.Normalize()
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncrementRejected()
		}
		if s.logger != nil {
			s.logger.WarnContext(ctx, "evaluation request rejected", "error", err)
		}
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tree, err := s.builder.Build(ctx)
	if err != nil {
		return nil, s.terminal(ctx, "building requirement tree", err)
	}

	root, err := tree.Evaluate(ctx, &normalized)
	if err != nil {
		return nil, s.terminal(ctx, "evaluating requirement tree", err)
	}

	missing := CollectMissing(root)
	report := &Report{
		Passed:       root.Passed,
		Tree:         root,
		MissingItems: missing,
		EvaluatedAt:  requesttime.Now(ctx),
	}

	if s.metrics != nil {
		s.metrics.IncrementOutcome(report.Passed)
		s.metrics.ObserveMissingItems(len(missing))
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "graduation evaluation complete",
			"passed", report.Passed,
			"courses", len(normalized.CourseCodes),
			"missing_items", len(missing),
			"duration_ms", time.Since(start).Milliseconds())
	}

	return report, nil
}

// terminal converts a provider failure into the error returned to the
// caller. Domain errors pass through; anything else becomes an
// availability error so callers can distinguish bad input from a broken
// course source.
func (s *Service) terminal(ctx context.Context, stage string, err error) error {
	if s.logger != nil {
		s.logger.ErrorContext(ctx, "evaluation aborted", "stage", stage, "error", err)
	}
	var dErr *dErrors.Error
	if errors.As(err, &dErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "course data retrieval timed out")
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, "course data source unavailable")
}
