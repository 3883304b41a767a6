// Package service coordinates course lookups across the local catalog
// store and the remote course registry, translating storage and source
// errors into domain errors exactly once.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gradus/internal/catalog/client"
	"gradus/internal/catalog/metrics"
	"gradus/internal/catalog/models"
	"gradus/internal/catalog/store"
	"gradus/internal/catalog/tracer"
	id "gradus/pkg/domain"
	dErrors "gradus/pkg/domain-errors"
	"gradus/pkg/platform/audit"
)

// Store defines the catalog persistence operations the service needs.
type Store interface {
	GetByCode(ctx context.Context, code id.CourseCode) (*models.Course, error)
	GetByCodes(ctx context.Context, codes []id.CourseCode) ([]models.Course, error)
	ListRequired(ctx context.Context) ([]models.Course, error)
	Search(ctx context.Context, filter models.SearchFilter) ([]models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Upsert(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, code id.CourseCode) error
}

// Registry defines the remote course registry operations the service needs.
// Satisfied by client.Client.
type Registry interface {
	Course(ctx context.Context, code id.CourseCode) (*models.Course, error)
	Courses(ctx context.Context, codes []id.CourseCode) ([]models.Course, error)
	InvalidateCourse(ctx context.Context, code id.CourseCode)
	Health(ctx context.Context) error
}

// Service is the course catalog domain service. The local store is the
// source of truth; when it has no answer the remote registry is consulted
// and its answer folded back into the store, so evaluations keep working
// when the registry is down.
type Service struct {
	store    Store
	registry Registry
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tracer   tracer.Tracer
	audit    *audit.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithRegistry enables remote registry fallthrough for unknown codes.
// Without it the service runs standalone on the local store.
func WithRegistry(r Registry) Option {
	return func(s *Service) {
		s.registry = r
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger sets the logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTracer sets the tracer.
func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithAuditLogger sets the audit logger for admin mutations.
func WithAuditLogger(a *audit.Logger) Option {
	return func(s *Service) {
		s.audit = a
	}
}

// New creates a catalog service over the given store.
func New(st Store, opts ...Option) *Service {
	s := &Service{
		store:  st,
		logger: slog.Default(),
		tracer: tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetByCode retrieves one course, falling through to the remote registry
// when the local store has no row for the code. Registry answers are
// written back into the store.
func (s *Service) GetByCode(ctx context.Context, code id.CourseCode) (*models.Course, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanLookup,
		tracer.String(tracer.AttrCourseCode, code.String()),
	)

	if code.IsNil() {
		err := dErrors.New(dErrors.CodeInvalidInput, "course code is required")
		span.End(err)
		return nil, err
	}

	course, err := s.store.GetByCode(ctx, code)
	if err == nil {
		s.recordLookup(metrics.LookupStore)
		span.SetAttributes(tracer.Bool(tracer.AttrFound, true))
		span.End(nil)
		return course, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		wrapped := dErrors.Wrap(err, dErrors.CodeInternal, "course lookup failed")
		span.End(wrapped)
		return nil, wrapped
	}

	if s.registry == nil {
		s.recordUnknown()
		span.SetAttributes(tracer.Bool(tracer.AttrFound, false))
		span.End(nil)
		return nil, dErrors.New(dErrors.CodeNotFound, "course not found")
	}

	course, err = s.registry.Course(ctx, code)
	if err != nil {
		if client.IsNotFound(err) {
			s.recordUnknown()
			span.SetAttributes(tracer.Bool(tracer.AttrFound, false))
			span.End(nil)
			return nil, dErrors.New(dErrors.CodeNotFound, "course not found")
		}
		translated := translateRegistryError(err)
		span.End(translated)
		return nil, translated
	}

	s.commitStore(ctx, course)
	span.SetAttributes(tracer.Bool(tracer.AttrFound, true))
	span.End(nil)
	return course, nil
}

// GetByCodes retrieves a batch of courses. Codes neither the store nor the
// registry knows are omitted from the result. A registry answering that it
// knows none of the missing codes is not an error; a registry that cannot
// answer at all is.
func (s *Service) GetByCodes(ctx context.Context, codes []id.CourseCode) ([]models.Course, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanBatchLookup,
		tracer.Int(tracer.AttrCodeCount, len(codes)),
	)

	if len(codes) == 0 {
		span.End(nil)
		return nil, nil
	}

	found, err := s.store.GetByCodes(ctx, codes)
	if err != nil {
		wrapped := dErrors.Wrap(err, dErrors.CodeInternal, "course batch lookup failed")
		span.End(wrapped)
		return nil, wrapped
	}
	for range found {
		s.recordLookup(metrics.LookupStore)
	}

	missing := missingCodes(codes, found)
	if len(missing) == 0 || s.registry == nil {
		for range missing {
			s.recordUnknown()
		}
		span.End(nil)
		return found, nil
	}

	fetched, err := s.registry.Courses(ctx, missing)
	if err != nil {
		if client.IsNotFound(err) {
			// The registry answered; it just knows none of these codes.
			for range missing {
				s.recordUnknown()
			}
			span.End(nil)
			return found, nil
		}
		translated := translateRegistryError(err)
		span.End(translated)
		return nil, translated
	}

	for i := range fetched {
		s.commitStore(ctx, &fetched[i])
	}
	unknown := len(missing) - len(fetched)
	for i := 0; i < unknown; i++ {
		s.recordUnknown()
	}

	span.End(nil)
	return append(found, fetched...), nil
}

// ListRequired returns the catalog's mandatory course roster. The roster
// is university policy maintained in the local store; the remote registry
// is never consulted for it.
func (s *Service) ListRequired(ctx context.Context) ([]models.Course, error) {
	required, err := s.store.ListRequired(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "required course listing failed")
	}
	return required, nil
}

// Search returns catalog courses matching the filter.
func (s *Service) Search(ctx context.Context, filter models.SearchFilter) ([]models.Course, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanSearch)
	start := time.Now()

	courses, err := s.store.Search(ctx, filter)
	if err != nil {
		wrapped := dErrors.Wrap(err, dErrors.CodeInternal, "course search failed")
		span.End(wrapped)
		return nil, wrapped
	}

	if s.metrics != nil {
		s.metrics.ObserveSearchDuration(time.Since(start))
	}
	span.End(nil)
	return courses, nil
}

// RegistryHealth reports whether the remote registry answers. A service
// running standalone is trivially healthy.
func (s *Service) RegistryHealth(ctx context.Context) error {
	if s.registry == nil {
		return nil
	}
	return s.registry.Health(ctx)
}

// commitStore folds a registry answer into the local store, best-effort.
func (s *Service) commitStore(ctx context.Context, course *models.Course) {
	if err := s.store.Upsert(ctx, course); err != nil {
		s.logger.WarnContext(ctx, "course write-through failed",
			"course_code", course.Code.String(),
			"error", err,
		)
	}
}

// missingCodes returns the deduplicated codes with no course in found.
func missingCodes(codes []id.CourseCode, found []models.Course) []id.CourseCode {
	have := make(map[id.CourseCode]bool, len(found))
	for _, course := range found {
		have[course.Code] = true
	}
	var missing []id.CourseCode
	seen := make(map[id.CourseCode]bool, len(codes))
	for _, code := range codes {
		if !have[code] && !seen[code] {
			seen[code] = true
			missing = append(missing, code)
		}
	}
	return missing
}

// translateRegistryError converts registry source errors to domain errors.
func translateRegistryError(err error) error {
	var se *client.SourceError
	if errors.As(err, &se) {
		switch se.Category {
		case client.ErrorTimeout:
			return dErrors.New(dErrors.CodeTimeout, "course registry timed out")
		case client.ErrorNotFound:
			return dErrors.New(dErrors.CodeNotFound, "course not found")
		case client.ErrorBadData:
			return dErrors.New(dErrors.CodeBadRequest, se.Message)
		case client.ErrorSourceOutage, client.ErrorRateLimited:
			return dErrors.New(dErrors.CodeUnavailable, "course registry unavailable")
		case client.ErrorAuthentication:
			return dErrors.New(dErrors.CodeInternal, "course registry authentication failed")
		case client.ErrorContractMismatch:
			return dErrors.New(dErrors.CodeInternal, "course registry returned malformed data")
		default:
			return dErrors.New(dErrors.CodeInternal, "course registry lookup failed")
		}
	}
	if errors.Is(err, client.ErrAllSourcesFailed) {
		return dErrors.New(dErrors.CodeUnavailable, "all course sources failed")
	}
	if errors.Is(err, client.ErrNoSources) {
		return dErrors.New(dErrors.CodeInternal, "no course sources configured")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "course registry lookup failed")
}

func (s *Service) recordLookup(source string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordLookup(source)
}

func (s *Service) recordUnknown() {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordUnknown()
}
