package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"gradus/internal/catalog/models"
	"gradus/internal/catalog/store"
	id "gradus/pkg/domain"
	dErrors "gradus/pkg/domain-errors"
	"gradus/pkg/platform/audit"
	"gradus/pkg/platform/middleware/admin"
)

// CreateCourse adds a new admin-managed course to the catalog.
func (s *Service) CreateCourse(ctx context.Context, course *models.Course) (*models.Course, error) {
	if err := validateCourse(course); err != nil {
		return nil, err
	}
	stampAdminCourse(course)

	if err := s.store.Create(ctx, course); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, dErrors.New(dErrors.CodeConflict, "course already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create course")
	}

	// A cached negative answer would mask the new course until TTL expiry.
	s.invalidateRegistryCache(ctx, course.Code)
	s.logAudit(ctx, string(audit.EventCourseUpserted),
		"course_code", course.Code.String())

	return course, nil
}

// UpdateCourse replaces an existing course's attributes.
func (s *Service) UpdateCourse(ctx context.Context, course *models.Course) (*models.Course, error) {
	if err := validateCourse(course); err != nil {
		return nil, err
	}
	stampAdminCourse(course)

	if err := s.store.Update(ctx, course); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "course not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update course")
	}

	s.invalidateRegistryCache(ctx, course.Code)
	s.logAudit(ctx, string(audit.EventCourseUpserted),
		"course_code", course.Code.String())

	return course, nil
}

// DeleteCourse removes a course from the catalog.
func (s *Service) DeleteCourse(ctx context.Context, code id.CourseCode) error {
	if code.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "course code is required")
	}

	if err := s.store.Delete(ctx, code); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "course not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete course")
	}

	// Drop any cached registry answer so the deleted course cannot be
	// resurrected from cache.
	s.invalidateRegistryCache(ctx, code)
	s.logAudit(ctx, string(audit.EventCourseRemoved),
		"course_code", code.String())

	return nil
}

func validateCourse(course *models.Course) error {
	if course == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "course is required")
	}
	if course.Code.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "course code is required")
	}
	if strings.TrimSpace(course.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "course name is required")
	}
	if course.Credit < 0 {
		return dErrors.New(dErrors.CodeValidation, "course credit cannot be negative")
	}
	if _, err := models.ParseCategory(string(course.Category)); err != nil {
		return err
	}
	if _, err := models.ParseStage(string(course.Stage)); err != nil {
		return err
	}
	return nil
}

// stampAdminCourse marks a mutation as admin-sourced so seeded and
// registry-sourced rows are distinguishable from curated ones.
func stampAdminCourse(course *models.Course) {
	course.Source = models.SourceAdmin
	course.UpdatedAt = time.Now().UTC()
}

func (s *Service) invalidateRegistryCache(ctx context.Context, code id.CourseCode) {
	if s.registry == nil {
		return
	}
	s.registry.InvalidateCourse(ctx, code)
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if s.audit == nil {
		return
	}
	if actorID := admin.GetAdminActorID(ctx); actorID != "" {
		attributes = append(attributes, "actor_id", actorID)
	}
	s.audit.Log(ctx, event, attributes...)
}
