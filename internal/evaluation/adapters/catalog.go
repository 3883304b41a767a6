// Package adapters provides in-process implementations of the evaluation
// ports. They call the concrete services directly while mapping domain
// models to contract types, so the rule engine never sees catalog
// internals. When the catalog becomes its own deployment these adapters
// can be swapped for remote ones without touching the engine.
package adapters

import (
	"context"

	catalogcontracts "gradus/contracts/catalog"
	catalogservice "gradus/internal/catalog/service"
	"gradus/internal/evaluation/ports"
	id "gradus/pkg/domain"
	dErrors "gradus/pkg/domain-errors"
)

// CatalogAdapter implements ports.CourseProvider against the catalog service.
type CatalogAdapter struct {
	catalog *catalogservice.Service
}

// NewCatalogAdapter creates a new in-process catalog adapter.
func NewCatalogAdapter(catalog *catalogservice.Service) ports.CourseProvider {
	return &CatalogAdapter{catalog: catalog}
}

// GetByCode retrieves one course's attributes. Unknown and malformed codes
// both come back as (nil, nil): a code that cannot parse can never be in
// the catalog, and the rule engine treats absent attributes as a failed
// requirement rather than an infrastructure fault.
func (a *CatalogAdapter) GetByCode(ctx context.Context, code string) (*catalogcontracts.CourseAttributes, error) {
	courseCode, err := id.ParseCourseCode(code)
	if err != nil {
		return nil, nil
	}

	course, err := a.catalog.GetByCode(ctx, courseCode)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, nil
		}
		return nil, err
	}

	attrs := course.Attributes()
	return &attrs, nil
}

// GetByCodes retrieves attributes for a batch of codes. Malformed and
// unknown codes are dropped from the result.
func (a *CatalogAdapter) GetByCodes(ctx context.Context, codes []string) ([]catalogcontracts.CourseAttributes, error) {
	courseCodes := make([]id.CourseCode, 0, len(codes))
	for _, raw := range codes {
		code, err := id.ParseCourseCode(raw)
		if err != nil {
			continue
		}
		courseCodes = append(courseCodes, code)
	}
	if len(courseCodes) == 0 {
		return nil, nil
	}

	courses, err := a.catalog.GetByCodes(ctx, courseCodes)
	if err != nil {
		return nil, err
	}

	attrs := make([]catalogcontracts.CourseAttributes, 0, len(courses))
	for _, course := range courses {
		attrs = append(attrs, course.Attributes())
	}
	return attrs, nil
}

// GetRequiredCourses lists the mandatory course roster for tree building.
func (a *CatalogAdapter) GetRequiredCourses(ctx context.Context) ([]catalogcontracts.RequiredCourse, error) {
	courses, err := a.catalog.ListRequired(ctx)
	if err != nil {
		return nil, err
	}

	required := make([]catalogcontracts.RequiredCourse, 0, len(courses))
	for _, course := range courses {
		required = append(required, course.AsRequired())
	}
	return required, nil
}
