package handler

import (
	"strings"

	"gradus/internal/evaluation"
	id "gradus/pkg/domain"
	dErrors "gradus/pkg/domain-errors"
)

// maxCourseCodes caps the payload size; a real record never approaches it.
const maxCourseCodes = 500

// EvaluateRequest is the request body for a payload-driven evaluation. The
// caller supplies the full academic record inline instead of referencing a
// stored student.
type EvaluateRequest struct {
	CourseCodes          []string          `json:"course_codes"`
	Grades               map[string]string `json:"grades"`
	CurriculumYear       string            `json:"curriculum_year"`
	StudentType          string            `json:"student_type"`
	ExtraCurricularUnits int               `json:"extra_curricular_units"`
}

// Normalize folds casing the way the rest of the API does. Course codes and
// grade map keys are canonicalized by the engine itself.
func (r *EvaluateRequest) Normalize() {
	if r == nil {
		return
	}
	r.CurriculumYear = strings.TrimSpace(r.CurriculumYear)
	r.StudentType = strings.ToUpper(strings.TrimSpace(r.StudentType))
	for code, grade := range r.Grades {
		r.Grades[code] = strings.ToUpper(strings.TrimSpace(grade))
	}
}

// Validate rejects shapes that could never be a valid record. Code format,
// grade letters, and student types are judged by the engine, which owns
// those rules.
func (r *EvaluateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.CourseCodes == nil {
		return dErrors.New(dErrors.CodeValidation, "course_codes is required")
	}
	if len(r.CourseCodes) > maxCourseCodes {
		return dErrors.New(dErrors.CodeValidation, "course_codes must have at most 500 entries")
	}
	if r.ExtraCurricularUnits < 0 {
		return dErrors.New(dErrors.CodeValidation, "extra_curricular_units must not be negative")
	}
	return nil
}

// ToContext maps the request onto an evaluation context. Pure mapping; the
// engine normalizes and validates the semantic content.
func (r *EvaluateRequest) ToContext() evaluation.Context {
	grades := make(map[string]id.Grade, len(r.Grades))
	for code, grade := range r.Grades {
		grades[code] = id.Grade(grade)
	}
	return evaluation.Context{
		CourseCodes:          r.CourseCodes,
		Grades:               grades,
		CurriculumYear:       r.CurriculumYear,
		StudentType:          id.StudentType(r.StudentType),
		ExtraCurricularUnits: r.ExtraCurricularUnits,
	}
}
