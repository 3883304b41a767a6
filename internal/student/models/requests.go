package models

import (
	"strings"

	id "gradus/pkg/domain"
	dErrors "gradus/pkg/domain-errors"
	"gradus/pkg/validation"
)

// RegisterRequest is the payload for creating a student account.
type RegisterRequest struct {
	Email          string `json:"email" validate:"required,email,max=255"`
	Password       string `json:"password" validate:"required,min=8,max=72"`
	Name           string `json:"name" validate:"required,notblank,max=100"`
	StudentType    string `json:"student_type,omitempty" validate:"omitempty,oneof=FRESHMAN TRANSFER"`
	CurriculumYear string `json:"curriculum_year,omitempty" validate:"omitempty,len=4,numeric"`
}

// Normalize canonicalizes the request in place. Emails are stored
// lower-case; the student type is upper-cased so the oneof check accepts
// any input casing.
func (r *RegisterRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Name = strings.TrimSpace(r.Name)
	r.StudentType = strings.ToUpper(strings.TrimSpace(r.StudentType))
	r.CurriculumYear = strings.TrimSpace(r.CurriculumYear)
}

// Validate checks the request against its validation tags.
func (r *RegisterRequest) Validate() error {
	return validation.Validate(r)
}

// ParsedStudentType returns the typed admission track, defaulting to
// FRESHMAN when the field was omitted. Call after Validate.
func (r *RegisterRequest) ParsedStudentType() id.StudentType {
	studentType, _ := id.ParseStudentType(r.StudentType)
	return studentType
}

// CompletedCourseInput is one course entry of an UpdateRecordRequest.
type CompletedCourseInput struct {
	Code  string `json:"code" validate:"required,notblank,max=20"`
	Grade string `json:"grade,omitempty" validate:"omitempty,max=2"`
}

// UpdateRecordRequest replaces a student's academic record: the full
// completed-course set plus, optionally, the extracurricular unit total.
// Courses must be present; an empty list is a valid record with no
// completed courses. A nil ExtraCurricularUnits leaves the stored total
// unchanged.
type UpdateRecordRequest struct {
	Courses              []CompletedCourseInput `json:"courses" validate:"omitempty,max=500,dive"`
	ExtraCurricularUnits *int                   `json:"extra_curricular_units,omitempty" validate:"omitempty,min=0"`
}

// Normalize canonicalizes course codes and grades in place.
func (r *UpdateRecordRequest) Normalize() {
	for i := range r.Courses {
		r.Courses[i].Code = strings.ToUpper(strings.TrimSpace(r.Courses[i].Code))
		r.Courses[i].Grade = strings.ToUpper(strings.TrimSpace(r.Courses[i].Grade))
	}
}

// Validate checks tags first, then the record semantics: courses must be
// present (nil and empty are different things for a record), every code
// must parse, every grade must be a known letter, and no code may repeat.
func (r *UpdateRecordRequest) Validate() error {
	if r.Courses == nil {
		return dErrors.New(dErrors.CodeValidation, "courses is required")
	}
	if err := validation.Validate(r); err != nil {
		return err
	}
	seen := make(map[id.CourseCode]struct{}, len(r.Courses))
	for _, course := range r.Courses {
		code, err := id.ParseCourseCode(course.Code)
		if err != nil {
			return err
		}
		if course.Grade != "" {
			if _, err := id.ParseGrade(course.Grade); err != nil {
				return err
			}
		}
		if _, dup := seen[code]; dup {
			return dErrors.New(dErrors.CodeValidation, "duplicate course code: "+code.String())
		}
		seen[code] = struct{}{}
	}
	return nil
}

// ToCourses converts the validated entries to domain records.
func (r *UpdateRecordRequest) ToCourses() []CompletedCourse {
	courses := make([]CompletedCourse, 0, len(r.Courses))
	for _, in := range r.Courses {
		// Validation already parsed every field, conversion cannot fail here.
		code, _ := id.ParseCourseCode(in.Code)
		courses = append(courses, CompletedCourse{
			Code:  code,
			Grade: id.Grade(in.Grade),
		})
	}
	return courses
}
