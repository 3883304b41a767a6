package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "gradus/pkg/domain"
)

func TestRegisterRequest_Validate(t *testing.T) {
	validRequest := func() *RegisterRequest {
		return &RegisterRequest{
			Email:          "ada@university.edu",
			Password:       "correct-horse",
			Name:           "Ada Lovelace",
			StudentType:    "FRESHMAN",
			CurriculumYear: "2024",
		}
	}

	t.Run("valid request passes validation", func(t *testing.T) {
		req := validRequest()
		req.Normalize()
		assert.NoError(t, req.Validate())
	})

	t.Run("normalize lower-cases email and upper-cases type", func(t *testing.T) {
		req := validRequest()
		req.Email = "  Ada@University.EDU "
		req.StudentType = "transfer"
		req.Normalize()

		require.NoError(t, req.Validate())
		assert.Equal(t, "ada@university.edu", req.Email)
		assert.Equal(t, id.StudentTypeTransfer, req.ParsedStudentType())
	})

	t.Run("omitted student type defaults to freshman", func(t *testing.T) {
		req := validRequest()
		req.StudentType = ""
		req.Normalize()

		require.NoError(t, req.Validate())
		assert.Equal(t, id.StudentTypeFreshman, req.ParsedStudentType())
	})

	tests := []struct {
		name    string
		mutate  func(*RegisterRequest)
		wantErr string
	}{
		{"missing email", func(r *RegisterRequest) { r.Email = "" }, "email is required"},
		{"malformed email", func(r *RegisterRequest) { r.Email = "not-an-email" }, "email must be a valid email"},
		{"short password", func(r *RegisterRequest) { r.Password = "short" }, "password must be at least 8"},
		{"password over bcrypt limit", func(r *RegisterRequest) { r.Password = strings.Repeat("a", 73) }, "password must be at most 72"},
		{"blank name", func(r *RegisterRequest) { r.Name = "   " }, "name is required"},
		{"unknown student type", func(r *RegisterRequest) { r.StudentType = "EXCHANGE" }, "student_type must be one of"},
		{"non-numeric curriculum year", func(r *RegisterRequest) { r.CurriculumYear = "20XX" }, "curriculum_year is invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)
			req.Normalize()

			err := req.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestUpdateRecordRequest_Validate(t *testing.T) {
	t.Run("valid record passes", func(t *testing.T) {
		req := &UpdateRecordRequest{
			Courses: []CompletedCourseInput{
				{Code: "cs101", Grade: "a"},
				{Code: "CS204"},
			},
		}
		req.Normalize()
		require.NoError(t, req.Validate())

		courses := req.ToCourses()
		require.Len(t, courses, 2)
		assert.Equal(t, id.CourseCode("CS101"), courses[0].Code)
		assert.Equal(t, id.GradeA, courses[0].Grade)
		assert.Equal(t, id.CourseCode("CS204"), courses[1].Code)
		assert.False(t, courses[1].Graded())
	})

	t.Run("empty course list is a valid record", func(t *testing.T) {
		req := &UpdateRecordRequest{Courses: []CompletedCourseInput{}}
		req.Normalize()
		require.NoError(t, req.Validate())
		assert.Empty(t, req.ToCourses())
	})

	t.Run("nil course list is rejected", func(t *testing.T) {
		req := &UpdateRecordRequest{}
		req.Normalize()
		err := req.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "courses is required")
	})

	t.Run("malformed course code is rejected", func(t *testing.T) {
		req := &UpdateRecordRequest{Courses: []CompletedCourseInput{{Code: "bad!code"}}}
		req.Normalize()
		err := req.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid course code format")
	})

	t.Run("unknown grade is rejected", func(t *testing.T) {
		req := &UpdateRecordRequest{Courses: []CompletedCourseInput{{Code: "CS101", Grade: "Z"}}}
		req.Normalize()
		err := req.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown grade")
	})

	t.Run("duplicate code is rejected after canonicalization", func(t *testing.T) {
		req := &UpdateRecordRequest{Courses: []CompletedCourseInput{{Code: "cs101"}, {Code: "CS101"}}}
		req.Normalize()
		err := req.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate course code: CS101")
	})

	t.Run("negative extracurricular units rejected", func(t *testing.T) {
		negative := -5
		req := &UpdateRecordRequest{Courses: []CompletedCourseInput{}, ExtraCurricularUnits: &negative}
		req.Normalize()
		err := req.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "extra_curricular_units must be at least 0")
	})
}
