package models

import "time"

// This file contains transport-layer response models for JSON output.
// These are shaped for API responses and should avoid domain behavior.

// CompletedCourseResponse is one record entry in profile output.
type CompletedCourseResponse struct {
	Code  string `json:"code"`
	Grade string `json:"grade,omitempty"`
}

// ProfileResponse is the student account as returned to its owner.
// The password hash is deliberately absent.
type ProfileResponse struct {
	ID                   string                    `json:"id"`
	Email                string                    `json:"email"`
	Name                 string                    `json:"name"`
	StudentType          string                    `json:"student_type"`
	CurriculumYear       string                    `json:"curriculum_year,omitempty"`
	ExtraCurricularUnits int                       `json:"extra_curricular_units"`
	Status               string                    `json:"status"`
	Courses              []CompletedCourseResponse `json:"courses"`
	CreatedAt            time.Time                 `json:"created_at"`
}

// ToProfileResponse shapes a student and their record for JSON output.
// The course list is never null; an empty record marshals as [].
func ToProfileResponse(student *Student, courses []CompletedCourse) ProfileResponse {
	entries := make([]CompletedCourseResponse, 0, len(courses))
	for _, course := range courses {
		entries = append(entries, CompletedCourseResponse{
			Code:  course.Code.String(),
			Grade: course.Grade.String(),
		})
	}
	return ProfileResponse{
		ID:                   student.ID.String(),
		Email:                student.Email,
		Name:                 student.Name,
		StudentType:          student.StudentType.String(),
		CurriculumYear:       student.CurriculumYear,
		ExtraCurricularUnits: student.ExtraCurricularUnits,
		Status:               student.Status.String(),
		Courses:              entries,
		CreatedAt:            student.CreatedAt,
	}
}
