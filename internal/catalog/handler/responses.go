package handler

import (
	"time"

	"gradus/internal/catalog/models"
)

// CourseResponse represents a catalog course in HTTP responses.
type CourseResponse struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Credit    int    `json:"credit"`
	Category  string `json:"category"`
	Stage     string `json:"stage"`
	Required  bool   `json:"required"`
	Source    string `json:"source,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// CourseListResponse is the response body for catalog listings.
type CourseListResponse struct {
	Courses []CourseResponse `json:"courses"`
	Count   int              `json:"count"`
}

func toCourseResponse(c *models.Course) CourseResponse {
	resp := CourseResponse{
		Code:     c.Code.String(),
		Name:     c.Name,
		Credit:   c.Credit,
		Category: string(c.Category),
		Stage:    string(c.Stage),
		Required: c.Required,
		Source:   c.Source,
	}
	if !c.UpdatedAt.IsZero() {
		resp.UpdatedAt = c.UpdatedAt.Format(time.RFC3339)
	}
	return resp
}

func toCourseListResponse(courses []models.Course) CourseListResponse {
	resp := CourseListResponse{Courses: make([]CourseResponse, 0, len(courses))}
	for i := range courses {
		resp.Courses = append(resp.Courses, toCourseResponse(&courses[i]))
	}
	resp.Count = len(resp.Courses)
	return resp
}
