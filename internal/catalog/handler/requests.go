package handler

import (
	"net/http"
	"strconv"
	"strings"

	"gradus/internal/catalog/models"
	id "gradus/pkg/domain"
	dErrors "gradus/pkg/domain-errors"
)

// HTTP request DTOs with JSON tags. Converted to catalog domain models
// before reaching the service.

// CreateCourseRequest is the request body for creating a catalog course.
type CreateCourseRequest struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Credit   int    `json:"credit"`
	Category string `json:"category"`
	Stage    string `json:"stage"`
	Required bool   `json:"required"`
}

func (r *CreateCourseRequest) Normalize() {
	if r == nil {
		return
	}
	r.Code = strings.TrimSpace(r.Code)
	r.Name = strings.TrimSpace(r.Name)
}

// Validate checks every field against the catalog domain primitives so the
// service receives fully parsed input.
func (r *CreateCourseRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if _, err := id.ParseCourseCode(r.Code); err != nil {
		return err
	}
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if r.Credit < 0 {
		return dErrors.New(dErrors.CodeValidation, "credit cannot be negative")
	}
	if _, err := models.ParseCategory(r.Category); err != nil {
		return err
	}
	if _, err := models.ParseStage(r.Stage); err != nil {
		return err
	}
	return nil
}

// ToCourse converts the request to a catalog course. Returns an error only
// when called on an unvalidated request.
func (r *CreateCourseRequest) ToCourse() (*models.Course, error) {
	code, err := id.ParseCourseCode(r.Code)
	if err != nil {
		return nil, err
	}
	category, err := models.ParseCategory(r.Category)
	if err != nil {
		return nil, err
	}
	stage, err := models.ParseStage(r.Stage)
	if err != nil {
		return nil, err
	}
	return &models.Course{
		Code:     code,
		Name:     r.Name,
		Credit:   r.Credit,
		Category: category,
		Stage:    stage,
		Required: r.Required,
	}, nil
}

// UpdateCourseRequest is the request body for replacing a catalog course.
// The course code comes from the URL, not the body.
type UpdateCourseRequest struct {
	Name     string `json:"name"`
	Credit   int    `json:"credit"`
	Category string `json:"category"`
	Stage    string `json:"stage"`
	Required bool   `json:"required"`
}

func (r *UpdateCourseRequest) Normalize() {
	if r == nil {
		return
	}
	r.Name = strings.TrimSpace(r.Name)
}

func (r *UpdateCourseRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if r.Credit < 0 {
		return dErrors.New(dErrors.CodeValidation, "credit cannot be negative")
	}
	if _, err := models.ParseCategory(r.Category); err != nil {
		return err
	}
	if _, err := models.ParseStage(r.Stage); err != nil {
		return err
	}
	return nil
}

// ToCourse builds the replacement course for the given code. Category and
// stage are already validated, so the parse results are used directly.
func (r *UpdateCourseRequest) ToCourse(code id.CourseCode) *models.Course {
	category, _ := models.ParseCategory(r.Category)
	stage, _ := models.ParseStage(r.Stage)
	return &models.Course{
		Code:     code,
		Name:     r.Name,
		Credit:   r.Credit,
		Category: category,
		Stage:    stage,
		Required: r.Required,
	}
}

// searchFilterFromQuery parses GET /courses query parameters into a search
// filter. Unknown parameters are ignored; malformed ones are rejected.
func searchFilterFromQuery(r *http.Request) (models.SearchFilter, error) {
	q := r.URL.Query()
	filter := models.SearchFilter{Query: q.Get("q")}

	if raw := q.Get("category"); raw != "" {
		category, err := models.ParseCategory(raw)
		if err != nil {
			return models.SearchFilter{}, err
		}
		filter.Category = &category
	}
	if raw := q.Get("stage"); raw != "" {
		stage, err := models.ParseStage(raw)
		if err != nil {
			return models.SearchFilter{}, err
		}
		filter.Stage = &stage
	}
	if raw := q.Get("required"); raw != "" {
		required, err := strconv.ParseBool(raw)
		if err != nil {
			return models.SearchFilter{}, dErrors.New(dErrors.CodeBadRequest, "required must be a boolean")
		}
		filter.Required = &required
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return models.SearchFilter{}, dErrors.New(dErrors.CodeBadRequest, "limit must be a non-negative integer")
		}
		filter.Limit = limit
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return models.SearchFilter{}, dErrors.New(dErrors.CodeBadRequest, "offset must be a non-negative integer")
		}
		filter.Offset = offset
	}

	return filter, nil
}
