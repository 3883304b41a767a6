package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gradus/internal/catalog/models"
	id "gradus/pkg/domain"
)

// HTTPSource implements Source by calling an external HTTP course registry
// service.
type HTTPSource struct {
	id      string
	baseURL string
	apiKey  string
	client  HTTPDoer
}

// Ensure HTTPSource implements Source
var _ Source = (*HTTPSource)(nil)

// HTTPSourceOption configures the HTTPSource.
type HTTPSourceOption func(*HTTPSource)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(client HTTPDoer) HTTPSourceOption {
	return func(s *HTTPSource) {
		s.client = client
	}
}

// WithSourceID overrides the default source identifier.
func WithSourceID(sourceID string) HTTPSourceOption {
	return func(s *HTTPSource) {
		s.id = sourceID
	}
}

// NewHTTPSource creates a new HTTP-based course registry source.
func NewHTTPSource(baseURL, apiKey string, timeout time.Duration, opts ...HTTPSourceOption) *HTTPSource {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	s := &HTTPSource{
		id:      "course-registry-http",
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// courseResponse represents one course returned by the registry service.
type courseResponse struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Credit   int    `json:"credit"`
	Category string `json:"category"`
	Stage    string `json:"stage"`
	Required bool   `json:"required"`
}

// coursesResponse represents the batch lookup response.
type coursesResponse struct {
	Courses []courseResponse `json:"courses"`
}

// errorResponse represents an error response from the registry service.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ID returns the source identifier.
func (s *HTTPSource) ID() string {
	return s.id
}

// FetchCourse retrieves one course by code from the registry.
func (s *HTTPSource) FetchCourse(ctx context.Context, code id.CourseCode) (*models.Course, error) {
	endpoint := fmt.Sprintf("%s/api/v1/courses/%s", s.baseURL, url.PathEscape(code.String()))
	body, err := s.get(ctx, endpoint, "course not found")
	if err != nil {
		return nil, err
	}

	var resp courseResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, NewSourceError(ErrorContractMismatch, s.id, "failed to parse response", err)
	}

	course, err := s.toCourse(resp)
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// FetchCourses retrieves a batch of courses from the registry. Codes the
// registry does not know are omitted from the result.
func (s *HTTPSource) FetchCourses(ctx context.Context, codes []id.CourseCode) ([]models.Course, error) {
	if len(codes) == 0 {
		return nil, nil
	}

	raw := make([]string, len(codes))
	for i, c := range codes {
		raw[i] = c.String()
	}
	endpoint := fmt.Sprintf("%s/api/v1/courses?codes=%s", s.baseURL, url.QueryEscape(strings.Join(raw, ",")))
	body, err := s.get(ctx, endpoint, "courses not found")
	if err != nil {
		return nil, err
	}

	var resp coursesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, NewSourceError(ErrorContractMismatch, s.id, "failed to parse batch response", err)
	}

	courses := make([]models.Course, 0, len(resp.Courses))
	for _, cr := range resp.Courses {
		course, err := s.toCourse(cr)
		if err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}
	return courses, nil
}

// Health checks if the registry is available.
func (s *HTTPSource) Health(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/api/v1/health", s.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if s.apiKey != "" {
		req.Header.Set("X-API-Key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return NewSourceError(ErrorSourceOutage, s.id, "health check failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return NewSourceError(ErrorSourceOutage, s.id, fmt.Sprintf("unhealthy status: %d", resp.StatusCode), nil)
	}
	return nil
}

// get executes a GET request and returns the response body on 200,
// classifying every other outcome into the normalized error taxonomy.
func (s *HTTPSource) get(ctx context.Context, endpoint, notFoundMsg string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, NewSourceError(ErrorInternal, s.id, "failed to create request", err)
	}

	req.Header.Set("Accept", "application/json")
	if s.apiKey != "" {
		req.Header.Set("X-API-Key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		// Check for context deadline exceeded (timeout)
		if ctx.Err() == context.DeadlineExceeded {
			return nil, NewSourceError(ErrorTimeout, s.id, "request timeout", err)
		}
		return nil, NewSourceError(ErrorSourceOutage, s.id, "failed to execute request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewSourceError(ErrorInternal, s.id, "failed to read response body", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, NewSourceError(ErrorAuthentication, s.id, "authentication failed", nil)
	case http.StatusBadRequest:
		var errResp errorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Message != "" {
			return nil, NewSourceError(ErrorBadData, s.id, errResp.Message, nil)
		}
		return nil, NewSourceError(ErrorBadData, s.id, "bad request", nil)
	case http.StatusNotFound:
		return nil, NewSourceError(ErrorNotFound, s.id, notFoundMsg, nil)
	case http.StatusTooManyRequests:
		return nil, NewSourceError(ErrorRateLimited, s.id, "rate limited", nil)
	case http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return nil, NewSourceError(ErrorSourceOutage, s.id, fmt.Sprintf("registry unavailable: %d", resp.StatusCode), nil)
	default:
		return nil, NewSourceError(ErrorInternal, s.id, fmt.Sprintf("unexpected status code: %d", resp.StatusCode), nil)
	}
}

// toCourse converts a registry response record into the domain model.
// Registry records that fail enum validation indicate the upstream schema
// drifted from ours.
func (s *HTTPSource) toCourse(resp courseResponse) (models.Course, error) {
	code, err := id.ParseCourseCode(resp.Code)
	if err != nil {
		return models.Course{}, NewSourceError(ErrorContractMismatch, s.id, "invalid course code in response", err)
	}
	category, err := models.ParseCategory(resp.Category)
	if err != nil {
		return models.Course{}, NewSourceError(ErrorContractMismatch, s.id, "invalid category in response", err)
	}
	stage, err := models.ParseStage(resp.Stage)
	if err != nil {
		return models.Course{}, NewSourceError(ErrorContractMismatch, s.id, "invalid stage in response", err)
	}
	if resp.Credit < 0 {
		return models.Course{}, NewSourceError(ErrorContractMismatch, s.id, "negative credit in response", nil)
	}

	return models.Course{
		Code:      code,
		Name:      resp.Name,
		Credit:    resp.Credit,
		Category:  category,
		Stage:     stage,
		Required:  resp.Required,
		Source:    models.SourceRegistry,
		UpdatedAt: time.Now().UTC(),
	}, nil
}
