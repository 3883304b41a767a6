// Package models defines the course catalog domain types.
package models

import (
	"strings"
	"time"

	catalogcontracts "gradus/contracts/catalog"
	id "gradus/pkg/domain"
	dErrors "gradus/pkg/domain-errors"
)

// Category labels how a course counts toward graduation credit buckets.
type Category string

const (
	CategoryMajor   Category = catalogcontracts.CategoryMajor
	CategoryLiberal Category = catalogcontracts.CategoryLiberal
	CategoryGeneral Category = catalogcontracts.CategoryGeneral
)

// ParseCategory validates and parses a category string. Matching is
// case-insensitive.
//
// Usage: call at trust boundaries for external input.
//
// Errors: returns CodeBadRequest for unsupported categories.
func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToUpper(strings.TrimSpace(s))); c {
	case CategoryMajor, CategoryLiberal, CategoryGeneral:
		return c, nil
	default:
		return "", dErrors.New(dErrors.CodeBadRequest, "unsupported category: must be MAJOR, LIBERAL or GENERAL")
	}
}

// Stage distinguishes basic from advanced coursework within a category.
type Stage string

const (
	StageBasic    Stage = catalogcontracts.StageBasic
	StageAdvanced Stage = catalogcontracts.StageAdvanced
)

// ParseStage validates and parses a stage string. Matching is
// case-insensitive.
//
// Errors: returns CodeBadRequest for unsupported stages.
func ParseStage(s string) (Stage, error) {
	switch st := Stage(strings.ToUpper(strings.TrimSpace(s))); st {
	case StageBasic, StageAdvanced:
		return st, nil
	default:
		return "", dErrors.New(dErrors.CodeBadRequest, "unsupported stage: must be BASIC or ADVANCED")
	}
}

// Course provenance values, recorded so operators can tell seeded
// curriculum data from registry imports and manual admin edits.
const (
	SourceSeed     = "seed"
	SourceRegistry = "registry"
	SourceAdmin    = "admin"
)

// Course is one catalog entry: the static attributes graduation rules
// read, plus provenance bookkeeping.
type Course struct {
	Code      id.CourseCode
	Name      string
	Credit    int
	Category  Category
	Stage     Stage
	Required  bool
	Source    string
	UpdatedAt time.Time
}

// Attributes converts the course to the contract form consumed by
// graduation rules.
func (c Course) Attributes() catalogcontracts.CourseAttributes {
	return catalogcontracts.CourseAttributes{
		Code:     c.Code.String(),
		Name:     c.Name,
		Credit:   c.Credit,
		Category: string(c.Category),
		Stage:    string(c.Stage),
		Required: c.Required,
	}
}

// AsRequired converts the course to the required-course contract form.
// Only meaningful for courses with the Required flag set.
func (c Course) AsRequired() catalogcontracts.RequiredCourse {
	return catalogcontracts.RequiredCourse{
		Code: c.Code.String(),
		Name: c.Name,
	}
}

// Search pagination bounds.
const (
	DefaultSearchLimit = 50
	MaxSearchLimit     = 200
)

// SearchFilter narrows catalog searches. The zero value matches every
// course; nil pointer filters are ignored.
type SearchFilter struct {
	Query    string // case-insensitive code prefix or name substring
	Category *Category
	Stage    *Stage
	Required *bool
	Limit    int
	Offset   int
}

// Normalize trims the query and clamps pagination to sane bounds.
func (f SearchFilter) Normalize() SearchFilter {
	f.Query = strings.TrimSpace(f.Query)
	if f.Limit <= 0 {
		f.Limit = DefaultSearchLimit
	}
	if f.Limit > MaxSearchLimit {
		f.Limit = MaxSearchLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// Matches reports whether the course satisfies every set filter. The
// query matches against the course code prefix and the name substring,
// both case-insensitive.
func (f SearchFilter) Matches(c Course) bool {
	if f.Category != nil && c.Category != *f.Category {
		return false
	}
	if f.Stage != nil && c.Stage != *f.Stage {
		return false
	}
	if f.Required != nil && c.Required != *f.Required {
		return false
	}
	if f.Query == "" {
		return true
	}
	q := strings.ToUpper(f.Query)
	if strings.HasPrefix(c.Code.String(), q) {
		return true
	}
	return strings.Contains(strings.ToUpper(c.Name), q)
}
