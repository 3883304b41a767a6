// Package evaluation implements the graduation requirement engine: a tree of
// credit and course rules assembled per curriculum and evaluated against one
// student's academic record. The engine is deterministic and side-effect
// free; course attributes arrive through the ports.CourseProvider boundary.
package evaluation

import (
	"strings"
	"time"

	id "gradus/pkg/domain"
	dErrors "gradus/pkg/domain-errors"
)

// RuleType identifies the requirement a leaf rule enforces. The set is
// closed; result consumers key display logic off these values.
type RuleType string

const (
	RuleTotalCredit         RuleType = "TOTAL_CREDIT"
	RuleMajorBasicCredit    RuleType = "MAJOR_BASIC_CREDIT"
	RuleMajorAdvancedCredit RuleType = "MAJOR_ADVANCED_CREDIT"
	RuleLiberalTotalCredit  RuleType = "LIBERAL_TOTAL_CREDIT"
	RuleRequiredCourse      RuleType = "REQUIRED_COURSE"
	RuleExtraCurricular     RuleType = "EXTRA_CURRICULAR"
)

// Logic is the aggregation mode of a rule group.
type Logic string

const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
)

// Graduation thresholds. Credit floors are curriculum policy; the transfer
// threshold for extracurricular units is half the nominal one.
const (
	TotalCreditRequired             float64 = 130
	MajorBasicCreditRequired        float64 = 51
	MajorAdvancedCreditRequired     float64 = 21
	LiberalTotalCreditRequired      float64 = 33
	ExtraCurricularRequired         float64 = 70
	ExtraCurricularTransferRequired float64 = 35
)

// Context is the immutable per-evaluation snapshot of a student's record.
// Every rule in the tree reads the same Context; rules never mutate it.
type Context struct {
	// CourseCodes lists the courses the student has taken, canonical and
	// deduplicated. A nil slice means the record was never supplied and is
	// rejected before any provider call; an empty slice is a valid record
	// with no completed courses.
	CourseCodes []string

	// Grades maps canonical course codes to letter grades. Codes absent
	// from the map earned their credit; only an explicit F withholds it.
	Grades map[string]id.Grade

	// CurriculumYear selects the policy snapshot the tree was built for.
	CurriculumYear string

	// StudentType selects the admission track, which changes the
	// extracurricular threshold.
	StudentType id.StudentType

	// ExtraCurricularUnits is the student's accumulated activity total.
	ExtraCurricularUnits int
}

// Normalize validates the context and returns a canonical copy: course
// codes trimmed, upper-cased, and deduplicated (first occurrence wins),
// grade keys canonicalized the same way. It never touches a provider, so
// malformed input fails before any catalog traffic.
func (c Context) Normalize() (Context, error) {
	if c.CourseCodes == nil {
		return Context{}, dErrors.New(dErrors.CodeValidation, "course_codes is required")
	}
	if c.ExtraCurricularUnits < 0 {
		return Context{}, dErrors.New(dErrors.CodeValidation, "extra_curricular_units must not be negative")
	}
	if c.StudentType != "" && !c.StudentType.IsValid() {
		return Context{}, dErrors.New(dErrors.CodeValidation, "unknown student type: "+c.StudentType.String())
	}

	codes := make([]string, 0, len(c.CourseCodes))
	seen := make(map[string]struct{}, len(c.CourseCodes))
	for _, raw := range c.CourseCodes {
		code, err := id.ParseCourseCode(raw)
		if err != nil {
			return Context{}, err
		}
		if _, dup := seen[code.String()]; dup {
			continue
		}
		seen[code.String()] = struct{}{}
		codes = append(codes, code.String())
	}

	grades := make(map[string]id.Grade, len(c.Grades))
	for raw, grade := range c.Grades {
		code, err := id.ParseCourseCode(raw)
		if err != nil {
			return Context{}, err
		}
		if !grade.IsValid() {
			return Context{}, dErrors.New(dErrors.CodeValidation, "unknown grade for "+code.String()+": "+grade.String())
		}
		grades[code.String()] = grade
	}

	studentType := c.StudentType
	if studentType == "" {
		studentType = id.StudentTypeFreshman
	}

	return Context{
		CourseCodes:          codes,
		Grades:               grades,
		CurriculumYear:       strings.TrimSpace(c.CurriculumYear),
		StudentType:          studentType,
		ExtraCurricularUnits: c.ExtraCurricularUnits,
	}, nil
}

// Taken reports whether the student's record contains the course.
// Membership alone; the grade is judged separately.
func (c *Context) Taken(code string) bool {
	for _, taken := range c.CourseCodes {
		if taken == code {
			return true
		}
	}
	return false
}

// Completed reports whether the course was taken and not failed. A course
// with no recorded grade counts as completed.
func (c *Context) Completed(code string) bool {
	return c.Taken(code) && !c.Grades[code].IsFailing()
}

// Failed reports whether the course carries an explicit failing grade.
func (c *Context) Failed(code string) bool {
	return c.Grades[code].IsFailing()
}

// Outcome is the raw verdict a leaf rule computes before it is shaped into
// a Result. Required carries the threshold the rule actually applied, so
// track-dependent thresholds are resolved exactly once.
type Outcome struct {
	Passed   bool
	Current  float64
	Required float64
}

// Result is one node of an evaluation report. Leaf results carry a rule
// type and numeric progress; group results carry logic and children. The
// two shapes share a struct so the tree marshals as one recursive JSON
// document, with absent fields omitted.
type Result struct {
	ID          string    `json:"id"`
	Type        RuleType  `json:"type,omitempty"`
	Passed      bool      `json:"passed"`
	Logic       Logic     `json:"logic,omitempty"`
	Description string    `json:"description,omitempty"`
	CourseCode  string    `json:"course_code,omitempty"`
	Required    *float64  `json:"required,omitempty"`
	Current     *float64  `json:"current,omitempty"`
	Remaining   *float64  `json:"remaining,omitempty"`
	Message     string    `json:"message,omitempty"`
	Results     []*Result `json:"results,omitempty"`
}

// IsRule reports whether this node is a leaf rule result. Group results
// never carry a rule type, so the tag is the discriminator.
func (r *Result) IsRule() bool {
	return r.Type != ""
}

// MissingItem is a flattened view of one failed leaf rule, in the order
// the rules appear in the tree.
type MissingItem struct {
	ID         string   `json:"id"`
	Type       RuleType `json:"type"`
	CourseCode string   `json:"course_code,omitempty"`
	Required   float64  `json:"required"`
	Current    float64  `json:"current"`
	Remaining  float64  `json:"remaining"`
	Message    string   `json:"message"`
}

// Report is the full product of one evaluation: the overall verdict, the
// complete result tree, and the flattened list of unmet requirements.
type Report struct {
	Passed       bool          `json:"passed"`
	Tree         *Result       `json:"tree"`
	MissingItems []MissingItem `json:"missing_items"`
	EvaluatedAt  time.Time     `json:"evaluated_at"`
}

// CollectMissing walks the result tree depth-first and returns every
// failed leaf rule. Group failures are implied by their children and are
// not listed themselves. The returned slice is never nil.
func CollectMissing(root *Result) []MissingItem {
	items := make([]MissingItem, 0)
	var walk func(r *Result)
	walk = func(r *Result) {
		if r == nil {
			return
		}
		if r.IsRule() {
			if !r.Passed {
				items = append(items, MissingItem{
					ID:         r.ID,
					Type:       r.Type,
					CourseCode: r.CourseCode,
					Required:   deref(r.Required),
					Current:    deref(r.Current),
					Remaining:  deref(r.Remaining),
					Message:    r.Message,
				})
			}
			return
		}
		for _, child := range r.Results {
			walk(child)
		}
	}
	walk(root)
	return items
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
