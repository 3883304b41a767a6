package evaluation

import (
	"context"
	"fmt"
	"strconv"

	catalogcontracts "gradus/contracts/catalog"
	"gradus/internal/evaluation/ports"
	id "gradus/pkg/domain"
)

// Stable rule identifiers. Tests and display layers reference these.
const (
	RuleIDTotalCredit         = "total-credit"
	RuleIDLiberalTotalCredit  = "liberal-total-credit"
	RuleIDMajorBasicCredit    = "major-basic-credit"
	RuleIDMajorAdvancedCredit = "major-advanced-credit"
	RuleIDExtraCurricular     = "extra-curricular"

	requiredCourseIDPrefix = "required-course-"
)

// NewTotalCreditRule requires the overall earned-credit floor across every
// category.
func NewTotalCreditRule(provider ports.CourseProvider) *Rule {
	return NewRule(
		RuleIDTotalCredit,
		RuleTotalCredit,
		creditEval(provider, TotalCreditRequired, func(catalogcontracts.CourseAttributes) bool { return true }),
		creditMessage("total credits"),
	)
}

// NewMajorBasicCreditRule requires the credit floor over basic-stage major
// courses.
func NewMajorBasicCreditRule(provider ports.CourseProvider) *Rule {
	return NewRule(
		RuleIDMajorBasicCredit,
		RuleMajorBasicCredit,
		creditEval(provider, MajorBasicCreditRequired, func(c catalogcontracts.CourseAttributes) bool {
			return c.Category == catalogcontracts.CategoryMajor && c.Stage == catalogcontracts.StageBasic
		}),
		creditMessage("basic major credits"),
	)
}

// NewMajorAdvancedCreditRule requires the credit floor over advanced-stage
// major courses.
func NewMajorAdvancedCreditRule(provider ports.CourseProvider) *Rule {
	return NewRule(
		RuleIDMajorAdvancedCredit,
		RuleMajorAdvancedCredit,
		creditEval(provider, MajorAdvancedCreditRequired, func(c catalogcontracts.CourseAttributes) bool {
			return c.Category == catalogcontracts.CategoryMajor && c.Stage == catalogcontracts.StageAdvanced
		}),
		creditMessage("advanced major credits"),
	)
}

// NewLiberalTotalCreditRule requires the credit floor over liberal arts
// courses of any stage.
func NewLiberalTotalCreditRule(provider ports.CourseProvider) *Rule {
	return NewRule(
		RuleIDLiberalTotalCredit,
		RuleLiberalTotalCredit,
		creditEval(provider, LiberalTotalCreditRequired, func(c catalogcontracts.CourseAttributes) bool {
			return c.Category == catalogcontracts.CategoryLiberal
		}),
		creditMessage("liberal arts credits"),
	)
}

// NewRequiredCourseRule requires completion of one specific course. The
// course must appear in the student's record without a failing grade;
// catalog attributes are not consulted, so an unlisted code still counts
// as taken.
func NewRequiredCourseRule(code, name string) *Rule {
	display := code
	if name != "" {
		display = fmt.Sprintf("%s (%s)", code, name)
	}
	rule := NewRule(
		requiredCourseIDPrefix+code,
		RuleRequiredCourse,
		func(_ context.Context, ec *Context) (Outcome, error) {
			current := 0.0
			completed := ec.Completed(code)
			if completed {
				current = 1
			}
			return Outcome{Passed: completed, Current: current, Required: 1}, nil
		},
		func(out Outcome) string {
			if out.Passed {
				return fmt.Sprintf("required course %s completed", display)
			}
			return fmt.Sprintf("required course %s not completed", display)
		},
	)
	rule.courseCode = code
	return rule
}

// NewExtraCurricularRule requires the accumulated activity unit floor.
// Transfer students owe half the nominal threshold; the effective value is
// resolved here, once, and carried through the outcome so the result and
// message always agree.
func NewExtraCurricularRule() *Rule {
	return NewRule(
		RuleIDExtraCurricular,
		RuleExtraCurricular,
		func(_ context.Context, ec *Context) (Outcome, error) {
			required := ExtraCurricularRequired
			if ec.StudentType == id.StudentTypeTransfer {
				required = ExtraCurricularTransferRequired
			}
			current := float64(ec.ExtraCurricularUnits)
			return Outcome{Passed: current >= required, Current: current, Required: required}, nil
		},
		creditMessage("extracurricular units"),
	)
}

// creditEval builds the evaluation closure shared by the credit-floor
// rules: fetch attributes for the student's courses, sum the credits of
// those matching the filter, and compare against the threshold.
func creditEval(provider ports.CourseProvider, required float64, include func(catalogcontracts.CourseAttributes) bool) EvalFunc {
	return func(ctx context.Context, ec *Context) (Outcome, error) {
		current, err := sumCredits(ctx, provider, ec, include)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Passed: current >= required, Current: current, Required: required}, nil
	}
}

// sumCredits totals the earned credit of the student's courses that match
// the filter. Failed courses earn nothing. Codes the provider does not
// know, and records with a non-positive credit value, contribute zero
// rather than failing the evaluation.
func sumCredits(ctx context.Context, provider ports.CourseProvider, ec *Context, include func(catalogcontracts.CourseAttributes) bool) (float64, error) {
	if len(ec.CourseCodes) == 0 {
		return 0, nil
	}
	courses, err := provider.GetByCodes(ctx, ec.CourseCodes)
	if err != nil {
		return 0, err
	}

	var total float64
	for _, course := range courses {
		if ec.Failed(course.Code) {
			continue
		}
		if course.Credit <= 0 {
			continue
		}
		if !include(course) {
			continue
		}
		total += float64(course.Credit)
	}
	return total, nil
}

// creditMessage renders a progress line such as
// "total credits: 3 of 130 earned, 127 short".
func creditMessage(label string) MessageFunc {
	return func(out Outcome) string {
		if out.Passed {
			return fmt.Sprintf("%s: %s of %s earned", label, trimFloat(out.Current), trimFloat(out.Required))
		}
		return fmt.Sprintf("%s: %s of %s earned, %s short",
			label, trimFloat(out.Current), trimFloat(out.Required), trimFloat(out.Required-out.Current))
	}
}

// trimFloat formats a number without trailing zeros, so whole credit
// values print as integers.
func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
