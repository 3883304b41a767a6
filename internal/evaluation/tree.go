package evaluation

import (
	"context"
	"sort"

	"gradus/internal/evaluation/ports"
)

// Stable group identifiers.
const (
	GroupIDGraduation      = "graduation"
	GroupIDLiberal         = "liberal"
	GroupIDLiberalRequired = "liberal-required-basic"
	GroupIDMajor           = "major"
	GroupIDRequiredCourses = "required-courses"
)

// Builder assembles graduation requirement trees. The static shape is
// fixed policy; only the required-courses branch varies with the catalog,
// so a fresh tree is built per evaluation to see the current catalog
// state.
type Builder struct {
	provider ports.CourseProvider
}

// NewBuilder constructs a tree builder. Panics if provider is nil.
func NewBuilder(provider ports.CourseProvider) *Builder {
	if provider == nil {
		panic("evaluation.NewBuilder: course provider is required")
	}
	return &Builder{provider: provider}
}

// Build assembles the full graduation tree for the current catalog. The
// top level requires every branch: the overall credit floor, the liberal
// arts branch, the major branch, one rule per mandatory course, and the
// extracurricular floor. Required courses are ordered by code so the tree
// is deterministic regardless of provider iteration order.
func (b *Builder) Build(ctx context.Context) (*Group, error) {
	required, err := b.provider.GetRequiredCourses(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(required, func(i, j int) bool { return required[i].Code < required[j].Code })

	requiredRules := make([]Node, 0, len(required))
	for _, course := range required {
		requiredRules = append(requiredRules, NewRequiredCourseRule(course.Code, course.Name))
	}

	return NewGroup(GroupIDGraduation, LogicAnd, "graduation requirements",
		NewTotalCreditRule(b.provider),
		NewGroup(GroupIDLiberal, LogicAnd, "liberal arts requirements",
			NewLiberalTotalCreditRule(b.provider),
			NewGroup(GroupIDLiberalRequired, LogicAnd, "required basic liberal courses"),
		),
		NewGroup(GroupIDMajor, LogicAnd, "major requirements",
			NewMajorBasicCreditRule(b.provider),
			NewMajorAdvancedCreditRule(b.provider),
		),
		NewGroup(GroupIDRequiredCourses, LogicAnd, "mandatory courses", requiredRules...),
		NewExtraCurricularRule(),
	), nil
}
