package evaluation

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Node is one vertex of a requirement tree: either a leaf Rule or a Group
// of nodes. The interface is sealed to this package so every tree is built
// from the two audited shapes; external packages compose trees through the
// constructors, not by implementing Node.
type Node interface {
	// ID returns the node's stable identifier, unique within a tree.
	ID() string

	// Evaluate judges the node against one student context and returns the
	// node's result subtree. An error is terminal: it means course data
	// could not be obtained, and no partial result exists.
	Evaluate(ctx context.Context, ec *Context) (*Result, error)

	isNode()
}

// EvalFunc computes a leaf rule's raw outcome from the student context.
type EvalFunc func(ctx context.Context, ec *Context) (Outcome, error)

// MessageFunc renders an outcome as a human-readable progress line.
type MessageFunc func(out Outcome) string

// Rule is a leaf requirement. The evaluation closure owns the threshold
// and the data access; Rule itself only shapes the outcome into a Result.
type Rule struct {
	id         string
	ruleType   RuleType
	courseCode string
	evalFn     EvalFunc
	messageFn  MessageFunc
}

// NewRule constructs a leaf rule. Panics on a missing closure since a rule
// without one is a programming error, not a runtime condition.
func NewRule(ruleID string, ruleType RuleType, evalFn EvalFunc, messageFn MessageFunc) *Rule {
	if evalFn == nil {
		panic("evaluation.NewRule: evalFn is required")
	}
	if messageFn == nil {
		panic("evaluation.NewRule: messageFn is required")
	}
	return &Rule{id: ruleID, ruleType: ruleType, evalFn: evalFn, messageFn: messageFn}
}

func (r *Rule) ID() string { return r.id }

func (r *Rule) isNode() {}

// Evaluate runs the rule's closure and converts the outcome to a Result.
// Remaining is clamped at zero for surplus; course presence rules always
// report zero remaining because partial completion of one course does not
// exist.
func (r *Rule) Evaluate(ctx context.Context, ec *Context) (*Result, error) {
	out, err := r.evalFn(ctx, ec)
	if err != nil {
		return nil, err
	}

	remaining := 0.0
	if r.ruleType != RuleRequiredCourse {
		remaining = max(0, out.Required-out.Current)
	}
	required := out.Required
	current := out.Current

	return &Result{
		ID:         r.id,
		Type:       r.ruleType,
		Passed:     out.Passed,
		CourseCode: r.courseCode,
		Required:   &required,
		Current:    &current,
		Remaining:  &remaining,
		Message:    r.messageFn(out),
	}, nil
}

// Group aggregates child nodes under AND or OR logic.
type Group struct {
	id          string
	description string
	logic       Logic
	children    []Node
}

// NewGroup constructs a rule group. An empty AND group passes vacuously;
// an empty OR group fails, since no alternative was satisfiable.
func NewGroup(groupID string, logic Logic, description string, children ...Node) *Group {
	return &Group{id: groupID, description: description, logic: logic, children: children}
}

func (g *Group) ID() string { return g.id }

func (g *Group) isNode() {}

// Children returns the group's child nodes in declared order.
func (g *Group) Children() []Node { return g.children }

// Evaluate runs every child and aggregates their verdicts. All children
// are always evaluated, even once the group's own verdict is decided, so
// the report shows the student's full standing. Children run concurrently;
// each goroutine writes only its own slot, and the declared order is
// preserved in the results. Any child error aborts the whole evaluation.
func (g *Group) Evaluate(ctx context.Context, ec *Context) (*Result, error) {
	results := make([]*Result, len(g.children))

	eg, gctx := errgroup.WithContext(ctx)
	for i, child := range g.children {
		eg.Go(func() error {
			res, err := child.Evaluate(gctx, ec)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return &Result{
		ID:          g.id,
		Passed:      g.aggregate(results),
		Logic:       g.logic,
		Description: g.description,
		Results:     results,
	}, nil
}

func (g *Group) aggregate(results []*Result) bool {
	if g.logic == LogicOr {
		for _, r := range results {
			if r.Passed {
				return true
			}
		}
		return false
	}
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
