package evaluation

import (
	"fmt"
	"strings"
)

// RenderTree renders a result tree as indented PASS/FAIL lines, one node
// per line. Meant for terminal output and log diagnostics, not for
// machine consumption.
func RenderTree(root *Result) string {
	var b strings.Builder
	renderNode(&b, root, 0)
	return b.String()
}

func renderNode(b *strings.Builder, r *Result, depth int) {
	if r == nil {
		return
	}
	indent := strings.Repeat("  ", depth)
	verdict := "FAIL"
	if r.Passed {
		verdict = "PASS"
	}

	if r.IsRule() {
		fmt.Fprintf(b, "%s[%s] %s: %s\n", indent, verdict, r.ID, r.Message)
		return
	}

	label := r.Description
	if label == "" {
		label = r.ID
	}
	fmt.Fprintf(b, "%s[%s] %s (%s of %d)\n", indent, verdict, label, strings.ToLower(string(r.Logic)), len(r.Results))
	for _, child := range r.Results {
		renderNode(b, child, depth+1)
	}
}

// RenderMissing renders the flattened unmet requirements as a bulleted
// list, or a single confirmation line when nothing is missing.
func RenderMissing(items []MissingItem) string {
	if len(items) == 0 {
		return "all requirements met\n"
	}
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "- %s\n", item.Message)
	}
	return b.String()
}
