// Package review provides the built-in code review toolset: a set of
// heuristic tools that score a piece of code and a sample graph that
// loops the pipeline until the quality score clears its threshold.
package review

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/rill/pkg/domain"
	"github.com/aretw0/rill/pkg/registry"
)

var funcPattern = regexp.MustCompile(`def\s+([a-zA-Z_][a-zA-Z0-9_]*)\s*\(`)

// DefaultQualityThreshold is applied when the initial state does not
// set one.
const DefaultQualityThreshold = 7

func codeFromState(state domain.State) string {
	if code, ok := state["code"].(string); ok {
		return code
	}
	return fmt.Sprintf("%v", state["code"])
}

// ExtractFunctions records the function names found in the code.
func ExtractFunctions(ctx context.Context, state domain.State) (domain.State, error) {
	code := codeFromState(state)

	names := []any{}
	for _, m := range funcPattern.FindAllStringSubmatch(code, -1) {
		names = append(names, m[1])
	}

	state["functions"] = names
	state["function_count"] = len(names)
	return state, nil
}

// CheckComplexity scores complexity on a 1-10 scale from the non-empty
// line count.
func CheckComplexity(ctx context.Context, state domain.State) (domain.State, error) {
	code := codeFromState(state)

	lines := 0
	for _, l := range strings.Split(code, "\n") {
		if strings.TrimSpace(l) != "" {
			lines++
		}
	}

	score := lines / 10
	if score < 1 {
		score = 1
	}
	if score > 10 {
		score = 10
	}

	state["line_count"] = lines
	state["complexity_score"] = score
	return state, nil
}

// DetectBasicIssues flags common smells in the code.
func DetectBasicIssues(ctx context.Context, state domain.State) (domain.State, error) {
	code := codeFromState(state)

	issues := []any{}
	if strings.Contains(code, "print(") {
		issues = append(issues, "Debug prints present")
	}
	if strings.Contains(code, "TODO") {
		issues = append(issues, "TODO comment found")
	}
	if strings.Contains(code, "  ") {
		issues = append(issues, "Potential inconsistent indentation")
	}

	state["issues"] = issues
	state["issue_count"] = len(issues)
	return state, nil
}

// SuggestImprovements derives suggestions and a 0-10 quality score from
// the accumulated findings.
func SuggestImprovements(ctx context.Context, state domain.State) (domain.State, error) {
	complexity := intFromState(state, "complexity_score", 5)
	issueCount := intFromState(state, "issue_count", 0)
	fnCount := intFromState(state, "function_count", 0)

	suggestions := []any{}
	if complexity > 7 {
		suggestions = append(suggestions, "Consider splitting large functions into smaller ones.")
	}
	if issueCount > 0 {
		suggestions = append(suggestions, "Fix detected issues before merging.")
	}
	if fnCount == 0 {
		suggestions = append(suggestions, "No functions detected. Consider structuring code into functions.")
	}

	quality := 10
	if complexity > 5 {
		quality -= complexity - 5
	}
	quality -= issueCount
	if quality < 0 {
		quality = 0
	}

	state["suggestions"] = suggestions
	state["quality_score"] = quality

	if _, ok := state["quality_threshold"]; !ok {
		state["quality_threshold"] = DefaultQualityThreshold
	}
	return state, nil
}

// EvaluateQuality compares the quality score against the threshold and
// records the verdict under quality_ok.
func EvaluateQuality(ctx context.Context, state domain.State) (domain.State, error) {
	score := intFromState(state, "quality_score", 0)
	threshold := intFromState(state, "quality_threshold", DefaultQualityThreshold)
	state["quality_ok"] = score >= threshold
	return state, nil
}

func intFromState(state domain.State, key string, fallback int) int {
	switch v := state[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return fallback
	}
}

// Register adds the review tools to a registry under their canonical
// names.
func Register(reg *registry.Registry) error {
	tools := []struct {
		name string
		fn   registry.ToolFunc
	}{
		{"extract_functions", ExtractFunctions},
		{"check_complexity", CheckComplexity},
		{"detect_basic_issues", DetectBasicIssues},
		{"suggest_improvements", SuggestImprovements},
		{"evaluate_quality", EvaluateQuality},
	}
	for _, t := range tools {
		if err := reg.Register(t.name, t.fn); err != nil {
			return err
		}
	}
	return nil
}

// SampleGraph returns the sample code review workflow:
//
//	extract_functions -> check_complexity -> detect_basic_issues
//	-> suggest_improvements -> evaluate_quality
//
// with a loop edge back to extract_functions while quality_ok is false,
// and a terminal node once the quality clears the threshold.
func SampleGraph() domain.GraphDefinition {
	return domain.GraphDefinition{
		EntryNodeID: "extract_functions",
		Nodes: []domain.Node{
			{ID: "extract_functions", Tool: "extract_functions"},
			{ID: "check_complexity", Tool: "check_complexity"},
			{ID: "detect_basic_issues", Tool: "detect_basic_issues"},
			{ID: "suggest_improvements", Tool: "suggest_improvements"},
			{ID: "evaluate_quality", Tool: "evaluate_quality"},
			{ID: "done", Kind: domain.NodeKindTerminal},
		},
		Edges: []domain.Edge{
			{From: "extract_functions", To: "check_complexity"},
			{From: "check_complexity", To: "detect_basic_issues"},
			{From: "detect_basic_issues", To: "suggest_improvements"},
			{From: "suggest_improvements", To: "evaluate_quality"},
			{From: "evaluate_quality", To: "extract_functions", Condition: &domain.Condition{Key: "quality_ok", Op: domain.OpEq, Value: false}},
			{From: "evaluate_quality", To: "done", Condition: &domain.Condition{Key: "quality_ok", Op: domain.OpEq, Value: true}, Priority: 1},
		},
	}
}
