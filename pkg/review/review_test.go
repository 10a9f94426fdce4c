package review_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/rill/internal/runtime"
	"github.com/aretw0/rill/pkg/domain"
	"github.com/aretw0/rill/pkg/registry"
	"github.com/aretw0/rill/pkg/review"
)

const cleanCode = "def add(a, b):\n\treturn a + b\n\ndef sub(a, b):\n\treturn a - b\n"

const messyCode = "def debug():\n\tprint(\"here\")\n\t# TODO clean this up\n"

func TestExtractFunctions(t *testing.T) {
	state, err := review.ExtractFunctions(context.Background(), domain.State{"code": cleanCode})
	require.NoError(t, err)

	assert.Equal(t, 2, state["function_count"])
	assert.Equal(t, []any{"add", "sub"}, state["functions"])
}

func TestExtractFunctions_NoFunctions(t *testing.T) {
	state, err := review.ExtractFunctions(context.Background(), domain.State{"code": "x = 1"})
	require.NoError(t, err)
	assert.Equal(t, 0, state["function_count"])
}

func TestCheckComplexity(t *testing.T) {
	tests := []struct {
		name  string
		code  string
		score int
	}{
		{"TinySnippet", "x = 1", 1},
		{"BlankLinesIgnored", "a = 1\n\n\nb = 2", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, err := review.CheckComplexity(context.Background(), domain.State{"code": tt.code})
			require.NoError(t, err)
			assert.Equal(t, tt.score, state["complexity_score"])
		})
	}
}

func TestDetectBasicIssues(t *testing.T) {
	state, err := review.DetectBasicIssues(context.Background(), domain.State{"code": messyCode})
	require.NoError(t, err)
	assert.Equal(t, 2, state["issue_count"])

	clean, err := review.DetectBasicIssues(context.Background(), domain.State{"code": cleanCode})
	require.NoError(t, err)
	assert.Equal(t, 0, clean["issue_count"])
}

func TestSuggestImprovements(t *testing.T) {
	state, err := review.SuggestImprovements(context.Background(), domain.State{
		"complexity_score": 8,
		"issue_count":      2,
		"function_count":   0,
	})
	require.NoError(t, err)

	// 10 - (8-5) - 2 = 5.
	assert.Equal(t, 5, state["quality_score"])
	assert.Len(t, state["suggestions"], 3)
	assert.Equal(t, review.DefaultQualityThreshold, state["quality_threshold"])
}

func TestSuggestImprovements_KeepsCallerThreshold(t *testing.T) {
	state, err := review.SuggestImprovements(context.Background(), domain.State{
		"complexity_score":  1,
		"issue_count":       0,
		"function_count":    1,
		"quality_threshold": 9,
	})
	require.NoError(t, err)
	assert.Equal(t, 9, state["quality_threshold"])
	assert.Equal(t, 10, state["quality_score"])
}

func TestEvaluateQuality(t *testing.T) {
	ok, err := review.EvaluateQuality(context.Background(), domain.State{
		"quality_score":     8,
		"quality_threshold": 7,
	})
	require.NoError(t, err)
	assert.Equal(t, true, ok["quality_ok"])

	notOK, err := review.EvaluateQuality(context.Background(), domain.State{
		"quality_score":     5,
		"quality_threshold": 7,
	})
	require.NoError(t, err)
	assert.Equal(t, false, notOK["quality_ok"])
}

func TestRegister_PopulatesAllTools(t *testing.T) {
	reg := registry.New()
	require.NoError(t, review.Register(reg))

	assert.Equal(t, []string{
		"check_complexity",
		"detect_basic_issues",
		"evaluate_quality",
		"extract_functions",
		"suggest_improvements",
	}, reg.Names())

	// Registering twice collides on every name.
	assert.Error(t, review.Register(reg))
}

func TestSampleGraph_RunsToCompletion(t *testing.T) {
	reg := registry.New()
	require.NoError(t, review.Register(reg))
	engine := runtime.New(reg)

	graph := review.SampleGraph()
	graph.ID = "sample"
	require.NoError(t, graph.Validate())

	var steps []domain.Step
	final, err := engine.Execute(context.Background(), graph, domain.State{"code": cleanCode}, func(s domain.Step) {
		steps = append(steps, s)
	})
	require.NoError(t, err)

	// One pass through the five-tool pipeline is enough for clean code.
	assert.Len(t, steps, 5)
	assert.Equal(t, true, final["quality_ok"])
	assert.Equal(t, 10, final["quality_score"])
}
