package analyzer

import (
	"strings"
	"testing"

	"github.com/standardbeagle/codepulse/internal/types"
)

func metricsWith(cyclomatic int, maintainability, difficulty float64) types.ComplexityMetrics {
	return types.ComplexityMetrics{
		Cyclomatic:      cyclomatic,
		Maintainability: maintainability,
		Halstead:        types.HalsteadMetrics{Difficulty: difficulty, Volume: 100, Effort: 100 * difficulty},
	}
}

func TestRecommendationsHealthyCode(t *testing.T) {
	recs := Recommendations(metricsWith(3, 85, 5))

	if len(recs) != 1 {
		t.Fatalf("got %d recommendations, want exactly 1 positive message", len(recs))
	}
	if !strings.Contains(recs[0], "good shape") {
		t.Errorf("unexpected positive message: %q", recs[0])
	}
}

func TestRecommendationsThresholds(t *testing.T) {
	tests := []struct {
		name    string
		metrics types.ComplexityMetrics
		wantSub string
	}{
		{"high cyclomatic", metricsWith(16, 85, 5), "High cyclomatic"},
		{"moderate cyclomatic", metricsWith(11, 85, 5), "Moderate cyclomatic"},
		{"low maintainability", metricsWith(3, 39, 5), "Low maintainability"},
		{"moderate maintainability", metricsWith(3, 59, 5), "Moderate maintainability"},
		{"high difficulty", metricsWith(3, 85, 31), "Halstead difficulty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs := Recommendations(tt.metrics)
			found := false
			for _, r := range recs {
				if strings.Contains(r, tt.wantSub) {
					found = true
				}
			}
			if !found {
				t.Errorf("recommendations %v missing %q", recs, tt.wantSub)
			}
		})
	}
}

func TestRecommendationsCombine(t *testing.T) {
	recs := Recommendations(metricsWith(20, 30, 40))

	if len(recs) != 3 {
		t.Errorf("got %d recommendations, want 3 (complexity, maintainability, difficulty)", len(recs))
	}
	for _, r := range recs {
		if strings.Contains(r, "good shape") {
			t.Error("positive message must not appear alongside warnings")
		}
	}
}

func TestRecommendationsDeterministic(t *testing.T) {
	m := metricsWith(12, 55, 10)
	first := Recommendations(m)
	second := Recommendations(m)

	if len(first) != len(second) {
		t.Fatal("recommendation count differs across calls")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("recommendation %d differs: %q vs %q", i, first[i], second[i])
		}
	}
}
