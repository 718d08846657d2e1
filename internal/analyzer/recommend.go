package analyzer

import "github.com/standardbeagle/codepulse/internal/types"

// Recommendations maps a metrics value to human-readable guidance using
// fixed thresholds. Pure function: same input, same output, no side
// effects.
func Recommendations(m types.ComplexityMetrics) []string {
	var recs []string

	if m.Cyclomatic > 15 {
		recs = append(recs, "High cyclomatic complexity - consider breaking this file into smaller functions")
	} else if m.Cyclomatic > 10 {
		recs = append(recs, "Moderate cyclomatic complexity - watch for growing branch counts")
	}

	if m.Maintainability < 40 {
		recs = append(recs, "Low maintainability index - this file is becoming hard to sustain")
	} else if m.Maintainability < 60 {
		recs = append(recs, "Moderate maintainability index - consider simplifying before it degrades further")
	}

	if m.Halstead.Difficulty > 30 {
		recs = append(recs, "High Halstead difficulty - dense logic carries high cognitive load")
	}

	if len(recs) == 0 {
		recs = append(recs, "Code complexity is in good shape")
	}
	return recs
}
