package analyzer

import (
	"math"
	"strings"

	"github.com/standardbeagle/codepulse/internal/types"
)

// maxFallbackCyclomatic bounds the generic keyword heuristic, which has no
// grammar to keep it honest.
const maxFallbackCyclomatic = 50

// dialect describes the keyword surface of a pattern-analyzed language.
type dialect struct {
	commentPrefixes  []string
	controlKeywords  map[string]bool
	logicalOperators map[string]bool
}

var dialects = map[string]*dialect{
	"python": {
		commentPrefixes:  []string{"#"},
		controlKeywords:  wordSet("if", "elif", "for", "while", "except", "def", "with"),
		logicalOperators: wordSet("and", "or"),
	},
	"ruby": {
		commentPrefixes:  []string{"#"},
		controlKeywords:  wordSet("if", "elsif", "unless", "for", "while", "until", "rescue", "when", "def"),
		logicalOperators: wordSet("and", "or", "&&", "||"),
	},
	"shell": {
		commentPrefixes:  []string{"#"},
		controlKeywords:  wordSet("if", "elif", "for", "while", "until", "case"),
		logicalOperators: wordSet("&&", "||"),
	},
}

// genericDialect drives the fallback strategy for unrecognized languages.
var genericDialect = &dialect{
	commentPrefixes:  []string{"//", "#", "/*", "*", "--"},
	controlKeywords:  wordSet("if", "else", "switch", "case", "for", "while", "do", "try", "catch", "except"),
	logicalOperators: wordSet("&&", "||", "and", "or"),
}

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// analyzePattern scores source by counting control keywords and logical
// operators on non-blank, non-comment lines.
func analyzePattern(source []byte, d *dialect, lineCount int) types.ComplexityMetrics {
	complexity := 1

	for _, line := range strings.Split(string(source), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || hasCommentPrefix(trimmed, d.commentPrefixes) {
			continue
		}
		for _, token := range tokenizeLine(trimmed) {
			if d.controlKeywords[token] || d.logicalOperators[token] {
				complexity++
			}
		}
	}

	if lineCount < 1 {
		lineCount = 1
	}
	halstead := approximateHalstead(complexity, lineCount)
	mi := clamp(0, 100, 100.0-0.2*float64(complexity)-0.1*float64(lineCount))

	return types.ComplexityMetrics{
		Cyclomatic:      complexity,
		Maintainability: mi,
		Halstead:        halstead,
	}
}

// analyzeFallback scores source with the language-agnostic keyword set.
func analyzeFallback(source []byte, lineCount int) types.ComplexityMetrics {
	m := analyzePattern(source, genericDialect, lineCount)

	if m.Cyclomatic > maxFallbackCyclomatic {
		m.Cyclomatic = maxFallbackCyclomatic
	}
	m.Maintainability = clamp(0, 100, 100.0-0.25*float64(m.Cyclomatic)-0.05*float64(lineCount))
	m.Halstead = approximateHalstead(m.Cyclomatic, lineCount)
	return m
}

// approximateHalstead derives Halstead figures from line count and
// complexity when no token-level counts exist.
func approximateHalstead(complexity, lineCount int) types.HalsteadMetrics {
	volume := float64(lineCount) * math.Log2(float64(complexity)+1)
	difficulty := float64(complexity) / 2.0
	if volume < 1 {
		volume = 1
	}
	if difficulty < 1 {
		difficulty = 1
	}
	return types.HalsteadMetrics{
		Difficulty: difficulty,
		Volume:     volume,
		Effort:     difficulty * volume,
	}
}

func hasCommentPrefix(line string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// tokenizeLine splits a line into keyword-sized tokens. Punctuation that
// glues keywords to expressions (parens, colons, semicolons) splits too,
// but && and || survive as their own tokens.
func tokenizeLine(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		switch r {
		case ' ', '\t', '(', ')', '{', '}', '[', ']', ':', ';', ',':
			return true
		}
		return false
	})
}
