package analyzer

import (
	"strings"
	"testing"
)

func TestEmptySourceYieldsBaseline(t *testing.T) {
	a := New()

	for _, lang := range []string{"go", "python", "unknown"} {
		m := a.Analyze(nil, lang)
		if m.Cyclomatic != 1 {
			t.Errorf("%s: empty source Cyclomatic = %d, want 1", lang, m.Cyclomatic)
		}
		if m.Maintainability != m.Maintainability { // NaN check
			t.Errorf("%s: maintainability is NaN", lang)
		}
		if m.Maintainability < 0 || m.Maintainability > 100 {
			t.Errorf("%s: maintainability %f out of [0,100]", lang, m.Maintainability)
		}
	}
}

func TestStructuredIfWithLogicalAnd(t *testing.T) {
	a := New()
	source := []byte(`package main

func check(a, b bool) bool {
	if a && b {
		return true
	}
	return false
}
`)

	m := a.Analyze(source, "go")
	// base 1 + if + &&
	if m.Cyclomatic != 3 {
		t.Errorf("Cyclomatic = %d, want 3", m.Cyclomatic)
	}
	if m.Halstead.Volume <= 0 {
		t.Errorf("Halstead volume = %f, want > 0", m.Halstead.Volume)
	}
}

func TestStructuredCountsBranchForms(t *testing.T) {
	a := New()
	source := []byte(`package main

func classify(n int) string {
	switch n {
	case 0:
		return "zero"
	case 1:
		return "one"
	}
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			continue
		}
	}
	return "many"
}
`)

	m := a.Analyze(source, "go")
	// base 1 + 2 case clauses + for + if
	if m.Cyclomatic != 5 {
		t.Errorf("Cyclomatic = %d, want 5", m.Cyclomatic)
	}
}

func TestStructuredJavaScript(t *testing.T) {
	a := New()
	source := []byte(`function pick(a, b) {
  return a ? a : b || 0;
}
`)

	m := a.Analyze(source, "javascript")
	// base 1 + ternary + ||
	if m.Cyclomatic != 3 {
		t.Errorf("Cyclomatic = %d, want 3", m.Cyclomatic)
	}
}

func TestPatternPython(t *testing.T) {
	a := New()
	source := []byte(`# module docstring comment
if x:
    pass
elif y and z:
    pass
`)

	m := a.Analyze(source, "python")
	// base 1 + if + elif + and; comment line skipped
	if m.Cyclomatic != 4 {
		t.Errorf("Cyclomatic = %d, want 4", m.Cyclomatic)
	}
}

func TestPatternSkipsCommentsAndBlanks(t *testing.T) {
	a := New()
	source := []byte(`# if this were code it would count
# while this too

x = 1
`)

	m := a.Analyze(source, "python")
	if m.Cyclomatic != 1 {
		t.Errorf("Cyclomatic = %d, want 1 (comments must not count)", m.Cyclomatic)
	}
}

func TestFallbackUnknownLanguage(t *testing.T) {
	a := New()
	source := []byte(`if (x) {
  doThing();
} else {
  other();
}
`)

	m := a.Analyze(source, "brainfuck")
	// base 1 + if + else
	if m.Cyclomatic != 3 {
		t.Errorf("Cyclomatic = %d, want 3", m.Cyclomatic)
	}
}

func TestFallbackCap(t *testing.T) {
	a := New()
	var sb strings.Builder
	for i := 0; i < 200; i++ {
		sb.WriteString("if x then y\n")
	}

	m := a.Analyze([]byte(sb.String()), "unknown")
	if m.Cyclomatic != maxFallbackCyclomatic {
		t.Errorf("Cyclomatic = %d, want cap %d", m.Cyclomatic, maxFallbackCyclomatic)
	}
}

func TestMetricsBoundsProperty(t *testing.T) {
	a := New()
	sources := [][]byte{
		nil,
		[]byte("x"),
		[]byte("package main\nfunc main() {}\n"),
		[]byte(strings.Repeat("if a && b || c { f() }\n", 300)),
		[]byte("def f():\n    if a or b:\n        pass\n"),
		[]byte(strings.Repeat("word ", 10000)),
	}
	languages := []string{"go", "python", "unknown", "javascript"}

	for _, src := range sources {
		for _, lang := range languages {
			m := a.Analyze(src, lang)
			if m.Cyclomatic < 1 {
				t.Errorf("%s: Cyclomatic = %d, want >= 1", lang, m.Cyclomatic)
			}
			if m.Maintainability < 0 || m.Maintainability > 100 {
				t.Errorf("%s: maintainability %f out of [0,100]", lang, m.Maintainability)
			}
			if m.Halstead.Volume < 0 || m.Halstead.Effort < 0 {
				t.Errorf("%s: negative Halstead figures: %+v", lang, m.Halstead)
			}
		}
	}
}

func TestQuickAnalyzeBounds(t *testing.T) {
	a := New()

	tests := []struct {
		lines int
		want  int
	}{
		{0, 1},
		{10, 1},
		{250, 5},
		{5000, 20}, // clamped
	}

	for _, tt := range tests {
		source := []byte(strings.Repeat("line\n", tt.lines))
		m := a.QuickAnalyze(source, "go")
		if m.Cyclomatic != tt.want {
			t.Errorf("QuickAnalyze(%d lines) Cyclomatic = %d, want %d", tt.lines, m.Cyclomatic, tt.want)
		}
		if m.Maintainability < 0 || m.Maintainability > 100 {
			t.Errorf("QuickAnalyze(%d lines) maintainability %f out of range", tt.lines, m.Maintainability)
		}
	}
}

func TestFamilyFor(t *testing.T) {
	tests := []struct {
		tag  string
		want Family
	}{
		{"go", FamilyStructured},
		{"typescript", FamilyStructured},
		{"zig", FamilyStructured},
		{"python", FamilyPattern},
		{"ruby", FamilyPattern},
		{"shell", FamilyPattern},
		{"cobol", FamilyFallback},
		{"", FamilyFallback},
	}

	for _, tt := range tests {
		if got := FamilyFor(tt.tag); got != tt.want {
			t.Errorf("FamilyFor(%q) = %v, want %v", tt.tag, got, tt.want)
		}
	}
}

func TestLanguageForPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"main.go", "go"},
		{"src/App.tsx", "typescript"},
		{"script.py", "python"},
		{"deploy.sh", "shell"},
		{"data.xyz", "xyz"},
		{"Makefile", "unknown"},
	}

	for _, tt := range tests {
		if got := LanguageForPath(tt.path); got != tt.want {
			t.Errorf("LanguageForPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestCountLines(t *testing.T) {
	tests := []struct {
		source string
		want   int
	}{
		{"", 0},
		{"one line", 1},
		{"a\nb\n", 2},
		{"a\nb", 2},
	}

	for _, tt := range tests {
		if got := countLines([]byte(tt.source)); got != tt.want {
			t.Errorf("countLines(%q) = %d, want %d", tt.source, got, tt.want)
		}
	}
}
