package analyzer

import (
	"math"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/codepulse/internal/types"
)

const (
	// maxCyclomatic bounds structured complexity against pathological input.
	maxCyclomatic = 100

	// maxWalkNodes bounds the traversal itself. Minified or generated input
	// can produce enormous trees; past the budget the tallies so far still
	// yield a valid, if approximate, result.
	maxWalkNodes = 1_000_000
)

// treeTally accumulates decision points and Halstead token counts during
// a single tree walk.
type treeTally struct {
	cyclomatic int

	operators      map[string]int // distinct operator token -> occurrences
	operandNames   map[string]int // distinct identifier name -> occurrences
	literalCount   int            // literal occurrences (count toward N2 only)
	operatorTotal  int
	identifierHits int
}

// analyzeStructured walks the syntax tree iteratively with an explicit
// work stack, counting decision points and Halstead tokens in one pass.
func analyzeStructured(tree *tree_sitter.Tree, source []byte, lineCount int) types.ComplexityMetrics {
	tally := &treeTally{
		operators:    make(map[string]int),
		operandNames: make(map[string]int),
	}

	root := tree.RootNode()
	stack := make([]*tree_sitter.Node, 0, 256)
	stack = append(stack, root)
	visited := 0

	for len(stack) > 0 && visited < maxWalkNodes {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node == nil {
			continue
		}
		visited++

		tallyNode(node, source, tally)

		for i := uint(0); i < node.ChildCount(); i++ {
			stack = append(stack, node.Child(i))
		}
	}

	cyclomatic := 1 + tally.cyclomatic
	if cyclomatic > maxCyclomatic {
		cyclomatic = maxCyclomatic
	}

	halstead := halsteadFromTally(tally)
	if lineCount < 1 {
		lineCount = 1
	}
	mi := maintainabilityIndex(halstead.Volume, cyclomatic, lineCount)

	return types.ComplexityMetrics{
		Cyclomatic:      cyclomatic,
		Maintainability: mi,
		Halstead:        halstead,
	}
}

// tallyNode classifies a single node as a decision point, operator, or
// operand. Node kinds cover the grammars in the parser registry; kinds a
// given grammar never emits simply never match.
func tallyNode(node *tree_sitter.Node, source []byte, tally *treeTally) {
	kind := node.Kind()

	switch kind {
	// Conditional branches
	case "if_statement", "if_expression":
		tally.cyclomatic++

	// Loop forms
	case "for_statement", "for_range_statement", "for_in_statement",
		"for_expression", "foreach_statement":
		tally.cyclomatic++
	case "while_statement", "while_expression", "do_while_statement", "do_statement":
		tally.cyclomatic++

	// Switch/case labels
	case "case_clause", "case_statement", "switch_case", "match_arm":
		tally.cyclomatic++
	case "expression_case", "type_case": // Go switch bodies
		tally.cyclomatic++

	// Ternary/conditional expressions
	case "conditional_expression", "ternary_expression":
		tally.cyclomatic++

	// Exception handling
	case "catch_clause", "except_clause":
		tally.cyclomatic++

	// Short-circuit operators hide an implicit branch
	case "binary_expression":
		if node.ChildCount() >= 3 {
			if operatorNode := node.Child(1); operatorNode != nil {
				operator := operatorNode.Kind()
				switch operator {
				case "&&", "||", "and", "or", "??":
					tally.cyclomatic++
				}
				tally.operators[operator]++
				tally.operatorTotal++
			}
		}

	case "unary_expression":
		if node.ChildCount() >= 1 {
			if operatorNode := node.Child(0); operatorNode != nil {
				tally.operators[operatorNode.Kind()]++
				tally.operatorTotal++
			}
		}

	case "assignment_expression":
		if node.ChildCount() >= 3 {
			if operatorNode := node.Child(1); operatorNode != nil {
				tally.operators[operatorNode.Kind()]++
				tally.operatorTotal++
			}
		}

	// Keyword operators
	case "if", "else", "for", "while", "switch", "case", "return", "break", "continue":
		tally.operators[kind]++
		tally.operatorTotal++

	// Operands: identifiers count toward the distinct-name vocabulary
	case "identifier", "field_identifier", "property_identifier", "type_identifier":
		if int(node.EndByte()) <= len(source) {
			name := string(source[node.StartByte():node.EndByte()])
			tally.operandNames[name]++
			tally.identifierHits++
		}

	// Operands: literals count toward total occurrences only
	case "number", "string", "boolean", "number_literal", "string_literal",
		"interpreted_string_literal", "raw_string_literal", "integer_literal",
		"float_literal", "char_literal", "rune_literal", "true", "false", "nil", "null":
		tally.literalCount++
	}
}

// halsteadFromTally derives Halstead figures with n1=n2=N1=N2 floors of 1
// so trivial input never divides by zero or takes log of zero.
func halsteadFromTally(tally *treeTally) types.HalsteadMetrics {
	n1 := len(tally.operators)
	n2 := len(tally.operandNames)
	N1 := tally.operatorTotal
	N2 := tally.identifierHits + tally.literalCount

	if n1 < 1 {
		n1 = 1
	}
	if n2 < 1 {
		n2 = 1
	}
	if N1 < 1 {
		N1 = 1
	}
	if N2 < 1 {
		N2 = 1
	}

	volume := float64(N1+N2) * math.Log2(float64(n1+n2))
	difficulty := (float64(n1) / 2.0) * (float64(N2) / float64(n2))

	return types.HalsteadMetrics{
		Difficulty: difficulty,
		Volume:     volume,
		Effort:     difficulty * volume,
	}
}

// maintainabilityIndex computes the composite index, clamped to [0,100].
func maintainabilityIndex(volume float64, cyclomatic, lineCount int) float64 {
	if volume < 1 {
		volume = 1
	}
	if lineCount < 1 {
		lineCount = 1
	}
	mi := 171.0 - 5.2*math.Log(volume) - 0.23*float64(cyclomatic) - 16.2*math.Log(float64(lineCount))
	return clamp(0, 100, mi)
}

func clamp(lo, hi, v float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
