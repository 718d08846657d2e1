package analyzer

import (
	"path/filepath"
	"strings"
	"sync"
	"unsafe"

	tree_sitter_zig "github.com/tree-sitter-grammars/tree-sitter-zig/bindings/go"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// extensionTags maps file extensions to language tags.
var extensionTags = map[string]string{
	".go":   "go",
	".js":   "javascript",
	".jsx":  "javascript",
	".mjs":  "javascript",
	".cjs":  "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".java": "java",
	".cs":   "csharp",
	".cpp":  "cpp",
	".cc":   "cpp",
	".cxx":  "cpp",
	".hpp":  "cpp",
	".hh":   "cpp",
	".h":    "cpp",
	".rs":   "rust",
	".php":  "php",
	".zig":  "zig",
	".py":   "python",
	".pyw":  "python",
	".rb":   "ruby",
	".rake": "ruby",
	".sh":   "shell",
	".bash": "shell",
	".zsh":  "shell",
}

// LanguageForPath maps a file path to a language tag. Unknown extensions
// return the extension itself (without the dot) so the fallback strategy
// still gets a stable tag, or "unknown" when there is no extension.
func LanguageForPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if tag, ok := extensionTags[ext]; ok {
		return tag
	}
	if ext != "" {
		return strings.TrimPrefix(ext, ".")
	}
	return "unknown"
}

// languageRegistry lazily constructs one tree-sitter parser per language
// tag. Parsers are not safe for concurrent use, so parse calls are
// serialized behind the registry mutex.
type languageRegistry struct {
	mu      sync.Mutex
	parsers map[string]*tree_sitter.Parser
}

func newLanguageRegistry() *languageRegistry {
	return &languageRegistry{
		parsers: make(map[string]*tree_sitter.Parser),
	}
}

// parse produces a syntax tree for the given language tag, or nil if the
// tag has no grammar or the parser rejects the input. The caller owns the
// returned tree and must Close it.
func (r *languageRegistry) parse(tag string, source []byte) *tree_sitter.Tree {
	r.mu.Lock()
	defer r.mu.Unlock()

	parser, ok := r.parsers[tag]
	if !ok {
		parser = newParserFor(tag)
		r.parsers[tag] = parser // nil is cached too, to avoid re-probing
	}
	if parser == nil {
		return nil
	}
	return parser.Parse(source, nil)
}

// newParserFor builds a parser for a structured-grammar tag, nil otherwise.
func newParserFor(tag string) *tree_sitter.Parser {
	var languagePtr unsafe.Pointer
	switch tag {
	case "go":
		languagePtr = tree_sitter_go.Language()
	case "javascript":
		languagePtr = tree_sitter_javascript.Language()
	case "typescript":
		languagePtr = tree_sitter_typescript.LanguageTypescript()
	case "java":
		languagePtr = tree_sitter_java.Language()
	case "csharp":
		languagePtr = tree_sitter_csharp.Language()
	case "cpp":
		languagePtr = tree_sitter_cpp.Language()
	case "rust":
		languagePtr = tree_sitter_rust.Language()
	case "php":
		languagePtr = tree_sitter_php.LanguagePHP()
	case "zig":
		languagePtr = tree_sitter_zig.Language()
	default:
		return nil
	}

	parser := tree_sitter.NewParser()
	language := tree_sitter.NewLanguage(languagePtr)
	if err := parser.SetLanguage(language); err != nil {
		return nil
	}
	return parser
}
