package parser

import (
	"path/filepath"
	"strings"

	"github.com/recallhq/recall-mcp/pkg/types"
)

// Parser extracts symbols and imports from one source file. Parsing is
// resilient: a malformed construct is recorded as a ParseError and the
// rest of the file is still extracted.
type Parser interface {
	// Language returns the language identifier ("go", "typescript", "python")
	Language() string

	// Parse extracts symbols and imports from source content. path is used
	// only for error reporting.
	Parse(path string, content []byte) *types.ParseResult
}

// byExtension maps file extensions to their parser
var byExtension = map[string]Parser{}

func register(p Parser, extensions ...string) {
	for _, ext := range extensions {
		byExtension[ext] = p
	}
}

func init() {
	register(&GoParser{}, ".go")
	register(&TypeScriptParser{}, ".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs")
	register(&PythonParser{}, ".py")
}

// ForFile returns the parser for a file path, or nil when the extension
// is not supported
func ForFile(path string) Parser {
	return byExtension[strings.ToLower(filepath.Ext(path))]
}

// Supported reports whether a file extension has a registered parser
func Supported(path string) bool {
	return ForFile(path) != nil
}

// LanguageForFile returns the language identifier for a path, or ""
func LanguageForFile(path string) string {
	p := ForFile(path)
	if p == nil {
		return ""
	}
	return p.Language()
}
