package types

// SymbolKind represents the kind of source symbol, per language
type SymbolKind string

const (
	KindFunction  SymbolKind = "function"
	KindClass     SymbolKind = "class"
	KindInterface SymbolKind = "interface"
	KindType      SymbolKind = "type"
	KindEnum      SymbolKind = "enum"
	KindConst     SymbolKind = "const"
	KindVariable  SymbolKind = "variable"
	KindMethod    SymbolKind = "method"
	KindProperty  SymbolKind = "property"
)

// ValidateKind checks if the symbol kind is valid
func (k SymbolKind) ValidateKind() error {
	switch k {
	case KindFunction, KindClass, KindInterface, KindType, KindEnum, KindConst, KindVariable, KindMethod, KindProperty:
		return nil
	default:
		return NewValidationError("kind", string(k), "invalid symbol kind")
	}
}

// Symbol represents a declaration extracted from source text
type Symbol struct {
	Name      string
	Kind      SymbolKind
	Line      int
	EndLine   int
	Exported  bool
	IsDefault bool   // Default export (languages that have one)
	Scope     string // Enclosing class/namespace name, empty for top level
	Signature string // Optional textual type signature
}

// Import represents an import statement as written, unresolved
type Import struct {
	ImportedName string // "*" for namespace or side-effect imports
	SourcePath   string
	LocalName    string // Alias when renamed, otherwise empty
	IsDefault    bool
	IsNamespace  bool
	IsType       bool
	Line         int
}

// ParseError records a non-fatal problem with a single construct.
// One bad declaration never blanks out the rest of the file.
type ParseError struct {
	File    string
	Line    int
	Message string
}

// Error implements the error interface
func (pe *ParseError) Error() string {
	return pe.Message
}

// ParseResult is the output of parsing one source file
type ParseResult struct {
	Language string
	Symbols  []Symbol
	Imports  []Import
	Errors   []ParseError
}

// HasErrors returns true if any parsing errors occurred
func (pr *ParseResult) HasErrors() bool {
	return len(pr.Errors) > 0
}

// AddError appends a non-fatal parsing error to the result
func (pr *ParseResult) AddError(file string, line int, msg string) {
	pr.Errors = append(pr.Errors, ParseError{File: file, Line: line, Message: msg})
}
