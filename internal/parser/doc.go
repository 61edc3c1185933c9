// Package parser extracts symbols and imports from source files.
//
// A parser is selected by file extension. Go files go through the standard
// library AST; TypeScript, JavaScript, and Python go through resilient line
// scanners that recognize declaration forms without a full grammar.
//
// # Resilience
//
// Parsing never fails a file outright. Malformed constructs are recorded as
// ParseErrors on the result and extraction continues, so one bad declaration
// does not blank an entire file out of the index.
//
// # Usage
//
//	p := parser.ForFile("src/auth.ts")
//	if p == nil {
//	    return // Unsupported extension
//	}
//	result := p.Parse("src/auth.ts", content)
//	for _, sym := range result.Symbols {
//	    // ...
//	}
//
// Symbol extents (Line through EndLine) come from brace depth in
// TypeScript and indentation in Python; they are reliable for well-formed
// code and best-effort otherwise.
package parser
