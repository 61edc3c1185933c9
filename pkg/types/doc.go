// Package types provides shared type definitions for the Recall MCP server.
//
// This package defines the domain types used across the memory store and the
// code index: solutions, failures, repo fingerprints, warnings, and the
// symbol/import records produced by the language parsers.
//
// # Solutions
//
// A Solution pairs a problem description with its remedy and carries the
// feedback counters that drive recall ranking:
//
//	sol := &types.Solution{
//	    Problem:  "OAuth integration with Google",
//	    Solution: "use passport.js with the google strategy",
//	    Scope:    types.ScopeGlobal,
//	}
//
// Problem text is embedded into a fixed EmbeddingDimension vector at store
// time; the vector length invariant is enforced by Validate.
//
// # Parse results
//
// ParseResult is the uniform output of every language parser. Symbols carry
// the enclosing scope name so callers can distinguish ClassA.method from a
// free function of the same name; Imports record source paths exactly as
// written, unresolved.
//
// # Errors
//
// The error taxonomy is small and deliberate: ValidationError is rejected
// before any write, ErrNotFound leaves no partial state, ErrDimensionMismatch
// and ErrCorruptRecord skip the offending row inside batch operations, and
// ErrModelUnavailable is the only class that aborts a whole operation.
package types
