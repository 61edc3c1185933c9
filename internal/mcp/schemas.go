package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description}
}

func stringArrayProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": description,
		"items":       map[string]interface{}{"type": "string"},
	}
}

// storeSolutionTool returns the tool definition for store_solution
func storeSolutionTool() mcp.Tool {
	return mcp.Tool{
		Name:        "store_solution",
		Description: "Remember a solved problem so it can be recalled by similarity later",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"problem":  stringProp("Description of the problem that was solved"),
				"solution": stringProp("What solved it, including commands or code"),
				"scope": map[string]interface{}{
					"type":        "string",
					"description": "How broadly the solution applies",
					"enum":        []string{"global", "stack", "repo"},
					"default":     "global",
				},
				"repo_path": stringProp("Repository root path, required when scope is repo"),
				"tags":      stringArrayProp("Free-form tags for the solution"),
				"category": map[string]interface{}{
					"type":        "string",
					"description": "Kind of change the solution represents",
					"enum":        []string{"bugfix", "feature", "refactor", "config", "pattern", "optimization"},
				},
				"complexity": map[string]interface{}{
					"type":        "integer",
					"description": "Difficulty 1-10; omitted means derived from the solution content",
					"minimum":     1,
					"maximum":     10,
				},
				"prerequisites":  stringArrayProp("Things that must be in place before applying"),
				"files_affected": stringArrayProp("Files the solution touches"),
				"supersedes":     stringProp("ID of an older solution this one replaces"),
			},
			Required: []string{"problem", "solution"},
		},
	}
}

// recallSolutionsTool returns the tool definition for recall_solutions
func recallSolutionsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "recall_solutions",
		Description: "Find stored solutions relevant to a problem description",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"problem":   stringProp("Description of the current problem"),
				"repo_path": stringProp("Current repository root; boosts solutions from this repo and similar stacks"),
				"scope": map[string]interface{}{
					"type":        "string",
					"description": "Restrict results to one scope",
					"enum":        []string{"global", "stack", "repo"},
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results (1-50)",
					"default":     5,
					"minimum":     1,
					"maximum":     50,
				},
				"min_similarity": map[string]interface{}{
					"type":        "number",
					"description": "Minimum cosine similarity threshold (0.0-1.0)",
					"minimum":     0.0,
					"maximum":     1.0,
				},
			},
			Required: []string{"problem"},
		},
	}
}

// rewardSolutionTool returns the tool definition for reward_solution
func rewardSolutionTool() mcp.Tool {
	return mcp.Tool{
		Name:        "reward_solution",
		Description: "Report the outcome of applying a recalled solution",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"solution_id": stringProp("ID of the solution that was applied"),
				"outcome": map[string]interface{}{
					"type":        "string",
					"description": "How it went",
					"enum":        []string{"success", "partial", "failure"},
				},
			},
			Required: []string{"solution_id", "outcome"},
		},
	}
}

// recordFailureTool returns the tool definition for record_failure
func recordFailureTool() mcp.Tool {
	return mcp.Tool{
		Name:        "record_failure",
		Description: "Record an encountered failure, deduplicated by its normalized error signature",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"error_type":  stringProp("Error class or code, e.g. TypeError or ENOENT"),
				"message":     stringProp("The error message as seen"),
				"root_cause":  stringProp("Diagnosed root cause, if known"),
				"fix_applied": stringProp("What fixed it, if fixed"),
				"prevention":  stringProp("How to avoid it next time"),
			},
			Required: []string{"error_type", "message"},
		},
	}
}

// findSimilarFailuresTool returns the tool definition for find_similar_failures
func findSimilarFailuresTool() mcp.Tool {
	return mcp.Tool{
		Name:        "find_similar_failures",
		Description: "Find recorded failures resembling an error message",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"message": stringProp("Error message to match against"),
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results",
					"default":     5,
				},
			},
			Required: []string{"message"},
		},
	}
}

// mergeCandidatesTool returns the tool definition for merge_candidates
func mergeCandidatesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "merge_candidates",
		Description: "List pairs of near-duplicate solutions that could be merged",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"threshold": map[string]interface{}{
					"type":        "number",
					"description": "Minimum similarity for a pair to be proposed (0.0-1.0)",
					"default":     0.85,
					"minimum":     0.0,
					"maximum":     1.0,
				},
			},
		},
	}
}

// executeMergeTool returns the tool definition for execute_merge
func executeMergeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "execute_merge",
		Description: "Merge one solution into another; counters and tags are combined and the removed record deleted",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"keep_id":   stringProp("ID of the solution to keep"),
				"remove_id": stringProp("ID of the solution to fold into it"),
			},
			Required: []string{"keep_id", "remove_id"},
		},
	}
}

// registerRepoTool returns the tool definition for register_repo
func registerRepoTool() mcp.Tool {
	return mcp.Tool{
		Name:        "register_repo",
		Description: "Record a repository's tech fingerprint for recall boosting",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path":       stringProp("Absolute path to the repository root"),
				"languages":  stringArrayProp("Languages used in the repository"),
				"frameworks": stringArrayProp("Frameworks in use"),
				"patterns":   stringArrayProp("Notable architectural patterns"),
			},
			Required: []string{"path"},
		},
	}
}

// reindexTool returns the tool definition for reindex
func reindexTool() mcp.Tool {
	return mcp.Tool{
		Name:        "reindex",
		Description: "Bring the code index up to date with the repository on disk",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path":     stringProp("Absolute path to the repository root"),
				"excludes": stringArrayProp("Glob patterns for paths to skip, e.g. *.test.ts"),
				"full": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, reparse every file regardless of modification times",
					"default":     false,
				},
			},
			Required: []string{"path"},
		},
	}
}

// findDefinitionTool returns the tool definition for find_definition
func findDefinitionTool() mcp.Tool {
	return mcp.Tool{
		Name:        "find_definition",
		Description: "Find where a symbol is defined in an indexed repository",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": stringProp("Absolute path to the repository root"),
				"name": stringProp("Exact symbol name"),
				"kind": map[string]interface{}{
					"type":        "string",
					"description": "Restrict to one symbol kind",
					"enum":        []string{"function", "class", "interface", "type", "enum", "const", "variable", "method", "property"},
				},
			},
			Required: []string{"path", "name"},
		},
	}
}

// findCallersTool returns the tool definition for find_callers
func findCallersTool() mcp.Tool {
	return mcp.Tool{
		Name:        "find_callers",
		Description: "Find files that import a symbol from where it is defined",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": stringProp("Absolute path to the repository root"),
				"name": stringProp("Symbol name to trace"),
			},
			Required: []string{"path", "name"},
		},
	}
}

// listExportsTool returns the tool definition for list_exports
func listExportsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_exports",
		Description: "List exported symbols in an indexed repository, optionally under a path prefix",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path":   stringProp("Absolute path to the repository root"),
				"prefix": stringProp("Relative path prefix, e.g. src/api/"),
			},
			Required: []string{"path"},
		},
	}
}

// searchSymbolsTool returns the tool definition for search_symbols
func searchSymbolsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_symbols",
		Description: "Find symbols whose name contains a substring",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path":  stringProp("Absolute path to the repository root"),
				"query": stringProp("Substring to match against symbol names"),
				"kind": map[string]interface{}{
					"type":        "string",
					"description": "Restrict to one symbol kind",
					"enum":        []string{"function", "class", "interface", "type", "enum", "const", "variable", "method", "property"},
				},
				"exported_only": map[string]interface{}{
					"type":        "boolean",
					"description": "Only return exported symbols",
					"default":     false,
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results",
					"default":     50,
				},
			},
			Required: []string{"path", "query"},
		},
	}
}

// getImportsTool returns the tool definition for get_imports
func getImportsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_imports",
		Description: "List the imports declared by one file",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": stringProp("Absolute path to the repository root"),
				"file": stringProp("File path relative to the repository root"),
			},
			Required: []string{"path", "file"},
		},
	}
}

// addWarningTool returns the tool definition for add_warning
func addWarningTool() mcp.Tool {
	return mcp.Tool{
		Name:        "add_warning",
		Description: "Attach a caution to a file pattern or package name",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"type": map[string]interface{}{
					"type":        "string",
					"description": "What the warning targets",
					"enum":        []string{"file", "package"},
				},
				"target": stringProp("File path or glob, or a package name"),
				"severity": map[string]interface{}{
					"type":        "string",
					"description": "How strongly to warn",
					"enum":        []string{"info", "warn", "block"},
				},
				"reason":    stringProp("Why the target is dangerous"),
				"repo_path": stringProp("Repository root to scope the warning to; omitted means global"),
			},
			Required: []string{"type", "target", "severity", "reason"},
		},
	}
}

// removeWarningTool returns the tool definition for remove_warning
func removeWarningTool() mcp.Tool {
	return mcp.Tool{
		Name:        "remove_warning",
		Description: "Delete a warning by ID",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": stringProp("Warning ID"),
			},
			Required: []string{"id"},
		},
	}
}

// checkWarningsTool returns the tool definition for check_warnings
func checkWarningsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "check_warnings",
		Description: "Check which warnings are triggered by touching files or packages",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"repo_path": stringProp("Repository root; includes its scoped warnings plus global ones"),
				"files":     stringArrayProp("Files about to be touched, relative to the repository root"),
				"packages":  stringArrayProp("Packages about to be used"),
			},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report store and index statistics",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
