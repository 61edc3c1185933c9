package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/recallhq/recall-mcp/internal/indexer"
	"github.com/recallhq/recall-mcp/internal/memory"
	"github.com/recallhq/recall-mcp/internal/storage"
	"github.com/recallhq/recall-mcp/pkg/types"
)

// JSON-RPC error codes
const (
	ErrorCodeInvalidParams   = -32602
	ErrorCodeInternal        = -32603
	ErrorCodeNotFound        = -32001
	ErrorCodeIndexInProgress = -32002
)

// MCPError is a structured error returned to the client
type MCPError struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// Error implements the error interface
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// newMCPError creates a structured MCP error
func newMCPError(code int, message string, data map[string]interface{}) *MCPError {
	return &MCPError{Code: code, Message: message, Data: data}
}

// toMCPError maps internal errors onto the wire codes
func toMCPError(err error) *MCPError {
	switch {
	case types.IsValidation(err):
		return newMCPError(ErrorCodeInvalidParams, err.Error(), nil)
	case errors.Is(err, storage.ErrNotFound):
		return newMCPError(ErrorCodeNotFound, err.Error(), nil)
	case errors.Is(err, indexer.ErrIndexInProgress):
		return newMCPError(ErrorCodeIndexInProgress, err.Error(), nil)
	default:
		return newMCPError(ErrorCodeInternal, err.Error(), nil)
	}
}

// getArguments extracts the argument map from a tool request
func getArguments(request mcp.CallToolRequest) (map[string]interface{}, *MCPError) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments format", map[string]interface{}{
			"reason": "arguments must be an object",
		})
	}
	return args, nil
}

// getString extracts a required string parameter
func getString(args map[string]interface{}, name string) (string, *MCPError) {
	v, ok := args[name].(string)
	if !ok || v == "" {
		return "", newMCPError(ErrorCodeInvalidParams, "missing or invalid parameter", map[string]interface{}{
			"param":  name,
			"reason": "must be a non-empty string",
		})
	}
	return v, nil
}

// getStringDefault extracts an optional string parameter
func getStringDefault(args map[string]interface{}, name, defaultValue string) string {
	if v, ok := args[name].(string); ok {
		return v
	}
	return defaultValue
}

// getIntDefault extracts an optional integer parameter.
// JSON numbers arrive as float64.
func getIntDefault(args map[string]interface{}, name string, defaultValue int) int {
	if v, ok := args[name].(float64); ok {
		return int(v)
	}
	if v, ok := args[name].(int); ok {
		return v
	}
	return defaultValue
}

// getFloatDefault extracts an optional number parameter
func getFloatDefault(args map[string]interface{}, name string, defaultValue float64) float64 {
	if v, ok := args[name].(float64); ok {
		return v
	}
	return defaultValue
}

// getBoolDefault extracts an optional boolean parameter
func getBoolDefault(args map[string]interface{}, name string, defaultValue bool) bool {
	if v, ok := args[name].(bool); ok {
		return v
	}
	return defaultValue
}

// getStringArray extracts an optional string array parameter
func getStringArray(args map[string]interface{}, name string) []string {
	raw, ok := args[name].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// formatJSON renders a response payload for the client
func formatJSON(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": "failed to format response: %v"}`, err)
	}
	return string(data)
}

// validatePath checks that a path is absolute and a readable directory
func validatePath(path string) *MCPError {
	if !filepath.IsAbs(path) {
		return newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": "must be an absolute path",
		})
	}
	info, err := os.Stat(path)
	if err != nil {
		return newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": fmt.Sprintf("cannot access: %v", err),
		})
	}
	if !info.IsDir() {
		return newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": "must be a directory",
		})
	}
	return nil
}

// repoIDFromArg turns an optional repo_path argument into a repo ID pointer
func repoIDFromArg(args map[string]interface{}) *string {
	path := getStringDefault(args, "repo_path", "")
	if path == "" {
		return nil
	}
	id := memory.RepoID(path)
	return &id
}

// repoIDForPath resolves a repository root argument to its index ID
func repoIDForPath(path string) string {
	return memory.RepoID(filepath.Clean(path))
}

func solutionJSON(sol *types.Solution) map[string]interface{} {
	out := map[string]interface{}{
		"id":                sol.ID,
		"problem":           sol.Problem,
		"solution":          sol.Solution,
		"scope":             string(sol.Scope),
		"tags":              sol.Tags,
		"complexity":        sol.Complexity,
		"score":             sol.Score,
		"uses":              sol.Uses,
		"successes":         sol.Successes,
		"partial_successes": sol.PartialSuccesses,
		"failures":          sol.Failures,
		"created_at":        sol.CreatedAt,
		"updated_at":        sol.UpdatedAt,
	}
	if sol.RepoID != nil {
		out["repo_id"] = *sol.RepoID
	}
	if sol.Category != nil {
		out["category"] = string(*sol.Category)
	}
	if sol.Supersedes != nil {
		out["supersedes"] = *sol.Supersedes
	}
	return out
}

func failureJSON(f *types.Failure) map[string]interface{} {
	return map[string]interface{}{
		"id":          f.ID,
		"error_type":  f.ErrorType,
		"message":     f.Message,
		"root_cause":  f.RootCause,
		"fix_applied": f.FixApplied,
		"prevention":  f.Prevention,
		"occurrences": f.Occurrences,
		"created_at":  f.CreatedAt,
	}
}

func warningJSON(w *types.Warning) map[string]interface{} {
	out := map[string]interface{}{
		"id":       w.ID,
		"type":     string(w.Type),
		"target":   w.Target,
		"severity": string(w.Severity),
		"reason":   w.Reason,
	}
	if w.RepoID != nil {
		out["repo_id"] = *w.RepoID
	}
	return out
}

func symbolJSON(s *storage.SymbolRow) map[string]interface{} {
	out := map[string]interface{}{
		"path":     s.Path,
		"name":     s.Name,
		"kind":     s.Kind,
		"line":     s.Line,
		"exported": s.Exported,
	}
	if s.EndLine > 0 {
		out["end_line"] = s.EndLine
	}
	if s.Scope != "" {
		out["scope"] = s.Scope
	}
	if s.Signature != "" {
		out["signature"] = s.Signature
	}
	if s.IsDefault {
		out["is_default"] = true
	}
	return out
}

func importJSON(imp *storage.ImportRow) map[string]interface{} {
	out := map[string]interface{}{
		"imported_name": imp.ImportedName,
		"source_path":   imp.SourcePath,
		"line":          imp.Line,
	}
	if imp.LocalName != "" {
		out["local_name"] = imp.LocalName
	}
	if imp.IsDefault {
		out["is_default"] = true
	}
	if imp.IsNamespace {
		out["is_namespace"] = true
	}
	if imp.IsType {
		out["is_type"] = true
	}
	return out
}

// handleStoreSolution implements the store_solution tool
func (s *Server) handleStoreSolution(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, mcpErr := getArguments(request)
	if mcpErr != nil {
		return nil, mcpErr
	}
	problem, mcpErr := getString(args, "problem")
	if mcpErr != nil {
		return nil, mcpErr
	}
	solution, mcpErr := getString(args, "solution")
	if mcpErr != nil {
		return nil, mcpErr
	}

	in := &memory.StoreSolutionInput{
		Problem:       problem,
		Solution:      solution,
		Scope:         types.Scope(getStringDefault(args, "scope", string(types.ScopeGlobal))),
		RepoID:        repoIDFromArg(args),
		Tags:          getStringArray(args, "tags"),
		Complexity:    getIntDefault(args, "complexity", 0),
		Prerequisites: getStringArray(args, "prerequisites"),
		FilesAffected: getStringArray(args, "files_affected"),
	}
	if v := getStringDefault(args, "category", ""); v != "" {
		cat := types.Category(v)
		in.Category = &cat
	}
	if v := getStringDefault(args, "supersedes", ""); v != "" {
		in.Supersedes = &v
	}

	result, err := s.memory.StoreSolution(ctx, in)
	if err != nil {
		return nil, toMCPError(err)
	}

	response := map[string]interface{}{
		"stored":   !result.Duplicate,
		"solution": solutionJSON(result.Solution),
	}
	if result.Duplicate {
		response["duplicate_of"] = result.Solution.ID
		response["similarity"] = result.Similarity
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleRecallSolutions implements the recall_solutions tool
func (s *Server) handleRecallSolutions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, mcpErr := getArguments(request)
	if mcpErr != nil {
		return nil, mcpErr
	}
	problem, mcpErr := getString(args, "problem")
	if mcpErr != nil {
		return nil, mcpErr
	}

	matches, err := s.memory.Recall(ctx, &memory.RecallQuery{
		Problem:       problem,
		RepoID:        repoIDFromArg(args),
		Scope:         types.Scope(getStringDefault(args, "scope", "")),
		Limit:         getIntDefault(args, "limit", 0),
		MinSimilarity: getFloatDefault(args, "min_similarity", 0),
	})
	if err != nil {
		return nil, toMCPError(err)
	}

	results := make([]map[string]interface{}, 0, len(matches))
	for _, m := range matches {
		entry := solutionJSON(m.Solution)
		entry["similarity"] = m.Similarity
		entry["relevance"] = m.Final
		results = append(results, entry)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"count":   len(results),
		"results": results,
	})), nil
}

// handleRewardSolution implements the reward_solution tool
func (s *Server) handleRewardSolution(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, mcpErr := getArguments(request)
	if mcpErr != nil {
		return nil, mcpErr
	}
	id, mcpErr := getString(args, "solution_id")
	if mcpErr != nil {
		return nil, mcpErr
	}
	outcome, mcpErr := getString(args, "outcome")
	if mcpErr != nil {
		return nil, mcpErr
	}

	sol, err := s.memory.Reward(ctx, id, memory.Outcome(outcome))
	if err != nil {
		return nil, toMCPError(err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"solution": solutionJSON(sol),
	})), nil
}

// handleRecordFailure implements the record_failure tool
func (s *Server) handleRecordFailure(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, mcpErr := getArguments(request)
	if mcpErr != nil {
		return nil, mcpErr
	}
	errorType, mcpErr := getString(args, "error_type")
	if mcpErr != nil {
		return nil, mcpErr
	}
	message, mcpErr := getString(args, "message")
	if mcpErr != nil {
		return nil, mcpErr
	}

	f, err := s.memory.RecordFailure(ctx, &memory.RecordFailureInput{
		ErrorType:  errorType,
		Message:    message,
		RootCause:  getStringDefault(args, "root_cause", ""),
		FixApplied: getStringDefault(args, "fix_applied", ""),
		Prevention: getStringDefault(args, "prevention", ""),
	})
	if err != nil {
		return nil, toMCPError(err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"failure":   failureJSON(f),
		"recurring": f.Occurrences > 1,
	})), nil
}

// handleFindSimilarFailures implements the find_similar_failures tool
func (s *Server) handleFindSimilarFailures(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, mcpErr := getArguments(request)
	if mcpErr != nil {
		return nil, mcpErr
	}
	message, mcpErr := getString(args, "message")
	if mcpErr != nil {
		return nil, mcpErr
	}

	failures, err := s.memory.SimilarFailures(ctx, message, getIntDefault(args, "limit", 0))
	if err != nil {
		return nil, toMCPError(err)
	}
	results := make([]map[string]interface{}, 0, len(failures))
	for _, f := range failures {
		results = append(results, failureJSON(f))
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"count":   len(results),
		"results": results,
	})), nil
}

// handleMergeCandidates implements the merge_candidates tool
func (s *Server) handleMergeCandidates(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, mcpErr := getArguments(request)
	if mcpErr != nil {
		return nil, mcpErr
	}

	candidates, err := s.merge.FindCandidates(ctx, getFloatDefault(args, "threshold", 0))
	if err != nil {
		return nil, toMCPError(err)
	}
	results := make([]map[string]interface{}, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, map[string]interface{}{
			"keep":       solutionJSON(c.Keeper),
			"remove":     solutionJSON(c.Other),
			"similarity": c.Similarity,
		})
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"count":      len(results),
		"candidates": results,
	})), nil
}

// handleExecuteMerge implements the execute_merge tool
func (s *Server) handleExecuteMerge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, mcpErr := getArguments(request)
	if mcpErr != nil {
		return nil, mcpErr
	}
	keepID, mcpErr := getString(args, "keep_id")
	if mcpErr != nil {
		return nil, mcpErr
	}
	removeID, mcpErr := getString(args, "remove_id")
	if mcpErr != nil {
		return nil, mcpErr
	}

	merged, err := s.merge.Execute(ctx, keepID, removeID)
	if err != nil {
		return nil, toMCPError(err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"merged":  solutionJSON(merged),
		"removed": removeID,
	})), nil
}

// handleRegisterRepo implements the register_repo tool
func (s *Server) handleRegisterRepo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, mcpErr := getArguments(request)
	if mcpErr != nil {
		return nil, mcpErr
	}
	path, mcpErr := getString(args, "path")
	if mcpErr != nil {
		return nil, mcpErr
	}

	repo, err := s.memory.RegisterRepo(ctx, path,
		getStringArray(args, "languages"),
		getStringArray(args, "frameworks"),
		getStringArray(args, "patterns"))
	if err != nil {
		return nil, toMCPError(err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"repo_id":    repo.ID,
		"path":       repo.Path,
		"languages":  repo.Languages,
		"frameworks": repo.Frameworks,
		"patterns":   repo.Patterns,
	})), nil
}

// handleReindex implements the reindex tool
func (s *Server) handleReindex(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, mcpErr := getArguments(request)
	if mcpErr != nil {
		return nil, mcpErr
	}
	path, mcpErr := getString(args, "path")
	if mcpErr != nil {
		return nil, mcpErr
	}
	if mcpErr := validatePath(path); mcpErr != nil {
		return nil, mcpErr
	}

	stats, err := s.indexer.Reindex(ctx, path, &indexer.Config{
		Excludes: getStringArray(args, "excludes"),
		Full:     getBoolDefault(args, "full", false),
	})
	if err != nil {
		return nil, toMCPError(err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"repo_id":       repoIDForPath(path),
		"files_scanned": stats.FilesScanned,
		"files_indexed": stats.FilesIndexed,
		"files_deleted": stats.FilesDeleted,
		"files_failed":  stats.FilesFailed,
		"symbols":       stats.Symbols,
		"imports":       stats.Imports,
		"parse_errors":  stats.ParseErrors,
		"duration_ms":   stats.Duration.Milliseconds(),
		"errors":        stats.Errors,
	})), nil
}

// handleFindDefinition implements the find_definition tool
func (s *Server) handleFindDefinition(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, mcpErr := getArguments(request)
	if mcpErr != nil {
		return nil, mcpErr
	}
	path, mcpErr := getString(args, "path")
	if mcpErr != nil {
		return nil, mcpErr
	}
	name, mcpErr := getString(args, "name")
	if mcpErr != nil {
		return nil, mcpErr
	}

	var filter *storage.SymbolFilter
	if kind := getStringDefault(args, "kind", ""); kind != "" {
		filter = &storage.SymbolFilter{Kind: kind}
	}

	defs, err := s.indexer.FindDefinition(ctx, repoIDForPath(path), name, filter)
	if err != nil {
		return nil, toMCPError(err)
	}
	results := make([]map[string]interface{}, 0, len(defs))
	for _, d := range defs {
		results = append(results, symbolJSON(d))
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"count":       len(results),
		"definitions": results,
	})), nil
}

// handleFindCallers implements the find_callers tool
func (s *Server) handleFindCallers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, mcpErr := getArguments(request)
	if mcpErr != nil {
		return nil, mcpErr
	}
	path, mcpErr := getString(args, "path")
	if mcpErr != nil {
		return nil, mcpErr
	}
	name, mcpErr := getString(args, "name")
	if mcpErr != nil {
		return nil, mcpErr
	}

	callers, err := s.indexer.FindCallers(ctx, repoIDForPath(path), name)
	if err != nil {
		return nil, toMCPError(err)
	}
	results := make([]map[string]interface{}, 0, len(callers))
	for _, c := range callers {
		results = append(results, map[string]interface{}{
			"path":       c.Path,
			"line":       c.Line,
			"local_name": c.LocalName,
			"namespace":  c.Namespace,
		})
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"count":   len(results),
		"callers": results,
	})), nil
}

// handleListExports implements the list_exports tool
func (s *Server) handleListExports(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, mcpErr := getArguments(request)
	if mcpErr != nil {
		return nil, mcpErr
	}
	path, mcpErr := getString(args, "path")
	if mcpErr != nil {
		return nil, mcpErr
	}

	exports, err := s.indexer.ListExports(ctx, repoIDForPath(path), getStringDefault(args, "prefix", ""))
	if err != nil {
		return nil, toMCPError(err)
	}
	results := make([]map[string]interface{}, 0, len(exports))
	for _, e := range exports {
		results = append(results, symbolJSON(e))
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"count":   len(results),
		"exports": results,
	})), nil
}

// handleSearchSymbols implements the search_symbols tool
func (s *Server) handleSearchSymbols(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, mcpErr := getArguments(request)
	if mcpErr != nil {
		return nil, mcpErr
	}
	path, mcpErr := getString(args, "path")
	if mcpErr != nil {
		return nil, mcpErr
	}
	query, mcpErr := getString(args, "query")
	if mcpErr != nil {
		return nil, mcpErr
	}

	filter := &storage.SymbolFilter{
		Kind:         getStringDefault(args, "kind", ""),
		ExportedOnly: getBoolDefault(args, "exported_only", false),
		Limit:        getIntDefault(args, "limit", 50),
	}
	hits, err := s.indexer.SearchSymbols(ctx, repoIDForPath(path), query, filter)
	if err != nil {
		return nil, toMCPError(err)
	}
	results := make([]map[string]interface{}, 0, len(hits))
	for _, h := range hits {
		results = append(results, symbolJSON(h))
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"count":   len(results),
		"symbols": results,
	})), nil
}

// handleGetImports implements the get_imports tool
func (s *Server) handleGetImports(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, mcpErr := getArguments(request)
	if mcpErr != nil {
		return nil, mcpErr
	}
	path, mcpErr := getString(args, "path")
	if mcpErr != nil {
		return nil, mcpErr
	}
	file, mcpErr := getString(args, "file")
	if mcpErr != nil {
		return nil, mcpErr
	}

	imports, err := s.indexer.GetImports(ctx, repoIDForPath(path), filepath.ToSlash(file))
	if err != nil {
		return nil, toMCPError(err)
	}
	results := make([]map[string]interface{}, 0, len(imports))
	for _, imp := range imports {
		results = append(results, importJSON(imp))
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"file":    file,
		"count":   len(results),
		"imports": results,
	})), nil
}

// handleAddWarning implements the add_warning tool
func (s *Server) handleAddWarning(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, mcpErr := getArguments(request)
	if mcpErr != nil {
		return nil, mcpErr
	}
	warningType, mcpErr := getString(args, "type")
	if mcpErr != nil {
		return nil, mcpErr
	}
	target, mcpErr := getString(args, "target")
	if mcpErr != nil {
		return nil, mcpErr
	}
	severity, mcpErr := getString(args, "severity")
	if mcpErr != nil {
		return nil, mcpErr
	}
	reason, mcpErr := getString(args, "reason")
	if mcpErr != nil {
		return nil, mcpErr
	}

	w, err := s.memory.AddWarning(ctx, &types.Warning{
		Type:     types.WarningType(warningType),
		Target:   target,
		Severity: types.WarningSeverity(severity),
		Reason:   reason,
		RepoID:   repoIDFromArg(args),
	})
	if err != nil {
		return nil, toMCPError(err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"warning": warningJSON(w),
	})), nil
}

// handleRemoveWarning implements the remove_warning tool
func (s *Server) handleRemoveWarning(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, mcpErr := getArguments(request)
	if mcpErr != nil {
		return nil, mcpErr
	}
	id, mcpErr := getString(args, "id")
	if mcpErr != nil {
		return nil, mcpErr
	}

	if err := s.memory.RemoveWarning(ctx, id); err != nil {
		return nil, toMCPError(err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"removed": id,
	})), nil
}

// handleCheckWarnings implements the check_warnings tool
func (s *Server) handleCheckWarnings(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, mcpErr := getArguments(request)
	if mcpErr != nil {
		return nil, mcpErr
	}

	triggered, err := s.memory.CheckWarnings(ctx, repoIDFromArg(args),
		getStringArray(args, "files"),
		getStringArray(args, "packages"))
	if err != nil {
		return nil, toMCPError(err)
	}
	results := make([]map[string]interface{}, 0, len(triggered))
	blocked := false
	for _, w := range triggered {
		if w.Severity == types.SeverityBlock {
			blocked = true
		}
		results = append(results, warningJSON(w))
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"count":    len(results),
		"blocked":  blocked,
		"warnings": results,
	})), nil
}

// handleGetStatus implements the get_status tool
func (s *Server) handleGetStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := s.storage.GetStatus(ctx)
	if err != nil {
		return nil, toMCPError(err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"solutions":  status.Solutions,
		"failures":   status.Failures,
		"repos":      status.Repos,
		"files":      status.Files,
		"symbols":    status.Symbols,
		"imports":    status.Imports,
		"warnings":   status.Warnings,
		"db_size_mb": status.SizeMB,
	})), nil
}
