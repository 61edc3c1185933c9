// Package mcp exposes the memory store and code index over the Model
// Context Protocol on stdio.
//
// Tools fall into three groups. Memory tools (store_solution,
// recall_solutions, reward_solution, record_failure,
// find_similar_failures, merge_candidates, execute_merge, register_repo)
// operate on the similarity-searched solution store. Index tools
// (reindex, find_definition, find_callers, list_exports, search_symbols,
// get_imports) operate on the incremental code index and identify a
// repository by its absolute root path. Warning tools (add_warning,
// remove_warning, check_warnings) manage user-created cautions, and
// get_status reports store statistics.
//
// Handlers validate arguments before touching any component and return
// structured MCPError values with JSON-RPC codes: -32602 for invalid
// parameters, -32001 when a referenced record does not exist, -32002
// when a reindex is already running, and -32603 for everything else.
// Successful results are indented JSON in a single text content block.
package mcp
