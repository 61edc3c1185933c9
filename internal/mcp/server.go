package mcp

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/server"

	"github.com/recallhq/recall-mcp/internal/embedder"
	"github.com/recallhq/recall-mcp/internal/indexer"
	"github.com/recallhq/recall-mcp/internal/memory"
	"github.com/recallhq/recall-mcp/internal/merge"
	"github.com/recallhq/recall-mcp/internal/storage"
)

const (
	// ServerName identifies this MCP server to clients
	ServerName = "recall-mcp"
	// ServerVersion is the server version reported to clients
	ServerVersion = "1.0.0"
	// DefaultDBPath is where the database lives unless overridden
	DefaultDBPath = "~/.recall/recall.db"
)

// Server wires the memory store, merge engine, and code indexer behind
// the MCP stdio transport
type Server struct {
	mcp     *server.MCPServer
	storage storage.Storage
	memory  *memory.Service
	merge   *merge.Engine
	indexer *indexer.Indexer
}

// NewServer creates a server backed by a SQLite database at dbPath.
// A leading ~ is expanded and parent directories are created.
func NewServer(dbPath string) (*Server, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	dbPath, err := expandPath(dbPath)
	if err != nil {
		return nil, err
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	emb, err := embedder.Default()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	s := &Server{
		storage: store,
		memory:  memory.NewService(store, emb),
		merge:   merge.NewEngine(store),
		indexer: indexer.New(store),
		mcp:     server.NewMCPServer(ServerName, ServerVersion),
	}
	s.registerTools()
	return s, nil
}

// expandPath expands a leading ~ to the user's home directory
func expandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// registerTools attaches every tool handler to the MCP server
func (s *Server) registerTools() {
	s.mcp.AddTool(storeSolutionTool(), s.handleStoreSolution)
	s.mcp.AddTool(recallSolutionsTool(), s.handleRecallSolutions)
	s.mcp.AddTool(rewardSolutionTool(), s.handleRewardSolution)
	s.mcp.AddTool(recordFailureTool(), s.handleRecordFailure)
	s.mcp.AddTool(findSimilarFailuresTool(), s.handleFindSimilarFailures)
	s.mcp.AddTool(mergeCandidatesTool(), s.handleMergeCandidates)
	s.mcp.AddTool(executeMergeTool(), s.handleExecuteMerge)
	s.mcp.AddTool(registerRepoTool(), s.handleRegisterRepo)
	s.mcp.AddTool(reindexTool(), s.handleReindex)
	s.mcp.AddTool(findDefinitionTool(), s.handleFindDefinition)
	s.mcp.AddTool(findCallersTool(), s.handleFindCallers)
	s.mcp.AddTool(listExportsTool(), s.handleListExports)
	s.mcp.AddTool(searchSymbolsTool(), s.handleSearchSymbols)
	s.mcp.AddTool(getImportsTool(), s.handleGetImports)
	s.mcp.AddTool(addWarningTool(), s.handleAddWarning)
	s.mcp.AddTool(removeWarningTool(), s.handleRemoveWarning)
	s.mcp.AddTool(checkWarningsTool(), s.handleCheckWarnings)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}

// Serve runs the server on stdio until the client disconnects
func (s *Server) Serve() error {
	defer func() { _ = s.storage.Close() }()
	return server.ServeStdio(s.mcp)
}

// Close releases the server's resources without serving
func (s *Server) Close() error {
	return s.storage.Close()
}
