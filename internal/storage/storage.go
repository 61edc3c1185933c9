package storage

import (
	"context"
	"errors"
	"time"

	"github.com/recallhq/recall-mcp/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = types.ErrNotFound
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
)

// RepoFile is a tracked source file row. mtime is the source-of-truth clock
// for change detection and reflects the last successful parse.
type RepoFile struct {
	RepoID   string
	Path     string // Relative to the repository root
	MTime    int64  // Unix nanoseconds
	Language string
}

// SymbolRow is one extracted symbol, keyed to its file
type SymbolRow struct {
	RepoID    string
	Path      string
	Name      string
	Kind      string
	Line      int
	EndLine   int
	Exported  bool
	IsDefault bool
	Scope     string
	Signature string
}

// ImportRow is one extracted import, keyed to its file
type ImportRow struct {
	RepoID       string
	Path         string
	ImportedName string
	SourcePath   string
	LocalName    string
	IsDefault    bool
	IsNamespace  bool
	IsType       bool
	Line         int
}

// SymbolFilter narrows symbol queries
type SymbolFilter struct {
	Kind         string // Empty = any kind
	Path         string // Empty = any file
	ExportedOnly bool
	Limit        int
}

// MergeLogEntry is one audit row written by executeMerge
type MergeLogEntry struct {
	ID        int64
	KeptID    string
	RemovedID string
	Detail    string
	CreatedAt time.Time
}

// Status aggregates table counts for the status tool
type Status struct {
	Solutions int
	Failures  int
	Repos     int
	Files     int
	Symbols   int
	Imports   int
	Warnings  int
	SizeMB    float64
}

// Storage defines the persistence interface for the memory store and the
// code index. All mutation goes through explicit writes of new values; rows
// handed out are snapshots, never live shared references.
type Storage interface {
	// Solution operations
	CreateSolution(ctx context.Context, sol *types.Solution) error
	GetSolution(ctx context.Context, id string) (*types.Solution, error)
	ListSolutions(ctx context.Context, scope types.Scope) ([]*types.Solution, error)
	UpdateSolution(ctx context.Context, sol *types.Solution) error
	DeleteSolution(ctx context.Context, id string) error
	AppendMergeLog(ctx context.Context, keptID, removedID, detail string) error
	ListMergeLog(ctx context.Context, limit int) ([]*MergeLogEntry, error)

	// Failure operations
	CreateFailure(ctx context.Context, f *types.Failure) error
	GetFailureBySignature(ctx context.Context, signature string) (*types.Failure, error)
	UpdateFailure(ctx context.Context, f *types.Failure) error
	ListFailures(ctx context.Context) ([]*types.Failure, error)

	// Repo fingerprint operations
	UpsertRepo(ctx context.Context, repo *types.Repo) error
	GetRepo(ctx context.Context, id string) (*types.Repo, error)
	GetRepoByPath(ctx context.Context, path string) (*types.Repo, error)
	ListRepos(ctx context.Context) ([]*types.Repo, error)

	// Indexed file operations
	UpsertRepoFile(ctx context.Context, file *RepoFile) error
	GetRepoFile(ctx context.Context, repoID, path string) (*RepoFile, error)
	ListRepoFiles(ctx context.Context, repoID string) ([]*RepoFile, error)
	DeleteRepoFile(ctx context.Context, repoID, path string) error

	// Symbol and import rows, replaced atomically per file on reparse
	InsertSymbol(ctx context.Context, sym *SymbolRow) error
	InsertImport(ctx context.Context, imp *ImportRow) error
	DeleteSymbolsByFile(ctx context.Context, repoID, path string) error
	DeleteImportsByFile(ctx context.Context, repoID, path string) error

	// Index queries, read-only
	FindDefinitions(ctx context.Context, repoID, name string, filter *SymbolFilter) ([]*SymbolRow, error)
	ListExports(ctx context.Context, repoID, pathPrefix string) ([]*SymbolRow, error)
	SearchSymbols(ctx context.Context, repoID, substr string, filter *SymbolFilter) ([]*SymbolRow, error)
	ListImportsByFile(ctx context.Context, repoID, path string) ([]*ImportRow, error)
	ListImportsByName(ctx context.Context, repoID, importedName string) ([]*ImportRow, error)

	// Warning operations
	CreateWarning(ctx context.Context, w *types.Warning) error
	DeleteWarning(ctx context.Context, id string) error
	ListWarnings(ctx context.Context, repoID *string) ([]*types.Warning, error)

	// Status operations
	GetStatus(ctx context.Context) (*Status, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}
