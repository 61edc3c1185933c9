package storage

import (
	"context"

	"github.com/recallhq/recall-mcp/pkg/types"
)

// Transaction delegates. Every Storage method runs against the open
// transaction instead of the pooled connection.

func (t *sqliteTx) CreateSolution(ctx context.Context, sol *types.Solution) error {
	return t.storage.createSolutionWithQuerier(ctx, t.tx, sol)
}

func (t *sqliteTx) GetSolution(ctx context.Context, id string) (*types.Solution, error) {
	return t.storage.getSolutionWithQuerier(ctx, t.tx, id)
}

func (t *sqliteTx) ListSolutions(ctx context.Context, scope types.Scope) ([]*types.Solution, error) {
	return t.storage.listSolutionsWithQuerier(ctx, t.tx, scope)
}

func (t *sqliteTx) UpdateSolution(ctx context.Context, sol *types.Solution) error {
	return t.storage.updateSolutionWithQuerier(ctx, t.tx, sol)
}

func (t *sqliteTx) DeleteSolution(ctx context.Context, id string) error {
	return t.storage.deleteSolutionWithQuerier(ctx, t.tx, id)
}

func (t *sqliteTx) AppendMergeLog(ctx context.Context, keptID, removedID, detail string) error {
	return t.storage.appendMergeLogWithQuerier(ctx, t.tx, keptID, removedID, detail)
}

func (t *sqliteTx) ListMergeLog(ctx context.Context, limit int) ([]*MergeLogEntry, error) {
	return t.storage.listMergeLogWithQuerier(ctx, t.tx, limit)
}

func (t *sqliteTx) CreateFailure(ctx context.Context, f *types.Failure) error {
	return t.storage.createFailureWithQuerier(ctx, t.tx, f)
}

func (t *sqliteTx) GetFailureBySignature(ctx context.Context, signature string) (*types.Failure, error) {
	return t.storage.getFailureBySignatureWithQuerier(ctx, t.tx, signature)
}

func (t *sqliteTx) UpdateFailure(ctx context.Context, f *types.Failure) error {
	return t.storage.updateFailureWithQuerier(ctx, t.tx, f)
}

func (t *sqliteTx) ListFailures(ctx context.Context) ([]*types.Failure, error) {
	return t.storage.listFailuresWithQuerier(ctx, t.tx)
}

func (t *sqliteTx) UpsertRepo(ctx context.Context, repo *types.Repo) error {
	return t.storage.upsertRepoWithQuerier(ctx, t.tx, repo)
}

func (t *sqliteTx) GetRepo(ctx context.Context, id string) (*types.Repo, error) {
	return t.storage.getRepoWithQuerier(ctx, t.tx, id)
}

func (t *sqliteTx) GetRepoByPath(ctx context.Context, path string) (*types.Repo, error) {
	return t.storage.getRepoByPathWithQuerier(ctx, t.tx, path)
}

func (t *sqliteTx) ListRepos(ctx context.Context) ([]*types.Repo, error) {
	return t.storage.listReposWithQuerier(ctx, t.tx)
}

func (t *sqliteTx) UpsertRepoFile(ctx context.Context, file *RepoFile) error {
	return t.storage.upsertRepoFileWithQuerier(ctx, t.tx, file)
}

func (t *sqliteTx) GetRepoFile(ctx context.Context, repoID, path string) (*RepoFile, error) {
	return t.storage.getRepoFileWithQuerier(ctx, t.tx, repoID, path)
}

func (t *sqliteTx) ListRepoFiles(ctx context.Context, repoID string) ([]*RepoFile, error) {
	return t.storage.listRepoFilesWithQuerier(ctx, t.tx, repoID)
}

func (t *sqliteTx) DeleteRepoFile(ctx context.Context, repoID, path string) error {
	return t.storage.deleteRepoFileWithQuerier(ctx, t.tx, repoID, path)
}

func (t *sqliteTx) InsertSymbol(ctx context.Context, sym *SymbolRow) error {
	return t.storage.insertSymbolWithQuerier(ctx, t.tx, sym)
}

func (t *sqliteTx) InsertImport(ctx context.Context, imp *ImportRow) error {
	return t.storage.insertImportWithQuerier(ctx, t.tx, imp)
}

func (t *sqliteTx) DeleteSymbolsByFile(ctx context.Context, repoID, path string) error {
	return t.storage.deleteSymbolsByFileWithQuerier(ctx, t.tx, repoID, path)
}

func (t *sqliteTx) DeleteImportsByFile(ctx context.Context, repoID, path string) error {
	return t.storage.deleteImportsByFileWithQuerier(ctx, t.tx, repoID, path)
}

func (t *sqliteTx) FindDefinitions(ctx context.Context, repoID, name string, filter *SymbolFilter) ([]*SymbolRow, error) {
	return t.storage.findDefinitionsWithQuerier(ctx, t.tx, repoID, name, filter)
}

func (t *sqliteTx) ListExports(ctx context.Context, repoID, pathPrefix string) ([]*SymbolRow, error) {
	return t.storage.listExportsWithQuerier(ctx, t.tx, repoID, pathPrefix)
}

func (t *sqliteTx) SearchSymbols(ctx context.Context, repoID, substr string, filter *SymbolFilter) ([]*SymbolRow, error) {
	return t.storage.searchSymbolsWithQuerier(ctx, t.tx, repoID, substr, filter)
}

func (t *sqliteTx) ListImportsByFile(ctx context.Context, repoID, path string) ([]*ImportRow, error) {
	return t.storage.listImportsByFileWithQuerier(ctx, t.tx, repoID, path)
}

func (t *sqliteTx) ListImportsByName(ctx context.Context, repoID, importedName string) ([]*ImportRow, error) {
	return t.storage.listImportsByNameWithQuerier(ctx, t.tx, repoID, importedName)
}

func (t *sqliteTx) CreateWarning(ctx context.Context, w *types.Warning) error {
	return t.storage.createWarningWithQuerier(ctx, t.tx, w)
}

func (t *sqliteTx) DeleteWarning(ctx context.Context, id string) error {
	return t.storage.deleteWarningWithQuerier(ctx, t.tx, id)
}

func (t *sqliteTx) ListWarnings(ctx context.Context, repoID *string) ([]*types.Warning, error) {
	return t.storage.listWarningsWithQuerier(ctx, t.tx, repoID)
}

func (t *sqliteTx) GetStatus(ctx context.Context) (*Status, error) {
	return t.storage.getStatusWithQuerier(ctx, t.tx)
}

// Close is a no-op inside a transaction; the owning storage holds the pool.
func (t *sqliteTx) Close() error {
	return nil
}

// BeginTx inside a transaction returns the same transaction. SQLite does not
// support nesting, and callers composing helpers should not have to care.
func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	return t, nil
}
