package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recallhq/recall-mcp/internal/vector"
	"github.com/recallhq/recall-mcp/pkg/types"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testVector(seed float32) []float32 {
	v := make([]float32, types.EmbeddingDimension)
	for i := range v {
		v[i] = seed
	}
	v[0] = 1
	return vector.Normalize(v)
}

func testSolution(problem string) *types.Solution {
	return &types.Solution{
		ID:         uuid.NewString(),
		Problem:    problem,
		Embedding:  testVector(0.01),
		Solution:   "restart the connection pool before retrying",
		Scope:      types.ScopeGlobal,
		Tags:       []string{"database", "pooling"},
		Complexity: 3,
		Score:      0.5,
	}
}

func TestSolutionRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	sol := testSolution("connection pool exhaustion under load")
	cat := types.CategoryBugfix
	sol.Category = &cat

	require.NoError(t, s.CreateSolution(ctx, sol))

	got, err := s.GetSolution(ctx, sol.ID)
	require.NoError(t, err)
	assert.Equal(t, sol.Problem, got.Problem)
	assert.Equal(t, sol.Solution, got.Solution)
	assert.Equal(t, sol.Tags, got.Tags)
	assert.Equal(t, sol.Embedding, got.Embedding)
	require.NotNil(t, got.Category)
	assert.Equal(t, types.CategoryBugfix, *got.Category)
	assert.Equal(t, 0.5, got.Score)
}

func TestGetSolutionNotFound(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.GetSolution(context.Background(), "missing-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListSolutionsByScope(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	global := testSolution("global problem")
	repo := testSolution("repo problem")
	repo.Scope = types.ScopeRepo
	require.NoError(t, s.CreateSolution(ctx, global))
	require.NoError(t, s.CreateSolution(ctx, repo))

	all, err := s.ListSolutions(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	repoOnly, err := s.ListSolutions(ctx, types.ScopeRepo)
	require.NoError(t, err)
	require.Len(t, repoOnly, 1)
	assert.Equal(t, repo.ID, repoOnly[0].ID)
}

func TestListSolutionsSkipsCorruptEmbedding(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	good := testSolution("intact record")
	require.NoError(t, s.CreateSolution(ctx, good))

	bad := testSolution("corrupt record")
	require.NoError(t, s.CreateSolution(ctx, bad))

	// Truncate the blob behind the storage layer's back
	_, err := s.db.ExecContext(ctx,
		`UPDATE solutions SET problem_embedding = ? WHERE id = ?`, []byte{1, 2, 3}, bad.ID)
	require.NoError(t, err)

	all, err := s.ListSolutions(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	for _, sol := range all {
		if sol.ID == bad.ID {
			assert.Nil(t, sol.Embedding, "corrupt blob must decode to nil, not garbage")
		} else {
			assert.Len(t, sol.Embedding, types.EmbeddingDimension)
		}
	}
}

func TestUpdateSolutionCounters(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	sol := testSolution("update target")
	require.NoError(t, s.CreateSolution(ctx, sol))

	sol.Uses = 3
	sol.Successes = 2
	sol.Score = 0.66
	require.NoError(t, s.UpdateSolution(ctx, sol))

	got, err := s.GetSolution(ctx, sol.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Uses)
	assert.Equal(t, 2, got.Successes)
	assert.InDelta(t, 0.66, got.Score, 1e-9)
}

func TestUpdateSolutionMissing(t *testing.T) {
	s := newTestStorage(t)

	sol := testSolution("never created")
	err := s.UpdateSolution(context.Background(), sol)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteSolutionAndMergeLog(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	kept := testSolution("kept")
	removed := testSolution("removed")
	require.NoError(t, s.CreateSolution(ctx, kept))
	require.NoError(t, s.CreateSolution(ctx, removed))

	require.NoError(t, s.DeleteSolution(ctx, removed.ID))
	require.NoError(t, s.AppendMergeLog(ctx, kept.ID, removed.ID, "similarity=0.97"))

	_, err := s.GetSolution(ctx, removed.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	entries, err := s.ListMergeLog(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, kept.ID, entries[0].KeptID)
	assert.Equal(t, removed.ID, entries[0].RemovedID)
}

func TestFailureSignatureUnique(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	f := &types.Failure{
		ID:          uuid.NewString(),
		Signature:   "abc123",
		ErrorType:   "TypeError",
		Message:     "cannot read properties of undefined",
		Occurrences: 1,
	}
	require.NoError(t, s.CreateFailure(ctx, f))

	dup := &types.Failure{
		ID:          uuid.NewString(),
		Signature:   "abc123",
		ErrorType:   "TypeError",
		Message:     "cannot read properties of undefined",
		Occurrences: 1,
	}
	assert.Error(t, s.CreateFailure(ctx, dup), "duplicate signature must be rejected by the UNIQUE constraint")

	got, err := s.GetFailureBySignature(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, f.ID, got.ID)

	got.Occurrences = 2
	got.RootCause = "missing null check after API response"
	require.NoError(t, s.UpdateFailure(ctx, got))

	again, err := s.GetFailureBySignature(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, 2, again.Occurrences)
	assert.Equal(t, "missing null check after API response", again.RootCause)
}

func TestRepoUpsert(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	repo := &types.Repo{
		ID:        "repo-1",
		Path:      "/home/dev/api",
		Languages: []string{"go"},
		Embedding: testVector(0.02),
	}
	require.NoError(t, s.UpsertRepo(ctx, repo))

	repo.Languages = []string{"go", "typescript"}
	repo.Frameworks = []string{"chi"}
	require.NoError(t, s.UpsertRepo(ctx, repo))

	got, err := s.GetRepoByPath(ctx, "/home/dev/api")
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "typescript"}, got.Languages)
	assert.Equal(t, []string{"chi"}, got.Frameworks)

	repos, err := s.ListRepos(ctx)
	require.NoError(t, err)
	assert.Len(t, repos, 1)
}

func seedIndexedFile(t *testing.T, s *SQLiteStorage, repoID, path string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.UpsertRepo(ctx, &types.Repo{ID: repoID, Path: "/tmp/" + repoID}))
	require.NoError(t, s.UpsertRepoFile(ctx, &RepoFile{
		RepoID: repoID, Path: path, MTime: time.Now().UnixNano(), Language: "typescript",
	}))
}

func TestDeleteRepoFileCascades(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	seedIndexedFile(t, s, "r1", "src/auth.ts")
	require.NoError(t, s.InsertSymbol(ctx, &SymbolRow{
		RepoID: "r1", Path: "src/auth.ts", Name: "login", Kind: "function",
		Line: 10, EndLine: 30, Exported: true,
	}))
	require.NoError(t, s.InsertImport(ctx, &ImportRow{
		RepoID: "r1", Path: "src/auth.ts", ImportedName: "hash", SourcePath: "./crypto", Line: 1,
	}))

	require.NoError(t, s.DeleteRepoFile(ctx, "r1", "src/auth.ts"))

	syms, err := s.FindDefinitions(ctx, "r1", "login", nil)
	require.NoError(t, err)
	assert.Empty(t, syms, "symbols must cascade when the file row is deleted")

	imps, err := s.ListImportsByFile(ctx, "r1", "src/auth.ts")
	require.NoError(t, err)
	assert.Empty(t, imps)
}

func TestFindDefinitionsWithFilter(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	seedIndexedFile(t, s, "r1", "src/user.ts")
	require.NoError(t, s.InsertSymbol(ctx, &SymbolRow{
		RepoID: "r1", Path: "src/user.ts", Name: "User", Kind: "class",
		Line: 5, EndLine: 40, Exported: true,
	}))
	require.NoError(t, s.InsertSymbol(ctx, &SymbolRow{
		RepoID: "r1", Path: "src/user.ts", Name: "User", Kind: "interface",
		Line: 50, EndLine: 55, Exported: false,
	}))

	all, err := s.FindDefinitions(ctx, "r1", "User", nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	classes, err := s.FindDefinitions(ctx, "r1", "User", &SymbolFilter{Kind: "class"})
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, 5, classes[0].Line)

	exported, err := s.FindDefinitions(ctx, "r1", "User", &SymbolFilter{ExportedOnly: true})
	require.NoError(t, err)
	require.Len(t, exported, 1)
	assert.Equal(t, "class", exported[0].Kind)
}

func TestListExportsByPrefix(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	seedIndexedFile(t, s, "r1", "src/api/handler.ts")
	seedIndexedFile(t, s, "r1", "lib/util.ts")
	require.NoError(t, s.InsertSymbol(ctx, &SymbolRow{
		RepoID: "r1", Path: "src/api/handler.ts", Name: "handle", Kind: "function",
		Line: 1, EndLine: 2, Exported: true,
	}))
	require.NoError(t, s.InsertSymbol(ctx, &SymbolRow{
		RepoID: "r1", Path: "src/api/handler.ts", Name: "helper", Kind: "function",
		Line: 5, EndLine: 6, Exported: false,
	}))
	require.NoError(t, s.InsertSymbol(ctx, &SymbolRow{
		RepoID: "r1", Path: "lib/util.ts", Name: "clamp", Kind: "function",
		Line: 1, EndLine: 2, Exported: true,
	}))

	exports, err := s.ListExports(ctx, "r1", "src/")
	require.NoError(t, err)
	require.Len(t, exports, 1)
	assert.Equal(t, "handle", exports[0].Name)

	all, err := s.ListExports(ctx, "r1", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSearchSymbolsEscapesLike(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	seedIndexedFile(t, s, "r1", "src/a.ts")
	require.NoError(t, s.InsertSymbol(ctx, &SymbolRow{
		RepoID: "r1", Path: "src/a.ts", Name: "do_work", Kind: "function",
		Line: 1, EndLine: 2,
	}))
	require.NoError(t, s.InsertSymbol(ctx, &SymbolRow{
		RepoID: "r1", Path: "src/a.ts", Name: "dowork", Kind: "function",
		Line: 5, EndLine: 6,
	}))

	// Underscore must match literally, not as a single-char wildcard
	got, err := s.SearchSymbols(ctx, "r1", "do_", nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "do_work", got[0].Name)
}

func TestListImportsByNameIncludesNamespace(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	seedIndexedFile(t, s, "r1", "src/a.ts")
	seedIndexedFile(t, s, "r1", "src/b.ts")
	require.NoError(t, s.InsertImport(ctx, &ImportRow{
		RepoID: "r1", Path: "src/a.ts", ImportedName: "login", SourcePath: "./auth", Line: 1,
	}))
	require.NoError(t, s.InsertImport(ctx, &ImportRow{
		RepoID: "r1", Path: "src/b.ts", ImportedName: "*", SourcePath: "./auth",
		LocalName: "auth", IsNamespace: true, Line: 1,
	}))

	got, err := s.ListImportsByName(ctx, "r1", "login")
	require.NoError(t, err)
	assert.Len(t, got, 2, "namespace imports pull every name into scope")
}

func TestWarningScoping(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	repoID := "r1"
	global := &types.Warning{
		ID: uuid.NewString(), Type: types.WarningPackage, Target: "leftpad",
		Severity: types.SeverityWarn, Reason: "unmaintained",
	}
	scoped := &types.Warning{
		ID: uuid.NewString(), Type: types.WarningFile, Target: "src/legacy/*",
		Severity: types.SeverityBlock, Reason: "scheduled for removal", RepoID: &repoID,
	}
	other := "r2"
	foreign := &types.Warning{
		ID: uuid.NewString(), Type: types.WarningFile, Target: "gen/*",
		Severity: types.SeverityInfo, Reason: "generated code", RepoID: &other,
	}
	require.NoError(t, s.CreateWarning(ctx, global))
	require.NoError(t, s.CreateWarning(ctx, scoped))
	require.NoError(t, s.CreateWarning(ctx, foreign))

	got, err := s.ListWarnings(ctx, &repoID)
	require.NoError(t, err)
	assert.Len(t, got, 2, "global plus own-repo warnings only")

	all, err := s.ListWarnings(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, s.DeleteWarning(ctx, global.ID))
	assert.ErrorIs(t, s.DeleteWarning(ctx, global.ID), ErrNotFound)
}

func TestTransactionRollback(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)

	sol := testSolution("rolled back")
	require.NoError(t, tx.CreateSolution(ctx, sol))
	require.NoError(t, tx.Rollback())

	_, err = s.GetSolution(ctx, sol.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransactionCommit(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	seedIndexedFile(t, s, "r1", "src/old.ts")
	require.NoError(t, s.InsertSymbol(ctx, &SymbolRow{
		RepoID: "r1", Path: "src/old.ts", Name: "stale", Kind: "function", Line: 1, EndLine: 2,
	}))

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.DeleteSymbolsByFile(ctx, "r1", "src/old.ts"))
	require.NoError(t, tx.InsertSymbol(ctx, &SymbolRow{
		RepoID: "r1", Path: "src/old.ts", Name: "fresh", Kind: "function", Line: 1, EndLine: 2,
	}))
	require.NoError(t, tx.Commit())

	got, err := s.SearchSymbols(ctx, "r1", "", nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "fresh", got[0].Name)
}

func TestGetStatusCounts(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSolution(ctx, testSolution("one")))
	seedIndexedFile(t, s, "r1", "src/a.ts")
	require.NoError(t, s.InsertSymbol(ctx, &SymbolRow{
		RepoID: "r1", Path: "src/a.ts", Name: "x", Kind: "const", Line: 1, EndLine: 1,
	}))

	status, err := s.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status.Solutions)
	assert.Equal(t, 1, status.Repos)
	assert.Equal(t, 1, status.Files)
	assert.Equal(t, 1, status.Symbols)
}
