package memory

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recallhq/recall-mcp/internal/embedder"
	"github.com/recallhq/recall-mcp/internal/storage"
	"github.com/recallhq/recall-mcp/pkg/types"
)

func newTestService(t *testing.T) (*Service, storage.Storage) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	emb, err := embedder.NewLocalProvider(embedder.NewCache(256))
	require.NoError(t, err)

	return NewService(store, emb), store
}

func TestStoreSolutionAndRecall(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.StoreSolution(ctx, &StoreSolutionInput{
		Problem:  "OAuth token refresh fails with expired refresh token",
		Solution: "Re-run the authorization code flow when refresh returns invalid_grant",
		Tags:     []string{"oauth", "auth"},
	})
	require.NoError(t, err)
	require.False(t, res.Duplicate)
	assert.Equal(t, types.ScopeGlobal, res.Solution.Scope)
	assert.Equal(t, 0.5, res.Solution.Score)

	matches, err := svc.Recall(ctx, &RecallQuery{Problem: "OAuth refresh token expired"})
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, res.Solution.ID, matches[0].Solution.ID)
	assert.Greater(t, matches[0].Similarity, 0.0)
}

func TestStoreSolutionDetectsDuplicate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.StoreSolution(ctx, &StoreSolutionInput{
		Problem:  "database connection pool exhausted under load",
		Solution: "raise pool size and add connection timeouts",
	})
	require.NoError(t, err)
	require.False(t, first.Duplicate)

	// Identical problem text embeds to the identical vector
	second, err := svc.StoreSolution(ctx, &StoreSolutionInput{
		Problem:  "database connection pool exhausted under load",
		Solution: "a different remedy entirely",
	})
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.Solution.ID, second.Solution.ID)
	assert.GreaterOrEqual(t, second.Similarity, DuplicateThreshold)
}

func TestStoreSolutionSupersedesMissing(t *testing.T) {
	svc, _ := newTestService(t)

	missing := "no-such-id"
	_, err := svc.StoreSolution(context.Background(), &StoreSolutionInput{
		Problem:    "anything",
		Solution:   "anything",
		Supersedes: &missing,
	})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStoreSolutionEmptyProblem(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.StoreSolution(context.Background(), &StoreSolutionInput{
		Problem:  "   ",
		Solution: "something",
	})
	assert.True(t, types.IsValidation(err))
}

func TestDeriveComplexity(t *testing.T) {
	tests := []struct {
		name string
		in   StoreSolutionInput
		want int
	}{
		{"trivial", StoreSolutionInput{Solution: "restart it"}, 1},
		{
			"code blocks and prerequisites",
			StoreSolutionInput{
				Solution:      "```\nfix\n```\n```\nmore\n```",
				Prerequisites: []string{"docker", "make"},
			},
			5,
		},
		{
			"capped at ten",
			StoreSolutionInput{
				Solution: string(make([]byte, 3000)) +
					"``` ``` ``` ``` ``` ```",
				Prerequisites: []string{"a", "b", "c"},
				FilesAffected: []string{"a", "b", "c", "d", "e", "f"},
			},
			10,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, deriveComplexity(&tt.in))
		})
	}
}

func TestContextBoosts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	repoA, err := svc.RegisterRepo(ctx, "/home/dev/project-a", []string{"go", "postgres"}, nil, nil)
	require.NoError(t, err)
	// Identical stack, so the fingerprints embed identically
	repoB, err := svc.RegisterRepo(ctx, "/home/dev/project-b", []string{"go", "postgres"}, nil, nil)
	require.NoError(t, err)
	repoC, err := svc.RegisterRepo(ctx, "/home/dev/project-c", []string{"elixir", "phoenix", "ecto"}, nil, nil)
	require.NoError(t, err)

	sameRepo := &types.Solution{RepoID: &repoA.ID}
	assert.Equal(t, sameRepoBoost, svc.contextBoost(ctx, &repoA.ID, repoA, sameRepo))

	similarStack := &types.Solution{RepoID: &repoB.ID}
	assert.Equal(t, similarTechBoost, svc.contextBoost(ctx, &repoA.ID, repoA, similarStack))

	differentStack := &types.Solution{RepoID: &repoC.ID}
	assert.Equal(t, 0.0, svc.contextBoost(ctx, &repoA.ID, repoA, differentStack))

	global := &types.Solution{}
	assert.Equal(t, 0.0, svc.contextBoost(ctx, &repoA.ID, repoA, global))
	assert.Equal(t, 0.0, svc.contextBoost(ctx, nil, nil, sameRepo))
}

// vectorAtCosine builds a unit vector whose cosine to the unit vector q
// is exactly c
func vectorAtCosine(t *testing.T, q []float32, c float64) []float32 {
	t.Helper()
	// Orthogonalize a basis axis against q, then blend
	axis := 0
	if math.Abs(float64(q[axis])) > 0.9 {
		axis = 1
	}
	u := make([]float64, len(q))
	for i, v := range q {
		u[i] = -float64(q[axis]) * float64(v)
	}
	u[axis] += 1
	var norm float64
	for _, v := range u {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	require.Greater(t, norm, 0.0)

	s := math.Sqrt(1 - c*c)
	out := make([]float32, len(q))
	for i := range q {
		out[i] = float32(c*float64(q[i]) + s*u[i]/norm)
	}
	return out
}

func TestRecallMinSimilarityAppliesAfterBoost(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	repo, err := svc.RegisterRepo(ctx, "/home/dev/shop", []string{"go"}, nil, nil)
	require.NoError(t, err)

	problem := "requests to the payment gateway time out"
	emb, err := svc.embedder.Embed(ctx, problem)
	require.NoError(t, err)

	// Both solutions sit at raw cosine 0.6 to the query; only the one in
	// the query's repo gets the +0.15 boost over the 0.7 threshold
	stored := vectorAtCosine(t, emb.Vector, 0.6)
	boosted := &types.Solution{
		ID:         "in-repo",
		RepoID:     &repo.ID,
		Problem:    "gateway timeouts during checkout",
		Embedding:  stored,
		Solution:   "raise the upstream timeout and add retries",
		Scope:      types.ScopeRepo,
		Complexity: 1,
		Score:      0.5,
	}
	require.NoError(t, store.CreateSolution(ctx, boosted))

	unboosted := &types.Solution{
		ID:         "elsewhere",
		Problem:    "gateway timeouts during checkout",
		Embedding:  stored,
		Solution:   "raise the upstream timeout and add retries",
		Scope:      types.ScopeGlobal,
		Complexity: 1,
		Score:      0.5,
	}
	require.NoError(t, store.CreateSolution(ctx, unboosted))

	matches, err := svc.Recall(ctx, &RecallQuery{
		Problem:       problem,
		RepoID:        &repo.ID,
		MinSimilarity: 0.7,
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "in-repo", matches[0].Solution.ID)
	assert.InDelta(t, 0.6, matches[0].Similarity, 1e-3)
}

func TestRewardUpdatesScore(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.StoreSolution(ctx, &StoreSolutionInput{
		Problem:  "flaky integration test on CI",
		Solution: "pin the container image digest",
	})
	require.NoError(t, err)
	id := res.Solution.ID

	sol, err := svc.Reward(ctx, id, OutcomeSuccess)
	require.NoError(t, err)
	assert.Equal(t, 1, sol.Uses)
	assert.Equal(t, 1, sol.Successes)
	assert.InDelta(t, 1.0, sol.Score, 1e-9)

	sol, err = svc.Reward(ctx, id, OutcomePartial)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, sol.Score, 1e-9)

	sol, err = svc.Reward(ctx, id, OutcomeFailure)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, sol.Score, 1e-9)
	assert.Equal(t, 3, sol.Uses)
}

func TestRewardInvalidOutcome(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Reward(context.Background(), "any", Outcome("great"))
	assert.True(t, types.IsValidation(err))
}

func TestRewardMissingSolution(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Reward(context.Background(), "missing", OutcomeSuccess)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRecordFailureDeduplicates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.RecordFailure(ctx, &RecordFailureInput{
		ErrorType: "ENOENT",
		Message:   "no such file or directory: /home/alice/app/config.yaml line 42",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Occurrences)

	// Different path and line, same underlying failure shape
	second, err := svc.RecordFailure(ctx, &RecordFailureInput{
		ErrorType: "ENOENT",
		Message:   "no such file or directory: /srv/deploy/app/config.yaml line 7",
		RootCause: "config file not copied into the image",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.Occurrences)
	assert.Equal(t, "config file not copied into the image", second.RootCause)
}

func TestRecordFailureDistinctTypes(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.RecordFailure(ctx, &RecordFailureInput{
		ErrorType: "TypeError", Message: "x is not a function",
	})
	require.NoError(t, err)
	b, err := svc.RecordFailure(ctx, &RecordFailureInput{
		ErrorType: "ReferenceError", Message: "x is not a function",
	})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID, "error type participates in the signature")
}

func TestNormalizeMessage(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"paths", "open /var/lib/app/data.db failed", "open PATH failed"},
		{"numbers", "timeout after 3000 ms on port 5432", "timeout after N ms on port N"},
		{"quoted", `unknown flag "--fast" given`, "unknown flag STR given"},
		{"hex addresses", "panic at 0xDEADBEEF", "panic at N"},
		{"whitespace", "  too   many\tspaces ", "too many spaces"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeMessage(tt.in))
		})
	}
}

func TestCheckWarnings(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	repoID := "r1"
	_, err := svc.AddWarning(ctx, &types.Warning{
		Type: types.WarningFile, Target: "src/legacy/*",
		Severity: types.SeverityBlock, Reason: "frozen for migration", RepoID: &repoID,
	})
	require.NoError(t, err)
	_, err = svc.AddWarning(ctx, &types.Warning{
		Type: types.WarningPackage, Target: "left-pad",
		Severity: types.SeverityWarn, Reason: "unmaintained",
	})
	require.NoError(t, err)

	hits, err := svc.CheckWarnings(ctx, &repoID,
		[]string{"src/legacy/billing/invoice.ts"}, []string{"left-pad", "lodash"})
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	none, err := svc.CheckWarnings(ctx, &repoID,
		[]string{"src/modern/api.ts"}, []string{"lodash"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRegisterRepoStableID(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.RegisterRepo(ctx, "/home/dev/api/", []string{"go"}, nil, nil)
	require.NoError(t, err)
	b, err := svc.RegisterRepo(ctx, "/home/dev/api", []string{"go", "sql"}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, a.ID, b.ID, "trailing slash must not change the identity")
	assert.Equal(t, []string{"go", "sql"}, b.Languages)
}
