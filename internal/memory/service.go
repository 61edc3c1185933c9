package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/recallhq/recall-mcp/internal/embedder"
	"github.com/recallhq/recall-mcp/internal/storage"
	"github.com/recallhq/recall-mcp/internal/vector"
	"github.com/recallhq/recall-mcp/pkg/types"
)

const (
	// DuplicateThreshold is the cosine similarity above which a stored
	// solution is treated as the same solution
	DuplicateThreshold = 0.9

	// Recall ranking weights. Similarity dominates; the historical score
	// breaks ties between equally relevant solutions.
	similarityWeight = 0.7
	scoreWeight      = 0.3

	// Context boosts applied to similarity before ranking
	sameRepoBoost    = 0.15
	similarTechBoost = 0.08

	// fingerprintAffinity is the minimum fingerprint similarity between two
	// different repos for the tech-stack boost to apply
	fingerprintAffinity = 0.8

	defaultRecallLimit = 5
)

// Service implements the developer memory operations on top of storage
// and the embedding provider.
type Service struct {
	store    storage.Storage
	embedder embedder.Embedder
}

func NewService(store storage.Storage, emb embedder.Embedder) *Service {
	return &Service{store: store, embedder: emb}
}

// StoreSolutionInput is a request to remember a solved problem
type StoreSolutionInput struct {
	Problem       string
	Solution      string
	Scope         types.Scope
	RepoID        *string
	Tags          []string
	Category      *types.Category
	Complexity    int // 0 derives complexity from the solution content
	Prerequisites []string
	FilesAffected []string
	Supersedes    *string
}

// StoreResult reports what happened to a store request. When Duplicate is
// set, Solution is the pre-existing record and nothing was written.
type StoreResult struct {
	Solution   *types.Solution
	Duplicate  bool
	Similarity float64 // Similarity to the duplicate, when Duplicate is set
}

// deriveComplexity estimates solution complexity from its content when the
// caller does not provide one.
func deriveComplexity(in *StoreSolutionInput) int {
	c := 1
	c += minInt(4, len(in.Solution)/500)
	c += minInt(2, strings.Count(in.Solution, "```")/2)
	c += minInt(2, len(in.Prerequisites))
	c += minInt(2, len(in.FilesAffected)/2)
	if c > 10 {
		c = 10
	}
	return c
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// StoreSolution embeds and persists a solution. A near-identical existing
// solution (similarity >= DuplicateThreshold) short-circuits the write and
// is returned instead.
func (s *Service) StoreSolution(ctx context.Context, in *StoreSolutionInput) (*StoreResult, error) {
	if strings.TrimSpace(in.Problem) == "" {
		return nil, types.NewValidationError("problem", in.Problem, "must not be empty")
	}
	if strings.TrimSpace(in.Solution) == "" {
		return nil, types.NewValidationError("solution", in.Solution, "must not be empty")
	}

	if in.Supersedes != nil {
		if _, err := s.store.GetSolution(ctx, *in.Supersedes); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, fmt.Errorf("supersedes target %s: %w", *in.Supersedes, storage.ErrNotFound)
			}
			return nil, err
		}
	}

	emb, err := s.embedder.Embed(ctx, in.Problem)
	if err != nil {
		return nil, fmt.Errorf("failed to embed problem: %w", err)
	}

	existing, err := s.store.ListSolutions(ctx, "")
	if err != nil {
		return nil, err
	}
	candidates := make([]vector.Candidate, 0, len(existing))
	byID := make(map[string]*types.Solution, len(existing))
	for _, sol := range existing {
		candidates = append(candidates, vector.Candidate{ID: sol.ID, Vector: sol.Embedding})
		byID[sol.ID] = sol
	}
	matches := vector.TopK(emb.Vector, candidates, 1, DuplicateThreshold)
	if len(matches) > 0 {
		return &StoreResult{
			Solution:   byID[matches[0].ID],
			Duplicate:  true,
			Similarity: matches[0].Similarity,
		}, nil
	}

	complexity := in.Complexity
	if complexity == 0 {
		complexity = deriveComplexity(in)
	}

	sol := &types.Solution{
		ID:         uuid.NewString(),
		RepoID:     in.RepoID,
		Problem:    in.Problem,
		Embedding:  emb.Vector,
		Solution:   in.Solution,
		Scope:      in.Scope,
		Tags:       in.Tags,
		Category:   in.Category,
		Complexity: complexity,
		Score:      0.5, // Neutral prior until feedback arrives
		Supersedes: in.Supersedes,
	}
	if sol.Scope == "" {
		sol.Scope = types.ScopeGlobal
	}
	if err := sol.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.CreateSolution(ctx, sol); err != nil {
		return nil, err
	}
	return &StoreResult{Solution: sol}, nil
}

// RecallQuery searches stored solutions by problem description
type RecallQuery struct {
	Problem       string
	RepoID        *string // Current repository, used for context boosts
	Scope         types.Scope
	Limit         int
	MinSimilarity float64
}

// RecallMatch is one ranked recall result
type RecallMatch struct {
	Solution   *types.Solution
	Similarity float64 // Raw cosine similarity, before boosts
	Final      float64 // Ranking key: boosted similarity blended with score
}

// Recall finds stored solutions relevant to a problem description.
// Solutions from the same repository, or from repositories with a similar
// tech fingerprint, rank above otherwise equal matches.
func (s *Service) Recall(ctx context.Context, q *RecallQuery) ([]*RecallMatch, error) {
	if strings.TrimSpace(q.Problem) == "" {
		return nil, types.NewValidationError("problem", q.Problem, "must not be empty")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultRecallLimit
	}

	emb, err := s.embedder.Embed(ctx, q.Problem)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	solutions, err := s.store.ListSolutions(ctx, q.Scope)
	if err != nil {
		return nil, err
	}

	var queryRepo *types.Repo
	if q.RepoID != nil {
		if r, err := s.store.GetRepo(ctx, *q.RepoID); err == nil {
			queryRepo = r
		}
	}

	matches := make([]*RecallMatch, 0, len(solutions))
	for _, sol := range solutions {
		if len(sol.Embedding) == 0 {
			continue // Unreadable or missing vector, cannot rank
		}
		sim, err := vector.Cosine(emb.Vector, sol.Embedding)
		if err != nil {
			continue
		}

		boosted := sim + s.contextBoost(ctx, q.RepoID, queryRepo, sol)
		if boosted > 1 {
			boosted = 1
		}
		// The threshold applies to the boosted value, so context can lift
		// a borderline candidate over it
		if boosted < q.MinSimilarity {
			continue
		}
		matches = append(matches, &RecallMatch{
			Solution:   sol,
			Similarity: sim,
			Final:      similarityWeight*boosted + scoreWeight*sol.Score,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Final != matches[j].Final {
			return matches[i].Final > matches[j].Final
		}
		return matches[i].Solution.ID < matches[j].Solution.ID
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// contextBoost prefers same-repo solutions, then solutions from repos with
// a close tech fingerprint. The two boosts do not stack.
func (s *Service) contextBoost(ctx context.Context, queryRepoID *string, queryRepo *types.Repo, sol *types.Solution) float64 {
	if queryRepoID == nil || sol.RepoID == nil {
		return 0
	}
	if *sol.RepoID == *queryRepoID {
		return sameRepoBoost
	}
	if queryRepo == nil || len(queryRepo.Embedding) == 0 {
		return 0
	}
	solRepo, err := s.store.GetRepo(ctx, *sol.RepoID)
	if err != nil || len(solRepo.Embedding) == 0 {
		return 0
	}
	affinity, err := vector.Cosine(queryRepo.Embedding, solRepo.Embedding)
	if err == nil && affinity >= fingerprintAffinity {
		return similarTechBoost
	}
	return 0
}

// Outcome is the reported result of applying a recalled solution
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePartial Outcome = "partial"
	OutcomeFailure Outcome = "failure"
)

func (o Outcome) Validate() error {
	switch o {
	case OutcomeSuccess, OutcomePartial, OutcomeFailure:
		return nil
	}
	return types.NewValidationError("outcome", string(o), "must be success, partial, or failure")
}

// Reward records feedback for a solution and recomputes its score as the
// success rate over all uses, counting partial successes at half weight.
func (s *Service) Reward(ctx context.Context, solutionID string, outcome Outcome) (*types.Solution, error) {
	if err := outcome.Validate(); err != nil {
		return nil, err
	}
	sol, err := s.store.GetSolution(ctx, solutionID)
	if err != nil {
		return nil, err
	}

	sol.Uses++
	switch outcome {
	case OutcomeSuccess:
		sol.Successes++
	case OutcomePartial:
		sol.PartialSuccesses++
	case OutcomeFailure:
		sol.Failures++
	}
	sol.Score = (float64(sol.Successes) + 0.5*float64(sol.PartialSuccesses)) / float64(sol.Uses)

	if err := s.store.UpdateSolution(ctx, sol); err != nil {
		return nil, err
	}
	return sol, nil
}

// RecordFailureInput describes an encountered failure
type RecordFailureInput struct {
	ErrorType  string
	Message    string
	RootCause  string
	FixApplied string
	Prevention string
}

// RecordFailure stores a failure, deduplicated by normalized signature.
// A repeat occurrence increments the counter and fills in any diagnosis
// fields that were previously empty.
func (s *Service) RecordFailure(ctx context.Context, in *RecordFailureInput) (*types.Failure, error) {
	if strings.TrimSpace(in.ErrorType) == "" {
		return nil, types.NewValidationError("error_type", in.ErrorType, "must not be empty")
	}
	if strings.TrimSpace(in.Message) == "" {
		return nil, types.NewValidationError("message", in.Message, "must not be empty")
	}

	sig := FailureSignature(in.ErrorType, in.Message)
	existing, err := s.store.GetFailureBySignature(ctx, sig)
	if err == nil {
		existing.Occurrences++
		if existing.RootCause == "" {
			existing.RootCause = in.RootCause
		}
		if existing.FixApplied == "" {
			existing.FixApplied = in.FixApplied
		}
		if existing.Prevention == "" {
			existing.Prevention = in.Prevention
		}
		if err := s.store.UpdateFailure(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	emb, err := s.embedder.Embed(ctx, in.ErrorType+": "+in.Message)
	if err != nil {
		return nil, fmt.Errorf("failed to embed failure: %w", err)
	}
	f := &types.Failure{
		ID:          uuid.NewString(),
		Signature:   sig,
		ErrorType:   in.ErrorType,
		Message:     in.Message,
		RootCause:   in.RootCause,
		FixApplied:  in.FixApplied,
		Prevention:  in.Prevention,
		Occurrences: 1,
		Embedding:   emb.Vector,
	}
	if err := s.store.CreateFailure(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// SimilarFailures finds recorded failures resembling an error message
func (s *Service) SimilarFailures(ctx context.Context, message string, limit int) ([]*types.Failure, error) {
	if limit <= 0 {
		limit = defaultRecallLimit
	}
	emb, err := s.embedder.Embed(ctx, message)
	if err != nil {
		return nil, err
	}
	failures, err := s.store.ListFailures(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]vector.Candidate, 0, len(failures))
	byID := make(map[string]*types.Failure, len(failures))
	for _, f := range failures {
		candidates = append(candidates, vector.Candidate{ID: f.ID, Vector: f.Embedding})
		byID[f.ID] = f
	}
	matches := vector.TopK(emb.Vector, candidates, limit, 0)

	out := make([]*types.Failure, 0, len(matches))
	for _, m := range matches {
		out = append(out, byID[m.ID])
	}
	return out, nil
}

// RepoID derives the stable identifier for a repository root path
func RepoID(path string) string {
	clean := filepath.Clean(path)
	sum := sha256.Sum256([]byte(clean))
	return hex.EncodeToString(sum[:8])
}

// RegisterRepo records or refreshes a repository fingerprint. The
// fingerprint embedding lets recall boost solutions from repos with a
// similar tech stack.
func (s *Service) RegisterRepo(ctx context.Context, path string, languages, frameworks, patterns []string) (*types.Repo, error) {
	if strings.TrimSpace(path) == "" {
		return nil, types.NewValidationError("path", path, "must not be empty")
	}

	parts := make([]string, 0, len(languages)+len(frameworks)+len(patterns))
	parts = append(parts, languages...)
	parts = append(parts, frameworks...)
	parts = append(parts, patterns...)

	var fingerprint []float32
	if len(parts) > 0 {
		emb, err := s.embedder.Embed(ctx, strings.Join(parts, " "))
		if err != nil {
			return nil, fmt.Errorf("failed to embed fingerprint: %w", err)
		}
		fingerprint = emb.Vector
	}

	repo := &types.Repo{
		ID:         RepoID(path),
		Path:       filepath.Clean(path),
		Languages:  languages,
		Frameworks: frameworks,
		Patterns:   patterns,
		Embedding:  fingerprint,
	}
	if err := s.store.UpsertRepo(ctx, repo); err != nil {
		return nil, err
	}
	return repo, nil
}

// AddWarning records a caution attached to a file pattern or package name
func (s *Service) AddWarning(ctx context.Context, w *types.Warning) (*types.Warning, error) {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.CreateWarning(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *Service) RemoveWarning(ctx context.Context, id string) error {
	return s.store.DeleteWarning(ctx, id)
}

func (s *Service) ListWarnings(ctx context.Context, repoID *string) ([]*types.Warning, error) {
	return s.store.ListWarnings(ctx, repoID)
}

// CheckWarnings returns the warnings triggered by touching the given files
// or packages. File targets match exactly, as a glob, or as a directory
// prefix when the target ends in "/*".
func (s *Service) CheckWarnings(ctx context.Context, repoID *string, files, packages []string) ([]*types.Warning, error) {
	warnings, err := s.store.ListWarnings(ctx, repoID)
	if err != nil {
		return nil, err
	}

	matched := make([]*types.Warning, 0)
	for _, w := range warnings {
		switch w.Type {
		case types.WarningFile:
			for _, f := range files {
				if matchesFileTarget(w.Target, f) {
					matched = append(matched, w)
					break
				}
			}
		case types.WarningPackage:
			for _, p := range packages {
				if p == w.Target {
					matched = append(matched, w)
					break
				}
			}
		}
	}
	return matched, nil
}

func matchesFileTarget(target, path string) bool {
	if target == path {
		return true
	}
	if strings.HasSuffix(target, "/*") {
		return strings.HasPrefix(path, strings.TrimSuffix(target, "*"))
	}
	ok, err := filepath.Match(target, path)
	return err == nil && ok
}
