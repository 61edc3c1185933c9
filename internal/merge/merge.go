package merge

import (
	"context"
	"fmt"
	"sort"

	"github.com/recallhq/recall-mcp/internal/storage"
	"github.com/recallhq/recall-mcp/internal/vector"
	"github.com/recallhq/recall-mcp/pkg/types"
)

// DefaultThreshold is the similarity above which two solutions are
// proposed for merging
const DefaultThreshold = 0.85

// Engine finds and merges near-duplicate solutions
type Engine struct {
	store storage.Storage
}

func NewEngine(store storage.Storage) *Engine {
	return &Engine{store: store}
}

// Candidate is a proposed merge. Keeper is the record that would survive,
// chosen by score, then usage, then age.
type Candidate struct {
	Keeper     *types.Solution
	Other      *types.Solution
	Similarity float64
}

// FindCandidates compares every solution pair and returns those above the
// threshold, most similar first. The comparison is quadratic; stores are
// small enough (thousands, not millions) that this beats maintaining an
// index structure.
func (e *Engine) FindCandidates(ctx context.Context, threshold float64) ([]*Candidate, error) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	solutions, err := e.store.ListSolutions(ctx, "")
	if err != nil {
		return nil, err
	}

	candidates := make([]*Candidate, 0)
	for i := 0; i < len(solutions); i++ {
		if len(solutions[i].Embedding) == 0 {
			continue
		}
		for j := i + 1; j < len(solutions); j++ {
			if len(solutions[j].Embedding) == 0 {
				continue
			}
			sim, err := vector.Cosine(solutions[i].Embedding, solutions[j].Embedding)
			if err != nil {
				continue
			}
			if sim < threshold {
				continue
			}
			keeper, other := pickKeeper(solutions[i], solutions[j])
			candidates = append(candidates, &Candidate{
				Keeper:     keeper,
				Other:      other,
				Similarity: sim,
			})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Similarity != candidates[j].Similarity {
			return candidates[i].Similarity > candidates[j].Similarity
		}
		return candidates[i].Keeper.ID < candidates[j].Keeper.ID
	})
	return candidates, nil
}

// pickKeeper chooses which of two solutions survives a merge
func pickKeeper(a, b *types.Solution) (keeper, other *types.Solution) {
	if a.Score != b.Score {
		if a.Score > b.Score {
			return a, b
		}
		return b, a
	}
	if a.Uses != b.Uses {
		if a.Uses > b.Uses {
			return a, b
		}
		return b, a
	}
	if a.CreatedAt.Before(b.CreatedAt) {
		return a, b
	}
	return b, a
}

// Execute merges one solution into another. The keeper absorbs the removed
// record's feedback counters and tags, the removed record is deleted, and
// the merge is written to the audit log. All of it happens in one
// transaction. Merging an already-removed ID reports NotFound rather than
// corrupting the keeper twice.
func (e *Engine) Execute(ctx context.Context, keepID, removeID string) (*types.Solution, error) {
	if keepID == removeID {
		return nil, types.NewValidationError("remove_id", removeID, "cannot merge a solution into itself")
	}

	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	keeper, err := tx.GetSolution(ctx, keepID)
	if err != nil {
		return nil, fmt.Errorf("keep target: %w", err)
	}
	removed, err := tx.GetSolution(ctx, removeID)
	if err != nil {
		return nil, fmt.Errorf("remove target: %w", err)
	}

	keeper.Uses += removed.Uses
	keeper.Successes += removed.Successes
	keeper.PartialSuccesses += removed.PartialSuccesses
	keeper.Failures += removed.Failures
	keeper.Tags = unionTags(keeper.Tags, removed.Tags)
	if keeper.Uses > 0 {
		keeper.Score = (float64(keeper.Successes) + 0.5*float64(keeper.PartialSuccesses)) / float64(keeper.Uses)
	}

	if err := tx.UpdateSolution(ctx, keeper); err != nil {
		return nil, err
	}
	if err := tx.DeleteSolution(ctx, removeID); err != nil {
		return nil, err
	}
	detail := fmt.Sprintf("uses=%d successes=%d tags=%d", removed.Uses, removed.Successes, len(removed.Tags))
	if err := tx.AppendMergeLog(ctx, keepID, removeID, detail); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return keeper, nil
}

// unionTags merges two tag lists, preserving first-seen order
func unionTags(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, t := range a {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	for _, t := range b {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
