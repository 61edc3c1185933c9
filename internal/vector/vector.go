package vector

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/recallhq/recall-mcp/pkg/types"
)

// Cosine computes the cosine similarity between two vectors.
// Returns ErrDimensionMismatch when the lengths differ. A zero vector on
// either side yields 0, never NaN.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", types.ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// Candidate is one stored vector offered to TopK
type Candidate struct {
	ID     string
	Vector []float32
}

// Match is a ranked TopK result
type Match struct {
	ID         string
	Similarity float64
}

// TopK ranks candidates against the query by cosine similarity and returns at
// most k matches with similarity >= minScore, in descending order. Ties break
// on id so output is stable across runs. Candidates with missing or
// mismatched vectors are skipped rather than failing the whole scan.
func TopK(query []float32, candidates []Candidate, k int, minScore float64) []Match {
	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		if len(c.Vector) == 0 {
			continue
		}
		sim, err := Cosine(query, c.Vector)
		if err != nil {
			continue // Dimension mismatch, skip this row
		}
		if sim < minScore {
			continue
		}
		matches = append(matches, Match{ID: c.ID, Similarity: sim})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].ID < matches[j].ID
	})

	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

// Serialize converts a float32 slice to a little-endian byte blob
func Serialize(v []float32) []byte {
	blob := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(f))
	}
	return blob
}

// Deserialize converts a byte blob back to a float32 slice. A blob whose
// length is not a multiple of 4, or that does not decode to the expected
// dimension, is a corrupt record.
func Deserialize(blob []byte, dimension int) ([]float32, error) {
	if len(blob)%4 != 0 || len(blob)/4 != dimension {
		return nil, fmt.Errorf("%w: blob of %d bytes for dimension %d", types.ErrCorruptRecord, len(blob), dimension)
	}
	v := make([]float32, dimension)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return v, nil
}

// Normalize scales a vector to unit length. The zero vector is returned as-is.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	if sum == 0 {
		return v
	}
	norm := float32(math.Sqrt(sum))
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = f / norm
	}
	return out
}
