package vector

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recallhq/recall-mcp/pkg/types"
)

func TestCosineIdentity(t *testing.T) {
	v := []float32{0.3, -0.5, 0.8, 0.1}
	sim, err := Cosine(v, v)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-9)
}

func TestCosineRange(t *testing.T) {
	pairs := [][2][]float32{
		{{1, 0, 0}, {0, 1, 0}},
		{{1, 2, 3}, {-1, -2, -3}},
		{{0.5, 0.5}, {0.5, -0.5}},
		{{1, 1, 1}, {2, 2, 2}},
	}
	for _, p := range pairs {
		sim, err := Cosine(p[0], p[1])
		require.NoError(t, err)
		assert.GreaterOrEqual(t, sim, -1.0-1e-9)
		assert.LessOrEqual(t, sim, 1.0+1e-9)
	}
}

func TestCosineOpposite(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{-1, -2, -3}
	sim, err := Cosine(a, b)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, sim, 1e-9)
}

func TestCosineDimensionMismatch(t *testing.T) {
	_, err := Cosine([]float32{1, 2}, []float32{1, 2, 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrDimensionMismatch)
}

func TestCosineZeroVector(t *testing.T) {
	zero := []float32{0, 0, 0}
	sim, err := Cosine(zero, []float32{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 0.0, sim)
	assert.False(t, math.IsNaN(sim))
}

func TestTopKLimitsAndOrder(t *testing.T) {
	query := []float32{1, 0}
	candidates := []Candidate{
		{ID: "a", Vector: []float32{1, 0}},      // sim 1.0
		{ID: "b", Vector: []float32{1, 1}},      // sim ~0.707
		{ID: "c", Vector: []float32{0, 1}},      // sim 0
		{ID: "d", Vector: []float32{1, 0.001}},  // sim ~1.0
		{ID: "e", Vector: []float32{-1, 0}},     // sim -1.0
		{ID: "bad", Vector: []float32{1, 2, 3}}, // mismatched, skipped
		{ID: "empty", Vector: nil},              // missing, skipped
	}

	matches := TopK(query, candidates, 3, 0.5)
	require.Len(t, matches, 3)
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Similarity, matches[i].Similarity)
	}
	for _, m := range matches {
		assert.GreaterOrEqual(t, m.Similarity, 0.5)
	}
	assert.Equal(t, "a", matches[0].ID)
}

func TestTopKTieBreakByID(t *testing.T) {
	query := []float32{1, 0}
	candidates := []Candidate{
		{ID: "z", Vector: []float32{2, 0}},
		{ID: "a", Vector: []float32{3, 0}},
		{ID: "m", Vector: []float32{1, 0}},
	}

	// All similarities are exactly 1.0, so order must fall back to id
	matches := TopK(query, candidates, 10, 0)
	require.Len(t, matches, 3)
	assert.Equal(t, []string{"a", "m", "z"}, []string{matches[0].ID, matches[1].ID, matches[2].ID})
}

func TestSerializeRoundTrip(t *testing.T) {
	v := []float32{0.1, -2.5, 3.75, 0}
	blob := Serialize(v)
	assert.Len(t, blob, len(v)*4)

	out, err := Deserialize(blob, len(v))
	require.NoError(t, err)
	assert.Equal(t, v, out)
}

func TestDeserializeCorruptBlob(t *testing.T) {
	_, err := Deserialize([]byte{1, 2, 3}, 1)
	assert.ErrorIs(t, err, types.ErrCorruptRecord)

	// Right alignment, wrong dimension
	_, err = Deserialize(make([]byte, 8), 4)
	assert.ErrorIs(t, err, types.ErrCorruptRecord)
}

func TestNormalize(t *testing.T) {
	v := Normalize([]float32{3, 4})
	assert.InDelta(t, 0.6, float64(v[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(v[1]), 1e-6)

	zero := Normalize([]float32{0, 0})
	assert.Equal(t, []float32{0, 0}, zero)
}
