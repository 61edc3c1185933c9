package embedder

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/recallhq/recall-mcp/internal/vector"
	"github.com/recallhq/recall-mcp/pkg/types"
)

const (
	// ProviderLocal is the feature-hashing provider name
	ProviderLocal = "local"
	// LocalModel identifies the hashing scheme version. Bump when the
	// feature extraction changes, since stored vectors would no longer be
	// comparable to fresh ones.
	LocalModel = "feature-hash-v1"

	// Feature weights: whole tokens carry more signal than character
	// trigrams, trigrams provide robustness to inflection and typos.
	tokenWeight   = 1.0
	trigramWeight = 0.4
)

// LocalProvider embeds text with token and character-trigram feature hashing
// into a fixed number of signed buckets, L2-normalized. Entirely local and
// deterministic: no model files, no network.
type LocalProvider struct {
	dimension int
	cache     *Cache
}

// NewLocalProvider creates the local hashing embedder
func NewLocalProvider(cache *Cache) (*LocalProvider, error) {
	return &LocalProvider{
		dimension: types.EmbeddingDimension,
		cache:     cache,
	}, nil
}

// Embed generates a deterministic embedding for the given text
func (l *LocalProvider) Embed(ctx context.Context, text string) (*Embedding, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	hash := ComputeHash(text)
	if l.cache != nil {
		if emb, ok := l.cache.Get(hash); ok {
			return emb, nil
		}
	}

	acc := make([]float32, l.dimension)
	for _, tok := range tokenize(text) {
		addFeature(acc, tok, tokenWeight)
		for _, tri := range trigrams(tok) {
			addFeature(acc, tri, trigramWeight)
		}
	}

	emb := &Embedding{
		Vector:    vector.Normalize(acc),
		Dimension: l.dimension,
		Provider:  ProviderLocal,
		Model:     LocalModel,
		Hash:      hash,
	}

	if l.cache != nil {
		l.cache.Set(hash, emb)
	}
	return emb, nil
}

// EmbedBatch generates embeddings for multiple texts. Results are identical
// to calling Embed per item.
func (l *LocalProvider) EmbedBatch(ctx context.Context, texts []string) ([]*Embedding, error) {
	embeddings := make([]*Embedding, len(texts))
	for i, text := range texts {
		emb, err := l.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Dimension returns the embedding dimension
func (l *LocalProvider) Dimension() int {
	return l.dimension
}

// Provider returns the provider name
func (l *LocalProvider) Provider() string {
	return ProviderLocal
}

// Close releases resources (none for the local provider)
func (l *LocalProvider) Close() error {
	return nil
}

// addFeature hashes a feature into a signed bucket of the accumulator.
// One FNV pass yields both the bucket index and the sign bit, so the mapping
// is stable for the life of LocalModel.
func addFeature(acc []float32, feature string, weight float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()

	bucket := int(sum % uint64(len(acc)))
	if sum&(1<<63) != 0 {
		acc[bucket] -= weight
	} else {
		acc[bucket] += weight
	}
}

// tokenize splits text into lowercase alphanumeric runs
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// trigrams returns the character trigrams of a token, padded at the edges so
// short tokens still produce at least one feature.
func trigrams(token string) []string {
	padded := "^" + token + "$"
	if len(padded) < 3 {
		return nil
	}
	grams := make([]string, 0, len(padded)-2)
	for i := 0; i+3 <= len(padded); i++ {
		grams = append(grams, padded[i:i+3])
	}
	return grams
}
