package embedder

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/recallhq/recall-mcp/pkg/types"
)

// Config holds embedder configuration
type Config struct {
	Provider  string
	CacheSize int
}

// EnvProvider selects the embedding provider
const EnvProvider = "RECALL_EMBEDDING_PROVIDER"

var (
	defaultOnce sync.Once
	defaultEmb  Embedder
	defaultErr  error
)

// Default returns the process-wide embedder, initializing it on first use.
// Every entry point tolerates first-call initialization latency rather than
// assuming the instance already exists.
func Default() (Embedder, error) {
	defaultOnce.Do(func() {
		defaultEmb, defaultErr = NewFromEnv()
	})
	return defaultEmb, defaultErr
}

// NewFromEnv creates an embedder based on environment variables.
// Only the local provider runs without configuration; an unknown provider is
// a hard ErrModelUnavailable, never a silent zero-vector fallback.
func NewFromEnv() (Embedder, error) {
	return New(Config{
		Provider:  os.Getenv(EnvProvider),
		CacheSize: 10000,
	})
}

// New creates an embedder with explicit configuration
func New(cfg Config) (Embedder, error) {
	cache := NewCache(cfg.CacheSize)

	provider := strings.ToLower(cfg.Provider)
	switch provider {
	case "", ProviderLocal:
		return NewLocalProvider(cache)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", types.ErrModelUnavailable, cfg.Provider)
	}
}
