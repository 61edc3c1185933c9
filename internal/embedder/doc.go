// Package embedder generates vector embeddings for solution and failure text.
//
// The only built-in provider is local feature hashing: tokens and character
// trigrams are hashed into signed buckets and L2-normalized. It is
// deterministic, pure, and runs with no model files or network access, which
// keeps store and recall usable offline.
//
// Embeddings are cached in an LRU keyed by content hash, so re-storing or
// re-querying identical text never recomputes the vector.
//
// When the configured provider cannot be constructed the factory returns
// ErrModelUnavailable. Callers must propagate that failure; substituting a
// zero vector would silently corrupt every similarity ranking that touches it.
package embedder
