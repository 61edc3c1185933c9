// Package indexer maintains the per-repository code index and answers
// navigation queries over it.
//
// Indexing is incremental. A scan collects every supported source file and
// its mtime; the diff against the stored index yields added, modified, and
// deleted files, and only those are touched. Each file's symbol and import
// rows are replaced inside one transaction, so readers never see a
// half-indexed file. A stale index is expected between edits and reindexes;
// queries serve whatever was last committed.
//
// Only one reindex runs at a time. Concurrent attempts fail fast with
// ErrIndexInProgress instead of queuing.
package indexer
